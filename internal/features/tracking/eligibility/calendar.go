package eligibility

import (
	"time"

	"freight-tracker/internal/features/tracking/domain"
)

// Calendar answers business-day questions relative to an as-of date.
// Weekends are the only non-business days; there is no holiday table.
type Calendar struct {
	now func() time.Time
}

// NewCalendar returns a Calendar pinned to the calendar date of asOf.
func NewCalendar(asOf time.Time) *Calendar {
	today := domain.DateOf(asOf)
	return &Calendar{now: func() time.Time { return today }}
}

// SystemCalendar returns a Calendar that reads the local clock on every call.
func SystemCalendar() *Calendar {
	return &Calendar{now: time.Now}
}

// Today returns the as-of date as midnight UTC.
func (c *Calendar) Today() time.Time {
	return domain.DateOf(c.now())
}

// PreviousBusinessDay returns Friday when today is Monday, otherwise yesterday.
func (c *Calendar) PreviousBusinessDay() time.Time {
	today := c.Today()
	if today.Weekday() == time.Monday {
		return today.AddDate(0, 0, -3)
	}
	return today.AddDate(0, 0, -1)
}

// IsTodayOrPrevBusinessDay compares calendar dates only; the time of day is ignored.
func (c *Calendar) IsTodayOrPrevBusinessDay(date time.Time) bool {
	d := domain.DateOf(date)
	return d.Equal(c.Today()) || d.Equal(c.PreviousBusinessDay())
}
