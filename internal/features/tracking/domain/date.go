package domain

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ErrDateParse is returned when a date string cannot be interpreted.
var ErrDateParse = errors.New("unparseable date")

// DateLayout is the ISO layout used when dates leave the core (JSON, logs).
const DateLayout = "2006-01-02"

var (
	usDatePattern  = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{2}|\d{4})$`)
	isoDatePattern = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})$`)
)

// ParseDate parses MM/DD/YYYY, MM/DD/YY or YYYY-MM-DD into a civil date
// (midnight UTC). Two-digit years pivot at 50: 24 => 2024, 87 => 1987.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)

	if m := usDatePattern.FindStringSubmatch(s); m != nil {
		month, _ := strconv.Atoi(m[1])
		day, _ := strconv.Atoi(m[2])
		year, _ := strconv.Atoi(m[3])
		if len(m[3]) == 2 {
			year = ExpandYear(year)
		}
		return civilDate(year, month, day, s)
	}

	if m := isoDatePattern.FindStringSubmatch(s); m != nil {
		year, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		day, _ := strconv.Atoi(m[3])
		return civilDate(year, month, day, s)
	}

	return time.Time{}, fmt.Errorf("%w: %q", ErrDateParse, s)
}

// ExpandYear applies the two-digit year pivot.
func ExpandYear(yy int) int {
	if yy < 50 {
		return 2000 + yy
	}
	return 1900 + yy
}

// civilDate rejects values time.Date would silently normalize (e.g. 02/30).
func civilDate(year, month, day int, raw string) (time.Time, error) {
	if month < 1 || month > 12 || day < 1 {
		return time.Time{}, fmt.Errorf("%w: %q", ErrDateParse, raw)
	}
	d := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if d.Day() != day || int(d.Month()) != month {
		return time.Time{}, fmt.Errorf("%w: %q", ErrDateParse, raw)
	}
	return d, nil
}

// DateOf truncates t to its calendar date in t's own location, returned as midnight UTC.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
