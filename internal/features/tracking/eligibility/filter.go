package eligibility

import "freight-tracker/internal/features/tracking/domain"

// Filter decides which shipments are worth sending to a carrier.
type Filter struct {
	calendar *Calendar
}

// NewFilter creates a Filter backed by the given calendar.
func NewFilter(calendar *Calendar) *Filter {
	return &Filter{calendar: calendar}
}

// ShouldTrack excludes voided shipments and deliveries older than the previous
// business day. Everything else is re-tracked, including unknown statuses.
func (f *Filter) ShouldTrack(s domain.Shipment) bool {
	switch s.LastKnownStatus {
	case domain.LastKnownVoid:
		return false
	case domain.LastKnownDelivered:
		return s.LastKnownDate != nil && f.calendar.IsTodayOrPrevBusinessDay(*s.LastKnownDate)
	default:
		return true
	}
}

// Select returns the eligible subset of shipments, keeping input order.
func (f *Filter) Select(shipments []domain.Shipment) []domain.Shipment {
	eligible := make([]domain.Shipment, 0, len(shipments))
	for _, s := range shipments {
		if f.ShouldTrack(s) {
			eligible = append(eligible, s)
		}
	}
	return eligible
}
