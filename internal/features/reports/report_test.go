package reports

import (
	"strings"
	"testing"
	"time"

	"freight-tracker/internal/features/tracking/domain"

	"github.com/stretchr/testify/assert"
)

func date(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func sampleOutcomes() []domain.TrackingOutcome {
	return []domain.TrackingOutcome{
		{BOL: "BOL1", Carrier: domain.CarrierXPO, StatusKind: domain.StatusPendingPickup},
		{BOL: "BOL2", Carrier: domain.CarrierXPO, TrackingID: "528338366", StatusKind: domain.StatusDelivered, ResolvedDate: date(2024, 6, 10)},
		{BOL: "BOL4", Carrier: domain.CarrierSEFL, TrackingID: "413238172", StatusKind: domain.StatusInTransit, ResolvedDate: date(2024, 12, 1)},
		{BOL: "BOL5", Carrier: domain.CarrierSAIA, TrackingID: "10776626490", StatusKind: domain.StatusError, ErrorDetail: "adapter timed out after 1m0s"},
	}
}

func TestStatusPhrase(t *testing.T) {
	tests := []struct {
		name     string
		outcome  domain.TrackingOutcome
		expected string
	}{
		{name: "Pending pickup", outcome: domain.TrackingOutcome{StatusKind: domain.StatusPendingPickup}, expected: "not picked up"},
		{name: "Delivered", outcome: domain.TrackingOutcome{StatusKind: domain.StatusDelivered, ResolvedDate: date(2024, 6, 10)}, expected: "delivered on 06/10"},
		{name: "Delivered without date", outcome: domain.TrackingOutcome{StatusKind: domain.StatusDelivered}, expected: "delivered"},
		{name: "In transit", outcome: domain.TrackingOutcome{StatusKind: domain.StatusInTransit, ResolvedDate: date(2024, 12, 1)}, expected: "eta is 12/01"},
		{name: "In transit without date", outcome: domain.TrackingOutcome{StatusKind: domain.StatusInTransit}, expected: "in transit"},
		{name: "Unknown", outcome: domain.TrackingOutcome{StatusKind: domain.StatusUnknown}, expected: "unknown"},
		{name: "Error", outcome: domain.TrackingOutcome{StatusKind: domain.StatusError, ErrorDetail: "boom"}, expected: "error: boom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, StatusPhrase(tt.outcome))
		})
	}
}

func TestRenderText(t *testing.T) {
	shipments := []domain.Shipment{
		{BOL: "BOL1", CarrierRaw: "XPO LOGISTICS"},
		{BOL: "BOL2", CarrierRaw: "XPO LOGISTICS"},
	}
	generated := time.Date(2024, 6, 11, 9, 30, 0, 0, time.UTC)

	out := RenderText(shipments, sampleOutcomes(), generated)

	assert.True(t, strings.HasPrefix(out, "Tracking Results\nGenerated: 2024-06-11 09:30:00\n"))
	assert.Contains(t, out, "XPO LOGISTICS")
	// BOL4 has no shipment entry, so the display name is used.
	assert.Contains(t, out, "Southeastern Freight Lines")
	assert.Contains(t, out, "delivered on 06/10")
	assert.Contains(t, out, "eta is 12/01")
	assert.Contains(t, out, "not picked up")
	assert.Contains(t, out, "error: adapter timed out after 1m0s")
	assert.Contains(t, out, "╭")
	assert.Contains(t, out, "4 shipments: 1 delivered, 1 in transit, 1 pending pickup, 1 failed")

	// Rows keep outcome order.
	assert.Less(t, strings.Index(out, "BOL1"), strings.Index(out, "BOL2"))
	assert.Less(t, strings.Index(out, "BOL2"), strings.Index(out, "BOL4"))
}

func TestRenderText_Empty(t *testing.T) {
	out := RenderText(nil, nil, time.Date(2024, 6, 11, 0, 0, 0, 0, time.UTC))

	assert.Contains(t, out, "No shipments needed tracking.")
}

func TestSummary(t *testing.T) {
	assert.Equal(t, "0 shipments", Summary(nil))
	assert.Equal(t, "1 shipment: 1 unknown", Summary([]domain.TrackingOutcome{{StatusKind: domain.StatusUnknown}}))
}

func TestResultsFileName(t *testing.T) {
	got := ResultsFileName(time.Date(2024, 6, 11, 14, 5, 9, 0, time.UTC))

	assert.Equal(t, "tracking_results_2024-06-11_14-05-09.txt", got)
}
