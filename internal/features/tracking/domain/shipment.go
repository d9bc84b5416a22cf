package domain

import (
	"strings"
	"time"
)

// LastKnownStatus is the status a shipment had when the input records were exported.
type LastKnownStatus string

const (
	// LastKnownVoid marks a cancelled shipment; it never produces an outcome.
	LastKnownVoid LastKnownStatus = "VOID"
	// LastKnownDelivered marks a shipment already delivered.
	LastKnownDelivered LastKnownStatus = "DELIVERED"
	// LastKnownInTransit marks a shipment on its way.
	LastKnownInTransit LastKnownStatus = "IN_TRANSIT"
	// LastKnownPendingPickup marks a shipment not yet picked up.
	LastKnownPendingPickup LastKnownStatus = "PENDING_PICKUP"
	// LastKnownUnknown covers blank or unrecognized status text.
	LastKnownUnknown LastKnownStatus = "UNKNOWN"
)

// Input record field names, as exported by the shipping portal.
const (
	FieldCarrier    = "Carrier"
	FieldBOL        = "BOL #"
	FieldTrackingID = "PRO/Tracking#"
	FieldStatus     = "Status"
	FieldETA        = "Estimated Delivery Date"
)

// Record is one raw input row keyed by column header.
type Record map[string]string

// Shipment identifies one freight movement. It is built once per run and never mutated.
type Shipment struct {
	// BOL is the bill of lading, unique within a batch.
	BOL string `json:"bol"`
	// TrackingID is the carrier PRO number; empty means not yet shipped.
	TrackingID string `json:"tracking_id"`
	// Carrier is resolved from CarrierRaw.
	Carrier Carrier `json:"carrier"`
	// CarrierRaw is the carrier text as found in the record.
	CarrierRaw string `json:"carrier_raw"`
	// LastKnownStatus is the normalized status from the record.
	LastKnownStatus LastKnownStatus `json:"last_known_status"`
	// RawStatus is the status text as found in the record.
	RawStatus string `json:"raw_status,omitempty"`
	// LastKnownDate is the last recorded estimated or actual delivery date, nil if absent or unparseable.
	LastKnownDate *time.Time `json:"last_known_date,omitempty"`
	// RawDate is the date text as found in the record.
	RawDate string `json:"raw_date,omitempty"`
}

// HasTrackingID reports whether the shipment has been assigned a PRO number.
func (s Shipment) HasTrackingID() bool {
	return s.TrackingID != ""
}

// NewShipmentFromRecord normalizes a raw input row into a Shipment.
// Missing or "nan" tracking and date values normalize to empty.
func NewShipmentFromRecord(r Record) Shipment {
	carrierRaw := cleanField(r[FieldCarrier])
	rawStatus := cleanField(r[FieldStatus])
	rawDate := cleanField(r[FieldETA])

	s := Shipment{
		BOL:             cleanField(r[FieldBOL]),
		TrackingID:      cleanField(r[FieldTrackingID]),
		Carrier:         ResolveCarrier(carrierRaw),
		CarrierRaw:      carrierRaw,
		LastKnownStatus: NormalizeStatus(rawStatus),
		RawStatus:       rawStatus,
		RawDate:         rawDate,
	}

	if rawDate != "" {
		if d, err := ParseDate(rawDate); err == nil {
			s.LastKnownDate = &d
		}
	}

	return s
}

// NormalizeStatus maps free-text status to a LastKnownStatus.
// Any text containing "void" (which includes "voided") is Void.
func NormalizeStatus(raw string) LastKnownStatus {
	text := strings.ToLower(strings.TrimSpace(raw))
	compact := strings.NewReplacer("_", " ", "-", " ").Replace(text)

	switch {
	case text == "":
		return LastKnownUnknown
	case strings.Contains(text, "void"):
		return LastKnownVoid
	case strings.Contains(compact, "not delivered"):
		return LastKnownInTransit
	case strings.Contains(text, "delivered"):
		return LastKnownDelivered
	case strings.Contains(compact, "in transit"), strings.Contains(text, "intransit"):
		return LastKnownInTransit
	case strings.Contains(compact, "pending pickup"), strings.Contains(compact, "not picked up"):
		return LastKnownPendingPickup
	default:
		return LastKnownUnknown
	}
}

func cleanField(v string) string {
	v = strings.TrimSpace(v)
	if strings.EqualFold(v, "nan") {
		return ""
	}
	return v
}
