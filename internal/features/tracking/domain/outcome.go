package domain

import "time"

// StatusKind is the normalized status produced for each tracked shipment.
type StatusKind string

const (
	// StatusDelivered means the carrier reports the shipment delivered.
	StatusDelivered StatusKind = "DELIVERED"
	// StatusInTransit means the shipment is moving; the date, if any, is the ETA.
	StatusInTransit StatusKind = "IN_TRANSIT"
	// StatusPendingPickup means no PRO number has been assigned yet.
	StatusPendingPickup StatusKind = "PENDING_PICKUP"
	// StatusUnknown means the carrier text carried no recognizable cue.
	StatusUnknown StatusKind = "UNKNOWN"
	// StatusError means the adapter failed for this shipment.
	StatusError StatusKind = "ERROR"
)

// StructuredResult is what an adapter returns when it does its own minimal parsing.
type StructuredResult struct {
	// Found is false when the carrier page had nothing for the tracking id.
	Found bool `json:"found"`
	// Phrase is the status phrase, e.g. "Invoiced" or "Expected Delivery".
	Phrase string `json:"phrase"`
	// Date is the raw date text associated with Phrase.
	Date string `json:"date"`
}

// FetchResult is an adapter's answer: free text, a structured triple, or both.
type FetchResult struct {
	// Text is unstructured text captured from the carrier tracking page.
	Text string `json:"text,omitempty"`
	// Structured is set when the adapter parsed the page itself.
	Structured *StructuredResult `json:"structured,omitempty"`
}

// TrackingOutcome is produced exactly once per eligible shipment per run.
type TrackingOutcome struct {
	BOL        string     `json:"bol"`
	Carrier    Carrier    `json:"carrier"`
	TrackingID string     `json:"tracking_id"`
	StatusKind StatusKind `json:"status"`
	// ResolvedDate is the delivery date for Delivered and the ETA for InTransit.
	ResolvedDate *time.Time `json:"resolved_date,omitempty"`
	// ErrorDetail is only populated when StatusKind is StatusError.
	ErrorDetail string `json:"error_detail,omitempty"`
}

// NewOutcome starts an outcome carrying the shipment's identifiers.
func NewOutcome(s Shipment, kind StatusKind) TrackingOutcome {
	return TrackingOutcome{
		BOL:        s.BOL,
		Carrier:    s.Carrier,
		TrackingID: s.TrackingID,
		StatusKind: kind,
	}
}

// ErrorOutcome builds an Error outcome for s.
func ErrorOutcome(s Shipment, detail string) TrackingOutcome {
	o := NewOutcome(s, StatusError)
	o.ErrorDetail = detail
	return o
}
