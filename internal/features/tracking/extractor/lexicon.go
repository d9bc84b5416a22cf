package extractor

import "freight-tracker/internal/features/tracking/domain"

// PhraseOverride short-circuits the cue search when Phrase appears in the text.
type PhraseOverride struct {
	// Phrase is matched case-insensitively.
	Phrase string
	// Kind is the status assigned on a match, normally Delivered or InTransit.
	Kind domain.StatusKind
}

// Lexicon holds the carrier-specific phrases checked before the shared cue search.
type Lexicon struct {
	Carrier   domain.Carrier
	Overrides []PhraseOverride
}

// DefaultLexicons returns the phrase lists observed on each carrier's tracking pages.
func DefaultLexicons() []Lexicon {
	return []Lexicon{
		{
			Carrier: domain.CarrierSEFL,
			Overrides: []PhraseOverride{
				{Phrase: "delivered to customer", Kind: domain.StatusDelivered},
			},
		},
		{
			Carrier: domain.CarrierXPO,
			Overrides: []PhraseOverride{
				{Phrase: "shipment has been delivered to the recipient", Kind: domain.StatusDelivered},
			},
		},
		{
			Carrier: domain.CarrierForwardAir,
			Overrides: []PhraseOverride{
				// Forward Air only invoices after proof of delivery.
				{Phrase: "invoiced", Kind: domain.StatusDelivered},
				{Phrase: "departed", Kind: domain.StatusInTransit},
			},
		},
		{Carrier: domain.CarrierRL},
		{Carrier: domain.CarrierSAIA},
	}
}
