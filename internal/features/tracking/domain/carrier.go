package domain

import (
	"sort"
	"strings"
)

// Carrier identifies one of the supported LTL freight carriers.
type Carrier string

const (
	// CarrierSEFL is Southeastern Freight Lines.
	CarrierSEFL Carrier = "SEFL"
	// CarrierXPO is XPO Logistics.
	CarrierXPO Carrier = "XPO"
	// CarrierForwardAir is Forward Air.
	CarrierForwardAir Carrier = "FORWARD_AIR"
	// CarrierRL is R&L Carriers.
	CarrierRL Carrier = "RL"
	// CarrierSAIA is SAIA LTL Freight.
	CarrierSAIA Carrier = "SAIA"
	// CarrierUnknown is used when the raw carrier text matches no rule.
	// It is never dispatched to an adapter.
	CarrierUnknown Carrier = "UNKNOWN"
)

// KnownCarriers lists every dispatchable carrier in a stable order.
var KnownCarriers = []Carrier{
	CarrierSEFL,
	CarrierXPO,
	CarrierForwardAir,
	CarrierRL,
	CarrierSAIA,
}

// String returns the carrier code.
func (c Carrier) String() string {
	return string(c)
}

// DisplayName returns the human readable carrier name used in reports.
func (c Carrier) DisplayName() string {
	switch c {
	case CarrierSEFL:
		return "Southeastern Freight Lines"
	case CarrierXPO:
		return "XPO Logistics"
	case CarrierForwardAir:
		return "Forward Air"
	case CarrierRL:
		return "R&L Carriers"
	case CarrierSAIA:
		return "SAIA"
	default:
		return "Unknown"
	}
}

// IsKnown reports whether the carrier can be dispatched to an adapter.
func (c Carrier) IsKnown() bool {
	for _, k := range KnownCarriers {
		if c == k {
			return true
		}
	}
	return false
}

// CarrierRule maps a lowercase word or phrase of the raw carrier text to a Carrier.
type CarrierRule struct {
	// Pattern is matched case-insensitively as a whole word or phrase.
	Pattern string
	// Carrier is the result when Pattern matches.
	Carrier Carrier
}

// carrierRules is kept sorted longest pattern first so that the most specific
// rule wins. A bare "forward" is deliberately absent.
var carrierRules = sortRules([]CarrierRule{
	{Pattern: "southeastern", Carrier: CarrierSEFL},
	{Pattern: "sefl", Carrier: CarrierSEFL},
	{Pattern: "forward air", Carrier: CarrierForwardAir},
	{Pattern: "forwardair", Carrier: CarrierForwardAir},
	{Pattern: "rl carriers", Carrier: CarrierRL},
	{Pattern: "r&l", Carrier: CarrierRL},
	{Pattern: "r+l", Carrier: CarrierRL},
	{Pattern: "saia", Carrier: CarrierSAIA},
	{Pattern: "xpo", Carrier: CarrierXPO},
})

func sortRules(rules []CarrierRule) []CarrierRule {
	sort.SliceStable(rules, func(i, j int) bool {
		return len(rules[i].Pattern) > len(rules[j].Pattern)
	})
	return rules
}

// CarrierRules returns a copy of the resolution rules in evaluation order.
func CarrierRules() []CarrierRule {
	out := make([]CarrierRule, len(carrierRules))
	copy(out, carrierRules)
	return out
}

// ResolveCarrier maps free-text carrier names (e.g. "SOUTHEASTERN FREIGHT LINES")
// to a Carrier. The first matching rule wins; no match yields CarrierUnknown.
func ResolveCarrier(raw string) Carrier {
	text := strings.ToLower(strings.TrimSpace(raw))
	if text == "" {
		return CarrierUnknown
	}

	for _, rule := range carrierRules {
		if containsWord(text, rule.Pattern) {
			return rule.Carrier
		}
	}

	return CarrierUnknown
}

// containsWord reports whether pattern occurs in text with no letter or digit
// directly on either side, so "xpo" does not match "expo".
func containsWord(text, pattern string) bool {
	for from := 0; from+len(pattern) <= len(text); {
		i := strings.Index(text[from:], pattern)
		if i < 0 {
			return false
		}
		start, end := from+i, from+i+len(pattern)
		if !isWordByte(text, start-1) && !isWordByte(text, end) {
			return true
		}
		from = start + 1
	}
	return false
}

func isWordByte(text string, i int) bool {
	if i < 0 || i >= len(text) {
		return false
	}
	c := text[i]
	return c >= 'a' && c <= 'z' || c >= '0' && c <= '9' || c >= 0x80
}

// ParseCarrier accepts either a carrier code ("FORWARD_AIR", "rl") or free text
// understood by ResolveCarrier.
func ParseCarrier(s string) Carrier {
	code := Carrier(strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(s), "-", "_")))
	if code.IsKnown() {
		return code
	}
	return ResolveCarrier(s)
}
