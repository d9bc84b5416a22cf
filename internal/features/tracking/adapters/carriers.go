package adapter

import (
	"time"

	"freight-tracker/internal/core/cache"
	"freight-tracker/internal/core/config"
	"freight-tracker/internal/features/tracking/domain"
	"freight-tracker/internal/features/tracking/ports"
)

// NewCarrierAdapters builds one browser-backed adapter per known carrier.
func NewCarrierAdapters(urls config.CarrierURLs, browser BrowserOptions) []ports.CarrierAdapter {
	return []ports.CarrierAdapter{
		NewSEFLAdapter(urls.SEFL, browser),
		NewXPOAdapter(urls.XPO, browser),
		NewForwardAirAdapter(urls.ForwardAir, browser),
		NewRLAdapter(urls.RL, browser),
		NewSAIAAdapter(urls.SAIA, browser),
	}
}

// WithCache wraps every adapter in a CachedAdapter sharing c.
func WithCache(adapters []ports.CarrierAdapter, c cache.Cache, ttl time.Duration) []ports.CarrierAdapter {
	out := make([]ports.CarrierAdapter, len(adapters))
	for i, a := range adapters {
		out[i] = NewCachedAdapter(a, c, ttl)
	}
	return out
}

// TrackingPage returns the configured page for carrier, or "" for Unknown.
func TrackingPage(urls config.CarrierURLs, carrier domain.Carrier) string {
	switch carrier {
	case domain.CarrierSEFL:
		return urls.SEFL
	case domain.CarrierXPO:
		return urls.XPO
	case domain.CarrierForwardAir:
		return urls.ForwardAir
	case domain.CarrierRL:
		return urls.RL
	case domain.CarrierSAIA:
		return urls.SAIA
	default:
		return ""
	}
}
