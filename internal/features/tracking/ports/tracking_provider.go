package ports

import (
	"context"

	"freight-tracker/internal/features/tracking/domain"
)

// CarrierAdapter defines the interface for carrier tracking implementations.
type CarrierAdapter interface {
	// Carrier returns the carrier this adapter tracks.
	Carrier() domain.Carrier
	// Fetch retrieves raw tracking content for a PRO number.
	// Implementations must stop work when ctx is done.
	Fetch(ctx context.Context, trackingID string) (*domain.FetchResult, error)
}
