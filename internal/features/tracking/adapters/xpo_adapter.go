package adapter

import (
	"context"
	"fmt"

	"freight-tracker/internal/core/logger"
	"freight-tracker/internal/features/tracking/domain"

	"github.com/go-rod/rod"
	"go.uber.org/zap"
)

const xpoResultPattern = `/delivered|delivery date|estimated delivery|not found|no results/i`

// XPOAdapter tracks XPO LTL shipments through the public shipment page.
type XPOAdapter struct {
	baseURL string
	browser BrowserOptions
	logger  *zap.Logger
}

// NewXPOAdapter creates a new XPOAdapter.
func NewXPOAdapter(baseURL string, browser BrowserOptions) *XPOAdapter {
	return &XPOAdapter{
		baseURL: baseURL,
		browser: browser,
		logger:  logger.Get().With(zap.String("carrier", domain.CarrierXPO.String())),
	}
}

// Carrier implements ports.CarrierAdapter.
func (a *XPOAdapter) Carrier() domain.Carrier {
	return domain.CarrierXPO
}

// Fetch opens the shipment page for trackingID and returns its text once the
// single-page app has rendered a result.
func (a *XPOAdapter) Fetch(ctx context.Context, trackingID string) (*domain.FetchResult, error) {
	pageURL, err := trackingURL(a.baseURL, "referenceNumber", trackingID)
	if err != nil {
		return nil, err
	}

	var text string
	err = withPage(ctx, a.browser, a.logger, func(page *rod.Page) error {
		if err := navigate(page, pageURL); err != nil {
			return err
		}
		var err error
		text, err = waitForText(page, xpoResultPattern)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("xpo %s: %w", trackingID, err)
	}

	return &domain.FetchResult{Text: text}, nil
}
