package adapter

import (
	"context"
	"fmt"

	"freight-tracker/internal/core/logger"
	"freight-tracker/internal/features/tracking/domain"

	"github.com/go-rod/rod"
	"go.uber.org/zap"
)

const rlResultPattern = `/delivered on time on|est\. delivery date|delivered|not found/i`

// RLAdapter tracks R&L Carriers PROs through the shipment tracing page.
type RLAdapter struct {
	baseURL string
	browser BrowserOptions
	logger  *zap.Logger
}

// NewRLAdapter creates a new RLAdapter.
func NewRLAdapter(baseURL string, browser BrowserOptions) *RLAdapter {
	return &RLAdapter{
		baseURL: baseURL,
		browser: browser,
		logger:  logger.Get().With(zap.String("carrier", domain.CarrierRL.String())),
	}
}

// Carrier implements ports.CarrierAdapter.
func (a *RLAdapter) Carrier() domain.Carrier {
	return domain.CarrierRL
}

// Fetch returns the tracing page text, which carries either
// "delivered on time on MM/DD/YYYY" or an "Est. Delivery Date" row.
func (a *RLAdapter) Fetch(ctx context.Context, trackingID string) (*domain.FetchResult, error) {
	pageURL, err := rlTrackingURL(a.baseURL, trackingID)
	if err != nil {
		return nil, err
	}

	var text string
	err = withPage(ctx, a.browser, a.logger, func(page *rod.Page) error {
		if err := navigate(page, pageURL); err != nil {
			return err
		}
		var err error
		text, err = waitForText(page, rlResultPattern)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("r&l %s: %w", trackingID, err)
	}

	return &domain.FetchResult{Text: text}, nil
}

func rlTrackingURL(baseURL, trackingID string) (string, error) {
	pageURL, err := trackingURL(baseURL, "pro", trackingID)
	if err != nil {
		return "", err
	}
	return pageURL + "&docType=PRO&source=web", nil
}
