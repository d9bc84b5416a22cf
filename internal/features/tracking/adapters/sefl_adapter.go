package adapter

import (
	"context"
	"fmt"

	"freight-tracker/internal/core/logger"
	"freight-tracker/internal/features/tracking/domain"

	"github.com/go-rod/rod"
	"go.uber.org/zap"
)

const seflResultPattern = `/delivered|estimated delivery|not found|no record/i`

// SEFLAdapter tracks Southeastern Freight Lines PROs through the public trace form.
type SEFLAdapter struct {
	baseURL string
	browser BrowserOptions
	logger  *zap.Logger
}

// NewSEFLAdapter creates a new SEFLAdapter with the given trace page and browser options.
func NewSEFLAdapter(baseURL string, browser BrowserOptions) *SEFLAdapter {
	return &SEFLAdapter{
		baseURL: baseURL,
		browser: browser,
		logger:  logger.Get().With(zap.String("carrier", domain.CarrierSEFL.String())),
	}
}

// Carrier implements ports.CarrierAdapter.
func (a *SEFLAdapter) Carrier() domain.Carrier {
	return domain.CarrierSEFL
}

// Fetch submits the trace form and returns the result page text.
func (a *SEFLAdapter) Fetch(ctx context.Context, trackingID string) (*domain.FetchResult, error) {
	var text string
	err := withPage(ctx, a.browser, a.logger, func(page *rod.Page) error {
		if err := navigate(page, a.baseURL); err != nil {
			return err
		}
		if err := fillAndSubmit(page, "textarea", "button, input[type=submit]", "/submit trace/i", trackingID); err != nil {
			return err
		}
		var err error
		text, err = waitForText(page, seflResultPattern)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("sefl %s: %w", trackingID, err)
	}

	a.logger.Debug("Trace page captured", zap.String("tracking_id", trackingID), zap.Int("chars", len(text)))
	return &domain.FetchResult{Text: text}, nil
}
