package adapter

import (
	"context"
	"fmt"

	"freight-tracker/internal/core/logger"
	"freight-tracker/internal/features/tracking/domain"

	"github.com/go-rod/rod"
	"go.uber.org/zap"
)

const saiaResultPattern = `/delivered|estimated delivery|not found/i`

// SAIAAdapter tracks SAIA PROs through the track form. The site may present a
// captcha; when it does the fetch runs into the orchestrator timeout and is
// reported as an error for that shipment only.
type SAIAAdapter struct {
	baseURL string
	browser BrowserOptions
	logger  *zap.Logger
}

// NewSAIAAdapter creates a new SAIAAdapter.
func NewSAIAAdapter(baseURL string, browser BrowserOptions) *SAIAAdapter {
	return &SAIAAdapter{
		baseURL: baseURL,
		browser: browser,
		logger:  logger.Get().With(zap.String("carrier", domain.CarrierSAIA.String())),
	}
}

// Carrier implements ports.CarrierAdapter.
func (a *SAIAAdapter) Carrier() domain.Carrier {
	return domain.CarrierSAIA
}

// Fetch fills the PRO textarea, submits, and returns the result text.
func (a *SAIAAdapter) Fetch(ctx context.Context, trackingID string) (*domain.FetchResult, error) {
	var text string
	err := withPage(ctx, a.browser, a.logger, func(page *rod.Page) error {
		if err := navigate(page, a.baseURL); err != nil {
			return err
		}
		if err := fillAndSubmit(page, "textarea", "button", "/^\\s*track\\s*$/i", trackingID); err != nil {
			return err
		}
		var err error
		text, err = waitForText(page, saiaResultPattern)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("saia %s: %w", trackingID, err)
	}

	return &domain.FetchResult{Text: text}, nil
}
