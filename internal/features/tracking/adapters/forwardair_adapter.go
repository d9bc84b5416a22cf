package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"freight-tracker/internal/core/logger"
	"freight-tracker/internal/features/tracking/domain"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"go.uber.org/zap"
)

// The details button is only identifiable by its chevron icon.
const forwardAirDetailsJS = `() => {
	const path = document.querySelector('svg > path[d="M10 6 8.59 7.41 13.17 12l-4.58 4.59L10 18l6-6z"]');
	return path ? path.closest("button,a") : null;
}`

// forwardAirModalJS reads the status and ETA labels from the details modal.
const forwardAirModalJS = `() => {
	const out = {status: "", eta: ""};
	const eta = document.querySelector("div.delivery-date .copy");
	if (eta && eta.textContent.trim() === "Expected Delivery" && eta.nextElementSibling) {
		out.eta = eta.nextElementSibling.textContent.trim();
	}
	for (const block of document.querySelectorAll("div.shipment-progress")) {
		const label = block.querySelector("div.copy");
		if (label && label.textContent.trim() === "Status:" && label.nextElementSibling) {
			out.status = label.nextElementSibling.textContent.trim();
			break;
		}
	}
	return JSON.stringify(out);
}`

var forwardAirDate = regexp.MustCompile(`\d{1,2}/\d{1,2}/\d{2,4}`)

type forwardAirModal struct {
	Status string `json:"status"`
	ETA    string `json:"eta"`
}

// ForwardAirAdapter tracks Forward Air shipments. Unlike the other carriers it
// reads the details modal itself and returns a StructuredResult.
type ForwardAirAdapter struct {
	baseURL string
	browser BrowserOptions
	logger  *zap.Logger
}

// NewForwardAirAdapter creates a new ForwardAirAdapter.
func NewForwardAirAdapter(baseURL string, browser BrowserOptions) *ForwardAirAdapter {
	return &ForwardAirAdapter{
		baseURL: baseURL,
		browser: browser,
		logger:  logger.Get().With(zap.String("carrier", domain.CarrierForwardAir.String())),
	}
}

// Carrier implements ports.CarrierAdapter.
func (a *ForwardAirAdapter) Carrier() domain.Carrier {
	return domain.CarrierForwardAir
}

// Fetch opens the shipment details modal and reads its status and ETA.
func (a *ForwardAirAdapter) Fetch(ctx context.Context, trackingID string) (*domain.FetchResult, error) {
	pageURL, err := trackingURL(a.baseURL, "numbers", trackingID)
	if err != nil {
		return nil, err
	}

	var modal forwardAirModal
	err = withPage(ctx, a.browser, a.logger, func(page *rod.Page) error {
		if err := navigate(page, pageURL); err != nil {
			return err
		}

		details, err := page.ElementByJS(rod.Eval(forwardAirDetailsJS))
		if err != nil {
			return fmt.Errorf("details button not found: %w", err)
		}
		if err := details.Click(proto.InputMouseButtonLeft, 1); err != nil {
			return fmt.Errorf("failed to open details: %w", err)
		}

		if _, err := page.Element("div.shipment-progress"); err != nil {
			return fmt.Errorf("details modal never opened: %w", err)
		}

		res, err := page.Eval(forwardAirModalJS)
		if err != nil {
			return fmt.Errorf("failed to read details modal: %w", err)
		}
		if err := json.Unmarshal([]byte(res.Value.Str()), &modal); err != nil {
			return fmt.Errorf("failed to parse details modal: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("forward air %s: %w", trackingID, err)
	}

	a.logger.Debug("Details modal read",
		zap.String("tracking_id", trackingID),
		zap.String("status", modal.Status),
		zap.String("eta", modal.ETA),
	)
	return &domain.FetchResult{Structured: structureForwardAir(modal)}, nil
}

// structureForwardAir reduces the modal to a status phrase and date.
// "Invoiced" wins over an ETA because Forward Air invoices after delivery.
func structureForwardAir(m forwardAirModal) *domain.StructuredResult {
	status := strings.TrimSpace(m.Status)
	if status == "" {
		return &domain.StructuredResult{Found: false}
	}

	if strings.Contains(strings.ToLower(status), "invoiced") {
		return &domain.StructuredResult{Found: true, Phrase: "Invoiced"}
	}

	if eta := forwardAirDate.FindString(m.ETA); eta != "" {
		return &domain.StructuredResult{Found: true, Phrase: "Expected Delivery", Date: eta}
	}

	return &domain.StructuredResult{Found: true, Phrase: status}
}
