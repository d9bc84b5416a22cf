package handler

import (
	"errors"
	"time"

	"freight-tracker/internal/core/server"
	"freight-tracker/internal/features/tracking/domain"
	"freight-tracker/internal/features/tracking/eligibility"
	"freight-tracker/internal/features/tracking/service"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// TrackingHandler handles HTTP requests for tracking operations.
type TrackingHandler struct {
	orchestrator *service.Orchestrator
	validate     *validator.Validate
}

// NewTrackingHandler creates a new TrackingHandler.
func NewTrackingHandler(orchestrator *service.Orchestrator) *TrackingHandler {
	return &TrackingHandler{
		orchestrator: orchestrator,
		validate:     validator.New(validator.WithRequiredStructEnabled()),
	}
}

// RegisterRoutes mounts the tracking routes on router.
func (h *TrackingHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/tracking/:number", h.GetTracking)
	router.Post("/tracking/runs", h.CreateRun)
}

// ShipmentRecord is one input row, named after the export columns.
type ShipmentRecord struct {
	Carrier           string `json:"carrier" validate:"required"`
	BOL               string `json:"bol" validate:"required"`
	TrackingID        string `json:"tracking_id"`
	Status            string `json:"status"`
	EstimatedDelivery string `json:"estimated_delivery"`
}

// RunRequest is the body of POST /tracking/runs.
type RunRequest struct {
	// AsOf pins "today" for eligibility (YYYY-MM-DD); defaults to the server clock.
	AsOf      string           `json:"as_of" validate:"omitempty,datetime=2006-01-02"`
	Shipments []ShipmentRecord `json:"shipments" validate:"required,dive"`
}

// OutcomeResponse is a TrackingOutcome with dates rendered as YYYY-MM-DD.
type OutcomeResponse struct {
	BOL          string `json:"bol"`
	Carrier      string `json:"carrier"`
	TrackingID   string `json:"tracking_id"`
	Status       string `json:"status"`
	ResolvedDate string `json:"resolved_date,omitempty"`
	ErrorDetail  string `json:"error_detail,omitempty"`
}

// RunResponse is the result of a tracking run.
type RunResponse struct {
	AsOf     string            `json:"as_of,omitempty"`
	Outcomes []OutcomeResponse `json:"outcomes"`
}

func toResponse(o domain.TrackingOutcome) OutcomeResponse {
	resp := OutcomeResponse{
		BOL:         o.BOL,
		Carrier:     o.Carrier.String(),
		TrackingID:  o.TrackingID,
		Status:      string(o.StatusKind),
		ErrorDetail: o.ErrorDetail,
	}
	if o.ResolvedDate != nil {
		resp.ResolvedDate = o.ResolvedDate.Format(domain.DateLayout)
	}
	return resp
}

func (r ShipmentRecord) toRecord() domain.Record {
	return domain.Record{
		domain.FieldCarrier:    r.Carrier,
		domain.FieldBOL:        r.BOL,
		domain.FieldTrackingID: r.TrackingID,
		domain.FieldStatus:     r.Status,
		domain.FieldETA:        r.EstimatedDelivery,
	}
}

func fail(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(server.ErrorResponse{
		Message: message,
		RayID:   server.RayID(c),
	})
}

// GetTracking godoc
// @Summary Get the current status of a single shipment
// @Description Looks up one PRO number on the carrier's tracking page
// @Tags tracking
// @Produce json
// @Param number path string true "PRO / tracking number"
// @Param courier query string true "Carrier code or name (e.g., SEFL, XPO, FORWARD_AIR, RL, SAIA)"
// @Success 200 {object} OutcomeResponse
// @Failure 400 {object} server.ErrorResponse
// @Failure 404 {object} server.ErrorResponse
// @Failure 502 {object} server.ErrorResponse
// @Router /tracking/{number} [get]
func (h *TrackingHandler) GetTracking(c *fiber.Ctx) error {
	trackingNumber := c.Params("number")
	if trackingNumber == "" {
		return fail(c, fiber.StatusBadRequest, "tracking number is required")
	}

	courier := c.Query("courier")
	if courier == "" {
		return fail(c, fiber.StatusBadRequest, "courier query parameter is required")
	}

	outcome, err := h.orchestrator.TrackOne(c.UserContext(), courier, trackingNumber)
	if err != nil {
		if errors.Is(err, service.ErrCarrierNotSupported) {
			return fail(c, fiber.StatusNotFound, "courier not supported")
		}
		return fail(c, fiber.StatusBadGateway, err.Error())
	}

	return c.JSON(toResponse(outcome))
}

// CreateRun godoc
// @Summary Track a batch of shipments
// @Description Filters the shipments for eligibility, tracks the rest concurrently and returns one outcome per eligible shipment in input order
// @Tags tracking
// @Accept json
// @Produce json
// @Param run body RunRequest true "Shipments to track"
// @Success 200 {object} RunResponse
// @Failure 400 {object} server.ErrorResponse
// @Failure 422 {object} server.ErrorResponse
// @Router /tracking/runs [post]
func (h *TrackingHandler) CreateRun(c *fiber.Ctx) error {
	var req RunRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.validate.Struct(req); err != nil {
		return fail(c, fiber.StatusBadRequest, err.Error())
	}

	orchestrator := h.orchestrator
	if req.AsOf != "" {
		asOf, err := time.Parse(domain.DateLayout, req.AsOf)
		if err != nil {
			return fail(c, fiber.StatusBadRequest, "as_of must be YYYY-MM-DD")
		}
		orchestrator = orchestrator.WithCalendar(eligibility.NewCalendar(asOf))
	}

	shipments := make([]domain.Shipment, 0, len(req.Shipments))
	for _, r := range req.Shipments {
		shipments = append(shipments, domain.NewShipmentFromRecord(r.toRecord()))
	}

	outcomes, err := orchestrator.Run(c.UserContext(), shipments)
	if err != nil {
		var cfgErr *service.ConfigurationError
		if errors.As(err, &cfgErr) {
			return fail(c, fiber.StatusUnprocessableEntity, err.Error())
		}
		return fail(c, fiber.StatusInternalServerError, err.Error())
	}

	resp := RunResponse{AsOf: req.AsOf, Outcomes: make([]OutcomeResponse, 0, len(outcomes))}
	for _, o := range outcomes {
		resp.Outcomes = append(resp.Outcomes, toResponse(o))
	}
	return c.JSON(resp)
}
