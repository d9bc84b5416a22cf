package service

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"freight-tracker/internal/core/logger"
	"freight-tracker/internal/features/tracking/domain"
	"freight-tracker/internal/features/tracking/eligibility"
	"freight-tracker/internal/features/tracking/extractor"
	"freight-tracker/internal/features/tracking/ports"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultWorkers bounds concurrent browser sessions when Options.Workers is unset.
	DefaultWorkers = 4
	// DefaultTimeout applies to each adapter call when Options.Timeout is unset.
	DefaultTimeout = 60 * time.Second

	maxLoggedRaw = 500
)

// Options tunes an Orchestrator.
type Options struct {
	Workers int
	Timeout time.Duration
	// Logger defaults to the global logger.
	Logger *zap.Logger
}

// Orchestrator dispatches eligible shipments to carrier adapters and reduces
// their answers to one TrackingOutcome per shipment.
type Orchestrator struct {
	registry  *Registry
	extractor *extractor.Extractor
	filter    *eligibility.Filter
	workers   int
	timeout   time.Duration
	logger    *zap.Logger
}

// NewOrchestrator creates an Orchestrator.
func NewOrchestrator(registry *Registry, ex *extractor.Extractor, filter *eligibility.Filter, opts Options) *Orchestrator {
	o := &Orchestrator{
		registry:  registry,
		extractor: ex,
		filter:    filter,
		workers:   opts.Workers,
		timeout:   opts.Timeout,
		logger:    opts.Logger,
	}
	if o.workers <= 0 {
		o.workers = DefaultWorkers
	}
	if o.timeout <= 0 {
		o.timeout = DefaultTimeout
	}
	if o.logger == nil {
		o.logger = logger.Get()
	}
	return o
}

// Registry exposes the adapters the orchestrator dispatches to.
func (o *Orchestrator) Registry() *Registry {
	return o.registry
}

// WithCalendar returns a copy of o whose eligibility rules are evaluated
// against calendar. Adapters and limits are shared.
func (o *Orchestrator) WithCalendar(calendar *eligibility.Calendar) *Orchestrator {
	c := *o
	c.filter = eligibility.NewFilter(calendar)
	return &c
}

// Run tracks every eligible shipment and returns outcomes in input order.
// Void shipments and stale deliveries produce no outcome. Only configuration
// problems are returned as errors; per-shipment failures become Error outcomes.
func (o *Orchestrator) Run(ctx context.Context, shipments []domain.Shipment) ([]domain.TrackingOutcome, error) {
	if len(shipments) == 0 {
		return nil, &ConfigurationError{Err: ErrNoShipments}
	}
	if o.registry == nil || o.registry.Len() == 0 {
		return nil, &ConfigurationError{Err: ErrNoAdapters}
	}

	eligible := o.filter.Select(shipments)

	o.logger.Info("Tracking run started",
		zap.Int("shipments", len(shipments)),
		zap.Int("eligible", len(eligible)),
		zap.Int("workers", o.workers),
		zap.Duration("timeout", o.timeout),
	)
	start := time.Now()

	outcomes := make([]domain.TrackingOutcome, len(eligible))

	var g errgroup.Group
	g.SetLimit(o.workers)
	for i, s := range eligible {
		g.Go(func() error {
			outcomes[i] = o.track(ctx, s)
			return nil
		})
	}
	_ = g.Wait()

	counts := make(map[domain.StatusKind]int)
	for _, out := range outcomes {
		counts[out.StatusKind]++
	}
	o.logger.Info("Tracking run finished",
		zap.Int("outcomes", len(outcomes)),
		zap.Int("delivered", counts[domain.StatusDelivered]),
		zap.Int("in_transit", counts[domain.StatusInTransit]),
		zap.Int("pending_pickup", counts[domain.StatusPendingPickup]),
		zap.Int("unknown", counts[domain.StatusUnknown]),
		zap.Int("errors", counts[domain.StatusError]),
		zap.Duration("elapsed", time.Since(start)),
	)

	return outcomes, nil
}

// TrackOne looks up a single PRO number outside of a batch run. Eligibility
// rules do not apply.
func (o *Orchestrator) TrackOne(ctx context.Context, courier, trackingID string) (domain.TrackingOutcome, error) {
	carrier := domain.ParseCarrier(courier)
	if _, ok := o.registry.Lookup(carrier); !ok {
		return domain.TrackingOutcome{}, fmt.Errorf("%w: %q", ErrCarrierNotSupported, courier)
	}

	s := domain.Shipment{TrackingID: trackingID, Carrier: carrier, CarrierRaw: courier}
	out := o.track(ctx, s)
	if out.StatusKind == domain.StatusError {
		return out, fmt.Errorf("failed to get tracking from carrier: %s", out.ErrorDetail)
	}
	return out, nil
}

func (o *Orchestrator) track(ctx context.Context, s domain.Shipment) domain.TrackingOutcome {
	log := o.logger.With(
		zap.String("bol", s.BOL),
		zap.String("carrier", s.Carrier.String()),
		zap.String("tracking_id", s.TrackingID),
	)

	if !s.HasTrackingID() {
		log.Debug("No tracking id, pending pickup")
		return domain.NewOutcome(s, domain.StatusPendingPickup)
	}

	if s.Carrier == domain.CarrierUnknown {
		log.Warn("Unrecognized carrier", zap.String("carrier_raw", s.CarrierRaw))
		return domain.NewOutcome(s, domain.StatusUnknown)
	}

	adapter, ok := o.registry.Lookup(s.Carrier)
	if !ok {
		log.Warn("No adapter registered for carrier")
		return domain.ErrorOutcome(s, fmt.Sprintf("no adapter registered for %s", s.Carrier))
	}

	result, err := o.fetch(ctx, adapter, s.TrackingID)
	if err != nil {
		log.Warn("Carrier fetch failed", zap.Error(err))
		return domain.ErrorOutcome(s, err.Error())
	}

	ex := o.extractor.Extract(s.Carrier, result)
	out := domain.NewOutcome(s, ex.Kind)
	out.ResolvedDate = ex.Date

	if ex.Kind == domain.StatusUnknown {
		log.Info("No status cue in carrier response", zap.String("raw", truncate(ex.Raw, maxLoggedRaw)))
	} else {
		log.Debug("Shipment tracked", zap.String("status", string(ex.Kind)))
	}
	return out
}

type fetchReply struct {
	result *domain.FetchResult
	err    error
}

// fetch enforces the timeout even when the adapter ignores ctx.
func (o *Orchestrator) fetch(ctx context.Context, adapter ports.CarrierAdapter, trackingID string) (*domain.FetchResult, error) {
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	replies := make(chan fetchReply, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				replies <- fetchReply{err: fmt.Errorf("%w: %v", ErrAdapterPanic, r)}
			}
		}()
		result, err := adapter.Fetch(ctx, trackingID)
		replies <- fetchReply{result: result, err: err}
	}()

	select {
	case r := <-replies:
		if r.err != nil && errors.Is(r.err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w after %s", ErrAdapterTimeout, o.timeout)
		}
		return r.result, r.err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w after %s", ErrAdapterTimeout, o.timeout)
		}
		return nil, ctx.Err()
	}
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
