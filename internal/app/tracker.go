package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"freight-tracker/internal/core/cache"
	"freight-tracker/internal/core/config"
	"freight-tracker/internal/core/logger"
	adapter "freight-tracker/internal/features/tracking/adapters"
	"freight-tracker/internal/features/tracking/domain"
	"freight-tracker/internal/features/tracking/eligibility"
	"freight-tracker/internal/features/tracking/extractor"
	"freight-tracker/internal/features/tracking/ports"
	"freight-tracker/internal/features/tracking/service"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const cachePingTimeout = 3 * time.Second

// Overrides replace configuration values for one process, e.g. CLI flags.
// Zero values keep the configured setting.
type Overrides struct {
	Workers int
	Timeout time.Duration
	AsOf    *time.Time
}

// Tracker is the wired tracking engine: carrier adapters, the optional Redis
// cache and the orchestrator that drives them.
type Tracker struct {
	Orchestrator *service.Orchestrator
	// Cache is nil when REDIS_URL is unset or unreachable.
	Cache *cache.RedisAdapter

	carriers config.CarrierURLs
	logger   *zap.Logger
}

// NewTracker builds a Tracker with the browser-backed carrier adapters.
func NewTracker(ctx context.Context, cfg *config.AppConfig, ov Overrides) (*Tracker, error) {
	browser := adapter.BrowserOptions{
		Headless: cfg.Browser.Headless,
		BinPath:  cfg.Browser.BinPath,
		Proxy:    cfg.Proxy.Settings(),
	}
	return NewTrackerWithAdapters(ctx, cfg, ov, adapter.NewCarrierAdapters(cfg.Carriers, browser))
}

// NewTrackerWithAdapters builds a Tracker around the given adapters.
func NewTrackerWithAdapters(ctx context.Context, cfg *config.AppConfig, ov Overrides, adapters []ports.CarrierAdapter) (*Tracker, error) {
	log := logger.Get()
	t := &Tracker{carriers: cfg.Carriers, logger: log}

	if cfg.Cache.RedisURL != "" {
		c, err := cache.NewRedisAdapter(cfg.Cache.RedisURL)
		if err != nil {
			return nil, &service.ConfigurationError{Err: err}
		}

		pingCtx, cancel := context.WithTimeout(ctx, cachePingTimeout)
		err = c.Ping(pingCtx)
		cancel()
		if err != nil {
			log.Warn("Redis unreachable, tracking without cache", zap.Error(err))
			_ = c.Close()
		} else {
			log.Info("Carrier responses cached in Redis", zap.Duration("ttl", cfg.Cache.TTL))
			t.Cache = c
			adapters = adapter.WithCache(adapters, c, cfg.Cache.TTL)
		}
	}

	registry, err := service.NewRegistry(adapters...)
	if err != nil {
		t.Close()
		return nil, &service.ConfigurationError{Err: err}
	}

	calendar, err := calendarFor(cfg.Tracker, ov.AsOf)
	if err != nil {
		t.Close()
		return nil, &service.ConfigurationError{Err: err}
	}

	opts := service.Options{
		Workers: cfg.Tracker.Workers,
		Timeout: cfg.Tracker.AdapterTimeout,
		Logger:  log,
	}
	if ov.Workers > 0 {
		opts.Workers = ov.Workers
	}
	if ov.Timeout > 0 {
		opts.Timeout = ov.Timeout
	}

	t.Orchestrator = service.NewOrchestrator(registry, extractor.NewDefault(), eligibility.NewFilter(calendar), opts)
	return t, nil
}

func calendarFor(cfg config.TrackerConfig, override *time.Time) (*eligibility.Calendar, error) {
	if override != nil {
		return eligibility.NewCalendar(*override), nil
	}
	asOf, pinned, err := cfg.AsOf()
	if err != nil {
		return nil, err
	}
	if pinned {
		return eligibility.NewCalendar(asOf), nil
	}
	return eligibility.SystemCalendar(), nil
}

// Close releases the cache connection.
func (t *Tracker) Close() {
	if t.Cache == nil {
		return
	}
	if err := t.Cache.Close(); err != nil {
		t.logger.Debug("Redis close failed", zap.Error(err))
	}
}

// CarrierHealth is the reachability of one carrier tracking page.
type CarrierHealth struct {
	Carrier domain.Carrier
	URL     string
	Err     error
}

// CheckCarriers probes every registered carrier's tracking page concurrently.
// Results follow Registry().Carriers() order.
func (t *Tracker) CheckCarriers(ctx context.Context, client *http.Client) []CarrierHealth {
	carriers := t.Orchestrator.Registry().Carriers()
	results := make([]CarrierHealth, len(carriers))

	var g errgroup.Group
	for i, c := range carriers {
		g.Go(func() error {
			page := adapter.TrackingPage(t.carriers, c)
			results[i] = CarrierHealth{Carrier: c, URL: page}
			if page == "" {
				results[i].Err = fmt.Errorf("no tracking page configured for %s", c)
				return nil
			}
			results[i].Err = adapter.HealthCheck(ctx, client, page)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// LogCarrierHealth runs CheckCarriers and logs unreachable pages as warnings.
func (t *Tracker) LogCarrierHealth(ctx context.Context, client *http.Client) {
	for _, h := range t.CheckCarriers(ctx, client) {
		if h.Err != nil {
			t.logger.Warn("Carrier tracking page unreachable",
				zap.String("carrier", h.Carrier.String()),
				zap.String("url", h.URL),
				zap.Error(h.Err),
			)
			continue
		}
		t.logger.Info("Carrier tracking page verified", zap.String("carrier", h.Carrier.String()))
	}
}
