package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync/atomic"
	"testing"
	"time"
	"unicode/utf8"

	"freight-tracker/internal/features/tracking/domain"
	"freight-tracker/internal/features/tracking/eligibility"
	"freight-tracker/internal/features/tracking/extractor"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// spyAdapter counts calls and delegates to fn.
type spyAdapter struct {
	carrier domain.Carrier
	calls   atomic.Int32
	fn      func(ctx context.Context, trackingID string) (*domain.FetchResult, error)
}

func (s *spyAdapter) Carrier() domain.Carrier {
	return s.carrier
}

func (s *spyAdapter) Fetch(ctx context.Context, trackingID string) (*domain.FetchResult, error) {
	s.calls.Add(1)
	return s.fn(ctx, trackingID)
}

func textAdapter(carrier domain.Carrier, text string) *spyAdapter {
	return &spyAdapter{
		carrier: carrier,
		fn: func(context.Context, string) (*domain.FetchResult, error) {
			return &domain.FetchResult{Text: text}, nil
		},
	}
}

// mockAdapter is a testify mock of CarrierAdapter.
type mockAdapter struct {
	mock.Mock
}

func (m *mockAdapter) Carrier() domain.Carrier {
	return m.Called().Get(0).(domain.Carrier)
}

func (m *mockAdapter) Fetch(ctx context.Context, trackingID string) (*domain.FetchResult, error) {
	args := m.Called(ctx, trackingID)
	result, _ := args.Get(0).(*domain.FetchResult)
	return result, args.Error(1)
}

// tuesday is the as-of date used throughout: 2024-06-11.
var tuesday = time.Date(2024, 6, 11, 0, 0, 0, 0, time.UTC)

func newTestOrchestrator(t *testing.T, opts Options, adapters ...*spyAdapter) *Orchestrator {
	t.Helper()

	registry, err := NewRegistry()
	require.NoError(t, err)
	for _, a := range adapters {
		require.NoError(t, registry.Register(a))
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return NewOrchestrator(registry, extractor.NewDefault(), eligibility.NewFilter(eligibility.NewCalendar(tuesday)), opts)
}

func bols(outcomes []domain.TrackingOutcome) []string {
	out := make([]string, 0, len(outcomes))
	for _, o := range outcomes {
		out = append(out, o.BOL)
	}
	return out
}

// TestOrchestrator_Run_EndToEnd verifies the three-shipment scenario.
func TestOrchestrator_Run_EndToEnd(t *testing.T) {
	xpo := textAdapter(domain.CarrierXPO, "delivery date 06/10/2024")
	o := newTestOrchestrator(t, Options{}, xpo)

	shipments := []domain.Shipment{
		domain.NewShipmentFromRecord(domain.Record{domain.FieldBOL: "BOL1", domain.FieldCarrier: "XPO", domain.FieldTrackingID: ""}),
		domain.NewShipmentFromRecord(domain.Record{domain.FieldBOL: "BOL2", domain.FieldCarrier: "XPO", domain.FieldTrackingID: "528338366"}),
		domain.NewShipmentFromRecord(domain.Record{domain.FieldBOL: "BOL3", domain.FieldCarrier: "XPO", domain.FieldTrackingID: "1", domain.FieldStatus: "Void"}),
	}

	outcomes, err := o.Run(context.Background(), shipments)

	require.NoError(t, err)
	require.Len(t, outcomes, 2)
	assert.Equal(t, []string{"BOL1", "BOL2"}, bols(outcomes))

	assert.Equal(t, domain.StatusPendingPickup, outcomes[0].StatusKind)
	assert.Nil(t, outcomes[0].ResolvedDate)

	assert.Equal(t, domain.StatusDelivered, outcomes[1].StatusKind)
	require.NotNil(t, outcomes[1].ResolvedDate)
	assert.Equal(t, "2024-06-10", outcomes[1].ResolvedDate.Format(domain.DateLayout))
	assert.Equal(t, "528338366", outcomes[1].TrackingID)

	assert.Equal(t, int32(1), xpo.calls.Load())
}

func TestOrchestrator_Run_PendingPickupNeverCallsAdapter(t *testing.T) {
	spy := textAdapter(domain.CarrierSAIA, "Delivered 06/10/2024")
	o := newTestOrchestrator(t, Options{}, spy)

	shipments := make([]domain.Shipment, 10)
	for i := range shipments {
		shipments[i] = domain.Shipment{BOL: fmt.Sprintf("B%d", i), Carrier: domain.CarrierSAIA, LastKnownStatus: domain.LastKnownInTransit}
	}

	outcomes, err := o.Run(context.Background(), shipments)

	require.NoError(t, err)
	require.Len(t, outcomes, 10)
	for _, out := range outcomes {
		assert.Equal(t, domain.StatusPendingPickup, out.StatusKind)
	}
	assert.Zero(t, spy.calls.Load())
}

func TestOrchestrator_Run_VoidExcluded(t *testing.T) {
	o := newTestOrchestrator(t, Options{}, textAdapter(domain.CarrierSEFL, "Estimated Delivery 06/14/2024"))

	shipments := []domain.Shipment{
		{BOL: "A", TrackingID: "1", Carrier: domain.CarrierSEFL, LastKnownStatus: domain.LastKnownVoid},
		{BOL: "B", TrackingID: "2", Carrier: domain.CarrierSEFL, LastKnownStatus: domain.LastKnownInTransit},
		{BOL: "C", TrackingID: "3", Carrier: domain.CarrierSEFL, LastKnownStatus: domain.LastKnownVoid},
		{BOL: "D", TrackingID: "4", Carrier: domain.CarrierSEFL, LastKnownStatus: domain.LastKnownUnknown},
	}

	outcomes, err := o.Run(context.Background(), shipments)

	require.NoError(t, err)
	assert.Len(t, outcomes, len(shipments)-2)
	assert.Equal(t, []string{"B", "D"}, bols(outcomes))
	for _, out := range outcomes {
		assert.Equal(t, domain.StatusInTransit, out.StatusKind)
	}
}

func TestOrchestrator_Run_CarrierResolution(t *testing.T) {
	o := newTestOrchestrator(t, Options{}, textAdapter(domain.CarrierSEFL, "Delivered 06/10/2024"))

	shipments := []domain.Shipment{
		{BOL: "unknown", TrackingID: "1", Carrier: domain.CarrierUnknown, CarrierRaw: "Acme Trucking"},
		{BOL: "unregistered", TrackingID: "2", Carrier: domain.CarrierRL},
		{BOL: "sefl", TrackingID: "3", Carrier: domain.CarrierSEFL},
	}

	outcomes, err := o.Run(context.Background(), shipments)

	require.NoError(t, err)
	require.Len(t, outcomes, 3)

	assert.Equal(t, domain.StatusUnknown, outcomes[0].StatusKind)
	assert.Empty(t, outcomes[0].ErrorDetail)

	assert.Equal(t, domain.StatusError, outcomes[1].StatusKind)
	assert.Contains(t, outcomes[1].ErrorDetail, "no adapter registered")

	assert.Equal(t, domain.StatusDelivered, outcomes[2].StatusKind)
}

func TestOrchestrator_Run_AdapterFailures(t *testing.T) {
	failing := &spyAdapter{
		carrier: domain.CarrierXPO,
		fn: func(context.Context, string) (*domain.FetchResult, error) {
			return nil, errors.New("navigation failed")
		},
	}
	panicking := &spyAdapter{
		carrier: domain.CarrierRL,
		fn: func(context.Context, string) (*domain.FetchResult, error) {
			panic("element not found")
		},
	}
	stuck := &spyAdapter{
		carrier: domain.CarrierSAIA,
		fn: func(context.Context, string) (*domain.FetchResult, error) {
			// Ignores ctx on purpose.
			time.Sleep(2 * time.Second)
			return &domain.FetchResult{Text: "Delivered 06/10/2024"}, nil
		},
	}
	healthy := textAdapter(domain.CarrierSEFL, "Delivered 06/10/2024")

	o := newTestOrchestrator(t, Options{Timeout: 50 * time.Millisecond}, failing, panicking, stuck, healthy)

	shipments := []domain.Shipment{
		{BOL: "xpo", TrackingID: "1", Carrier: domain.CarrierXPO},
		{BOL: "rl", TrackingID: "2", Carrier: domain.CarrierRL},
		{BOL: "saia", TrackingID: "3", Carrier: domain.CarrierSAIA},
		{BOL: "sefl", TrackingID: "4", Carrier: domain.CarrierSEFL},
	}

	start := time.Now()
	outcomes, err := o.Run(context.Background(), shipments)

	require.NoError(t, err)
	require.Len(t, outcomes, 4)
	assert.Less(t, time.Since(start), time.Second)

	assert.Equal(t, domain.StatusError, outcomes[0].StatusKind)
	assert.Equal(t, "navigation failed", outcomes[0].ErrorDetail)

	assert.Equal(t, domain.StatusError, outcomes[1].StatusKind)
	assert.Contains(t, outcomes[1].ErrorDetail, "element not found")

	assert.Equal(t, domain.StatusError, outcomes[2].StatusKind)
	assert.Contains(t, outcomes[2].ErrorDetail, ErrAdapterTimeout.Error())

	assert.Equal(t, domain.StatusDelivered, outcomes[3].StatusKind)
}

func TestOrchestrator_Run_ContextAwareTimeout(t *testing.T) {
	adapter := &spyAdapter{
		carrier: domain.CarrierXPO,
		fn: func(ctx context.Context, _ string) (*domain.FetchResult, error) {
			<-ctx.Done()
			return nil, fmt.Errorf("navigate: %w", ctx.Err())
		},
	}
	o := newTestOrchestrator(t, Options{Timeout: 20 * time.Millisecond}, adapter)

	outcomes, err := o.Run(context.Background(), []domain.Shipment{{BOL: "A", TrackingID: "1", Carrier: domain.CarrierXPO}})

	require.NoError(t, err)
	require.Len(t, outcomes, 1)
	assert.Equal(t, domain.StatusError, outcomes[0].StatusKind)
	assert.Contains(t, outcomes[0].ErrorDetail, ErrAdapterTimeout.Error())
}

// TestOrchestrator_Run_PreservesOrder dispatches 50 shipments with random latency.
func TestOrchestrator_Run_PreservesOrder(t *testing.T) {
	var inFlight, maxInFlight atomic.Int32

	adapter := &spyAdapter{
		carrier: domain.CarrierSAIA,
		fn: func(ctx context.Context, trackingID string) (*domain.FetchResult, error) {
			n := inFlight.Add(1)
			defer inFlight.Add(-1)
			for {
				m := maxInFlight.Load()
				if n <= m || maxInFlight.CompareAndSwap(m, n) {
					break
				}
			}
			time.Sleep(time.Duration(rand.Intn(15)) * time.Millisecond)
			return &domain.FetchResult{Text: "Estimated Delivery 06/14/2024 PRO " + trackingID}, nil
		},
	}
	o := newTestOrchestrator(t, Options{Workers: 8}, adapter)

	shipments := make([]domain.Shipment, 50)
	expected := make([]string, 50)
	for i := range shipments {
		bol := fmt.Sprintf("BOL%02d", i)
		shipments[i] = domain.Shipment{BOL: bol, TrackingID: fmt.Sprintf("%d", 1000+i), Carrier: domain.CarrierSAIA}
		expected[i] = bol
	}

	for run := 0; run < 3; run++ {
		outcomes, err := o.Run(context.Background(), shipments)

		require.NoError(t, err)
		assert.Equal(t, expected, bols(outcomes))
		for i, out := range outcomes {
			assert.Equal(t, shipments[i].TrackingID, out.TrackingID)
		}
	}

	assert.LessOrEqual(t, maxInFlight.Load(), int32(8))
	assert.Equal(t, int32(150), adapter.calls.Load())
}

func TestOrchestrator_Run_Idempotent(t *testing.T) {
	o := newTestOrchestrator(t, Options{},
		textAdapter(domain.CarrierXPO, "delivery date 06/10/2024"),
		textAdapter(domain.CarrierSEFL, "Estimated Delivery: 12/01/24"),
	)

	shipments := []domain.Shipment{
		{BOL: "A", TrackingID: "1", Carrier: domain.CarrierXPO},
		{BOL: "B", TrackingID: "", Carrier: domain.CarrierXPO},
		{BOL: "C", TrackingID: "3", Carrier: domain.CarrierSEFL},
		{BOL: "D", TrackingID: "4", Carrier: domain.CarrierUnknown},
	}

	first, err := o.Run(context.Background(), shipments)
	require.NoError(t, err)
	second, err := o.Run(context.Background(), shipments)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestOrchestrator_Run_ConfigurationErrors(t *testing.T) {
	t.Run("No shipments", func(t *testing.T) {
		o := newTestOrchestrator(t, Options{}, textAdapter(domain.CarrierXPO, ""))

		outcomes, err := o.Run(context.Background(), nil)

		assert.Nil(t, outcomes)
		assert.ErrorIs(t, err, ErrNoShipments)
		var cfgErr *ConfigurationError
		assert.ErrorAs(t, err, &cfgErr)
	})

	t.Run("No adapters", func(t *testing.T) {
		o := newTestOrchestrator(t, Options{})

		outcomes, err := o.Run(context.Background(), []domain.Shipment{{BOL: "A"}})

		assert.Nil(t, outcomes)
		assert.ErrorIs(t, err, ErrNoAdapters)
		var cfgErr *ConfigurationError
		require.ErrorAs(t, err, &cfgErr)
		assert.Contains(t, cfgErr.Error(), "configuration error")
	})
}

func TestOrchestrator_Run_LogsUnknownRawText(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	o := newTestOrchestrator(t, Options{Logger: zap.New(core)},
		textAdapter(domain.CarrierRL, "Pro number not found"),
	)

	outcomes, err := o.Run(context.Background(), []domain.Shipment{{BOL: "A", TrackingID: "1", Carrier: domain.CarrierRL}})

	require.NoError(t, err)
	require.Len(t, outcomes, 1)
	assert.Equal(t, domain.StatusUnknown, outcomes[0].StatusKind)

	entries := logs.FilterMessage("No status cue in carrier response").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "Pro number not found", entries[0].ContextMap()["raw"])
	assert.Equal(t, "A", entries[0].ContextMap()["bol"])

	assert.Equal(t, 1, logs.FilterMessage("Tracking run finished").Len())
}

func TestOrchestrator_Run_LogsLongRawTextOnRuneBoundary(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	raw := "x" + strings.Repeat("é", maxLoggedRaw)
	o := newTestOrchestrator(t, Options{Logger: zap.New(core)},
		textAdapter(domain.CarrierSAIA, raw),
	)

	_, err := o.Run(context.Background(), []domain.Shipment{{BOL: "A", TrackingID: "1", Carrier: domain.CarrierSAIA}})
	require.NoError(t, err)

	entries := logs.FilterMessage("No status cue in carrier response").All()
	require.Len(t, entries, 1)
	logged, ok := entries[0].ContextMap()["raw"].(string)
	require.True(t, ok)
	assert.True(t, utf8.ValidString(logged))
	assert.True(t, strings.HasSuffix(logged, "..."))
	assert.LessOrEqual(t, len(logged), maxLoggedRaw+len("..."))
	assert.True(t, strings.HasPrefix(raw, strings.TrimSuffix(logged, "...")))
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name     string
		s        string
		n        int
		expected string
	}{
		{name: "Short", s: "abc", n: 5, expected: "abc"},
		{name: "Exact", s: "abcde", n: 5, expected: "abcde"},
		{name: "ASCII", s: "abcdef", n: 3, expected: "abc..."},
		{name: "Inside a two byte rune", s: "aéb", n: 2, expected: "a..."},
		{name: "Inside a four byte rune", s: "a🚚b", n: 3, expected: "a..."},
		{name: "On a rune boundary", s: "aéb", n: 3, expected: "aé..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, truncate(tt.s, tt.n))
		})
	}
}

func TestOrchestrator_TrackOne(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		m := new(mockAdapter)
		m.On("Carrier").Return(domain.CarrierForwardAir)
		m.On("Fetch", mock.Anything, "123").Return(&domain.FetchResult{
			Structured: &domain.StructuredResult{Found: true, Phrase: "Invoiced", Date: "06/10/2024"},
		}, nil)

		registry, err := NewRegistry(m)
		require.NoError(t, err)
		o := NewOrchestrator(registry, extractor.NewDefault(), eligibility.NewFilter(eligibility.NewCalendar(tuesday)), Options{Logger: zap.NewNop()})

		out, err := o.TrackOne(context.Background(), "forward_air", "123")

		require.NoError(t, err)
		assert.Equal(t, domain.StatusDelivered, out.StatusKind)
		require.NotNil(t, out.ResolvedDate)
		assert.Equal(t, "2024-06-10", out.ResolvedDate.Format(domain.DateLayout))
		m.AssertExpectations(t)
	})

	t.Run("Unsupported courier", func(t *testing.T) {
		o := newTestOrchestrator(t, Options{}, textAdapter(domain.CarrierXPO, ""))

		_, err := o.TrackOne(context.Background(), "acme_freight", "123")

		assert.ErrorIs(t, err, ErrCarrierNotSupported)
	})

	t.Run("Known but unregistered", func(t *testing.T) {
		o := newTestOrchestrator(t, Options{}, textAdapter(domain.CarrierXPO, ""))

		_, err := o.TrackOne(context.Background(), "SAIA", "123")

		assert.ErrorIs(t, err, ErrCarrierNotSupported)
	})

	t.Run("Adapter failure", func(t *testing.T) {
		m := new(mockAdapter)
		m.On("Carrier").Return(domain.CarrierSAIA)
		m.On("Fetch", mock.Anything, "9").Return(nil, errors.New("page crashed"))

		registry, err := NewRegistry(m)
		require.NoError(t, err)
		o := NewOrchestrator(registry, extractor.NewDefault(), eligibility.NewFilter(eligibility.SystemCalendar()), Options{Logger: zap.NewNop()})

		out, err := o.TrackOne(context.Background(), "saia", "9")

		require.Error(t, err)
		assert.Contains(t, err.Error(), "page crashed")
		assert.Equal(t, domain.StatusError, out.StatusKind)
	})
}

func TestOrchestrator_WithCalendar(t *testing.T) {
	o := newTestOrchestrator(t, Options{}, textAdapter(domain.CarrierXPO, "Delivered 06/10/2024"))
	delivered := time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)
	shipments := []domain.Shipment{
		{BOL: "A", TrackingID: "1", Carrier: domain.CarrierXPO, LastKnownStatus: domain.LastKnownDelivered, LastKnownDate: &delivered},
	}

	outcomes, err := o.Run(context.Background(), shipments)
	require.NoError(t, err)
	assert.Len(t, outcomes, 1)

	later := o.WithCalendar(eligibility.NewCalendar(time.Date(2024, 6, 20, 0, 0, 0, 0, time.UTC)))
	outcomes, err = later.Run(context.Background(), shipments)
	require.NoError(t, err)
	assert.Empty(t, outcomes)
	assert.Same(t, o.Registry(), later.Registry())
}
