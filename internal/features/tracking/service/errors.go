package service

import "errors"

var (
	// ErrCarrierNotSupported is returned when no adapter is registered for the requested carrier.
	ErrCarrierNotSupported = errors.New("carrier not supported")
	// ErrNoShipments is returned when a run is started without any input records.
	ErrNoShipments = errors.New("no shipment records supplied")
	// ErrNoAdapters is returned when a run is started with an empty registry.
	ErrNoAdapters = errors.New("no carrier adapters registered")
	// ErrAdapterTimeout marks a fetch that exceeded the per-call timeout.
	ErrAdapterTimeout = errors.New("adapter timed out")
	// ErrAdapterPanic marks a fetch that panicked.
	ErrAdapterPanic = errors.New("adapter panicked")
)

// ConfigurationError aborts a whole run before any adapter is called.
type ConfigurationError struct {
	Err error
}

func (e *ConfigurationError) Error() string {
	return "configuration error: " + e.Err.Error()
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}
