package httpclient

import (
	"net/http"
	"net/url"
	"time"

	"freight-tracker/internal/core/logger"
	"freight-tracker/internal/core/proxy"

	"go.uber.org/zap"
)

// DefaultUserAgent is sent when a request has none. Carrier sites reject the Go default.
const DefaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0 Safari/537.36"

// LoggingRoundTripper captures request details for debugging.
type LoggingRoundTripper struct {
	// Proxied is the underlying RoundTripper to execute the request.
	Proxied http.RoundTripper
	// UserAgent is set on requests that do not carry one.
	UserAgent string
}

// RoundTrip executes the request and logs details.
func (lrt *LoggingRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()

	if lrt.UserAgent != "" && req.Header.Get("User-Agent") == "" {
		req = req.Clone(req.Context())
		req.Header.Set("User-Agent", lrt.UserAgent)
	}

	log := logger.Get().With(
		zap.String("method", req.Method),
		zap.String("url", req.URL.String()),
	)
	log.Debug("HTTP Request Started")

	resp, err := lrt.Proxied.RoundTrip(req)

	duration := time.Since(start)

	if err != nil {
		log.Error("HTTP Request Failed", zap.Duration("duration", duration), zap.Error(err))
		return nil, err
	}

	log.Debug("HTTP Request Completed",
		zap.Int("status_code", resp.StatusCode),
		zap.Duration("duration", duration),
	)

	return resp, nil
}

// Option customizes the client built by NewClient.
type Option func(*http.Transport)

// WithProxy routes requests through the upstream proxy when it is configured.
func WithProxy(settings proxy.Settings) Option {
	return func(t *http.Transport) {
		if !settings.HasProxy() {
			return
		}
		u, err := url.Parse(settings.FullURL())
		if err != nil {
			return
		}
		t.Proxy = http.ProxyURL(u)
	}
}

// NewClient returns an http.Client with logging middleware.
func NewClient(timeout time.Duration, opts ...Option) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	for _, opt := range opts {
		opt(transport)
	}

	return &http.Client{
		Transport: &LoggingRoundTripper{
			Proxied:   transport,
			UserAgent: DefaultUserAgent,
		},
		Timeout: timeout,
	}
}
