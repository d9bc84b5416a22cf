package proxy

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"freight-tracker/internal/core/logger"

	"github.com/elazarl/goproxy"
	"go.uber.org/zap"
)

const upstreamDialTimeout = 30 * time.Second

// ForwardingProxy is a local, unauthenticated proxy that tunnels every
// connection through an authenticated upstream proxy. Chromium cannot take
// proxy credentials on its command line, so browsers point here instead.
type ForwardingProxy struct {
	settings Settings
	server   *http.Server
	listener net.Listener
	logger   *zap.Logger
	mu       sync.Mutex
	running  bool
}

// NewForwardingProxy creates a forwarder for the given upstream settings.
func NewForwardingProxy(settings Settings) (*ForwardingProxy, error) {
	if !settings.HasProxy() {
		return nil, fmt.Errorf("forwarding proxy: upstream proxy not configured")
	}

	return &ForwardingProxy{
		settings: settings,
		logger:   logger.Get(),
	}, nil
}

// Start listens on a random loopback port and returns the address for Chromium,
// e.g. "http://127.0.0.1:18080".
func (fp *ForwardingProxy) Start() (string, error) {
	fp.mu.Lock()
	defer fp.mu.Unlock()

	if fp.running {
		return fp.localAddr(), nil
	}

	p := goproxy.NewProxyHttpServer()
	p.Verbose = false

	dial := fp.dialThroughUpstream
	p.ConnectDial = func(network, addr string) (net.Conn, error) {
		return dial(context.Background(), network, addr)
	}
	p.Tr = &http.Transport{DialContext: dial}

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return "", fmt.Errorf("failed to find available port: %w", err)
	}
	fp.listener = listener
	fp.server = &http.Server{Handler: p, ReadHeaderTimeout: 10 * time.Second}

	fp.logger.Debug("Starting local proxy forwarder",
		zap.String("local_addr", fp.localAddr()),
		zap.String("upstream", fp.settings.Address()),
	)

	go func() {
		if err := fp.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fp.logger.Error("Local proxy server error", zap.Error(err))
		}
	}()

	fp.running = true
	return fp.localAddr(), nil
}

// dialThroughUpstream opens a CONNECT tunnel to addr via the upstream proxy.
func (fp *ForwardingProxy) dialThroughUpstream(ctx context.Context, network, addr string) (net.Conn, error) {
	upstream := fp.settings.Address()
	log := fp.logger.With(zap.String("target", addr), zap.String("upstream", upstream))

	d := net.Dialer{Timeout: upstreamDialTimeout}
	conn, err := d.DialContext(ctx, "tcp", upstream)
	if err != nil {
		log.Error("Failed to dial upstream proxy", zap.Error(err))
		return nil, fmt.Errorf("failed to connect to upstream proxy %s: %w", upstream, err)
	}

	req := fmt.Sprintf("CONNECT %s HTTP/1.1\r\nHost: %s\r\n", addr, addr)
	if auth := fp.settings.BasicAuth(); auth != "" {
		req += "Proxy-Authorization: " + auth + "\r\n"
	}
	req += "\r\n"

	if _, err := conn.Write([]byte(req)); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to send CONNECT request: %w", err)
	}

	resp, err := http.ReadResponse(bufio.NewReader(conn), nil)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to read CONNECT response: %w", err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		conn.Close()
		log.Error("Upstream proxy rejected CONNECT", zap.Int("status", resp.StatusCode))
		return nil, fmt.Errorf("upstream proxy CONNECT failed with status: %d", resp.StatusCode)
	}

	log.Debug("CONNECT tunnel established")
	return conn, nil
}

// Stop gracefully shuts down the local proxy server.
func (fp *ForwardingProxy) Stop() error {
	fp.mu.Lock()
	defer fp.mu.Unlock()

	if !fp.running {
		return nil
	}

	fp.logger.Debug("Stopping local proxy forwarder")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	fp.running = false
	if err := fp.server.Shutdown(ctx); err != nil {
		fp.listener.Close()
		return err
	}
	return nil
}

// LocalAddr returns the local proxy address for Chromium to connect to.
func (fp *ForwardingProxy) LocalAddr() string {
	fp.mu.Lock()
	defer fp.mu.Unlock()
	return fp.localAddr()
}

func (fp *ForwardingProxy) localAddr() string {
	if fp.listener == nil {
		return ""
	}
	return "http://" + fp.listener.Addr().String()
}

// IsRunning returns whether the proxy server is currently running.
func (fp *ForwardingProxy) IsRunning() bool {
	fp.mu.Lock()
	defer fp.mu.Unlock()
	return fp.running
}
