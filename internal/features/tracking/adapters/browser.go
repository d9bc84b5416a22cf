package adapter

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"freight-tracker/internal/core/proxy"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"go.uber.org/zap"
)

// BrowserOptions configures the Chromium instance each adapter call launches.
type BrowserOptions struct {
	Headless bool
	// BinPath overrides the Chromium binary.
	BinPath string
	Proxy   proxy.Settings
}

// browserSession owns one Chromium process for the duration of a single fetch.
// Nothing survives Close, so concurrent fetches never share pages or cookies.
type browserSession struct {
	launcher  *launcher.Launcher
	browser   *rod.Browser
	forwarder *proxy.ForwardingProxy
	logger    *zap.Logger
}

// openBrowser launches Chromium bound to ctx. Cancelling ctx kills the process.
func openBrowser(ctx context.Context, opts BrowserOptions, log *zap.Logger) (*browserSession, error) {
	s := &browserSession{logger: log}

	var proxyAddr string
	switch {
	case opts.Proxy.NeedsForwarder():
		fwd, err := proxy.NewForwardingProxy(opts.Proxy)
		if err != nil {
			return nil, fmt.Errorf("failed to create proxy forwarder: %w", err)
		}
		proxyAddr, err = fwd.Start()
		if err != nil {
			return nil, fmt.Errorf("failed to start proxy forwarder: %w", err)
		}
		s.forwarder = fwd
	case opts.Proxy.HasProxy():
		proxyAddr = opts.Proxy.HostPort()
	}

	log.Debug("Launching browser...",
		zap.Bool("headless", opts.Headless),
		zap.Bool("proxy_enabled", proxyAddr != ""),
	)

	s.launcher = launcher.New().
		Context(ctx).
		Headless(opts.Headless).
		NoSandbox(true)
	if opts.BinPath != "" {
		s.launcher = s.launcher.Bin(opts.BinPath)
	}
	if proxyAddr != "" {
		s.launcher = s.launcher.Proxy(proxyAddr)
	}

	u, err := s.launcher.Launch()
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	s.browser = rod.New().Context(ctx).ControlURL(u)
	if err := s.browser.Connect(); err != nil {
		s.browser = nil
		s.Close()
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}

	return s, nil
}

// Close tears down the browser, its process and the proxy forwarder.
func (s *browserSession) Close() {
	if s.browser != nil {
		if err := s.browser.Close(); err != nil {
			s.logger.Debug("Browser close failed", zap.Error(err))
		}
	}
	if s.launcher != nil {
		s.launcher.Kill()
		s.launcher.Cleanup()
	}
	if s.forwarder != nil {
		if err := s.forwarder.Stop(); err != nil {
			s.logger.Debug("Proxy forwarder stop failed", zap.Error(err))
		}
	}
}

// withPage runs fn against a fresh page in a fresh browser.
func withPage(ctx context.Context, opts BrowserOptions, log *zap.Logger, fn func(page *rod.Page) error) error {
	s, err := openBrowser(ctx, opts, log)
	if err != nil {
		return err
	}
	defer s.Close()

	page, err := s.browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return fmt.Errorf("failed to open page: %w", err)
	}
	return fn(page.Context(ctx))
}

// navigate loads pageURL and waits for the load event.
func navigate(page *rod.Page, pageURL string) error {
	if err := page.Navigate(pageURL); err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", pageURL, err)
	}
	if err := page.WaitLoad(); err != nil {
		return fmt.Errorf("failed waiting for %s to load: %w", pageURL, err)
	}
	return nil
}

// waitForText blocks until the page body text matches the JS regex jsRegex,
// e.g. "/delivered|estimated delivery/i", then returns the body text.
func waitForText(page *rod.Page, jsRegex string) (string, error) {
	body, err := page.ElementR("body", jsRegex)
	if err != nil {
		return "", fmt.Errorf("results never appeared: %w", err)
	}
	text, err := body.Text()
	if err != nil {
		return "", fmt.Errorf("failed to read page text: %w", err)
	}
	return text, nil
}

// fillAndSubmit types trackingID into the first element matching inputSelector
// and clicks the button whose text matches buttonRegex.
func fillAndSubmit(page *rod.Page, inputSelector, buttonSelector, buttonRegex, trackingID string) error {
	input, err := page.Element(inputSelector)
	if err != nil {
		return fmt.Errorf("tracking input %q not found: %w", inputSelector, err)
	}
	if err := input.WaitVisible(); err != nil {
		return fmt.Errorf("tracking input not visible: %w", err)
	}
	if err := input.Input(trackingID); err != nil {
		return fmt.Errorf("failed to type tracking id: %w", err)
	}

	button, err := page.ElementR(buttonSelector, buttonRegex)
	if err != nil {
		return fmt.Errorf("submit button not found: %w", err)
	}
	if err := button.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return fmt.Errorf("failed to submit tracking form: %w", err)
	}
	return nil
}

// trackingURL puts trackingID into baseURL. A "%s" placeholder wins; otherwise
// the id is set as query parameter param.
func trackingURL(baseURL, param, trackingID string) (string, error) {
	if strings.Contains(baseURL, "%s") {
		return fmt.Sprintf(baseURL, url.QueryEscape(trackingID)), nil
	}

	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid tracking URL %q: %w", baseURL, err)
	}
	q := u.Query()
	q.Set(param, trackingID)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
