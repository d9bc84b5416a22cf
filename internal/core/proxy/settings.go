package proxy

import (
	"encoding/base64"
	"fmt"
	"net"
	"strconv"
)

// Settings contains upstream proxy configuration for the browser.
type Settings struct {
	Enabled  bool
	Hostname string
	Port     int
	Username string
	Password string
}

// HasProxy returns true if proxy is enabled and configured.
func (p Settings) HasProxy() bool {
	return p.Enabled && p.Hostname != "" && p.Port > 0
}

// NeedsForwarder reports whether Chromium must go through a local forwarder
// because the upstream requires credentials.
func (p Settings) NeedsForwarder() bool {
	return p.HasProxy() && p.Username != ""
}

// Address returns host:port of the upstream proxy.
func (p Settings) Address() string {
	return net.JoinHostPort(p.Hostname, strconv.Itoa(p.Port))
}

// HostPort returns the proxy URL without credentials (e.g., "http://geo.iproyal.com:12321").
func (p Settings) HostPort() string {
	if !p.HasProxy() {
		return ""
	}
	return "http://" + p.Address()
}

// FullURL returns the full proxy URL with credentials (for HTTP client).
func (p Settings) FullURL() string {
	if !p.HasProxy() {
		return ""
	}
	if p.Username != "" && p.Password != "" {
		return fmt.Sprintf("http://%s:%s@%s", p.Username, p.Password, p.Address())
	}
	return p.HostPort()
}

// BasicAuth returns the Proxy-Authorization header value, or "" without credentials.
func (p Settings) BasicAuth() string {
	if p.Username == "" {
		return ""
	}
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(p.Username+":"+p.Password))
}
