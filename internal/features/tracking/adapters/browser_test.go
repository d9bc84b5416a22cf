package adapter

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"freight-tracker/internal/core/config"
	"freight-tracker/internal/features/tracking/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testURLs() config.CarrierURLs {
	return config.CarrierURLs{SEFL: "s", XPO: "x", ForwardAir: "f", RL: "r", SAIA: "a"}
}

// requireBrowser skips tests that need a local Chromium.
func requireBrowser(t *testing.T) BrowserOptions {
	t.Helper()
	if os.Getenv("TRACKER_BROWSER_TESTS") == "" {
		t.Skip("set TRACKER_BROWSER_TESTS=1 to run browser tests")
	}
	return BrowserOptions{Headless: true, BinPath: os.Getenv("BROWSER_BIN")}
}

func TestXPOAdapter_Fetch(t *testing.T) {
	opts := requireBrowser(t)

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		// Content is rendered late, like the real single-page app.
		fmt.Fprintf(w, `<html><body><div id="app"></div>
			<script>
				setTimeout(() => {
					document.getElementById("app").textContent =
						"PRO %s The shipment has been delivered to the recipient. Delivery Date 06/10/2024";
				}, 300);
			</script></body></html>`, r.URL.Query().Get("referenceNumber"))
	}))
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	res, err := NewXPOAdapter(ts.URL, opts).Fetch(ctx, "528338366")

	require.NoError(t, err)
	assert.Contains(t, res.Text, "PRO 528338366")
	assert.Contains(t, res.Text, "Delivery Date 06/10/2024")
}

func TestSEFLAdapter_Fetch(t *testing.T) {
	opts := requireBrowser(t)

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, `<html><body>
			<textarea id="refs"></textarea>
			<button onclick="document.getElementById('out').textContent = 'Estimated Delivery: 06/14/2024 for ' + document.getElementById('refs').value">Submit Trace</button>
			<div id="out"></div>
		</body></html>`)
	}))
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	res, err := NewSEFLAdapter(ts.URL, opts).Fetch(ctx, "413238172")

	require.NoError(t, err)
	assert.Contains(t, res.Text, "Estimated Delivery: 06/14/2024 for 413238172")
}

func TestForwardAirAdapter_Fetch(t *testing.T) {
	opts := requireBrowser(t)

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, `<html><body>
			<button onclick="document.getElementById('modal').style.display='block'">
				<svg><path d="M10 6 8.59 7.41 13.17 12l-4.58 4.59L10 18l6-6z"></path></svg>
			</button>
			<div id="modal" style="display:none">
				<div class="delivery-date"><div class="copy">Expected Delivery</div><div>06/12/2024 - 06/13/2024</div></div>
				<div class="shipment-progress"><div class="copy">Status:</div><div>In Transit</div></div>
			</div>
		</body></html>`)
	}))
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	res, err := NewForwardAirAdapter(ts.URL, opts).Fetch(ctx, "93588227")

	require.NoError(t, err)
	require.NotNil(t, res.Structured)
	assert.Equal(t, domain.StructuredResult{Found: true, Phrase: "Expected Delivery", Date: "06/12/2024"}, *res.Structured)
}

func TestAdapter_FetchHonoursContext(t *testing.T) {
	opts := requireBrowser(t)

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body>Loading...</body></html>`)
	}))
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	_, err := NewRLAdapter(ts.URL, opts).Fetch(ctx, "I313183413")
	require.Error(t, err)
}
