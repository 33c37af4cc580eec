// Package probe classifies storefront reachability for the catalog state
// machine: healthy, possibly inactive, nonexistent, or password protected.
package probe

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kelarsco/sneaklink-sub001/internal/catalog"
)

// Markers of Shopify's "store unavailable" interstitials.
var unavailableMarkers = []string{
	"this store is unavailable",
	"sorry, this store is currently unavailable",
	"this shop is currently unavailable",
	"only one step left!",
}

// Markers of the storefront password page.
var passwordMarkers = []string{
	`action="/password"`,
	"opening soon",
	"enter store using password",
	"password page",
}

// Config controls prober behavior.
type Config struct {
	Timeout time.Duration
}

// Prober performs one reachability check per call.
type Prober struct {
	fetcher catalog.Fetcher
	cfg     Config
	logger  *zap.Logger
}

// New constructs a Prober.
func New(fetcher catalog.Fetcher, cfg Config, logger *zap.Logger) *Prober {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Prober{fetcher: fetcher, cfg: cfg, logger: logger}
}

// Probe fetches the store root and classifies the response. It never
// returns an error. Transport failures classify as possibly_inactive:
// nonexistent is reserved for definitive evidence (404/410), so a single
// timeout feeds the consecutive-failure counter instead of hiding the store
// outright.
func (p *Prober) Probe(ctx context.Context, canonicalURL string) catalog.HealthStatus {
	probeCtx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	defer cancel()

	resp, err := p.fetcher.Fetch(probeCtx, catalog.FetchRequest{URL: canonicalURL + "/", Timeout: p.cfg.Timeout})
	if err != nil {
		p.logger.Debug("health probe failed", zap.String("url", canonicalURL), zap.Error(err))
		return catalog.HealthPossiblyInactive
	}

	return Classify(resp)
}

// Classify maps a root response to a health status. Split out from Probe so
// the marker rules are testable without a fetcher.
func Classify(resp catalog.FetchResponse) catalog.HealthStatus {
	body := strings.ToLower(string(resp.Body))

	switch {
	case resp.StatusCode == 401 || containsAny(body, passwordMarkers):
		return catalog.HealthPasswordProtected
	case resp.StatusCode == 404 || resp.StatusCode == 410:
		return catalog.HealthNonexistent
	case resp.StatusCode >= 500:
		return catalog.HealthPossiblyInactive
	case containsAny(body, unavailableMarkers):
		return catalog.HealthPossiblyInactive
	case resp.StatusCode >= 200 && resp.StatusCode < 400:
		return catalog.HealthHealthy
	default:
		return catalog.HealthPossiblyInactive
	}
}

func containsAny(haystack string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(haystack, n) {
			return true
		}
	}
	return false
}
