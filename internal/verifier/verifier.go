// Package verifier implements the ordered fingerprint procedure that
// decides whether a canonical URL is a Shopify storefront.
//
// The procedure is a short-circuit chain, not a weighted vote: steps are
// ordered by reliability and the first high-reliability hit terminates.
// Network failures and non-2xx responses mean "no match, continue"; nothing
// in here ever fails the pipeline.
package verifier

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kelarsco/sneaklink-sub001/internal/canonical"
	"github.com/kelarsco/sneaklink-sub001/internal/catalog"
)

// Verdict is the verifier output: a confidence tier, a 0-100 confidence
// score, and which fingerprints were checked/hit.
type Verdict struct {
	Status       catalog.ShopifyStatus `json:"status"`
	Confidence   int                   `json:"confidence"`
	Fingerprints map[string]bool       `json:"fingerprints"`
}

// Fingerprint step names, in procedure order.
const (
	fpCartJS          = "cart_js"
	fpShopHeader      = "shop_header"
	fpProductsJSON    = "products_json"
	fpCollectionsJSON = "collections_json"
	fpSearchSuggest   = "search_suggest"
	fpCDNAssets       = "cdn_assets"
	fpInlineMarkers   = "inline_markers"
	fpHostedSubdomain = "hosted_subdomain"
)

// Response headers Shopify attaches to storefront responses.
var shopHeaders = []string{"X-ShopId", "X-Sorting-Hat-ShopId", "X-Shopify-Stage"}

// CDN asset domains referenced by storefront markup.
var cdnMarkers = []string{"cdn.shopify.com", "cdn.shopifycdn.net", "shopify.com/s/files"}

// Weaker inline markers that justify a probable tier when no hard
// fingerprint fires.
var inlineMarkers = []string{"shopify.theme", "shopify-section", "window.shopify"}

// Subdomains of the hosted suffix that are platform infrastructure, not
// storefronts.
var excludedSubdomains = map[string]bool{
	"www": true, "admin": true, "partners": true, "help": true,
	"checkout": true, "accounts": true, "community": true, "apps": true,
	"shop": true, "status": true,
}

// Config controls verifier behavior.
type Config struct {
	// StepTimeout bounds each fingerprint fetch independently, so one slow
	// endpoint cannot stall the verdict. Capped at 10s.
	StepTimeout time.Duration
}

// Verifier runs the fingerprint procedure against one host at a time.
type Verifier struct {
	fetcher catalog.Fetcher
	cfg     Config
	logger  *zap.Logger
}

// New constructs a Verifier.
func New(fetcher catalog.Fetcher, cfg Config, logger *zap.Logger) *Verifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.StepTimeout <= 0 || cfg.StepTimeout > 10*time.Second {
		cfg.StepTimeout = 10 * time.Second
	}
	return &Verifier{fetcher: fetcher, cfg: cfg, logger: logger}
}

// Verify runs the ordered procedure. It never returns an error: anything
// unexpected, a panic included, degrades the verdict to unlikely with
// confidence 0.
func (v *Verifier) Verify(ctx context.Context, canonicalURL string) (verdict Verdict) {
	verdict = Verdict{
		Status:       catalog.ShopifyUnlikely,
		Fingerprints: make(map[string]bool, 8),
	}
	defer func() {
		if rec := recover(); rec != nil {
			v.logger.Error("verifier panic recovered", zap.String("url", canonicalURL), zap.Any("panic", rec))
			verdict = Verdict{Status: catalog.ShopifyUnlikely, Fingerprints: verdict.Fingerprints}
		}
	}()

	// Step 1: /cart.js returning a cart-shaped object is the hardest signal.
	if v.checkCartJS(ctx, canonicalURL, &verdict) {
		return confirm(&verdict, 100)
	}

	// Steps 2 and 4 share the root fetch: header first, markup after.
	root, rootOK := v.fetchStep(ctx, canonicalURL+"/")
	if rootOK && v.checkShopHeader(root, &verdict) {
		return confirm(&verdict, 95)
	}

	// Step 3: well-known JSON endpoints.
	if v.checkJSONEndpoint(ctx, canonicalURL+"/products.json", "products", fpProductsJSON, &verdict) {
		return confirm(&verdict, 90)
	}
	if v.checkJSONEndpoint(ctx, canonicalURL+"/collections.json", "collections", fpCollectionsJSON, &verdict) {
		return confirm(&verdict, 85)
	}
	if v.checkJSONEndpoint(ctx, canonicalURL+"/search/suggest.json", "resources", fpSearchSuggest, &verdict) {
		return confirm(&verdict, 85)
	}

	// Step 4: CDN asset references in the root markup.
	if rootOK && v.checkCDNAssets(root, &verdict) {
		return confirm(&verdict, 75)
	}

	// Step 5: hosted-subdomain fallback.
	if v.checkHostedSubdomain(canonicalURL, &verdict) {
		return confirm(&verdict, 70)
	}

	// Weaker inline markers alone only reach the probable tier.
	if rootOK && v.checkInlineMarkers(root, &verdict) {
		verdict.Status = catalog.ShopifyProbable
		verdict.Confidence = 50
		return verdict
	}

	return verdict
}

func confirm(v *Verdict, confidence int) Verdict {
	v.Status = catalog.ShopifyConfirmed
	v.Confidence = confidence
	return *v
}

// fetchStep performs one independently-bounded GET. A transport error or
// non-2xx status is "no signal", never an error.
func (v *Verifier) fetchStep(ctx context.Context, url string) (catalog.FetchResponse, bool) {
	stepCtx, cancel := context.WithTimeout(ctx, v.cfg.StepTimeout)
	defer cancel()

	resp, err := v.fetcher.Fetch(stepCtx, catalog.FetchRequest{URL: url, Timeout: v.cfg.StepTimeout})
	if err != nil {
		v.logger.Debug("fingerprint fetch failed", zap.String("url", url), zap.Error(err))
		return catalog.FetchResponse{}, false
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return catalog.FetchResponse{}, false
	}
	return resp, true
}

func (v *Verifier) checkCartJS(ctx context.Context, canonicalURL string, verdict *Verdict) bool {
	resp, ok := v.fetchStep(ctx, canonicalURL+"/cart.js")
	if !ok {
		verdict.Fingerprints[fpCartJS] = false
		return false
	}
	var cart map[string]json.RawMessage
	if err := json.Unmarshal(resp.Body, &cart); err != nil {
		verdict.Fingerprints[fpCartJS] = false
		return false
	}
	_, hasItems := cart["items"]
	_, hasToken := cart["token"]
	_, hasTotal := cart["total_price"]
	hit := hasItems || hasToken || hasTotal
	verdict.Fingerprints[fpCartJS] = hit
	return hit
}

func (v *Verifier) checkShopHeader(root catalog.FetchResponse, verdict *Verdict) bool {
	for _, h := range shopHeaders {
		if root.Headers.Get(h) != "" {
			verdict.Fingerprints[fpShopHeader] = true
			return true
		}
	}
	verdict.Fingerprints[fpShopHeader] = false
	return false
}

func (v *Verifier) checkJSONEndpoint(ctx context.Context, url, key, name string, verdict *Verdict) bool {
	resp, ok := v.fetchStep(ctx, url)
	if !ok {
		verdict.Fingerprints[name] = false
		return false
	}
	var payload map[string]json.RawMessage
	if err := json.Unmarshal(resp.Body, &payload); err != nil {
		verdict.Fingerprints[name] = false
		return false
	}
	raw, found := payload[key]
	hit := found && len(raw) > 0 && (raw[0] == '[' || raw[0] == '{')
	verdict.Fingerprints[name] = hit
	return hit
}

func (v *Verifier) checkCDNAssets(root catalog.FetchResponse, verdict *Verdict) bool {
	body := strings.ToLower(string(root.Body))
	for _, marker := range cdnMarkers {
		if strings.Contains(body, marker) {
			verdict.Fingerprints[fpCDNAssets] = true
			return true
		}
	}
	verdict.Fingerprints[fpCDNAssets] = false
	return false
}

func (v *Verifier) checkInlineMarkers(root catalog.FetchResponse, verdict *Verdict) bool {
	body := strings.ToLower(string(root.Body))
	for _, marker := range inlineMarkers {
		if strings.Contains(body, marker) {
			verdict.Fingerprints[fpInlineMarkers] = true
			return true
		}
	}
	verdict.Fingerprints[fpInlineMarkers] = false
	return false
}

func (v *Verifier) checkHostedSubdomain(canonicalURL string, verdict *Verdict) bool {
	host := canonical.Host(canonicalURL)
	if !strings.HasSuffix(host, canonical.HostedSuffix) {
		verdict.Fingerprints[fpHostedSubdomain] = false
		return false
	}
	sub := strings.TrimSuffix(host, canonical.HostedSuffix)
	hit := sub != "" && !excludedSubdomains[sub]
	verdict.Fingerprints[fpHostedSubdomain] = hit
	return hit
}
