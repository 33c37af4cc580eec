package verifier

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kelarsco/sneaklink-sub001/internal/catalog"
)

func TestVerify_CartJSShortCircuits(t *testing.T) {
	t.Parallel()

	f := &fakeFetcher{
		responses: map[string]catalog.FetchResponse{
			"https://store-x.example/cart.js": jsonResponse(`{"items":[],"token":"abc"}`),
		},
		// Everything else errors; the verdict must not care.
		defaultErr: errors.New("connection refused"),
	}
	v := New(f, Config{StepTimeout: time.Second}, nil)

	verdict := v.Verify(context.Background(), "https://store-x.example")
	require.Equal(t, catalog.ShopifyConfirmed, verdict.Status)
	require.Equal(t, 100, verdict.Confidence)
	require.True(t, verdict.Fingerprints["cart_js"])
	require.Equal(t, 1, f.calls["https://store-x.example/cart.js"])
	require.Zero(t, f.calls["https://store-x.example/products.json"], "short circuit must skip later steps")
}

func TestVerify_ShopHeader(t *testing.T) {
	t.Parallel()

	root := htmlResponse(`<html><body>shop</body></html>`)
	root.Headers = http.Header{"X-Shopid": []string{"12345"}}

	f := &fakeFetcher{
		responses: map[string]catalog.FetchResponse{
			"https://store-x.example/": root,
		},
		defaultStatus: 404,
	}
	v := New(f, Config{}, nil)

	verdict := v.Verify(context.Background(), "https://store-x.example")
	require.Equal(t, catalog.ShopifyConfirmed, verdict.Status)
	require.Equal(t, 95, verdict.Confidence)
	require.True(t, verdict.Fingerprints["shop_header"])
}

func TestVerify_ProductsJSON(t *testing.T) {
	t.Parallel()

	f := &fakeFetcher{
		responses: map[string]catalog.FetchResponse{
			"https://store-x.example/":              htmlResponse(`<html></html>`),
			"https://store-x.example/products.json": jsonResponse(`{"products":[{"id":1}]}`),
		},
		defaultStatus: 404,
	}
	v := New(f, Config{}, nil)

	verdict := v.Verify(context.Background(), "https://store-x.example")
	require.Equal(t, catalog.ShopifyConfirmed, verdict.Status)
	require.True(t, verdict.Fingerprints["products_json"])
}

func TestVerify_CDNAssets(t *testing.T) {
	t.Parallel()

	f := &fakeFetcher{
		responses: map[string]catalog.FetchResponse{
			"https://store-x.example/": htmlResponse(
				`<link href="https://cdn.shopify.com/s/files/1/0001/theme.css" rel="stylesheet">`),
		},
		defaultStatus: 404,
	}
	v := New(f, Config{}, nil)

	verdict := v.Verify(context.Background(), "https://store-x.example")
	require.Equal(t, catalog.ShopifyConfirmed, verdict.Status)
	require.Equal(t, 75, verdict.Confidence)
	require.True(t, verdict.Fingerprints["cdn_assets"])
}

func TestVerify_InlineMarkersAreOnlyProbable(t *testing.T) {
	t.Parallel()

	f := &fakeFetcher{
		responses: map[string]catalog.FetchResponse{
			"https://store-x.example/": htmlResponse(`<script>Shopify.theme = {"name":"x"};</script>`),
		},
		defaultStatus: 404,
	}
	v := New(f, Config{}, nil)

	verdict := v.Verify(context.Background(), "https://store-x.example")
	require.Equal(t, catalog.ShopifyProbable, verdict.Status)
	require.Equal(t, 50, verdict.Confidence)
}

func TestVerify_HostedSubdomainFallback(t *testing.T) {
	t.Parallel()

	f := &fakeFetcher{defaultStatus: 404}
	v := New(f, Config{}, nil)

	verdict := v.Verify(context.Background(), "https://cool-socks.myshopify.com")
	require.Equal(t, catalog.ShopifyConfirmed, verdict.Status)
	require.Equal(t, 70, verdict.Confidence)

	// Platform infrastructure subdomains are excluded from the fallback.
	verdict = v.Verify(context.Background(), "https://admin.myshopify.com")
	require.Equal(t, catalog.ShopifyUnlikely, verdict.Status)
}

func TestVerify_AllMissesIsUnlikely(t *testing.T) {
	t.Parallel()

	f := &fakeFetcher{defaultStatus: 404}
	v := New(f, Config{}, nil)

	verdict := v.Verify(context.Background(), "https://store-x.example")
	require.Equal(t, catalog.ShopifyUnlikely, verdict.Status)
	require.Zero(t, verdict.Confidence)
}

func TestVerify_NetworkFailuresDegradeNotError(t *testing.T) {
	t.Parallel()

	f := &fakeFetcher{defaultErr: errors.New("dial tcp: i/o timeout")}
	v := New(f, Config{StepTimeout: 50 * time.Millisecond}, nil)

	verdict := v.Verify(context.Background(), "https://store-x.example")
	require.Equal(t, catalog.ShopifyUnlikely, verdict.Status)
	require.Zero(t, verdict.Confidence)
}

func TestVerify_MalformedBodiesAreNoMatch(t *testing.T) {
	t.Parallel()

	f := &fakeFetcher{
		responses: map[string]catalog.FetchResponse{
			"https://store-x.example/cart.js":       jsonResponse(`<html>not json</html>`),
			"https://store-x.example/products.json": jsonResponse(`{"products":"nope"}`),
			"https://store-x.example/":              htmlResponse(`plain`),
		},
		defaultStatus: 404,
	}
	v := New(f, Config{}, nil)

	verdict := v.Verify(context.Background(), "https://store-x.example")
	require.Equal(t, catalog.ShopifyUnlikely, verdict.Status)
	require.False(t, verdict.Fingerprints["cart_js"])
	require.False(t, verdict.Fingerprints["products_json"])
}

// --- fakes ---

type fakeFetcher struct {
	responses     map[string]catalog.FetchResponse
	defaultStatus int
	defaultErr    error
	calls         map[string]int
}

func (f *fakeFetcher) Fetch(_ context.Context, req catalog.FetchRequest) (catalog.FetchResponse, error) {
	if f.calls == nil {
		f.calls = make(map[string]int)
	}
	f.calls[req.URL]++
	if resp, ok := f.responses[req.URL]; ok {
		return resp, nil
	}
	if f.defaultErr != nil {
		return catalog.FetchResponse{}, f.defaultErr
	}
	status := f.defaultStatus
	if status == 0 {
		status = 404
	}
	return catalog.FetchResponse{URL: req.URL, StatusCode: status, Body: []byte("not found")}, nil
}

func jsonResponse(body string) catalog.FetchResponse {
	return catalog.FetchResponse{
		StatusCode: 200,
		Headers:    http.Header{"Content-Type": []string{"application/json"}},
		Body:       []byte(body),
	}
}

func htmlResponse(body string) catalog.FetchResponse {
	return catalog.FetchResponse{
		StatusCode: 200,
		Headers:    http.Header{"Content-Type": []string{"text/html"}},
		Body:       []byte(strings.TrimSpace(body)),
	}
}
