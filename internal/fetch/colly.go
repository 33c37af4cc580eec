// Package fetch implements catalog.Fetcher using the Colly collector.
package fetch

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gocolly/colly/v2"

	"github.com/kelarsco/sneaklink-sub001/internal/catalog"
)

const defaultTimeout = 15 * time.Second

// Config controls collector behavior.
type Config struct {
	UserAgent string
	Timeout   time.Duration
}

// Fetcher performs single-page HTTP GETs. Non-2xx responses are returned as
// responses, not errors: the verifier and prober both interpret status codes
// themselves.
type Fetcher struct {
	cfg           Config
	transport     http.RoundTripper
	baseCollector *colly.Collector
}

// New builds a Fetcher with a pooled transport shared across requests.
func New(cfg Config) *Fetcher {
	c := colly.NewCollector(colly.Async(false))
	c.IgnoreRobotsTxt = true
	c.AllowURLRevisit = true

	transport := newHTTPTransport()
	c.WithTransport(transport)

	return &Fetcher{
		cfg:           cfg,
		transport:     transport,
		baseCollector: c,
	}
}

// Fetch executes a single HTTP GET.
func (f *Fetcher) Fetch(ctx context.Context, request catalog.FetchRequest) (catalog.FetchResponse, error) {
	var (
		result   catalog.FetchResponse
		fetchErr error
	)
	start := time.Now()
	collector := f.buildCollector(request, start, &result, &fetchErr)

	if err := f.runCollector(ctx, collector, request.URL, &fetchErr, &result); err != nil {
		return catalog.FetchResponse{}, err
	}
	return result, nil
}

func (f *Fetcher) buildCollector(
	request catalog.FetchRequest,
	start time.Time,
	result *catalog.FetchResponse,
	fetchErr *error,
) *colly.Collector {
	collector := f.baseCollector.Clone()
	if f.cfg.UserAgent != "" {
		collector.UserAgent = f.cfg.UserAgent
	}
	timeout := request.Timeout
	if timeout == 0 {
		timeout = f.cfg.Timeout
	}
	if timeout == 0 {
		timeout = defaultTimeout
	}
	collector.SetRequestTimeout(timeout)
	collector.WithTransport(f.transport)

	collector.OnRequest(func(r *colly.Request) {
		f.copyHeaders(request, r)
	})

	collector.OnResponse(func(r *colly.Response) {
		*result = responseFrom(r, start)
	})

	// Colly routes non-2xx statuses here. A status code means the server
	// answered, so capture it as a response and clear the error.
	collector.OnError(func(r *colly.Response, err error) {
		if r != nil && r.StatusCode != 0 {
			*result = responseFrom(r, start)
			return
		}
		*fetchErr = err
	})

	return collector
}

func responseFrom(r *colly.Response, start time.Time) catalog.FetchResponse {
	var headers http.Header
	if r.Headers != nil {
		headers = r.Headers.Clone()
	}
	return catalog.FetchResponse{
		URL:        r.Request.URL.String(),
		StatusCode: r.StatusCode,
		Headers:    headers,
		Body:       append([]byte(nil), r.Body...),
		Duration:   time.Since(start),
	}
}

func (f *Fetcher) runCollector(
	ctx context.Context,
	collector *colly.Collector,
	url string,
	fetchErr *error,
	result *catalog.FetchResponse,
) error {
	done := make(chan error, 1)
	go func() {
		done <- collector.Visit(url)
	}()

	select {
	case <-ctx.Done():
		return fmt.Errorf("fetch canceled: %w", ctx.Err())
	case err := <-done:
		if *fetchErr != nil {
			return fmt.Errorf("fetch failed: %w", *fetchErr)
		}
		if result.StatusCode != 0 {
			return nil
		}
		if err != nil {
			return fmt.Errorf("visit failed: %w", err)
		}
		return nil
	}
}

func (f *Fetcher) copyHeaders(request catalog.FetchRequest, r *colly.Request) {
	for key, values := range request.Headers {
		for _, v := range values {
			r.Headers.Add(key, v)
		}
	}
}

func newHTTPTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   15 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
	}
}
