package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/gocolly/colly/v2"
	"github.com/stretchr/testify/require"

	"github.com/kelarsco/sneaklink-sub001/internal/catalog"
)

func TestFetchReturnsBodyAndHeaders(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "yes", r.Header.Get("X-Trace"))
		w.Header().Set("X-Resp", "ok")
		_, _ = w.Write([]byte("<html>hello</html>"))
	}))
	defer srv.Close()

	f := New(Config{UserAgent: "catalog-agent", Timeout: 5 * time.Second})
	resp, err := f.Fetch(context.Background(), catalog.FetchRequest{
		URL:     srv.URL,
		Headers: http.Header{"X-Trace": {"yes"}},
	})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "<html>hello</html>", string(resp.Body))
	require.Equal(t, "ok", resp.Headers.Get("X-Resp"))
	require.Greater(t, resp.Duration, time.Duration(0))
}

func TestFetchNonTwoHundredIsNotAnError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	f := New(Config{Timeout: 5 * time.Second})
	resp, err := f.Fetch(context.Background(), catalog.FetchRequest{URL: srv.URL})
	require.NoError(t, err)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestFetchTransportErrorIsAnError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	dead := srv.URL
	srv.Close()

	f := New(Config{Timeout: 2 * time.Second})
	_, err := f.Fetch(context.Background(), catalog.FetchRequest{URL: dead})
	require.Error(t, err)
}

func TestFetchSameURLTwice(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	f := New(Config{Timeout: 5 * time.Second})
	for i := 0; i < 2; i++ {
		resp, err := f.Fetch(context.Background(), catalog.FetchRequest{URL: srv.URL})
		require.NoError(t, err, "revisit %d", i)
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}
}

func TestResponseFrom(t *testing.T) {
	t.Parallel()

	u, err := url.Parse("https://example.com/cart.js")
	require.NoError(t, err)

	r := &colly.Response{
		StatusCode: http.StatusCreated,
		Body:       []byte("body"),
		Headers:    &http.Header{"X-Resp": {"ok"}},
		Request:    &colly.Request{URL: u},
	}
	got := responseFrom(r, time.Now().Add(-time.Millisecond))
	require.Equal(t, "https://example.com/cart.js", got.URL)
	require.Equal(t, http.StatusCreated, got.StatusCode)
	require.Equal(t, "body", string(got.Body))
	require.Equal(t, "ok", got.Headers.Get("X-Resp"))
}
