package catalog

import (
	"context"
	"errors"
	"net/http"
	"time"
)

// ErrNotFound is returned by repositories when no record matches.
var ErrNotFound = errors.New("store record not found")

// StoreRepository persists catalog records keyed by canonical URL. Upsert is
// the single write path and the final authority on uniqueness: concurrent
// inserts of the same canonical URL must collapse into one record.
type StoreRepository interface {
	Upsert(ctx context.Context, record StoreRecord) error
	Get(ctx context.Context, canonicalURL string) (StoreRecord, error)
	// FilterKnown returns the subset of urls already present, resolved in a
	// single round trip.
	FilterKnown(ctx context.Context, urls []string) (map[string]bool, error)
	ListVisible(ctx context.Context, limit, offset int) ([]StoreRecord, error)
	// ListAll bypasses the visibility predicate; admin use only.
	ListAll(ctx context.Context, limit, offset int) ([]StoreRecord, error)
	// ListForRecheck returns records whose last scrape is older than the
	// cutoff, oldest first, for the maintenance pass.
	ListForRecheck(ctx context.Context, olderThan time.Time, limit int) ([]StoreRecord, error)
}

// FetchRequest describes a single outbound HTTP GET.
type FetchRequest struct {
	URL     string
	Headers http.Header
	Timeout time.Duration
}

// FetchResponse carries the body and metadata of a fetched page. Non-2xx
// responses are returned as values, not errors; only transport failures
// error out.
type FetchResponse struct {
	URL        string
	StatusCode int
	Headers    http.Header
	Body       []byte
	Duration   time.Duration
}

// Fetcher performs a single HTTP GET against one target host.
type Fetcher interface {
	Fetch(ctx context.Context, req FetchRequest) (FetchResponse, error)
}

// Cache is a key/value cache with per-entry TTL, passed by handle so tests
// can substitute an in-memory implementation.
type Cache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

// Queue provides enqueue/dequeue semantics for pending candidates.
type Queue interface {
	Enqueue(ctx context.Context, c Candidate) error
	Dequeue(ctx context.Context) (Candidate, error)
}

// Publisher pushes catalog events to a topic (Pub/Sub or similar).
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) (string, error)
}

// SnapshotStore archives raw page bodies and returns a URI.
type SnapshotStore interface {
	Save(ctx context.Context, path, contentType string, data []byte) (string, error)
}

// Clock returns the current time (swapped for a fake in tests).
type Clock interface {
	Now() time.Time
}
