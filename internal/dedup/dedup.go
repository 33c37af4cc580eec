// Package dedup filters candidate canonical URLs against the persisted
// catalog. Its answers are advisory: the storage layer's uniqueness
// constraint on the canonical URL is the final authority under concurrent
// inserts.
package dedup

import (
	"context"

	"go.uber.org/zap"

	"github.com/kelarsco/sneaklink-sub001/internal/catalog"
)

// Stats summarizes a batch check.
type Stats struct {
	Total int `json:"total"`
	New   int `json:"new"`
	Known int `json:"known"`
}

// Deduplicator answers "have we seen this canonical URL" against the store
// repository.
type Deduplicator struct {
	repo   catalog.StoreRepository
	logger *zap.Logger
}

// New constructs a Deduplicator.
func New(repo catalog.StoreRepository, logger *zap.Logger) *Deduplicator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Deduplicator{repo: repo, logger: logger}
}

// IsKnown reports whether one canonical URL already has a record. On
// storage error it fails open (treats the URL as new): duplicate work is
// preferred over silently dropping a discovery.
func (d *Deduplicator) IsKnown(ctx context.Context, canonicalURL string) bool {
	known, err := d.repo.FilterKnown(ctx, []string{canonicalURL})
	if err != nil {
		d.logger.Warn("dedup lookup failed, failing open", zap.String("url", canonicalURL), zap.Error(err))
		return false
	}
	return known[canonicalURL]
}

// FilterNew returns the subset of urls with no existing record, resolved in
// one storage round trip. Input order is preserved; on storage error every
// URL is returned.
func (d *Deduplicator) FilterNew(ctx context.Context, urls []string) []string {
	if len(urls) == 0 {
		return nil
	}
	known, err := d.repo.FilterKnown(ctx, urls)
	if err != nil {
		d.logger.Warn("batch dedup failed, failing open", zap.Int("urls", len(urls)), zap.Error(err))
		out := make([]string, len(urls))
		copy(out, urls)
		return out
	}

	seen := make(map[string]bool, len(urls))
	var fresh []string
	for _, u := range urls {
		if known[u] || seen[u] {
			continue
		}
		seen[u] = true
		fresh = append(fresh, u)
	}
	return fresh
}

// CheckStats runs the batch check and reports totals.
func (d *Deduplicator) CheckStats(ctx context.Context, urls []string) Stats {
	fresh := d.FilterNew(ctx, urls)
	return Stats{Total: len(urls), New: len(fresh), Known: len(urls) - len(fresh)}
}
