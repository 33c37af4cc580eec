// Package memory provides an in-memory store repository for development
// and testing.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/kelarsco/sneaklink-sub001/internal/catalog"
)

// Store implements catalog.StoreRepository on a mutex-guarded map.
type Store struct {
	mu      sync.RWMutex
	records map[string]catalog.StoreRecord
}

// NewStore constructs an empty Store.
func NewStore() *Store {
	return &Store{records: make(map[string]catalog.StoreRecord)}
}

// Upsert inserts or replaces a record. An existing record keeps its original
// DateAdded.
func (s *Store) Upsert(_ context.Context, record catalog.StoreRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.records[record.CanonicalURL]; ok {
		record.DateAdded = existing.DateAdded
	}
	s.records[record.CanonicalURL] = cloneRecord(record)
	return nil
}

// Get returns the record for one canonical URL.
func (s *Store) Get(_ context.Context, canonicalURL string) (catalog.StoreRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.records[canonicalURL]
	if !ok {
		return catalog.StoreRecord{}, catalog.ErrNotFound
	}
	return cloneRecord(record), nil
}

// FilterKnown reports which of urls already have a record.
func (s *Store) FilterKnown(_ context.Context, urls []string) (map[string]bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	known := make(map[string]bool, len(urls))
	for _, u := range urls {
		if _, ok := s.records[u]; ok {
			known[u] = true
		}
	}
	return known, nil
}

// ListVisible returns publicly listable records, newest first.
func (s *Store) ListVisible(_ context.Context, limit, offset int) ([]catalog.StoreRecord, error) {
	return s.listWhere(func(r catalog.StoreRecord) bool { return r.Visible() }, limit, offset), nil
}

// ListAll returns every record regardless of visibility.
func (s *Store) ListAll(_ context.Context, limit, offset int) ([]catalog.StoreRecord, error) {
	return s.listWhere(func(catalog.StoreRecord) bool { return true }, limit, offset), nil
}

// ListForRecheck returns unblocked records last scraped before olderThan,
// oldest first.
func (s *Store) ListForRecheck(_ context.Context, olderThan time.Time, limit int) ([]catalog.StoreRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []catalog.StoreRecord
	for _, record := range s.records {
		if record.StoreStatus == catalog.StoreBlocked {
			continue
		}
		if !record.LastScraped.Before(olderThan) {
			continue
		}
		out = append(out, cloneRecord(record))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LastScraped.Before(out[j].LastScraped) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) listWhere(keep func(catalog.StoreRecord) bool, limit, offset int) []catalog.StoreRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []catalog.StoreRecord
	for _, record := range s.records {
		if keep(record) {
			out = append(out, cloneRecord(record))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].DateAdded.Equal(out[j].DateAdded) {
			return out[i].DateAdded.After(out[j].DateAdded)
		}
		return out[i].CanonicalURL < out[j].CanonicalURL
	})
	if offset > 0 {
		if offset >= len(out) {
			return nil
		}
		out = out[offset:]
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func cloneRecord(record catalog.StoreRecord) catalog.StoreRecord {
	out := record
	out.Tags = append([]string(nil), record.Tags...)
	if record.BusinessModel.Scores != nil {
		scores := make(map[catalog.BusinessModelLabel]float64, len(record.BusinessModel.Scores))
		for k, v := range record.BusinessModel.Scores {
			scores[k] = v
		}
		out.BusinessModel.Scores = scores
	}
	return out
}
