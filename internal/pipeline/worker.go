// Package pipeline runs discovered candidates through canonicalization,
// dedup, platform verification, health probing, and page classification,
// then persists the resulting catalog record.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/kelarsco/sneaklink-sub001/internal/canonical"
	"github.com/kelarsco/sneaklink-sub001/internal/catalog"
	"github.com/kelarsco/sneaklink-sub001/internal/classify"
	"github.com/kelarsco/sneaklink-sub001/internal/dedup"
	"github.com/kelarsco/sneaklink-sub001/internal/metrics"
	"github.com/kelarsco/sneaklink-sub001/internal/verifier"
)

// Verifier yields a platform verdict for one canonical URL.
type Verifier interface {
	Verify(ctx context.Context, canonicalURL string) verifier.Verdict
}

// Prober classifies the reachability of one canonical URL.
type Prober interface {
	Probe(ctx context.Context, canonicalURL string) catalog.HealthStatus
}

// Config controls Worker behavior.
type Config struct {
	DeadAfterProbes     int
	InactiveAfterMisses int
	FetchTimeout        time.Duration
	CacheTTL            time.Duration
	SnapshotPrefix      string
	SnapshotContentType string
	ConfirmedTopic      string
}

// Event is the payload published when a store is confirmed.
type Event struct {
	CanonicalURL  string                `json:"canonical_url"`
	ShopifyStatus catalog.ShopifyStatus `json:"shopify_status"`
	StoreStatus   catalog.StoreStatus   `json:"store_status"`
	Source        string                `json:"source"`
	SnapshotURI   string                `json:"snapshot_uri,omitempty"`
	OccurredAt    time.Time             `json:"occurred_at"`
}

// Worker consumes candidates and executes the ingest pipeline.
type Worker struct {
	queue     catalog.Queue
	repo      catalog.StoreRepository
	dedup     *dedup.Deduplicator
	verifier  Verifier
	prober    Prober
	fetcher   catalog.Fetcher
	cache     catalog.Cache
	snapshots catalog.SnapshotStore
	publisher catalog.Publisher
	clock     catalog.Clock
	cfg       Config
	logger    *zap.Logger
}

// New constructs a Worker.
func New(
	queue catalog.Queue,
	repo catalog.StoreRepository,
	dd *dedup.Deduplicator,
	v Verifier,
	p Prober,
	fetcher catalog.Fetcher,
	cache catalog.Cache,
	snapshots catalog.SnapshotStore,
	publisher catalog.Publisher,
	clock catalog.Clock,
	cfg Config,
	logger *zap.Logger,
) *Worker {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.DeadAfterProbes <= 0 {
		cfg.DeadAfterProbes = 3
	}
	if cfg.InactiveAfterMisses <= 0 {
		cfg.InactiveAfterMisses = 3
	}
	if cfg.SnapshotContentType == "" {
		cfg.SnapshotContentType = "text/html; charset=utf-8"
	}
	if cfg.SnapshotPrefix == "" {
		cfg.SnapshotPrefix = "pages"
	}
	return &Worker{
		queue:     queue,
		repo:      repo,
		dedup:     dd,
		verifier:  v,
		prober:    p,
		fetcher:   fetcher,
		cache:     cache,
		snapshots: snapshots,
		publisher: publisher,
		clock:     clock,
		cfg:       cfg,
		logger:    logger,
	}
}

// Run blocks, consuming candidates until the context finishes.
func (w *Worker) Run(ctx context.Context) {
	for {
		candidate, err := w.queue.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			w.logger.Error("queue dequeue failed", zap.Error(err))
			continue
		}
		metrics.IncActiveWorkers()
		w.Process(ctx, candidate)
		metrics.DecActiveWorkers()
	}
}

// Process runs one candidate through the full ingest pipeline.
func (w *Worker) Process(ctx context.Context, candidate catalog.Candidate) {
	canonicalURL, err := canonical.Canonicalize(candidate.RawURL)
	if err != nil {
		w.logger.Warn("candidate rejected",
			zap.String("raw_url", candidate.RawURL),
			zap.String("site", metrics.SanitizeSite(candidate.RawURL)),
			zap.String("source", candidate.Source),
			zap.Error(err))
		metrics.ObserveCandidate(candidate.Source, "invalid")
		return
	}

	if w.dedup.IsKnown(ctx, canonicalURL) {
		w.logger.Debug("candidate already known", zap.String("url", canonicalURL))
		metrics.ObserveCandidate(candidate.Source, "duplicate")
		return
	}

	// Claim the URL immediately. A concurrent worker racing on the same
	// canonical URL collapses into this row via the upsert key.
	record := catalog.NewRecord(canonicalURL, candidate.Source, w.clock.Now())
	if err := w.upsertWithRetry(ctx, record); err != nil {
		w.logger.Error("claim failed", zap.String("url", canonicalURL), zap.Error(err))
		metrics.ObserveCandidate(candidate.Source, "error")
		return
	}

	status, fresh := w.verify(ctx, canonicalURL)
	record.ApplyVerification(status, w.cfg.InactiveAfterMisses, w.clock.Now())
	metrics.ObserveVerification(string(status))

	health := w.prober.Probe(ctx, canonicalURL)
	record.ApplyHealthProbe(health, w.cfg.DeadAfterProbes, w.clock.Now())
	metrics.ObserveProbe(string(health))

	// Classification costs a page fetch; only confirmed/probable platform
	// verdicts warrant the enrichment, and only for hosts that still resolve.
	var body []byte
	if tierWarrantsClassification(record.ShopifyStatus) && health != catalog.HealthNonexistent {
		body = w.classifyPage(ctx, canonicalURL, &record)
	}

	if err := w.upsertWithRetry(ctx, record); err != nil {
		w.logger.Error("persist failed", zap.String("url", canonicalURL), zap.Error(err))
		metrics.ObserveCandidate(candidate.Source, "error")
		return
	}

	if fresh && record.ShopifyStatus == catalog.ShopifyConfirmed {
		w.announce(ctx, record, body)
	}

	w.logger.Info("candidate processed",
		zap.String("url", canonicalURL),
		zap.String("source", candidate.Source),
		zap.String("shopify_status", string(record.ShopifyStatus)),
		zap.String("health_status", string(record.HealthStatus)),
		zap.String("store_status", string(record.StoreStatus)))
	metrics.ObserveCandidate(candidate.Source, "processed")
}

func tierWarrantsClassification(status catalog.ShopifyStatus) bool {
	return status == catalog.ShopifyConfirmed || status == catalog.ShopifyProbable
}

// verify resolves the platform status, consulting the verdict cache first.
// The second return reports whether the verdict came from a live check.
func (w *Worker) verify(ctx context.Context, canonicalURL string) (catalog.ShopifyStatus, bool) {
	if cached, ok, err := w.cache.Get(ctx, canonicalURL); err != nil {
		w.logger.Warn("verdict cache read failed", zap.String("url", canonicalURL), zap.Error(err))
	} else if ok {
		metrics.ObserveVerificationCacheHit()
		return catalog.ShopifyStatus(cached), false
	}

	verdict := w.verifier.Verify(ctx, canonicalURL)
	if err := w.cache.Set(ctx, canonicalURL, string(verdict.Status), w.cfg.CacheTTL); err != nil {
		w.logger.Warn("verdict cache write failed", zap.String("url", canonicalURL), zap.Error(err))
	}
	return verdict.Status, true
}

// classifyPage fetches the storefront once and runs every classifier on the
// shared page. Classification is best-effort: a failed fetch leaves the
// record's enrichment fields empty but never aborts the pipeline.
func (w *Worker) classifyPage(ctx context.Context, canonicalURL string, record *catalog.StoreRecord) []byte {
	resp, err := w.fetcher.Fetch(ctx, catalog.FetchRequest{
		URL:     canonicalURL,
		Timeout: w.cfg.FetchTimeout,
	})
	if err != nil {
		w.logger.Debug("classification fetch failed", zap.String("url", canonicalURL), zap.Error(err))
		return nil
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil
	}

	page := classify.NewPage(resp)
	result := classify.All(page, canonicalURL)

	record.Name = result.Name
	record.CountryLabel = result.Country.Label
	record.Theme = result.Theme.Theme
	record.BusinessModel = result.BusinessModel.BusinessModel
	record.HasAdvertising = result.Ads.Any
	return resp.Body
}

// announce archives the page body and publishes the confirmation event.
// Both are best-effort side effects.
func (w *Worker) announce(ctx context.Context, record catalog.StoreRecord, body []byte) {
	event := Event{
		CanonicalURL:  record.CanonicalURL,
		ShopifyStatus: record.ShopifyStatus,
		StoreStatus:   record.StoreStatus,
		Source:        record.Source,
		OccurredAt:    w.clock.Now(),
	}

	if len(body) > 0 {
		path := w.snapshotPath(record.CanonicalURL)
		uri, err := w.snapshots.Save(ctx, path, w.cfg.SnapshotContentType, body)
		if err != nil {
			w.logger.Warn("snapshot save failed", zap.String("url", record.CanonicalURL), zap.Error(err))
		} else {
			event.SnapshotURI = uri
		}
	}

	if _, err := w.publisher.Publish(ctx, w.cfg.ConfirmedTopic, event); err != nil {
		w.logger.Warn("confirmation publish failed", zap.String("url", record.CanonicalURL), zap.Error(err))
	}
}

func (w *Worker) snapshotPath(canonicalURL string) string {
	host := "unknown"
	if u, err := url.Parse(canonicalURL); err == nil && u.Hostname() != "" {
		host = u.Hostname()
	}
	return fmt.Sprintf("%s/%s/%d.html", w.cfg.SnapshotPrefix, host, w.clock.Now().UnixNano())
}

// upsertWithRetry retries a failed upsert once before giving up.
func (w *Worker) upsertWithRetry(ctx context.Context, record catalog.StoreRecord) error {
	err := w.repo.Upsert(ctx, record)
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return err
	}
	w.logger.Warn("upsert failed, retrying once", zap.String("url", record.CanonicalURL), zap.Error(err))
	if retryErr := w.repo.Upsert(ctx, record); retryErr != nil {
		return errors.Join(err, retryErr)
	}
	return nil
}
