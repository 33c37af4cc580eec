package pipeline

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/kelarsco/sneaklink-sub001/internal/catalog"
	"github.com/kelarsco/sneaklink-sub001/internal/metrics"
)

// RecheckConfig controls the maintenance pass.
type RecheckConfig struct {
	Interval            time.Duration
	Batch               int
	OlderThan           time.Duration
	DeadAfterProbes     int
	InactiveAfterMisses int
}

// Rechecker periodically revisits stale records: every store gets a fresh
// health probe, and previously confirmed stores are re-verified so parked
// or migrated storefronts are eventually moved to inactive_shopify.
type Rechecker struct {
	repo     catalog.StoreRepository
	verifier Verifier
	prober   Prober
	clock    catalog.Clock
	cfg      RecheckConfig
	logger   *zap.Logger
}

// NewRechecker constructs a Rechecker.
func NewRechecker(
	repo catalog.StoreRepository,
	v Verifier,
	p Prober,
	clock catalog.Clock,
	cfg RecheckConfig,
	logger *zap.Logger,
) *Rechecker {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Interval <= 0 {
		cfg.Interval = time.Hour
	}
	if cfg.Batch <= 0 {
		cfg.Batch = 100
	}
	if cfg.OlderThan <= 0 {
		cfg.OlderThan = 24 * time.Hour
	}
	if cfg.DeadAfterProbes <= 0 {
		cfg.DeadAfterProbes = 3
	}
	if cfg.InactiveAfterMisses <= 0 {
		cfg.InactiveAfterMisses = 3
	}
	return &Rechecker{
		repo:     repo,
		verifier: v,
		prober:   p,
		clock:    clock,
		cfg:      cfg,
		logger:   logger,
	}
}

// Run blocks, executing one pass per interval until the context finishes.
func (r *Rechecker) Run(ctx context.Context) {
	ticker := time.NewTicker(r.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Pass(ctx)
		}
	}
}

// Pass revisits one batch of stale records.
func (r *Rechecker) Pass(ctx context.Context) {
	cutoff := r.clock.Now().Add(-r.cfg.OlderThan)
	records, err := r.repo.ListForRecheck(ctx, cutoff, r.cfg.Batch)
	if err != nil {
		r.logger.Error("recheck listing failed", zap.Error(err))
		return
	}
	if len(records) == 0 {
		return
	}
	r.logger.Info("recheck pass started", zap.Int("stores", len(records)))

	for _, record := range records {
		if ctx.Err() != nil {
			return
		}
		r.recheck(ctx, record)
	}
}

func (r *Rechecker) recheck(ctx context.Context, record catalog.StoreRecord) {
	health := r.prober.Probe(ctx, record.CanonicalURL)
	record.ApplyHealthProbe(health, r.cfg.DeadAfterProbes, r.clock.Now())
	metrics.ObserveProbe(string(health))

	// Re-verification runs against the live site, never the verdict cache:
	// the point of the pass is to catch stores that stopped matching.
	if record.ShopifyStatus == catalog.ShopifyConfirmed && health != catalog.HealthNonexistent {
		verdict := r.verifier.Verify(ctx, record.CanonicalURL)
		record.ApplyVerification(verdict.Status, r.cfg.InactiveAfterMisses, r.clock.Now())
		metrics.ObserveVerification(string(verdict.Status))
	}

	if err := r.repo.Upsert(ctx, record); err != nil {
		r.logger.Error("recheck persist failed", zap.String("url", record.CanonicalURL), zap.Error(err))
		return
	}
	metrics.ObserveRecheck(string(record.StoreStatus))
	r.logger.Debug("store rechecked",
		zap.String("url", record.CanonicalURL),
		zap.String("health_status", string(health)),
		zap.String("store_status", string(record.StoreStatus)))
}
