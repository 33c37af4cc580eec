// Package postgres provides the Postgres-backed store repository.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kelarsco/sneaklink-sub001/internal/catalog"
)

// Config controls the Postgres connection pool.
type Config struct {
	DSN             string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

type querier interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Query(context.Context, string, ...any) (pgx.Rows, error)
	QueryRow(context.Context, string, ...any) pgx.Row
	Close()
}

// Store implements catalog.StoreRepository on a pgx pool.
type Store struct {
	pool querier
}

// New connects a pool from cfg and wraps it in a Store.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("database.dsn is required")
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &Store{pool: pool}, nil
}

// NewWithPool constructs a Store from an existing pool (primarily for testing).
func NewWithPool(pool querier) (*Store, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	return &Store{pool: pool}, nil
}

// Close releases the underlying pool resources.
func (s *Store) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

const storeColumns = `
	canonical_url, name, country_label, theme_name, theme_tier, tags,
	business_scores, business_primary, business_confidence, has_advertising,
	shopify_status, health_status, store_status, verified,
	failed_probes, failed_verifications, health_probed,
	source, date_added, last_scraped`

// visibleWhere must stay in lockstep with catalog.StoreRecord.Visible so the
// API and the in-process predicate never disagree.
const visibleWhere = `
	(store_status = 'pending' AND health_probed)
	OR (
		store_status = 'active'
		AND health_status NOT IN ('nonexistent', 'password_protected')
		AND (verified OR shopify_status IN ('confirmed', 'probable'))
	)`

// Upsert inserts or updates a record keyed on canonical_url. date_added is
// never overwritten; every other column follows the incoming record.
func (s *Store) Upsert(ctx context.Context, record catalog.StoreRecord) error {
	if record.CanonicalURL == "" {
		return fmt.Errorf("canonical url is required")
	}
	scores, err := json.Marshal(record.BusinessModel.Scores)
	if err != nil {
		return fmt.Errorf("marshal business scores: %w", err)
	}

	query := `
		INSERT INTO stores (` + storeColumns + `)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20)
		ON CONFLICT (canonical_url) DO UPDATE SET
			name = EXCLUDED.name,
			country_label = EXCLUDED.country_label,
			theme_name = EXCLUDED.theme_name,
			theme_tier = EXCLUDED.theme_tier,
			tags = EXCLUDED.tags,
			business_scores = EXCLUDED.business_scores,
			business_primary = EXCLUDED.business_primary,
			business_confidence = EXCLUDED.business_confidence,
			has_advertising = EXCLUDED.has_advertising,
			shopify_status = EXCLUDED.shopify_status,
			health_status = EXCLUDED.health_status,
			store_status = EXCLUDED.store_status,
			verified = EXCLUDED.verified,
			failed_probes = EXCLUDED.failed_probes,
			failed_verifications = EXCLUDED.failed_verifications,
			health_probed = EXCLUDED.health_probed,
			source = EXCLUDED.source,
			last_scraped = EXCLUDED.last_scraped;`

	_, err = s.pool.Exec(ctx, query,
		record.CanonicalURL,
		record.Name,
		record.CountryLabel,
		record.Theme.Name,
		string(record.Theme.Tier),
		record.Tags,
		scores,
		string(record.BusinessModel.Primary),
		record.BusinessModel.Confidence,
		record.HasAdvertising,
		string(record.ShopifyStatus),
		string(record.HealthStatus),
		string(record.StoreStatus),
		record.Verified,
		record.FailedProbes,
		record.FailedVerifications,
		record.HealthProbed,
		record.Source,
		record.DateAdded,
		record.LastScraped,
	)
	if err != nil {
		return fmt.Errorf("upsert store: %w", err)
	}
	return nil
}

// Get returns the record for one canonical URL.
func (s *Store) Get(ctx context.Context, canonicalURL string) (catalog.StoreRecord, error) {
	query := `SELECT ` + storeColumns + ` FROM stores WHERE canonical_url = $1;`
	record, err := scanRecord(s.pool.QueryRow(ctx, query, canonicalURL))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return catalog.StoreRecord{}, catalog.ErrNotFound
		}
		return catalog.StoreRecord{}, fmt.Errorf("get store: %w", err)
	}
	return record, nil
}

// FilterKnown reports which of urls already have a record, in one query.
func (s *Store) FilterKnown(ctx context.Context, urls []string) (map[string]bool, error) {
	if len(urls) == 0 {
		return map[string]bool{}, nil
	}
	query := `SELECT canonical_url FROM stores WHERE canonical_url = ANY($1);`
	rows, err := s.pool.Query(ctx, query, urls)
	if err != nil {
		return nil, fmt.Errorf("filter known: %w", err)
	}
	defer rows.Close()

	known := make(map[string]bool, len(urls))
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return nil, fmt.Errorf("scan known url: %w", err)
		}
		known[u] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate known urls: %w", err)
	}
	return known, nil
}

// ListVisible returns publicly listable records, newest first.
func (s *Store) ListVisible(ctx context.Context, limit, offset int) ([]catalog.StoreRecord, error) {
	query := `SELECT ` + storeColumns + ` FROM stores
		WHERE ` + visibleWhere + `
		ORDER BY date_added DESC
		LIMIT $1 OFFSET $2;`
	return s.list(ctx, query, limit, offset)
}

// ListAll returns every record regardless of visibility; admin use only.
func (s *Store) ListAll(ctx context.Context, limit, offset int) ([]catalog.StoreRecord, error) {
	query := `SELECT ` + storeColumns + ` FROM stores
		ORDER BY date_added DESC
		LIMIT $1 OFFSET $2;`
	return s.list(ctx, query, limit, offset)
}

// ListForRecheck returns unblocked records last scraped before olderThan,
// oldest first.
func (s *Store) ListForRecheck(ctx context.Context, olderThan time.Time, limit int) ([]catalog.StoreRecord, error) {
	query := `SELECT ` + storeColumns + ` FROM stores
		WHERE last_scraped < $1 AND store_status <> 'blocked'
		ORDER BY last_scraped ASC
		LIMIT $2;`
	return s.list(ctx, query, olderThan, limit)
}

func (s *Store) list(ctx context.Context, query string, args ...any) ([]catalog.StoreRecord, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list stores: %w", err)
	}
	defer rows.Close()

	var records []catalog.StoreRecord
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan store: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate stores: %w", err)
	}
	return records, nil
}

func scanRecord(row pgx.Row) (catalog.StoreRecord, error) {
	var (
		record    catalog.StoreRecord
		themeTier string
		scores    []byte
		primary   string
		shopify   string
		health    string
		status    string
	)
	err := row.Scan(
		&record.CanonicalURL,
		&record.Name,
		&record.CountryLabel,
		&record.Theme.Name,
		&themeTier,
		&record.Tags,
		&scores,
		&primary,
		&record.BusinessModel.Confidence,
		&record.HasAdvertising,
		&shopify,
		&health,
		&status,
		&record.Verified,
		&record.FailedProbes,
		&record.FailedVerifications,
		&record.HealthProbed,
		&record.Source,
		&record.DateAdded,
		&record.LastScraped,
	)
	if err != nil {
		return catalog.StoreRecord{}, err
	}
	if len(scores) > 0 {
		if err := json.Unmarshal(scores, &record.BusinessModel.Scores); err != nil {
			return catalog.StoreRecord{}, fmt.Errorf("unmarshal business scores: %w", err)
		}
	}
	record.Theme.Tier = catalog.ThemeTier(themeTier)
	record.BusinessModel.Primary = catalog.BusinessModelLabel(primary)
	record.ShopifyStatus = catalog.ShopifyStatus(shopify)
	record.HealthStatus = catalog.HealthStatus(health)
	record.StoreStatus = catalog.StoreStatus(status)
	return record, nil
}
