package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/require"

	"github.com/kelarsco/sneaklink-sub001/internal/catalog"
)

var recordColumns = []string{
	"canonical_url", "name", "country_label", "theme_name", "theme_tier", "tags",
	"business_scores", "business_primary", "business_confidence", "has_advertising",
	"shopify_status", "health_status", "store_status", "verified",
	"failed_probes", "failed_verifications", "health_probed",
	"source", "date_added", "last_scraped",
}

func sampleRecord(now time.Time) catalog.StoreRecord {
	record := catalog.NewRecord("https://example.com", "sitemap", now)
	record.Name = "Example Store"
	record.CountryLabel = "United States"
	record.Theme = catalog.Theme{Name: "Dawn", Tier: catalog.ThemeTierFree}
	record.Tags = []string{"apparel"}
	record.BusinessModel = catalog.BusinessModel{
		Scores:     map[catalog.BusinessModelLabel]float64{catalog.LabelPrintOnDemand: 0.7},
		Primary:    catalog.LabelPrintOnDemand,
		Confidence: 0.7,
	}
	record.ShopifyStatus = catalog.ShopifyConfirmed
	record.HealthStatus = catalog.HealthHealthy
	record.StoreStatus = catalog.StoreActive
	record.Verified = true
	record.HealthProbed = true
	return record
}

func recordRow(record catalog.StoreRecord) *pgxmock.Rows {
	return pgxmock.NewRows(recordColumns).AddRow(
		record.CanonicalURL,
		record.Name,
		record.CountryLabel,
		record.Theme.Name,
		string(record.Theme.Tier),
		record.Tags,
		[]byte(`{"print_on_demand":0.7}`),
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
}

func TestUpsertInsertsRow(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewWithPool(mock)
	require.NoError(t, err)

	now := time.Unix(1_700_000_000, 0).UTC()
	record := sampleRecord(now)

	mock.ExpectExec("INSERT INTO stores").
		WithArgs(
			record.CanonicalURL,
			record.Name,
			record.CountryLabel,
			record.Theme.Name,
			string(record.Theme.Tier),
			record.Tags,
			[]byte(`{"print_on_demand":0.7}`),
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
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, store.Upsert(context.Background(), record))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertRequiresCanonicalURL(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewWithPool(mock)
	require.NoError(t, err)

	err = store.Upsert(context.Background(), catalog.StoreRecord{})
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetReturnsRecord(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewWithPool(mock)
	require.NoError(t, err)

	now := time.Unix(1_700_000_000, 0).UTC()
	want := sampleRecord(now)

	mock.ExpectQuery("SELECT (.+) FROM stores WHERE canonical_url").
		WithArgs(want.CanonicalURL).
		WillReturnRows(recordRow(want))

	got, err := store.Get(context.Background(), want.CanonicalURL)
	require.NoError(t, err)
	require.Equal(t, want, got)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetNotFound(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewWithPool(mock)
	require.NoError(t, err)

	mock.ExpectQuery("SELECT (.+) FROM stores WHERE canonical_url").
		WithArgs("https://missing.example").
		WillReturnRows(pgxmock.NewRows(recordColumns))

	_, err = store.Get(context.Background(), "https://missing.example")
	require.ErrorIs(t, err, catalog.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFilterKnown(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewWithPool(mock)
	require.NoError(t, err)

	urls := []string{"https://a.example", "https://b.example"}
	mock.ExpectQuery("SELECT canonical_url FROM stores WHERE canonical_url = ANY").
		WithArgs(urls).
		WillReturnRows(pgxmock.NewRows([]string{"canonical_url"}).AddRow("https://a.example"))

	known, err := store.FilterKnown(context.Background(), urls)
	require.NoError(t, err)
	require.Equal(t, map[string]bool{"https://a.example": true}, known)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFilterKnownEmptyInputSkipsQuery(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewWithPool(mock)
	require.NoError(t, err)

	known, err := store.FilterKnown(context.Background(), nil)
	require.NoError(t, err)
	require.Empty(t, known)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListVisible(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewWithPool(mock)
	require.NoError(t, err)

	now := time.Unix(1_700_000_000, 0).UTC()
	want := sampleRecord(now)

	mock.ExpectQuery("SELECT (.+) FROM stores").
		WithArgs(50, 0).
		WillReturnRows(recordRow(want))

	records, err := store.ListVisible(context.Background(), 50, 0)
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, want, records[0])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListForRecheck(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewWithPool(mock)
	require.NoError(t, err)

	now := time.Unix(1_700_000_000, 0).UTC()
	cutoff := now.Add(-24 * time.Hour)
	want := sampleRecord(now)

	mock.ExpectQuery("SELECT (.+) FROM stores").
		WithArgs(cutoff, 100).
		WillReturnRows(recordRow(want))

	records, err := store.ListForRecheck(context.Background(), cutoff, 100)
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.NoError(t, mock.ExpectationsWereMet())
}
