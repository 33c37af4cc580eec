package catalog

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func TestNewRecordDefaults(t *testing.T) {
	t.Parallel()

	r := NewRecord("https://store-x.example", "reddit", t0)
	require.Equal(t, StorePending, r.StoreStatus)
	require.Equal(t, ShopifyUnverified, r.ShopifyStatus)
	require.Equal(t, HealthUnknown, r.HealthStatus)
	require.False(t, r.Verified)
	require.Equal(t, t0, r.DateAdded)
	require.False(t, r.Visible(), "unprobed pending record must stay hidden")
}

func TestApplyVerification_ConfirmedIsSticky(t *testing.T) {
	t.Parallel()

	r := NewRecord("https://store-x.example", "google", t0)
	r.ApplyVerification(ShopifyConfirmed, 3, t0)
	require.Equal(t, ShopifyConfirmed, r.ShopifyStatus)
	require.True(t, r.Verified)

	// A single failed re-check must not downgrade the tier.
	r.ApplyVerification(ShopifyUnlikely, 3, t0.Add(time.Hour))
	require.Equal(t, ShopifyConfirmed, r.ShopifyStatus)
	require.Equal(t, 1, r.FailedVerifications)
}

func TestApplyVerification_RepeatedMissesParkInactive(t *testing.T) {
	t.Parallel()

	r := NewRecord("https://store-x.example", "google", t0)
	r.ApplyVerification(ShopifyConfirmed, 3, t0)
	r.ApplyHealthProbe(HealthHealthy, 3, t0)
	require.Equal(t, StoreActive, r.StoreStatus)

	for i := 0; i < 3; i++ {
		r.ApplyVerification(ShopifyUnlikely, 3, t0.Add(time.Duration(i)*time.Hour))
	}
	require.Equal(t, StoreInactiveShopify, r.StoreStatus)
	require.False(t, r.Visible())

	// A later confirmed hit revives the record.
	r.ApplyVerification(ShopifyConfirmed, 3, t0.Add(4*time.Hour))
	require.Equal(t, StoreActive, r.StoreStatus)
	require.True(t, r.Visible())
}

func TestApplyVerification_ProbableUpgrades(t *testing.T) {
	t.Parallel()

	r := NewRecord("https://store-x.example", "twitter", t0)
	r.ApplyVerification(ShopifyProbable, 3, t0)
	require.Equal(t, ShopifyProbable, r.ShopifyStatus)
	require.False(t, r.Verified)

	r.ApplyVerification(ShopifyConfirmed, 3, t0.Add(time.Hour))
	require.Equal(t, ShopifyConfirmed, r.ShopifyStatus)
	require.True(t, r.Verified)
}

func TestApplyHealthProbe_PendingToActiveNeedsVerification(t *testing.T) {
	t.Parallel()

	r := NewRecord("https://store-x.example", "reddit", t0)

	// Probe before verification: record stays pending (but becomes visible).
	r.ApplyHealthProbe(HealthHealthy, 3, t0)
	require.Equal(t, StorePending, r.StoreStatus)
	require.True(t, r.Visible())

	r.ApplyVerification(ShopifyConfirmed, 3, t0.Add(time.Minute))
	r.ApplyHealthProbe(HealthHealthy, 3, t0.Add(2*time.Minute))
	require.Equal(t, StoreActive, r.StoreStatus)
	require.True(t, r.Visible())
}

func TestApplyHealthProbe_DeadOnlyAfterConsecutiveFailures(t *testing.T) {
	t.Parallel()

	r := NewRecord("https://store-x.example", "reddit", t0)
	r.ApplyVerification(ShopifyConfirmed, 3, t0)
	r.ApplyHealthProbe(HealthHealthy, 3, t0)
	require.Equal(t, StoreActive, r.StoreStatus)

	r.ApplyHealthProbe(HealthPossiblyInactive, 3, t0.Add(1*time.Hour))
	r.ApplyHealthProbe(HealthPossiblyInactive, 3, t0.Add(2*time.Hour))
	require.Equal(t, StoreActive, r.StoreStatus, "two failures must not kill the store")

	// A success in between resets the streak.
	r.ApplyHealthProbe(HealthHealthy, 3, t0.Add(3*time.Hour))
	require.Zero(t, r.FailedProbes)

	r.ApplyHealthProbe(HealthNonexistent, 3, t0.Add(4*time.Hour))
	r.ApplyHealthProbe(HealthNonexistent, 3, t0.Add(5*time.Hour))
	r.ApplyHealthProbe(HealthNonexistent, 3, t0.Add(6*time.Hour))
	require.Equal(t, StoreDead, r.StoreStatus)
	require.False(t, r.Visible())

	// Answering again revives it.
	r.ApplyHealthProbe(HealthHealthy, 3, t0.Add(7*time.Hour))
	require.Equal(t, StoreActive, r.StoreStatus)
}

func TestApplyHealthProbe_PasswordProtectedHidesButNotDead(t *testing.T) {
	t.Parallel()

	r := NewRecord("https://store-x.example", "reddit", t0)
	r.ApplyVerification(ShopifyConfirmed, 3, t0)
	r.ApplyHealthProbe(HealthHealthy, 3, t0)

	r.ApplyHealthProbe(HealthPasswordProtected, 3, t0.Add(time.Hour))
	require.Equal(t, StoreActive, r.StoreStatus)
	require.False(t, r.Visible())
	require.Zero(t, r.FailedProbes)

	// Once the password comes off, the store is shown again.
	r.ApplyHealthProbe(HealthHealthy, 3, t0.Add(2*time.Hour))
	require.True(t, r.Visible())
}

func TestBlockAndUnblock(t *testing.T) {
	t.Parallel()

	r := NewRecord("https://store-x.example", "reddit", t0)
	r.ApplyVerification(ShopifyConfirmed, 3, t0)
	r.ApplyHealthProbe(HealthHealthy, 3, t0)
	require.True(t, r.Visible())

	r.Block(t0.Add(time.Hour))
	require.Equal(t, StoreBlocked, r.StoreStatus)
	require.False(t, r.Visible())

	// Probes never resurrect a blocked record.
	r.ApplyHealthProbe(HealthHealthy, 3, t0.Add(2*time.Hour))
	require.Equal(t, StoreBlocked, r.StoreStatus)

	r.Unblock(t0.Add(3*time.Hour))
	require.Equal(t, StorePending, r.StoreStatus)
}

func TestVisible_Matrix(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		mutate  func(*StoreRecord)
		visible bool
	}{
		{
			name:    "dead is never visible",
			mutate:  func(r *StoreRecord) { r.StoreStatus = StoreDead; r.Verified = true; r.HealthStatus = HealthHealthy },
			visible: false,
		},
		{
			name:    "blocked is never visible",
			mutate:  func(r *StoreRecord) { r.StoreStatus = StoreBlocked; r.Verified = true },
			visible: false,
		},
		{
			name: "pending with a probe is visible even unverified",
			mutate: func(r *StoreRecord) {
				r.StoreStatus = StorePending
				r.ShopifyStatus = ShopifyUnverified
				r.HealthProbed = true
				r.HealthStatus = HealthPossiblyInactive
			},
			visible: true,
		},
		{
			name:    "pending without a probe is hidden",
			mutate:  func(r *StoreRecord) { r.StoreStatus = StorePending },
			visible: false,
		},
		{
			name: "active and strictly verified",
			mutate: func(r *StoreRecord) {
				r.StoreStatus = StoreActive
				r.Verified = true
				r.HealthStatus = HealthHealthy
			},
			visible: true,
		},
		{
			name: "active probable without strict flag (legacy rule)",
			mutate: func(r *StoreRecord) {
				r.StoreStatus = StoreActive
				r.ShopifyStatus = ShopifyProbable
				r.HealthStatus = HealthHealthy
			},
			visible: true,
		},
		{
			name: "active but unlikely and unverified",
			mutate: func(r *StoreRecord) {
				r.StoreStatus = StoreActive
				r.ShopifyStatus = ShopifyUnlikely
			},
			visible: false,
		},
		{
			name: "active verified but nonexistent health",
			mutate: func(r *StoreRecord) {
				r.StoreStatus = StoreActive
				r.Verified = true
				r.HealthStatus = HealthNonexistent
			},
			visible: false,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			r := NewRecord("https://store-x.example", "test", t0)
			tc.mutate(&r)
			require.Equal(t, tc.visible, r.Visible())
		})
	}
}
