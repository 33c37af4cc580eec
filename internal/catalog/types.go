package catalog

import (
	"time"
)

// ShopifyStatus is the platform-verification tier produced by the verifier.
type ShopifyStatus string

// Verification tiers, from no signal to a hard fingerprint match.
const (
	ShopifyUnverified ShopifyStatus = "unverified"
	ShopifyConfirmed  ShopifyStatus = "confirmed"
	ShopifyProbable   ShopifyStatus = "probable"
	ShopifyUnlikely   ShopifyStatus = "unlikely"
)

// HealthStatus is the reachability classification from the latest probe.
// HealthUnknown means no probe has run yet.
type HealthStatus string

// Health probe outcomes.
const (
	HealthUnknown           HealthStatus = ""
	HealthHealthy           HealthStatus = "healthy"
	HealthPossiblyInactive  HealthStatus = "possibly_inactive"
	HealthNonexistent       HealthStatus = "nonexistent"
	HealthPasswordProtected HealthStatus = "password_protected"
)

// StoreStatus is the operational lifecycle state of a catalog record.
type StoreStatus string

// Store lifecycle states.
const (
	StorePending         StoreStatus = "pending"
	StoreActive          StoreStatus = "active"
	StoreDead            StoreStatus = "dead"
	StoreBlocked         StoreStatus = "blocked"
	StoreInactiveShopify StoreStatus = "inactive_shopify"
)

// ThemeTier distinguishes free Shopify themes from paid ones.
type ThemeTier string

// Theme tiers.
const (
	ThemeTierUnknown ThemeTier = ""
	ThemeTierFree    ThemeTier = "free"
	ThemeTierPaid    ThemeTier = "paid"
)

// Theme identifies the storefront theme, if detected.
type Theme struct {
	Name string    `json:"name"`
	Tier ThemeTier `json:"tier"`
}

// BusinessModelLabel names one of the scored business-model categories.
type BusinessModelLabel string

// Business-model labels scored by the classifier.
const (
	LabelPrintOnDemand    BusinessModelLabel = "print_on_demand"
	LabelDropshipping     BusinessModelLabel = "dropshipping"
	LabelBrandedEcommerce BusinessModelLabel = "branded_ecommerce"
	LabelMarketplace      BusinessModelLabel = "marketplace"
)

// Labels returns every scored business-model label in a fixed order.
func Labels() []BusinessModelLabel {
	return []BusinessModelLabel{
		LabelPrintOnDemand,
		LabelDropshipping,
		LabelBrandedEcommerce,
		LabelMarketplace,
	}
}

// BusinessModel holds per-label scores in [0,1], the winning label (empty
// when no label clears the primary threshold), and the winner's score.
type BusinessModel struct {
	Scores     map[BusinessModelLabel]float64 `json:"scores"`
	Primary    BusinessModelLabel             `json:"primary,omitempty"`
	Confidence float64                        `json:"confidence"`
}

// Candidate is an ephemeral discovery emitted by a source adapter. It is
// consumed once by the pipeline and never persisted directly.
type Candidate struct {
	RawURL string `json:"url"`
	Source string `json:"source"`
}

// StoreRecord is the durable unit of the catalog, uniquely keyed by
// CanonicalURL. DateAdded is immutable after the first insert; LastScraped
// moves forward on every verification or probe.
type StoreRecord struct {
	CanonicalURL   string        `json:"canonical_url"`
	Name           string        `json:"name,omitempty"`
	CountryLabel   string        `json:"country_label,omitempty"`
	Theme          Theme         `json:"theme"`
	Tags           []string      `json:"tags,omitempty"`
	BusinessModel  BusinessModel `json:"business_model"`
	HasAdvertising bool          `json:"has_advertising"`

	ShopifyStatus ShopifyStatus `json:"shopify_status"`
	HealthStatus  HealthStatus  `json:"health_status,omitempty"`
	StoreStatus   StoreStatus   `json:"store_status"`
	Verified      bool          `json:"verified"`

	// Consecutive failure counters feeding the dead / inactive_shopify
	// transitions. Reset on the next success.
	FailedProbes        int `json:"-"`
	FailedVerifications int `json:"-"`

	// HealthProbed records that at least one reachability probe has run,
	// which is what makes a pending record visible.
	HealthProbed bool `json:"-"`

	Source      string    `json:"source"`
	DateAdded   time.Time `json:"date_added"`
	LastScraped time.Time `json:"last_scraped"`
}

// NewRecord builds the initial record created after canonicalization and
// dedup, before any verification has run.
func NewRecord(canonicalURL, source string, now time.Time) StoreRecord {
	return StoreRecord{
		CanonicalURL:  canonicalURL,
		ShopifyStatus: ShopifyUnverified,
		HealthStatus:  HealthUnknown,
		StoreStatus:   StorePending,
		Source:        source,
		DateAdded:     now,
		LastScraped:   now,
	}
}
