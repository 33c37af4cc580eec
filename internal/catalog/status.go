package catalog

import "time"

// ApplyVerification folds a verifier verdict into the record. A confirmed
// tier is sticky: one failed re-check never downgrades it, so transient
// network errors cannot flap the status. Repeated fingerprint misses on a
// previously confirmed store are counted and, past inactiveAfter, park the
// record in inactive_shopify.
func (r *StoreRecord) ApplyVerification(status ShopifyStatus, inactiveAfter int, now time.Time) {
	r.LastScraped = now

	if status == ShopifyConfirmed {
		r.ShopifyStatus = ShopifyConfirmed
		r.Verified = true
		r.FailedVerifications = 0
		if r.StoreStatus == StoreInactiveShopify {
			r.StoreStatus = StoreActive
		}
		return
	}

	if r.ShopifyStatus == ShopifyConfirmed {
		// Sticky tier: count the miss instead of downgrading.
		r.FailedVerifications++
		if inactiveAfter > 0 && r.FailedVerifications >= inactiveAfter && r.StoreStatus == StoreActive {
			r.StoreStatus = StoreInactiveShopify
		}
		return
	}

	// probable may still be upgraded later; unlikely overwrites unverified.
	r.ShopifyStatus = status
}

// ApplyHealthProbe folds a reachability probe into the record. deadAfter is
// the number of consecutive failed probes that moves an active record to
// dead; a single failure never does.
func (r *StoreRecord) ApplyHealthProbe(health HealthStatus, deadAfter int, now time.Time) {
	r.HealthProbed = true
	r.HealthStatus = health
	r.LastScraped = now

	switch health {
	case HealthHealthy:
		r.FailedProbes = 0
		if r.StoreStatus == StorePending && r.ShopifyStatus != ShopifyUnverified {
			r.StoreStatus = StoreActive
		}
		if r.StoreStatus == StoreDead {
			// A dead store that answers again gets another chance.
			r.StoreStatus = StoreActive
		}
	case HealthPasswordProtected:
		// The store exists behind a password prompt. Hidden by the
		// visibility predicate, but not a step toward dead.
		r.FailedProbes = 0
	case HealthNonexistent, HealthPossiblyInactive:
		r.FailedProbes++
		if deadAfter > 0 && r.FailedProbes >= deadAfter && r.StoreStatus == StoreActive {
			r.StoreStatus = StoreDead
		}
	}
}

// Block is the administrative override: reachable from any state and never
// reversed automatically.
func (r *StoreRecord) Block(now time.Time) {
	r.StoreStatus = StoreBlocked
	r.LastScraped = now
}

// Unblock returns a blocked record to pending so it has to re-earn active
// through verification and a fresh probe.
func (r *StoreRecord) Unblock(now time.Time) {
	if r.StoreStatus != StoreBlocked {
		return
	}
	r.StoreStatus = StorePending
	r.FailedProbes = 0
	r.LastScraped = now
}

// Visible is the single predicate deciding whether a record is exposed to
// end users. Every listing, search, and export path must go through it (or
// the SQL clause documented to mirror it); no call site may re-derive the
// rules.
//
// Pending records are the one deliberate exception: a newly discovered
// store is shown as soon as a health probe has run, even when its health
// would otherwise exclude it.
func (r StoreRecord) Visible() bool {
	if r.StoreStatus == StorePending {
		return r.HealthProbed
	}

	switch r.StoreStatus {
	case StoreDead, StoreBlocked, StoreInactiveShopify:
		return false
	}

	if r.HealthStatus == HealthNonexistent || r.HealthStatus == HealthPasswordProtected {
		return false
	}

	if r.StoreStatus != StoreActive {
		return false
	}
	if r.Verified {
		return true
	}
	return r.ShopifyStatus == ShopifyConfirmed || r.ShopifyStatus == ShopifyProbable
}
