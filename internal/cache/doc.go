// Package cache provides catalog.Cache implementations used to remember
// recent verification verdicts so that re-submitted candidates skip the
// fingerprint probes within the TTL window.
package cache
