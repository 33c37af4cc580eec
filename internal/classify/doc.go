// Package classify implements the four signal classifiers that run against
// a single fetched storefront page: business-model scoring, country
// detection, theme detection, and ad-network detection.
//
// All four share the same contract: they operate on one Page fetched once
// and shared, they are deterministic for identical input, and they never
// fail — any internal problem degrades the result to an explicit unknown
// with minimum confidence instead of aborting the other signals.
package classify
