// Package catalog defines the core types of the store catalog: candidate
// URLs, the durable StoreRecord, the status state machine, and the
// interfaces implemented by storage, fetching, and notification subsystems.
package catalog
