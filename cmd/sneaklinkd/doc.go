// Package main hosts the storefront catalog service entrypoint.
//
// Architecture overview:
//   - HTTP API: internal/api.Server exposes health, metrics, candidate
//     submission, and store listing/administration endpoints. Submitted URLs
//     are validated with the canonicalizer and enqueued for asynchronous
//     processing; nothing is persisted on the request path.
//   - Queue & workers: candidates flow through a bounded in-memory queue
//     sized by config.Pipeline.QueueDepth and are fanned out to a fixed
//     worker pool sized by config.Pipeline.Workers. Context cancellation
//     stops workers cleanly on shutdown.
//   - Ingest pipeline: each worker canonicalizes the URL, drops known hosts
//     via the deduplicator, runs the platform fingerprint verification
//     (with a cache in front of it), probes reachability, and classifies
//     the rendered page (name, country, theme, business model, ad signals)
//     before persisting the record.
//   - Maintenance: a background rechecker revisits stale records on an
//     interval, re-probing every store and re-verifying previously confirmed
//     ones so parked or migrated storefronts are eventually retired.
//   - Persistence & fanout: records live in Postgres (or the in-memory
//     store for local runs), confirmed-store page bodies are archived to the
//     configured snapshot store (GCS/local/noop), and a compact Pub/Sub
//     event is published when a store is first confirmed.
//   - Configuration & plumbing: Viper populates config from env/files; zap
//     provides structured logging; Prometheus metrics are exported via the
//     metrics middleware and the /metrics handler.
//
// Operational notes:
//   - Concurrency model: bounded queue + fixed worker pool; shutdown is
//     coordinated via context cancellation propagated from main through the
//     queue to workers and the rechecker.
//   - Visibility: every listing goes through the single visibility
//     predicate on the record (or the SQL clause mirroring it); admin
//     endpoints can bypass it behind the API key.
//   - Observability: zap logs carry canonical URLs at key transitions;
//     Prometheus counters/histograms track API and pipeline activity.
//
// Quick checklist:
//   - Configure env vars with the CATALOG_ prefix: CATALOG_SERVER_PORT,
//     CATALOG_PIPELINE_WORKERS, CATALOG_DB_PROVIDER/CATALOG_DB_DSN,
//     CATALOG_CACHE_PROVIDER/CATALOG_CACHE_ADDR, CATALOG_SNAPSHOT_PROVIDER,
//     and CATALOG_PUBSUB_* when fanout is required.
//   - Run locally: go run ./cmd/sneaklinkd -config config.yaml (or rely
//     solely on env overrides; the defaults run fully in memory).
//   - The process reacts to SIGTERM for graceful drain: the HTTP server
//     stops accepting work, the queue closes, and workers finish in-flight
//     candidates before exit.
package main
