// Package api hosts the HTTP server, middleware, and REST handlers for
// catalog access. Notable routes:
//   - GET /healthz / readyz for Kubernetes probes.
//   - GET /metrics for Prometheus scraping.
//   - POST /v1/candidates for batch candidate submission.
//   - GET /v1/stores for the public (visible) listing.
//   - GET /v1/stores/all and the block/unblock routes for operators.
package api
