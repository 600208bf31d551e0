// Package api hosts the status server that runs alongside a crawl. Routes:
//   - GET /healthz and /readyz for probes. Readiness turns 503 once the
//     session has drained.
//   - GET /metrics for Prometheus scraping.
//   - GET /v1/session for a JSON snapshot of frontier and registry counts.
package api
