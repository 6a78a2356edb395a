// Package api hosts the HTTP server, middleware, and handlers for the price
// tracker. Notable routes:
//   - GET / serves the search form.
//   - POST /search tracks one product URL and returns its price history.
//   - GET /healthz / readyz for Kubernetes probes.
//   - GET /metrics for Prometheus scraping.
package api
