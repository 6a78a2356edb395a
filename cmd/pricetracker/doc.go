// Package main hosts the price tracker entrypoint.
//
// Architecture overview:
//   - HTTP API: internal/api.Server serves the search form at /, tracks a product URL on POST /search, and exposes
//     /healthz, /readyz and /metrics. Every /search answer is HTTP 200 with a success flag in the JSON body.
//   - Tracking pipeline: internal/tracker.Service fetches the page with the Colly-based fetcher (browser headers,
//     fixed timeout, any status accepted), extracts price and title with internal/extract, records an observation
//     and returns the full history for the exact URL.
//   - Persistence: internal/storage.Open picks the observation store from database.url. SQLite (pure Go) is the
//     default; postgres:// URLs use a pgx pool; memory:// keeps rows in process.
//   - Configuration & plumbing: Viper populates config from env/files; zap provides structured logging; Prometheus
//     metrics are exported via the metrics middleware and /metrics handler.
//
// Quick checklist:
//   - Configure env vars: PRICETRACKER_SERVER_PORT or PORT, PRICETRACKER_DATABASE_URL or DATABASE_URL,
//     PRICETRACKER_FETCH_TIMEOUT_SECONDS, PRICETRACKER_LOGGING_LEVEL.
//   - Run locally: go run ./cmd/pricetracker serve --config config.yaml (or rely solely on env overrides).
//   - One-off lookup: go run ./cmd/pricetracker track https://www.example.com/dp/B000000000
package main
