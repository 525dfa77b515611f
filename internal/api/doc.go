// Package api hosts the HTTP server, middleware, and REST handlers that expose
// filmbro lookups. Notable routes:
//   - GET /healthz / readyz for Kubernetes probes.
//   - GET /metrics for Prometheus scraping.
//   - GET /v1/films/{title}, with /posters and /backdrops image sets.
//   - GET /v1/profiles/{username} and /v1/profiles/{username}/diary.
//   - GET /v1/roulette for a random film.
//   - GET /v1/cache for per-kind cache sizes.
package api
