// Package http provides the HTTP REST API implementation.
//
// The HTTP server exposes endpoints for:
//   - Order submission and lookup
//   - Paginated order and failure listings
//   - Worker pool status and health checks
//   - Prometheus metrics
package http
