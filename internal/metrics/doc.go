// Package metrics provides Prometheus metrics for monitoring.
//
// Key metrics:
//   - Tick and price-update throughput, dropped updates
//   - Broadcast fan-out sends and failures
//   - Connected client count
//   - Alerts fired
//
// Collectors live on a package-owned registry served by Handler, so
// tests that construct components do not pollute the global default
// registry.
package metrics
