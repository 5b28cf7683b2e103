// Package services implements the business logic between the HTTP
// handlers and the processing stages.
//
// DashboardService owns the upload flow: it validates and loads a file,
// keeps tabular uploads in a SessionStore, and re-runs the cleaning,
// summary, chart and export stages on demand. Every run starts from the
// dataset as uploaded, so toggling options never compounds.
//
// HealthService backs the health, readiness, liveness and version
// endpoints.
package services
