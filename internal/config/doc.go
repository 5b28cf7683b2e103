// Package config loads the dashboard configuration.
//
// Values come from three layers, later layers overriding earlier ones:
//
//	1. Default()
//	2. config.yaml or configs/config.yaml, whichever is found first
//	3. Environment variables prefixed with SPA_
//
// Nested sections map to underscored names:
//
//	SPA_SERVER_PORT=9090
//	SPA_UPLOAD_MAX_BYTES=10485760
//	SPA_SESSION_TTL=1h
//	SPA_SECURITY_RATE_LIMIT_RPS=5
//	SPA_TELEMETRY_TRACE_EXPORTER=stdout
//
// Load validates the result; an invalid port, non-positive limit or unknown
// exporter is an error.
package config
