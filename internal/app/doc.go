// Package app wires the Student Pulse server together and manages its
// lifecycle.
//
// # Initialization Flow
//
//	1. Initialize OpenTelemetry and the dashboard metrics
//	2. Create the session store and the processing pipeline
//	3. Create the dashboard and health services
//	4. Set up handlers and middleware on a chi router
//	5. Configure the HTTP server
//
// Configuration and the logger are created by the caller, usually the
// serve command.
//
// # Graceful Shutdown
//
// Run handles SIGINT and SIGTERM: active requests are drained, the session
// janitor stops and telemetry is flushed. Initialization errors are
// returned; the package never calls os.Exit.
package app
