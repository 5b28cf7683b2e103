// Package http implements the HTTP handlers of the Student Pulse server.
// Handlers stay thin: they parse the request, call the dashboard service
// and format the response.
//
// # Surfaces
//
//	DashboardHandler  server-rendered HTML pages (upload form, dashboard,
//	                  extracted PDF text, file download)
//	SessionHandler    JSON API under /api/sessions
//	HealthHandler     health, readiness, liveness and version
//
// # Error Handling
//
// JSON endpoints answer every failure with an RFC 7807 problem document
// produced by errors.ErrorHandler:
//
//	{
//	    "type": "/errors/parsing",
//	    "title": "File Could Not Be Parsed",
//	    "status": 422,
//	    "detail": "CSV file could not be parsed",
//	    "instance": "/api/sessions",
//	    "trace_id": "..."
//	}
//
// HTML endpoints map the same problem to a status code and re-render the
// upload page with its detail as the message.
//
// # Testing
//
// Handlers are tested with httptest against a testify mock of the
// dashboard service.
package http
