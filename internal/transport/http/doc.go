// Package http implements the HTTP handlers of the merge service.
//
// Handlers stay thin: they parse and validate the request, call a service
// and render the result with go-chi/render. Every error goes through
// errors.ErrorHandler so clients always receive an RFC 7807 problem
// document.
//
// Routes, relative to /api:
//
//	POST   /sessions
//	DELETE /sessions/{sessionID}
//	GET    /sessions/{sessionID}/benchmark
//	PUT    /sessions/{sessionID}/benchmark        multipart "file"
//	DELETE /sessions/{sessionID}/benchmark
//	POST   /sessions/{sessionID}/batches          multipart "files"
//	GET    /sessions/{sessionID}/batches/latest
//	GET    /sessions/{sessionID}/dataset?format=csv|xlsx&bom=true
//	GET    /sessions/{sessionID}/events           WebSocket
//	GET    /health, /health/live, /health/ready, /version
package http
