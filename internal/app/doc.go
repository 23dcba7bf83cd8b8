// Package app wires the merge service together and runs it.
//
// # Initialization Flow
//
//  1. Load configuration (defaults, config.yaml, .env, MEDIAMERGE_* variables)
//  2. Initialize logging and OpenTelemetry
//  3. Create the session store, progress hub and processing pipeline
//  4. Build the merge and health services
//  5. Mount handlers behind the middleware chain
//
// # Run Loop
//
// Serve runs the HTTP server, the session sweeper and the progress hub in one
// errgroup. Cancelling the context (SIGINT or SIGTERM under Run) shuts the
// server down within the configured timeout and flushes telemetry.
//
// Initialization errors are returned to the caller; the package never calls
// os.Exit.
package app
