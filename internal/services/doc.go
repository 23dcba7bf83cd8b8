// Package services holds the application logic between the HTTP handlers
// and the merge pipeline.
//
// MergeService owns the session workflow: open a session, optionally load
// a benchmark table, process batches of uploads, and export the merged
// dataset. Progress is published to the session's WebSocket subscribers
// while a batch runs. HealthService backs the health, readiness and
// version endpoints.
//
// Services take their collaborators as interfaces so handlers and tests
// can substitute them:
//
//	svc := services.NewMergeService(store, pipeline, hub, cfg.Export, logger)
//	info := svc.CreateSession(ctx)
//	report, err := svc.ProcessBatch(ctx, info.ID, uploads)
//
// Errors are returned as internal/errors values (APIError or AppError) so
// the transport layer can render them as RFC 7807 problems unchanged.
package services
