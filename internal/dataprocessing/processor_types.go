package dataprocessing

import (
	"context"

	"mediamerge/pkg/contracts/domain"
)

// Recorder receives pipeline measurements
type Recorder interface {
	TableProcessed(ctx context.Context, file string, rows int)
	TableFailed(ctx context.Context, file string, kind domain.FailureKind)
	BatchCompleted(ctx context.Context, result *domain.BatchResult)
}

// ProgressFunc is called as each table of a batch is handled
type ProgressFunc func(domain.ProgressUpdate)

// ProcessingOptions configures processing behavior
type ProcessingOptions struct {
	// DistinguishNoChannel marks tables without a Channel column as
	// "No Channel" instead of "No Benchmark" when a benchmark is loaded.
	DistinguishNoChannel bool
}

// DefaultOptions returns default processing options
func DefaultOptions() ProcessingOptions {
	return ProcessingOptions{
		DistinguishNoChannel: false,
	}
}

type noopRecorder struct{}

func (noopRecorder) TableProcessed(context.Context, string, int) {}
func (noopRecorder) TableFailed(context.Context, string, domain.FailureKind) {}
func (noopRecorder) BatchCompleted(context.Context, *domain.BatchResult) {}
