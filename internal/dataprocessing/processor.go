package dataprocessing

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	apierrors "mediamerge/internal/errors"
	"mediamerge/pkg/contracts/domain"
)

// Pipeline runs each upload of a batch through parse, normalize, metric
// derivation and benchmark comparison, then merges the results. Tables are
// processed one at a time in upload order; a failing table is recorded and
// skipped without affecting the others.
type Pipeline struct {
	parser     *Parser
	normalizer *Normalizer
	calculator *Calculator
	joiner     *Joiner
	merger     *Merger
	loader     *BenchmarkLoader
	recorder   Recorder
	tracer     trace.Tracer
	logger     *slog.Logger
}

// PipelineOption customizes a Pipeline
type PipelineOption func(*Pipeline)

// WithRecorder sets the metrics recorder
func WithRecorder(r Recorder) PipelineOption {
	return func(p *Pipeline) {
		if r != nil {
			p.recorder = r
		}
	}
}

// WithTracer sets the tracer used for batch and table spans
func WithTracer(t trace.Tracer) PipelineOption {
	return func(p *Pipeline) {
		if t != nil {
			p.tracer = t
		}
	}
}

// NewPipeline creates a pipeline
func NewPipeline(opts ProcessingOptions, logger *slog.Logger, options ...PipelineOption) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Pipeline{
		parser:     NewParser(logger),
		normalizer: NewNormalizer(logger),
		calculator: NewCalculator(),
		joiner:     NewJoiner(opts.DistinguishNoChannel),
		merger:     NewMerger(),
		loader:     NewBenchmarkLoader(logger),
		recorder:   noopRecorder{},
		tracer:     otel.Tracer("mediamerge/dataprocessing"),
		logger:     logger.With(slog.String("component", "pipeline")),
	}
	for _, opt := range options {
		opt(p)
	}
	return p
}

// LoadBenchmark parses a benchmark upload and validates its columns
func (p *Pipeline) LoadBenchmark(ctx context.Context, upload domain.Upload) (*domain.BenchmarkTable, error) {
	_, span := p.tracer.Start(ctx, "pipeline.benchmark", trace.WithAttributes(attribute.String("benchmark.file", uploadName(upload))))
	defer span.End()

	raw, err := p.parser.Parse(upload)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	raw.Name = uploadName(upload)

	table, err := p.loader.Load(raw)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.Int("benchmark.rows", table.Len()))
	return table, nil
}

// Process runs a batch. bench may be nil. When no table succeeds the
// result carries every failure and no dataset, and the returned error is
// a processing error listing them.
func (p *Pipeline) Process(ctx context.Context, uploads []domain.Upload, bench *domain.BenchmarkTable, progress ProgressFunc) (*domain.BatchResult, error) {
	result := &domain.BatchResult{
		ID:        uuid.New().String(),
		StartTime: time.Now(),
	}

	ctx, span := p.tracer.Start(ctx, "pipeline.batch",
		trace.WithAttributes(
			attribute.String("batch.id", result.ID),
			attribute.Int("batch.tables", len(uploads)),
			attribute.Bool("batch.benchmark_loaded", bench != nil),
		))
	defer span.End()

	emit := func(u domain.ProgressUpdate) {
		if progress == nil {
			return
		}
		u.BatchID = result.ID
		u.Total = len(uploads)
		u.Timestamp = time.Now()
		progress(u)
	}

	logger := p.logger.With(slog.String("batch_id", result.ID))
	logger.InfoContext(ctx, "batch started",
		slog.Int("tables", len(uploads)),
		slog.Bool("benchmark_loaded", bench != nil))

	var tables []*domain.ComparedTable
	var errs []error
	for i, upload := range uploads {
		name := uploadName(upload)

		if err := ctx.Err(); err != nil {
			p.fail(ctx, result, name, domain.FailureCancelled, err)
			errs = append(errs, err)
			emit(domain.ProgressUpdate{Stage: domain.StageTableFailed, File: name, Index: i + 1, Message: err.Error()})
			continue
		}

		emit(domain.ProgressUpdate{Stage: domain.StageTableStarted, File: name, Index: i + 1})

		ct, err := p.processTable(ctx, upload, name, bench)
		if err != nil {
			kind := domain.FailureShape
			if apierrors.IsType(err, apierrors.ErrTypeParsing) {
				kind = domain.FailureParse
			}
			p.fail(ctx, result, name, kind, err)
			errs = append(errs, err)
			logger.WarnContext(ctx, "table failed",
				slog.String("file", name),
				slog.String("kind", string(kind)),
				slog.String("error", err.Error()))
			emit(domain.ProgressUpdate{Stage: domain.StageTableFailed, File: name, Index: i + 1, Message: err.Error()})
			continue
		}

		tables = append(tables, ct)
		result.Processed++
		p.recorder.TableProcessed(ctx, name, len(ct.Rows))
		logger.InfoContext(ctx, "table processed",
			slog.String("file", name),
			slog.Int("rows", len(ct.Rows)),
			slog.Int("columns", len(ct.Columns)))
		emit(domain.ProgressUpdate{Stage: domain.StageTableDone, File: name, Index: i + 1, Rows: len(ct.Rows)})
	}

	var batchErr error
	switch {
	case len(tables) == 0:
		result.Status = domain.BatchStatusFailed
		batchErr = apierrors.NewProcessingError("no tables could be processed", stderrors.Join(errs...)).
			WithContext(apierrors.ContextFailures, result.Failures)
		span.SetStatus(codes.Error, "no tables processed")
	case result.Failed > 0:
		result.Status = domain.BatchStatusPartial
	default:
		result.Status = domain.BatchStatusCompleted
	}

	if len(tables) > 0 {
		result.Dataset = p.merger.Merge(tables)
		result.RowsMerged = result.Dataset.Len()
	}

	result.EndTime = time.Now()
	result.Duration = result.EndTime.Sub(result.StartTime)
	p.recorder.BatchCompleted(ctx, result)

	span.SetAttributes(
		attribute.Int("batch.processed", result.Processed),
		attribute.Int("batch.failed", result.Failed),
		attribute.Int("batch.rows", result.RowsMerged),
	)
	logger.InfoContext(ctx, "batch completed",
		slog.String("status", string(result.Status)),
		slog.Int("processed", result.Processed),
		slog.Int("failed", result.Failed),
		slog.Int("rows", result.RowsMerged),
		slog.Duration("duration", result.Duration))
	emit(domain.ProgressUpdate{Stage: domain.StageBatchDone, Index: len(uploads), Rows: result.RowsMerged, Message: string(result.Status)})

	return result, batchErr
}

// processTable runs one upload through every stage. A panic from an
// unexpected table shape is turned into an error for that table only.
func (p *Pipeline) processTable(ctx context.Context, upload domain.Upload, name string, bench *domain.BenchmarkTable) (ct *domain.ComparedTable, err error) {
	_, span := p.tracer.Start(ctx, "pipeline.table", trace.WithAttributes(attribute.String("table.file", name)))
	defer span.End()

	defer func() {
		if r := recover(); r != nil {
			ct = nil
			err = fmt.Errorf("unexpected table shape in %q: %v", name, r)
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
	}()

	raw, err := p.parser.Parse(upload)
	if err != nil {
		return nil, err
	}
	raw.Name = name

	canonical := p.normalizer.Normalize(raw)
	metrics := p.calculator.Calculate(canonical)
	ct = p.joiner.Join(metrics, bench)
	StampSource(ct, name)

	span.SetAttributes(
		attribute.Int("table.rows", len(ct.Rows)),
		attribute.Bool("table.has_channel", canonical.HasChannel),
		attribute.Bool("table.joined", ct.Joined),
	)
	return ct, nil
}

func (p *Pipeline) fail(ctx context.Context, result *domain.BatchResult, name string, kind domain.FailureKind, err error) {
	result.Failed++
	result.Failures = append(result.Failures, domain.FileFailure{
		File:    name,
		Kind:    kind,
		Message: err.Error(),
	})
	p.recorder.TableFailed(ctx, name, kind)
}

func uploadName(u domain.Upload) string {
	if u.Name != "" {
		return u.Name
	}
	return filepath.Base(u.Path)
}
