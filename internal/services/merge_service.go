package services

import (
	"context"
	"io"
	"log/slog"
	"time"

	"mediamerge/internal/config"
	"mediamerge/internal/dataprocessing"
	apierrors "mediamerge/internal/errors"
	"mediamerge/internal/exporter"
	"mediamerge/internal/session"
	ws "mediamerge/internal/websocket"
	"mediamerge/pkg/contracts/domain"
)

// BatchProcessor runs the merge pipeline
type BatchProcessor interface {
	LoadBenchmark(ctx context.Context, upload domain.Upload) (*domain.BenchmarkTable, error)
	Process(ctx context.Context, uploads []domain.Upload, bench *domain.BenchmarkTable, progress dataprocessing.ProgressFunc) (*domain.BatchResult, error)
}

// SessionStore holds per-client merge state
type SessionStore interface {
	Create(ctx context.Context) *session.Session
	Get(id string) (*session.Session, error)
	Delete(ctx context.Context, id string) error
}

// SessionInfo is returned when a session is opened
type SessionInfo struct {
	ID        string    `json:"session_id"`
	CreatedAt time.Time `json:"created_at"`
}

// BenchmarkInfo describes a loaded benchmark table
type BenchmarkInfo struct {
	Source   string    `json:"source"`
	Rows     int       `json:"rows"`
	LoadedAt time.Time `json:"loaded_at"`
}

// BatchReport is the client-facing outcome of a batch
type BatchReport struct {
	BatchID   string                  `json:"batch_id"`
	Status    domain.BatchStatus      `json:"status"`
	Processed int                     `json:"processed"`
	Failed    int                     `json:"failed"`
	Rows      int                     `json:"rows"`
	Columns   []string                `json:"columns"`
	Sources   []string                `json:"sources"`
	Failures  []domain.FileFailure    `json:"failures"`
	Summaries []domain.ChannelSummary `json:"channel_summaries"`
	Duration  string                  `json:"duration"`
	Benchmark bool                    `json:"benchmark_applied"`
}

// MergeService coordinates sessions, benchmark state, batch processing and
// export. Every session-scoped operation looks the session up first, so an
// unknown or expired id fails with a not-found error.
type MergeService struct {
	sessions  SessionStore
	pipeline  BatchProcessor
	publisher ws.Publisher
	export    config.ExportConfig
	logger    *slog.Logger
}

// NewMergeService creates a merge service. publisher may be nil when no
// progress stream is attached.
func NewMergeService(sessions SessionStore, pipeline BatchProcessor, publisher ws.Publisher, export config.ExportConfig, logger *slog.Logger) *MergeService {
	if logger == nil {
		logger = slog.Default()
	}
	return &MergeService{
		sessions:  sessions,
		pipeline:  pipeline,
		publisher: publisher,
		export:    export,
		logger:    logger.With(slog.String("service", "merge")),
	}
}

// CreateSession opens a new session
func (s *MergeService) CreateSession(ctx context.Context) SessionInfo {
	sess := s.sessions.Create(ctx)
	return SessionInfo{ID: sess.ID, CreatedAt: sess.CreatedAt}
}

// DeleteSession drops a session and disconnects its subscribers
func (s *MergeService) DeleteSession(ctx context.Context, id string) error {
	if err := s.sessions.Delete(ctx, id); err != nil {
		return err
	}
	if s.publisher != nil {
		s.publisher.CloseSession(ctx, id)
	}
	return nil
}

// LoadBenchmark parses upload as the session's benchmark table. The
// previously loaded table is only replaced when the load succeeds.
func (s *MergeService) LoadBenchmark(ctx context.Context, id string, upload domain.Upload) (*BenchmarkInfo, error) {
	sess, err := s.sessions.Get(id)
	if err != nil {
		return nil, err
	}

	table, err := s.pipeline.LoadBenchmark(ctx, upload)
	if err != nil {
		s.logger.WarnContext(ctx, "benchmark rejected",
			slog.String("session_id", id),
			slog.String("file", upload.Name),
			slog.String("error", err.Error()))
		return nil, err
	}

	sess.SetBenchmark(table)
	info := &BenchmarkInfo{Source: table.Source, Rows: table.Len(), LoadedAt: table.LoadedAt}

	s.logger.InfoContext(ctx, "benchmark loaded",
		slog.String("session_id", id),
		slog.String("source", table.Source),
		slog.Int("rows", info.Rows))
	s.publish(ctx, id, ws.TypeBenchmark, info)

	return info, nil
}

// Benchmark returns the session's loaded benchmark table
func (s *MergeService) Benchmark(ctx context.Context, id string) (*domain.BenchmarkTable, error) {
	sess, err := s.sessions.Get(id)
	if err != nil {
		return nil, err
	}
	table := sess.Benchmark()
	if table == nil {
		return nil, apierrors.ErrBenchmarkMissing
	}
	return table, nil
}

// ClearBenchmark unloads the session's benchmark table
func (s *MergeService) ClearBenchmark(ctx context.Context, id string) error {
	sess, err := s.sessions.Get(id)
	if err != nil {
		return err
	}
	sess.ClearBenchmark()
	s.logger.InfoContext(ctx, "benchmark cleared", slog.String("session_id", id))
	s.publish(ctx, id, ws.TypeBenchmark, map[string]bool{"loaded": false})
	return nil
}

// ProcessBatch runs uploads through the pipeline against the session's
// benchmark. Batches of one session run one at a time. When no table
// succeeds the report is still returned together with the error, and the
// session keeps its previous dataset.
func (s *MergeService) ProcessBatch(ctx context.Context, id string, uploads []domain.Upload) (*BatchReport, error) {
	if len(uploads) == 0 {
		return nil, apierrors.ErrNoFilesUploaded
	}
	sess, err := s.sessions.Get(id)
	if err != nil {
		return nil, err
	}

	var report *BatchReport
	err = sess.Exclusive(func() error {
		bench := sess.Benchmark()
		result, err := s.pipeline.Process(ctx, uploads, bench, func(u domain.ProgressUpdate) {
			s.publish(ctx, id, ws.TypeProgress, u)
		})
		if result == nil {
			return err
		}

		if result.Dataset != nil {
			sess.SetResult(result)
		}
		report = newBatchReport(result, bench != nil)
		s.publish(ctx, id, ws.TypeBatchComplete, report)
		return err
	})

	if report != nil {
		s.logger.InfoContext(ctx, "batch finished",
			slog.String("session_id", id),
			slog.String("batch_id", report.BatchID),
			slog.String("status", string(report.Status)),
			slog.Int("rows", report.Rows))
	}
	return report, err
}

func newBatchReport(result *domain.BatchResult, benchmarkApplied bool) *BatchReport {
	report := &BatchReport{
		BatchID:   result.ID,
		Status:    result.Status,
		Processed: result.Processed,
		Failed:    result.Failed,
		Rows:      result.RowsMerged,
		Columns:   []string{},
		Sources:   []string{},
		Failures:  result.Failures,
		Summaries: []domain.ChannelSummary{},
		Duration:  result.Duration.String(),
		Benchmark: benchmarkApplied,
	}
	if report.Failures == nil {
		report.Failures = []domain.FileFailure{}
	}
	if ds := result.Dataset; ds != nil {
		report.Columns = ds.Columns
		report.Sources = ds.Sources
		report.Summaries = dataprocessing.Summarize(ds)
	}
	return report
}

// LastBatch returns the report of the session's latest successful batch
func (s *MergeService) LastBatch(ctx context.Context, id string) (*BatchReport, error) {
	sess, err := s.sessions.Get(id)
	if err != nil {
		return nil, err
	}
	result := sess.Result()
	if result == nil {
		return nil, apierrors.ErrDatasetNotFound
	}
	return newBatchReport(result, false), nil
}

// Dataset returns the session's current merged dataset
func (s *MergeService) Dataset(ctx context.Context, id string) (*domain.MergedDataset, error) {
	sess, err := s.sessions.Get(id)
	if err != nil {
		return nil, err
	}
	ds := sess.Dataset()
	if ds == nil {
		return nil, apierrors.ErrDatasetNotFound
	}
	return ds, nil
}

// ExportRequest selects how a dataset is encoded. A nil BOM falls back to
// the configured default.
type ExportRequest struct {
	Format exporter.Format
	BOM    *bool
}

// Export encodes ds to w
func (s *MergeService) Export(ctx context.Context, ds *domain.MergedDataset, req ExportRequest, w io.Writer) error {
	options := exporter.WriteOptions{
		BOMPrefix: s.export.BOM,
		Precision: s.export.Precision,
	}
	if req.BOM != nil {
		options.BOMPrefix = *req.BOM
	}

	writer, err := exporter.New(req.Format, options, s.logger)
	if err != nil {
		return err
	}
	if err := writer.Write(w, ds); err != nil {
		s.logger.ErrorContext(ctx, "dataset export failed",
			slog.String("format", string(req.Format)),
			slog.String("error", err.Error()))
		return err
	}
	return nil
}

func (s *MergeService) publish(ctx context.Context, id, eventType string, data interface{}) {
	if s.publisher == nil {
		return
	}
	s.publisher.Publish(ctx, id, eventType, data)
}
