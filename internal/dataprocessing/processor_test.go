package dataprocessing

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apierrors "mediamerge/internal/errors"
	"mediamerge/internal/shared/testutil"
	"mediamerge/pkg/contracts/domain"
)

type recordingRecorder struct {
	mu        sync.Mutex
	processed map[string]int
	failed    map[string]domain.FailureKind
	batches   []*domain.BatchResult
}

func newRecordingRecorder() *recordingRecorder {
	return &recordingRecorder{
		processed: make(map[string]int),
		failed:    make(map[string]domain.FailureKind),
	}
}

func (r *recordingRecorder) TableProcessed(_ context.Context, file string, rows int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.processed[file] = rows
}

func (r *recordingRecorder) TableFailed(_ context.Context, file string, kind domain.FailureKind) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failed[file] = kind
}

func (r *recordingRecorder) BatchCompleted(_ context.Context, result *domain.BatchResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.batches = append(r.batches, result)
}

func csvUpload(t *testing.T, name string, rows [][]string) domain.Upload {
	return domain.Upload{Name: name, Data: testutil.CSVBytes(t, rows)}
}

func TestPipeline_Process_PartialBatch(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	recorder := newRecordingRecorder()
	p := NewPipeline(DefaultOptions(), logger, WithRecorder(recorder))

	bench := domain.NewBenchmarkTable("benchmarks.csv", []domain.BenchmarkRow{
		{Channel: "Search", CPM: domain.Float(5), ROAS: domain.Float(4)},
	})
	uploads := []domain.Upload{
		{Name: "broken.xlsx", Data: []byte("not a workbook")},
		csvUpload(t, "google.csv", [][]string{
			{"Channel", "Cost", "Views", "Clicks", "Conversions", "Revenue"},
			{"Search", "5", "1000", "10", "1", "25"},
			{"TV", "100", "0", "10", "2", "500"},
		}),
	}

	var updates []domain.ProgressUpdate
	result, err := p.Process(context.Background(), uploads, bench, func(u domain.ProgressUpdate) {
		updates = append(updates, u)
	})
	require.NoError(t, err)

	assert.NotEmpty(t, result.ID)
	assert.Equal(t, domain.BatchStatusPartial, result.Status)
	assert.Equal(t, 1, result.Processed)
	assert.Equal(t, 1, result.Failed)
	require.Len(t, result.Failures, 1)
	assert.Equal(t, "broken.xlsx", result.Failures[0].File)
	assert.Equal(t, domain.FailureParse, result.Failures[0].Kind)

	ds := result.Dataset
	require.NotNil(t, ds)
	require.Equal(t, 2, ds.Len())
	assert.Equal(t, 2, result.RowsMerged)
	assert.Equal(t, []string{"google.csv"}, ds.Sources)

	search := ds.Rows[0]
	assert.Equal(t, "5", search.Get(domain.ColumnCPM).String())
	assert.Equal(t, string(domain.StatusBelowBenchmark), search.Get(domain.ColumnCPMStatus).String())
	assert.Equal(t, string(domain.StatusAboveBenchmark), search.Get(domain.ColumnROASStatus).String())
	assert.Equal(t, "google.csv", search.Get(domain.ColumnSourceFile).String())

	tv := ds.Rows[1]
	assert.True(t, tv.Get(domain.ColumnCPM).IsEmpty())
	assert.True(t, tv.Get(domain.ColumnCTR).IsEmpty())
	assert.Equal(t, "10", tv.Get(domain.ColumnCPC).String())
	assert.Equal(t, "5", tv.Get(domain.ColumnROAS).String())
	assert.Equal(t, "20", tv.Get(domain.ColumnConversionRate).String())
	assert.Equal(t, string(domain.StatusNoBenchmark), tv.Get(domain.ColumnCPMStatus).String())
	assert.True(t, tv.Get(domain.ColumnCPMDelta).IsEmpty())

	assert.Equal(t, map[string]int{"google.csv": 2}, recorder.processed)
	assert.Equal(t, map[string]domain.FailureKind{"broken.xlsx": domain.FailureParse}, recorder.failed)
	assert.Len(t, recorder.batches, 1)

	stages := make([]domain.ProgressStage, len(updates))
	for i, u := range updates {
		stages[i] = u.Stage
		assert.Equal(t, result.ID, u.BatchID)
		assert.Equal(t, 2, u.Total)
	}
	assert.Equal(t, []domain.ProgressStage{
		domain.StageTableStarted, domain.StageTableFailed,
		domain.StageTableStarted, domain.StageTableDone,
		domain.StageBatchDone,
	}, stages)
}

func TestPipeline_Process_NoTablesProcessed(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	p := NewPipeline(DefaultOptions(), logger)

	uploads := []domain.Upload{
		{Name: "a.pdf", Data: []byte("x")},
		{Name: "b.xlsx", Data: []byte("y")},
	}

	result, err := p.Process(context.Background(), uploads, nil, nil)

	require.Error(t, err)
	assert.True(t, apierrors.IsType(err, apierrors.ErrTypeProcessing))
	require.NotNil(t, result)
	assert.Equal(t, domain.BatchStatusFailed, result.Status)
	assert.Nil(t, result.Dataset)
	assert.Len(t, result.Failures, 2)
	assert.Contains(t, err.Error(), "no tables could be processed")
}

func TestPipeline_Process_Cancelled(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	p := NewPipeline(DefaultOptions(), logger)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := p.Process(ctx, []domain.Upload{
		csvUpload(t, "a.csv", [][]string{{"Spend"}, {"1"}}),
	}, nil, nil)

	require.Error(t, err)
	require.Len(t, result.Failures, 1)
	assert.Equal(t, domain.FailureCancelled, result.Failures[0].Kind)
}

func TestPipeline_Process_WithoutBenchmark(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	p := NewPipeline(ProcessingOptions{DistinguishNoChannel: true}, logger)

	result, err := p.Process(context.Background(), []domain.Upload{
		csvUpload(t, "a.csv", [][]string{{"Channel", "Spend"}, {"Search", "1"}}),
		csvUpload(t, "b.csv", [][]string{{"Spend", "Impressions"}, {"2", "1000"}}),
	}, nil, nil)
	require.NoError(t, err)

	ds := result.Dataset
	assert.Equal(t, domain.BatchStatusCompleted, result.Status)
	assert.NotContains(t, ds.Columns, domain.ColumnBenchmarkCPM)
	assert.NotContains(t, ds.Columns, domain.ColumnBenchmarkROAS)
	for _, rec := range ds.Rows {
		assert.Equal(t, string(domain.StatusNoBenchmark), rec.Get(domain.ColumnCPMStatus).String())
		assert.Equal(t, string(domain.StatusNoBenchmark), rec.Get(domain.ColumnROASStatus).String())
	}
	assert.Equal(t, []string{"a.csv", "b.csv"}, ds.Sources)
}

func TestPipeline_Process_NoChannelPolicy(t *testing.T) {
	bench := domain.NewBenchmarkTable("benchmarks.csv", []domain.BenchmarkRow{
		{Channel: "Search", CPM: domain.Float(5), ROAS: domain.Float(4)},
	})
	upload := csvUpload(t, "tv.csv", [][]string{{"Spend", "Impressions"}, {"2", "1000"}})

	tests := []struct {
		name string
		opts ProcessingOptions
		want domain.BenchmarkStatus
	}{
		{"default", DefaultOptions(), domain.StatusNoBenchmark},
		{"distinguished", ProcessingOptions{DistinguishNoChannel: true}, domain.StatusNoChannel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, _ := testutil.NewTestLogger(t)

			result, err := NewPipeline(tt.opts, logger).Process(context.Background(), []domain.Upload{upload}, bench, nil)
			require.NoError(t, err)

			rec := result.Dataset.Rows[0]
			assert.Equal(t, string(tt.want), rec.Get(domain.ColumnCPMStatus).String())
			assert.NotContains(t, result.Dataset.Columns, domain.ColumnBenchmarkCPM)
		})
	}
}

func TestPipeline_LoadBenchmark(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	p := NewPipeline(DefaultOptions(), logger)
	dir := t.TempDir()

	good := testutil.WriteWorkbook(t, dir, "benchmarks.xlsx", [][]interface{}{
		{"Channel", "Benchmark CPM", "Benchmark ROAS"},
		{"Search", 5, 4},
	})
	table, err := p.LoadBenchmark(context.Background(), domain.Upload{Path: good})
	require.NoError(t, err)
	assert.Equal(t, "benchmarks.xlsx", table.Source)
	assert.Equal(t, 1, table.Len())

	bad := testutil.WriteWorkbook(t, dir, "bad.xlsx", [][]interface{}{
		{"Channel", "CPM"},
		{"Search", 5},
	})
	table, err = p.LoadBenchmark(context.Background(), domain.Upload{Path: bad})
	assert.Nil(t, table)
	assert.True(t, apierrors.IsType(err, apierrors.ErrTypeBenchmark))
}
