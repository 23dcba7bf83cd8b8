package domain

import (
	"time"
)

// MergedDataset is the concatenation of every successfully processed
// upload in a batch. Columns is the union of all table columns in
// first-seen order; cells a row has no value for are empty.
type MergedDataset struct {
	Columns   []string  `json:"columns"`
	Rows      []Record  `json:"rows"`
	Sources   []string  `json:"sources"`
	CreatedAt time.Time `json:"created_at"`
}

// Len returns the number of rows
func (d *MergedDataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Rows)
}

// Upload is one named input handed to the pipeline
type Upload struct {
	Name string
	// Path is read when Data is nil
	Path string
	Data []byte
}

// FailureKind classifies why a table was left out of a batch
type FailureKind string

const (
	FailureParse     FailureKind = "parse_error"
	FailureShape     FailureKind = "unexpected_shape"
	FailureCancelled FailureKind = "cancelled"
)

// FileFailure reports one table that could not be processed
type FileFailure struct {
	File    string      `json:"file"`
	Kind    FailureKind `json:"kind"`
	Message string      `json:"message"`
}

// BatchStatus represents the outcome of a batch
type BatchStatus string

const (
	BatchStatusCompleted BatchStatus = "completed"
	BatchStatusPartial   BatchStatus = "partial" // Completed with failed tables
	BatchStatusFailed    BatchStatus = "failed"
)

// BatchResult is the result of processing one batch of uploads
type BatchResult struct {
	ID         string         `json:"id"`
	StartTime  time.Time      `json:"start_time"`
	EndTime    time.Time      `json:"end_time"`
	Duration   time.Duration  `json:"duration"`
	Status     BatchStatus    `json:"status"`
	Processed  int            `json:"processed"`
	Failed     int            `json:"failed"`
	RowsMerged int            `json:"rows_merged"`
	Failures   []FileFailure  `json:"failures,omitempty"`
	Dataset    *MergedDataset `json:"-"`
}

// ProgressStage identifies a point in batch processing
type ProgressStage string

const (
	StageTableStarted ProgressStage = "table_started"
	StageTableDone    ProgressStage = "table_done"
	StageTableFailed  ProgressStage = "table_failed"
	StageBatchDone    ProgressStage = "batch_done"
)

// ProgressUpdate is emitted while a batch is processed
type ProgressUpdate struct {
	BatchID   string        `json:"batch_id"`
	Stage     ProgressStage `json:"stage"`
	File      string        `json:"file,omitempty"`
	Index     int           `json:"index"`
	Total     int           `json:"total"`
	Rows      int           `json:"rows,omitempty"`
	Message   string        `json:"message,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
}

// ChannelSummary aggregates merged rows that share a channel
type ChannelSummary struct {
	Channel      string    `json:"channel"`
	Rows         int       `json:"rows"`
	TotalSpend   float64   `json:"total_spend"`
	TotalRevenue float64   `json:"total_revenue"`
	MeanCPM      NullFloat `json:"mean_cpm"`
	MedianCPM    NullFloat `json:"median_cpm"`
	MeanROAS     NullFloat `json:"mean_roas"`
	MedianROAS   NullFloat `json:"median_roas"`
	AboveCPM     int       `json:"above_benchmark_cpm"`
	AboveROAS    int       `json:"above_benchmark_roas"`
}
