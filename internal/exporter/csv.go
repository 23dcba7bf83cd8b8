package exporter

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"

	"mediamerge/pkg/contracts/domain"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// WriteOptions configures dataset encoding
type WriteOptions struct {
	BOMPrefix bool // Add UTF-8 BOM for Excel compatibility
	// Precision is the number of decimals for computed numbers; negative
	// means the shortest exact representation.
	Precision int
}

// DefaultWriteOptions returns options producing plain UTF-8 output with
// exact numbers
func DefaultWriteOptions() WriteOptions {
	return WriteOptions{Precision: -1}
}

// CSVWriter encodes a merged dataset as comma-separated text
type CSVWriter struct {
	options WriteOptions
	logger  *slog.Logger
}

// NewCSVWriter creates a new CSV writer instance
func NewCSVWriter(options WriteOptions, logger *slog.Logger) *CSVWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CSVWriter{options: options, logger: logger}
}

// Format returns FormatCSV
func (w *CSVWriter) Format() Format { return FormatCSV }

// Write encodes ds to out: a header row holding the dataset columns, then
// one row per record with empty fields for missing cells.
func (w *CSVWriter) Write(out io.Writer, ds *domain.MergedDataset) error {
	if ds == nil {
		return fmt.Errorf("no dataset to export")
	}

	sw, err := NewStreamWriter(out, ds.Columns, w.options.BOMPrefix)
	if err != nil {
		return err
	}

	record := make([]string, len(ds.Columns))
	for i, row := range ds.Rows {
		for j, col := range ds.Columns {
			record[j] = formatCell(row.Get(col), w.options.Precision)
		}
		if err := sw.WriteRecord(record); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}

	if err := sw.Flush(); err != nil {
		return err
	}

	w.logger.Debug("csv written",
		slog.Int("columns", len(ds.Columns)),
		slog.Int("record_count", ds.Len()))
	return nil
}

// StreamWriter provides streaming CSV writing for large datasets
type StreamWriter struct {
	writer *csv.Writer
}

// NewStreamWriter writes the optional BOM and the header row and returns a
// writer for the records that follow.
func NewStreamWriter(out io.Writer, headers []string, bom bool) (*StreamWriter, error) {
	if bom {
		if _, err := out.Write(utf8BOM); err != nil {
			return nil, fmt.Errorf("failed to write BOM: %w", err)
		}
	}

	writer := csv.NewWriter(out)
	if len(headers) > 0 {
		if err := writer.Write(headers); err != nil {
			return nil, fmt.Errorf("failed to write headers: %w", err)
		}
	}

	return &StreamWriter{writer: writer}, nil
}

// WriteRecord writes a single record to the stream
func (s *StreamWriter) WriteRecord(record []string) error {
	return s.writer.Write(record)
}

// Flush writes any buffered records
func (s *StreamWriter) Flush() error {
	s.writer.Flush()
	return s.writer.Error()
}
