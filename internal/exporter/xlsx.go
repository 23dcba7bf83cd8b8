package exporter

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/xuri/excelize/v2"

	"mediamerge/pkg/contracts/domain"
)

// SheetName is the worksheet holding an exported dataset
const SheetName = "Merged"

// XLSXWriter encodes a merged dataset as a single-sheet workbook. Numeric
// cells are stored as numbers.
type XLSXWriter struct {
	logger *slog.Logger
}

// NewXLSXWriter creates a workbook writer
func NewXLSXWriter(logger *slog.Logger) *XLSXWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &XLSXWriter{logger: logger}
}

// Format returns FormatXLSX
func (w *XLSXWriter) Format() Format { return FormatXLSX }

// Write encodes ds to out
func (w *XLSXWriter) Write(out io.Writer, ds *domain.MergedDataset) error {
	if ds == nil {
		return fmt.Errorf("no dataset to export")
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	sw, err := f.NewStreamWriter(SheetName)
	if err != nil {
		return fmt.Errorf("failed to open sheet stream: %w", err)
	}

	header := make([]interface{}, len(ds.Columns))
	for i, col := range ds.Columns {
		header[i] = col
	}
	if err := sw.SetRow("A1", header); err != nil {
		return fmt.Errorf("failed to write headers: %w", err)
	}

	values := make([]interface{}, len(ds.Columns))
	for i, row := range ds.Rows {
		for j, col := range ds.Columns {
			values[j] = cellValue(row.Get(col))
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, values); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}

	if err := sw.Flush(); err != nil {
		return fmt.Errorf("failed to flush sheet: %w", err)
	}
	if _, err := f.WriteTo(out); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}

	w.logger.Debug("workbook written",
		slog.Int("columns", len(ds.Columns)),
		slog.Int("record_count", ds.Len()))
	return nil
}
