package exporter

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"mediamerge/pkg/contracts/domain"
)

// Format names an output encoding
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// BaseFileName is the download name of an exported dataset, without extension
const BaseFileName = "merged_media_data"

// ParseFormat accepts "csv" or "xlsx" in any case. Empty means CSV.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatCSV:
		return FormatCSV, nil
	case FormatXLSX:
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("unsupported export format %q", s)
	}
}

// FormatForPath picks the format from a file extension
func FormatForPath(path string) (Format, error) {
	return ParseFormat(strings.TrimPrefix(filepath.Ext(path), "."))
}

// ContentType returns the MIME type of the format
func (f Format) ContentType() string {
	if f == FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv; charset=utf-8"
}

// FileName returns the download file name for the format
func (f Format) FileName() string {
	return BaseFileName + "." + string(f)
}

// Writer encodes a merged dataset
type Writer interface {
	Format() Format
	Write(out io.Writer, ds *domain.MergedDataset) error
}

// New returns the writer for format
func New(format Format, options WriteOptions, logger *slog.Logger) (Writer, error) {
	switch format {
	case FormatCSV:
		return NewCSVWriter(options, logger), nil
	case FormatXLSX:
		return NewXLSXWriter(logger), nil
	default:
		return nil, fmt.Errorf("unsupported export format %q", format)
	}
}

// WriteFile exports ds to path, picking the encoding from its extension.
// Parent directories are created.
func WriteFile(path string, ds *domain.MergedDataset, options WriteOptions, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}

	format, err := FormatForPath(path)
	if err != nil {
		return err
	}
	w, err := New(format, options, logger)
	if err != nil {
		return err
	}

	logger.Info("Writing dataset",
		slog.String("file_path", path),
		slog.String("format", string(format)),
		slog.Int("record_count", ds.Len()))

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}

	if err := w.Write(file, ds); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
