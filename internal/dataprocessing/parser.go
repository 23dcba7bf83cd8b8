package dataprocessing

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	apierrors "mediamerge/internal/errors"
	"mediamerge/pkg/contracts/domain"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Parser reads spreadsheet uploads into raw tables
type Parser struct {
	logger *slog.Logger
}

// NewParser creates a parser that logs through logger
func NewParser(logger *slog.Logger) *Parser {
	if logger == nil {
		logger = slog.Default()
	}
	return &Parser{logger: logger.With(slog.String("component", "parser"))}
}

// Parse reads one upload. Any failure is returned as a parse error that
// names the upload.
func (p *Parser) Parse(upload domain.Upload) (*domain.RawTable, error) {
	name := upload.Name
	if name == "" {
		name = filepath.Base(upload.Path)
	}

	data := upload.Data
	if data == nil {
		if upload.Path == "" {
			return nil, apierrors.NewParseError(name, fmt.Errorf("upload has no content"))
		}
		raw, err := os.ReadFile(upload.Path)
		if err != nil {
			return nil, apierrors.NewParseError(name, err)
		}
		data = raw
	}

	ext := strings.ToLower(filepath.Ext(name))
	if ext == "" {
		ext = strings.ToLower(filepath.Ext(upload.Path))
	}

	var (
		rows [][]string
		err  error
	)
	switch ext {
	case ".xlsx", ".xlsm":
		rows, err = p.readWorkbook(name, data)
	case ".csv":
		rows, err = readDelimited(data)
	default:
		err = fmt.Errorf("unsupported file type %q", ext)
	}
	if err != nil {
		return nil, apierrors.NewParseError(name, err)
	}

	table, err := buildRawTable(name, rows)
	if err != nil {
		return nil, apierrors.NewParseError(name, err)
	}

	p.logger.Debug("parsed table",
		slog.String("file", name),
		slog.Int("columns", len(table.Columns)),
		slog.Int("rows", len(table.Rows)))

	return table, nil
}

// readWorkbook returns the rows of the first sheet that holds any data.
// Numeric cells are read as stored, not as displayed, so a cell formatted
// as 5% yields 0.05.
func (p *Parser) readWorkbook(name string, data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
		if err != nil {
			p.logger.Warn("skipping unreadable sheet",
				slog.String("file", name),
				slog.String("sheet", sheet),
				slog.String("error", err.Error()))
			continue
		}
		if firstNonEmptyRow(rows) >= 0 {
			p.logger.Debug("using sheet", slog.String("file", name), slog.String("sheet", sheet))
			return rows, nil
		}
	}

	return nil, fmt.Errorf("workbook has no sheet with data")
}

func readDelimited(data []byte) ([][]string, error) {
	r := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, utf8BOM)))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	var rows [][]string
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("invalid csv: %w", err)
		}
		rows = append(rows, record)
	}
	return rows, nil
}

// buildRawTable treats the first non-empty row as the header. Blank header
// cells, including those past the header for rows that run longer, become
// "Unnamed: N" and repeated names get a ".N" suffix.
func buildRawTable(name string, rows [][]string) (*domain.RawTable, error) {
	headerIdx := firstNonEmptyRow(rows)
	if headerIdx < 0 {
		return nil, fmt.Errorf("no header row found")
	}

	width := 0
	for _, row := range rows[headerIdx:] {
		if len(row) > width {
			width = len(row)
		}
	}
	header := make([]string, width)
	copy(header, rows[headerIdx])

	columns := make([]string, len(header))
	seen := make(map[string]int, len(header))
	for i, h := range header {
		col := h
		if strings.TrimSpace(col) == "" {
			col = fmt.Sprintf("Unnamed: %d", i)
		}
		if n, dup := seen[col]; dup {
			seen[col] = n + 1
			col = fmt.Sprintf("%s.%d", col, n+1)
		} else {
			seen[col] = 0
		}
		columns[i] = col
	}

	table := &domain.RawTable{Name: name, Columns: columns}
	for _, row := range rows[headerIdx+1:] {
		if isBlankRow(row) {
			continue
		}
		record := make(domain.Record, len(columns))
		for i, col := range columns {
			if i < len(row) {
				record[col] = domain.ParseCell(row[i])
			} else {
				record[col] = domain.EmptyCell()
			}
		}
		table.Rows = append(table.Rows, record)
	}

	return table, nil
}

func firstNonEmptyRow(rows [][]string) int {
	for i, row := range rows {
		if !isBlankRow(row) {
			return i
		}
	}
	return -1
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
