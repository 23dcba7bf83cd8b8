package testutil

import (
	"bytes"
	"encoding/csv"
	"mime/multipart"
	"os"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"
)

// WorkbookBytes builds an xlsx workbook with a single sheet holding rows
func WorkbookBytes(t *testing.T, rows [][]interface{}) []byte {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatalf("cell name: %v", err)
		}
		r := row
		if err := f.SetSheetRow(sheet, cell, &r); err != nil {
			t.Fatalf("set row %d: %v", i+1, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("write workbook: %v", err)
	}
	return buf.Bytes()
}

// WriteWorkbook saves an xlsx workbook under dir and returns its path
func WriteWorkbook(t *testing.T, dir, name string, rows [][]interface{}) string {
	t.Helper()
	return writeFile(t, dir, name, WorkbookBytes(t, rows))
}

// CSVBytes encodes rows as comma-separated text
func CSVBytes(t *testing.T, rows [][]string) []byte {
	t.Helper()

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.WriteAll(rows); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	return buf.Bytes()
}

// WriteCSV saves a csv file under dir and returns its path
func WriteCSV(t *testing.T, dir, name string, rows [][]string) string {
	t.Helper()
	return writeFile(t, dir, name, CSVBytes(t, rows))
}

func writeFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

// FilePart is one file field of a multipart upload
type FilePart struct {
	Field string
	Name  string
	Data  []byte
}

// MultipartBody encodes parts as a multipart/form-data body and returns it
// with its Content-Type
func MultipartBody(t *testing.T, parts ...FilePart) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for _, p := range parts {
		fw, err := w.CreateFormFile(p.Field, p.Name)
		if err != nil {
			t.Fatalf("create form file %s: %v", p.Name, err)
		}
		if _, err := fw.Write(p.Data); err != nil {
			t.Fatalf("write form file %s: %v", p.Name, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}
	return &body, w.FormDataContentType()
}
