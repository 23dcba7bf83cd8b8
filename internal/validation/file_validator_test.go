package validation

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apierrors "mediamerge/internal/errors"
	"mediamerge/internal/exporter"
	"mediamerge/internal/shared/testutil"
)

func newValidator(t *testing.T) *FileValidator {
	logger, _ := testutil.NewTestLogger(t)
	return NewFileValidator([]string{".xlsx", ".xlsm", ".csv"}, 3, logger)
}

func TestFileValidator_ValidateUploadNames(t *testing.T) {
	v := newValidator(t)

	tests := []struct {
		name        string
		files       []string
		wantErr     bool
		wantInvalid []string
	}{
		{"valid mix", []string{"google.xlsx", "META.CSV"}, false, nil},
		{"macro workbook", []string{"report.xlsm"}, false, nil},
		{"legacy xls", []string{"old.xls"}, true, []string{"old.xls"}},
		{"path traversal", []string{"../secret.csv", "ok.csv"}, true, []string{"../secret.csv"}},
		{"lock file", []string{"~$google.xlsx"}, true, []string{"~$google.xlsx"}},
		{"all bad reported", []string{"a.pdf", "b.txt"}, true, []string{"a.pdf", "b.txt"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateUploadNames(tt.files)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}

			var apiErr *apierrors.APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)

			details, ok := apiErr.Details.(apierrors.ValidationErrors)
			require.True(t, ok)
			var fields []string
			for _, e := range details.Errors {
				fields = append(fields, e.Field)
			}
			assert.Equal(t, tt.wantInvalid, fields)
		})
	}
}

func TestFileValidator_ValidateUploadNames_Limits(t *testing.T) {
	v := newValidator(t)

	assert.ErrorIs(t, v.ValidateUploadNames(nil), apierrors.ErrNoFilesUploaded)

	err := v.ValidateUploadNames([]string{"a.csv", "b.csv", "c.csv", "d.csv"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")

	unlimited := NewFileValidator([]string{".csv"}, 0, nil)
	assert.NoError(t, unlimited.ValidateUploadNames([]string{"a.csv", "b.csv", "c.csv", "d.csv"}))
}

func TestFileValidator_ValidateFile(t *testing.T) {
	v := newValidator(t)
	dir := t.TempDir()
	file := filepath.Join(dir, "a.csv")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	assert.NoError(t, v.ValidateFile(file))
	missing := v.ValidateFile(filepath.Join(dir, "missing.csv"))
	assert.ErrorContains(t, missing, "not found")
	assert.True(t, apierrors.IsType(missing, apierrors.ErrTypeNotFound))

	notFile := v.ValidateFile(dir)
	assert.ErrorContains(t, notFile, "is a directory")
	assert.True(t, apierrors.IsType(notFile, apierrors.ErrTypeValidation))
}

func TestFileValidator_ValidateInputPath(t *testing.T) {
	v := newValidator(t)
	dir := t.TempDir()

	assert.NoError(t, v.ValidateInputPath(dir))
	err := v.ValidateInputPath(filepath.Join(dir, "nope"))
	assert.ErrorContains(t, err, "not found")
	assert.True(t, apierrors.IsType(err, apierrors.ErrTypeNotFound))
}

func TestFileValidator_ValidateOutputPath(t *testing.T) {
	v := newValidator(t)
	dir := t.TempDir()

	tests := []struct {
		name       string
		path       string
		wantFormat exporter.Format
		wantErr    bool
	}{
		{"csv in new dir", filepath.Join(dir, "out", "merged.csv"), exporter.FormatCSV, false},
		{"xlsx", filepath.Join(dir, "merged.XLSX"), exporter.FormatXLSX, false},
		{"unknown extension", filepath.Join(dir, "merged.json"), "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			format, err := v.ValidateOutputPath(tt.path)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantFormat, format)
			assert.DirExists(t, filepath.Dir(tt.path))
		})
	}
}
