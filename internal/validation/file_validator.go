package validation

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	apierrors "mediamerge/internal/errors"
	"mediamerge/internal/exporter"
)

// FileValidator checks upload names and CLI paths before anything is parsed
type FileValidator struct {
	extensions map[string]bool
	maxFiles   int
	logger     *slog.Logger
}

// NewFileValidator creates a validator accepting the given extensions. A
// maxFiles of zero means no limit.
func NewFileValidator(extensions []string, maxFiles int, logger *slog.Logger) *FileValidator {
	if logger == nil {
		logger = slog.Default()
	}
	v := &FileValidator{
		extensions: make(map[string]bool, len(extensions)),
		maxFiles:   maxFiles,
		logger:     logger,
	}
	for _, ext := range extensions {
		v.extensions[strings.ToLower(ext)] = true
	}
	return v
}

// ValidateUploadNames checks the file names of one upload request. All
// problems are reported together.
func (v *FileValidator) ValidateUploadNames(names []string) error {
	if len(names) == 0 {
		return apierrors.ErrNoFilesUploaded
	}
	if v.maxFiles > 0 && len(names) > v.maxFiles {
		return apierrors.ErrValidation("files", fmt.Sprintf("at most %d files may be uploaded at once", v.maxFiles))
	}

	var problems []apierrors.ValidationError
	for _, name := range names {
		if msg := v.checkName(name); msg != "" {
			problems = append(problems, apierrors.ValidationError{Field: name, Message: msg})
		}
	}
	if len(problems) > 0 {
		v.logger.Warn("Upload rejected",
			slog.Int("files", len(names)),
			slog.Int("invalid", len(problems)))
		return apierrors.NewValidationErrors(problems)
	}
	return nil
}

func (v *FileValidator) checkName(name string) string {
	switch {
	case strings.TrimSpace(name) == "":
		return "file name is empty"
	case strings.ContainsAny(name, `/\`) || name == "." || name == "..":
		return "file name must not contain a path"
	case strings.HasPrefix(name, "~$"):
		return "temporary Office lock files cannot be merged"
	}
	ext := strings.ToLower(filepath.Ext(name))
	if !v.extensions[ext] {
		return fmt.Sprintf("unsupported file type %q", ext)
	}
	return ""
}

// ValidateInputPath checks that a CLI input (file or directory) exists
func (v *FileValidator) ValidateInputPath(path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			v.logger.Error("Input does not exist", slog.String("path", path))
			return apierrors.NewNotFoundError("input " + path)
		}
		v.logger.Error("Failed to stat input",
			slog.String("path", path),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to stat %s: %w", path, err)
	}
	return nil
}

// ValidateFile checks if a specific file exists and is readable
func (v *FileValidator) ValidateFile(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		v.logger.Error("File does not exist",
			slog.String("file", path))
		return apierrors.NewNotFoundError("file " + path)
	}
	if err != nil {
		return fmt.Errorf("failed to stat file %s: %w", path, err)
	}
	if info.IsDir() {
		return apierrors.NewAppValidationError(path + " is a directory, not a file")
	}

	file, err := os.Open(path)
	if err != nil {
		v.logger.Error("File is not readable",
			slog.String("file", path),
			slog.String("error", err.Error()))
		return fmt.Errorf("file %s is not readable: %w", path, err)
	}
	file.Close()
	return nil
}

// ValidateOutputPath checks the export target: a known extension and a
// writable parent directory, created if needed.
func (v *FileValidator) ValidateOutputPath(path string) (exporter.Format, error) {
	format, err := exporter.FormatForPath(path)
	if err != nil {
		return "", err
	}
	if err := v.ValidateOutputDirectory(filepath.Dir(path)); err != nil {
		return "", err
	}
	return format, nil
}

// ValidateOutputDirectory ensures output directory exists or can be created
func (v *FileValidator) ValidateOutputDirectory(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		v.logger.Error("Failed to create output directory",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".write_test-*")
	if err != nil {
		v.logger.Error("Output directory is not writable",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return fmt.Errorf("output directory %s is not writable: %w", dir, err)
	}
	name := tmp.Name()
	tmp.Close()
	os.Remove(name)

	return nil
}
