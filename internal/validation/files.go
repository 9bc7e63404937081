package validation

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	apperrors "cprcli/internal/errors"
)

// FileValidator provides filesystem preflight checks shared by the
// executables.
type FileValidator struct {
	logger *slog.Logger
}

// NewFileValidator creates a new file validator
func NewFileValidator(logger *slog.Logger) *FileValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileValidator{logger: logger}
}

// ValidateOutputDirectory ensures dir exists and is writable before a run
// starts producing export files.
func (v *FileValidator) ValidateOutputDirectory(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return apperrors.NewStorageError(
			fmt.Sprintf("failed to create output directory %s", dir), err)
	}

	probe := filepath.Join(dir, ".write_test")
	file, err := os.Create(probe)
	if err != nil {
		return apperrors.NewStorageError(
			fmt.Sprintf("output directory %s is not writable", dir), err)
	}
	file.Close()
	os.Remove(probe)

	v.logger.Debug("output directory validated", slog.String("directory", dir))
	return nil
}

// ValidateWorkbookFile checks that path names a readable report workbook.
// Spreadsheet lock files (the ~$ prefix an open editor leaves behind) are
// rejected so a half-open workbook never enters the pipeline.
func (v *FileValidator) ValidateWorkbookFile(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return apperrors.NewRetrievalError(
			fmt.Sprintf("workbook %s does not exist", path), err)
	}
	if err != nil {
		return apperrors.NewRetrievalError(
			fmt.Sprintf("failed to stat workbook %s", path), err)
	}
	if info.IsDir() {
		return apperrors.NewInputIdentityError(
			fmt.Sprintf("%s is a directory, not a workbook", path), nil)
	}

	if ext := strings.ToLower(filepath.Ext(path)); ext != ".xlsx" {
		return apperrors.NewInputIdentityError(
			fmt.Sprintf("%s is not an xlsx workbook (extension %q)", path, ext), nil)
	}
	if strings.HasPrefix(filepath.Base(path), "~$") {
		return apperrors.NewInputIdentityError(
			fmt.Sprintf("%s is a spreadsheet lock file", path), nil)
	}

	file, err := os.Open(path)
	if err != nil {
		return apperrors.NewRetrievalError(
			fmt.Sprintf("workbook %s is not readable", path), err)
	}
	file.Close()

	v.logger.Debug("workbook validated",
		slog.String("file", path),
		slog.Int64("size", info.Size()))
	return nil
}

// CountExportFiles counts regular files under dir matching pattern.
func (v *FileValidator) CountExportFiles(dir, pattern string) (int, error) {
	matches, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return 0, apperrors.NewStorageError("failed to scan export directory", err)
	}

	count := 0
	for _, match := range matches {
		info, err := os.Stat(match)
		if err == nil && !info.IsDir() {
			count++
		}
	}
	return count, nil
}
