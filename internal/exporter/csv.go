package exporter

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"cprcli/internal/config"
	apperrors "cprcli/internal/errors"
)

// CSVWriter writes CSV files into the export directory tree.
type CSVWriter struct {
	paths *config.Paths
}

// NewCSVWriter creates a new CSV writer instance
func NewCSVWriter(paths *config.Paths) *CSVWriter {
	return &CSVWriter{paths: paths}
}

// WriteCSV writes headers and records to filePath, replacing any existing
// file. Relative paths land in the export directory. Output is plain UTF-8
// without a byte order mark; downstream ingestion rejects prefixed files.
func (w *CSVWriter) WriteCSV(filePath string, headers []string, records [][]string) error {
	fullPath := w.resolvePath(filePath)

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return apperrors.NewStorageError("failed to create export directory", err)
	}

	file, err := os.OpenFile(fullPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return apperrors.NewStorageError("failed to open export file", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)

	if len(headers) > 0 {
		if err := writer.Write(headers); err != nil {
			return apperrors.NewStorageError("failed to write headers", err)
		}
	}

	for i, record := range records {
		if err := writer.Write(record); err != nil {
			return apperrors.NewStorageError(fmt.Sprintf("failed to write record %d", i), err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return apperrors.NewStorageError("failed to flush export file", err)
	}
	return nil
}

// resolvePath resolves a path to the appropriate directory
func (w *CSVWriter) resolvePath(filePath string) string {
	if filepath.IsAbs(filePath) {
		return filePath
	}
	return w.paths.ExportPath(filePath)
}
