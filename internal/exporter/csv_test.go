package exporter

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cprcli/internal/config"
	apperrors "cprcli/internal/errors"
)

func TestNewCSVWriter(t *testing.T) {
	paths := &config.Paths{}
	writer := NewCSVWriter(paths)

	assert.NotNil(t, writer)
	assert.Equal(t, paths, writer.paths)
}

func TestWriteCSV(t *testing.T) {
	// No EnsureDirectories here: the writer creates the export directory
	// on first use.
	paths := config.GetPathsFrom(t.TempDir())
	writer := NewCSVWriter(paths)

	err := writer.WriteCSV("test.csv",
		[]string{"geo_id", "val"},
		[][]string{{"ak", "100"}, {"al", "10"}})
	require.NoError(t, err)

	content, err := os.ReadFile(paths.ExportPath("test.csv"))
	require.NoError(t, err)
	assert.Equal(t, "geo_id,val\nak,100\nal,10\n", string(content))
	assert.False(t, bytes.HasPrefix(content, []byte{0xEF, 0xBB, 0xBF}))
}

func TestWriteCSV_AbsolutePath(t *testing.T) {
	paths := config.GetPathsFrom(t.TempDir())
	writer := NewCSVWriter(paths)

	target := filepath.Join(t.TempDir(), "nested", "out.csv")
	err := writer.WriteCSV(target, []string{"geo_id"}, [][]string{{"us"}})
	require.NoError(t, err)

	content, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "geo_id\nus\n", string(content))

	// Nothing leaked into the export directory.
	_, err = os.Stat(paths.ExportDir)
	assert.True(t, os.IsNotExist(err))
}

func TestWriteCSV_ReplacesExistingFile(t *testing.T) {
	paths := config.GetPathsFrom(t.TempDir())
	writer := NewCSVWriter(paths)

	require.NoError(t, writer.WriteCSV("out.csv",
		[]string{"geo_id", "val"},
		[][]string{{"ak", "1"}, {"al", "2"}, {"az", "3"}}))
	require.NoError(t, writer.WriteCSV("out.csv",
		[]string{"geo_id", "val"},
		[][]string{{"ak", "9"}}))

	content, err := os.ReadFile(paths.ExportPath("out.csv"))
	require.NoError(t, err)
	assert.Equal(t, "geo_id,val\nak,9\n", string(content))
}

func TestWriteCSV_NoHeaders(t *testing.T) {
	paths := config.GetPathsFrom(t.TempDir())
	writer := NewCSVWriter(paths)

	require.NoError(t, writer.WriteCSV("raw.csv", nil, [][]string{{"ak", "1"}}))

	content, err := os.ReadFile(paths.ExportPath("raw.csv"))
	require.NoError(t, err)
	assert.Equal(t, "ak,1\n", string(content))
}

func TestWriteCSV_DirectoryFailure(t *testing.T) {
	base := t.TempDir()
	paths := config.GetPathsFrom(base)
	require.NoError(t, os.MkdirAll(paths.DataDir, 0755))
	require.NoError(t, os.WriteFile(paths.ExportDir, []byte("file in the way"), 0644))

	writer := NewCSVWriter(paths)
	err := writer.WriteCSV("out.csv", []string{"geo_id"}, [][]string{{"ak"}})
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrTypeStorage, apperrors.TypeOf(err))
}
