package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Paths contains all the application paths.
// This is the single source of truth for file locations: downloaded
// workbooks, exported CSV files, and logs all resolve through here.
type Paths struct {
	BaseDir   string
	DataDir   string
	CacheDir  string
	ExportDir string
	LogsDir   string
}

// GetPaths returns the application paths relative to the executable
// location. Paths never depend on the current working directory, so the
// binaries behave the same whether launched from a shell, cron, or a
// service manager.
func GetPaths() (*Paths, error) {
	exe, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("failed to get executable path: %v", err)
	}

	// Resolve symlinks to get the actual executable location
	exe, err = filepath.EvalSymlinks(exe)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve executable symlinks: %v", err)
	}

	return GetPathsFrom(filepath.Dir(exe)), nil
}

// GetPathsFrom returns the standard path layout rooted at baseDir:
//
//	base/
//	  ├── data/
//	  │   ├── cache/      (downloaded report workbooks)
//	  │   └── receiving/  (exported covidcast CSV files)
//	  └── logs/
func GetPathsFrom(baseDir string) *Paths {
	dataDir := filepath.Join(baseDir, DefaultDataDir)

	return &Paths{
		BaseDir:   baseDir,
		DataDir:   dataDir,
		CacheDir:  filepath.Join(dataDir, DefaultCacheDirName),
		ExportDir: filepath.Join(dataDir, DefaultExportDirName),
		LogsDir:   filepath.Join(baseDir, DefaultLogsDir),
	}
}

// BuildPaths resolves the path layout for cfg: the configured base
// directory when set, the executable directory otherwise, with per-dir
// overrides applied on top.
func BuildPaths(cfg *Config) (*Paths, error) {
	var paths *Paths
	if cfg.Paths.BaseDir != "" {
		paths = GetPathsFrom(cfg.Paths.BaseDir)
	} else {
		p, err := GetPaths()
		if err != nil {
			return nil, err
		}
		paths = p
	}

	if cfg.Paths.CacheDir != "" {
		paths.CacheDir = resolveAgainst(paths.BaseDir, cfg.Paths.CacheDir)
	}
	if cfg.Paths.ExportDir != "" {
		paths.ExportDir = resolveAgainst(paths.BaseDir, cfg.Paths.ExportDir)
	}

	return paths, nil
}

// resolveAgainst joins relative overrides onto base and keeps absolute
// overrides as given.
func resolveAgainst(base, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(base, path)
}

// EnsureDirectories creates all required directories if they don't exist
func (p *Paths) EnsureDirectories() error {
	directories := []string{
		p.DataDir,
		p.CacheDir,
		p.ExportDir,
		p.LogsDir,
	}

	for _, dir := range directories {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %v", dir, err)
		}
	}

	return nil
}

// CachePath returns the path for a cached report workbook
func (p *Paths) CachePath(filename string) string {
	return filepath.Join(p.CacheDir, filename)
}

// ExportPath returns the path for an exported CSV file
func (p *Paths) ExportPath(filename string) string {
	return filepath.Join(p.ExportDir, filename)
}

// LogPath returns the path for a log file
func (p *Paths) LogPath(filename string) string {
	return filepath.Join(p.LogsDir, filename)
}

// FileExists checks if a file exists
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}

// LogPathResolution logs detailed path resolution information for debugging
func (p *Paths) LogPathResolution() {
	logger := slog.Default()
	if logger == nil {
		return
	}

	logger.Info("Path resolution summary",
		slog.Group("directories",
			slog.String("base", p.BaseDir),
			slog.String("data", p.DataDir),
			slog.String("cache", p.CacheDir),
			slog.String("export", p.ExportDir),
			slog.String("logs", p.LogsDir),
		))
}
