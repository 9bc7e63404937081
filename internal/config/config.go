package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`
	Fetch     FetchConfig     `yaml:"fetch" envconfig:"FETCH"`
	Indicator IndicatorConfig `yaml:"indicator" envconfig:"INDICATOR"`
	Export    ExportConfig    `yaml:"export" envconfig:"EXPORT"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Paths     PathsConfig     `yaml:"paths" envconfig:"PATHS"`
}

// ServerConfig contains status server configuration
type ServerConfig struct {
	Enabled         bool          `yaml:"enabled" envconfig:"ENABLED"`
	Port            int           `yaml:"port" envconfig:"PORT" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT"`
}

// FetchConfig contains catalog listing and download configuration
type FetchConfig struct {
	CatalogURL     string        `yaml:"catalog_url" envconfig:"CATALOG_URL" validate:"required,url"`
	Reports        string        `yaml:"reports" envconfig:"REPORTS" validate:"required"`
	RequestTimeout time.Duration `yaml:"request_timeout" envconfig:"REQUEST_TIMEOUT"`
	RateRPS        float64       `yaml:"rate_rps" envconfig:"RATE_RPS" validate:"gt=0"`
	RateBurst      int           `yaml:"rate_burst" envconfig:"RATE_BURST" validate:"min=1"`
}

// IndicatorConfig contains extraction pipeline configuration
type IndicatorConfig struct {
	Signals []string `yaml:"signals" envconfig:"SIGNALS" validate:"min=1,dive,oneof=total positivity"`
	// FailFast aborts the whole batch on the first report failure
	// instead of recording it and continuing with the remaining files.
	FailFast    bool          `yaml:"fail_fast" envconfig:"FAIL_FAST"`
	RunInterval time.Duration `yaml:"run_interval" envconfig:"RUN_INTERVAL"`
}

// ExportConfig bounds the reference dates written out as CSV.
// Dates use the YYYY-MM-DD form; an empty value leaves that side of the
// window open.
type ExportConfig struct {
	StartDate string `yaml:"start_date" envconfig:"START_DATE"`
	EndDate   string `yaml:"end_date" envconfig:"END_DATE"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level       string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn error"`
	Format      string `yaml:"format" envconfig:"FORMAT"`
	Output      string `yaml:"output" envconfig:"OUTPUT"`
	FilePath    string `yaml:"file_path" envconfig:"FILE_PATH"`
	Development bool   `yaml:"development" envconfig:"DEVELOPMENT"`
}

// PathsConfig contains file system path overrides. Empty values fall back
// to the standard layout under the base directory.
type PathsConfig struct {
	BaseDir   string `yaml:"base_dir" envconfig:"BASE_DIR"`
	CacheDir  string `yaml:"cache_dir" envconfig:"CACHE_DIR"`
	ExportDir string `yaml:"export_dir" envconfig:"EXPORT_DIR"`
}

var reportsRangePattern = regexp.MustCompile(`^[0-9]{4}-[0-9]{2}-[0-9]{2}--[0-9]{4}-[0-9]{2}-[0-9]{2}$`)

// Load loads configuration from defaults, an optional YAML file, and
// environment variables, in increasing order of precedence.
func Load() (*Config, error) {
	cfg := Default()

	if configFile := getConfigFilePath(); configFile != "" {
		if err := loadFromFile(configFile, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	if err := envconfig.Process("CPR", cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadFromFile merges configuration from a YAML file into cfg. Keys absent
// from the file leave the existing values untouched.
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// Validate checks struct tags and cross-field rules
func (c *Config) Validate() error {
	// Normalize logging before validation: JSON is the only supported
	// format and unknown outputs fall back to dual output.
	if c.Logging.Format != "json" {
		c.Logging.Format = "json"
	}
	if c.Logging.Output != "console" && c.Logging.Output != "file" && c.Logging.Output != "both" {
		c.Logging.Output = "both"
	}
	if c.Logging.FilePath == "" {
		c.Logging.FilePath = DefaultLogFile
	}

	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	if _, _, _, err := c.Fetch.ReportsRange(); err != nil {
		return err
	}

	start, end, err := c.Export.Window()
	if err != nil {
		return err
	}
	if !start.IsZero() && !end.IsZero() && end.Before(start) {
		return fmt.Errorf("config validation failed: export end date %s before start date %s",
			c.Export.EndDate, c.Export.StartDate)
	}

	if c.Indicator.RunInterval < time.Minute {
		return fmt.Errorf("config validation failed: run interval %s below 1m", c.Indicator.RunInterval)
	}

	return nil
}

// ReportsRange parses the publish-date range form of the Reports selector.
// ok is false for the "new" and "all" selectors.
func (f FetchConfig) ReportsRange() (start, end time.Time, ok bool, err error) {
	switch f.Reports {
	case ReportsNew, ReportsAll:
		return time.Time{}, time.Time{}, false, nil
	}
	if !reportsRangePattern.MatchString(f.Reports) {
		return time.Time{}, time.Time{}, false,
			fmt.Errorf("config validation failed: reports selector %q is not %q, %q, or a YYYY-MM-DD--YYYY-MM-DD range",
				f.Reports, ReportsNew, ReportsAll)
	}
	start, err = time.Parse("2006-01-02", f.Reports[:10])
	if err == nil {
		end, err = time.Parse("2006-01-02", f.Reports[12:])
	}
	if err != nil {
		return time.Time{}, time.Time{}, false,
			fmt.Errorf("config validation failed: reports range %q: %w", f.Reports, err)
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, false,
			fmt.Errorf("config validation failed: reports range %q ends before it starts", f.Reports)
	}
	return start, end, true, nil
}

// Window returns the configured export window. A zero start or end leaves
// that side unbounded.
func (e ExportConfig) Window() (start, end time.Time, err error) {
	if e.StartDate != "" {
		start, err = time.Parse("2006-01-02", e.StartDate)
		if err != nil {
			return time.Time{}, time.Time{},
				fmt.Errorf("config validation failed: export start date %q: %w", e.StartDate, err)
		}
	}
	if e.EndDate != "" {
		end, err = time.Parse("2006-01-02", e.EndDate)
		if err != nil {
			return time.Time{}, time.Time{},
				fmt.Errorf("config validation failed: export end date %q: %w", e.EndDate, err)
		}
	}
	return start, end, nil
}

// getConfigFilePath returns the path of the first config file found
func getConfigFilePath() string {
	if path := os.Getenv("CPR_CONFIG_FILE"); path != "" {
		return path
	}

	locations := []string{
		"config.yaml",
		"configs/config.yaml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return "" // No config file found, use env vars only
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Enabled:         false,
			Port:            8090,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		Fetch: FetchConfig{
			CatalogURL:     DefaultCatalogURL,
			Reports:        ReportsNew,
			RequestTimeout: DefaultHTTPTimeout,
			RateRPS:        DefaultRateRPS,
			RateBurst:      DefaultRateBurst,
		},
		Indicator: IndicatorConfig{
			Signals:     []string{"total", "positivity"},
			FailFast:    false,
			RunInterval: DefaultRunInterval,
		},
		Logging: LoggingConfig{
			Level:       DefaultLogLevel,
			Format:      DefaultLogFormat,
			Output:      "both",
			FilePath:    DefaultLogFile,
			Development: false,
		},
	}
}
