package config

import "time"

// Application constants for the CPR indicator pipeline
const (
	// Application Info
	AppName    = "CPR Indicator"
	AppVersion = "1.0.0"

	// Data Source
	// The healthdata.gov catalog view that carries the Community Profile
	// Report workbook attachments.
	DefaultCatalogURL = "https://healthdata.gov/api/views/gqxm-d9w9"

	// Report selector values understood by the fetch layer. Anything
	// else must be a publish-date range "YYYY-MM-DD--YYYY-MM-DD".
	ReportsNew = "new"
	ReportsAll = "all"

	// Network Timeouts
	DefaultHTTPTimeout = 30 * time.Second
	ListingTimeout     = 15 * time.Second
	DownloadTimeout    = 5 * time.Minute

	// Rate Limiting for catalog requests
	DefaultRateRPS   = 2.0
	DefaultRateBurst = 1

	// File Layout (relative to the base directory)
	DefaultDataDir       = "data"
	DefaultLogsDir       = "logs"
	DefaultCacheDirName  = "cache"
	DefaultExportDirName = "receiving"

	// Daemon Settings
	DefaultRunInterval = 24 * time.Hour

	// Log Settings
	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
	DefaultLogFile   = "logs/indicator.log"

	// API Endpoints (status server)
	APIBasePath     = "/api/v1"
	StatusEndpoint  = "/api/v1/status"
	RunsEndpoint    = "/api/v1/runs"
	HealthEndpoint  = "/healthz"
	MetricsEndpoint = "/metrics"
)
