// Package config provides centralized configuration management for the CPR
// indicator pipeline. It handles loading configuration from multiple sources,
// validation, and provides a type-safe API for accessing configuration values
// throughout the application.
//
// # Configuration Sources
//
// Configuration is loaded from the following sources in order of precedence:
//
//	1. Environment variables (highest priority)
//	2. Configuration file (YAML)
//	3. Default values (lowest priority)
//
// # Environment Variables
//
// All environment variables follow the pattern CPR_* for namespacing:
//
//	CPR_SERVER_PORT=8090
//	CPR_FETCH_CATALOG_URL=https://healthdata.gov/api/views/gqxm-d9w9
//	CPR_FETCH_REPORTS=2021-10-01--2021-11-01
//	CPR_INDICATOR_SIGNALS=total,positivity
//	CPR_LOGGING_LEVEL=debug
//
// # Path Management
//
// The package provides centralized path management through the Paths type,
// which handles all file system paths relative to a single base directory
// (the executable location unless overridden):
//
//	paths, err := config.BuildPaths(cfg)
//	cached := paths.CachePath("abcd--Community Profile Report 20211104.xlsx")
//	out := paths.ExportPath("20211030_state_naats_positivity_7dav.csv")
//
// # Validation
//
// All configuration is validated at load time with go-playground/validator
// struct tags plus cross-field checks (export window ordering, report
// selector syntax).
//
// # Usage
//
// Load configuration at application startup:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
package config
