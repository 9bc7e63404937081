package domain

import (
	"time"
)

// ReportFile describes one published workbook attachment from the
// healthdata.gov catalog.
type ReportFile struct {
	// Filename is the attachment name as published, e.g.
	// "Community Profile Report 20211104.xlsx".
	Filename string `json:"filename" validate:"required"`
	// AssetID is the catalog asset identifier used to build the
	// download URL and the cache file name.
	AssetID string `json:"asset_id" validate:"required"`
	// PublishDate is derived from the digit group in Filename.
	PublishDate time.Time `json:"publish_date"`
	// CachedPath is the location of the downloaded copy on disk, set
	// once the file has been fetched.
	CachedPath string `json:"cached_path,omitempty"`
}

// CacheName returns the on-disk name for the downloaded attachment.
// Prefixing the asset id keeps re-published files with identical
// filenames from colliding.
func (f ReportFile) CacheName() string {
	return f.AssetID + "--" + f.Filename
}

// BatchStatus represents the outcome of one ingestion run.
type BatchStatus string

const (
	BatchStatusPending   BatchStatus = "pending"
	BatchStatusRunning   BatchStatus = "running"
	BatchStatusCompleted BatchStatus = "completed"
	BatchStatusFailed    BatchStatus = "failed"
	BatchStatusPartial   BatchStatus = "partial"
)

// FileFailure records a report file that could not be ingested and why.
// Failures are kept per file so one drifted report does not hide the
// outcome of its siblings.
type FileFailure struct {
	Filename string `json:"filename"`
	Reason   string `json:"reason"`
	Error    string `json:"error"`
}

// BatchResult summarizes one ingestion run over a set of report files.
type BatchResult struct {
	RunID         string        `json:"run_id"`
	Status        BatchStatus   `json:"status"`
	StartedAt     time.Time     `json:"started_at"`
	Duration      time.Duration `json:"duration"`
	FilesListed   int           `json:"files_listed"`
	FilesParsed   int           `json:"files_parsed"`
	FilesFailed   int           `json:"files_failed"`
	Failures      []FileFailure `json:"failures,omitempty"`
	TablesBuilt   int           `json:"tables_built"`
	RowsExtracted int           `json:"rows_extracted"`
}
