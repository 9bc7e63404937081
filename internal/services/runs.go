package services

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"cprcli/internal/infrastructure"
)

// RunState describes where a run is in its lifecycle.
type RunState string

const (
	RunStateRunning   RunState = "running"
	RunStateSucceeded RunState = "succeeded"
	RunStateFailed    RunState = "failed"
)

// Trigger sources recorded on run records.
const (
	SourceSchedule = "schedule"
	SourceAPI      = "api"
	SourceCLI      = "cli"
)

// defaultHistoryLimit caps how many completed runs stay in memory.
const defaultHistoryLimit = 20

// RunRequest asks for one ingestion run. Reports overrides the configured
// reports selector for this run only; empty means use the configured one.
type RunRequest struct {
	Reports string
	Source  string
}

// RunResult carries the summary of a finished run back to the service.
type RunResult struct {
	CSVFiles        int
	MaxLagDays      int
	OldestFinalDate time.Time
	Err             error
}

// RunRecord is the externally visible state of one run.
type RunRecord struct {
	ID              string     `json:"id"`
	State           RunState   `json:"state"`
	Source          string     `json:"source,omitempty"`
	Reports         string     `json:"reports,omitempty"`
	StartedAt       time.Time  `json:"started_at"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
	CSVFiles        int        `json:"csv_files"`
	MaxLagDays      int        `json:"max_lag_days"`
	OldestFinalDate string     `json:"oldest_final_date,omitempty"`
	Error           string     `json:"error,omitempty"`
}

// StatusSnapshot summarizes the service for the status endpoint.
type StatusSnapshot struct {
	Running       bool       `json:"running"`
	Current       *RunRecord `json:"current,omitempty"`
	LastCompleted *RunRecord `json:"last_completed,omitempty"`
	TotalRuns     int        `json:"total_runs"`
}

// RunService tracks ingestion run lifecycle and queues manual triggers.
// One goroutine (the daemon loop) consumes Triggers and calls BeginRun and
// CompleteRun; any number of HTTP handlers call the other methods.
type RunService struct {
	logger *slog.Logger

	mu           sync.Mutex
	current      *RunRecord
	history      []RunRecord
	historyLimit int
	totalRuns    int

	triggers chan RunRequest
}

// NewRunService creates a run coordination service.
func NewRunService(logger *slog.Logger) *RunService {
	if logger == nil {
		logger = slog.Default()
	}
	return &RunService{
		logger:       infrastructure.WithComponent(logger, "runs"),
		historyLimit: defaultHistoryLimit,
		triggers:     make(chan RunRequest, 1),
	}
}

// TryTrigger queues a run request without blocking. It fails with
// ErrRunInFlight while a run executes and ErrTriggerPending when an earlier
// trigger has not been picked up yet.
func (s *RunService) TryTrigger(ctx context.Context, req RunRequest) error {
	s.mu.Lock()
	running := s.current != nil
	s.mu.Unlock()

	if running {
		return ErrRunInFlight
	}

	select {
	case s.triggers <- req:
		s.logger.InfoContext(ctx, "run trigger accepted",
			slog.String("source", req.Source),
			slog.String("reports", req.Reports))
		return nil
	default:
		return ErrTriggerPending
	}
}

// Triggers exposes the queued run requests for the daemon loop to consume.
func (s *RunService) Triggers() <-chan RunRequest {
	return s.triggers
}

// BeginRun marks a run as started and returns its record.
func (s *RunService) BeginRun(ctx context.Context, req RunRequest) RunRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := RunRecord{
		ID:        uuid.New().String(),
		State:     RunStateRunning,
		Source:    req.Source,
		Reports:   req.Reports,
		StartedAt: time.Now().UTC(),
	}
	current := rec
	s.current = &current
	s.totalRuns++

	s.logger.InfoContext(ctx, "run started",
		slog.String("run_id", rec.ID),
		slog.String("source", rec.Source),
		slog.String("reports", rec.Reports))

	return rec
}

// CompleteRun records the outcome of the run started under id. Completions
// for unknown runs are logged and dropped.
func (s *RunService) CompleteRun(ctx context.Context, id string, result RunResult) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil || s.current.ID != id {
		s.logger.WarnContext(ctx, "completion for unknown run", slog.String("run_id", id))
		return
	}

	rec := *s.current
	now := time.Now().UTC()
	rec.CompletedAt = &now
	rec.CSVFiles = result.CSVFiles

	if result.Err != nil {
		rec.State = RunStateFailed
		rec.Error = result.Err.Error()
		s.logger.ErrorContext(ctx, "run failed",
			slog.String("run_id", rec.ID),
			slog.String("error", rec.Error))
	} else {
		rec.State = RunStateSucceeded
		rec.MaxLagDays = result.MaxLagDays
		if !result.OldestFinalDate.IsZero() {
			rec.OldestFinalDate = result.OldestFinalDate.Format("2006-01-02")
		}
		s.logger.InfoContext(ctx, "run completed",
			slog.String("run_id", rec.ID),
			slog.Int("csv_files", rec.CSVFiles),
			slog.Int("max_lag_days", rec.MaxLagDays),
			slog.String("oldest_final_date", rec.OldestFinalDate),
			slog.Duration("elapsed", now.Sub(rec.StartedAt)))
	}

	s.history = append([]RunRecord{rec}, s.history...)
	if len(s.history) > s.historyLimit {
		s.history = s.history[:s.historyLimit]
	}
	s.current = nil
}

// Status returns a point-in-time snapshot for the status endpoint.
func (s *RunService) Status() StatusSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := StatusSnapshot{
		Running:   s.current != nil,
		TotalRuns: s.totalRuns,
	}
	if s.current != nil {
		current := *s.current
		snap.Current = &current
	}
	if len(s.history) > 0 {
		last := s.history[0]
		snap.LastCompleted = &last
	}
	return snap
}

// History returns up to limit completed runs, most recent first. A limit of
// zero or less means all retained runs.
func (s *RunService) History(limit int) []RunRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.history)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]RunRecord, n)
	copy(out, s.history[:n])
	return out
}

// Get looks up a run by ID among the current run and retained history.
func (s *RunService) Get(id string) (RunRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current != nil && s.current.ID == id {
		return *s.current, nil
	}
	for _, rec := range s.history {
		if rec.ID == id {
			return rec, nil
		}
	}
	return RunRecord{}, ErrRunNotFound
}
