package report

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	apperrors "cprcli/internal/errors"
	"cprcli/internal/infrastructure"
	"cprcli/pkg/contracts/domain"
)

// Fetcher supplies local copies of report files.
type Fetcher interface {
	// EnsureCached returns the local path of the report file, downloading
	// it when the cache does not already hold a copy. The second result
	// reports whether the cache was hit.
	EnsureCached(ctx context.Context, file domain.ReportFile) (string, bool, error)
}

// GeoAggregator rolls a signal table up from one geography level to another.
type GeoAggregator interface {
	Aggregate(table *domain.SignalTable, fromLevel, toLevel string) (*domain.SignalTable, error)
}

// AssemblerConfig bundles the extraction policy knobs.
type AssemblerConfig struct {
	// Sheets to extract from every report file. Nil means Sheets().
	Sheets []SheetSpec
	// Signals to extract. Nil means domain.Signals().
	Signals []domain.Signal
	// FailFast aborts the whole batch on the first file failure instead
	// of isolating it and continuing with the remaining files.
	FailFast bool
}

// Assembler runs extraction across the sheets of every report file in a
// batch and merges the per-(level, signal) tables in file order.
type Assembler struct {
	fetcher  Fetcher
	geo      GeoAggregator
	sheets   []SheetSpec
	signals  []domain.Signal
	failFast bool
	logger   *slog.Logger
	metrics  *infrastructure.BusinessMetrics
}

// NewAssembler creates an assembler over the given collaborators. A nil geo
// aggregator skips nation derivation.
func NewAssembler(fetcher Fetcher, geo GeoAggregator, cfg AssemblerConfig, logger *slog.Logger) *Assembler {
	if cfg.Sheets == nil {
		cfg.Sheets = Sheets()
	}
	if cfg.Signals == nil {
		cfg.Signals = domain.Signals()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Assembler{
		fetcher:  fetcher,
		geo:      geo,
		sheets:   cfg.Sheets,
		signals:  cfg.Signals,
		failFast: cfg.FailFast,
		logger:   infrastructure.WithComponent(logger, "assembler"),
	}
}

// WithMetrics attaches pipeline metrics recording and returns the assembler.
func (a *Assembler) WithMetrics(m *infrastructure.BusinessMetrics) *Assembler {
	a.metrics = m
	return a
}

// ProcessFile extracts every configured sheet of one report file into one
// table per (level, signal). Re-processing the same bytes yields identical
// table contents.
func (a *Assembler) ProcessFile(ctx context.Context, file domain.ReportFile) (_ map[domain.TableKey]*domain.SignalTable, err error) {
	start := time.Now()
	defer func() {
		infrastructure.RecordReportParse(ctx, a.metrics, file.Filename, time.Since(start), err)
	}()

	if file.PublishDate.IsZero() {
		file.PublishDate, err = ParsePublishDate(file.Filename)
		if err != nil {
			return nil, err
		}
	}

	path := file.CachedPath
	if path == "" {
		var hit bool
		path, hit, err = a.fetcher.EnsureCached(ctx, file)
		if err != nil {
			return nil, err
		}
		infrastructure.RecordCacheAccess(ctx, a.metrics, hit)
	}

	w, err := OpenWorkbook(path)
	if err != nil {
		return nil, err
	}
	defer w.Close()

	out := make(map[domain.TableKey]*domain.SignalTable, len(a.sheets)*len(a.signals))
	for _, spec := range a.sheets {
		a.logger.InfoContext(ctx, "building tables",
			slog.String("sheet", spec.Name),
			slog.String("filename", file.Filename))

		raw, err := w.ReadSheet(spec.Name)
		if err != nil {
			return nil, err
		}

		tables, err := ExtractSheet(raw, spec, file.PublishDate, a.signals)
		if err != nil {
			return nil, err
		}

		mergeTables(out, tables)
		if a.metrics != nil {
			a.metrics.SheetsExtractedTotal.Add(ctx, 1)
		}
	}
	return out, nil
}

// Run processes a batch of report files. Per-file failures are recorded and
// isolated so one drifted report does not block its siblings, unless
// FailFast aborts the batch on first failure. Nation tables are derived
// from the merged state tables at the end.
func (a *Assembler) Run(ctx context.Context, files []domain.ReportFile) (map[domain.TableKey]*domain.SignalTable, *domain.BatchResult, error) {
	result := &domain.BatchResult{
		RunID:       uuid.New().String(),
		Status:      domain.BatchStatusRunning,
		StartedAt:   time.Now(),
		FilesListed: len(files),
	}

	infrastructure.RecordActiveRunChange(ctx, a.metrics, 1)
	defer infrastructure.RecordActiveRunChange(ctx, a.metrics, -1)

	a.logger.InfoContext(ctx, "starting batch",
		slog.String("run_id", result.RunID),
		slog.Int("files", len(files)))

	merged := make(map[domain.TableKey]*domain.SignalTable)

	for _, file := range files {
		if ctxErr := ctx.Err(); ctxErr != nil {
			result.Status = domain.BatchStatusFailed
			result.Duration = time.Since(result.StartedAt)
			infrastructure.RecordRunMetrics(ctx, a.metrics, result.RunID, result.Duration, false, ctxErr)
			return nil, result, ctxErr
		}

		tables, err := a.ProcessFile(ctx, file)
		if err != nil {
			result.FilesFailed++
			result.Failures = append(result.Failures, domain.FileFailure{
				Filename: file.Filename,
				Reason:   string(apperrors.TypeOf(err)),
				Error:    err.Error(),
			})
			a.logger.ErrorContext(ctx, "report extraction failed",
				slog.String("run_id", result.RunID),
				slog.String("filename", file.Filename),
				slog.String("error", err.Error()))

			if a.failFast {
				result.Status = domain.BatchStatusFailed
				result.Duration = time.Since(result.StartedAt)
				infrastructure.RecordRunMetrics(ctx, a.metrics, result.RunID, result.Duration, false, err)
				return nil, result, err
			}
			continue
		}

		result.FilesParsed++
		mergeTables(merged, tables)
	}

	if err := a.deriveNation(merged); err != nil {
		result.Status = domain.BatchStatusFailed
		result.Duration = time.Since(result.StartedAt)
		infrastructure.RecordRunMetrics(ctx, a.metrics, result.RunID, result.Duration, false, err)
		return nil, result, err
	}

	result.TablesBuilt = len(merged)
	for _, table := range merged {
		result.RowsExtracted += len(table.Rows)
	}
	result.Duration = time.Since(result.StartedAt)

	switch {
	case result.FilesListed > 0 && result.FilesParsed == 0 && result.FilesFailed > 0:
		result.Status = domain.BatchStatusFailed
	case result.FilesFailed > 0:
		result.Status = domain.BatchStatusPartial
	default:
		result.Status = domain.BatchStatusCompleted
	}

	if a.metrics != nil {
		a.metrics.RowsExtractedTotal.Add(ctx, int64(result.RowsExtracted))
	}
	infrastructure.RecordRunMetrics(ctx, a.metrics, result.RunID, result.Duration,
		result.Status == domain.BatchStatusCompleted, nil)

	a.logger.InfoContext(ctx, "batch complete",
		slog.String("run_id", result.RunID),
		slog.String("status", string(result.Status)),
		slog.Int("files_parsed", result.FilesParsed),
		slog.Int("files_failed", result.FilesFailed),
		slog.Int("tables_built", result.TablesBuilt),
		slog.Int("rows_extracted", result.RowsExtracted),
		slog.Duration("duration", result.Duration))

	return merged, result, nil
}

// deriveNation adds a nation-level table per signal, aggregated from the
// merged state table.
func (a *Assembler) deriveNation(tables map[domain.TableKey]*domain.SignalTable) error {
	if a.geo == nil {
		return nil
	}
	for _, sig := range a.signals {
		state, ok := tables[domain.TableKey{Level: domain.LevelState, Signal: sig}]
		if !ok {
			continue
		}
		nation, err := a.geo.Aggregate(state, domain.LevelState, domain.LevelNation)
		if err != nil {
			return err
		}
		tables[domain.TableKey{Level: domain.LevelNation, Signal: sig}] = nation
	}
	return nil
}

func mergeTables(dst, src map[domain.TableKey]*domain.SignalTable) {
	for key, table := range src {
		if existing, ok := dst[key]; ok {
			existing.Merge(table)
		} else {
			dst[key] = table
		}
	}
}
