package app

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"cprcli/internal/config"
	"cprcli/internal/exporter"
	"cprcli/internal/fetch"
	"cprcli/internal/geo"
	"cprcli/internal/infrastructure"
	"cprcli/internal/report"
	"cprcli/internal/services"
	httptransport "cprcli/internal/transport/http"
	"cprcli/internal/validation"
	"cprcli/pkg/contracts/domain"
)

// Application is the assembled indicator pipeline.
type Application struct {
	Config        *config.Config
	Paths         *config.Paths
	Logger        *slog.Logger
	OTelProviders *infrastructure.OTelProviders
	Metrics       *infrastructure.BusinessMetrics
	Runs          *services.RunService

	exportStart time.Time
	exportEnd   time.Time
	mapper      *geo.Mapper
	exporter    *exporter.Exporter
	checker     *validation.Checker
	server      *httptransport.Server
}

// New loads configuration and assembles the application.
func New() (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	logger.Info("application starting",
		slog.String("name", config.AppName),
		slog.String("version", config.AppVersion))

	paths, err := config.BuildPaths(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve paths: %w", err)
	}
	if err := paths.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to ensure directories: %w", err)
	}
	paths.LogPathResolution()

	if err := validation.NewFileValidator(logger).ValidateOutputDirectory(paths.ExportDir); err != nil {
		return nil, fmt.Errorf("export directory preflight failed: %w", err)
	}

	otelProviders, err := infrastructure.InitializeOTel(infrastructure.DefaultOTelConfig(), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	var metrics *infrastructure.BusinessMetrics
	if otelProviders.Meter != nil {
		metrics, err = infrastructure.CreateBusinessMetrics(otelProviders.Meter)
		if err != nil {
			return nil, fmt.Errorf("failed to create business metrics: %w", err)
		}
	}

	exportStart, exportEnd, err := cfg.Export.Window()
	if err != nil {
		return nil, err
	}

	app := &Application{
		Config:        cfg,
		Paths:         paths,
		Logger:        logger,
		OTelProviders: otelProviders,
		Metrics:       metrics,
		Runs:          services.NewRunService(logger),
		exportStart:   exportStart,
		exportEnd:     exportEnd,
		mapper:        geo.NewMapper(logger),
		exporter:      exporter.NewExporter(paths, logger).WithMetrics(metrics),
		checker:       validation.NewChecker(validation.DefaultCheckConfig(), logger),
	}

	if cfg.Server.Enabled {
		router := httptransport.NewRouter(httptransport.RouterDeps{
			Logger:  logger,
			Runs:    app.Runs,
			Metrics: otelProviders.PrometheusHTTP,
			Version: config.AppVersion,
		})
		app.server = httptransport.NewServer(cfg.Server, router, logger)
	}

	return app, nil
}

// RunOnce executes a single ingestion run and returns its outcome. The run
// is recorded in the run history like any scheduled one.
func (a *Application) RunOnce(ctx context.Context, reports string) error {
	result := a.performRun(ctx, services.RunRequest{Source: services.SourceCLI, Reports: reports})
	return result.Err
}

// Run executes the daemon: one ingestion run at startup, then one per
// configured interval, plus any runs triggered through the status API. The
// status server, when enabled, serves alongside the loop. Run returns once
// ctx is canceled and both have wound down.
func (a *Application) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	if a.server != nil {
		g.Go(func() error { return a.server.Start(ctx) })
	}
	g.Go(func() error { return a.runLoop(ctx) })

	return g.Wait()
}

func (a *Application) runLoop(ctx context.Context) error {
	ticker := time.NewTicker(a.Config.Indicator.RunInterval)
	defer ticker.Stop()

	a.performRun(ctx, services.RunRequest{Source: services.SourceSchedule})

	for {
		select {
		case <-ctx.Done():
			a.Logger.Info("run loop stopping")
			return nil
		case req := <-a.Runs.Triggers():
			a.performRun(ctx, req)
		case <-ticker.C:
			a.performRun(ctx, services.RunRequest{Source: services.SourceSchedule})
		}
	}
}

// performRun records run boundaries around one execution.
func (a *Application) performRun(ctx context.Context, req services.RunRequest) services.RunResult {
	ctx = infrastructure.EnsureTraceID(ctx)
	if a.OTelProviders != nil && a.OTelProviders.Tracer != nil {
		var span trace.Span
		ctx, span = a.OTelProviders.Tracer.Start(ctx, "indicator.run",
			trace.WithAttributes(attribute.String("run.source", req.Source)))
		defer span.End()
	}

	rec := a.Runs.BeginRun(ctx, req)
	result := a.executeRun(ctx, req.Reports)
	if result.Err != nil {
		infrastructure.RecordError(ctx, result.Err)
	}
	a.Runs.CompleteRun(ctx, rec.ID, result)
	return result
}

// executeRun performs one ingestion run: list the catalog, extract every
// selected report, sanity-check the merged tables, and export them as
// covidcast CSV files. reports overrides the configured selector for this
// run when non-empty.
func (a *Application) executeRun(ctx context.Context, reports string) services.RunResult {
	fetchCfg := a.Config.Fetch
	if reports != "" {
		fetchCfg.Reports = reports
	}
	client := fetch.NewClient(fetchCfg, a.exportStart, a.Paths, a.Logger).WithMetrics(a.Metrics)

	files, err := client.ListReports(ctx)
	if err != nil {
		return services.RunResult{Err: err}
	}

	asm := report.NewAssembler(client, a.mapper, report.AssemblerConfig{
		Signals:  a.signals(),
		FailFast: a.Config.Indicator.FailFast,
	}, a.Logger).WithMetrics(a.Metrics)

	tables, batch, err := asm.Run(ctx, files)
	if err != nil {
		return services.RunResult{Err: err}
	}
	if batch.Status == domain.BatchStatusFailed {
		return services.RunResult{Err: fmt.Errorf("all %d listed reports failed extraction", batch.FilesFailed)}
	}

	keys := make([]domain.TableKey, 0, len(tables))
	for key := range tables {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Level != keys[j].Level {
			return keys[i].Level < keys[j].Level
		}
		return keys[i].Signal < keys[j].Signal
	})

	var stats exporter.RunStats
	now := time.Now().UTC()
	for _, key := range keys {
		table := tables[key]
		a.checker.CheckTable(ctx, table)
		a.checker.CheckFreshness(ctx, table, now)

		dates, err := a.exporter.Export(ctx, table, a.exportStart, a.exportEnd)
		if err != nil {
			return services.RunResult{Err: err}
		}
		stats.Observe(dates)
	}

	result := services.RunResult{CSVFiles: stats.CSVCount()}
	if oldest, ok := stats.OldestFinalDate(); ok {
		result.OldestFinalDate = oldest
		result.MaxLagDays, _ = stats.MaxLagDays(now)
	}
	return result
}

func (a *Application) signals() []domain.Signal {
	sigs := make([]domain.Signal, 0, len(a.Config.Indicator.Signals))
	for _, s := range a.Config.Indicator.Signals {
		sigs = append(sigs, domain.Signal(s))
	}
	return sigs
}

// Close releases observability resources. Call after Run or RunOnce has
// returned.
func (a *Application) Close(ctx context.Context) error {
	var firstErr error
	if a.OTelProviders != nil {
		if err := a.OTelProviders.Shutdown(ctx); err != nil {
			a.Logger.Error("OpenTelemetry shutdown failed", slog.String("error", err.Error()))
			firstErr = err
		}
	}
	if err := infrastructure.CloseLogFile(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
