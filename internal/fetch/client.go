package fetch

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"golang.org/x/time/rate"

	"cprcli/internal/config"
	"cprcli/internal/infrastructure"
	"cprcli/pkg/contracts/domain"
)

// Client lists and downloads report workbooks from the catalog. Listing and
// download requests share one rate limiter so a large backfill cannot
// hammer the catalog host.
type Client struct {
	cfg            config.FetchConfig
	exportStart    time.Time
	listClient     *http.Client
	downloadClient *http.Client
	limiter        *rate.Limiter
	paths          *config.Paths
	logger         *slog.Logger
	metrics        *infrastructure.BusinessMetrics
}

// NewClient creates a catalog client. Reports published before exportStart
// are never listed; a zero exportStart keeps the whole history.
func NewClient(cfg config.FetchConfig, exportStart time.Time, paths *config.Paths, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}

	listTimeout := cfg.RequestTimeout
	if listTimeout <= 0 {
		listTimeout = config.ListingTimeout
	}

	limit := rate.Limit(cfg.RateRPS)
	if cfg.RateRPS <= 0 {
		limit = rate.Inf
	}
	burst := cfg.RateBurst
	if burst < 1 {
		burst = 1
	}

	return &Client{
		cfg:            cfg,
		exportStart:    exportStart,
		listClient:     &http.Client{Timeout: listTimeout},
		downloadClient: &http.Client{Timeout: config.DownloadTimeout},
		limiter:        rate.NewLimiter(limit, burst),
		paths:          paths,
		logger:         infrastructure.WithComponent(logger, "fetch"),
	}
}

// WithMetrics attaches fetch metrics recording and returns the client.
func (c *Client) WithMetrics(m *infrastructure.BusinessMetrics) *Client {
	c.metrics = m
	return c
}

// EnsureCached returns the local path of the report workbook, downloading
// it when the cache does not already hold a copy. The second result
// reports whether the cache was hit.
func (c *Client) EnsureCached(ctx context.Context, file domain.ReportFile) (string, bool, error) {
	path := c.paths.CachePath(file.CacheName())
	if _, err := os.Stat(path); err == nil {
		c.logger.DebugContext(ctx, "cache hit",
			slog.String("filename", file.Filename))
		return path, true, nil
	}

	if err := c.Download(ctx, file, path); err != nil {
		return "", false, err
	}
	return path, false, nil
}
