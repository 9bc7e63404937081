package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strings"

	"cprcli/internal/config"
	apperrors "cprcli/internal/errors"
	"cprcli/internal/report"
	"cprcli/pkg/contracts/domain"
)

// Attachment is one file entry in the catalog view metadata.
type Attachment struct {
	Filename string `json:"filename"`
	AssetID  string `json:"assetId"`
}

// catalogView is the slice of the catalog document the pipeline reads.
type catalogView struct {
	Metadata struct {
		Attachments []Attachment `json:"attachments"`
	} `json:"metadata"`
}

// ListReports resolves the catalog listing into report descriptors, oldest
// publish date first, with the configured selector applied. An xlsx
// attachment whose filename carries no publish date fails the whole
// listing: guessing which reports to process is worse than stopping.
func (c *Client) ListReports(ctx context.Context) ([]domain.ReportFile, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	listingURL := c.cfg.CatalogURL + ".json"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, listingURL, nil)
	if err != nil {
		return nil, apperrors.NewRetrievalError("bad catalog URL "+listingURL, err)
	}

	resp, err := c.listClient.Do(req)
	if err != nil {
		return nil, apperrors.NewRetrievalError("catalog listing request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.NewRetrievalError(
			fmt.Sprintf("catalog listing returned status %d", resp.StatusCode), nil)
	}

	var view catalogView
	if err := json.NewDecoder(resp.Body).Decode(&view); err != nil {
		return nil, apperrors.NewRetrievalError("undecodable catalog listing", err)
	}

	files := make([]domain.ReportFile, 0, len(view.Metadata.Attachments))
	for _, att := range view.Metadata.Attachments {
		if !strings.HasSuffix(att.Filename, "xlsx") {
			continue
		}
		file, err := report.NewReportFile(att.Filename, att.AssetID)
		if err != nil {
			return nil, err
		}
		if !c.exportStart.IsZero() && file.PublishDate.Before(c.exportStart) {
			continue
		}
		files = append(files, file)
	}

	files, err = c.applySelector(files)
	if err != nil {
		return nil, err
	}

	sort.Slice(files, func(i, j int) bool {
		if files[i].PublishDate.Equal(files[j].PublishDate) {
			return files[i].Filename < files[j].Filename
		}
		return files[i].PublishDate.Before(files[j].PublishDate)
	})

	if c.metrics != nil {
		c.metrics.ReportsListedTotal.Add(ctx, int64(len(files)))
	}
	c.logger.InfoContext(ctx, "catalog listing resolved",
		slog.Int("attachments", len(view.Metadata.Attachments)),
		slog.Int("reports", len(files)),
		slog.String("selector", c.cfg.Reports))

	return files, nil
}

// applySelector filters files per the reports selector: "all" keeps
// everything, "new" keeps reports absent from the cache, and a
// YYYY-MM-DD--YYYY-MM-DD range keeps reports published inside it.
func (c *Client) applySelector(files []domain.ReportFile) ([]domain.ReportFile, error) {
	switch c.cfg.Reports {
	case config.ReportsAll:
		return files, nil

	case config.ReportsNew:
		kept := make([]domain.ReportFile, 0, len(files))
		for _, f := range files {
			if config.FileExists(c.paths.CachePath(f.CacheName())) {
				continue
			}
			kept = append(kept, f)
		}
		return kept, nil
	}

	start, end, ok, err := c.cfg.ReportsRange()
	if err != nil {
		return nil, apperrors.NewConfigError("bad reports selector", err)
	}
	if !ok {
		return nil, apperrors.NewConfigError("unrecognized reports selector "+c.cfg.Reports, nil)
	}

	kept := make([]domain.ReportFile, 0, len(files))
	for _, f := range files {
		if f.PublishDate.Before(start) || f.PublishDate.After(end) {
			continue
		}
		kept = append(kept, f)
	}
	return kept, nil
}
