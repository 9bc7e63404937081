package fetch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"time"

	apperrors "cprcli/internal/errors"
	"cprcli/internal/infrastructure"
	"cprcli/pkg/contracts/domain"
)

// attachmentURL builds the download URL for one catalog attachment.
func (c *Client) attachmentURL(file domain.ReportFile) string {
	return fmt.Sprintf("%s/files/%s?download=true&filename=%s",
		c.cfg.CatalogURL, file.AssetID, url.QueryEscape(file.Filename))
}

// Download fetches one report workbook into path. The bytes land in a
// temporary file first so an interrupted download never leaves a partial
// workbook where EnsureCached would trust it.
func (c *Client) Download(ctx context.Context, file domain.ReportFile, path string) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	start := time.Now()
	downloadURL := c.attachmentURL(file)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, downloadURL, nil)
	if err != nil {
		return apperrors.NewRetrievalError("bad attachment URL "+downloadURL, err)
	}

	resp, err := c.downloadClient.Do(req)
	if err != nil {
		return apperrors.NewRetrievalError("download request failed for "+file.Filename, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return apperrors.NewRetrievalError(
			fmt.Sprintf("download of %s returned status %d", file.Filename, resp.StatusCode), nil)
	}

	tmp := path + ".partial"
	out, err := os.Create(tmp)
	if err != nil {
		return apperrors.NewStorageError("can't create cache file "+tmp, err)
	}

	written, err := io.Copy(out, resp.Body)
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(tmp)
		return apperrors.NewRetrievalError("download interrupted for "+file.Filename, err)
	}

	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return apperrors.NewStorageError("can't move downloaded report into the cache", err)
	}

	infrastructure.RecordDownload(ctx, c.metrics, written, time.Since(start))
	c.logger.InfoContext(ctx, "report downloaded",
		slog.String("filename", file.Filename),
		slog.Int64("bytes", written),
		slog.Duration("elapsed", time.Since(start)))

	return nil
}
