package report

import (
	"strconv"
	"time"

	apperrors "cprcli/internal/errors"
	"cprcli/pkg/contracts/domain"
)

// ParsePublishDate extracts the publish date from a report filename. The
// date is the only identity a report carries, so a filename that does not
// encode one cannot be processed at all.
func ParsePublishDate(filename string) (time.Time, error) {
	m := reDateFromFilename.FindStringSubmatch(filename)
	if m == nil {
		return time.Time{}, apperrors.NewInputIdentityError(
			"no publish date in report filename "+strconv.Quote(filename), nil)
	}

	year, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	day, _ := strconv.Atoi(m[3])

	date := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if int(date.Month()) != month || date.Day() != day || date.Year() != year {
		return time.Time{}, apperrors.NewInputIdentityError(
			"impossible publish date in report filename "+strconv.Quote(filename), nil)
	}
	return date, nil
}

// NewReportFile builds a descriptor for one catalog attachment, deriving
// the publish date from the filename.
func NewReportFile(filename, assetID string) (domain.ReportFile, error) {
	publishDate, err := ParsePublishDate(filename)
	if err != nil {
		return domain.ReportFile{}, err
	}
	return domain.ReportFile{
		Filename:    filename,
		AssetID:     assetID,
		PublishDate: publishDate,
	}, nil
}
