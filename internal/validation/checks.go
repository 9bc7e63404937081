package validation

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"regexp"
	"sort"
	"time"

	"github.com/montanaflynn/stats"

	"cprcli/internal/infrastructure"
	"cprcli/pkg/contracts/domain"
)

// geoPatterns are the recognized geo id shapes per geography level.
var geoPatterns = map[string]*regexp.Regexp{
	domain.LevelCounty: regexp.MustCompile(`^\d{5}$`),
	domain.LevelHHS:    regexp.MustCompile(`^\d{1,2}$`),
	domain.LevelMSA:    regexp.MustCompile(`^\d{5}$`),
	domain.LevelState:  regexp.MustCompile(`^[a-z]{2}$`),
	domain.LevelNation: regexp.MustCompile(`^[a-z]{2}$`),
}

// Bounds is the plausible value range for a signal, inclusive on both ends.
type Bounds struct {
	Min float64
	Max float64
}

// CheckConfig carries the thresholds for table checks.
type CheckConfig struct {
	// Bounds per signal. Values outside their signal's range are counted
	// as findings.
	Bounds map[domain.Signal]Bounds
	// MaxMissingShare is the largest tolerated fraction of rows without an
	// observation.
	MaxMissingShare float64
	// ExpectedLags holds raw expected-lag entries in the ConvertLagMap
	// grammar, keyed by signal name or "all".
	ExpectedLags map[string]string
	// DefaultLagDays applies to signals no lag entry covers.
	DefaultLagDays int
}

// DefaultCheckConfig returns the stock thresholds: totals are non-negative,
// positivity is a proportion, and up to half of a table may be missing
// before the table is flagged. County tables carry suppressed cells every
// week, so the missing tolerance stays generous. The expected lag covers a
// weekly publication cadence plus compilation time.
func DefaultCheckConfig() CheckConfig {
	return CheckConfig{
		Bounds: map[domain.Signal]Bounds{
			domain.SignalTotal:      {Min: 0, Max: math.Inf(1)},
			domain.SignalPositivity: {Min: 0, Max: 1},
		},
		MaxMissingShare: 0.5,
		ExpectedLags:    map[string]string{"all": "13"},
		DefaultLagDays:  13,
	}
}

// Finding is one failed check over a table.
type Finding struct {
	Check   string `json:"check"`
	Message string `json:"message"`
	Count   int    `json:"count,omitempty"`
}

// SummaryStats describes the distribution of the observed values in one
// table.
type SummaryStats struct {
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	StdDev float64 `json:"std_dev"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}

// TableReport is the outcome of checking one signal table.
type TableReport struct {
	Key          domain.TableKey `json:"key"`
	Rows         int             `json:"rows"`
	Missing      int             `json:"missing"`
	MissingShare float64         `json:"missing_share"`
	Stats        SummaryStats    `json:"stats"`
	Findings     []Finding       `json:"findings,omitempty"`
}

// OK reports whether every check passed.
func (r TableReport) OK() bool {
	return len(r.Findings) == 0
}

// Checker runs plausibility checks over extracted signal tables. Findings
// are advisory: they are logged and reported, not raised as errors, so a
// suspicious table still exports while drawing attention.
type Checker struct {
	cfg    CheckConfig
	logger *slog.Logger
}

// NewChecker creates a checker with the given thresholds.
func NewChecker(cfg CheckConfig, logger *slog.Logger) *Checker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Checker{
		cfg:    cfg,
		logger: infrastructure.WithComponent(logger, "validation"),
	}
}

// CheckTable inspects one table for malformed geo ids, out-of-range values,
// and excessive missingness, and summarizes the observed distribution.
func (c *Checker) CheckTable(ctx context.Context, table *domain.SignalTable) TableReport {
	report := TableReport{Key: table.Key(), Rows: len(table.Rows)}

	pattern, ok := geoPatterns[table.Level]
	if !ok {
		report.Findings = append(report.Findings, Finding{
			Check:   "geo_pattern",
			Message: fmt.Sprintf("no geo id pattern for level %q", table.Level),
		})
	}

	bounds, haveBounds := c.cfg.Bounds[table.Signal]
	if !haveBounds {
		report.Findings = append(report.Findings, Finding{
			Check:   "bounds",
			Message: fmt.Sprintf("no bounds configured for signal %q", table.Signal),
		})
	}

	var present []float64
	badGeo := make(map[string]struct{})
	outOfRange := 0
	for _, row := range table.Rows {
		if pattern != nil && !pattern.MatchString(row.GeoID) {
			badGeo[row.GeoID] = struct{}{}
		}
		if !row.HasValue() {
			report.Missing++
			continue
		}
		present = append(present, row.Val)
		if haveBounds && (row.Val < bounds.Min || row.Val > bounds.Max) {
			outOfRange++
		}
	}

	if len(badGeo) > 0 {
		ids := make([]string, 0, len(badGeo))
		for id := range badGeo {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		report.Findings = append(report.Findings, Finding{
			Check:   "geo_pattern",
			Message: fmt.Sprintf("geo ids do not match the %s pattern: %v", table.Level, ids),
			Count:   len(ids),
		})
	}

	if outOfRange > 0 {
		report.Findings = append(report.Findings, Finding{
			Check:   "bounds",
			Message: fmt.Sprintf("values outside [%g, %g]", bounds.Min, bounds.Max),
			Count:   outOfRange,
		})
	}

	if report.Rows > 0 {
		report.MissingShare = float64(report.Missing) / float64(report.Rows)
		if report.MissingShare > c.cfg.MaxMissingShare {
			report.Findings = append(report.Findings, Finding{
				Check: "missing_share",
				Message: fmt.Sprintf("%.0f%% of rows have no observation",
					report.MissingShare*100),
				Count: report.Missing,
			})
		}
	}

	if len(present) > 0 {
		summary, err := summarize(present)
		if err != nil {
			report.Findings = append(report.Findings, Finding{
				Check:   "summary_stats",
				Message: err.Error(),
			})
		} else {
			report.Stats = summary
		}
	} else {
		report.Findings = append(report.Findings, Finding{
			Check:   "no_data",
			Message: "table has no observed values",
		})
	}

	for _, f := range report.Findings {
		c.logger.WarnContext(ctx, "table check failed",
			slog.String("level", report.Key.Level),
			slog.String("signal", string(report.Key.Signal)),
			slog.String("check", f.Check),
			slog.String("detail", f.Message),
			slog.Int("count", f.Count))
	}
	c.logger.DebugContext(ctx, "table checked",
		slog.String("level", report.Key.Level),
		slog.String("signal", string(report.Key.Signal)),
		slog.Int("rows", report.Rows),
		slog.Int("missing", report.Missing),
		slog.Int("findings", len(report.Findings)))

	return report
}

// CheckFreshness flags a table whose newest reference date falls outside
// the span the signal's expected reporting lag allows. now anchors both the
// weekly lag entries and the acceptable window. The second return is false
// when the table is fresh.
func (c *Checker) CheckFreshness(ctx context.Context, table *domain.SignalTable, now time.Time) (Finding, bool) {
	dates := table.ReferenceDates()
	if len(dates) == 0 {
		return Finding{}, false
	}
	newest := dates[len(dates)-1]

	lags, err := ConvertLagMap(c.cfg.ExpectedLags, []string{string(table.Signal)}, c.cfg.DefaultLagDays, now)
	if err != nil {
		return c.freshnessFinding(ctx, table, Finding{
			Check:   "freshness",
			Message: err.Error(),
		}), true
	}

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	window, err := NewTimeWindow(today, lags[string(table.Signal)])
	if err != nil {
		return c.freshnessFinding(ctx, table, Finding{
			Check:   "freshness",
			Message: err.Error(),
		}), true
	}

	if !window.Contains(newest) {
		return c.freshnessFinding(ctx, table, Finding{
			Check: "freshness",
			Message: fmt.Sprintf("newest reference date %s outside expected span %s to %s",
				newest.Format("2006-01-02"),
				window.Start.Format("2006-01-02"),
				window.End.Format("2006-01-02")),
		}), true
	}
	return Finding{}, false
}

func (c *Checker) freshnessFinding(ctx context.Context, table *domain.SignalTable, f Finding) Finding {
	c.logger.WarnContext(ctx, "table check failed",
		slog.String("level", table.Level),
		slog.String("signal", string(table.Signal)),
		slog.String("check", f.Check),
		slog.String("detail", f.Message))
	return f
}

// summarize computes distribution statistics over the observed values.
func summarize(vals []float64) (SummaryStats, error) {
	data := stats.Float64Data(vals)

	var s SummaryStats
	var err error
	if s.Mean, err = stats.Mean(data); err != nil {
		return s, err
	}
	if s.Median, err = stats.Median(data); err != nil {
		return s, err
	}
	if s.StdDev, err = stats.StandardDeviation(data); err != nil {
		return s, err
	}
	if s.Min, err = stats.Min(data); err != nil {
		return s, err
	}
	if s.Max, err = stats.Max(data); err != nil {
		return s, err
	}
	return s, nil
}
