// Package geo rolls signal tables up across geography levels. The only
// production mapping is state to nation: report sheets carry hhs, state,
// msa and county series directly, and the national series is derived.
package geo

import (
	"fmt"
	"log/slog"
	"sort"
	"time"

	apperrors "cprcli/internal/errors"
	"cprcli/internal/infrastructure"
	"cprcli/pkg/contracts/domain"
)

// nationGeoID is the geo id the national series is published under.
const nationGeoID = "us"

// stateCodes lists the postal codes the national rollup accepts: the 50
// states, DC, and the territories the reports publish. Codes outside this
// set never contribute to the national sum.
var stateCodes = map[string]struct{}{
	"al": {}, "ak": {}, "az": {}, "ar": {}, "ca": {}, "co": {}, "ct": {},
	"de": {}, "dc": {}, "fl": {}, "ga": {}, "hi": {}, "id": {}, "il": {},
	"in": {}, "ia": {}, "ks": {}, "ky": {}, "la": {}, "me": {}, "md": {},
	"ma": {}, "mi": {}, "mn": {}, "ms": {}, "mo": {}, "mt": {}, "ne": {},
	"nv": {}, "nh": {}, "nj": {}, "nm": {}, "ny": {}, "nc": {}, "nd": {},
	"oh": {}, "ok": {}, "or": {}, "pa": {}, "ri": {}, "sc": {}, "sd": {},
	"tn": {}, "tx": {}, "ut": {}, "vt": {}, "va": {}, "wa": {}, "wv": {},
	"wi": {}, "wy": {},
	"as": {}, "gu": {}, "mp": {}, "pr": {}, "vi": {},
}

// Mapper aggregates signal tables across geography levels.
type Mapper struct {
	logger *slog.Logger
}

// NewMapper creates a mapper.
func NewMapper(logger *slog.Logger) *Mapper {
	if logger == nil {
		logger = slog.Default()
	}
	return &Mapper{logger: infrastructure.WithComponent(logger, "geo")}
}

// Aggregate rolls table up from fromLevel to toLevel. State to nation sums
// values per reference date into the "us" geo id; missing observations are
// skipped rather than poisoning the sum, and geo ids outside the state
// code set are dropped with a warning.
func (m *Mapper) Aggregate(table *domain.SignalTable, fromLevel, toLevel string) (*domain.SignalTable, error) {
	if fromLevel != domain.LevelState || toLevel != domain.LevelNation {
		return nil, apperrors.NewValidationError(fmt.Sprintf(
			"unsupported aggregation %s to %s", fromLevel, toLevel))
	}

	sums := make(map[time.Time]float64)
	unknown := make(map[string]struct{})
	for _, row := range table.Rows {
		if _, ok := stateCodes[row.GeoID]; !ok {
			unknown[row.GeoID] = struct{}{}
			continue
		}
		if !row.HasValue() {
			continue
		}
		sums[row.Timestamp] += row.Val
	}

	if len(unknown) > 0 {
		codes := make([]string, 0, len(unknown))
		for code := range unknown {
			codes = append(codes, code)
		}
		sort.Strings(codes)
		m.logger.Warn("dropping unknown state codes from national rollup",
			slog.String("signal", string(table.Signal)),
			slog.Any("codes", codes))
	}

	timestamps := make([]time.Time, 0, len(sums))
	for ts := range sums {
		timestamps = append(timestamps, ts)
	}
	sort.Slice(timestamps, func(i, j int) bool { return timestamps[i].Before(timestamps[j]) })

	out := &domain.SignalTable{Level: toLevel, Signal: table.Signal}
	for _, ts := range timestamps {
		out.Append(domain.SignalRow{GeoID: nationGeoID, Timestamp: ts, Val: sums[ts]})
	}
	return out, nil
}
