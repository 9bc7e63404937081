package exporter

import (
	"math"
	"strconv"
)

// formatValue renders an observation value rounded to seven decimal places,
// using the shortest decimal form that round-trips.
func formatValue(v float64) string {
	return strconv.FormatFloat(math.Round(v*1e7)/1e7, 'f', -1, 64)
}

// formatOptional renders a pointer field, leaving the cell empty when the
// row does not carry one.
func formatOptional(v *float64) string {
	if v == nil {
		return ""
	}
	return formatValue(*v)
}
