package exporter

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatValue(t *testing.T) {
	tests := []struct {
		name string
		val  float64
		want string
	}{
		{"integer count", 100, "100"},
		{"zero", 0, "0"},
		{"rate", 0.05, "0.05"},
		{"repeating decimal rounds to seven places", 1000.0 / 7, "142.8571429"},
		{"third", 1.0 / 3, "0.3333333"},
		{"already short", 1.5, "1.5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, formatValue(tt.val))
		})
	}
}

func TestFormatOptional(t *testing.T) {
	assert.Equal(t, "", formatOptional(nil))
	assert.Equal(t, "3", formatOptional(ptr(3)))
	assert.Equal(t, "0.25", formatOptional(ptr(0.25)))
}
