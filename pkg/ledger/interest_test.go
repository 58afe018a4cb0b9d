package ledger

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestSimpleInterest(t *testing.T) {
	tests := []struct {
		name      string
		principal int64
		rate      float64
		months    int
		want      string
	}{
		{"one year at 12 percent", 10000, 12, 12, "1200"},
		{"half year", 10000, 12, 6, "600"},
		{"zero rate", 10000, 0, 12, "0"},
		{"zero months", 10000, 12, 0, "0"},
		{"fractional result rounds to paise", 7500, 9.5, 7, "415.63"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SimpleInterest(decimal.NewFromInt(tt.principal), decimal.NewFromFloat(tt.rate), tt.months)
			want := decimal.RequireFromString(tt.want)
			assert.True(t, got.Equal(want), "want %s, got %s", want, got)
		})
	}
}

func TestMonthlyEMI(t *testing.T) {
	tests := []struct {
		name    string
		payable string
		months  int
		want    string
	}{
		{"even division", "12000", 12, "1000"},
		{"repeating decimal rounds", "11200", 12, "933.33"},
		{"single month", "500.50", 1, "500.5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MonthlyEMI(decimal.RequireFromString(tt.payable), tt.months)
			want := decimal.RequireFromString(tt.want)
			assert.True(t, got.Equal(want), "want %s, got %s", want, got)
		})
	}
}

func TestCeilMonths(t *testing.T) {
	base := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		to   time.Time
		want int
	}{
		{"same instant", base, 0},
		{"to before from", base.Add(-time.Hour), 0},
		{"partial window rounds up", base.Add(24 * time.Hour), 1},
		{"exact window", base.Add(30 * 24 * time.Hour), 1},
		{"just past a window", base.Add(31 * 24 * time.Hour), 2},
		{"a year of windows", base.Add(360 * 24 * time.Hour), 12},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ceilMonths(base, tt.to))
		})
	}
}
