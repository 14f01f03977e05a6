package ui

import (
	"testing"

	"github.com/drew/rotacheck/internal/model"
)

func TestCalculateOverallProgress(t *testing.T) {
	tests := []struct {
		name string
		rows []model.RowResult
		want float64
	}{
		{"no rows", nil, 0},
		{
			name: "all pending",
			rows: []model.RowResult{{Status: model.StatusPending}, {Status: model.StatusPending}},
			want: 0,
		},
		{
			name: "mixed",
			rows: []model.RowResult{
				{Status: model.StatusDone},
				{Status: model.StatusError},
				{Status: model.StatusPending},
				{},
			},
			want: 50,
		},
		{
			name: "halted rows count as settled",
			rows: []model.RowResult{{Status: model.StatusDone}, {Status: model.StatusHalted}},
			want: 100,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CalculateOverallProgress(tt.rows); got != tt.want {
				t.Errorf("CalculateOverallProgress() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		ms   int64
		want string
	}{
		{0, "0ms"},
		{999, "999ms"},
		{1000, "1s"},
		{59999, "59s"},
		{60000, "1m"},
		{61000, "1m 1s"},
		{3599000, "59m 59s"},
		{3600000, "1h"},
		{3660000, "1h 1m"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := FormatDuration(tt.ms); got != tt.want {
				t.Errorf("FormatDuration(%d) = %q, want %q", tt.ms, got, tt.want)
			}
		})
	}
}
