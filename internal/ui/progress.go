package ui

import (
	"fmt"

	"github.com/drew/rotacheck/internal/model"
)

// CalculateOverallProgress returns the percentage of rows that have settled
func CalculateOverallProgress(rows []model.RowResult) float64 {
	if len(rows) == 0 {
		return 0
	}

	settled := 0
	for _, row := range rows {
		if row.Status != model.StatusPending && row.Status != "" {
			settled++
		}
	}
	return float64(settled) / float64(len(rows)) * 100
}

// FormatDuration formats a duration in milliseconds to a human-readable string
func FormatDuration(ms int64) string {
	if ms < 1000 {
		return fmt.Sprintf("%dms", ms)
	}

	seconds := ms / 1000
	if seconds < 60 {
		return fmt.Sprintf("%ds", seconds)
	}

	minutes := seconds / 60
	remainingSeconds := seconds % 60
	if minutes < 60 {
		if remainingSeconds == 0 {
			return fmt.Sprintf("%dm", minutes)
		}
		return fmt.Sprintf("%dm %ds", minutes, remainingSeconds)
	}

	hours := minutes / 60
	remainingMinutes := minutes % 60
	if remainingMinutes == 0 {
		return fmt.Sprintf("%dh", hours)
	}
	return fmt.Sprintf("%dh %dm", hours, remainingMinutes)
}
