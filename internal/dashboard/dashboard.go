// Package dashboard aggregates every stored run into summary.json and report.html.
package dashboard

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/drew/rotacheck/internal/metrics"
	"github.com/drew/rotacheck/internal/model"
)

// maxRecentRuns caps the runs listed on the dashboard
const maxRecentRuns = 20

// Run statuses
const (
	statusViolations = "VIOLATIONS"
	statusIncomplete = "INCOMPLETE"
	statusClean      = "CLEAN"
)

// Summary holds aggregated data across all runs
type Summary struct {
	TotalRuns     int             `json:"totalRuns"`
	RecentRuns    []RunSummary    `json:"recentRuns"`
	Violators     []ViolatorStats `json:"violators"`
	Totals        map[string]int  `json:"totals"`
	LastGenerated string          `json:"lastGenerated"`
}

// RunSummary is a condensed view of a single run
type RunSummary struct {
	RunID      string                   `json:"runId"`
	Timestamp  string                   `json:"timestamp"`
	AnchorDate string                   `json:"anchorDate"`
	Threshold  int                      `json:"threshold"`
	Status     string                   `json:"status"` // "VIOLATIONS", "INCOMPLETE", "CLEAN"
	Duration   int64                    `json:"duration"`
	TotalRows  int                      `json:"totalRows"`
	Counts     map[string]int           `json:"counts"`
	Compliance *model.ComplianceMetrics `json:"compliance,omitempty"`
}

// ViolatorStats tracks one employee across runs with a red or yellow verdict
type ViolatorStats struct {
	EmployeeID  string `json:"employeeId"`
	Runs        int    `json:"runs"`
	RedCount    int    `json:"redCount"`
	YellowCount int    `json:"yellowCount"`
	LastTask    string `json:"lastTask"`
	LastDate    string `json:"lastDate"`
}

// GenerateDashboard reads all runs and generates summary.json and report.html
func GenerateDashboard(outputRoot string) error {
	runsDir := filepath.Join(outputRoot, "runs")

	runs, err := loadAllRuns(runsDir)
	if err != nil {
		return fmt.Errorf("failed to load runs: %w", err)
	}

	summary := aggregateRuns(runs)
	attachCompliance(runsDir, &summary)

	summaryPath := filepath.Join(outputRoot, "summary.json")
	if err := writeSummaryJSON(summaryPath, summary); err != nil {
		return fmt.Errorf("failed to write summary.json: %w", err)
	}

	htmlPath := filepath.Join(outputRoot, "report.html")
	if err := writeHTMLDashboard(htmlPath, summary); err != nil {
		return fmt.Errorf("failed to write report.html: %w", err)
	}

	for _, run := range runs {
		detailPath := filepath.Join(runsDir, run.RunID, "report.html")
		if err := writeRunDetailHTML(detailPath, run); err != nil {
			// Don't fail if one detail page fails
			continue
		}
	}

	return nil
}

// loadAllRuns reads all run.json files from the runs directory, newest first
func loadAllRuns(runsDir string) ([]model.RunRecord, error) {
	entries, err := os.ReadDir(runsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []model.RunRecord{}, nil
		}
		return nil, err
	}

	var runs []model.RunRecord
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		data, err := os.ReadFile(filepath.Join(runsDir, entry.Name(), "run.json"))
		if err != nil {
			continue // Skip if can't read
		}

		var run model.RunRecord
		if err := json.Unmarshal(data, &run); err != nil {
			continue // Skip if can't parse
		}
		if run.RunID == "" {
			run.RunID = entry.Name()
		}

		runs = append(runs, run)
	}

	sort.Slice(runs, func(i, j int) bool {
		return runs[i].Timestamp > runs[j].Timestamp
	})

	return runs, nil
}

// aggregateRuns creates a summary from runs sorted newest first
func aggregateRuns(runs []model.RunRecord) Summary {
	summary := Summary{
		TotalRuns:     len(runs),
		RecentRuns:    []RunSummary{},
		Violators:     []ViolatorStats{},
		Totals:        make(map[string]int),
		LastGenerated: time.Now().UTC().Format(time.RFC3339),
	}

	violators := make(map[string]*ViolatorStats)

	for i, run := range runs {
		rs := summarizeRun(run)
		if i < maxRecentRuns {
			summary.RecentRuns = append(summary.RecentRuns, rs)
		}
		for k, v := range rs.Counts {
			summary.Totals[k] += v
		}

		for _, row := range run.Rows {
			verdict := row.Verdict()
			if verdict != string(model.ColorRed) && verdict != string(model.ColorYellow) {
				continue
			}

			stats, ok := violators[row.EmployeeID]
			if !ok {
				// Runs are newest first, so the first hit is the latest
				stats = &ViolatorStats{
					EmployeeID: row.EmployeeID,
					LastTask:   string(row.CurrentTask),
					LastDate:   run.AnchorDate,
				}
				violators[row.EmployeeID] = stats
			}
			stats.Runs++
			if verdict == string(model.ColorRed) {
				stats.RedCount++
			} else {
				stats.YellowCount++
			}
		}
	}

	for _, stats := range violators {
		summary.Violators = append(summary.Violators, *stats)
	}
	sort.Slice(summary.Violators, func(i, j int) bool {
		a, b := summary.Violators[i], summary.Violators[j]
		if a.RedCount != b.RedCount {
			return a.RedCount > b.RedCount
		}
		if a.YellowCount != b.YellowCount {
			return a.YellowCount > b.YellowCount
		}
		return a.EmployeeID < b.EmployeeID
	})

	return summary
}

// summarizeRun creates a RunSummary from a RunRecord
func summarizeRun(run model.RunRecord) RunSummary {
	counts := model.CountVerdicts(run.Rows)

	summary := RunSummary{
		RunID:      run.RunID,
		Timestamp:  run.Timestamp,
		AnchorDate: run.AnchorDate,
		Threshold:  run.Threshold,
		Duration:   run.DurationMs,
		TotalRows:  len(run.Rows),
		Counts:     counts,
	}

	switch {
	case counts[string(model.ColorRed)] > 0:
		summary.Status = statusViolations
	case counts[string(model.StatusError)] > 0 || counts[string(model.StatusHalted)] > 0:
		summary.Status = statusIncomplete
	default:
		summary.Status = statusClean
	}

	return summary
}

// attachCompliance reads each listed run's compliance.xml when present
func attachCompliance(runsDir string, summary *Summary) {
	for i := range summary.RecentRuns {
		path := filepath.Join(runsDir, summary.RecentRuns[i].RunID, "compliance.xml")
		if _, err := os.Stat(path); err != nil {
			continue
		}
		m, err := metrics.ParseJUnitXML(path)
		if err != nil {
			continue
		}
		summary.RecentRuns[i].Compliance = m
	}
}

// writeSummaryJSON writes the summary to a JSON file
func writeSummaryJSON(path string, summary Summary) error {
	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
