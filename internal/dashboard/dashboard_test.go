package dashboard

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/drew/rotacheck/internal/metrics"
	"github.com/drew/rotacheck/internal/model"
)

func writeRun(t *testing.T, runsDir string, run model.RunRecord) string {
	t.Helper()

	runDir := filepath.Join(runsDir, run.RunID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		t.Fatalf("Failed to create run dir: %v", err)
	}
	data, err := json.Marshal(run)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if err := os.WriteFile(filepath.Join(runDir, "run.json"), data, 0644); err != nil {
		t.Fatalf("Failed to write run.json: %v", err)
	}
	return runDir
}

func redRow(id, task string) model.RowResult {
	return model.RowResult{EmployeeID: id, Status: model.StatusDone, Color: model.ColorRed, CurrentTask: model.CanonicalTask(task)}
}

func yellowRow(id, task string) model.RowResult {
	return model.RowResult{EmployeeID: id, Status: model.StatusDone, Color: model.ColorYellow, CurrentTask: model.CanonicalTask(task)}
}

func greenRow(id string) model.RowResult {
	return model.RowResult{EmployeeID: id, Status: model.StatusDone, Color: model.ColorGreen, CurrentTask: "HR"}
}

func TestGenerateDashboard(t *testing.T) {
	tmpDir := t.TempDir()
	runsDir := filepath.Join(tmpDir, "runs")

	run := model.RunRecord{
		RunID:      "2024-08-26T10-00-00Z_ab12cd",
		Timestamp:  "2024-08-26T10:00:00Z",
		AnchorDate: "2024-08-26",
		Threshold:  210,
		Rows:       []model.RowResult{redRow("1001", "Inbound"), greenRow("1004")},
	}
	runDir := writeRun(t, runsDir, run)
	if err := metrics.WriteJUnitXML(filepath.Join(runDir, "compliance.xml"), &run); err != nil {
		t.Fatalf("WriteJUnitXML() error = %v", err)
	}

	if err := GenerateDashboard(tmpDir); err != nil {
		t.Fatalf("GenerateDashboard() error = %v", err)
	}

	for _, name := range []string{"summary.json", "report.html", filepath.Join("runs", run.RunID, "report.html")} {
		if _, err := os.Stat(filepath.Join(tmpDir, name)); err != nil {
			t.Errorf("Expected %s to be created: %v", name, err)
		}
	}

	data, err := os.ReadFile(filepath.Join(tmpDir, "summary.json"))
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	var summary Summary
	if err := json.Unmarshal(data, &summary); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	if summary.TotalRuns != 1 {
		t.Errorf("TotalRuns = %d, want 1", summary.TotalRuns)
	}
	if len(summary.RecentRuns) != 1 || summary.RecentRuns[0].Compliance == nil {
		t.Fatalf("Expected compliance metrics on the recent run, got %+v", summary.RecentRuns)
	}
	if got := summary.RecentRuns[0].Compliance.Violations; got != 1 {
		t.Errorf("Compliance.Violations = %d, want 1", got)
	}
}

func TestGenerateDashboardNoRuns(t *testing.T) {
	tmpDir := t.TempDir()

	if err := GenerateDashboard(tmpDir); err != nil {
		t.Fatalf("GenerateDashboard() error = %v", err)
	}

	data, err := os.ReadFile(filepath.Join(tmpDir, "report.html"))
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if !strings.Contains(string(data), "No runs yet") {
		t.Error("Expected empty state in report.html")
	}
}

func TestLoadAllRuns(t *testing.T) {
	runsDir := t.TempDir()

	writeRun(t, runsDir, model.RunRecord{RunID: "old", Timestamp: "2024-08-25T10:00:00Z"})
	writeRun(t, runsDir, model.RunRecord{RunID: "new", Timestamp: "2024-08-26T10:00:00Z"})

	// Entries that must be skipped
	if err := os.WriteFile(filepath.Join(runsDir, "stray.txt"), []byte("x"), 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	if err := os.MkdirAll(filepath.Join(runsDir, "empty"), 0755); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}
	if err := os.MkdirAll(filepath.Join(runsDir, "broken"), 0755); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}
	if err := os.WriteFile(filepath.Join(runsDir, "broken", "run.json"), []byte("{"), 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	runs, err := loadAllRuns(runsDir)
	if err != nil {
		t.Fatalf("loadAllRuns() error = %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("Expected 2 runs, got %d", len(runs))
	}
	if runs[0].RunID != "new" {
		t.Errorf("Expected newest run first, got %s", runs[0].RunID)
	}

	runs, err = loadAllRuns(filepath.Join(runsDir, "missing"))
	if err != nil || len(runs) != 0 {
		t.Errorf("loadAllRuns(missing) = %v, %v, want empty", runs, err)
	}
}

func TestAggregateRuns(t *testing.T) {
	runs := []model.RunRecord{
		{
			RunID:      "r3",
			Timestamp:  "2024-08-28T10:00:00Z",
			AnchorDate: "2024-08-28",
			Rows:       []model.RowResult{redRow("1001", "Stow"), yellowRow("1002", "Pick")},
		},
		{
			RunID:      "r2",
			Timestamp:  "2024-08-27T10:00:00Z",
			AnchorDate: "2024-08-27",
			Rows:       []model.RowResult{redRow("1001", "Inbound"), greenRow("1002")},
		},
		{
			RunID:      "r1",
			Timestamp:  "2024-08-26T10:00:00Z",
			AnchorDate: "2024-08-26",
			Rows:       []model.RowResult{yellowRow("1003", "Stow"), {EmployeeID: "1004", Status: model.StatusError, Color: model.ColorError}},
		},
	}

	summary := aggregateRuns(runs)

	if summary.TotalRuns != 3 {
		t.Errorf("TotalRuns = %d, want 3", summary.TotalRuns)
	}
	if summary.Totals["RED"] != 2 || summary.Totals["YELLOW"] != 2 || summary.Totals["ERROR"] != 1 {
		t.Errorf("Totals = %v", summary.Totals)
	}

	if len(summary.Violators) != 3 {
		t.Fatalf("Expected 3 violators, got %+v", summary.Violators)
	}

	top := summary.Violators[0]
	if top.EmployeeID != "1001" || top.RedCount != 2 || top.Runs != 2 {
		t.Errorf("top violator = %+v, want 1001 with 2 red runs", top)
	}
	if top.LastTask != "Stow" || top.LastDate != "2024-08-28" {
		t.Errorf("top violator last = %s on %s, want Stow on 2024-08-28", top.LastTask, top.LastDate)
	}
	if summary.Violators[1].EmployeeID != "1002" || summary.Violators[2].EmployeeID != "1003" {
		t.Errorf("violator order = %s, %s, want 1002, 1003", summary.Violators[1].EmployeeID, summary.Violators[2].EmployeeID)
	}
}

func TestAggregateRunsLimitsRecentRuns(t *testing.T) {
	runs := make([]model.RunRecord, maxRecentRuns+5)
	for i := range runs {
		runs[i] = model.RunRecord{RunID: string(rune('a' + i))}
	}

	summary := aggregateRuns(runs)

	if summary.TotalRuns != maxRecentRuns+5 {
		t.Errorf("TotalRuns = %d, want %d", summary.TotalRuns, maxRecentRuns+5)
	}
	if len(summary.RecentRuns) != maxRecentRuns {
		t.Errorf("RecentRuns = %d, want %d", len(summary.RecentRuns), maxRecentRuns)
	}
}

func TestSummarizeRun(t *testing.T) {
	tests := []struct {
		name string
		rows []model.RowResult
		want string
	}{
		{"clean", []model.RowResult{greenRow("1")}, "CLEAN"},
		{"empty", nil, "CLEAN"},
		{"violations win over errors", []model.RowResult{redRow("1", "Stow"), {Status: model.StatusError}}, "VIOLATIONS"},
		{"halted", []model.RowResult{greenRow("1"), {Status: model.StatusHalted}}, "INCOMPLETE"},
		{"yellow only is clean", []model.RowResult{yellowRow("1", "Stow")}, "CLEAN"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := summarizeRun(model.RunRecord{RunID: "r", Rows: tt.rows, DurationMs: 42})
			if got.Status != tt.want {
				t.Errorf("Status = %s, want %s", got.Status, tt.want)
			}
			if got.TotalRows != len(tt.rows) {
				t.Errorf("TotalRows = %d, want %d", got.TotalRows, len(tt.rows))
			}
			if got.Duration != 42 {
				t.Errorf("Duration = %d, want 42", got.Duration)
			}
		})
	}
}

func TestWriteSummaryJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "summary.json")
	summary := Summary{TotalRuns: 2, Totals: map[string]int{"RED": 1}}

	if err := writeSummaryJSON(path, summary); err != nil {
		t.Fatalf("writeSummaryJSON() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if !strings.Contains(string(data), `"totalRuns": 2`) {
		t.Errorf("Unexpected summary.json: %s", data)
	}

	if err := writeSummaryJSON(filepath.Join(t.TempDir(), "missing", "summary.json"), summary); err == nil {
		t.Error("Expected error writing into a missing directory")
	}
}
