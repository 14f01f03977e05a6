package dashboard

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/drew/rotacheck/internal/model"
)

func TestStatusClass(t *testing.T) {
	tests := map[string]string{
		"CLEAN":      "pass",
		"VIOLATIONS": "fail",
		"INCOMPLETE": "skip",
		"OTHER":      "",
	}
	for status, want := range tests {
		if got := statusClass(status); got != want {
			t.Errorf("statusClass(%s) = %q, want %q", status, got, want)
		}
	}
}

func TestStatusSymbol(t *testing.T) {
	tests := map[string]string{
		"CLEAN":      "✓",
		"VIOLATIONS": "✗",
		"INCOMPLETE": "⊘",
		"OTHER":      "•",
	}
	for status, want := range tests {
		if got := statusSymbol(status); got != want {
			t.Errorf("statusSymbol(%s) = %q, want %q", status, got, want)
		}
	}
}

func TestFormatTimeInvalidTimestamp(t *testing.T) {
	if got := formatTime("not-a-time"); got != "not-a-time" {
		t.Errorf("formatTime() = %q, want input unchanged", got)
	}
}

func TestReadLastLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pipeline.log")
	if err := os.WriteFile(path, []byte("one\ntwo\nthree\n"), 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	got := readLastLines(path, 2)
	if len(got) != 2 || got[0] != "two" || got[1] != "three" {
		t.Errorf("readLastLines() = %v, want [two three]", got)
	}

	if got := readLastLines(path, 10); len(got) != 3 {
		t.Errorf("readLastLines(10) = %v, want 3 lines", got)
	}

	if got := readLastLines(filepath.Join(t.TempDir(), "missing.log"), 5); got != nil {
		t.Errorf("readLastLines(missing) = %v, want nil", got)
	}
}

func TestWriteHTMLDashboard(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.html")
	summary := aggregateRuns([]model.RunRecord{
		{
			RunID:      "r1",
			Timestamp:  "2024-08-26T10:00:00Z",
			AnchorDate: "2024-08-26",
			Threshold:  210,
			Rows:       []model.RowResult{redRow("1001", "Inbound"), greenRow("1004")},
		},
	})

	if err := writeHTMLDashboard(path, summary); err != nil {
		t.Fatalf("writeHTMLDashboard() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	content := string(data)

	for _, want := range []string{
		"rotacheck Dashboard",
		`href="runs/r1/report.html"`,
		"2024-08-26",
		"210 mins",
		"VIOLATIONS",
		"Repeat Violators",
		"1001",
	} {
		if !strings.Contains(content, want) {
			t.Errorf("Expected report.html to contain %q", want)
		}
	}
}

func TestWriteHTMLDashboardError(t *testing.T) {
	if err := writeHTMLDashboard(filepath.Join(t.TempDir(), "missing", "report.html"), Summary{}); err == nil {
		t.Error("Expected error writing into a missing directory")
	}
}

func TestWriteRunDetailHTML(t *testing.T) {
	runDir := t.TempDir()

	files := map[string]string{
		"config.toml":    "[defaults]\nthreshold = 180\n",
		"pipeline.log":   `{"msg":"run complete"}` + "\n",
		"annotated.html": "<html></html>",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(runDir, name), []byte(content), 0644); err != nil {
			t.Fatalf("WriteFile(%s) error = %v", name, err)
		}
	}

	run := model.RunRecord{
		RunID:        "r1",
		Timestamp:    "2024-08-26T10:00:00Z",
		AnchorDate:   "2024-08-26",
		PreviousDay:  "2024-08-25",
		Threshold:    180,
		OnFetchError: "mark",
		Flags:        model.RunFlags{Report: "report.html"},
		Rows: []model.RowResult{
			{
				Index:       0,
				EmployeeID:  "1002",
				Status:      model.StatusDone,
				Color:       model.ColorYellow,
				Background:  "#ffff99",
				PrevText:    "Stow, Sort Problem Solve",
				PrevMulti:   true,
				CurrentTask: "Sort Problem Solve",
			},
			{Index: 1, EmployeeID: "1005", Status: model.StatusError, Color: model.ColorError, Error: "previous day: HTTP 404"},
		},
	}

	path := filepath.Join(runDir, "report.html")
	if err := writeRunDetailHTML(path, run); err != nil {
		t.Fatalf("writeRunDetailHTML() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	content := string(data)

	for _, want := range []string{
		"Run r1",
		"Prev Task (180+ mins)",
		`style="background-color: #ffff99"`,
		`style="color: red"`,
		"Stow, Sort Problem Solve",
		"previous day: HTTP 404",
		`href="annotated.html"`,
		"threshold = 180",
		"run complete",
	} {
		if !strings.Contains(content, want) {
			t.Errorf("Expected run page to contain %q", want)
		}
	}
}
