package model

// CanonicalTask is a task name after alias resolution
type CanonicalTask string

// Sentinel task names
const (
	UnknownTask CanonicalTask = "Unknown Task"
	NoTask      CanonicalTask = "None"
)

// RowStatus represents the processing status of a report row
type RowStatus string

const (
	StatusPending RowStatus = "PENDING"
	StatusDone    RowStatus = "DONE"
	StatusError   RowStatus = "ERROR"
	StatusHalted  RowStatus = "HALTED"
)

// Color is the verdict color of a row
type Color string

const (
	ColorGreen  Color = "GREEN"
	ColorCyan   Color = "CYAN"
	ColorRed    Color = "RED"
	ColorYellow Color = "YELLOW"
	ColorError  Color = "ERROR"
)

// TaskSegment is one raw record scraped from a detail document
type TaskSegment struct {
	RawLabel    string `json:"rawLabel"`
	RawDuration string `json:"rawDuration"`
}

// TaskTotal is the per-task entry written into run.json.
// Minutes is nil when the total was poisoned by an unparsable duration.
type TaskTotal struct {
	Task    CanonicalTask `json:"task"`
	Minutes *float64      `json:"minutes"`
	Clock   string        `json:"clock,omitempty"`
}

// DaySummary is the serialized form of one employee-day aggregate
type DaySummary struct {
	Date     string        `json:"date"`
	Segments int           `json:"segments"`
	Totals   []TaskTotal   `json:"totals"`
	Current  CanonicalTask `json:"current,omitempty"`
}

// RowResult is the per-row record written into run.json
type RowResult struct {
	Index       int           `json:"index"`
	EmployeeID  string        `json:"employeeId"`
	Status      RowStatus     `json:"status"`
	Error       string        `json:"error,omitempty"`
	PrevText    string        `json:"prevText"`
	PrevMulti   bool          `json:"prevMulti"`
	CurrentTask CanonicalTask `json:"currentTask"`
	Color       Color         `json:"color"`
	Background  string        `json:"background"`
	PreviousDay *DaySummary   `json:"previousDay,omitempty"`
	CurrentDay  *DaySummary   `json:"currentDay,omitempty"`
	DurationMs  int64         `json:"durationMs"`
}

// Verdict returns the color of a finished row, or its status otherwise
func (r RowResult) Verdict() string {
	if r.Status == StatusDone {
		return string(r.Color)
	}
	return string(r.Status)
}

// CountVerdicts tallies rows by Verdict
func CountVerdicts(rows []RowResult) map[string]int {
	counts := make(map[string]int)
	for _, row := range rows {
		counts[row.Verdict()]++
	}
	return counts
}

// RunFlags captures CLI flags for run.json
type RunFlags struct {
	Report    string `json:"report,omitempty"`
	Browser   string `json:"browser,omitempty"`
	Threshold int    `json:"threshold,omitempty"`
	Verbose   bool   `json:"verbose"`
	Config    string `json:"config,omitempty"`
}

// RunRecord is the top-level JSON written per run
type RunRecord struct {
	RunID        string      `json:"runId"`
	Timestamp    string      `json:"timestamp"`
	OutputRoot   string      `json:"outputRoot"`
	ConfigPath   string      `json:"configPath,omitempty"`
	Command      string      `json:"command,omitempty"`
	AnchorDate   string      `json:"anchorDate"`
	PreviousDay  string      `json:"previousDay"`
	NextDay      string      `json:"nextDay"`
	Threshold    int         `json:"threshold"`
	OnFetchError string      `json:"onFetchError"`
	Flags        RunFlags    `json:"flags"`
	Rows         []RowResult `json:"rows"`
	DurationMs   int64       `json:"durationMs"`
}

// ComplianceMetrics summarizes a compliance.xml report
type ComplianceMetrics struct {
	Rows       int     `json:"rows"`
	Violations int     `json:"violations"`
	Errors     int     `json:"errors"`
	Passed     int     `json:"passed"`
	Seconds    float64 `json:"seconds"`
}
