package dashboard

import (
	"html/template"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/drew/rotacheck/internal/model"
	"github.com/drew/rotacheck/internal/ui"
)

// logPreviewLines is how much of pipeline.log the run page shows
const logPreviewLines = 20

// verdictOrder is the column order of verdict counts
var verdictOrder = []string{"RED", "YELLOW", "CYAN", "GREEN", "ERROR", "HALTED"}

// runStatusStyles maps a run status to its badge class and symbol
var runStatusStyles = map[string][2]string{
	statusClean:      {"pass", "✓"},
	statusViolations: {"fail", "✗"},
	statusIncomplete: {"skip", "⊘"},
}

func statusClass(status string) string {
	return runStatusStyles[status][0]
}

func statusSymbol(status string) string {
	if style, ok := runStatusStyles[status]; ok {
		return style[1]
	}
	return "•"
}

func formatTime(timestamp string) string {
	t, err := time.Parse(time.RFC3339, timestamp)
	if err != nil {
		return timestamp
	}
	return t.Local().Format("2006-01-02 15:04:05")
}

func localZone() string {
	zone, _ := time.Now().Zone()
	return zone
}

var templateFuncs = template.FuncMap{
	"formatDuration": ui.FormatDuration,
	"formatTime":     formatTime,
	"statusClass":    statusClass,
	"statusSymbol":   statusSymbol,
	"verdicts":       func() []string { return verdictOrder },
	"count":          func(m map[string]int, k string) int { return m[k] },
	"lower":          strings.ToLower,
	"safeCSS":        func(s string) template.CSS { return template.CSS(s) },
}

var (
	dashboardTmpl = template.Must(template.New("dashboard").Funcs(templateFuncs).Parse(dashboardTemplate))
	runDetailTmpl = template.Must(template.New("rundetail").Funcs(templateFuncs).Parse(runDetailTemplate))
)

func renderFile(path string, tmpl *template.Template, data interface{}) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := tmpl.Execute(f, data); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// writeHTMLDashboard writes report.html for all runs
func writeHTMLDashboard(path string, summary Summary) error {
	return renderFile(path, dashboardTmpl, struct {
		Summary
		Timezone string
	}{summary, localZone()})
}

// runDetail is the data behind a run's report.html
type runDetail struct {
	model.RunRecord
	Counts           map[string]int
	LogPreview       []string
	Timezone         string
	RawConfigContent string
	HasAnnotated     bool
}

// writeRunDetailHTML writes report.html inside one run directory
func writeRunDetailHTML(path string, run model.RunRecord) error {
	dir := filepath.Dir(path)
	data := runDetail{
		RunRecord:  run,
		Counts:     model.CountVerdicts(run.Rows),
		LogPreview: readLastLines(filepath.Join(dir, "pipeline.log"), logPreviewLines),
		Timezone:   localZone(),
	}

	if configData, err := os.ReadFile(filepath.Join(dir, "config.toml")); err == nil {
		data.RawConfigContent = string(configData)
	}
	if _, err := os.Stat(filepath.Join(dir, "annotated.html")); err == nil {
		data.HasAnnotated = true
	}

	return renderFile(path, runDetailTmpl, data)
}

// readLastLines returns up to n trailing lines of a file, nil if unreadable
func readLastLines(path string, n int) []string {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}

	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if len(lines) == 1 && lines[0] == "" {
		return nil
	}
	if len(lines) <= n {
		return lines
	}
	return lines[len(lines)-n:]
}

const baseStyle = `
        * {
            margin: 0;
            padding: 0;
            box-sizing: border-box;
        }

        body {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, Oxygen, Ubuntu, Cantarell, sans-serif;
            background: #f5f5f5;
            color: #333;
            line-height: 1.6;
        }

        .container {
            max-width: 1400px;
            margin: 0 auto;
            padding: 20px;
        }

        header, .section {
            background: white;
            padding: 30px;
            border-radius: 8px;
            box-shadow: 0 2px 4px rgba(0,0,0,0.1);
            margin-bottom: 30px;
        }

        h1 {
            font-size: 32px;
            margin-bottom: 10px;
            color: #2c3e50;
        }

        h2 {
            font-size: 24px;
            margin-bottom: 20px;
            color: #2c3e50;
        }

        .subtitle {
            color: #7f8c8d;
            font-size: 14px;
        }

        .stats-grid {
            display: grid;
            grid-template-columns: repeat(auto-fit, minmax(150px, 1fr));
            gap: 20px;
            margin-bottom: 30px;
        }

        .stat-card {
            background: white;
            padding: 20px;
            border-radius: 8px;
            box-shadow: 0 2px 4px rgba(0,0,0,0.1);
        }

        .stat-value {
            font-size: 36px;
            font-weight: bold;
            color: #2c3e50;
        }

        .stat-label {
            color: #7f8c8d;
            font-size: 14px;
            margin-top: 5px;
        }

        table {
            width: 100%;
            border-collapse: collapse;
        }

        th {
            text-align: left;
            padding: 12px;
            background: #f8f9fa;
            font-weight: 600;
            color: #2c3e50;
            border-bottom: 2px solid #dee2e6;
        }

        td {
            padding: 12px;
            border-bottom: 1px solid #dee2e6;
        }

        .badge {
            display: inline-block;
            padding: 4px 8px;
            border-radius: 4px;
            font-size: 12px;
            font-weight: 600;
        }

        .badge-pass {
            background: #d4edda;
            color: #155724;
        }

        .badge-fail {
            background: #f8d7da;
            color: #721c24;
        }

        .badge-skip {
            background: #fff3cd;
            color: #856404;
        }

        .v-red { color: #c0392b; font-weight: bold; }
        .v-yellow { color: #b7950b; font-weight: bold; }
        .v-cyan { color: #17a2b8; }
        .v-green { color: #27ae60; }
        .v-error, .v-halted { color: #7f8c8d; }

        .mono {
            font-family: 'Monaco', 'Menlo', 'Courier New', monospace;
            font-size: 13px;
        }

        pre.log {
            background: #2c3e50;
            color: #ecf0f1;
            padding: 15px;
            border-radius: 4px;
            overflow-x: auto;
            font-size: 12px;
        }

        .empty-state {
            text-align: center;
            padding: 60px 20px;
            color: #7f8c8d;
        }
`

const dashboardTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>rotacheck Dashboard</title>
    <style>` + baseStyle + `    </style>
</head>
<body>
    <div class="container">
        <header>
            <h1>rotacheck Dashboard</h1>
            <div class="subtitle">Last updated: {{formatTime .LastGenerated}}</div>
        </header>

        <div class="stats-grid">
            <div class="stat-card">
                <div class="stat-value">{{.TotalRuns}}</div>
                <div class="stat-label">Total Runs</div>
            </div>
            {{$totals := .Totals}}
            {{range verdicts}}
            <div class="stat-card">
                <div class="stat-value v-{{lower .}}">{{count $totals .}}</div>
                <div class="stat-label">{{.}} rows</div>
            </div>
            {{end}}
        </div>

        <div class="section">
            <h2>Recent Runs</h2>
            {{if .RecentRuns}}
            <table>
                <thead>
                    <tr>
                        <th>Run ID</th>
                        <th>Timestamp ({{.Timezone}})</th>
                        <th>Report Date</th>
                        <th>Threshold</th>
                        <th>Status</th>
                        {{range verdicts}}<th>{{.}}</th>{{end}}
                        <th>Duration</th>
                    </tr>
                </thead>
                <tbody>
                    {{range .RecentRuns}}
                    {{$counts := .Counts}}
                    <tr>
                        <td class="mono"><a href="runs/{{.RunID}}/report.html">{{.RunID}}</a></td>
                        <td>{{formatTime .Timestamp}}</td>
                        <td>{{.AnchorDate}}</td>
                        <td>{{.Threshold}} mins</td>
                        <td>
                            <span class="badge badge-{{.Status | statusClass}}">
                                {{statusSymbol .Status}} {{.Status}}
                            </span>
                        </td>
                        {{range verdicts}}<td class="v-{{lower .}}">{{count $counts .}}</td>{{end}}
                        <td>{{formatDuration .Duration}}</td>
                    </tr>
                    {{end}}
                </tbody>
            </table>
            {{else}}
            <div class="empty-state">
                <p>No runs yet. Run rotacheck to see results here!</p>
            </div>
            {{end}}
        </div>

        <div class="section">
            <h2>Repeat Violators</h2>
            {{if .Violators}}
            <table>
                <thead>
                    <tr>
                        <th>Employee ID</th>
                        <th>Runs Flagged</th>
                        <th>RED</th>
                        <th>YELLOW</th>
                        <th>Last Task</th>
                        <th>Last Report Date</th>
                    </tr>
                </thead>
                <tbody>
                    {{range .Violators}}
                    <tr>
                        <td class="mono">{{.EmployeeID}}</td>
                        <td>{{.Runs}}</td>
                        <td class="v-red">{{.RedCount}}</td>
                        <td class="v-yellow">{{.YellowCount}}</td>
                        <td>{{.LastTask}}</td>
                        <td>{{.LastDate}}</td>
                    </tr>
                    {{end}}
                </tbody>
            </table>
            {{else}}
            <div class="empty-state">
                <p>No rotation violations recorded.</p>
            </div>
            {{end}}
        </div>
    </div>
</body>
</html>
`

const runDetailTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Run {{.RunID}} - rotacheck</title>
    <style>` + baseStyle + `    </style>
</head>
<body>
    <div class="container">
        <header>
            <h1>Run {{.RunID}}</h1>
            <div class="subtitle"><a href="../../report.html">&larr; Dashboard</a></div>
        </header>

        <div class="section">
            <h2>Run Details</h2>
            <table>
                <tr><th>Timestamp ({{.Timezone}})</th><td>{{formatTime .Timestamp}}</td></tr>
                <tr><th>Report Date</th><td>{{.AnchorDate}} (previous day {{.PreviousDay}})</td></tr>
                <tr><th>Threshold</th><td>{{.Threshold}} mins</td></tr>
                <tr><th>On Fetch Error</th><td>{{.OnFetchError}}</td></tr>
                <tr><th>Duration</th><td>{{formatDuration .DurationMs}}</td></tr>
                {{if .Flags.Report}}<tr><th>Report</th><td class="mono">{{.Flags.Report}}</td></tr>{{end}}
                {{if .Flags.Browser}}<tr><th>Browser</th><td class="mono">{{.Flags.Browser}}</td></tr>{{end}}
                {{if .Command}}<tr><th>Command</th><td class="mono">{{.Command}}</td></tr>{{end}}
                {{if .HasAnnotated}}<tr><th>Annotated Report</th><td><a href="annotated.html">annotated.html</a></td></tr>{{end}}
            </table>
        </div>

        <div class="stats-grid">
            {{$counts := .Counts}}
            {{range verdicts}}
            <div class="stat-card">
                <div class="stat-value v-{{lower .}}">{{count $counts .}}</div>
                <div class="stat-label">{{.}}</div>
            </div>
            {{end}}
        </div>

        <div class="section">
            <h2>Rows</h2>
            <table>
                <thead>
                    <tr>
                        <th>#</th>
                        <th>Employee ID</th>
                        <th>Prev Task ({{.Threshold}}+ mins)</th>
                        <th>Current Task</th>
                        <th>Verdict</th>
                        <th>Duration</th>
                    </tr>
                </thead>
                <tbody>
                    {{range .Rows}}
                    <tr{{if .Background}} style="background-color: {{safeCSS .Background}}"{{end}}>
                        <td>{{.Index}}</td>
                        <td class="mono">{{.EmployeeID}}</td>
                        <td{{if .PrevMulti}} style="color: red"{{end}}>{{.PrevText}}</td>
                        <td>{{.CurrentTask}}</td>
                        <td>{{.Verdict}}{{if .Error}} <span class="mono">{{.Error}}</span>{{end}}</td>
                        <td>{{formatDuration .DurationMs}}</td>
                    </tr>
                    {{end}}
                </tbody>
            </table>
        </div>

        {{if .RawConfigContent}}
        <div class="section">
            <h2>Configuration</h2>
            <pre class="log">{{.RawConfigContent}}</pre>
        </div>
        {{end}}

        {{if .LogPreview}}
        <div class="section">
            <h2>Log (last lines of <a href="pipeline.log">pipeline.log</a>)</h2>
            <pre class="log">{{range .LogPreview}}{{.}}
{{end}}</pre>
        </div>
        {{end}}
    </div>
</body>
</html>
`
