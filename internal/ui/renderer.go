package ui

import (
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/drew/rotacheck/internal/model"
)

// UIMode represents the UI rendering mode
type UIMode string

// UI mode constants
const (
	UIModeBasic UIMode = "basic"
	UIModeFull  UIMode = "full"
)

// Renderer handles console output for a run
type Renderer struct {
	mode   UIMode
	colors *Colors
	width  int
	isTTY  bool
	out    io.Writer
	logger *zap.Logger
}

// NewRenderer creates a new UI renderer writing to stdout
func NewRenderer(mode UIMode, enableColors bool) *Renderer {
	isTTY := IsTTY(os.Stdout.Fd())

	// Force basic mode if not a TTY
	if !isTTY && mode != UIModeBasic {
		mode = UIModeBasic
	}

	return &Renderer{
		mode:   mode,
		colors: NewColors(enableColors),
		width:  GetTerminalWidth(),
		isTTY:  isTTY,
		out:    os.Stdout,
		logger: zap.NewNop(),
	}
}

// SetOutput redirects console output
func (r *Renderer) SetOutput(w io.Writer) {
	r.out = w
}

// SetLogger sets the run log that verbose lines are copied to
func (r *Renderer) SetLogger(logger *zap.Logger) {
	if logger == nil {
		logger = zap.NewNop()
	}
	r.logger = logger
}

// RenderHeader renders the run header
func (r *Renderer) RenderHeader(runID, source, anchorDate string, threshold int) {
	switch r.mode {
	case UIModeFull:
		r.renderFullHeader(runID, source, anchorDate, threshold)
	default:
		r.renderBasicHeader(runID, source, anchorDate, threshold)
	}
}

func (r *Renderer) renderFullHeader(runID, source, anchorDate string, threshold int) {
	line := strings.Repeat("═", r.width-2)
	fmt.Fprintf(r.out, "╔%s╗\n", line)
	fmt.Fprintf(r.out, "║ %s%-*s║\n", r.colors.Bold("rotacheck run "+runID), r.width-len("rotacheck run "+runID)-3, "")
	fmt.Fprintf(r.out, "║ Report: %-*s║\n", r.width-11, truncate(source, r.width-11))
	info := fmt.Sprintf("Date: %s | Threshold: %d mins", anchorDate, threshold)
	fmt.Fprintf(r.out, "║ %-*s║\n", r.width-3, info)
	fmt.Fprintf(r.out, "╚%s╝\n", line)
	fmt.Fprintln(r.out)
}

func (r *Renderer) renderBasicHeader(runID, source, anchorDate string, threshold int) {
	fmt.Fprintf(r.out, "rotacheck run %s\n", runID)
	fmt.Fprintf(r.out, "Report: %s\n", source)
	fmt.Fprintf(r.out, "Date: %s\n", anchorDate)
	fmt.Fprintf(r.out, "Threshold: %d mins\n", threshold)
	fmt.Fprintln(r.out)
}

// truncate shortens s to maxLen, adding "..." if needed
func truncate(s string, maxLen int) string {
	if maxLen < 4 || len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

// RenderRow renders one settled row
func (r *Renderer) RenderRow(row model.RowResult, verbose bool) {
	id := truncate(row.EmployeeID, 15)

	switch row.Status {
	case model.StatusHalted:
		if verbose {
			fmt.Fprintf(r.out, "[%-15s] %s %s\n", id, r.colors.StatusSymbol("HALTED"), r.colors.Gray("HALTED"))
		}
		return
	case model.StatusError:
		fmt.Fprintf(r.out, "[%-15s] %s %s %s (%dms)\n", id,
			r.colors.StatusSymbol("ERROR"), r.colors.Red(fmt.Sprintf("%-7s", "ERROR")), row.Error, row.DurationMs)
		return
	}

	color := string(row.Color)
	symbol := r.colors.StatusSymbol(color)
	status := r.colors.StatusColor(color, fmt.Sprintf("%-7s", color))

	if verbose {
		fmt.Fprintf(r.out, "[%-15s] %s %s %s %s (%dms)\n", id, symbol, status,
			row.CurrentTask, r.colors.Gray("prev: "+row.PrevText), row.DurationMs)
	} else {
		fmt.Fprintf(r.out, "[%-15s] %s %s %s\n", id, symbol, status, row.CurrentTask)
	}
}

// RenderProgress renders a progress bar (full mode only)
func (r *Renderer) RenderProgress(current, total int) {
	if r.mode == UIModeBasic {
		return
	}

	barWidth := 40
	if r.width > 80 {
		barWidth = 60
	}

	bar := r.colors.ProgressBar(current, total, barWidth)
	fmt.Fprintf(r.out, "%s (%d/%d rows)\n", bar, current, total)
}

// summaryOrder is the order verdicts are listed in the summary
var summaryOrder = []string{"RED", "YELLOW", "CYAN", "GREEN", "ERROR", "HALTED"}

// RenderSummary renders the final verdict counts
func (r *Renderer) RenderSummary(counts map[string]int, totalMs int64, outputPath string) {
	fmt.Fprintln(r.out)
	fmt.Fprintln(r.out, r.colors.Bold("Summary:"))

	for _, key := range summaryOrder {
		n := counts[key]
		if n == 0 {
			continue
		}
		fmt.Fprintf(r.out, "  %s %s %d\n", r.colors.StatusSymbol(key), r.colors.StatusColor(key, fmt.Sprintf("%-7s", key)), n)
	}

	fmt.Fprintln(r.out)
	fmt.Fprintf(r.out, "Total: %s (%dms)\n", FormatDuration(totalMs), totalMs)
	if outputPath != "" {
		fmt.Fprintf(r.out, "Annotated report: %s\n", outputPath)
	}

	fmt.Fprintln(r.out)
	switch {
	case counts["RED"] > 0:
		fmt.Fprintln(r.out, r.colors.Red(fmt.Sprintf("rotacheck: %d rotation violation(s)", counts["RED"])))
	case counts["ERROR"] > 0 || counts["HALTED"] > 0:
		fmt.Fprintln(r.out, r.colors.Yellow("rotacheck: some rows could not be checked"))
	default:
		fmt.Fprintln(r.out, r.colors.Green("rotacheck: no rotation violations"))
	}
	fmt.Fprintln(r.out)
}

// Blue returns the string formatted in blue color
func (r *Renderer) Blue(s string) string {
	return r.colors.Blue(s)
}

// Green returns the string formatted in green color
func (r *Renderer) Green(s string) string {
	return r.colors.Green(s)
}

// Red returns the string formatted in red color
func (r *Renderer) Red(s string) string {
	return r.colors.Red(s)
}

// Yellow returns the string formatted in yellow color
func (r *Renderer) Yellow(s string) string {
	return r.colors.Yellow(s)
}

// Gray returns the string formatted in gray color
func (r *Renderer) Gray(s string) string {
	return r.colors.Gray(s)
}

// Verbose outputs a verbose message with [verbose] prefix.
// Always copied to the run log; only displayed when verbose is set.
func (r *Renderer) Verbose(verbose bool, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	r.logger.Debug(msg)

	if verbose {
		// Pad before coloring so alignment works
		padded := fmt.Sprintf("%-15s", "verbose")
		fmt.Fprintf(r.out, "[%s] %s\n", r.colors.Gray(padded), msg)
	}
}
