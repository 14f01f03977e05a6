// Package hostpage reads and annotates the time-on-task report page.
package hostpage

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// AnchorInputID is the id of the report's date picker
const AnchorInputID = "startDateDay"

// Header labels appended to the report table
const CurrentHeader = "Current Task"

var (
	ErrNoAnchorDate  = errors.New("anchor date input #" + AnchorInputID + " not found")
	ErrBadAnchorDate = errors.New("anchor date is not a valid date")
	ErrNoReportTable = errors.New("report table body not found")
	ErrNoHeaderRow   = errors.New("report table header row not found")
	ErrRowIndex      = errors.New("row index out of range")
)

// anchorLayouts are tried in order when parsing the date picker value
var anchorLayouts = []string{"2006/01/02", "2006-01-02", "01/02/2006"}

// Row is one associate row of the report
type Row struct {
	Index      int
	EmployeeID string
}

// Table is the report table being annotated. Each row receives exactly two
// cells: the previous-day cell and the current-day cell.
type Table interface {
	AnchorDate() (time.Time, error)
	Rows() ([]Row, error)
	AppendHeaders(threshold int) error
	ApplyPrev(row int, text string, multi bool) error
	ApplyCurrent(row int, task string, background string) error
	MarkError(row int, message string, background string) error
}

// PrevHeader returns the label of the previous-day column
func PrevHeader(threshold int) string {
	return fmt.Sprintf("Prev Task (%d+ mins)", threshold)
}

// ErrorCellText is shown in cells that could not be filled
const ErrorCellText = "Fetch failed"

// ParseAnchorDate parses a date picker value into a calendar date (UTC midnight).
func ParseAnchorDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range anchorLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrBadAnchorDate, value)
}

var (
	_ Table = (*Document)(nil)
	_ Table = (*LivePage)(nil)
)
