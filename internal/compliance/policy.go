// Package compliance classifies report rows into rotation verdicts.
package compliance

import "github.com/drew/rotacheck/internal/model"

// DefaultThreshold is the minute limit used when none is configured
const DefaultThreshold = 210

// Palette maps verdict colors to CSS colors
type Palette struct {
	Green  string
	Cyan   string
	Red    string
	Yellow string
	Error  string
}

// DefaultPalette returns the stock row colors
func DefaultPalette() Palette {
	return Palette{
		Green:  "#78fa98",
		Cyan:   "#00FFFF",
		Red:    "#f77481",
		Yellow: "#ffff99",
		Error:  "#d3d3d3",
	}
}

// CSS returns the background color for a verdict color
func (p Palette) CSS(c model.Color) string {
	switch c {
	case model.ColorCyan:
		return p.Cyan
	case model.ColorRed:
		return p.Red
	case model.ColorYellow:
		return p.Yellow
	case model.ColorError:
		return p.Error
	default:
		return p.Green
	}
}

// TaskSet is a set of canonical task names
type TaskSet map[model.CanonicalTask]struct{}

// NewTaskSet builds a set from task names
func NewTaskSet(names ...string) TaskSet {
	s := make(TaskSet, len(names))
	for _, n := range names {
		s[model.CanonicalTask(n)] = struct{}{}
	}
	return s
}

// Has reports whether task is in the set
func (s TaskSet) Has(task model.CanonicalTask) bool {
	_, ok := s[task]
	return ok
}

// Policy holds the exemption lists and colors used by the classifier
type Policy struct {
	GreenOverride   TaskSet
	ExcludedFromRed TaskSet
	NonProductive   model.CanonicalTask
	Palette         Palette
}

// DefaultPolicy returns the stock exemption lists
func DefaultPolicy() Policy {
	return Policy{
		GreenOverride:   NewTaskSet(DefaultGreenOverride()...),
		ExcludedFromRed: NewTaskSet(DefaultExcludedFromRed()...),
		NonProductive:   "5S / Non Productive",
		Palette:         DefaultPalette(),
	}
}

// DefaultGreenOverride lists support and admin roles that are never flagged
func DefaultGreenOverride() []string {
	return []string{
		"Non-Core Support",
		"UTR OPS Supervisor / SA",
		"OTR Supervisor / Shift Assistant",
		"OTR Support",
		"UTR",
		"CS DSL",
		"HR",
	}
}

// DefaultExcludedFromRed lists tasks that can be yellow but never red
func DefaultExcludedFromRed() []string {
	return []string{"Yard Marshal", "Sort Problem Solve"}
}
