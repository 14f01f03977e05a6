package ui

import (
	"fmt"
	"strings"
)

// ANSI color codes
const (
	ColorReset  = "\033[0m"
	ColorRed    = "\033[31m"
	ColorGreen  = "\033[32m"
	ColorYellow = "\033[33m"
	ColorBlue   = "\033[94m"
	ColorCyan   = "\033[36m"
	ColorGray   = "\033[90m"
	ColorBold   = "\033[1m"
)

// verdictStyle is how a row verdict or status is shown on the console
type verdictStyle struct {
	code   string
	symbol string
}

// Keys are model.Color and model.RowStatus values as returned by RowResult.Verdict
var verdictStyles = map[string]verdictStyle{
	"GREEN":   {ColorGreen, "✓"},
	"CYAN":    {ColorCyan, "◆"},
	"YELLOW":  {ColorYellow, "!"},
	"RED":     {ColorRed, "✗"},
	"ERROR":   {ColorRed, "⚠"},
	"HALTED":  {ColorGray, "⊘"},
	"PENDING": {ColorGray, "⋯"},
}

// Colors paints console text, or passes it through when disabled
type Colors struct {
	enabled bool
}

// NewColors creates a new Colors instance
func NewColors(enabled bool) *Colors {
	return &Colors{enabled: enabled}
}

func (c *Colors) paint(code, s string) string {
	if !c.enabled || code == "" {
		return s
	}
	return code + s + ColorReset
}

func (c *Colors) Red(s string) string    { return c.paint(ColorRed, s) }
func (c *Colors) Green(s string) string  { return c.paint(ColorGreen, s) }
func (c *Colors) Yellow(s string) string { return c.paint(ColorYellow, s) }
func (c *Colors) Blue(s string) string   { return c.paint(ColorBlue, s) }
func (c *Colors) Cyan(s string) string   { return c.paint(ColorCyan, s) }
func (c *Colors) Gray(s string) string   { return c.paint(ColorGray, s) }
func (c *Colors) Bold(s string) string   { return c.paint(ColorBold, s) }

// StatusColor paints text in the color of a verdict; unknown verdicts stay plain
func (c *Colors) StatusColor(verdict string, text string) string {
	return c.paint(verdictStyles[verdict].code, text)
}

// StatusSymbol returns the colored marker of a verdict
func (c *Colors) StatusSymbol(verdict string) string {
	style, ok := verdictStyles[verdict]
	if !ok {
		return " "
	}
	return c.paint(style.code, style.symbol)
}

// ProgressBar renders width cells filled in proportion to current/total
func (c *Colors) ProgressBar(current, total, width int) string {
	if total == 0 {
		return ""
	}

	percent := float64(current) / float64(total)
	filled := int(percent * float64(width))
	if filled > width {
		filled = width
	}

	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	percentText := fmt.Sprintf(" %3.0f%%", percent*100)

	switch {
	case percent >= 1.0:
		return c.Green(bar) + c.Green(percentText)
	case percent >= 0.5:
		return c.Blue(bar) + percentText
	default:
		return c.Gray(bar) + percentText
	}
}
