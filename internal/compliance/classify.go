package compliance

import (
	"strings"

	"github.com/drew/rotacheck/internal/model"
	"github.com/drew/rotacheck/internal/tasks"
)

// Verdict is the classification of one row
type Verdict struct {
	Color      model.Color
	Background string
}

// Classify applies the rotation rules. The first matching rule wins:
//
//  1. green override task -> green
//  2. non-productive task -> cyan
//  3. same task at/above threshold on both days, not excluded -> red
//  4. same task at/above threshold on the previous day -> yellow
//  5. otherwise green
func (p Policy) Classify(prev *tasks.DailyAggregate, current model.CanonicalTask, currentMinutes float64, threshold int) Verdict {
	limit := float64(threshold)

	var prevMinutes float64
	prevSeen := false
	if prev != nil {
		prevMinutes, prevSeen = prev.Minutes(current)
	}

	color := model.ColorGreen
	switch {
	case p.GreenOverride.Has(current):
		color = model.ColorGreen
	case current == p.NonProductive:
		color = model.ColorCyan
	case prevSeen && currentMinutes >= limit && prevMinutes >= limit && !p.ExcludedFromRed.Has(current):
		color = model.ColorRed
	case prevSeen && prevMinutes >= limit:
		color = model.ColorYellow
	}

	return Verdict{Color: color, Background: p.Palette.CSS(color)}
}

// RowVerdict is everything rendered for one row
type RowVerdict struct {
	PrevTasks   []model.CanonicalTask
	PrevText    string
	PrevMulti   bool
	CurrentTask model.CanonicalTask
	Verdict
}

// PrevCell returns the "Prev Task" cell text and whether more than one
// previous-day task reached the threshold
func PrevCell(prev *tasks.DailyAggregate, threshold int) ([]model.CanonicalTask, string, bool) {
	var over []model.CanonicalTask
	if prev != nil {
		over = prev.AtOrAbove(threshold)
	}
	if len(over) == 0 {
		return nil, string(model.NoTask), false
	}

	names := make([]string, len(over))
	for i, t := range over {
		names[i] = string(t)
	}
	return over, strings.Join(names, ", "), len(over) > 1
}

// Evaluate classifies a row from both days' aggregates
func (p Policy) Evaluate(prev, cur *tasks.DailyAggregate, threshold int) RowVerdict {
	over, text, multi := PrevCell(prev, threshold)

	current := model.NoTask
	var currentMinutes float64
	if cur != nil {
		current = cur.Current()
		currentMinutes, _ = cur.Minutes(current)
	}

	return RowVerdict{
		PrevTasks:   over,
		PrevText:    text,
		PrevMulti:   multi,
		CurrentTask: current,
		Verdict:     p.Classify(prev, current, currentMinutes, threshold),
	}
}

// ErrorVerdict is the marker applied to rows whose fetch failed
func (p Policy) ErrorVerdict() Verdict {
	return Verdict{Color: model.ColorError, Background: p.Palette.CSS(model.ColorError)}
}
