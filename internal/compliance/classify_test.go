package compliance

import (
	"testing"

	"github.com/drew/rotacheck/internal/model"
	"github.com/drew/rotacheck/internal/tasks"
	"github.com/stretchr/testify/assert"
)

func day(entries ...string) *tasks.DailyAggregate {
	agg := tasks.NewDailyAggregate()
	for i := 0; i+1 < len(entries); i += 2 {
		agg.Add(model.CanonicalTask(entries[i]), entries[i+1])
	}
	return agg
}

func TestClassifyPrecedence(t *testing.T) {
	p := DefaultPolicy()

	tests := []struct {
		name       string
		prev       *tasks.DailyAggregate
		current    model.CanonicalTask
		currentMin float64
		want       model.Color
	}{
		{
			name:       "override wins over a violation",
			prev:       day("HR", "300:00"),
			current:    "HR",
			currentMin: 300,
			want:       model.ColorGreen,
		},
		{
			name:       "non productive is cyan even after a long previous day",
			prev:       day("5S / Non Productive", "400:00"),
			current:    "5S / Non Productive",
			currentMin: 250,
			want:       model.ColorCyan,
		},
		{
			name:       "same task over threshold both days is red",
			prev:       day("Stow", "220:00"),
			current:    "Stow",
			currentMin: 215,
			want:       model.ColorRed,
		},
		{
			name:       "excluded task downgrades to yellow",
			prev:       day("Sort Problem Solve", "220:00"),
			current:    "Sort Problem Solve",
			currentMin: 300,
			want:       model.ColorYellow,
		},
		{
			name:       "previous day only is yellow",
			prev:       day("Stow", "220:00"),
			current:    "Stow",
			currentMin: 5,
			want:       model.ColorYellow,
		},
		{
			name:       "different task is green",
			prev:       day("Stow", "220:00"),
			current:    "Diverter",
			currentMin: 300,
			want:       model.ColorGreen,
		},
		{
			name:       "previous day under threshold is green",
			prev:       day("Stow", "209:59"),
			current:    "Stow",
			currentMin: 300,
			want:       model.ColorGreen,
		},
		{
			name:       "threshold is inclusive",
			prev:       day("Stow", "210:00"),
			current:    "Stow",
			currentMin: 210,
			want:       model.ColorRed,
		},
		{
			name:       "poisoned previous total never matches",
			prev:       day("Stow", "300:00", "Stow", "bad"),
			current:    "Stow",
			currentMin: 300,
			want:       model.ColorGreen,
		},
		{
			name:       "no previous data",
			prev:       nil,
			current:    "Stow",
			currentMin: 300,
			want:       model.ColorGreen,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := p.Classify(tt.prev, tt.current, tt.currentMin, DefaultThreshold)
			assert.Equal(t, tt.want, got.Color)
			assert.Equal(t, p.Palette.CSS(tt.want), got.Background)
		})
	}
}

func TestClassifyThresholdOverride(t *testing.T) {
	p := DefaultPolicy()
	prev := day("Stow", "150:00")

	assert.Equal(t, model.ColorGreen, p.Classify(prev, "Stow", 120, 210).Color)
	assert.Equal(t, model.ColorRed, p.Classify(prev, "Stow", 120, 100).Color)
	assert.Equal(t, model.ColorYellow, p.Classify(prev, "Stow", 99, 100).Color)
}

func TestPrevCell(t *testing.T) {
	tests := []struct {
		name      string
		prev      *tasks.DailyAggregate
		wantText  string
		wantMulti bool
	}{
		{"nothing qualifies", day("Stow", "100:00"), "None", false},
		{"nil aggregate", nil, "None", false},
		{"single task", day("Stow", "215:00", "Diverter", "20:00"), "Stow", false},
		{"multiple tasks keep key order", day("Stow", "215:00", "Diverter", "230:00"), "Stow, Diverter", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, text, multi := PrevCell(tt.prev, DefaultThreshold)
			assert.Equal(t, tt.wantText, text)
			assert.Equal(t, tt.wantMulti, multi)
		})
	}
}

func TestEvaluateUsesLastSegmentAsCurrent(t *testing.T) {
	p := DefaultPolicy()
	prev := day("Stow", "250:00")
	cur := day("Stow", "300:00", "Diverter", "10:00")

	v := p.Evaluate(prev, cur, DefaultThreshold)

	assert.Equal(t, model.CanonicalTask("Diverter"), v.CurrentTask)
	assert.Equal(t, model.ColorGreen, v.Color)
	assert.Equal(t, "Stow", v.PrevText)
}

func TestEvaluateEmptyCurrentDay(t *testing.T) {
	p := DefaultPolicy()
	v := p.Evaluate(day("Stow", "250:00"), tasks.NewDailyAggregate(), DefaultThreshold)

	assert.Equal(t, model.NoTask, v.CurrentTask)
	assert.Equal(t, model.ColorGreen, v.Color)
	assert.Equal(t, "#78fa98", v.Background)
}

func TestPaletteCSS(t *testing.T) {
	p := DefaultPalette()

	assert.Equal(t, "#78fa98", p.CSS(model.ColorGreen))
	assert.Equal(t, "#00FFFF", p.CSS(model.ColorCyan))
	assert.Equal(t, "#f77481", p.CSS(model.ColorRed))
	assert.Equal(t, "#ffff99", p.CSS(model.ColorYellow))
	assert.Equal(t, "#d3d3d3", p.CSS(model.ColorError))
	assert.Equal(t, "#78fa98", p.CSS("UNKNOWN"))
}
