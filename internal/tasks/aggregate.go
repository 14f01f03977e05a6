package tasks

import (
	"math"

	"github.com/drew/rotacheck/internal/model"
)

// DailyAggregate holds task totals for one employee on one day.
// Keys keep first-seen order.
type DailyAggregate struct {
	order    []model.CanonicalTask
	minutes  map[model.CanonicalTask]float64
	clocks   map[model.CanonicalTask]*Clock
	current  model.CanonicalTask
	segments int
}

// NewDailyAggregate returns an empty aggregate
func NewDailyAggregate() *DailyAggregate {
	return &DailyAggregate{
		minutes: make(map[model.CanonicalTask]float64),
		clocks:  make(map[model.CanonicalTask]*Clock),
		current: model.NoTask,
	}
}

// Aggregate normalizes and sums a day's segments in order
func Aggregate(segments []model.TaskSegment, n *Normalizer) *DailyAggregate {
	agg := NewDailyAggregate()
	for _, seg := range segments {
		agg.Add(n.Normalize(seg.RawLabel), seg.RawDuration)
	}
	return agg
}

// Add folds one segment into the aggregate. A NaN duration poisons the
// task's total for the rest of the day.
func (a *DailyAggregate) Add(task model.CanonicalTask, rawDuration string) {
	mins := ParseMinutes(rawDuration)
	clock, clockOK := ParseClock(rawDuration)

	prev, seen := a.minutes[task]
	if !seen {
		a.order = append(a.order, task)
		a.minutes[task] = mins
		if clockOK {
			a.clocks[task] = &clock
		} else {
			a.clocks[task] = nil
		}
	} else {
		a.minutes[task] = prev + mins
		if total := a.clocks[task]; total != nil && clockOK {
			sum := total.Add(clock)
			a.clocks[task] = &sum
		} else {
			a.clocks[task] = nil
		}
	}

	a.current = task
	a.segments++
}

// Minutes returns the task's total and whether the task was seen
func (a *DailyAggregate) Minutes(task model.CanonicalTask) (float64, bool) {
	m, ok := a.minutes[task]
	return m, ok
}

// Clock returns the precise minutes:seconds total for the task, if every
// segment of that task carried a parsable clock
func (a *DailyAggregate) Clock(task model.CanonicalTask) (Clock, bool) {
	c := a.clocks[task]
	if c == nil {
		return Clock{}, false
	}
	return *c, true
}

// Tasks returns the canonical tasks in first-seen order
func (a *DailyAggregate) Tasks() []model.CanonicalTask {
	out := make([]model.CanonicalTask, len(a.order))
	copy(out, a.order)
	return out
}

// Current is the canonical task of the last segment added, or "None"
func (a *DailyAggregate) Current() model.CanonicalTask {
	return a.current
}

// Segments returns how many segments were added
func (a *DailyAggregate) Segments() int {
	return a.segments
}

// AtOrAbove returns the tasks whose total is >= threshold, in key order
func (a *DailyAggregate) AtOrAbove(threshold int) []model.CanonicalTask {
	var out []model.CanonicalTask
	for _, task := range a.order {
		if a.minutes[task] >= float64(threshold) {
			out = append(out, task)
		}
	}
	return out
}

// Summary converts the aggregate into its run.json form
func (a *DailyAggregate) Summary(date string) *model.DaySummary {
	s := &model.DaySummary{
		Date:     date,
		Segments: a.segments,
		Totals:   make([]model.TaskTotal, 0, len(a.order)),
		Current:  a.current,
	}
	for _, task := range a.order {
		total := model.TaskTotal{Task: task}
		if m := a.minutes[task]; !math.IsNaN(m) {
			total.Minutes = &m
		}
		if c, ok := a.Clock(task); ok {
			total.Clock = c.String()
		}
		s.Totals = append(s.Totals, total)
	}
	return s
}
