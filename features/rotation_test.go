package features

import (
	"fmt"

	"github.com/cucumber/godog"

	"github.com/drew/rotacheck/internal/compliance"
	"github.com/drew/rotacheck/internal/model"
	"github.com/drew/rotacheck/internal/tasks"
)

type rotationContext struct {
	policy     compliance.Policy
	normalizer *tasks.Normalizer
	threshold  int
	prev       []model.TaskSegment
	cur        []model.TaskSegment
	verdict    compliance.RowVerdict
}

// segmentsFrom reads a label/duration table into detail segments
func segmentsFrom(table *godog.Table) ([]model.TaskSegment, error) {
	if len(table.Rows) == 0 {
		return nil, fmt.Errorf("empty segment table")
	}
	var out []model.TaskSegment
	for _, row := range table.Rows[1:] {
		if len(row.Cells) != 2 {
			return nil, fmt.Errorf("expected label and duration, got %d cells", len(row.Cells))
		}
		out = append(out, model.TaskSegment{
			RawLabel:    "1001\tAssociate\tDAY\t" + row.Cells[0].Value + tasks.LabelMarker + "Direct",
			RawDuration: row.Cells[1].Value,
		})
	}
	return out, nil
}

func (c *rotationContext) theStockTaskPolicy() error {
	c.policy = compliance.DefaultPolicy()
	c.normalizer = tasks.NewNormalizer(tasks.DefaultAliases())
	return nil
}

func (c *rotationContext) aThresholdOfMinutes(n int) error {
	c.threshold = n
	return nil
}

func (c *rotationContext) thePreviousDayHad(table *godog.Table) error {
	segs, err := segmentsFrom(table)
	c.prev = segs
	return err
}

func (c *rotationContext) theCurrentDayHas(table *godog.Table) error {
	segs, err := segmentsFrom(table)
	c.cur = segs
	return err
}

func (c *rotationContext) theCurrentDayIsEmpty() error {
	c.cur = nil
	return nil
}

func (c *rotationContext) theRowIsClassified() error {
	prev := tasks.Aggregate(c.prev, c.normalizer)
	cur := tasks.Aggregate(c.cur, c.normalizer)
	c.verdict = c.policy.Evaluate(prev, cur, c.threshold)
	return nil
}

func (c *rotationContext) theVerdictShouldBe(want string) error {
	if got := string(c.verdict.Color); got != want {
		return fmt.Errorf("expected verdict %s, got %s (prev %q, current %q)", want, got, c.verdict.PrevText, c.verdict.CurrentTask)
	}
	return nil
}

func (c *rotationContext) thePreviousDayCellShouldRead(want string) error {
	if c.verdict.PrevText != want {
		return fmt.Errorf("expected previous-day cell %q, got %q", want, c.verdict.PrevText)
	}
	return nil
}

func (c *rotationContext) thePreviousDayCellShouldBeFlaggedAsMultiple() error {
	if !c.verdict.PrevMulti {
		return fmt.Errorf("expected previous-day cell %q to be flagged", c.verdict.PrevText)
	}
	return nil
}

func (c *rotationContext) theCurrentTaskShouldBe(want string) error {
	if string(c.verdict.CurrentTask) != want {
		return fmt.Errorf("expected current task %q, got %q", want, c.verdict.CurrentTask)
	}
	return nil
}

func InitializeRotationScenario(ctx *godog.ScenarioContext) {
	c := &rotationContext{}

	ctx.Step(`^the stock task policy$`, c.theStockTaskPolicy)
	ctx.Step(`^a threshold of (\d+) minutes$`, c.aThresholdOfMinutes)
	ctx.Step(`^the previous day had:$`, c.thePreviousDayHad)
	ctx.Step(`^the current day has:$`, c.theCurrentDayHas)
	ctx.Step(`^the current day is empty$`, c.theCurrentDayIsEmpty)
	ctx.Step(`^the row is classified$`, c.theRowIsClassified)
	ctx.Step(`^the verdict should be "([^"]*)"$`, c.theVerdictShouldBe)
	ctx.Step(`^the previous-day cell should read "([^"]*)"$`, c.thePreviousDayCellShouldRead)
	ctx.Step(`^the previous-day cell should be flagged as multiple$`, c.thePreviousDayCellShouldBeFlaggedAsMultiple)
	ctx.Step(`^the current task should be "([^"]*)"$`, c.theCurrentTaskShouldBe)
}
