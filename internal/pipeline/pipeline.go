package pipeline

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/drew/rotacheck/internal/hostpage"
	"github.com/drew/rotacheck/internal/model"
	"github.com/drew/rotacheck/internal/portal"
	"github.com/drew/rotacheck/internal/tasks"
)

const dateLayout = "2006-01-02"

// Options wires a Pipeline to its collaborators
type Options struct {
	Table      hostpage.Table
	Fetcher    portal.Fetcher
	Normalizer *tasks.Normalizer
	Logger     *zap.Logger
	// OnRow is called after each row settles, in table order
	OnRow func(model.RowResult)
}

// Pipeline annotates a report table one row at a time.
type Pipeline struct {
	table      hostpage.Table
	fetcher    portal.Fetcher
	normalizer *tasks.Normalizer
	logger     *zap.Logger
	onRow      func(model.RowResult)
}

// Days holds the aggregates of a row. Current is nil when the row failed
// after the previous day was rendered.
type Days struct {
	Previous *tasks.DailyAggregate
	Current  *tasks.DailyAggregate
}

func (d *Days) withCurrent(cur *tasks.DailyAggregate) *Days {
	return &Days{Previous: d.Previous, Current: cur}
}

// Result is the outcome of a run
type Result struct {
	Rows []model.RowResult
	// Days is indexed like Rows; nil for rows that never got a previous day
	Days   []*Days
	Halted bool
}

// Counts tallies the rows by verdict color and status
func (r *Result) Counts() map[string]int {
	return model.CountVerdicts(r.Rows)
}

// New creates a Pipeline
func New(opts Options) *Pipeline {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		table:      opts.Table,
		fetcher:    opts.Fetcher,
		normalizer: opts.Normalizer,
		logger:     logger,
		onRow:      opts.OnRow,
	}
}

// Run processes every row in table order. Row i's current-day fetch
// completes before row i+1's previous-day fetch starts.
// Errors are returned only for failures that prevent annotation entirely.
func (p *Pipeline) Run(ctx context.Context, rc RunContext) (*Result, error) {
	rows, err := p.table.Rows()
	if err != nil {
		return nil, err
	}

	if err := p.table.AppendHeaders(rc.Threshold()); err != nil {
		return nil, err
	}

	p.logger.Info("starting run",
		zap.String("anchorDate", rc.AnchorDate().Format(dateLayout)),
		zap.Int("rows", len(rows)),
		zap.Int("threshold", rc.Threshold()),
		zap.String("onFetchError", string(rc.OnFetchError())),
	)

	result := &Result{
		Rows: make([]model.RowResult, len(rows)),
		Days: make([]*Days, len(rows)),
	}
	for i, row := range rows {
		result.Rows[i] = model.RowResult{Index: row.Index, EmployeeID: row.EmployeeID, Status: model.StatusPending}
	}

	for i, row := range rows {
		if err := ctx.Err(); err != nil {
			p.haltFrom(result, i)
			return result, err
		}

		res, days, err := p.processRow(ctx, rc, row)
		if err != nil {
			res.Status = model.StatusError
			res.Error = err.Error()
			p.logger.Error("row failed",
				zap.Int("row", row.Index),
				zap.String("employeeId", row.EmployeeID),
				zap.Error(err),
			)

			if rc.OnFetchError() == HaltRemaining {
				result.Rows[i] = res
				result.Days[i] = days
				p.notify(res)
				p.haltFrom(result, i+1)
				return result, nil
			}

			verdict := rc.Policy().ErrorVerdict()
			res.Color = verdict.Color
			res.Background = verdict.Background
			if markErr := p.table.MarkError(row.Index, err.Error(), verdict.Background); markErr != nil {
				p.logger.Warn("could not mark row", zap.Int("row", row.Index), zap.Error(markErr))
			}
		}

		result.Rows[i] = res
		result.Days[i] = days
		p.notify(res)
	}

	p.logger.Info("run complete", zap.Any("counts", result.Counts()))
	return result, nil
}

func (p *Pipeline) processRow(ctx context.Context, rc RunContext, row hostpage.Row) (model.RowResult, *Days, error) {
	start := time.Now()
	res := model.RowResult{Index: row.Index, EmployeeID: row.EmployeeID}

	prevSegments, err := p.fetcher.Fetch(ctx, row.EmployeeID, rc.PreviousDay(), rc.AnchorDate())
	if err != nil {
		res.DurationMs = time.Since(start).Milliseconds()
		return res, nil, fmt.Errorf("previous day: %w", err)
	}
	prev := tasks.Aggregate(skip(prevSegments, rc.SkipPrevious()), p.normalizer)
	res.PreviousDay = prev.Summary(rc.PreviousDay().Format(dateLayout))

	verdict := rc.Policy().Evaluate(prev, nil, rc.Threshold())
	if err := p.table.ApplyPrev(row.Index, verdict.PrevText, verdict.PrevMulti); err != nil {
		res.DurationMs = time.Since(start).Milliseconds()
		return res, nil, err
	}
	res.PrevText = verdict.PrevText
	res.PrevMulti = verdict.PrevMulti

	days := &Days{Previous: prev}

	curSegments, err := p.fetcher.Fetch(ctx, row.EmployeeID, rc.AnchorDate(), rc.NextDay())
	if err != nil {
		res.DurationMs = time.Since(start).Milliseconds()
		return res, days, fmt.Errorf("current day: %w", err)
	}
	cur := tasks.Aggregate(curSegments, p.normalizer)
	res.CurrentDay = cur.Summary(rc.AnchorDate().Format(dateLayout))

	res = ApplyVerdict(res, rc, days.withCurrent(cur))
	if err := p.table.ApplyCurrent(row.Index, string(res.CurrentTask), res.Background); err != nil {
		res.DurationMs = time.Since(start).Milliseconds()
		return res, days, err
	}
	days.Current = cur

	res.Status = model.StatusDone
	res.DurationMs = time.Since(start).Milliseconds()
	p.logger.Debug("row classified",
		zap.Int("row", row.Index),
		zap.String("employeeId", row.EmployeeID),
		zap.String("prev", res.PrevText),
		zap.String("current", string(res.CurrentTask)),
		zap.String("color", string(res.Color)),
	)
	return res, days, nil
}

// ApplyVerdict fills the verdict fields of res from both days' aggregates.
func ApplyVerdict(res model.RowResult, rc RunContext, days *Days) model.RowResult {
	v := rc.Policy().Evaluate(days.Previous, days.Current, rc.Threshold())
	res.PrevText = v.PrevText
	res.PrevMulti = v.PrevMulti
	res.CurrentTask = v.CurrentTask
	res.Color = v.Color
	res.Background = v.Background
	return res
}

func (p *Pipeline) haltFrom(result *Result, from int) {
	result.Halted = true
	for j := from; j < len(result.Rows); j++ {
		result.Rows[j].Status = model.StatusHalted
		p.notify(result.Rows[j])
	}
	if from < len(result.Rows) {
		p.logger.Warn("run halted", zap.Int("skippedRows", len(result.Rows)-from))
	}
}

func (p *Pipeline) notify(res model.RowResult) {
	if p.onRow != nil {
		p.onRow(res)
	}
}

func skip(segments []model.TaskSegment, n int) []model.TaskSegment {
	if n >= len(segments) {
		return nil
	}
	return segments[n:]
}
