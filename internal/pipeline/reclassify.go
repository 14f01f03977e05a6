package pipeline

import (
	"github.com/drew/rotacheck/internal/hostpage"
	"github.com/drew/rotacheck/internal/model"
)

// Reclassify repaints a fresh table from a previous run's aggregates under
// rc, without fetching anything. Rows keep their status; halted rows stay
// untouched and failed rows are marked again under the mark policy.
func Reclassify(table hostpage.Table, prior *Result, rc RunContext) (*Result, error) {
	if err := table.AppendHeaders(rc.Threshold()); err != nil {
		return nil, err
	}

	out := &Result{
		Rows:   make([]model.RowResult, len(prior.Rows)),
		Days:   prior.Days,
		Halted: prior.Halted,
	}

	for i, row := range prior.Rows {
		res := row
		days := prior.Days[i]

		if days != nil && days.Previous != nil {
			v := rc.Policy().Evaluate(days.Previous, nil, rc.Threshold())
			res.PrevText = v.PrevText
			res.PrevMulti = v.PrevMulti
			if err := table.ApplyPrev(row.Index, v.PrevText, v.PrevMulti); err != nil {
				return nil, err
			}
		}

		switch {
		case row.Status == model.StatusDone && days != nil && days.Current != nil:
			res = ApplyVerdict(res, rc, days)
			if err := table.ApplyCurrent(row.Index, string(res.CurrentTask), res.Background); err != nil {
				return nil, err
			}
		case row.Status == model.StatusError && rc.OnFetchError() == MarkAndContinue:
			verdict := rc.Policy().ErrorVerdict()
			res.Color = verdict.Color
			res.Background = verdict.Background
			if err := table.MarkError(row.Index, row.Error, verdict.Background); err != nil {
				return nil, err
			}
		}

		out.Rows[i] = res
	}

	return out, nil
}
