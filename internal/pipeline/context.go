// Package pipeline drives the per-row fetch, aggregate and classify sequence.
package pipeline

import (
	"fmt"
	"time"

	"github.com/drew/rotacheck/internal/compliance"
)

// FetchErrorPolicy decides what happens to the run when a detail fetch fails
type FetchErrorPolicy string

const (
	// MarkAndContinue paints the failed row with the error marker and moves on
	MarkAndContinue FetchErrorPolicy = "mark"
	// HaltRemaining leaves the failed row as-is and skips every later row
	HaltRemaining FetchErrorPolicy = "halt"
)

// ParseFetchErrorPolicy maps a config value onto a policy
func ParseFetchErrorPolicy(s string) (FetchErrorPolicy, error) {
	switch FetchErrorPolicy(s) {
	case "", MarkAndContinue:
		return MarkAndContinue, nil
	case HaltRemaining:
		return HaltRemaining, nil
	}
	return "", fmt.Errorf("unknown fetch error policy %q", s)
}

// RunContext is computed once per run and never mutated.
type RunContext struct {
	anchor    time.Time
	threshold int
	policy    compliance.Policy
	onError   FetchErrorPolicy
	skip      int
}

// NewRunContext fixes the dates, threshold and rules for one run.
func NewRunContext(anchor time.Time, threshold int, policy compliance.Policy, onError FetchErrorPolicy, skipPrevious int) RunContext {
	y, m, d := anchor.Date()
	if skipPrevious < 0 {
		skipPrevious = 0
	}
	return RunContext{
		anchor:    time.Date(y, m, d, 0, 0, 0, 0, time.UTC),
		threshold: threshold,
		policy:    policy,
		onError:   onError,
		skip:      skipPrevious,
	}
}

func (rc RunContext) AnchorDate() time.Time { return rc.anchor }
func (rc RunContext) PreviousDay() time.Time { return rc.anchor.AddDate(0, 0, -1) }
func (rc RunContext) NextDay() time.Time { return rc.anchor.AddDate(0, 0, 1) }
func (rc RunContext) Threshold() int { return rc.threshold }
func (rc RunContext) Policy() compliance.Policy { return rc.policy }
func (rc RunContext) OnFetchError() FetchErrorPolicy { return rc.onError }
func (rc RunContext) SkipPrevious() int { return rc.skip }

// WithThreshold returns a copy using a different threshold.
func (rc RunContext) WithThreshold(threshold int) RunContext {
	rc.threshold = threshold
	return rc
}
