package prefs

import (
	"math"
	"strconv"
	"strings"

	"github.com/drew/rotacheck/internal/compliance"
)

// Keys in the preference store
const (
	KeyThreshold = "threshold"
	KeyDarkMode  = "darkMode"
)

// Preferences reads and writes typed preferences over a Store.
type Preferences struct {
	store    Store
	fallback int
}

// New wraps store. fallback is returned by Threshold when nothing valid is
// stored; values of zero or below select the built-in default.
func New(store Store, fallback int) *Preferences {
	if fallback <= 0 {
		fallback = compliance.DefaultThreshold
	}
	return &Preferences{store: store, fallback: fallback}
}

// Threshold returns the stored threshold, or the fallback when absent or invalid.
func (p *Preferences) Threshold() int {
	n, ok := p.StoredThreshold()
	if !ok {
		return p.fallback
	}
	return n
}

// StoredThreshold returns the stored threshold and whether a valid one exists.
func (p *Preferences) StoredThreshold() (int, bool) {
	raw, ok, err := p.store.Get(KeyThreshold)
	if err != nil || !ok {
		return 0, false
	}
	n, ok := parseThreshold(raw)
	if !ok {
		return 0, false
	}
	return n, true
}

// SetThreshold stores raw if it parses as a number and reports whether it did.
// Non-numeric input leaves the prior value untouched.
func (p *Preferences) SetThreshold(raw string) (bool, error) {
	n, ok := parseThreshold(raw)
	if !ok {
		return false, nil
	}
	if err := p.store.Set(KeyThreshold, strconv.Itoa(n)); err != nil {
		return false, err
	}
	return true, nil
}

// DarkMode reports whether the dark appearance is enabled.
func (p *Preferences) DarkMode() bool {
	raw, ok, err := p.store.Get(KeyDarkMode)
	if err != nil || !ok {
		return false
	}
	return raw == "enabled"
}

// ToggleDarkMode flips the appearance preference and returns the new state.
func (p *Preferences) ToggleDarkMode() (bool, error) {
	next := !p.DarkMode()
	value := "disabled"
	if next {
		value = "enabled"
	}
	if err := p.store.Set(KeyDarkMode, value); err != nil {
		return !next, err
	}
	return next, nil
}

// parseThreshold accepts positive integer or decimal input; decimals are truncated.
func parseThreshold(raw string) (int, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	if n, err := strconv.Atoi(raw); err == nil {
		return n, n > 0
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f < 1 || f > math.MaxInt32 {
		return 0, false
	}
	return int(f), true
}
