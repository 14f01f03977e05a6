// Package tasks turns raw task segments scraped from detail documents into
// per-day task totals.
package tasks

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"
)

// ParseMinutes reads the whole-minute component of an "mm:ss" duration.
// Input without a leading integer yields NaN, which never compares >= to
// any threshold.
func ParseMinutes(text string) float64 {
	head, _, _ := strings.Cut(text, ":")
	n, ok := leadingNumber(head)
	if !ok {
		return math.NaN()
	}
	return n
}

// leadingNumber parses an optionally signed run of digits after leading
// whitespace and ignores whatever follows it. Long digit runs round to
// the nearest float64 instead of wrapping.
func leadingNumber(s string) (float64, bool) {
	s = strings.TrimLeftFunc(s, unicode.IsSpace)
	neg := false
	if s != "" && (s[0] == '-' || s[0] == '+') {
		neg = s[0] == '-'
		s = s[1:]
	}

	digits := 0
	for digits < len(s) && s[digits] >= '0' && s[digits] <= '9' {
		digits++
	}
	if digits == 0 {
		return 0, false
	}
	// A bare digit run only fails with ErrRange, where n is +Inf
	n, _ := strconv.ParseFloat(s[:digits], 64)
	if neg {
		n = -n
	}
	return n, true
}

// maxClockPart bounds each Clock component so sums cannot overflow
const maxClockPart = math.MaxInt32

// Clock is a minutes:seconds duration
type Clock struct {
	Minutes int
	Seconds int
}

// ParseClock parses "mm:ss" text. Both components must lead with digits.
func ParseClock(text string) (Clock, bool) {
	head, tail, found := strings.Cut(text, ":")
	if !found {
		return Clock{}, false
	}
	tail, _, _ = strings.Cut(tail, ":")

	m, ok := leadingNumber(head)
	if !ok || math.Abs(m) > maxClockPart {
		return Clock{}, false
	}
	s, ok := leadingNumber(tail)
	if !ok || math.Abs(s) > maxClockPart {
		return Clock{}, false
	}
	return Clock{Minutes: int(m), Seconds: int(s)}, true
}

// Add sums two clocks, carrying whole minutes out of the seconds
func (c Clock) Add(o Clock) Clock {
	secs := c.Seconds + o.Seconds
	return Clock{
		Minutes: c.Minutes + o.Minutes + secs/60,
		Seconds: secs % 60,
	}
}

func (c Clock) String() string {
	return fmt.Sprintf("%d:%02d", c.Minutes, c.Seconds)
}
