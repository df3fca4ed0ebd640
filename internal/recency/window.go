// Package recency implements the trailing-window filter used to select recent
// discussion activity. The reference time is captured once per run and passed
// in explicitly.
package recency

import (
	"fmt"
	"strings"
	"time"
)

// Window is a trailing time window ending at a fixed reference time.
type Window struct {
	now  time.Time
	span time.Duration
}

// NewWindow returns a window of the given span ending at now. Now is truncated to whole seconds.
func NewWindow(now time.Time, span time.Duration) Window {
	return Window{now: now.Truncate(time.Second), span: span}
}

// Now returns the reference time.
func (w Window) Now() time.Time { return w.now }

// Span returns the window length.
func (w Window) Span() time.Duration { return w.span }

// Contains reports whether (now - t) <= span, with t truncated to whole seconds.
// Timestamps in the future are inside the window.
func (w Window) Contains(t time.Time) bool {
	return w.now.Sub(t.Truncate(time.Second)) <= w.span
}

// ContainsString parses s with ParseTimestamp and tests it against the window.
func (w Window) ContainsString(s string) (bool, time.Time, error) {
	t, err := ParseTimestamp(s)
	if err != nil {
		return false, time.Time{}, err
	}
	return w.Contains(t), t, nil
}

const naiveLayout = "2006-01-02T15:04:05"

// ParseTimestamp parses an API timestamp such as "2024-01-01T10:00:00.000-05:00".
// Fractional seconds are discarded. A timestamp without a zone offset is read as UTC.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.Truncate(time.Second), nil
	}
	base, _, _ := strings.Cut(s, ".")
	t, err := time.ParseInLocation(naiveLayout, base, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q: %w", s, err)
	}
	return t, nil
}

// Sequence checks that timestamps arrive newest-first.
type Sequence struct {
	prev    time.Time
	started bool
}

// Next records t and reports whether it is not newer than the previous timestamp.
func (s *Sequence) Next(t time.Time) bool {
	ok := !s.started || !t.After(s.prev)
	s.prev, s.started = t, true
	return ok
}

// Result describes a Select pass.
type Result struct {
	// Evaluated is the number of items whose timestamp was tested.
	Evaluated int
	// Stopped is true when a sorted scan ended early at an out-of-window item.
	Stopped bool
	// OrderViolations counts items newer than their predecessor.
	OrderViolations int
}

// Select returns the items inside the window, in input order.
//
// When sorted is true the items must be newest-first: scanning stops at the
// first item outside the window and later items are never evaluated. When
// sorted is false every item is evaluated.
func Select[T any](w Window, items []T, sorted bool, stamp func(T) string) ([]T, Result, error) {
	var (
		selected []T
		res      Result
		seq      Sequence
	)
	for _, item := range items {
		in, t, err := w.ContainsString(stamp(item))
		if err != nil {
			return nil, res, err
		}
		res.Evaluated++
		if !seq.Next(t) {
			res.OrderViolations++
		}
		if in {
			selected = append(selected, item)
			continue
		}
		if sorted {
			res.Stopped = true
			break
		}
	}
	return selected, res, nil
}
