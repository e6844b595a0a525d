// Package rangefilter implements a time-window filter wrapping any single
// event.Generator source, per spec.md §4.8.
package rangefilter

import (
	"fmt"

	"github.com/nilsaberg/actf2/event"
)

var _ event.Generator = (*RangeFilter)(nil)

// nsPerDay is the modulus used to recover a "time of day" from an
// ns-from-origin timestamp, and to reconstruct a full timestamp from a
// time-of-day bound plus an inferred date.
const nsPerDay = 86400_000_000_000

// Bound is one edge of a RangeFilter's time window. HasDate is false when Ns
// is only a time-of-day offset (ns mod nsPerDay): the filter learns the
// trace's date from its first event and adds it in on first use.
type Bound struct {
	Ns      int64
	HasDate bool
}

// RangeFilter passes through events from inner whose ns-from-origin
// timestamp falls in the inclusive window [Begin, End]. It implements
// event.Generator.
type RangeFilter struct {
	inner event.Generator
	begin Bound
	end   Bound

	initialized bool
	exhausted   bool
	lastErr     error
}

// New wraps inner with the time window [begin, end]. Neither bound is
// resolved yet if it lacks a date: that happens lazily, on the first
// Generate call. An explicit SeekNsFromOrigin before that call skips date
// inference, so an undated bound stays a bare time of day.
func New(inner event.Generator, begin, end Bound) *RangeFilter {
	return &RangeFilter{inner: inner, begin: begin, end: end}
}

// Generate fills out with up to len(out) events from inner, truncated to
// those with timestamp <= End. The window's lower bound is enforced once,
// by seeking inner to Begin before the first event is ever produced; once a
// batch is truncated (an event beyond End was seen), every later call
// reports end-of-stream without consulting inner again, since inner's
// events arrive in non-decreasing timestamp order.
func (f *RangeFilter) Generate(out []event.Event) (int, event.Status) {
	if f.lastErr != nil {
		return 0, event.StatusError
	}

	if err := f.ensureInitialized(); err != nil {
		f.lastErr = err

		return 0, event.StatusError
	}

	if f.exhausted {
		return 0, event.StatusOK
	}

	n, status := f.inner.Generate(out)
	if status == event.StatusError {
		f.lastErr = fmt.Errorf("rangefilter: %w", f.inner.LastError())

		return 0, event.StatusError
	}

	cut := 0
	for cut < n && out[cut].TimestampNs <= f.end.Ns {
		cut++
	}
	if cut < n {
		f.exhausted = true
	}

	return cut, event.StatusOK
}

// ensureInitialized resolves any undated bound against the trace's first
// event's date-of-day and seeks inner to Begin. It runs at most once; an
// explicit SeekNsFromOrigin call also marks the filter initialized, since a
// caller-supplied absolute timestamp needs no date inference.
func (f *RangeFilter) ensureInitialized() error {
	if f.initialized {
		return nil
	}
	f.initialized = true

	if f.begin.HasDate && f.end.HasDate {
		return f.seekBegin()
	}

	peek := make([]event.Event, 1)
	n, status := f.inner.Generate(peek)
	if status == event.StatusError {
		return fmt.Errorf("rangefilter: %w", f.inner.LastError())
	}
	if n == 0 {
		f.exhausted = true

		return nil
	}

	date := peek[0].TimestampNs - peek[0].TimestampNs%nsPerDay
	if !f.begin.HasDate {
		f.begin.Ns += date
	}
	if !f.end.HasDate {
		f.end.Ns += date
	}

	return f.seekBegin()
}

func (f *RangeFilter) seekBegin() error {
	if status := f.inner.SeekNsFromOrigin(f.begin.Ns); status == event.StatusError {
		return fmt.Errorf("rangefilter: %w", f.inner.LastError())
	}

	return nil
}

// SeekNsFromOrigin repositions inner directly to tstampNs, bypassing Begin
// (an explicit seek is already an absolute timestamp, needing no date
// inference) while End still truncates subsequent batches.
func (f *RangeFilter) SeekNsFromOrigin(tstampNs int64) event.Status {
	f.lastErr = nil
	f.exhausted = false
	f.initialized = true

	if status := f.inner.SeekNsFromOrigin(tstampNs); status == event.StatusError {
		f.lastErr = fmt.Errorf("rangefilter: %w", f.inner.LastError())

		return event.StatusError
	}

	return event.StatusOK
}

// LastError returns the most recently latched error, or nil.
func (f *RangeFilter) LastError() error { return f.lastErr }
