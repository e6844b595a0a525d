// Package event defines the decoded Event value and the Generator
// contract shared by Decoder, Merger, and RangeFilter.
package event

import (
	"github.com/nilsaberg/actf2/field"
	"github.com/nilsaberg/actf2/metadata"
)

// Event is one decoded event record: its class, its default-clock
// value expressed in nanoseconds from the clock's origin, and the
// decoded common-context/specific-context/payload fields (each is nil
// if the corresponding field class was absent).
//
// An Event is only valid until the next Generate call on the source
// that produced it: its Tree and fields are owned by that source's
// field tree.
type Event struct {
	Class           *metadata.EventRecordClass
	Stream          *metadata.DataStreamClass
	TimestampNs     int64
	HasTimestamp    bool
	Tree            *field.Tree
	CommonContext   *field.Field
	SpecificContext *field.Field
	Payload         *field.Field
}

// Status is the outcome of a Generate or SeekNsFromOrigin call.
type Status int

const (
	// StatusOK means the call completed without error. A Generate call
	// returning StatusOK with zero events means end of stream.
	StatusOK Status = iota
	// StatusError means the source's LastError now holds a non-nil error.
	StatusError
)

// Generator is the operation contract shared by every event source:
// Decoder, Merger, and RangeFilter all implement it identically so they
// compose transparently into a pipeline.
type Generator interface {
	// Generate fills out with up to len(out) events, returning how many
	// were written and the resulting status. Events are only valid
	// until the next call on this source.
	Generate(out []Event) (int, Status)

	// SeekNsFromOrigin repositions the source so the next Generate call
	// yields the first event with timestamp-from-origin >= tstampNs. It
	// clears any latched error.
	SeekNsFromOrigin(tstampNs int64) Status

	// LastError returns the most recently latched error for this
	// source, or nil if it is not in an error state.
	LastError() error
}
