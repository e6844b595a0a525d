// Package actf2 decodes Common Trace Format version 2 (CTF2) byte streams
// into a sequence of structured events.
//
// CTF2 is a self-describing binary trace format: the wire layout of a data
// stream is defined entirely by an out-of-band JSON metadata stream, while
// the data stream itself is tightly packed, bit-granular, variably endian
// binary. This package provides the bit-accurate decoding engine: the
// metadata schema model, the bit reader, the field-class interpreter, the
// packet/event state machine, and a pipeline of a per-stream Decoder behind
// a time-ordered Merger and an optional RangeFilter.
//
// # Basic usage
//
// Parsing a metadata stream and decoding a single data stream:
//
//	model, err := actf2.ParseMetadata(metadataBytes)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	dec, err := actf2.NewDecoder(model, dataStreamBytes)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	buf := make([]event.Event, 64)
//	for {
//	    n, status := dec.Generate(buf)
//	    if status == event.StatusError {
//	        log.Fatal(dec.LastError())
//	    }
//	    if n == 0 {
//	        break
//	    }
//	    for _, ev := range buf[:n] {
//	        fmt.Println(ev.Class.ID, ev.TimestampNs)
//	    }
//	}
//
// Merging several data streams (typically one Decoder per file in a trace
// directory) into one globally time-ordered sequence, then restricting it
// to a time window:
//
//	m, err := actf2.NewMerger(sources)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	src := actf2.NewRangeFilter(m, actf2.AbsoluteBound(begin), actf2.AbsoluteBound(end))
//
// # Package structure
//
// This package provides convenient top-level wrappers around the decoder,
// merger, rangefilter, and metadata packages, covering the common
// single-call-site usage. For fine-grained control (construction options,
// direct access to the metadata model, driving the event.Generator contract
// by hand) use those packages directly.
package actf2

import (
	"github.com/nilsaberg/actf2/decoder"
	"github.com/nilsaberg/actf2/event"
	"github.com/nilsaberg/actf2/merger"
	"github.com/nilsaberg/actf2/metadata"
	"github.com/nilsaberg/actf2/rangefilter"
)

// Re-exported leaf types, so a program that only needs the top-level
// wrappers can depend on this package alone.
type (
	// Event is one decoded event record. See event.Event.
	Event = event.Event
	// Status is the outcome of a Generate or Seek call. See event.Status.
	Status = event.Status
	// Generator is the operation contract shared by Decoder, Merger, and
	// RangeFilter. See event.Generator.
	Generator = event.Generator
	// Model is a parsed, immutable CTF2 metadata schema. See metadata.Model.
	Model = metadata.Model
)

const (
	StatusOK    = event.StatusOK
	StatusError = event.StatusError
)

// ParseMetadata parses a metadata stream made of RS-0x1E-separated JSON
// fragments (the plain CTF2 metadata framing) into a Model.
func ParseMetadata(data []byte) (*Model, error) {
	return metadata.NewJsonSchemaParser().ParseFragments(data)
}

// ParsePacketizedMetadata parses a CTF2-PMETA-1.0 packetized metadata
// stream (back-to-back 44-byte headers, each followed by a fragment-stream
// slice) into a Model.
func ParsePacketizedMetadata(data []byte) (*Model, error) {
	return metadata.NewJsonSchemaParser().ParsePacketized(data)
}

// NewDecoder builds a Decoder over data, a single concatenated binary trace
// stream, against model. model must already describe the trace this data
// belongs to (typically obtained from ParseMetadata or
// ParsePacketizedMetadata) and must outlive the Decoder.
//
// Available options: decoder.WithEventBatchCapacity, decoder.WithPacketArenaHint.
func NewDecoder(model *Model, data []byte, opts ...decoder.Option) (*decoder.Decoder, error) {
	return decoder.NewDecoder(model, data, opts...)
}

// NewMerger k-way merges several event.Generator sources (typically one
// Decoder per data stream in a trace directory) into a single
// ns-from-origin-ordered event.Generator.
//
// Available options: merger.WithSourceBufferSize.
func NewMerger(sources []event.Generator, opts ...merger.Option) (*merger.Merger, error) {
	return merger.New(sources, opts...)
}

// AbsoluteBound returns a rangefilter.Bound carrying a full ns-from-origin
// timestamp, needing no date inference.
func AbsoluteBound(tstampNs int64) rangefilter.Bound {
	return rangefilter.Bound{Ns: tstampNs, HasDate: true}
}

// TimeOfDayBound returns a rangefilter.Bound carrying only a time-of-day
// offset (ns mod 24h): RangeFilter learns the trace's date from its wrapped
// source's first event and adds it in on first use.
func TimeOfDayBound(tstampNs int64) rangefilter.Bound {
	return rangefilter.Bound{Ns: tstampNs, HasDate: false}
}

// NewRangeFilter wraps inner with an inclusive ns-from-origin time window
// [begin, end], truncating any event past end and reporting end-of-stream
// once one is seen.
func NewRangeFilter(inner event.Generator, begin, end rangefilter.Bound) *rangefilter.RangeFilter {
	return rangefilter.New(inner, begin, end)
}
