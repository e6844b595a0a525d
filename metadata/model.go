// Package metadata implements the CTF2 MetadataModel: the immutable schema
// built by parsing a metadata stream (JSON fragments, plain or packetized),
// holding the preamble, trace class, clock classes, field-class aliases, and
// the data-stream classes (each owning its event-record classes).
package metadata

import (
	"iter"

	"github.com/google/uuid"
	"github.com/nilsaberg/actf2/errs"
	"github.com/nilsaberg/actf2/fieldclass"
)

// ClockOrigin selects a ClockClass's time origin.
type ClockOrigin int

const (
	OriginNone ClockOrigin = iota
	OriginUnixEpoch
	OriginCustom
)

// Preamble is the metadata stream's single mandatory first fragment.
type Preamble struct {
	Version    int
	UUID       uuid.UUID
	HasUUID    bool
	Attributes map[string]any
}

// TraceClass is the metadata stream's at-most-one trace-wide fragment.
type TraceClass struct {
	Namespace       string
	Name            string
	UID             string
	PacketHeader    *fieldclass.FieldClass
	Environment     map[string]any
	Attributes      map[string]any
}

// ClockClass describes one clock referenced by data-stream classes.
type ClockClass struct {
	ID                string
	Namespace         string
	Name              string
	UID               string
	Frequency         uint64
	Origin            ClockOrigin
	OffsetSeconds     int64
	OffsetCycles      uint64
	Precision         uint64
	HasPrecision      bool
	Accuracy          uint64
	HasAccuracy       bool
	Description       string
	Attributes        map[string]any

	// identityHash is the fingerprint of Namespace/Name/UID, precomputed by
	// the parser so Identity can reject the common non-matching case in
	// O(1) before falling back to the exact field comparison a hash match
	// (or an uncomputed, zero-value hash) still requires.
	identityHash uint64
}

// Identity reports whether two clock classes identify the same clock:
// matching namespace, name, and uid.
func (c *ClockClass) Identity(other *ClockClass) bool {
	if c.identityHash != 0 && other.identityHash != 0 && c.identityHash != other.identityHash {
		return false
	}

	return c.Namespace == other.Namespace && c.Name == other.Name && c.UID == other.UID
}

// StrictEqual additionally requires matching frequency, origin, precision,
// and accuracy.
func (c *ClockClass) StrictEqual(other *ClockClass) bool {
	return c.Identity(other) &&
		c.Frequency == other.Frequency &&
		c.Origin == other.Origin &&
		c.Precision == other.Precision && c.HasPrecision == other.HasPrecision &&
		c.Accuracy == other.Accuracy && c.HasAccuracy == other.HasAccuracy
}

// EventRecordClass is one event type within a DataStreamClass.
type EventRecordClass struct {
	ID              uint64
	Namespace       string
	Name            string
	SpecificContext *fieldclass.FieldClass
	Payload         *fieldclass.FieldClass
	Attributes      map[string]any
}

// DataStreamClass owns the field classes shared by every event on one
// stream, plus its event-record classes keyed by id.
type DataStreamClass struct {
	ID                  uint64
	Namespace           string
	Name                string
	DefaultClockID      string
	HasDefaultClock     bool
	defaultClock        *ClockClass
	PacketContext       *fieldclass.FieldClass
	EventRecordHeader   *fieldclass.FieldClass
	EventCommonContext  *fieldclass.FieldClass
	Attributes          map[string]any

	events     map[uint64]*EventRecordClass
	eventOrder []uint64
}

// DefaultClock returns the resolved ClockClass, if any.
func (d *DataStreamClass) DefaultClock() (*ClockClass, bool) {
	return d.defaultClock, d.HasDefaultClock
}

// EventRecordClassByID resolves an event-record class owned by this stream.
func (d *DataStreamClass) EventRecordClassByID(id uint64) (*EventRecordClass, error) {
	erc, ok := d.events[id]
	if !ok {
		return nil, errs.ErrNoSuchEventRecordClass
	}

	return erc, nil
}

// EventRecordClasses iterates this stream's event-record classes in
// insertion order.
func (d *DataStreamClass) EventRecordClasses() iter.Seq[*EventRecordClass] {
	return func(yield func(*EventRecordClass) bool) {
		for _, id := range d.eventOrder {
			if !yield(d.events[id]) {
				return
			}
		}
	}
}

// Model is the immutable-after-Freeze metadata schema. It is built
// incrementally by a JsonSchemaParser and owns every FieldClass referenced
// by any decoded Field.
type Model struct {
	preamble    *Preamble
	trace       *TraceClass
	aliases     map[string]*fieldclass.FieldClass
	clocks      map[string]*ClockClass
	streams     map[uint64]*DataStreamClass
	streamOrder []uint64

	frozen bool
}

func newModel() *Model {
	return &Model{
		aliases: make(map[string]*fieldclass.FieldClass),
		clocks:  make(map[string]*ClockClass),
		streams: make(map[uint64]*DataStreamClass),
	}
}

// Freeze marks the model as complete; the builder rejects any further
// fragment applied to it. A Model is only exposed to callers (via the parser)
// after a successful Freeze.
func (m *Model) Freeze() { m.frozen = true }

// Preamble returns the metadata stream's preamble fragment.
func (m *Model) Preamble() *Preamble { return m.preamble }

// TraceClass returns the trace-class fragment, or nil if none was present.
func (m *Model) TraceClass() *TraceClass { return m.trace }

// FieldClassAlias resolves a named field-class alias.
func (m *Model) FieldClassAlias(name string) (*fieldclass.FieldClass, error) {
	fc, ok := m.aliases[name]
	if !ok {
		return nil, errs.ErrNoSuchAlias
	}

	return fc, nil
}

// ClockClassByID resolves a clock class by id.
func (m *Model) ClockClassByID(id string) (*ClockClass, error) {
	cc, ok := m.clocks[id]
	if !ok {
		return nil, errs.ErrNoSuchOrigin
	}

	return cc, nil
}

// DataStreamClassByID resolves a data-stream class by id.
func (m *Model) DataStreamClassByID(id uint64) (*DataStreamClass, error) {
	dsc, ok := m.streams[id]
	if !ok {
		return nil, errs.ErrNoSuchDataStreamClass
	}

	return dsc, nil
}

// DataStreamClasses iterates the model's data-stream classes in fragment
// arrival order.
func (m *Model) DataStreamClasses() iter.Seq[*DataStreamClass] {
	return func(yield func(*DataStreamClass) bool) {
		for _, id := range m.streamOrder {
			if !yield(m.streams[id]) {
				return
			}
		}
	}
}
