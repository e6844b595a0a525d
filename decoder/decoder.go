// Package decoder implements the CTF2 packet/event-record state machine: it
// walks a binary trace stream field by field against a metadata.Model,
// producing event.Event values through the shared Generator contract.
package decoder

import (
	"github.com/nilsaberg/actf2/bitreader"
	"github.com/nilsaberg/actf2/errs"
	"github.com/nilsaberg/actf2/event"
	"github.com/nilsaberg/actf2/field"
	"github.com/nilsaberg/actf2/fieldclass"
	"github.com/nilsaberg/actf2/fieldloc"
	"github.com/nilsaberg/actf2/internal/arena"
	"github.com/nilsaberg/actf2/internal/options"
	"github.com/nilsaberg/actf2/metadata"
)

var _ event.Generator = (*Decoder)(nil)

// Decoder walks one binary trace stream against a fixed metadata.Model,
// yielding events packet by packet. It implements event.Generator.
type Decoder struct {
	model *metadata.Model
	cfg   *Config

	r        *bitreader.BitReader
	tree     *field.Tree
	locator  *field.Locator
	ctxRoots map[fieldloc.Origin]arena.Index

	pkt packetState
	evt eventState

	lastErr error
	// resumePacket is true when a packet's header/context has already been
	// decoded and Generate (or a Seek) should continue decoding events from
	// the current reader position rather than starting a new packet.
	resumePacket bool
	// pending holds an event already decoded by SeekNsFromOrigin while
	// scanning for the sought timestamp: the first sought-or-later event is
	// decoded (and the reader left positioned just past it) rather than
	// rewound to, so Generate hands it back before decoding anything new.
	pending *event.Event
}

// NewDecoder builds a Decoder over data, a single concatenated binary trace
// stream, against model (which must already be frozen).
func NewDecoder(model *metadata.Model, data []byte, opts ...Option) (*Decoder, error) {
	cfg := defaultConfig()
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, err
	}

	tree := field.NewTree(cfg.arenaHint)

	return &Decoder{
		model:    model,
		cfg:      cfg,
		r:        bitreader.New(data, bitreader.BigEndian),
		tree:     tree,
		locator:  field.NewLocator(tree),
		ctxRoots: make(map[fieldloc.Origin]arena.Index, 6),
	}, nil
}

// Generate fills out with up to len(out) events, decoding packets and event
// records as needed. It stops and latches an error via LastError on the
// first failure, still reporting StatusOK for events already written to out
// before the failure (spec.md's error-drift semantics).
func (d *Decoder) Generate(out []event.Event) (int, event.Status) {
	if d.lastErr != nil {
		return 0, event.StatusError
	}

	if len(out) > d.cfg.batchSize {
		out = out[:d.cfg.batchSize]
	}

	n := 0
	if d.pending != nil && n < len(out) {
		out[n] = *d.pending
		d.pending = nil
		n++
	}

	for n < len(out) {
		if !d.resumePacket {
			if !d.r.HasBitsRemaining() {
				break
			}
			if err := d.beginPacket(); err != nil {
				d.lastErr = err

				break
			}
			d.resumePacket = true
		}

		filled, done, err := d.fillEventsFromPacket(out[n:])
		n += filled
		if err != nil {
			d.lastErr = err

			break
		}
		if !done {
			break
		}

		if err := d.finishPacket(); err != nil {
			d.lastErr = err

			break
		}
		d.resumePacket = false

		// Starting the next packet resets the shared Tree, which would
		// corrupt any events already written to out from this one: stop
		// here and let the next Generate call pick up the following
		// packet fresh. Keep looping only while this packet produced
		// nothing (an empty packet), so a run of those can't stall
		// Generate indefinitely.
		if n > 0 {
			break
		}
	}

	if d.lastErr != nil {
		if n > 0 {
			return n, event.StatusOK
		}

		return n, event.StatusError
	}

	return n, event.StatusOK
}

// LastError returns the error latched by the most recent Generate or Seek
// call, or nil.
func (d *Decoder) LastError() error { return d.lastErr }

// Metadata returns the model this Decoder decodes against, for a directory
// reader that needs to label or cross-reference sources (e.g. when wiring
// several Decoders into a Merger).
func (d *Decoder) Metadata() *metadata.Model { return d.model }

// DataStreamID returns the ID of the data-stream class the current (or most
// recently decoded) packet resolved to, and whether one has been resolved
// yet. It returns false before the first packet is decoded.
func (d *Decoder) DataStreamID() (uint64, bool) {
	if d.pkt.dsc == nil {
		return 0, false
	}

	return d.pkt.dsc.ID, true
}

// beginPacket decodes the packet header (if the trace class has one) and
// packet context, resolving the packet's data-stream class along the way,
// and records the packet's begin timestamp from whatever default clock
// value resulted.
func (d *Decoder) beginPacket() error {
	d.pkt.reset()
	d.tree.Reset()
	clear(d.ctxRoots)

	d.pkt.startBit = d.r.TotalBitCount()

	if tc := d.model.TraceClass(); tc != nil && tc.PacketHeader != nil {
		root, err := d.decodeContextRoot(tc.PacketHeader, ctxPacketHeader)
		if err != nil {
			return err
		}
		d.ctxRoots[fieldloc.OriginPacketHeader] = root
	}

	if err := d.resolveDSC(); err != nil {
		return err
	}

	if d.pkt.dsc.PacketContext != nil {
		root, err := d.decodeContextRoot(d.pkt.dsc.PacketContext, ctxPacketContext)
		if err != nil {
			return err
		}
		d.ctxRoots[fieldloc.OriginPacketContext] = root
	}

	if d.pkt.hasContentLen && d.pkt.hasTotalLen && d.pkt.contentLenBits > d.pkt.totalLenBits {
		return errs.ErrInvalidContentLength
	}

	d.pkt.packetBeginNs = d.clockNs(d.pkt.defaultClock)
	d.pkt.hasPacketBegin = d.pkt.hasClock

	return nil
}

// decodeContextRoot decodes one top-level context structure (packet header,
// packet context, event header, ...) as a freshly allocated root field with
// no parent.
func (d *Decoder) decodeContextRoot(fc *fieldclass.FieldClass, ctx ctxKind) (arena.Index, error) {
	idx := d.tree.Alloc(arena.Nil, field.Field{Kind: field.KindNil, Class: fc})
	if err := d.finishField(idx, fc, ctx); err != nil {
		return arena.Nil, err
	}

	return idx, nil
}

// resolveDSC resolves the packet's data-stream class: by the explicit
// data-stream-class-id role if one fired, or the model's sole data-stream
// class if it has exactly one.
func (d *Decoder) resolveDSC() error {
	if d.pkt.hasDSCID {
		dsc, err := d.model.DataStreamClassByID(d.pkt.dscID)
		if err != nil {
			return err
		}
		d.pkt.dsc = dsc

		return nil
	}

	var only *metadata.DataStreamClass
	count := 0
	for dsc := range d.model.DataStreamClasses() {
		only = dsc
		count++
	}
	if count != 1 {
		return errs.ErrNoSuchDataStreamClass
	}
	d.pkt.dsc = only

	return nil
}

// fillEventsFromPacket decodes event records from the current packet into
// out, stopping either when out is full (done=false) or the packet is
// exhausted (done=true).
func (d *Decoder) fillEventsFromPacket(out []event.Event) (n int, done bool, err error) {
	for n < len(out) {
		more, merr := d.packetHasMoreContent()
		if merr != nil {
			return n, false, merr
		}
		if !more {
			return n, true, nil
		}

		ev, eerr := d.decodeEvent()
		if eerr != nil {
			return n, false, eerr
		}
		out[n] = ev
		n++
	}

	return n, false, nil
}

// packetHasMoreContent reports whether the current packet has more event
// records to decode: bits consumed against the packet's declared content
// length if it has one, or simply whatever's left in the stream otherwise.
func (d *Decoder) packetHasMoreContent() (bool, error) {
	if d.pkt.hasContentLen {
		consumed := d.r.TotalBitCount() - d.pkt.startBit

		return consumed < d.pkt.contentLenBits, nil
	}

	return d.r.HasBitsRemaining(), nil
}

// decodeEvent decodes one event record: header, resolving its event-record
// class, then common context, specific context, and payload.
func (d *Decoder) decodeEvent() (event.Event, error) {
	d.evt.reset(d.pkt.defaultClock, d.pkt.hasClock)

	dsc := d.pkt.dsc

	if dsc.EventRecordHeader != nil {
		root, err := d.decodeContextRoot(dsc.EventRecordHeader, ctxEventHeader)
		if err != nil {
			return event.Event{}, err
		}
		d.ctxRoots[fieldloc.OriginEventHeader] = root
	}

	erc, err := d.resolveERC(dsc)
	if err != nil {
		return event.Event{}, err
	}

	var commonCtx, specCtx, payload *field.Field

	if dsc.EventCommonContext != nil {
		root, err := d.decodeContextRoot(dsc.EventCommonContext, ctxEventCommonContext)
		if err != nil {
			return event.Event{}, err
		}
		d.ctxRoots[fieldloc.OriginEventCommonContext] = root
		commonCtx = d.tree.Get(root)
	}

	if erc.SpecificContext != nil {
		root, err := d.decodeContextRoot(erc.SpecificContext, ctxEventSpecificContext)
		if err != nil {
			return event.Event{}, err
		}
		d.ctxRoots[fieldloc.OriginEventSpecificContext] = root
		specCtx = d.tree.Get(root)
	}

	if erc.Payload != nil {
		root, err := d.decodeContextRoot(erc.Payload, ctxEventPayload)
		if err != nil {
			return event.Event{}, err
		}
		d.ctxRoots[fieldloc.OriginEventPayload] = root
		payload = d.tree.Get(root)
	}

	return event.Event{
		Class:           erc,
		Stream:          dsc,
		TimestampNs:     d.clockNs(d.evt.defaultClock),
		HasTimestamp:    d.evt.hasClock,
		Tree:            d.tree,
		CommonContext:   commonCtx,
		SpecificContext: specCtx,
		Payload:         payload,
	}, nil
}

// resolveERC resolves an event record's class: by the explicit
// event-record-class-id role if one fired, or the stream's sole
// event-record class if it has exactly one.
func (d *Decoder) resolveERC(dsc *metadata.DataStreamClass) (*metadata.EventRecordClass, error) {
	if d.evt.hasClassID {
		return dsc.EventRecordClassByID(d.evt.classID)
	}

	var only *metadata.EventRecordClass
	count := 0
	for erc := range dsc.EventRecordClasses() {
		only = erc
		count++
	}
	if count != 1 {
		return nil, errs.ErrNoSuchEventRecordClass
	}

	return only, nil
}

// finishPacket advances the reader to the packet's declared total length,
// skipping any padding after the last event record. A packet with no
// packet-total-length role ends wherever its last event record ends.
func (d *Decoder) finishPacket() error {
	if !d.pkt.hasTotalLen {
		return nil
	}

	target := d.pkt.startBit + d.pkt.totalLenBits
	cur := d.r.TotalBitCount()
	if target < cur {
		return errs.ErrInvalidContentLength
	}

	return d.skipBits(target - cur)
}

// skipBits discards n bits, in chunks no wider than a single ReadBits call
// can serve; bitreader has no generic skip primitive.
func (d *Decoder) skipBits(n uint64) error {
	for n > 0 {
		chunk := n
		if chunk > 56 {
			chunk = 56
		}
		if _, err := d.r.ReadBits(uint(chunk)); err != nil {
			return err
		}
		n -= chunk
	}

	return nil
}

// SeekNsFromOrigin repositions the decoder so the next Generate call yields
// the first event with timestamp-from-origin >= tstampNs. It scans packets
// linearly from the start of the stream, skipping a whole packet via
// finishPacket when its end timestamp is already behind the target, and
// otherwise decodes that packet's events one at a time until it finds the
// first one at or after tstampNs. That event is kept (not rewound to: the
// reader has no sub-byte rewind) and handed back by the next Generate call
// before any further decoding.
func (d *Decoder) SeekNsFromOrigin(tstampNs int64) event.Status {
	d.r.Seek(0, bitreader.SeekStart)
	d.resumePacket = false
	d.pending = nil
	d.lastErr = nil
	d.pkt.reset()
	d.evt.reset(0, false)

	for d.r.HasBitsRemaining() {
		if err := d.beginPacket(); err != nil {
			d.lastErr = err

			return event.StatusError
		}

		if d.pkt.hasPacketEndNs && d.pkt.packetEndClockNs < tstampNs {
			if err := d.finishPacket(); err != nil {
				d.lastErr = err

				return event.StatusError
			}

			continue
		}

		for {
			more, err := d.packetHasMoreContent()
			if err != nil {
				d.lastErr = err

				return event.StatusError
			}
			if !more {
				break
			}

			ev, err := d.decodeEvent()
			if err != nil {
				d.lastErr = err

				return event.StatusError
			}

			if ev.TimestampNs >= tstampNs {
				d.pending = &ev
				d.resumePacket = true

				return event.StatusOK
			}
		}

		if err := d.finishPacket(); err != nil {
			d.lastErr = err

			return event.StatusError
		}
	}

	return event.StatusOK
}
