package decoder

import (
	"bytes"

	"github.com/nilsaberg/actf2/clock"
	"github.com/nilsaberg/actf2/errs"
	"github.com/nilsaberg/actf2/field"
	"github.com/nilsaberg/actf2/fieldclass"
	"github.com/nilsaberg/actf2/internal/arena"
)

// packetMagic is the fixed value a packet-magic-number field must carry.
const packetMagic = 0xC1FC1FC1

// applyRoles runs fc's role side effects against the field just decoded at
// idx. A field may carry more than one role (e.g. an id field that is both
// an enumeration and a data-stream-class-id).
func (d *Decoder) applyRoles(idx arena.Index, fc *fieldclass.FieldClass, ctx ctxKind) error {
	if len(fc.Roles) == 0 {
		return nil
	}
	f := d.tree.Get(idx)

	for _, role := range fc.Roles {
		if err := d.applyRole(role, f, fc, ctx); err != nil {
			return err
		}
	}

	return nil
}

func (d *Decoder) applyRole(role fieldclass.Role, f *field.Field, fc *fieldclass.FieldClass, ctx ctxKind) error {
	switch role {
	case fieldclass.RolePacketMagicNumber:
		v, err := f.AsUint64()
		if err != nil {
			return err
		}
		if v != packetMagic {
			return errs.ErrMagicMismatch
		}

		return nil

	case fieldclass.RoleMetadataStreamUUID:
		if !bytes.Equal(f.Blob, d.model.Preamble().UUID[:]) {
			return errs.ErrUUIDMismatch
		}

		return nil

	case fieldclass.RoleDataStreamClassID:
		v, err := f.AsUint64()
		if err != nil {
			return err
		}
		d.pkt.dscID, d.pkt.hasDSCID = v, true

		return nil

	case fieldclass.RoleDataStreamID:
		v, err := f.AsUint64()
		if err != nil {
			return err
		}
		d.pkt.streamID, d.pkt.hasStreamID = v, true

		return nil

	case fieldclass.RoleDiscardedEventRecordCounterSnapshot:
		v, err := f.AsUint64()
		if err != nil {
			return err
		}
		d.pkt.discardedSnapshot, d.pkt.hasDiscardedSnapshot = v, true

		return nil

	case fieldclass.RolePacketContentLength:
		v, err := f.AsUint64()
		if err != nil {
			return err
		}
		d.pkt.contentLenBits, d.pkt.hasContentLen = v, true

		return nil

	case fieldclass.RolePacketTotalLength:
		v, err := f.AsUint64()
		if err != nil {
			return err
		}
		d.pkt.totalLenBits, d.pkt.hasTotalLen = v, true

		return nil

	case fieldclass.RolePacketSequenceNumber:
		v, err := f.AsUint64()
		if err != nil {
			return err
		}
		d.pkt.sequenceNumber, d.pkt.hasSequenceNumber = v, true

		return nil

	case fieldclass.RoleEventRecordClassID:
		v, err := f.AsUint64()
		if err != nil {
			return err
		}
		d.evt.classID, d.evt.hasClassID = v, true

		return nil

	case fieldclass.RoleDefaultClockTimestamp:
		return d.updateDefaultClock(f, fc, ctx)

	case fieldclass.RolePacketEndDefaultClockTimestamp:
		v, err := f.AsUint64()
		if err != nil {
			return err
		}
		d.pkt.packetEndClockNs = d.clockNs(v)
		d.pkt.hasPacketEndNs = true

		return nil

	default:
		return nil
	}
}

// updateDefaultClock reconstructs the full clock value from this field's
// truncated sample and advances the packet's running clock. When the field
// sits in an event-scoped context (event-record-header is the common case)
// it also updates the in-progress event's own default clock, since that's
// the value that becomes the event's timestamp.
func (d *Decoder) updateDefaultClock(f *field.Field, fc *fieldclass.FieldClass, ctx ctxKind) error {
	v, err := f.AsUint64()
	if err != nil {
		return err
	}
	width := clockFieldWidth(f, fc)
	updated := clock.UpdateValue(d.pkt.defaultClock, d.pkt.hasClock, v, width)
	d.pkt.defaultClock, d.pkt.hasClock = updated, true

	if isEventCtx(ctx) {
		d.evt.defaultClock, d.evt.hasClock = updated, true
	}

	return nil
}

// clockFieldWidth returns the effective bit width a decoded clock field's
// value occupies, for reconstructing the full counter from a truncated
// sample: a variable-length integer's own effective width, or the
// fixed-length field's declared bit length.
func clockFieldWidth(f *field.Field, fc *fieldclass.FieldClass) uint {
	if f.VarLenBits != 0 {
		return f.VarLenBits
	}

	return fc.BitLength
}

// clockNs converts a raw cycle count into nanoseconds from origin using the
// active packet's resolved data-stream class's default clock. It returns 0
// if no data-stream class has been resolved yet (a default-clock-timestamp
// role firing before the id role in an unusual schema).
func (d *Decoder) clockNs(cycles uint64) int64 {
	if d.pkt.dsc == nil {
		return 0
	}
	cc, ok := d.pkt.dsc.DefaultClock()
	if !ok {
		return 0
	}

	return clock.CycleToNsFromOrigin(cc, cycles)
}
