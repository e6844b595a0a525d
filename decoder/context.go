package decoder

import "github.com/nilsaberg/actf2/fieldloc"

// ctxKind identifies which top-level structure a field is currently being
// decoded within. Role side effects (spec.md §4.6) and field-location
// resolution both need it: a default-clock-timestamp role behaves the same
// wherever it fires, but the field-location origins it and length/selector
// locations resolve against depend on which context root is "current".
type ctxKind int

const (
	ctxPacketHeader ctxKind = iota
	ctxPacketContext
	ctxEventHeader
	ctxEventCommonContext
	ctxEventSpecificContext
	ctxEventPayload
)

// origin returns the fieldloc.Origin a location would use to name this
// context as its root.
func (c ctxKind) origin() fieldloc.Origin {
	switch c {
	case ctxPacketHeader:
		return fieldloc.OriginPacketHeader
	case ctxPacketContext:
		return fieldloc.OriginPacketContext
	case ctxEventHeader:
		return fieldloc.OriginEventHeader
	case ctxEventCommonContext:
		return fieldloc.OriginEventCommonContext
	case ctxEventSpecificContext:
		return fieldloc.OriginEventSpecificContext
	default:
		return fieldloc.OriginEventPayload
	}
}

// isEventCtx reports whether c is one of the per-event-record contexts, as
// opposed to the once-per-packet header/context.
func isEventCtx(c ctxKind) bool {
	switch c {
	case ctxEventHeader, ctxEventCommonContext, ctxEventSpecificContext, ctxEventPayload:
		return true
	default:
		return false
	}
}
