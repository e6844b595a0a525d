package decoder

import (
	"github.com/nilsaberg/actf2/bitreader"
	"github.com/nilsaberg/actf2/metadata"
)

// packetState is the mutable state tracked across one packet's decode,
// reset at every packet boundary (spec.md §3 "Runtime state").
type packetState struct {
	startBit uint64

	defaultClock   uint64
	hasClock       bool
	packetBeginNs  int64
	hasPacketBegin bool

	discardedSnapshot    uint64
	hasDiscardedSnapshot bool

	dscID    uint64
	hasDSCID bool
	dsc      *metadata.DataStreamClass

	streamID    uint64
	hasStreamID bool

	lastByteOrder bitreader.ByteOrder

	contentLenBits uint64
	hasContentLen  bool
	totalLenBits   uint64
	hasTotalLen    bool

	packetEndClockNs int64
	hasPacketEndNs   bool

	sequenceNumber    uint64
	hasSequenceNumber bool
}

func (p *packetState) reset() {
	*p = packetState{lastByteOrder: p.lastByteOrder}
}

// eventState is the mutable state tracked across one event record's decode.
type eventState struct {
	classID    uint64
	hasClassID bool
	class      *metadata.EventRecordClass

	defaultClock uint64
	hasClock     bool
}

func (e *eventState) reset(inheritClock uint64, hasClock bool) {
	*e = eventState{defaultClock: inheritClock, hasClock: hasClock}
}
