// Package bitreader implements a random-access, endian-aware bit cursor over
// a byte buffer.
//
// It is the innermost layer of the decoding pipeline: everything else (field
// class interpretation, packet/event state machines) reads bits through one
// of these. The reader keeps a 64-bit lookahead register fed from the
// backing buffer in big chunks (up to 56 bits at a time) so that reading a
// run of small bit-fields, the common case for tightly packed trace data,
// touches the backing buffer far less often than reading bit-by-bit would.
package bitreader

import (
	"encoding/binary"
	"math/bits"

	"github.com/nilsaberg/actf2/errs"
)

// ByteOrder selects how the lookahead register is filled from the backing
// buffer and how bits are read out of it.
type ByteOrder int

const (
	LittleEndian ByteOrder = iota
	BigEndian
)

// maxReadBits is the largest span peek/read_bits will serve in one call; it
// keeps the lookahead shift arithmetic from overflowing a uint64 when a
// fresh 8 bytes are folded in on refill.
const maxReadBits = 56

// BitReader is a cursor over buf. It is not safe for concurrent use; callers
// needing parallelism should use one BitReader per goroutine, each over its
// own (or a shared, read-only) buffer.
type BitReader struct {
	bo ByteOrder

	buf     []byte
	readPos int // byte offset of the next unread byte in buf

	lookahead    uint64
	lookaheadLen uint // valid bits in lookahead

	totalBits uint64 // bits consumed from the start of buf
}

// New creates a BitReader over buf using the given initial byte order.
func New(buf []byte, bo ByteOrder) *BitReader {
	return &BitReader{bo: bo, buf: buf}
}

// ByteOrder returns the reader's current byte order.
func (r *BitReader) ByteOrder() ByteOrder { return r.bo }

// TotalBitCount returns the number of bits consumed from the start of the
// buffer, i.e. the reader's absolute bit position.
func (r *BitReader) TotalBitCount() uint64 { return r.totalBits }

// Len returns the buffer length in bytes.
func (r *BitReader) Len() int { return len(r.buf) }

// BitsRemaining returns the number of bits left to read. It can overflow on
// huge buffers; prefer HasBitsRemaining for a plain "anything left?" check.
func (r *BitReader) BitsRemaining() uint64 {
	return uint64(len(r.buf)-r.readPos)*8 + uint64(r.lookaheadLen)
}

// HasBitsRemaining reports whether any bit can still be read.
func (r *BitReader) HasBitsRemaining() bool {
	return r.lookaheadLen > 0 || r.readPos < len(r.buf)
}

// BytesRemaining returns the number of whole bytes left, counting both the
// unread buffer tail and any byte-aligned bits still sitting in lookahead.
func (r *BitReader) BytesRemaining() int {
	return (len(r.buf) - r.readPos) + int(r.lookaheadLen>>3)
}

// ByteAligned reports whether the reader is currently sitting on a byte
// boundary.
func (r *BitReader) ByteAligned() bool {
	return r.lookaheadLen%8 == 0
}

// PeekBytes returns a zero-copy slice starting at the current (must be
// byte-aligned) read position, of whatever length remains in the buffer.
// Callers slice it down to the length they need.
func (r *BitReader) PeekBytes() []byte {
	start := r.readPos - int(r.lookaheadLen>>3)

	return r.buf[start:]
}

// SetByteOrder switches the reader's byte order. If it differs from the
// current order, the already-buffered lookahead bits are byte-swapped in
// place so bytes already fetched from the buffer continue to read correctly
// in the new order.
func (r *BitReader) SetByteOrder(bo ByteOrder) {
	if r.bo == bo {
		return
	}
	r.lookahead = bits.ReverseBytes64(r.lookahead)
	r.bo = bo
}

// Peek returns the next n bits (1 <= n <= 56) without consuming them. n must
// not exceed the number of valid bits currently in the lookahead register;
// callers normally go through ReadBits, which refills first.
func (r *BitReader) Peek(n uint) uint64 {
	if r.bo == LittleEndian {
		return r.lookahead & ((uint64(1) << n) - 1)
	}

	return r.lookahead >> (64 - n)
}

// Consume advances the cursor by n bits within the lookahead register. It is
// the caller's responsibility to ensure n bits are available (Peek's
// precondition).
func (r *BitReader) Consume(n uint) {
	if r.bo == LittleEndian {
		r.lookahead >>= n
	} else {
		r.lookahead <<= n
	}
	r.lookaheadLen -= n
	r.totalBits += uint64(n)
}

// Refill reads up to 56 new bits from the backing buffer into the lookahead
// register, preserving any unconsumed bits, and returns the new lookahead bit
// count.
func (r *BitReader) Refill() uint {
	avail := len(r.buf) - r.readPos
	if avail >= 8 {
		next := binary.LittleEndian.Uint64(r.buf[r.readPos:])
		if r.bo == BigEndian {
			next = bits.ReverseBytes64(next)
		}
		if r.bo == LittleEndian {
			r.lookahead |= next << r.lookaheadLen
		} else {
			r.lookahead |= next >> r.lookaheadLen
		}
		r.readPos += int(63-r.lookaheadLen) >> 3
		r.lookaheadLen |= maxReadBits

		return r.lookaheadLen
	}

	// Tail of the buffer: fewer than 8 bytes left, read them carefully.
	var tail [8]byte
	copy(tail[:], r.buf[r.readPos:])
	next := binary.LittleEndian.Uint64(tail[:])
	if r.bo == BigEndian {
		next = bits.ReverseBytes64(next)
	}
	if r.bo == LittleEndian {
		r.lookahead |= next << r.lookaheadLen
	} else {
		r.lookahead |= next >> r.lookaheadLen
	}

	used := int(63-r.lookaheadLen) >> 3
	if avail < used {
		used = avail
	}
	r.readPos += used
	r.lookaheadLen += uint(used) * 8

	return r.lookaheadLen
}

// ReadBits reads n bits (1 <= n <= 56), refilling the lookahead register as
// needed, and returns errs.ErrNotEnoughBits if the stream is exhausted first.
func (r *BitReader) ReadBits(n uint) (uint64, error) {
	if n > maxReadBits {
		return 0, errs.New(errs.KindInternal, "ReadBits: n exceeds 56 bits")
	}
	if r.lookaheadLen < n {
		if r.Refill() < n {
			return 0, errs.ErrNotEnoughBits
		}
	}
	v := r.Peek(n)
	r.Consume(n)

	return v, nil
}

// ReadBytes requires the reader to be byte-aligned and returns a zero-copy
// slice of n bytes into the backing buffer, or errs.ErrNotEnoughBits.
func (r *BitReader) ReadBytes(n int) ([]byte, error) {
	if !r.ByteAligned() {
		return nil, errs.New(errs.KindInternal, "ReadBytes: reader is not byte-aligned")
	}
	if r.BytesRemaining() < n {
		return nil, errs.ErrNotEnoughBits
	}

	start := r.readPos - int(r.lookaheadLen>>3)
	if err := r.consumeChecked(uint(n) * 8); err != nil {
		return nil, err
	}

	return r.buf[start : start+n], nil
}

// consumeChecked consumes cnt bits, which may exceed what's currently in the
// lookahead register; it drops the (now stale, about to be skipped-over)
// lookahead, advances readPos by whole bytes, and refills for any remaining
// sub-byte tail.
func (r *BitReader) consumeChecked(cnt uint) error {
	if cnt <= r.lookaheadLen {
		r.Consume(cnt)

		return nil
	}

	toConsume := cnt - r.lookaheadLen
	r.Consume(r.lookaheadLen)
	r.lookahead = 0

	bytesToConsume := int(toConsume >> 3)
	availBytes := len(r.buf) - r.readPos
	if availBytes <= bytesToConsume {
		r.readPos += availBytes
		r.totalBits += uint64(availBytes) * 8

		if toConsume&0x7 != 0 {
			return errs.ErrNotEnoughBits
		}

		return nil
	}

	r.readPos += bytesToConsume
	r.totalBits += uint64(bytesToConsume) * 8

	bitsToConsume := toConsume & 0x7
	if bitsToConsume == 0 {
		return nil
	}
	if r.Refill() < bitsToConsume {
		return errs.ErrNotEnoughBits
	}
	r.Consume(bitsToConsume)

	return nil
}

// Align rounds TotalBitCount up to a multiple of a (a power of two),
// consuming across byte boundaries as needed. A second call with the same a
// is a no-op.
func (r *BitReader) Align(a uint64) error {
	newTotal := (r.totalBits + a - 1) &^ (a - 1)
	toConsume := newTotal - r.totalBits

	return r.consumeChecked(uint(toConsume))
}

// SeekOrigin selects the reference point for Seek.
type SeekOrigin int

const (
	SeekStart SeekOrigin = iota
	SeekCurrent
	SeekEnd
)

// Seek moves the read cursor to an absolute, relative, or from-end byte
// offset, clearing the lookahead register and resetting TotalBitCount to
// match the new byte position.
func (r *BitReader) Seek(off int, origin SeekOrigin) {
	switch origin {
	case SeekStart:
		if off < len(r.buf) {
			r.readPos = off
		} else {
			r.readPos = len(r.buf)
		}
	case SeekCurrent:
		if off < len(r.buf)-r.readPos {
			r.readPos += off
		} else {
			r.readPos = len(r.buf)
		}
	case SeekEnd:
		r.readPos = len(r.buf)
	}
	r.totalBits = uint64(r.readPos) * 8
	r.lookahead = 0
	r.lookaheadLen = 0
}
