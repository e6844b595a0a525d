// Package clock converts a ClockClass's cycle counts into nanoseconds
// from its origin.
package clock

import "github.com/nilsaberg/actf2/metadata"

// CycleToNsFromOrigin converts tstampCC cycles (as read from a clock's
// timestamp field) into nanoseconds from cc's origin.
//
// cc = tstampCC + cc.OffsetCycles
// s  = cc.OffsetSeconds + cc/cc.Frequency
// ns = s*1e9 + (cc%cc.Frequency)*1e9/cc.Frequency
func CycleToNsFromOrigin(cc *metadata.ClockClass, tstampCC uint64) int64 {
	cycles := tstampCC + cc.OffsetCycles
	seconds := cc.OffsetSeconds + int64(cycles/cc.Frequency)
	nanos := seconds*1_000_000_000 + int64((cycles%cc.Frequency)*1_000_000_000/cc.Frequency)

	return nanos
}

// UpdateValue reconstructs a full clock value from a width-bit truncated
// sample, given the previous full value. The new value keeps old's high
// bits and replaces its low width bits with val, rolling over by 2^width
// when val is smaller than old's current low bits (the counter wrapped).
// hasOld false (no prior sample in this packet) returns val unchanged.
func UpdateValue(old uint64, hasOld bool, val uint64, width uint) uint64 {
	if !hasOld || width >= 64 {
		return val
	}

	mask := uint64(1)<<width - 1
	updated := (old &^ mask) | (val & mask)
	if val&mask < old&mask {
		updated += uint64(1) << width
	}

	return updated
}
