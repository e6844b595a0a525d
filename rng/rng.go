// Package rng implements CTF2 range sets: a set of inclusive [lower, upper]
// intervals used by enumeration mappings, optional selectors, and variant
// selectors. A set is homogeneously signed or unsigned; intersection between
// a signed and an unsigned set promotes across the sign boundary the way the
// metadata JSON schema itself does (an unsigned value > math.MaxInt64 can
// never fall in a signed range, a negative value can never fall in an
// unsigned one).
package rng

import "github.com/nilsaberg/actf2/errs"

// Sign distinguishes a Set's interval representation.
type Sign int

const (
	Unsigned Sign = iota
	Signed
)

// URange is a single inclusive [Lower, Upper] interval over uint64.
type URange struct {
	Lower, Upper uint64
}

// SRange is a single inclusive [Lower, Upper] interval over int64.
type SRange struct {
	Lower, Upper int64
}

// Set is a homogeneously-signed collection of ranges, as found in an
// enumeration mapping's integer-range-set, an optional's selector ranges,
// or a variant option's selector field-value ranges.
type Set struct {
	sign  Sign
	urngs []URange
	srngs []SRange
}

// NewUnsigned builds a Set over uint64 ranges. It returns
// errs.ErrInvalidRangeSet if any range is inverted (lower > upper).
func NewUnsigned(rngs ...URange) (*Set, error) {
	for _, r := range rngs {
		if r.Lower > r.Upper {
			return nil, errs.ErrInvalidRangeSet
		}
	}

	return &Set{sign: Unsigned, urngs: rngs}, nil
}

// NewSigned builds a Set over int64 ranges. It returns
// errs.ErrInvalidRangeSet if any range is inverted (lower > upper).
func NewSigned(rngs ...SRange) (*Set, error) {
	for _, r := range rngs {
		if r.Lower > r.Upper {
			return nil, errs.ErrInvalidRangeSet
		}
	}

	return &Set{sign: Signed, srngs: rngs}, nil
}

// Sign reports whether the set holds signed or unsigned ranges.
func (s *Set) Sign() Sign { return s.sign }

// Len returns the number of ranges in the set.
func (s *Set) Len() int {
	if s.sign == Signed {
		return len(s.srngs)
	}

	return len(s.urngs)
}

// IntersectsInt64 reports whether pt falls within any range in the set. An
// unsigned set never contains a negative point.
func (s *Set) IntersectsInt64(pt int64) bool {
	if s.sign == Signed {
		return srngSetIntersect(s.srngs, pt)
	}
	if pt < 0 {
		return false
	}

	return urngSetIntersect(s.urngs, uint64(pt))
}

// IntersectsUint64 reports whether pt falls within any range in the set. A
// signed set never contains a point greater than math.MaxInt64.
func (s *Set) IntersectsUint64(pt uint64) bool {
	if s.sign == Unsigned {
		return urngSetIntersect(s.urngs, pt)
	}
	if pt > uint64(1<<63-1) {
		return false
	}

	return srngSetIntersect(s.srngs, int64(pt))
}

func urngSetIntersect(rs []URange, pt uint64) bool {
	for _, r := range rs {
		if pt >= r.Lower && pt <= r.Upper {
			return true
		}
	}

	return false
}

func srngSetIntersect(rs []SRange, pt int64) bool {
	for _, r := range rs {
		if pt >= r.Lower && pt <= r.Upper {
			return true
		}
	}

	return false
}

func urngIntersectURng(a, b URange) bool {
	return !(a.Upper < b.Lower || a.Lower > b.Upper)
}

func srngIntersectSRng(a, b SRange) bool {
	return !(a.Upper < b.Lower || a.Lower > b.Upper)
}

func urngIntersectSRng(a URange, b SRange) bool {
	if b.Upper < 0 {
		return false
	}
	lower := b.Lower
	if lower < 0 {
		lower = 0
	}

	return urngIntersectURng(a, URange{Lower: uint64(lower), Upper: uint64(b.Upper)})
}

// Intersects reports whether s and other share at least one point, promoting
// across the signed/unsigned boundary when the two sets differ in sign.
func (s *Set) Intersects(other *Set) bool {
	switch {
	case s.sign == Signed && other.sign == Signed:
		for _, a := range s.srngs {
			for _, b := range other.srngs {
				if srngIntersectSRng(a, b) {
					return true
				}
			}
		}
	case s.sign == Unsigned && other.sign == Unsigned:
		for _, a := range s.urngs {
			for _, b := range other.urngs {
				if urngIntersectURng(a, b) {
					return true
				}
			}
		}
	case s.sign == Unsigned && other.sign == Signed:
		for _, a := range s.urngs {
			for _, b := range other.srngs {
				if urngIntersectSRng(a, b) {
					return true
				}
			}
		}
	default: // s is Signed, other is Unsigned
		for _, a := range other.urngs {
			for _, b := range s.srngs {
				if urngIntersectSRng(a, b) {
					return true
				}
			}
		}
	}

	return false
}
