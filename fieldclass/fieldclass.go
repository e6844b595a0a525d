// Package fieldclass implements the FieldClass tagged variant: the schema
// node describing how to decode one field of wire data, plus the attributes
// (alignment, byte/bit order, mappings, roles) every kind carries.
//
// FieldClass is modeled as a Go sum type the way mebo models its section
// headers: a struct with a Kind tag and kind-specific fields, exhaustively
// switched on rather than expressed through interface inheritance.
package fieldclass

import (
	"github.com/nilsaberg/actf2/errs"
	"github.com/nilsaberg/actf2/fieldloc"
	"github.com/nilsaberg/actf2/rng"
)

// Kind discriminates the FieldClass variant.
type Kind int

const (
	KindFixedLenBitArray Kind = iota
	KindFixedLenBitMap
	KindFixedLenUInt
	KindFixedLenSInt
	KindFixedLenBool
	KindFixedLenFloat
	KindVarLenUInt
	KindVarLenSInt
	KindNullTermStr
	KindStaticLenStr
	KindDynLenStr
	KindStaticLenBlob
	KindDynLenBlob
	KindStruct
	KindStaticLenArr
	KindDynLenArr
	KindOptional
	KindVariant
)

// ByteOrder mirrors the CTF2 "byte-order" attribute.
type ByteOrder int

const (
	LittleEndian ByteOrder = iota
	BigEndian
)

// BitOrder mirrors the CTF2 "bit-order" attribute.
type BitOrder int

const (
	FirstToLast BitOrder = iota
	LastToFirst
)

// Base is the preferred display base for an integer field.
type Base int

const (
	Base2 Base = 2
	Base8 Base = 8
	Base10 Base = 10
	Base16 Base = 16
)

// Encoding is a string field's character encoding.
type Encoding int

const (
	UTF8 Encoding = iota
	UTF16BE
	UTF16LE
	UTF32BE
	UTF32LE
)

// Role is a side-effect annotation evaluated by the decoder immediately
// after the field carrying it is decoded.
type Role int

const (
	RoleNone Role = iota
	RoleDataStreamClassID
	RoleDataStreamID
	RolePacketMagicNumber
	RoleMetadataStreamUUID
	RoleDefaultClockTimestamp
	RoleDiscardedEventRecordCounterSnapshot
	RolePacketContentLength
	RolePacketTotalLength
	RolePacketEndDefaultClockTimestamp
	RolePacketSequenceNumber
	RoleEventRecordClassID
)

// Mapping associates a name with a range set, as used by enumeration-style
// fixed-length unsigned/signed integers.
type Mapping struct {
	Name   string
	Ranges *rng.Set
}

// Member is one ordered field of a Struct field class.
type Member struct {
	Name       string
	Class      *FieldClass
	Attributes map[string]any
}

// VariantOption is one candidate of a Variant field class: decoded when the
// selector value falls in Ranges.
type VariantOption struct {
	Name   string
	Class  *FieldClass
	Ranges *rng.Set
}

// FieldClass fully describes one field's wire shape. Only the fields
// relevant to Kind are populated; see the kind-specific constructors.
type FieldClass struct {
	Kind Kind

	Alias      string
	Attributes map[string]any
	Extensions map[string]any

	// Fixed-length bit array / bitmap / uint / sint / bool / float.
	BitLength uint
	ByteOrder ByteOrder
	BitOrder  BitOrder
	Alignment uint64
	Base      Base
	Mappings  []Mapping
	Roles     []Role

	// Strings and blobs.
	CharEncoding Encoding
	MediaType    string

	// Static-length string/blob.
	Length uint64

	// Dynamic-length string/blob/array.
	LengthLoc fieldloc.Location

	// Struct.
	MinAlignment uint64
	Members      []Member

	// Arrays.
	Element *FieldClass

	// Optional.
	SelectorLoc    fieldloc.Location
	SelectorRanges *rng.Set // nil for a boolean selector

	// Variant.
	VariantSelectorLoc fieldloc.Location
	Options            []VariantOption
}

// HasRole reports whether the field class carries the given role.
func (fc *FieldClass) HasRole(r Role) bool {
	for _, role := range fc.Roles {
		if role == r {
			return true
		}
	}

	return false
}

// IsIntegerKind reports whether decoding this class produces an integer
// Field (UInt, SInt, or BitMap), the only kinds roles may attach to besides
// blobs (metadata-stream-uuid).
func (fc *FieldClass) IsIntegerKind() bool {
	switch fc.Kind {
	case KindFixedLenUInt, KindFixedLenSInt, KindFixedLenBitMap,
		KindVarLenUInt, KindVarLenSInt:
		return true
	default:
		return false
	}
}

// AlignmentOf derives the field class's alignment requirement in bits, per
// the rules in spec.md §4.2: fixed-length kinds use their stored alignment;
// variable-length numerics and all strings/blobs align to the byte; structs
// and arrays fold in their members'/element's requirement; optionals and
// variants have none.
func (fc *FieldClass) AlignmentOf() uint64 {
	switch fc.Kind {
	case KindFixedLenBitArray, KindFixedLenBitMap, KindFixedLenUInt,
		KindFixedLenSInt, KindFixedLenBool, KindFixedLenFloat:
		return fc.Alignment
	case KindVarLenUInt, KindVarLenSInt, KindNullTermStr, KindStaticLenStr,
		KindDynLenStr, KindStaticLenBlob, KindDynLenBlob:
		return 8
	case KindStruct:
		a := fc.MinAlignment
		for _, m := range fc.Members {
			if ma := m.Class.AlignmentOf(); ma > a {
				a = ma
			}
		}

		return a
	case KindStaticLenArr, KindDynLenArr:
		a := fc.MinAlignment
		if fc.Element != nil {
			if ea := fc.Element.AlignmentOf(); ea > a {
				a = ea
			}
		}

		return a
	case KindOptional, KindVariant:
		return 1
	default:
		return 1
	}
}

// NewVariant validates that option range sets are pairwise disjoint before
// constructing the field class, per spec.md's variant-exhaustiveness
// invariant (property 6).
func NewVariant(selectorLoc fieldloc.Location, options []VariantOption, alias string) (*FieldClass, error) {
	for i := 0; i < len(options); i++ {
		for j := i + 1; j < len(options); j++ {
			if options[i].Ranges.Intersects(options[j].Ranges) {
				return nil, errs.ErrInvalidVariant
			}
		}
	}

	return &FieldClass{
		Kind:               KindVariant,
		Alias:              alias,
		VariantSelectorLoc: selectorLoc,
		Options:            options,
	}, nil
}

// SelectOption returns the variant option whose range set contains val, or
// errs.ErrNoSelectorField if none matches.
func (fc *FieldClass) SelectOption(val int64) (*VariantOption, error) {
	for i := range fc.Options {
		if fc.Options[i].Ranges.IntersectsInt64(val) {
			return &fc.Options[i], nil
		}
	}

	return nil, errs.ErrNoSelectorField
}
