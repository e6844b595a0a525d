// Package errs defines the error taxonomy shared by every package in this
// module: a stable Kind code per failure category plus a set of sentinel
// errors that higher layers wrap with Wrap, which prepends "<context>: "
// to build a colon-chained message, so the final error reads as a stack of
// contexts ending with the root cause.
//
// A source (Decoder, Merger, RangeFilter) that has returned an error from
// Generate keeps reporting it from LastError until Seek is called.
package errs

import "errors"

// Kind categorizes an error for programmatic handling. Numeric values are
// stable across releases.
type Kind int

const (
	KindGeneric Kind = iota
	KindInternal
	KindNotFound

	// JSON / schema shape.
	KindJSONParse
	KindJSONShape

	// Schema validity.
	KindInvalidAlignment
	KindInvalidByteOrder
	KindInvalidBitOrder
	KindInvalidRange
	KindInvalidRangeSet
	KindInvalidUUID
	KindInvalidMapping
	KindInvalidFieldLocation
	KindInvalidFieldClass
	KindInvalidFlags
	KindInvalidRole
	KindInvalidBase
	KindInvalidEncoding
	KindInvalidEnvironment
	KindInvalidVariant

	// Semantic (metadata construction).
	KindNoSuchAlias
	KindMissingProperty
	KindUnsupportedExtension
	KindNoSuchOrigin
	KindNoDefaultClock
	KindInvalidUUIDRole
	KindInvalidMagicRole
	KindNotAStruct
	KindDuplicate
	KindNoSuchID
	KindUnsupportedVersion
	KindNoPreamble

	// Decode-time.
	KindWrongFieldType
	KindMissingFieldLocation
	KindNotEnoughBits
	KindMidByteEndianSwap
	KindInvalidStringLength
	KindMagicMismatch
	KindUUIDMismatch
	KindNoSelectorField
	KindInvalidContentLength
	KindInvalidMetadataPacket

	KindClockCycleGTEFreq
	KindUnsupportedLength
)

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}

	return "unknown"
}

var kindNames = map[Kind]string{
	KindGeneric:               "generic",
	KindInternal:              "internal-logic",
	KindNotFound:              "not-found",
	KindJSONParse:             "json-parse",
	KindJSONShape:             "json-shape",
	KindInvalidAlignment:      "invalid-alignment",
	KindInvalidByteOrder:      "invalid-byte-order",
	KindInvalidBitOrder:       "invalid-bit-order",
	KindInvalidRange:          "invalid-range",
	KindInvalidRangeSet:       "invalid-range-set",
	KindInvalidUUID:           "invalid-uuid",
	KindInvalidMapping:        "invalid-mapping",
	KindInvalidFieldLocation:  "invalid-field-location",
	KindInvalidFieldClass:     "invalid-field-class",
	KindInvalidFlags:          "invalid-flags",
	KindInvalidRole:           "invalid-role",
	KindInvalidBase:           "invalid-base",
	KindInvalidEncoding:       "invalid-encoding",
	KindInvalidEnvironment:    "invalid-environment",
	KindInvalidVariant:        "invalid-variant",
	KindNoSuchAlias:           "no-such-alias",
	KindMissingProperty:       "missing-property",
	KindUnsupportedExtension:  "unsupported-extension",
	KindNoSuchOrigin:          "no-such-origin",
	KindNoDefaultClock:        "no-default-clock",
	KindInvalidUUIDRole:       "invalid-uuid-role",
	KindInvalidMagicRole:      "invalid-magic-role",
	KindNotAStruct:            "not-a-struct",
	KindDuplicate:             "duplicate",
	KindNoSuchID:              "no-such-id",
	KindUnsupportedVersion:    "unsupported-version",
	KindNoPreamble:            "no-preamble",
	KindWrongFieldType:        "wrong-field-type",
	KindMissingFieldLocation:  "missing-field-location",
	KindNotEnoughBits:         "not-enough-bits",
	KindMidByteEndianSwap:     "mid-byte-endian-swap",
	KindInvalidStringLength:   "invalid-string-length",
	KindMagicMismatch:         "magic-mismatch",
	KindUUIDMismatch:          "uuid-mismatch",
	KindNoSelectorField:       "no-selector-field",
	KindInvalidContentLength:  "invalid-content-length",
	KindInvalidMetadataPacket: "invalid-metadata-packet",
	KindClockCycleGTEFreq:     "cc-gte-freq",
	KindUnsupportedLength:     "unsupported-length",
}

// Error is a Kind-tagged error. It participates in errors.Is/errors.As via
// Unwrap, and Kind() lets callers branch on the failure category without
// string matching.
type Error struct {
	kind Kind
	msg  string
	err  error
}

func New(kind Kind, msg string) *Error {
	return &Error{kind: kind, msg: msg}
}

func (e *Error) Error() string {
	if e.err != nil {
		return e.msg + ": " + e.err.Error()
	}

	return e.msg
}

func (e *Error) Unwrap() error { return e.err }
func (e *Error) Kind() Kind    { return e.kind }

// KindOf returns the Kind carried by err, if any, walking the Unwrap chain.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.kind, true
	}

	return KindGeneric, false
}

// Sentinel errors, one per decode/semantic condition named in spec.md §7.
// Higher layers wrap these with fmt.Errorf("context: %w", Err...) to build
// the colon-chained message.
var (
	ErrNoPreamble              = New(KindNoPreamble, "no preamble fragment")
	ErrDuplicatePreamble       = New(KindDuplicate, "duplicate preamble fragment")
	ErrUnsupportedVersion      = New(KindUnsupportedVersion, "unsupported metadata version")
	ErrUnsupportedExtension    = New(KindUnsupportedExtension, "unsupported extension")
	ErrInvalidUUID             = New(KindInvalidUUID, "invalid uuid")
	ErrInvalidEnvironment      = New(KindInvalidEnvironment, "environment values must be integers or strings")
	ErrNotAStruct              = New(KindNotAStruct, "field class must be a structure")
	ErrDuplicateID             = New(KindDuplicate, "duplicate id")
	ErrNoSuchID                = New(KindNoSuchID, "no such id")
	ErrNoSuchAlias             = New(KindNoSuchAlias, "no such field class alias")
	ErrMissingProperty         = New(KindMissingProperty, "missing required property")
	ErrNoSuchOrigin            = New(KindNoSuchOrigin, "no such clock origin")
	ErrNoDefaultClock          = New(KindNoDefaultClock, "data-stream class has no default clock")
	ErrInvalidUUIDRole         = New(KindInvalidUUIDRole, "invalid metadata-stream-uuid role")
	ErrInvalidMagicRole        = New(KindInvalidMagicRole, "invalid packet-magic-number role")
	ErrCycleGTEFreq            = New(KindClockCycleGTEFreq, "offset-from-origin cycles >= clock frequency")
	ErrNonPositiveFrequency    = New(KindInvalidRange, "clock frequency must be > 0")
	ErrInvalidAlignment        = New(KindInvalidAlignment, "alignment must be a power of two")
	ErrInvalidByteOrder        = New(KindInvalidByteOrder, "invalid byte order")
	ErrInvalidBitOrder         = New(KindInvalidBitOrder, "invalid bit order")
	ErrInvalidBase             = New(KindInvalidBase, "invalid display base")
	ErrInvalidEncoding         = New(KindInvalidEncoding, "invalid character encoding")
	ErrUnsupportedLength       = New(KindUnsupportedLength, "unsupported bit length")
	ErrInvalidRangeSet         = New(KindInvalidRangeSet, "range set mixes negative and >int64 max values")
	ErrInvalidVariant          = New(KindInvalidVariant, "variant options have overlapping range sets")
	ErrInvalidFieldLocation    = New(KindInvalidFieldLocation, "invalid field location")
	ErrInvalidRole             = New(KindInvalidRole, "invalid role")
	ErrInvalidMapping          = New(KindInvalidMapping, "invalid mapping")
	ErrWrongFieldType          = New(KindWrongFieldType, "field has wrong type")
	ErrMissingFieldLocation    = New(KindMissingFieldLocation, "field location did not resolve")
	ErrNotEnoughBits           = New(KindNotEnoughBits, "not enough bits remaining")
	ErrMidByteEndianSwap       = New(KindMidByteEndianSwap, "byte order changed mid-byte")
	ErrInvalidStringLength     = New(KindInvalidStringLength, "invalid string length for encoding")
	ErrMagicMismatch           = New(KindMagicMismatch, "packet magic number mismatch")
	ErrUUIDMismatch            = New(KindUUIDMismatch, "data stream uuid does not match metadata uuid")
	ErrNoSelectorField         = New(KindNoSelectorField, "no selector field found")
	ErrInvalidContentLength    = New(KindInvalidContentLength, "content length exceeds total length")
	ErrInvalidMetadataPacket   = New(KindInvalidMetadataPacket, "invalid metadata packet")
	ErrNoSuchDataStreamClass   = New(KindNoSuchID, "no such data-stream class")
	ErrNoSuchEventRecordClass  = New(KindNoSuchID, "no such event-record class")
	ErrNotFound                = New(KindNotFound, "not found")
	ErrJSONShape               = New(KindJSONShape, "unexpected json shape")
	ErrJSONParse               = New(KindJSONParse, "malformed json")
	ErrInternal                = New(KindInternal, "internal logic error")
)

// Wrap prepends ctx to err's message, colon-separated, preserving errors.Is
// against the original sentinel.
func Wrap(ctx string, err error) error {
	if err == nil {
		return nil
	}

	return &wrapped{ctx: ctx, err: err}
}

type wrapped struct {
	ctx string
	err error
}

func (w *wrapped) Error() string { return w.ctx + ": " + w.err.Error() }
func (w *wrapped) Unwrap() error { return w.err }
