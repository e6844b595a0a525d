package decoder

import (
	"math"
	"math/bits"

	"github.com/nilsaberg/actf2/bitreader"
	"github.com/nilsaberg/actf2/errs"
	"github.com/nilsaberg/actf2/field"
	"github.com/nilsaberg/actf2/fieldclass"
	"github.com/nilsaberg/actf2/fieldloc"
	"github.com/nilsaberg/actf2/internal/arena"
)

// decodeField allocates a placeholder Field node under parent and fills it
// per fc's kind, applying any roles fc carries once it is fully decoded.
func (d *Decoder) decodeField(parent arena.Index, fc *fieldclass.FieldClass, ctx ctxKind) (arena.Index, error) {
	idx := d.tree.Alloc(parent, field.Field{Kind: field.KindNil, Class: fc})
	if err := d.finishField(idx, fc, ctx); err != nil {
		return arena.Nil, err
	}

	return idx, nil
}

// finishField fills an already-allocated placeholder and applies its roles.
// Optional/Variant use it to decode transparently into an already-allocated
// index (their own), rather than allocating a fresh child.
func (d *Decoder) finishField(idx arena.Index, fc *fieldclass.FieldClass, ctx ctxKind) error {
	if err := d.fillField(idx, fc, ctx); err != nil {
		return err
	}

	return d.applyRoles(idx, fc, ctx)
}

func (d *Decoder) fillField(idx arena.Index, fc *fieldclass.FieldClass, ctx ctxKind) error {
	if err := d.r.Align(fc.AlignmentOf()); err != nil {
		return err
	}

	switch fc.Kind {
	case fieldclass.KindFixedLenBitArray:
		return d.fillFixedLenBitArray(idx, fc)
	case fieldclass.KindFixedLenBitMap:
		return d.fillFixedLenBitMap(idx, fc)
	case fieldclass.KindFixedLenUInt:
		return d.fillFixedLenUInt(idx, fc)
	case fieldclass.KindFixedLenSInt:
		return d.fillFixedLenSInt(idx, fc)
	case fieldclass.KindFixedLenBool:
		return d.fillFixedLenBool(idx, fc)
	case fieldclass.KindFixedLenFloat:
		return d.fillFixedLenFloat(idx, fc)
	case fieldclass.KindVarLenUInt:
		return d.fillVarLenUInt(idx)
	case fieldclass.KindVarLenSInt:
		return d.fillVarLenSInt(idx)
	case fieldclass.KindNullTermStr:
		return d.fillNullTermStr(idx, fc)
	case fieldclass.KindStaticLenStr:
		return d.fillStaticLenStr(idx, fc)
	case fieldclass.KindDynLenStr:
		return d.fillDynLenStr(idx, fc)
	case fieldclass.KindStaticLenBlob:
		return d.fillStaticLenBlob(idx, fc)
	case fieldclass.KindDynLenBlob:
		return d.fillDynLenBlob(idx, fc)
	case fieldclass.KindStruct:
		return d.fillStruct(idx, fc, ctx)
	case fieldclass.KindStaticLenArr:
		return d.fillStaticLenArr(idx, fc, ctx)
	case fieldclass.KindDynLenArr:
		return d.fillDynLenArr(idx, fc, ctx)
	case fieldclass.KindOptional:
		return d.fillOptional(idx, fc, ctx)
	case fieldclass.KindVariant:
		return d.fillVariant(idx, fc, ctx)
	default:
		return errs.ErrInternal
	}
}

// setFixedLenByteOrder switches the reader to fc's byte order, rejecting a
// switch that lands mid-byte: bytes already latched into the lookahead
// register can't retroactively change order.
func (d *Decoder) setFixedLenByteOrder(bo fieldclass.ByteOrder) error {
	target := bitreader.LittleEndian
	if bo == fieldclass.BigEndian {
		target = bitreader.BigEndian
	}
	if d.r.ByteOrder() != target && !d.r.ByteAligned() {
		return errs.ErrMidByteEndianSwap
	}
	d.r.SetByteOrder(target)
	d.pkt.lastByteOrder = target

	return nil
}

// readFixedLenRaw reads fc.BitLength raw bits, honoring byte order and
// reversing bit order within the field when fc.BitOrder is last-to-first.
func (d *Decoder) readFixedLenRaw(fc *fieldclass.FieldClass) (uint64, error) {
	if err := d.setFixedLenByteOrder(fc.ByteOrder); err != nil {
		return 0, err
	}
	raw, err := readWideBits(d.r, fc.BitLength)
	if err != nil {
		return 0, err
	}
	if fc.BitOrder == fieldclass.LastToFirst {
		raw = reverseBits(raw, fc.BitLength)
	}

	return raw, nil
}

// readWideBits reads an n-bit (n<=64) value, splitting into two ReadBits
// calls since the reader serves at most 56 bits per call.
func readWideBits(r *bitreader.BitReader, n uint) (uint64, error) {
	if n <= 56 {
		return r.ReadBits(n)
	}

	first := n / 2
	second := n - first
	a, err := r.ReadBits(first)
	if err != nil {
		return 0, err
	}
	b, err := r.ReadBits(second)
	if err != nil {
		return 0, err
	}
	if r.ByteOrder() == bitreader.LittleEndian {
		return a | (b << first), nil
	}

	return (a << second) | b, nil
}

func reverseBits(v uint64, width uint) uint64 {
	if width == 0 {
		return 0
	}

	return bits.Reverse64(v) >> (64 - width)
}

func signExtend(v uint64, width uint) int64 {
	if width >= 64 {
		return int64(v)
	}
	shift := 64 - width

	return int64(v<<shift) >> shift
}

func (d *Decoder) fillFixedLenBitArray(idx arena.Index, fc *fieldclass.FieldClass) error {
	raw, err := d.readFixedLenRaw(fc)
	if err != nil {
		return err
	}
	f := d.tree.Get(idx)
	f.Kind = field.KindUInt
	f.UInt = raw

	return nil
}

func (d *Decoder) fillFixedLenBitMap(idx arena.Index, fc *fieldclass.FieldClass) error {
	raw, err := d.readFixedLenRaw(fc)
	if err != nil {
		return err
	}
	f := d.tree.Get(idx)
	f.Kind = field.KindBitMap
	f.UInt = raw
	f.BitMap = raw

	return nil
}

func (d *Decoder) fillFixedLenUInt(idx arena.Index, fc *fieldclass.FieldClass) error {
	raw, err := d.readFixedLenRaw(fc)
	if err != nil {
		return err
	}
	f := d.tree.Get(idx)
	f.Kind = field.KindUInt
	f.UInt = raw

	return nil
}

func (d *Decoder) fillFixedLenSInt(idx arena.Index, fc *fieldclass.FieldClass) error {
	raw, err := d.readFixedLenRaw(fc)
	if err != nil {
		return err
	}
	f := d.tree.Get(idx)
	f.Kind = field.KindSInt
	f.SInt = signExtend(raw, fc.BitLength)

	return nil
}

func (d *Decoder) fillFixedLenBool(idx arena.Index, fc *fieldclass.FieldClass) error {
	raw, err := d.readFixedLenRaw(fc)
	if err != nil {
		return err
	}
	f := d.tree.Get(idx)
	f.Kind = field.KindBool
	f.Bool = raw != 0

	return nil
}

func (d *Decoder) fillFixedLenFloat(idx arena.Index, fc *fieldclass.FieldClass) error {
	raw, err := d.readFixedLenRaw(fc)
	if err != nil {
		return err
	}
	f := d.tree.Get(idx)
	switch fc.BitLength {
	case 32:
		f.Kind = field.KindReal32
		f.Real32 = math.Float32frombits(uint32(raw))
	case 64:
		f.Kind = field.KindReal64
		f.Real64 = math.Float64frombits(raw)
	default:
		return errs.ErrUnsupportedLength
	}

	return nil
}

// readVarLenUnsigned reads a LEB128-style unsigned varint: 7 value bits per
// byte, continuation signaled by the byte's high bit.
func (d *Decoder) readVarLenUnsigned() (uint64, int, error) {
	var val uint64
	var shift uint
	n := 0
	for {
		b, err := d.r.ReadBits(8)
		if err != nil {
			return 0, 0, err
		}
		n++
		if shift < 64 {
			val |= (b & 0x7f) << shift
		}
		shift += 7
		if b&0x80 == 0 {
			break
		}
	}

	return val, n, nil
}

// readVarLenSigned reads a signed LEB128 varint, sign-extending from the
// last byte's bit 6 when the accumulated width is under 64 bits.
func (d *Decoder) readVarLenSigned() (int64, int, error) {
	var val int64
	var shift uint
	var last uint64
	n := 0
	for {
		b, err := d.r.ReadBits(8)
		if err != nil {
			return 0, 0, err
		}
		n++
		last = b
		if shift < 64 {
			val |= int64(b&0x7f) << shift
		}
		shift += 7
		if b&0x80 == 0 {
			break
		}
	}
	if shift < 64 && last&0x40 != 0 {
		val |= -1 << shift
	}

	return val, n, nil
}

func effectiveVarLenBits(byteCount int) uint {
	w := byteCount * 8
	if w > 64 {
		w = 64
	}

	return uint(w)
}

func (d *Decoder) fillVarLenUInt(idx arena.Index) error {
	val, n, err := d.readVarLenUnsigned()
	if err != nil {
		return err
	}
	f := d.tree.Get(idx)
	f.Kind = field.KindUInt
	f.UInt = val
	f.VarLenBits = effectiveVarLenBits(n)

	return nil
}

func (d *Decoder) fillVarLenSInt(idx arena.Index) error {
	val, n, err := d.readVarLenSigned()
	if err != nil {
		return err
	}
	f := d.tree.Get(idx)
	f.Kind = field.KindSInt
	f.SInt = val
	f.VarLenBits = effectiveVarLenBits(n)

	return nil
}

func encodingUnitSize(enc fieldclass.Encoding) int {
	switch enc {
	case fieldclass.UTF16BE, fieldclass.UTF16LE:
		return 2
	case fieldclass.UTF32BE, fieldclass.UTF32LE:
		return 4
	default:
		return 1
	}
}

// readNullTermStr scans the codepoint-size-aware null cell terminating the
// string, returning the content bytes (excluding the terminator) and
// consuming through the terminator.
func (d *Decoder) readNullTermStr(enc fieldclass.Encoding) ([]byte, error) {
	unit := encodingUnitSize(enc)
	buf := d.r.PeekBytes()

	i := 0
	for {
		if i+unit > len(buf) {
			return nil, errs.ErrNotEnoughBits
		}
		zero := true
		for k := 0; k < unit; k++ {
			if buf[i+k] != 0 {
				zero = false

				break
			}
		}
		if zero {
			break
		}
		i += unit
	}

	raw, err := d.r.ReadBytes(i + unit)
	if err != nil {
		return nil, err
	}

	return raw[:i], nil
}

func (d *Decoder) fillNullTermStr(idx arena.Index, fc *fieldclass.FieldClass) error {
	raw, err := d.readNullTermStr(fc.CharEncoding)
	if err != nil {
		return err
	}
	f := d.tree.Get(idx)
	f.Kind = field.KindStr
	f.Str = raw

	return nil
}

func (d *Decoder) fillStaticLenStr(idx arena.Index, fc *fieldclass.FieldClass) error {
	raw, err := d.r.ReadBytes(int(fc.Length))
	if err != nil {
		return err
	}
	f := d.tree.Get(idx)
	f.Kind = field.KindStr
	f.Str = raw

	return nil
}

func (d *Decoder) fillDynLenStr(idx arena.Index, fc *fieldclass.FieldClass) error {
	n, err := d.resolveLength(idx, fc.LengthLoc)
	if err != nil {
		return err
	}
	raw, err := d.r.ReadBytes(int(n))
	if err != nil {
		return err
	}
	f := d.tree.Get(idx)
	f.Kind = field.KindStr
	f.Str = raw

	return nil
}

func (d *Decoder) fillStaticLenBlob(idx arena.Index, fc *fieldclass.FieldClass) error {
	raw, err := d.r.ReadBytes(int(fc.Length))
	if err != nil {
		return err
	}
	f := d.tree.Get(idx)
	f.Kind = field.KindBlob
	f.Blob = raw

	return nil
}

func (d *Decoder) fillDynLenBlob(idx arena.Index, fc *fieldclass.FieldClass) error {
	n, err := d.resolveLength(idx, fc.LengthLoc)
	if err != nil {
		return err
	}
	raw, err := d.r.ReadBytes(int(n))
	if err != nil {
		return err
	}
	f := d.tree.Get(idx)
	f.Kind = field.KindBlob
	f.Blob = raw

	return nil
}

// fillStruct decodes members in order, recording each member's index only
// after it finishes decoding: a field-location lookup mid-struct can only
// ever see already-decoded earlier members, matching Locator.Resolve.
func (d *Decoder) fillStruct(idx arena.Index, fc *fieldclass.FieldClass, ctx ctxKind) error {
	members := make([]arena.Index, len(fc.Members))
	for i := range members {
		members[i] = arena.Nil
	}
	d.tree.Get(idx).Kind = field.KindStruct
	d.tree.Get(idx).Struct = members

	for i, m := range fc.Members {
		childIdx, err := d.decodeField(idx, m.Class, ctx)
		if err != nil {
			return err
		}
		d.tree.Get(idx).Struct[i] = childIdx
	}

	return nil
}

// fillStaticLenArr and fillDynLenArr append each element's index to the
// array immediately after allocating it, before decoding its content: a
// field-location path into "the current array element" must be able to
// resolve to the element still being filled.
func (d *Decoder) fillStaticLenArr(idx arena.Index, fc *fieldclass.FieldClass, ctx ctxKind) error {
	d.tree.Get(idx).Kind = field.KindArray

	for i := uint64(0); i < fc.Length; i++ {
		if err := d.decodeArrayElement(idx, fc.Element, ctx); err != nil {
			return err
		}
	}

	return nil
}

func (d *Decoder) fillDynLenArr(idx arena.Index, fc *fieldclass.FieldClass, ctx ctxKind) error {
	n, err := d.resolveLength(idx, fc.LengthLoc)
	if err != nil {
		return err
	}
	d.tree.Get(idx).Kind = field.KindArray

	for i := uint64(0); i < n; i++ {
		if err := d.decodeArrayElement(idx, fc.Element, ctx); err != nil {
			return err
		}
	}

	return nil
}

func (d *Decoder) decodeArrayElement(arrIdx arena.Index, elemClass *fieldclass.FieldClass, ctx ctxKind) error {
	childIdx := d.tree.Alloc(arrIdx, field.Field{Kind: field.KindNil, Class: elemClass})
	d.tree.Get(arrIdx).Array = append(d.tree.Get(arrIdx).Array, childIdx)

	return d.finishField(childIdx, elemClass, ctx)
}

// fillOptional resolves the present/absent selector and, if present,
// decodes the inner field class transparently into idx: the Field at idx
// ends up with the inner field's own Kind, not a distinct Optional kind.
func (d *Decoder) fillOptional(idx arena.Index, fc *fieldclass.FieldClass, ctx ctxKind) error {
	sel, err := d.locate(idx, fc.SelectorLoc)
	if err != nil {
		return err
	}

	v, err := sel.AsInt64()
	if err != nil {
		return err
	}

	present := v != 0
	if fc.SelectorRanges != nil {
		present = fc.SelectorRanges.IntersectsInt64(v)
	}

	if !present {
		d.tree.Get(idx).Kind = field.KindNil

		return nil
	}

	return d.fillField(idx, fc.Element, ctx)
}

// fillVariant resolves the integer selector against fc's options and
// decodes the chosen option's field class transparently into idx.
func (d *Decoder) fillVariant(idx arena.Index, fc *fieldclass.FieldClass, ctx ctxKind) error {
	sel, err := d.locate(idx, fc.VariantSelectorLoc)
	if err != nil {
		return err
	}
	v, err := sel.AsInt64()
	if err != nil {
		return err
	}
	opt, err := fc.SelectOption(v)
	if err != nil {
		return err
	}

	return d.fillField(idx, opt.Class, ctx)
}

// locate resolves loc against the field currently being decoded (idx): an
// OriginNone location walks up from idx itself, any other origin walks from
// that context's recorded root for the packet/event in progress.
func (d *Decoder) locate(idx arena.Index, loc fieldloc.Location) (*field.Field, error) {
	if loc.Origin == fieldloc.OriginNone {
		return d.locator.Resolve(idx, loc)
	}
	root, ok := d.ctxRoots[loc.Origin]
	if !ok {
		return nil, errs.ErrMissingFieldLocation
	}

	return d.locator.Resolve(root, loc)
}

func (d *Decoder) resolveLength(from arena.Index, loc fieldloc.Location) (uint64, error) {
	f, err := d.locate(from, loc)
	if err != nil {
		return 0, err
	}

	return f.AsUint64()
}
