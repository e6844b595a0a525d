package metadata

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"github.com/google/uuid"
	"github.com/nilsaberg/actf2/errs"
	"github.com/nilsaberg/actf2/fieldclass"
	"github.com/nilsaberg/actf2/fieldloc"
	"github.com/nilsaberg/actf2/internal/fingerprint"
	"github.com/nilsaberg/actf2/rng"
)

// builder accumulates fragments into a Model. One builder is used per parse;
// the parser's two entry points (ParseFragments, ParsePacketized) both
// funnel fragments through applyFragment.
type builder struct {
	model *Model
}

func newBuilder() *builder {
	return &builder{model: newModel()}
}

func (b *builder) applyFragment(raw map[string]any) error {
	if b.model.frozen {
		return errs.Wrap("model is frozen", errs.ErrInternal)
	}
	t, _ := raw["type"].(string)
	switch t {
	case "preamble":
		return b.applyPreamble(raw)
	case "field-class-alias":
		return b.applyFieldClassAlias(raw)
	case "trace-class":
		return b.applyTraceClass(raw)
	case "clock-class":
		return b.applyClockClass(raw)
	case "data-stream-class":
		return b.applyDataStreamClass(raw)
	case "event-record-class":
		return b.applyEventRecordClass(raw)
	default:
		return errs.Wrap(fmt.Sprintf("unknown fragment type %q", t), errs.ErrJSONShape)
	}
}

func (b *builder) applyPreamble(raw map[string]any) error {
	if b.model.preamble != nil {
		return errs.ErrDuplicatePreamble
	}

	version, ok := asInt(raw["version"])
	if !ok || version != 2 {
		return errs.ErrUnsupportedVersion
	}

	p := &Preamble{Version: version, Attributes: asMap(raw["attributes"])}

	if rawUUID, ok := raw["uuid"].(string); ok {
		u, err := uuid.Parse(rawUUID)
		if err != nil {
			return errs.ErrInvalidUUID
		}
		p.UUID = u
		p.HasUUID = true
	}

	if exts := asMap(raw["extensions"]); exts != nil {
		if err := rejectNonEmptyExtensions(exts); err != nil {
			return err
		}
	}

	b.model.preamble = p

	return nil
}

func rejectNonEmptyExtensions(exts map[string]any) error {
	for _, v := range exts {
		inner, ok := v.(map[string]any)
		if !ok {
			return errs.ErrUnsupportedExtension
		}
		if len(inner) > 0 {
			return errs.ErrUnsupportedExtension
		}
	}

	return nil
}

func (b *builder) applyFieldClassAlias(raw map[string]any) error {
	name, _ := raw["name"].(string)
	if name == "" {
		return errs.ErrMissingProperty
	}
	if _, exists := b.model.aliases[name]; exists {
		return errs.ErrDuplicateID
	}

	fcRaw := asMap(raw["field-class"])
	fc, err := b.decodeFieldClass(fcRaw)
	if err != nil {
		return err
	}
	b.model.aliases[name] = fc

	return nil
}

func (b *builder) applyTraceClass(raw map[string]any) error {
	if b.model.trace != nil {
		return errs.ErrDuplicateID
	}

	tc := &TraceClass{
		Namespace:   asString(raw["namespace"]),
		Name:        asString(raw["name"]),
		UID:         asString(raw["uid"]),
		Environment: asMap(raw["environment"]),
		Attributes:  asMap(raw["attributes"]),
	}
	if err := validateEnvironment(tc.Environment); err != nil {
		return err
	}

	if phRaw := asMap(raw["packet-header-field-class"]); phRaw != nil {
		fc, err := b.decodeFieldClass(phRaw)
		if err != nil {
			return err
		}
		if fc.Kind != fieldclass.KindStruct {
			return errs.ErrNotAStruct
		}
		if err := b.validateHeaderRoles(fc); err != nil {
			return err
		}
		tc.PacketHeader = fc
	}

	b.model.trace = tc

	return nil
}

func validateEnvironment(env map[string]any) error {
	for _, v := range env {
		switch v.(type) {
		case json.Number, float64, string, int:
		default:
			return errs.ErrInvalidEnvironment
		}
	}

	return nil
}

// validateHeaderRoles enforces that packet-magic-number may only appear on
// the first member of the top-level packet-header struct, and that
// metadata-stream-uuid requires a preamble UUID and a 16-byte
// static-length-blob carrier (spec.md §4.6).
func (b *builder) validateHeaderRoles(header *fieldclass.FieldClass) error {
	for i, m := range header.Members {
		if m.Class.HasRole(fieldclass.RolePacketMagicNumber) && i != 0 {
			return errs.ErrInvalidMagicRole
		}
		if m.Class.HasRole(fieldclass.RoleMetadataStreamUUID) {
			if m.Class.Kind != fieldclass.KindStaticLenBlob || m.Class.Length != 16 {
				return errs.ErrInvalidUUIDRole
			}
			if b.model.preamble == nil || !b.model.preamble.HasUUID {
				return errs.ErrInvalidUUIDRole
			}
		}
	}

	return nil
}

func (b *builder) applyClockClass(raw map[string]any) error {
	id := asString(raw["id"])
	if id == "" {
		return errs.ErrMissingProperty
	}
	if _, exists := b.model.clocks[id]; exists {
		return errs.ErrDuplicateID
	}

	freq, ok := asUint(raw["frequency"])
	if !ok || freq == 0 {
		return errs.ErrNonPositiveFrequency
	}

	cc := &ClockClass{
		ID:          id,
		Namespace:   asString(raw["namespace"]),
		Name:        asString(raw["name"]),
		UID:         asString(raw["uid"]),
		Frequency:   freq,
		Description: asString(raw["description"]),
		Attributes:  asMap(raw["attributes"]),
	}
	cc.identityHash = fingerprint.OfString(cc.Namespace + "\x00" + cc.Name + "\x00" + cc.UID)

	switch origin := raw["origin"].(type) {
	case nil:
		cc.Origin = OriginNone
	case string:
		if origin == "unix-epoch" {
			cc.Origin = OriginUnixEpoch
		} else {
			return errs.ErrNoSuchOrigin
		}
	case map[string]any:
		cc.Origin = OriginCustom
	default:
		return errs.ErrNoSuchOrigin
	}

	if off := asMap(raw["offset-from-origin"]); off != nil {
		secs, _ := asInt64(off["seconds"])
		cycles, _ := asUint(off["cycles"])
		if cycles >= freq {
			return errs.ErrCycleGTEFreq
		}
		cc.OffsetSeconds = secs
		cc.OffsetCycles = cycles
	}

	if p, ok := asUint(raw["precision"]); ok {
		cc.Precision, cc.HasPrecision = p, true
	}
	if a, ok := asUint(raw["accuracy"]); ok {
		cc.Accuracy, cc.HasAccuracy = a, true
	}

	b.model.clocks[id] = cc

	return nil
}

func (b *builder) applyDataStreamClass(raw map[string]any) error {
	id, ok := asUint(raw["id"])
	if !ok {
		return errs.ErrMissingProperty
	}
	if _, exists := b.model.streams[id]; exists {
		return errs.ErrDuplicateID
	}

	dsc := &DataStreamClass{
		ID:         id,
		Namespace:  asString(raw["namespace"]),
		Name:       asString(raw["name"]),
		Attributes: asMap(raw["attributes"]),
		events:     make(map[uint64]*EventRecordClass),
	}

	if clockID := asString(raw["default-clock-class-id"]); clockID != "" {
		cc, ok := b.model.clocks[clockID]
		if !ok {
			return errs.ErrNoSuchOrigin
		}
		dsc.DefaultClockID = clockID
		dsc.defaultClock = cc
		dsc.HasDefaultClock = true
	}

	for _, pair := range []struct {
		key  string
		dest **fieldclass.FieldClass
	}{
		{"packet-context-field-class", &dsc.PacketContext},
		{"event-record-header-field-class", &dsc.EventRecordHeader},
		{"event-record-common-context-field-class", &dsc.EventCommonContext},
	} {
		if raw2 := asMap(raw[pair.key]); raw2 != nil {
			fc, err := b.decodeFieldClass(raw2)
			if err != nil {
				return err
			}
			if fc.Kind != fieldclass.KindStruct {
				return errs.ErrNotAStruct
			}
			if err := validateClockRoles(fc, dsc); err != nil {
				return err
			}
			*pair.dest = fc
		}
	}

	b.model.streams[id] = dsc
	b.model.streamOrder = append(b.model.streamOrder, id)

	return nil
}

func validateClockRoles(fc *fieldclass.FieldClass, dsc *DataStreamClass) error {
	var walk func(*fieldclass.FieldClass) error
	walk = func(fc *fieldclass.FieldClass) error {
		if fc == nil {
			return nil
		}
		if (fc.HasRole(fieldclass.RoleDefaultClockTimestamp) || fc.HasRole(fieldclass.RolePacketEndDefaultClockTimestamp)) && !dsc.HasDefaultClock {
			return errs.ErrNoDefaultClock
		}
		for _, m := range fc.Members {
			if err := walk(m.Class); err != nil {
				return err
			}
		}

		return walk(fc.Element)
	}

	return walk(fc)
}

func (b *builder) applyEventRecordClass(raw map[string]any) error {
	dscID, ok := asUint(raw["data-stream-class-id"])
	if !ok {
		return errs.ErrMissingProperty
	}
	dsc, ok := b.model.streams[dscID]
	if !ok {
		return errs.ErrNoSuchDataStreamClass
	}

	id, ok := asUint(raw["id"])
	if !ok {
		return errs.ErrMissingProperty
	}
	if _, exists := dsc.events[id]; exists {
		return errs.ErrDuplicateID
	}

	erc := &EventRecordClass{
		ID:         id,
		Namespace:  asString(raw["namespace"]),
		Name:       asString(raw["name"]),
		Attributes: asMap(raw["attributes"]),
	}

	if scRaw := asMap(raw["specific-context-field-class"]); scRaw != nil {
		fc, err := b.decodeFieldClass(scRaw)
		if err != nil {
			return err
		}
		if fc.Kind != fieldclass.KindStruct {
			return errs.ErrNotAStruct
		}
		erc.SpecificContext = fc
	}
	if pRaw := asMap(raw["payload-field-class"]); pRaw != nil {
		fc, err := b.decodeFieldClass(pRaw)
		if err != nil {
			return err
		}
		if fc.Kind != fieldclass.KindStruct {
			return errs.ErrNotAStruct
		}
		erc.Payload = fc
	}

	dsc.events[id] = erc
	dsc.eventOrder = append(dsc.eventOrder, id)

	return nil
}

// decodeFieldClass recursively builds a fieldclass.FieldClass from its JSON
// object representation. An object with a "$ref" member resolves to the
// field-class-alias fragment it names; a bare JSON string in place of a
// field class object is not accepted.
func (b *builder) decodeFieldClass(raw map[string]any) (*fieldclass.FieldClass, error) {
	if raw == nil {
		return nil, errs.ErrMissingProperty
	}
	if aliasName, ok := raw["$ref"].(string); ok {
		return b.model.FieldClassAlias(aliasName)
	}

	t, _ := raw["type"].(string)
	fc := &fieldclass.FieldClass{
		Alias:      asString(raw["alias"]),
		Attributes: asMap(raw["attributes"]),
		Extensions: asMap(raw["extensions"]),
	}

	switch t {
	case "fixed-length-bit-array", "fixed-length-bit-map", "fixed-length-unsigned-integer",
		"fixed-length-signed-integer", "fixed-length-boolean", "fixed-length-floating-point":
		fc.Kind = fixedLenKind(t)
		if err := decodeFixedLenAttrs(fc, raw); err != nil {
			return nil, err
		}
	case "variable-length-unsigned-integer":
		fc.Kind = fieldclass.KindVarLenUInt
		for _, rname := range asRoleNames(raw["roles"]) {
			fc.Roles = append(fc.Roles, parseRole(rname))
		}
	case "variable-length-signed-integer":
		fc.Kind = fieldclass.KindVarLenSInt
		for _, rname := range asRoleNames(raw["roles"]) {
			fc.Roles = append(fc.Roles, parseRole(rname))
		}
	case "null-terminated-string":
		fc.Kind = fieldclass.KindNullTermStr
		decodeEncoding(fc, raw)
	case "static-length-string":
		fc.Kind = fieldclass.KindStaticLenStr
		decodeEncoding(fc, raw)
		fc.Length, _ = asUint(raw["length"])
	case "dynamic-length-string":
		fc.Kind = fieldclass.KindDynLenStr
		decodeEncoding(fc, raw)
		loc, err := decodeFieldLocation(raw["length-field-location"])
		if err != nil {
			return nil, err
		}
		fc.LengthLoc = loc
	case "static-length-blob":
		fc.Kind = fieldclass.KindStaticLenBlob
		fc.MediaType = asString(raw["media-type"])
		fc.Length, _ = asUint(raw["length"])
		for _, rname := range asRoleNames(raw["roles"]) {
			fc.Roles = append(fc.Roles, parseRole(rname))
		}
	case "dynamic-length-blob":
		fc.Kind = fieldclass.KindDynLenBlob
		fc.MediaType = asString(raw["media-type"])
		loc, err := decodeFieldLocation(raw["length-field-location"])
		if err != nil {
			return nil, err
		}
		fc.LengthLoc = loc
	case "structure":
		fc.Kind = fieldclass.KindStruct
		fc.MinAlignment, _ = asUint(raw["minimum-alignment"])
		members, _ := raw["member-classes"].([]any)
		for _, rawMember := range members {
			mm, _ := rawMember.(map[string]any)
			name := asString(mm["name"])
			childFC, err := b.decodeFieldClass(asMap(mm["field-class"]))
			if err != nil {
				return nil, err
			}
			fc.Members = append(fc.Members, fieldclass.Member{
				Name:       name,
				Class:      childFC,
				Attributes: asMap(mm["attributes"]),
			})
		}
	case "static-length-array":
		fc.Kind = fieldclass.KindStaticLenArr
		fc.MinAlignment, _ = asUint(raw["minimum-alignment"])
		fc.Length, _ = asUint(raw["length"])
		elem, err := b.decodeFieldClass(asMap(raw["element-field-class"]))
		if err != nil {
			return nil, err
		}
		fc.Element = elem
	case "dynamic-length-array":
		fc.Kind = fieldclass.KindDynLenArr
		fc.MinAlignment, _ = asUint(raw["minimum-alignment"])
		loc, err := decodeFieldLocation(raw["length-field-location"])
		if err != nil {
			return nil, err
		}
		fc.LengthLoc = loc
		elem, err := b.decodeFieldClass(asMap(raw["element-field-class"]))
		if err != nil {
			return nil, err
		}
		fc.Element = elem
	case "optional":
		fc.Kind = fieldclass.KindOptional
		loc, err := decodeFieldLocation(raw["selector-field-location"])
		if err != nil {
			return nil, err
		}
		fc.SelectorLoc = loc
		if rs, ok := raw["selector-field-ranges"]; ok {
			rangeSet, err := decodeRangeSet(rs)
			if err != nil {
				return nil, err
			}
			fc.SelectorRanges = rangeSet
		}
		elem, err := b.decodeFieldClass(asMap(raw["field-class"]))
		if err != nil {
			return nil, err
		}
		fc.Element = elem
	case "variant":
		loc, err := decodeFieldLocation(raw["selector-field-location"])
		if err != nil {
			return nil, err
		}
		opts, _ := raw["options"].([]any)
		var voptions []fieldclass.VariantOption
		for _, rawOpt := range opts {
			om, _ := rawOpt.(map[string]any)
			optFC, err := b.decodeFieldClass(asMap(om["field-class"]))
			if err != nil {
				return nil, err
			}
			rangeSet, err := decodeRangeSet(om["selector-field-ranges"])
			if err != nil {
				return nil, err
			}
			voptions = append(voptions, fieldclass.VariantOption{
				Name:   asString(om["name"]),
				Class:  optFC,
				Ranges: rangeSet,
			})
		}

		return fieldclass.NewVariant(loc, voptions, fc.Alias)
	default:
		return nil, errs.Wrap(fmt.Sprintf("unknown field class type %q", t), errs.ErrJSONShape)
	}

	return fc, nil
}

func fixedLenKind(t string) fieldclass.Kind {
	switch t {
	case "fixed-length-bit-array":
		return fieldclass.KindFixedLenBitArray
	case "fixed-length-bit-map":
		return fieldclass.KindFixedLenBitMap
	case "fixed-length-unsigned-integer":
		return fieldclass.KindFixedLenUInt
	case "fixed-length-signed-integer":
		return fieldclass.KindFixedLenSInt
	case "fixed-length-boolean":
		return fieldclass.KindFixedLenBool
	default:
		return fieldclass.KindFixedLenFloat
	}
}

func decodeFixedLenAttrs(fc *fieldclass.FieldClass, raw map[string]any) error {
	bl, ok := asUint(raw["length"])
	if !ok || bl == 0 || bl > 64 {
		return errs.ErrUnsupportedLength
	}
	fc.BitLength = uint(bl)

	align, ok := asUint(raw["alignment"])
	if !ok {
		align = 1
	}
	if align == 0 || (align&(align-1)) != 0 {
		return errs.ErrInvalidAlignment
	}
	fc.Alignment = align

	switch asString(raw["byte-order"]) {
	case "", "little-endian":
		fc.ByteOrder = fieldclass.LittleEndian
	case "big-endian":
		fc.ByteOrder = fieldclass.BigEndian
	default:
		return errs.ErrInvalidByteOrder
	}

	switch asString(raw["bit-order"]) {
	case "", "first-to-last":
		fc.BitOrder = fieldclass.FirstToLast
	case "last-to-first":
		fc.BitOrder = fieldclass.LastToFirst
	default:
		return errs.ErrInvalidBitOrder
	}

	switch asUintOrZero(raw["base"]) {
	case 0, 10:
		fc.Base = fieldclass.Base10
	case 2:
		fc.Base = fieldclass.Base2
	case 8:
		fc.Base = fieldclass.Base8
	case 16:
		fc.Base = fieldclass.Base16
	default:
		return errs.ErrInvalidBase
	}

	if rawMappings := asMap(raw["mappings"]); rawMappings != nil {
		for name, rs := range rawMappings {
			rangeSet, err := decodeRangeSet(rs)
			if err != nil {
				return err
			}
			fc.Mappings = append(fc.Mappings, fieldclass.Mapping{Name: name, Ranges: rangeSet})
		}
	}

	for _, rname := range asRoleNames(raw["roles"]) {
		fc.Roles = append(fc.Roles, parseRole(rname))
	}

	return nil
}

func decodeEncoding(fc *fieldclass.FieldClass, raw map[string]any) {
	switch asString(raw["encoding"]) {
	case "", "utf-8":
		fc.CharEncoding = fieldclass.UTF8
	case "utf-16be":
		fc.CharEncoding = fieldclass.UTF16BE
	case "utf-16le":
		fc.CharEncoding = fieldclass.UTF16LE
	case "utf-32be":
		fc.CharEncoding = fieldclass.UTF32BE
	case "utf-32le":
		fc.CharEncoding = fieldclass.UTF32LE
	}
}

func parseRole(name string) fieldclass.Role {
	switch name {
	case "data-stream-class-id":
		return fieldclass.RoleDataStreamClassID
	case "data-stream-id":
		return fieldclass.RoleDataStreamID
	case "packet-magic-number":
		return fieldclass.RolePacketMagicNumber
	case "metadata-stream-uuid":
		return fieldclass.RoleMetadataStreamUUID
	case "default-clock-timestamp":
		return fieldclass.RoleDefaultClockTimestamp
	case "discarded-event-record-counter-snapshot":
		return fieldclass.RoleDiscardedEventRecordCounterSnapshot
	case "packet-content-length":
		return fieldclass.RolePacketContentLength
	case "packet-total-length":
		return fieldclass.RolePacketTotalLength
	case "packet-end-default-clock-timestamp":
		return fieldclass.RolePacketEndDefaultClockTimestamp
	case "packet-sequence-number":
		return fieldclass.RolePacketSequenceNumber
	case "event-record-class-id":
		return fieldclass.RoleEventRecordClassID
	default:
		return fieldclass.RoleNone
	}
}

func decodeFieldLocation(raw any) (fieldloc.Location, error) {
	if raw == nil {
		return fieldloc.Location{}, nil
	}
	m, ok := raw.(map[string]any)
	if !ok {
		return fieldloc.Location{}, errs.ErrInvalidFieldLocation
	}

	loc := fieldloc.Location{}
	switch asString(m["origin"]) {
	case "", "none":
		loc.Origin = fieldloc.OriginNone
	case "packet-header":
		loc.Origin = fieldloc.OriginPacketHeader
	case "packet-context":
		loc.Origin = fieldloc.OriginPacketContext
	case "event-record-header":
		loc.Origin = fieldloc.OriginEventHeader
	case "event-record-common-context":
		loc.Origin = fieldloc.OriginEventCommonContext
	case "event-record-specific-context":
		loc.Origin = fieldloc.OriginEventSpecificContext
	case "event-record-payload":
		loc.Origin = fieldloc.OriginEventPayload
	default:
		return fieldloc.Location{}, errs.ErrInvalidFieldLocation
	}

	pathRaw, _ := m["path"].([]any)
	for i, elem := range pathRaw {
		if elem == nil {
			if i == len(pathRaw)-1 {
				return fieldloc.Location{}, errs.ErrInvalidFieldLocation
			}
			loc.Path = append(loc.Path, fieldloc.Parent())

			continue
		}
		name, ok := elem.(string)
		if !ok {
			return fieldloc.Location{}, errs.ErrInvalidFieldLocation
		}
		loc.Path = append(loc.Path, fieldloc.Member(name))
	}

	return loc, nil
}

// decodeRangeSet accepts a JSON array of two-element [lower, upper] arrays.
// Bounds are parsed as exact int64/uint64 via json.Number (never float64,
// which cannot represent every integer at int64-boundary magnitudes), so a
// mix of negative and > math.MaxInt64 magnitudes is rejected per spec.md's
// range-set invariant even when a bound is exactly math.MaxInt64+1.
func decodeRangeSet(raw any) (*rng.Set, error) {
	items, ok := raw.([]any)
	if !ok {
		return nil, errs.ErrInvalidRangeSet
	}

	type pair struct {
		loSigned, hiSigned     int64
		loUnsigned, hiUnsigned uint64
	}

	hasNegative := false
	hasOverflow := false
	var pairs []pair
	for _, it := range items {
		arr, ok := it.([]any)
		if !ok || len(arr) != 2 {
			return nil, errs.ErrInvalidRangeSet
		}
		loN, ok := numericValue(arr[0])
		if !ok {
			return nil, errs.ErrInvalidRangeSet
		}
		hiN, ok := numericValue(arr[1])
		if !ok {
			return nil, errs.ErrInvalidRangeSet
		}

		loNeg, loU, loI, loOverflow := classifyRangeBound(loN)
		hiNeg, hiU, hiI, hiOverflow := classifyRangeBound(hiN)
		if loNeg || hiNeg {
			hasNegative = true
		}
		if loOverflow || hiOverflow {
			hasOverflow = true
		}
		pairs = append(pairs, pair{loSigned: loI, hiSigned: hiI, loUnsigned: loU, hiUnsigned: hiU})
	}
	if hasNegative && hasOverflow {
		return nil, errs.ErrInvalidRangeSet
	}

	if hasNegative {
		srngs := make([]rng.SRange, 0, len(pairs))
		for _, p := range pairs {
			srngs = append(srngs, rng.SRange{Lower: p.loSigned, Upper: p.hiSigned})
		}

		return rng.NewSigned(srngs...)
	}

	urngs := make([]rng.URange, 0, len(pairs))
	for _, p := range pairs {
		urngs = append(urngs, rng.URange{Lower: p.loUnsigned, Upper: p.hiUnsigned})
	}

	return rng.NewUnsigned(urngs...)
}

// classifyRangeBound parses n exactly as either a negative int64 or a
// non-negative uint64 (a range bound is always an integer per spec.md's
// metadata schema), reporting whether it exceeds math.MaxInt64: the
// threshold decodeRangeSet's signed/unsigned mixing check is defined
// against.
func classifyRangeBound(n json.Number) (neg bool, u uint64, i int64, overflow bool) {
	if v, err := n.Int64(); err == nil {
		if v < 0 {
			return true, 0, v, false
		}

		return false, uint64(v), v, false
	}
	if v, err := strconv.ParseUint(string(n), 10, 64); err == nil {
		return false, v, 0, v > math.MaxInt64
	}

	return false, 0, 0, true
}

// numericValue normalizes a decoded JSON number to a json.Number: real
// fragment parsing decodes with json.Decoder.UseNumber, but hand-built
// fixtures (tests) may still hold a bare float64.
func numericValue(raw any) (json.Number, bool) {
	switch v := raw.(type) {
	case json.Number:
		return v, true
	case float64:
		return json.Number(strconv.FormatFloat(v, 'f', -1, 64)), true
	default:
		return "", false
	}
}

func asRoleNames(raw any) []string {
	items, _ := raw.([]any)
	names := make([]string, 0, len(items))
	for _, it := range items {
		if s, ok := it.(string); ok {
			names = append(names, s)
		}
	}

	return names
}

func asMap(raw any) map[string]any {
	m, _ := raw.(map[string]any)

	return m
}

func asString(raw any) string {
	s, _ := raw.(string)

	return s
}

func asInt(raw any) (int, bool) {
	i, ok := asInt64(raw)

	return int(i), ok
}

func asInt64(raw any) (int64, bool) {
	n, ok := numericValue(raw)
	if !ok {
		return 0, false
	}
	if i, err := n.Int64(); err == nil {
		return i, true
	}
	f, err := n.Float64()
	if err != nil {
		return 0, false
	}

	return int64(f), true
}

func asUint(raw any) (uint64, bool) {
	n, ok := numericValue(raw)
	if !ok {
		return 0, false
	}
	if u, err := strconv.ParseUint(string(n), 10, 64); err == nil {
		return u, true
	}
	f, err := n.Float64()
	if err != nil || f < 0 {
		return 0, false
	}

	return uint64(f), true
}

func asUintOrZero(raw any) uint64 {
	v, _ := asUint(raw)

	return v
}
