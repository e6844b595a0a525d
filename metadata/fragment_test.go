package metadata

import (
	"testing"

	"github.com/nilsaberg/actf2/errs"
	"github.com/nilsaberg/actf2/fieldclass"
	"github.com/stretchr/testify/require"
)

func mustApplyPreamble(t *testing.T, b *builder) {
	t.Helper()
	require.NoError(t, b.applyFragment(map[string]any{"type": "preamble", "version": float64(2)}))
}

func TestApplyPreambleDuplicateRejected(t *testing.T) {
	b := newBuilder()
	mustApplyPreamble(t, b)
	err := b.applyFragment(map[string]any{"type": "preamble", "version": float64(2)})
	require.ErrorIs(t, err, errs.ErrDuplicatePreamble)
}

func TestApplyPreambleUnsupportedVersion(t *testing.T) {
	b := newBuilder()
	err := b.applyFragment(map[string]any{"type": "preamble", "version": float64(1)})
	require.ErrorIs(t, err, errs.ErrUnsupportedVersion)
}

func TestApplyPreambleWithUUID(t *testing.T) {
	b := newBuilder()
	err := b.applyFragment(map[string]any{
		"type": "preamble", "version": float64(2),
		"uuid": "5f1a6c10-3d2e-4a8a-9b2e-89c0f1a2b3c4",
	})
	require.NoError(t, err)
	require.True(t, b.model.preamble.HasUUID)
}

func TestApplyPreambleInvalidUUID(t *testing.T) {
	b := newBuilder()
	err := b.applyFragment(map[string]any{
		"type": "preamble", "version": float64(2), "uuid": "not-a-uuid",
	})
	require.ErrorIs(t, err, errs.ErrInvalidUUID)
}

func TestApplyPreambleRejectsNonEmptyExtension(t *testing.T) {
	b := newBuilder()
	err := b.applyFragment(map[string]any{
		"type": "preamble", "version": float64(2),
		"extensions": map[string]any{"vendor": map[string]any{"k": "v"}},
	})
	require.ErrorIs(t, err, errs.ErrUnsupportedExtension)
}

func TestFieldClassAliasResolution(t *testing.T) {
	b := newBuilder()
	mustApplyPreamble(t, b)

	err := b.applyFragment(map[string]any{
		"type": "field-class-alias",
		"name": "u32",
		"field-class": map[string]any{
			"type": "fixed-length-unsigned-integer", "length": float64(32),
		},
	})
	require.NoError(t, err)

	fc, err := b.model.FieldClassAlias("u32")
	require.NoError(t, err)
	require.Equal(t, fieldclass.KindFixedLenUInt, fc.Kind)

	refFC, err := b.decodeFieldClass(map[string]any{"$ref": "u32"})
	require.NoError(t, err)
	require.Same(t, fc, refFC)
}

func TestApplyFieldClassAliasDuplicateRejected(t *testing.T) {
	b := newBuilder()
	fc := map[string]any{"type": "fixed-length-unsigned-integer", "length": float64(8)}
	require.NoError(t, b.applyFragment(map[string]any{"type": "field-class-alias", "name": "n", "field-class": fc}))
	err := b.applyFragment(map[string]any{"type": "field-class-alias", "name": "n", "field-class": fc})
	require.ErrorIs(t, err, errs.ErrDuplicateID)
}

func TestTraceClassRejectsNonStructHeader(t *testing.T) {
	b := newBuilder()
	err := b.applyFragment(map[string]any{
		"type": "trace-class",
		"packet-header-field-class": map[string]any{
			"type": "fixed-length-unsigned-integer", "length": float64(32),
		},
	})
	require.ErrorIs(t, err, errs.ErrNotAStruct)
}

func TestTraceClassRejectsMagicRoleNotFirstMember(t *testing.T) {
	b := newBuilder()
	err := b.applyFragment(map[string]any{
		"type": "trace-class",
		"packet-header-field-class": map[string]any{
			"type": "structure",
			"member-classes": []any{
				map[string]any{"name": "a", "field-class": map[string]any{
					"type": "fixed-length-unsigned-integer", "length": float64(32),
				}},
				map[string]any{"name": "magic", "field-class": map[string]any{
					"type": "fixed-length-unsigned-integer", "length": float64(32),
					"roles": []any{"packet-magic-number"},
				}},
			},
		},
	})
	require.ErrorIs(t, err, errs.ErrInvalidMagicRole)
}

func TestTraceClassRejectsBadUUIDRoleShape(t *testing.T) {
	b := newBuilder()
	err := b.applyFragment(map[string]any{
		"type": "trace-class",
		"packet-header-field-class": map[string]any{
			"type": "structure",
			"member-classes": []any{
				map[string]any{"name": "uuid", "field-class": map[string]any{
					"type": "static-length-blob", "length": float64(8),
					"roles": []any{"metadata-stream-uuid"},
				}},
			},
		},
	})
	require.ErrorIs(t, err, errs.ErrInvalidUUIDRole)
}

func TestTraceClassAcceptsValidHeaderRoles(t *testing.T) {
	b := newBuilder()
	err := b.applyFragment(map[string]any{
		"type": "preamble", "version": float64(2),
		"uuid": "5f1a6c10-3d2e-4a8a-9b2e-89c0f1a2b3c4",
	})
	require.NoError(t, err)

	err = b.applyFragment(map[string]any{
		"type": "trace-class",
		"packet-header-field-class": map[string]any{
			"type": "structure",
			"member-classes": []any{
				map[string]any{"name": "magic", "field-class": map[string]any{
					"type": "fixed-length-unsigned-integer", "length": float64(32),
					"roles": []any{"packet-magic-number"},
				}},
				map[string]any{"name": "uuid", "field-class": map[string]any{
					"type": "static-length-blob", "length": float64(16),
					"roles": []any{"metadata-stream-uuid"},
				}},
			},
		},
	})
	require.NoError(t, err)
}

func TestTraceClassRejectsInvalidEnvironmentValue(t *testing.T) {
	b := newBuilder()
	err := b.applyFragment(map[string]any{
		"type":        "trace-class",
		"environment": map[string]any{"tags": []any{"a", "b"}},
	})
	require.ErrorIs(t, err, errs.ErrInvalidEnvironment)
}

func TestApplyClockClassRejectsCycleGTEFreq(t *testing.T) {
	b := newBuilder()
	err := b.applyFragment(map[string]any{
		"type": "clock-class", "id": "c", "frequency": float64(1000),
		"offset-from-origin": map[string]any{"seconds": float64(0), "cycles": float64(1000)},
	})
	require.ErrorIs(t, err, errs.ErrCycleGTEFreq)
}

func TestApplyClockClassRejectsNonPositiveFrequency(t *testing.T) {
	b := newBuilder()
	err := b.applyFragment(map[string]any{"type": "clock-class", "id": "c", "frequency": float64(0)})
	require.ErrorIs(t, err, errs.ErrNonPositiveFrequency)
}

func TestApplyClockClassUnknownOriginString(t *testing.T) {
	b := newBuilder()
	err := b.applyFragment(map[string]any{
		"type": "clock-class", "id": "c", "frequency": float64(1000), "origin": "bogus",
	})
	require.ErrorIs(t, err, errs.ErrNoSuchOrigin)
}

func TestApplyClockClassIdentityHashMatchesEquivalentClocks(t *testing.T) {
	b := newBuilder()
	require.NoError(t, b.applyFragment(map[string]any{
		"type": "clock-class", "id": "a", "namespace": "ns", "name": "clk", "uid": "1",
		"frequency": float64(1000),
	}))
	require.NoError(t, b.applyFragment(map[string]any{
		"type": "clock-class", "id": "b", "namespace": "ns", "name": "clk", "uid": "1",
		"frequency": float64(2000),
	}))
	require.NoError(t, b.applyFragment(map[string]any{
		"type": "clock-class", "id": "c", "namespace": "ns", "name": "clk", "uid": "2",
		"frequency": float64(1000),
	}))

	a, err := b.model.ClockClassByID("a")
	require.NoError(t, err)
	same, err := b.model.ClockClassByID("b")
	require.NoError(t, err)
	different, err := b.model.ClockClassByID("c")
	require.NoError(t, err)

	require.True(t, a.Identity(same))
	require.False(t, a.Identity(different))
}

func TestApplyDataStreamClassUnknownDefaultClock(t *testing.T) {
	b := newBuilder()
	err := b.applyFragment(map[string]any{
		"type": "data-stream-class", "id": float64(1), "default-clock-class-id": "nope",
	})
	require.ErrorIs(t, err, errs.ErrNoSuchOrigin)
}

func TestApplyDataStreamClassRejectsDefaultClockTimestampWithoutClock(t *testing.T) {
	b := newBuilder()
	err := b.applyFragment(map[string]any{
		"type": "data-stream-class", "id": float64(1),
		"packet-context-field-class": map[string]any{
			"type": "structure",
			"member-classes": []any{
				map[string]any{"name": "ts", "field-class": map[string]any{
					"type": "fixed-length-unsigned-integer", "length": float64(64),
					"roles": []any{"default-clock-timestamp"},
				}},
			},
		},
	})
	require.ErrorIs(t, err, errs.ErrNoDefaultClock)
}

func TestApplyEventRecordClassUnknownStream(t *testing.T) {
	b := newBuilder()
	err := b.applyFragment(map[string]any{
		"type": "event-record-class", "id": float64(1), "data-stream-class-id": float64(99),
	})
	require.ErrorIs(t, err, errs.ErrNoSuchDataStreamClass)
}

func TestApplyEventRecordClassDuplicateRejected(t *testing.T) {
	b := newBuilder()
	require.NoError(t, b.applyFragment(map[string]any{"type": "data-stream-class", "id": float64(1)}))
	erc := map[string]any{"type": "event-record-class", "id": float64(1), "data-stream-class-id": float64(1)}
	require.NoError(t, b.applyFragment(erc))
	err := b.applyFragment(erc)
	require.ErrorIs(t, err, errs.ErrDuplicateID)
}

func TestDecodeRangeSetUnsignedAndSigned(t *testing.T) {
	urs, err := decodeRangeSet([]any{[]any{float64(0), float64(10)}})
	require.NoError(t, err)
	require.True(t, urs.IntersectsUint64(5))

	srs, err := decodeRangeSet([]any{[]any{float64(-5), float64(5)}})
	require.NoError(t, err)
	require.True(t, srs.IntersectsInt64(-2))
}

func TestDecodeRangeSetRejectsMixedSignAndOverflow(t *testing.T) {
	big := float64(uint64(1) << 63)
	_, err := decodeRangeSet([]any{
		[]any{float64(-1), float64(1)},
		[]any{float64(0), big},
	})
	require.ErrorIs(t, err, errs.ErrInvalidRangeSet)
}

func TestDecodeFieldClassVariantRejectsOverlap(t *testing.T) {
	b := newBuilder()
	_, err := b.decodeFieldClass(map[string]any{
		"type":                    "variant",
		"selector-field-location": map[string]any{"origin": "none", "path": []any{"sel"}},
		"options": []any{
			map[string]any{
				"name":                  "a",
				"selector-field-ranges": []any{[]any{float64(0), float64(5)}},
				"field-class":           map[string]any{"type": "fixed-length-unsigned-integer", "length": float64(8)},
			},
			map[string]any{
				"name":                  "b",
				"selector-field-ranges": []any{[]any{float64(3), float64(8)}},
				"field-class":           map[string]any{"type": "fixed-length-unsigned-integer", "length": float64(8)},
			},
		},
	})
	require.ErrorIs(t, err, errs.ErrInvalidVariant)
}

func TestDecodeFieldClassUnknownTypeRejected(t *testing.T) {
	b := newBuilder()
	_, err := b.decodeFieldClass(map[string]any{"type": "something-else"})
	require.ErrorIs(t, err, errs.ErrJSONShape)
}

func TestDecodeFixedLenAttrsRejectsBadAlignment(t *testing.T) {
	b := newBuilder()
	_, err := b.decodeFieldClass(map[string]any{
		"type": "fixed-length-unsigned-integer", "length": float64(8), "alignment": float64(3),
	})
	require.ErrorIs(t, err, errs.ErrInvalidAlignment)
}

func TestDecodeFixedLenAttrsRejectsOversizedLength(t *testing.T) {
	b := newBuilder()
	_, err := b.decodeFieldClass(map[string]any{
		"type": "fixed-length-unsigned-integer", "length": float64(65),
	})
	require.ErrorIs(t, err, errs.ErrUnsupportedLength)
}
