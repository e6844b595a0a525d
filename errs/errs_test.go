package errs

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKindOf(t *testing.T) {
	kind, ok := KindOf(ErrNotEnoughBits)
	require.True(t, ok)
	require.Equal(t, KindNotEnoughBits, kind)

	_, ok = KindOf(errors.New("plain"))
	require.False(t, ok)
}

func TestWrapPreservesIs(t *testing.T) {
	err := Wrap("decode event payload", Wrap("decode packet", ErrNotEnoughBits))
	require.ErrorIs(t, err, ErrNotEnoughBits)
	require.Equal(t, "decode event payload: decode packet: not enough bits remaining", err.Error())
}

func TestErrorUnwrapViaFmt(t *testing.T) {
	err := fmt.Errorf("parse header: %w", ErrInvalidMetadataPacket)
	require.ErrorIs(t, err, ErrInvalidMetadataPacket)
}

func TestKindString(t *testing.T) {
	require.Equal(t, "not-enough-bits", KindNotEnoughBits.String())
	require.Equal(t, "unknown", Kind(9999).String())
}
