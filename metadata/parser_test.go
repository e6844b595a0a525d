package metadata

import (
	"encoding/binary"
	"testing"

	"github.com/nilsaberg/actf2/errs"
	"github.com/stretchr/testify/require"
)

func preambleFragment() string {
	return `{"type":"preamble","version":2}`
}

func TestParseFragmentsRequiresPreambleFirst(t *testing.T) {
	p := NewJsonSchemaParser()
	_, err := p.ParseFragments([]byte(`{"type":"clock-class","id":"c","frequency":1000000000}`))
	require.ErrorIs(t, err, errs.ErrNoPreamble)
}

func TestParseFragmentsHappyPath(t *testing.T) {
	p := NewJsonSchemaParser()
	stream := preambleFragment() + "\x1e" +
		`{"type":"clock-class","id":"clk","frequency":1000000000}` + "\x1e" +
		`{"type":"data-stream-class","id":1,"default-clock-class-id":"clk"}` + "\x1e" +
		`{"type":"event-record-class","id":1,"data-stream-class-id":1}`

	m, err := p.ParseFragments([]byte(stream))
	require.NoError(t, err)
	require.NotNil(t, m.Preamble())

	dsc, err := m.DataStreamClassByID(1)
	require.NoError(t, err)
	cc, ok := dsc.DefaultClock()
	require.True(t, ok)
	require.Equal(t, "clk", cc.ID)

	erc, err := dsc.EventRecordClassByID(1)
	require.NoError(t, err)
	require.EqualValues(t, 1, erc.ID)
}

func TestParseFragmentsRejectsDuplicatePreamble(t *testing.T) {
	p := NewJsonSchemaParser()
	stream := preambleFragment() + "\x1e" + preambleFragment()
	_, err := p.ParseFragments([]byte(stream))
	require.ErrorIs(t, err, errs.ErrDuplicatePreamble)
}

func TestParseFragmentsSkipsEmptyFragments(t *testing.T) {
	p := NewJsonSchemaParser()
	stream := "\x1e\x1e" + preambleFragment() + "\x1e\x1e"
	m, err := p.ParseFragments([]byte(stream))
	require.NoError(t, err)
	require.Equal(t, 2, m.Preamble().Version)
}

// buildPacketizedStream assembles one CTF2-PMETA-1.0 stream out of the given
// fragment-stream payloads, one metadata packet per payload, in the given
// byte order.
func buildPacketizedStream(t *testing.T, bo binary.ByteOrder, payloads ...string) []byte {
	t.Helper()
	var out []byte
	for _, payload := range payloads {
		contentBits := uint32(pmetaHeaderBytes+len(payload)) * 8
		totalBits := contentBits

		hdr := make([]byte, pmetaHeaderBytes)
		magic := pmetaMagic
		if bo == binary.BigEndian {
			magic = swap32(pmetaMagic)
		}
		binary.LittleEndian.PutUint32(hdr[0:4], magic)
		bo.PutUint32(hdr[24:28], contentBits)
		bo.PutUint32(hdr[28:32], totalBits)
		hdr[32] = 0 // compression
		hdr[33] = 0 // encryption
		hdr[34] = 0 // content checksum
		hdr[35] = pmetaMajor
		hdr[36] = pmetaMinor
		bo.PutUint32(hdr[40:44], pmetaHeaderBits)

		out = append(out, hdr...)
		out = append(out, []byte(payload)...)
	}

	return out
}

func TestParsePacketizedLittleEndian(t *testing.T) {
	stream := buildPacketizedStream(t, binary.LittleEndian, preambleFragment()+"\x1e"+
		`{"type":"clock-class","id":"clk","frequency":1000000000}`)

	p := NewJsonSchemaParser()
	m, err := p.ParsePacketized(stream)
	require.NoError(t, err)
	require.Equal(t, 2, m.Preamble().Version)

	cc, err := m.ClockClassByID("clk")
	require.NoError(t, err)
	require.EqualValues(t, 1000000000, cc.Frequency)
}

func TestParsePacketizedBigEndianMatchesLittleEndian(t *testing.T) {
	payload := preambleFragment() + "\x1e" +
		`{"type":"clock-class","id":"clk","frequency":1000000000}`

	le := buildPacketizedStream(t, binary.LittleEndian, payload)
	be := buildPacketizedStream(t, binary.BigEndian, payload)

	pLE := NewJsonSchemaParser()
	mLE, err := pLE.ParsePacketized(le)
	require.NoError(t, err)

	pBE := NewJsonSchemaParser()
	mBE, err := pBE.ParsePacketized(be)
	require.NoError(t, err)

	require.Equal(t, mLE.Preamble().Version, mBE.Preamble().Version)
	ccLE, err := mLE.ClockClassByID("clk")
	require.NoError(t, err)
	ccBE, err := mBE.ClockClassByID("clk")
	require.NoError(t, err)
	require.Equal(t, ccLE.Frequency, ccBE.Frequency)
}

func TestParsePacketizedFragmentSpansTwoPackets(t *testing.T) {
	full := preambleFragment() + "\x1e" + `{"type":"clock-class","id":"clk","frequency":1000000000}`
	split := len(preambleFragment()) + 1 + 10 // split mid-way through the second fragment
	stream := buildPacketizedStream(t, binary.LittleEndian, full[:split], full[split:])

	p := NewJsonSchemaParser()
	m, err := p.ParsePacketized(stream)
	require.NoError(t, err)

	cc, err := m.ClockClassByID("clk")
	require.NoError(t, err)
	require.EqualValues(t, 1000000000, cc.Frequency)
}

func TestReadPmetaHeaderRejectsBadMagic(t *testing.T) {
	buf := make([]byte, pmetaHeaderBytes)
	_, err := readPmetaHeader(buf)
	require.ErrorIs(t, err, errs.ErrMagicMismatch)
}

func TestReadPmetaHeaderRejectsWrongHeaderSize(t *testing.T) {
	buf := make([]byte, pmetaHeaderBytes)
	binary.LittleEndian.PutUint32(buf[0:4], pmetaMagic)
	binary.LittleEndian.PutUint32(buf[24:28], pmetaHeaderBits)
	binary.LittleEndian.PutUint32(buf[28:32], pmetaHeaderBits)
	buf[35] = pmetaMajor
	buf[36] = pmetaMinor
	binary.LittleEndian.PutUint32(buf[40:44], 128)

	_, err := readPmetaHeader(buf)
	require.ErrorIs(t, err, errs.ErrInvalidMetadataPacket)
}

func TestReadPmetaHeaderRejectsNonZeroCompression(t *testing.T) {
	buf := make([]byte, pmetaHeaderBytes)
	binary.LittleEndian.PutUint32(buf[0:4], pmetaMagic)
	binary.LittleEndian.PutUint32(buf[24:28], pmetaHeaderBits)
	binary.LittleEndian.PutUint32(buf[28:32], pmetaHeaderBits)
	buf[32] = 1
	buf[35] = pmetaMajor
	buf[36] = pmetaMinor
	binary.LittleEndian.PutUint32(buf[40:44], pmetaHeaderBits)

	_, err := readPmetaHeader(buf)
	require.ErrorIs(t, err, errs.ErrInvalidMetadataPacket)
}
