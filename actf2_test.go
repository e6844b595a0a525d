package actf2

import (
	"testing"

	"github.com/nilsaberg/actf2/event"
	"github.com/stretchr/testify/require"
)

// fakeGen is a minimal in-memory event.Generator used to exercise the
// top-level wrappers without a real binary trace stream.
type fakeGen struct {
	events []event.Event
	pos    int
	err    error
}

func newFakeGen(tstamps ...int64) *fakeGen {
	evs := make([]event.Event, len(tstamps))
	for i, ts := range tstamps {
		evs[i] = event.Event{TimestampNs: ts}
	}

	return &fakeGen{events: evs}
}

func (g *fakeGen) Generate(out []event.Event) (int, event.Status) {
	if g.err != nil {
		return 0, event.StatusError
	}

	n := 0
	for n < len(out) && g.pos < len(g.events) {
		out[n] = g.events[g.pos]
		g.pos++
		n++
	}

	return n, event.StatusOK
}

func (g *fakeGen) SeekNsFromOrigin(tstampNs int64) event.Status {
	g.err = nil
	g.pos = 0
	for g.pos < len(g.events) && g.events[g.pos].TimestampNs < tstampNs {
		g.pos++
	}

	return event.StatusOK
}

func (g *fakeGen) LastError() error { return g.err }

func drain(t *testing.T, g Generator, batch int) []Event {
	t.Helper()

	var all []Event
	buf := make([]Event, batch)
	for {
		n, status := g.Generate(buf)
		require.Equal(t, StatusOK, status, "LastError: %v", g.LastError())
		all = append(all, buf[:n]...)
		if n == 0 {
			break
		}
	}

	return all
}

func timestamps(evs []Event) []int64 {
	ts := make([]int64, len(evs))
	for i, e := range evs {
		ts[i] = e.TimestampNs
	}

	return ts
}

func TestNewMergerWiresSources(t *testing.T) {
	a := newFakeGen(1, 3, 5)
	b := newFakeGen(2, 4, 6)

	m, err := NewMerger([]Generator{a, b})
	require.NoError(t, err)

	all := drain(t, m, 2)
	require.Equal(t, []int64{1, 2, 3, 4, 5, 6}, timestamps(all))
}

func TestNewRangeFilterAbsoluteBounds(t *testing.T) {
	src := newFakeGen(1, 2, 3, 4, 5)

	f := NewRangeFilter(src, AbsoluteBound(2), AbsoluteBound(4))

	all := drain(t, f, 10)
	require.Equal(t, []int64{2, 3, 4}, timestamps(all))
}

func TestTimeOfDayBoundInfersDate(t *testing.T) {
	const day = int64(86400_000_000_000)
	src := newFakeGen(day+100, day+200, day+300)

	f := NewRangeFilter(src, TimeOfDayBound(150), TimeOfDayBound(250))

	all := drain(t, f, 10)
	require.Equal(t, []int64{day + 200}, timestamps(all))
}

func TestParseMetadataRejectsGarbage(t *testing.T) {
	_, err := ParseMetadata([]byte("not a valid metadata stream"))
	require.Error(t, err)
}

func TestParsePacketizedMetadataRejectsGarbage(t *testing.T) {
	_, err := ParsePacketizedMetadata([]byte{0x00, 0x01, 0x02})
	require.Error(t, err)
}
