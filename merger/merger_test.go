package merger

import (
	"errors"
	"testing"

	"github.com/nilsaberg/actf2/event"
	"github.com/nilsaberg/actf2/metadata"
	"github.com/stretchr/testify/require"
)

// fakeSource is a minimal in-memory event.Generator: a fixed slice of
// events, replayed from an internal cursor, used to exercise Merger's
// heap-ordering and pending/refill discipline without a real Decoder.
type fakeSource struct {
	events []event.Event
	pos    int
	err    error
	failAt int // emit an error once pos reaches failAt; -1 disables
}

// newFakeSource builds a source whose events carry tag as their Stream's ID,
// so a test can tell which source an event came from after merging.
func newFakeSource(tag uint64, tstamps ...int64) *fakeSource {
	stream := &metadata.DataStreamClass{ID: tag}
	evs := make([]event.Event, len(tstamps))
	for i, ts := range tstamps {
		evs[i] = event.Event{TimestampNs: ts, Stream: stream}
	}

	return &fakeSource{events: evs, failAt: -1}
}

func (s *fakeSource) Generate(out []event.Event) (int, event.Status) {
	if s.err != nil {
		return 0, event.StatusError
	}
	if s.failAt >= 0 && s.pos >= s.failAt {
		s.err = errors.New("fake source exhausted budget")

		return 0, event.StatusError
	}

	n := 0
	for n < len(out) && s.pos < len(s.events) {
		out[n] = s.events[s.pos]
		s.pos++
		n++
	}

	return n, event.StatusOK
}

func (s *fakeSource) SeekNsFromOrigin(tstampNs int64) event.Status {
	s.err = nil
	s.pos = 0
	for s.pos < len(s.events) && s.events[s.pos].TimestampNs < tstampNs {
		s.pos++
	}

	return event.StatusOK
}

func (s *fakeSource) LastError() error { return s.err }

func drain(t *testing.T, g event.Generator, batch int) []event.Event {
	t.Helper()

	var all []event.Event
	buf := make([]event.Event, batch)
	for {
		n, status := g.Generate(buf)
		require.Equal(t, event.StatusOK, status, "LastError: %v", g.LastError())
		all = append(all, buf[:n]...)
		if n == 0 {
			break
		}
	}

	return all
}

func timestamps(evs []event.Event) []int64 {
	ts := make([]int64, len(evs))
	for i, e := range evs {
		ts[i] = e.TimestampNs
	}

	return ts
}

func sourceTags(evs []event.Event) []uint64 {
	tags := make([]uint64, len(evs))
	for i, e := range evs {
		tags[i] = e.Stream.ID
	}

	return tags
}

func TestMergerOrdersAcrossSources(t *testing.T) {
	a := newFakeSource(0, 1, 4, 7, 10)
	b := newFakeSource(1, 2, 3, 8, 9)
	c := newFakeSource(2, 5, 6)

	m, err := New([]event.Generator{a, b, c}, WithSourceBufferSize(2))
	require.NoError(t, err)

	all := drain(t, m, 3)
	require.Equal(t, []int64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, timestamps(all))
}

func TestMergerStableTieBreakBySourceIndex(t *testing.T) {
	a := newFakeSource(0, 5, 5)
	b := newFakeSource(1, 5)

	m, err := New([]event.Generator{a, b})
	require.NoError(t, err)

	all := drain(t, m, 3)
	// Every event ties at ts=5; source 0 (a) must precede source 1 (b), and
	// a's own two events keep their relative order.
	require.Equal(t, []int64{5, 5, 5}, timestamps(all))
	require.Equal(t, []uint64{0, 0, 1}, sourceTags(all))
}

func TestMergerEmptySourcesRejected(t *testing.T) {
	_, err := New(nil)
	require.Error(t, err)
}

func TestMergerPendingRefillDoesNotCorruptCurrentBatch(t *testing.T) {
	// Source a drains after its first event within one Generate call (buffer
	// size 1); it must be marked pending and only refilled on the *next*
	// Generate call, not before this one returns, so b's timestamps already
	// ahead of a's stale buffer can't be skipped over.
	a := newFakeSource(0, 1, 100)
	b := newFakeSource(1, 2, 3, 4)

	m, err := New([]event.Generator{a, b}, WithSourceBufferSize(1))
	require.NoError(t, err)

	all := drain(t, m, 10)
	require.Equal(t, []int64{1, 2, 3, 4, 100}, timestamps(all))
}

func TestMergerSourceErrorPropagates(t *testing.T) {
	a := newFakeSource(0, 1, 2, 3)
	a.failAt = 1

	m, err := New([]event.Generator{a}, WithSourceBufferSize(1))
	require.NoError(t, err)

	buf := make([]event.Event, 4)
	n, status := m.Generate(buf)
	require.Equal(t, 1, n)
	require.Equal(t, event.StatusOK, status)

	n, status = m.Generate(buf)
	require.Equal(t, 0, n)
	require.Equal(t, event.StatusError, status)
	require.Error(t, m.LastError())
}

func TestMergerSeekPropagatesAndResetsHeap(t *testing.T) {
	a := newFakeSource(0, 1, 4, 7)
	b := newFakeSource(1, 2, 5, 8)

	m, err := New([]event.Generator{a, b})
	require.NoError(t, err)

	status := m.SeekNsFromOrigin(5)
	require.Equal(t, event.StatusOK, status)
	require.NoError(t, m.LastError())

	all := drain(t, m, 10)
	require.Equal(t, []int64{5, 7, 8}, timestamps(all))
}
