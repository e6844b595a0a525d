// Package merger implements a k-way time-ordered merge over independent
// event.Generator sources: a Decoder per data stream, typically, wired
// together by a directory reader.
package merger

import (
	"container/heap"
	"fmt"

	"github.com/nilsaberg/actf2/errs"
	"github.com/nilsaberg/actf2/event"
	"github.com/nilsaberg/actf2/internal/options"
)

var _ event.Generator = (*Merger)(nil)

// Merger k-way merges events from several sources into one
// ns-from-origin-ordered stream. It implements event.Generator.
//
// Each source owns one in-flight buffer, refilled via the source's own
// Generate. A source whose buffer drains mid-merge is marked pending rather
// than refilled in place: refilling would call the source's Generate again,
// which invalidates that source's previously-returned events (shared
// arenas), and some of those events may already sit in the caller's out
// slice from earlier in the same Generate call. Pending sources are refilled at
// the start of the next Generate call instead, before anything is merged.
type Merger struct {
	sources []event.Generator
	bufs    [][]event.Event // per-source in-flight buffer
	n       []int           // valid length of bufs[i]
	pos     []int           // next unread index into bufs[i]
	pending []bool
	done    []bool // source returned zero events on its last refill

	h       sourceHeap
	lastErr error
	cfg     *Config
}

// New wires sources into a k-way time-ordered merge. sources must be
// non-empty; each is primed with one buffer's worth of events immediately.
func New(sources []event.Generator, opts ...Option) (*Merger, error) {
	if len(sources) == 0 {
		return nil, errEmptySources
	}

	cfg := defaultConfig()
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, err
	}

	m := &Merger{
		sources: sources,
		bufs:    make([][]event.Event, len(sources)),
		n:       make([]int, len(sources)),
		pos:     make([]int, len(sources)),
		pending: make([]bool, len(sources)),
		done:    make([]bool, len(sources)),
	}
	for i := range sources {
		m.bufs[i] = make([]event.Event, cfg.bufSize)
		m.pending[i] = true
	}

	if err := m.refillPending(); err != nil {
		return nil, err
	}

	return m, nil
}

// Generate fills out with up to len(out) events in non-decreasing
// ns-from-origin order, popping from a min-heap keyed by (timestamp, source
// index) so ties break stably toward the lower source index.
//
// As soon as popping an event drains its source's buffer, that source's true
// next value is unknown (its next batch might sort earlier than anything
// currently in the heap), so this call stops right there rather than risk
// emitting a later event ahead of it: the source is marked pending and
// refilled at the start of the next Generate call, before merging resumes.
func (m *Merger) Generate(out []event.Event) (int, event.Status) {
	if m.lastErr != nil {
		return 0, event.StatusError
	}

	if err := m.refillPending(); err != nil {
		m.lastErr = err

		return 0, event.StatusError
	}

	n := 0
	for n < len(out) && m.h.Len() > 0 {
		it := heap.Pop(&m.h).(heapItem)
		src := it.src

		out[n] = m.bufs[src][m.pos[src]]
		n++
		m.pos[src]++

		if m.pos[src] < m.n[src] {
			heap.Push(&m.h, heapItem{ts: m.bufs[src][m.pos[src]].TimestampNs, src: src})

			continue
		}

		m.pending[src] = true

		break
	}

	return n, event.StatusOK
}

// refillPending calls Generate on every source marked pending (including,
// at construction, every source), pushing its first event into the heap if
// it yielded any. A source whose refill yields zero events is end-of-stream
// and marked done: it is never queried again (unless a later Seek revives
// it).
func (m *Merger) refillPending() error {
	for i, p := range m.pending {
		if !p || m.done[i] {
			m.pending[i] = false

			continue
		}

		src := m.sources[i]
		n, status := src.Generate(m.bufs[i])
		if status == event.StatusError {
			return fmt.Errorf("merger: source %d: %w", i, src.LastError())
		}

		m.n[i] = n
		m.pos[i] = 0
		m.pending[i] = false

		if n > 0 {
			heap.Push(&m.h, heapItem{ts: m.bufs[i][0].TimestampNs, src: i})
		} else {
			m.done[i] = true
		}
	}

	return nil
}

// SeekNsFromOrigin propagates the seek to every source and resets the heap,
// so the next Generate call resumes merging from scratch at the new
// position.
func (m *Merger) SeekNsFromOrigin(tstampNs int64) event.Status {
	m.lastErr = nil
	m.h = m.h[:0]

	for i, src := range m.sources {
		if status := src.SeekNsFromOrigin(tstampNs); status == event.StatusError {
			m.lastErr = fmt.Errorf("merger: source %d: %w", i, src.LastError())

			return event.StatusError
		}
		m.pending[i] = true
		m.done[i] = false
		m.n[i] = 0
		m.pos[i] = 0
	}

	if err := m.refillPending(); err != nil {
		m.lastErr = err

		return event.StatusError
	}

	return event.StatusOK
}

// LastError returns the most recently latched error, or nil.
func (m *Merger) LastError() error { return m.lastErr }

var errEmptySources = errs.New(errs.KindInvalidRange, "merger requires at least one source")

var errInvalidBufSize = errs.New(errs.KindInvalidRange, "source buffer size must be > 0")

// heapItem is one source's next unmerged event, keyed for container/heap.
type heapItem struct {
	ts  int64
	src int
}

// sourceHeap is a container/heap.Interface over heapItem, ordered by
// timestamp and, on ties, by ascending source index (spec.md §5: "ties
// broken arbitrarily but stably by source index").
type sourceHeap []heapItem

func (h sourceHeap) Len() int { return len(h) }
func (h sourceHeap) Less(i, j int) bool {
	if h[i].ts != h[j].ts {
		return h[i].ts < h[j].ts
	}

	return h[i].src < h[j].src
}
func (h sourceHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *sourceHeap) Push(x any) {
	*h = append(*h, x.(heapItem))
}

func (h *sourceHeap) Pop() any {
	old := *h
	n := len(old)
	it := old[n-1]
	*h = old[:n-1]

	return it
}
