package metadata

import (
	"sync"

	"github.com/nilsaberg/actf2/internal/fingerprint"
)

// ModelCache memoizes parsed Models by the fingerprint of their raw
// fragment-stream bytes, so a directory reader that constructs one Decoder
// per data stream parses a trace's shared metadata file only once. Safe for
// concurrent use.
type ModelCache struct {
	mu     sync.Mutex
	models map[uint64]*Model
}

// NewModelCache returns an empty cache.
func NewModelCache() *ModelCache {
	return &ModelCache{models: make(map[uint64]*Model)}
}

// ParseCached returns the Model parsed from buf's RS-separated fragment
// stream, parsing and caching it on the first call for a given byte-for-byte
// content and returning the cached Model on every later call.
func (c *ModelCache) ParseCached(buf []byte) (*Model, error) {
	id := fingerprint.Of(buf)

	c.mu.Lock()
	m, ok := c.models[id]
	c.mu.Unlock()
	if ok {
		return m, nil
	}

	m, err := NewJsonSchemaParser().ParseFragments(buf)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.models[id] = m
	c.mu.Unlock()

	return m, nil
}
