package decoder

import "github.com/nilsaberg/actf2/internal/options"

// defaultArenaHint is the initial Field capacity a Decoder's Tree is sized
// for, ported from original_source/decoder.c's pkt_arena default capacity
// (16 fields' worth), before WithPacketArenaHint can grow it for
// wider-than-usual packets.
const defaultArenaHint = 16

// defaultEventBatchCapacity mirrors original_source/decoder.c's
// ACTF_DEFAULT_EVS_CAP: the number of events a single Generate call fills
// by default.
const defaultEventBatchCapacity = 64

// Config holds Decoder construction parameters.
type Config struct {
	batchSize int
	arenaHint int
}

func defaultConfig() *Config {
	return &Config{batchSize: defaultEventBatchCapacity, arenaHint: defaultArenaHint}
}

// Option configures a Decoder at construction time.
type Option = options.Option[*Config]

// WithEventBatchCapacity sets the number of events a single Generate call
// fills at most. The default is 64.
func WithEventBatchCapacity(n int) Option {
	return options.New(func(c *Config) error {
		return c.setBatchSize(n)
	})
}

func (c *Config) setBatchSize(n int) error {
	if n <= 0 {
		return errInvalidBatchSize
	}
	c.batchSize = n

	return nil
}

// WithPacketArenaHint sets the initial Field capacity the Decoder's Tree is
// allocated with, as a hint to avoid early reallocation for packets known to
// carry many fields. The default is 16.
func WithPacketArenaHint(n int) Option {
	return options.New(func(c *Config) error {
		return c.setArenaHint(n)
	})
}

func (c *Config) setArenaHint(n int) error {
	if n <= 0 {
		return errInvalidArenaHint
	}
	c.arenaHint = n

	return nil
}
