package merger

import "github.com/nilsaberg/actf2/internal/options"

// defaultBufSize is the number of events fetched from each source per
// refill, mirroring decoder's own default event batch capacity.
const defaultBufSize = 64

// Config holds Merger construction parameters.
type Config struct {
	bufSize int
}

func defaultConfig() *Config {
	return &Config{bufSize: defaultBufSize}
}

// Option configures a Merger at construction time.
type Option = options.Option[*Config]

// WithSourceBufferSize sets the number of events buffered per source on
// each refill. The default is 64.
func WithSourceBufferSize(n int) Option {
	return options.New(func(c *Config) error {
		return c.setBufSize(n)
	})
}

func (c *Config) setBufSize(n int) error {
	if n <= 0 {
		return errInvalidBufSize
	}
	c.bufSize = n

	return nil
}
