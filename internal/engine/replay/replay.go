package replay

import (
	"bufio"
	"bytes"
	"context"
	"os"

	"golang.org/x/time/rate"

	"cryptocrawler.com/internal/engine"
)

type Config struct {
	// Path is a file of envelopes, one JSON object per line.
	Path string `mapstructure:"path"`
	// Rate caps replay speed in envelopes per second; 0 replays as fast as
	// the consumer takes them.
	Rate float64 `mapstructure:"rate"`
	// MaxLine is the longest accepted line in bytes.
	MaxLine int `mapstructure:"max_line"`
}

// Transport replays a recorded capture. End of file is natural exhaustion,
// so a replayed crawl returns on its own even with duration 0.
type Transport struct {
	cfg Config
}

func New(cfg Config) *Transport {
	if cfg.MaxLine <= 0 {
		cfg.MaxLine = 4 << 20
	}
	return &Transport{cfg: cfg}
}

func (t *Transport) Name() string { return "replay" }

// Stream ignores topics; the relay filters every line anyway.
func (t *Transport) Stream(ctx context.Context, _ []string, emit func([]byte) error) error {
	f, err := os.Open(t.cfg.Path)
	if err != nil {
		return err
	}
	defer f.Close()
	engine.Connected(ctx)

	var limiter *rate.Limiter
	if t.cfg.Rate > 0 {
		limiter = rate.NewLimiter(rate.Limit(t.cfg.Rate), 1)
	}

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), t.cfg.MaxLine)
	for sc.Scan() {
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				// Wait fails early when the next slot is past the deadline.
				<-ctx.Done()
				return ctx.Err()
			}
		} else if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := emit(line); err != nil {
			return err
		}
	}
	return sc.Err()
}

var _ engine.Transport = (*Transport)(nil)
