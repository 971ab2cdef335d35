package redisfeed

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"

	"cryptocrawler.com/internal/engine"
	"cryptocrawler.com/pkg/xredis"
)

type Config struct {
	xredis.Config `mapstructure:",squash"`
	// ChannelPrefix is prepended to every channel, e.g. "crawler".
	ChannelPrefix string `mapstructure:"channel_prefix"`
}

// Transport reads envelopes from Redis pub/sub channels
// "<prefix>:<exchange>:<market>:<msg>".
type Transport struct {
	cfg Config
	rdb *redis.Client
}

func New(cfg Config) *Transport {
	if cfg.ChannelPrefix == "" {
		cfg.ChannelPrefix = "crawler"
	}
	return &Transport{cfg: cfg, rdb: xredis.New(cfg.Config)}
}

func (t *Transport) Name() string { return "redis" }

func (t *Transport) Stream(ctx context.Context, topics []string, emit func([]byte) error) error {
	channels := make([]string, len(topics))
	for i, topic := range topics {
		channels[i] = Channel(t.cfg.ChannelPrefix, topic)
	}

	ps := t.rdb.Subscribe(ctx, channels...)
	defer ps.Close()

	// Wait for the subscription confirmation so a dead server fails here.
	if _, err := ps.Receive(ctx); err != nil {
		return err
	}
	engine.Connected(ctx)

	ch := ps.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case m, ok := <-ch:
			if !ok {
				return errors.New("redis pubsub channel closed")
			}
			if err := emit([]byte(m.Payload)); err != nil {
				return err
			}
		}
	}
}

func (t *Transport) Close() error { return t.rdb.Close() }

func Channel(prefix, topic string) string { return prefix + ":" + topic }

var _ engine.Transport = (*Transport)(nil)
