package publish

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"cryptocrawler.com/internal/engine/redisfeed"
	"cryptocrawler.com/pkg/xredis"
)

type RedisBroker struct {
	rdb    *redis.Client
	prefix string
}

// NewRedisBroker connects and pings, so a wrong address fails before the
// first publish.
func NewRedisBroker(ctx context.Context, cfg redisfeed.Config) (*RedisBroker, error) {
	if cfg.ChannelPrefix == "" {
		cfg.ChannelPrefix = "crawler"
	}
	rdb := xredis.New(cfg.Config)
	if err := xredis.Ping(ctx, rdb, 3*time.Second); err != nil {
		_ = rdb.Close()
		return nil, err
	}
	return &RedisBroker{rdb: rdb, prefix: cfg.ChannelPrefix}, nil
}

func (b *RedisBroker) Name() string { return "redis" }

func (b *RedisBroker) Publish(ctx context.Context, topic string, payload []byte) error {
	return b.rdb.Publish(ctx, redisfeed.Channel(b.prefix, topic), payload).Err()
}

func (b *RedisBroker) Close() error { return b.rdb.Close() }
