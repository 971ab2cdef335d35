package publish

import (
	"context"

	"github.com/nats-io/nats.go"

	"cryptocrawler.com/internal/engine/natsfeed"
)

type NatsBroker struct {
	nc     *nats.Conn
	prefix string
}

func NewNatsBroker(cfg natsfeed.Config, opts ...nats.Option) (*NatsBroker, error) {
	if cfg.URL == "" {
		cfg.URL = nats.DefaultURL
	}
	if cfg.SubjectPrefix == "" {
		cfg.SubjectPrefix = "crawler"
	}
	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, err
	}
	return &NatsBroker{nc: nc, prefix: cfg.SubjectPrefix}, nil
}

func (b *NatsBroker) Name() string { return "nats" }

func (b *NatsBroker) Publish(_ context.Context, topic string, payload []byte) error {
	return b.nc.Publish(natsfeed.Subject(b.prefix, topic), payload)
}

// Close flushes what is buffered before closing.
func (b *NatsBroker) Close() error {
	if b.nc == nil {
		return nil
	}
	err := b.nc.Flush()
	b.nc.Close()
	return err
}
