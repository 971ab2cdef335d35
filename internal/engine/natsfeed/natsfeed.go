package natsfeed

import (
	"context"
	"strings"

	"github.com/nats-io/nats.go"

	"cryptocrawler.com/internal/engine"
)

type Config struct {
	URL string `mapstructure:"url"`
	// SubjectPrefix is prepended to every subject, e.g. "crawler".
	SubjectPrefix string `mapstructure:"subject_prefix"`
	// PendingMsgs bounds the per-subscription buffer inside the client.
	PendingMsgs int `mapstructure:"pending_msgs"`
}

// Transport reads envelopes from NATS subjects "<prefix>.<exchange>.<market>.<msg>".
type Transport struct {
	cfg  Config
	opts []nats.Option
}

func New(cfg Config, opts ...nats.Option) *Transport {
	if cfg.URL == "" {
		cfg.URL = nats.DefaultURL
	}
	if cfg.SubjectPrefix == "" {
		cfg.SubjectPrefix = "crawler"
	}
	if cfg.PendingMsgs <= 0 {
		cfg.PendingMsgs = 65536
	}
	return &Transport{cfg: cfg, opts: opts}
}

func (t *Transport) Name() string { return "nats" }

// Stream opens one connection per call; the relay reconnects on error.
func (t *Transport) Stream(ctx context.Context, topics []string, emit func([]byte) error) error {
	nc, err := nats.Connect(t.cfg.URL, t.opts...)
	if err != nil {
		return err
	}
	defer nc.Close()

	// One channel for every subject keeps cross-subject arrival order.
	msgs := make(chan *nats.Msg, t.cfg.PendingMsgs)
	subs := make([]*nats.Subscription, 0, len(topics))
	defer func() {
		for _, s := range subs {
			_ = s.Unsubscribe()
		}
	}()
	for _, topic := range topics {
		sub, err := nc.ChanSubscribe(Subject(t.cfg.SubjectPrefix, topic), msgs)
		if err != nil {
			return err
		}
		subs = append(subs, sub)
	}
	if err := nc.Flush(); err != nil {
		return err
	}
	engine.Connected(ctx)

	closed := make(chan struct{})
	nc.SetClosedHandler(func(*nats.Conn) { close(closed) })

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-closed:
			return nats.ErrConnectionClosed
		case m := <-msgs:
			if err := emit(m.Data); err != nil {
				return err
			}
		}
	}
}

// Subject maps a relay topic ("binance:spot:trade") onto a NATS subject.
func Subject(prefix, topic string) string {
	return prefix + "." + strings.ReplaceAll(topic, ":", ".")
}

var _ engine.Transport = (*Transport)(nil)
