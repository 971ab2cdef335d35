package wsfeed

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"cryptocrawler.com/internal/engine"
)

type Config struct {
	URL       string        `mapstructure:"url"` // e.g. ws://md-gateway:8080/ws
	ReadLimit int64         `mapstructure:"read_limit"`
	PongWait  time.Duration `mapstructure:"pong_wait"`
	WriteWait time.Duration `mapstructure:"write_wait"`
}

// SubscribeFrame is sent once after dialing.
type SubscribeFrame struct {
	Type   string   `json:"type"` // "sub"
	Topics []string `json:"topics"`
}

// Transport reads envelopes from a websocket gateway, one text frame per
// envelope.
type Transport struct {
	cfg    Config
	Dialer *websocket.Dialer
}

func New(cfg Config) *Transport {
	if cfg.ReadLimit <= 0 {
		cfg.ReadLimit = 1 << 20
	}
	if cfg.PongWait <= 0 {
		cfg.PongWait = 60 * time.Second
	}
	if cfg.WriteWait <= 0 {
		cfg.WriteWait = 5 * time.Second
	}
	return &Transport{cfg: cfg, Dialer: websocket.DefaultDialer}
}

func (t *Transport) Name() string { return "ws" }

// Stream is one connection lifetime; reconnects belong to the relay.
func (t *Transport) Stream(ctx context.Context, topics []string, emit func([]byte) error) error {
	c, _, err := t.Dialer.DialContext(ctx, t.cfg.URL, nil)
	if err != nil {
		return err
	}
	defer c.Close()

	// ReadMessage does not watch ctx; closing the conn unblocks it.
	stop := context.AfterFunc(ctx, func() { _ = c.Close() })
	defer stop()

	c.SetReadLimit(t.cfg.ReadLimit)
	_ = c.SetReadDeadline(time.Now().Add(t.cfg.PongWait))
	c.SetPongHandler(func(string) error {
		_ = c.SetReadDeadline(time.Now().Add(t.cfg.PongWait))
		return nil
	})

	var writeMu sync.Mutex
	c.SetPingHandler(func(appData string) error {
		writeMu.Lock()
		defer writeMu.Unlock()
		_ = c.SetReadDeadline(time.Now().Add(t.cfg.PongWait))
		return c.WriteControl(websocket.PongMessage, []byte(appData), time.Now().Add(t.cfg.WriteWait))
	})

	writeMu.Lock()
	_ = c.SetWriteDeadline(time.Now().Add(t.cfg.WriteWait))
	err = c.WriteJSON(SubscribeFrame{Type: "sub", Topics: topics})
	writeMu.Unlock()
	if err != nil {
		return err
	}
	engine.Connected(ctx)

	for {
		_, msg, err := c.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				// gateway finished the stream
				return nil
			}
			return err
		}
		if err := emit(msg); err != nil {
			return err
		}
	}
}

var _ engine.Transport = (*Transport)(nil)
