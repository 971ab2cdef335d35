package app

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"cryptocrawler.com/internal/bridge"
	"cryptocrawler.com/internal/engine"
	"cryptocrawler.com/internal/engine/natsfeed"
	"cryptocrawler.com/internal/engine/redisfeed"
	"cryptocrawler.com/internal/engine/replay"
	"cryptocrawler.com/internal/engine/wsfeed"
	"cryptocrawler.com/pkg/logger"
	"cryptocrawler.com/pkg/trace"
	"cryptocrawler.com/pkg/xerr"
)

// App is a configured crawler plus what must be released with it.
type App struct {
	Config  *Config
	Crawler *bridge.Crawler

	closers []func() error
}

// NewTransport builds the transport named by c.Driver.
func NewTransport(c EngineConfig) (engine.Transport, func() error, error) {
	noop := func() error { return nil }
	switch strings.ToLower(c.Driver) {
	case "nats":
		return natsfeed.New(c.NATS), noop, nil
	case "redis":
		t := redisfeed.New(c.Redis)
		return t, t.Close, nil
	case "ws", "websocket":
		return wsfeed.New(c.WS), noop, nil
	case "replay":
		if c.Replay.Path == "" {
			return nil, nil, xerr.New(xerr.InvalidArgument, "engine.replay.path is empty")
		}
		return replay.New(c.Replay), noop, nil
	default:
		return nil, nil, xerr.Newf(xerr.UnknownEngine, "unknown engine driver %q", c.Driver)
	}
}

// New initializes logging and tracing, then wires the engine named by the
// config to a bridge.
func New(ctx context.Context, service string, c *Config) (*App, error) {
	logger.InitWithFile(service, c.Log.Level, c.Log.File)

	a := &App{Config: c}
	shutdown, err := trace.Init(ctx, service, c.Trace)
	if err != nil {
		logger.Warn(ctx, "tracing disabled", zap.Error(err))
	} else {
		a.closers = append(a.closers, func() error { return shutdown(context.Background()) })
	}

	t, closeT, err := NewTransport(c.Engine)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	a.closers = append(a.closers, closeT)
	a.Crawler = bridge.New(engine.NewRelay(t, c.Engine.Reconnect), c.Bridge)

	logger.Info(ctx, "crawler ready",
		zap.String("driver", t.Name()),
		zap.Int("max_pending", c.Bridge.MaxPending),
	)
	return a, nil
}

// Close releases transports and flushes spans and logs, in reverse order.
func (a *App) Close() error {
	var first error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	a.closers = nil
	logger.Sync()
	return first
}
