package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"cryptocrawler.com/internal/bridge"
	"cryptocrawler.com/internal/engine"
	"cryptocrawler.com/internal/market"
	"cryptocrawler.com/pkg/logger"
	"cryptocrawler.com/pkg/xerr"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	c, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "nats", c.Engine.Driver)
	assert.Equal(t, 1024, c.Bridge.InitialCapacity)
	assert.Equal(t, 0, c.Bridge.MaxPending)
	assert.Equal(t, 300*time.Millisecond, c.Engine.Reconnect.BaseBackoff)
	assert.EqualValues(t, 5, c.Engine.Reconnect.MaxFailures)
	assert.Equal(t, "127.0.0.1:6379", c.Engine.Redis.Addr)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("CRAWLER_ENGINE_DRIVER", "replay")
	t.Setenv("CRAWLER_BRIDGE_MAX_PENDING", "256")

	c, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "replay", c.Engine.Driver)
	assert.Equal(t, 256, c.Bridge.MaxPending)
}

func TestWatchConfig_ReloadsLogLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "crawler.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log:\n  level: info\nengine:\n  driver: replay\n"), 0o644))
	require.NoError(t, logger.SetLevel("info"))
	t.Cleanup(func() { _ = logger.SetLevel("info") })

	c, err := WatchConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "info", c.Log.Level)
	assert.Equal(t, "replay", c.Engine.Driver)

	require.NoError(t, os.WriteFile(path, []byte("log:\n  level: debug\nengine:\n  driver: replay\n"), 0o644))
	assert.Eventually(t, func() bool { return logger.Level() == zap.DebugLevel }, 5*time.Second, 10*time.Millisecond)
	assert.Equal(t, "info", c.Log.Level, "the returned config is a snapshot")
}

func TestNewTransport(t *testing.T) {
	for _, driver := range []string{"nats", "redis", "ws", "WebSocket"} {
		tr, closeT, err := NewTransport(EngineConfig{Driver: driver})
		require.NoError(t, err, driver)
		assert.NotEmpty(t, tr.Name())
		_ = closeT()
	}

	_, _, err := NewTransport(EngineConfig{Driver: "kafka"})
	assert.Equal(t, xerr.UnknownEngine, xerr.CodeOf(err))

	_, _, err = NewTransport(EngineConfig{Driver: "replay"})
	assert.Equal(t, xerr.InvalidArgument, xerr.CodeOf(err))
}

func TestNew_ReplayEndToEnd(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "capture.jsonl")
	var lines []byte
	for i, sym := range []string{"BTC_USD", "DOGE_USD", "ETH_USD"} {
		b, err := engine.EncodeEnvelope(engine.Envelope{
			Exchange: "foo", MarketType: market.Spot, MsgType: market.Trade,
			Symbol: sym, ReceivedAt: uint64(i + 1), JSON: `{"s":"` + sym + `"}`,
		})
		require.NoError(t, err)
		lines = append(append(lines, b...), '\n')
	}
	require.NoError(t, os.WriteFile(path, lines, 0o644))

	t.Chdir(dir)
	c, err := LoadConfig("")
	require.NoError(t, err)
	c.Engine.Driver = "replay"
	c.Engine.Replay.Path = path
	c.Log.Level = "error"

	a, err := New(context.Background(), "crawler-test", c)
	require.NoError(t, err)
	defer a.Close()

	var got []string
	res, err := a.Crawler.CrawlTrade(context.Background(), "foo", market.Spot, []string{"BTC_USD", "ETH_USD"}, 0,
		func(r *bridge.Record) { got = append(got, string(r.JSON)) })
	require.NoError(t, err)
	assert.EqualValues(t, 2, res.Delivered)
	assert.Equal(t, []string{`{"s":"BTC_USD"}`, `{"s":"ETH_USD"}`}, got)
}
