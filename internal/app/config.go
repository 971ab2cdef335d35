package app

import (
	"context"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"cryptocrawler.com/internal/bridge"
	"cryptocrawler.com/internal/engine"
	"cryptocrawler.com/internal/engine/natsfeed"
	"cryptocrawler.com/internal/engine/redisfeed"
	"cryptocrawler.com/internal/engine/replay"
	"cryptocrawler.com/internal/engine/wsfeed"
	"cryptocrawler.com/pkg/bootstrap"
	"cryptocrawler.com/pkg/config"
	"cryptocrawler.com/pkg/logger"
	"cryptocrawler.com/pkg/trace"
)

// EnvPrefix prefixes every environment override, e.g. CRAWLER_ENGINE_DRIVER.
const EnvPrefix = "CRAWLER"

type Config struct {
	Log     LogConfig             `mapstructure:"log"`
	Engine  EngineConfig          `mapstructure:"engine"`
	Bridge  bridge.Config         `mapstructure:"bridge"`
	Metrics bootstrap.AdminConfig `mapstructure:"metrics"`
	Trace   trace.Config          `mapstructure:"trace"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

type EngineConfig struct {
	// Driver selects the transport: nats, redis, ws or replay.
	Driver    string              `mapstructure:"driver"`
	NATS      natsfeed.Config     `mapstructure:"nats"`
	Redis     redisfeed.Config    `mapstructure:"redis"`
	WS        wsfeed.Config       `mapstructure:"ws"`
	Replay    replay.Config       `mapstructure:"replay"`
	Reconnect engine.RelayOptions `mapstructure:"reconnect"`
}

// NewViper returns a loader for config/crawler.yaml with every key given a
// default, so environment overrides apply even without a file.
func NewViper() *viper.Viper {
	v := config.New("crawler", EnvPrefix)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")

	v.SetDefault("engine.driver", "nats")
	v.SetDefault("engine.nats.url", "nats://127.0.0.1:4222")
	v.SetDefault("engine.nats.subject_prefix", "crawler")
	v.SetDefault("engine.nats.pending_msgs", 65536)
	v.SetDefault("engine.redis.addr", "127.0.0.1:6379")
	v.SetDefault("engine.redis.password", "")
	v.SetDefault("engine.redis.db", 0)
	v.SetDefault("engine.redis.channel_prefix", "crawler")
	v.SetDefault("engine.ws.url", "ws://127.0.0.1:8080/ws")
	v.SetDefault("engine.ws.read_limit", 1<<20)
	v.SetDefault("engine.ws.pong_wait", "60s")
	v.SetDefault("engine.ws.write_wait", "5s")
	v.SetDefault("engine.replay.path", "")
	v.SetDefault("engine.replay.rate", 0)
	v.SetDefault("engine.replay.max_line", 4<<20)
	v.SetDefault("engine.reconnect.base_backoff", "300ms")
	v.SetDefault("engine.reconnect.max_backoff", "5s")
	v.SetDefault("engine.reconnect.max_failures", 5)
	v.SetDefault("engine.reconnect.breaker_timeout", "30s")

	v.SetDefault("bridge.initial_capacity", 1024)
	v.SetDefault("bridge.max_pending", 0)

	v.SetDefault("metrics.addr", "")
	v.SetDefault("metrics.pprof", false)
	v.SetDefault("trace.endpoint", "")
	return v
}

// LoadConfig reads path (or config/crawler.yaml when empty) plus the
// environment.
func LoadConfig(path string) (*Config, error) {
	var c Config
	if err := config.Load(NewViper(), path, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// WatchConfig is LoadConfig for long-running hosts: edits to log.level in the
// file take effect without a restart. Other keys are read once.
func WatchConfig(path string) (*Config, error) {
	c, err := config.LoadAndWatch(NewViper(), path, func(next Config) {
		if err := logger.SetLevel(next.Log.Level); err != nil {
			logger.Warn(context.Background(), "ignoring log level", zap.String("level", next.Log.Level), zap.Error(err))
			return
		}
		logger.Info(context.Background(), "log level reloaded", zap.String("level", next.Log.Level))
	})
	if err != nil {
		return nil, err
	}
	return &c, nil
}
