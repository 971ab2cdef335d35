// Command crawlerfeed publishes a recorded capture onto NATS or Redis so
// crawlers configured with the matching driver can consume it.
//
//	crawlerfeed -capture btc.jsonl -broker nats -rate 500
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"cryptocrawler.com/internal/app"
	"cryptocrawler.com/internal/engine/replay"
	"cryptocrawler.com/internal/publish"
	"cryptocrawler.com/pkg/logger"
	"cryptocrawler.com/pkg/xerr"
)

func main() {
	var (
		configPath = flag.String("config", "", "config file (default config/crawler.yaml)")
		capture    = flag.String("capture", "", "JSON lines capture to publish")
		brokerName = flag.String("broker", "", "nats or redis (default engine.driver)")
		ratePerSec = flag.Float64("rate", 0, "envelopes per second, 0 = as fast as possible")
	)
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(2)
	}
	logger.InitWithFile("crawlerfeed", cfg.Log.Level, cfg.Log.File)
	defer logger.Sync()

	if *capture == "" {
		flag.Usage()
		os.Exit(2)
	}
	name := *brokerName
	if name == "" {
		name = cfg.Engine.Driver
	}

	broker, err := newBroker(ctx, name, cfg.Engine)
	if err != nil {
		logger.Fatal(ctx, "broker", zap.String("broker", name), zap.Error(err))
	}
	defer broker.Close()

	src := replay.New(replay.Config{Path: *capture, Rate: *ratePerSec, MaxLine: cfg.Engine.Replay.MaxLine})
	if _, err := publish.Pump(ctx, src, broker); err != nil && ctx.Err() == nil {
		logger.Error(ctx, "publish failed", zap.Error(err))
		broker.Close()
		logger.Sync()
		os.Exit(1)
	}
}

func newBroker(ctx context.Context, name string, c app.EngineConfig) (publish.Broker, error) {
	switch name {
	case "nats":
		return publish.NewNatsBroker(c.NATS)
	case "redis":
		return publish.NewRedisBroker(ctx, c.Redis)
	default:
		return nil, xerr.Newf(xerr.UnknownEngine, "cannot publish to %q", name)
	}
}
