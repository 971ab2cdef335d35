package main

import (
	"context"
	"errors"
	"math"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"

	"cryptocrawler.com/internal/app"
	"cryptocrawler.com/internal/bridge"
	"cryptocrawler.com/pkg/bootstrap"
	"cryptocrawler.com/pkg/logger"
	"cryptocrawler.com/pkg/safe"
	"cryptocrawler.com/pkg/xerr"
)

const service = "libcrawler"

var (
	initOnce sync.Once
	crawler  *bridge.Crawler
	initErr  error

	// Seams for tests.
	lookup = instance
	fatal  = logger.Fatal
)

// instance wires the crawler on first use. Hosts never call an init
// function, so configuration is read lazily from the environment.
func instance() (*bridge.Crawler, error) {
	initOnce.Do(func() {
		crawler, initErr = open(os.Getenv("CRAWLER_CONFIG"))
	})
	return crawler, initErr
}

// open builds the crawler from the config at path. A configured metrics.addr
// gets the admin server for the life of the process.
func open(path string) (*bridge.Crawler, error) {
	ctx := context.Background()
	cfg, err := app.LoadConfig(path)
	if err != nil {
		logger.Error(ctx, "load config", zap.Error(err))
		return nil, err
	}
	a, err := app.New(ctx, service, cfg)
	if err != nil {
		logger.Error(ctx, "init crawler", zap.Error(err))
		return nil, err
	}
	if cfg.Metrics.Addr != "" {
		safe.GoCtx(ctx, func(ctx context.Context) {
			if err := bootstrap.ServeAdmin(ctx, cfg.Metrics); err != nil {
				logger.Error(ctx, "admin server", zap.String("addr", cfg.Metrics.Addr), zap.Error(err))
			}
		})
	}
	return a.Crawler, nil
}

// seconds converts a C duration; values past what time.Duration holds are
// treated as no limit.
func seconds(s uint64) time.Duration {
	if s > uint64(math.MaxInt64/int64(time.Second)) {
		return 0
	}
	return time.Duration(s) * time.Second
}

// finish reports the outcome of one entrypoint. Argument violations are a
// broken caller contract and end the process; everything else was already
// logged by the bridge and the call simply returns.
func finish(name string, err error) {
	if err == nil {
		return
	}
	if isContractBreach(err) {
		fatal(context.Background(), "caller contract violated",
			zap.String("call", name),
			zap.Error(err),
		)
	}
}

func isContractBreach(err error) bool {
	return errors.Is(err, xerr.NewErrCode(xerr.InvalidArgument))
}
