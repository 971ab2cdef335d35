// Command crawlerctl runs one crawl against the configured engine and prints
// every message as a JSON line.
//
//	crawlerctl -feed trade -exchange binance -market spot -symbols BTCUSDT,ETHUSDT -duration 10s
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"cryptocrawler.com/internal/app"
	"cryptocrawler.com/pkg/bootstrap"
	"cryptocrawler.com/pkg/logger"
	"cryptocrawler.com/pkg/xerr"
)

func main() {
	var (
		configPath = flag.String("config", "", "config file (default config/crawler.yaml)")
		metrics    = flag.String("metrics", "", "admin listen address, overrides metrics.addr")
		args       cliArgs
	)
	args.register(flag.CommandLine)
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := app.WatchConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(2)
	}
	if *metrics != "" {
		cfg.Metrics.Addr = *metrics
	}

	a, err := app.New(ctx, "crawlerctl", cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init: %v\n", err)
		os.Exit(2)
	}
	defer a.Close()

	p, err := args.params()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		flag.Usage()
		os.Exit(2)
	}

	out := newPrinter(os.Stdout)
	g, gctx := errgroup.WithContext(ctx)
	crawlCtx, crawlDone := context.WithCancel(gctx)

	g.Go(func() error {
		return bootstrap.ServeAdmin(crawlCtx, cfg.Metrics)
	})
	g.Go(func() error {
		defer crawlDone()
		res, err := run(gctx, a, p, out)
		logger.Info(gctx, "crawl done",
			zap.String("session", res.Session),
			zap.Int64("delivered", res.Delivered),
			zap.Duration("elapsed", res.Elapsed),
		)
		return err
	})

	err = g.Wait()
	if ferr := out.Flush(); ferr != nil && err == nil {
		err = ferr
	}
	if err != nil && ctx.Err() == nil {
		fmt.Fprintf(os.Stderr, "crawlerctl: %v\n", err)
		a.Close()
		os.Exit(exitCode(err))
	}
}

func exitCode(err error) int {
	switch xerr.CodeOf(err) {
	case xerr.InvalidArgument, xerr.UnknownEngine:
		return 2
	default:
		return 1
	}
}
