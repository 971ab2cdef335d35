package bridge

import (
	"context"
	"time"

	"cryptocrawler.com/internal/engine"
	"cryptocrawler.com/internal/market"
	"cryptocrawler.com/pkg/logger"
	"cryptocrawler.com/pkg/xerr"

	"go.uber.org/zap"
)

type Config struct {
	InitialCapacity int `mapstructure:"initial_capacity"`
	MaxPending      int `mapstructure:"max_pending"`
}

// Crawler binds an engine to the bridge. It is safe for concurrent use;
// every call gets its own channel and delivery goroutine.
type Crawler struct {
	eng engine.Engine
	cfg Config
}

func New(eng engine.Engine, cfg Config) *Crawler {
	return &Crawler{eng: eng, cfg: cfg}
}

func (c *Crawler) Engine() engine.Engine { return c.eng }

func (c *Crawler) options(p *Params) Options {
	return Options{
		Feed:            p.Feed.String(),
		Duration:        p.Duration,
		InitialCapacity: c.cfg.InitialCapacity,
		MaxPending:      c.cfg.MaxPending,
	}
}

func invalid(ctx context.Context, p *Params, err error) (Result, error) {
	logger.Error(ctx, "invalid call arguments",
		zap.String("feed", p.Feed.String()),
		zap.String("exchange", p.Exchange),
		zap.Error(err),
	)
	return Result{}, err
}

// CrawlWith runs a crawl feed and hands every message to cb as built by b.
func CrawlWith[V any](ctx context.Context, c *Crawler, p Params, b Builder[market.Message, V], cb func(V)) (Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if p.Feed == market.FeedSubscribe {
		return invalid(ctx, &p, xerr.New(xerr.InvalidArgument, "subscribe is not a crawl feed"))
	}
	if err := p.Validate(); err != nil {
		return invalid(ctx, &p, err)
	}
	req := p.request()
	call := func(ctx context.Context, out engine.Sink[market.Message]) error {
		return c.eng.Crawl(ctx, req, out)
	}
	return Run(ctx, c.options(&p), call, b, cb)
}

// SubscribeWith runs a subscription and hands every JSON text to cb as built
// by b.
func SubscribeWith[V any](ctx context.Context, c *Crawler, p Params, b Builder[string, V], cb func(V)) (Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	p.Feed = market.FeedSubscribe
	if err := p.Validate(); err != nil {
		return invalid(ctx, &p, err)
	}
	req := p.subscribeRequest()
	call := func(ctx context.Context, out engine.Sink[string]) error {
		return c.eng.Subscribe(ctx, req, out)
	}
	return Run(ctx, c.options(&p), call, b, cb)
}

// RecordFunc receives one message. The record and its byte slices are
// reused after the function returns.
type RecordFunc func(*Record)

func (c *Crawler) crawl(ctx context.Context, feed market.Feed, exchange string, mt market.MarketType, symbols []string, d time.Duration, cb RecordFunc) (Result, error) {
	return CrawlWith[*Record](ctx, c, Params{
		Feed:       feed,
		Exchange:   exchange,
		MarketType: mt,
		Symbols:    symbols,
		Duration:   d,
	}, RecordBuilder{}, cb)
}

func (c *Crawler) CrawlTrade(ctx context.Context, exchange string, mt market.MarketType, symbols []string, d time.Duration, cb RecordFunc) (Result, error) {
	return c.crawl(ctx, market.FeedTrade, exchange, mt, symbols, d, cb)
}

func (c *Crawler) CrawlL2Event(ctx context.Context, exchange string, mt market.MarketType, symbols []string, d time.Duration, cb RecordFunc) (Result, error) {
	return c.crawl(ctx, market.FeedL2Event, exchange, mt, symbols, d, cb)
}

func (c *Crawler) CrawlL3Event(ctx context.Context, exchange string, mt market.MarketType, symbols []string, d time.Duration, cb RecordFunc) (Result, error) {
	return c.crawl(ctx, market.FeedL3Event, exchange, mt, symbols, d, cb)
}

func (c *Crawler) CrawlBBO(ctx context.Context, exchange string, mt market.MarketType, symbols []string, d time.Duration, cb RecordFunc) (Result, error) {
	return c.crawl(ctx, market.FeedBBO, exchange, mt, symbols, d, cb)
}

func (c *Crawler) CrawlL2TopK(ctx context.Context, exchange string, mt market.MarketType, symbols []string, d time.Duration, cb RecordFunc) (Result, error) {
	return c.crawl(ctx, market.FeedL2TopK, exchange, mt, symbols, d, cb)
}

func (c *Crawler) CrawlTicker(ctx context.Context, exchange string, mt market.MarketType, symbols []string, d time.Duration, cb RecordFunc) (Result, error) {
	return c.crawl(ctx, market.FeedTicker, exchange, mt, symbols, d, cb)
}

func (c *Crawler) CrawlFundingRate(ctx context.Context, exchange string, mt market.MarketType, symbols []string, d time.Duration, cb RecordFunc) (Result, error) {
	return c.crawl(ctx, market.FeedFundingRate, exchange, mt, symbols, d, cb)
}

// CrawlL2Snapshot polls order book snapshots every interval; 0 picks the
// engine default.
func (c *Crawler) CrawlL2Snapshot(ctx context.Context, exchange string, mt market.MarketType, symbols []string, interval, d time.Duration, cb RecordFunc) (Result, error) {
	return CrawlWith[*Record](ctx, c, Params{
		Feed: market.FeedL2Snapshot, Exchange: exchange, MarketType: mt,
		Symbols: symbols, Interval: interval, Duration: d,
	}, RecordBuilder{}, cb)
}

func (c *Crawler) CrawlL3Snapshot(ctx context.Context, exchange string, mt market.MarketType, symbols []string, interval, d time.Duration, cb RecordFunc) (Result, error) {
	return CrawlWith[*Record](ctx, c, Params{
		Feed: market.FeedL3Snapshot, Exchange: exchange, MarketType: mt,
		Symbols: symbols, Interval: interval, Duration: d,
	}, RecordBuilder{}, cb)
}

// CrawlCandlestick pairs symbols[i] with intervals[i] (seconds). No symbols
// means every symbol at every interval.
func (c *Crawler) CrawlCandlestick(ctx context.Context, exchange string, mt market.MarketType, symbols []string, intervals []uint32, d time.Duration, cb RecordFunc) (Result, error) {
	p := Params{Feed: market.FeedCandlestick, Exchange: exchange, MarketType: mt, Duration: d}
	pairs, err := ZipIntervals(symbols, intervals)
	if err != nil {
		return invalid(ctx, &p, err)
	}
	p.Pairs = pairs
	return CrawlWith[*Record](ctx, c, p, RecordBuilder{}, cb)
}

// CrawlOpenInterest covers every instrument of mt.
func (c *Crawler) CrawlOpenInterest(ctx context.Context, exchange string, mt market.MarketType, d time.Duration, cb RecordFunc) (Result, error) {
	return c.crawl(ctx, market.FeedOpenInterest, exchange, mt, nil, d, cb)
}

// SubscribeSymbol streams the given kinds of one symbol as JSON text. No
// kinds means every kind.
func (c *Crawler) SubscribeSymbol(ctx context.Context, exchange string, mt market.MarketType, symbol string, kinds []market.MessageType, d time.Duration, cb func(string)) (Result, error) {
	return SubscribeWith[string](ctx, c, Params{
		Exchange:   exchange,
		MarketType: mt,
		Symbol:     symbol,
		MsgTypes:   kinds,
		Duration:   d,
	}, TextBuilder{}, cb)
}
