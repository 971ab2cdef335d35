package engine

import (
	"context"
	"time"

	"cryptocrawler.com/internal/market"
)

// Sink is the producer side of the bridge channel.
type Sink[T any] interface {
	Send(T) bool
}

// Request describes one crawl.
type Request struct {
	Feed       market.Feed
	Exchange   string
	MarketType market.MarketType

	// Symbols filters by symbol; empty means every symbol of MarketType.
	Symbols []string
	// Pairs filters candlesticks by (symbol, interval); empty means all.
	Pairs []market.SymbolInterval
	// Interval is the polling interval of snapshot feeds; 0 picks the
	// engine default.
	Interval time.Duration
}

// SubscribeRequest streams several message kinds of one symbol as
// pre-serialized JSON text.
type SubscribeRequest struct {
	Exchange   string
	MarketType market.MarketType
	Symbol     string
	MsgTypes   []market.MessageType
}

type Engine interface {
	Crawl(ctx context.Context, req Request, out Sink[market.Message]) error
	Subscribe(ctx context.Context, req SubscribeRequest, out Sink[string]) error
}

// Transport delivers raw upstream envelopes.
type Transport interface {
	Name() string
	// Stream subscribes to topics and calls emit for each raw envelope, in
	// arrival order, on the calling goroutine. It returns nil when the
	// upstream is exhausted, ctx.Err() when ctx ends, and the first error
	// returned by emit unchanged.
	Stream(ctx context.Context, topics []string, emit func([]byte) error) error
}
