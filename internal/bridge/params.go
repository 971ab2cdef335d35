package bridge

import (
	"time"

	"cryptocrawler.com/internal/engine"
	"cryptocrawler.com/internal/market"
	"cryptocrawler.com/pkg/xerr"
)

// Params is the validated, owned form of one entrypoint's arguments.
type Params struct {
	Feed       market.Feed
	Exchange   string
	MarketType market.MarketType

	// Symbols filters symbol feeds; empty means all symbols.
	Symbols []string
	// Pairs is the candlestick filter; empty means all symbols and intervals.
	Pairs []market.SymbolInterval
	// Symbol and MsgTypes are the subscription shape.
	Symbol   string
	MsgTypes []market.MessageType

	// Interval is the snapshot polling interval.
	Interval time.Duration
	// Duration bounds the call; 0 runs until the engine stops.
	Duration time.Duration
}

// NewSymbols validates raw symbols and returns an owned copy in input order.
// No symbols yields an empty, non-nil slice.
func NewSymbols(raw []string) ([]string, error) {
	out := make([]string, 0, len(raw))
	for i, s := range raw {
		if s == "" {
			return nil, xerr.Newf(xerr.InvalidArgument, "symbol %d is empty", i)
		}
		if err := market.CheckText(s); err != nil {
			return nil, xerr.Newf(xerr.InvalidArgument, "symbol %d: %v", i, err)
		}
		out = append(out, s)
	}
	return out, nil
}

// ZipIntervals pairs symbols[i] with intervals[i].
func ZipIntervals(symbols []string, intervals []uint32) ([]market.SymbolInterval, error) {
	if len(symbols) != len(intervals) {
		return nil, xerr.Newf(xerr.InvalidArgument, "%d symbols but %d intervals", len(symbols), len(intervals))
	}
	syms, err := NewSymbols(symbols)
	if err != nil {
		return nil, err
	}
	pairs := make([]market.SymbolInterval, len(syms))
	for i, s := range syms {
		pairs[i] = market.SymbolInterval{Symbol: s, Interval: intervals[i]}
	}
	return pairs, nil
}

// Validate checks the parameter shape against p.Feed.
func (p *Params) Validate() error {
	if p.Exchange == "" {
		return xerr.New(xerr.InvalidArgument, "exchange is empty")
	}
	if err := market.CheckText(p.Exchange); err != nil {
		return xerr.Newf(xerr.InvalidArgument, "exchange: %v", err)
	}
	if !p.MarketType.Valid() {
		return xerr.Newf(xerr.InvalidArgument, "invalid market type %d", uint32(p.MarketType))
	}
	if p.Duration < 0 || p.Interval < 0 {
		return xerr.New(xerr.InvalidArgument, "negative duration or interval")
	}

	switch p.Feed {
	case market.FeedSubscribe:
		if p.Symbol == "" {
			return xerr.New(xerr.InvalidArgument, "subscription symbol is empty")
		}
		if err := market.CheckText(p.Symbol); err != nil {
			return xerr.Newf(xerr.InvalidArgument, "symbol: %v", err)
		}
		for i, k := range p.MsgTypes {
			if !k.Valid() {
				return xerr.Newf(xerr.InvalidArgument, "message type %d is invalid (%d)", i, uint32(k))
			}
		}
		return nil
	case market.FeedCandlestick:
		for i, pair := range p.Pairs {
			if pair.Symbol == "" {
				return xerr.Newf(xerr.InvalidArgument, "candlestick pair %d has no symbol", i)
			}
			if err := market.CheckText(pair.Symbol); err != nil {
				return xerr.Newf(xerr.InvalidArgument, "candlestick pair %d: %v", i, err)
			}
		}
	case market.FeedOpenInterest:
		if len(p.Symbols) > 0 {
			return xerr.New(xerr.InvalidArgument, "open interest takes no symbol filter")
		}
	case market.FeedTrade, market.FeedL2Event, market.FeedL3Event, market.FeedBBO,
		market.FeedL2TopK, market.FeedTicker, market.FeedFundingRate,
		market.FeedL2Snapshot, market.FeedL3Snapshot:
	default:
		return xerr.Newf(xerr.InvalidArgument, "unknown feed %d", uint8(p.Feed))
	}

	if p.Interval != 0 && !p.Feed.Snapshot() {
		return xerr.Newf(xerr.InvalidArgument, "%s takes no polling interval", p.Feed)
	}
	if len(p.Pairs) > 0 && p.Feed != market.FeedCandlestick {
		return xerr.Newf(xerr.InvalidArgument, "%s takes no intervals", p.Feed)
	}
	if _, err := NewSymbols(p.Symbols); err != nil {
		return err
	}
	return nil
}

func (p *Params) request() engine.Request {
	return engine.Request{
		Feed:       p.Feed,
		Exchange:   p.Exchange,
		MarketType: p.MarketType,
		Symbols:    p.Symbols,
		Pairs:      p.Pairs,
		Interval:   p.Interval,
	}
}

func (p *Params) subscribeRequest() engine.SubscribeRequest {
	return engine.SubscribeRequest{
		Exchange:   p.Exchange,
		MarketType: p.MarketType,
		Symbol:     p.Symbol,
		MsgTypes:   p.MsgTypes,
	}
}
