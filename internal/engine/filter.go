package engine

import (
	"strings"

	"cryptocrawler.com/internal/market"
)

type filter struct {
	exchange   string
	marketType market.MarketType
	kinds      map[market.MessageType]struct{}
	symbols    map[string]struct{}
	pairs      map[market.SymbolInterval]struct{}
}

func newCrawlFilter(req Request) *filter {
	f := &filter{
		exchange:   strings.ToLower(req.Exchange),
		marketType: req.MarketType,
		kinds:      map[market.MessageType]struct{}{req.Feed.MessageType(): {}},
	}
	if req.Feed == market.FeedCandlestick {
		if len(req.Pairs) > 0 {
			f.pairs = make(map[market.SymbolInterval]struct{}, len(req.Pairs))
			for _, p := range req.Pairs {
				f.pairs[p] = struct{}{}
			}
		}
		return f
	}
	if req.Feed == market.FeedOpenInterest {
		// market-wide
		return f
	}
	if len(req.Symbols) > 0 {
		f.symbols = make(map[string]struct{}, len(req.Symbols))
		for _, s := range req.Symbols {
			f.symbols[s] = struct{}{}
		}
	}
	return f
}

func newSubscribeFilter(req SubscribeRequest) *filter {
	f := &filter{
		exchange:   strings.ToLower(req.Exchange),
		marketType: req.MarketType,
		kinds:      make(map[market.MessageType]struct{}, len(req.MsgTypes)),
		symbols:    map[string]struct{}{req.Symbol: {}},
	}
	for _, k := range req.MsgTypes {
		f.kinds[k] = struct{}{}
	}
	if len(f.kinds) == 0 {
		for k := market.Trade; k <= market.OpenInterest; k++ {
			f.kinds[k] = struct{}{}
		}
	}
	return f
}

func (f *filter) match(env *Envelope) bool {
	if strings.ToLower(env.Exchange) != f.exchange || env.MarketType != f.marketType {
		return false
	}
	if _, ok := f.kinds[env.MsgType]; !ok {
		return false
	}
	if f.symbols != nil {
		if _, ok := f.symbols[env.Symbol]; !ok {
			return false
		}
	}
	if f.pairs != nil {
		if _, ok := f.pairs[market.SymbolInterval{Symbol: env.Symbol, Interval: env.Interval}]; !ok {
			return false
		}
	}
	return true
}

func (f *filter) topics() []string {
	out := make([]string, 0, len(f.kinds))
	for k := range f.kinds {
		out = append(out, Topic(f.exchange, f.marketType, k))
	}
	return out
}
