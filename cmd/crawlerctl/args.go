package main

import (
	"flag"
	"strconv"
	"strings"
	"time"

	"cryptocrawler.com/internal/bridge"
	"cryptocrawler.com/internal/market"
	"cryptocrawler.com/pkg/xerr"
)

type cliArgs struct {
	feed      string
	exchange  string
	market    string
	symbols   string
	intervals string
	kinds     string
	interval  time.Duration
	duration  time.Duration
}

func (a *cliArgs) register(fs *flag.FlagSet) {
	fs.StringVar(&a.feed, "feed", "trade", "trade, l2_event, l3_event, bbo, l2_topk, ticker, funding_rate, l2_snapshot, l3_snapshot, candlestick, open_interest or subscribe")
	fs.StringVar(&a.exchange, "exchange", "", "exchange name")
	fs.StringVar(&a.market, "market", "spot", "market type, e.g. spot, linear_swap")
	fs.StringVar(&a.symbols, "symbols", "", "comma separated symbols; empty means all (subscribe takes exactly one)")
	fs.StringVar(&a.intervals, "intervals", "", "comma separated candlestick intervals in seconds, one per symbol")
	fs.StringVar(&a.kinds, "kinds", "", "comma separated message types for subscribe; empty means all")
	fs.DurationVar(&a.interval, "interval", 0, "snapshot polling interval; 0 is the engine default")
	fs.DurationVar(&a.duration, "duration", 0, "stop after this long; 0 runs until the engine stops")
}

func splitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

func (a *cliArgs) params() (bridge.Params, error) {
	var p bridge.Params
	feed, err := market.ParseFeed(a.feed)
	if err != nil {
		return p, xerr.Wrap(xerr.InvalidArgument, err)
	}
	mt, err := market.ParseMarketType(a.market)
	if err != nil {
		return p, xerr.Wrap(xerr.InvalidArgument, err)
	}
	p = bridge.Params{
		Feed:       feed,
		Exchange:   a.exchange,
		MarketType: mt,
		Interval:   a.interval,
		Duration:   a.duration,
	}
	symbols := splitList(a.symbols)

	switch feed {
	case market.FeedSubscribe:
		if len(symbols) != 1 {
			return p, xerr.New(xerr.InvalidArgument, "subscribe takes exactly one symbol")
		}
		p.Symbol = symbols[0]
		for _, k := range splitList(a.kinds) {
			kind, err := market.ParseMessageType(k)
			if err != nil {
				return p, xerr.Wrap(xerr.InvalidArgument, err)
			}
			p.MsgTypes = append(p.MsgTypes, kind)
		}
	case market.FeedCandlestick:
		raw := splitList(a.intervals)
		intervals := make([]uint32, len(raw))
		for i, s := range raw {
			v, err := strconv.ParseUint(s, 10, 32)
			if err != nil {
				return p, xerr.Newf(xerr.InvalidArgument, "interval %q: %v", s, err)
			}
			intervals[i] = uint32(v)
		}
		p.Pairs, err = bridge.ZipIntervals(symbols, intervals)
		if err != nil {
			return p, err
		}
	default:
		p.Symbols = symbols
	}
	return p, p.Validate()
}
