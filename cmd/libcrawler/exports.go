package main

/*
#cgo CFLAGS: -I${SRCDIR}
#include "types.h"
*/
import "C"

import (
	"context"

	"go.uber.org/zap"

	"cryptocrawler.com/internal/bridge"
	"cryptocrawler.com/internal/market"
)

// crawl runs one record feed for a C host. Every entrypoint funnels through
// here so validation, fault handling and reporting stay identical.
func crawl(name string, p bridge.Params, cb C.MessageCallback) {
	if cb == nil {
		breach("on_msg", zap.String("reason", "null callback"))
	}
	// Arguments are checked before the engine: a broken call stays fatal
	// even when the engine could not start.
	if err := p.Validate(); err != nil {
		finish(name, err)
		return
	}
	c, err := lookup()
	if err != nil {
		return
	}
	_, err = bridge.CrawlWith[*C.Message](context.Background(), c, p, cMessageBuilder{}, messageSink(cb))
	finish(name, err)
}

func symbolFeed(name string, feed market.Feed, exchange *C.char, mt C.MarketType, symbols **C.char, n C.uint, cb C.MessageCallback, duration C.uint64_t) {
	crawl(name, bridge.Params{
		Feed:       feed,
		Exchange:   goText(exchange, "exchange"),
		MarketType: goMarketType(mt),
		Symbols:    goSymbols(symbols, n),
		Duration:   seconds(uint64(duration)),
	}, cb)
}

func snapshotFeed(name string, feed market.Feed, exchange *C.char, mt C.MarketType, symbols **C.char, n C.uint, cb C.MessageCallback, interval, duration C.uint64_t) {
	crawl(name, bridge.Params{
		Feed:       feed,
		Exchange:   goText(exchange, "exchange"),
		MarketType: goMarketType(mt),
		Symbols:    goSymbols(symbols, n),
		Interval:   seconds(uint64(interval)),
		Duration:   seconds(uint64(duration)),
	}, cb)
}

//export crawl_trade
func crawl_trade(exchange *C.char, marketType C.MarketType, symbols **C.char, numSymbols C.uint, onMsg C.MessageCallback, duration C.uint64_t) {
	symbolFeed("crawl_trade", market.FeedTrade, exchange, marketType, symbols, numSymbols, onMsg, duration)
}

//export crawl_l2_event
func crawl_l2_event(exchange *C.char, marketType C.MarketType, symbols **C.char, numSymbols C.uint, onMsg C.MessageCallback, duration C.uint64_t) {
	symbolFeed("crawl_l2_event", market.FeedL2Event, exchange, marketType, symbols, numSymbols, onMsg, duration)
}

//export crawl_l3_event
func crawl_l3_event(exchange *C.char, marketType C.MarketType, symbols **C.char, numSymbols C.uint, onMsg C.MessageCallback, duration C.uint64_t) {
	symbolFeed("crawl_l3_event", market.FeedL3Event, exchange, marketType, symbols, numSymbols, onMsg, duration)
}

//export crawl_bbo
func crawl_bbo(exchange *C.char, marketType C.MarketType, symbols **C.char, numSymbols C.uint, onMsg C.MessageCallback, duration C.uint64_t) {
	symbolFeed("crawl_bbo", market.FeedBBO, exchange, marketType, symbols, numSymbols, onMsg, duration)
}

//export crawl_l2_topk
func crawl_l2_topk(exchange *C.char, marketType C.MarketType, symbols **C.char, numSymbols C.uint, onMsg C.MessageCallback, duration C.uint64_t) {
	symbolFeed("crawl_l2_topk", market.FeedL2TopK, exchange, marketType, symbols, numSymbols, onMsg, duration)
}

//export crawl_ticker
func crawl_ticker(exchange *C.char, marketType C.MarketType, symbols **C.char, numSymbols C.uint, onMsg C.MessageCallback, duration C.uint64_t) {
	symbolFeed("crawl_ticker", market.FeedTicker, exchange, marketType, symbols, numSymbols, onMsg, duration)
}

//export crawl_funding_rate
func crawl_funding_rate(exchange *C.char, marketType C.MarketType, symbols **C.char, numSymbols C.uint, onMsg C.MessageCallback, duration C.uint64_t) {
	symbolFeed("crawl_funding_rate", market.FeedFundingRate, exchange, marketType, symbols, numSymbols, onMsg, duration)
}

//export crawl_l2_snapshot
func crawl_l2_snapshot(exchange *C.char, marketType C.MarketType, symbols **C.char, numSymbols C.uint, onMsg C.MessageCallback, interval, duration C.uint64_t) {
	snapshotFeed("crawl_l2_snapshot", market.FeedL2Snapshot, exchange, marketType, symbols, numSymbols, onMsg, interval, duration)
}

//export crawl_l3_snapshot
func crawl_l3_snapshot(exchange *C.char, marketType C.MarketType, symbols **C.char, numSymbols C.uint, onMsg C.MessageCallback, interval, duration C.uint64_t) {
	snapshotFeed("crawl_l3_snapshot", market.FeedL3Snapshot, exchange, marketType, symbols, numSymbols, onMsg, interval, duration)
}

//export crawl_candlestick
func crawl_candlestick(exchange *C.char, marketType C.MarketType, symbols **C.char, intervals *C.uint, numSymbols C.uint, onMsg C.MessageCallback, duration C.uint64_t) {
	pairs, err := bridge.ZipIntervals(goSymbols(symbols, numSymbols), goIntervals(intervals, numSymbols))
	if err != nil {
		breach("intervals", zap.Error(err))
	}
	crawl("crawl_candlestick", bridge.Params{
		Feed:       market.FeedCandlestick,
		Exchange:   goText(exchange, "exchange"),
		MarketType: goMarketType(marketType),
		Pairs:      pairs,
		Duration:   seconds(uint64(duration)),
	}, onMsg)
}

//export crawl_open_interest
func crawl_open_interest(exchange *C.char, marketType C.MarketType, onMsg C.MessageCallback, duration C.uint64_t) {
	crawl("crawl_open_interest", bridge.Params{
		Feed:       market.FeedOpenInterest,
		Exchange:   goText(exchange, "exchange"),
		MarketType: goMarketType(marketType),
		Duration:   seconds(uint64(duration)),
	}, onMsg)
}

//export subscribe_symbol
func subscribe_symbol(exchange *C.char, marketType C.MarketType, symbol *C.char, msgTypes *C.MessageType, numMsgTypes C.uint, onMsg C.TextCallback, duration C.uint64_t) {
	if onMsg == nil {
		breach("on_msg", zap.String("reason", "null callback"))
	}
	p := bridge.Params{
		Feed:       market.FeedSubscribe,
		Exchange:   goText(exchange, "exchange"),
		MarketType: goMarketType(marketType),
		Symbol:     goText(symbol, "symbol"),
		MsgTypes:   goKinds(msgTypes, numMsgTypes),
		Duration:   seconds(uint64(duration)),
	}
	if err := p.Validate(); err != nil {
		finish("subscribe_symbol", err)
		return
	}
	c, err := lookup()
	if err != nil {
		return
	}
	_, err = bridge.SubscribeWith[*C.char](context.Background(), c, p, cTextBuilder{}, textSink(onMsg))
	finish("subscribe_symbol", err)
}
