package main

/*
#include "types.h"
*/
import "C"

import (
	"context"
	"unsafe"

	"go.uber.org/zap"

	"cryptocrawler.com/internal/bridge"
	"cryptocrawler.com/internal/market"
)

// breach ends the process: the library cannot go on reading foreign memory
// that broke the calling convention.
func breach(what string, fields ...zap.Field) {
	fatal(context.Background(), "caller contract violated", append(fields, zap.String("arg", what))...)
}

func goText(p *C.char, what string) string {
	if p == nil {
		breach(what, zap.String("reason", "null pointer"))
	}
	return C.GoString(p)
}

// goSymbols copies count C strings. count == 0 yields an empty list, which
// the engine reads as every symbol.
func goSymbols(symbols **C.char, count C.uint) []string {
	if count == 0 {
		return []string{}
	}
	if symbols == nil {
		breach("symbols", zap.String("reason", "null array"), zap.Uint("count", uint(count)))
	}
	ptrs := unsafe.Slice(symbols, int(count))
	raw := make([]string, len(ptrs))
	for i, p := range ptrs {
		if p == nil {
			breach("symbols", zap.String("reason", "null element"), zap.Int("index", i))
		}
		raw[i] = C.GoString(p)
	}
	out, err := bridge.NewSymbols(raw)
	if err != nil {
		breach("symbols", zap.Error(err))
	}
	return out
}

func goIntervals(intervals *C.uint, count C.uint) []uint32 {
	if count == 0 {
		return []uint32{}
	}
	if intervals == nil {
		breach("intervals", zap.String("reason", "null array"), zap.Uint("count", uint(count)))
	}
	src := unsafe.Slice(intervals, int(count))
	out := make([]uint32, len(src))
	for i, v := range src {
		out[i] = uint32(v)
	}
	return out
}

func goKinds(kinds *C.MessageType, count C.uint) []market.MessageType {
	if count == 0 {
		return nil
	}
	if kinds == nil {
		breach("msg_types", zap.String("reason", "null array"), zap.Uint("count", uint(count)))
	}
	src := unsafe.Slice(kinds, int(count))
	out := make([]market.MessageType, len(src))
	for i, k := range src {
		out[i] = market.MessageType(k)
		if !out[i].Valid() {
			breach("msg_types", zap.Int("index", i), zap.Uint32("value", uint32(k)))
		}
	}
	return out
}

func goMarketType(mt C.MarketType) market.MarketType {
	out := market.MarketType(mt)
	if !out.Valid() {
		breach("market_type", zap.Uint32("value", uint32(mt)))
	}
	return out
}
