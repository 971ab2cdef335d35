package main

/*
#include <stdlib.h>
#include "types.h"

static uint64_t seen_count;
static uint64_t seen_last;

static void count_message(const Message *msg) {
  seen_count++;
  seen_last = msg->received_at;
}

static MessageCallback counting_callback(void) { return count_message; }

static void reset_seen(void) {
  seen_count = 0;
  seen_last = 0;
}

static uint64_t get_seen_count(void) { return seen_count; }
static uint64_t get_seen_last(void) { return seen_last; }
*/
import "C"

import (
	"unsafe"

	"cryptocrawler.com/internal/market"
)

// Helpers that lay out arguments the way a C host does, for driving the
// exported entrypoints from Go.

func cStrings(ss []string) (**C.char, func()) {
	if len(ss) == 0 {
		return nil, func() {}
	}
	arr := (**C.char)(C.malloc(C.size_t(len(ss)) * C.size_t(unsafe.Sizeof((*C.char)(nil)))))
	view := unsafe.Slice(arr, len(ss))
	for i, s := range ss {
		view[i] = C.CString(s)
	}
	return arr, func() {
		for _, p := range view {
			C.free(unsafe.Pointer(p))
		}
		C.free(unsafe.Pointer(arr))
	}
}

func cText(s string) (*C.char, func()) {
	p := C.CString(s)
	return p, func() { C.free(unsafe.Pointer(p)) }
}

func cUints(vs []uint32) (*C.uint, func()) {
	if len(vs) == 0 {
		return nil, func() {}
	}
	arr := (*C.uint)(C.malloc(C.size_t(len(vs)) * C.size_t(unsafe.Sizeof(C.uint(0)))))
	view := unsafe.Slice(arr, len(vs))
	for i, v := range vs {
		view[i] = C.uint(v)
	}
	return arr, func() { C.free(unsafe.Pointer(arr)) }
}

func cKinds(ks []market.MessageType) (*C.MessageType, func()) {
	if len(ks) == 0 {
		return nil, func() {}
	}
	arr := (*C.MessageType)(C.malloc(C.size_t(len(ks)) * C.size_t(unsafe.Sizeof(C.MessageType(0)))))
	view := unsafe.Slice(arr, len(ks))
	for i, k := range ks {
		view[i] = C.MessageType(k)
	}
	return arr, func() { C.free(unsafe.Pointer(arr)) }
}

func cCount(n int) C.uint { return C.uint(n) }

func cSeconds(s uint64) C.uint64_t { return C.uint64_t(s) }

func cMarketType(mt market.MarketType) C.MarketType { return C.MarketType(mt) }

// goMessage reads a record back the way a C callback would see it.
func goMessage(m *C.Message) market.Message {
	return market.Message{
		Exchange:   C.GoString(m.exchange),
		MarketType: market.MarketType(m.market_type),
		MsgType:    market.MessageType(m.msg_type),
		ReceivedAt: uint64(m.received_at),
		JSON:       C.GoString(m.json),
	}
}

// countingCallback is a C callback that tallies messages; seen reports the
// tally and the received_at of the last one.
func countingCallback() C.MessageCallback { return C.counting_callback() }

func resetSeen() { C.reset_seen() }

func seen() (count, last uint64) {
	return uint64(C.get_seen_count()), uint64(C.get_seen_last())
}
