package main

/*
#include <stdlib.h>
#include "types.h"
*/
import "C"

import (
	"unsafe"

	"cryptocrawler.com/internal/market"
)

// cMessageBuilder projects a message into C memory. The record and both
// strings are freed once the callback returns.
type cMessageBuilder struct{}

func (cMessageBuilder) Build(m market.Message) (*C.Message, func()) {
	rec := (*C.Message)(C.malloc(C.size_t(unsafe.Sizeof(C.Message{}))))
	rec.exchange = C.CString(m.Exchange)
	rec.market_type = C.MarketType(m.MarketType)
	rec.msg_type = C.MessageType(m.MsgType)
	rec.received_at = C.uint64_t(m.ReceivedAt)
	rec.json = C.CString(m.JSON)

	return rec, func() {
		C.free(unsafe.Pointer(rec.exchange))
		C.free(unsafe.Pointer(rec.json))
		C.free(unsafe.Pointer(rec))
	}
}

type cTextBuilder struct{}

func (cTextBuilder) Build(s string) (*C.char, func()) {
	p := C.CString(s)
	return p, func() { C.free(unsafe.Pointer(p)) }
}

func messageSink(cb C.MessageCallback) func(*C.Message) {
	return func(m *C.Message) { C.crawler_invoke_message(cb, m) }
}

func textSink(cb C.TextCallback) func(*C.char) {
	return func(s *C.char) { C.crawler_invoke_text(cb, s) }
}
