package bridge

import (
	"sync"

	"cryptocrawler.com/internal/market"
)

// Builder projects one queued item into the view handed to the host. The
// view is valid until release is called; the bridge calls release right
// after the callback returns, whatever the callback did.
type Builder[T, V any] interface {
	Build(item T) (view V, release func())
}

// Record is the Go host's view of one message, laid out like the C record:
// two NUL-terminated text buffers plus scalar tags. Exchange and JSON exclude
// the terminator and alias pooled memory; copy them to keep them.
type Record struct {
	Exchange   []byte
	MarketType market.MarketType
	MsgType    market.MessageType
	ReceivedAt uint64 // unix ms
	JSON       []byte
}

var textPool = sync.Pool{
	New: func() any {
		b := make([]byte, 0, 1024)
		return &b
	},
}

// cText copies s into a pooled NUL-terminated buffer.
func cText(s string) *[]byte {
	bp := textPool.Get().(*[]byte)
	b := append((*bp)[:0], s...)
	b = append(b, 0)
	*bp = b
	return bp
}

// RecordBuilder builds Records for Go hosts.
type RecordBuilder struct{}

func (RecordBuilder) Build(m market.Message) (*Record, func()) {
	exchange := cText(m.Exchange)
	payload := cText(m.JSON)

	rec := &Record{
		Exchange:   (*exchange)[:len(m.Exchange)],
		MarketType: m.MarketType,
		MsgType:    m.MsgType,
		ReceivedAt: m.ReceivedAt,
		JSON:       (*payload)[:len(m.JSON)],
	}
	release := func() {
		*rec = Record{}
		textPool.Put(exchange)
		textPool.Put(payload)
	}
	return rec, release
}

// TextBuilder hands subscription JSON to Go hosts as is; strings are
// immutable so there is nothing to release.
type TextBuilder struct{}

func (TextBuilder) Build(s string) (string, func()) { return s, func() {} }
