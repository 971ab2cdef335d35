package main

import (
	"bufio"
	"context"
	"io"
	"sync"

	"github.com/segmentio/encoding/json"

	"cryptocrawler.com/internal/app"
	"cryptocrawler.com/internal/bridge"
	"cryptocrawler.com/internal/market"
)

// messageBuilder hands messages over by value; Go strings need no release.
type messageBuilder struct{}

func (messageBuilder) Build(m market.Message) (market.Message, func()) { return m, func() {} }

func run(ctx context.Context, a *app.App, p bridge.Params, out *printer) (bridge.Result, error) {
	if p.Feed == market.FeedSubscribe {
		return bridge.SubscribeWith[string](ctx, a.Crawler, p, bridge.TextBuilder{}, out.text)
	}
	return bridge.CrawlWith[market.Message](ctx, a.Crawler, p, messageBuilder{}, out.message)
}

// printer writes one JSON document per line.
type printer struct {
	mu  sync.Mutex
	w   *bufio.Writer
	enc *json.Encoder
	err error
}

func newPrinter(w io.Writer) *printer {
	bw := bufio.NewWriterSize(w, 64<<10)
	enc := json.NewEncoder(bw)
	enc.SetEscapeHTML(false)
	return &printer{w: bw, enc: enc}
}

func (p *printer) message(m market.Message) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err == nil {
		p.err = p.enc.Encode(m)
	}
}

// text prints subscription payloads as they are: they already are JSON.
func (p *printer) text(s string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return
	}
	if _, err := p.w.WriteString(s); err != nil {
		p.err = err
		return
	}
	p.err = p.w.WriteByte('\n')
}

func (p *printer) Flush() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	return p.w.Flush()
}
