package wsfeed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cryptocrawler.com/internal/engine"
	"cryptocrawler.com/internal/market"
)

// gateway accepts one subscribe frame, writes frames and then either closes
// normally or holds the connection open.
func gateway(t *testing.T, frames [][]byte, hold bool, gotSub chan<- SubscribeFrame) *httptest.Server {
	t.Helper()
	up := websocket.Upgrader{}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := up.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer c.Close()

		var sub SubscribeFrame
		if err := c.ReadJSON(&sub); err != nil {
			return
		}
		gotSub <- sub

		for _, f := range frames {
			if err := c.WriteMessage(websocket.TextMessage, f); err != nil {
				return
			}
		}
		if hold {
			// wait for the client to go away
			for {
				if _, _, err := c.ReadMessage(); err != nil {
					return
				}
			}
		}
		_ = c.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "done"), time.Now().Add(time.Second))
	}))
}

func wsURL(srv *httptest.Server) string { return "ws" + strings.TrimPrefix(srv.URL, "http") }

func TestTransport_StreamUntilNormalClose(t *testing.T) {
	subs := make(chan SubscribeFrame, 1)
	srv := gateway(t, [][]byte{[]byte(`{"a":1}`), []byte(`{"a":2}`)}, false, subs)
	defer srv.Close()

	tr := New(Config{URL: wsURL(srv)})
	var got []string
	err := tr.Stream(context.Background(), []string{"foo:spot:trade"}, func(b []byte) error {
		got = append(got, string(b))
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{`{"a":1}`, `{"a":2}`}, got)
	assert.Equal(t, SubscribeFrame{Type: "sub", Topics: []string{"foo:spot:trade"}}, <-subs)
}

func TestTransport_ContextCancelUnblocksRead(t *testing.T) {
	subs := make(chan SubscribeFrame, 1)
	srv := gateway(t, nil, true, subs)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := New(Config{URL: wsURL(srv)}).Stream(ctx, []string{"x"}, func([]byte) error { return nil })
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRelayOverWebsocket(t *testing.T) {
	enc := func(e engine.Envelope) []byte {
		b, err := engine.EncodeEnvelope(e)
		require.NoError(t, err)
		return b
	}
	frames := [][]byte{
		enc(engine.Envelope{Exchange: "foo", MarketType: market.Spot, MsgType: market.Trade, Symbol: "BTC_USD", ReceivedAt: 10, JSON: `{"p":"1"}`}),
		enc(engine.Envelope{Exchange: "foo", MarketType: market.Spot, MsgType: market.Trade, Symbol: "XRP_USD", ReceivedAt: 11, JSON: `{"p":"2"}`}),
		enc(engine.Envelope{Exchange: "foo", MarketType: market.Spot, MsgType: market.Trade, Symbol: "ETH_USD", ReceivedAt: 12, JSON: `{"p":"3"}`}),
	}
	subs := make(chan SubscribeFrame, 1)
	srv := gateway(t, frames, false, subs)
	defer srv.Close()

	relay := engine.NewRelay(New(Config{URL: wsURL(srv)}), engine.RelayOptions{})
	var out sliceSink
	err := relay.Crawl(context.Background(), engine.Request{
		Feed: market.FeedTrade, Exchange: "foo", MarketType: market.Spot,
		Symbols: []string{"BTC_USD", "ETH_USD"},
	}, &out)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, uint64(10), out[0].ReceivedAt)
	assert.Equal(t, `{"p":"3"}`, out[1].JSON)
}

type sliceSink []market.Message

func (s *sliceSink) Send(m market.Message) bool {
	*s = append(*s, m)
	return true
}
