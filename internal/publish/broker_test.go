package publish

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cryptocrawler.com/internal/engine"
	"cryptocrawler.com/internal/engine/natsfeed"
	"cryptocrawler.com/internal/engine/redisfeed"
	"cryptocrawler.com/internal/engine/replay"
	"cryptocrawler.com/internal/enginetest"
	"cryptocrawler.com/internal/market"
	"cryptocrawler.com/pkg/xredis"
)

// relay runs a transport until n envelopes arrived, then stops it.
func relay(t *testing.T, tr engine.Transport, topics []string, n int, ready func() bool, publish func()) []string {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan string, n)
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = tr.Stream(ctx, topics, func(b []byte) error {
			got <- string(b)
			return nil
		})
	}()
	require.Eventually(t, ready, 2*time.Second, 5*time.Millisecond)
	publish()

	out := make([]string, 0, n)
	for len(out) < n {
		select {
		case v := <-got:
			out = append(out, v)
		case <-time.After(2 * time.Second):
			t.Fatalf("got %d of %d envelopes", len(out), n)
		}
	}
	cancel()
	<-done
	return out
}

func TestPump_NatsRoundTrip(t *testing.T) {
	srv := enginetest.NewNATSServer(t)
	cfg := natsfeed.Config{URL: srv.URL()}
	l1 := line(t, engine.Envelope{Exchange: "foo", MarketType: market.Spot, MsgType: market.Trade, Symbol: "A", JSON: `{"i":1}`})
	l2 := line(t, engine.Envelope{Exchange: "foo", MarketType: market.Spot, MsgType: market.Trade, Symbol: "B", JSON: `{"i":2}`})
	path := capture(t, l1, l2)
	topic := engine.Topic("foo", market.Spot, market.Trade)

	got := relay(t, natsfeed.New(cfg), []string{topic}, 2,
		func() bool { return srv.Subscribers(natsfeed.Subject("crawler", topic)) == 1 },
		func() {
			b, err := NewNatsBroker(cfg)
			require.NoError(t, err)
			st, err := Pump(context.Background(), replay.New(replay.Config{Path: path}), b)
			require.NoError(t, err)
			assert.EqualValues(t, 2, st.Published)
			require.NoError(t, b.Close())
		})
	assert.Equal(t, []string{l1, l2}, got)
}

func TestPump_RedisRoundTrip(t *testing.T) {
	srv := enginetest.NewRedisServer(t)
	cfg := redisfeed.Config{Config: xredis.Config{Addr: srv.Addr()}}
	l1 := line(t, engine.Envelope{Exchange: "foo", MarketType: market.LinearSwap, MsgType: market.FundingRate, Symbol: "A", JSON: `{"r":1}`})
	l2 := line(t, engine.Envelope{Exchange: "foo", MarketType: market.LinearSwap, MsgType: market.FundingRate, Symbol: "B", JSON: `{"r":2}`})
	path := capture(t, l1, l2)
	topic := engine.Topic("foo", market.LinearSwap, market.FundingRate)

	sub := redisfeed.New(cfg)
	defer sub.Close()
	got := relay(t, sub, []string{topic}, 2,
		func() bool { return srv.Subscribers(redisfeed.Channel("crawler", topic)) == 1 },
		func() {
			b, err := NewRedisBroker(context.Background(), cfg)
			require.NoError(t, err)
			defer b.Close()
			st, err := Pump(context.Background(), replay.New(replay.Config{Path: path}), b)
			require.NoError(t, err)
			assert.EqualValues(t, 2, st.Published)
		})
	assert.Equal(t, []string{l1, l2}, got)
}

func TestNewRedisBroker_Unreachable(t *testing.T) {
	_, err := NewRedisBroker(context.Background(), redisfeed.Config{Config: xredis.Config{Addr: "127.0.0.1:1"}})
	assert.ErrorContains(t, err, "127.0.0.1:1")
}
