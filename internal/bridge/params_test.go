package bridge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cryptocrawler.com/internal/market"
	"cryptocrawler.com/pkg/xerr"
)

func TestNewSymbols_KeepsOrder(t *testing.T) {
	in := []string{"ETH_USD", "BTC_USD", "ETH_USD", "SOL_USD"}
	out, err := NewSymbols(in)
	require.NoError(t, err)
	assert.Equal(t, in, out)

	// owned copy
	in[0] = "XRP_USD"
	assert.Equal(t, "ETH_USD", out[0])
}

func TestNewSymbols_EmptyMeansAll(t *testing.T) {
	out, err := NewSymbols(nil)
	require.NoError(t, err)
	assert.NotNil(t, out)
	assert.Empty(t, out)
}

func TestNewSymbols_Rejects(t *testing.T) {
	for name, in := range map[string][]string{
		"empty":    {"BTC_USD", ""},
		"nul":      {"BTC\x00USD"},
		"bad utf8": {"\xc3\x28"},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := NewSymbols(in)
			assert.Equal(t, xerr.InvalidArgument, xerr.CodeOf(err))
		})
	}
}

func TestZipIntervals(t *testing.T) {
	pairs, err := ZipIntervals([]string{"BTC_USD", "ETH_USD", "BTC_USD"}, []uint32{60, 300, 3600})
	require.NoError(t, err)
	assert.Equal(t, []market.SymbolInterval{
		{Symbol: "BTC_USD", Interval: 60},
		{Symbol: "ETH_USD", Interval: 300},
		{Symbol: "BTC_USD", Interval: 3600},
	}, pairs)

	pairs, err = ZipIntervals(nil, nil)
	require.NoError(t, err)
	assert.Empty(t, pairs)

	_, err = ZipIntervals([]string{"BTC_USD"}, []uint32{60, 300})
	assert.Equal(t, xerr.InvalidArgument, xerr.CodeOf(err))
}

func TestParams_Validate(t *testing.T) {
	base := Params{Feed: market.FeedTrade, Exchange: "foo", MarketType: market.Spot}
	require.NoError(t, base.Validate())

	cases := map[string]func(p *Params){
		"no exchange":           func(p *Params) { p.Exchange = "" },
		"market type":           func(p *Params) { p.MarketType = 11 },
		"unknown feed":          func(p *Params) { p.Feed = 0 },
		"interval on trade":     func(p *Params) { p.Interval = 1 },
		"pairs on trade":        func(p *Params) { p.Pairs = []market.SymbolInterval{{Symbol: "A", Interval: 60}} },
		"symbols on oi":         func(p *Params) { p.Feed = market.FeedOpenInterest; p.Symbols = []string{"A"} },
		"subscribe no symbol":   func(p *Params) { p.Feed = market.FeedSubscribe },
		"subscribe bad kind":    func(p *Params) { p.Feed = market.FeedSubscribe; p.Symbol = "A"; p.MsgTypes = []market.MessageType{42} },
		"candlestick no symbol": func(p *Params) { p.Feed = market.FeedCandlestick; p.Pairs = []market.SymbolInterval{{Interval: 60}} },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			p := base
			mutate(&p)
			assert.Equal(t, xerr.InvalidArgument, xerr.CodeOf(p.Validate()))
		})
	}

	snap := base
	snap.Feed = market.FeedL2Snapshot
	snap.Interval = 5
	assert.NoError(t, snap.Validate())
}
