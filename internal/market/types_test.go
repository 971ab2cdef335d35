package market

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnumValuesAreABI(t *testing.T) {
	// The C header numbers these explicitly.
	assert.EqualValues(t, 0, Spot)
	assert.EqualValues(t, 3, LinearSwap)
	assert.EqualValues(t, 10, BVOL)

	assert.EqualValues(t, 0, Trade)
	assert.EqualValues(t, 5, BBO)
	assert.EqualValues(t, 8, FundingRate)
	assert.EqualValues(t, 9, L2TopK)
	assert.EqualValues(t, 10, OpenInterest)
}

func TestParseMarketType(t *testing.T) {
	for i := Spot; i <= BVOL; i++ {
		got, err := ParseMarketType(i.String())
		require.NoError(t, err)
		assert.Equal(t, i, got)
	}

	got, err := ParseMarketType(" Linear_Swap ")
	require.NoError(t, err)
	assert.Equal(t, LinearSwap, got)

	_, err = ParseMarketType("perpetual")
	assert.Error(t, err)
	assert.False(t, MarketType(11).Valid())
	assert.Equal(t, "market_type(11)", MarketType(11).String())
}

func TestParseMessageType(t *testing.T) {
	for i := Trade; i <= OpenInterest; i++ {
		got, err := ParseMessageType(i.String())
		require.NoError(t, err)
		assert.Equal(t, i, got)
	}
	_, err := ParseMessageType("kline")
	assert.Error(t, err)
}

func TestMessage_JSONUsesNames(t *testing.T) {
	m := Message{Exchange: "binance", MarketType: InverseSwap, MsgType: L2Event, ReceivedAt: 1700000000123, JSON: `{"a":1}`}
	b, err := json.Marshal(m)
	require.NoError(t, err)
	assert.JSONEq(t, `{"exchange":"binance","market_type":"inverse_swap","msg_type":"l2_event","received_at":1700000000123,"json":"{\"a\":1}"}`, string(b))

	var back Message
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Equal(t, m, back)
}

func TestMessage_Validate(t *testing.T) {
	ok := Message{Exchange: "okx", MarketType: Spot, MsgType: Trade, JSON: `{"p":"1.0"}`}
	assert.NoError(t, ok.Validate())

	cases := map[string]Message{
		"empty exchange": {MarketType: Spot, JSON: "{}"},
		"nul exchange":   {Exchange: "ok\x00x", JSON: "{}"},
		"nul payload":    {Exchange: "okx", JSON: "{\x00}"},
		"bad utf8":       {Exchange: "okx", JSON: "\xff"},
		"market type":    {Exchange: "okx", MarketType: 42, JSON: "{}"},
		"message type":   {Exchange: "okx", MsgType: 42, JSON: "{}"},
	}
	for name, m := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Error(t, m.Validate())
		})
	}
}

func TestFeed(t *testing.T) {
	assert.Equal(t, "l2_snapshot", FeedL2Snapshot.String())
	assert.Equal(t, L2Snapshot, FeedL2Snapshot.MessageType())
	assert.Equal(t, OpenInterest, FeedOpenInterest.MessageType())
	assert.True(t, FeedL3Snapshot.Snapshot())
	assert.False(t, FeedL2Event.Snapshot())

	f, err := ParseFeed("funding_rate")
	require.NoError(t, err)
	assert.Equal(t, FeedFundingRate, f)
	_, err = ParseFeed("nope")
	assert.Error(t, err)
}
