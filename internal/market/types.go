package market

import (
	"fmt"
	"strings"
)

// MarketType is the instrument class.
type MarketType uint32

const (
	Spot MarketType = iota
	LinearFuture
	InverseFuture
	LinearSwap
	InverseSwap
	AmericanOption
	EuropeanOption
	QuantoFuture
	QuantoSwap
	Move
	BVOL
)

var marketTypeNames = [...]string{
	Spot:           "spot",
	LinearFuture:   "linear_future",
	InverseFuture:  "inverse_future",
	LinearSwap:     "linear_swap",
	InverseSwap:    "inverse_swap",
	AmericanOption: "american_option",
	EuropeanOption: "european_option",
	QuantoFuture:   "quanto_future",
	QuantoSwap:     "quanto_swap",
	Move:           "move",
	BVOL:           "bvol",
}

func (m MarketType) Valid() bool { return int(m) < len(marketTypeNames) }

func (m MarketType) String() string {
	if !m.Valid() {
		return fmt.Sprintf("market_type(%d)", uint32(m))
	}
	return marketTypeNames[m]
}

func (m MarketType) MarshalText() ([]byte, error) {
	if !m.Valid() {
		return nil, fmt.Errorf("invalid market type %d", uint32(m))
	}
	return []byte(m.String()), nil
}

func (m *MarketType) UnmarshalText(b []byte) error {
	v, err := ParseMarketType(string(b))
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// ParseMarketType accepts the snake_case name, case-insensitively.
func ParseMarketType(s string) (MarketType, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range marketTypeNames {
		if name == s {
			return MarketType(i), nil
		}
	}
	return 0, fmt.Errorf("unknown market type %q", s)
}

// MessageType is the kind of a crawled message.
type MessageType uint32

const (
	Trade MessageType = iota
	L2Event
	L2Snapshot
	L3Event
	L3Snapshot
	BBO
	Ticker
	Candlestick
	FundingRate
	// Appended after the first nine; older hosts never see them unless
	// they call crawl_l2_topk or crawl_open_interest.
	L2TopK
	OpenInterest
)

var messageTypeNames = [...]string{
	Trade:        "trade",
	L2Event:      "l2_event",
	L2Snapshot:   "l2_snapshot",
	L3Event:      "l3_event",
	L3Snapshot:   "l3_snapshot",
	BBO:          "bbo",
	Ticker:       "ticker",
	Candlestick:  "candlestick",
	FundingRate:  "funding_rate",
	L2TopK:       "l2_topk",
	OpenInterest: "open_interest",
}

func (t MessageType) Valid() bool { return int(t) < len(messageTypeNames) }

func (t MessageType) String() string {
	if !t.Valid() {
		return fmt.Sprintf("msg_type(%d)", uint32(t))
	}
	return messageTypeNames[t]
}

func (t MessageType) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("invalid message type %d", uint32(t))
	}
	return []byte(t.String()), nil
}

func (t *MessageType) UnmarshalText(b []byte) error {
	v, err := ParseMessageType(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

func ParseMessageType(s string) (MessageType, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range messageTypeNames {
		if name == s {
			return MessageType(i), nil
		}
	}
	return 0, fmt.Errorf("unknown message type %q", s)
}

// SymbolInterval is one candlestick subscription: a symbol and its bar
// interval in seconds.
type SymbolInterval struct {
	Symbol   string `json:"symbol"`
	Interval uint32 `json:"interval"`
}
