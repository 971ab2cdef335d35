package engine

import (
	"strings"

	"github.com/segmentio/encoding/json"

	"cryptocrawler.com/internal/market"
)

// Envelope is the upstream wire format: a crawled message plus the routing
// fields the relay filters on.
type Envelope struct {
	Exchange   string             `json:"exchange"`
	MarketType market.MarketType  `json:"market_type"`
	MsgType    market.MessageType `json:"msg_type"`
	Symbol     string             `json:"symbol"`
	Interval   uint32             `json:"interval,omitempty"` // candlestick seconds
	ReceivedAt uint64             `json:"received_at"`
	JSON       string             `json:"json"`
}

func DecodeEnvelope(b []byte) (Envelope, error) {
	var env Envelope
	err := json.Unmarshal(b, &env)
	return env, err
}

func EncodeEnvelope(env Envelope) ([]byte, error) {
	return json.Marshal(env)
}

// Message drops the routing fields. nowMs fills a missing timestamp.
func (e *Envelope) Message(nowMs uint64) market.Message {
	at := e.ReceivedAt
	if at == 0 {
		at = nowMs
	}
	return market.Message{
		Exchange:   e.Exchange,
		MarketType: e.MarketType,
		MsgType:    e.MsgType,
		ReceivedAt: at,
		JSON:       e.JSON,
	}
}

// Topic is the transport-neutral routing key "exchange:market_type:msg_type".
// Transports map it onto their own naming (NATS subjects, Redis channels).
func Topic(exchange string, mt market.MarketType, kind market.MessageType) string {
	return strings.ToLower(exchange) + ":" + mt.String() + ":" + kind.String()
}
