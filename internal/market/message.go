package market

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// Message is one event produced by the engine. JSON is the payload text and
// is carried to the host byte for byte.
type Message struct {
	Exchange   string      `json:"exchange"`
	MarketType MarketType  `json:"market_type"`
	MsgType    MessageType `json:"msg_type"`
	ReceivedAt uint64      `json:"received_at"` // unix ms
	JSON       string      `json:"json"`
}

var (
	ErrEmptyExchange = errors.New("empty exchange")
	ErrNUL           = errors.New("text contains NUL byte")
	ErrEncoding      = errors.New("text is not valid UTF-8")
)

// Validate checks everything the record builder relies on: both texts must
// survive conversion to NUL-terminated C strings unchanged.
func (m *Message) Validate() error {
	if m.Exchange == "" {
		return ErrEmptyExchange
	}
	if err := CheckText(m.Exchange); err != nil {
		return fmt.Errorf("exchange: %w", err)
	}
	if err := CheckText(m.JSON); err != nil {
		return fmt.Errorf("json: %w", err)
	}
	if !m.MarketType.Valid() {
		return fmt.Errorf("invalid market type %d", uint32(m.MarketType))
	}
	if !m.MsgType.Valid() {
		return fmt.Errorf("invalid message type %d", uint32(m.MsgType))
	}
	return nil
}

// CheckText rejects text that cannot cross the C boundary intact.
func CheckText(s string) error {
	if strings.IndexByte(s, 0) >= 0 {
		return ErrNUL
	}
	if !utf8.ValidString(s) {
		return ErrEncoding
	}
	return nil
}
