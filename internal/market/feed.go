package market

import "fmt"

// Feed names one crawl entrypoint.
type Feed uint8

const (
	FeedTrade Feed = iota + 1
	FeedL2Event
	FeedL3Event
	FeedBBO
	FeedL2TopK
	FeedTicker
	FeedFundingRate
	FeedL2Snapshot
	FeedL3Snapshot
	FeedCandlestick
	FeedOpenInterest
	FeedSubscribe
)

var feeds = map[Feed]struct {
	name string
	msg  MessageType
}{
	FeedTrade:        {"trade", Trade},
	FeedL2Event:      {"l2_event", L2Event},
	FeedL3Event:      {"l3_event", L3Event},
	FeedBBO:          {"bbo", BBO},
	FeedL2TopK:       {"l2_topk", L2TopK},
	FeedTicker:       {"ticker", Ticker},
	FeedFundingRate:  {"funding_rate", FundingRate},
	FeedL2Snapshot:   {"l2_snapshot", L2Snapshot},
	FeedL3Snapshot:   {"l3_snapshot", L3Snapshot},
	FeedCandlestick:  {"candlestick", Candlestick},
	FeedOpenInterest: {"open_interest", OpenInterest},
	FeedSubscribe:    {"subscribe", Trade},
}

func (f Feed) String() string {
	if v, ok := feeds[f]; ok {
		return v.name
	}
	return fmt.Sprintf("feed(%d)", uint8(f))
}

// MessageType is the tag every message of this feed carries. FeedSubscribe
// spans several kinds and reports Trade; callers use the request's kinds.
func (f Feed) MessageType() MessageType { return feeds[f].msg }

// Snapshot reports whether the feed is polled at an interval.
func (f Feed) Snapshot() bool { return f == FeedL2Snapshot || f == FeedL3Snapshot }

// ParseFeed maps a feed name ("trade", "l2_snapshot", ...) to its Feed.
func ParseFeed(s string) (Feed, error) {
	for f, v := range feeds {
		if v.name == s {
			return f, nil
		}
	}
	return 0, fmt.Errorf("unknown feed %q", s)
}
