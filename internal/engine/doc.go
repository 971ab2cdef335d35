// Package engine defines the crawling engine the bridge drives and ships the
// relay engine: it consumes envelopes that an upstream crawler fleet already
// publishes on a transport (NATS, Redis, websocket, replay file) and emits
// them as market.Message values.
//
// Contract for every Engine implementation:
//   - Crawl/Subscribe block until ctx is done, the upstream is exhausted, or
//     the engine gives up; a deadline or cancel is a normal end (nil).
//   - Messages are emitted in upstream order on the calling goroutine or on
//     engine-owned goroutines; the engine never closes the sink.
//   - Sink.Send returning false means the consumer is gone: stop producing.
package engine
