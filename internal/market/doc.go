// Package market holds the tags and the message shape shared by the engine,
// the bridge and the C boundary.
//
// Enum values are ABI: MarketType and MessageType are passed across the C
// boundary as plain integers, so existing values must never be reordered.
package market
