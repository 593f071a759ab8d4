// Package ws is the WebSocket gateway: the connection layer the hub and
// alert engine push formatted messages into.
//
// Each accepted socket gets a Conn with a buffered outbound queue and
// two goroutines, a read pump and a write pump. Send is non-blocking:
// if the queue is full the send fails and the hub prunes the
// connection, so a slow client can never stall the simulation tick.
// Inbound commands are JSON envelopes (subscribe, unsubscribe, ping)
// and are rate limited per connection.
package ws
