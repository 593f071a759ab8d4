// Package protocol defines the JSON wire messages exchanged with
// WebSocket clients.
//
// Every message is an envelope with a type tag, an optional payload, an
// optional error string, and a timestamp. Inbound messages are client
// commands (subscribe, unsubscribe, ping); outbound messages carry the
// welcome listing, subscription results, price updates, triggered
// alerts, and errors.
package protocol
