// Package model defines the shared domain types that flow between
// components: instrument configuration, live ticker state, historical
// candles, and price alerts.
//
// All types here are plain values. Components exchange copies, never
// shared mutable references; the owning component is responsible for
// snapshotting before handing anything out.
package model
