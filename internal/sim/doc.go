// Package sim implements the price simulation engine.
//
// The engine owns the live ticker state for every configured instrument
// and advances it on a fixed periodic tick. Prices follow a bounded
// mean-reverting random walk: a momentum plus noise plus trend step
// scaled by the instrument's volatility, pulled back toward the base
// price when it drifts too far, and clamped to the instrument's hard
// bounds.
//
// At construction the engine seeds a historical OHLC series per symbol
// with the same step function, so the first live tick continues from the
// last historical close.
//
// The engine goroutine is the only writer of ticker state. Consumers
// read snapshot copies or receive them from the Updates channel; one
// snapshot is emitted per updated symbol per tick, and a full channel
// drops rather than stalls the tick.
package sim
