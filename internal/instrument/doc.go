// Package instrument holds the static per-symbol configuration registry.
//
// The registry is built once at startup from validated instrument
// configs and is read-only afterwards, so lookups need no locking.
// Invalid configuration (inverted bounds, base price outside bounds,
// non-positive volatility) fails construction; the process must not run
// with undefined bounds.
package instrument
