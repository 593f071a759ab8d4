package sim

import (
	"errors"
	"time"
)

// Tick interval bounds. SetTickInterval rejects values outside this
// range, and startup config validation enforces the same bounds.
const (
	MinTickInterval = 1 * time.Second
	MaxTickInterval = 10 * time.Second
)

// Errors
var (
	ErrIntervalOutOfRange = errors.New("tick interval out of range")
	ErrAlreadyStarted     = errors.New("engine already started")
	ErrInvalidHistory     = errors.New("history points and interval must be positive")
)

// Config holds simulation engine settings.
type Config struct {
	TickInterval      time.Duration // Periodic tick (default: 2s)
	UpdateProbability float64       // Per-symbol chance of updating each tick (default: 0.8)
	HistoryPoints     int           // Seeded candle count per symbol (default: 120)
	HistoryInterval   time.Duration // Candle granularity (default: 1m)
	UpdateBuffer      int           // Updates channel capacity (default: 256)
	Seed              int64         // RNG seed; 0 means time-seeded
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		TickInterval:      2 * time.Second,
		UpdateProbability: 0.8,
		HistoryPoints:     120,
		HistoryInterval:   time.Minute,
		UpdateBuffer:      256,
	}
}
