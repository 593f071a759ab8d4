package model

import (
	"time"

	"github.com/google/uuid"
)

// -----------------------------------------------------------------------------
// Instrument Configuration
// -----------------------------------------------------------------------------

// Instrument is the static per-symbol configuration loaded at startup.
// It is never mutated after process start.
type Instrument struct {
	Symbol     string  `yaml:"symbol" json:"symbol"`          // Unique key (e.g., "AAPL")
	Name       string  `yaml:"name" json:"name"`              // Display name
	BasePrice  float64 `yaml:"base_price" json:"basePrice"`   // Anchor price for the random walk
	Volatility float64 `yaml:"volatility" json:"volatility"`  // Fractional daily stdev proxy
	TrendBias  float64 `yaml:"trend_bias" json:"trendBias"`   // Directional drift, typically [-1, 1]
	MinPrice   float64 `yaml:"min_price" json:"minPrice"`     // Hard lower bound
	MaxPrice   float64 `yaml:"max_price" json:"maxPrice"`     // Hard upper bound
	BaseVolume int64   `yaml:"base_volume" json:"baseVolume"` // Volume increment magnitude per tick
}

// -----------------------------------------------------------------------------
// Live Ticker State
// -----------------------------------------------------------------------------

// TickerState is a point-in-time snapshot of a symbol's live state.
// The simulation engine owns the mutable original; everything outside the
// engine only ever sees copies of this struct.
//
// Invariants after every update: Low <= Price <= High, and Price lies
// within the instrument's [MinPrice, MaxPrice].
type TickerState struct {
	Symbol        string    `json:"symbol"`
	Name          string    `json:"name"`
	Price         float64   `json:"price"`
	PrevClose     float64   `json:"prevClose"`     // Price before the latest update
	Change        float64   `json:"change"`        // Price - PrevClose
	ChangePercent float64   `json:"changePercent"` // Change / PrevClose * 100
	High          float64   `json:"high"`          // Running session high
	Low           float64   `json:"low"`           // Running session low
	Volume        int64     `json:"volume"`        // Cumulative session volume
	UpdatedAt     time.Time `json:"updatedAt"`
}

// -----------------------------------------------------------------------------
// Historical Series
// -----------------------------------------------------------------------------

// Candle is one OHLCV point of a symbol's historical series.
// Immutable once generated. Satisfies Low <= min(Open, Close) and
// High >= max(Open, Close).
type Candle struct {
	Timestamp time.Time `json:"timestamp"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    int64     `json:"volume"`
}

// -----------------------------------------------------------------------------
// Alerts
// -----------------------------------------------------------------------------

// AlertDirection says which way the price must cross the threshold.
type AlertDirection string

const (
	AlertAbove AlertDirection = "above" // Fires when price >= threshold
	AlertBelow AlertDirection = "below" // Fires when price <= threshold
)

// Valid reports whether d is a known direction.
func (d AlertDirection) Valid() bool {
	return d == AlertAbove || d == AlertBelow
}

// AlertState is the explicit lifecycle state of an alert. The fired
// state is terminal; it is tracked as a tagged value rather than
// inferred from the presence of a timestamp.
type AlertState string

const (
	StateArmed AlertState = "armed"
	StateFired AlertState = "fired"
)

// Alert is a user-owned threshold alert on one symbol.
type Alert struct {
	ID        uuid.UUID      `json:"id"`
	UserID    string         `json:"userId"`
	Symbol    string         `json:"symbol"`
	Direction AlertDirection `json:"direction"`
	Threshold float64        `json:"threshold"`
	Active    bool           `json:"active"`
	State     AlertState     `json:"state"`
	CreatedAt time.Time      `json:"createdAt"`
	// TriggeredAt is set exactly once, when the alert fires. Nil until then.
	TriggeredAt *time.Time `json:"triggeredAt,omitempty"`
}

// Fired reports whether the alert has reached its terminal state.
func (a Alert) Fired() bool {
	return a.State == StateFired
}

// AlertEvent is emitted by the alert engine when an alert fires. It
// carries the alert as of fire time and the ticker snapshot that
// triggered it.
type AlertEvent struct {
	Alert   Alert       `json:"alert"`
	Ticker  TickerState `json:"ticker"`
	Message string      `json:"message"`
}
