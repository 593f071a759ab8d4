package config

import (
	"time"

	"github.com/pulseboard/tickerd/internal/model"
)

// Config is the root configuration for a tickerd instance.
type Config struct {
	Server      ServerConfig       `yaml:"server"`
	Log         LogConfig          `yaml:"log"`
	Simulation  SimulationConfig   `yaml:"simulation"`
	Gateway     GatewayConfig      `yaml:"gateway"`
	Cache       CacheConfig        `yaml:"cache"`
	Instruments []model.Instrument `yaml:"instruments"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Addr        string `yaml:"addr"`         // API + WebSocket listener (e.g., ":8080")
	MetricsAddr string `yaml:"metrics_addr"` // Prometheus listener (e.g., ":9091")
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `yaml:"level"` // "debug", "info", "warn", "error"
}

// SimulationConfig holds price simulation engine settings.
type SimulationConfig struct {
	TickInterval      time.Duration `yaml:"tick_interval"`      // Periodic tick (bounded 1-10s)
	UpdateProbability float64       `yaml:"update_probability"` // Per-symbol chance of updating each tick
	HistoryPoints     int           `yaml:"history_points"`     // Seeded candle count per symbol
	HistoryInterval   time.Duration `yaml:"history_interval"`   // Candle granularity
	UpdateBuffer      int           `yaml:"update_buffer"`      // Price-changed channel capacity
	Seed              int64         `yaml:"seed"`               // RNG seed; 0 means time-seeded
}

// GatewayConfig holds WebSocket gateway settings.
type GatewayConfig struct {
	SendBuffer     int           `yaml:"send_buffer"`      // Per-connection outbound queue
	WriteTimeout   time.Duration `yaml:"write_timeout"`    // Per-message write deadline
	PongTimeout    time.Duration `yaml:"pong_timeout"`     // Read deadline between pongs
	PingInterval   time.Duration `yaml:"ping_interval"`    // Server ping cadence
	MaxMessageSize int64         `yaml:"max_message_size"` // Inbound frame size cap
	CommandRate    float64       `yaml:"command_rate"`     // Inbound commands per second per connection
	CommandBurst   int           `yaml:"command_burst"`    // Inbound command burst per connection
}

// CacheConfig holds response cache settings.
type CacheConfig struct {
	TTL time.Duration `yaml:"ttl"`
}
