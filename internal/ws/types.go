package ws

import (
	"errors"
	"time"
)

// Errors
var (
	ErrClosed       = errors.New("connection closed")
	ErrSlowConsumer = errors.New("send buffer full")
)

// Config holds gateway settings.
type Config struct {
	SendBuffer     int           // Per-connection outbound queue (default: 256)
	WriteTimeout   time.Duration // Per-message write deadline (default: 5s)
	PongTimeout    time.Duration // Read deadline between pongs (default: 60s)
	PingInterval   time.Duration // Server ping cadence; must be < PongTimeout (default: 30s)
	MaxMessageSize int64         // Inbound frame size cap (default: 4096)
	CommandRate    float64       // Inbound commands per second per connection (default: 10)
	CommandBurst   int           // Inbound command burst per connection (default: 20)
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		SendBuffer:     256,
		WriteTimeout:   5 * time.Second,
		PongTimeout:    60 * time.Second,
		PingInterval:   30 * time.Second,
		MaxMessageSize: 4096,
		CommandRate:    10,
		CommandBurst:   20,
	}
}
