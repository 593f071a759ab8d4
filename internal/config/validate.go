package config

import (
	"errors"
	"fmt"

	"github.com/pulseboard/tickerd/internal/sim"
)

// Validate checks that all values are within their allowed ranges.
// Instrument configs are validated separately by the instrument registry
// at construction; Validate only checks that some exist.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return errors.New("server.addr is required")
	}
	if c.Server.MetricsAddr == "" {
		return errors.New("server.metrics_addr is required")
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be one of debug/info/warn/error, got %q", c.Log.Level)
	}

	if c.Simulation.TickInterval < sim.MinTickInterval || c.Simulation.TickInterval > sim.MaxTickInterval {
		return fmt.Errorf("simulation.tick_interval must be between %s and %s, got %s",
			sim.MinTickInterval, sim.MaxTickInterval, c.Simulation.TickInterval)
	}
	if c.Simulation.UpdateProbability <= 0 || c.Simulation.UpdateProbability > 1 {
		return fmt.Errorf("simulation.update_probability must be in (0, 1], got %g",
			c.Simulation.UpdateProbability)
	}
	if c.Simulation.HistoryPoints < 1 {
		return errors.New("simulation.history_points must be >= 1")
	}
	if c.Simulation.HistoryInterval <= 0 {
		return errors.New("simulation.history_interval must be > 0")
	}
	if c.Simulation.UpdateBuffer < 1 {
		return errors.New("simulation.update_buffer must be >= 1")
	}

	if c.Gateway.SendBuffer < 1 {
		return errors.New("gateway.send_buffer must be >= 1")
	}
	if c.Gateway.WriteTimeout <= 0 {
		return errors.New("gateway.write_timeout must be > 0")
	}
	if c.Gateway.PongTimeout <= 0 {
		return errors.New("gateway.pong_timeout must be > 0")
	}
	if c.Gateway.PingInterval <= 0 {
		return errors.New("gateway.ping_interval must be > 0")
	}
	if c.Gateway.PingInterval >= c.Gateway.PongTimeout {
		return fmt.Errorf("gateway.ping_interval (%s) must be below gateway.pong_timeout (%s)",
			c.Gateway.PingInterval, c.Gateway.PongTimeout)
	}
	if c.Gateway.MaxMessageSize < 1 {
		return errors.New("gateway.max_message_size must be >= 1")
	}
	if c.Gateway.CommandRate <= 0 {
		return errors.New("gateway.command_rate must be > 0")
	}
	if c.Gateway.CommandBurst < 1 {
		return errors.New("gateway.command_burst must be >= 1")
	}

	if c.Cache.TTL <= 0 {
		return errors.New("cache.ttl must be > 0")
	}

	if len(c.Instruments) == 0 {
		return errors.New("at least one instrument is required")
	}

	return nil
}
