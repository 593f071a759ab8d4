package config

import (
	"time"

	"github.com/pulseboard/tickerd/internal/model"
)

// Default values for optional configuration fields.
const (
	DefaultAddr              = ":8080"
	DefaultMetricsAddr       = ":9091"
	DefaultLogLevel          = "info"
	DefaultTickInterval      = 2 * time.Second
	DefaultUpdateProbability = 0.8
	DefaultHistoryPoints     = 120
	DefaultHistoryInterval   = time.Minute
	DefaultUpdateBuffer      = 256
	DefaultSendBuffer        = 256
	DefaultWriteTimeout      = 5 * time.Second
	DefaultPongTimeout       = 60 * time.Second
	DefaultPingInterval      = 30 * time.Second
	DefaultMaxMessageSize    = 4096
	DefaultCommandRate       = 10.0
	DefaultCommandBurst      = 20
	DefaultCacheTTL          = 5 * time.Second
)

func (c *Config) applyDefaults() {
	// Server defaults
	if c.Server.Addr == "" {
		c.Server.Addr = DefaultAddr
	}
	if c.Server.MetricsAddr == "" {
		c.Server.MetricsAddr = DefaultMetricsAddr
	}

	// Log defaults
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}

	// Simulation defaults
	if c.Simulation.TickInterval == 0 {
		c.Simulation.TickInterval = DefaultTickInterval
	}
	if c.Simulation.UpdateProbability == 0 {
		c.Simulation.UpdateProbability = DefaultUpdateProbability
	}
	if c.Simulation.HistoryPoints == 0 {
		c.Simulation.HistoryPoints = DefaultHistoryPoints
	}
	if c.Simulation.HistoryInterval == 0 {
		c.Simulation.HistoryInterval = DefaultHistoryInterval
	}
	if c.Simulation.UpdateBuffer == 0 {
		c.Simulation.UpdateBuffer = DefaultUpdateBuffer
	}

	// Gateway defaults
	if c.Gateway.SendBuffer == 0 {
		c.Gateway.SendBuffer = DefaultSendBuffer
	}
	if c.Gateway.WriteTimeout == 0 {
		c.Gateway.WriteTimeout = DefaultWriteTimeout
	}
	if c.Gateway.PongTimeout == 0 {
		c.Gateway.PongTimeout = DefaultPongTimeout
	}
	if c.Gateway.PingInterval == 0 {
		c.Gateway.PingInterval = DefaultPingInterval
	}
	if c.Gateway.MaxMessageSize == 0 {
		c.Gateway.MaxMessageSize = DefaultMaxMessageSize
	}
	if c.Gateway.CommandRate == 0 {
		c.Gateway.CommandRate = DefaultCommandRate
	}
	if c.Gateway.CommandBurst == 0 {
		c.Gateway.CommandBurst = DefaultCommandBurst
	}

	// Cache defaults
	if c.Cache.TTL == 0 {
		c.Cache.TTL = DefaultCacheTTL
	}

	// Instrument defaults
	if len(c.Instruments) == 0 {
		c.Instruments = DefaultInstruments()
	}
}

// DefaultInstruments returns the built-in instrument set used when the
// config file lists none.
func DefaultInstruments() []model.Instrument {
	return []model.Instrument{
		{Symbol: "AAPL", Name: "Apple Inc.", BasePrice: 180.00, Volatility: 0.020, TrendBias: 0.10, MinPrice: 150.00, MaxPrice: 220.00, BaseVolume: 1_000_000},
		{Symbol: "GOOGL", Name: "Alphabet Inc.", BasePrice: 140.00, Volatility: 0.025, TrendBias: 0.05, MinPrice: 110.00, MaxPrice: 175.00, BaseVolume: 800_000},
		{Symbol: "MSFT", Name: "Microsoft Corp.", BasePrice: 380.00, Volatility: 0.018, TrendBias: 0.15, MinPrice: 320.00, MaxPrice: 450.00, BaseVolume: 900_000},
		{Symbol: "AMZN", Name: "Amazon.com Inc.", BasePrice: 155.00, Volatility: 0.028, TrendBias: 0.00, MinPrice: 120.00, MaxPrice: 195.00, BaseVolume: 1_100_000},
		{Symbol: "TSLA", Name: "Tesla Inc.", BasePrice: 250.00, Volatility: 0.045, TrendBias: -0.05, MinPrice: 180.00, MaxPrice: 330.00, BaseVolume: 1_500_000},
		{Symbol: "NVDA", Name: "NVIDIA Corp.", BasePrice: 480.00, Volatility: 0.040, TrendBias: 0.20, MinPrice: 380.00, MaxPrice: 620.00, BaseVolume: 1_300_000},
		{Symbol: "META", Name: "Meta Platforms Inc.", BasePrice: 350.00, Volatility: 0.030, TrendBias: 0.10, MinPrice: 280.00, MaxPrice: 440.00, BaseVolume: 700_000},
		{Symbol: "NFLX", Name: "Netflix Inc.", BasePrice: 480.00, Volatility: 0.032, TrendBias: 0.05, MinPrice: 390.00, MaxPrice: 590.00, BaseVolume: 500_000},
	}
}
