package sim

import (
	"context"
	"hash/fnv"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pulseboard/tickerd/internal/instrument"
	"github.com/pulseboard/tickerd/internal/metrics"
	"github.com/pulseboard/tickerd/internal/model"
)

// Engine owns the live ticker state and historical series for every
// configured instrument and advances prices on a periodic tick.
type Engine struct {
	cfg      Config
	registry *instrument.Registry
	logger   *slog.Logger

	// rng is used only by the engine goroutine after Start; New also
	// uses it before the loop exists.
	rng *rand.Rand

	mu       sync.RWMutex
	states   map[string]*model.TickerState
	history  map[string][]model.Candle
	open     bool
	interval time.Duration

	// Output: one snapshot per updated symbol per tick.
	updates    chan model.TickerState
	intervalCh chan time.Duration

	started bool
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewEngine seeds the historical series for every instrument and builds
// the initial live state, continuous with each symbol's last historical
// close. The registry must already be validated.
func NewEngine(cfg Config, registry *instrument.Registry, logger *slog.Logger) (*Engine, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.HistoryPoints < 1 || cfg.HistoryInterval <= 0 {
		return nil, ErrInvalidHistory
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	e := &Engine{
		cfg:        cfg,
		registry:   registry,
		logger:     logger,
		rng:        rand.New(rand.NewSource(seed)),
		states:     make(map[string]*model.TickerState, registry.Len()),
		history:    make(map[string][]model.Candle, registry.Len()),
		open:       true,
		interval:   cfg.TickInterval,
		updates:    make(chan model.TickerState, cfg.UpdateBuffer),
		intervalCh: make(chan time.Duration, 1),
	}

	if err := e.seedAll(seed); err != nil {
		return nil, err
	}

	logger.Info("simulation engine seeded",
		"symbols", registry.Len(),
		"history_points", cfg.HistoryPoints,
		"candle_interval", cfg.HistoryInterval,
	)

	return e, nil
}

// seedAll generates history for all instruments concurrently. Each
// symbol gets its own deterministic sub-seed so results do not depend on
// goroutine scheduling.
func (e *Engine) seedAll(seed int64) error {
	now := time.Now()
	var g errgroup.Group
	var mu sync.Mutex

	for _, inst := range e.registry.All() {
		inst := inst
		g.Go(func() error {
			rng := rand.New(rand.NewSource(seed ^ symbolSeed(inst.Symbol)))
			candles := seedHistory(rng, inst, e.cfg.HistoryPoints, e.cfg.HistoryInterval, now)
			lastClose := candles[len(candles)-1].Close

			mu.Lock()
			e.history[inst.Symbol] = candles
			e.states[inst.Symbol] = &model.TickerState{
				Symbol:    inst.Symbol,
				Name:      inst.Name,
				Price:     lastClose,
				PrevClose: lastClose,
				High:      lastClose,
				Low:       lastClose,
				UpdatedAt: now,
			}
			mu.Unlock()
			return nil
		})
	}

	return g.Wait()
}

func symbolSeed(symbol string) int64 {
	h := fnv.New64a()
	h.Write([]byte(symbol))
	return int64(h.Sum64())
}

// Start begins the tick loop.
func (e *Engine) Start(ctx context.Context) error {
	if e.started {
		return ErrAlreadyStarted
	}
	e.started = true
	e.ctx, e.cancel = context.WithCancel(ctx)

	e.wg.Add(1)
	go e.run()

	e.logger.Info("simulation engine started",
		"tick_interval", e.interval,
		"update_probability", e.cfg.UpdateProbability,
	)

	return nil
}

// Stop gracefully shuts down the tick loop and closes the updates
// channel.
func (e *Engine) Stop(ctx context.Context) error {
	if e.cancel != nil {
		e.cancel()
	}

	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	close(e.updates)
	e.logger.Info("simulation engine stopped")
	return nil
}

// Updates returns the price-changed stream. One snapshot per updated
// symbol per tick, in tick order. The channel is closed by Stop.
func (e *Engine) Updates() <-chan model.TickerState {
	return e.updates
}

// run is the tick loop.
func (e *Engine) run() {
	defer e.wg.Done()

	ticker := time.NewTicker(e.TickInterval())
	defer ticker.Stop()

	for {
		select {
		case <-e.ctx.Done():
			return
		case d := <-e.intervalCh:
			ticker.Reset(d)
		case <-ticker.C:
			e.tick()
		}
	}
}

// tick advances every symbol once. Each symbol updates with the
// configured probability; skipped symbols emit nothing.
func (e *Engine) tick() {
	now := time.Now()

	e.mu.Lock()
	if !e.open {
		e.mu.Unlock()
		return
	}

	var emitted []model.TickerState
	for _, inst := range e.registry.All() {
		if e.rng.Float64() > e.cfg.UpdateProbability {
			continue
		}

		st := e.states[inst.Symbol]
		prev := st.Price
		price := nextPrice(e.rng, inst, prev)

		st.PrevClose = prev
		st.Price = price
		st.Change = price - prev
		if prev != 0 {
			st.ChangePercent = (price - prev) / prev * 100
		}
		if price > st.High {
			st.High = price
		}
		if price < st.Low {
			st.Low = price
		}
		st.Volume += volumeIncrement(e.rng, inst)
		st.UpdatedAt = now

		emitted = append(emitted, *st)
	}
	e.mu.Unlock()

	metrics.TicksTotal.Inc()

	for _, snap := range emitted {
		select {
		case e.updates <- snap:
			metrics.PriceUpdatesTotal.Inc()
		default:
			metrics.UpdatesDroppedTotal.Inc()
			e.logger.Warn("updates buffer full, dropping", "symbol", snap.Symbol)
		}
	}
}

// Snapshot returns a copy of one symbol's live state.
func (e *Engine) Snapshot(symbol string) (model.TickerState, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	st, ok := e.states[symbol]
	if !ok {
		return model.TickerState{}, false
	}
	return *st, true
}

// Snapshots returns copies of every symbol's live state, sorted by
// symbol.
func (e *Engine) Snapshots() []model.TickerState {
	e.mu.RLock()
	defer e.mu.RUnlock()

	out := make([]model.TickerState, 0, len(e.states))
	for _, inst := range e.registry.All() {
		out = append(out, *e.states[inst.Symbol])
	}
	return out
}

// History returns up to limit most recent candles for symbol. A limit
// of zero or beyond the seeded window returns the full window.
func (e *Engine) History(symbol string, limit int) ([]model.Candle, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	candles, ok := e.history[symbol]
	if !ok {
		return nil, false
	}
	if limit <= 0 || limit > len(candles) {
		limit = len(candles)
	}

	out := make([]model.Candle, limit)
	copy(out, candles[len(candles)-limit:])
	return out, true
}

// SetTickInterval changes the tick cadence. Values outside
// [MinTickInterval, MaxTickInterval] are rejected.
func (e *Engine) SetTickInterval(d time.Duration) error {
	if d < MinTickInterval || d > MaxTickInterval {
		return ErrIntervalOutOfRange
	}

	e.mu.Lock()
	e.interval = d
	e.mu.Unlock()

	// Nudge the run loop; drain a stale pending value first.
	select {
	case <-e.intervalCh:
	default:
	}
	e.intervalCh <- d

	e.logger.Info("tick interval changed", "interval", d)
	return nil
}

// TickInterval returns the current tick cadence.
func (e *Engine) TickInterval() time.Duration {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.interval
}

// SetMarketOpen opens or closes the market. While closed, ticks are
// no-ops and nothing is emitted.
func (e *Engine) SetMarketOpen(open bool) {
	e.mu.Lock()
	changed := e.open != open
	e.open = open
	e.mu.Unlock()

	if changed {
		e.logger.Info("market state changed", "open", open)
	}
}

// MarketOpen reports whether the market is open.
func (e *Engine) MarketOpen() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.open
}
