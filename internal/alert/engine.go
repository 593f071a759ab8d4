package alert

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pulseboard/tickerd/internal/metrics"
	"github.com/pulseboard/tickerd/internal/model"
)

// Errors
var (
	ErrNotFound         = errors.New("alert not found")
	ErrUnknownSymbol    = errors.New("unknown symbol")
	ErrInvalidDirection = errors.New("direction must be above or below")
	ErrInvalidThreshold = errors.New("threshold must be > 0")
	ErrAlertFired       = errors.New("alert already fired")
)

// Default capacity of the triggered-event channel.
const defaultEventBuffer = 64

// SymbolSource reports whether a symbol is configured.
type SymbolSource interface {
	Has(symbol string) bool
}

// CreateParams are the user-supplied fields of a new alert.
type CreateParams struct {
	Symbol    string
	Direction model.AlertDirection
	Threshold float64
}

// userAlerts is one user's collection. Its lock serializes all
// mutations of the user's alerts, including firing.
type userAlerts struct {
	mu     sync.Mutex
	alerts map[uuid.UUID]*model.Alert
}

// entry links an indexed alert back to its owning collection so the
// evaluation path can lock the right owner.
type entry struct {
	owner *userAlerts
	alert *model.Alert
}

// Engine owns all alert state and evaluates armed alerts against the
// price-changed stream.
type Engine struct {
	symbols SymbolSource
	logger  *slog.Logger

	// mu guards the user map and the symbol index; individual alert
	// mutations are serialized by the owning user's lock.
	mu       sync.RWMutex
	users    map[string]*userAlerts
	bySymbol map[string]map[uuid.UUID]*entry

	events chan model.AlertEvent
}

// NewEngine creates an alert engine.
func NewEngine(symbols SymbolSource, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		symbols:  symbols,
		logger:   logger,
		users:    make(map[string]*userAlerts),
		bySymbol: make(map[string]map[uuid.UUID]*entry),
		events:   make(chan model.AlertEvent, defaultEventBuffer),
	}
}

// Events returns the triggered-alert stream. Closed by Close.
func (e *Engine) Events() <-chan model.AlertEvent {
	return e.events
}

// Close closes the triggered-alert stream. Call only after the last
// Evaluate.
func (e *Engine) Close() {
	close(e.events)
}

// Create validates and registers a new armed alert for userID.
func (e *Engine) Create(userID string, p CreateParams) (model.Alert, error) {
	if !e.symbols.Has(p.Symbol) {
		return model.Alert{}, fmt.Errorf("%w: %s", ErrUnknownSymbol, p.Symbol)
	}
	if !p.Direction.Valid() {
		return model.Alert{}, ErrInvalidDirection
	}
	if p.Threshold <= 0 {
		return model.Alert{}, ErrInvalidThreshold
	}

	a := &model.Alert{
		ID:        uuid.New(),
		UserID:    userID,
		Symbol:    p.Symbol,
		Direction: p.Direction,
		Threshold: p.Threshold,
		Active:    true,
		State:     model.StateArmed,
		CreatedAt: time.Now(),
	}

	e.mu.Lock()
	owner, ok := e.users[userID]
	if !ok {
		owner = &userAlerts{alerts: make(map[uuid.UUID]*model.Alert)}
		e.users[userID] = owner
	}
	idx, ok := e.bySymbol[p.Symbol]
	if !ok {
		idx = make(map[uuid.UUID]*entry)
		e.bySymbol[p.Symbol] = idx
	}
	idx[a.ID] = &entry{owner: owner, alert: a}
	e.mu.Unlock()

	owner.mu.Lock()
	owner.alerts[a.ID] = a
	snapshot := *a
	owner.mu.Unlock()

	e.logger.Info("alert created",
		"alert_id", a.ID,
		"user_id", userID,
		"symbol", p.Symbol,
		"direction", p.Direction,
		"threshold", p.Threshold,
	)

	return snapshot, nil
}

// Get returns a copy of one alert owned by userID.
func (e *Engine) Get(userID string, id uuid.UUID) (model.Alert, error) {
	owner := e.user(userID)
	if owner == nil {
		return model.Alert{}, ErrNotFound
	}

	owner.mu.Lock()
	defer owner.mu.Unlock()

	a, ok := owner.alerts[id]
	if !ok {
		return model.Alert{}, ErrNotFound
	}
	return *a, nil
}

// List returns copies of all alerts owned by userID, oldest first.
func (e *Engine) List(userID string) []model.Alert {
	owner := e.user(userID)
	if owner == nil {
		return []model.Alert{}
	}

	owner.mu.Lock()
	out := make([]model.Alert, 0, len(owner.alerts))
	for _, a := range owner.alerts {
		out = append(out, *a)
	}
	owner.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID.String() < out[j].ID.String()
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// Delete removes an alert owned by userID.
func (e *Engine) Delete(userID string, id uuid.UUID) error {
	owner := e.user(userID)
	if owner == nil {
		return ErrNotFound
	}

	owner.mu.Lock()
	a, ok := owner.alerts[id]
	if ok {
		delete(owner.alerts, id)
	}
	owner.mu.Unlock()

	if !ok {
		return ErrNotFound
	}

	e.mu.Lock()
	if idx, ok := e.bySymbol[a.Symbol]; ok {
		delete(idx, id)
	}
	e.mu.Unlock()

	e.logger.Info("alert deleted", "alert_id", id, "user_id", userID)
	return nil
}

// Toggle flips an alert's active flag. The trigger timestamp is never
// touched, and a fired alert cannot be toggled: its state is terminal.
func (e *Engine) Toggle(userID string, id uuid.UUID) (model.Alert, error) {
	owner := e.user(userID)
	if owner == nil {
		return model.Alert{}, ErrNotFound
	}

	owner.mu.Lock()
	defer owner.mu.Unlock()

	a, ok := owner.alerts[id]
	if !ok {
		return model.Alert{}, ErrNotFound
	}
	if a.Fired() {
		return model.Alert{}, ErrAlertFired
	}

	a.Active = !a.Active
	return *a, nil
}

// Evaluate checks every armed, active alert on the event's symbol
// against the new price and fires the ones whose condition holds.
// Called once per price-changed event, synchronously and in tick order,
// so a fired alert can never fire again and a crossing is never
// skipped.
func (e *Engine) Evaluate(st model.TickerState) {
	e.mu.RLock()
	idx, ok := e.bySymbol[st.Symbol]
	if !ok || len(idx) == 0 {
		e.mu.RUnlock()
		return
	}
	candidates := make([]*entry, 0, len(idx))
	for _, en := range idx {
		candidates = append(candidates, en)
	}
	e.mu.RUnlock()

	for _, en := range candidates {
		en.owner.mu.Lock()
		a := en.alert
		// Re-check under the owner's lock: the alert may have been
		// toggled, fired, or deleted since the index was copied.
		if a.State != model.StateArmed || !a.Active || !conditionHolds(*a, st.Price) {
			en.owner.mu.Unlock()
			continue
		}
		if _, stillOwned := en.owner.alerts[a.ID]; !stillOwned {
			en.owner.mu.Unlock()
			continue
		}

		now := time.Now()
		a.State = model.StateFired
		a.Active = false
		a.TriggeredAt = &now
		fired := *a
		en.owner.mu.Unlock()

		metrics.AlertsFiredTotal.Inc()
		e.emit(model.AlertEvent{
			Alert:   fired,
			Ticker:  st,
			Message: fireMessage(fired, st.Price),
		})
	}
}

// conditionHolds reports whether the price satisfies the alert's
// threshold condition.
func conditionHolds(a model.Alert, price float64) bool {
	switch a.Direction {
	case model.AlertAbove:
		return price >= a.Threshold
	case model.AlertBelow:
		return price <= a.Threshold
	}
	return false
}

// fireMessage builds the human-readable trigger message.
func fireMessage(a model.Alert, price float64) string {
	verb := "rose above"
	if a.Direction == model.AlertBelow {
		verb = "fell below"
	}
	return fmt.Sprintf("%s %s %.2f (price %.2f)", a.Symbol, verb, a.Threshold, price)
}

// emit pushes a triggered event without ever blocking evaluation. The
// state transition has already happened; a full buffer loses only the
// notification.
func (e *Engine) emit(evt model.AlertEvent) {
	select {
	case e.events <- evt:
	default:
		e.logger.Warn("alert event buffer full, dropping",
			"alert_id", evt.Alert.ID,
			"symbol", evt.Alert.Symbol,
		)
	}

	e.logger.Info("alert fired",
		"alert_id", evt.Alert.ID,
		"user_id", evt.Alert.UserID,
		"symbol", evt.Alert.Symbol,
		"threshold", evt.Alert.Threshold,
		"price", evt.Ticker.Price,
	)
}

// user returns the user's collection, or nil.
func (e *Engine) user(userID string) *userAlerts {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.users[userID]
}
