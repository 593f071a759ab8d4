package hub

import (
	"log/slog"
	"sync"

	"github.com/pulseboard/tickerd/internal/metrics"
	"github.com/pulseboard/tickerd/internal/model"
	"github.com/pulseboard/tickerd/internal/protocol"
)

// Conn is the hub's view of a live connection. Send must not block: a
// connection that cannot accept the message returns an error and is
// pruned.
type Conn interface {
	ID() string
	Send(msg protocol.Message) error
}

// SnapshotSource provides current ticker state for the snapshot pushed
// on first subscribe.
type SnapshotSource interface {
	Snapshot(symbol string) (model.TickerState, bool)
}

// Per-symbol subscription statuses.
const (
	StatusSubscribed        = "subscribed"
	StatusAlreadySubscribed = "already_subscribed"
	StatusUnsubscribed      = "unsubscribed"
	StatusNotSubscribed     = "not_subscribed"
	StatusUnknownSymbol     = "unknown_symbol"
)

// Stats holds hub counters for the debug surface.
type Stats struct {
	Connections   int `json:"connections"`
	Subscriptions int `json:"subscriptions"`
}

// interest is one symbol's connection set.
type interest struct {
	mu      sync.RWMutex
	members map[string]Conn
}

// connEntry tracks one connection's subscribed symbols.
type connEntry struct {
	conn    Conn
	mu      sync.Mutex
	symbols map[string]struct{}
}

// Hub fans price-changed events out to interested connections.
type Hub struct {
	source SnapshotSource
	logger *slog.Logger

	// interests is keyed by symbol and immutable after construction;
	// each set serializes its own membership changes.
	interests map[string]*interest

	connsMu sync.RWMutex
	conns   map[string]*connEntry
}

// New creates a hub with one interest set per symbol.
func New(symbols []string, source SnapshotSource, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}

	interests := make(map[string]*interest, len(symbols))
	for _, sym := range symbols {
		interests[sym] = &interest{members: make(map[string]Conn)}
	}

	return &Hub{
		source:    source,
		logger:    logger,
		interests: interests,
		conns:     make(map[string]*connEntry),
	}
}

// Register adds a connection to the hub. Idempotent.
func (h *Hub) Register(conn Conn) {
	h.connsMu.Lock()
	defer h.connsMu.Unlock()

	if _, exists := h.conns[conn.ID()]; exists {
		return
	}
	h.conns[conn.ID()] = &connEntry{
		conn:    conn,
		symbols: make(map[string]struct{}),
	}
	metrics.ConnectedClients.Inc()
	h.logger.Debug("connection registered", "conn_id", conn.ID())
}

// Subscribe adds the connection to each symbol's interest set and
// reports a per-symbol status; unknown symbols do not fail the batch.
// On the first successful subscribe to a symbol the current ticker
// snapshot is pushed point-to-point to the new subscriber.
func (h *Hub) Subscribe(conn Conn, symbols []string) []protocol.SubscriptionResult {
	entry := h.getOrRegister(conn)
	results := make([]protocol.SubscriptionResult, 0, len(symbols))
	var snapshots []model.TickerState

	for _, sym := range symbols {
		set, ok := h.interests[sym]
		if !ok {
			results = append(results, protocol.SubscriptionResult{Symbol: sym, Status: StatusUnknownSymbol})
			continue
		}

		entry.mu.Lock()
		_, already := entry.symbols[sym]
		if !already {
			entry.symbols[sym] = struct{}{}
		}
		entry.mu.Unlock()

		if already {
			results = append(results, protocol.SubscriptionResult{Symbol: sym, Status: StatusAlreadySubscribed})
			continue
		}

		set.mu.Lock()
		set.members[conn.ID()] = conn
		set.mu.Unlock()

		// A disconnect may race the batch: prune derives its cleanup
		// list from the entry's recorded symbols, so an insert landing
		// after prune ran would leak the membership forever. Re-check
		// registration after the insert and back out if the connection
		// is gone.
		if !h.registered(conn.ID()) {
			set.mu.Lock()
			delete(set.members, conn.ID())
			set.mu.Unlock()
			return results
		}

		results = append(results, protocol.SubscriptionResult{Symbol: sym, Status: StatusSubscribed})

		if st, ok := h.source.Snapshot(sym); ok {
			snapshots = append(snapshots, st)
		}
	}

	// Push initial snapshots after all set mutations so a dead
	// connection prunes cleanly.
	for _, st := range snapshots {
		if err := conn.Send(protocol.New(protocol.TypePriceUpdate, protocol.PriceUpdateFrom(st))); err != nil {
			h.prune(conn.ID())
			break
		}
	}

	return results
}

// Unsubscribe removes the connection from each symbol's interest set.
// Unsubscribing from a never-subscribed symbol is reported, not an
// error.
func (h *Hub) Unsubscribe(conn Conn, symbols []string) []protocol.SubscriptionResult {
	entry := h.getOrRegister(conn)
	results := make([]protocol.SubscriptionResult, 0, len(symbols))

	for _, sym := range symbols {
		set, ok := h.interests[sym]
		if !ok {
			results = append(results, protocol.SubscriptionResult{Symbol: sym, Status: StatusUnknownSymbol})
			continue
		}

		entry.mu.Lock()
		_, subscribed := entry.symbols[sym]
		if subscribed {
			delete(entry.symbols, sym)
		}
		entry.mu.Unlock()

		if !subscribed {
			results = append(results, protocol.SubscriptionResult{Symbol: sym, Status: StatusNotSubscribed})
			continue
		}

		set.mu.Lock()
		delete(set.members, conn.ID())
		set.mu.Unlock()

		results = append(results, protocol.SubscriptionResult{Symbol: sym, Status: StatusUnsubscribed})
	}

	return results
}

// Disconnect removes the connection from every interest set and from
// the hub. Idempotent; safe for connections that never subscribed.
func (h *Hub) Disconnect(conn Conn) {
	h.prune(conn.ID())
}

// prune removes a connection by id from everything it belongs to.
func (h *Hub) prune(connID string) {
	h.connsMu.Lock()
	entry, ok := h.conns[connID]
	if ok {
		delete(h.conns, connID)
	}
	h.connsMu.Unlock()

	if !ok {
		return
	}

	entry.mu.Lock()
	symbols := make([]string, 0, len(entry.symbols))
	for sym := range entry.symbols {
		symbols = append(symbols, sym)
	}
	entry.symbols = make(map[string]struct{})
	entry.mu.Unlock()

	for _, sym := range symbols {
		set := h.interests[sym]
		set.mu.Lock()
		delete(set.members, connID)
		set.mu.Unlock()
	}

	metrics.ConnectedClients.Dec()
	h.logger.Debug("connection pruned", "conn_id", connID, "symbols", len(symbols))
}

// OnPriceUpdate fans one price-changed event out to the symbol's
// interest set. Failed sends prune the connection (self-healing).
func (h *Hub) OnPriceUpdate(st model.TickerState) {
	set, ok := h.interests[st.Symbol]
	if !ok {
		return
	}

	set.mu.RLock()
	targets := make([]Conn, 0, len(set.members))
	for _, c := range set.members {
		targets = append(targets, c)
	}
	set.mu.RUnlock()

	if len(targets) == 0 {
		return
	}

	msg := protocol.New(protocol.TypePriceUpdate, protocol.PriceUpdateFrom(st))
	for _, c := range targets {
		if err := c.Send(msg); err != nil {
			metrics.BroadcastErrorsTotal.Inc()
			h.logger.Debug("send failed, pruning connection",
				"conn_id", c.ID(),
				"symbol", st.Symbol,
				"error", err,
			)
			h.prune(c.ID())
			continue
		}
		metrics.BroadcastSendsTotal.Inc()
	}
}

// BroadcastAll pushes a message to every registered connection,
// regardless of subscriptions. Used for triggered-alert events.
func (h *Hub) BroadcastAll(msg protocol.Message) {
	h.connsMu.RLock()
	targets := make([]Conn, 0, len(h.conns))
	for _, e := range h.conns {
		targets = append(targets, e.conn)
	}
	h.connsMu.RUnlock()

	for _, c := range targets {
		if err := c.Send(msg); err != nil {
			metrics.BroadcastErrorsTotal.Inc()
			h.prune(c.ID())
			continue
		}
		metrics.BroadcastSendsTotal.Inc()
	}
}

// Subscribed reports whether the connection is currently in symbol's
// interest set.
func (h *Hub) Subscribed(connID, symbol string) bool {
	set, ok := h.interests[symbol]
	if !ok {
		return false
	}
	set.mu.RLock()
	defer set.mu.RUnlock()
	_, in := set.members[connID]
	return in
}

// Stats returns current hub counters.
func (h *Hub) Stats() Stats {
	h.connsMu.RLock()
	conns := len(h.conns)
	h.connsMu.RUnlock()

	subs := 0
	for _, set := range h.interests {
		set.mu.RLock()
		subs += len(set.members)
		set.mu.RUnlock()
	}

	return Stats{Connections: conns, Subscriptions: subs}
}

// registered reports whether the connection id is currently in the hub.
func (h *Hub) registered(connID string) bool {
	h.connsMu.RLock()
	defer h.connsMu.RUnlock()
	_, ok := h.conns[connID]
	return ok
}

// getOrRegister returns the connection's entry, registering it first if
// needed.
func (h *Hub) getOrRegister(conn Conn) *connEntry {
	h.connsMu.RLock()
	entry, ok := h.conns[conn.ID()]
	h.connsMu.RUnlock()
	if ok {
		return entry
	}

	h.Register(conn)

	h.connsMu.RLock()
	entry = h.conns[conn.ID()]
	h.connsMu.RUnlock()
	return entry
}
