package hub

import (
	"errors"
	"log/slog"
	"sync"
	"testing"

	"github.com/pulseboard/tickerd/internal/model"
	"github.com/pulseboard/tickerd/internal/protocol"
)

// fakeConn records everything sent to it and can be switched to fail.
type fakeConn struct {
	id string

	mu   sync.Mutex
	sent []protocol.Message
	fail bool
}

func (c *fakeConn) ID() string { return c.id }

func (c *fakeConn) Send(msg protocol.Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail {
		return errors.New("send failed")
	}
	c.sent = append(c.sent, msg)
	return nil
}

func (c *fakeConn) messages() []protocol.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]protocol.Message, len(c.sent))
	copy(out, c.sent)
	return out
}

func (c *fakeConn) setFail(fail bool) {
	c.mu.Lock()
	c.fail = fail
	c.mu.Unlock()
}

// fakeSource serves canned snapshots. onSnapshot, when set, runs before
// each lookup so tests can interleave hub calls with a subscribe batch.
type fakeSource struct {
	states     map[string]model.TickerState
	onSnapshot func(symbol string)
}

func (s *fakeSource) Snapshot(symbol string) (model.TickerState, bool) {
	if s.onSnapshot != nil {
		s.onSnapshot(symbol)
	}
	st, ok := s.states[symbol]
	return st, ok
}

func testHub() (*Hub, *fakeSource) {
	source := &fakeSource{states: map[string]model.TickerState{
		"AAPL": {Symbol: "AAPL", Price: 180},
		"TSLA": {Symbol: "TSLA", Price: 250},
	}}
	return New([]string{"AAPL", "TSLA"}, source, slog.Default()), source
}

func TestSubscribe_PerSymbolStatuses(t *testing.T) {
	h, _ := testHub()
	conn := &fakeConn{id: "c1"}

	results := h.Subscribe(conn, []string{"AAPL", "NOPE", "TSLA"})

	want := map[string]string{
		"AAPL": StatusSubscribed,
		"NOPE": StatusUnknownSymbol,
		"TSLA": StatusSubscribed,
	}
	if len(results) != len(want) {
		t.Fatalf("got %d results, want %d", len(results), len(want))
	}
	for _, r := range results {
		if want[r.Symbol] != r.Status {
			t.Errorf("symbol %s: status %q, want %q", r.Symbol, r.Status, want[r.Symbol])
		}
	}

	if !h.Subscribed("c1", "AAPL") || !h.Subscribed("c1", "TSLA") {
		t.Error("connection missing from interest sets after subscribe")
	}
	if h.Subscribed("c1", "NOPE") {
		t.Error("connection subscribed to unknown symbol")
	}
}

func TestSubscribe_Idempotent(t *testing.T) {
	h, _ := testHub()
	conn := &fakeConn{id: "c1"}

	h.Subscribe(conn, []string{"AAPL"})
	results := h.Subscribe(conn, []string{"AAPL"})

	if results[0].Status != StatusAlreadySubscribed {
		t.Errorf("second subscribe status = %q, want %q", results[0].Status, StatusAlreadySubscribed)
	}
	if got := h.Stats().Subscriptions; got != 1 {
		t.Errorf("subscriptions = %d after duplicate subscribe, want 1", got)
	}
}

func TestSubscribe_PushesSnapshot(t *testing.T) {
	h, _ := testHub()
	conn := &fakeConn{id: "c1"}

	h.Subscribe(conn, []string{"AAPL"})

	msgs := conn.messages()
	if len(msgs) != 1 {
		t.Fatalf("got %d messages after first subscribe, want 1 snapshot", len(msgs))
	}
	if msgs[0].Type != protocol.TypePriceUpdate {
		t.Errorf("snapshot type = %q, want %q", msgs[0].Type, protocol.TypePriceUpdate)
	}
	payload, ok := msgs[0].Payload.(protocol.PriceUpdatePayload)
	if !ok {
		t.Fatalf("snapshot payload has type %T", msgs[0].Payload)
	}
	if payload.Symbol != "AAPL" || payload.Price != 180 {
		t.Errorf("snapshot payload = %+v", payload)
	}

	// No second snapshot on the duplicate subscribe.
	h.Subscribe(conn, []string{"AAPL"})
	if got := len(conn.messages()); got != 1 {
		t.Errorf("got %d messages after duplicate subscribe, want 1", got)
	}
}

func TestUnsubscribe(t *testing.T) {
	h, _ := testHub()
	conn := &fakeConn{id: "c1"}
	h.Subscribe(conn, []string{"AAPL"})

	results := h.Unsubscribe(conn, []string{"AAPL", "TSLA", "NOPE"})
	want := map[string]string{
		"AAPL": StatusUnsubscribed,
		"TSLA": StatusNotSubscribed,
		"NOPE": StatusUnknownSymbol,
	}
	for _, r := range results {
		if want[r.Symbol] != r.Status {
			t.Errorf("symbol %s: status %q, want %q", r.Symbol, r.Status, want[r.Symbol])
		}
	}

	if h.Subscribed("c1", "AAPL") {
		t.Error("still in interest set after unsubscribe")
	}

	// Unsubscribing twice reports not_subscribed.
	again := h.Unsubscribe(conn, []string{"AAPL"})
	if again[0].Status != StatusNotSubscribed {
		t.Errorf("second unsubscribe status = %q, want %q", again[0].Status, StatusNotSubscribed)
	}
}

func TestOnPriceUpdate_RoutesToSubscribersOnly(t *testing.T) {
	h, _ := testHub()
	sub := &fakeConn{id: "sub"}
	other := &fakeConn{id: "other"}
	h.Subscribe(sub, []string{"AAPL"})
	h.Subscribe(other, []string{"TSLA"})

	subBase := len(sub.messages()) // snapshot push
	h.OnPriceUpdate(model.TickerState{Symbol: "AAPL", Price: 181})

	if got := len(sub.messages()) - subBase; got != 1 {
		t.Errorf("subscriber received %d updates, want 1", got)
	}
	for _, msg := range other.messages() {
		if p, ok := msg.Payload.(protocol.PriceUpdatePayload); ok && p.Symbol == "AAPL" {
			t.Error("non-subscriber received AAPL update")
		}
	}

	// Unknown symbol is a no-op.
	h.OnPriceUpdate(model.TickerState{Symbol: "NOPE", Price: 1})
}

func TestOnPriceUpdate_PrunesFailedConn(t *testing.T) {
	h, _ := testHub()
	conn := &fakeConn{id: "c1"}
	h.Subscribe(conn, []string{"AAPL", "TSLA"})

	conn.setFail(true)
	h.OnPriceUpdate(model.TickerState{Symbol: "AAPL", Price: 181})

	stats := h.Stats()
	if stats.Connections != 0 {
		t.Errorf("connections = %d after failed send, want 0", stats.Connections)
	}
	if stats.Subscriptions != 0 {
		t.Errorf("subscriptions = %d after prune, want 0", stats.Subscriptions)
	}
	if h.Subscribed("c1", "TSLA") {
		t.Error("pruned connection still in another interest set")
	}
}

func TestSubscribe_DisconnectDuringBatch(t *testing.T) {
	h, source := testHub()
	conn := &fakeConn{id: "c1"}

	// Tear the connection down while the batch is between symbols, the
	// way a write-pump failure closes a connection mid-command.
	source.onSnapshot = func(symbol string) {
		if symbol == "AAPL" {
			h.Disconnect(conn)
		}
	}

	h.Subscribe(conn, []string{"AAPL", "TSLA"})

	if h.Subscribed("c1", "AAPL") {
		t.Error("disconnected connection left in AAPL's interest set")
	}
	if h.Subscribed("c1", "TSLA") {
		t.Error("disconnected connection left in TSLA's interest set")
	}
	if stats := h.Stats(); stats.Connections != 0 || stats.Subscriptions != 0 {
		t.Errorf("stats = %+v after mid-batch disconnect, want zeroes", stats)
	}
}

func TestDisconnect(t *testing.T) {
	h, _ := testHub()
	conn := &fakeConn{id: "c1"}
	h.Subscribe(conn, []string{"AAPL", "TSLA"})

	h.Disconnect(conn)

	stats := h.Stats()
	if stats.Connections != 0 || stats.Subscriptions != 0 {
		t.Errorf("stats after disconnect = %+v, want zeroes", stats)
	}

	// Idempotent, including for never-registered connections.
	h.Disconnect(conn)
	h.Disconnect(&fakeConn{id: "ghost"})
}

func TestBroadcastAll(t *testing.T) {
	h, _ := testHub()
	subscribed := &fakeConn{id: "c1"}
	idle := &fakeConn{id: "c2"}
	h.Subscribe(subscribed, []string{"AAPL"})
	h.Register(idle)

	base := len(subscribed.messages())
	msg := protocol.New(protocol.TypeAlert, nil)
	h.BroadcastAll(msg)

	if got := len(subscribed.messages()) - base; got != 1 {
		t.Errorf("subscribed connection received %d broadcasts, want 1", got)
	}
	if got := len(idle.messages()); got != 1 {
		t.Errorf("idle connection received %d broadcasts, want 1", got)
	}
}

func TestRegister_Idempotent(t *testing.T) {
	h, _ := testHub()
	conn := &fakeConn{id: "c1"}

	h.Register(conn)
	h.Register(conn)

	if got := h.Stats().Connections; got != 1 {
		t.Errorf("connections = %d after double register, want 1", got)
	}
}
