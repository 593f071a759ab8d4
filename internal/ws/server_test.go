package ws

import (
	"encoding/json"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/pulseboard/tickerd/internal/hub"
	"github.com/pulseboard/tickerd/internal/model"
	"github.com/pulseboard/tickerd/internal/protocol"
)

// wireMessage mirrors the envelope with a raw payload for per-type
// decoding on the client side.
type wireMessage struct {
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	Error     string          `json:"error"`
	Timestamp time.Time       `json:"timestamp"`
}

type fakeSource struct {
	states map[string]model.TickerState
}

func (s *fakeSource) Snapshot(symbol string) (model.TickerState, bool) {
	st, ok := s.states[symbol]
	return st, ok
}

func dialTestServer(t *testing.T) (*websocket.Conn, *hub.Hub) {
	t.Helper()

	source := &fakeSource{states: map[string]model.TickerState{
		"AAPL": {Symbol: "AAPL", Price: 180},
		"TSLA": {Symbol: "TSLA", Price: 250},
	}}
	broker := hub.New([]string{"AAPL", "TSLA"}, source, slog.Default())
	srv := NewServer(DefaultConfig(), broker, []string{"AAPL", "TSLA"}, slog.Default())

	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)

	url := "ws" + strings.TrimPrefix(ts.URL, "http")
	sock, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", url, err)
	}
	t.Cleanup(func() { sock.Close() })

	return sock, broker
}

func readMessage(t *testing.T, sock *websocket.Conn) wireMessage {
	t.Helper()

	sock.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg wireMessage
	if err := sock.ReadJSON(&msg); err != nil {
		t.Fatalf("read message: %v", err)
	}
	return msg
}

func sendCommand(t *testing.T, sock *websocket.Conn, msgType string, payload any) {
	t.Helper()

	if err := sock.WriteJSON(map[string]any{"type": msgType, "payload": payload}); err != nil {
		t.Fatalf("write %s: %v", msgType, err)
	}
}

func TestConnect_Welcome(t *testing.T) {
	sock, _ := dialTestServer(t)

	msg := readMessage(t, sock)
	if msg.Type != protocol.TypeConnection {
		t.Fatalf("first message type = %q, want %q", msg.Type, protocol.TypeConnection)
	}

	var welcome protocol.ConnectionPayload
	if err := json.Unmarshal(msg.Payload, &welcome); err != nil {
		t.Fatalf("decode welcome: %v", err)
	}
	if welcome.ConnectionID == "" {
		t.Error("welcome has empty connection id")
	}
	if len(welcome.Symbols) != 2 {
		t.Errorf("welcome advertises %d symbols, want 2", len(welcome.Symbols))
	}
}

func TestSubscribe_SnapshotAndResults(t *testing.T) {
	sock, _ := dialTestServer(t)
	readMessage(t, sock) // welcome

	sendCommand(t, sock, protocol.TypeSubscribe, protocol.SymbolsPayload{Symbols: []string{"aapl", "NOPE"}})

	var results []protocol.SubscriptionResult
	var snapshot *protocol.PriceUpdatePayload
	for i := 0; i < 2; i++ {
		msg := readMessage(t, sock)
		switch msg.Type {
		case protocol.TypeSubscribed:
			var p protocol.SubscriptionPayload
			if err := json.Unmarshal(msg.Payload, &p); err != nil {
				t.Fatalf("decode results: %v", err)
			}
			results = p.Results
		case protocol.TypePriceUpdate:
			var p protocol.PriceUpdatePayload
			if err := json.Unmarshal(msg.Payload, &p); err != nil {
				t.Fatalf("decode snapshot: %v", err)
			}
			snapshot = &p
		default:
			t.Fatalf("unexpected message type %q", msg.Type)
		}
	}

	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	byStatus := map[string]string{}
	for _, r := range results {
		byStatus[r.Symbol] = r.Status
	}
	if byStatus["AAPL"] != hub.StatusSubscribed {
		t.Errorf("AAPL status = %q, want %q", byStatus["AAPL"], hub.StatusSubscribed)
	}
	if byStatus["NOPE"] != hub.StatusUnknownSymbol {
		t.Errorf("NOPE status = %q, want %q", byStatus["NOPE"], hub.StatusUnknownSymbol)
	}

	if snapshot == nil {
		t.Fatal("no snapshot pushed on first subscribe")
	}
	if snapshot.Symbol != "AAPL" || snapshot.Price != 180 {
		t.Errorf("snapshot = %+v", snapshot)
	}
}

func TestSubscribe_ReceivesPriceUpdates(t *testing.T) {
	sock, broker := dialTestServer(t)
	readMessage(t, sock) // welcome

	sendCommand(t, sock, protocol.TypeSubscribe, protocol.SymbolsPayload{Symbols: []string{"AAPL"}})
	for i := 0; i < 2; i++ {
		readMessage(t, sock) // snapshot + results
	}

	broker.OnPriceUpdate(model.TickerState{Symbol: "AAPL", Price: 181.5})

	msg := readMessage(t, sock)
	if msg.Type != protocol.TypePriceUpdate {
		t.Fatalf("message type = %q, want %q", msg.Type, protocol.TypePriceUpdate)
	}
	var p protocol.PriceUpdatePayload
	if err := json.Unmarshal(msg.Payload, &p); err != nil {
		t.Fatalf("decode update: %v", err)
	}
	if p.Price != 181.5 {
		t.Errorf("price = %v, want 181.5", p.Price)
	}
}

func TestPing(t *testing.T) {
	sock, _ := dialTestServer(t)
	readMessage(t, sock) // welcome

	sendCommand(t, sock, protocol.TypePing, nil)

	msg := readMessage(t, sock)
	if msg.Type != protocol.TypePong {
		t.Fatalf("message type = %q, want %q", msg.Type, protocol.TypePong)
	}
}

func TestUnknownCommand(t *testing.T) {
	sock, _ := dialTestServer(t)
	readMessage(t, sock) // welcome

	sendCommand(t, sock, "gossip", nil)

	msg := readMessage(t, sock)
	if msg.Type != protocol.TypeError {
		t.Fatalf("message type = %q, want %q", msg.Type, protocol.TypeError)
	}
	if msg.Error == "" {
		t.Error("error envelope has no reason")
	}
}

func TestMalformedCommand(t *testing.T) {
	sock, _ := dialTestServer(t)
	readMessage(t, sock) // welcome

	if err := sock.WriteMessage(websocket.TextMessage, []byte("{not json")); err != nil {
		t.Fatalf("write: %v", err)
	}

	msg := readMessage(t, sock)
	if msg.Type != protocol.TypeError {
		t.Fatalf("message type = %q, want %q", msg.Type, protocol.TypeError)
	}
}

func TestSubscribe_EmptySymbols(t *testing.T) {
	sock, _ := dialTestServer(t)
	readMessage(t, sock) // welcome

	sendCommand(t, sock, protocol.TypeSubscribe, protocol.SymbolsPayload{Symbols: nil})

	msg := readMessage(t, sock)
	if msg.Type != protocol.TypeError {
		t.Fatalf("message type = %q, want %q", msg.Type, protocol.TypeError)
	}
}

func TestDisconnect_Prunes(t *testing.T) {
	sock, broker := dialTestServer(t)
	readMessage(t, sock) // welcome

	sendCommand(t, sock, protocol.TypeSubscribe, protocol.SymbolsPayload{Symbols: []string{"AAPL"}})
	for i := 0; i < 2; i++ {
		readMessage(t, sock)
	}
	if got := broker.Stats().Connections; got != 1 {
		t.Fatalf("connections = %d, want 1", got)
	}

	sock.Close()

	deadline := time.Now().Add(2 * time.Second)
	for broker.Stats().Connections != 0 {
		if time.Now().After(deadline) {
			t.Fatalf("stats = %+v after close, want zero connections", broker.Stats())
		}
		time.Sleep(10 * time.Millisecond)
	}
	if got := broker.Stats().Subscriptions; got != 0 {
		t.Errorf("subscriptions = %d after close, want 0", got)
	}
}
