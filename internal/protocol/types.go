package protocol

import (
	"time"

	"github.com/pulseboard/tickerd/internal/model"
)

// Message type tags.
const (
	// Inbound (client -> server)
	TypeSubscribe   = "subscribe"
	TypeUnsubscribe = "unsubscribe"
	TypePing        = "ping"

	// Outbound (server -> client)
	TypeConnection   = "connection"
	TypeSubscribed   = "subscribed"
	TypeUnsubscribed = "unsubscribed"
	TypePong         = "pong"
	TypePriceUpdate  = "price_update"
	TypeAlert        = "alert"
	TypeError        = "error"
)

// Message is the symbol-keyed JSON envelope for all WebSocket traffic.
type Message struct {
	Type      string    `json:"type"`
	Payload   any       `json:"payload,omitempty"`
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// New builds an envelope stamped with the current time.
func New(msgType string, payload any) Message {
	return Message{
		Type:      msgType,
		Payload:   payload,
		Timestamp: time.Now(),
	}
}

// NewError builds an error envelope with a human-readable reason.
func NewError(reason string) Message {
	return Message{
		Type:      TypeError,
		Error:     reason,
		Timestamp: time.Now(),
	}
}

// SymbolsPayload is the inbound payload for subscribe/unsubscribe.
type SymbolsPayload struct {
	Symbols []string `json:"symbols"`
}

// ConnectionPayload is the welcome message sent once per new connection.
type ConnectionPayload struct {
	ConnectionID string    `json:"connectionId"`
	Symbols      []string  `json:"symbols"`    // Available symbols
	ServerTime   time.Time `json:"serverTime"` //
}

// SubscriptionResult is the per-symbol outcome of a subscribe or
// unsubscribe batch. Unknown symbols do not fail the whole batch.
type SubscriptionResult struct {
	Symbol string `json:"symbol"`
	Status string `json:"status"`
}

// SubscriptionPayload carries the batch outcome.
type SubscriptionPayload struct {
	Results []SubscriptionResult `json:"results"`
}

// PongPayload echoes the heartbeat with server time.
type PongPayload struct {
	ServerTime time.Time `json:"serverTime"`
}

// PriceUpdatePayload carries one symbol's latest state.
type PriceUpdatePayload struct {
	Symbol        string    `json:"symbol"`
	Price         float64   `json:"price"`
	Change        float64   `json:"change"`
	ChangePercent float64   `json:"changePercent"`
	High          float64   `json:"high"`
	Low           float64   `json:"low"`
	Volume        int64     `json:"volume"`
	Timestamp     time.Time `json:"timestamp"`
}

// PriceUpdateFrom maps a ticker snapshot onto the wire payload.
func PriceUpdateFrom(st model.TickerState) PriceUpdatePayload {
	return PriceUpdatePayload{
		Symbol:        st.Symbol,
		Price:         st.Price,
		Change:        st.Change,
		ChangePercent: st.ChangePercent,
		High:          st.High,
		Low:           st.Low,
		Volume:        st.Volume,
		Timestamp:     st.UpdatedAt,
	}
}

// AlertPayload carries a triggered alert with the ticker snapshot at
// fire time.
type AlertPayload struct {
	Alert   model.Alert       `json:"alert"`
	Ticker  model.TickerState `json:"ticker"`
	Message string            `json:"message"`
}
