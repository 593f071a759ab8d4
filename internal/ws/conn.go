package ws

import (
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/pulseboard/tickerd/internal/hub"
	"github.com/pulseboard/tickerd/internal/protocol"
)

// Conn adapts one WebSocket to the hub's Conn interface.
type Conn struct {
	id     string
	sock   *websocket.Conn
	broker *hub.Hub
	cfg    Config
	logger *slog.Logger

	send    chan protocol.Message
	limiter *rate.Limiter

	closeOnce sync.Once
	done      chan struct{}
}

func newConn(id string, sock *websocket.Conn, broker *hub.Hub, cfg Config, logger *slog.Logger) *Conn {
	return &Conn{
		id:      id,
		sock:    sock,
		broker:  broker,
		cfg:     cfg,
		logger:  logger.With("conn_id", id),
		send:    make(chan protocol.Message, cfg.SendBuffer),
		limiter: rate.NewLimiter(rate.Limit(cfg.CommandRate), cfg.CommandBurst),
		done:    make(chan struct{}),
	}
}

// ID returns the connection's unique id.
func (c *Conn) ID() string {
	return c.id
}

// Send queues a message for delivery without blocking. A closed
// connection or a full queue is a send failure; the caller prunes.
func (c *Conn) Send(msg protocol.Message) error {
	select {
	case <-c.done:
		return ErrClosed
	default:
	}

	select {
	case c.send <- msg:
		return nil
	default:
		return ErrSlowConsumer
	}
}

// start launches the read and write pumps.
func (c *Conn) start() {
	go c.writePump()
	go c.readPump()
}

// close tears the connection down exactly once and removes it from the
// hub.
func (c *Conn) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.sock.Close()
		c.broker.Disconnect(c)
		c.logger.Debug("connection closed")
	})
}

// readPump consumes inbound command envelopes until the socket fails.
func (c *Conn) readPump() {
	defer c.close()

	c.sock.SetReadLimit(c.cfg.MaxMessageSize)
	c.sock.SetReadDeadline(time.Now().Add(c.cfg.PongTimeout))
	c.sock.SetPongHandler(func(string) error {
		return c.sock.SetReadDeadline(time.Now().Add(c.cfg.PongTimeout))
	})

	for {
		_, data, err := c.sock.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Debug("unexpected close", "error", err)
			}
			return
		}

		if !c.limiter.Allow() {
			c.Send(protocol.NewError("rate limit exceeded"))
			continue
		}

		c.handleCommand(data)
	}
}

// handleCommand parses and dispatches one inbound envelope. Malformed
// input gets an error envelope back, never a disconnect.
func (c *Conn) handleCommand(data []byte) {
	var in struct {
		Type    string          `json:"type"`
		Payload json.RawMessage `json:"payload"`
	}
	if err := json.Unmarshal(data, &in); err != nil {
		c.Send(protocol.NewError("invalid JSON"))
		return
	}

	switch in.Type {
	case protocol.TypeSubscribe:
		symbols, ok := c.parseSymbols(in.Payload)
		if !ok {
			return
		}
		results := c.broker.Subscribe(c, symbols)
		c.Send(protocol.New(protocol.TypeSubscribed, protocol.SubscriptionPayload{Results: results}))

	case protocol.TypeUnsubscribe:
		symbols, ok := c.parseSymbols(in.Payload)
		if !ok {
			return
		}
		results := c.broker.Unsubscribe(c, symbols)
		c.Send(protocol.New(protocol.TypeUnsubscribed, protocol.SubscriptionPayload{Results: results}))

	case protocol.TypePing:
		c.Send(protocol.New(protocol.TypePong, protocol.PongPayload{ServerTime: time.Now()}))

	default:
		c.Send(protocol.NewError("unknown message type: " + in.Type))
	}
}

// parseSymbols decodes and normalizes a symbols payload.
func (c *Conn) parseSymbols(raw json.RawMessage) ([]string, bool) {
	var p protocol.SymbolsPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		c.Send(protocol.NewError("invalid payload"))
		return nil, false
	}
	if len(p.Symbols) == 0 {
		c.Send(protocol.NewError("no symbols provided"))
		return nil, false
	}

	symbols := make([]string, 0, len(p.Symbols))
	for _, s := range p.Symbols {
		s = strings.ToUpper(strings.TrimSpace(s))
		if s != "" {
			symbols = append(symbols, s)
		}
	}
	return symbols, true
}

// writePump drains the send queue to the socket and keeps the
// connection alive with periodic pings.
func (c *Conn) writePump() {
	ticker := time.NewTicker(c.cfg.PingInterval)
	defer func() {
		ticker.Stop()
		c.close()
	}()

	for {
		select {
		case <-c.done:
			return

		case msg := <-c.send:
			c.sock.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout))
			if err := c.sock.WriteJSON(msg); err != nil {
				c.logger.Debug("write failed", "error", err)
				return
			}

		case <-ticker.C:
			c.sock.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout))
			if err := c.sock.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
