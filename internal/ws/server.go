package ws

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/pulseboard/tickerd/internal/hub"
	"github.com/pulseboard/tickerd/internal/protocol"
)

// Server upgrades HTTP requests to WebSocket connections and hands them
// to the hub.
type Server struct {
	cfg     Config
	broker  *hub.Hub
	symbols []string // Advertised in the welcome message
	logger  *slog.Logger

	upgrader websocket.Upgrader
}

// NewServer creates a gateway server.
func NewServer(cfg Config, broker *hub.Hub, symbols []string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		cfg:     cfg,
		broker:  broker,
		symbols: symbols,
		logger:  logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			// The dashboard is served from arbitrary origins in
			// development; auth lives outside this layer.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// ServeHTTP upgrades the request and starts the connection pumps.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	sock, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Debug("upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	conn := newConn(uuid.NewString(), sock, s.broker, s.cfg, s.logger)
	s.broker.Register(conn)
	conn.start()

	// Welcome message: connection id, available symbols, server time.
	welcome := protocol.New(protocol.TypeConnection, protocol.ConnectionPayload{
		ConnectionID: conn.ID(),
		Symbols:      s.symbols,
		ServerTime:   time.Now(),
	})
	if err := conn.Send(welcome); err != nil {
		s.broker.Disconnect(conn)
		return
	}

	s.logger.Info("client connected", "conn_id", conn.ID(), "remote", r.RemoteAddr)
}
