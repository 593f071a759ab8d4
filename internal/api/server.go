package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/pulseboard/tickerd/internal/alert"
	"github.com/pulseboard/tickerd/internal/cache"
	"github.com/pulseboard/tickerd/internal/hub"
	"github.com/pulseboard/tickerd/internal/model"
)

// Maximum candles returned by the history endpoint regardless of the
// requested limit.
const maxHistoryLimit = 500

// TickerSource is the simulation engine surface the API consumes.
type TickerSource interface {
	Snapshots() []model.TickerState
	Snapshot(symbol string) (model.TickerState, bool)
	History(symbol string, limit int) ([]model.Candle, bool)
	TickInterval() time.Duration
	SetTickInterval(d time.Duration) error
	MarketOpen() bool
	SetMarketOpen(open bool)
}

// AlertStore is the alert engine surface the API consumes.
type AlertStore interface {
	Create(userID string, p alert.CreateParams) (model.Alert, error)
	List(userID string) []model.Alert
	Delete(userID string, id uuid.UUID) error
	Toggle(userID string, id uuid.UUID) (model.Alert, error)
}

// StatsSource reports broadcast-layer counters for the health surface.
type StatsSource interface {
	Stats() hub.Stats
}

// Server is the REST API.
type Server struct {
	tickers TickerSource
	alerts  AlertStore
	stats   StatsSource
	cache   *cache.Cache
	logger  *slog.Logger
}

// NewServer creates the REST API server.
func NewServer(tickers TickerSource, alerts AlertStore, stats StatsSource, respCache *cache.Cache, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		tickers: tickers,
		alerts:  alerts,
		stats:   stats,
		cache:   respCache,
		logger:  logger,
	}
}

// Router builds the chi router with all routes mounted.
func (s *Server) Router(gateway http.Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Get("/healthz", s.handleHealth)
	r.Handle("/ws", gateway)

	r.Route("/api", func(r chi.Router) {
		r.Get("/tickers", s.handleListTickers)
		r.Get("/tickers/{symbol}", s.handleGetTicker)
		r.Get("/tickers/{symbol}/history", s.handleHistory)

		r.Get("/market", s.handleGetMarket)
		r.Put("/market", s.handleSetMarket)

		r.Route("/alerts", func(r chi.Router) {
			r.Use(s.requireUser)
			r.Get("/", s.handleListAlerts)
			r.Post("/", s.handleCreateAlert)
			r.Delete("/{id}", s.handleDeleteAlert)
			r.Post("/{id}/toggle", s.handleToggleAlert)
		})
	})

	return r
}

// requestLogger logs each request with outcome and latency.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
		)
	})
}

// userIDKey is the context key for the authenticated user id.
type userIDKey struct{}

// requireUser extracts the user identity set by the external auth
// collaborator. Requests without one are rejected.
func (s *Server) requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := r.Header.Get("X-User-ID")
		if userID == "" {
			respondError(w, http.StatusUnauthorized, "missing X-User-ID header")
			return
		}
		next.ServeHTTP(w, r.WithContext(contextWithUser(r.Context(), userID)))
	})
}

// handleHealth reports component status.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	stats := s.stats.Stats()
	respondData(w, http.StatusOK, map[string]any{
		"status":        "healthy",
		"marketOpen":    s.tickers.MarketOpen(),
		"tickInterval":  s.tickers.TickInterval().String(),
		"connections":   stats.Connections,
		"subscriptions": stats.Subscriptions,
	})
}
