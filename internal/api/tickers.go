package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/pulseboard/tickerd/internal/sim"
)

// handleListTickers returns the current state of every symbol.
func (s *Server) handleListTickers(w http.ResponseWriter, r *http.Request) {
	const key = "tickers"
	if cached, ok := s.cache.Get(key); ok {
		respondData(w, http.StatusOK, cached)
		return
	}

	snapshots := s.tickers.Snapshots()
	s.cache.Set(key, snapshots)
	respondData(w, http.StatusOK, snapshots)
}

// handleGetTicker returns one symbol's current state.
func (s *Server) handleGetTicker(w http.ResponseWriter, r *http.Request) {
	symbol := strings.ToUpper(chi.URLParam(r, "symbol"))

	st, ok := s.tickers.Snapshot(symbol)
	if !ok {
		respondError(w, http.StatusNotFound, "unknown symbol: "+symbol)
		return
	}
	respondData(w, http.StatusOK, st)
}

// handleHistory returns a symbol's historical series, bounded to the
// maximum window and served through the response cache.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	symbol := strings.ToUpper(chi.URLParam(r, "symbol"))

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			respondError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}
	if limit == 0 || limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	key := fmt.Sprintf("history:%s:%d", symbol, limit)
	if cached, ok := s.cache.Get(key); ok {
		respondData(w, http.StatusOK, cached)
		return
	}

	candles, ok := s.tickers.History(symbol, limit)
	if !ok {
		respondError(w, http.StatusNotFound, "unknown symbol: "+symbol)
		return
	}

	s.cache.Set(key, candles)
	respondData(w, http.StatusOK, candles)
}

// marketUpdate is the PUT /api/market request body. Both fields are
// optional; absent fields are left unchanged.
type marketUpdate struct {
	Open                *bool    `json:"open"`
	TickIntervalSeconds *float64 `json:"tickIntervalSeconds"`
}

// handleGetMarket returns the market open flag and tick cadence.
func (s *Server) handleGetMarket(w http.ResponseWriter, r *http.Request) {
	respondData(w, http.StatusOK, map[string]any{
		"open":                s.tickers.MarketOpen(),
		"tickIntervalSeconds": s.tickers.TickInterval().Seconds(),
	})
}

// handleSetMarket updates the market open flag and/or tick cadence.
func (s *Server) handleSetMarket(w http.ResponseWriter, r *http.Request) {
	var req marketUpdate
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if req.TickIntervalSeconds != nil {
		d := time.Duration(*req.TickIntervalSeconds * float64(time.Second))
		if err := s.tickers.SetTickInterval(d); err != nil {
			respondError(w, http.StatusBadRequest,
				fmt.Sprintf("tick interval must be between %s and %s", sim.MinTickInterval, sim.MaxTickInterval))
			return
		}
	}
	if req.Open != nil {
		s.tickers.SetMarketOpen(*req.Open)
	}

	s.handleGetMarket(w, r)
}
