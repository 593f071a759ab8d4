package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/pulseboard/tickerd/internal/alert"
	"github.com/pulseboard/tickerd/internal/model"
)

func contextWithUser(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey{}, userID)
}

func userFrom(ctx context.Context) string {
	userID, _ := ctx.Value(userIDKey{}).(string)
	return userID
}

// createAlertRequest is the POST /api/alerts body.
type createAlertRequest struct {
	Symbol    string  `json:"symbol"`
	Direction string  `json:"direction"`
	Threshold float64 `json:"threshold"`
}

// handleListAlerts returns the caller's alerts, oldest first.
func (s *Server) handleListAlerts(w http.ResponseWriter, r *http.Request) {
	respondData(w, http.StatusOK, s.alerts.List(userFrom(r.Context())))
}

// handleCreateAlert validates and creates a new armed alert.
func (s *Server) handleCreateAlert(w http.ResponseWriter, r *http.Request) {
	var req createAlertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	a, err := s.alerts.Create(userFrom(r.Context()), alert.CreateParams{
		Symbol:    strings.ToUpper(strings.TrimSpace(req.Symbol)),
		Direction: model.AlertDirection(req.Direction),
		Threshold: req.Threshold,
	})
	if err != nil {
		respondAlertError(w, err)
		return
	}

	respondData(w, http.StatusCreated, a)
}

// handleDeleteAlert removes one of the caller's alerts.
func (s *Server) handleDeleteAlert(w http.ResponseWriter, r *http.Request) {
	id, ok := parseAlertID(w, r)
	if !ok {
		return
	}

	if err := s.alerts.Delete(userFrom(r.Context()), id); err != nil {
		respondAlertError(w, err)
		return
	}
	respondData(w, http.StatusOK, map[string]string{"deleted": id.String()})
}

// handleToggleAlert flips an alert's active flag.
func (s *Server) handleToggleAlert(w http.ResponseWriter, r *http.Request) {
	id, ok := parseAlertID(w, r)
	if !ok {
		return
	}

	a, err := s.alerts.Toggle(userFrom(r.Context()), id)
	if err != nil {
		respondAlertError(w, err)
		return
	}
	respondData(w, http.StatusOK, a)
}

func parseAlertID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid alert id")
		return uuid.Nil, false
	}
	return id, true
}

// respondAlertError maps alert engine errors onto the REST taxonomy.
func respondAlertError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, alert.ErrNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, alert.ErrAlertFired):
		respondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, alert.ErrUnknownSymbol),
		errors.Is(err, alert.ErrInvalidDirection),
		errors.Is(err, alert.ErrInvalidThreshold):
		respondError(w, http.StatusBadRequest, err.Error())
	default:
		respondError(w, http.StatusInternalServerError, err.Error())
	}
}
