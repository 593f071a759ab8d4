package api

import (
	"encoding/json"
	"net/http"
	"time"
)

// envelope is the uniform REST response shape.
type envelope struct {
	Success   bool      `json:"success"`
	Data      any       `json:"data,omitempty"`
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func respondData(w http.ResponseWriter, status int, data any) {
	respond(w, status, envelope{
		Success:   true,
		Data:      data,
		Timestamp: time.Now(),
	})
}

func respondError(w http.ResponseWriter, status int, reason string) {
	respond(w, status, envelope{
		Success:   false,
		Error:     reason,
		Timestamp: time.Now(),
	})
}

func respond(w http.ResponseWriter, status int, env envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(env)
}
