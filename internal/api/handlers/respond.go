package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/decisiveml/ruinlab/internal/assessment"
	"github.com/decisiveml/ruinlab/internal/montecarlo"
	"github.com/decisiveml/ruinlab/internal/trades"
)

// Helper functions

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}

// errorStatus maps domain errors to HTTP status codes
func errorStatus(err error) int {
	switch {
	case errors.Is(err, montecarlo.ErrInvalidConfig):
		return http.StatusBadRequest
	case errors.Is(err, montecarlo.ErrExcessiveBaseEquity):
		return http.StatusUnprocessableEntity
	case errors.Is(err, trades.ErrNoTrades):
		return http.StatusNotFound
	case errors.Is(err, assessment.ErrSourceUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
