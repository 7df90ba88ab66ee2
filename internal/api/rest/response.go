package rest

import (
	"net/http"

	"github.com/bytedance/sonic"
	"github.com/cockroachdb/errors"

	"github.com/fortuna/rinkscout/internal/session"
	"github.com/fortuna/rinkscout/internal/store"
)

// respondJSON writes a JSON response
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = sonic.ConfigDefault.NewEncoder(w).Encode(data)
}

// respondError writes an error response
func respondError(w http.ResponseWriter, status int, message string, err error) {
	response := map[string]any{
		"error":  message,
		"status": status,
	}
	if err != nil {
		response["details"] = err.Error()
	}
	respondJSON(w, status, response)
}

// statusFor maps a domain error onto an HTTP status and message.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, session.ErrScrapeInProgress):
		return http.StatusConflict, "Scraping already in progress"
	case errors.Is(err, session.ErrInvalidRequest):
		return http.StatusBadRequest, "Invalid scrape request"
	case errors.Is(err, session.ErrNothingToResume):
		return http.StatusBadRequest, "No stopped scraping to resume"
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound, "Not found"
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}

func respondDomainError(w http.ResponseWriter, err error) {
	status, message := statusFor(err)
	respondError(w, status, message, err)
}
