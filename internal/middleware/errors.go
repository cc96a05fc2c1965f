package middleware

import (
	"encoding/json"
	"net/http"

	"yagpt-bot/internal/models"
)

// WriteError writes the standard JSON error body.
func WriteError(w http.ResponseWriter, status int, code, message string, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(models.ErrorResponse{
		Error: models.APIError{
			Code:      code,
			Message:   message,
			RequestID: GetRequestID(r.Context()),
		},
	})
}
