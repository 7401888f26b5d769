package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/nickym11111/forge-fall-25-project-sub000/internal/logger"
	"github.com/nickym11111/forge-fall-25-project-sub000/internal/validation"
)

const maxErrorMessageLength = 200

type successEnvelope struct {
	Success   bool   `json:"success"`
	Data      any    `json:"data"`
	Timestamp string `json:"timestamp"`
}

type errorEnvelope struct {
	Success   bool                    `json:"success"`
	Error     string                  `json:"error"`
	Message   string                  `json:"message"`
	Details   []validation.FieldError `json:"details,omitempty"`
	Timestamp string                  `json:"timestamp"`
}

// respondJSON sends a success envelope
func respondJSON(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, successEnvelope{
		Success:   true,
		Data:      data,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// respondJSONError sends an error envelope. The message is cleaned and truncated before it leaves the server.
func respondJSONError(w http.ResponseWriter, status int, errorType, message string, details ...validation.FieldError) {
	writeJSON(w, status, errorEnvelope{
		Error:     errorType,
		Message:   logger.SanitizeString(message, maxErrorMessageLength),
		Details:   details,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}
