// Package httpjson writes JSON responses for the HTTP handlers.
package httpjson

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// Write writes v as JSON with the given status code.
func Write(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("encode response", "error", err)
	}
}

// Error writes {"message": msg}.
func Error(w http.ResponseWriter, status int, msg string) {
	Write(w, status, map[string]string{"message": msg})
}

// Invalid writes a 400 carrying per-field messages alongside the summary.
func Invalid(w http.ResponseWriter, err error) {
	Write(w, http.StatusBadRequest, map[string]any{
		"message": err.Error(),
		"errors":  err,
	})
}
