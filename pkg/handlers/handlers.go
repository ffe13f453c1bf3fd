// Package handlers provides JSON response helpers shared by domain HTTP handlers.
package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// RespondJSON writes data as a JSON body with the given status code.
func RespondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// RespondError logs err and writes it as {"error": "..."}.
// Server errors are logged at error level and their detail is replaced
// with the generic status text so internals never reach the client.
func RespondError(w http.ResponseWriter, logger *slog.Logger, status int, err error) {
	message := err.Error()

	if status >= http.StatusInternalServerError {
		logger.Error("handler error", "status", status, "error", err)
		message = http.StatusText(status)
	} else {
		logger.Warn("request rejected", "status", status, "error", err)
	}

	RespondJSON(w, status, map[string]string{"error": message})
}
