package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	applog "catering/internal/log"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		applog.Error(context.Background(), "failed to encode JSON response", "error", err)
	}
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	if message == "" {
		message = http.StatusText(status)
	}
	writeJSON(w, status, errorResponse{Error: message})
}

// wantsJSON reports whether the client asked for a JSON answer rather than a page.
func wantsJSON(r *http.Request) bool {
	return isJSONBody(r) || strings.Contains(r.Header.Get("Accept"), "application/json")
}

func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true" || r.Header.Get("HX-Boosted") == "true"
}
