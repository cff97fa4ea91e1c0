package http

import (
	"encoding/json"
	"net/http"

	"catatan/internal/log"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Failed to encode response",
			log.FieldError, err, log.FieldPath, r.URL.Path)
	}
}

// writeError answers with a JSON error body. Server-side failures are also
// logged so the response can stay vague.
func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	if status >= http.StatusInternalServerError {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Request failed",
			log.FieldErrorType, log.ErrorTypeInternal,
			log.FieldStatusCode, status,
			log.FieldPath, r.URL.Path,
			"reason", msg)
	}
	writeJSON(w, r, status, errorResponse{Error: msg})
}
