package middleware

import (
	"encoding/json"
	"net/http"
)

type errorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

// WriteJSON encodes v with the given status.
func WriteJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError replies with a JSON error body carrying the request id when Logger
// assigned one, so a report can be matched to its log line.
func WriteError(w http.ResponseWriter, r *http.Request, code int, msg string) {
	body := errorResponse{Error: msg}
	if r != nil {
		body.RequestID, _ = RequestID(r.Context())
	}
	WriteJSON(w, code, body)
}
