package handlers

import (
	"encoding/json"
	"net/http"
)

// StatusEnvelope is the JSON response shape for API-style endpoints
// (/save-feedback): {"status": "success"|"error", "message": ...}.
type StatusEnvelope struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// JSONStatus writes a StatusEnvelope with the given HTTP status code.
func JSONStatus(w http.ResponseWriter, code int, status, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(StatusEnvelope{Status: status, Message: message})
}
