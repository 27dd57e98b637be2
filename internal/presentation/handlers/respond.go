package handlers

import (
	"encoding/json"
	"net/http"
)

// ErrorResponse is the body of every JSON error reply
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, title, message string) {
	respondJSON(w, status, ErrorResponse{Error: title, Message: message})
}
