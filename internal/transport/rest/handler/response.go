package handler

import (
	"encoding/json"
	"net/http"

	"codeinterview/internal/model"
)

// ErrorBody is the payload of every HTTP error response
type ErrorBody struct {
	Message string          `json:"message"`
	Code    model.ErrorCode `json:"code,omitempty"`
}

// ErrorResponse wraps ErrorBody under the "error" key
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code model.ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{Error: ErrorBody{Message: message, Code: code}})
}

// NotFound answers unknown routes
func NotFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusNotFound, model.ErrCodeNotFound, "Not found")
}
