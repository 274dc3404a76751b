package middleware

import (
	"encoding/json"
	"net/http"

	"codeinterview/internal/model"
)

type errorBody struct {
	Message string          `json:"message"`
	Code    model.ErrorCode `json:"code,omitempty"`
}

func writeError(w http.ResponseWriter, status int, code model.ErrorCode, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]errorBody{"error": {Message: message, Code: code}})
}
