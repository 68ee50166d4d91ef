package domain

import (
	"encoding/json"
	"errors"
	"net/http"
)

// ErrorResponse is the envelope every failed request returns.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

// WriteJSON writes data as a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// WriteError maps an error to the taxonomy and writes the error envelope.
// ValidationError -> 400, ErrNotFound -> 404, anything else -> 500.
func WriteError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	kind := "store_error"

	var ve *ValidationError
	switch {
	case errors.As(err, &ve):
		status = http.StatusBadRequest
		kind = "validation_error"
	case errors.Is(err, ErrNotFound):
		status = http.StatusNotFound
		kind = "not_found"
	}

	WriteJSON(w, status, ErrorResponse{
		Success: false,
		Error:   kind,
		Message: err.Error(),
	})
}

// WriteErrorMessage writes the error envelope with an explicit status and message.
func WriteErrorMessage(w http.ResponseWriter, status int, kind, message string) {
	WriteJSON(w, status, ErrorResponse{Success: false, Error: kind, Message: message})
}
