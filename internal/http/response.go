package http

import (
	"encoding/json"
	"net/http"

	"github.com/captura3d/portal-api/internal/gateway"
)

// SuccessEnvelope standardizes responses carrying data.
type SuccessEnvelope struct {
	Data  any `json:"data"`
	Error any `json:"error"`
}

// ErrorEnvelope standardizes error responses.
type ErrorEnvelope struct {
	Data  any        `json:"data"`
	Error *ErrorBody `json:"error"`
}

// ErrorBody describes normalized failures.
type ErrorBody struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// WriteJSON writes the success envelope.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(SuccessEnvelope{Data: data, Error: nil})
}

// WriteError writes the error envelope, keeping the format consistent.
func WriteError(w http.ResponseWriter, status int, code, message string, details interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ErrorEnvelope{
		Data:  nil,
		Error: &ErrorBody{Code: code, Message: message, Details: details},
	})
}

// WriteGatewayError maps a gateway error onto the envelope. Anything outside
// the structured taxonomy becomes an opaque 500.
func WriteGatewayError(w http.ResponseWriter, err error) {
	if e, ok := gateway.AsError(err); ok {
		WriteError(w, e.Status, string(e.Code), e.Message, nil)
		return
	}
	WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error", nil)
}
