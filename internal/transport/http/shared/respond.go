// Package shared holds the JSON response helpers every handler uses, so the
// error envelope and status mapping exist in exactly one place.
package shared

import (
	"encoding/json"
	"errors"
	"net/http"

	dErrors "expedientes/pkg/domain-errors"
)

// ErrorResponse is the uniform error envelope.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// WriteJSON writes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

// WriteError translates a domain error into its HTTP response. Internal
// errors deliberately lose their message; the detail belongs in the log,
// not on the wire.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	resp := ErrorResponse{Error: string(code)}
	if code != dErrors.CodeInternal {
		var de *dErrors.Error
		if errors.As(err, &de) {
			resp.Message = de.Message
		}
	}
	WriteJSON(w, dErrors.ToHTTPStatus(code), resp)
}
