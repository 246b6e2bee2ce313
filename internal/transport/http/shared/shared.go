// Package shared holds the response helpers used by every handler package.
package shared

import (
	"encoding/json"
	"errors"
	"net/http"

	dErrors "opsconsole/pkg/domainerrors"
)

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// WriteJSON writes a JSON response body with the given status.
func WriteJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		_ = json.NewEncoder(w).Encode(body)
	}
}

// WriteError translates a coded error into a JSON error response. Unknown
// errors collapse to a plain 500 so internals never leak to the client.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	status := dErrors.ToHTTPStatus(code)

	message := "internal server error"
	if status < http.StatusInternalServerError {
		var de *dErrors.Error
		if errors.As(err, &de) {
			message = de.Message
		} else {
			message = err.Error()
		}
	}
	WriteJSON(w, status, errorResponse{Error: string(code), Message: message})
}
