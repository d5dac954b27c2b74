// Package httputil maps domain errors onto HTTP responses.
package httputil

import (
	"encoding/json"
	"errors"
	"net/http"

	dErrors "ghostlogin/pkg/domain-errors"
)

type errorResponse struct {
	Error       string `json:"error"`
	Description string `json:"error_description,omitempty"`
}

var statusByCode = map[dErrors.Code]int{
	dErrors.CodeBadRequest:   http.StatusBadRequest,
	dErrors.CodeUnauthorized: http.StatusUnauthorized,
	dErrors.CodeForbidden:    http.StatusForbidden,
	dErrors.CodeNotFound:     http.StatusNotFound,
	dErrors.CodeConflict:     http.StatusConflict,
	dErrors.CodeTimeout:      http.StatusGatewayTimeout,
	dErrors.CodeUnavailable:  http.StatusServiceUnavailable,
	dErrors.CodeInternal:     http.StatusInternalServerError,
}

var slugByCode = map[dErrors.Code]string{
	dErrors.CodeBadRequest:   "bad_request",
	dErrors.CodeUnauthorized: "unauthorized",
	dErrors.CodeForbidden:    "forbidden",
	dErrors.CodeNotFound:     "not_found",
	dErrors.CodeConflict:     "conflict",
	dErrors.CodeTimeout:      "timeout",
	dErrors.CodeUnavailable:  "unavailable",
	dErrors.CodeInternal:     "internal_error",
}

// WriteError renders a domain error as a JSON error body. Internal and
// unavailable errors never leak their message to the client.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	status, ok := statusByCode[code]
	if !ok {
		code = dErrors.CodeInternal
		status = http.StatusInternalServerError
	}

	resp := errorResponse{Error: slugByCode[code]}
	if code != dErrors.CodeInternal && code != dErrors.CodeUnavailable {
		var dErr *dErrors.Error
		if errors.As(err, &dErr) {
			resp.Description = dErr.Message
		}
	}

	WriteJSON(w, status, resp)
}

// WriteJSON renders v as a JSON response body.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
