// Package handlers holds the HTTP request handlers for the comparison
// dashboard API.
package handlers

import (
	"encoding/json"
	stderrors "errors"
	"net/http"

	"github.com/planlens/PlanLens-Compare/pkg/errors"
)

// maxBodyBytes caps request bodies; alignment submissions and change
// records are small.
const maxBodyBytes = 1 << 20

// ErrorBody is the standard error response envelope.
type ErrorBody struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail carries the typed code alongside the human-readable message.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(statusCode)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// writeAppError maps an application error onto its HTTP status and the
// standard error envelope.  Non-AppError values are masked as internal.
func writeAppError(w http.ResponseWriter, err error) {
	var appErr *errors.AppError
	if !stderrors.As(err, &appErr) {
		writeJSON(w, http.StatusInternalServerError, ErrorBody{Error: ErrorDetail{
			Code:    errors.ErrCodeInternal.String(),
			Message: "internal server error",
		}})
		return
	}

	status := errors.HTTPStatusForCode(appErr.Code)
	detail := ErrorDetail{
		Code:    appErr.Code.String(),
		Message: appErr.Message,
		Detail:  appErr.Detail,
	}
	if status >= 500 {
		// Internals stay in the logs.
		detail.Detail = ""
	}
	writeJSON(w, status, ErrorBody{Error: detail})
}

// decodeJSON parses the request body into dst, rejecting unknown fields.
func decodeJSON(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return errors.InvalidParam("malformed JSON request body").WithCause(err)
	}
	return nil
}
