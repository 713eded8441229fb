package errors

import (
	"net/http"
	"strings"
)

// ErrorCode is a string representation of a specific error condition.
type ErrorCode string

func (c ErrorCode) String() string {
	return string(c)
}

// Common error codes
const (
	ErrCodeInternal           ErrorCode = "COMMON_001"
	ErrCodeBadRequest         ErrorCode = "COMMON_002"
	ErrCodeUnauthorized       ErrorCode = "COMMON_003"
	ErrCodeForbidden          ErrorCode = "COMMON_004"
	ErrCodeNotFound           ErrorCode = "COMMON_005"
	ErrCodeConflict           ErrorCode = "COMMON_006"
	ErrCodeTooManyRequests    ErrorCode = "COMMON_007"
	ErrCodeServiceUnavailable ErrorCode = "COMMON_008"
	ErrCodeTimeout            ErrorCode = "COMMON_009"
	ErrCodeValidation         ErrorCode = "COMMON_010"
	ErrCodeSerialization      ErrorCode = "COMMON_011"
	ErrCodeCacheError         ErrorCode = "COMMON_012"
	ErrCodeRemoteService      ErrorCode = "COMMON_013"
	ErrCodeUnknown            ErrorCode = "COMMON_099"

	// CodeOK is the sentinel returned by GetCode for a nil error.
	CodeOK ErrorCode = "OK"
)

// Alignment module error codes
const (
	// ErrCodeDegenerateInput: the three source points are coincident or
	// collinear (or the fitted scale is non-finite); the similarity
	// transform is underdetermined.
	ErrCodeDegenerateInput ErrorCode = "ALN_001"

	// ErrCodeTooFewPoints: fewer than three point pairs were supplied.
	ErrCodeTooFewPoints ErrorCode = "ALN_002"

	// ErrCodeCoincidentPoints: two source (or two target) points occupy the
	// same location, so the correspondence set is invalid before any math
	// runs.
	ErrCodeCoincidentPoints ErrorCode = "ALN_003"
)

// Job / polling module error codes
const (
	// ErrCodeJobFailed: the remote service reported a definitive failure.
	ErrCodeJobFailed ErrorCode = "JOB_001"

	// ErrCodeJobTimedOut: the polling budget was exhausted without the job
	// reaching a terminal status.  The remote job may still finish later.
	ErrCodeJobTimedOut ErrorCode = "JOB_002"

	// ErrCodePollingUnreachable: consecutive status fetches failed beyond
	// the retry budget; we lost contact with the server, which is distinct
	// from the job itself failing.
	ErrCodePollingUnreachable ErrorCode = "JOB_003"

	// ErrCodeJobUnbounded: a poller was constructed without a max-attempts
	// or wall-clock bound.  This is a programming error, surfaced at
	// construction time rather than as an endless loop.
	ErrCodeJobUnbounded ErrorCode = "JOB_004"

	// ErrCodeJobCancelled: the caller cancelled the handle before the job
	// reached a terminal status.
	ErrCodeJobCancelled ErrorCode = "JOB_005"
)

// Change module error codes
const (
	ErrCodeChangeNotFound ErrorCode = "CHG_001"

	// ErrCodeParseWarning: a cost or schedule string could not be parsed.
	// Non-fatal; the affected field is treated as absent.
	ErrCodeParseWarning ErrorCode = "CHG_002"

	ErrCodeChangeUpdateFailed ErrorCode = "CHG_003"
)

// Comparison module error codes
const (
	ErrCodeComparisonNotFound   ErrorCode = "CMP_001"
	ErrCodeSubmitFailed         ErrorCode = "CMP_002"
	ErrCodeComparisonIncomplete ErrorCode = "CMP_003"
)

// ErrorCodeHTTPStatus maps ErrorCodes to HTTP status codes.
var ErrorCodeHTTPStatus = map[ErrorCode]int{
	ErrCodeInternal:           http.StatusInternalServerError,
	ErrCodeBadRequest:         http.StatusBadRequest,
	ErrCodeUnauthorized:       http.StatusUnauthorized,
	ErrCodeForbidden:          http.StatusForbidden,
	ErrCodeNotFound:           http.StatusNotFound,
	ErrCodeConflict:           http.StatusConflict,
	ErrCodeTooManyRequests:    http.StatusTooManyRequests,
	ErrCodeServiceUnavailable: http.StatusServiceUnavailable,
	ErrCodeTimeout:            http.StatusGatewayTimeout,
	ErrCodeValidation:         http.StatusUnprocessableEntity,
	ErrCodeSerialization:      http.StatusInternalServerError,
	ErrCodeCacheError:         http.StatusInternalServerError,
	ErrCodeRemoteService:      http.StatusBadGateway,
	ErrCodeUnknown:            http.StatusInternalServerError,

	ErrCodeDegenerateInput:  http.StatusUnprocessableEntity,
	ErrCodeTooFewPoints:     http.StatusBadRequest,
	ErrCodeCoincidentPoints: http.StatusBadRequest,

	ErrCodeJobFailed:          http.StatusBadGateway,
	ErrCodeJobTimedOut:        http.StatusGatewayTimeout,
	ErrCodePollingUnreachable: http.StatusBadGateway,
	ErrCodeJobUnbounded:       http.StatusInternalServerError,
	ErrCodeJobCancelled:       http.StatusConflict,

	ErrCodeChangeNotFound:     http.StatusNotFound,
	ErrCodeParseWarning:       http.StatusOK,
	ErrCodeChangeUpdateFailed: http.StatusBadGateway,

	ErrCodeComparisonNotFound:   http.StatusNotFound,
	ErrCodeSubmitFailed:         http.StatusBadGateway,
	ErrCodeComparisonIncomplete: http.StatusConflict,
}

// ErrorCodeMessage maps ErrorCodes to default human-readable messages.
// Every terminal job state has a distinct message because the dashboard
// decides between a "retry" and a "check back later" affordance from it.
var ErrorCodeMessage = map[ErrorCode]string{
	ErrCodeInternal:           "internal server error",
	ErrCodeBadRequest:         "bad request",
	ErrCodeUnauthorized:       "unauthorized",
	ErrCodeForbidden:          "forbidden",
	ErrCodeNotFound:           "resource not found",
	ErrCodeConflict:           "resource conflict",
	ErrCodeTooManyRequests:    "too many requests",
	ErrCodeServiceUnavailable: "service unavailable",
	ErrCodeTimeout:            "request timeout",
	ErrCodeValidation:         "validation failed",
	ErrCodeSerialization:      "serialization failed",
	ErrCodeCacheError:         "cache error",
	ErrCodeRemoteService:      "remote comparison service error",
	ErrCodeUnknown:            "unknown error",

	ErrCodeDegenerateInput:  "alignment points are degenerate; pick three spread-out points",
	ErrCodeTooFewPoints:     "exactly three point pairs are required",
	ErrCodeCoincidentPoints: "two alignment points occupy the same location",

	ErrCodeJobFailed:          "the comparison job failed",
	ErrCodeJobTimedOut:        "the comparison job timed out; it may still finish",
	ErrCodePollingUnreachable: "lost contact with the comparison service",
	ErrCodeJobUnbounded:       "job poller constructed without a bound",
	ErrCodeJobCancelled:       "the job was cancelled",

	ErrCodeChangeNotFound:     "change record not found",
	ErrCodeParseWarning:       "field could not be parsed",
	ErrCodeChangeUpdateFailed: "failed to update change record",

	ErrCodeComparisonNotFound:   "comparison not found",
	ErrCodeSubmitFailed:         "failed to submit comparison",
	ErrCodeComparisonIncomplete: "comparison has not completed",
}

// HTTPStatusForCode returns the HTTP status code for an ErrorCode.
func HTTPStatusForCode(code ErrorCode) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// DefaultMessageForCode returns the default message for an ErrorCode.
func DefaultMessageForCode(code ErrorCode) string {
	if msg, ok := ErrorCodeMessage[code]; ok {
		return msg
	}
	return "unknown error"
}

// IsClientError returns true if the ErrorCode corresponds to a 4xx HTTP status.
func IsClientError(code ErrorCode) bool {
	status := HTTPStatusForCode(code)
	return status >= 400 && status < 500
}

// IsServerError returns true if the ErrorCode corresponds to a 5xx HTTP status.
func IsServerError(code ErrorCode) bool {
	status := HTTPStatusForCode(code)
	return status >= 500 && status < 600
}

// ModuleForCode returns the module prefix of an ErrorCode (e.g. "ALN").
func ModuleForCode(code ErrorCode) string {
	parts := strings.Split(string(code), "_")
	if len(parts) > 0 && parts[0] != "" {
		return parts[0]
	}
	return "UNKNOWN"
}
