package errors

import (
	"encoding/json"
	"net/http"
)

// ErrorHandler normalizes engine errors and writes them as HTTP responses.
type ErrorHandler struct {
	logger Logger
}

type Logger interface {
	Error(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
}

func NewErrorHandler(logger Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// statusForCode maps taxonomy codes to HTTP status codes.
func statusForCode(code ErrorCode) int {
	switch code {
	case ErrCodeValidationFailed:
		return http.StatusBadRequest
	case ErrCodeSessionNotFound:
		return http.StatusNotFound
	case ErrCodeStoreTimeout, ErrCodeCatalogTimeout:
		return http.StatusGatewayTimeout
	case ErrCodeSessionStoreFailed, ErrCodeCatalogQueryFailed, ErrCodeSessionConflict:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// errorBody is the wire shape of an error response.
type errorBody struct {
	Error struct {
		Code      string `json:"code"`
		Message   string `json:"message"`
		Details   string `json:"details,omitempty"`
		Retryable bool   `json:"retryable"`
	} `json:"error"`
}

// Respond normalizes err to a StandardError, logs it, and writes the JSON
// error response. Validation and not-found errors log at warn; everything
// else at error.
func (h *ErrorHandler) Respond(w http.ResponseWriter, err error) {
	stdErr := AsStandard(err)
	status := statusForCode(stdErr.Code)

	fields := map[string]interface{}{
		"errorCode": string(stdErr.Code),
		"category":  GetErrorCategory(stdErr.Code),
		"details":   stdErr.Details,
		"retryable": stdErr.Retryable,
	}
	if status < http.StatusInternalServerError {
		h.logger.Warn("request failed", fields)
	} else {
		h.logger.Error("request failed", fields)
	}

	var body errorBody
	body.Error.Code = string(stdErr.Code)
	body.Error.Message = stdErr.Message
	body.Error.Details = stdErr.Details
	body.Error.Retryable = stdErr.Retryable

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
