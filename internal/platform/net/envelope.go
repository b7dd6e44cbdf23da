package net

import (
	"net/http"

	perr "callerid/internal/platform/errors"
)

// Envelope is the body every endpoint writes
type Envelope struct {
	StatusCode int            `json:"status_code"`
	Status     string         `json:"status"`
	Code       perr.ErrorCode `json:"code,omitempty"`
	Error      string         `json:"error,omitempty"`
	RequestID  string         `json:"request_id,omitempty"`
	Data       any            `json:"data,omitempty"`
}

// Success wraps data for a 2xx reply
func Success(status int, data any, reqID string) Envelope {
	return Envelope{
		StatusCode: status,
		Status:     http.StatusText(status),
		RequestID:  reqID,
		Data:       data,
	}
}

// Failure maps err onto its HTTP status and wire code. A nil err is a 200
func Failure(err error, reqID string) (int, Envelope) {
	if err == nil {
		return http.StatusOK, Success(http.StatusOK, nil, reqID)
	}
	status := perr.HTTPStatus(err)
	code, msg := perr.Public(err)
	return status, Envelope{
		StatusCode: status,
		Status:     http.StatusText(status),
		Code:       code,
		Error:      msg,
		RequestID:  reqID,
	}
}
