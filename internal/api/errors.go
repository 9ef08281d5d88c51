package api

import (
	"errors"
	"net/http"

	"github.com/samcharles93/exifscope/internal/boundary"
)

var ErrInvalidRequest = errors.New("invalid_request")

type invalidRequestError struct {
	msg string
}

func (e invalidRequestError) Error() string {
	return e.msg
}

func (e invalidRequestError) Unwrap() error {
	return ErrInvalidRequest
}

func newInvalidRequest(msg string) error {
	return invalidRequestError{msg: msg}
}

// statusFor maps a boundary error code to an HTTP status and error type.
func statusFor(code boundary.ErrorCode) (int, string) {
	switch code {
	case boundary.Ok:
		return http.StatusOK, ""
	case boundary.Nullptr:
		return http.StatusBadRequest, "invalid_request_error"
	case boundary.ParseError:
		return http.StatusUnprocessableEntity, "parse_error"
	default:
		return http.StatusInternalServerError, "server_error"
	}
}
