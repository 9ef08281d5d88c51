package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/labstack/echo/v5"

	"github.com/samcharles93/exifscope/internal/boundary"
)

func writeJSON(c *echo.Context, status int, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	res := c.Response()
	res.Header().Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	res.WriteHeader(status)
	_, err = res.Write(b)
	return err
}

func writeBadRequest(c *echo.Context, msg, param string) error {
	return writeError(c, http.StatusBadRequest, "invalid_request_error", msg, param, "")
}

func writeNotFound(c *echo.Context, msg, param string) error {
	return writeError(c, http.StatusNotFound, "not_found_error", msg, param, "")
}

func writeError(c *echo.Context, status int, errType, msg, param, code string) error {
	return writeJSON(c, status, errorEnvelope{Error: ResponseError{
		Message: msg,
		Type:    errType,
		Code:    code,
		Param:   param,
	}})
}

func writeCode(c *echo.Context, code boundary.ErrorCode, msg string) error {
	status, errType := statusFor(code)
	return writeError(c, status, errType, msg, "", code.String())
}

var errBodyTooLarge = errors.New("request body too large")

// readBody reads at most limit bytes of the request body. limit <= 0 means unlimited.
func readBody(c *echo.Context, limit int64) ([]byte, error) {
	body := c.Request().Body
	if body == nil {
		return []byte{}, nil
	}
	var r io.Reader = body
	if limit > 0 {
		r = io.LimitReader(body, limit+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, newInvalidRequest(fmt.Sprintf("read body: %v", err))
	}
	if limit > 0 && int64(len(data)) > limit {
		return nil, errBodyTooLarge
	}
	return data, nil
}

func byteOrderName(little bool) string {
	if little {
		return "little_endian"
	}
	return "big_endian"
}

func newMetadataID() string {
	return "exif_" + uuid.NewString()
}
