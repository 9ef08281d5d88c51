// Package api serves the boundary operations over HTTP. Each request loads its own handle
// and frees it before the response is written.
package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v5"

	"github.com/samcharles93/exifscope/internal/boundary"
	"github.com/samcharles93/exifscope/internal/handle"
	"github.com/samcharles93/exifscope/internal/logger"
	"github.com/samcharles93/exifscope/internal/scope"
	"github.com/samcharles93/exifscope/internal/version"
)

// DefaultMaxBody applies when no input limit is configured.
const DefaultMaxBody = 64 << 20

type Server struct {
	boundary *boundary.Boundary
	log      logger.Logger
	maxBody  int64
	clock    func() time.Time
}

type ServerOption func(*Server)

func WithLogger(l logger.Logger) ServerOption {
	return func(s *Server) {
		if l != nil {
			s.log = l
		}
	}
}

// WithMaxBody caps request bodies. n <= 0 restores DefaultMaxBody.
func WithMaxBody(n int64) ServerOption {
	return func(s *Server) {
		if n <= 0 {
			n = DefaultMaxBody
		}
		s.maxBody = n
	}
}

func NewServer(b *boundary.Boundary, opts ...ServerOption) *Server {
	if b == nil {
		b = boundary.New()
	}
	s := &Server{
		boundary: b,
		log:      logger.Discard(),
		maxBody:  DefaultMaxBody,
		clock:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Server) Register(e *echo.Echo) {
	e.POST("/v1/metadata", s.handleMetadata)
	e.POST("/v1/metadata/value", s.handleValue)
	e.GET("/healthz", s.handleHealth)
}

// load reads the body and binds it to a handle. On failure the error response has already
// been written and the returned handle is Null.
func (s *Server) load(c *echo.Context) (handle.Handle, error) {
	data, err := readBody(c, s.maxBody)
	if errors.Is(err, errBodyTooLarge) {
		return handle.Null, writeError(c, http.StatusRequestEntityTooLarge, "invalid_request_error", err.Error(), "body", "")
	}
	if errors.Is(err, ErrInvalidRequest) {
		return handle.Null, writeBadRequest(c, err.Error(), "body")
	}
	if err != nil {
		return handle.Null, writeError(c, http.StatusInternalServerError, "server_error", err.Error(), "", "")
	}
	res := s.boundary.Load(data)
	if res.Code != boundary.Ok {
		s.log.Debug("load failed", "code", res.Code.String(), "bytes", len(data))
		return handle.Null, writeCode(c, res.Code, "could not decode EXIF metadata")
	}
	return res.Handle, nil
}

func (s *Server) free(h handle.Handle) {
	if code := s.boundary.Free(h); code != boundary.Ok {
		s.log.Warn("free failed", "handle", uint64(h), "code", code.String())
	}
}

func (s *Server) handleMetadata(c *echo.Context) error {
	h, err := s.load(c)
	if h.IsNull() {
		return err
	}
	defer s.free(h)

	little, code := s.boundary.IsLittleEndian(h)
	if code != boundary.Ok {
		return writeCode(c, code, "byte order unavailable")
	}
	pairs, code := s.boundary.KeyValuePairs(h)
	if code != boundary.Ok {
		return writeCode(c, code, "attributes unavailable")
	}

	// Copy out before the deferred free invalidates the strings.
	fields := make([]Field, 0, len(pairs))
	for _, p := range pairs {
		fields = append(fields, Field{Key: scope.GoString(p.Key), Value: scope.GoString(p.Value)})
	}
	return writeJSON(c, http.StatusOK, MetadataResponse{
		ID:           newMetadataID(),
		Object:       "exif.metadata",
		CreatedAt:    s.clock().Unix(),
		LittleEndian: little,
		ByteOrder:    byteOrderName(little),
		Fields:       fields,
	})
}

func (s *Server) handleValue(c *echo.Context) error {
	tag := strings.TrimSpace(c.QueryParam("tag"))
	if tag == "" {
		return writeBadRequest(c, "tag query parameter is required", "tag")
	}

	h, err := s.load(c)
	if h.IsNull() {
		return err
	}
	defer s.free(h)

	p, code := s.boundary.GetValue(h, tag)
	if code == boundary.UnknownError {
		// UnknownError also covers values that cannot be represented as C strings.
		if found, hasCode := s.boundary.HasField(h, tag); hasCode == boundary.Ok && !found {
			return writeNotFound(c, "no attribute named "+tag, "tag")
		}
	}
	if code != boundary.Ok {
		return writeCode(c, code, "value unavailable")
	}
	return writeJSON(c, http.StatusOK, ValueResponse{
		ID:     newMetadataID(),
		Object: "exif.value",
		Tag:    tag,
		Value:  scope.GoString(p),
	})
}

func (s *Server) handleHealth(c *echo.Context) error {
	return writeJSON(c, http.StatusOK, HealthResponse{
		Status:      "ok",
		Version:     version.String(),
		OpenHandles: s.boundary.Open(),
	})
}
