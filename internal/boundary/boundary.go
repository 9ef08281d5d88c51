// Package boundary implements the foreign-callable operations of exifscope on plain Go
// types. cmd/libexifscope only converts C arguments and results; every decision about
// ownership, error codes and panic containment is made here.
//
// Lifecycle of a handle:
//
//	Unbound --Load ok--> Bound --Free--> Released
//	Unbound --Load error--> (handle stays Null)
//
// A bound handle must be freed exactly once and must not be used from two threads at the
// same time. Distinct handles are independent.
package boundary

import (
	"errors"
	"fmt"
	"math"
	"os"
	"runtime/debug"
	"sync"

	"github.com/samcharles93/exifscope/internal/config"
	"github.com/samcharles93/exifscope/internal/exifmeta"
	"github.com/samcharles93/exifscope/internal/handle"
	"github.com/samcharles93/exifscope/internal/logger"
	"github.com/samcharles93/exifscope/internal/scope"
)

// ErrorCode is the caller-visible result of every operation. The values are part of the C
// ABI.
type ErrorCode int32

const (
	Ok ErrorCode = iota
	Nullptr
	ParseError
	UnknownError
)

func (c ErrorCode) String() string {
	switch c {
	case Ok:
		return "Ok"
	case Nullptr:
		return "Nullptr"
	case ParseError:
		return "ParseError"
	case UnknownError:
		return "UnknownError"
	default:
		return fmt.Sprintf("ErrorCode(%d)", int32(c))
	}
}

// ParseResult is returned by Load. Code is Ok exactly when Handle is not Null.
type ParseResult struct {
	Handle handle.Handle
	Code   ErrorCode
}

// DecodeFunc turns encoded image bytes into metadata.
type DecodeFunc func(data []byte) (scope.Metadata, error)

// ExifDecoder adapts an exifmeta.Decoder to a DecodeFunc.
func ExifDecoder(d *exifmeta.Decoder) DecodeFunc {
	return func(data []byte) (scope.Metadata, error) {
		m, err := d.Decode(data)
		if err != nil {
			return nil, err
		}
		return m, nil
	}
}

type Boundary struct {
	handles  *handle.Table[*scope.Scope]
	decode   DecodeFunc
	log      logger.Logger
	maxInput int64
}

type Option func(*Boundary)

func WithLogger(l logger.Logger) Option {
	return func(b *Boundary) {
		if l != nil {
			b.log = l
		}
	}
}

func WithDecoder(fn DecodeFunc) Option {
	return func(b *Boundary) {
		if fn != nil {
			b.decode = fn
		}
	}
}

// WithMaxInput makes Load reject inputs longer than n bytes. n <= 0 disables the limit.
func WithMaxInput(n int64) Option {
	return func(b *Boundary) {
		b.maxInput = n
	}
}

func New(opts ...Option) *Boundary {
	b := &Boundary{
		handles: handle.NewTable[*scope.Scope](),
		decode:  ExifDecoder(exifmeta.NewDecoder(exifmeta.Options{})),
		log:     logger.Discard(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// FromConfig builds a Boundary from cfg. Logging stays off unless cfg sets a level or a
// format. opts are applied last.
func FromConfig(cfg config.Config, opts ...Option) *Boundary {
	log := logger.Discard()
	if cfg.LogLevel != "" || cfg.LogFormat != "" {
		log = logger.FromConfig(os.Stderr, cfg.LogLevelOr("info"), cfg.LogFormatOr("text"))
	}
	return New(append([]Option{
		WithLogger(log.With("component", "exifscope")),
		WithDecoder(ExifDecoder(exifmeta.NewDecoder(exifmeta.Options{MakerNotes: cfg.MakerNotesEnabled()}))),
		WithMaxInput(cfg.MaxInput()),
	}, opts...)...)
}

var (
	defaultOnce sync.Once
	defaultB    *Boundary
)

// Default returns the process-wide Boundary used by the C ABI, configured from the config
// file and environment on first use.
func Default() *Boundary {
	defaultOnce.Do(func() {
		cfg, err := config.FromEnv()
		defaultB = FromConfig(cfg)
		if err != nil {
			defaultB.log.Warn("config partially applied", "error", err)
		}
	})
	return defaultB
}

// guard must be deferred directly. It turns a panic into UnknownError via fail.
func (b *Boundary) guard(op string, fail func(ErrorCode)) {
	if rec := recover(); rec != nil {
		b.log.Error("recovered panic", "op", op, "panic", fmt.Sprint(rec), "stack", string(debug.Stack()))
		fail(UnknownError)
	}
}

func (b *Boundary) codeFor(op string, h handle.Handle, err error) ErrorCode {
	switch {
	case errors.Is(err, handle.ErrNullHandle):
		return Nullptr
	case errors.Is(err, handle.ErrStaleHandle):
		b.log.Warn("stale handle", "op", op, "handle", uint64(h))
		return UnknownError
	default:
		b.log.Debug("operation failed", "op", op, "handle", uint64(h), "error", err)
		return UnknownError
	}
}

// Load decodes data and binds the result to a new handle. A nil slice stands for a null
// C pointer; an empty non-nil slice is an empty buffer.
func (b *Boundary) Load(data []byte) (res ParseResult) {
	defer b.guard("load", func(code ErrorCode) { res = ParseResult{Handle: handle.Null, Code: code} })

	if data == nil {
		return ParseResult{Handle: handle.Null, Code: Nullptr}
	}
	if !b.fits(uint64(len(data))) {
		return ParseResult{Handle: handle.Null, Code: ParseError}
	}
	return b.bind(data)
}

// LoadSized is Load for a buffer the caller still owns. n is its length as reported by the
// caller; fill copies it into dst. fill only runs after n has passed the size checks, and
// it runs under the same panic guard as the decode.
func (b *Boundary) LoadSized(n uint64, fill func(dst []byte)) (res ParseResult) {
	defer b.guard("load", func(code ErrorCode) { res = ParseResult{Handle: handle.Null, Code: code} })

	if fill == nil {
		return ParseResult{Handle: handle.Null, Code: Nullptr}
	}
	if n > math.MaxInt || !b.fits(n) {
		return ParseResult{Handle: handle.Null, Code: ParseError}
	}
	data := make([]byte, int(n))
	fill(data)
	return b.bind(data)
}

func (b *Boundary) fits(n uint64) bool {
	if b.maxInput > 0 && n > uint64(b.maxInput) {
		b.log.Debug("input too large", "bytes", n, "max", b.maxInput)
		return false
	}
	return true
}

func (b *Boundary) bind(data []byte) ParseResult {
	meta, err := b.decode(data)
	if err != nil {
		b.log.Debug("decode failed", "bytes", len(data), "error", err)
		return ParseResult{Handle: handle.Null, Code: ParseError}
	}
	h := b.handles.Bind(scope.New(meta))
	b.log.Debug("loaded", "handle", uint64(h), "bytes", len(data))
	return ParseResult{Handle: h, Code: Ok}
}

// Free releases h together with every string derived from it. Calling it twice on the same
// handle is a caller error; it is reported as UnknownError.
func (b *Boundary) Free(h handle.Handle) (code ErrorCode) {
	defer b.guard("free", func(c ErrorCode) { code = c })

	if err := b.handles.Release(h); err != nil {
		return b.codeFor("free", h, err)
	}
	b.log.Debug("freed", "handle", uint64(h))
	return Ok
}

// IsLittleEndian reports the byte order the decoder found.
func (b *Boundary) IsLittleEndian(h handle.Handle) (little bool, code ErrorCode) {
	defer b.guard("is_little_endian", func(c ErrorCode) { little, code = false, c })

	s, err := b.handles.Borrow(h)
	if err != nil {
		return false, b.codeFor("is_little_endian", h, err)
	}
	return s.Metadata().LittleEndian(), Ok
}

// KeyValuePairs rebuilds and returns the pair array of h. The returned slice is valid until
// the next KeyValuePairs call or Free; the strings it points to are valid until Free.
func (b *Boundary) KeyValuePairs(h handle.Handle) (pairs []scope.Pair, code ErrorCode) {
	defer b.guard("key_value_pairs", func(c ErrorCode) { pairs, code = nil, c })

	s, err := b.handles.BorrowMut(h)
	if err != nil {
		return nil, b.codeFor("key_value_pairs", h, err)
	}
	pairs, err = s.Refresh()
	if err != nil {
		return nil, b.codeFor("key_value_pairs", h, err)
	}
	return pairs, Ok
}

// GetValue materializes the display value of the field named tag ("Orientation" or
// "0.Orientation"). The string is valid until Free.
func (b *Boundary) GetValue(h handle.Handle, tag string) (value *byte, code ErrorCode) {
	defer b.guard("get_value", func(c ErrorCode) { value, code = nil, c })

	s, err := b.handles.BorrowMut(h)
	if err != nil {
		return nil, b.codeFor("get_value", h, err)
	}
	value, err = s.Lookup(tag)
	if err != nil {
		return nil, b.codeFor("get_value", h, err)
	}
	return value, Ok
}

// HasField reports whether h holds a field named tag without materializing its value. It
// tells a missing tag apart from the other causes of a GetValue UnknownError.
func (b *Boundary) HasField(h handle.Handle, tag string) (found bool, code ErrorCode) {
	defer b.guard("has_field", func(c ErrorCode) { found, code = false, c })

	s, err := b.handles.Borrow(h)
	if err != nil {
		return false, b.codeFor("has_field", h, err)
	}
	return s.Has(tag), Ok
}

// Open reports how many handles are bound and not yet freed.
func (b *Boundary) Open() int {
	return b.handles.Len()
}
