// Package scope couples a decoded metadata set with every C string derived from it, so a
// single Close releases both.
//
// Strings are copied into independent, NUL-terminated Go allocations and pinned with a
// runtime.Pinner. The addresses returned by AddString may therefore be stored by C code and
// stay valid, unchanged, until Close. The pair array returned by Refresh is pinned the same
// way and is layout-compatible with
//
//	typedef struct { const char* key; const char* value; } EXIF_KeyValuePair;
//
// A Scope is not safe for concurrent use.
package scope

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
	"unsafe"

	"github.com/samcharles93/exifscope/internal/exifmeta"
)

var (
	ErrEncoding = errors.New("scope: string cannot be represented as a C string")
	ErrNotFound = errors.New("scope: field not found")
	ErrClosed   = errors.New("scope: closed")
)

// Metadata is the read-only view a Scope needs from the decoder.
type Metadata interface {
	LittleEndian() bool
	Fields() []exifmeta.Field
}

// Pair mirrors EXIF_KeyValuePair. Both members point into the owning Scope's arena.
type Pair struct {
	Key   *byte
	Value *byte
}

type Scope struct {
	meta Metadata

	// strings is append-only; each element is its own allocation so growth never moves
	// an issued string.
	strings [][]byte
	pairs   []Pair
	// pairsPin is the first element of the pinned pair backing array.
	pairsPin *byte
	pinner   runtime.Pinner
	closed   bool
}

// New takes ownership of meta.
func New(meta Metadata) *Scope {
	return &Scope{meta: meta}
}

// Metadata returns the owned metadata, or nil after Close.
func (s *Scope) Metadata() Metadata {
	return s.meta
}

// Len reports how many strings the arena holds.
func (s *Scope) Len() int {
	return len(s.strings)
}

// AddString copies text into the arena and returns the address of its first byte.
func (s *Scope) AddString(text string) (*byte, error) {
	if s.closed {
		return nil, ErrClosed
	}
	if i := strings.IndexByte(text, 0); i >= 0 {
		return nil, fmt.Errorf("%w: NUL byte at offset %d", ErrEncoding, i)
	}
	buf := make([]byte, len(text)+1)
	copy(buf, text)
	s.pinner.Pin(&buf[0])
	s.strings = append(s.strings, buf)
	return &buf[0], nil
}

// AddPair materializes key and value and records them as the next pair.
func (s *Scope) AddPair(key, value string) error {
	k, err := s.AddString(key)
	if err != nil {
		return err
	}
	v, err := s.AddString(value)
	if err != nil {
		return err
	}
	s.pairs = append(s.pairs, Pair{Key: k, Value: v})
	s.pinPairs()
	return nil
}

func (s *Scope) pinPairs() {
	first := (*byte)(unsafe.Pointer(&s.pairs[0]))
	if first == s.pairsPin {
		return
	}
	s.pinner.Pin(&s.pairs[0])
	s.pairsPin = first
}

// Pairs returns the pairs recorded since the last Refresh.
func (s *Scope) Pairs() []Pair {
	return s.pairs
}

// Refresh rebuilds the pair list from the metadata, one "{ifd}.{tag}" -> value pair per
// field. Strings from earlier refreshes stay valid; the previously returned pair slice
// does not, since its backing array is reused when large enough.
func (s *Scope) Refresh() ([]Pair, error) {
	if s.closed {
		return nil, ErrClosed
	}
	s.pairs = s.pairs[:0]
	for _, f := range s.meta.Fields() {
		if err := s.AddPair(f.Key(), f.Value); err != nil {
			return nil, fmt.Errorf("field %s: %w", f.Key(), err)
		}
	}
	return s.pairs, nil
}

// Lookup materializes the value of the first field whose tag name or "{ifd}.{tag}" key
// equals name.
func (s *Scope) Lookup(name string) (*byte, error) {
	if s.closed {
		return nil, ErrClosed
	}
	f, ok := s.find(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return s.AddString(f.Value)
}

// Has reports whether Lookup would find name. It adds nothing to the arena.
func (s *Scope) Has(name string) bool {
	if s.closed {
		return false
	}
	_, ok := s.find(name)
	return ok
}

func (s *Scope) find(name string) (exifmeta.Field, bool) {
	for _, f := range s.meta.Fields() {
		if f.Tag == name || f.Key() == name {
			return f, true
		}
	}
	return exifmeta.Field{}, false
}

// Close unpins and drops the arena, the pair array and the metadata together. Every
// address handed out by this Scope is invalid afterwards.
func (s *Scope) Close() error {
	if s.closed {
		return nil
	}
	s.pinner.Unpin()
	s.strings = nil
	s.pairs = nil
	s.pairsPin = nil
	s.meta = nil
	s.closed = true
	return nil
}

// GoString copies the NUL-terminated string at p.
func GoString(p *byte) string {
	if p == nil {
		return ""
	}
	n := 0
	for *(*byte)(unsafe.Add(unsafe.Pointer(p), n)) != 0 {
		n++
	}
	return string(unsafe.Slice(p, n))
}
