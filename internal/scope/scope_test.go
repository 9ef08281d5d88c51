package scope

import (
	"errors"
	"fmt"
	"testing"

	"github.com/samcharles93/exifscope/internal/exifmeta"
)

type fakeMeta struct {
	little bool
	fields []exifmeta.Field
}

func (m fakeMeta) LittleEndian() bool       { return m.little }
func (m fakeMeta) Fields() []exifmeta.Field { return m.fields }

func newScope(t *testing.T, fields ...exifmeta.Field) *Scope {
	t.Helper()
	s := New(fakeMeta{little: true, fields: fields})
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestAddStringStable(t *testing.T) {
	t.Parallel()

	s := newScope(t)
	first, err := s.AddString("hello")
	if err != nil {
		t.Fatalf("AddString: %v", err)
	}

	// Grow the arena well past any initial capacity.
	for i := range 1000 {
		if _, err := s.AddString(fmt.Sprintf("filler-%d", i)); err != nil {
			t.Fatalf("AddString filler: %v", err)
		}
	}

	if got := GoString(first); got != "hello" {
		t.Fatalf("first string changed: got %q", got)
	}
	if s.Len() != 1001 {
		t.Fatalf("arena size: got %d want %d", s.Len(), 1001)
	}
}

func TestAddStringEmbeddedNUL(t *testing.T) {
	t.Parallel()

	s := newScope(t)
	if _, err := s.AddString("ok"); err != nil {
		t.Fatalf("AddString: %v", err)
	}
	p, err := s.AddString("bad\x00string")
	if !errors.Is(err, ErrEncoding) {
		t.Fatalf("expected ErrEncoding, got %v", err)
	}
	if p != nil {
		t.Fatalf("expected nil pointer on failure")
	}
	if s.Len() != 1 {
		t.Fatalf("failed string must not be stored, arena size %d", s.Len())
	}
}

func TestAddStringEmpty(t *testing.T) {
	t.Parallel()

	s := newScope(t)
	p, err := s.AddString("")
	if err != nil {
		t.Fatalf("AddString: %v", err)
	}
	if p == nil || *p != 0 {
		t.Fatalf("expected pointer to a lone terminator")
	}
}

func TestRefreshFormatsKeys(t *testing.T) {
	t.Parallel()

	s := newScope(t,
		exifmeta.Field{IFD: 0, Tag: "Orientation", Value: "1"},
		exifmeta.Field{IFD: 1, Tag: "Compression", Value: "6"},
	)
	pairs, err := s.Refresh()
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if len(pairs) != 2 {
		t.Fatalf("pair count: got %d want 2", len(pairs))
	}
	want := [][2]string{{"0.Orientation", "1"}, {"1.Compression", "6"}}
	for i, p := range pairs {
		if GoString(p.Key) != want[i][0] || GoString(p.Value) != want[i][1] {
			t.Fatalf("pair %d: got %s=%s want %s=%s", i, GoString(p.Key), GoString(p.Value), want[i][0], want[i][1])
		}
	}
}

func TestRefreshKeepsEarlierStrings(t *testing.T) {
	t.Parallel()

	s := newScope(t,
		exifmeta.Field{IFD: 0, Tag: "Make", Value: "Acme"},
		exifmeta.Field{IFD: 0, Tag: "Model", Value: "Rocket"},
	)
	first, err := s.Refresh()
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	key, value := first[0].Key, first[0].Value
	var before [][2]string
	for _, p := range first {
		before = append(before, [2]string{GoString(p.Key), GoString(p.Value)})
	}

	second, err := s.Refresh()
	if err != nil {
		t.Fatalf("second Refresh: %v", err)
	}
	if len(second) != len(before) {
		t.Fatalf("pair count changed: %d vs %d", len(second), len(before))
	}
	if GoString(key) != "0.Make" || GoString(value) != "Acme" {
		t.Fatalf("string from first refresh changed: %q=%q", GoString(key), GoString(value))
	}
	if s.Len() != 8 {
		t.Fatalf("strings are never removed: arena size got %d want 8", s.Len())
	}
	for i, p := range second {
		if GoString(p.Key) != before[i][0] || GoString(p.Value) != before[i][1] {
			t.Fatalf("pair %d differs between refreshes", i)
		}
	}
}

func TestRefreshEncodingFailureKeepsStrings(t *testing.T) {
	t.Parallel()

	s := newScope(t,
		exifmeta.Field{IFD: 0, Tag: "Make", Value: "Acme"},
		exifmeta.Field{IFD: 0, Tag: "UserComment", Value: "a\x00b"},
	)
	if _, err := s.Refresh(); !errors.Is(err, ErrEncoding) {
		t.Fatalf("expected ErrEncoding, got %v", err)
	}
	// Make key/value plus the UserComment key were materialized before the failure.
	if s.Len() != 3 {
		t.Fatalf("arena size: got %d want 3", s.Len())
	}
}

func TestRefreshEmpty(t *testing.T) {
	t.Parallel()

	s := newScope(t)
	pairs, err := s.Refresh()
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if len(pairs) != 0 {
		t.Fatalf("expected no pairs, got %d", len(pairs))
	}
}

func TestLookup(t *testing.T) {
	t.Parallel()

	s := newScope(t,
		exifmeta.Field{IFD: 0, Tag: "Orientation", Value: "1"},
		exifmeta.Field{IFD: 1, Tag: "Orientation", Value: "8"},
	)

	p, err := s.Lookup("Orientation")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if GoString(p) != "1" {
		t.Fatalf("Lookup by tag: got %q", GoString(p))
	}
	p, err = s.Lookup("1.Orientation")
	if err != nil {
		t.Fatalf("Lookup by key: %v", err)
	}
	if GoString(p) != "8" {
		t.Fatalf("Lookup by key: got %q", GoString(p))
	}
	if _, err := s.Lookup("GPSLatitude"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestHas(t *testing.T) {
	t.Parallel()

	s := newScope(t, exifmeta.Field{IFD: 0, Tag: "UserComment", Value: "nul\x00inside"})

	if !s.Has("UserComment") || !s.Has("0.UserComment") {
		t.Fatalf("Has: expected UserComment to be found")
	}
	if s.Has("GPSLatitude") {
		t.Fatalf("Has: unexpected GPSLatitude")
	}
	if s.Len() != 0 {
		t.Fatalf("Has must not grow the arena, got %d strings", s.Len())
	}
	// The field exists but its value cannot cross as a C string.
	if _, err := s.Lookup("UserComment"); !errors.Is(err, ErrEncoding) {
		t.Fatalf("Lookup: got %v want ErrEncoding", err)
	}
}

func TestClose(t *testing.T) {
	t.Parallel()

	s := New(fakeMeta{fields: []exifmeta.Field{{Tag: "Make", Value: "Acme"}}})
	if _, err := s.Refresh(); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if s.Metadata() != nil || s.Len() != 0 || len(s.Pairs()) != 0 {
		t.Fatalf("Close left state behind")
	}
	if _, err := s.AddString("x"); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
	if _, err := s.Refresh(); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed from Refresh, got %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}

func TestGoStringNil(t *testing.T) {
	t.Parallel()

	if got := GoString(nil); got != "" {
		t.Fatalf("GoString(nil): got %q", got)
	}
}
