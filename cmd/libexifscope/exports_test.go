package main

import (
	"math"
	"testing"

	"github.com/samcharles93/exifscope/internal/boundary"
	"github.com/samcharles93/exifscope/internal/exifmeta"
	"github.com/samcharles93/exifscope/internal/exifmeta/exiftest"
	"github.com/samcharles93/exifscope/internal/handle"
	"github.com/samcharles93/exifscope/internal/scope"
)

// useBoundary points the exports at b for the rest of the test. Tests in this file share
// that package state and do not run in parallel.
func useBoundary(t *testing.T, b *boundary.Boundary) *boundary.Boundary {
	t.Helper()
	prev := current
	current = func() *boundary.Boundary { return b }
	t.Cleanup(func() { current = prev })
	return b
}

func mustLoad(t *testing.T, data []byte) handle.Handle {
	t.Helper()
	h, code := callLoad(data, uint64(len(data)))
	if code != boundary.Ok || h.IsNull() {
		t.Fatalf("EXIF_load: got (%d, %v) want bound handle and Ok", h, code)
	}
	return h
}

func TestExportsSampleRoundTrip(t *testing.T) {
	b := useBoundary(t, boundary.New())
	h := mustLoad(t, exiftest.Sample())

	little, code := callIsLittleEndian(h, true)
	if code != boundary.Ok || !little {
		t.Fatalf("EXIF_is_little_endian: got (%v, %v) want (true, Ok)", little, code)
	}

	res := callPairs(h, true, true)
	if res.code != boundary.Ok || res.null || res.count != len(res.pairs) {
		t.Fatalf("EXIF_get_key_value_pairs: got %+v", res)
	}
	if got := res.pairs["0.Orientation"]; got != "1" {
		t.Fatalf("0.Orientation: got %q want %q", got, "1")
	}

	v, code := callGetValue(h, "Make", false, true)
	if code != boundary.Ok || v != "exifscope" {
		t.Fatalf("EXIF_get_value(Make): got (%q, %v)", v, code)
	}

	if code := callFree(h); code != boundary.Ok {
		t.Fatalf("EXIF_free: got %v", code)
	}
	if code := callFree(h); code != boundary.UnknownError {
		t.Fatalf("second EXIF_free: got %v want UnknownError", code)
	}
	if b.Open() != 0 {
		t.Fatalf("leaked %d handles", b.Open())
	}
}

func TestExportsBigEndian(t *testing.T) {
	useBoundary(t, boundary.New())
	h := mustLoad(t, exiftest.SampleBigEndian())
	defer callFree(h)

	if little, code := callIsLittleEndian(h, true); code != boundary.Ok || little {
		t.Fatalf("EXIF_is_little_endian: got (%v, %v) want (false, Ok)", little, code)
	}
}

func TestExportsLoadArguments(t *testing.T) {
	b := useBoundary(t, boundary.New())
	sample := exiftest.Sample()

	tests := []struct {
		name   string
		data   []byte
		length uint64
		want   boundary.ErrorCode
	}{
		{name: "null pointer", data: nil, length: 16, want: boundary.Nullptr},
		{name: "zero length", data: []byte{}, length: 0, want: boundary.ParseError},
		{name: "truncated", data: exiftest.Truncated(), length: uint64(len(exiftest.Truncated())), want: boundary.ParseError},
		{name: "length with sign bit", data: sample[:4], length: 1 << 63, want: boundary.ParseError},
		{name: "max size_t", data: sample[:4], length: math.MaxUint64, want: boundary.ParseError},
	}
	for _, tt := range tests {
		h, code := callLoad(tt.data, tt.length)
		if code != tt.want {
			t.Fatalf("%s: got %v want %v", tt.name, code, tt.want)
		}
		if !h.IsNull() {
			t.Fatalf("%s: failed load returned handle %d", tt.name, h)
		}
	}
	if b.Open() != 0 {
		t.Fatalf("failed loads allocated %d handles", b.Open())
	}
}

func TestExportsLoadMaxInput(t *testing.T) {
	sample := exiftest.Sample()
	useBoundary(t, boundary.New(boundary.WithMaxInput(int64(len(sample)-1))))

	if h, code := callLoad(sample, uint64(len(sample))); code != boundary.ParseError || !h.IsNull() {
		t.Fatalf("oversized input: got (%d, %v) want (0, ParseError)", h, code)
	}
}

func TestExportsNullOutParameters(t *testing.T) {
	b := useBoundary(t, boundary.New())
	h := mustLoad(t, exiftest.Sample())

	if _, code := callIsLittleEndian(h, false); code != boundary.Nullptr {
		t.Fatalf("null little_endian: got %v want Nullptr", code)
	}
	if res := callPairs(h, false, true); res.code != boundary.Nullptr {
		t.Fatalf("null pairs: got %v want Nullptr", res.code)
	}
	if res := callPairs(h, true, false); res.code != boundary.Nullptr {
		t.Fatalf("null count: got %v want Nullptr", res.code)
	}
	if _, code := callGetValue(h, "Make", true, true); code != boundary.Nullptr {
		t.Fatalf("null tag: got %v want Nullptr", code)
	}
	if _, code := callGetValue(h, "Make", false, false); code != boundary.Nullptr {
		t.Fatalf("null value: got %v want Nullptr", code)
	}

	// Rejected calls leave the handle bound and usable.
	if little, code := callIsLittleEndian(h, true); code != boundary.Ok || !little {
		t.Fatalf("EXIF_is_little_endian after rejected calls: got (%v, %v)", little, code)
	}
	if code := callFree(h); code != boundary.Ok {
		t.Fatalf("EXIF_free: got %v", code)
	}
	if b.Open() != 0 {
		t.Fatalf("leaked %d handles", b.Open())
	}
}

type emptyMeta struct{}

func (emptyMeta) LittleEndian() bool       { return false }
func (emptyMeta) Fields() []exifmeta.Field { return nil }

func TestExportsEmptyPairList(t *testing.T) {
	useBoundary(t, boundary.New(boundary.WithDecoder(func([]byte) (scope.Metadata, error) {
		return emptyMeta{}, nil
	})))
	h := mustLoad(t, []byte{1})
	defer callFree(h)

	res := callPairs(h, true, true)
	if res.code != boundary.Ok {
		t.Fatalf("EXIF_get_key_value_pairs: got %v want Ok", res.code)
	}
	if !res.null || res.count != 0 {
		t.Fatalf("empty list: got null=%v count=%d want null=true count=0", res.null, res.count)
	}
}

func TestExportsNullHandle(t *testing.T) {
	useBoundary(t, boundary.New())

	if code := callFree(handle.Null); code != boundary.Nullptr {
		t.Fatalf("EXIF_free(null): got %v", code)
	}
	if _, code := callIsLittleEndian(handle.Null, true); code != boundary.Nullptr {
		t.Fatalf("EXIF_is_little_endian(null): got %v", code)
	}
	if res := callPairs(handle.Null, true, true); res.code != boundary.Nullptr {
		t.Fatalf("EXIF_get_key_value_pairs(null): got %v", res.code)
	}
	if _, code := callGetValue(handle.Null, "Make", false, true); code != boundary.Nullptr {
		t.Fatalf("EXIF_get_value(null): got %v", code)
	}
}

func TestExportsGetValueMissing(t *testing.T) {
	useBoundary(t, boundary.New())
	h := mustLoad(t, exiftest.Sample())
	defer callFree(h)

	if v, code := callGetValue(h, "GPSLatitude", false, true); code != boundary.UnknownError || v != "" {
		t.Fatalf("EXIF_get_value(missing): got (%q, %v) want UnknownError", v, code)
	}
}

func TestExportsVersionStable(t *testing.T) {
	p1, v1 := callVersion()
	p2, v2 := callVersion()
	if p1 == 0 || v1 == "" {
		t.Fatalf("EXIF_version: got empty string")
	}
	if p1 != p2 || v1 != v2 {
		t.Fatalf("EXIF_version changed between calls: %#x %q, %#x %q", p1, v1, p2, v2)
	}
}
