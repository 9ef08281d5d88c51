package main

/*
#include "exifscope.h"
*/
import "C"

import (
	"unsafe"

	"github.com/samcharles93/exifscope/internal/boundary"
	"github.com/samcharles93/exifscope/internal/handle"
	"github.com/samcharles93/exifscope/internal/scope"
)

// The functions below drive the exports with C-typed arguments built from Go values, the
// way a C caller would. Test files cannot use cgo, so they go through these.

func exifData(h handle.Handle) C.EXIF_ExifData {
	return C.EXIF_ExifData{val: C.uintptr_t(h)}
}

func cString(s string) *C.char {
	buf := append([]byte(s), 0)
	return (*C.char)(unsafe.Pointer(&buf[0]))
}

// callLoad passes data with an explicit length. nil data is a NULL pointer; an empty
// non-nil slice is a valid pointer to zero bytes.
func callLoad(data []byte, length uint64) (handle.Handle, boundary.ErrorCode) {
	var p *C.uint8_t
	if data != nil {
		if len(data) == 0 {
			data = make([]byte, 1)
		}
		p = (*C.uint8_t)(unsafe.Pointer(&data[0]))
	}
	res := EXIF_load(p, C.size_t(length))
	return handle.Handle(res.data.val), boundary.ErrorCode(res.error_code)
}

func callFree(h handle.Handle) boundary.ErrorCode {
	return boundary.ErrorCode(EXIF_free(exifData(h)))
}

func callIsLittleEndian(h handle.Handle, withOut bool) (bool, boundary.ErrorCode) {
	var out C.bool
	p := &out
	if !withOut {
		p = nil
	}
	c := EXIF_is_little_endian(exifData(h), p)
	return bool(out), boundary.ErrorCode(c)
}

type pairsCall struct {
	pairs map[string]string
	null  bool
	count int
	code  boundary.ErrorCode
}

// callPairs seeds the out-parameters with non-zero values so the caller can see what the
// export wrote back.
func callPairs(h handle.Handle, withPairs, withCount bool) pairsCall {
	seed := C.EXIF_KeyValuePair{}
	arr := &seed
	n := C.size_t(99)

	pp, np := &arr, &n
	if !withPairs {
		pp = nil
	}
	if !withCount {
		np = nil
	}
	res := pairsCall{code: boundary.ErrorCode(EXIF_get_key_value_pairs(exifData(h), pp, np))}
	res.null = arr == nil
	res.count = int(n)
	if res.code == boundary.Ok && arr != nil {
		got := unsafe.Slice((*scope.Pair)(unsafe.Pointer(arr)), int(n))
		res.pairs = make(map[string]string, len(got))
		for _, p := range got {
			res.pairs[scope.GoString(p.Key)] = scope.GoString(p.Value)
		}
	}
	return res
}

func callGetValue(h handle.Handle, tag string, nullTag, withOut bool) (string, boundary.ErrorCode) {
	t := cString(tag)
	if nullTag {
		t = nil
	}
	var out *C.char
	p := &out
	if !withOut {
		p = nil
	}
	c := boundary.ErrorCode(EXIF_get_value(exifData(h), t, p))
	if out == nil {
		return "", c
	}
	return C.GoString(out), c
}

func callVersion() (uintptr, string) {
	p := EXIF_version()
	return uintptr(unsafe.Pointer(p)), C.GoString(p)
}
