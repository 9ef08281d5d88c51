package main

/*
#include "exifscope.h"
*/
import "C"

import (
	"sync"
	"unsafe"

	"github.com/samcharles93/exifscope/internal/boundary"
	"github.com/samcharles93/exifscope/internal/handle"
	"github.com/samcharles93/exifscope/internal/scope"
	"github.com/samcharles93/exifscope/internal/version"
)

// scope.Pair must stay layout-identical to EXIF_KeyValuePair.
var (
	_ [unsafe.Sizeof(C.EXIF_KeyValuePair{}) - unsafe.Sizeof(scope.Pair{})]byte
	_ [unsafe.Sizeof(scope.Pair{}) - unsafe.Sizeof(C.EXIF_KeyValuePair{})]byte
)

// current is the Boundary every export runs against.
var current = boundary.Default

func code(c boundary.ErrorCode) C.EXIF_ErrorCodes {
	return C.EXIF_ErrorCodes(c)
}

func toHandle(d C.EXIF_ExifData) handle.Handle {
	return handle.Handle(d.val)
}

// EXIF_load decodes length bytes at data. On success error_code is EXIF_Ok and data.val is
// non-zero; the handle must later be passed to EXIF_free exactly once. On failure data.val
// is zero and nothing needs to be freed. The input buffer is copied and may be released as
// soon as the call returns.
//
//export EXIF_load
func EXIF_load(data *C.uint8_t, length C.size_t) C.EXIF_ExifParseResult {
	var res boundary.ParseResult
	if data == nil {
		res = current().Load(nil)
	} else {
		// The length is checked against the addressable and configured limits before
		// anything is read from data.
		res = current().LoadSized(uint64(length), func(dst []byte) {
			copy(dst, unsafe.Slice((*byte)(unsafe.Pointer(data)), len(dst)))
		})
	}
	return C.EXIF_ExifParseResult{
		data:       C.EXIF_ExifData{val: C.uintptr_t(res.Handle)},
		error_code: code(res.Code),
	}
}

// EXIF_free releases the handle and every string or pair array obtained through it.
//
//export EXIF_free
func EXIF_free(data C.EXIF_ExifData) C.EXIF_ErrorCodes {
	return code(current().Free(toHandle(data)))
}

// EXIF_is_little_endian stores the byte order of the EXIF block in *little_endian.
//
//export EXIF_is_little_endian
func EXIF_is_little_endian(data C.EXIF_ExifData, littleEndian *C.bool) C.EXIF_ErrorCodes {
	if littleEndian == nil {
		return code(boundary.Nullptr)
	}
	little, c := current().IsLittleEndian(toHandle(data))
	if c == boundary.Ok {
		*littleEndian = C.bool(little)
	}
	return code(c)
}

// EXIF_get_key_value_pairs stores an array of "{ifd}.{tag}" -> value pairs in *pairs and
// its length in *count. The array is replaced by the next call on the same handle; the
// strings it points to stay valid until EXIF_free.
//
//export EXIF_get_key_value_pairs
func EXIF_get_key_value_pairs(data C.EXIF_ExifData, pairs **C.EXIF_KeyValuePair, count *C.size_t) C.EXIF_ErrorCodes {
	if pairs == nil || count == nil {
		return code(boundary.Nullptr)
	}
	got, c := current().KeyValuePairs(toHandle(data))
	if c != boundary.Ok {
		return code(c)
	}
	if len(got) == 0 {
		*pairs = nil
		*count = 0
		return code(c)
	}
	// The backing array is pinned by the scope that owns it.
	*pairs = (*C.EXIF_KeyValuePair)(unsafe.Pointer(&got[0]))
	*count = C.size_t(len(got))
	return code(c)
}

// EXIF_get_value stores the display value of tag ("Orientation" or "0.Orientation") in
// *value. The string stays valid until EXIF_free.
//
//export EXIF_get_value
func EXIF_get_value(data C.EXIF_ExifData, tag *C.char, value **C.char) C.EXIF_ErrorCodes {
	if tag == nil || value == nil {
		return code(boundary.Nullptr)
	}
	p, c := current().GetValue(toHandle(data), C.GoString(tag))
	if c == boundary.Ok {
		*value = (*C.char)(unsafe.Pointer(p))
	}
	return code(c)
}

var (
	versionOnce sync.Once
	versionStr  *C.char
)

// EXIF_version returns a static, NUL-terminated version string. Do not free it.
//
//export EXIF_version
func EXIF_version() *C.char {
	versionOnce.Do(func() {
		versionStr = C.CString(version.String())
	})
	return versionStr
}
