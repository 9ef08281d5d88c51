// Command libexifscope is built as a C shared library:
//
//	go build -buildmode=c-shared -o libexifscope.so ./cmd/libexifscope
//
// cgo writes libexifscope.h next to the library. It includes exifscope.h, which holds
// the ABI types and must be shipped with it. See exports.go for the functions and
// testdata/driver.c for a minimal C caller.
package main

func main() {}
