// Package main provides a C-callable static library for WESL compilation.
//
// This is built with -buildmode=c-archive to produce libweslc.a
// that can be linked into Zig/C/Rust programs.
//
// Build:
//
//	CGO_ENABLED=1 go build -buildmode=c-archive -o build/libweslc.a ./cmd/weslc-lib
//
// Exported functions:
//
//	weslc_compile(source, source_len, options_json, options_len, out_json, out_json_len) -> error_code
//	weslc_free(ptr) -> void
//	weslc_version() -> *char
package main

/*
#include <stdlib.h>
*/
import "C"
import (
	"unsafe"

	"codeberg.org/saruga/weslc/pkg/api"
)

// Version should match the release version
const version = "0.1.0"

// Error codes
const (
	WESLC_OK             = 0
	WESLC_ERR_NULL_INPUT = 1
	WESLC_ERR_OPTIONS    = 2
)

var cVersion = C.CString(version)

// weslc_compile compiles WESL source code.
//
// Parameters:
//   - source: pointer to WESL source code (UTF-8)
//   - source_len: length of source in bytes
//   - options_json: pointer to JSON options (can be NULL for defaults)
//   - options_len: length of options JSON
//   - out_json: pointer to receive the JSON result with code, errors and sizes
//     (caller must free with weslc_free)
//   - out_json_len: pointer to receive JSON length
//
// Returns:
//   - 0 on success, including when the source has compilation errors
//   - non-zero error code when the call itself is invalid
//
//export weslc_compile
func weslc_compile(
	source *C.char, source_len C.int,
	options_json *C.char, options_len C.int,
	out_json **C.char, out_json_len *C.int,
) C.int {
	if source == nil || out_json == nil || out_json_len == nil {
		return WESLC_ERR_NULL_INPUT
	}

	var options []byte
	if options_json != nil && options_len > 0 {
		options = C.GoBytes(unsafe.Pointer(options_json), options_len)
	}

	out, err := api.CompileJSON(C.GoStringN(source, source_len), options)
	if err != nil {
		return WESLC_ERR_OPTIONS
	}

	*out_json = C.CString(string(out))
	*out_json_len = C.int(len(out))
	return WESLC_OK
}

// weslc_free frees memory allocated by weslc_compile.
//
//export weslc_free
func weslc_free(ptr *C.char) {
	if ptr != nil {
		C.free(unsafe.Pointer(ptr))
	}
}

// weslc_version returns the library version string.
// The returned pointer is static and must NOT be freed.
//
//export weslc_version
func weslc_version() *C.char {
	return cVersion
}

// Required for c-archive build mode
func main() {}
