//go:build js && wasm

// Command weslc-wasm is the WebAssembly build of the WESL compiler.
// It exposes compilation to JavaScript via syscall/js.
package main

import (
	"encoding/json"
	"syscall/js"

	"codeberg.org/saruga/weslc/pkg/api"
)

var version = "0.1.0"

func main() {
	// Export functions to JavaScript
	js.Global().Set("__weslc", js.ValueOf(map[string]interface{}{
		"compile": js.FuncOf(compileJS),
		"version": version,
	}))

	// Keep the Go runtime alive
	select {}
}

// compileJS is the JavaScript-callable compile function.
// Signature: __weslc.compile(source: string, options?: object) => object
func compileJS(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return makeError("compile requires at least 1 argument (source)")
	}

	var options []byte
	if len(args) > 1 && !args[1].IsUndefined() && !args[1].IsNull() {
		options = []byte(js.Global().Get("JSON").Call("stringify", args[1]).String())
	}

	out, err := api.CompileJSON(args[0].String(), options)
	if err != nil {
		return makeError(err.Error())
	}

	var result map[string]interface{}
	if err := json.Unmarshal(out, &result); err != nil {
		return makeError(err.Error())
	}
	return js.ValueOf(result)
}

// makeError creates a result object with an error.
func makeError(msg string) interface{} {
	return map[string]interface{}{
		"code": "",
		"errors": []interface{}{
			map[string]interface{}{"message": msg},
		},
		"originalSize": 0,
		"outputSize":   0,
	}
}
