// Package api provides the public API for the WESL compiler.
//
// This package is intended for programmatic use of the compiler.
// For CLI usage, see cmd/weslc.
package api

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"slices"

	"github.com/pkg/errors"

	"go.uber.org/multierr"

	"codeberg.org/saruga/weslc/internal/compiler"
	"codeberg.org/saruga/weslc/internal/condcomp"
	"codeberg.org/saruga/weslc/internal/parser"
	"codeberg.org/saruga/weslc/internal/sourcemap"
)

// Options controls compilation.
type Options struct {
	// Features sets feature flags for @if attributes. Flags that are not
	// set stay in the output unless StrictFeatures is true.
	Features map[string]bool `json:"features,omitempty"`

	// StrictFeatures makes a flag missing from Features an error.
	StrictFeatures bool `json:"strictFeatures,omitempty"`

	// Lower drops imports and @generic attributes, validates types,
	// inlines aliases and removes unused @const functions.
	Lower bool `json:"lower"`

	// Keep lists @const functions that lowering must not remove.
	Keep []string `json:"keep,omitempty"`

	// MinifyWhitespace removes unnecessary whitespace and newlines.
	MinifyWhitespace bool `json:"minifyWhitespace,omitempty"`

	// Filename is used in rendered error reports and as the source name
	// in source maps.
	Filename string `json:"filename,omitempty"`

	// SourceMap generates a source map for the output.
	SourceMap bool `json:"sourceMap,omitempty"`

	// SourceMapFile is the "file" field of the source map.
	SourceMapFile string `json:"sourceMapFile,omitempty"`

	// IncludeSource embeds the input in the source map's "sourcesContent".
	IncludeSource bool `json:"includeSource,omitempty"`

	// Logger receives Debug records for each pipeline stage. Nil discards.
	Logger *slog.Logger `json:"-"`
}

// DefaultOptions returns the options used by the CLI without flags or a
// config file: lowering on, no features set.
func DefaultOptions() Options {
	return Options{Lower: true}
}

// Error is a compilation error with its source position.
type Error struct {
	Message     string `json:"message"`
	Declaration string `json:"declaration,omitempty"`
	Line        int    `json:"line,omitempty"`
	Column      int    `json:"column,omitempty"`
}

func (e Error) Error() string {
	return compiler.Error(e).Error()
}

// Result contains the compilation output.
type Result struct {
	// Code is the compiled source. On error it is the unchanged input.
	Code string `json:"code"`

	// Errors contains any errors encountered during compilation.
	Errors []Error `json:"errors,omitempty"`

	// Report renders every error with its source line and a caret.
	Report string `json:"report,omitempty"`

	// OriginalSize is the size of the input in bytes.
	OriginalSize int `json:"originalSize"`

	// OutputSize is the size of the output in bytes.
	OutputSize int `json:"outputSize"`

	// SourceMap is the source map as JSON, when requested and compilation
	// succeeded.
	SourceMap string `json:"sourceMap,omitempty"`

	// SourceMapDataURI is the source map as a data URI for inline embedding.
	SourceMapDataURI string `json:"sourceMapDataURI,omitempty"`
}

// Err combines Errors into one error, or returns nil.
func (r Result) Err() error {
	var err error
	for _, e := range r.Errors {
		err = multierr.Append(err, e)
	}
	return err
}

// Compile compiles WESL source code.
func Compile(source string, opts Options) Result {
	c := compiler.New(compiler.Options{
		Features:         opts.Features,
		StrictFeatures:   opts.StrictFeatures,
		Lower:            opts.Lower,
		Keep:             slices.Clone(opts.Keep),
		MinifyWhitespace: opts.MinifyWhitespace,
		Filename:         opts.Filename,
		SourceMap:        opts.SourceMap,
		SourceMapOptions: sourcemap.Options{
			File:          opts.SourceMapFile,
			IncludeSource: opts.IncludeSource,
		},
		Logger: opts.Logger,
	})

	result := c.Compile(source)

	errs := make([]Error, len(result.Errors))
	for i, e := range result.Errors {
		errs[i] = Error(e)
	}

	apiResult := Result{
		Code:         result.Code,
		Errors:       errs,
		Report:       result.Report,
		OriginalSize: result.Stats.OriginalSize,
		OutputSize:   result.Stats.OutputSize,
	}
	if result.SourceMap != nil {
		apiResult.SourceMap = result.SourceMap.JSON()
		apiResult.SourceMapDataURI = result.SourceMap.DataURI()
	}
	return apiResult
}

// Resolve evaluates @if attributes with the given features and nothing
// else. Flags that are not set stay in the output.
func Resolve(source string, features map[string]bool) Result {
	return Compile(source, Options{Features: features})
}

// Features returns the sorted names of the feature flags referenced by @if
// attributes in source.
func Features(source string) ([]string, error) {
	m, errs := parser.New(source).Parse()
	if len(errs) > 0 {
		var err error
		for _, e := range errs {
			err = multierr.Append(err, Error{Message: e.Message, Line: e.Line, Column: e.Column})
		}
		return nil, err
	}
	return condcomp.Flags(m), nil
}

// CompileJSON compiles source with options given as a JSON object and
// returns the JSON-encoded Result. Fields missing from the options take
// their DefaultOptions values; empty options mean the defaults.
func CompileJSON(source string, optionsJSON []byte) ([]byte, error) {
	opts := DefaultOptions()
	if len(bytes.TrimSpace(optionsJSON)) > 0 {
		dec := json.NewDecoder(bytes.NewReader(optionsJSON))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&opts); err != nil {
			return nil, errors.Wrap(err, "decoding options")
		}
	}
	out, err := json.Marshal(Compile(source, opts))
	return out, errors.Wrap(err, "encoding result")
}
