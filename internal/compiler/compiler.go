// Package compiler provides the main compilation API.
//
// It coordinates parsing, conditional compilation, lowering and printing
// to turn WESL source into WGSL.
package compiler

import (
	"fmt"
	"log/slog"
	"time"

	"go.uber.org/multierr"

	"codeberg.org/saruga/weslc/internal/ast"
	"codeberg.org/saruga/weslc/internal/condcomp"
	"codeberg.org/saruga/weslc/internal/diagnostic"
	"codeberg.org/saruga/weslc/internal/lower"
	"codeberg.org/saruga/weslc/internal/parser"
	"codeberg.org/saruga/weslc/internal/printer"
	"codeberg.org/saruga/weslc/internal/sourcemap"
)

// Options controls compilation.
type Options struct {
	// Features are the feature flags @if attributes are evaluated against.
	Features map[string]bool

	// StrictFeatures makes a flag missing from Features an error instead
	// of leaving the @if attribute unresolved.
	StrictFeatures bool

	// Lower runs the lowering pass after conditional compilation.
	Lower bool

	// Keep lists @const functions that lowering never removes.
	Keep []string

	// MinifyWhitespace removes unnecessary whitespace and newlines.
	MinifyWhitespace bool

	// Filename labels diagnostics and is the source name in source maps.
	// It is not read.
	Filename string

	// SourceMap generates a source map for the output.
	SourceMap bool

	// SourceMapOptions configures source map generation. An empty
	// SourceName defaults to Filename.
	SourceMapOptions sourcemap.Options

	// Logger receives a Debug record per stage. Nil disables logging.
	Logger *slog.Logger
}

// DefaultOptions returns options that lower the module and print it
// readably.
func DefaultOptions() Options {
	return Options{Lower: true}
}

// Result contains the compilation output.
type Result struct {
	// Code is the compiled WGSL, or the original source when compilation
	// failed.
	Code string

	// Errors encountered during compilation
	Errors []Error

	// SourceMap is set when Options.SourceMap is true and compilation
	// succeeded.
	SourceMap *sourcemap.SourceMap

	// Report renders Errors with their source lines.
	Report string

	// Statistics about the compilation
	Stats Stats
}

// Err returns the errors combined into one, or nil.
func (r *Result) Err() error {
	var err error
	for _, e := range r.Errors {
		err = multierr.Append(err, e)
	}
	return err
}

// Error represents a compilation error.
type Error struct {
	Message     string
	Declaration string // enclosing struct or function, if known
	Line        int    // 1-based, 0 when the error has no position
	Column      int
}

func (e Error) Error() string {
	msg := e.Message
	if e.Declaration != "" {
		msg = fmt.Sprintf("%s (in '%s')", msg, e.Declaration)
	}
	if e.Line == 0 {
		return msg
	}
	return fmt.Sprintf("%d:%d: %s", e.Line, e.Column, msg)
}

// Stats provides compilation statistics.
type Stats struct {
	OriginalSize int
	OutputSize   int

	Declarations        int // global declarations in the output
	DeclarationsRemoved int // removed by @if or as unused @const functions

	ImportsRemoved        int
	AliasesInlined        int
	ConstFunctionsRemoved int
}

// Compiler compiles WESL modules.
type Compiler struct {
	options Options
	logger  *slog.Logger
}

// New creates a new compiler with the given options.
func New(options Options) *Compiler {
	logger := options.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Compiler{options: options, logger: logger}
}

// Compile compiles the given WESL source code.
func (c *Compiler) Compile(source string) Result {
	diags := diagnostic.NewList(c.options.Filename, source)

	start := time.Now()
	module, errs := parser.New(source).Parse()
	if len(errs) > 0 {
		for _, err := range errs {
			diags.Add(diagnostic.SeverityError, ast.Range{Loc: ast.Loc{Start: int32(err.Pos)}, Len: 1}, err.Message)
		}
		c.logger.Debug("parse failed", slog.String("file", c.options.Filename), slog.Int("errors", len(errs)))
		return c.fail(source, diags)
	}
	c.logStage("parse", start, module)

	return c.compile(module, source, diags)
}

// CompileModule compiles a parsed module in place. Diagnostics are located
// against module.Source.
func (c *Compiler) CompileModule(module *ast.Module) Result {
	return c.compile(module, module.Source, diagnostic.NewList(c.options.Filename, module.Source))
}

func (c *Compiler) compile(module *ast.Module, source string, diags *diagnostic.List) Result {
	result := Result{Stats: Stats{OriginalSize: len(source)}}
	declared := len(module.Declarations)

	start := time.Now()
	features := condcomp.Features{Flags: c.options.Features, Strict: c.options.StrictFeatures}
	if err := condcomp.Run(module, features); err != nil {
		diags.AddError(err)
		return c.fail(source, diags)
	}
	c.logStage("condcomp", start, module)

	if c.options.Lower {
		start = time.Now()
		stats, err := lower.Lower(module, lower.Options{Keep: c.options.Keep})
		if err != nil {
			diags.AddError(err)
			return c.fail(source, diags)
		}
		result.Stats.ImportsRemoved = stats.Imports
		result.Stats.AliasesInlined = stats.Aliases
		result.Stats.ConstFunctionsRemoved = stats.ConstFunctions
		c.logStage("lower", start, module)
	}

	start = time.Now()
	printOptions := printer.Options{MinifyWhitespace: c.options.MinifyWhitespace}
	var gen *sourcemap.Generator
	if c.options.SourceMap {
		smOptions := c.options.SourceMapOptions
		if smOptions.SourceName == "" {
			smOptions.SourceName = c.options.Filename
		}
		gen = sourcemap.NewGenerator(source, smOptions)
		printOptions.Mapper = gen
	}
	result.Code = printer.New(printOptions).Print(module)
	if gen != nil {
		result.SourceMap = gen.Generate()
	}
	c.logStage("print", start, module)

	result.Stats.OutputSize = len(result.Code)
	result.Stats.Declarations = len(module.Declarations)
	result.Stats.DeclarationsRemoved = declared - len(module.Declarations) - result.Stats.AliasesInlined
	return result
}

func (c *Compiler) fail(source string, diags *diagnostic.List) Result {
	result := Result{
		Code:   source,
		Report: diags.Format(),
		Stats:  Stats{OriginalSize: len(source), OutputSize: len(source)},
	}
	for _, d := range diags.Diagnostics() {
		e := Error{Message: d.Message, Declaration: d.Declaration}
		if d.Located() {
			e.Line, e.Column = d.Start.Line, d.Start.Column
		}
		result.Errors = append(result.Errors, e)
	}
	return result
}

func (c *Compiler) logStage(stage string, start time.Time, module *ast.Module) {
	c.logger.Debug("stage done",
		slog.String("stage", stage),
		slog.String("file", c.options.Filename),
		slog.Int("declarations", len(module.Declarations)),
		slog.Duration("elapsed", time.Since(start)))
}
