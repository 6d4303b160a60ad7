package compiler

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"

	"codeberg.org/saruga/weslc/internal/parser"
	"codeberg.org/saruga/weslc/internal/sourcemap"
)

const shader = `import util::noise;

alias Color = vec4f;

struct Light {
    @if(shadows) shadow: f32,
    @if(!shadows) ambient: f32,
    color: Color,
}

@const fn scale() -> f32 { return 2.0; }
@const fn unused() -> f32 { return 1.0; }

@if(debug) const DEBUG = true;

@fragment
fn main(@if(shadows) @location(0) s: f32) -> @location(0) Color {
    var c = Color(scale());
    @if(debug) { c = vec4f(1.0); }
    return c;
}
`

func TestCompile(t *testing.T) {
	result := New(Options{
		Features: map[string]bool{"shadows": true, "debug": false},
		Lower:    true,
	}).Compile(shader)
	require.Empty(t, result.Errors, result.Report)

	expected := `struct Light {
    shadow: f32,
    color: vec4f
}

fn scale() -> f32 {
    return 2.0;
}

@fragment fn main(@location(0) s: f32) -> @location(0) vec4f {
    var c = vec4f(scale());
    return c;
}
`
	assert.Equal(t, expected, result.Code)

	assert.Equal(t, Stats{
		OriginalSize:          len(shader),
		OutputSize:            len(expected),
		Declarations:          3,
		DeclarationsRemoved:   2,
		ImportsRemoved:        1,
		AliasesInlined:        1,
		ConstFunctionsRemoved: 1,
	}, result.Stats)
}

func TestCompileWithoutLowering(t *testing.T) {
	result := New(Options{Features: map[string]bool{"shadows": false}}).Compile(shader)
	require.Empty(t, result.Errors, result.Report)

	assert.Contains(t, result.Code, "import util::noise;")
	assert.Contains(t, result.Code, "alias Color = vec4f;")
	assert.Contains(t, result.Code, "@const fn unused()")
	assert.Contains(t, result.Code, "ambient: f32")
	assert.NotContains(t, result.Code, "shadow: f32")
	assert.Contains(t, result.Code, "@if(debug) const DEBUG = true;")
	assert.Contains(t, result.Code, "fn main() -> @location(0) Color")
}

func TestCompileMinify(t *testing.T) {
	result := New(Options{
		Features:         map[string]bool{"a": true},
		Lower:            true,
		MinifyWhitespace: true,
	}).Compile("@if(a) const x = 1; @if(!a) const x = 2;")
	require.Empty(t, result.Errors)
	assert.Equal(t, "const x=1;", result.Code)
}

func TestCompileKeep(t *testing.T) {
	result := New(Options{Lower: true, Keep: []string{"helper"}}).Compile("@const fn helper() { }")
	require.Empty(t, result.Errors)
	assert.Equal(t, "fn helper() {\n}\n", result.Code)
}

func TestCompileParseError(t *testing.T) {
	source := "const x = 1;\nconst y = ;"
	result := New(DefaultOptions()).Compile(source)
	require.NotEmpty(t, result.Errors)
	assert.Equal(t, 2, result.Errors[0].Line)
	assert.Equal(t, 11, result.Errors[0].Column)
	assert.Equal(t, source, result.Code)
	assert.Contains(t, result.Report, "const y = ;\n")
	assert.Error(t, result.Err())
}

func TestCompileConditionError(t *testing.T) {
	source := "struct S {\n    @if(a<b>) x: f32,\n}"
	result := New(Options{Filename: "s.wesl"}).Compile(source)
	require.Len(t, result.Errors, 1)

	e := result.Errors[0]
	assert.Equal(t, "invalid feature flag: `a<b>`", e.Message)
	assert.Equal(t, "S", e.Declaration)
	assert.Equal(t, 2, e.Line)
	assert.Equal(t, 9, e.Column)
	assert.Equal(t, "2:9: invalid feature flag: `a<b>` (in 'S')", e.Error())
	assert.True(t, strings.HasPrefix(result.Report, "s.wesl:2:9: error: "), result.Report)
	assert.Contains(t, result.Report, "        ^~~~\n")
}

func TestCompileStrictFeatures(t *testing.T) {
	result := New(Options{StrictFeatures: true, Features: map[string]bool{"a": true}}).
		Compile("@if(a) const x = 1; @if(b) const y = 2;")
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "missing feature flag: `b`", result.Errors[0].Message)
}

func TestCompileTypeErrors(t *testing.T) {
	result := New(Options{Lower: true}).
		Compile("var<private> a: vec5<f32>;\nvar<private> b: array<f32, 0>;")
	require.Len(t, result.Errors, 2)
	assert.Equal(t, "a", result.Errors[0].Declaration)
	assert.Equal(t, 1, result.Errors[0].Line)
	assert.Equal(t, "b", result.Errors[1].Declaration)
	assert.Equal(t, 2, result.Errors[1].Line)
	assert.Len(t, multierr.Errors(result.Err()), 2)
}

func TestCompileModule(t *testing.T) {
	module, errs := parser.New("@if(a) const x = 1; const y = 2;").Parse()
	require.Empty(t, errs)
	result := New(Options{Features: map[string]bool{"a": false}}).CompileModule(module)
	require.Empty(t, result.Errors)
	assert.Equal(t, "const y = 2;\n", result.Code)
	assert.Len(t, module.Declarations, 1)
}

func TestCompileSourceMap(t *testing.T) {
	source := "alias T = f32;\n@if(a) const x: T = 1.0;"
	result := New(Options{
		Features:         map[string]bool{"a": true},
		Lower:            true,
		MinifyWhitespace: true,
		Filename:         "x.wesl",
		SourceMap:        true,
		SourceMapOptions: sourcemap.Options{File: "x.wgsl"},
	}).Compile(source)
	require.Empty(t, result.Errors)
	require.Equal(t, "const x:f32=1.0;", result.Code)
	require.NotNil(t, result.SourceMap)

	assert.Equal(t, "x.wgsl", result.SourceMap.File)
	assert.Equal(t, []string{"x.wesl"}, result.SourceMap.Sources)
	assert.Equal(t, "QACgBA,IAAI", result.SourceMap.Mappings)

	// The inlined alias maps to where it was used.
	mappings, err := sourcemap.Decode(result.SourceMap)
	require.NoError(t, err)
	assert.Equal(t, []sourcemap.Mapping{
		{GenLine: 0, GenCol: 8, SrcLine: 1, SrcCol: 16, Name: "f32"},
		{GenLine: 0, GenCol: 12, SrcLine: 1, SrcCol: 20},
	}, mappings)

	failed := New(Options{SourceMap: true}).Compile("const = ;")
	assert.Nil(t, failed.SourceMap)
	assert.Nil(t, New(DefaultOptions()).Compile("const x = 1;").SourceMap)
}

func TestCompileLogsStages(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	New(Options{Lower: true, Logger: logger, Filename: "x.wesl"}).Compile("const x = 1;")

	out := buf.String()
	for _, stage := range []string{"parse", "condcomp", "lower", "print"} {
		assert.Contains(t, out, "stage="+stage)
	}
	assert.Contains(t, out, "file=x.wesl")
}
