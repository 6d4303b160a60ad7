package lower

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"

	"codeberg.org/saruga/weslc/internal/ast"
	"codeberg.org/saruga/weslc/internal/consteval"
	"codeberg.org/saruga/weslc/internal/diagnostic"
	"codeberg.org/saruga/weslc/internal/parser"
	"codeberg.org/saruga/weslc/internal/printer"
)

func parse(t *testing.T, src string) *ast.Module {
	t.Helper()
	m, errs := parser.New(src).Parse()
	require.Empty(t, errs, src)
	return m
}

func expectLowered(t *testing.T, opts Options, input string, expected string) {
	t.Helper()
	t.Run(input, func(t *testing.T) {
		t.Helper()
		m := parse(t, input)
		if _, err := Lower(m, opts); err != nil {
			t.Fatalf("lower: %v", err)
		}
		actual := printer.New(printer.Options{MinifyWhitespace: true}).Print(m)
		if actual != expected {
			t.Errorf("\ninput:\n%s\nexpected:\n%s\nactual:\n%s", input, expected, actual)
		}
	})
}

func TestDropImportsAndGeneric(t *testing.T) {
	expectLowered(t, Options{},
		"import a::b; import c::{d, e}; @generic(T) @compute @workgroup_size(1) fn main() { }",
		"@compute @workgroup_size(1) fn main(){}")
	expectLowered(t, Options{},
		"struct S { @generic @align(16) x: f32 }",
		"struct S{@align(16) x:f32}")
}

func TestInlineAliases(t *testing.T) {
	expectLowered(t, Options{},
		"alias Color = vec4f; var<private> c: Color; fn f(x: Color) -> Color { return Color(x); }",
		"var<private> c:vec4f;fn f(x:vec4f)->vec4f{return vec4f(x);}")
	expectLowered(t, Options{},
		"alias A = B; alias B = array<C, 2>; alias C = f32; var<private> v: A; var<private> w: vec2<C>;",
		"var<private> v:array<f32,2>;var<private> w:vec2<f32>;")
	expectLowered(t, Options{},
		"alias T = u32; fn f() { let x: T = T(1); var y: array<T, 4>; }",
		"fn f(){let x:u32=u32(1);var y:array<u32,4>;}")
}

func TestInlineAliasesScoping(t *testing.T) {
	expectLowered(t, Options{},
		"alias T = f32; fn f() -> f32 { let T = 1.0; return T; }",
		"fn f()->f32{let T=1.0;return T;}")
	expectLowered(t, Options{},
		"alias T = f32; fn f(T: i32) -> T { return f32(T); }",
		"fn f(T:i32)->f32{return f32(T);}")
	// The shadow ends with its block.
	expectLowered(t, Options{},
		"alias T = f32; fn f() { { var T = 2; T += 1; } let x: T = T(0); }",
		"fn f(){{var T=2;T+=1;}let x:f32=f32(0);}")
	// A use before the local declaration still names the alias.
	expectLowered(t, Options{},
		"alias T = u32; fn f() { let a = T(1); let T = a; }",
		"fn f(){let a=u32(1);let T=a;}")
	expectLowered(t, Options{},
		"alias T = u32; fn f() { loop { let T = 1; continuing { break if T > 0; } } }",
		"fn f(){loop{let T=1;continuing{break if T>0;}}}")
}

func TestInlineAliasesCopies(t *testing.T) {
	m := parse(t, "alias V = vec2<f32>; var<private> a: V; var<private> b: V;")
	_, err := Lower(m, Options{})
	require.NoError(t, err)

	a := m.Declarations[0].(*ast.VarDecl).Type
	b := m.Declarations[1].(*ast.VarDecl).Type
	require.Len(t, a.TemplateArgs, 1)
	assert.NotSame(t, a.TemplateArgs[0], b.TemplateArgs[0])
}

func TestRemoveConstFunctions(t *testing.T) {
	expectLowered(t, Options{},
		"@const fn unused() -> f32 { return 1.0; } @const fn used() -> f32 { return 2.0; } fn main() -> f32 { return used(); }",
		"fn used()->f32{return 2.0;}fn main()->f32{return used();}")

	// A function only used by a removed one goes too.
	expectLowered(t, Options{},
		"@const fn leaf() -> f32 { return 1.0; } @const fn mid() -> f32 { return leaf(); } fn main() { }",
		"fn main(){}")

	expectLowered(t, Options{Keep: []string{"kept"}},
		"@const fn kept() -> f32 { return 1.0; } @const fn dropped() -> f32 { return 1.0; }",
		"fn kept()->f32{return 1.0;}")

	// Functions without @const are never removed.
	expectLowered(t, Options{},
		"fn helper() { }",
		"fn helper(){}")
}

func TestLowerStats(t *testing.T) {
	m := parse(t, "import a::b; import c::d; alias T = f32; @const fn f() { } @const fn g() { } fn main() { g(); }")
	stats, err := Lower(m, Options{})
	require.NoError(t, err)
	assert.Equal(t, Stats{Imports: 2, Aliases: 1, ConstFunctions: 1}, stats)
}

func TestValidate(t *testing.T) {
	m := parse(t, `
struct S { a: vec3<Missing>, b: f32 }
var<private> v: array<f32, 0>;
fn f(p: mat2x2<i32>) -> S { }
@group(0) @binding(0) var t: texture_2d<f32>;
@group(0) @binding(1) var s: sampler;
@group(0) @binding(2) var ts: binding_array<texture_2d<f32>, 4>;
var<private> ext: pkg::Type;
alias Ok = vec4f;
`)
	err := Validate(m)
	require.Error(t, err)

	errs := multierr.Errors(err)
	require.Len(t, errs, 3)

	expect := []struct {
		decl string
		kind consteval.ErrorKind
	}{
		{"S", consteval.KindUnknownType},
		{"v", consteval.KindInvalidArrayLength},
		{"f", consteval.KindInvalidElementType},
	}
	for i, e := range expect {
		var d *diagnostic.Error
		require.True(t, errors.As(errs[i], &d), "%v", errs[i])
		assert.Equal(t, e.decl, d.Declaration)
		assert.True(t, d.HasSpan)
		kind, ok := consteval.KindOf(errs[i])
		require.True(t, ok)
		assert.Equal(t, e.kind, kind)
	}
}

func TestValidateOverrideLength(t *testing.T) {
	m := parse(t, `
override N: u32 = 4u;
var<workgroup> a: array<f32, N>;
var<workgroup> b: array<f32, N + 1u>;
var<workgroup> c: array<f32, M>;
`)
	err := Validate(m)
	require.Error(t, err)
	errs := multierr.Errors(err)
	require.Len(t, errs, 1)
	var d *diagnostic.Error
	require.True(t, errors.As(errs[0], &d))
	assert.Equal(t, "c", d.Declaration)

	expectLowered(t, Options{},
		"override N: u32; alias Tile = array<f32, N>; var<workgroup> t: Tile;",
		"override N:u32;var<workgroup> t:array<f32,N>;")
}

func TestLowerStopsOnInvalidTypes(t *testing.T) {
	m := parse(t, "alias A = vec5<f32>; @const fn f() { } var<private> v: A;")
	_, err := Lower(m, Options{})
	require.Error(t, err)
	assert.Len(t, m.Declarations, 3)
}

func TestValidateAliasCycle(t *testing.T) {
	m := parse(t, "alias A = B; alias B = A;")
	err := Validate(m)
	require.Error(t, err)
	assert.Len(t, multierr.Errors(err), 2)
}
