package condcomp

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codeberg.org/saruga/weslc/internal/diagnostic"
	"codeberg.org/saruga/weslc/internal/printer"
)

func expectRun(t *testing.T, features Features, input string, expected string) {
	t.Helper()
	t.Run(input, func(t *testing.T) {
		t.Helper()
		m := parseModule(t, input)
		if err := Run(m, features); err != nil {
			t.Fatalf("run: %v", err)
		}
		actual := printer.New(printer.Options{}).Print(m)
		if actual != expected {
			t.Errorf("\ninput:\n%s\nexpected:\n%s\nactual:\n%s", input, expected, actual)
		}
	})
}

func TestRunStructMembers(t *testing.T) {
	expectRun(t, flags("foo", true, "bar", false),
		"struct S { @if(foo) a: f32, @if(bar) b: f32, c: f32 }",
		"struct S {\n    a: f32,\n    c: f32\n}\n")
	expectRun(t, Features{},
		"struct S { @if(true) @align(16) a: f32, @if(foo) b: f32 }",
		"struct S {\n    @align(16) a: f32,\n    @if(foo) b: f32\n}\n")
}

func TestRunGlobals(t *testing.T) {
	expectRun(t, flags("a", false),
		"@if(a) const x = 1; @if(!a) const x = 2; @if(b) const y = 3;",
		"const x = 2;\n\n@if(b) const y = 3;\n")
	expectRun(t, flags("a", true),
		"@if(a && b) const x = 1;",
		"@if(b) const x = 1;\n")
	expectRun(t, Features{},
		"@if(true || x) const y = 1;",
		"const y = 1;\n")
	expectRun(t, flags("a", true),
		"@if(a) import p::q; import r::s; @if(!a) enable f16; const x = 1;",
		"import p::q;\nimport r::s;\n\nconst x = 1;\n")
	expectRun(t, flags("a", false),
		"@if(a) struct S { x: f32 } @if(a) fn f() { }",
		"")
}

func TestRunFunctions(t *testing.T) {
	expectRun(t, flags("a", false),
		"fn f(@if(a) p: f32, q: f32) { @if(a) let y = p; @if(!a) { x = 1; } x = 2; }",
		"fn f(q: f32) {\n    {\n        x = 1;\n    }\n    x = 2;\n}\n")

	// Control flow without @if is left as it is.
	expectRun(t, flags("a", true),
		"fn f() { if x { a = 1; } else { a = 2; } }",
		"fn f() {\n    if x {\n        a = 1;\n    } else {\n        a = 2;\n    }\n}\n")

	expectRun(t, flags("a", false),
		"fn f() { if x { @if(a) y = 1; } else if z { @if(!a) y = 2; } else { @if(a) y = 3; } }",
		"fn f() {\n    if x {\n    } else if z {\n        y = 2;\n    } else {\n    }\n}\n")

	expectRun(t, flags("a", false),
		"fn f() { while x { @if(a) break; } }",
		"fn f() {\n    while x {\n    }\n}\n")

	expectRun(t, flags("a", false),
		"fn f() { { { @if(a) x = 1; y = 2; } } }",
		"fn f() {\n    {\n        {\n            y = 2;\n        }\n    }\n}\n")
}

func TestRunSwitch(t *testing.T) {
	expectRun(t, flags("a", true),
		"fn f() { switch x { @if(a) case 1: { @if(a) y = 1; } @if(!a) case 2: { @if(!a) y = 2; } default: { } } }",
		"fn f() {\n    switch x {\n        case 1: {\n            y = 1;\n        }\n        default: {\n        }\n    }\n}\n")
}

func TestRunLoop(t *testing.T) {
	expectRun(t, flags("a", true, "b", true),
		"fn f() { loop { @if(a) i++; @if(b) continuing { @if(a) j++; @if(a) break if i > 4; } } }",
		"fn f() {\n    loop {\n        i++;\n        continuing {\n            j++;\n            break if i > 4;\n        }\n    }\n}\n")
	expectRun(t, flags("a", true, "b", false),
		"fn f() { loop { @if(a) i++; @if(b) continuing { @if(a) j++; @if(a) break if i > 4; } } }",
		"fn f() {\n    loop {\n        i++;\n    }\n}\n")
	expectRun(t, flags("a", false, "b", true),
		"fn f() { loop { i++; @if(b) continuing { j++; @if(a) break if i > 4; } } }",
		"fn f() {\n    loop {\n        i++;\n        continuing {\n            j++;\n        }\n    }\n}\n")
}

func TestRunFor(t *testing.T) {
	expectRun(t, flags("a", true, "b", false),
		"fn f() { for (@if(a) var i = 0; i < 2; @if(b) i++) { @if(b) x = i; } }",
		"fn f() {\n    for (var i = 0; i < 2;) {\n    }\n}\n")
	expectRun(t, flags("a", false, "b", true),
		"fn f() { for (@if(a) var i = 0; i < 2; @if(b) i++) { } }",
		"fn f() {\n    for (; i < 2; i++) {\n    }\n}\n")
}

func TestRunIsRepeatable(t *testing.T) {
	m := parseModule(t, "struct S { @if(a && b) x: f32, @if(a || c) y: f32, z: f32 }")
	require.NoError(t, Run(m, flags("a", true)))
	assert.Equal(t,
		"struct S {\n    @if(b) x: f32,\n    y: f32,\n    z: f32\n}\n",
		printer.New(printer.Options{}).Print(m))

	require.NoError(t, Run(m, flags("b", false)))
	assert.Equal(t,
		"struct S {\n    y: f32,\n    z: f32\n}\n",
		printer.New(printer.Options{}).Print(m))
}

func TestRunErrors(t *testing.T) {
	tests := []struct {
		src         string
		features    Features
		kind        ErrorKind
		declaration string
		start       int32
	}{
		{"struct S { @if(f<u32>) a: f32 }", Features{}, KindInvalidFeatureFlag, "S", 15},
		{"fn g() { @if(a + b) x = 1; }", Features{}, KindInvalidExpression, "g", 13},
		{"fn g(@if(2) p: f32) { }", Features{}, KindInvalidExpression, "g", 9},
		{"fn g() { loop { @if(x<y>) continuing { } } }", Features{}, KindInvalidFeatureFlag, "g", 20},
		{"@if(x == y) const z = 1;", Features{}, KindInvalidExpression, "", 4},
		{"@if(a) const x = 1;", Features{Strict: true}, KindMissingFeatureFlag, "", 4},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			err := Run(parseModule(t, tt.src), tt.features)
			kind, ok := KindOf(err)
			require.True(t, ok, "%v", err)
			assert.Equal(t, tt.kind, kind)

			var d *diagnostic.Error
			require.True(t, errors.As(err, &d))
			assert.Equal(t, tt.declaration, d.Declaration)
			assert.Equal(t, tt.start, d.Span.Loc.Start)
		})
	}
}
