package consteval

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codeberg.org/saruga/weslc/internal/ast"
	"codeberg.org/saruga/weslc/internal/diagnostic"
	"codeberg.org/saruga/weslc/internal/parser"
	"codeberg.org/saruga/weslc/internal/types"
)

const tyModule = `
const N = 8;
const M = M;
override W: u32 = 4u;
struct Light { color: vec3f }
alias Color = vec4f;
alias Row = array<f32, N>;
alias Grid = array<Row, 2>;
alias Loop = Loop;
alias Hop = Loop;
`

func testContext(t *testing.T) *ModuleContext {
	t.Helper()
	m, errs := parser.New(tyModule).Parse()
	require.Empty(t, errs)
	return NewModuleContext(m)
}

func parseType(t *testing.T, src string) *ast.TypeExpr {
	t.Helper()
	expr, errs := parser.ParseExpr(src)
	require.Empty(t, errs, src)
	ty, ok := expr.(*ast.TypeExpr)
	require.True(t, ok, "%s parsed as %T", src, expr)
	return ty
}

func TestEvalTy(t *testing.T) {
	ctx := testContext(t)
	tests := []struct {
		src    string
		expect types.Type
	}{
		{"bool", types.Bool},
		{"f16", types.F16},
		{"u32", types.U32},
		{"vec3<f16>", types.Vec(3, types.F16)},
		{"vec2<bool>", types.Vec(2, types.Bool)},
		{"vec4f", types.Vec(4, types.F32)},
		{"vec2u", types.Vec(2, types.U32)},
		{"mat2x3<f32>", types.Mat(2, 3, types.F32)},
		{"mat4x4h", types.Mat(4, 4, types.F16)},
		{"array<vec3<f16>>", types.Arr(types.Vec(3, types.F16), 0)},
		{"array<f32, 4>", types.Arr(types.F32, 4)},
		{"array<f32, 4u>", types.Arr(types.F32, 4)},
		{"array<f32, 3i>", types.Arr(types.F32, 3)},
		{"array<f32, (2)>", types.Arr(types.F32, 2)},
		{"array<f32, N>", types.Arr(types.F32, 8)},
		{"array<f32, N * 2 - 1>", types.Arr(types.F32, 15)},
		{"array<array<i32, 2>, 3>", types.Arr(types.Arr(types.I32, 2), 3)},
		{"atomic<u32>", types.AtomicOf(types.U32)},
		{"ptr<function, i32>", types.PtrTo(types.I32)},
		{"ptr<storage, array<u32>, read_write>", types.PtrTo(types.Arr(types.U32, 0))},
		{"Light", types.StructOf("Light")},
		{"array<Light, 2>", types.Arr(types.StructOf("Light"), 2)},
		{"Color", types.Vec(4, types.F32)},
		{"Grid", types.Arr(types.Arr(types.F32, 8), 2)},
		{"array<f32, W>", types.ArrOverride(types.F32, "W")},
		{"array<f32, W * N>", types.ArrOverride(types.F32, "W * N")},
		{"array<vec4f, (W)>", types.ArrOverride(types.Vec(4, types.F32), "(W)")},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			got, err := EvalTy(parseType(t, tt.src), ctx)
			require.NoError(t, err)
			assert.Empty(t, cmp.Diff(tt.expect, got))
		})
	}
}

func TestEvalTyInnerType(t *testing.T) {
	got, err := EvalTy(parseType(t, "array<vec3<f16>>"), testContext(t))
	require.NoError(t, err)
	assert.True(t, got.Equals(types.Arr(types.Vec(3, types.F16), 0)))
	assert.True(t, types.InnerType(got).Equals(types.Vec(3, types.F16)))
	assert.False(t, types.IsAbstract(got))
}

func TestEvalTyErrors(t *testing.T) {
	ctx := testContext(t)
	tests := []struct {
		src  string
		kind ErrorKind
	}{
		{"i32<f32>", KindUnexpectedTemplate},
		{"vec3f<f32>", KindUnexpectedTemplate},
		{"Light<f32>", KindUnexpectedTemplate},
		{"Color<f32>", KindUnexpectedTemplate},
		{"array", KindMissingTemplate},
		{"vec3", KindMissingTemplate},
		{"ptr", KindMissingTemplate},
		{"array<f32, 1, 2>", KindTemplateArgs},
		{"vec3<f32, f32>", KindTemplateArgs},
		{"ptr<function>", KindTemplateArgs},
		{"ptr<nowhere, f32>", KindTemplateArgs},
		{"ptr<function, f32, sideways>", KindTemplateArgs},
		{"mat2x2<i32>", KindInvalidElementType},
		{"vec2<Light>", KindInvalidElementType},
		{"atomic<f32>", KindInvalidElementType},
		{"array<1>", KindInvalidElementType},
		{"array<ptr<function, f32>>", KindInvalidElementType},
		{"array<array<f32>>", KindInvalidElementType},
		{"array<f32, 0>", KindInvalidArrayLength},
		{"array<f32, -1>", KindInvalidArrayLength},
		{"array<f32, 1.5>", KindInvalidArrayLength},
		{"array<f32, true>", KindInvalidArrayLength},
		{"array<f32, f32>", KindInvalidArrayLength},
		{"array<f32, M>", KindNotConstant},
		{"array<f32, f(1)>", KindNotConstant},
		{"array<f32, 1 / 0>", KindNotConstant},
		{"array<f32, 1i + 1u>", KindNotConstant},
		{"Unknown", KindUnknownType},
		{"vec5<f32>", KindUnknownType},
		{"Loop", KindUnknownType},
		{"Hop", KindUnknownType},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			_, err := EvalTy(parseType(t, tt.src), ctx)
			requireKind(t, err, tt.kind)
		})
	}
}

func TestEvalTyErrorSpan(t *testing.T) {
	ctx := testContext(t)
	tests := []struct {
		src   string
		start int32
		len   int32
	}{
		{"array<f32, 0>", 11, 1},
		{"vec2<array<f32, Unknown>>", 16, 7},
		{"Unknown", 0, 7},
		{"array<vec3<i32, u32>>", 6, 14},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			_, err := EvalTy(parseType(t, tt.src), ctx)
			var d *diagnostic.Error
			require.True(t, errors.As(err, &d), "%v", err)
			require.True(t, d.HasSpan)
			assert.Equal(t, tt.start, d.Span.Loc.Start)
			assert.Equal(t, tt.len, d.Span.Len)
		})
	}
}

func TestEvalTyMessages(t *testing.T) {
	ctx := testContext(t)
	tests := []struct {
		src    string
		expect string
	}{
		{"Unknown", "unknown type 'Unknown'"},
		{"i32<f32>", "type 'i32' does not take template arguments"},
		{"array", "'array' requires template arguments"},
		{"vec3<f32, f32>", "invalid template arguments for 'vec3': expected 1, got 2"},
		{"mat2x2<i32>", "'i32' is not a valid element type for mat2x2"},
	}
	for _, tt := range tests {
		_, err := EvalTy(parseType(t, tt.src), ctx)
		require.Error(t, err)
		assert.Equal(t, tt.expect, err.Error())
	}
}

func TestEvalTemplateArg(t *testing.T) {
	ctx := testContext(t)
	tests := []struct {
		src    string
		expect string
	}{
		{"1", "1"},
		{"-2i", "-2i"},
		{"!true", "false"},
		{"N + 1u", "9u"},
		{"0x10 % 3", "1"},
		{"f32", "f32"},
		{"Color", "vec4<f32>"},
	}
	for _, tt := range tests {
		expr, errs := parser.ParseExpr(tt.src)
		require.Empty(t, errs)
		got, err := EvalTemplateArg(expr, ctx)
		require.NoError(t, err, tt.src)
		assert.Equal(t, tt.expect, got.String(), tt.src)
	}
}
