package consteval

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codeberg.org/saruga/weslc/internal/ast"
	"codeberg.org/saruga/weslc/internal/lexer"
)

func TestParseLiteral(t *testing.T) {
	tests := []struct {
		kind   lexer.TokenKind
		text   string
		expect LiteralInstance
	}{
		{lexer.TokTrue, "true", Bool(true)},
		{lexer.TokFalse, "false", Bool(false)},
		{lexer.TokIntLiteral, "42", AbstractInt(42)},
		{lexer.TokIntLiteral, "42i", I32(42)},
		{lexer.TokIntLiteral, "42u", U32(42)},
		{lexer.TokIntLiteral, "0xFFu", U32(255)},
		{lexer.TokIntLiteral, "0", AbstractInt(0)},
		{lexer.TokIntLiteral, "4294967295u", U32(4294967295)},
		{lexer.TokFloatLiteral, "1.5", AbstractFloat(1.5)},
		{lexer.TokFloatLiteral, "1.5f", F32(1.5)},
		{lexer.TokFloatLiteral, "2h", F16(2)},
		{lexer.TokFloatLiteral, "1e3", AbstractFloat(1000)},
		{lexer.TokFloatLiteral, "0x1p4", AbstractFloat(16)},
		{lexer.TokFloatLiteral, "0x1.8p1f", F32(3)},
		{lexer.TokFloatLiteral, "0x1.8", AbstractFloat(1.5)},
	}
	for _, tt := range tests {
		got, err := ParseLiteral(&ast.LiteralExpr{Kind: tt.kind, Value: tt.text})
		require.NoError(t, err, tt.text)
		assert.Equal(t, tt.expect, got, tt.text)
	}
}

func TestParseLiteralRange(t *testing.T) {
	tests := []struct {
		kind lexer.TokenKind
		text string
	}{
		{lexer.TokIntLiteral, "2147483648i"},
		{lexer.TokIntLiteral, "4294967296u"},
		{lexer.TokIntLiteral, "99999999999999999999"},
		{lexer.TokFloatLiteral, "1e39f"},
		{lexer.TokFloatLiteral, "70000h"},
		{lexer.TokFloatLiteral, "1e400"},
	}
	for _, tt := range tests {
		_, err := ParseLiteral(&ast.LiteralExpr{Kind: tt.kind, Value: tt.text})
		requireKind(t, err, KindNotConstant)
	}
}

func TestIntArith(t *testing.T) {
	tests := []struct {
		op     ast.BinaryOp
		a, b   LiteralInstance
		expect LiteralInstance
	}{
		{ast.BinOpAdd, AbstractInt(1), AbstractInt(2), AbstractInt(3)},
		{ast.BinOpAdd, AbstractInt(1), I32(2), I32(3)},
		{ast.BinOpSub, U32(5), AbstractInt(2), U32(3)},
		{ast.BinOpMul, I32(-3), I32(4), I32(-12)},
		{ast.BinOpDiv, AbstractInt(7), AbstractInt(2), AbstractInt(3)},
		{ast.BinOpMod, AbstractInt(7), AbstractInt(2), AbstractInt(1)},
	}
	for _, tt := range tests {
		got, err := IntArith(tt.op, tt.a, tt.b)
		require.NoError(t, err)
		assert.Equal(t, tt.expect, got)
	}

	_, err := IntArith(ast.BinOpAdd, I32(1), U32(1))
	requireKind(t, err, KindNotConstant)
	_, err = IntArith(ast.BinOpDiv, I32(1), I32(0))
	requireKind(t, err, KindNotConstant)
	_, err = IntArith(ast.BinOpSub, U32(1), U32(2))
	requireKind(t, err, KindNotConstant)
	_, err = IntArith(ast.BinOpAdd, I32(2147483647), I32(1))
	requireKind(t, err, KindNotConstant)
	_, err = IntArith(ast.BinOpAdd, F32(1), I32(1))
	requireKind(t, err, KindNotConstant)
	_, err = IntArith(ast.BinOpLt, I32(1), I32(1))
	requireKind(t, err, KindNotConstant)
}

func TestNegateNot(t *testing.T) {
	v, err := Negate(I32(3))
	require.NoError(t, err)
	assert.Equal(t, I32(-3), v)

	v, err = Negate(F16(1))
	require.NoError(t, err)
	assert.Equal(t, F16(-1), v)

	_, err = Negate(U32(1))
	requireKind(t, err, KindNotConstant)
	_, err = Negate(Bool(true))
	requireKind(t, err, KindNotConstant)

	v, err = Not(Bool(false))
	require.NoError(t, err)
	assert.Equal(t, Bool(true), v)
	_, err = Not(I32(0))
	requireKind(t, err, KindNotConstant)
}
