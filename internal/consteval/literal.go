package consteval

import (
	"math"
	"strconv"
	"strings"

	"codeberg.org/saruga/weslc/internal/ast"
	"codeberg.org/saruga/weslc/internal/lexer"
	"codeberg.org/saruga/weslc/internal/types"
)

// ParseLiteral converts a literal expression to a value. Integer literals
// without a suffix are AbstractInt and float literals without one are
// AbstractFloat.
func ParseLiteral(lit *ast.LiteralExpr) (LiteralInstance, error) {
	switch lit.Kind {
	case lexer.TokTrue:
		return Bool(true), nil
	case lexer.TokFalse:
		return Bool(false), nil
	case lexer.TokIntLiteral:
		return parseInt(lit.Value)
	case lexer.TokFloatLiteral:
		return parseFloat(lit.Value)
	}
	return LiteralInstance{}, newError(KindNotConstant, "", "'%s' is not a literal", lit.Value)
}

func parseInt(text string) (LiteralInstance, error) {
	kind := types.ScalarAbstractInt
	switch {
	case strings.HasSuffix(text, "i"):
		kind, text = types.ScalarI32, text[:len(text)-1]
	case strings.HasSuffix(text, "u"):
		kind, text = types.ScalarU32, text[:len(text)-1]
	}

	base := 10
	if strings.HasPrefix(text, "0x") || strings.HasPrefix(text, "0X") {
		base, text = 16, text[2:]
	}
	v, err := strconv.ParseInt(text, base, 64)
	if err != nil {
		return LiteralInstance{}, newError(KindNotConstant, "", "integer literal '%s' out of range", text)
	}
	return intOfKind(kind, v)
}

func parseFloat(text string) (LiteralInstance, error) {
	hex := strings.HasPrefix(text, "0x") || strings.HasPrefix(text, "0X")
	kind := types.ScalarAbstractFloat
	// In hex literals f is a digit unless an exponent precedes it.
	if !hex || strings.ContainsAny(text, "pP") {
		switch {
		case strings.HasSuffix(text, "f"):
			kind, text = types.ScalarF32, text[:len(text)-1]
		case strings.HasSuffix(text, "h"):
			kind, text = types.ScalarF16, text[:len(text)-1]
		}
	}
	if hex && !strings.ContainsAny(text, "pP") {
		text += "p0"
	}

	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return LiteralInstance{}, newError(KindNotConstant, "", "float literal '%s' out of range", text)
	}
	switch kind {
	case types.ScalarF32:
		if math.Abs(v) > math.MaxFloat32 {
			return LiteralInstance{}, newError(KindNotConstant, "", "'%s' overflows f32", text)
		}
		return F32(float32(v)), nil
	case types.ScalarF16:
		if math.Abs(v) > 65504 {
			return LiteralInstance{}, newError(KindNotConstant, "", "'%s' overflows f16", text)
		}
		return F16(float32(v)), nil
	}
	return AbstractFloat(v), nil
}

// intOfKind range-checks v for kind.
func intOfKind(kind types.ScalarKind, v int64) (LiteralInstance, error) {
	switch kind {
	case types.ScalarI32:
		if v < math.MinInt32 || v > math.MaxInt32 {
			return LiteralInstance{}, newError(KindNotConstant, "", "%d overflows i32", v)
		}
		return I32(int32(v)), nil
	case types.ScalarU32:
		if v < 0 || v > math.MaxUint32 {
			return LiteralInstance{}, newError(KindNotConstant, "", "%d overflows u32", v)
		}
		return U32(uint32(v)), nil
	}
	return AbstractInt(v), nil
}

// Negate returns -l for signed integers and floats.
func Negate(l LiteralInstance) (LiteralInstance, error) {
	switch l.kind {
	case types.ScalarAbstractInt, types.ScalarI32:
		if l.i == math.MinInt64 {
			return LiteralInstance{}, newError(KindNotConstant, "", "-(%d) overflows", l.i)
		}
		return intOfKind(l.kind, -l.i)
	case types.ScalarAbstractFloat, types.ScalarF32, types.ScalarF16:
		return LiteralInstance{kind: l.kind, f: -l.f}, nil
	}
	return LiteralInstance{}, newError(KindNotConstant, "", "cannot negate %s", l.Ty())
}

// Not returns !l for bools.
func Not(l LiteralInstance) (LiteralInstance, error) {
	if b, ok := l.Bool(); ok {
		return Bool(!b), nil
	}
	return LiteralInstance{}, newError(KindNotConstant, "", "cannot apply ! to %s", l.Ty())
}

// IntArith applies +, -, *, / or % to two integer literals. An AbstractInt
// operand takes the kind of the other operand.
func IntArith(op ast.BinaryOp, a, b LiteralInstance) (LiteralInstance, error) {
	x, okA := a.Int()
	y, okB := b.Int()
	if !okA || !okB {
		return LiteralInstance{}, newError(KindNotConstant, "", "operands %s and %s are not both integers", a.Ty(), b.Ty())
	}

	kind := a.kind
	switch {
	case a.kind == b.kind:
	case a.kind == types.ScalarAbstractInt:
		kind = b.kind
	case b.kind == types.ScalarAbstractInt:
	default:
		return LiteralInstance{}, newError(KindNotConstant, "", "mismatched operand types %s and %s", a.Ty(), b.Ty())
	}

	var v int64
	switch op {
	case ast.BinOpAdd:
		v = x + y
	case ast.BinOpSub:
		v = x - y
	case ast.BinOpMul:
		v = x * y
		if x != 0 && v/x != y {
			return LiteralInstance{}, newError(KindNotConstant, "", "%d * %d overflows", x, y)
		}
	case ast.BinOpDiv, ast.BinOpMod:
		if y == 0 {
			return LiteralInstance{}, newError(KindNotConstant, "", "division by zero")
		}
		if op == ast.BinOpDiv {
			v = x / y
		} else {
			v = x % y
		}
	default:
		return LiteralInstance{}, newError(KindNotConstant, "", "unsupported operator in constant expression")
	}
	return intOfKind(kind, v)
}
