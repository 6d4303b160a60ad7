package consteval

import (
	"fmt"
	"math"
	"slices"

	"golang.org/x/exp/constraints"

	"codeberg.org/saruga/weslc/internal/ast"
	"codeberg.org/saruga/weslc/internal/diagnostic"
	"codeberg.org/saruga/weslc/internal/printer"
	"codeberg.org/saruga/weslc/internal/types"
)

// predeclared holds the WGSL predeclared aliases such as vec3f and
// mat4x4h.
var predeclared = map[string]types.Type{}

func init() {
	suffixes := map[string]*types.Scalar{"i": types.I32, "u": types.U32, "f": types.F32, "h": types.F16}
	for n := 2; n <= 4; n++ {
		for suffix, s := range suffixes {
			predeclared[fmt.Sprintf("vec%d%s", n, suffix)] = types.Vec(n, s)
		}
		for r := 2; r <= 4; r++ {
			predeclared[fmt.Sprintf("mat%dx%df", n, r)] = types.Mat(n, r, types.F32)
			predeclared[fmt.Sprintf("mat%dx%dh", n, r)] = types.Mat(n, r, types.F16)
		}
	}
}

// EvalTy resolves a type expression to a type. Names are looked up as
// builtin types, predeclared aliases, generic builtins (array, vecN,
// matCxR, atomic, ptr), then aliases and structs from ctx. Template
// arguments are evaluated as constants; identifiers in them resolve to
// module consts when ctx implements ConstResolver.
//
// Errors carry the span of the innermost expression that failed.
func EvalTy(expr *ast.TypeExpr, ctx Context) (types.Type, error) {
	e := evaluator{ctx: ctx, active: make(map[string]bool)}
	return e.evalTy(expr)
}

// EvalTemplateArg evaluates a template argument expression: a literal,
// possibly parenthesized or negated, simple integer arithmetic, a const
// name or a type.
func EvalTemplateArg(expr ast.Expr, ctx Context) (Instance, error) {
	e := evaluator{ctx: ctx, active: make(map[string]bool)}
	return e.evalExpr(expr)
}

type evaluator struct {
	ctx Context
	// active holds the aliases and consts being resolved, to catch cycles.
	active map[string]bool
}

func (e *evaluator) evalTy(expr *ast.TypeExpr) (types.Type, error) {
	t, err := e.evalTyName(expr)
	return t, diagnostic.WithSpan(err, expr.Span())
}

func (e *evaluator) evalTyName(expr *ast.TypeExpr) (types.Type, error) {
	name, args := expr.Name, expr.TemplateArgs

	if s, ok := types.ScalarByName(name); ok {
		return noTemplate(s, name, args)
	}
	if t, ok := predeclared[name]; ok {
		return noTemplate(t, name, args)
	}

	switch {
	case name == "array":
		return e.evalArray(args)
	case name == "atomic":
		return e.evalAtomic(args)
	case name == "ptr":
		return e.evalPtr(args)
	case len(name) == 4 && name[:3] == "vec" && name[3] >= '2' && name[3] <= '4':
		return e.evalVec(name, int(name[3]-'0'), args)
	case len(name) == 6 && name[:3] == "mat" && name[4] == 'x' &&
		name[3] >= '2' && name[3] <= '4' && name[5] >= '2' && name[5] <= '4':
		return e.evalMat(name, int(name[3]-'0'), int(name[5]-'0'), args)
	}

	if alias, ok := e.ctx.ResolveAlias(name); ok {
		if len(args) > 0 {
			return nil, newError(KindUnexpectedTemplate, name, "")
		}
		if e.active[name] {
			return nil, newError(KindUnknownType, name, "alias refers to itself")
		}
		e.active[name] = true
		defer delete(e.active, name)
		return e.evalTy(alias)
	}

	if _, ok := e.ctx.DeclStruct(name); ok {
		if len(args) > 0 {
			return nil, newError(KindUnexpectedTemplate, name, "")
		}
		return types.StructOf(name), nil
	}
	return nil, newError(KindUnknownType, name, "")
}

func noTemplate(t types.Type, name string, args []ast.Expr) (types.Type, error) {
	if len(args) > 0 {
		return nil, newError(KindUnexpectedTemplate, name, "")
	}
	return t, nil
}

// checkArgs reports a missing or wrong-sized template list.
func checkArgs(name string, args []ast.Expr, min, max int) error {
	switch {
	case len(args) == 0:
		return newError(KindMissingTemplate, name, "")
	case len(args) < min || len(args) > max:
		if min == max {
			return newError(KindTemplateArgs, name, "expected %d, got %d", min, len(args))
		}
		return newError(KindTemplateArgs, name, "expected %d or %d, got %d", min, max, len(args))
	}
	return nil
}

func (e *evaluator) evalArray(args []ast.Expr) (types.Type, error) {
	if err := checkArgs("array", args, 1, 2); err != nil {
		return nil, err
	}
	elem, err := e.evalTypeArg(args[0], "array")
	if err != nil {
		return nil, err
	}
	switch t := elem.(type) {
	case *types.Pointer, *types.Void:
		return nil, diagnostic.WithSpan(elementError(elem, "array"), args[0].Span())
	case *types.Array:
		if t.IsRuntimeSized() {
			return nil, diagnostic.WithSpan(elementError(elem, "array"), args[0].Span())
		}
	}

	if len(args) == 1 {
		return types.Arr(elem, 0), nil
	}
	if e.mentionsOverride(args[1]) {
		return types.ArrOverride(elem, printer.New(printer.Options{}).PrintExpr(args[1])), nil
	}
	count, err := e.evalArrayLength(args[1])
	if err != nil {
		return nil, err
	}
	return types.Arr(elem, count), nil
}

// mentionsOverride reports whether expr refers to a module-scope override,
// making it an override expression rather than a constant.
func (e *evaluator) mentionsOverride(expr ast.Expr) bool {
	resolver, ok := e.ctx.(OverrideResolver)
	if !ok {
		return false
	}
	var walk func(ast.Expr) bool
	walk = func(expr ast.Expr) bool {
		switch x := expr.(type) {
		case *ast.IdentExpr:
			return len(x.TemplateArgs) == 0 && resolver.IsOverride(x.Name)
		case *ast.ParenExpr:
			return walk(x.Expr)
		case *ast.UnaryExpr:
			return walk(x.Operand)
		case *ast.BinaryExpr:
			return walk(x.Left) || walk(x.Right)
		case *ast.CallExpr:
			return slices.ContainsFunc(x.Args, walk)
		}
		return false
	}
	return walk(expr)
}

func (e *evaluator) evalArrayLength(arg ast.Expr) (int, error) {
	inst, err := e.evalExpr(arg)
	if err != nil {
		return 0, err
	}
	lit, ok := inst.(LiteralInstance)
	n, isInt := lit.Int()
	if !ok || !isInt {
		return 0, diagnostic.WithSpan(
			newError(KindInvalidArrayLength, "array", "length must be an integer scalar, got %s", inst.Ty()),
			arg.Span())
	}

	var count int
	if lit.Kind() == types.ScalarU32 {
		count, ok = arrayLength(uint32(n))
	} else {
		count, ok = arrayLength(n)
	}
	if !ok {
		return 0, diagnostic.WithSpan(
			newError(KindInvalidArrayLength, "array", "length must be positive, got %s", lit),
			arg.Span())
	}
	return count, nil
}

// arrayLength converts an integer scalar to an array element count.
func arrayLength[T constraints.Integer](n T) (int, bool) {
	if n <= 0 || uint64(n) > math.MaxInt32 {
		return 0, false
	}
	return int(n), true
}

func (e *evaluator) evalVec(name string, n int, args []ast.Expr) (types.Type, error) {
	if err := checkArgs(name, args, 1, 1); err != nil {
		return nil, err
	}
	elem, err := e.evalTypeArg(args[0], name)
	if err != nil {
		return nil, err
	}
	// Any scalar, bool included: WGSL has vecN<bool>.
	s, ok := elem.(*types.Scalar)
	if !ok {
		return nil, diagnostic.WithSpan(elementError(elem, name), args[0].Span())
	}
	return types.Vec(n, s), nil
}

func (e *evaluator) evalMat(name string, c, r int, args []ast.Expr) (types.Type, error) {
	if err := checkArgs(name, args, 1, 1); err != nil {
		return nil, err
	}
	elem, err := e.evalTypeArg(args[0], name)
	if err != nil {
		return nil, err
	}
	s, ok := elem.(*types.Scalar)
	if !ok || !s.IsFloat() {
		return nil, diagnostic.WithSpan(elementError(elem, name), args[0].Span())
	}
	return types.Mat(c, r, s), nil
}

func (e *evaluator) evalAtomic(args []ast.Expr) (types.Type, error) {
	if err := checkArgs("atomic", args, 1, 1); err != nil {
		return nil, err
	}
	elem, err := e.evalTypeArg(args[0], "atomic")
	if err != nil {
		return nil, err
	}
	if !elem.Equals(types.I32) && !elem.Equals(types.U32) {
		return nil, diagnostic.WithSpan(elementError(elem, "atomic"), args[0].Span())
	}
	return types.AtomicOf(elem.(*types.Scalar)), nil
}

// evalPtr evaluates ptr<AS, T[, AM]>. The address space and access mode
// are checked but not recorded in the type.
func (e *evaluator) evalPtr(args []ast.Expr) (types.Type, error) {
	if err := checkArgs("ptr", args, 2, 3); err != nil {
		return nil, err
	}
	if id, ok := args[0].(*ast.IdentExpr); !ok || !validAddressSpace(id.Name) {
		return nil, diagnostic.WithSpan(
			newError(KindTemplateArgs, "ptr", "first argument must be an address space"), args[0].Span())
	}
	elem, err := e.evalTypeArg(args[1], "ptr")
	if err != nil {
		return nil, err
	}
	if len(args) == 3 {
		id, ok := args[2].(*ast.IdentExpr)
		if _, valid := ast.ParseAccessMode(nameOf(id, ok)); !valid {
			return nil, diagnostic.WithSpan(
				newError(KindTemplateArgs, "ptr", "third argument must be an access mode"), args[2].Span())
		}
	}
	return types.PtrTo(elem), nil
}

func validAddressSpace(name string) bool {
	_, ok := ast.ParseAddressSpace(name)
	return ok
}

func nameOf(id *ast.IdentExpr, ok bool) string {
	if !ok {
		return ""
	}
	return id.Name
}

// evalTypeArg evaluates a template argument that must name a type.
func (e *evaluator) evalTypeArg(arg ast.Expr, container string) (types.Type, error) {
	inst, err := e.evalExpr(arg)
	if err != nil {
		return nil, err
	}
	t, ok := inst.(TypeInstance)
	if !ok {
		return nil, diagnostic.WithSpan(
			newError(KindInvalidElementType, container, "expected a type, got the value %s", inst),
			arg.Span())
	}
	return t.Type, nil
}

// ----------------------------------------------------------------------------
// Template Argument Expressions
// ----------------------------------------------------------------------------

func (e *evaluator) evalExpr(expr ast.Expr) (Instance, error) {
	inst, err := e.evalExprKind(expr)
	return inst, diagnostic.WithSpan(err, expr.Span())
}

func (e *evaluator) evalExprKind(expr ast.Expr) (Instance, error) {
	switch x := expr.(type) {
	case *ast.LiteralExpr:
		return ParseLiteral(x)

	case *ast.ParenExpr:
		return e.evalExpr(x.Expr)

	case *ast.UnaryExpr:
		operand, err := e.evalExpr(x.Operand)
		if err != nil {
			return nil, err
		}
		lit, ok := operand.(LiteralInstance)
		switch {
		case ok && x.Op == ast.UnaryOpNeg:
			return Negate(lit)
		case ok && x.Op == ast.UnaryOpNot:
			return Not(lit)
		}

	case *ast.BinaryExpr:
		left, err := e.evalExpr(x.Left)
		if err != nil {
			return nil, err
		}
		right, err := e.evalExpr(x.Right)
		if err != nil {
			return nil, err
		}
		a, okA := left.(LiteralInstance)
		b, okB := right.(LiteralInstance)
		if okA && okB {
			return IntArith(x.Op, a, b)
		}

	case *ast.IdentExpr:
		if resolver, ok := e.ctx.(ConstResolver); ok && len(x.TemplateArgs) == 0 {
			if init, ok := resolver.ResolveConst(x.Name); ok {
				if e.active[x.Name] {
					return nil, newError(KindNotConstant, x.Name, "'%s' is defined in terms of itself", x.Name)
				}
				e.active[x.Name] = true
				defer delete(e.active, x.Name)
				return e.evalExpr(init)
			}
		}
		t, err := e.evalTy(x)
		if err != nil {
			return nil, err
		}
		return TypeInstance{Type: t}, nil
	}

	return nil, newError(KindNotConstant, "", "expression cannot be evaluated as a template argument")
}
