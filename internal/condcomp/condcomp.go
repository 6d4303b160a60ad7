// Package condcomp implements WESL conditional compilation: it folds @if
// attribute expressions against a set of feature flags and removes the
// declarations, members, parameters and statements they disable.
//
// Flags missing from the set are left in place, so a module can be folded
// again once more flags are known.
package condcomp

import (
	"codeberg.org/saruga/weslc/internal/ast"
	"codeberg.org/saruga/weslc/internal/diagnostic"
	"codeberg.org/saruga/weslc/internal/printer"
)

// Features is the flag set @if expressions are evaluated against.
type Features struct {
	// Flags maps feature names to their values. Names are case-sensitive.
	Flags map[string]bool
	// Strict reports flags absent from Flags as KindMissingFeatureFlag
	// instead of leaving them unresolved.
	Strict bool
}

// EvalAttr partially evaluates an @if expression. Known flags become
// literals and !, && and || are simplified wherever an operand is a
// literal; everything else is returned as written. Parentheses are
// dropped from the result.
//
// The returned expression may share nodes with expr.
func EvalAttr(expr ast.Expr, features Features) (ast.Expr, error) {
	folded, err := features.fold(expr)
	return folded, diagnostic.WithSpan(err, expr.Span())
}

func (f Features) fold(expr ast.Expr) (ast.Expr, error) {
	switch e := expr.(type) {
	case *ast.LiteralExpr:
		if _, ok := e.Bool(); ok {
			return e, nil
		}

	case *ast.ParenExpr:
		return EvalAttr(e.Expr, f)

	case *ast.UnaryExpr:
		operand, err := EvalAttr(e.Operand, f)
		if err != nil {
			return nil, err
		}
		if e.Op != ast.UnaryOpNot {
			break
		}
		if v, ok := literal(operand); ok {
			return ast.BoolLiteral(!v, e.Range), nil
		}
		return e, nil

	case *ast.BinaryExpr:
		left, err := EvalAttr(e.Left, f)
		if err != nil {
			return nil, err
		}
		right, err := EvalAttr(e.Right, f)
		if err != nil {
			return nil, err
		}
		switch e.Op {
		case ast.BinOpLogicalOr:
			return foldOr(e, left, right), nil
		case ast.BinOpLogicalAnd:
			return foldAnd(e, left, right), nil
		}

	case *ast.IdentExpr:
		if len(e.TemplateArgs) > 0 {
			return nil, newError(KindInvalidFeatureFlag, printExpr(e))
		}
		if v, ok := f.Flags[e.Name]; ok {
			return ast.BoolLiteral(v, e.Range), nil
		}
		if f.Strict {
			return nil, newError(KindMissingFeatureFlag, e.Name)
		}
		return e, nil
	}

	return nil, newError(KindInvalidExpression, printExpr(expr))
}

func foldOr(e *ast.BinaryExpr, left, right ast.Expr) ast.Expr {
	l, lok := literal(left)
	r, rok := literal(right)
	switch {
	case lok && l, rok && r:
		return ast.BoolLiteral(true, e.Range)
	case lok && rok:
		return ast.BoolLiteral(false, e.Range)
	case lok:
		return right
	case rok:
		return left
	}
	return e
}

func foldAnd(e *ast.BinaryExpr, left, right ast.Expr) ast.Expr {
	l, lok := literal(left)
	r, rok := literal(right)
	switch {
	case lok && !l, rok && !r:
		return ast.BoolLiteral(false, e.Range)
	case lok && rok:
		return ast.BoolLiteral(true, e.Range)
	case lok:
		return right
	case rok:
		return left
	}
	return e
}

// literal returns the value of a boolean literal.
func literal(expr ast.Expr) (value, ok bool) {
	if lit, isLit := expr.(*ast.LiteralExpr); isLit {
		return lit.Bool()
	}
	return false, false
}

func isLiteral(expr ast.Expr, value bool) bool {
	v, ok := literal(expr)
	return ok && v == value
}

func printExpr(expr ast.Expr) string {
	return printer.New(printer.Options{}).PrintExpr(expr)
}

// ifExpr returns the argument slot of the @if attribute in attrs.
func ifExpr(attrs []ast.Attribute) (*ast.Expr, bool) {
	i := ast.IfAttr(attrs)
	if i < 0 || len(attrs[i].Args) != 1 {
		return nil, false
	}
	return &attrs[i].Args[0], true
}

// EvalIfAttr folds the @if attribute of the node in slot. A node whose
// condition folds to false is removed by setting the slot to its zero
// value; otherwise the folded expression replaces the condition. Empty
// slots and nodes without @if are left alone.
func EvalIfAttr[T ast.Decorated](slot *T, features Features) error {
	if any(*slot) == nil {
		return nil
	}
	attrs := (*slot).Attrs()
	if attrs == nil {
		return nil
	}
	cond, ok := ifExpr(*attrs)
	if !ok {
		return nil
	}
	folded, err := EvalAttr(*cond, features)
	if err != nil {
		return err
	}
	if isLiteral(folded, false) {
		var zero T
		*slot = zero
		return nil
	}
	*cond = folded
	return nil
}

// EvalIfAttributes folds the @if attributes of every node in list and
// removes the nodes whose condition folds to false, keeping the order of
// the rest. All conditions are evaluated before any node is touched, so
// an error leaves the list unchanged.
func EvalIfAttributes[T ast.Decorated](list *[]T, features Features) error {
	nodes := *list
	folded := make([]ast.Expr, len(nodes))
	for i, node := range nodes {
		if cond, ok := ifExpr(*node.Attrs()); ok {
			expr, err := EvalAttr(*cond, features)
			if err != nil {
				return err
			}
			folded[i] = expr
		}
	}

	keep := make([]bool, len(nodes))
	for i, node := range nodes {
		keep[i] = true
		if cond, ok := ifExpr(*node.Attrs()); ok {
			*cond = folded[i]
			keep[i] = !isLiteral(folded[i], false)
		}
	}

	kept := nodes[:0]
	for i, node := range nodes {
		if keep[i] {
			kept = append(kept, node)
		}
	}
	clear(nodes[len(kept):])
	*list = kept
	return nil
}
