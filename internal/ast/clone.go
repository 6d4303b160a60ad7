package ast

// CloneExpr returns a deep copy of expr. Ranges are copied unchanged.
func CloneExpr(expr Expr) Expr {
	switch e := expr.(type) {
	case nil:
		return nil
	case *IdentExpr:
		return CloneIdent(e)
	case *LiteralExpr:
		c := *e
		return &c
	case *BinaryExpr:
		return &BinaryExpr{Range: e.Range, Op: e.Op, Left: CloneExpr(e.Left), Right: CloneExpr(e.Right)}
	case *UnaryExpr:
		return &UnaryExpr{Range: e.Range, Op: e.Op, Operand: CloneExpr(e.Operand)}
	case *CallExpr:
		return &CallExpr{Range: e.Range, Func: CloneIdent(e.Func), Args: cloneExprs(e.Args)}
	case *IndexExpr:
		return &IndexExpr{Range: e.Range, Base: CloneExpr(e.Base), Index: CloneExpr(e.Index)}
	case *MemberExpr:
		return &MemberExpr{Range: e.Range, Base: CloneExpr(e.Base), Member: e.Member}
	case *ParenExpr:
		return &ParenExpr{Range: e.Range, Expr: CloneExpr(e.Expr)}
	}
	panic("unreachable")
}

// CloneIdent returns a deep copy of an identifier and its template
// arguments.
func CloneIdent(e *IdentExpr) *IdentExpr {
	if e == nil {
		return nil
	}
	return &IdentExpr{Range: e.Range, Name: e.Name, TemplateArgs: cloneExprs(e.TemplateArgs)}
}

func cloneExprs(list []Expr) []Expr {
	if list == nil {
		return nil
	}
	out := make([]Expr, len(list))
	for i, e := range list {
		out[i] = CloneExpr(e)
	}
	return out
}
