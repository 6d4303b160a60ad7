package ast

// Visitor receives callbacks from Walk. Any field may be nil.
type Visitor struct {
	// Attrs is called once for every attribute list in the tree, before
	// the expressions inside those attributes are visited.
	Attrs func(*[]Attribute)
	// Ident is called for every identifier expression, including type
	// annotations, callees and template arguments.
	Ident func(*IdentExpr)

	// EnterScope and ExitScope bracket every function-level scope: a
	// function's parameters and body, a block, a for statement and a loop
	// together with its continuing block.
	EnterScope, ExitScope func()
	// Declare is called for each parameter and local declaration once the
	// name is in scope, after its type and initializer have been visited.
	// Module-scope declarations are not reported.
	Declare func(name string)
}

// Walk visits the whole module in source order.
func Walk(m *Module, v Visitor) {
	for _, imp := range m.Imports {
		v.attrs(&imp.Attributes)
	}
	for _, dir := range m.Directives {
		v.attrs(dir.Attrs())
	}
	for _, decl := range m.Declarations {
		v.decl(decl)
	}
}

// VisitAttributes calls fn for every attribute list in the module.
func VisitAttributes(m *Module, fn func(*[]Attribute)) {
	Walk(m, Visitor{Attrs: fn})
}

// VisitIdents calls fn for every identifier expression in the module.
func VisitIdents(m *Module, fn func(*IdentExpr)) {
	Walk(m, Visitor{Ident: fn})
}

func (v Visitor) attrs(list *[]Attribute) {
	if list == nil {
		return
	}
	if v.Attrs != nil {
		v.Attrs(list)
	}
	for i := range *list {
		v.exprs((*list)[i].Args)
	}
}

func (v Visitor) decl(decl Decl) {
	v.attrs(decl.Attrs())
	switch d := decl.(type) {
	case *ConstDecl:
		v.typ(d.Type)
		v.expr(d.Initializer)
	case *OverrideDecl:
		v.typ(d.Type)
		v.expr(d.Initializer)
	case *VarDecl:
		v.typ(d.Type)
		v.expr(d.Initializer)
	case *LetDecl:
		v.typ(d.Type)
		v.expr(d.Initializer)
	case *FunctionDecl:
		for _, p := range d.Parameters {
			v.attrs(&p.Attributes)
			v.typ(p.Type)
		}
		v.attrs(&d.ReturnAttr)
		v.typ(d.ReturnType)
		v.enter()
		for _, p := range d.Parameters {
			v.declare(p.Name)
		}
		if d.Body != nil {
			v.stmt(d.Body)
		}
		v.exit()
	case *StructDecl:
		for _, m := range d.Members {
			v.attrs(&m.Attributes)
			v.typ(m.Type)
		}
	case *AliasDecl:
		v.typ(d.Type)
	case *ConstAssertDecl:
		v.expr(d.Expr)
	}
}

func (v Visitor) stmts(list []Stmt) {
	for _, s := range list {
		v.stmt(s)
	}
}

func (v Visitor) stmt(stmt Stmt) {
	if stmt == nil {
		return
	}
	if c, ok := stmt.(*CompoundStmt); ok && c == nil {
		return
	}
	if d, ok := stmt.(*DeclStmt); ok {
		v.decl(d.Decl)
		v.declare(d.Decl.DeclName())
		return
	}
	v.attrs(stmt.Attrs())

	switch s := stmt.(type) {
	case *CompoundStmt:
		v.enter()
		v.stmts(s.Stmts)
		v.exit()
	case *ReturnStmt:
		v.expr(s.Value)
	case *IfStmt:
		v.expr(s.Condition)
		v.stmt(s.Body)
		v.stmt(s.Else)
	case *SwitchStmt:
		v.expr(s.Expr)
		for _, c := range s.Cases {
			v.attrs(&c.Attributes)
			v.exprs(c.Selectors)
			v.stmt(c.Body)
		}
	case *ForStmt:
		v.enter()
		v.stmt(s.Init)
		v.expr(s.Condition)
		v.stmt(s.Update)
		v.stmt(s.Body)
		v.exit()
	case *WhileStmt:
		v.expr(s.Condition)
		v.stmt(s.Body)
	case *LoopStmt:
		// The continuing block sees the body's declarations.
		v.enter()
		if s.Body != nil {
			v.attrs(&s.Body.Attributes)
			v.stmts(s.Body.Stmts)
		}
		if c := s.Continuing; c != nil {
			v.attrs(&c.Attributes)
			v.stmts(c.Stmts)
			if b := c.BreakIf; b != nil {
				v.attrs(&b.Attributes)
				v.expr(b.Condition)
			}
		}
		v.exit()
	case *AssignStmt:
		v.expr(s.Left)
		v.expr(s.Right)
	case *IncrDecrStmt:
		v.expr(s.Expr)
	case *CallStmt:
		v.expr(s.Call)
	}
}

func (v Visitor) enter() {
	if v.EnterScope != nil {
		v.EnterScope()
	}
}

func (v Visitor) exit() {
	if v.ExitScope != nil {
		v.ExitScope()
	}
}

func (v Visitor) declare(name string) {
	if v.Declare != nil && name != "" {
		v.Declare(name)
	}
}

func (v Visitor) typ(t *TypeExpr) {
	if t != nil {
		v.expr(t)
	}
}

func (v Visitor) exprs(list []Expr) {
	for _, e := range list {
		v.expr(e)
	}
}

func (v Visitor) expr(expr Expr) {
	switch e := expr.(type) {
	case *IdentExpr:
		if e == nil {
			return
		}
		if v.Ident != nil {
			v.Ident(e)
		}
		v.exprs(e.TemplateArgs)
	case *BinaryExpr:
		v.expr(e.Left)
		v.expr(e.Right)
	case *UnaryExpr:
		v.expr(e.Operand)
	case *CallExpr:
		if e.Func != nil {
			v.expr(e.Func)
		}
		v.exprs(e.Args)
	case *IndexExpr:
		v.expr(e.Base)
		v.expr(e.Index)
	case *MemberExpr:
		v.expr(e.Base)
	case *ParenExpr:
		v.expr(e.Expr)
	}
}
