// Package printer outputs WESL code from an AST.
//
// The printer can operate in two modes:
// - Pretty: Human-readable output with indentation
// - Minified: Minimal whitespace output
//
// After conditional compilation and lowering the printed module is plain
// WGSL; before that it still carries imports and @if attributes, which are
// printed back as written.
package printer

import (
	"strings"

	"codeberg.org/saruga/weslc/internal/ast"
)

// Options controls printer output.
type Options struct {
	// MinifyWhitespace removes unnecessary whitespace
	MinifyWhitespace bool

	// Mapper, if set, receives the output position of every identifier and
	// literal together with its source offset.
	Mapper Mapper
}

// Mapper records generated-to-source position mappings. Lines and columns
// are 0-based; columns are byte offsets into the generated line.
type Mapper interface {
	AddMapping(genLine, genCol, srcOffset int, name string)
}

// Printer outputs WESL code.
type Printer struct {
	options Options

	buf    strings.Builder
	indent int

	// Generated line and the buffer offset where it starts
	line      int
	lineStart int

	// Track if we need whitespace before next token
	needsSpace bool
}

// New creates a new printer.
func New(options Options) *Printer {
	return &Printer{options: options}
}

// Print outputs the module as a string.
func (p *Printer) Print(module *ast.Module) string {
	p.buf.Reset()
	p.line, p.lineStart = 0, 0
	p.printModule(module)
	return p.buf.String()
}

// PrintExpr outputs a single expression.
func (p *Printer) PrintExpr(expr ast.Expr) string {
	p.buf.Reset()
	p.line, p.lineStart = 0, 0
	p.printExpr(expr)
	return p.buf.String()
}

// ----------------------------------------------------------------------------
// Output Helpers
// ----------------------------------------------------------------------------

func (p *Printer) print(s string) {
	p.buf.WriteString(s)
	p.needsSpace = false
}

func (p *Printer) printSpace() {
	if !p.options.MinifyWhitespace || p.needsSpace {
		p.buf.WriteByte(' ')
	}
	p.needsSpace = false
}

func (p *Printer) printNewline() {
	if !p.options.MinifyWhitespace {
		p.buf.WriteByte('\n')
		p.line++
		p.lineStart = p.buf.Len()
		for i := 0; i < p.indent; i++ {
			p.buf.WriteString("    ")
		}
	}
	p.needsSpace = false
}

// printOp prints an operator, separating it from a preceding operator
// character when the two would lex as one token (a - -b, a & &b, a / *p).
func (p *Printer) printOp(op string) {
	if n := p.buf.Len(); n > 0 && fusedTokens[string([]byte{p.buf.String()[n-1], op[0]})] {
		p.buf.WriteByte(' ')
	}
	p.print(op)
}

var fusedTokens = map[string]bool{
	"--": true, "++": true, "&&": true, "||": true, "/*": true, "//": true,
	"->": true, "<<": true, ">>": true, "<=": true, ">=": true, "==": true,
	"!=": true, "+=": true, "-=": true, "*=": true, "/=": true, "%=": true,
	"&=": true, "|=": true, "^=": true,
}

func (p *Printer) printList(n int, item func(int)) {
	for i := 0; i < n; i++ {
		if i > 0 {
			p.print(",")
			p.printSpace()
		}
		item(i)
	}
}

func (p *Printer) addMapping(r ast.Range, name string) {
	if p.options.Mapper != nil {
		p.options.Mapper.AddMapping(p.line, p.buf.Len()-p.lineStart, int(r.Loc.Start), name)
	}
}

// ----------------------------------------------------------------------------
// Module Printing
// ----------------------------------------------------------------------------

func (p *Printer) printModule(m *ast.Module) {
	for _, imp := range m.Imports {
		p.printImport(imp)
		p.printNewline()
	}
	if len(m.Imports) > 0 && len(m.Directives)+len(m.Declarations) > 0 {
		p.printNewline()
	}

	for _, dir := range m.Directives {
		p.printDirective(dir)
		p.printNewline()
	}
	if len(m.Directives) > 0 && len(m.Declarations) > 0 {
		p.printNewline()
	}

	for i, decl := range m.Declarations {
		if i > 0 {
			p.printNewline()
		}
		p.printDecl(decl)
		p.printNewline()
	}
}

func (p *Printer) printImport(imp *ast.ImportDecl) {
	p.printAttributes(imp.Attributes)
	p.print("import ")
	p.printImportTree(imp.Tree)
	p.print(";")
}

func (p *Printer) printImportTree(tree ast.ImportTree) {
	p.print(strings.Join(tree.Path, "::"))
	if tree.Children != nil {
		if len(tree.Path) > 0 {
			p.print("::")
		}
		p.print("{")
		p.printList(len(tree.Children), func(i int) {
			p.printImportTree(tree.Children[i])
		})
		p.print("}")
		return
	}
	if tree.Alias != "" {
		p.print(" as ")
		p.print(tree.Alias)
	}
}

func (p *Printer) printDirective(d ast.Directive) {
	p.printAttributes(*d.Attrs())
	switch dir := d.(type) {
	case *ast.EnableDirective:
		p.print("enable ")
		p.print(strings.Join(dir.Features, p.separator()))
	case *ast.RequiresDirective:
		p.print("requires ")
		p.print(strings.Join(dir.Features, p.separator()))
	case *ast.DiagnosticDirective:
		p.print("diagnostic(")
		p.print(dir.Severity)
		p.print(",")
		p.printSpace()
		p.print(dir.Rule)
		p.print(")")
	}
	p.print(";")
}

func (p *Printer) separator() string {
	if p.options.MinifyWhitespace {
		return ","
	}
	return ", "
}

// ----------------------------------------------------------------------------
// Declarations
// ----------------------------------------------------------------------------

// printDecl prints a declaration without a trailing newline.
func (p *Printer) printDecl(d ast.Decl) {
	p.printAttributes(*d.Attrs())

	switch decl := d.(type) {
	case *ast.ConstDecl:
		p.printBinding("const ", decl.Name, decl.Type, decl.Initializer)

	case *ast.OverrideDecl:
		p.printBinding("override ", decl.Name, decl.Type, decl.Initializer)

	case *ast.LetDecl:
		p.printBinding("let ", decl.Name, decl.Type, decl.Initializer)

	case *ast.VarDecl:
		keyword := "var "
		if decl.AddressSpace != ast.AddressSpaceNone {
			keyword = "var<" + decl.AddressSpace.String()
			if decl.AccessMode != ast.AccessModeNone {
				keyword += p.separator() + decl.AccessMode.String()
			}
			keyword += "> "
		}
		p.printBinding(keyword, decl.Name, decl.Type, decl.Initializer)

	case *ast.FunctionDecl:
		p.print("fn ")
		p.print(decl.Name)
		p.print("(")
		p.printList(len(decl.Parameters), func(i int) {
			param := decl.Parameters[i]
			p.printAttributes(param.Attributes)
			p.print(param.Name)
			p.print(":")
			p.printSpace()
			p.printExpr(param.Type)
		})
		p.print(")")
		if decl.ReturnType != nil {
			p.printSpace()
			p.print("->")
			p.printSpace()
			p.printAttributes(decl.ReturnAttr)
			p.printExpr(decl.ReturnType)
		}
		p.printSpace()
		p.printBlock(decl.Body.Stmts, nil)

	case *ast.StructDecl:
		p.print("struct ")
		p.print(decl.Name)
		p.printSpace()
		p.print("{")
		p.indent++
		for i, member := range decl.Members {
			p.printNewline()
			p.printAttributes(member.Attributes)
			p.print(member.Name)
			p.print(":")
			p.printSpace()
			p.printExpr(member.Type)
			if i < len(decl.Members)-1 {
				p.print(",")
			}
		}
		p.indent--
		p.printNewline()
		p.print("}")

	case *ast.AliasDecl:
		p.print("alias ")
		p.print(decl.Name)
		p.printSpace()
		p.print("=")
		p.printSpace()
		p.printExpr(decl.Type)
		p.print(";")

	case *ast.ConstAssertDecl:
		p.print("const_assert ")
		p.printExpr(decl.Expr)
		p.print(";")
	}
}

// printBinding prints keyword name[: type][ = init];
func (p *Printer) printBinding(keyword, name string, typ *ast.TypeExpr, init ast.Expr) {
	p.print(keyword)
	p.print(name)
	if typ != nil {
		p.print(":")
		p.printSpace()
		p.printExpr(typ)
	}
	if init != nil {
		p.printSpace()
		p.print("=")
		p.printSpace()
		p.printExpr(init)
	}
	p.print(";")
}

// ----------------------------------------------------------------------------
// Attributes
// ----------------------------------------------------------------------------

func (p *Printer) printAttributes(attrs []ast.Attribute) {
	for _, attr := range attrs {
		p.print("@")
		p.print(attr.Name)
		if len(attr.Args) > 0 {
			p.print("(")
			p.printList(len(attr.Args), func(i int) { p.printExpr(attr.Args[i]) })
			p.print(")")
		}
		p.needsSpace = true
		p.printSpace()
	}
}

// ----------------------------------------------------------------------------
// Expressions
// ----------------------------------------------------------------------------

func (p *Printer) printExpr(e ast.Expr) {
	switch expr := e.(type) {
	case *ast.IdentExpr:
		p.addMapping(expr.Range, expr.Name)
		p.print(expr.Name)
		if len(expr.TemplateArgs) > 0 {
			p.print("<")
			p.printList(len(expr.TemplateArgs), func(i int) { p.printExpr(expr.TemplateArgs[i]) })
			p.print(">")
		}

	case *ast.LiteralExpr:
		p.addMapping(expr.Range, "")
		p.print(expr.Value)

	case *ast.BinaryExpr:
		// a<b followed by a later > would lex as a template list
		lt := expr.Op == ast.BinOpLt
		p.printExpr(expr.Left)
		p.needsSpace = lt
		p.printSpace()
		p.printOp(binaryOpString(expr.Op))
		p.needsSpace = lt
		p.printSpace()
		p.printExpr(expr.Right)

	case *ast.UnaryExpr:
		p.printOp(unaryOpString(expr.Op))
		p.printExpr(expr.Operand)

	case *ast.CallExpr:
		p.printExpr(expr.Func)
		p.print("(")
		p.printList(len(expr.Args), func(i int) { p.printExpr(expr.Args[i]) })
		p.print(")")

	case *ast.IndexExpr:
		p.printExpr(expr.Base)
		p.print("[")
		p.printExpr(expr.Index)
		p.print("]")

	case *ast.MemberExpr:
		p.printExpr(expr.Base)
		p.print(".")
		p.print(expr.Member)

	case *ast.ParenExpr:
		p.print("(")
		p.printExpr(expr.Expr)
		p.print(")")
	}
}

var binaryOpStrings = [...]string{
	ast.BinOpAdd:        "+",
	ast.BinOpSub:        "-",
	ast.BinOpMul:        "*",
	ast.BinOpDiv:        "/",
	ast.BinOpMod:        "%",
	ast.BinOpAnd:        "&",
	ast.BinOpOr:         "|",
	ast.BinOpXor:        "^",
	ast.BinOpShl:        "<<",
	ast.BinOpShr:        ">>",
	ast.BinOpLogicalAnd: "&&",
	ast.BinOpLogicalOr:  "||",
	ast.BinOpEq:         "==",
	ast.BinOpNe:         "!=",
	ast.BinOpLt:         "<",
	ast.BinOpLe:         "<=",
	ast.BinOpGt:         ">",
	ast.BinOpGe:         ">=",
}

func binaryOpString(op ast.BinaryOp) string {
	if int(op) < len(binaryOpStrings) {
		return binaryOpStrings[op]
	}
	return "?"
}

var unaryOpStrings = [...]string{
	ast.UnaryOpNeg:    "-",
	ast.UnaryOpNot:    "!",
	ast.UnaryOpBitNot: "~",
	ast.UnaryOpDeref:  "*",
	ast.UnaryOpAddr:   "&",
}

func unaryOpString(op ast.UnaryOp) string {
	if int(op) < len(unaryOpStrings) {
		return unaryOpStrings[op]
	}
	return "?"
}

var assignOpStrings = [...]string{
	ast.AssignOpSimple: "=",
	ast.AssignOpAdd:    "+=",
	ast.AssignOpSub:    "-=",
	ast.AssignOpMul:    "*=",
	ast.AssignOpDiv:    "/=",
	ast.AssignOpMod:    "%=",
	ast.AssignOpAnd:    "&=",
	ast.AssignOpOr:     "|=",
	ast.AssignOpXor:    "^=",
	ast.AssignOpShl:    "<<=",
	ast.AssignOpShr:    ">>=",
}

func assignOpString(op ast.AssignOp) string {
	if int(op) < len(assignOpStrings) {
		return assignOpStrings[op]
	}
	return "="
}

// ----------------------------------------------------------------------------
// Statements
// ----------------------------------------------------------------------------

// printBlock prints { stmts } with each statement on its own line. tail,
// if set, prints extra content before the closing brace.
func (p *Printer) printBlock(stmts []ast.Stmt, tail func()) {
	p.print("{")
	p.indent++
	for _, s := range stmts {
		p.printNewline()
		p.printStmt(s)
	}
	if tail != nil {
		tail()
	}
	p.indent--
	p.printNewline()
	p.print("}")
}

func (p *Printer) printStmt(s ast.Stmt) {
	if d, ok := s.(*ast.DeclStmt); ok {
		p.printDecl(d.Decl)
		return
	}
	p.printAttributes(*s.Attrs())

	switch stmt := s.(type) {
	case *ast.CompoundStmt:
		p.printBlock(stmt.Stmts, nil)

	case *ast.ReturnStmt:
		p.print("return")
		if stmt.Value != nil {
			p.print(" ")
			p.printExpr(stmt.Value)
		}
		p.print(";")

	case *ast.IfStmt:
		p.printIfStmt(stmt)

	case *ast.SwitchStmt:
		p.printSwitchStmt(stmt)

	case *ast.ForStmt:
		p.printForStmt(stmt)

	case *ast.WhileStmt:
		p.print("while ")
		p.printExpr(stmt.Condition)
		p.printSpace()
		p.printBlock(stmt.Body.Stmts, nil)

	case *ast.LoopStmt:
		p.print("loop")
		p.printSpace()
		var tail func()
		if c := stmt.Continuing; c != nil {
			tail = func() {
				p.printNewline()
				p.printContinuing(c)
			}
		}
		p.printBlock(stmt.Body.Stmts, tail)

	case *ast.BreakStmt:
		p.print("break;")

	case *ast.ContinueStmt:
		p.print("continue;")

	case *ast.DiscardStmt:
		p.print("discard;")

	case *ast.AssignStmt, *ast.IncrDecrStmt, *ast.CallStmt:
		p.printSimpleStmt(s)
		p.print(";")
	}
}

// printSimpleStmt prints an assignment, increment or call without its
// semicolon, as used in for-loop headers.
func (p *Printer) printSimpleStmt(s ast.Stmt) {
	switch stmt := s.(type) {
	case *ast.AssignStmt:
		p.printExpr(stmt.Left)
		p.printSpace()
		p.print(assignOpString(stmt.Op))
		p.printSpace()
		p.printExpr(stmt.Right)

	case *ast.IncrDecrStmt:
		p.printExpr(stmt.Expr)
		if stmt.Increment {
			p.print("++")
		} else {
			p.print("--")
		}

	case *ast.CallStmt:
		p.printExpr(stmt.Call)
	}
}

func (p *Printer) printIfStmt(stmt *ast.IfStmt) {
	p.print("if ")
	p.printExpr(stmt.Condition)
	p.printSpace()
	p.printBlock(stmt.Body.Stmts, nil)

	switch e := stmt.Else.(type) {
	case *ast.IfStmt:
		p.printSpace()
		p.print("else ")
		p.printAttributes(e.Attributes)
		p.printIfStmt(e)
	case *ast.CompoundStmt:
		p.printSpace()
		p.print("else")
		p.printSpace()
		p.printAttributes(e.Attributes)
		p.printBlock(e.Stmts, nil)
	}
}

func (p *Printer) printSwitchStmt(stmt *ast.SwitchStmt) {
	p.print("switch ")
	p.printExpr(stmt.Expr)
	p.printSpace()
	p.print("{")
	p.indent++
	for _, c := range stmt.Cases {
		p.printNewline()
		p.printAttributes(c.Attributes)
		if c.Default {
			p.print("default")
		} else {
			p.print("case ")
			p.printList(len(c.Selectors), func(i int) {
				if c.Selectors[i] == nil {
					p.print("default")
				} else {
					p.printExpr(c.Selectors[i])
				}
			})
		}
		p.print(":")
		p.printSpace()
		p.printBlock(c.Body.Stmts, nil)
	}
	p.indent--
	p.printNewline()
	p.print("}")
}

func (p *Printer) printForStmt(stmt *ast.ForStmt) {
	p.print("for")
	p.printSpace()
	p.print("(")
	switch init := stmt.Init.(type) {
	case nil:
		p.print(";")
	case *ast.DeclStmt:
		p.printDecl(init.Decl)
	default:
		p.printAttributes(*init.Attrs())
		p.printSimpleStmt(init)
		p.print(";")
	}
	if stmt.Condition != nil {
		p.printSpace()
		p.printExpr(stmt.Condition)
	}
	p.print(";")
	if stmt.Update != nil {
		p.printSpace()
		p.printAttributes(*stmt.Update.Attrs())
		p.printSimpleStmt(stmt.Update)
	}
	p.print(")")
	p.printSpace()
	p.printBlock(stmt.Body.Stmts, nil)
}

func (p *Printer) printContinuing(c *ast.ContinuingStmt) {
	p.printAttributes(c.Attributes)
	p.print("continuing")
	p.printSpace()
	var tail func()
	if b := c.BreakIf; b != nil {
		tail = func() {
			p.printNewline()
			p.printAttributes(b.Attributes)
			p.print("break if ")
			p.printExpr(b.Condition)
			p.print(";")
		}
	}
	p.printBlock(c.Stmts, tail)
}
