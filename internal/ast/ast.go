// Package ast defines the syntax tree for WESL, the WGSL superset with
// imports and conditional compilation.
//
// The tree is mutated in place by the later stages: conditional compilation
// removes nodes and rewrites @if expressions, lowering removes imports and
// aliases. Every node that can carry attributes implements Decorated, so
// passes that only care about attributes never enumerate node kinds
// themselves.
package ast

import "codeberg.org/saruga/weslc/internal/lexer"

// ----------------------------------------------------------------------------
// Source Location
// ----------------------------------------------------------------------------

// Loc represents a location in source code.
type Loc struct {
	Start int32 // Byte offset of start
}

// Range represents a range in source code.
type Range struct {
	Loc Loc
	Len int32
}

// End returns the byte offset just past the range.
func (r Range) End() int32 {
	return r.Loc.Start + r.Len
}

// RangeBetween returns the range spanning from the start of a to the end of b.
func RangeBetween(a, b Range) Range {
	return Range{Loc: a.Loc, Len: b.End() - a.Loc.Start}
}

// ----------------------------------------------------------------------------
// Module (Top Level)
// ----------------------------------------------------------------------------

// Module represents a complete WESL translation unit.
type Module struct {
	Source     string // Original source text
	SourcePath string // File path (for error messages)

	Imports      []*ImportDecl
	Directives   []Directive
	Declarations []Decl
}

// Decorated is implemented by every node that carries an attribute list.
// Attrs returns a pointer so that passes can edit the list in place.
type Decorated interface {
	Attrs() *[]Attribute
}

// ----------------------------------------------------------------------------
// Imports
// ----------------------------------------------------------------------------

// ImportDecl represents: import a::b::{c, d as e};
type ImportDecl struct {
	Loc        Loc
	Attributes []Attribute
	Tree       ImportTree
}

func (d *ImportDecl) Attrs() *[]Attribute { return &d.Attributes }

// ImportTree is one path of an import statement. A tree either ends in an
// item (optionally renamed with Alias) or fans out into Children.
type ImportTree struct {
	Path     []string
	Alias    string
	Children []ImportTree
}

// ----------------------------------------------------------------------------
// Directives
// ----------------------------------------------------------------------------

// Directive represents a top-level directive (enable, requires, diagnostic).
type Directive interface {
	Decorated
	isDirective()
}

// EnableDirective represents: enable feature1, feature2;
type EnableDirective struct {
	Loc        Loc
	Attributes []Attribute
	Features   []string
}

// RequiresDirective represents: requires feature1, feature2;
type RequiresDirective struct {
	Loc        Loc
	Attributes []Attribute
	Features   []string
}

// DiagnosticDirective represents: diagnostic(severity, rule);
type DiagnosticDirective struct {
	Loc        Loc
	Attributes []Attribute
	Severity   string
	Rule       string
}

func (*EnableDirective) isDirective()     {}
func (*RequiresDirective) isDirective()   {}
func (*DiagnosticDirective) isDirective() {}

func (d *EnableDirective) Attrs() *[]Attribute     { return &d.Attributes }
func (d *RequiresDirective) Attrs() *[]Attribute   { return &d.Attributes }
func (d *DiagnosticDirective) Attrs() *[]Attribute { return &d.Attributes }

// ----------------------------------------------------------------------------
// Declarations
// ----------------------------------------------------------------------------

// Decl represents a top-level or local declaration.
type Decl interface {
	Decorated
	isDecl()
	// DeclName returns the declared name, or "" for const_assert.
	DeclName() string
}

// ConstDecl represents: const name [: type] = expr;
type ConstDecl struct {
	Loc         Loc
	Attributes  []Attribute
	Name        string
	Type        *TypeExpr // nil if inferred
	Initializer Expr
}

// OverrideDecl represents: @id(n) override name [: type] [= expr];
type OverrideDecl struct {
	Loc         Loc
	Attributes  []Attribute
	Name        string
	Type        *TypeExpr // nil if inferred
	Initializer Expr      // nil if no default
}

// VarDecl represents: @group(g) @binding(b) var<space, access> name [: type] [= expr];
type VarDecl struct {
	Loc          Loc
	Attributes   []Attribute
	AddressSpace AddressSpace
	AccessMode   AccessMode
	Name         string
	Type         *TypeExpr // nil if inferred
	Initializer  Expr      // nil if no initializer
}

// LetDecl represents: let name [: type] = expr;
type LetDecl struct {
	Loc         Loc
	Attributes  []Attribute
	Name        string
	Type        *TypeExpr // nil if inferred
	Initializer Expr
}

// FunctionDecl represents a function declaration.
type FunctionDecl struct {
	Loc        Loc
	Attributes []Attribute
	Name       string
	Parameters []*Parameter
	ReturnType *TypeExpr   // nil for void
	ReturnAttr []Attribute // Return value attributes
	Body       *CompoundStmt
}

// Parameter represents a function parameter.
type Parameter struct {
	Loc        Loc
	Attributes []Attribute
	Name       string
	Type       *TypeExpr
}

// StructDecl represents: struct Name { members }
type StructDecl struct {
	Loc        Loc
	Attributes []Attribute
	Name       string
	Members    []*StructMember
}

// StructMember represents a struct field.
type StructMember struct {
	Loc        Loc
	Attributes []Attribute
	Name       string
	Type       *TypeExpr
}

// AliasDecl represents: alias Name = Type;
type AliasDecl struct {
	Loc        Loc
	Attributes []Attribute
	Name       string
	Type       *TypeExpr
}

// ConstAssertDecl represents: const_assert expr;
type ConstAssertDecl struct {
	Loc        Loc
	Attributes []Attribute
	Expr       Expr
}

func (*ConstDecl) isDecl()       {}
func (*OverrideDecl) isDecl()    {}
func (*VarDecl) isDecl()         {}
func (*LetDecl) isDecl()         {}
func (*FunctionDecl) isDecl()    {}
func (*StructDecl) isDecl()      {}
func (*AliasDecl) isDecl()       {}
func (*ConstAssertDecl) isDecl() {}

func (d *ConstDecl) DeclName() string     { return d.Name }
func (d *OverrideDecl) DeclName() string  { return d.Name }
func (d *VarDecl) DeclName() string       { return d.Name }
func (d *LetDecl) DeclName() string       { return d.Name }
func (d *FunctionDecl) DeclName() string  { return d.Name }
func (d *StructDecl) DeclName() string    { return d.Name }
func (d *AliasDecl) DeclName() string     { return d.Name }
func (*ConstAssertDecl) DeclName() string { return "" }

func (d *ConstDecl) Attrs() *[]Attribute       { return &d.Attributes }
func (d *OverrideDecl) Attrs() *[]Attribute    { return &d.Attributes }
func (d *VarDecl) Attrs() *[]Attribute         { return &d.Attributes }
func (d *LetDecl) Attrs() *[]Attribute         { return &d.Attributes }
func (d *FunctionDecl) Attrs() *[]Attribute    { return &d.Attributes }
func (d *StructDecl) Attrs() *[]Attribute      { return &d.Attributes }
func (d *AliasDecl) Attrs() *[]Attribute       { return &d.Attributes }
func (d *ConstAssertDecl) Attrs() *[]Attribute { return &d.Attributes }
func (p *Parameter) Attrs() *[]Attribute       { return &p.Attributes }
func (m *StructMember) Attrs() *[]Attribute    { return &m.Attributes }

// ----------------------------------------------------------------------------
// Address Spaces and Access Modes
// ----------------------------------------------------------------------------

// AddressSpace represents WGSL address spaces.
type AddressSpace uint8

const (
	AddressSpaceNone AddressSpace = iota
	AddressSpaceFunction
	AddressSpacePrivate
	AddressSpaceWorkgroup
	AddressSpaceUniform
	AddressSpaceStorage
	AddressSpaceHandle
)

var addressSpaceNames = map[AddressSpace]string{
	AddressSpaceFunction:  "function",
	AddressSpacePrivate:   "private",
	AddressSpaceWorkgroup: "workgroup",
	AddressSpaceUniform:   "uniform",
	AddressSpaceStorage:   "storage",
}

func (a AddressSpace) String() string {
	return addressSpaceNames[a]
}

// ParseAddressSpace maps a source spelling to an AddressSpace.
func ParseAddressSpace(name string) (AddressSpace, bool) {
	for space, n := range addressSpaceNames {
		if n == name {
			return space, true
		}
	}
	return AddressSpaceNone, false
}

// AccessMode represents WGSL access modes.
type AccessMode uint8

const (
	AccessModeNone AccessMode = iota
	AccessModeRead
	AccessModeWrite
	AccessModeReadWrite
)

var accessModeNames = map[AccessMode]string{
	AccessModeRead:      "read",
	AccessModeWrite:     "write",
	AccessModeReadWrite: "read_write",
}

func (a AccessMode) String() string {
	return accessModeNames[a]
}

// ParseAccessMode maps a source spelling to an AccessMode.
func ParseAccessMode(name string) (AccessMode, bool) {
	for mode, n := range accessModeNames {
		if n == name {
			return mode, true
		}
	}
	return AccessModeNone, false
}

// ----------------------------------------------------------------------------
// Attributes
// ----------------------------------------------------------------------------

// AttrKind classifies an attribute by name. Names the compiler does not
// know about are AttrCustom and are kept verbatim.
type AttrKind uint8

const (
	AttrCustom AttrKind = iota
	AttrAlign
	AttrBinding
	AttrBlendSrc
	AttrBuiltin
	AttrConst
	AttrDiagnostic
	AttrGroup
	AttrID
	AttrInterpolate
	AttrInvariant
	AttrLocation
	AttrMustUse
	AttrSize
	AttrWorkgroupSize
	AttrVertex
	AttrFragment
	AttrCompute
	AttrIf
)

// Attribute represents a WESL attribute (@name or @name(args)).
type Attribute struct {
	Loc  Loc
	Kind AttrKind
	Name string
	Args []Expr // nil for attributes without arguments
}

// IfAttr returns the index of the @if attribute in attrs, or -1.
func IfAttr(attrs []Attribute) int {
	for i := range attrs {
		if attrs[i].Kind == AttrIf {
			return i
		}
	}
	return -1
}

// HasAttr reports whether attrs contains an attribute of the given kind.
func HasAttr(attrs []Attribute, kind AttrKind) bool {
	for i := range attrs {
		if attrs[i].Kind == kind {
			return true
		}
	}
	return false
}

// RemoveAttrs deletes every attribute matching drop, keeping order.
func RemoveAttrs(attrs *[]Attribute, drop func(*Attribute) bool) {
	kept := (*attrs)[:0]
	for i := range *attrs {
		if !drop(&(*attrs)[i]) {
			kept = append(kept, (*attrs)[i])
		}
	}
	if len(kept) == 0 {
		kept = nil
	}
	*attrs = kept
}

// ----------------------------------------------------------------------------
// Expressions
// ----------------------------------------------------------------------------

// Expr represents an expression.
type Expr interface {
	isExpr()
	Span() Range
}

// IdentExpr is an identifier, optionally with template arguments:
// foo, vec3<f32>, array<T, 4>, pkg::item.
type IdentExpr struct {
	Range        Range
	Name         string
	TemplateArgs []Expr
}

// TypeExpr is a type written in source. Types and templated identifiers
// share one representation; evaluation decides what a name denotes.
type TypeExpr = IdentExpr

// LiteralExpr represents a literal value.
type LiteralExpr struct {
	Range Range
	Kind  lexer.TokenKind // TokTrue, TokFalse, TokIntLiteral or TokFloatLiteral
	Value string          // Raw literal text
}

// BoolLiteral returns a true or false literal covering r.
func BoolLiteral(value bool, r Range) *LiteralExpr {
	if value {
		return &LiteralExpr{Range: r, Kind: lexer.TokTrue, Value: "true"}
	}
	return &LiteralExpr{Range: r, Kind: lexer.TokFalse, Value: "false"}
}

// Bool returns the value of a boolean literal; ok is false for other literals.
func (e *LiteralExpr) Bool() (value, ok bool) {
	switch e.Kind {
	case lexer.TokTrue:
		return true, true
	case lexer.TokFalse:
		return false, true
	}
	return false, false
}

// BinaryExpr represents a binary operation.
type BinaryExpr struct {
	Range Range
	Op    BinaryOp
	Left  Expr
	Right Expr
}

// BinaryOp represents binary operators.
type BinaryOp uint8

const (
	BinOpAdd        BinaryOp = iota // +
	BinOpSub                        // -
	BinOpMul                        // *
	BinOpDiv                        // /
	BinOpMod                        // %
	BinOpAnd                        // &
	BinOpOr                         // |
	BinOpXor                        // ^
	BinOpShl                        // <<
	BinOpShr                        // >>
	BinOpLogicalAnd                 // &&
	BinOpLogicalOr                  // ||
	BinOpEq                         // ==
	BinOpNe                         // !=
	BinOpLt                         // <
	BinOpLe                         // <=
	BinOpGt                         // >
	BinOpGe                         // >=
)

// UnaryExpr represents a unary operation.
type UnaryExpr struct {
	Range   Range
	Op      UnaryOp
	Operand Expr
}

// UnaryOp represents unary operators.
type UnaryOp uint8

const (
	UnaryOpNeg    UnaryOp = iota // -
	UnaryOpNot                   // !
	UnaryOpBitNot                // ~
	UnaryOpDeref                 // *
	UnaryOpAddr                  // &
)

// CallExpr represents a function call or type constructor.
type CallExpr struct {
	Range Range
	Func  *IdentExpr // callee, possibly templated: vec3<f32>(...)
	Args  []Expr
}

// IndexExpr represents array/vector indexing: base[index]
type IndexExpr struct {
	Range Range
	Base  Expr
	Index Expr
}

// MemberExpr represents member access: base.member
type MemberExpr struct {
	Range  Range
	Base   Expr
	Member string
}

// ParenExpr represents a parenthesized expression.
type ParenExpr struct {
	Range Range
	Expr  Expr
}

func (*IdentExpr) isExpr()   {}
func (*LiteralExpr) isExpr() {}
func (*BinaryExpr) isExpr()  {}
func (*UnaryExpr) isExpr()   {}
func (*CallExpr) isExpr()    {}
func (*IndexExpr) isExpr()   {}
func (*MemberExpr) isExpr()  {}
func (*ParenExpr) isExpr()   {}

func (e *IdentExpr) Span() Range   { return e.Range }
func (e *LiteralExpr) Span() Range { return e.Range }
func (e *BinaryExpr) Span() Range  { return e.Range }
func (e *UnaryExpr) Span() Range   { return e.Range }
func (e *CallExpr) Span() Range    { return e.Range }
func (e *IndexExpr) Span() Range   { return e.Range }
func (e *MemberExpr) Span() Range  { return e.Range }
func (e *ParenExpr) Span() Range   { return e.Range }

// ----------------------------------------------------------------------------
// Statements
// ----------------------------------------------------------------------------

// Stmt represents a statement.
type Stmt interface {
	Decorated
	isStmt()
}

// CompoundStmt represents a block of statements: { stmts }
type CompoundStmt struct {
	Loc        Loc
	Attributes []Attribute
	Stmts      []Stmt
}

// ReturnStmt represents: return [expr];
type ReturnStmt struct {
	Loc        Loc
	Attributes []Attribute
	Value      Expr // nil for bare return
}

// IfStmt represents: if (cond) { } [else [if ...] { }]
type IfStmt struct {
	Loc        Loc
	Attributes []Attribute
	Condition  Expr
	Body       *CompoundStmt
	Else       Stmt // nil, *IfStmt, or *CompoundStmt
}

// SwitchStmt represents: switch (expr) { cases }
type SwitchStmt struct {
	Loc        Loc
	Attributes []Attribute
	Expr       Expr
	Cases      []*SwitchCase
}

// SwitchCase represents a case or default clause in a switch. A nil entry
// in Selectors is the 'default' selector of a case clause.
type SwitchCase struct {
	Loc        Loc
	Attributes []Attribute
	Default    bool // written as "default:" rather than "case ...:"
	Selectors  []Expr
	Body       *CompoundStmt
}

// ForStmt represents: for (init; cond; update) { }
type ForStmt struct {
	Loc        Loc
	Attributes []Attribute
	Init       Stmt // DeclStmt, assignment, call, or nil
	Condition  Expr // nil for infinite loop
	Update     Stmt // Assignment, increment or call, or nil
	Body       *CompoundStmt
}

// WhileStmt represents: while (cond) { }
type WhileStmt struct {
	Loc        Loc
	Attributes []Attribute
	Condition  Expr
	Body       *CompoundStmt
}

// LoopStmt represents: loop { [continuing { }] }
type LoopStmt struct {
	Loc        Loc
	Attributes []Attribute
	Body       *CompoundStmt
	Continuing *ContinuingStmt // nil if no continuing block
}

// ContinuingStmt is the continuing block of a loop. It is not a statement
// on its own; it only appears in LoopStmt.Continuing.
type ContinuingStmt struct {
	Loc        Loc
	Attributes []Attribute
	Stmts      []Stmt
	BreakIf    *BreakIfStmt // nil if absent
}

// BreakIfStmt represents: break if expr; (last statement of a continuing block)
type BreakIfStmt struct {
	Loc        Loc
	Attributes []Attribute
	Condition  Expr
}

// BreakStmt represents: break;
type BreakStmt struct {
	Loc        Loc
	Attributes []Attribute
}

// ContinueStmt represents: continue;
type ContinueStmt struct {
	Loc        Loc
	Attributes []Attribute
}

// DiscardStmt represents: discard; (fragment shader only)
type DiscardStmt struct {
	Loc        Loc
	Attributes []Attribute
}

// AssignStmt represents: lhs = rhs; or lhs op= rhs; The phony assignment
// _ = rhs has an IdentExpr named "_" on the left.
type AssignStmt struct {
	Loc        Loc
	Attributes []Attribute
	Op         AssignOp
	Left       Expr
	Right      Expr
}

// AssignOp represents assignment operators.
type AssignOp uint8

const (
	AssignOpSimple AssignOp = iota // =
	AssignOpAdd                    // +=
	AssignOpSub                    // -=
	AssignOpMul                    // *=
	AssignOpDiv                    // /=
	AssignOpMod                    // %=
	AssignOpAnd                    // &=
	AssignOpOr                     // |=
	AssignOpXor                    // ^=
	AssignOpShl                    // <<=
	AssignOpShr                    // >>=
)

// IncrDecrStmt represents: expr++; or expr--;
type IncrDecrStmt struct {
	Loc        Loc
	Attributes []Attribute
	Expr       Expr
	Increment  bool // true for ++, false for --
}

// CallStmt represents a function call as a statement.
type CallStmt struct {
	Loc        Loc
	Attributes []Attribute
	Call       *CallExpr
}

// DeclStmt wraps a declaration as a statement (local const/let/var and
// const_assert). Its attributes are the declaration's.
type DeclStmt struct {
	Decl Decl
}

func (*CompoundStmt) isStmt() {}
func (*ReturnStmt) isStmt()   {}
func (*IfStmt) isStmt()       {}
func (*SwitchStmt) isStmt()   {}
func (*ForStmt) isStmt()      {}
func (*WhileStmt) isStmt()    {}
func (*LoopStmt) isStmt()     {}
func (*BreakStmt) isStmt()    {}
func (*ContinueStmt) isStmt() {}
func (*DiscardStmt) isStmt()  {}
func (*AssignStmt) isStmt()   {}
func (*IncrDecrStmt) isStmt() {}
func (*CallStmt) isStmt()     {}
func (*DeclStmt) isStmt()     {}

func (s *CompoundStmt) Attrs() *[]Attribute { return &s.Attributes }
func (s *ReturnStmt) Attrs() *[]Attribute   { return &s.Attributes }
func (s *IfStmt) Attrs() *[]Attribute       { return &s.Attributes }
func (s *SwitchStmt) Attrs() *[]Attribute   { return &s.Attributes }
func (s *ForStmt) Attrs() *[]Attribute      { return &s.Attributes }
func (s *WhileStmt) Attrs() *[]Attribute    { return &s.Attributes }
func (s *LoopStmt) Attrs() *[]Attribute     { return &s.Attributes }
func (s *BreakStmt) Attrs() *[]Attribute    { return &s.Attributes }
func (s *ContinueStmt) Attrs() *[]Attribute { return &s.Attributes }
func (s *DiscardStmt) Attrs() *[]Attribute  { return &s.Attributes }
func (s *AssignStmt) Attrs() *[]Attribute   { return &s.Attributes }
func (s *IncrDecrStmt) Attrs() *[]Attribute { return &s.Attributes }
func (s *CallStmt) Attrs() *[]Attribute     { return &s.Attributes }
func (s *DeclStmt) Attrs() *[]Attribute     { return s.Decl.Attrs() }
func (c *SwitchCase) Attrs() *[]Attribute   { return &c.Attributes }

// Attrs returns nil for a nil block so that an absent continuing slot
// reads as undecorated.
func (s *ContinuingStmt) Attrs() *[]Attribute {
	if s == nil {
		return nil
	}
	return &s.Attributes
}

// Attrs returns nil for a nil break-if.
func (s *BreakIfStmt) Attrs() *[]Attribute {
	if s == nil {
		return nil
	}
	return &s.Attributes
}
