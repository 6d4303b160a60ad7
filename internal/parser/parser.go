// Package parser provides WESL parsing into an AST.
//
// The parser is a single-pass recursive-descent parser over the token
// stream produced by the lexer, whose template-list discovery already
// tells '<' as a template delimiter apart from '<' as an operator. Names
// are kept as written; nothing is resolved here.
//
// Errors do not stop the parse. Each is recorded as a ParseError and the
// parser resynchronizes, so that one run reports as much as it can.
package parser

import (
	"fmt"

	"codeberg.org/saruga/weslc/internal/ast"
	"codeberg.org/saruga/weslc/internal/diagnostic"
	"codeberg.org/saruga/weslc/internal/lexer"
)

// Parser parses WESL source into an AST.
type Parser struct {
	source  string
	tokens  []lexer.Token
	pos     int
	prevEnd int // End offset of the last consumed token
	lines   *diagnostic.LineIndex

	errors []ParseError
}

// ParseError represents a parsing error.
type ParseError struct {
	Message string
	Pos     int
	Line    int
	Column  int
}

func (e ParseError) Error() string {
	return fmt.Sprintf("%d:%d: %s", e.Line, e.Column, e.Message)
}

// New creates a new parser for the given source.
func New(source string) *Parser {
	return &Parser{
		source: source,
		tokens: lexer.New(source).Tokenize(),
		lines:  diagnostic.NewLineIndex(source),
	}
}

// Parse parses the source and returns the AST module.
func (p *Parser) Parse() (*ast.Module, []ParseError) {
	module := &ast.Module{Source: p.source}
	p.parseTranslationUnit(module)
	return module, p.errors
}

// ParseExpr parses source as a single expression.
func ParseExpr(source string) (ast.Expr, []ParseError) {
	p := New(source)
	expr := p.parseExpression()
	if p.current().Kind != lexer.TokEOF {
		p.error(fmt.Sprintf("unexpected %s after expression", p.current().Kind))
	}
	return expr, p.errors
}

// ----------------------------------------------------------------------------
// Token Helpers
// ----------------------------------------------------------------------------

func (p *Parser) current() lexer.Token {
	if p.pos >= len(p.tokens) {
		return lexer.Token{Kind: lexer.TokEOF, Start: len(p.source), End: len(p.source)}
	}
	return p.tokens[p.pos]
}

func (p *Parser) peek(offset int) lexer.Token {
	pos := p.pos + offset
	if pos >= len(p.tokens) {
		return lexer.Token{Kind: lexer.TokEOF, Start: len(p.source), End: len(p.source)}
	}
	return p.tokens[pos]
}

func (p *Parser) advance() lexer.Token {
	tok := p.current()
	if p.pos < len(p.tokens) {
		p.pos++
		p.prevEnd = tok.End
	}
	return tok
}

func (p *Parser) expect(kind lexer.TokenKind) (lexer.Token, bool) {
	tok := p.current()
	if tok.Kind != kind {
		p.error(fmt.Sprintf("expected %s, got %s", kind, describe(tok)))
		return tok, false
	}
	p.advance()
	return tok, true
}

func (p *Parser) match(kind lexer.TokenKind) bool {
	if p.current().Kind == kind {
		p.advance()
		return true
	}
	return false
}

func (p *Parser) error(msg string) {
	p.errorAt(p.current().Start, msg)
}

func (p *Parser) errorAt(offset int, msg string) {
	// One report per position; later ones are cascades.
	if n := len(p.errors); n > 0 && p.errors[n-1].Pos == offset {
		return
	}
	line, col := p.lines.Position(offset)
	p.errors = append(p.errors, ParseError{
		Message: msg,
		Pos:     offset,
		Line:    line + 1,
		Column:  col + 1,
	})
}

func describe(tok lexer.Token) string {
	switch tok.Kind {
	case lexer.TokError:
		return tok.Value
	case lexer.TokIdent, lexer.TokIntLiteral, lexer.TokFloatLiteral:
		return fmt.Sprintf("%s %q", tok.Kind, tok.Value)
	}
	return tok.Kind.String()
}

// spanFrom returns the range from start to the end of the last consumed token.
func (p *Parser) spanFrom(start int) ast.Range {
	return ast.Range{Loc: ast.Loc{Start: int32(start)}, Len: int32(p.prevEnd - start)}
}

func loc(tok lexer.Token) ast.Loc {
	return ast.Loc{Start: int32(tok.Start)}
}

// ----------------------------------------------------------------------------
// Translation Unit
// ----------------------------------------------------------------------------

const (
	sectionImports = iota
	sectionDirectives
	sectionDecls
)

func (p *Parser) parseTranslationUnit(module *ast.Module) {
	section := sectionImports

	for p.current().Kind != lexer.TokEOF {
		start := p.pos
		attrs := p.parseAttributes()

		switch kind := p.current().Kind; {
		case kind == lexer.TokImport:
			if section > sectionImports {
				p.error("imports must come before directives and declarations")
			}
			module.Imports = append(module.Imports, p.parseImport(attrs))

		case kind == lexer.TokEnable || kind == lexer.TokRequires ||
			(kind == lexer.TokDiagnostic && p.peek(1).Kind == lexer.TokLParen):
			if section > sectionDirectives {
				p.error("directives must come before declarations")
			}
			section = max(section, sectionDirectives)
			module.Directives = append(module.Directives, p.parseDirective(attrs))

		case kind == lexer.TokSemicolon:
			p.advance()

		default:
			section = sectionDecls
			if decl := p.parseGlobalDecl(attrs); decl != nil {
				module.Declarations = append(module.Declarations, decl)
			}
		}

		if p.pos == start {
			// Error recovery: skip the token nothing could start with.
			p.advance()
		}
	}
}

// ----------------------------------------------------------------------------
// Imports
// ----------------------------------------------------------------------------

// parseImport parses: import path::to::{item, other as alias};
func (p *Parser) parseImport(attrs []ast.Attribute) *ast.ImportDecl {
	tok, _ := p.expect(lexer.TokImport)
	decl := &ast.ImportDecl{Loc: loc(tok), Attributes: attrs}
	decl.Tree = p.parseImportTree()
	p.expect(lexer.TokSemicolon)
	return decl
}

func (p *Parser) parseImportTree() ast.ImportTree {
	var tree ast.ImportTree
	for {
		if p.current().Kind == lexer.TokLBrace {
			tree.Children = p.parseImportCollection()
			return tree
		}
		tok, ok := p.expect(lexer.TokIdent)
		if !ok {
			return tree
		}
		tree.Path = append(tree.Path, tok.Value)
		if !p.match(lexer.TokColonColon) {
			break
		}
	}
	if cur := p.current(); cur.Kind == lexer.TokIdent && cur.Value == "as" {
		p.advance()
		if tok, ok := p.expect(lexer.TokIdent); ok {
			tree.Alias = tok.Value
		}
	}
	return tree
}

func (p *Parser) parseImportCollection() []ast.ImportTree {
	p.expect(lexer.TokLBrace)
	var items []ast.ImportTree
	for p.current().Kind != lexer.TokRBrace && p.current().Kind != lexer.TokEOF {
		start := p.pos
		items = append(items, p.parseImportTree())
		if !p.match(lexer.TokComma) || p.pos == start {
			break
		}
	}
	p.expect(lexer.TokRBrace)
	return items
}

// ----------------------------------------------------------------------------
// Directives
// ----------------------------------------------------------------------------

func (p *Parser) parseDirective(attrs []ast.Attribute) ast.Directive {
	tok := p.advance()
	switch tok.Kind {
	case lexer.TokEnable:
		dir := &ast.EnableDirective{Loc: loc(tok), Attributes: attrs}
		dir.Features = p.parseNameList()
		p.expect(lexer.TokSemicolon)
		return dir

	case lexer.TokRequires:
		dir := &ast.RequiresDirective{Loc: loc(tok), Attributes: attrs}
		dir.Features = p.parseNameList()
		p.expect(lexer.TokSemicolon)
		return dir
	}

	dir := &ast.DiagnosticDirective{Loc: loc(tok), Attributes: attrs}
	p.expect(lexer.TokLParen)
	if t, ok := p.expect(lexer.TokIdent); ok {
		dir.Severity = t.Value
	}
	p.expect(lexer.TokComma)
	dir.Rule = p.parseDottedName()
	p.match(lexer.TokComma)
	p.expect(lexer.TokRParen)
	p.expect(lexer.TokSemicolon)
	return dir
}

func (p *Parser) parseNameList() []string {
	var names []string
	for {
		if tok, ok := p.expect(lexer.TokIdent); ok {
			names = append(names, tok.Value)
		}
		if !p.match(lexer.TokComma) || p.current().Kind == lexer.TokSemicolon {
			return names
		}
	}
}

// parseDottedName parses a diagnostic rule name such as chromium.subgroup_matrix.
func (p *Parser) parseDottedName() string {
	tok, _ := p.expect(lexer.TokIdent)
	name := tok.Value
	for p.current().Kind == lexer.TokDot && p.peek(1).Kind == lexer.TokIdent {
		p.advance()
		name += "." + p.advance().Value
	}
	return name
}

// ----------------------------------------------------------------------------
// Attributes
// ----------------------------------------------------------------------------

func (p *Parser) parseAttributes() []ast.Attribute {
	var attrs []ast.Attribute

	for p.current().Kind == lexer.TokAt {
		at := p.advance()
		attr := ast.Attribute{Loc: loc(at)}

		// @if, @const and @diagnostic are spelled with keywords.
		name := p.current()
		if name.Kind != lexer.TokIdent && !name.Kind.IsKeyword() {
			p.error(fmt.Sprintf("expected attribute name, got %s", describe(name)))
			return attrs
		}
		p.advance()
		attr.Name = name.Value

		if p.match(lexer.TokLParen) {
			attr.Args = p.parseExpressionList(lexer.TokRParen)
			p.expect(lexer.TokRParen)
		}

		spec, _ := lookupAttr(attr.Name)
		attr.Kind = spec.kind
		if spec.max >= 0 && (len(attr.Args) < spec.min || len(attr.Args) > spec.max) {
			p.errorAt(at.Start, arityMessage(attr.Name, spec, len(attr.Args)))
		}

		attrs = append(attrs, attr)
	}

	return attrs
}

func arityMessage(name string, spec attrSpec, got int) string {
	switch {
	case spec.max == 0:
		return fmt.Sprintf("@%s takes no arguments, got %d", name, got)
	case spec.min == spec.max:
		return fmt.Sprintf("@%s expects %d argument(s), got %d", name, spec.min, got)
	}
	return fmt.Sprintf("@%s expects %d to %d arguments, got %d", name, spec.min, spec.max, got)
}

// ----------------------------------------------------------------------------
// Declarations
// ----------------------------------------------------------------------------

func (p *Parser) parseGlobalDecl(attrs []ast.Attribute) ast.Decl {
	switch p.current().Kind {
	case lexer.TokConst, lexer.TokOverride, lexer.TokVar, lexer.TokLet, lexer.TokConstAssert:
		return p.parseVariableDecl(attrs)

	case lexer.TokFn:
		return p.parseFunctionDecl(attrs)

	case lexer.TokStruct:
		return p.parseStructDecl(attrs)

	case lexer.TokAlias:
		return p.parseAliasDecl(attrs)
	}

	p.error(fmt.Sprintf("expected declaration, got %s", describe(p.current())))
	return nil
}

// parseVariableDecl parses the declarations that may also appear as
// statements: const, override, var, let and const_assert. The trailing
// semicolon is consumed.
func (p *Parser) parseVariableDecl(attrs []ast.Attribute) ast.Decl {
	tok := p.advance()

	if tok.Kind == lexer.TokConstAssert {
		decl := &ast.ConstAssertDecl{Loc: loc(tok), Attributes: attrs}
		decl.Expr = p.parseExpression()
		p.expect(lexer.TokSemicolon)
		return decl
	}

	var space ast.AddressSpace
	var access ast.AccessMode
	if tok.Kind == lexer.TokVar && p.match(lexer.TokTemplateArgsStart) {
		space = p.parseAddressSpace()
		if p.match(lexer.TokComma) {
			access = p.parseAccessMode()
		}
		p.expect(lexer.TokTemplateArgsEnd)
	}

	name, _ := p.expect(lexer.TokIdent)
	var typ *ast.TypeExpr
	if p.match(lexer.TokColon) {
		typ = p.parseType()
	}
	var init ast.Expr
	if p.match(lexer.TokEq) {
		init = p.parseExpression()
	} else if tok.Kind == lexer.TokConst || tok.Kind == lexer.TokLet {
		p.error(fmt.Sprintf("expected initializer for '%s'", name.Value))
	}
	p.expect(lexer.TokSemicolon)

	switch tok.Kind {
	case lexer.TokConst:
		return &ast.ConstDecl{Loc: loc(tok), Attributes: attrs, Name: name.Value, Type: typ, Initializer: init}
	case lexer.TokOverride:
		return &ast.OverrideDecl{Loc: loc(tok), Attributes: attrs, Name: name.Value, Type: typ, Initializer: init}
	case lexer.TokLet:
		return &ast.LetDecl{Loc: loc(tok), Attributes: attrs, Name: name.Value, Type: typ, Initializer: init}
	}
	return &ast.VarDecl{
		Loc:          loc(tok),
		Attributes:   attrs,
		AddressSpace: space,
		AccessMode:   access,
		Name:         name.Value,
		Type:         typ,
		Initializer:  init,
	}
}

func (p *Parser) parseFunctionDecl(attrs []ast.Attribute) *ast.FunctionDecl {
	tok, _ := p.expect(lexer.TokFn)
	decl := &ast.FunctionDecl{Loc: loc(tok), Attributes: attrs}

	if name, ok := p.expect(lexer.TokIdent); ok {
		decl.Name = name.Value
	}

	p.expect(lexer.TokLParen)
	for p.current().Kind != lexer.TokRParen && p.current().Kind != lexer.TokEOF {
		start := p.pos
		decl.Parameters = append(decl.Parameters, p.parseParameter())
		if !p.match(lexer.TokComma) || p.pos == start {
			break
		}
	}
	p.expect(lexer.TokRParen)

	if p.match(lexer.TokArrow) {
		decl.ReturnAttr = p.parseAttributes()
		decl.ReturnType = p.parseType()
	}

	decl.Body = p.parseCompoundStmt(nil)
	return decl
}

func (p *Parser) parseParameter() *ast.Parameter {
	param := &ast.Parameter{Loc: loc(p.current())}
	param.Attributes = p.parseAttributes()
	if tok, ok := p.expect(lexer.TokIdent); ok {
		param.Name = tok.Value
	}
	p.expect(lexer.TokColon)
	param.Type = p.parseType()
	return param
}

func (p *Parser) parseStructDecl(attrs []ast.Attribute) *ast.StructDecl {
	tok, _ := p.expect(lexer.TokStruct)
	decl := &ast.StructDecl{Loc: loc(tok), Attributes: attrs}

	if name, ok := p.expect(lexer.TokIdent); ok {
		decl.Name = name.Value
	}

	p.expect(lexer.TokLBrace)
	for p.current().Kind != lexer.TokRBrace && p.current().Kind != lexer.TokEOF {
		start := p.pos
		member := &ast.StructMember{Loc: loc(p.current())}
		member.Attributes = p.parseAttributes()
		if name, ok := p.expect(lexer.TokIdent); ok {
			member.Name = name.Value
		}
		p.expect(lexer.TokColon)
		member.Type = p.parseType()
		decl.Members = append(decl.Members, member)

		if !p.match(lexer.TokComma) && p.current().Kind != lexer.TokRBrace {
			p.error("expected ',' between struct members")
		}
		if p.pos == start {
			p.advance()
		}
	}
	p.expect(lexer.TokRBrace)
	p.match(lexer.TokSemicolon)
	return decl
}

func (p *Parser) parseAliasDecl(attrs []ast.Attribute) *ast.AliasDecl {
	tok, _ := p.expect(lexer.TokAlias)
	decl := &ast.AliasDecl{Loc: loc(tok), Attributes: attrs}

	if name, ok := p.expect(lexer.TokIdent); ok {
		decl.Name = name.Value
	}
	p.expect(lexer.TokEq)
	decl.Type = p.parseType()
	p.expect(lexer.TokSemicolon)
	return decl
}

// ----------------------------------------------------------------------------
// Types
// ----------------------------------------------------------------------------

// parseType parses a type: a possibly qualified name with an optional
// template list, such as f32, array<vec3f, 4> or util::Light.
func (p *Parser) parseType() *ast.TypeExpr {
	tok := p.current()
	if tok.Kind != lexer.TokIdent {
		p.error(fmt.Sprintf("expected type, got %s", describe(tok)))
		return &ast.TypeExpr{Range: ast.Range{Loc: loc(tok)}, Name: "<error>"}
	}
	return p.parseIdent()
}

// parseIdent parses name[::name]*[<template args>].
func (p *Parser) parseIdent() *ast.IdentExpr {
	tok := p.advance()
	name := tok.Value
	for p.current().Kind == lexer.TokColonColon && p.peek(1).Kind == lexer.TokIdent {
		p.advance()
		name += "::" + p.advance().Value
	}

	ident := &ast.IdentExpr{Name: name}
	if p.match(lexer.TokTemplateArgsStart) {
		ident.TemplateArgs = p.parseExpressionList(lexer.TokTemplateArgsEnd)
		if len(ident.TemplateArgs) == 0 {
			p.error("expected template arguments")
		}
		p.expect(lexer.TokTemplateArgsEnd)
	}
	ident.Range = p.spanFrom(tok.Start)
	return ident
}

func (p *Parser) parseAddressSpace() ast.AddressSpace {
	tok, ok := p.expect(lexer.TokIdent)
	if !ok {
		return ast.AddressSpaceNone
	}
	space, ok := ast.ParseAddressSpace(tok.Value)
	if !ok {
		p.errorAt(tok.Start, fmt.Sprintf("unknown address space '%s'", tok.Value))
	}
	return space
}

func (p *Parser) parseAccessMode() ast.AccessMode {
	tok, ok := p.expect(lexer.TokIdent)
	if !ok {
		return ast.AccessModeNone
	}
	mode, ok := ast.ParseAccessMode(tok.Value)
	if !ok {
		p.errorAt(tok.Start, fmt.Sprintf("unknown access mode '%s'", tok.Value))
	}
	return mode
}

// ----------------------------------------------------------------------------
// Expressions
// ----------------------------------------------------------------------------

type binaryInfo struct {
	op   ast.BinaryOp
	prec int
}

// binaryOps maps operator tokens to their operator and precedence. Higher
// binds tighter.
var binaryOps = map[lexer.TokenKind]binaryInfo{
	lexer.TokPipePipe: {ast.BinOpLogicalOr, 1},
	lexer.TokAmpAmp:   {ast.BinOpLogicalAnd, 2},
	lexer.TokPipe:     {ast.BinOpOr, 3},
	lexer.TokCaret:    {ast.BinOpXor, 4},
	lexer.TokAmp:      {ast.BinOpAnd, 5},
	lexer.TokEqEq:     {ast.BinOpEq, 6},
	lexer.TokBangEq:   {ast.BinOpNe, 6},
	lexer.TokLt:       {ast.BinOpLt, 7},
	lexer.TokLtEq:     {ast.BinOpLe, 7},
	lexer.TokGt:       {ast.BinOpGt, 7},
	lexer.TokGtEq:     {ast.BinOpGe, 7},
	lexer.TokLtLt:     {ast.BinOpShl, 8},
	lexer.TokGtGt:     {ast.BinOpShr, 8},
	lexer.TokPlus:     {ast.BinOpAdd, 9},
	lexer.TokMinus:    {ast.BinOpSub, 9},
	lexer.TokStar:     {ast.BinOpMul, 10},
	lexer.TokSlash:    {ast.BinOpDiv, 10},
	lexer.TokPercent:  {ast.BinOpMod, 10},
}

var unaryOps = map[lexer.TokenKind]ast.UnaryOp{
	lexer.TokMinus: ast.UnaryOpNeg,
	lexer.TokBang:  ast.UnaryOpNot,
	lexer.TokTilde: ast.UnaryOpBitNot,
	lexer.TokStar:  ast.UnaryOpDeref,
	lexer.TokAmp:   ast.UnaryOpAddr,
}

func (p *Parser) parseExpression() ast.Expr {
	return p.parseBinaryExpr(1)
}

// parseBinaryExpr parses left-associative binary operators of at least
// the given precedence.
func (p *Parser) parseBinaryExpr(minPrec int) ast.Expr {
	left := p.parseUnaryExpr()

	for {
		info, ok := binaryOps[p.current().Kind]
		if !ok || info.prec < minPrec || left == nil {
			return left
		}
		p.advance()
		right := p.parseBinaryExpr(info.prec + 1)
		if right == nil {
			return left
		}
		left = &ast.BinaryExpr{
			Range: ast.RangeBetween(left.Span(), right.Span()),
			Op:    info.op,
			Left:  left,
			Right: right,
		}
	}
}

func (p *Parser) parseUnaryExpr() ast.Expr {
	tok := p.current()
	if op, ok := unaryOps[tok.Kind]; ok {
		p.advance()
		operand := p.parseUnaryExpr()
		if operand == nil {
			return nil
		}
		return &ast.UnaryExpr{Range: p.spanFrom(tok.Start), Op: op, Operand: operand}
	}

	return p.parsePostfixExpr()
}

func (p *Parser) parsePostfixExpr() ast.Expr {
	left := p.parsePrimaryExpr()
	if left == nil {
		return nil
	}
	start := int(left.Span().Loc.Start)

	for {
		switch p.current().Kind {
		case lexer.TokDot:
			p.advance()
			if tok, ok := p.expect(lexer.TokIdent); ok {
				left = &ast.MemberExpr{Range: p.spanFrom(start), Base: left, Member: tok.Value}
			}

		case lexer.TokLBracket:
			p.advance()
			index := p.parseExpression()
			p.expect(lexer.TokRBracket)
			left = &ast.IndexExpr{Range: p.spanFrom(start), Base: left, Index: index}

		default:
			return left
		}
	}
}

func (p *Parser) parsePrimaryExpr() ast.Expr {
	tok := p.current()

	switch tok.Kind {
	case lexer.TokIntLiteral, lexer.TokFloatLiteral, lexer.TokTrue, lexer.TokFalse:
		p.advance()
		return &ast.LiteralExpr{Range: p.spanFrom(tok.Start), Kind: tok.Kind, Value: tok.Value}

	case lexer.TokIdent:
		ident := p.parseIdent()
		if p.current().Kind != lexer.TokLParen {
			return ident
		}
		p.advance()
		args := p.parseExpressionList(lexer.TokRParen)
		p.expect(lexer.TokRParen)
		return &ast.CallExpr{Range: p.spanFrom(tok.Start), Func: ident, Args: args}

	case lexer.TokUnderscore:
		p.advance()
		return &ast.IdentExpr{Range: p.spanFrom(tok.Start), Name: "_"}

	case lexer.TokLParen:
		p.advance()
		inner := p.parseExpression()
		p.expect(lexer.TokRParen)
		if inner == nil {
			return nil
		}
		return &ast.ParenExpr{Range: p.spanFrom(tok.Start), Expr: inner}
	}

	p.error(fmt.Sprintf("expected expression, got %s", describe(tok)))
	if tok.Kind != lexer.TokEOF {
		p.advance()
	}
	return nil
}

// parseExpressionList parses comma-separated expressions up to (not
// including) the closing token. A trailing comma is allowed.
func (p *Parser) parseExpressionList(closing lexer.TokenKind) []ast.Expr {
	var exprs []ast.Expr
	for p.current().Kind != closing && p.current().Kind != lexer.TokEOF {
		if e := p.parseExpression(); e != nil {
			exprs = append(exprs, e)
		}
		if !p.match(lexer.TokComma) {
			break
		}
	}
	return exprs
}

// ----------------------------------------------------------------------------
// Statements
// ----------------------------------------------------------------------------

var assignOps = map[lexer.TokenKind]ast.AssignOp{
	lexer.TokEq:        ast.AssignOpSimple,
	lexer.TokPlusEq:    ast.AssignOpAdd,
	lexer.TokMinusEq:   ast.AssignOpSub,
	lexer.TokStarEq:    ast.AssignOpMul,
	lexer.TokSlashEq:   ast.AssignOpDiv,
	lexer.TokPercentEq: ast.AssignOpMod,
	lexer.TokAmpEq:     ast.AssignOpAnd,
	lexer.TokPipeEq:    ast.AssignOpOr,
	lexer.TokCaretEq:   ast.AssignOpXor,
	lexer.TokLtLtEq:    ast.AssignOpShl,
	lexer.TokGtGtEq:    ast.AssignOpShr,
}

// parseStatement parses one statement with its leading attributes. It
// returns nil for an empty statement.
func (p *Parser) parseStatement() ast.Stmt {
	return p.parseStatementWith(p.parseAttributes())
}

func (p *Parser) parseStatementWith(attrs []ast.Attribute) ast.Stmt {
	tok := p.current()
	var stmt ast.Stmt

	switch tok.Kind {
	case lexer.TokSemicolon:
		p.advance()
		if len(attrs) > 0 {
			p.errorAt(tok.Start, "attributes on an empty statement")
		}
		return nil

	case lexer.TokLBrace:
		return p.parseCompoundStmt(attrs)

	case lexer.TokReturn:
		p.advance()
		s := &ast.ReturnStmt{Loc: loc(tok)}
		if p.current().Kind != lexer.TokSemicolon {
			s.Value = p.parseExpression()
		}
		p.expect(lexer.TokSemicolon)
		stmt = s

	case lexer.TokIf:
		stmt = p.parseIfStmt()

	case lexer.TokSwitch:
		stmt = p.parseSwitchStmt()

	case lexer.TokFor:
		stmt = p.parseForStmt()

	case lexer.TokWhile:
		p.advance()
		s := &ast.WhileStmt{Loc: loc(tok)}
		s.Condition = p.parseExpression()
		s.Body = p.parseCompoundStmt(nil)
		stmt = s

	case lexer.TokLoop:
		stmt = p.parseLoopStmt()

	case lexer.TokBreak:
		p.advance()
		if p.current().Kind == lexer.TokIf {
			p.error("break if is only allowed at the end of a continuing block")
		}
		p.expect(lexer.TokSemicolon)
		stmt = &ast.BreakStmt{Loc: loc(tok)}

	case lexer.TokContinue:
		p.advance()
		p.expect(lexer.TokSemicolon)
		stmt = &ast.ContinueStmt{Loc: loc(tok)}

	case lexer.TokDiscard:
		p.advance()
		p.expect(lexer.TokSemicolon)
		stmt = &ast.DiscardStmt{Loc: loc(tok)}

	case lexer.TokConst, lexer.TokLet, lexer.TokVar, lexer.TokConstAssert:
		return &ast.DeclStmt{Decl: p.parseVariableDecl(attrs)}

	default:
		stmt = p.parseSimpleStmt()
		if stmt != nil {
			p.expect(lexer.TokSemicolon)
		}
	}

	if stmt != nil {
		*stmt.Attrs() = attrs
	}
	return stmt
}

// parseSimpleStmt parses an assignment, increment, decrement or call
// without the trailing semicolon. These are the statements allowed in a
// for-loop header.
func (p *Parser) parseSimpleStmt() ast.Stmt {
	start := p.current()
	left := p.parseExpression()
	if left == nil {
		return nil
	}

	cur := p.current()
	if op, ok := assignOps[cur.Kind]; ok {
		p.advance()
		right := p.parseExpression()
		return &ast.AssignStmt{Loc: loc(start), Op: op, Left: left, Right: right}
	}

	switch cur.Kind {
	case lexer.TokPlusPlus, lexer.TokMinusMinus:
		p.advance()
		return &ast.IncrDecrStmt{Loc: loc(start), Expr: left, Increment: cur.Kind == lexer.TokPlusPlus}
	}

	if call, ok := left.(*ast.CallExpr); ok {
		return &ast.CallStmt{Loc: loc(start), Call: call}
	}

	p.errorAt(start.Start, "expected assignment, increment, decrement or call")
	return nil
}

// parseCompoundStmt parses { stmts }. attrs are the block's own attributes.
func (p *Parser) parseCompoundStmt(attrs []ast.Attribute) *ast.CompoundStmt {
	tok, _ := p.expect(lexer.TokLBrace)
	block := &ast.CompoundStmt{Loc: loc(tok), Attributes: attrs}

	for p.current().Kind != lexer.TokRBrace && p.current().Kind != lexer.TokEOF {
		start := p.pos
		if s := p.parseStatement(); s != nil {
			block.Stmts = append(block.Stmts, s)
		}
		if p.pos == start {
			p.advance()
		}
	}

	p.expect(lexer.TokRBrace)
	return block
}

func (p *Parser) parseIfStmt() *ast.IfStmt {
	tok, _ := p.expect(lexer.TokIf)
	stmt := &ast.IfStmt{Loc: loc(tok)}
	stmt.Condition = p.parseExpression()
	stmt.Body = p.parseCompoundStmt(nil)

	if p.match(lexer.TokElse) {
		if p.current().Kind == lexer.TokIf {
			stmt.Else = p.parseIfStmt()
		} else {
			stmt.Else = p.parseCompoundStmt(nil)
		}
	}
	return stmt
}

func (p *Parser) parseSwitchStmt() *ast.SwitchStmt {
	tok, _ := p.expect(lexer.TokSwitch)
	stmt := &ast.SwitchStmt{Loc: loc(tok)}
	stmt.Expr = p.parseExpression()
	p.expect(lexer.TokLBrace)

	for p.current().Kind != lexer.TokRBrace && p.current().Kind != lexer.TokEOF {
		start := p.pos
		clause := &ast.SwitchCase{Loc: loc(p.current())}
		clause.Attributes = p.parseAttributes()

		switch {
		case p.match(lexer.TokDefault):
			clause.Default = true
		case p.match(lexer.TokCase):
			clause.Selectors = p.parseCaseSelectors()
		default:
			p.error(fmt.Sprintf("expected case or default, got %s", describe(p.current())))
		}

		p.match(lexer.TokColon)
		clause.Body = p.parseCompoundStmt(nil)
		stmt.Cases = append(stmt.Cases, clause)
		if p.pos == start {
			p.advance()
		}
	}

	p.expect(lexer.TokRBrace)
	return stmt
}

// parseCaseSelectors parses expr-or-default (, expr-or-default)*. A default
// selector is recorded as a nil entry.
func (p *Parser) parseCaseSelectors() []ast.Expr {
	var selectors []ast.Expr
	for {
		if p.match(lexer.TokDefault) {
			selectors = append(selectors, nil)
		} else {
			selectors = append(selectors, p.parseExpression())
		}
		if !p.match(lexer.TokComma) {
			return selectors
		}
		if k := p.current().Kind; k == lexer.TokColon || k == lexer.TokLBrace {
			return selectors
		}
	}
}

func (p *Parser) parseForStmt() *ast.ForStmt {
	tok, _ := p.expect(lexer.TokFor)
	p.expect(lexer.TokLParen)
	stmt := &ast.ForStmt{Loc: loc(tok)}

	// The initializer's own semicolon separates it from the condition.
	attrs := p.parseAttributes()
	switch p.current().Kind {
	case lexer.TokSemicolon:
		p.advance()
	case lexer.TokVar, lexer.TokLet, lexer.TokConst:
		stmt.Init = &ast.DeclStmt{Decl: p.parseVariableDecl(attrs)}
	default:
		if init := p.parseSimpleStmt(); init != nil {
			*init.Attrs() = attrs
			stmt.Init = init
		}
		p.expect(lexer.TokSemicolon)
	}

	if p.current().Kind != lexer.TokSemicolon {
		stmt.Condition = p.parseExpression()
	}
	p.expect(lexer.TokSemicolon)

	attrs = p.parseAttributes()
	if p.current().Kind != lexer.TokRParen {
		if update := p.parseSimpleStmt(); update != nil {
			*update.Attrs() = attrs
			stmt.Update = update
		}
	}

	p.expect(lexer.TokRParen)
	stmt.Body = p.parseCompoundStmt(nil)
	return stmt
}

// parseLoopStmt parses loop { stmts [continuing { stmts [break if e;] }] }.
func (p *Parser) parseLoopStmt() *ast.LoopStmt {
	tok, _ := p.expect(lexer.TokLoop)
	open, _ := p.expect(lexer.TokLBrace)
	stmt := &ast.LoopStmt{Loc: loc(tok), Body: &ast.CompoundStmt{Loc: loc(open)}}

	for p.current().Kind != lexer.TokRBrace && p.current().Kind != lexer.TokEOF {
		start := p.pos
		attrs := p.parseAttributes()
		if p.current().Kind == lexer.TokContinuing {
			stmt.Continuing = p.parseContinuing(attrs)
			break
		}
		if s := p.parseStatementWith(attrs); s != nil {
			stmt.Body.Stmts = append(stmt.Body.Stmts, s)
		}
		if p.pos == start {
			p.advance()
		}
	}

	p.expect(lexer.TokRBrace)
	return stmt
}

func (p *Parser) parseContinuing(attrs []ast.Attribute) *ast.ContinuingStmt {
	tok, _ := p.expect(lexer.TokContinuing)
	cont := &ast.ContinuingStmt{Loc: loc(tok), Attributes: attrs}
	p.expect(lexer.TokLBrace)

	for p.current().Kind != lexer.TokRBrace && p.current().Kind != lexer.TokEOF {
		start := p.pos
		attrs := p.parseAttributes()
		if p.current().Kind == lexer.TokBreak && p.peek(1).Kind == lexer.TokIf {
			brk := p.advance()
			p.advance()
			cont.BreakIf = &ast.BreakIfStmt{Loc: loc(brk), Attributes: attrs}
			cont.BreakIf.Condition = p.parseExpression()
			p.expect(lexer.TokSemicolon)
			if p.current().Kind != lexer.TokRBrace {
				p.error("break if must be the last statement of a continuing block")
			}
			break
		}
		if s := p.parseStatementWith(attrs); s != nil {
			cont.Stmts = append(cont.Stmts, s)
		}
		if p.pos == start {
			p.advance()
		}
	}

	p.expect(lexer.TokRBrace)
	return cont
}
