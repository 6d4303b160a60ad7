// Package lexer provides tokenization for WESL source code.
//
// The lexer converts a source string into a sequence of tokens. It handles
// keywords, identifiers (including Unicode XID), numeric literals, operators,
// nested block comments and WGSL template-list discovery, so that the parser
// sees '<' and '>' delimiting template arguments as distinct token kinds.
package lexer

import (
	"unicode"
	"unicode/utf8"
)

// ----------------------------------------------------------------------------
// Token Types
// ----------------------------------------------------------------------------

// TokenKind represents the type of a token.
type TokenKind uint8

const (
	TokError TokenKind = iota
	TokEOF

	// Literals
	TokIntLiteral
	TokFloatLiteral
	TokTrue
	TokFalse

	// Identifiers
	TokIdent

	// Keywords
	TokAlias
	TokBreak
	TokCase
	TokConst
	TokConstAssert
	TokContinue
	TokContinuing
	TokDefault
	TokDiagnostic
	TokDiscard
	TokElse
	TokEnable
	TokFn
	TokFor
	TokIf
	TokImport
	TokLet
	TokLoop
	TokOverride
	TokRequires
	TokReturn
	TokStruct
	TokSwitch
	TokVar
	TokWhile

	// Operators
	TokPlus    // +
	TokMinus   // -
	TokStar    // *
	TokSlash   // /
	TokPercent // %
	TokAmp     // &
	TokPipe    // |
	TokCaret   // ^
	TokTilde   // ~
	TokBang    // !
	TokLt      // <
	TokGt      // >
	TokEq      // =
	TokDot     // .
	TokAt      // @

	// Multi-char operators
	TokPlusPlus   // ++
	TokMinusMinus // --
	TokAmpAmp     // &&
	TokPipePipe   // ||
	TokLtLt       // <<
	TokGtGt       // >>
	TokLtEq       // <=
	TokGtEq       // >=
	TokEqEq       // ==
	TokBangEq     // !=
	TokArrow      // ->
	TokPlusEq     // +=
	TokMinusEq    // -=
	TokStarEq     // *=
	TokSlashEq    // /=
	TokPercentEq  // %=
	TokAmpEq      // &=
	TokPipeEq     // |=
	TokCaretEq    // ^=
	TokLtLtEq     // <<=
	TokGtGtEq     // >>=
	TokColonColon // ::

	// Delimiters
	TokLParen     // (
	TokRParen     // )
	TokLBrace     // {
	TokRBrace     // }
	TokLBracket   // [
	TokRBracket   // ]
	TokSemicolon  // ;
	TokColon      // :
	TokComma      // ,
	TokUnderscore // _ (as placeholder expression)

	// Template delimiters, produced by template-list discovery
	TokTemplateArgsStart // < opening a template list
	TokTemplateArgsEnd   // > closing a template list
)

// String returns the string representation of a token kind.
func (k TokenKind) String() string {
	if int(k) < len(tokenNames) && tokenNames[k] != "" {
		return tokenNames[k]
	}
	return "unknown"
}

var tokenNames = [...]string{
	TokError:        "error",
	TokEOF:          "EOF",
	TokIntLiteral:   "int",
	TokFloatLiteral: "float",
	TokTrue:         "true",
	TokFalse:        "false",
	TokIdent:        "identifier",

	TokAlias:       "alias",
	TokBreak:       "break",
	TokCase:        "case",
	TokConst:       "const",
	TokConstAssert: "const_assert",
	TokContinue:    "continue",
	TokContinuing:  "continuing",
	TokDefault:     "default",
	TokDiagnostic:  "diagnostic",
	TokDiscard:     "discard",
	TokElse:        "else",
	TokEnable:      "enable",
	TokFn:          "fn",
	TokFor:         "for",
	TokIf:          "if",
	TokImport:      "import",
	TokLet:         "let",
	TokLoop:        "loop",
	TokOverride:    "override",
	TokRequires:    "requires",
	TokReturn:      "return",
	TokStruct:      "struct",
	TokSwitch:      "switch",
	TokVar:         "var",
	TokWhile:       "while",

	TokPlus:              "+",
	TokMinus:             "-",
	TokStar:              "*",
	TokSlash:             "/",
	TokPercent:           "%",
	TokAmp:               "&",
	TokPipe:              "|",
	TokCaret:             "^",
	TokTilde:             "~",
	TokBang:              "!",
	TokLt:                "<",
	TokGt:                ">",
	TokEq:                "=",
	TokDot:               ".",
	TokAt:                "@",
	TokPlusPlus:          "++",
	TokMinusMinus:        "--",
	TokAmpAmp:            "&&",
	TokPipePipe:          "||",
	TokLtLt:              "<<",
	TokGtGt:              ">>",
	TokLtEq:              "<=",
	TokGtEq:              ">=",
	TokEqEq:              "==",
	TokBangEq:            "!=",
	TokArrow:             "->",
	TokPlusEq:            "+=",
	TokMinusEq:           "-=",
	TokStarEq:            "*=",
	TokSlashEq:           "/=",
	TokPercentEq:         "%=",
	TokAmpEq:             "&=",
	TokPipeEq:            "|=",
	TokCaretEq:           "^=",
	TokLtLtEq:            "<<=",
	TokGtGtEq:            ">>=",
	TokColonColon:        "::",
	TokLParen:            "(",
	TokRParen:            ")",
	TokLBrace:            "{",
	TokRBrace:            "}",
	TokLBracket:          "[",
	TokRBracket:          "]",
	TokSemicolon:         ";",
	TokColon:             ":",
	TokComma:             ",",
	TokUnderscore:        "_",
	TokTemplateArgsStart: "<template",
	TokTemplateArgsEnd:   "template>",
}

// IsKeyword reports whether k is a keyword token. Attribute names such as
// @if or @const are spelled with keywords.
func (k TokenKind) IsKeyword() bool {
	return k >= TokAlias && k <= TokWhile
}

// ----------------------------------------------------------------------------
// Token
// ----------------------------------------------------------------------------

// Token represents a lexical token.
type Token struct {
	Kind  TokenKind
	Start int    // Byte offset in source
	End   int    // Byte offset of end (exclusive)
	Value string // For identifiers, keywords and literals
}

// Text returns the source text of the token.
func (t Token) Text(source string) string {
	if t.Start >= 0 && t.End <= len(source) && t.Start <= t.End {
		return source[t.Start:t.End]
	}
	return ""
}

// ----------------------------------------------------------------------------
// Keywords
// ----------------------------------------------------------------------------

// Keywords maps keyword strings to their token kinds.
var Keywords = map[string]TokenKind{
	"alias":        TokAlias,
	"break":        TokBreak,
	"case":         TokCase,
	"const":        TokConst,
	"const_assert": TokConstAssert,
	"continue":     TokContinue,
	"continuing":   TokContinuing,
	"default":      TokDefault,
	"diagnostic":   TokDiagnostic,
	"discard":      TokDiscard,
	"else":         TokElse,
	"enable":       TokEnable,
	"false":        TokFalse,
	"fn":           TokFn,
	"for":          TokFor,
	"if":           TokIf,
	"import":       TokImport,
	"let":          TokLet,
	"loop":         TokLoop,
	"override":     TokOverride,
	"requires":     TokRequires,
	"return":       TokReturn,
	"struct":       TokStruct,
	"switch":       TokSwitch,
	"true":         TokTrue,
	"var":          TokVar,
	"while":        TokWhile,
}

// ReservedWords contains the WGSL reserved words that cannot be used as
// identifiers. WESL frees "as", "package" and "super" for import paths.
var ReservedWords = map[string]bool{
	"NULL": true, "Self": true, "abstract": true, "active": true,
	"alignas": true, "alignof": true, "asm": true,
	"asm_fragment": true, "async": true, "attribute": true, "auto": true,
	"await": true, "become": true, "cast": true, "catch": true,
	"class": true, "co_await": true, "co_return": true, "co_yield": true,
	"coherent": true, "column_major": true, "common": true, "compile": true,
	"compile_fragment": true, "concept": true, "const_cast": true,
	"consteval": true, "constexpr": true, "constinit": true, "crate": true,
	"debugger": true, "decltype": true, "delete": true, "demote": true,
	"demote_to_helper": true, "do": true, "dynamic_cast": true, "enum": true,
	"explicit": true, "export": true, "extends": true, "extern": true,
	"external": true, "fallthrough": true, "filter": true, "final": true,
	"finally": true, "friend": true, "from": true, "fxgroup": true,
	"get": true, "goto": true, "groupshared": true, "highp": true,
	"impl": true, "implements": true, "inline": true,
	"instanceof": true, "interface": true, "layout": true, "lowp": true,
	"macro": true, "macro_rules": true, "match": true, "mediump": true,
	"meta": true, "mod": true, "module": true, "move": true, "mut": true,
	"mutable": true, "namespace": true, "new": true, "nil": true,
	"noexcept": true, "noinline": true, "nointerpolation": true,
	"non_coherent": true, "noncoherent": true, "noperspective": true,
	"null": true, "nullptr": true, "of": true, "operator": true,
	"packoffset": true, "partition": true, "pass": true,
	"patch": true, "pixelfragment": true, "precise": true, "precision": true,
	"premerge": true, "priv": true, "protected": true, "pub": true,
	"public": true, "readonly": true, "ref": true, "regardless": true,
	"register": true, "reinterpret_cast": true, "require": true,
	"resource": true, "restrict": true, "self": true, "set": true,
	"shared": true, "sizeof": true, "smooth": true, "snorm": true,
	"static": true, "static_assert": true, "static_cast": true, "std": true,
	"subroutine": true, "target": true, "template": true,
	"this": true, "thread_local": true, "throw": true, "trait": true,
	"try": true, "type": true, "typedef": true, "typeid": true,
	"typename": true, "typeof": true, "union": true, "unless": true,
	"unorm": true, "unsafe": true, "unsized": true, "use": true,
	"using": true, "varying": true, "virtual": true, "volatile": true,
	"wgsl": true, "where": true, "with": true, "writeonly": true,
	"yield": true,
}

// ----------------------------------------------------------------------------
// Lexer
// ----------------------------------------------------------------------------

// Lexer tokenizes WESL source code.
type Lexer struct {
	source string
	pos    int
}

// New creates a new lexer for the given source.
func New(source string) *Lexer {
	return &Lexer{source: source}
}

// Tokenize returns all tokens in the source, ending with TokEOF or at the
// first TokError. Template lists are already resolved in the result.
func (l *Lexer) Tokenize() []Token {
	tokens := make([]Token, 0, len(l.source)/4)
	for {
		tok := l.Next()
		tokens = append(tokens, tok)
		if tok.Kind == TokEOF || tok.Kind == TokError {
			break
		}
	}
	return DiscoverTemplates(tokens)
}

// Next returns the next raw token. Template-list discovery needs lookahead
// and only happens in Tokenize.
func (l *Lexer) Next() Token {
	l.skipTrivia()

	if l.pos >= len(l.source) {
		return Token{Kind: TokEOF, Start: l.pos, End: l.pos}
	}

	ch := l.source[l.pos]
	switch {
	case ch < utf8.RuneSelf && asciiIdentStart[ch]:
		return l.scanIdentOrKeyword()
	case ch >= utf8.RuneSelf:
		r, _ := utf8.DecodeRuneInString(l.source[l.pos:])
		if isIdentStartSlow(r) {
			return l.scanIdentOrKeyword()
		}
		return l.errorToken(l.pos, l.pos+utf8.RuneLen(r), "unexpected character")
	case isDigit(ch) || (ch == '.' && l.pos+1 < len(l.source) && isDigit(l.source[l.pos+1])):
		return l.scanNumber()
	}
	return l.scanOperator()
}

func (l *Lexer) errorToken(start, end int, msg string) Token {
	if end > len(l.source) {
		end = len(l.source)
	}
	l.pos = end
	return Token{Kind: TokError, Start: start, End: end, Value: msg}
}

// ----------------------------------------------------------------------------
// Scanning Helpers
// ----------------------------------------------------------------------------

func (l *Lexer) skipTrivia() {
	for l.pos < len(l.source) {
		ch := l.source[l.pos]
		switch {
		case ch < utf8.RuneSelf && asciiWhitespace[ch]:
			l.pos++
		case ch == '/' && l.peekByte(1) == '/':
			for l.pos < len(l.source) && l.source[l.pos] != '\n' {
				l.pos++
			}
		case ch == '/' && l.peekByte(1) == '*':
			l.pos += 2
			for depth := 1; depth > 0 && l.pos < len(l.source); {
				switch {
				case l.source[l.pos] == '/' && l.peekByte(1) == '*':
					depth++
					l.pos += 2
				case l.source[l.pos] == '*' && l.peekByte(1) == '/':
					depth--
					l.pos += 2
				default:
					l.pos++
				}
			}
		default:
			return
		}
	}
}

func (l *Lexer) peekByte(offset int) byte {
	if l.pos+offset < len(l.source) {
		return l.source[l.pos+offset]
	}
	return 0
}

func (l *Lexer) scanIdentOrKeyword() Token {
	start := l.pos

	for l.pos < len(l.source) {
		ch := l.source[l.pos]
		if ch < utf8.RuneSelf {
			if !asciiIdentContinue[ch] {
				break
			}
			l.pos++
			continue
		}
		r, size := utf8.DecodeRuneInString(l.source[l.pos:])
		if !isIdentContinueSlow(r) {
			break
		}
		l.pos += size
	}

	text := l.source[start:l.pos]
	if kind, ok := Keywords[text]; ok {
		return Token{Kind: kind, Start: start, End: l.pos, Value: text}
	}
	switch {
	case text == "_":
		return Token{Kind: TokUnderscore, Start: start, End: l.pos, Value: text}
	case ReservedWords[text]:
		return Token{Kind: TokError, Start: start, End: l.pos, Value: "reserved word: " + text}
	case len(text) >= 2 && text[0] == '_' && text[1] == '_':
		return Token{Kind: TokError, Start: start, End: l.pos, Value: "identifier cannot start with __"}
	}
	return Token{Kind: TokIdent, Start: start, End: l.pos, Value: text}
}

func (l *Lexer) scanDigits(accept func(byte) bool) {
	for l.pos < len(l.source) && accept(l.source[l.pos]) {
		l.pos++
	}
}

func (l *Lexer) scanExponent(markers string) bool {
	if l.pos >= len(l.source) || (l.source[l.pos] != markers[0] && l.source[l.pos] != markers[1]) {
		return false
	}
	l.pos++
	if c := l.peekByte(0); c == '+' || c == '-' {
		l.pos++
	}
	l.scanDigits(isDigit)
	return true
}

func (l *Lexer) scanNumber() Token {
	start := l.pos
	kind := TokIntLiteral

	if l.source[l.pos] == '0' && (l.peekByte(1) == 'x' || l.peekByte(1) == 'X') {
		l.pos += 2
		l.scanDigits(isHexDigit)
		if l.peekByte(0) == '.' {
			kind = TokFloatLiteral
			l.pos++
			l.scanDigits(isHexDigit)
		}
		if l.scanExponent("pP") {
			kind = TokFloatLiteral
		}
	} else {
		l.scanDigits(isDigit)
		if l.peekByte(0) == '.' {
			// "1.x" is a member access on an integer, "1." is a float.
			next := l.peekByte(1)
			if !(next < utf8.RuneSelf && asciiIdentStart[next]) {
				kind = TokFloatLiteral
				l.pos++
				l.scanDigits(isDigit)
			}
		}
		if l.scanExponent("eE") {
			kind = TokFloatLiteral
		}
	}

	switch l.peekByte(0) {
	case 'i', 'u':
		if kind == TokIntLiteral {
			l.pos++
		}
	case 'f', 'h':
		kind = TokFloatLiteral
		l.pos++
	}

	return Token{Kind: kind, Start: start, End: l.pos, Value: l.source[start:l.pos]}
}

// operators lists the punctuation in longest-match order.
var operators = []struct {
	text string
	kind TokenKind
}{
	{"<<=", TokLtLtEq}, {">>=", TokGtGtEq},
	{"++", TokPlusPlus}, {"+=", TokPlusEq},
	{"--", TokMinusMinus}, {"-=", TokMinusEq}, {"->", TokArrow},
	{"*=", TokStarEq}, {"/=", TokSlashEq}, {"%=", TokPercentEq},
	{"&&", TokAmpAmp}, {"&=", TokAmpEq},
	{"||", TokPipePipe}, {"|=", TokPipeEq},
	{"^=", TokCaretEq},
	{"<<", TokLtLt}, {"<=", TokLtEq},
	{">>", TokGtGt}, {">=", TokGtEq},
	{"==", TokEqEq}, {"!=", TokBangEq},
	{"::", TokColonColon},
	{"+", TokPlus}, {"-", TokMinus}, {"*", TokStar}, {"/", TokSlash},
	{"%", TokPercent}, {"&", TokAmp}, {"|", TokPipe}, {"^", TokCaret},
	{"~", TokTilde}, {"!", TokBang}, {"<", TokLt}, {">", TokGt},
	{"=", TokEq}, {".", TokDot}, {"@", TokAt},
	{"(", TokLParen}, {")", TokRParen}, {"{", TokLBrace}, {"}", TokRBrace},
	{"[", TokLBracket}, {"]", TokRBracket},
	{";", TokSemicolon}, {":", TokColon}, {",", TokComma},
}

func (l *Lexer) scanOperator() Token {
	start := l.pos
	rest := l.source[l.pos:]
	for _, op := range operators {
		if len(rest) >= len(op.text) && rest[:len(op.text)] == op.text {
			l.pos += len(op.text)
			return Token{Kind: op.kind, Start: start, End: l.pos}
		}
	}
	return l.errorToken(start, start+1, "unexpected character")
}

// ----------------------------------------------------------------------------
// Character Classification
// ----------------------------------------------------------------------------

var (
	asciiIdentStart    [utf8.RuneSelf]bool
	asciiIdentContinue [utf8.RuneSelf]bool
	asciiWhitespace    [utf8.RuneSelf]bool
)

func init() {
	for c := 'a'; c <= 'z'; c++ {
		asciiIdentStart[c] = true
		asciiIdentContinue[c] = true
	}
	for c := 'A'; c <= 'Z'; c++ {
		asciiIdentStart[c] = true
		asciiIdentContinue[c] = true
	}
	asciiIdentStart['_'] = true
	asciiIdentContinue['_'] = true
	for c := '0'; c <= '9'; c++ {
		asciiIdentContinue[c] = true
	}
	for _, c := range " \t\n\r\v\f" {
		asciiWhitespace[c] = true
	}
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isHexDigit(ch byte) bool {
	return isDigit(ch) || (ch >= 'a' && ch <= 'f') || (ch >= 'A' && ch <= 'F')
}

// isIdentStartSlow handles Unicode identifier start characters (XID_Start).
func isIdentStartSlow(r rune) bool {
	return r == '_' || unicode.Is(unicode.Other_ID_Start, r) || unicode.IsLetter(r)
}

// isIdentContinueSlow handles Unicode identifier continuation characters.
func isIdentContinueSlow(r rune) bool {
	return isIdentStartSlow(r) || unicode.Is(unicode.Other_ID_Continue, r) ||
		unicode.IsDigit(r) || unicode.Is(unicode.Mn, r) || unicode.Is(unicode.Mc, r)
}
