package lexer

// DiscoverTemplates marks the '<' and '>' tokens that delimit template
// argument lists, following the WGSL template-list discovery rules. A '<'
// directly after an identifier (or 'var') opens a candidate list; the
// candidate is confirmed by a '>' at the same bracket nesting depth and
// dropped by anything that cannot appear inside template arguments.
//
// Closing tokens that fuse several characters (">>", ">=", ">>=") are split
// so that the template end is a token of its own.
func DiscoverTemplates(tokens []Token) []Token {
	d := discovery{out: make([]Token, 0, len(tokens))}
	for i := 0; i < len(tokens); i++ {
		next := TokEOF
		if i+1 < len(tokens) {
			next = tokens[i+1].Kind
		}
		if d.feed(tokens[i], next) {
			d.out = append(d.out, tokens[i+1])
			i++
		}
	}
	return d.out
}

type candidate struct {
	index int // position of the '<' in out
	depth int
}

type discovery struct {
	out     []Token
	pending []candidate
	depth   int
}

// feed consumes one token and reports whether the following '<' token was
// claimed as a candidate template start.
func (d *discovery) feed(tok Token, next TokenKind) bool {
	switch tok.Kind {
	case TokIdent, TokVar:
		d.out = append(d.out, tok)
		if next == TokLt {
			d.pending = append(d.pending, candidate{index: len(d.out), depth: d.depth})
			return true
		}
		return false

	case TokGt, TokGtGt, TokGtEq, TokGtGtEq:
		n := len(d.pending)
		if n == 0 || d.pending[n-1].depth != d.depth {
			if tok.Kind == TokGtGtEq {
				d.reset()
			}
			break
		}
		d.out[d.pending[n-1].index].Kind = TokTemplateArgsStart
		d.pending = d.pending[:n-1]
		d.out = append(d.out, Token{Kind: TokTemplateArgsEnd, Start: tok.Start, End: tok.Start + 1})
		if rest, ok := splitClose(tok); ok {
			d.feed(rest, TokEOF)
		}
		return false

	case TokLParen, TokLBracket:
		d.depth++

	case TokRParen, TokRBracket:
		d.popWhile(func(c candidate) bool { return c.depth >= d.depth })
		if d.depth > 0 {
			d.depth--
		}

	case TokAmpAmp, TokPipePipe:
		d.popWhile(func(c candidate) bool { return c.depth == d.depth })

	case TokEq, TokPlusEq, TokMinusEq, TokStarEq, TokSlashEq, TokPercentEq,
		TokAmpEq, TokPipeEq, TokCaretEq, TokLtLtEq,
		TokSemicolon, TokLBrace, TokColon:
		d.reset()
	}
	d.out = append(d.out, tok)
	return false
}

func (d *discovery) popWhile(cond func(candidate) bool) {
	for len(d.pending) > 0 && cond(d.pending[len(d.pending)-1]) {
		d.pending = d.pending[:len(d.pending)-1]
	}
}

func (d *discovery) reset() {
	d.pending = d.pending[:0]
	d.depth = 0
}

// splitClose returns what remains of a fused closing token once its first
// '>' has been taken as a template end.
func splitClose(tok Token) (Token, bool) {
	var kind TokenKind
	switch tok.Kind {
	case TokGtGt:
		kind = TokGt
	case TokGtEq:
		kind = TokEq
	case TokGtGtEq:
		kind = TokGtEq
	default:
		return Token{}, false
	}
	return Token{Kind: kind, Start: tok.Start + 1, End: tok.End}, true
}
