package diagnostic

import (
	"fmt"

	"github.com/pkg/errors"

	"codeberg.org/saruga/weslc/internal/ast"
)

// Error attaches source context to a failure from any compiler stage. The
// cause keeps its own type, so callers still match on it with errors.As.
type Error struct {
	Cause       error
	Span        ast.Range
	HasSpan     bool
	Declaration string // enclosing struct or function, if any
}

// WithSpan attaches span to err. A span that is already attached is kept,
// so the innermost expression reported wins.
func WithSpan(err error, span ast.Range) error {
	if err == nil {
		return nil
	}
	var d *Error
	if errors.As(err, &d) {
		if !d.HasSpan {
			d.Span, d.HasSpan = span, true
		}
		return err
	}
	return &Error{Cause: err, Span: span, HasSpan: true}
}

// WithDeclaration records the declaration that was being processed when
// err happened. Each call overwrites the previous one, so the outermost
// caller decides.
func WithDeclaration(err error, name string) error {
	if err == nil {
		return nil
	}
	var d *Error
	if errors.As(err, &d) {
		d.Declaration = name
		return err
	}
	return &Error{Cause: err, Declaration: name}
}

// At builds an Error for a message at span.
func At(span ast.Range, format string, args ...any) error {
	return &Error{Cause: errors.Errorf(format, args...), Span: span, HasSpan: true}
}

func (e *Error) Error() string {
	if e.Declaration != "" {
		return fmt.Sprintf("in '%s': %v", e.Declaration, e.Cause)
	}
	return e.Cause.Error()
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Format implements fmt.Formatter. %+v adds the byte span and the cause's
// own detailed form (a stack trace for pkg/errors causes).
func (e *Error) Format(s fmt.State, verb rune) {
	switch verb {
	case 'v':
		if s.Flag('+') {
			fmt.Fprint(s, e.Error())
			if e.HasSpan {
				fmt.Fprintf(s, " [%d:%d]", e.Span.Loc.Start, e.Span.End())
			}
			fmt.Fprintf(s, "\n%+v", e.Cause)
			return
		}
		fmt.Fprint(s, e.Error())
	case 's':
		fmt.Fprint(s, e.Error())
	case 'q':
		fmt.Fprintf(s, "%q", e.Error())
	}
}
