// Package diagnostic turns compiler errors into located, human-readable
// messages with the offending source line and a caret underline.
package diagnostic

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/rivo/uniseg"
	"go.uber.org/multierr"

	"codeberg.org/saruga/weslc/internal/ast"
)

// Severity represents the severity level of a diagnostic.
type Severity uint8

const (
	// SeverityError prevents compilation.
	SeverityError Severity = iota
	// SeverityWarning is a non-blocking issue.
	SeverityWarning
	// SeverityNote provides additional context for another diagnostic.
	SeverityNote
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	case SeverityNote:
		return "note"
	default:
		return "unknown"
	}
}

// Position represents a position in source code.
type Position struct {
	Offset int // Byte offset (0-based)
	Line   int // Line number (1-based)
	Column int // Column number in bytes (1-based)
}

// Diagnostic represents a single diagnostic message.
type Diagnostic struct {
	Severity    Severity
	Message     string
	Declaration string
	Start       Position
	End         Position
	located     bool
}

// Located reports whether the diagnostic points into the source.
func (d *Diagnostic) Located() bool {
	return d.located
}

func (d *Diagnostic) String() string {
	msg := d.Message
	if d.Declaration != "" {
		msg = fmt.Sprintf("%s (in '%s')", msg, d.Declaration)
	}
	if !d.located {
		return fmt.Sprintf("%s: %s", d.Severity, msg)
	}
	return fmt.Sprintf("%d:%d: %s: %s", d.Start.Line, d.Start.Column, d.Severity, msg)
}

// List collects diagnostics for one source file.
type List struct {
	path        string
	source      string
	lines       *LineIndex
	diagnostics []Diagnostic
	errors      int
}

// NewList creates a diagnostic list for the given source.
func NewList(path, source string) *List {
	return &List{path: path, source: source, lines: NewLineIndex(source)}
}

// Lines returns the line index of the list's source.
func (l *List) Lines() *LineIndex {
	return l.lines
}

// Add appends a diagnostic covering span.
func (l *List) Add(sev Severity, span ast.Range, msg string) {
	start := int(span.Loc.Start)
	l.add(Diagnostic{
		Severity: sev,
		Message:  msg,
		Start:    l.position(start),
		End:      l.position(start + int(span.Len)),
		located:  true,
	})
}

// AddError records err, which may combine several errors with multierr.
// Errors carrying an *Error become located diagnostics; anything else is
// recorded without a position.
func (l *List) AddError(err error) {
	for _, e := range multierr.Errors(err) {
		var d *Error
		if !errors.As(e, &d) {
			l.add(Diagnostic{Severity: SeverityError, Message: e.Error()})
			continue
		}
		diag := Diagnostic{
			Severity:    SeverityError,
			Message:     d.Cause.Error(),
			Declaration: d.Declaration,
		}
		if d.HasSpan {
			start := int(d.Span.Loc.Start)
			diag.Start = l.position(start)
			diag.End = l.position(start + int(d.Span.Len))
			diag.located = true
		}
		l.add(diag)
	}
}

func (l *List) add(d Diagnostic) {
	l.diagnostics = append(l.diagnostics, d)
	if d.Severity == SeverityError {
		l.errors++
	}
}

func (l *List) position(offset int) Position {
	line, col := l.lines.Position(offset)
	return Position{Offset: offset, Line: line + 1, Column: col + 1}
}

// HasErrors returns true if there are any error-level diagnostics.
func (l *List) HasErrors() bool {
	return l.errors > 0
}

// Diagnostics returns all collected diagnostics.
func (l *List) Diagnostics() []Diagnostic {
	return l.diagnostics
}

// Format renders every diagnostic with source context.
func (l *List) Format() string {
	var sb strings.Builder
	for i := range l.diagnostics {
		sb.WriteString(l.FormatDiagnostic(&l.diagnostics[i]))
	}
	return sb.String()
}

// FormatDiagnostic renders one diagnostic: a "path:line:col: severity:
// message" header followed by the source line and a caret underline.
// Underline widths are measured in terminal cells so that wide characters
// before or inside the span keep the caret aligned.
func (l *List) FormatDiagnostic(d *Diagnostic) string {
	var sb strings.Builder
	if l.path != "" {
		sb.WriteString(l.path)
		sb.WriteByte(':')
	}
	sb.WriteString(d.String())
	sb.WriteByte('\n')
	if !d.located {
		return sb.String()
	}

	text, lineStart := l.lines.LineAt(d.Start.Offset)
	if text == "" {
		return sb.String()
	}
	col := min(d.Start.Offset-lineStart, len(text))
	end := len(text)
	if d.End.Line == d.Start.Line {
		end = min(d.End.Offset-lineStart, len(text))
	}

	pad := uniseg.StringWidth(text[:col])
	width := max(1, uniseg.StringWidth(text[col:max(col, end)]))
	fmt.Fprintf(&sb, "    %s\n", text)
	fmt.Fprintf(&sb, "    %s^%s\n", strings.Repeat(" ", pad), strings.Repeat("~", width-1))
	return sb.String()
}

// Err returns the error-level diagnostics combined into one error, or nil.
func (l *List) Err() error {
	var err error
	for i := range l.diagnostics {
		if l.diagnostics[i].Severity == SeverityError {
			err = multierr.Append(err, errors.New(l.FormatDiagnostic(&l.diagnostics[i])))
		}
	}
	return err
}
