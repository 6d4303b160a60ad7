package diagnostic

import (
	"fmt"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"

	"codeberg.org/saruga/weslc/internal/ast"
)

func span(start, length int) ast.Range {
	return ast.Range{Loc: ast.Loc{Start: int32(start)}, Len: int32(length)}
}

func TestLineIndex(t *testing.T) {
	idx := NewLineIndex("ab\ncd\r\nef\rg")
	assert.Equal(t, 4, idx.LineCount())

	for _, tc := range []struct {
		offset    int
		line, col int
	}{
		{0, 0, 0},
		{2, 0, 2},
		{3, 1, 0},
		{4, 1, 1},
		{6, 1, 3},
		{7, 2, 0},
		{10, 3, 0},
		{11, 3, 1},
		{100, 3, 1},
		{-5, 0, 0},
	} {
		line, col := idx.Position(tc.offset)
		assert.Equal(t, [2]int{tc.line, tc.col}, [2]int{line, col}, "offset %d", tc.offset)
	}

	text, start := idx.LineAt(4)
	assert.Equal(t, "cd", text)
	assert.Equal(t, 3, start)

	text, start = idx.LineAt(8)
	assert.Equal(t, "ef", text)
	assert.Equal(t, 7, start)
}

func TestLineIndexEdges(t *testing.T) {
	empty := NewLineIndex("")
	assert.Equal(t, 1, empty.LineCount())
	line, col := empty.Position(0)
	assert.Zero(t, line)
	assert.Zero(t, col)

	trailing := NewLineIndex("a\n")
	assert.Equal(t, 2, trailing.LineCount())
	line, _ = trailing.Position(2)
	assert.Equal(t, 1, line)
}

func TestLineIndexUTF16(t *testing.T) {
	// é is 2 bytes and 1 unit, 😀 is 4 bytes and 2 units.
	idx := NewLineIndex("x\né😀y")
	line, col := idx.PositionUTF16(2 + len("é😀"))
	assert.Equal(t, 1, line)
	assert.Equal(t, 3, col)

	_, col = idx.Position(2 + len("é😀"))
	assert.Equal(t, 6, col)
}

func TestWithSpanKeepsInnermost(t *testing.T) {
	base := errors.New("boom")
	err := WithSpan(base, span(3, 2))
	err = WithSpan(err, span(0, 10))

	var d *Error
	require.True(t, errors.As(err, &d))
	assert.True(t, d.HasSpan)
	assert.Equal(t, span(3, 2), d.Span)
	assert.Equal(t, "boom", err.Error())
	assert.True(t, errors.Is(err, base))
}

func TestWithDeclarationKeepsOutermost(t *testing.T) {
	err := WithDeclaration(errors.New("boom"), "inner")
	err = WithDeclaration(err, "outer")
	err = WithSpan(err, span(1, 1))

	var d *Error
	require.True(t, errors.As(err, &d))
	assert.Equal(t, "outer", d.Declaration)
	assert.Equal(t, span(1, 1), d.Span)
	assert.Equal(t, "in 'outer': boom", err.Error())
}

func TestNilPassthrough(t *testing.T) {
	assert.NoError(t, WithSpan(nil, span(0, 1)))
	assert.NoError(t, WithDeclaration(nil, "f"))
}

func TestErrorFormat(t *testing.T) {
	err := WithDeclaration(At(span(3, 2), "bad %s", "thing"), "main")
	assert.Equal(t, "in 'main': bad thing", fmt.Sprintf("%v", err))
	assert.Equal(t, "in 'main': bad thing", fmt.Sprintf("%s", err))

	detailed := fmt.Sprintf("%+v", err)
	assert.True(t, strings.HasPrefix(detailed, "in 'main': bad thing [3:5]\nbad thing"), detailed)
}

func TestListAddError(t *testing.T) {
	source := "const a = 1;\nconst b = c;\n"
	list := NewList("shader.wesl", source)
	list.AddError(multierr.Combine(
		WithDeclaration(At(span(23, 1), "unresolved identifier 'c'"), "b"),
		errors.New("no position"),
	))

	require.True(t, list.HasErrors())
	diags := list.Diagnostics()
	require.Len(t, diags, 2)

	assert.True(t, diags[0].Located())
	assert.Equal(t, Position{Offset: 23, Line: 2, Column: 11}, diags[0].Start)
	assert.Equal(t, "2:11: error: unresolved identifier 'c' (in 'b')", diags[0].String())

	assert.False(t, diags[1].Located())
	assert.Equal(t, "error: no position", diags[1].String())

	assert.Equal(t,
		"shader.wesl:2:11: error: unresolved identifier 'c' (in 'b')\n"+
			"    const b = c;\n"+
			"              ^\n",
		list.FormatDiagnostic(&diags[0]))
	assert.Equal(t, "shader.wesl:error: no position\n", list.FormatDiagnostic(&diags[1]))
}

func TestCaretWithWideCharacters(t *testing.T) {
	source := "const 名前 = x;"
	list := NewList("", source)
	list.Add(SeverityError, span(15, 1), "unknown x")
	list.Add(SeverityWarning, span(6, 6), "odd name")

	diags := list.Diagnostics()
	require.Len(t, diags, 2)
	assert.Equal(t,
		"1:16: error: unknown x\n"+
			"    const 名前 = x;\n"+
			"    "+strings.Repeat(" ", 13)+"^\n",
		list.FormatDiagnostic(&diags[0]))
	assert.Equal(t,
		"1:7: warning: odd name\n"+
			"    const 名前 = x;\n"+
			"          ^~~~\n",
		list.FormatDiagnostic(&diags[1]))
}

func TestListErr(t *testing.T) {
	list := NewList("a.wesl", "x")
	assert.NoError(t, list.Err())

	list.Add(SeverityWarning, span(0, 1), "just a warning")
	assert.NoError(t, list.Err())
	assert.False(t, list.HasErrors())

	list.Add(SeverityError, span(0, 1), "first")
	list.Add(SeverityError, span(0, 1), "second")
	err := list.Err()
	require.Error(t, err)
	assert.Len(t, multierr.Errors(err), 2)
	assert.Contains(t, err.Error(), "a.wesl:1:1: error: first")
}
