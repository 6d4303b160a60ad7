package diagnostic

import (
	"unicode/utf16"

	"github.com/tidwall/btree"
)

// LineIndex converts byte offsets to line/column positions. Lines are keyed
// by the offset of their last byte (the terminator, or the end of the
// source for the final line), so the line containing an offset is the
// first key at or after it.
type LineIndex struct {
	source string
	ends   btree.Map[int, lineSpan]
}

type lineSpan struct {
	start int
	line  int
}

// NewLineIndex indexes the lines of source. LF, CRLF and lone CR all end
// a line.
func NewLineIndex(source string) *LineIndex {
	idx := &LineIndex{source: source}
	start, line := 0, 0
	for i := 0; i < len(source); i++ {
		switch source[i] {
		case '\r':
			if i+1 < len(source) && source[i+1] == '\n' {
				continue
			}
		case '\n':
		default:
			continue
		}
		idx.ends.Set(i, lineSpan{start: start, line: line})
		start, line = i+1, line+1
	}
	idx.ends.Set(len(source), lineSpan{start: start, line: line})
	return idx
}

// LineCount returns the number of lines, counting a trailing empty line
// after a final newline.
func (idx *LineIndex) LineCount() int {
	return idx.ends.Len()
}

// Position returns the 0-based line and byte column of offset. Offsets
// outside the source are clamped.
func (idx *LineIndex) Position(offset int) (line, col int) {
	span, offset := idx.lookup(offset)
	return span.line, offset - span.start
}

// PositionUTF16 is Position with the column counted in UTF-16 code units,
// as source maps and editors expect.
func (idx *LineIndex) PositionUTF16(offset int) (line, col int) {
	span, offset := idx.lookup(offset)
	for _, r := range idx.source[span.start:offset] {
		col += utf16.RuneLen(r)
	}
	return span.line, col
}

// LineAt returns the text of the line containing offset, without its
// terminator, and the offset where that line starts.
func (idx *LineIndex) LineAt(offset int) (text string, start int) {
	span, _ := idx.lookup(offset)
	end := span.start
	for end < len(idx.source) && idx.source[end] != '\n' && idx.source[end] != '\r' {
		end++
	}
	return idx.source[span.start:end], span.start
}

func (idx *LineIndex) lookup(offset int) (lineSpan, int) {
	offset = max(0, min(offset, len(idx.source)))
	iter := idx.ends.Iter()
	if !iter.Seek(offset) {
		return lineSpan{}, offset
	}
	return iter.Value(), offset
}
