package consteval

import (
	"strconv"
	"strings"
)

// MemView is a path from a root value to a nested member or element. The
// zero value is the whole value. A MemView is immutable; appending returns
// a new path and never shares storage with the old one.
type MemView struct {
	steps []viewStep
}

// viewStep is a Member step when index < 0, else an Index step.
type viewStep struct {
	member string
	index  int
}

// Whole is the empty path.
var Whole = MemView{}

// IsWhole reports whether the view addresses the whole value.
func (v MemView) IsWhole() bool {
	return len(v.steps) == 0
}

// AppendMember extends the path at its deepest end with a struct member.
func (v MemView) AppendMember(name string) MemView {
	return v.append(viewStep{member: name, index: -1})
}

// AppendIndex extends the path at its deepest end with an array index.
func (v MemView) AppendIndex(i int) MemView {
	return v.append(viewStep{index: i})
}

func (v MemView) append(step viewStep) MemView {
	steps := make([]viewStep, len(v.steps), len(v.steps)+1)
	copy(steps, v.steps)
	return MemView{steps: append(steps, step)}
}

// equal reports whether two views are the same path.
func (v MemView) equal(o MemView) bool {
	if len(v.steps) != len(o.steps) {
		return false
	}
	for i := range v.steps {
		if v.steps[i] != o.steps[i] {
			return false
		}
	}
	return true
}

// String renders the path as .member and [index] accessors.
func (v MemView) String() string {
	var sb strings.Builder
	for _, s := range v.steps {
		if s.index < 0 {
			sb.WriteByte('.')
			sb.WriteString(s.member)
		} else {
			sb.WriteByte('[')
			sb.WriteString(strconv.Itoa(s.index))
			sb.WriteByte(']')
		}
	}
	return sb.String()
}
