// Package consteval is the constant-evaluation value model: Instance values
// for every WGSL value category, memory views for aliased sub-objects, and
// type derivation for instances and type expressions.
package consteval

import (
	"fmt"
	"maps"
	"math"
	"slices"
	"strconv"
	"strings"

	"codeberg.org/saruga/weslc/internal/types"
)

// Instance is a value in the constant-evaluation engine. The set of
// implementations is closed.
type Instance interface {
	// Ty returns the static type of the value without evaluating anything.
	Ty() types.Type
	String() string
	isInstance()
}

func (LiteralInstance) isInstance() {}
func (*StructInstance) isInstance() {}
func (*ArrayInstance) isInstance()  {}
func (*VecInstance) isInstance()    {}
func (*MatInstance) isInstance()    {}
func (PtrInstance) isInstance()     {}
func (RefInstance) isInstance()     {}
func (TypeInstance) isInstance()    {}
func (VoidInstance) isInstance()    {}

// ----------------------------------------------------------------------------
// Literals
// ----------------------------------------------------------------------------

// LiteralInstance is a scalar value. Integers are held in i and floats in
// f; f16 values are stored widened.
type LiteralInstance struct {
	kind types.ScalarKind
	i    int64
	f    float64
}

func Bool(v bool) LiteralInstance {
	l := LiteralInstance{kind: types.ScalarBool}
	if v {
		l.i = 1
	}
	return l
}

func AbstractInt(v int64) LiteralInstance {
	return LiteralInstance{kind: types.ScalarAbstractInt, i: v}
}

func AbstractFloat(v float64) LiteralInstance {
	return LiteralInstance{kind: types.ScalarAbstractFloat, f: v}
}

func I32(v int32) LiteralInstance { return LiteralInstance{kind: types.ScalarI32, i: int64(v)} }
func U32(v uint32) LiteralInstance {
	return LiteralInstance{kind: types.ScalarU32, i: int64(v)}
}
func F32(v float32) LiteralInstance { return LiteralInstance{kind: types.ScalarF32, f: float64(v)} }

// F16 stores v widened to 32 bits.
func F16(v float32) LiteralInstance { return LiteralInstance{kind: types.ScalarF16, f: float64(v)} }

// Kind returns the scalar kind of the literal.
func (l LiteralInstance) Kind() types.ScalarKind { return l.kind }

// Bool returns the value of a bool literal.
func (l LiteralInstance) Bool() (bool, bool) {
	return l.i != 0, l.kind == types.ScalarBool
}

// Int returns the value of an integer literal.
func (l LiteralInstance) Int() (int64, bool) {
	switch l.kind {
	case types.ScalarAbstractInt, types.ScalarI32, types.ScalarU32:
		return l.i, true
	}
	return 0, false
}

// Float returns the value of a floating-point literal.
func (l LiteralInstance) Float() (float64, bool) {
	switch l.kind {
	case types.ScalarAbstractFloat, types.ScalarF32, types.ScalarF16:
		return l.f, true
	}
	return 0, false
}

// Equal reports whether two literals have the same kind and value.
func (l LiteralInstance) Equal(o LiteralInstance) bool {
	return l == o
}

func (l LiteralInstance) Ty() types.Type {
	switch l.kind {
	case types.ScalarBool:
		return types.Bool
	case types.ScalarAbstractInt:
		return types.AbstractInt
	case types.ScalarAbstractFloat:
		return types.AbstractFloat
	case types.ScalarI32:
		return types.I32
	case types.ScalarU32:
		return types.U32
	case types.ScalarF32:
		return types.F32
	default:
		return types.F16
	}
}

// String returns WGSL literal syntax.
func (l LiteralInstance) String() string {
	switch l.kind {
	case types.ScalarBool:
		return strconv.FormatBool(l.i != 0)
	case types.ScalarAbstractInt:
		return strconv.FormatInt(l.i, 10)
	case types.ScalarI32:
		return strconv.FormatInt(l.i, 10) + "i"
	case types.ScalarU32:
		return strconv.FormatInt(l.i, 10) + "u"
	case types.ScalarAbstractFloat:
		return formatFloat(l.f, 64)
	case types.ScalarF32:
		return formatFloat(l.f, 32) + "f"
	default:
		return formatFloat(l.f, 32) + "h"
	}
}

func formatFloat(f float64, bitSize int) string {
	s := strconv.FormatFloat(f, 'g', -1, bitSize)
	if !math.IsInf(f, 0) && !math.IsNaN(f) && !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	return s
}

// ----------------------------------------------------------------------------
// Structs and Arrays
// ----------------------------------------------------------------------------

// StructInstance is a struct value. Field order is not significant.
type StructInstance struct {
	Name       string
	Components map[string]Instance
}

func (s *StructInstance) Ty() types.Type {
	return types.StructOf(s.Name)
}

func (s *StructInstance) String() string {
	names := slices.Sorted(maps.Keys(s.Components))
	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = name + ": " + s.Components[name].String()
	}
	return fmt.Sprintf("%s(%s)", s.Name, strings.Join(parts, ", "))
}

// ArrayInstance is a non-empty array whose components all have the same
// type.
type ArrayInstance struct {
	components []Instance
}

// NewArray builds an array value, checking that components is non-empty
// and that every component has the type of the first.
func NewArray(components []Instance) (*ArrayInstance, error) {
	if len(components) == 0 {
		return nil, newError(KindArrayComponents, "array", "an array needs at least one component")
	}
	first := components[0].Ty()
	for _, c := range components[1:] {
		if t := c.Ty(); !t.Equals(first) {
			return nil, newError(KindArrayComponents, "array",
				"components have differing types: %s", types.Join([]types.Type{first, t}))
		}
	}
	return &ArrayInstance{components: components}, nil
}

// Components returns the array's components. The slice is shared.
func (a *ArrayInstance) Components() []Instance { return a.components }

// N returns the number of components.
func (a *ArrayInstance) N() int { return len(a.components) }

// Get returns the component at i.
func (a *ArrayInstance) Get(i int) (Instance, bool) {
	if i < 0 || i >= len(a.components) {
		return nil, false
	}
	return a.components[i], true
}

func (a *ArrayInstance) Ty() types.Type {
	return types.Arr(a.components[0].Ty(), len(a.components))
}

func (a *ArrayInstance) String() string {
	return "array(" + joinInstances(a.components) + ")"
}

// ----------------------------------------------------------------------------
// Vectors and Matrices
// ----------------------------------------------------------------------------

// VecInstance is a vector of 2, 3 or 4 scalars.
type VecInstance struct {
	components []LiteralInstance
}

// NewVec builds a vector from components, which must number 2, 3 or 4 and
// share one scalar kind.
func NewVec(components []LiteralInstance) (*VecInstance, error) {
	if n := len(components); n < 2 || n > 4 {
		return nil, newError(KindArityMismatch, "vec", "a vector has 2, 3 or 4 components, got %d", n)
	}
	first := components[0]
	for _, c := range components[1:] {
		if c.Kind() != first.Kind() {
			return nil, newError(KindMixedComponents, "vec",
				"components have differing types: %s", types.Join([]types.Type{first.Ty(), c.Ty()}))
		}
	}
	return &VecInstance{components: components}, nil
}

// VecSplat builds an n-component vector with every component set to v.
func VecSplat(n int, v LiteralInstance) (*VecInstance, error) {
	if n < 2 || n > 4 {
		return nil, newError(KindArityMismatch, "vec", "a vector has 2, 3 or 4 components, got %d", n)
	}
	components := make([]LiteralInstance, n)
	for i := range components {
		components[i] = v
	}
	return &VecInstance{components: components}, nil
}

// N returns the number of components.
func (v *VecInstance) N() int { return len(v.components) }

// Get returns the component at i.
func (v *VecInstance) Get(i int) (LiteralInstance, bool) {
	if i < 0 || i >= len(v.components) {
		return LiteralInstance{}, false
	}
	return v.components[i], true
}

// Components returns the vector's components. The slice is shared.
func (v *VecInstance) Components() []LiteralInstance { return v.components }

func (v *VecInstance) Ty() types.Type {
	return types.Vec(len(v.components), v.components[0].Ty().(*types.Scalar))
}

func (v *VecInstance) String() string {
	parts := make([]string, len(v.components))
	for i, c := range v.components {
		parts[i] = c.String()
	}
	return fmt.Sprintf("vec%d(%s)", len(v.components), strings.Join(parts, ", "))
}

// MatInstance is a matrix stored as columns. Every column has the same
// number of rows.
type MatInstance struct {
	columns []*VecInstance
}

// NewMat builds a matrix from 2, 3 or 4 columns of equal length and
// element type.
func NewMat(columns []*VecInstance) (*MatInstance, error) {
	if c := len(columns); c < 2 || c > 4 {
		return nil, newError(KindArityMismatch, "mat", "a matrix has 2, 3 or 4 columns, got %d", c)
	}
	first := columns[0]
	for _, col := range columns[1:] {
		if col.N() != first.N() {
			return nil, newError(KindArityMismatch, "mat", "matrix columns have %d and %d rows", first.N(), col.N())
		}
		if col.components[0].Kind() != first.components[0].Kind() {
			return nil, newError(KindMixedComponents, "mat",
				"columns have differing types: %s", types.Join([]types.Type{first.Ty(), col.Ty()}))
		}
	}
	return &MatInstance{columns: columns}, nil
}

// MatSplat builds a cols x rows matrix with every component set to v.
func MatSplat(cols, rows int, v LiteralInstance) (*MatInstance, error) {
	columns := make([]*VecInstance, cols)
	for i := range columns {
		col, err := VecSplat(rows, v)
		if err != nil {
			return nil, err
		}
		columns[i] = col
	}
	return NewMat(columns)
}

// C returns the number of columns.
func (m *MatInstance) C() int { return len(m.columns) }

// R returns the number of rows.
func (m *MatInstance) R() int { return m.columns[0].N() }

// Col returns column i.
func (m *MatInstance) Col(i int) (*VecInstance, bool) {
	if i < 0 || i >= len(m.columns) {
		return nil, false
	}
	return m.columns[i], true
}

// Get returns the component at column i, row j.
func (m *MatInstance) Get(i, j int) (LiteralInstance, bool) {
	col, ok := m.Col(i)
	if !ok {
		return LiteralInstance{}, false
	}
	return col.Get(j)
}

func (m *MatInstance) Ty() types.Type {
	return types.Mat(m.C(), m.R(), m.columns[0].components[0].Ty().(*types.Scalar))
}

func (m *MatInstance) String() string {
	parts := make([]string, len(m.columns))
	for i, c := range m.columns {
		parts[i] = c.String()
	}
	return fmt.Sprintf("mat%dx%d(%s)", m.C(), m.R(), strings.Join(parts, ", "))
}

// ----------------------------------------------------------------------------
// Types and Void
// ----------------------------------------------------------------------------

// TypeInstance is a type used as a value, as in a type-valued template
// argument.
type TypeInstance struct {
	Type types.Type
}

func (t TypeInstance) Ty() types.Type  { return t.Type }
func (t TypeInstance) String() string { return t.Type.String() }

// VoidInstance is the value of an expression without one.
type VoidInstance struct{}

func (VoidInstance) Ty() types.Type  { return types.VoidType }
func (VoidInstance) String() string { return "void" }

// ----------------------------------------------------------------------------
// Views
// ----------------------------------------------------------------------------

// View descends view against inst. Member steps require a struct and Index
// steps an array; anything else, an absent field or an out-of-range index
// does not resolve.
func View(inst Instance, view MemView) (Instance, bool) {
	for _, step := range view.steps {
		switch v := inst.(type) {
		case *StructInstance:
			if step.index >= 0 {
				return nil, false
			}
			next, ok := v.Components[step.member]
			if !ok {
				return nil, false
			}
			inst = next
		case *ArrayInstance:
			if step.index < 0 {
				return nil, false
			}
			next, ok := v.Get(step.index)
			if !ok {
				return nil, false
			}
			inst = next
		default:
			return nil, false
		}
	}
	return inst, true
}

// replace stores value at view inside root and returns the new root. Struct
// and array storage is updated in place.
func replace(root Instance, view MemView, value Instance) (Instance, bool) {
	if view.IsWhole() {
		return value, true
	}
	step, rest := view.steps[0], MemView{steps: view.steps[1:]}
	switch v := root.(type) {
	case *StructInstance:
		sub, ok := v.Components[step.member]
		if step.index >= 0 || !ok {
			return nil, false
		}
		if sub, ok = replace(sub, rest, value); !ok {
			return nil, false
		}
		v.Components[step.member] = sub
		return v, true
	case *ArrayInstance:
		sub, ok := v.Get(step.index)
		if !ok {
			return nil, false
		}
		if sub, ok = replace(sub, rest, value); !ok {
			return nil, false
		}
		v.components[step.index] = sub
		return v, true
	}
	return nil, false
}

// clone copies the struct and array storage of inst. Other values are
// never modified in place and are returned as is.
func clone(inst Instance) Instance {
	switch v := inst.(type) {
	case *StructInstance:
		components := make(map[string]Instance, len(v.Components))
		for name, c := range v.Components {
			components[name] = clone(c)
		}
		return &StructInstance{Name: v.Name, Components: components}
	case *ArrayInstance:
		components := make([]Instance, len(v.components))
		for i, c := range v.components {
			components[i] = clone(c)
		}
		return &ArrayInstance{components: components}
	}
	return inst
}

// Len returns the component count of an array or vector, the column count
// of a matrix and 0 for anything else.
func Len(inst Instance) int {
	switch v := inst.(type) {
	case *ArrayInstance:
		return v.N()
	case *VecInstance:
		return v.N()
	case *MatInstance:
		return v.C()
	}
	return 0
}

// InnerTy returns the element type of an array, vector or matrix value
// without descending further. Other values return their own type.
func InnerTy(inst Instance) types.Type {
	return types.InnerType(inst.Ty())
}

func joinInstances(insts []Instance) string {
	parts := make([]string, len(insts))
	for i, inst := range insts {
		parts[i] = inst.String()
	}
	return strings.Join(parts, ", ")
}
