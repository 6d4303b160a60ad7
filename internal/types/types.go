// Package types provides the WESL type model used by constant evaluation.
//
// The set of types is closed: scalars, structs (by name), arrays, vectors,
// matrices, atomics, pointers and void. Type values are never mutated after
// construction, so they can be shared freely between instances.
package types

import (
	"fmt"
	"strings"
)

// Type represents a WGSL type.
type Type interface {
	// String returns the WGSL syntax for this type.
	String() string
	// Equals returns true if this type equals another type.
	Equals(Type) bool
	// IsConcrete returns true if this is not an abstract type.
	IsConcrete() bool
	// isType is a marker method.
	isType()
}

// ----------------------------------------------------------------------------
// Scalar Types
// ----------------------------------------------------------------------------

// ScalarKind represents the kind of scalar type.
type ScalarKind uint8

const (
	ScalarBool ScalarKind = iota
	ScalarAbstractInt
	ScalarAbstractFloat
	ScalarI32
	ScalarU32
	ScalarF32
	ScalarF16
)

var scalarNames = [...]string{
	ScalarBool:          "bool",
	ScalarAbstractInt:   "AbstractInt",
	ScalarAbstractFloat: "AbstractFloat",
	ScalarI32:           "i32",
	ScalarU32:           "u32",
	ScalarF32:           "f32",
	ScalarF16:           "f16",
}

// Scalar represents bool, the abstract numeric types and the fixed-width
// numeric types.
type Scalar struct {
	Kind ScalarKind
}

func (s *Scalar) String() string {
	if int(s.Kind) < len(scalarNames) {
		return scalarNames[s.Kind]
	}
	return "unknown"
}

func (s *Scalar) Equals(other Type) bool {
	if o, ok := other.(*Scalar); ok {
		return s.Kind == o.Kind
	}
	return false
}

func (s *Scalar) IsConcrete() bool {
	return s.Kind != ScalarAbstractInt && s.Kind != ScalarAbstractFloat
}

func (s *Scalar) isType() {}

// IsNumeric returns true for every scalar except bool.
func (s *Scalar) IsNumeric() bool {
	return s.Kind != ScalarBool
}

// IsInteger returns true for AbstractInt, i32 and u32.
func (s *Scalar) IsInteger() bool {
	return s.Kind == ScalarI32 || s.Kind == ScalarU32 || s.Kind == ScalarAbstractInt
}

// IsFloat returns true for AbstractFloat, f32 and f16.
func (s *Scalar) IsFloat() bool {
	return s.Kind == ScalarF32 || s.Kind == ScalarF16 || s.Kind == ScalarAbstractFloat
}

// ----------------------------------------------------------------------------
// Struct Types
// ----------------------------------------------------------------------------

// Struct is a reference to a declared struct. Structs are typed nominally.
type Struct struct {
	Name string
}

func (s *Struct) String() string { return s.Name }

func (s *Struct) Equals(other Type) bool {
	if o, ok := other.(*Struct); ok {
		return s.Name == o.Name
	}
	return false
}

func (s *Struct) IsConcrete() bool { return true }
func (s *Struct) isType()          {}

// ----------------------------------------------------------------------------
// Array Types
// ----------------------------------------------------------------------------

// Array represents array<T, N> or array<T>. A length that depends on a
// pipeline-overridable constant is kept as its source text in Override.
type Array struct {
	Element  Type
	Count    int    // 0 when the length is absent or overridable
	Override string // override-expression length, "" otherwise
}

func (a *Array) String() string {
	switch {
	case a.Override != "":
		return fmt.Sprintf("array<%s, %s>", a.Element, a.Override)
	case a.Count == 0:
		return fmt.Sprintf("array<%s>", a.Element)
	}
	return fmt.Sprintf("array<%s, %d>", a.Element, a.Count)
}

func (a *Array) Equals(other Type) bool {
	if o, ok := other.(*Array); ok {
		return a.Count == o.Count && a.Override == o.Override && a.Element.Equals(o.Element)
	}
	return false
}

func (a *Array) IsConcrete() bool {
	return a.Element.IsConcrete()
}

func (a *Array) isType() {}

// IsRuntimeSized returns true if the array has no length.
func (a *Array) IsRuntimeSized() bool {
	return a.Count == 0 && a.Override == ""
}

// ----------------------------------------------------------------------------
// Vector and Matrix Types
// ----------------------------------------------------------------------------

// Vector represents vec2<T>, vec3<T>, vec4<T>.
type Vector struct {
	Width   int // 2, 3, or 4
	Element *Scalar
}

func (v *Vector) String() string {
	return fmt.Sprintf("vec%d<%s>", v.Width, v.Element)
}

func (v *Vector) Equals(other Type) bool {
	if o, ok := other.(*Vector); ok {
		return v.Width == o.Width && v.Element.Equals(o.Element)
	}
	return false
}

func (v *Vector) IsConcrete() bool {
	return v.Element.IsConcrete()
}

func (v *Vector) isType() {}

// Matrix represents matCxR<T>.
type Matrix struct {
	Cols    int // 2, 3, or 4
	Rows    int // 2, 3, or 4
	Element *Scalar
}

func (m *Matrix) String() string {
	return fmt.Sprintf("mat%dx%d<%s>", m.Cols, m.Rows, m.Element)
}

func (m *Matrix) Equals(other Type) bool {
	if o, ok := other.(*Matrix); ok {
		return m.Cols == o.Cols && m.Rows == o.Rows && m.Element.Equals(o.Element)
	}
	return false
}

func (m *Matrix) IsConcrete() bool {
	return m.Element.IsConcrete()
}

func (m *Matrix) isType() {}

// Column returns the column vector type of the matrix.
func (m *Matrix) Column() *Vector {
	return &Vector{Width: m.Rows, Element: m.Element}
}

// ----------------------------------------------------------------------------
// Atomic, Pointer and Void
// ----------------------------------------------------------------------------

// Atomic represents atomic<T>. Abstractness does not propagate through it.
type Atomic struct {
	Element *Scalar
}

func (a *Atomic) String() string {
	return fmt.Sprintf("atomic<%s>", a.Element)
}

func (a *Atomic) Equals(other Type) bool {
	if o, ok := other.(*Atomic); ok {
		return a.Element.Equals(o.Element)
	}
	return false
}

func (a *Atomic) IsConcrete() bool { return true }
func (a *Atomic) isType()          {}

// Pointer represents ptr<T>. The address space and access mode are
// syntactic and do not take part in constant evaluation.
type Pointer struct {
	Element Type
}

func (p *Pointer) String() string {
	return fmt.Sprintf("ptr<%s>", p.Element)
}

func (p *Pointer) Equals(other Type) bool {
	if o, ok := other.(*Pointer); ok {
		return p.Element.Equals(o.Element)
	}
	return false
}

func (p *Pointer) IsConcrete() bool { return true }
func (p *Pointer) isType()          {}

// Void is the type of expressions without a value.
type Void struct{}

func (v *Void) String() string         { return "void" }
func (v *Void) Equals(other Type) bool { _, ok := other.(*Void); return ok }
func (v *Void) IsConcrete() bool       { return true }
func (v *Void) isType()                {}

// ----------------------------------------------------------------------------
// Singleton Type Instances
// ----------------------------------------------------------------------------

var (
	Bool          = &Scalar{Kind: ScalarBool}
	AbstractInt   = &Scalar{Kind: ScalarAbstractInt}
	AbstractFloat = &Scalar{Kind: ScalarAbstractFloat}
	I32           = &Scalar{Kind: ScalarI32}
	U32           = &Scalar{Kind: ScalarU32}
	F32           = &Scalar{Kind: ScalarF32}
	F16           = &Scalar{Kind: ScalarF16}
	VoidType      = &Void{}
)

// Vec creates a vector type.
func Vec(width int, elem *Scalar) *Vector {
	return &Vector{Width: width, Element: elem}
}

// Mat creates a matrix type.
func Mat(cols, rows int, elem *Scalar) *Matrix {
	return &Matrix{Cols: cols, Rows: rows, Element: elem}
}

// Arr creates an array type. A count of 0 leaves the length unspecified.
func Arr(elem Type, count int) *Array {
	return &Array{Element: elem, Count: count}
}

// ArrOverride creates an array type whose length is the override
// expression length.
func ArrOverride(elem Type, length string) *Array {
	return &Array{Element: elem, Override: length}
}

// StructOf creates a struct type reference.
func StructOf(name string) *Struct {
	return &Struct{Name: name}
}

// AtomicOf creates an atomic type.
func AtomicOf(elem *Scalar) *Atomic {
	return &Atomic{Element: elem}
}

// PtrTo creates a pointer type.
func PtrTo(elem Type) *Pointer {
	return &Pointer{Element: elem}
}

// ScalarByName maps the predeclared scalar type names to their types.
func ScalarByName(name string) (*Scalar, bool) {
	switch name {
	case "bool":
		return Bool, true
	case "i32":
		return I32, true
	case "u32":
		return U32, true
	case "f32":
		return F32, true
	case "f16":
		return F16, true
	}
	return nil, false
}

// ----------------------------------------------------------------------------
// Classification
// ----------------------------------------------------------------------------

// IsScalar returns true if t is one of the leaf scalar kinds.
func IsScalar(t Type) bool {
	_, ok := t.(*Scalar)
	return ok
}

// IsNumeric returns true if t is a numeric scalar.
func IsNumeric(t Type) bool {
	s, ok := t.(*Scalar)
	return ok && s.IsNumeric()
}

// IsInteger returns true if t is an integer scalar.
func IsInteger(t Type) bool {
	s, ok := t.(*Scalar)
	return ok && s.IsInteger()
}

// IsFloat returns true if t is a floating-point scalar.
func IsFloat(t Type) bool {
	s, ok := t.(*Scalar)
	return ok && s.IsFloat()
}

// IsAbstract returns true for the abstract scalars and for arrays, vectors
// and matrices whose element type is abstract.
func IsAbstract(t Type) bool {
	return !t.IsConcrete()
}

// InnerType returns the element type of an array, vector, matrix or atomic,
// without descending further. Other types are returned unchanged.
func InnerType(t Type) Type {
	switch ty := t.(type) {
	case *Array:
		return ty.Element
	case *Vector:
		return ty.Element
	case *Matrix:
		return ty.Element
	case *Atomic:
		return ty.Element
	default:
		return t
	}
}

// ConcreteType returns the concrete version of an abstract type.
// AbstractFloat becomes f32 and AbstractInt becomes i32, also inside
// composites. Concrete types are returned unchanged.
func ConcreteType(t Type) Type {
	switch ty := t.(type) {
	case *Scalar:
		switch ty.Kind {
		case ScalarAbstractFloat:
			return F32
		case ScalarAbstractInt:
			return I32
		}
	case *Vector:
		if !ty.IsConcrete() {
			return &Vector{Width: ty.Width, Element: ConcreteType(ty.Element).(*Scalar)}
		}
	case *Matrix:
		if !ty.IsConcrete() {
			return &Matrix{Cols: ty.Cols, Rows: ty.Rows, Element: ConcreteType(ty.Element).(*Scalar)}
		}
	case *Array:
		if !ty.IsConcrete() {
			return &Array{Element: ConcreteType(ty.Element), Count: ty.Count, Override: ty.Override}
		}
	}
	return t
}

// Join formats a list of types as a comma separated list.
func Join(ts []Type) string {
	parts := make([]string, len(ts))
	for i, t := range ts {
		parts[i] = t.String()
	}
	return strings.Join(parts, ", ")
}
