package consteval

import (
	"fmt"

	"codeberg.org/saruga/weslc/internal/arena"
	"codeberg.org/saruga/weslc/internal/types"
)

// Memory owns the root values that pointers and references alias. Every
// root lives in an arena cell for the lifetime of the Memory (or until it
// is released); a Ptr or Ref holds the cell's pointer plus a MemView, so
// narrowing shares storage. Values cross the boundary by copy: Alloc and
// Write store a copy, Load returns one.
//
// Access follows read-shared/write-exclusive discipline: any number of
// read borrows, or one write borrow, per cell at a time. Violations are
// reported as KindBorrowConflict errors.
type Memory struct {
	cells arena.Arena[cell]
}

type cell struct {
	value    Instance
	readers  int
	writing  bool
	released bool
}

// NewMemory returns an empty memory.
func NewMemory() *Memory {
	return &Memory{}
}

// Alloc stores a copy of value in a new cell and returns a reference to
// the whole of it.
func (m *Memory) Alloc(value Instance) RefInstance {
	p := m.cells.New(cell{value: clone(value)})
	return RefInstance{Type: value.Ty(), mem: m, root: p}
}

// Release frees the cell behind r. Later dereferences of any Ptr or Ref
// aliasing it fail with KindDanglingPointer. Releasing a borrowed cell is
// a borrow conflict.
func (m *Memory) Release(r RefInstance) error {
	c, err := r.cell()
	if err != nil {
		return err
	}
	if c.readers > 0 || c.writing {
		return newError(KindBorrowConflict, "", "cannot release %s while it is borrowed", r.addr())
	}
	c.released = true
	c.value = nil
	return nil
}

// live returns the number of cells that have not been released.
func (m *Memory) live() int {
	n := 0
	m.cells.All(func(_ arena.Pointer[cell], c *cell) bool {
		if !c.released {
			n++
		}
		return true
	})
	return n
}

// ----------------------------------------------------------------------------
// References and Pointers
// ----------------------------------------------------------------------------

// RefInstance is a reference to a (sub-)value held in Memory. Type is the
// type of the referenced value.
type RefInstance struct {
	Type types.Type
	View MemView
	mem  *Memory
	root arena.Pointer[cell]
}

// PtrInstance is a pointer to a (sub-)value held in Memory. It has the
// same fields as RefInstance and converts to and from it losslessly.
type PtrInstance struct {
	Type types.Type
	View MemView
	mem  *Memory
	root arena.Pointer[cell]
}

// Ptr converts the reference to a pointer.
func (r RefInstance) Ptr() PtrInstance {
	return PtrInstance(r)
}

// Ref converts the pointer to a reference.
func (p PtrInstance) Ref() RefInstance {
	return RefInstance(p)
}

func (r RefInstance) Ty() types.Type { return r.Type }
func (p PtrInstance) Ty() types.Type { return types.PtrTo(p.Type) }

func (r RefInstance) String() string {
	return fmt.Sprintf("ref<%s>(%s)", r.Type, r.addr())
}

func (p PtrInstance) String() string {
	return fmt.Sprintf("ptr<%s>(%s)", p.Type, p.Ref().addr())
}

func (r RefInstance) addr() string {
	return fmt.Sprintf("@%d%s", uint32(r.root), r.View)
}

// sameRoot reports whether two references alias the same cell.
func (r RefInstance) sameRoot(o RefInstance) bool {
	return r.mem == o.mem && r.root == o.root
}

func (r RefInstance) cell() (*cell, error) {
	if r.mem == nil || !r.mem.cells.Contains(r.root) {
		return nil, newError(KindDanglingPointer, "", "%s does not point into memory", r.addr())
	}
	c := r.mem.cells.Deref(r.root)
	if c.released {
		return nil, newError(KindDanglingPointer, "", "%s points to released memory", r.addr())
	}
	return c, nil
}

// ViewMember narrows the reference to a struct member. The member must
// resolve against the current value; the result shares the same cell.
func (r RefInstance) ViewMember(name string) (RefInstance, error) {
	return r.narrow(r.View.AppendMember(name))
}

// ViewIndex narrows the reference to an array element. The index must
// resolve against the current value; the result shares the same cell.
func (r RefInstance) ViewIndex(i int) (RefInstance, error) {
	if i < 0 {
		return RefInstance{}, newError(KindInvalidView, "", "negative index %d", i)
	}
	return r.narrow(r.View.AppendIndex(i))
}

func (r RefInstance) narrow(view MemView) (RefInstance, error) {
	b, err := r.DerefInst()
	if err != nil {
		return RefInstance{}, err
	}
	defer b.Release()

	root := b.cell.value
	sub, ok := View(root, view)
	if !ok {
		return RefInstance{}, newError(KindInvalidView, "", "%s does not resolve against %s",
			view, root.Ty())
	}
	return RefInstance{Type: sub.Ty(), View: view, mem: r.mem, root: r.root}, nil
}

// Load returns a copy of the referenced value. Later writes through any
// reference do not change it.
func (r RefInstance) Load() (Instance, error) {
	b, err := r.DerefInst()
	if err != nil {
		return nil, err
	}
	defer b.Release()
	return clone(b.Value()), nil
}

// Write replaces the referenced value with a copy of value, which must
// have the reference's type.
func (r RefInstance) Write(value Instance) error {
	if !value.Ty().Equals(r.Type) {
		return newError(KindTypeMismatch, "", "cannot store %s in %s", value.Ty(), r.Type)
	}
	b, err := r.DerefInstMut()
	if err != nil {
		return err
	}
	defer b.Release()
	return b.Set(value)
}

// ----------------------------------------------------------------------------
// Borrows
// ----------------------------------------------------------------------------

// Borrow is a scoped read borrow of a cell, resolved through a view.
// Release must be called exactly once.
type Borrow struct {
	cell  *cell
	value Instance
}

// DerefInst acquires a read borrow and applies the reference's view. It
// fails if the cell is write-borrowed, released, or the view does not
// resolve.
func (r RefInstance) DerefInst() (*Borrow, error) {
	c, err := r.cell()
	if err != nil {
		return nil, err
	}
	if c.writing {
		return nil, newError(KindBorrowConflict, "", "cannot read %s while it is being written", r.addr())
	}
	value, ok := View(c.value, r.View)
	if !ok {
		return nil, newError(KindInvalidView, "", "%s does not resolve against %s", r.View, c.value.Ty())
	}
	c.readers++
	return &Borrow{cell: c, value: value}, nil
}

// Value returns the borrowed value. It shares storage with the cell and
// must not be modified; Load returns a copy.
func (b *Borrow) Value() Instance {
	return b.value
}

// Release ends the borrow.
func (b *Borrow) Release() {
	if b.cell != nil {
		b.cell.readers--
		b.cell = nil
	}
}

// BorrowMut is a scoped exclusive borrow of a cell, resolved through a
// view. Release must be called exactly once.
type BorrowMut struct {
	cell *cell
	view MemView
}

// DerefInstMut acquires an exclusive borrow and checks that the view
// resolves. It fails if the cell has any other borrow, is released, or the
// view does not resolve.
func (r RefInstance) DerefInstMut() (*BorrowMut, error) {
	c, err := r.cell()
	if err != nil {
		return nil, err
	}
	if c.writing || c.readers > 0 {
		return nil, newError(KindBorrowConflict, "", "cannot write %s while it is borrowed", r.addr())
	}
	if _, ok := View(c.value, r.View); !ok {
		return nil, newError(KindInvalidView, "", "%s does not resolve against %s", r.View, c.value.Ty())
	}
	c.writing = true
	return &BorrowMut{cell: c, view: r.View}, nil
}

// Value returns the borrowed value. Mutating a returned struct or array
// mutates the cell.
func (b *BorrowMut) Value() Instance {
	v, _ := View(b.cell.value, b.view)
	return v
}

// Set replaces the borrowed value with a copy of value, which must have
// the type of the value it replaces.
func (b *BorrowMut) Set(value Instance) error {
	current, ok := View(b.cell.value, b.view)
	if !ok {
		return newError(KindInvalidView, "", "%s no longer resolves", b.view)
	}
	if want := current.Ty(); !value.Ty().Equals(want) {
		return newError(KindTypeMismatch, "", "cannot store %s in %s", value.Ty(), want)
	}
	root, ok := replace(b.cell.value, b.view, clone(value))
	if !ok {
		return newError(KindInvalidView, "", "%s no longer resolves", b.view)
	}
	b.cell.value = root
	return nil
}

// Release ends the borrow.
func (b *BorrowMut) Release() {
	if b.cell != nil {
		b.cell.writing = false
		b.cell = nil
	}
}
