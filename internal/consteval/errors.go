package consteval

import (
	"fmt"

	"github.com/pkg/errors"

	"codeberg.org/saruga/weslc/internal/types"
)

// ErrorKind classifies constant-evaluation failures.
type ErrorKind uint8

const (
	// KindUnknownType: a type name resolves to no builtin, alias or struct.
	KindUnknownType ErrorKind = iota
	// KindUnexpectedTemplate: template arguments on a type that takes none.
	KindUnexpectedTemplate
	// KindMissingTemplate: a generic type used without template arguments.
	KindMissingTemplate
	// KindTemplateArgs: wrong number of template arguments.
	KindTemplateArgs
	// KindArityMismatch: vector or matrix built from the wrong number of
	// components.
	KindArityMismatch
	// KindBorrowConflict: a dereference violates read-shared/write-exclusive
	// access to a memory cell.
	KindBorrowConflict
	// KindInvalidElementType: element type not allowed in the composite.
	KindInvalidElementType
	// KindInvalidArrayLength: array length is not a positive integer scalar.
	KindInvalidArrayLength
	// KindNotConstant: a template argument cannot be evaluated.
	KindNotConstant
	// KindInvalidView: a memory view does not resolve against its value.
	KindInvalidView
	// KindDanglingPointer: a pointer or reference to a released cell.
	KindDanglingPointer
	// KindArrayComponents: an array built from no components or components
	// of differing types.
	KindArrayComponents
	// KindMixedComponents: a vector or matrix built from components of
	// differing scalar types.
	KindMixedComponents
	// KindTypeMismatch: a write whose value does not have the type of the
	// referenced storage.
	KindTypeMismatch
)

var kindNames = [...]string{
	KindUnknownType:        "unknown type",
	KindUnexpectedTemplate: "unexpected template",
	KindMissingTemplate:    "missing template",
	KindTemplateArgs:       "template arguments",
	KindArityMismatch:      "arity mismatch",
	KindBorrowConflict:     "borrow conflict",
	KindInvalidElementType: "invalid element type",
	KindInvalidArrayLength: "invalid array length",
	KindNotConstant:        "not constant",
	KindInvalidView:        "invalid view",
	KindDanglingPointer:    "dangling pointer",
	KindArrayComponents:    "array components",
	KindMixedComponents:    "mixed components",
	KindTypeMismatch:       "type mismatch",
}

func (k ErrorKind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("ErrorKind(%d)", k)
}

// Error is a constant-evaluation failure. Match it with errors.As; source
// spans are attached by diagnostic.WithSpan.
type Error struct {
	Kind ErrorKind
	// Name is the type or builtin involved, when there is one.
	Name string
	// Type is the type involved, when there is one.
	Type   types.Type
	Detail string
}

func (e *Error) Error() string {
	switch {
	case e.Kind == KindUnknownType && e.Detail == "":
		return fmt.Sprintf("unknown type '%s'", e.Name)
	case e.Kind == KindUnknownType:
		return fmt.Sprintf("unknown type '%s': %s", e.Name, e.Detail)
	case e.Kind == KindUnexpectedTemplate:
		return fmt.Sprintf("type '%s' does not take template arguments", e.Name)
	case e.Kind == KindMissingTemplate:
		return fmt.Sprintf("'%s' requires template arguments", e.Name)
	case e.Kind == KindTemplateArgs:
		return fmt.Sprintf("invalid template arguments for '%s': %s", e.Name, e.Detail)
	case e.Kind == KindInvalidElementType && e.Type != nil:
		return fmt.Sprintf("'%s' is not a valid element type for %s", e.Type, e.Name)
	}
	if e.Detail == "" {
		return e.Kind.String()
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

func newError(kind ErrorKind, name string, detail string, args ...any) error {
	if len(args) > 0 {
		detail = fmt.Sprintf(detail, args...)
	}
	return errors.WithStack(&Error{Kind: kind, Name: name, Detail: detail})
}

func elementError(t types.Type, container string) error {
	return errors.WithStack(&Error{Kind: KindInvalidElementType, Name: container, Type: t})
}

// KindOf returns the kind of the consteval error in err's chain.
func KindOf(err error) (ErrorKind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}
