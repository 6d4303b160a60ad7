package condcomp

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrorKind classifies a conditional-compilation failure.
type ErrorKind uint8

const (
	// KindInvalidFeatureFlag is an identifier used as a flag that carries
	// template arguments.
	KindInvalidFeatureFlag ErrorKind = iota
	// KindInvalidExpression is an @if expression using anything other than
	// boolean literals, parentheses, !, && and || over identifiers.
	KindInvalidExpression
	// KindMissingFeatureFlag is a flag absent from the feature set in
	// strict mode.
	KindMissingFeatureFlag
)

var kindNames = [...]string{
	KindInvalidFeatureFlag: "invalid feature flag",
	KindMissingFeatureFlag: "missing feature flag",
	KindInvalidExpression:  "invalid if attribute expression",
}

func (k ErrorKind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("ErrorKind(%d)", k)
}

// Error is a conditional-compilation failure. Text is the offending flag
// or expression as written.
type Error struct {
	Kind ErrorKind
	Text string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: `%s`", e.Kind, e.Text)
}

func newError(kind ErrorKind, text string) error {
	return errors.WithStack(&Error{Kind: kind, Text: text})
}

// KindOf returns the kind of the condcomp error in err's chain.
func KindOf(err error) (ErrorKind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}
