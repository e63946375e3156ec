package compiler

import (
	"fmt"

	"github.com/mna/dicelang/lang/token"
)

// ErrorKind discriminates the compile-time error taxonomy of §7.
type ErrorKind int

//nolint:revive
const (
	TooManyConstants ErrorKind = iota
	TooManyUpvalues
	ItemAlreadyDeclared
	UndeclaredVariable
	UninitializedVariable
	ImmutableVariable
	InvalidAssignmentTarget
	InvalidBreak
	InvalidContinue
	InvalidReturn
	NewMustHaveSelfReceiver
	SelfParameterHasType
	OperatorMethodHasNoSelf
	NewMustCallSuperFromSubclass
	NewReturnCannotHaveExpression
	InvalidErrorPropagateUsage
	InternalCompilerError
)

var errorKindNames = [...]string{
	TooManyConstants:              "too many constants",
	TooManyUpvalues:               "too many upvalues",
	ItemAlreadyDeclared:           "item already declared",
	UndeclaredVariable:            "undeclared variable",
	UninitializedVariable:         "uninitialized variable",
	ImmutableVariable:             "immutable variable",
	InvalidAssignmentTarget:       "invalid assignment target",
	InvalidBreak:                  "invalid break",
	InvalidContinue:               "invalid continue",
	InvalidReturn:                 "invalid return",
	NewMustHaveSelfReceiver:       "new must have self receiver",
	SelfParameterHasType:          "self parameter has type",
	OperatorMethodHasNoSelf:       "operator method has no self",
	NewMustCallSuperFromSubclass:  "new must call super from subclass",
	NewReturnCannotHaveExpression: "new return cannot have expression",
	InvalidErrorPropagateUsage:    "invalid error propagate usage",
	InternalCompilerError:         "internal compiler error",
}

func (k ErrorKind) String() string { return errorKindNames[k] }

// Error is a compile-time error: a kind, a human message and the source span
// it was raised for.
type Error struct {
	Kind    ErrorKind
	Message string
	Span    token.Span
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func newError(kind ErrorKind, span token.Span, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Span: span}
}

// tokenZeroSpan returns the zero Span, used where a compiler-internal check
// (e.g. a resource limit) fires without an obviously associated node.
func tokenZeroSpan() token.Span { return token.Span{} }
