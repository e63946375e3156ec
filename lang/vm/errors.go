package vm

import (
	"fmt"

	"github.com/mna/dicelang/lang/token"
	"github.com/mna/dicelang/lang/value"
)

// ErrorKind discriminates the runtime error taxonomy of §7.
type ErrorKind int

//nolint:revive
const (
	NotAFunction ErrorKind = iota
	InvalidFunctionArgs
	UnknownInstruction
	VariableNotFound
	InvalidGlobalNameType
	DivideByZero
	Aborted
	ModuleLoad
	InvalidConversion
)

var errorKindNames = [...]string{
	NotAFunction:          "not a function",
	InvalidFunctionArgs:   "invalid function arguments",
	UnknownInstruction:    "unknown instruction",
	VariableNotFound:      "variable not found",
	InvalidGlobalNameType: "invalid global name type",
	DivideByZero:          "divide by zero",
	Aborted:               "aborted",
	ModuleLoad:            "module load",
	InvalidConversion:     "invalid conversion",
}

func (k ErrorKind) String() string { return errorKindNames[k] }

// noSpan is used where a runtime error originates outside any bytecode
// instruction (e.g. a native function called directly via CallFunction, or
// a module-load failure before any instruction has run).
var noSpan token.Span

// Error is a runtime error: a kind, a human message, and the source span of
// the offending instruction (resolved via the bytecode's source map).
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

func newInvalidFunctionArgsError(span token.Span, expected, got int) *Error {
	return newError(InvalidFunctionArgs, span, "expected %d argument(s), got %d", expected, got)
}

func newConversionError(span token.Span, err error) *Error {
	if ce, ok := err.(*value.ConversionError); ok {
		return newError(InvalidConversion, span, "want %s, got %s", ce.Want, ce.Got)
	}
	return newError(InvalidConversion, span, "%s", err)
}
