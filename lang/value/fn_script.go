package value

import (
	"fmt"

	"github.com/google/uuid"
)

// FnScript is a compiled function, method or constructor body: its arity,
// display name, compiled Bytecode and a unique id used to distinguish two
// script functions that happen to share arity (e.g. two closures produced by
// distinct invocations of the same declaration).
type FnScript struct {
	Name     string
	Arity    int
	Bytecode *Bytecode
	ID       uuid.UUID
}

var _ Value = (*FnScript)(nil)

// NewFnScript returns a new FnScript with a freshly generated id.
func NewFnScript(name string, arity int, bc *Bytecode) *FnScript {
	return &FnScript{Name: name, Arity: arity, Bytecode: bc, ID: uuid.New()}
}

func (f *FnScript) String() string { return fmt.Sprintf("%s/%d", f.Name, f.Arity) }
func (f *FnScript) Kind() Kind     { return KindFunction }
func (f *FnScript) Truth() bool    { return true }
