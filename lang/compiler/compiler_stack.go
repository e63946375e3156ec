package compiler

import "github.com/mna/dicelang/lang/value"

// compilerKind discriminates the kind of unit a compilerContext is
// compiling, mirroring dice's CompilerKind.
type compilerKind int

const (
	kindScript compilerKind = iota
	kindModule
	kindFunction
	kindMethod
	kindConstructor
)

func (k compilerKind) isCallable() bool {
	switch k {
	case kindFunction, kindMethod, kindConstructor:
		return true
	default:
		return false
	}
}

// upvalueDescriptor is either a ParentLocal (capturing a slot of the
// immediately enclosing context) or an Outer (capturing an upvalue already
// threaded through the immediately enclosing context), per §3.
type upvalueDescriptor struct {
	parentLocal bool
	index       int // slot (if parentLocal) or upvalue index (if not)
	mutable     bool
}

func (d upvalueDescriptor) equal(o upvalueDescriptor) bool {
	return d.parentLocal == o.parentLocal && d.index == o.index
}

// compilerContext holds the per-unit compiler state: its kind, its
// assembler, its lexical scope stack, the upvalues it has resolved so far,
// and a counter of temporaries pushed for nested call protocols (error
// propagate, index chains) that must be unwound before a return.
type compilerContext struct {
	kind           compilerKind
	asm            *assembler
	scopes         *scopeStack
	upvalues       []upvalueDescriptor
	temporaryCount int
	selfSlot       int // slot of the `self`/receiver dummy, always 0

	// Return-type annotation of the function this context compiles, if any
	// (§4.6): when set, explicit returns and the implicit fallthrough
	// substitute the type-asserting RETURN variant for the plain one; the
	// `!!` early return keeps the plain RETURN.
	hasReturnType    bool
	returnTypeName   string
	returnOrNullType bool
}

func newCompilerContext(kind compilerKind) *compilerContext {
	return &compilerContext{kind: kind, asm: newAssembler(), scopes: newScopeStack()}
}

// addUpvalue records descriptor in this context's upvalue list, deduplicated
// by structural equality, and returns its (stable) index.
func (c *compilerContext) addUpvalue(d upvalueDescriptor) (int, *Error) {
	for i, existing := range c.upvalues {
		if existing.equal(d) {
			return i, nil
		}
	}
	if len(c.upvalues) >= 256 {
		return 0, newError(TooManyUpvalues, tokenZeroSpan(), "function captures more than 256 upvalues")
	}
	c.upvalues = append(c.upvalues, d)
	return len(c.upvalues) - 1, nil
}

func (c *compilerContext) finish() *value.Bytecode {
	return c.asm.finish(c.scopes.slotCount, len(c.upvalues))
}

// compilerStack is a stack of compilerContexts, one per nested
// function/method/constructor/script/module, used to resolve names that
// escape the innermost context into upvalue captures.
type compilerStack struct {
	stack []*compilerContext
}

func newCompilerStack() *compilerStack { return &compilerStack{} }

func (s *compilerStack) push(kind compilerKind) *compilerContext {
	ctx := newCompilerContext(kind)
	s.stack = append(s.stack, ctx)
	return ctx
}

func (s *compilerStack) pop() *compilerContext {
	n := len(s.stack)
	top := s.stack[n-1]
	s.stack = s.stack[:n-1]
	return top
}

func (s *compilerStack) top() *compilerContext { return s.stack[len(s.stack)-1] }

// offset returns the context at the given depth below the top (0 is top).
func (s *compilerStack) offset(depth int) *compilerContext {
	return s.stack[len(s.stack)-1-depth]
}

// resolveUpvalue implements §4.5's recursive algorithm: it looks for name in
// the parent context's locals (depth+1); if found there, it marks that local
// captured and records a ParentLocal descriptor at depth. Otherwise it
// recurses to look for an upvalue already threaded through the parent, and
// records an Outer descriptor referring to it. It returns the upvalue index
// in the context at `depth`, or ok=false if name is not found anywhere in
// the enclosing chain.
func (s *compilerStack) resolveUpvalue(name string, depth int) (int, bool, *Error) {
	if depth+1 >= len(s.stack) {
		return 0, false, nil
	}
	parent := s.offset(depth + 1)
	if v := parent.scopes.local(name); v != nil {
		v.isCaptured = true
		idx, err := s.offset(depth).addUpvalue(upvalueDescriptor{parentLocal: true, index: v.slot, mutable: v.mutable})
		if err != nil {
			return 0, false, err
		}
		return idx, true, nil
	}

	outerIdx, found, err := s.resolveUpvalue(name, depth+1)
	if err != nil {
		return 0, false, err
	}
	if !found {
		return 0, false, nil
	}
	mutable := parent.upvalues[outerIdx].mutable
	idx, err := s.offset(depth).addUpvalue(upvalueDescriptor{parentLocal: false, index: outerIdx, mutable: mutable})
	if err != nil {
		return 0, false, err
	}
	return idx, true, nil
}
