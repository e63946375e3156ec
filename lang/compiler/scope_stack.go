package compiler

// variableState discriminates how a scope variable may be used before it is
// fully initialized, mirroring dice's State enum (scope_stack.rs).
type variableState int

const (
	stateLocal variableState = iota
	stateFunction
	stateClass
)

// scopeVariable is one named binding visible within a scope, per §3's Scope
// variable (C4).
type scopeVariable struct {
	name        string
	slot        int
	isCaptured  bool
	state       variableState
	mutable     bool
	initialized bool
}

func (v *scopeVariable) isMutable() bool     { return v.mutable }
func (v *scopeVariable) isInitialized() bool { return v.initialized }

// scopeKind discriminates a Block scope, which never accepts break/continue,
// from a Loop scope, which accepts loop exit points.
type scopeKind int

const (
	scopeBlock scopeKind = iota
	scopeLoop
)

// scopeContext is one entry of the ScopeStack (C4): a lexical scope that
// owns a set of variables plus, for Loop scopes, a jump target and
// recorded break-exit positions to patch once the loop's end is known.
type scopeContext struct {
	depth          int
	kind           scopeKind
	entryPoint     int
	loopExitPoints []int
	variables      []*scopeVariable
	slotCount      int // locals declared directly in this scope
}

// scopeStack is the full nested-scope state for one compiler context (one
// function/method/constructor/script/module body). Slot numbering is
// cumulative across the active scopes: see addLocal.
type scopeStack struct {
	stack     []*scopeContext
	slotCount int // one past the maximum slot index ever reached, across all scopes
}

func newScopeStack() *scopeStack { return &scopeStack{} }

// pushScope opens a new scope of the given kind. entryPoint is meaningful
// only for Loop scopes (the bytecode position loop continues target).
func (s *scopeStack) pushScope(kind scopeKind, entryPoint int) {
	s.stack = append(s.stack, &scopeContext{depth: len(s.stack), kind: kind, entryPoint: entryPoint})
}

// popScope closes the innermost scope and returns it, so the caller can
// close any captured locals and reclaim slots.
func (s *scopeStack) popScope() *scopeContext {
	n := len(s.stack)
	top := s.stack[n-1]
	s.stack = s.stack[:n-1]
	return top
}

func (s *scopeStack) top() *scopeContext { return s.stack[len(s.stack)-1] }

// addLocal declares name in the innermost scope with the given state and
// returns its assigned slot. The slot is the cumulative count of locals in
// all currently active scopes minus one, so an inner scope's locals sit
// above every enclosing scope's locals and are released when it pops.
func (s *scopeStack) addLocal(name string, state variableState, mutable bool) int {
	top := s.top()
	top.slotCount++

	total := 0
	for _, sc := range s.stack {
		total += sc.slotCount
	}
	slot := total - 1

	initialized := state != stateFunction && state != stateClass
	v := &scopeVariable{name: name, slot: slot, state: state, mutable: mutable, initialized: initialized}
	top.variables = append(top.variables, v)

	if slot+1 > s.slotCount {
		s.slotCount = slot + 1
	}
	return slot
}

// local searches scopes innermost-to-outermost, and within a scope searches
// in reverse declaration order (the most recently declared shadows earlier
// ones), returning the first match.
func (s *scopeStack) local(name string) *scopeVariable {
	for i := len(s.stack) - 1; i >= 0; i-- {
		vars := s.stack[i].variables
		for j := len(vars) - 1; j >= 0; j-- {
			if vars[j].name == name {
				return vars[j]
			}
		}
	}
	return nil
}

// addLoopExitPoint records pos as a break-jump to patch, in the nearest
// enclosing Loop scope. It returns false if there is no enclosing loop.
func (s *scopeStack) addLoopExitPoint(pos int) bool {
	for i := len(s.stack) - 1; i >= 0; i-- {
		if s.stack[i].kind == scopeLoop {
			s.stack[i].loopExitPoints = append(s.stack[i].loopExitPoints, pos)
			return true
		}
	}
	return false
}

// entryPointOf returns the entry point of the nearest enclosing scope of the
// given kind, and whether one was found (used by continue).
func (s *scopeStack) entryPointOf(kind scopeKind) (int, bool) {
	for i := len(s.stack) - 1; i >= 0; i-- {
		if s.stack[i].kind == kind {
			return s.stack[i].entryPoint, true
		}
	}
	return 0, false
}

// inLoop reports whether any enclosing scope is a Loop scope.
func (s *scopeStack) inLoop() bool {
	_, ok := s.entryPointOf(scopeLoop)
	return ok
}
