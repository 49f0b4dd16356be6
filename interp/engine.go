package interp

// ---------------------------------------------------------------------------
// Engine: the interpretation cycle over two stacks
// ---------------------------------------------------------------------------

// markKind distinguishes the internal bookkeeping tokens the engine places
// on its execution stack. Marks never reach the operand stack.
type markKind uint8

const (
	markFrame   markKind = iota // pop one dictionary frame when reached
	markHandler                 // handler boundary installed by stopped
	markLoop                    // loop boundary, target of exit
)

// mark is the payload of a kindMark token. Loop marks carry a continuation
// that reschedules the next iteration.
type mark struct {
	kind markKind
	cont func(e *Engine) *Condition
}

// Engine owns the operand and execution stacks and drives the
// interpretation cycle: one token per step, operators running to completion
// before the next step. Procedure calls splice the body onto the execution
// stack instead of recursing natively, so user-level nesting depth never
// grows the Go call stack.
//
// An Engine is single-threaded. The NameTable and Registry it references
// may be shared read-only across engines.
type Engine struct {
	names *NameTable
	reg   *Registry
	dicts *DictStack
	ops   OperandStack
	exec  execStack

	currentOp *Name
	halted    bool

	// stepLimit bounds the number of cycle steps per Run; 0 means no bound.
	stepLimit int64
	steps     int64
}

// NewEngine creates an idle engine bound to the given name table and
// operator registry, with a fresh permanent global dictionary.
func NewEngine(names *NameTable, reg *Registry) *Engine {
	return &Engine{
		names: names,
		reg:   reg,
		dicts: NewDictStack(NewDictionary()),
	}
}

// Names returns the engine's name table.
func (e *Engine) Names() *NameTable { return e.names }

// Registry returns the operator registry.
func (e *Engine) Registry() *Registry { return e.reg }

// Dicts returns the dictionary stack.
func (e *Engine) Dicts() *DictStack { return e.dicts }

// Globals returns the permanent bottom dictionary.
func (e *Engine) Globals() *Dictionary { return e.dicts.Globals() }

// Operands returns the operand stack for operator implementations.
func (e *Engine) Operands() *OperandStack { return &e.ops }

// CurrentOp returns the operator name active in the current step, for
// condition context.
func (e *Engine) CurrentOp() *Name { return e.currentOp }

// SetStepLimit bounds the number of cycle steps per Run call. Exceeding the
// bound raises a HostError condition. Zero disables the bound.
func (e *Engine) SetStepLimit(n int64) { e.stepLimit = n }

// Halt requests termination: the engine discards pending work at the end of
// the current step and Run returns without a condition.
func (e *Engine) Halt() { e.halted = true }

// Halted reports whether Halt was requested.
func (e *Engine) Halted() bool { return e.halted }

// ---------------------------------------------------------------------------
// Top-level run loop
// ---------------------------------------------------------------------------

// Run interprets tokens to completion. On an unhandled condition it unwinds
// every dictionary frame above the global one, captures the remaining
// operand stack into the condition for diagnostics, clears both stacks, and
// returns the condition with the engine idle and ready for the next
// program. A nil return means every token was consumed (or Halt was
// requested).
func (e *Engine) Run(tokens []Token) *Condition {
	if len(tokens) == 0 {
		return nil
	}
	e.halted = false
	e.steps = 0
	e.exec.splice(tokens)

	for !e.exec.empty() && !e.halted {
		if e.stepLimit > 0 && e.steps >= e.stepLimit {
			cond := NewHostError(e.currentOp, "step limit %d exceeded", e.stepLimit)
			if !e.unwind(cond) {
				return e.report(cond)
			}
			continue
		}
		e.steps++

		t, _ := e.exec.pop()
		if cond := e.step(t); cond != nil {
			if !e.unwind(cond) {
				return e.report(cond)
			}
		}
	}
	if e.halted {
		e.exec.clear()
	}
	return nil
}

// step interprets a single token: the transition rule of the cycle.
func (e *Engine) step(t Token) *Condition {
	if t.Kind() == kindMark {
		m := t.cell.d.mark
		switch m.kind {
		case markFrame:
			e.dicts.PopFrame()
			return nil
		case markHandler:
			// Protected body completed without a condition. Unbalanced
			// begin frames above the handler frame are released with it.
			e.popToHandler()
			e.ops.Push(NewBoolean(false))
			return nil
		case markLoop:
			return m.cont(e)
		}
		return nil
	}

	if !t.IsExecutable() {
		e.ops.Push(t)
		return nil
	}

	switch t.Kind() {
	case KindName:
		return e.execName(t.Datum().Name())
	case KindOperator:
		op := t.Datum().Op()
		e.currentOp = op.Name
		return op.Fn(e)
	case KindProc:
		return e.InvokeProc(t.Datum().Proc())
	default:
		// Executable arrays (and anything else) have no operator-name
		// convention here.
		return NewNotExecutable(e.currentOp, t.Kind())
	}
}

// execName resolves an executable name: dictionary stack first, then the
// trie dispatcher.
func (e *Engine) execName(n *Name) *Condition {
	e.currentOp = n

	if bound, ok := e.dicts.Lookup(n); ok {
		if !bound.IsExecutable() {
			e.ops.Push(bound.Copy())
			return nil
		}
		switch bound.Kind() {
		case KindProc:
			return e.InvokeProc(bound.Datum().Proc())
		case KindOperator:
			op := bound.Datum().Op()
			return op.Fn(e)
		default:
			// Splice the bound token in front of the remaining work.
			e.exec.push(bound.Copy())
			return nil
		}
	}

	b, cond := e.reg.Dispatch(n, &e.ops)
	if cond != nil {
		return cond
	}
	if b.Fn != nil {
		return b.Fn(e)
	}
	return e.InvokeProc(b.Proc)
}

// InvokeProc pushes the procedure's dictionary frame and splices its body
// in front of the remaining execution stack. The frame pops when the body
// completes, or during unwind if a condition passes through.
func (e *Engine) InvokeProc(p *Procedure) *Condition {
	e.dicts.PushFrame(p.Env)
	e.exec.push(newMarkToken(&mark{kind: markFrame}))
	e.exec.splice(p.Body)
	return nil
}

// Schedule places t in front of the remaining execution stack; the engine
// interprets it on the next step.
func (e *Engine) Schedule(t Token) {
	e.exec.push(t)
}

// ---------------------------------------------------------------------------
// Condition unwinding
// ---------------------------------------------------------------------------

// unwind propagates cond toward the nearest handler frame, popping every
// intervening dictionary frame. It returns true when a handler caught the
// condition: the operand stack is truncated to its depth at handler entry
// and true is pushed for the stopped operator's result.
func (e *Engine) unwind(cond *Condition) bool {
	for {
		t, ok := e.exec.pop()
		if !ok {
			// No handler: release every frame above the global one.
			for e.dicts.Depth() > 1 {
				e.dicts.PopFrame()
			}
			return false
		}
		if t.Kind() != kindMark {
			continue
		}
		switch t.cell.d.mark.kind {
		case markFrame:
			e.dicts.PopFrame()
		case markHandler:
			depth, ok := e.popToHandler()
			if !ok {
				// Handler frame already gone; keep unwinding.
				continue
			}
			e.ops.Truncate(depth)
			e.ops.Push(NewBoolean(true))
			return true
		case markLoop:
			// Abandoned loop boundary.
		}
	}
}

// report finalizes an unhandled condition: snapshot the operand stack for
// diagnostics, then reset to the terminal idle state.
func (e *Engine) report(cond *Condition) *Condition {
	if cond.Op == nil {
		cond.Op = e.currentOp
	}
	cond.Operands = e.ops.Snapshot()
	e.ops.Clear()
	e.exec.clear()
	return cond
}

// popToHandler pops dictionary frames until a handler frame has been
// popped, returning its recorded operand depth. Plain frames between the
// top and the handler (unbalanced begins) are released on the way.
func (e *Engine) popToHandler() (int, bool) {
	for {
		if depth, ok := e.dicts.PopHandler(); ok {
			return depth, true
		}
		if e.dicts.Depth() <= 1 {
			return 0, false
		}
		e.dicts.PopFrame()
	}
}

// exitLoop implements the exit operator: discard pending work back to the
// nearest loop boundary, popping dictionary frames on the way. Crossing a
// handler boundary is not permitted.
func (e *Engine) exitLoop() *Condition {
	for {
		t, ok := e.exec.pop()
		if !ok {
			return NewHostError(e.currentOp, "exit outside a loop")
		}
		if t.Kind() != kindMark {
			continue
		}
		switch t.cell.d.mark.kind {
		case markFrame:
			e.dicts.PopFrame()
		case markHandler:
			e.dicts.PopFrame()
			return NewHostError(e.currentOp, "exit across a stopped boundary")
		case markLoop:
			return nil
		}
	}
}

// ---------------------------------------------------------------------------
// Operand helpers for operator implementations
// ---------------------------------------------------------------------------

// PopAny pops the top operand or raises ArgumentUnderflow.
func (e *Engine) PopAny() (Token, *Condition) {
	t, ok := e.ops.Pop()
	if !ok {
		return Token{}, NewUnderflow(e.currentOp, 1, 0)
	}
	return t, nil
}

// PopKind pops the top operand, requiring kind k.
func (e *Engine) PopKind(k Kind) (Token, *Condition) {
	t, ok := e.ops.Peek()
	if !ok {
		return Token{}, NewUnderflow(e.currentOp, 1, 0)
	}
	if t.Kind() != k {
		return Token{}, NewTypeMismatch(e.currentOp, k, t.Kind())
	}
	e.ops.Pop()
	return t, nil
}

// PopInt pops an integer operand as an int64.
func (e *Engine) PopInt() (int64, *Condition) {
	t, cond := e.PopKind(KindInteger)
	if cond != nil {
		return 0, cond
	}
	return t.Datum().Int(), nil
}

// PopProc pops a procedure operand.
func (e *Engine) PopProc() (*Procedure, *Condition) {
	t, cond := e.PopKind(KindProc)
	if cond != nil {
		return nil, cond
	}
	return t.Datum().Proc(), nil
}

// PopName pops a name operand (literal or executable).
func (e *Engine) PopName() (*Name, *Condition) {
	t, cond := e.PopKind(KindName)
	if cond != nil {
		return nil, cond
	}
	return t.Datum().Name(), nil
}
