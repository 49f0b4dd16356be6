package interp

// ---------------------------------------------------------------------------
// Control Primitives
// ---------------------------------------------------------------------------

// loopToken builds the self-rescheduling execution-stack token that drives
// loop, repeat, for and forall. Each time the engine reaches the token it
// calls step; returning reschedule=true pushes the token back and invokes
// body for one more iteration. exit discards the token.
func loopToken(body *Procedure, step func(e *Engine) (reschedule bool, cond *Condition)) Token {
	m := &mark{kind: markLoop}
	tok := newMarkToken(m)
	m.cont = func(e *Engine) *Condition {
		again, cond := step(e)
		if cond != nil || !again {
			return cond
		}
		e.Schedule(tok)
		return e.InvokeProc(body)
	}
	return tok
}

func registerControlOps(s *opSet) {
	// any exec - execute the value: procedures run, executable tokens are
	// rescheduled, plain literals push back unchanged
	s.op("exec", []Kind{AnyKind}, func(e *Engine) *Condition {
		t, _ := e.Operands().Pop()
		switch {
		case t.Kind() == KindProc:
			return e.InvokeProc(t.Datum().Proc())
		case t.IsExecutable():
			e.Schedule(t)
			return nil
		default:
			e.Operands().Push(t)
			return nil
		}
	})

	// bool proc if
	s.op("if", []Kind{KindProc, KindBoolean}, func(e *Engine) *Condition {
		p, _ := e.PopProc()
		b, _ := e.Operands().Pop()
		if b.Datum().Bool() {
			return e.InvokeProc(p)
		}
		return nil
	})

	// bool procTrue procFalse ifelse
	s.op("ifelse", []Kind{KindProc, KindProc, KindBoolean}, func(e *Engine) *Condition {
		pf, _ := e.PopProc()
		pt, _ := e.PopProc()
		b, _ := e.Operands().Pop()
		if b.Datum().Bool() {
			return e.InvokeProc(pt)
		}
		return e.InvokeProc(pf)
	})

	// n proc repeat
	s.op("repeat", []Kind{KindProc, KindInteger}, func(e *Engine) *Condition {
		p, _ := e.PopProc()
		n, _ := e.PopInt()
		if n < 0 {
			return NewHostError(e.CurrentOp(), "negative repeat count %d", n)
		}
		remaining := n
		e.Schedule(loopToken(p, func(e *Engine) (bool, *Condition) {
			if remaining <= 0 {
				return false, nil
			}
			remaining--
			return true, nil
		}))
		return nil
	})

	// proc loop - runs until exit or a condition
	s.op("loop", []Kind{KindProc}, func(e *Engine) *Condition {
		p, _ := e.PopProc()
		e.Schedule(loopToken(p, func(e *Engine) (bool, *Condition) {
			return true, nil
		}))
		return nil
	})

	// initial increment limit proc for - pushes the control value before
	// each iteration; integer when every bound is an integer
	s.op("for", []Kind{KindProc, AnyKind, AnyKind, AnyKind}, func(e *Engine) *Condition {
		p, _ := e.PopProc()
		limT, _ := e.Operands().Pop()
		incT, _ := e.Operands().Pop()
		iniT, _ := e.Operands().Pop()
		for _, t := range []Token{iniT, incT, limT} {
			if !t.Datum().IsNumeric() {
				return NewTypeMismatch(e.CurrentOp(), KindFloat, t.Kind())
			}
		}
		asInt := iniT.Kind() == KindInteger && incT.Kind() == KindInteger && limT.Kind() == KindInteger
		control := iniT.Datum().Num()
		incr := incT.Datum().Num()
		limit := limT.Datum().Num()
		e.Schedule(loopToken(p, func(e *Engine) (bool, *Condition) {
			if (incr >= 0 && control > limit) || (incr < 0 && control < limit) {
				return false, nil
			}
			if asInt {
				e.Operands().Push(NewInteger(int64(control)))
			} else {
				e.Operands().Push(NewFloat(control))
			}
			control += incr
			return true, nil
		}))
		return nil
	})

	// container proc forall - one iteration per element (array) or binding
	// (dictionary: key then value are pushed)
	forall := func(e *Engine, it *Iterator, p *Procedure) *Condition {
		e.Schedule(loopToken(p, func(e *Engine) (bool, *Condition) {
			step, more := it.Next()
			if !more {
				return false, nil
			}
			for _, t := range step {
				e.Operands().Push(t)
			}
			return true, nil
		}))
		return nil
	}
	s.op("forall", []Kind{KindProc, KindArray}, func(e *Engine) *Condition {
		p, _ := e.PopProc()
		at, _ := e.Operands().Pop()
		return forall(e, NewArrayIterator(at.Datum().Array()), p)
	})
	s.op("forall", []Kind{KindProc, KindDict}, func(e *Engine) *Condition {
		p, _ := e.PopProc()
		dt, _ := e.Operands().Pop()
		return forall(e, NewDictIterator(dt.Datum().Dict()), p)
	})

	// exit - leave the nearest enclosing loop
	s.op("exit", nil, func(e *Engine) *Condition {
		return e.exitLoop()
	})

	// stop - raise a condition caught by the nearest stopped
	s.op("stop", nil, func(e *Engine) *Condition {
		return NewHostError(e.CurrentOp(), "stop requested")
	})

	// proc stopped - run proc under a handler frame; pushes false on normal
	// completion, true when a condition unwound to the handler (with the
	// operand stack restored to its depth at handler entry)
	s.op("stopped", []Kind{KindProc}, func(e *Engine) *Condition {
		p, _ := e.PopProc()
		e.Dicts().PushHandlerFrame(e.Operands().Depth())
		e.Schedule(newMarkToken(&mark{kind: markHandler}))
		return e.InvokeProc(p)
	})

	// quit - request engine termination
	s.op("quit", nil, func(e *Engine) *Condition {
		e.Halt()
		return nil
	})
}

// ---------------------------------------------------------------------------
// Iterator Primitives
// ---------------------------------------------------------------------------

func registerIteratorOps(s *opSet) {
	// container iterator - push a cursor over the container
	s.op("iterator", []Kind{KindArray}, func(e *Engine) *Condition {
		at, _ := e.Operands().Pop()
		e.Operands().Push(NewIterator(NewArrayIterator(at.Datum().Array())))
		return nil
	})
	s.op("iterator", []Kind{KindDict}, func(e *Engine) *Condition {
		dt, _ := e.Operands().Pop()
		e.Operands().Push(NewIterator(NewDictIterator(dt.Datum().Dict())))
		return nil
	})

	// iter next - advance the cursor. Pushes the cursor back, then the
	// yielded tokens and true; or just the cursor and false when exhausted.
	s.op("next", []Kind{KindIterator}, func(e *Engine) *Condition {
		it, _ := e.Operands().Pop()
		step, more := it.Mutable().Iter().Next()
		e.Operands().Push(it)
		for _, t := range step {
			e.Operands().Push(t)
		}
		e.Operands().Push(NewBoolean(more))
		return nil
	})
}

// ---------------------------------------------------------------------------
// Conversion Primitives
// ---------------------------------------------------------------------------

func registerConvertOps(s *opSet) {
	// any cvs - render as source text
	s.op("cvs", []Kind{AnyKind}, func(e *Engine) *Condition {
		t, _ := e.Operands().Pop()
		e.Operands().Push(NewString(t.String()))
		return nil
	})

	// any cvx - mark executable
	s.op("cvx", []Kind{AnyKind}, func(e *Engine) *Condition {
		t, _ := e.Operands().Pop()
		e.Operands().Push(t.AsExecutable())
		return nil
	})

	// any cvlit - mark literal
	s.op("cvlit", []Kind{AnyKind}, func(e *Engine) *Condition {
		t, _ := e.Operands().Pop()
		e.Operands().Push(t.AsLiteral())
		return nil
	})

	// any type - push the kind as a literal name
	s.op("type", []Kind{AnyKind}, func(e *Engine) *Condition {
		t, _ := e.Operands().Pop()
		e.Operands().Push(NewLiteralName(e.Names().Intern(t.Kind().String())))
		return nil
	})
}
