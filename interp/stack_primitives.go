package interp

// ---------------------------------------------------------------------------
// Stack Primitives
// ---------------------------------------------------------------------------

func registerStackOps(s *opSet) {
	// pop - discard the top operand
	s.op("pop", []Kind{AnyKind}, func(e *Engine) *Condition {
		e.Operands().Pop()
		return nil
	})

	// dup - duplicate the top operand (O(1), shares the datum)
	s.op("dup", []Kind{AnyKind}, func(e *Engine) *Condition {
		t, _ := e.Operands().Peek()
		e.Operands().Push(t.Copy())
		return nil
	})

	// exch - swap the two topmost operands
	s.op("exch", []Kind{AnyKind, AnyKind}, func(e *Engine) *Condition {
		a, _ := e.Operands().Pop()
		b, _ := e.Operands().Pop()
		e.Operands().Push(a)
		e.Operands().Push(b)
		return nil
	})

	// n copy - duplicate the topmost n operands
	s.op("copy", []Kind{KindInteger}, func(e *Engine) *Condition {
		n, cond := e.PopInt()
		if cond != nil {
			return cond
		}
		if n < 0 {
			return NewHostError(e.CurrentOp(), "negative count %d", n)
		}
		depth := e.Operands().Depth()
		if int(n) > depth {
			return NewUnderflow(e.CurrentOp(), int(n), depth)
		}
		for i := 0; i < int(n); i++ {
			t, _ := e.Operands().PeekN(int(n) - 1)
			e.Operands().Push(t.Copy())
		}
		return nil
	})

	// n index - duplicate the operand n positions below the top
	s.op("index", []Kind{KindInteger}, func(e *Engine) *Condition {
		n, cond := e.PopInt()
		if cond != nil {
			return cond
		}
		t, ok := e.Operands().PeekN(int(n))
		if !ok {
			return NewUnderflow(e.CurrentOp(), int(n)+1, e.Operands().Depth())
		}
		e.Operands().Push(t.Copy())
		return nil
	})

	// count - push the operand stack depth
	s.op("count", nil, func(e *Engine) *Condition {
		e.Operands().Push(NewInteger(int64(e.Operands().Depth())))
		return nil
	})

	// clear - discard every operand
	s.op("clear", nil, func(e *Engine) *Condition {
		e.Operands().Clear()
		return nil
	})

	// n j roll - rotate the topmost n operands by j places
	s.op("roll", []Kind{KindInteger, KindInteger}, func(e *Engine) *Condition {
		j, cond := e.PopInt()
		if cond != nil {
			return cond
		}
		n, cond := e.PopInt()
		if cond != nil {
			return cond
		}
		if n < 0 {
			return NewHostError(e.CurrentOp(), "negative count %d", n)
		}
		depth := e.Operands().Depth()
		if int(n) > depth {
			return NewUnderflow(e.CurrentOp(), int(n), depth)
		}
		if n == 0 {
			return nil
		}
		window := make([]Token, n)
		for i := int(n) - 1; i >= 0; i-- {
			window[i], _ = e.Operands().Pop()
		}
		shift := ((int(j) % int(n)) + int(n)) % int(n)
		for i := 0; i < int(n); i++ {
			e.Operands().Push(window[(i+int(n)-shift)%int(n)])
		}
		return nil
	})
}
