package interp

import "math"

// ---------------------------------------------------------------------------
// Arithmetic Primitives
// ---------------------------------------------------------------------------

// numericOverloads registers the four integer/float signature combinations
// for a binary operator. The integer path runs only when both operands are
// integers; any float promotes the whole operation.
func numericOverloads(s *opSet, name string,
	intFn func(a, b int64) (Token, *Condition),
	floatFn func(a, b float64) (Token, *Condition)) {

	both := func(e *Engine) *Condition {
		bt, _ := e.Operands().Pop()
		at, _ := e.Operands().Pop()
		if at.Kind() == KindInteger && bt.Kind() == KindInteger {
			r, cond := intFn(at.Datum().Int(), bt.Datum().Int())
			if cond != nil {
				return cond
			}
			e.Operands().Push(r)
			return nil
		}
		r, cond := floatFn(at.Datum().Num(), bt.Datum().Num())
		if cond != nil {
			return cond
		}
		e.Operands().Push(r)
		return nil
	}

	for _, sig := range numericSigs {
		s.op(name, sig, both)
	}
}

var numericSigs = [][]Kind{
	{KindInteger, KindInteger},
	{KindInteger, KindFloat},
	{KindFloat, KindInteger},
	{KindFloat, KindFloat},
}

func ok(t Token) (Token, *Condition) { return t, nil }

func registerMathOps(s *opSet) {
	numericOverloads(s, "add",
		func(a, b int64) (Token, *Condition) { return ok(NewInteger(a + b)) },
		func(a, b float64) (Token, *Condition) { return ok(NewFloat(a + b)) })

	numericOverloads(s, "sub",
		func(a, b int64) (Token, *Condition) { return ok(NewInteger(a - b)) },
		func(a, b float64) (Token, *Condition) { return ok(NewFloat(a - b)) })

	numericOverloads(s, "mul",
		func(a, b int64) (Token, *Condition) { return ok(NewInteger(a * b)) },
		func(a, b float64) (Token, *Condition) { return ok(NewFloat(a * b)) })

	// div always yields a float; idiv is the integer quotient.
	numericOverloads(s, "div",
		func(a, b int64) (Token, *Condition) {
			if b == 0 {
				return Token{}, NewHostError(nil, "division by zero")
			}
			return ok(NewFloat(float64(a) / float64(b)))
		},
		func(a, b float64) (Token, *Condition) {
			if b == 0 {
				return Token{}, NewHostError(nil, "division by zero")
			}
			return ok(NewFloat(a / b))
		})

	s.op("idiv", []Kind{KindInteger, KindInteger}, func(e *Engine) *Condition {
		b, _ := e.PopInt()
		a, _ := e.PopInt()
		if b == 0 {
			return NewHostError(e.CurrentOp(), "division by zero")
		}
		e.Operands().Push(NewInteger(a / b))
		return nil
	})

	s.op("mod", []Kind{KindInteger, KindInteger}, func(e *Engine) *Condition {
		b, _ := e.PopInt()
		a, _ := e.PopInt()
		if b == 0 {
			return NewHostError(e.CurrentOp(), "division by zero")
		}
		e.Operands().Push(NewInteger(a % b))
		return nil
	})

	// add doubles as concatenation for strings and arrays.
	s.op("add", []Kind{KindString, KindString}, func(e *Engine) *Condition {
		b, _ := e.Operands().Pop()
		a, _ := e.Operands().Pop()
		e.Operands().Push(NewString(a.Datum().Str() + b.Datum().Str()))
		return nil
	})

	s.op("add", []Kind{KindArray, KindArray}, func(e *Engine) *Condition {
		b, _ := e.Operands().Pop()
		a, _ := e.Operands().Pop()
		as, bs := a.Datum().Array(), b.Datum().Array()
		out := make([]Token, 0, len(as)+len(bs))
		for i := range as {
			out = append(out, as[i].Copy())
		}
		for i := range bs {
			out = append(out, bs[i].Copy())
		}
		e.Operands().Push(NewArray(out))
		return nil
	})

	s.op("neg", []Kind{KindInteger}, func(e *Engine) *Condition {
		a, _ := e.PopInt()
		e.Operands().Push(NewInteger(-a))
		return nil
	})
	s.op("neg", []Kind{KindFloat}, func(e *Engine) *Condition {
		t, _ := e.Operands().Pop()
		e.Operands().Push(NewFloat(-t.Datum().Float()))
		return nil
	})

	s.op("abs", []Kind{KindInteger}, func(e *Engine) *Condition {
		a, _ := e.PopInt()
		if a < 0 {
			a = -a
		}
		e.Operands().Push(NewInteger(a))
		return nil
	})
	s.op("abs", []Kind{KindFloat}, func(e *Engine) *Condition {
		t, _ := e.Operands().Pop()
		e.Operands().Push(NewFloat(math.Abs(t.Datum().Float())))
		return nil
	})
}

// ---------------------------------------------------------------------------
// Comparison Primitives
// ---------------------------------------------------------------------------

func registerCompareOps(s *opSet) {
	// eq / ne - deep equality on any two values
	s.op("eq", []Kind{AnyKind, AnyKind}, func(e *Engine) *Condition {
		b, _ := e.Operands().Pop()
		a, _ := e.Operands().Pop()
		e.Operands().Push(NewBoolean(a.Equal(b)))
		return nil
	})
	s.op("ne", []Kind{AnyKind, AnyKind}, func(e *Engine) *Condition {
		b, _ := e.Operands().Pop()
		a, _ := e.Operands().Pop()
		e.Operands().Push(NewBoolean(!a.Equal(b)))
		return nil
	})

	ordered := func(name string, num func(a, b float64) bool, str func(a, b string) bool) {
		for _, sig := range numericSigs {
			s.op(name, sig, func(e *Engine) *Condition {
				b, _ := e.Operands().Pop()
				a, _ := e.Operands().Pop()
				e.Operands().Push(NewBoolean(num(a.Datum().Num(), b.Datum().Num())))
				return nil
			})
		}
		s.op(name, []Kind{KindString, KindString}, func(e *Engine) *Condition {
			b, _ := e.Operands().Pop()
			a, _ := e.Operands().Pop()
			e.Operands().Push(NewBoolean(str(a.Datum().Str(), b.Datum().Str())))
			return nil
		})
	}

	ordered("gt", func(a, b float64) bool { return a > b }, func(a, b string) bool { return a > b })
	ordered("lt", func(a, b float64) bool { return a < b }, func(a, b string) bool { return a < b })
	ordered("ge", func(a, b float64) bool { return a >= b }, func(a, b string) bool { return a >= b })
	ordered("le", func(a, b float64) bool { return a <= b }, func(a, b string) bool { return a <= b })
}

// ---------------------------------------------------------------------------
// Boolean Primitives
// ---------------------------------------------------------------------------

func registerBooleanOps(s *opSet) {
	logical := func(name string, boolFn func(a, b bool) bool, intFn func(a, b int64) int64) {
		s.op(name, []Kind{KindBoolean, KindBoolean}, func(e *Engine) *Condition {
			b, _ := e.Operands().Pop()
			a, _ := e.Operands().Pop()
			e.Operands().Push(NewBoolean(boolFn(a.Datum().Bool(), b.Datum().Bool())))
			return nil
		})
		// Bitwise on integers, as in the calculator tradition.
		s.op(name, []Kind{KindInteger, KindInteger}, func(e *Engine) *Condition {
			b, _ := e.PopInt()
			a, _ := e.PopInt()
			e.Operands().Push(NewInteger(intFn(a, b)))
			return nil
		})
	}

	logical("and", func(a, b bool) bool { return a && b }, func(a, b int64) int64 { return a & b })
	logical("or", func(a, b bool) bool { return a || b }, func(a, b int64) int64 { return a | b })
	logical("xor", func(a, b bool) bool { return a != b }, func(a, b int64) int64 { return a ^ b })

	s.op("not", []Kind{KindBoolean}, func(e *Engine) *Condition {
		t, _ := e.Operands().Pop()
		e.Operands().Push(NewBoolean(!t.Datum().Bool()))
		return nil
	})
	s.op("not", []Kind{KindInteger}, func(e *Engine) *Condition {
		a, _ := e.PopInt()
		e.Operands().Push(NewInteger(^a))
		return nil
	})
}
