package interp

import "strings"

// ---------------------------------------------------------------------------
// Array Primitives
// ---------------------------------------------------------------------------

func registerArrayOps(s *opSet) {
	// length - element count, overloaded per container
	s.op("length", []Kind{KindArray}, func(e *Engine) *Condition {
		t, _ := e.Operands().Pop()
		e.Operands().Push(NewInteger(int64(len(t.Datum().Array()))))
		return nil
	})
	s.op("length", []Kind{KindDict}, func(e *Engine) *Condition {
		t, _ := e.Operands().Pop()
		e.Operands().Push(NewInteger(int64(t.Datum().Dict().Len())))
		return nil
	})
	s.op("length", []Kind{KindString}, func(e *Engine) *Condition {
		t, _ := e.Operands().Pop()
		e.Operands().Push(NewInteger(int64(len(t.Datum().Str()))))
		return nil
	})
	s.op("length", []Kind{KindName}, func(e *Engine) *Condition {
		t, _ := e.Operands().Pop()
		e.Operands().Push(NewInteger(int64(len(t.Datum().Name().String()))))
		return nil
	})

	// array index get - push the element at index
	s.op("get", []Kind{KindInteger, KindArray}, func(e *Engine) *Condition {
		i, _ := e.PopInt()
		at, _ := e.Operands().Pop()
		items := at.Datum().Array()
		if i < 0 || int(i) >= len(items) {
			return NewHostError(e.CurrentOp(), "index %d out of range [0,%d)", i, len(items))
		}
		e.Operands().Push(items[i].Copy())
		return nil
	})

	// array index value put - replace the element, push the result array.
	// Arrays have copy-on-write value semantics; see the dictionary put.
	s.op("put", []Kind{AnyKind, KindInteger, KindArray}, func(e *Engine) *Condition {
		v, _ := e.Operands().Pop()
		it, _ := e.Operands().Pop()
		at, _ := e.Operands().Pop()
		i := it.Datum().Int()
		d := at.Mutable()
		items := d.Array()
		if i < 0 || int(i) >= len(items) {
			return NewHostError(e.CurrentOp(), "index %d out of range [0,%d)", i, len(items))
		}
		items[i] = v
		e.Operands().Push(at)
		return nil
	})

	// array index count getinterval - push a copy of the subsequence
	s.op("getinterval", []Kind{KindInteger, KindInteger, KindArray}, func(e *Engine) *Condition {
		n, _ := e.PopInt()
		i, _ := e.PopInt()
		at, _ := e.Operands().Pop()
		items := at.Datum().Array()
		if i < 0 || n < 0 || int(i+n) > len(items) {
			return NewHostError(e.CurrentOp(), "interval [%d,%d) out of range [0,%d)", i, i+n, len(items))
		}
		e.Operands().Push(NewArray(copyTokens(items[i : i+n])))
		return nil
	})

	// array aload - push every element, then the array itself
	s.op("aload", []Kind{KindArray}, func(e *Engine) *Condition {
		at, _ := e.Operands().Pop()
		for _, t := range at.Datum().Array() {
			e.Operands().Push(t.Copy())
		}
		e.Operands().Push(at)
		return nil
	})
}

// ---------------------------------------------------------------------------
// String Primitives
// ---------------------------------------------------------------------------

func registerStringOps(s *opSet) {
	// string index get - push the byte at index
	s.op("get", []Kind{KindInteger, KindString}, func(e *Engine) *Condition {
		i, _ := e.PopInt()
		st, _ := e.Operands().Pop()
		str := st.Datum().Str()
		if i < 0 || int(i) >= len(str) {
			return NewHostError(e.CurrentOp(), "index %d out of range [0,%d)", i, len(str))
		}
		e.Operands().Push(NewInteger(int64(str[i])))
		return nil
	})

	// string index count getinterval - push the substring
	s.op("getinterval", []Kind{KindInteger, KindInteger, KindString}, func(e *Engine) *Condition {
		n, _ := e.PopInt()
		i, _ := e.PopInt()
		st, _ := e.Operands().Pop()
		str := st.Datum().Str()
		if i < 0 || n < 0 || int(i+n) > len(str) {
			return NewHostError(e.CurrentOp(), "interval [%d,%d) out of range [0,%d)", i, i+n, len(str))
		}
		e.Operands().Push(NewString(str[i : i+n]))
		return nil
	})

	// string pattern search - push first index and true, or false
	s.op("search", []Kind{KindString, KindString}, func(e *Engine) *Condition {
		pt, _ := e.Operands().Pop()
		st, _ := e.Operands().Pop()
		idx := strings.Index(st.Datum().Str(), pt.Datum().Str())
		if idx < 0 {
			e.Operands().Push(NewBoolean(false))
			return nil
		}
		e.Operands().Push(NewInteger(int64(idx)))
		e.Operands().Push(NewBoolean(true))
		return nil
	})
}
