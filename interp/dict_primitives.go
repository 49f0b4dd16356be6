package interp

// ---------------------------------------------------------------------------
// Dictionary Primitives
// ---------------------------------------------------------------------------

func registerDictOps(s *opSet) {
	// /name value def - bind in the topmost frame
	s.op("def", []Kind{AnyKind, KindName}, func(e *Engine) *Condition {
		v, _ := e.Operands().Pop()
		n, _ := e.Operands().Pop()
		e.Dicts().Define(n.Datum().Name(), v)
		return nil
	})

	// /name load - push the value bound to name
	s.op("load", []Kind{KindName}, func(e *Engine) *Condition {
		n, _ := e.Operands().Pop()
		t, found := e.Dicts().Lookup(n.Datum().Name())
		if !found {
			return NewUndefined(n.Datum().Name())
		}
		e.Operands().Push(t.Copy())
		return nil
	})

	// /name value store - rebind where name is already bound, else define
	s.op("store", []Kind{AnyKind, KindName}, func(e *Engine) *Condition {
		v, _ := e.Operands().Pop()
		nt, _ := e.Operands().Pop()
		n := nt.Datum().Name()
		if d, found := e.Dicts().Where(n); found {
			d.Define(n, v)
			return nil
		}
		e.Dicts().Define(n, v)
		return nil
	})

	// dict begin - push the dictionary as the topmost frame. The frame is
	// the token's own datum, cloned first when shared, so defs in the frame
	// never reach a prior binding of the same dictionary.
	s.op("begin", []Kind{KindDict}, func(e *Engine) *Condition {
		t, _ := e.Operands().Pop()
		e.Dicts().PushFrame(t.Mutable().Dict())
		return nil
	})

	// end - pop the frame pushed by begin
	s.op("end", nil, func(e *Engine) *Condition {
		if !e.Dicts().PopPlainFrame() {
			return NewHostError(e.CurrentOp(), "end without matching begin")
		}
		return nil
	})

	// dict - create an empty dictionary
	s.op("dict", nil, func(e *Engine) *Condition {
		e.Operands().Push(NewDict(NewDictionary()))
		return nil
	})

	// dict /key value put - bind key in the dictionary, push the result.
	// Dictionaries have copy-on-write value semantics, so put pushes the
	// updated dictionary instead of mutating in place.
	s.op("put", []Kind{AnyKind, KindName, KindDict}, func(e *Engine) *Condition {
		v, _ := e.Operands().Pop()
		k, _ := e.Operands().Pop()
		dt, _ := e.Operands().Pop()
		dt.Mutable().Dict().Define(k.Datum().Name(), v)
		e.Operands().Push(dt)
		return nil
	})

	// dict /key get - push the value bound to key
	s.op("get", []Kind{KindName, KindDict}, func(e *Engine) *Condition {
		k, _ := e.Operands().Pop()
		dt, _ := e.Operands().Pop()
		v, found := dt.Datum().Dict().Lookup(k.Datum().Name())
		if !found {
			return NewHostError(e.CurrentOp(), "key /%s not known", k.Datum().Name())
		}
		e.Operands().Push(v.Copy())
		return nil
	})

	// dict /key known - push whether key is bound
	s.op("known", []Kind{KindName, KindDict}, func(e *Engine) *Condition {
		k, _ := e.Operands().Pop()
		dt, _ := e.Operands().Pop()
		e.Operands().Push(NewBoolean(dt.Datum().Dict().Known(k.Datum().Name())))
		return nil
	})

	// /name where - push the defining dictionary and true, or false. The
	// pushed dictionary is a live view of that frame.
	s.op("where", []Kind{KindName}, func(e *Engine) *Condition {
		nt, _ := e.Operands().Pop()
		if d, found := e.Dicts().Where(nt.Datum().Name()); found {
			e.Operands().Push(NewDict(d))
			e.Operands().Push(NewBoolean(true))
			return nil
		}
		e.Operands().Push(NewBoolean(false))
		return nil
	})

	// currentdict - push the topmost frame's dictionary. Like where, the
	// result is a live view into the scope chain; later defs in the frame
	// show through it.
	s.op("currentdict", nil, func(e *Engine) *Condition {
		e.Operands().Push(NewDict(e.Dicts().Top()))
		return nil
	})
}
