package interp

import "sort"

// ---------------------------------------------------------------------------
// Dictionary: name -> token mapping
// ---------------------------------------------------------------------------

// Dictionary is an unordered mapping from interned names to tokens. Keys are
// unique; insertion order is irrelevant.
type Dictionary struct {
	entries map[*Name]Token
}

// NewDictionary creates an empty dictionary.
func NewDictionary() *Dictionary {
	return &Dictionary{entries: make(map[*Name]Token)}
}

// Define inserts or overwrites the binding for n.
func (d *Dictionary) Define(n *Name, t Token) {
	d.entries[n] = t
}

// Lookup returns the binding for n, if present.
func (d *Dictionary) Lookup(n *Name) (Token, bool) {
	t, ok := d.entries[n]
	return t, ok
}

// Known reports whether n is bound.
func (d *Dictionary) Known(n *Name) bool {
	_, ok := d.entries[n]
	return ok
}

// Remove deletes the binding for n, if present.
func (d *Dictionary) Remove(n *Name) {
	delete(d.entries, n)
}

// Len returns the number of bindings.
func (d *Dictionary) Len() int { return len(d.entries) }

// ForEach visits every binding in name order. Deterministic order keeps
// rendering and snapshots stable.
func (d *Dictionary) ForEach(fn func(n *Name, t Token)) {
	names := make([]*Name, 0, len(d.entries))
	for n := range d.entries {
		names = append(names, n)
	}
	sort.Slice(names, func(i, j int) bool { return names[i].String() < names[j].String() })
	for _, n := range names {
		fn(n, d.entries[n])
	}
}

// Clone returns a copy with an independent entry table. The bound tokens
// stay shared (copy-on-write).
func (d *Dictionary) Clone() *Dictionary {
	c := &Dictionary{entries: make(map[*Name]Token, len(d.entries))}
	for n, t := range d.entries {
		c.entries[n] = t.Copy()
	}
	return c
}

// Equal reports entry-wise deep equality.
func (d *Dictionary) Equal(o *Dictionary) bool {
	if len(d.entries) != len(o.entries) {
		return false
	}
	for n, t := range d.entries {
		ot, ok := o.entries[n]
		if !ok || !t.Equal(ot) {
			return false
		}
	}
	return true
}

// ---------------------------------------------------------------------------
// DictStack: the scoping chain
// ---------------------------------------------------------------------------

// frame is one dictionary on the stack. Handler frames additionally record
// the operand depth to restore when a condition unwinds to them.
type frame struct {
	dict    *Dictionary
	handler bool
	opDepth int
}

// DictStack is the ordered chain of dictionaries searched during lookup.
// The bottom frame is the permanent global dictionary and is never popped.
type DictStack struct {
	frames []frame
}

// NewDictStack creates a stack whose bottom frame is globals.
func NewDictStack(globals *Dictionary) *DictStack {
	return &DictStack{frames: []frame{{dict: globals}}}
}

// Globals returns the permanent bottom dictionary.
func (s *DictStack) Globals() *Dictionary { return s.frames[0].dict }

// Top returns the dictionary of the topmost frame.
func (s *DictStack) Top() *Dictionary { return s.frames[len(s.frames)-1].dict }

// Depth returns the number of frames, including the global frame.
func (s *DictStack) Depth() int { return len(s.frames) }

// PushFrame pushes d as a new topmost frame. A nil d pushes a fresh
// dictionary.
func (s *DictStack) PushFrame(d *Dictionary) {
	if d == nil {
		d = NewDictionary()
	}
	s.frames = append(s.frames, frame{dict: d})
}

// PushHandlerFrame pushes a frame marked as a condition handler, recording
// the operand depth to restore on unwind.
func (s *DictStack) PushHandlerFrame(opDepth int) {
	s.frames = append(s.frames, frame{dict: NewDictionary(), handler: true, opDepth: opDepth})
}

// PopFrame removes the topmost frame and discards its bindings. The global
// frame is never popped.
func (s *DictStack) PopFrame() {
	if len(s.frames) <= 1 {
		return
	}
	s.frames = s.frames[:len(s.frames)-1]
}

// PopPlainFrame pops the topmost frame only if it is an ordinary frame:
// not the global bottom, not a handler boundary. It backs the end operator.
func (s *DictStack) PopPlainFrame() bool {
	if len(s.frames) <= 1 || s.frames[len(s.frames)-1].handler {
		return false
	}
	s.frames = s.frames[:len(s.frames)-1]
	return true
}

// PopHandler pops the topmost frame if it is a handler frame, returning the
// operand depth recorded at handler entry.
func (s *DictStack) PopHandler() (int, bool) {
	top := &s.frames[len(s.frames)-1]
	if len(s.frames) <= 1 || !top.handler {
		return 0, false
	}
	depth := top.opDepth
	s.frames = s.frames[:len(s.frames)-1]
	return depth, true
}

// Define binds n in the topmost frame.
func (s *DictStack) Define(n *Name, t Token) {
	s.Top().Define(n, t)
}

// Lookup searches frames top to bottom and returns the first binding.
// Absence is not an error by itself; callers decide.
func (s *DictStack) Lookup(n *Name) (Token, bool) {
	for i := len(s.frames) - 1; i >= 0; i-- {
		if t, ok := s.frames[i].dict.Lookup(n); ok {
			return t, true
		}
	}
	return Token{}, false
}

// Where returns the topmost dictionary binding n, if any.
func (s *DictStack) Where(n *Name) (*Dictionary, bool) {
	for i := len(s.frames) - 1; i >= 0; i-- {
		if s.frames[i].dict.Known(n) {
			return s.frames[i].dict, true
		}
	}
	return nil, false
}
