package interp

// ---------------------------------------------------------------------------
// Operand and execution stacks
// ---------------------------------------------------------------------------

// OperandStack is the value stack of the interpretation cycle.
type OperandStack struct {
	toks []Token
}

// Push places t on top.
func (s *OperandStack) Push(t Token) {
	s.toks = append(s.toks, t)
}

// Pop removes and returns the top token.
func (s *OperandStack) Pop() (Token, bool) {
	if len(s.toks) == 0 {
		return Token{}, false
	}
	t := s.toks[len(s.toks)-1]
	s.toks = s.toks[:len(s.toks)-1]
	return t, true
}

// Peek returns the top token without removing it.
func (s *OperandStack) Peek() (Token, bool) {
	return s.PeekN(0)
}

// PeekN returns the token n positions below the top (0 is the top).
func (s *OperandStack) PeekN(n int) (Token, bool) {
	if n < 0 || n >= len(s.toks) {
		return Token{}, false
	}
	return s.toks[len(s.toks)-1-n], true
}

// Depth returns the number of tokens on the stack.
func (s *OperandStack) Depth() int { return len(s.toks) }

// Truncate discards tokens until the stack depth is n.
func (s *OperandStack) Truncate(n int) {
	if n < 0 {
		n = 0
	}
	if n < len(s.toks) {
		s.toks = s.toks[:n]
	}
}

// Clear discards every token.
func (s *OperandStack) Clear() { s.toks = s.toks[:0] }

// Snapshot returns a bottom-to-top copy of the stack for diagnostics.
func (s *OperandStack) Snapshot() []Token {
	out := make([]Token, len(s.toks))
	for i := range s.toks {
		out[i] = s.toks[i].Copy()
	}
	return out
}

// execStack is the pending-work stack. The top (next token to interpret)
// sits at the end of the slice. Splicing pushes a procedure body so its
// first token is interpreted next, which is what bounds native call depth
// independent of user-level procedure nesting.
type execStack struct {
	toks []Token
}

func (s *execStack) push(t Token) {
	s.toks = append(s.toks, t)
}

func (s *execStack) pop() (Token, bool) {
	if len(s.toks) == 0 {
		return Token{}, false
	}
	t := s.toks[len(s.toks)-1]
	s.toks = s.toks[:len(s.toks)-1]
	return t, true
}

// splice pushes body so that body[0] is the next token interpreted and the
// previously pending work resumes after body[len-1].
func (s *execStack) splice(body []Token) {
	for i := len(body) - 1; i >= 0; i-- {
		s.toks = append(s.toks, body[i].Copy())
	}
}

func (s *execStack) empty() bool { return len(s.toks) == 0 }

func (s *execStack) clear() { s.toks = s.toks[:0] }

func (s *execStack) depth() int { return len(s.toks) }
