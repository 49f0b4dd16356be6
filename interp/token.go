package interp

import (
	"strings"
	"sync/atomic"
)

// ---------------------------------------------------------------------------
// Token: shared, flagged wrapper around one Datum
// ---------------------------------------------------------------------------

const (
	flagLiteral uint8 = 1 << iota
	flagExecutable
)

// cell is the shared payload of one or more Tokens. refs counts the tokens
// currently sharing it; mutation through Token.Mutable clones the datum
// when the count exceeds one.
type cell struct {
	refs atomic.Int32
	d    Datum
}

func newCell(d Datum) *cell {
	c := &cell{d: d}
	c.refs.Store(1)
	return c
}

// Token is the unit of currency on the operand and execution stacks: one
// shared Datum plus the literal/executable flags. Copying via Copy is O(1);
// in-place mutation goes through Mutable, which preserves copy-on-write
// isolation between copies.
type Token struct {
	flags uint8
	cell  *cell
}

// ---------------------------------------------------------------------------
// Constructors
// ---------------------------------------------------------------------------

func newLiteral(d Datum) Token {
	return Token{flags: flagLiteral, cell: newCell(d)}
}

// NewBoolean creates a literal boolean token.
func NewBoolean(b bool) Token { return newLiteral(Datum{kind: KindBoolean, b: b}) }

// NewInteger creates a literal integer token.
func NewInteger(i int64) Token { return newLiteral(Datum{kind: KindInteger, i: i}) }

// NewFloat creates a literal float token.
func NewFloat(f float64) Token { return newLiteral(Datum{kind: KindFloat, f: f}) }

// NewString creates a literal string token.
func NewString(s string) Token { return newLiteral(Datum{kind: KindString, s: s}) }

// NewLiteralName creates a quoted name token (pushed as-is by the engine).
func NewLiteralName(n *Name) Token { return newLiteral(Datum{kind: KindName, name: n}) }

// NewExecutableName creates a bare name token, eligible for dispatch.
func NewExecutableName(n *Name) Token {
	return Token{flags: flagExecutable, cell: newCell(Datum{kind: KindName, name: n})}
}

// NewArray creates a literal array token owning items.
func NewArray(items []Token) Token {
	return newLiteral(Datum{kind: KindArray, arr: items})
}

// NewProc creates a literal procedure token. The body does not execute when
// the token is pushed; it runs only when explicitly invoked.
func NewProc(body []Token) Token {
	return newLiteral(Datum{kind: KindProc, proc: &Procedure{Body: body}})
}

// NewProcWithEnv creates a procedure token whose invocations push env as
// their dictionary frame instead of a fresh one.
func NewProcWithEnv(body []Token, env *Dictionary) Token {
	return newLiteral(Datum{kind: KindProc, proc: &Procedure{Body: body, Env: env}})
}

// NewDict creates a literal dictionary token.
func NewDict(d *Dictionary) Token { return newLiteral(Datum{kind: KindDict, dict: d}) }

// NewIterator creates a literal iterator token.
func NewIterator(it *Iterator) Token { return newLiteral(Datum{kind: KindIterator, iter: it}) }

// NewOperatorToken creates an executable token holding a native operator.
func NewOperatorToken(op *Operator) Token {
	return Token{flags: flagExecutable, cell: newCell(Datum{kind: KindOperator, op: op})}
}

// NewLockedToken creates a literal token wrapping a locked host handle.
func NewLockedToken(l *Locked) Token {
	return newLiteral(Datum{kind: KindLocked, lk: l})
}

func newMarkToken(m *mark) Token {
	return Token{cell: newCell(Datum{kind: kindMark, mark: m})}
}

// ---------------------------------------------------------------------------
// Flags and access
// ---------------------------------------------------------------------------

// Kind returns the kind of the wrapped datum.
func (t Token) Kind() Kind { return t.cell.d.kind }

// IsLiteral reports whether the engine pushes the token as-is.
func (t Token) IsLiteral() bool { return t.flags&flagLiteral != 0 }

// IsExecutable reports whether the engine attempts dispatch for the token.
func (t Token) IsExecutable() bool { return t.flags&flagExecutable != 0 }

// Datum returns a read-only view of the wrapped datum. Callers must not
// mutate through it; use Mutable for writes.
func (t Token) Datum() *Datum { return &t.cell.d }

// Copy returns a new token sharing the same datum. O(1); bumps the share
// count so a later Mutable on either copy clones first.
func (t Token) Copy() Token {
	t.cell.refs.Add(1)
	return t
}

// Mutable returns the datum for in-place mutation, cloning it first when it
// is shared. After Mutable returns, no other token observes writes made
// through the returned pointer.
func (t *Token) Mutable() *Datum {
	if t.cell.refs.Load() > 1 {
		fresh := newCell(t.cell.d.clone())
		t.cell.refs.Add(-1)
		t.cell = fresh
	}
	return &t.cell.d
}

// AsExecutable returns a copy of the token marked executable (cvx).
func (t Token) AsExecutable() Token {
	c := t.Copy()
	c.flags = flagExecutable
	return c
}

// AsLiteral returns a copy of the token marked literal (cvlit).
func (t Token) AsLiteral() Token {
	c := t.Copy()
	c.flags = flagLiteral
	return c
}

// Equal reports deep equality of the wrapped datums. Flags do not
// participate: a literal 3 equals an executable 3.
func (t Token) Equal(o Token) bool {
	return t.cell.d.Equal(&o.cell.d)
}

func (t Token) render(sb *strings.Builder) {
	t.cell.d.render(sb, t.IsLiteral() && t.cell.d.kind == KindName)
}

// String renders the token as source text: literal names carry their slash,
// every other variant renders as its datum.
func (t Token) String() string {
	var sb strings.Builder
	t.render(&sb)
	return sb.String()
}
