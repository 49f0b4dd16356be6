package interp

import (
	"fmt"
	"math"
	"runtime"
	"strconv"
	"strings"
)

// ---------------------------------------------------------------------------
// Datum: the runtime value representation
// ---------------------------------------------------------------------------

// Kind identifies the concrete variant held by a Datum. The set of kinds is
// closed; every switch over Kind in this package is exhaustive.
type Kind uint8

const (
	KindBoolean Kind = iota
	KindInteger
	KindFloat
	KindString
	KindName
	KindArray
	KindDict
	KindProc
	KindIterator
	KindOperator
	KindLocked
	kindMark // internal engine bookkeeping, never user-visible

	// AnyKind is a wildcard usable in dispatch signatures. It never appears
	// as the kind of a live Datum.
	AnyKind Kind = 0xFF
)

var kindNames = map[Kind]string{
	KindBoolean:  "boolean",
	KindInteger:  "integer",
	KindFloat:    "float",
	KindString:   "string",
	KindName:     "name",
	KindArray:    "array",
	KindDict:     "dictionary",
	KindProc:     "procedure",
	KindIterator: "iterator",
	KindOperator: "operator",
	KindLocked:   "lockedpointer",
	kindMark:     "mark",
	AnyKind:      "any",
}

// String returns the lower-case kind name used in diagnostics and by the
// type operator.
func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Procedure is a deferred sequence of tokens. Env, when non-nil, is the
// dictionary pushed as the procedure's frame on invocation; when nil a
// fresh dictionary is pushed instead.
type Procedure struct {
	Body []Token
	Env  *Dictionary
}

// NativeFn is the implementation of a native operator. It manipulates the
// engine's operand stack (and, for control operators, its execution stack)
// and returns nil on success or a condition.
type NativeFn func(e *Engine) *Condition

// Operator is a native operator handle: a name plus its implementation.
type Operator struct {
	Name *Name
	Fn   NativeFn
}

// Locked is a shared, type-erased handle to a host-collaborator object.
// Ownership is joint across every Datum referencing the handle; Release
// runs exactly once, when the last reference is dropped (or eagerly via
// Close for hosts that track their own lifetime).
type Locked struct {
	Obj      any
	TypeName string
	release  func(obj any)
	released bool
}

// NewLocked wraps a host object. When release is non-nil it is invoked once
// the handle becomes unreachable from every Datum (or on Close).
func NewLocked(obj any, typeName string, release func(obj any)) *Locked {
	l := &Locked{Obj: obj, TypeName: typeName, release: release}
	if release != nil {
		runtime.SetFinalizer(l, func(l *Locked) { l.Close() })
	}
	return l
}

// Close releases the wrapped object. Safe to call more than once.
func (l *Locked) Close() {
	if l.released || l.release == nil {
		l.released = true
		return
	}
	l.released = true
	l.release(l.Obj)
}

// Datum is the polymorphic runtime value: a closed tagged union over the
// enumerated kinds. The zero Datum is the boolean false.
type Datum struct {
	kind Kind

	b    bool
	i    int64
	f    float64
	s    string
	name *Name
	arr  []Token
	dict *Dictionary
	proc *Procedure
	iter *Iterator
	op   *Operator
	lk   *Locked
	mark *mark
}

// Kind returns the variant tag.
func (d *Datum) Kind() Kind { return d.kind }

// IsNumeric reports whether d is an integer or a float.
func (d *Datum) IsNumeric() bool {
	return d.kind == KindInteger || d.kind == KindFloat
}

func (d *Datum) mustBe(k Kind) {
	if d.kind != k {
		panic(fmt.Sprintf("interp: datum is %s, not %s", d.kind, k))
	}
}

// Bool returns the boolean payload. Panics on any other kind; operator
// implementations reach values through dispatch, which has already checked
// the kind.
func (d *Datum) Bool() bool { d.mustBe(KindBoolean); return d.b }

// Int returns the integer payload.
func (d *Datum) Int() int64 { d.mustBe(KindInteger); return d.i }

// Float returns the float payload.
func (d *Datum) Float() float64 { d.mustBe(KindFloat); return d.f }

// Num returns the value as a float64, promoting integers.
func (d *Datum) Num() float64 {
	if d.kind == KindInteger {
		return float64(d.i)
	}
	d.mustBe(KindFloat)
	return d.f
}

// Str returns the string payload.
func (d *Datum) Str() string { d.mustBe(KindString); return d.s }

// Name returns the name payload.
func (d *Datum) Name() *Name { d.mustBe(KindName); return d.name }

// Array returns the array payload. The slice is owned by the datum; callers
// mutate it only through Token.Mutable.
func (d *Datum) Array() []Token { d.mustBe(KindArray); return d.arr }

// SetArray replaces the array payload. Valid only on array datums obtained
// through Token.Mutable.
func (d *Datum) SetArray(items []Token) { d.mustBe(KindArray); d.arr = items }

// SetString replaces the string payload.
func (d *Datum) SetString(s string) { d.mustBe(KindString); d.s = s }

// Dict returns the dictionary payload.
func (d *Datum) Dict() *Dictionary { d.mustBe(KindDict); return d.dict }

// Proc returns the procedure payload.
func (d *Datum) Proc() *Procedure { d.mustBe(KindProc); return d.proc }

// Iter returns the iterator payload.
func (d *Datum) Iter() *Iterator { d.mustBe(KindIterator); return d.iter }

// Op returns the native operator payload.
func (d *Datum) Op() *Operator { d.mustBe(KindOperator); return d.op }

// LockedPtr returns the locked-pointer payload.
func (d *Datum) LockedPtr() *Locked { d.mustBe(KindLocked); return d.lk }

// ---------------------------------------------------------------------------
// Deep equality
// ---------------------------------------------------------------------------

// Equal reports deep structural equality. Integers and floats compare
// numerically across kinds, names by identity, arrays and procedures
// element-wise, dictionaries entry-wise. Iterators, operators and locked
// pointers compare by identity.
func (d *Datum) Equal(o *Datum) bool {
	if d == o {
		return true
	}
	if d.IsNumeric() && o.IsNumeric() {
		if d.kind == KindInteger && o.kind == KindInteger {
			return d.i == o.i
		}
		return d.Num() == o.Num()
	}
	if d.kind != o.kind {
		return false
	}
	switch d.kind {
	case KindBoolean:
		return d.b == o.b
	case KindString:
		return d.s == o.s
	case KindName:
		return d.name == o.name
	case KindArray:
		return tokensEqual(d.arr, o.arr)
	case KindProc:
		return tokensEqual(d.proc.Body, o.proc.Body)
	case KindDict:
		return d.dict.Equal(o.dict)
	case KindIterator:
		return d.iter == o.iter
	case KindOperator:
		return d.op == o.op
	case KindLocked:
		return d.lk == o.lk
	case kindMark:
		return d.mark == o.mark
	}
	return false
}

func tokensEqual(a, b []Token) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}

// ---------------------------------------------------------------------------
// Cloning
// ---------------------------------------------------------------------------

// clone produces an independent copy for copy-on-write. Containers copy
// their spine; contained tokens stay shared (they are themselves
// copy-on-write). Procedure bodies are immutable and shared outright.
func (d *Datum) clone() Datum {
	c := *d
	switch d.kind {
	case KindArray:
		c.arr = copyTokens(d.arr)
	case KindDict:
		c.dict = d.dict.Clone()
	case KindIterator:
		it := *d.iter
		c.iter = &it
	}
	return c
}

func copyTokens(src []Token) []Token {
	out := make([]Token, len(src))
	for i := range src {
		out[i] = src[i].Copy()
	}
	return out
}

// ---------------------------------------------------------------------------
// Textual rendering
// ---------------------------------------------------------------------------

// render writes the datum in source syntax where one exists. literal
// controls how names are written: literal names carry the leading slash.
func (d *Datum) render(sb *strings.Builder, literal bool) {
	switch d.kind {
	case KindBoolean:
		if d.b {
			sb.WriteString("true")
		} else {
			sb.WriteString("false")
		}
	case KindInteger:
		sb.WriteString(strconv.FormatInt(d.i, 10))
	case KindFloat:
		sb.WriteString(formatFloat(d.f))
	case KindString:
		renderString(sb, d.s)
	case KindName:
		if literal {
			sb.WriteByte('/')
		}
		sb.WriteString(d.name.String())
	case KindArray:
		sb.WriteByte('[')
		for i := range d.arr {
			sb.WriteByte(' ')
			d.arr[i].render(sb)
		}
		sb.WriteString(" ]")
	case KindProc:
		sb.WriteByte('{')
		for i := range d.proc.Body {
			sb.WriteByte(' ')
			d.proc.Body[i].render(sb)
		}
		sb.WriteString(" }")
	case KindDict:
		sb.WriteString("<<")
		d.dict.ForEach(func(n *Name, t Token) {
			sb.WriteString(" /")
			sb.WriteString(n.String())
			sb.WriteByte(' ')
			t.render(sb)
		})
		sb.WriteString(" >>")
	case KindIterator:
		fmt.Fprintf(sb, "<iterator %s @%d>", d.iter.kindName(), d.iter.pos)
	case KindOperator:
		sb.WriteString("--")
		sb.WriteString(d.op.Name.String())
		sb.WriteString("--")
	case KindLocked:
		fmt.Fprintf(sb, "<locked %s>", d.lk.TypeName)
	case kindMark:
		sb.WriteString("<mark>")
	}
}

// String renders the datum as source text. Names render without the
// literal slash; use Token.String for flag-aware rendering.
func (d *Datum) String() string {
	var sb strings.Builder
	d.render(&sb, false)
	return sb.String()
}

// formatFloat renders f so that it re-scans as a float, never an integer.
func formatFloat(f float64) string {
	if math.IsInf(f, 1) {
		return "inf"
	}
	if math.IsInf(f, -1) {
		return "-inf"
	}
	if math.IsNaN(f) {
		return "nan"
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

func renderString(sb *strings.Builder, s string) {
	sb.WriteByte('(')
	for _, r := range s {
		switch r {
		case '(':
			sb.WriteString(`\(`)
		case ')':
			sb.WriteString(`\)`)
		case '\\':
			sb.WriteString(`\\`)
		case '\n':
			sb.WriteString(`\n`)
		case '\t':
			sb.WriteString(`\t`)
		case '\r':
			sb.WriteString(`\r`)
		default:
			sb.WriteRune(r)
		}
	}
	sb.WriteByte(')')
}
