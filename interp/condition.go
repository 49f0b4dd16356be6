package interp

import (
	"fmt"
	"strings"
)

// ---------------------------------------------------------------------------
// Conditions: structured errors propagated by unwinding
// ---------------------------------------------------------------------------

// ConditionKind classifies a condition.
type ConditionKind uint8

const (
	TypeMismatch ConditionKind = iota
	UndefinedOperator
	ArgumentUnderflow
	SyntaxError
	NotExecutable
	HostError
)

var conditionKindNames = map[ConditionKind]string{
	TypeMismatch:      "typemismatch",
	UndefinedOperator: "undefinedoperator",
	ArgumentUnderflow: "argumentunderflow",
	SyntaxError:       "syntaxerror",
	NotExecutable:     "notexecutable",
	HostError:         "hosterror",
}

func (k ConditionKind) String() string {
	if s, ok := conditionKindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("condition(%d)", uint8(k))
}

// Position is a location in program text, for syntax diagnostics.
type Position struct {
	Offset int // byte offset, 0-based
	Line   int // 1-based
	Column int // 1-based
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Condition is a structured error. It propagates by unwinding dictionary
// frames until a handler frame catches it or it reaches the caller of the
// engine. Condition implements error so hosts handle it like any Go error.
type Condition struct {
	Kind ConditionKind
	Msg  string

	// Op is the operator active at the point of failure, when known.
	Op *Name

	// Pos is the source position, for syntax errors.
	Pos *Position

	// Expected and Actual carry type tags for TypeMismatch.
	Expected Kind
	Actual   Kind

	// Operands is the remaining operand stack at the point the condition
	// reached the top level, captured for diagnostics.
	Operands []Token
}

// Error renders the condition: kind, operator context, position, message.
func (c *Condition) Error() string {
	var sb strings.Builder
	sb.WriteString(c.Kind.String())
	if c.Op != nil {
		sb.WriteString(" in ")
		sb.WriteString(c.Op.String())
	}
	if c.Pos != nil {
		sb.WriteString(" at ")
		sb.WriteString(c.Pos.String())
	}
	if c.Msg != "" {
		sb.WriteString(": ")
		sb.WriteString(c.Msg)
	}
	return sb.String()
}

// NewTypeMismatch builds a TypeMismatch condition carrying the expected and
// actual type tags.
func NewTypeMismatch(op *Name, expected, actual Kind) *Condition {
	return &Condition{
		Kind:     TypeMismatch,
		Op:       op,
		Expected: expected,
		Actual:   actual,
		Msg:      fmt.Sprintf("expected %s, got %s", expected, actual),
	}
}

// NewUndefined builds an UndefinedOperator condition.
func NewUndefined(op *Name) *Condition {
	return &Condition{Kind: UndefinedOperator, Op: op, Msg: "no registered signature"}
}

// NewUnderflow builds an ArgumentUnderflow condition.
func NewUnderflow(op *Name, need, have int) *Condition {
	return &Condition{
		Kind: ArgumentUnderflow,
		Op:   op,
		Msg:  fmt.Sprintf("need %d operands, have %d", need, have),
	}
}

// NewSyntax builds a SyntaxError condition at pos.
func NewSyntax(pos Position, format string, args ...any) *Condition {
	p := pos
	return &Condition{Kind: SyntaxError, Pos: &p, Msg: fmt.Sprintf(format, args...)}
}

// NewNotExecutable builds a NotExecutable condition for a value of kind k.
func NewNotExecutable(op *Name, k Kind) *Condition {
	return &Condition{Kind: NotExecutable, Op: op, Actual: k, Msg: fmt.Sprintf("%s value is not executable", k)}
}

// NewHostError builds the generic condition for native-operator failures.
func NewHostError(op *Name, format string, args ...any) *Condition {
	return &Condition{Kind: HostError, Op: op, Msg: fmt.Sprintf(format, args...)}
}
