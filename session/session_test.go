package session

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/slip-lang/slip/interp"
)

func newTestSession(t *testing.T) (*Session, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	s, err := New(Options{Out: &out})
	if err != nil {
		t.Fatal(err)
	}
	return s, &out
}

func TestEvalArithmetic(t *testing.T) {
	s, out := newTestSession(t)
	if err := s.Eval("1 2 add ="); err != nil {
		t.Fatal(err)
	}
	if got := out.String(); got != "3\n" {
		t.Errorf("output = %q, want %q", got, "3\n")
	}
}

func TestEvalDeferredProcedure(t *testing.T) {
	s, _ := newTestSession(t)
	if err := s.Eval("{ 1 2 add } exec"); err != nil {
		t.Fatal(err)
	}
	if s.Depth() != 1 {
		t.Fatalf("depth = %d, want 1", s.Depth())
	}
	top, _ := s.Engine().Operands().Pop()
	if top.Datum().Int() != 3 {
		t.Errorf("result = %s, want 3", top)
	}
}

func TestEvalDefinitionAcrossCalls(t *testing.T) {
	s, out := newTestSession(t)
	if err := s.Eval("/x 5 def"); err != nil {
		t.Fatal(err)
	}
	if err := s.Eval("x x mul ="); err != nil {
		t.Fatal(err)
	}
	if got := out.String(); got != "25\n" {
		t.Errorf("output = %q, want %q", got, "25\n")
	}
}

func TestEvalStringPrinting(t *testing.T) {
	s, out := newTestSession(t)
	if err := s.Eval("(hello) print ( ) print (world) ="); err != nil {
		t.Fatal(err)
	}
	if got := out.String(); got != "hello world\n" {
		t.Errorf("output = %q, want %q", got, "hello world\n")
	}
}

func TestEvalSourceRendering(t *testing.T) {
	s, out := newTestSession(t)
	if err := s.Eval("(hi) =="); err != nil {
		t.Fatal(err)
	}
	if got := out.String(); got != "(hi)\n" {
		t.Errorf("output = %q, want %q", got, "(hi)\n")
	}
}

func TestEvalConditionLeavesSessionUsable(t *testing.T) {
	s, _ := newTestSession(t)
	err := s.Eval("1 (x) add")
	cond, ok := err.(*interp.Condition)
	if !ok || cond.Kind != interp.TypeMismatch {
		t.Fatalf("got %v, want a TypeMismatch condition", err)
	}
	if s.Depth() != 0 {
		t.Error("operand stack must be cleared after an unhandled condition")
	}
	if err := s.Eval("1 2 add"); err != nil {
		t.Fatal(err)
	}
	if s.Depth() != 1 {
		t.Errorf("depth = %d after recovery, want 1", s.Depth())
	}
}

func TestEvalSyntaxError(t *testing.T) {
	s, _ := newTestSession(t)
	err := s.Eval("(open")
	cond, ok := err.(*interp.Condition)
	if !ok || cond.Kind != interp.SyntaxError {
		t.Fatalf("got %v, want a SyntaxError condition", err)
	}
}

func TestEvalStoppedScenario(t *testing.T) {
	s, _ := newTestSession(t)
	if err := s.Eval("{ 1 (x) add } stopped"); err != nil {
		t.Fatal(err)
	}
	top, _ := s.Engine().Operands().Pop()
	if top.Kind() != interp.KindBoolean || !top.Datum().Bool() {
		t.Errorf("stopped result = %s, want true", top)
	}
	if s.Engine().Dicts().Depth() != 1 {
		t.Errorf("dict depth = %d, want 1", s.Engine().Dicts().Depth())
	}
}

func TestEvalQuit(t *testing.T) {
	s, _ := newTestSession(t)
	if err := s.Eval("quit"); err != nil {
		t.Fatal(err)
	}
	if !s.Halted() {
		t.Error("session must report halted after quit")
	}
}

func TestStepLimitOption(t *testing.T) {
	var out bytes.Buffer
	s, err := New(Options{Out: &out, StepLimit: 1000})
	if err != nil {
		t.Fatal(err)
	}
	evalErr := s.Eval("{ } loop")
	cond, ok := evalErr.(*interp.Condition)
	if !ok || cond.Kind != interp.HostError {
		t.Fatalf("got %v, want a HostError for the step limit", evalErr)
	}
}

func TestStackLines(t *testing.T) {
	s, _ := newTestSession(t)
	if err := s.Eval("1 (two) 3.0"); err != nil {
		t.Fatal(err)
	}
	lines := s.StackLines()
	want := []string{"3.0", "(two)", "1"}
	if len(lines) != len(want) {
		t.Fatalf("got %d lines, want %d", len(lines), len(want))
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, lines[i], want[i])
		}
	}
}

func TestRegisterHostOperator(t *testing.T) {
	s, _ := newTestSession(t)
	err := s.Register("triple", []interp.Kind{interp.KindInteger},
		func(e *interp.Engine) *interp.Condition {
			n, cond := e.PopInt()
			if cond != nil {
				return cond
			}
			e.Operands().Push(interp.NewInteger(3 * n))
			return nil
		})
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Eval("7 triple"); err != nil {
		t.Fatal(err)
	}
	top, _ := s.Engine().Operands().Pop()
	if top.Datum().Int() != 21 {
		t.Errorf("triple 7 = %s, want 21", top)
	}
}

func TestLockedHandleThroughHostOperators(t *testing.T) {
	s, _ := newTestSession(t)
	released := 0
	type conn struct{ dsn string }

	err := s.Register("connect", []interp.Kind{interp.KindString},
		func(e *interp.Engine) *interp.Condition {
			dsn, cond := e.PopKind(interp.KindString)
			if cond != nil {
				return cond
			}
			l := interp.NewLocked(&conn{dsn: dsn.Datum().Str()}, "connection",
				func(any) { released++ })
			e.Operands().Push(interp.NewLockedToken(l))
			return nil
		})
	if err != nil {
		t.Fatal(err)
	}
	err = s.Register("dsn", []interp.Kind{interp.KindLocked},
		func(e *interp.Engine) *interp.Condition {
			lt, cond := e.PopKind(interp.KindLocked)
			if cond != nil {
				return cond
			}
			c := lt.Datum().LockedPtr().Obj.(*conn)
			e.Operands().Push(interp.NewString(c.dsn))
			return nil
		})
	if err != nil {
		t.Fatal(err)
	}
	err = s.Register("disconnect", []interp.Kind{interp.KindLocked},
		func(e *interp.Engine) *interp.Condition {
			lt, cond := e.PopKind(interp.KindLocked)
			if cond != nil {
				return cond
			}
			lt.Datum().LockedPtr().Close()
			return nil
		})
	if err != nil {
		t.Fatal(err)
	}

	// The handle survives dup and dispatches on its own type tag.
	if err := s.Eval("(file:test.db) connect dup dsn exch disconnect"); err != nil {
		t.Fatal(err)
	}
	top, _ := s.Engine().Operands().Pop()
	if top.Datum().Str() != "file:test.db" {
		t.Errorf("dsn = %s, want the string given to connect", top)
	}
	if released != 1 {
		t.Errorf("release ran %d times, want 1", released)
	}

	// A second disconnect on another copy of the same handle is inert.
	if err := s.Eval("(x) connect dup disconnect disconnect"); err != nil {
		t.Fatal(err)
	}
	if released != 2 {
		t.Errorf("release ran %d times across both handles, want 2", released)
	}
}

func TestSnapshotSaveAndRestore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "image.cbor")

	s1, _ := newTestSession(t)
	if err := s1.Eval("/greeting (hello) def /answer 42 def"); err != nil {
		t.Fatal(err)
	}
	if err := s1.Eval("(" + path + ") save"); err != nil {
		t.Fatal(err)
	}

	s2, out := newTestSession(t)
	if err := s2.Eval("(" + path + ") restore"); err != nil {
		t.Fatal(err)
	}
	if err := s2.Eval("greeting = answer ="); err != nil {
		t.Fatal(err)
	}
	if got := out.String(); got != "hello\n42\n" {
		t.Errorf("output = %q, want %q", got, "hello\n42\n")
	}
}

func TestPstack(t *testing.T) {
	s, out := newTestSession(t)
	if err := s.Eval("1 2 pstack"); err != nil {
		t.Fatal(err)
	}
	if got := out.String(); got != "2\n1\n" {
		t.Errorf("output = %q, want %q", got, "2\n1\n")
	}
	if s.Depth() != 2 {
		t.Error("pstack must not consume operands")
	}
}

func TestPlainRendering(t *testing.T) {
	if got := plainRendering(interp.NewString("a b")); got != "a b" {
		t.Errorf("string rendering = %q, want unquoted payload", got)
	}
	if got := plainRendering(interp.NewInteger(5)); got != "5" {
		t.Errorf("integer rendering = %q, want %q", got, "5")
	}
	if !strings.HasPrefix(plainRendering(interp.NewFloat(2)), "2.") {
		t.Error("float rendering must keep the decimal point")
	}
}
