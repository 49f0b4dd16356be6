package interp

import "testing"

func newTestEngine(t *testing.T) (*Engine, *NameTable) {
	t.Helper()
	names := NewNameTable()
	reg := NewRegistry()
	if err := RegisterBase(names, reg); err != nil {
		t.Fatal(err)
	}
	return NewEngine(names, reg), names
}

func ex(names *NameTable, s string) Token {
	return NewExecutableName(names.Intern(s))
}

func wantInts(t *testing.T, e *Engine, want ...int64) {
	t.Helper()
	if e.Operands().Depth() != len(want) {
		t.Fatalf("operand depth = %d, want %d (stack %v)",
			e.Operands().Depth(), len(want), e.Operands().Snapshot())
	}
	for i, w := range want {
		got, _ := e.Operands().PeekN(len(want) - 1 - i)
		if got.Kind() != KindInteger || got.Datum().Int() != w {
			t.Fatalf("operand %d = %s, want %d", i, got, w)
		}
	}
}

func TestRunArithmetic(t *testing.T) {
	e, names := newTestEngine(t)
	cond := e.Run([]Token{NewInteger(1), NewInteger(2), ex(names, "add")})
	if cond != nil {
		t.Fatal(cond)
	}
	wantInts(t, e, 3)
}

func TestRunProcExec(t *testing.T) {
	e, names := newTestEngine(t)
	proc := NewProc([]Token{NewInteger(1), NewInteger(2), ex(names, "add")})
	cond := e.Run([]Token{proc, ex(names, "exec")})
	if cond != nil {
		t.Fatal(cond)
	}
	wantInts(t, e, 3)
}

func TestDefAndLoad(t *testing.T) {
	e, names := newTestEngine(t)
	cond := e.Run([]Token{
		NewLiteralName(names.Intern("x")), NewInteger(5), ex(names, "def"),
		ex(names, "x"),
	})
	if cond != nil {
		t.Fatal(cond)
	}
	wantInts(t, e, 5)
}

func TestProcFrameReleased(t *testing.T) {
	e, names := newTestEngine(t)
	y := names.Intern("y")
	proc := NewProc([]Token{
		NewLiteralName(y), NewInteger(7), ex(names, "def"),
		ex(names, "y"),
	})
	cond := e.Run([]Token{proc, ex(names, "exec")})
	if cond != nil {
		t.Fatal(cond)
	}
	wantInts(t, e, 7)
	if _, ok := e.Dicts().Lookup(y); ok {
		t.Error("y must not survive the procedure frame")
	}
	if e.Dicts().Depth() != 1 {
		t.Errorf("dict depth = %d after run, want 1", e.Dicts().Depth())
	}
}

func TestInnerDefinitionShadows(t *testing.T) {
	e, names := newTestEngine(t)
	x := names.Intern("x")
	inner := NewProc([]Token{
		NewLiteralName(x), NewInteger(2), ex(names, "def"),
		ex(names, "x"),
	})
	cond := e.Run([]Token{
		NewLiteralName(x), NewInteger(1), ex(names, "def"),
		inner, ex(names, "exec"),
		ex(names, "x"),
	})
	if cond != nil {
		t.Fatal(cond)
	}
	// Inner sees its own binding, outer binding is untouched.
	wantInts(t, e, 2, 1)
}

func TestIfElse(t *testing.T) {
	e, names := newTestEngine(t)
	cond := e.Run([]Token{
		NewBoolean(true),
		NewProc([]Token{NewInteger(1)}),
		NewProc([]Token{NewInteger(2)}),
		ex(names, "ifelse"),
	})
	if cond != nil {
		t.Fatal(cond)
	}
	wantInts(t, e, 1)
}

func TestRepeat(t *testing.T) {
	e, names := newTestEngine(t)
	cond := e.Run([]Token{
		NewInteger(3),
		NewProc([]Token{NewInteger(1)}),
		ex(names, "repeat"),
	})
	if cond != nil {
		t.Fatal(cond)
	}
	wantInts(t, e, 1, 1, 1)
}

func TestForIntegerControl(t *testing.T) {
	e, names := newTestEngine(t)
	cond := e.Run([]Token{
		NewInteger(1), NewInteger(1), NewInteger(3),
		NewProc(nil),
		ex(names, "for"),
	})
	if cond != nil {
		t.Fatal(cond)
	}
	wantInts(t, e, 1, 2, 3)
}

func TestForallArray(t *testing.T) {
	e, names := newTestEngine(t)
	arr := NewArray([]Token{NewInteger(4), NewInteger(5)})
	cond := e.Run([]Token{
		arr,
		NewProc([]Token{NewInteger(10), ex(names, "add")}),
		ex(names, "forall"),
	})
	if cond != nil {
		t.Fatal(cond)
	}
	wantInts(t, e, 14, 15)
}

func TestLoopExit(t *testing.T) {
	e, names := newTestEngine(t)
	cond := e.Run([]Token{
		NewProc([]Token{NewInteger(1), ex(names, "exit")}),
		ex(names, "loop"),
	})
	if cond != nil {
		t.Fatal(cond)
	}
	wantInts(t, e, 1)
}

func TestExitOutsideLoop(t *testing.T) {
	e, names := newTestEngine(t)
	cond := e.Run([]Token{ex(names, "exit")})
	if cond == nil || cond.Kind != HostError {
		t.Fatalf("got %v, want HostError for exit outside a loop", cond)
	}
}

func TestStoppedCatchesStop(t *testing.T) {
	e, names := newTestEngine(t)
	proc := NewProc([]Token{NewInteger(1), NewInteger(2), ex(names, "stop")})
	cond := e.Run([]Token{NewInteger(9), proc, ex(names, "stopped")})
	if cond != nil {
		t.Fatal(cond)
	}
	// Operand depth restored to handler entry, then the true result.
	if e.Operands().Depth() != 2 {
		t.Fatalf("operand depth = %d, want 2 (stack %v)",
			e.Operands().Depth(), e.Operands().Snapshot())
	}
	top, _ := e.Operands().Pop()
	if top.Kind() != KindBoolean || !top.Datum().Bool() {
		t.Errorf("stopped result = %s, want true", top)
	}
	under, _ := e.Operands().Pop()
	if under.Datum().Int() != 9 {
		t.Errorf("operand beneath result = %s, want 9", under)
	}
	if e.Dicts().Depth() != 1 {
		t.Errorf("dict depth = %d after stopped, want 1", e.Dicts().Depth())
	}
}

func TestStoppedNormalCompletion(t *testing.T) {
	e, names := newTestEngine(t)
	proc := NewProc([]Token{NewInteger(1)})
	cond := e.Run([]Token{proc, ex(names, "stopped")})
	if cond != nil {
		t.Fatal(cond)
	}
	top, _ := e.Operands().Pop()
	if top.Kind() != KindBoolean || top.Datum().Bool() {
		t.Errorf("stopped result = %s, want false", top)
	}
	wantInts(t, e, 1)
}

func TestStoppedReleasesUnbalancedBegin(t *testing.T) {
	e, names := newTestEngine(t)
	// The body pushes a dictionary frame it never ends; the handler must
	// release it whether the body stops or completes.
	stopping := NewProc([]Token{ex(names, "dict"), ex(names, "begin"), ex(names, "stop")})
	if cond := e.Run([]Token{stopping, ex(names, "stopped")}); cond != nil {
		t.Fatal(cond)
	}
	if e.Dicts().Depth() != 1 {
		t.Fatalf("dict depth = %d after caught stop, want 1", e.Dicts().Depth())
	}
	e.Operands().Clear()

	completing := NewProc([]Token{ex(names, "dict"), ex(names, "begin")})
	if cond := e.Run([]Token{completing, ex(names, "stopped")}); cond != nil {
		t.Fatal(cond)
	}
	if e.Dicts().Depth() != 1 {
		t.Fatalf("dict depth = %d after normal completion, want 1", e.Dicts().Depth())
	}
}

func TestUnhandledConditionResetsEngine(t *testing.T) {
	e, names := newTestEngine(t)
	cond := e.Run([]Token{NewInteger(1), NewString("x"), ex(names, "add")})
	if cond == nil || cond.Kind != TypeMismatch {
		t.Fatalf("got %v, want TypeMismatch", cond)
	}
	if len(cond.Operands) != 2 {
		t.Errorf("condition captured %d operands, want 2", len(cond.Operands))
	}
	if e.Operands().Depth() != 0 {
		t.Error("operand stack must be cleared after an unhandled condition")
	}
	if e.Dicts().Depth() != 1 {
		t.Error("dict stack must be back to the global frame")
	}

	// The engine stays usable.
	if cond := e.Run([]Token{NewInteger(1), NewInteger(2), ex(names, "add")}); cond != nil {
		t.Fatal(cond)
	}
	wantInts(t, e, 3)
}

func TestUndefinedOperator(t *testing.T) {
	e, names := newTestEngine(t)
	cond := e.Run([]Token{ex(names, "frobnicate")})
	if cond == nil || cond.Kind != UndefinedOperator {
		t.Fatalf("got %v, want UndefinedOperator", cond)
	}
}

func TestExecutableArrayIsNotExecutable(t *testing.T) {
	e, _ := newTestEngine(t)
	arr := NewArray([]Token{NewInteger(1)}).AsExecutable()
	cond := e.Run([]Token{arr})
	if cond == nil || cond.Kind != NotExecutable {
		t.Fatalf("got %v, want NotExecutable", cond)
	}
}

func TestStepLimit(t *testing.T) {
	e, names := newTestEngine(t)
	e.SetStepLimit(100)
	cond := e.Run([]Token{NewProc(nil), ex(names, "loop")})
	if cond == nil || cond.Kind != HostError {
		t.Fatalf("got %v, want HostError for the step limit", cond)
	}
	// Fresh runs get a fresh step budget.
	if cond := e.Run([]Token{NewInteger(1)}); cond != nil {
		t.Fatal(cond)
	}
}

func TestQuitHalts(t *testing.T) {
	e, names := newTestEngine(t)
	cond := e.Run([]Token{NewInteger(1), ex(names, "quit"), NewInteger(2)})
	if cond != nil {
		t.Fatal(cond)
	}
	if !e.Halted() {
		t.Error("engine must report halted after quit")
	}
	wantInts(t, e, 1)
}

func TestDeepNestingDoesNotRecurse(t *testing.T) {
	e, names := newTestEngine(t)
	// 20000 nested procedure invocations; splicing keeps the native stack flat.
	body := []Token{NewInteger(1), ex(names, "add")}
	for i := 0; i < 20000; i++ {
		body = []Token{NewProc(body), ex(names, "exec")}
	}
	cond := e.Run(append([]Token{NewInteger(0)}, body...))
	if cond != nil {
		t.Fatal(cond)
	}
	wantInts(t, e, 1)
}

func TestLiteralNameBindingPushesCopy(t *testing.T) {
	e, names := newTestEngine(t)
	arr := names.Intern("a")
	cond := e.Run([]Token{
		NewLiteralName(arr), NewArray([]Token{NewInteger(1)}), ex(names, "def"),
		ex(names, "a"),
		ex(names, "a"),
	})
	if cond != nil {
		t.Fatal(cond)
	}
	// Two loads of the same binding are independent values.
	second, _ := e.Operands().Pop()
	second.Mutable().Array()[0] = NewInteger(9)
	first, _ := e.Operands().Pop()
	if first.Datum().Array()[0].Datum().Int() != 1 {
		t.Error("mutating one loaded value must not affect the other")
	}
}
