package interp

import "testing"

func nopFn(*Engine) *Condition { return nil }

func pushOps(kinds ...Kind) *OperandStack {
	// Deepest first; the last listed kind ends up on top.
	var s OperandStack
	for _, k := range kinds {
		switch k {
		case KindInteger:
			s.Push(NewInteger(0))
		case KindFloat:
			s.Push(NewFloat(0))
		case KindString:
			s.Push(NewString(""))
		case KindBoolean:
			s.Push(NewBoolean(false))
		default:
			panic("unsupported kind in test helper")
		}
	}
	return &s
}

func TestDispatchExactSignature(t *testing.T) {
	names := NewNameTable()
	r := NewRegistry()
	op := names.Intern("add")
	if err := r.Register(op, []Kind{KindInteger, KindInteger}, nopFn); err != nil {
		t.Fatal(err)
	}

	b, cond := r.Dispatch(op, pushOps(KindInteger, KindInteger))
	if cond != nil {
		t.Fatalf("dispatch failed: %v", cond)
	}
	if len(b.Sig) != 2 {
		t.Errorf("selected signature %v, want 2 integers", b.Sig)
	}
}

func TestDispatchUnderflow(t *testing.T) {
	names := NewNameTable()
	r := NewRegistry()
	op := names.Intern("add")
	if err := r.Register(op, []Kind{KindInteger, KindInteger}, nopFn); err != nil {
		t.Fatal(err)
	}

	_, cond := r.Dispatch(op, pushOps(KindInteger))
	if cond == nil || cond.Kind != ArgumentUnderflow {
		t.Fatalf("dispatch with one operand: got %v, want ArgumentUnderflow", cond)
	}
}

func TestDispatchTypeMismatch(t *testing.T) {
	names := NewNameTable()
	r := NewRegistry()
	op := names.Intern("add")
	if err := r.Register(op, []Kind{KindInteger, KindInteger}, nopFn); err != nil {
		t.Fatal(err)
	}

	// Top of stack is a string; no signature matches.
	_, cond := r.Dispatch(op, pushOps(KindInteger, KindString))
	if cond == nil || cond.Kind != TypeMismatch {
		t.Fatalf("got %v, want TypeMismatch", cond)
	}
}

func TestDispatchUndefined(t *testing.T) {
	names := NewNameTable()
	r := NewRegistry()
	_, cond := r.Dispatch(names.Intern("nosuch"), pushOps())
	if cond == nil || cond.Kind != UndefinedOperator {
		t.Fatalf("got %v, want UndefinedOperator", cond)
	}
}

func TestDispatchOverloadSelection(t *testing.T) {
	names := NewNameTable()
	r := NewRegistry()
	op := names.Intern("length")
	intSig := []Kind{KindInteger}
	strSig := []Kind{KindString}
	if err := r.Register(op, intSig, nopFn); err != nil {
		t.Fatal(err)
	}
	if err := r.Register(op, strSig, nopFn); err != nil {
		t.Fatal(err)
	}

	b, cond := r.Dispatch(op, pushOps(KindString))
	if cond != nil {
		t.Fatal(cond)
	}
	if b.Sig[0] != KindString {
		t.Errorf("selected %v, want the string overload", b.Sig)
	}
}

func TestDispatchExactBeatsWildcard(t *testing.T) {
	names := NewNameTable()
	r := NewRegistry()
	op := names.Intern("show")
	if err := r.Register(op, []Kind{AnyKind}, nopFn); err != nil {
		t.Fatal(err)
	}
	if err := r.Register(op, []Kind{KindInteger}, nopFn); err != nil {
		t.Fatal(err)
	}

	b, cond := r.Dispatch(op, pushOps(KindInteger))
	if cond != nil {
		t.Fatal(cond)
	}
	if b.Sig[0] != KindInteger {
		t.Errorf("selected %v, want the exact integer overload over the wildcard", b.Sig)
	}
}

func TestDispatchBacktracksToWildcard(t *testing.T) {
	names := NewNameTable()
	r := NewRegistry()
	op := names.Intern("mix")
	if err := r.Register(op, []Kind{KindInteger, KindString}, nopFn); err != nil {
		t.Fatal(err)
	}
	if err := r.Register(op, []Kind{AnyKind}, nopFn); err != nil {
		t.Fatal(err)
	}

	// Top is an integer but the value beneath is a float, so the exact path
	// dead-ends and dispatch must fall back to the one-argument wildcard.
	b, cond := r.Dispatch(op, pushOps(KindFloat, KindInteger))
	if cond != nil {
		t.Fatal(cond)
	}
	if len(b.Sig) != 1 || b.Sig[0] != AnyKind {
		t.Errorf("selected %v, want the wildcard fallback", b.Sig)
	}
}

func TestRegisterRejectsPrefixAmbiguity(t *testing.T) {
	names := NewNameTable()
	r := NewRegistry()
	op := names.Intern("f")
	if err := r.Register(op, []Kind{KindInteger}, nopFn); err != nil {
		t.Fatal(err)
	}
	if err := r.Register(op, []Kind{KindInteger, KindInteger}, nopFn); err == nil {
		t.Error("longer signature extending a bound one must be rejected")
	}
	if err := r.Register(op, []Kind{KindInteger}, nopFn); err == nil {
		t.Error("duplicate signature must be rejected")
	}

	op2 := names.Intern("g")
	if err := r.Register(op2, []Kind{KindInteger, KindInteger}, nopFn); err != nil {
		t.Fatal(err)
	}
	if err := r.Register(op2, []Kind{KindInteger}, nopFn); err == nil {
		t.Error("signature that is a prefix of a bound one must be rejected")
	}
}

func TestRegisterProcBinding(t *testing.T) {
	names := NewNameTable()
	r := NewRegistry()
	op := names.Intern("double")
	proc := &Procedure{Body: []Token{NewInteger(2), NewExecutableName(names.Intern("mul"))}}
	if err := r.RegisterProc(op, []Kind{KindInteger}, proc); err != nil {
		t.Fatal(err)
	}
	b, cond := r.Dispatch(op, pushOps(KindInteger))
	if cond != nil {
		t.Fatal(cond)
	}
	if b.Proc != proc {
		t.Error("dispatch must return the registered procedure binding")
	}
}
