package session

import (
	"fmt"

	"github.com/slip-lang/slip/interp"
	"github.com/slip-lang/slip/snapshot"
)

// ---------------------------------------------------------------------------
// Host operators
// ---------------------------------------------------------------------------

// registerHostOps installs the operators that touch host resources: the
// printing operators writing to the session's output, snapshot save and
// restore, and the value rendering pair = and ==.
func (s *Session) registerHostOps() error {
	type op struct {
		name string
		sig  []interp.Kind
		fn   interp.NativeFn
	}
	ops := []op{
		// any = : print the value's payload (strings unquoted) and a newline
		{"=", []interp.Kind{interp.AnyKind}, func(e *interp.Engine) *interp.Condition {
			t, _ := e.Operands().Pop()
			fmt.Fprintln(s.out, plainRendering(t))
			return nil
		}},

		// any == : print the value in source syntax and a newline
		{"==", []interp.Kind{interp.AnyKind}, func(e *interp.Engine) *interp.Condition {
			t, _ := e.Operands().Pop()
			fmt.Fprintln(s.out, t.String())
			return nil
		}},

		// string print : write the raw string, no newline
		{"print", []interp.Kind{interp.KindString}, func(e *interp.Engine) *interp.Condition {
			t, _ := e.Operands().Pop()
			fmt.Fprint(s.out, t.Datum().Str())
			return nil
		}},

		// pstack : print the whole operand stack top-first, without popping
		{"pstack", nil, func(e *interp.Engine) *interp.Condition {
			snap := e.Operands().Snapshot()
			for i := len(snap) - 1; i >= 0; i-- {
				fmt.Fprintln(s.out, snap[i].String())
			}
			return nil
		}},

		// path save : snapshot the global dictionary to a file
		{"save", []interp.Kind{interp.KindString}, func(e *interp.Engine) *interp.Condition {
			t, _ := e.Operands().Pop()
			if _, err := snapshot.Save(t.Datum().Str(), e.Globals()); err != nil {
				return interp.NewHostError(e.CurrentOp(), "%s", err.Error())
			}
			return nil
		}},

		// path restore : merge a snapshot back into the global dictionary
		{"restore", []interp.Kind{interp.KindString}, func(e *interp.Engine) *interp.Condition {
			t, _ := e.Operands().Pop()
			if err := snapshot.Load(t.Datum().Str(), e.Names(), e.Globals()); err != nil {
				return interp.NewHostError(e.CurrentOp(), "%s", err.Error())
			}
			return nil
		}},
	}

	for _, o := range ops {
		if err := s.Register(o.name, o.sig, o.fn); err != nil {
			return err
		}
	}
	return nil
}

// plainRendering is the = operator's view: string payloads without their
// parentheses, everything else in source syntax.
func plainRendering(t interp.Token) string {
	if t.Kind() == interp.KindString {
		return t.Datum().Str()
	}
	return t.String()
}
