package interp

import "fmt"

// ---------------------------------------------------------------------------
// Base library registration
// ---------------------------------------------------------------------------

// opSet accumulates registrations for one topic, keeping the per-operator
// code free of error plumbing. The first failure wins.
type opSet struct {
	names *NameTable
	reg   *Registry
	err   error
}

func (s *opSet) op(name string, sig []Kind, fn NativeFn) {
	if s.err != nil {
		return
	}
	if err := s.reg.Register(s.names.Intern(name), sig, fn); err != nil {
		s.err = fmt.Errorf("base library: %w", err)
	}
}

// RegisterBase registers the built-in operator library into reg. It is the
// same append-only registration interface host collaborators use; calling
// it twice on one registry fails on the duplicate signatures.
func RegisterBase(names *NameTable, reg *Registry) error {
	s := &opSet{names: names, reg: reg}
	registerStackOps(s)
	registerMathOps(s)
	registerCompareOps(s)
	registerBooleanOps(s)
	registerDictOps(s)
	registerArrayOps(s)
	registerStringOps(s)
	registerControlOps(s)
	registerIteratorOps(s)
	registerConvertOps(s)
	return s.err
}
