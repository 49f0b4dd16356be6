package interp

import "fmt"

// ---------------------------------------------------------------------------
// Registry: trie-based multi-argument operator dispatch
// ---------------------------------------------------------------------------

// Binding is a terminal trie entry: the implementation selected when an
// operator name is invoked with operands matching Sig. Exactly one of Fn
// and Proc is set.
type Binding struct {
	Name *Name
	Sig  []Kind // type tags, top of stack first
	Fn   NativeFn
	Proc *Procedure
}

// trieNode is one level of the signature trie for a single operator name.
// Children are keyed by the type tag of the next-deeper operand. The
// registration invariant guarantees a node with a binding has no children.
type trieNode struct {
	binding  *Binding
	children map[Kind]*trieNode
}

// Registry maps operator names and operand-type signatures to bindings.
// Registration is append-only and happens at startup or module-load time;
// once registration has completed, Dispatch performs no mutation and is
// safe to call concurrently from independent sessions. Registration after
// startup must be serialized externally against all dispatch.
type Registry struct {
	roots map[*Name]*trieNode
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{roots: make(map[*Name]*trieNode)}
}

// Register adds a native operator under name for the given signature.
// Signatures are written top-of-stack first; AnyKind is a wildcard tag.
// Registration fails when the new signature is a prefix of an existing one
// for the same name, or vice versa — ties are rejected here, never guessed
// at dispatch time.
func (r *Registry) Register(name *Name, sig []Kind, fn NativeFn) error {
	return r.register(&Binding{Name: name, Sig: sig, Fn: fn})
}

// RegisterProc adds a user-defined procedure under name for the given
// signature, subject to the same ambiguity rules as Register.
func (r *Registry) RegisterProc(name *Name, sig []Kind, proc *Procedure) error {
	return r.register(&Binding{Name: name, Sig: sig, Proc: proc})
}

func (r *Registry) register(b *Binding) error {
	node := r.roots[b.Name]
	if node == nil {
		node = &trieNode{}
		r.roots[b.Name] = node
	}
	for i, tag := range b.Sig {
		if node.binding != nil {
			return fmt.Errorf("interp: register %s %v: existing signature %v is a prefix",
				b.Name, b.Sig, b.Sig[:i])
		}
		if node.children == nil {
			node.children = make(map[Kind]*trieNode)
		}
		child := node.children[tag]
		if child == nil {
			child = &trieNode{}
			node.children[tag] = child
		}
		node = child
	}
	if node.binding != nil {
		return fmt.Errorf("interp: register %s %v: signature already bound", b.Name, b.Sig)
	}
	if len(node.children) > 0 {
		return fmt.Errorf("interp: register %s %v: signature is a prefix of an existing one",
			b.Name, b.Sig)
	}
	node.binding = b
	return nil
}

// Known reports whether any signature is registered under name.
func (r *Registry) Known(name *Name) bool {
	return r.roots[name] != nil
}

// Dispatch resolves name against the operand stack's topmost values,
// consuming type tags from the top of the stack downward. Exact tags are
// preferred over the AnyKind wildcard at each level; when a deeper path
// fails, dispatch backtracks to the most specific registered binding whose
// argument count does not exceed the operands actually present.
func (r *Registry) Dispatch(name *Name, ops *OperandStack) (*Binding, *Condition) {
	node := r.roots[name]
	if node == nil {
		return nil, NewUndefined(name)
	}
	b, underflow, need := resolve(node, ops, 0)
	if b != nil {
		return b, nil
	}
	if underflow {
		return nil, NewUnderflow(name, need, ops.Depth())
	}
	if t, ok := ops.PeekN(0); ok {
		return nil, mismatchAt(name, node, t.Kind())
	}
	return nil, mismatchAt(name, node, AnyKind)
}

// resolve walks the trie depth-first. On failure it reports whether every
// failing path ran out of operands (underflow) and, if so, the shortest
// full requirement.
func resolve(node *trieNode, ops *OperandStack, depth int) (b *Binding, underflow bool, need int) {
	if node.binding != nil {
		// Terminal nodes have no children (registration invariant).
		return node.binding, false, 0
	}
	if depth >= ops.Depth() {
		return nil, true, depth + minRemaining(node)
	}
	t, _ := ops.PeekN(depth)
	allUnderflow := true
	tried := false
	minNeed := 0
	for _, tag := range [2]Kind{t.Kind(), AnyKind} {
		child := node.children[tag]
		if child == nil {
			continue
		}
		tried = true
		cb, cu, cn := resolve(child, ops, depth+1)
		if cb != nil {
			return cb, false, 0
		}
		if cu {
			if minNeed == 0 || cn < minNeed {
				minNeed = cn
			}
		} else {
			allUnderflow = false
		}
	}
	if !tried {
		return nil, false, 0
	}
	return nil, allUnderflow, minNeed
}

// minRemaining returns the least number of additional operands needed to
// reach any terminal binding below node.
func minRemaining(node *trieNode) int {
	if node.binding != nil {
		return 0
	}
	min := -1
	for _, child := range node.children {
		if d := 1 + minRemaining(child); min < 0 || d < min {
			min = d
		}
	}
	if min < 0 {
		return 0
	}
	return min
}

func mismatchAt(name *Name, node *trieNode, actual Kind) *Condition {
	expected := AnyKind
	if len(node.children) == 1 {
		for tag := range node.children {
			expected = tag
		}
	}
	return NewTypeMismatch(name, expected, actual)
}
