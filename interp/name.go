package interp

import "sync"

// ---------------------------------------------------------------------------
// NameTable: Interned names
// ---------------------------------------------------------------------------

// Name is an interned symbol. Two names obtained from the same NameTable
// compare equal (pointer identity) exactly when their spellings are equal,
// so Name values can be used directly as map keys and compared with ==.
// Names are immutable and live for the lifetime of their table.
type Name struct {
	s string
}

// String returns the spelling the name was interned from.
func (n *Name) String() string {
	if n == nil {
		return ""
	}
	return n.s
}

// NameTable interns strings to unique Name identities. It is safe for
// concurrent use. Interned names are never removed.
type NameTable struct {
	mu    sync.RWMutex
	names map[string]*Name
}

// NewNameTable creates a new empty name table.
func NewNameTable() *NameTable {
	return &NameTable{
		names: make(map[string]*Name, 256),
	}
}

// Intern returns the Name for s, creating it if needed. Calling Intern twice
// with equal strings returns the identical *Name.
func (t *NameTable) Intern(s string) *Name {
	// Fast path: read-only lookup
	t.mu.RLock()
	if n, ok := t.names[s]; ok {
		t.mu.RUnlock()
		return n
	}
	t.mu.RUnlock()

	t.mu.Lock()
	defer t.mu.Unlock()

	// Double-check after acquiring write lock
	if n, ok := t.names[s]; ok {
		return n
	}
	n := &Name{s: s}
	t.names[s] = n
	return n
}

// Lookup returns the Name for s if it has been interned, without creating it.
func (t *NameTable) Lookup(s string) (*Name, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	n, ok := t.names[s]
	return n, ok
}

// Len returns the number of interned names.
func (t *NameTable) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.names)
}
