package interp

// ---------------------------------------------------------------------------
// Iterator: cursor over an array or dictionary
// ---------------------------------------------------------------------------

// Iterator is a position-carrying cursor over an array or dictionary.
// Dictionary iterators snapshot the key set at creation, in name order, so
// later mutation of the dictionary does not disturb an active cursor.
type Iterator struct {
	items []Token // array elements
	keys  []*Name // dictionary keys, nil for array iterators
	dict  *Dictionary
	pos   int
}

// NewArrayIterator creates a cursor over items.
func NewArrayIterator(items []Token) *Iterator {
	return &Iterator{items: items}
}

// NewDictIterator creates a cursor over d's entries in name order.
func NewDictIterator(d *Dictionary) *Iterator {
	it := &Iterator{dict: d}
	d.ForEach(func(n *Name, _ Token) {
		it.keys = append(it.keys, n)
	})
	return it
}

// Next advances the cursor. Array iterators yield one token per step;
// dictionary iterators yield the literal key name followed by the value.
// ok is false once the cursor is exhausted.
func (it *Iterator) Next() (step []Token, ok bool) {
	if it.keys != nil {
		for it.pos < len(it.keys) {
			k := it.keys[it.pos]
			it.pos++
			v, present := it.dict.Lookup(k)
			if !present {
				continue // key removed since snapshot
			}
			return []Token{NewLiteralName(k), v.Copy()}, true
		}
		return nil, false
	}
	if it.pos >= len(it.items) {
		return nil, false
	}
	t := it.items[it.pos].Copy()
	it.pos++
	return []Token{t}, true
}

// Remaining returns the number of positions left.
func (it *Iterator) Remaining() int {
	if it.keys != nil {
		return len(it.keys) - it.pos
	}
	return len(it.items) - it.pos
}

func (it *Iterator) kindName() string {
	if it.keys != nil {
		return "dictionary"
	}
	return "array"
}
