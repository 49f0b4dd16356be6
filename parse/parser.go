// Package parse converts program text into interp tokens: a lazy,
// restartable front end over any byte stream carrying the token grammar.
package parse

import (
	"io"
	"strings"

	"github.com/slip-lang/slip/interp"
)

// Parser produces a lazy sequence of tokens from a character stream.
// Array literals are collected eagerly into one array token; procedure
// literals into one procedure token that stays inert until invoked.
type Parser struct {
	sc *scanner
}

// NewParser creates a parser reading from r. Names are interned into names.
func NewParser(r io.Reader, names *interp.NameTable) *Parser {
	return &Parser{sc: newScanner(r, names)}
}

// Next returns the next complete token. It returns io.EOF at end of input
// and *interp.Condition syntax errors for malformed input.
func (p *Parser) Next() (interp.Token, error) {
	it, err := p.sc.next()
	if err != nil {
		return interp.Token{}, err
	}
	return p.build(it)
}

// build turns one item into a token, consuming nested items for brackets.
func (p *Parser) build(it item) (interp.Token, error) {
	switch it.kind {
	case itemToken:
		return it.tok, nil
	case itemArrayOpen:
		items, err := p.collect(itemArrayClose, it.pos, "]")
		if err != nil {
			return interp.Token{}, err
		}
		return interp.NewArray(items), nil
	case itemProcOpen:
		body, err := p.collect(itemProcClose, it.pos, "}")
		if err != nil {
			return interp.Token{}, err
		}
		return interp.NewProc(body), nil
	case itemArrayClose:
		return interp.Token{}, interp.NewSyntax(it.pos, "unmatched ]")
	case itemProcClose:
		return interp.Token{}, interp.NewSyntax(it.pos, "unmatched }")
	}
	return interp.Token{}, interp.NewSyntax(it.pos, "unexpected input")
}

// collect gathers tokens until the matching closer.
func (p *Parser) collect(closer itemKind, open interp.Position, close string) ([]interp.Token, error) {
	var out []interp.Token
	for {
		it, err := p.sc.next()
		if err == io.EOF {
			return nil, interp.NewSyntax(open, "missing closing %s", close)
		}
		if err != nil {
			return nil, err
		}
		if it.kind == closer {
			return out, nil
		}
		// Reject the mismatched closer early for a better position.
		if it.kind == itemArrayClose || it.kind == itemProcClose {
			return nil, interp.NewSyntax(it.pos, "mismatched closing bracket")
		}
		t, err := p.build(it)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
}

// All consumes the rest of the stream into a token slice.
func (p *Parser) All() ([]interp.Token, error) {
	var out []interp.Token
	for {
		t, err := p.Next()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
}

// String parses a complete program text into tokens.
func String(text string, names *interp.NameTable) ([]interp.Token, error) {
	return NewParser(strings.NewReader(text), names).All()
}
