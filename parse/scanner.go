package parse

import (
	"bufio"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/slip-lang/slip/interp"
)

// ---------------------------------------------------------------------------
// Scanner: character stream -> lexical items
// ---------------------------------------------------------------------------

// itemKind distinguishes scanner output: a finished token, or one of the
// bracketing delimiters the parser assembles into arrays and procedures.
type itemKind uint8

const (
	itemToken itemKind = iota
	itemArrayOpen
	itemArrayClose
	itemProcOpen
	itemProcClose
)

type item struct {
	kind itemKind
	tok  interp.Token
	pos  interp.Position
}

// scanner reads runes from a byte stream and produces lexical items:
// literals (booleans, integers, floats, strings, quoted names), executable
// names, and bracket delimiters. Malformed literals yield SyntaxError
// conditions carrying the source position.
type scanner struct {
	r     *bufio.Reader
	names *interp.NameTable

	ch      rune // current character, 0 at EOF
	off     int  // byte offset of current character
	nextOff int
	line    int // 1-based
	col     int // 1-based
	eof     bool
}

func newScanner(r io.Reader, names *interp.NameTable) *scanner {
	s := &scanner{
		r:     bufio.NewReader(r),
		names: names,
		line:  1,
		col:   0,
	}
	s.readChar()
	return s
}

// readChar advances to the next rune, tracking position.
func (s *scanner) readChar() {
	if s.ch == '\n' {
		s.line++
		s.col = 0
	}
	r, size, err := s.r.ReadRune()
	if err != nil {
		s.ch = 0
		s.eof = true
		s.off = s.nextOff
		return
	}
	s.ch = r
	s.off = s.nextOff
	s.nextOff += size
	s.col++
}

func (s *scanner) position() interp.Position {
	return interp.Position{Offset: s.off, Line: s.line, Column: s.col}
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '\f'
}

// isDelimiter reports runes that terminate a bare name or number.
func isDelimiter(r rune) bool {
	switch r {
	case '(', ')', '[', ']', '{', '}', '/', '%':
		return true
	}
	return isSpace(r)
}

func (s *scanner) skipSpaceAndComments() {
	for !s.eof {
		switch {
		case isSpace(s.ch):
			s.readChar()
		case s.ch == '%':
			for !s.eof && s.ch != '\n' {
				s.readChar()
			}
		default:
			return
		}
	}
}

// next returns the next lexical item. At end of input it returns io.EOF;
// syntax errors are *interp.Condition values.
func (s *scanner) next() (item, error) {
	s.skipSpaceAndComments()
	if s.eof {
		return item{}, io.EOF
	}
	pos := s.position()

	switch s.ch {
	case '[':
		s.readChar()
		return item{kind: itemArrayOpen, pos: pos}, nil
	case ']':
		s.readChar()
		return item{kind: itemArrayClose, pos: pos}, nil
	case '{':
		s.readChar()
		return item{kind: itemProcOpen, pos: pos}, nil
	case '}':
		s.readChar()
		return item{kind: itemProcClose, pos: pos}, nil
	case ')':
		s.readChar()
		return item{}, interp.NewSyntax(pos, "unmatched )")
	case '(':
		return s.scanString(pos)
	case '/':
		return s.scanLiteralName(pos)
	default:
		return s.scanWord(pos)
	}
}

// scanString scans a (...) string literal with escapes. Unescaped parens
// nest and must balance.
func (s *scanner) scanString(start interp.Position) (item, error) {
	s.readChar() // consume '('
	var sb strings.Builder
	depth := 1
	for {
		if s.eof {
			return item{}, interp.NewSyntax(start, "unterminated string")
		}
		switch s.ch {
		case '(':
			depth++
			sb.WriteByte('(')
			s.readChar()
		case ')':
			depth--
			if depth == 0 {
				s.readChar()
				return item{tok: interp.NewString(sb.String()), pos: start}, nil
			}
			sb.WriteByte(')')
			s.readChar()
		case '\\':
			s.readChar()
			if s.eof {
				return item{}, interp.NewSyntax(start, "unterminated string")
			}
			switch s.ch {
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			case 'r':
				sb.WriteByte('\r')
			case '\\', '(', ')':
				sb.WriteRune(s.ch)
			case '0', '1', '2', '3', '4', '5', '6', '7':
				code := int(s.ch - '0')
				for i := 0; i < 2; i++ {
					next, _, err := s.r.ReadRune()
					if err != nil {
						break
					}
					if next < '0' || next > '7' {
						_ = s.r.UnreadRune()
						break
					}
					code = code*8 + int(next-'0')
					s.nextOff++
					s.col++
				}
				if code > 0xff {
					return item{}, interp.NewSyntax(start, `octal escape \%o out of range`, code)
				}
				sb.WriteByte(byte(code))
			case '\n':
				// line continuation: swallow the newline
			default:
				return item{}, interp.NewSyntax(s.position(), "invalid escape \\%c", s.ch)
			}
			s.readChar()
		default:
			sb.WriteRune(s.ch)
			s.readChar()
		}
	}
}

// scanLiteralName scans a /name quoted name.
func (s *scanner) scanLiteralName(start interp.Position) (item, error) {
	s.readChar() // consume '/'
	var sb strings.Builder
	for !s.eof && !isDelimiter(s.ch) {
		sb.WriteRune(s.ch)
		s.readChar()
	}
	if sb.Len() == 0 {
		return item{}, interp.NewSyntax(start, "empty name after /")
	}
	return item{tok: interp.NewLiteralName(s.names.Intern(sb.String())), pos: start}, nil
}

// scanWord scans a number, boolean, or executable name.
func (s *scanner) scanWord(start interp.Position) (item, error) {
	var sb strings.Builder
	for !s.eof && !isDelimiter(s.ch) {
		sb.WriteRune(s.ch)
		s.readChar()
	}
	word := sb.String()

	switch word {
	case "true":
		return item{tok: interp.NewBoolean(true), pos: start}, nil
	case "false":
		return item{tok: interp.NewBoolean(false), pos: start}, nil
	// The non-finite spellings the renderer emits scan back as floats.
	case "inf":
		return item{tok: interp.NewFloat(math.Inf(1)), pos: start}, nil
	case "-inf":
		return item{tok: interp.NewFloat(math.Inf(-1)), pos: start}, nil
	case "nan":
		return item{tok: interp.NewFloat(math.NaN()), pos: start}, nil
	}

	if looksNumeric(word) {
		if i, err := strconv.ParseInt(word, 10, 64); err == nil {
			return item{tok: interp.NewInteger(i), pos: start}, nil
		}
		if f, err := strconv.ParseFloat(word, 64); err == nil {
			return item{tok: interp.NewFloat(f), pos: start}, nil
		}
		return item{}, interp.NewSyntax(start, "invalid number %q", word)
	}

	return item{tok: interp.NewExecutableName(s.names.Intern(word)), pos: start}, nil
}

// looksNumeric reports whether a word is committed to the numeric grammar:
// it starts with a digit, or a sign/dot followed by a digit. Such words
// must parse as numbers; anything else is a name.
func looksNumeric(word string) bool {
	if word == "" {
		return false
	}
	i := 0
	if word[i] == '+' || word[i] == '-' {
		i++
	}
	if i < len(word) && word[i] == '.' {
		i++
	}
	return i < len(word) && word[i] >= '0' && word[i] <= '9'
}
