package ngram

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/cognicore/labelhier/pkg/labelhier/internalerr"
)

// String renders the n-gram as a tuple literal, e.g. ('good', 'reason') or
// ('termination',). This is the node id format of persisted hierarchies.
func (n NGram) String() string {
	var b strings.Builder
	b.WriteByte('(')
	for i, tok := range n {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(quote(tok))
	}
	if len(n) == 1 {
		b.WriteByte(',')
	}
	b.WriteByte(')')
	return b.String()
}

func quote(s string) string {
	q := byte('\'')
	if strings.ContainsRune(s, '\'') && !strings.ContainsRune(s, '"') {
		q = '"'
	}
	var b strings.Builder
	b.WriteByte(q)
	for _, r := range s {
		switch {
		case r == '\\':
			b.WriteString(`\\`)
		case r == rune(q):
			b.WriteByte('\\')
			b.WriteByte(q)
		case r == '\n':
			b.WriteString(`\n`)
		case r == '\t':
			b.WriteString(`\t`)
		case r == '\r':
			b.WriteString(`\r`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte(q)
	return b.String()
}

// Parse reads a tuple literal of quoted strings back into an NGram.
// Both quote styles and the usual backslash escapes are accepted; a list
// literal ['a', 'b'] is accepted as well. Any other input, as well as empty
// tokens, yields an error wrapping internalerr.ErrMalformedIdentity.
func Parse(s string) (NGram, error) {
	p := &literalParser{src: s}
	n, err := p.parse()
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", internalerr.ErrMalformedIdentity, s, err)
	}
	return n, nil
}

// MustParse is Parse for literals known to be valid. It panics otherwise.
func MustParse(s string) NGram {
	n, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return n
}

type literalParser struct {
	src string
	pos int
}

func (p *literalParser) parse() (NGram, error) {
	p.skipSpace()
	open, ok := p.next()
	if !ok {
		return nil, fmt.Errorf("empty literal")
	}
	var closing byte
	switch open {
	case '(':
		closing = ')'
	case '[':
		closing = ']'
	default:
		return nil, fmt.Errorf("expected '(' at offset %d", p.pos-1)
	}

	out := NGram{}
	for {
		p.skipSpace()
		c, ok := p.peek()
		if !ok {
			return nil, fmt.Errorf("unterminated literal")
		}
		if c == closing {
			p.pos++
			break
		}
		tok, err := p.str()
		if err != nil {
			return nil, err
		}
		if !validToken(tok) {
			return nil, fmt.Errorf("invalid token %q", tok)
		}
		out = append(out, tok)

		p.skipSpace()
		c, ok = p.next()
		if !ok {
			return nil, fmt.Errorf("unterminated literal")
		}
		if c == closing {
			if closing == ')' && len(out) == 1 {
				return nil, fmt.Errorf("single-element tuple without trailing comma")
			}
			break
		}
		if c != ',' {
			return nil, fmt.Errorf("expected ',' at offset %d", p.pos-1)
		}
	}

	p.skipSpace()
	if p.pos != len(p.src) {
		return nil, fmt.Errorf("trailing input at offset %d", p.pos)
	}
	return out, nil
}

func (p *literalParser) str() (string, error) {
	q, ok := p.next()
	if !ok || (q != '\'' && q != '"') {
		return "", fmt.Errorf("expected quoted string at offset %d", p.pos)
	}
	var b strings.Builder
	for {
		c, ok := p.next()
		if !ok {
			return "", fmt.Errorf("unterminated string")
		}
		switch c {
		case q:
			return b.String(), nil
		case '\\':
			if err := p.escape(&b); err != nil {
				return "", err
			}
		default:
			b.WriteByte(c)
		}
	}
}

func (p *literalParser) escape(b *strings.Builder) error {
	c, ok := p.next()
	if !ok {
		return fmt.Errorf("dangling escape")
	}
	switch c {
	case '\\', '\'', '"':
		b.WriteByte(c)
	case 'n':
		b.WriteByte('\n')
	case 't':
		b.WriteByte('\t')
	case 'r':
		b.WriteByte('\r')
	case 'x':
		return p.hexRune(b, 2)
	case 'u':
		return p.hexRune(b, 4)
	case 'U':
		return p.hexRune(b, 8)
	default:
		return fmt.Errorf("unknown escape \\%c", c)
	}
	return nil
}

func (p *literalParser) hexRune(b *strings.Builder, width int) error {
	if p.pos+width > len(p.src) {
		return fmt.Errorf("short escape")
	}
	v, err := strconv.ParseUint(p.src[p.pos:p.pos+width], 16, 32)
	if err != nil {
		return fmt.Errorf("bad hex escape: %w", err)
	}
	p.pos += width
	r := rune(v)
	if !utf8.ValidRune(r) {
		return fmt.Errorf("invalid code point %U", r)
	}
	b.WriteRune(r)
	return nil
}

func (p *literalParser) skipSpace() {
	for p.pos < len(p.src) {
		switch p.src[p.pos] {
		case ' ', '\t', '\n', '\r':
			p.pos++
		default:
			return
		}
	}
}

func (p *literalParser) peek() (byte, bool) {
	if p.pos >= len(p.src) {
		return 0, false
	}
	return p.src[p.pos], true
}

func (p *literalParser) next() (byte, bool) {
	c, ok := p.peek()
	if ok {
		p.pos++
	}
	return c, ok
}
