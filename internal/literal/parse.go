package literal

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// maxNesting bounds list/map nesting so hostile input cannot exhaust the stack.
const maxNesting = 64

// SyntaxError describes why a literal could not be parsed.
type SyntaxError struct {
	Input  string
	Offset int
	Msg    string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("literal %q: offset %d: %s", e.Input, e.Offset, e.Msg)
}

// Parse parses exactly one literal from s. Leading and trailing whitespace
// and a trailing `# comment` are ignored; anything else after the literal is
// an error.
func Parse(s string) (Value, error) {
	p := &parser{src: s}
	p.skipSpace()
	if p.eof() {
		return Value{}, p.errorf("empty literal")
	}
	v, err := p.value(0)
	if err != nil {
		return Value{}, err
	}
	p.skipSpace()
	if p.peek() == '#' {
		p.pos = len(p.src)
	}
	if !p.eof() {
		return Value{}, p.errorf("unexpected %q after value", p.rest())
	}
	return v, nil
}

// ParseKey parses a metadata key. Keys are scalar literals; a bare run of
// characters (which may contain spaces) is taken verbatim.
func ParseKey(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", &SyntaxError{Input: s, Msg: "empty key"}
	}
	if s[0] != '"' && s[0] != '\'' && s[0] != ':' {
		return s, nil
	}
	v, err := Parse(s)
	if err != nil {
		return "", err
	}
	if !v.IsScalar() {
		return "", &SyntaxError{Input: s, Msg: "key must be a scalar, got " + v.Kind().String()}
	}
	return v.String(), nil
}

type parser struct {
	src string
	pos int
}

func (p *parser) eof() bool    { return p.pos >= len(p.src) }
func (p *parser) rest() string { return p.src[p.pos:] }

func (p *parser) peek() byte {
	if p.eof() {
		return 0
	}
	return p.src[p.pos]
}

func (p *parser) errorf(format string, args ...any) error {
	return &SyntaxError{Input: p.src, Offset: p.pos, Msg: fmt.Sprintf(format, args...)}
}

func (p *parser) skipSpace() {
	for !p.eof() {
		r, size := utf8.DecodeRuneInString(p.rest())
		if !unicode.IsSpace(r) {
			return
		}
		p.pos += size
	}
}

func (p *parser) value(depth int) (Value, error) {
	if depth > maxNesting {
		return Value{}, p.errorf("nesting deeper than %d", maxNesting)
	}
	switch c := p.peek(); {
	case c == '"':
		s, err := p.doubleQuoted()
		return NewString(s), err
	case c == '\'':
		s, err := p.singleQuoted()
		return NewString(s), err
	case c == '[':
		return p.list(depth)
	case c == '{':
		return p.mapping(depth)
	case c == ':':
		p.pos++
		tok := p.bareToken()
		if tok == "" {
			return Value{}, p.errorf("empty symbol")
		}
		return NewString(tok), nil
	case c == '-' || c == '+' || c == '.' || (c >= '0' && c <= '9'):
		return p.number()
	case isBareStart(c):
		tok := p.bareToken()
		switch tok {
		case "true":
			return NewBool(true), nil
		case "false":
			return NewBool(false), nil
		case "nil", "null":
			return Value{}, p.errorf("%s has no value", tok)
		}
		return NewString(tok), nil
	default:
		return Value{}, p.errorf("unexpected %q", p.rest())
	}
}

func (p *parser) doubleQuoted() (string, error) {
	start := p.pos
	p.pos++ // opening quote
	var b strings.Builder
	for {
		if p.eof() {
			p.pos = start
			return "", p.errorf("unterminated string")
		}
		c := p.src[p.pos]
		switch c {
		case '"':
			p.pos++
			return b.String(), nil
		case '\\':
			p.pos++
			if p.eof() {
				return "", p.errorf("dangling escape")
			}
			if err := p.escape(&b); err != nil {
				return "", err
			}
		default:
			b.WriteByte(c)
			p.pos++
		}
	}
}

func (p *parser) escape(b *strings.Builder) error {
	c := p.src[p.pos]
	p.pos++
	switch c {
	case 'n':
		b.WriteByte('\n')
	case 't':
		b.WriteByte('\t')
	case 'r':
		b.WriteByte('\r')
	case '0':
		b.WriteByte(0)
	case 'e':
		b.WriteByte(0x1b)
	case 's':
		b.WriteByte(' ')
	case 'u':
		if p.pos+4 > len(p.src) {
			return p.errorf("short \\u escape")
		}
		n, err := strconv.ParseUint(p.src[p.pos:p.pos+4], 16, 32)
		if err != nil {
			return p.errorf("bad \\u escape %q", p.src[p.pos:p.pos+4])
		}
		b.WriteRune(rune(n))
		p.pos += 4
	default:
		// \\, \", \# and any other escaped character stand for themselves.
		b.WriteByte(c)
	}
	return nil
}

func (p *parser) singleQuoted() (string, error) {
	start := p.pos
	p.pos++
	var b strings.Builder
	for {
		if p.eof() {
			p.pos = start
			return "", p.errorf("unterminated string")
		}
		c := p.src[p.pos]
		switch {
		case c == '\'':
			p.pos++
			return b.String(), nil
		case c == '\\' && p.pos+1 < len(p.src) && (p.src[p.pos+1] == '\\' || p.src[p.pos+1] == '\''):
			b.WriteByte(p.src[p.pos+1])
			p.pos += 2
		default:
			b.WriteByte(c)
			p.pos++
		}
	}
}

func (p *parser) number() (Value, error) {
	start := p.pos
	for !p.eof() {
		c := p.peek()
		if (c >= '0' && c <= '9') || c == '.' || c == '-' || c == '+' || c == 'e' || c == 'E' || c == '_' {
			p.pos++
			continue
		}
		break
	}
	tok := strings.ReplaceAll(p.src[start:p.pos], "_", "")
	f, err := strconv.ParseFloat(tok, 64)
	if err != nil {
		p.pos = start
		return Value{}, p.errorf("bad number %q", tok)
	}
	return NewNumber(f), nil
}

func (p *parser) list(depth int) (Value, error) {
	p.pos++ // [
	var items []Value
	for {
		p.skipSpace()
		if p.peek() == ']' {
			p.pos++
			return Value{kind: KindList, list: items}, nil
		}
		if p.eof() {
			return Value{}, p.errorf("unterminated list")
		}
		v, err := p.value(depth + 1)
		if err != nil {
			return Value{}, err
		}
		items = append(items, v)
		if err := p.separator(']'); err != nil {
			return Value{}, err
		}
	}
}

func (p *parser) mapping(depth int) (Value, error) {
	p.pos++ // {
	m := NewMap()
	for {
		p.skipSpace()
		if p.peek() == '}' {
			p.pos++
			return NewMapValue(m), nil
		}
		if p.eof() {
			return Value{}, p.errorf("unterminated map")
		}
		key, err := p.mapKey(depth)
		if err != nil {
			return Value{}, err
		}
		p.skipSpace()
		switch {
		case strings.HasPrefix(p.rest(), "=>"):
			p.pos += 2
		case p.peek() == ':':
			p.pos++
		default:
			return Value{}, p.errorf("expected => or : after map key")
		}
		p.skipSpace()
		v, err := p.value(depth + 1)
		if err != nil {
			return Value{}, err
		}
		m.Set(key, v)
		if err := p.separator('}'); err != nil {
			return Value{}, err
		}
	}
}

// mapKey reads a scalar key. A bare key may be written as `name:` so the
// bare token must stop before a colon.
func (p *parser) mapKey(depth int) (string, error) {
	if isBareStart(p.peek()) {
		return p.bareKey(), nil
	}
	v, err := p.value(depth + 1)
	if err != nil {
		return "", err
	}
	if !v.IsScalar() {
		return "", p.errorf("map key must be a scalar, got %s", v.Kind())
	}
	return v.String(), nil
}

func (p *parser) separator(closer byte) error {
	p.skipSpace()
	switch p.peek() {
	case ',':
		p.pos++
		return nil
	case closer:
		return nil
	default:
		if p.eof() {
			return p.errorf("missing %q", closer)
		}
		return p.errorf("expected ',' or %q", closer)
	}
}

func isBareStart(c byte) bool {
	return c == '_' || c == '/' || c == '~' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isBareByte(c byte) bool {
	return isBareStart(c) || (c >= '0' && c <= '9') || c == '-' || c == '.' || c == ':'
}

func (p *parser) bareToken() string {
	start := p.pos
	for !p.eof() && isBareByte(p.peek()) {
		p.pos++
	}
	return p.src[start:p.pos]
}

func (p *parser) bareKey() string {
	start := p.pos
	for !p.eof() && isBareByte(p.peek()) && p.peek() != ':' {
		p.pos++
	}
	return p.src[start:p.pos]
}
