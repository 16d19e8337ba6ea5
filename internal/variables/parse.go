package variables

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// ErrNotObject is returned when the payload parses but is not an object.
var ErrNotObject = errors.New("variables must be an object")

// SyntaxError describes malformed JSON5 input.
type SyntaxError struct {
	Msg    string
	Line   int
	Column int
}

// Error implements the error interface.
func (e *SyntaxError) Error() string {
	return fmt.Sprintf("JSON5: %s at %d:%d", e.Msg, e.Line, e.Column)
}

// Parse reads a JSON5 document whose top-level value must be an object.
// Blank input yields an empty object.
func Parse(text string) (*Object, error) {
	if strings.TrimSpace(text) == "" {
		return NewObject(), nil
	}
	v, err := ParseValue(text)
	if err != nil {
		return nil, err
	}
	obj, ok := v.(*Object)
	if !ok {
		return nil, ErrNotObject
	}
	return obj, nil
}

// ParseValue reads any JSON5 value.
func ParseValue(text string) (any, error) {
	p := &parser{src: text, line: 1, col: 1}
	p.skipSpace()
	if p.err != nil {
		return nil, p.err
	}
	v := p.value()
	if p.err != nil {
		return nil, p.err
	}
	p.skipSpace()
	if p.err != nil {
		return nil, p.err
	}
	if !p.eof() {
		r, _ := p.peek()
		return nil, p.invalidChar(r)
	}
	return v, nil
}

type parser struct {
	src  string
	pos  int
	line int
	col  int
	err  error
}

func (p *parser) eof() bool { return p.pos >= len(p.src) }

func (p *parser) peek() (rune, int) {
	if p.eof() {
		return utf8.RuneError, 0
	}
	return utf8.DecodeRuneInString(p.src[p.pos:])
}

func (p *parser) next() rune {
	r, size := p.peek()
	if size == 0 {
		return utf8.RuneError
	}
	p.pos += size
	switch r {
	case '\n', '\u2028', '\u2029':
		p.line++
		p.col = 1
	case '\r':
		if !strings.HasPrefix(p.src[p.pos:], "\n") {
			p.line++
			p.col = 1
		}
	default:
		p.col++
	}
	return r
}

func (p *parser) fail(msg string) error {
	if p.err == nil {
		p.err = &SyntaxError{Msg: msg, Line: p.line, Column: p.col}
	}
	return p.err
}

func (p *parser) invalidChar(r rune) error {
	if p.eof() {
		return p.fail("invalid end of input")
	}
	return p.fail(fmt.Sprintf("invalid character %s", quoteRune(r)))
}

func quoteRune(r rune) string {
	switch r {
	case '\'':
		return `"'"`
	case '"':
		return `'"'`
	}
	return "'" + strings.Trim(strconv.QuoteRune(r), "'") + "'"
}

func isSpace(r rune) bool {
	switch r {
	case '\t', '\n', '\v', '\f', '\r', ' ', '\u00a0', '\u2028', '\u2029', '\ufeff':
		return true
	}
	return unicode.Is(unicode.Zs, r)
}

// skipSpace consumes whitespace and comments.
func (p *parser) skipSpace() {
	for !p.eof() {
		r, _ := p.peek()
		switch {
		case isSpace(r):
			p.next()
		case r == '/':
			rest := p.src[p.pos:]
			switch {
			case strings.HasPrefix(rest, "//"):
				for !p.eof() {
					c, _ := p.peek()
					if c == '\n' || c == '\r' || c == '\u2028' || c == '\u2029' {
						break
					}
					p.next()
				}
			case strings.HasPrefix(rest, "/*"):
				p.next()
				p.next()
				closed := false
				for !p.eof() {
					if strings.HasPrefix(p.src[p.pos:], "*/") {
						p.next()
						p.next()
						closed = true
						break
					}
					p.next()
				}
				if !closed {
					p.fail("invalid end of input")
					return
				}
			default:
				p.next()
				c, _ := p.peek()
				p.invalidChar(c)
				return
			}
		default:
			return
		}
	}
}

func (p *parser) value() any {
	r, _ := p.peek()
	switch {
	case p.eof():
		p.invalidChar(r)
		return nil
	case r == '{':
		return p.object()
	case r == '[':
		return p.array()
	case r == '"' || r == '\'':
		return p.str()
	case r == '-' || r == '+' || r == '.' || r == 'I' || r == 'N' || (r >= '0' && r <= '9'):
		return p.number()
	case r == 't':
		p.literal("true")
		return true
	case r == 'f':
		p.literal("false")
		return false
	case r == 'n':
		p.literal("null")
		return nil
	}
	p.invalidChar(r)
	return nil
}

func (p *parser) literal(word string) {
	for _, want := range word {
		r, _ := p.peek()
		if p.eof() || r != want {
			p.invalidChar(r)
			return
		}
		p.next()
	}
}

func (p *parser) object() *Object {
	p.next() // {
	obj := NewObject()
	for {
		p.skipSpace()
		if p.err != nil {
			return nil
		}
		r, _ := p.peek()
		if r == '}' && !p.eof() {
			p.next()
			return obj
		}
		key := p.key()
		if p.err != nil {
			return nil
		}
		p.skipSpace()
		if p.err != nil {
			return nil
		}
		if r, _ := p.peek(); p.eof() || r != ':' {
			p.invalidChar(r)
			return nil
		}
		p.next()
		p.skipSpace()
		if p.err != nil {
			return nil
		}
		v := p.value()
		if p.err != nil {
			return nil
		}
		obj.Set(key, v)
		p.skipSpace()
		if p.err != nil {
			return nil
		}
		r, _ = p.peek()
		switch {
		case p.eof():
			p.invalidChar(r)
			return nil
		case r == ',':
			p.next()
		case r == '}':
			p.next()
			return obj
		default:
			p.invalidChar(r)
			return nil
		}
	}
}

func (p *parser) key() string {
	r, _ := p.peek()
	if r == '"' || r == '\'' {
		return p.str()
	}
	return p.identifier()
}

func (p *parser) array() []any {
	p.next() // [
	out := []any{}
	for {
		p.skipSpace()
		if p.err != nil {
			return nil
		}
		r, _ := p.peek()
		if r == ']' && !p.eof() {
			p.next()
			return out
		}
		v := p.value()
		if p.err != nil {
			return nil
		}
		out = append(out, v)
		p.skipSpace()
		if p.err != nil {
			return nil
		}
		r, _ = p.peek()
		switch {
		case p.eof():
			p.invalidChar(r)
			return nil
		case r == ',':
			p.next()
		case r == ']':
			p.next()
			return out
		default:
			p.invalidChar(r)
			return nil
		}
	}
}

func isIDStart(r rune) bool {
	return r == '$' || r == '_' || unicode.In(r, unicode.L, unicode.Nl)
}

func isIDPart(r rune) bool {
	return isIDStart(r) || r == '\u200c' || r == '\u200d' ||
		unicode.In(r, unicode.Mn, unicode.Mc, unicode.Nd, unicode.Pc)
}

func (p *parser) identifier() string {
	var b strings.Builder
	first := true
	for !p.eof() {
		r, _ := p.peek()
		if r == '\\' {
			p.next()
			if c, _ := p.peek(); p.eof() || c != 'u' {
				p.invalidChar(c)
				return ""
			}
			p.next()
			u, ok := p.hex(4)
			if !ok {
				return ""
			}
			if (first && !isIDStart(u)) || (!first && !isIDPart(u)) {
				p.fail(fmt.Sprintf("invalid identifier character %s", quoteRune(u)))
				return ""
			}
			b.WriteRune(u)
			first = false
			continue
		}
		if first && !isIDStart(r) {
			p.invalidChar(r)
			return ""
		}
		if !first && !isIDPart(r) {
			break
		}
		b.WriteRune(p.next())
		first = false
	}
	if first {
		r, _ := p.peek()
		p.invalidChar(r)
		return ""
	}
	return b.String()
}

func (p *parser) hex(n int) (rune, bool) {
	var v rune
	for i := 0; i < n; i++ {
		r, _ := p.peek()
		d, ok := hexDigit(r)
		if p.eof() || !ok {
			p.invalidChar(r)
			return 0, false
		}
		p.next()
		v = v<<4 | d
	}
	return v, true
}

func hexDigit(r rune) (rune, bool) {
	switch {
	case r >= '0' && r <= '9':
		return r - '0', true
	case r >= 'a' && r <= 'f':
		return r - 'a' + 10, true
	case r >= 'A' && r <= 'F':
		return r - 'A' + 10, true
	}
	return 0, false
}

func (p *parser) str() string {
	quote := p.next()
	var b strings.Builder
	for {
		r, _ := p.peek()
		if p.eof() {
			p.invalidChar(r)
			return ""
		}
		switch r {
		case quote:
			p.next()
			return b.String()
		case '\n', '\r':
			p.invalidChar(r)
			return ""
		case '\\':
			p.next()
			if !p.escape(&b) {
				return ""
			}
		default:
			b.WriteRune(p.next())
		}
	}
}

func (p *parser) escape(b *strings.Builder) bool {
	r, _ := p.peek()
	if p.eof() {
		p.invalidChar(r)
		return false
	}
	switch r {
	case 'b':
		b.WriteByte('\b')
	case 'f':
		b.WriteByte('\f')
	case 'n':
		b.WriteByte('\n')
	case 'r':
		b.WriteByte('\r')
	case 't':
		b.WriteByte('\t')
	case 'v':
		b.WriteByte('\v')
	case '0':
		p.next()
		if c, _ := p.peek(); c >= '0' && c <= '9' && !p.eof() {
			p.invalidChar(c)
			return false
		}
		b.WriteByte(0)
		return true
	case 'x':
		p.next()
		v, ok := p.hex(2)
		if !ok {
			return false
		}
		b.WriteRune(v)
		return true
	case 'u':
		p.next()
		v, ok := p.hex(4)
		if !ok {
			return false
		}
		b.WriteRune(p.surrogate(v))
		return true
	case '\n', '\u2028', '\u2029':
		// line continuation
	case '\r':
		p.next()
		if c, _ := p.peek(); c == '\n' && !p.eof() {
			p.next()
		}
		return true
	default:
		if r >= '1' && r <= '9' {
			p.invalidChar(r)
			return false
		}
		b.WriteRune(r)
	}
	p.next()
	return true
}

// surrogate joins a UTF-16 high surrogate with a following \u low surrogate.
func (p *parser) surrogate(high rune) rune {
	if high < 0xd800 || high > 0xdbff || !strings.HasPrefix(p.src[p.pos:], `\u`) {
		return high
	}
	save := *p
	p.next()
	p.next()
	low, ok := p.hex(4)
	if !ok || low < 0xdc00 || low > 0xdfff {
		*p = save
		return high
	}
	return (high-0xd800)<<10 + (low - 0xdc00) + 0x10000
}

func (p *parser) number() any {
	start := p.pos
	sign := 1.0
	if r, _ := p.peek(); r == '-' || r == '+' {
		if r == '-' {
			sign = -1
		}
		p.next()
	}
	r, _ := p.peek()
	switch {
	case r == 'I':
		p.literal("Infinity")
		return Number(math.Inf(int(sign)))
	case r == 'N':
		p.literal("NaN")
		return Number(math.NaN())
	case r == '0' && !p.eof():
		p.next()
		if c, _ := p.peek(); c == 'x' || c == 'X' {
			p.next()
			return p.hexNumber(sign)
		}
		if c, _ := p.peek(); c >= '0' && c <= '9' && !p.eof() {
			p.invalidChar(c)
			return nil
		}
	case r >= '1' && r <= '9':
		p.digits()
	case r == '.':
	default:
		p.invalidChar(r)
		return nil
	}
	intEnd := p.pos
	if r, _ := p.peek(); r == '.' && !p.eof() {
		p.next()
		if p.digits() == 0 && intEnd == start+signLen(p.src[start:intEnd]) {
			c, _ := p.peek()
			p.invalidChar(c)
			return nil
		}
	}
	if r, _ := p.peek(); (r == 'e' || r == 'E') && !p.eof() {
		p.next()
		if c, _ := p.peek(); c == '+' || c == '-' {
			p.next()
		}
		if p.digits() == 0 {
			c, _ := p.peek()
			p.invalidChar(c)
			return nil
		}
	}
	lit := p.src[start:p.pos]
	lit = strings.TrimPrefix(lit, "+")
	f, err := strconv.ParseFloat(lit, 64)
	if err != nil {
		var numErr *strconv.NumError
		if errors.As(err, &numErr) && errors.Is(numErr.Err, strconv.ErrRange) {
			return Number(f)
		}
		p.fail(fmt.Sprintf("invalid number %q", lit))
		return nil
	}
	return Number(f)
}

func signLen(s string) int {
	if strings.HasPrefix(s, "-") || strings.HasPrefix(s, "+") {
		return 1
	}
	return 0
}

func (p *parser) digits() int {
	n := 0
	for !p.eof() {
		r, _ := p.peek()
		if r < '0' || r > '9' {
			break
		}
		p.next()
		n++
	}
	return n
}

func (p *parser) hexNumber(sign float64) any {
	start := p.pos
	for !p.eof() {
		r, _ := p.peek()
		if _, ok := hexDigit(r); !ok {
			break
		}
		p.next()
	}
	if p.pos == start {
		r, _ := p.peek()
		p.invalidChar(r)
		return nil
	}
	var f float64
	for _, c := range p.src[start:p.pos] {
		d, _ := hexDigit(c)
		f = f*16 + float64(d)
	}
	return Number(sign * f)
}
