package variables

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const indentUnit = "  "

// Format renders v as indented JSON5 with unquoted identifier keys and
// trailing commas, the form shown in the variables textarea.
func Format(v any) string {
	var b strings.Builder
	writeValue(&b, v, "")
	return b.String()
}

func writeValue(b *strings.Builder, v any, indent string) {
	switch val := v.(type) {
	case *Object:
		members := val.Members()
		if len(members) == 0 {
			b.WriteString("{}")
			return
		}
		inner := indent + indentUnit
		b.WriteString("{\n")
		for _, m := range members {
			b.WriteString(inner)
			b.WriteString(formatKey(m.Key))
			b.WriteString(": ")
			writeValue(b, m.Value, inner)
			b.WriteString(",\n")
		}
		b.WriteString(indent)
		b.WriteString("}")
	case []any:
		if len(val) == 0 {
			b.WriteString("[]")
			return
		}
		inner := indent + indentUnit
		b.WriteString("[\n")
		for _, item := range val {
			b.WriteString(inner)
			writeValue(b, item, inner)
			b.WriteString(",\n")
		}
		b.WriteString(indent)
		b.WriteString("]")
	case string:
		b.WriteString(quoteString(val))
	case nil:
		b.WriteString("null")
	default:
		b.WriteString(scalarString(val))
	}
}

func formatKey(key string) string {
	if isIdentifier(key) {
		return key
	}
	return quoteString(key)
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if i == 0 && !isIDStart(r) {
			return false
		}
		if i > 0 && !isIDPart(r) {
			return false
		}
	}
	return true
}

// quoteString picks whichever quote character needs fewer escapes,
// preferring double quotes on a tie.
func quoteString(s string) string {
	quote := '"'
	if strings.Count(s, `"`) > strings.Count(s, "'") {
		quote = '\''
	}
	var b strings.Builder
	b.WriteRune(quote)
	for i, r := range s {
		switch r {
		case quote:
			b.WriteByte('\\')
			b.WriteRune(r)
		case '\\':
			b.WriteString(`\\`)
		case '\b':
			b.WriteString(`\b`)
		case '\f':
			b.WriteString(`\f`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		case '\v':
			b.WriteString(`\v`)
		case 0:
			next, _ := utf8.DecodeRuneInString(s[i+1:])
			if next >= '0' && next <= '9' {
				b.WriteString(`\x00`)
			} else {
				b.WriteString(`\0`)
			}
		case '\u2028', '\u2029':
			fmt.Fprintf(&b, `\u%04x`, r)
		default:
			if r < 0x20 {
				fmt.Fprintf(&b, `\x%02x`, r)
				continue
			}
			b.WriteRune(r)
		}
	}
	b.WriteRune(quote)
	return b.String()
}
