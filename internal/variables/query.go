package variables

import (
	"strconv"
	"strings"
)

// Stringify serializes obj into a query string using bracket notation for
// nested values: {a: {b: 1}, c: [x, y]} becomes a%5Bb%5D=1&c%5B0%5D=x&c%5B1%5D=y.
// Empty objects and arrays are skipped and null values serialize as "key=".
func Stringify(obj *Object) string {
	var pairs []string
	for _, m := range obj.Members() {
		pairs = appendPairs(pairs, m.Key, m.Value)
	}
	return strings.Join(pairs, "&")
}

func appendPairs(pairs []string, prefix string, v any) []string {
	switch val := v.(type) {
	case *Object:
		for _, m := range val.Members() {
			pairs = appendPairs(pairs, prefix+"["+m.Key+"]", m.Value)
		}
		return pairs
	case []any:
		for i, item := range val {
			pairs = appendPairs(pairs, prefix+"["+strconv.Itoa(i)+"]", item)
		}
		return pairs
	}
	return append(pairs, Escape(prefix)+"="+Escape(scalarString(v)))
}

func scalarString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case bool:
		if val {
			return "true"
		}
		return "false"
	case Number:
		return val.String()
	case string:
		return val
	}
	return ""
}

const upperhex = "0123456789ABCDEF"

// Escape percent-encodes every byte except RFC 3986 unreserved characters.
func Escape(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isUnreserved(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(upperhex[c>>4])
		b.WriteByte(upperhex[c&15])
	}
	return b.String()
}

func isUnreserved(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return true
	case c == '-', c == '.', c == '_', c == '~':
		return true
	}
	return false
}
