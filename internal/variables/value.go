// Package variables parses the free-form variables payload typed into the
// studio form and serializes it into a template query string.
//
// Parsed values are one of: nil (null), bool, Number, string, []any, *Object.
package variables

import (
	"math"
	"sort"
	"strconv"
	"strings"
)

// Number is a JSON5 numeric literal. It formats the way a browser would
// stringify the same number.
type Number float64

// String returns the ECMAScript Number::toString form.
func (n Number) String() string {
	f := float64(n)
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case f == 0:
		return "0"
	}
	abs := math.Abs(f)
	if abs >= 1e-6 && abs < 1e21 {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	s := strconv.FormatFloat(f, 'e', -1, 64)
	mantissa, exp, _ := strings.Cut(s, "e")
	sign := exp[:1]
	digits := strings.TrimLeft(exp[1:], "0")
	if digits == "" {
		digits = "0"
	}
	return mantissa + "e" + sign + digits
}

// Member is a single key/value pair of an Object.
type Member struct {
	Key   string
	Value any
}

// Object is an ordered string-keyed mapping.
type Object struct {
	members []Member
	index   map[string]int
}

// NewObject returns an empty Object.
func NewObject() *Object {
	return &Object{index: map[string]int{}}
}

// Set stores value under key. Replacing an existing key keeps its position.
func (o *Object) Set(key string, value any) {
	if o.index == nil {
		o.index = map[string]int{}
	}
	if i, ok := o.index[key]; ok {
		o.members[i].Value = value
		return
	}
	o.index[key] = len(o.members)
	o.members = append(o.members, Member{Key: key, Value: value})
}

// Get returns the value stored under key.
func (o *Object) Get(key string) (any, bool) {
	if o == nil {
		return nil, false
	}
	i, ok := o.index[key]
	if !ok {
		return nil, false
	}
	return o.members[i].Value, true
}

// Len reports the number of members.
func (o *Object) Len() int {
	if o == nil {
		return 0
	}
	return len(o.members)
}

// Keys returns the keys in property enumeration order: array-index keys
// first in ascending numeric order, then the remaining keys in insertion
// order. This is the order a browser enumerates a parsed object in.
func (o *Object) Keys() []string {
	members := o.Members()
	keys := make([]string, len(members))
	for i, m := range members {
		keys[i] = m.Key
	}
	return keys
}

// Members returns the members in property enumeration order.
func (o *Object) Members() []Member {
	if o == nil {
		return nil
	}
	var indexed, named []Member
	for _, m := range o.members {
		if _, ok := arrayIndex(m.Key); ok {
			indexed = append(indexed, m)
		} else {
			named = append(named, m)
		}
	}
	if len(indexed) == 0 {
		out := make([]Member, len(named))
		copy(out, named)
		return out
	}
	sort.SliceStable(indexed, func(i, j int) bool {
		a, _ := arrayIndex(indexed[i].Key)
		b, _ := arrayIndex(indexed[j].Key)
		return a < b
	})
	return append(indexed, named...)
}

// arrayIndex reports whether key is a canonical array index (0 .. 2^32-2).
func arrayIndex(key string) (uint32, bool) {
	if key == "" || len(key) > 10 {
		return 0, false
	}
	if len(key) > 1 && key[0] == '0' {
		return 0, false
	}
	n, err := strconv.ParseUint(key, 10, 32)
	if err != nil || n == math.MaxUint32 {
		return 0, false
	}
	return uint32(n), true
}
