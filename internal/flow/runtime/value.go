// Package runtime tree-walks an analyzed Program against a trigger payload,
// an environment map, and a connector registry, producing an Outcome.
package runtime

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Value is the closed set of runtime value kinds flowing through a Flow
// workflow: text, number, boolean, list, record, and the empty singleton.
type Value interface {
	value()
	String() string

	// ToJSON converts the value into a plain Go value suitable for
	// encoding/json (empty -> nil, Record/List recurse). The webhook server
	// and the HTTP connector call this; the evaluator itself never serializes.
	ToJSON() interface{}
}

// Text is a string value.
type Text string

func (Text) value()            {}
func (t Text) String() string  { return string(t) }
func (t Text) ToJSON() interface{} { return string(t) }

// Number is a float64-backed numeric value; Flow has no separate int type.
type Number float64

func (Number) value() {}
func (n Number) String() string {
	return strconv.FormatFloat(float64(n), 'f', -1, 64)
}
func (n Number) ToJSON() interface{} { return float64(n) }

// Boolean is a true/false value.
type Boolean bool

func (Boolean) value() {}
func (b Boolean) String() string {
	if b {
		return "true"
	}
	return "false"
}
func (b Boolean) ToJSON() interface{} { return bool(b) }

// List is an ordered sequence of values.
type List []Value

func (List) value() {}
func (l List) String() string {
	parts := make([]string, len(l))
	for i, v := range l {
		parts[i] = v.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
func (l List) ToJSON() interface{} {
	out := make([]interface{}, len(l))
	for i, v := range l {
		out[i] = v.ToJSON()
	}
	return out
}

// Record is a field map, used for the trigger payload, connector results,
// and any structured data built up during execution.
type Record map[string]Value

func (Record) value() {}
func (r Record) String() string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s: %s", k, r[k].String())
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
func (r Record) ToJSON() interface{} {
	out := make(map[string]interface{}, len(r))
	for k, v := range r {
		out[k] = v.ToJSON()
	}
	return out
}

// emptyValue is the singleton representing Flow's `empty`: a missing field,
// an out-of-bounds access, or an explicitly absent result.
type emptyValue struct{}

func (emptyValue) value()             {}
func (emptyValue) String() string     { return "empty" }
func (emptyValue) ToJSON() interface{} { return nil }

// Empty is the shared empty singleton.
var Empty Value = emptyValue{}

// IsEmpty reports whether v is the empty singleton.
func IsEmpty(v Value) bool {
	_, ok := v.(emptyValue)
	return ok
}

// Truthy implements spec.md §4.4's truthiness rule: false, empty, empty
// text/list/record, and zero are falsy; everything else is truthy.
func Truthy(v Value) bool {
	switch x := v.(type) {
	case Boolean:
		return bool(x)
	case emptyValue:
		return false
	case Text:
		return x != ""
	case Number:
		return x != 0
	case List:
		return len(x) != 0
	case Record:
		return len(x) != 0
	default:
		return true
	}
}

// Equal implements deep structural equality for `is`/`is not`.
func Equal(a, b Value) bool {
	switch x := a.(type) {
	case emptyValue:
		return IsEmpty(b)
	case Text:
		y, ok := b.(Text)
		return ok && x == y
	case Number:
		y, ok := b.(Number)
		return ok && x == y
	case Boolean:
		y, ok := b.(Boolean)
		return ok && x == y
	case List:
		y, ok := b.(List)
		if !ok || len(x) != len(y) {
			return false
		}
		for i := range x {
			if !Equal(x[i], y[i]) {
				return false
			}
		}
		return true
	case Record:
		y, ok := b.(Record)
		if !ok || len(x) != len(y) {
			return false
		}
		for k, v := range x {
			yv, ok := y[k]
			if !ok || !Equal(v, yv) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// FromGo converts a decoded JSON-shaped Go value (map[string]interface{},
// []interface{}, string, float64/json.Number, bool, nil) into a Value tree.
// Used to lift a trigger payload or environment map into the runtime.
func FromGo(v interface{}) Value {
	switch x := v.(type) {
	case nil:
		return Empty
	case Value:
		return x
	case string:
		return Text(x)
	case bool:
		return Boolean(x)
	case float64:
		return Number(x)
	case int:
		return Number(x)
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return Text(x.String())
		}
		return Number(f)
	case map[string]interface{}:
		r := Record{}
		for k, v := range x {
			r[k] = FromGo(v)
		}
		return r
	case map[string]string:
		r := Record{}
		for k, v := range x {
			r[k] = Text(v)
		}
		return r
	case []interface{}:
		l := make(List, len(x))
		for i, e := range x {
			l[i] = FromGo(e)
		}
		return l
	default:
		return Text(fmt.Sprintf("%v", x))
	}
}
