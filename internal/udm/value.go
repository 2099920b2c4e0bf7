// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Daco Labs

// Package udm implements the platform's shared tree value: a tagged union of
// scalar, array and insertion-ordered object nodes.
//
// Canonical schema trees and format ASTs that originate from JSON or YAML text
// are carried in this representation so that key order survives decoding.
package udm

import (
	"math"
	"strconv"
)

// Kind identifies the variant held by a Value.
type Kind uint8

const (
	NullKind Kind = iota
	BoolKind
	NumberKind
	StringKind
	ArrayKind
	ObjectKind
)

func (k Kind) String() string {
	switch k {
	case NullKind:
		return "null"
	case BoolKind:
		return "boolean"
	case NumberKind:
		return "number"
	case StringKind:
		return "string"
	case ArrayKind:
		return "array"
	case ObjectKind:
		return "object"
	default:
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Value is a node of the shared tree.
//
// Objects keep their keys in insertion order: Keys[i] names Values[i].
// Numbers keep their literal text so that integers wider than float64 and
// exact decimal spellings survive a round trip.
type Value struct {
	Kind Kind

	Bool   bool
	Number string
	String string

	Items []*Value

	Keys   []string
	Values []*Value
}

// Null returns a null node.
func Null() *Value { return &Value{Kind: NullKind} }

// Bool returns a boolean node.
func Bool(b bool) *Value { return &Value{Kind: BoolKind, Bool: b} }

// String returns a string node.
func String(s string) *Value { return &Value{Kind: StringKind, String: s} }

// Int returns a number node holding an integer.
func Int(i int64) *Value {
	return &Value{Kind: NumberKind, Number: strconv.FormatInt(i, 10)}
}

// Float returns a number node holding f. NaN and infinities are not
// representable in JSON and are stored as null.
func Float(f float64) *Value {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Null()
	}
	return &Value{Kind: NumberKind, Number: strconv.FormatFloat(f, 'g', -1, 64)}
}

// Number returns a number node with the given literal text.
func Number(text string) *Value { return &Value{Kind: NumberKind, Number: text} }

// NewArray returns an array node holding items.
func NewArray(items ...*Value) *Value {
	return &Value{Kind: ArrayKind, Items: items}
}

// NewObject returns an empty object node.
func NewObject() *Value { return &Value{Kind: ObjectKind} }

// IsNull reports whether v is nil or a null node.
func (v *Value) IsNull() bool { return v == nil || v.Kind == NullKind }

// Len returns the number of entries of an object or elements of an array.
func (v *Value) Len() int {
	if v == nil {
		return 0
	}
	switch v.Kind {
	case ArrayKind:
		return len(v.Items)
	case ObjectKind:
		return len(v.Keys)
	}
	return 0
}

// Set stores val under key, replacing an existing entry in place or appending
// a new one. It returns v for chaining.
func (v *Value) Set(key string, val *Value) *Value {
	for i, k := range v.Keys {
		if k == key {
			v.Values[i] = val
			return v
		}
	}
	v.Keys = append(v.Keys, key)
	v.Values = append(v.Values, val)
	return v
}

// Get returns the entry stored under key, or nil when v is not an object or the
// key is absent.
func (v *Value) Get(key string) *Value {
	if v == nil || v.Kind != ObjectKind {
		return nil
	}
	for i, k := range v.Keys {
		if k == key {
			return v.Values[i]
		}
	}
	return nil
}

// Has reports whether an object holds key.
func (v *Value) Has(key string) bool {
	if v == nil || v.Kind != ObjectKind {
		return false
	}
	for _, k := range v.Keys {
		if k == key {
			return true
		}
	}
	return false
}

// Append adds elements to an array node.
func (v *Value) Append(items ...*Value) *Value {
	v.Items = append(v.Items, items...)
	return v
}

// Str returns the string payload and whether v is a string node.
func (v *Value) Str() (string, bool) {
	if v == nil || v.Kind != StringKind {
		return "", false
	}
	return v.String, true
}

// Int64 returns the integer payload and whether v is an integral number node.
func (v *Value) Int64() (int64, bool) {
	if v == nil || v.Kind != NumberKind {
		return 0, false
	}
	if i, err := strconv.ParseInt(v.Number, 10, 64); err == nil {
		return i, true
	}
	f, err := strconv.ParseFloat(v.Number, 64)
	if err != nil || f != math.Trunc(f) || f > math.MaxInt64 || f < math.MinInt64 {
		return 0, false
	}
	return int64(f), true
}

// Float64 returns the numeric payload and whether v is a number node.
func (v *Value) Float64() (float64, bool) {
	if v == nil || v.Kind != NumberKind {
		return 0, false
	}
	f, err := strconv.ParseFloat(v.Number, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// Boolean returns the boolean payload and whether v is a boolean node.
func (v *Value) Boolean() (bool, bool) {
	if v == nil || v.Kind != BoolKind {
		return false, false
	}
	return v.Bool, true
}

// Clone returns a deep copy of v.
func (v *Value) Clone() *Value {
	if v == nil {
		return nil
	}
	res := &Value{
		Kind:   v.Kind,
		Bool:   v.Bool,
		Number: v.Number,
		String: v.String,
	}
	if v.Items != nil {
		res.Items = make([]*Value, len(v.Items))
		for i, it := range v.Items {
			res.Items[i] = it.Clone()
		}
	}
	if v.Keys != nil {
		res.Keys = append([]string(nil), v.Keys...)
		res.Values = make([]*Value, len(v.Values))
		for i, val := range v.Values {
			res.Values[i] = val.Clone()
		}
	}
	return res
}

// Equal reports whether a and b hold the same tree. Object comparison is
// order-insensitive; numbers compare by value when both parse.
func Equal(a, b *Value) bool {
	if a.IsNull() || b.IsNull() {
		return a.IsNull() && b.IsNull()
	}
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case BoolKind:
		return a.Bool == b.Bool
	case StringKind:
		return a.String == b.String
	case NumberKind:
		if a.Number == b.Number {
			return true
		}
		fa, okA := a.Float64()
		fb, okB := b.Float64()
		return okA && okB && fa == fb
	case ArrayKind:
		if len(a.Items) != len(b.Items) {
			return false
		}
		for i := range a.Items {
			if !Equal(a.Items[i], b.Items[i]) {
				return false
			}
		}
		return true
	case ObjectKind:
		if len(a.Keys) != len(b.Keys) {
			return false
		}
		for i, k := range a.Keys {
			if !b.Has(k) || !Equal(a.Values[i], b.Get(k)) {
				return false
			}
		}
		return true
	}
	return false
}
