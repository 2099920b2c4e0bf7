// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Daco Labs

// Package usdl defines the canonical schema model every format converts
// through, the invariants it must satisfy, and the shared type-mapping tables.
package usdl

import (
	"slices"

	"github.com/dacolabs/usdl/internal/udm"
)

// Primitive is a canonical scalar type.
type Primitive string

const (
	String   Primitive = "string"
	Bytes    Primitive = "bytes"
	Boolean  Primitive = "boolean"
	Int32    Primitive = "int32"
	Int64    Primitive = "int64"
	Float32  Primitive = "float32"
	Float64  Primitive = "float64"
	Decimal  Primitive = "decimal"
	Date     Primitive = "date"
	DateTime Primitive = "datetime"
	Time     Primitive = "time"
)

var primitives = []Primitive{String, Bytes, Boolean, Int32, Int64, Float32, Float64, Decimal, Date, DateTime, Time}

// Primitives returns every canonical primitive in declaration order.
func Primitives() []Primitive { return slices.Clone(primitives) }

// Valid reports whether p is one of the canonical primitives.
func (p Primitive) Valid() bool { return slices.Contains(primitives, p) }

// Kind discriminates TypeDefinition variants.
type Kind string

const (
	KindStructure Kind = "structure"
	KindEnum      Kind = "enum"
	KindUnion     Kind = "union"
	KindArray     Kind = "array"
	KindMap       Kind = "map"
)

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	switch k {
	case KindStructure, KindEnum, KindUnion, KindArray, KindMap:
		return true
	}
	return false
}

// Document is the root of a canonical schema. Types keeps declaration order,
// which renderers follow for deterministic output.
type Document struct {
	Namespace     string
	Documentation string
	Types         []*TypeDefinition
}

// Lookup returns the named type definition or nil.
func (d *Document) Lookup(name string) *TypeDefinition {
	for _, t := range d.Types {
		if t.Name == name {
			return t
		}
	}
	return nil
}

// AddType appends def, rejecting a second definition under the same name.
func (d *Document) AddType(def *TypeDefinition) error {
	if d.Lookup(def.Name) != nil {
		return Errorf(ErrUnresolvedTypeReference, def.Name, "type %q is defined more than once", def.Name).
			WithHint("rename one of the definitions so every type name is unique")
	}
	d.Types = append(d.Types, def)
	return nil
}

// Resolve returns the definition a reference points at: the inline definition,
// the named type, or nil for primitives and dangling names.
func (d *Document) Resolve(ref TypeRef) *TypeDefinition {
	switch ref.RefKind() {
	case RefInline:
		return ref.Inline
	case RefNamed:
		return d.Lookup(ref.Name)
	}
	return nil
}

// ReferenceCounts counts the named references to each type, including those
// nested inside inline definitions.
func (d *Document) ReferenceCounts() map[string]int {
	counts := make(map[string]int, len(d.Types))
	var visit func(ref TypeRef)
	visitDef := func(def *TypeDefinition) {
		for _, f := range def.Fields {
			visit(f.Type)
		}
		for _, m := range def.Members {
			visit(m.Type)
		}
		if def.Items != nil {
			visit(*def.Items)
		}
	}
	visit = func(ref TypeRef) {
		switch ref.RefKind() {
		case RefNamed:
			counts[ref.Name]++
		case RefInline:
			visitDef(ref.Inline)
		}
	}
	for _, t := range d.Types {
		visitDef(t)
	}
	return counts
}

// Roots returns the types no other type references, in declaration order.
func (d *Document) Roots() []*TypeDefinition {
	counts := d.ReferenceCounts()
	var roots []*TypeDefinition
	for _, t := range d.Types {
		if counts[t.Name] == 0 {
			roots = append(roots, t)
		}
	}
	return roots
}

// TypeDefinition is a named (or, for union/array/map, inline) type.
type TypeDefinition struct {
	Name          string
	Kind          Kind
	Documentation string

	// InlineHint marks a root structure that was declared anonymously inside a
	// global XSD element.
	InlineHint bool

	Fields  []*Field      // structure
	Values  []EnumValue   // enum
	Members []UnionMember // union
	Items   *TypeRef      // array, map
}

// Field returns the structure field with the given name or nil.
func (t *TypeDefinition) Field(name string) *Field {
	for _, f := range t.Fields {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// Field is one member of a structure.
type Field struct {
	Name          string
	Type          TypeRef
	Optional      bool
	Default       *udm.Value
	FieldNumber   int // 0 when absent
	Documentation string

	// InlineHint records that the field's type was declared anonymously at
	// this position in the source (XSD local type, proto oneof, JSON Schema
	// inline object).
	InlineHint bool

	// Attribute marks fields that came from (and render as) XSD attributes.
	Attribute bool
}

// EnumValue is a symbol of an enumeration.
type EnumValue struct {
	Name          string
	Ordinal       int
	Documentation string
}

// UnionMember is a branch of a union. Name and FieldNumber are only set when
// the source carried them (proto3 oneof, xs:choice).
type UnionMember struct {
	Type        TypeRef
	Name        string
	FieldNumber int
	InlineHint  bool
}

// RefKind discriminates TypeRef variants.
type RefKind uint8

const (
	RefPrimitive RefKind = iota
	RefNamed
	RefInline
)

// TypeRef points at a primitive, a named type, or an inline definition.
type TypeRef struct {
	Primitive Primitive
	Name      string
	Inline    *TypeDefinition
}

// PrimitiveRef returns a reference to a canonical primitive.
func PrimitiveRef(p Primitive) TypeRef { return TypeRef{Primitive: p} }

// NamedRef returns a reference to a type of the document.
func NamedRef(name string) TypeRef { return TypeRef{Name: name} }

// InlineRef returns a reference holding an anonymous definition.
func InlineRef(def *TypeDefinition) TypeRef { return TypeRef{Inline: def} }

// ArrayOf returns an inline array of item.
func ArrayOf(item TypeRef) TypeRef {
	return InlineRef(&TypeDefinition{Kind: KindArray, Items: &item})
}

// MapOf returns an inline string-keyed map of value.
func MapOf(value TypeRef) TypeRef {
	return InlineRef(&TypeDefinition{Kind: KindMap, Items: &value})
}

// UnionOf returns an inline union of the given member types.
func UnionOf(members ...TypeRef) TypeRef {
	def := &TypeDefinition{Kind: KindUnion}
	for _, m := range members {
		def.Members = append(def.Members, UnionMember{Type: m})
	}
	return InlineRef(def)
}

// RefKind reports which variant r holds.
func (r TypeRef) RefKind() RefKind {
	switch {
	case r.Inline != nil:
		return RefInline
	case r.Name != "":
		return RefNamed
	default:
		return RefPrimitive
	}
}

// IsInlineKind reports whether r is an inline definition of kind k.
func (r TypeRef) IsInlineKind(k Kind) bool {
	return r.Inline != nil && r.Inline.Kind == k
}

// String renders r for error messages.
func (r TypeRef) String() string {
	switch r.RefKind() {
	case RefNamed:
		return r.Name
	case RefInline:
		switch r.Inline.Kind {
		case KindArray, KindMap:
			if r.Inline.Items != nil {
				return string(r.Inline.Kind) + "<" + r.Inline.Items.String() + ">"
			}
		}
		return "inline " + string(r.Inline.Kind)
	default:
		return string(r.Primitive)
	}
}
