// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Daco Labs

package usdl

import (
	"fmt"
	"strings"

	"github.com/dacolabs/usdl/internal/udm"
)

// Directive keys of the canonical tree.
const (
	KeyNamespace     = "%namespace"
	KeyDocumentation = "%documentation"
	KeyTypes         = "%types"
	KeyKind          = "%kind"
	KeyFields        = "%fields"
	KeyValues        = "%values"
	KeyMembers       = "%members"
	KeyItems         = "%items"
	KeyName          = "%name"
	KeyType          = "%type"
	KeyOptional      = "%optional"
	KeyDefault       = "%default"
	KeyFieldNumber   = "%field_number"
	KeyOrdinal       = "%ordinal"
	KeyXSDInline     = "%xsdInline"
	KeyXSDAttribute  = "%xsdAttribute"
	KeyRef           = "%ref"
)

// ToTree encodes doc as a canonical tree.
func ToTree(doc *Document) *udm.Value {
	root := udm.NewObject()
	if doc.Namespace != "" {
		root.Set(KeyNamespace, udm.String(doc.Namespace))
	}
	if doc.Documentation != "" {
		root.Set(KeyDocumentation, udm.String(doc.Documentation))
	}
	types := udm.NewObject()
	for _, t := range doc.Types {
		types.Set(t.Name, defToTree(t))
	}
	root.Set(KeyTypes, types)
	return root
}

func defToTree(def *TypeDefinition) *udm.Value {
	obj := udm.NewObject().Set(KeyKind, udm.String(string(def.Kind)))
	if def.Documentation != "" {
		obj.Set(KeyDocumentation, udm.String(def.Documentation))
	}
	if def.InlineHint {
		obj.Set(KeyXSDInline, udm.Bool(true))
	}
	switch def.Kind {
	case KindStructure:
		fields := udm.NewArray()
		for _, f := range def.Fields {
			fields.Append(fieldToTree(f))
		}
		obj.Set(KeyFields, fields)
	case KindEnum:
		values := udm.NewArray()
		for _, v := range def.Values {
			ev := udm.NewObject().
				Set(KeyName, udm.String(v.Name)).
				Set(KeyOrdinal, udm.Int(int64(v.Ordinal)))
			if v.Documentation != "" {
				ev.Set(KeyDocumentation, udm.String(v.Documentation))
			}
			values.Append(ev)
		}
		obj.Set(KeyValues, values)
	case KindUnion:
		members := udm.NewArray()
		for _, m := range def.Members {
			if m.Name == "" && m.FieldNumber == 0 && !m.InlineHint {
				members.Append(refToTree(m.Type))
				continue
			}
			mv := udm.NewObject().Set(KeyType, refToTree(m.Type))
			if m.Name != "" {
				mv.Set(KeyName, udm.String(m.Name))
			}
			if m.FieldNumber != 0 {
				mv.Set(KeyFieldNumber, udm.Int(int64(m.FieldNumber)))
			}
			if m.InlineHint {
				mv.Set(KeyXSDInline, udm.Bool(true))
			}
			members.Append(mv)
		}
		obj.Set(KeyMembers, members)
	case KindArray, KindMap:
		if def.Items != nil {
			obj.Set(KeyItems, refToTree(*def.Items))
		}
	}
	return obj
}

func fieldToTree(f *Field) *udm.Value {
	obj := udm.NewObject().
		Set(KeyName, udm.String(f.Name)).
		Set(KeyType, refToTree(f.Type))
	if f.Optional {
		obj.Set(KeyOptional, udm.Bool(true))
	}
	if f.Default != nil {
		obj.Set(KeyDefault, f.Default.Clone())
	}
	if f.FieldNumber != 0 {
		obj.Set(KeyFieldNumber, udm.Int(int64(f.FieldNumber)))
	}
	if f.Documentation != "" {
		obj.Set(KeyDocumentation, udm.String(f.Documentation))
	}
	if f.InlineHint {
		obj.Set(KeyXSDInline, udm.Bool(true))
	}
	if f.Attribute {
		obj.Set(KeyXSDAttribute, udm.Bool(true))
	}
	return obj
}

func refToTree(ref TypeRef) *udm.Value {
	switch ref.RefKind() {
	case RefInline:
		return defToTree(ref.Inline)
	case RefNamed:
		if Primitive(ref.Name).Valid() {
			return udm.NewObject().Set(KeyRef, udm.String(ref.Name))
		}
		return udm.String(ref.Name)
	default:
		return udm.String(string(ref.Primitive))
	}
}

// FromTree decodes a canonical tree and validates the resulting document.
func FromTree(v *udm.Value) (*Document, error) {
	doc, err := decodeTree(v)
	if err != nil {
		return nil, err
	}
	if err := Validate(doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func decodeTree(v *udm.Value) (*Document, error) {
	if v == nil || v.Kind != udm.ObjectKind {
		return nil, malformed("", "canonical tree must be an object")
	}
	if err := checkKeys(v, "", KeyNamespace, KeyDocumentation, KeyTypes); err != nil {
		return nil, err
	}
	doc := &Document{}
	var err error
	if doc.Namespace, err = optString(v, KeyNamespace, ""); err != nil {
		return nil, err
	}
	if doc.Documentation, err = optString(v, KeyDocumentation, ""); err != nil {
		return nil, err
	}
	types := v.Get(KeyTypes)
	if types == nil {
		return nil, malformed("", "missing %s", KeyTypes)
	}
	if types.Kind != udm.ObjectKind {
		return nil, malformed(KeyTypes, "%s must be an object of type definitions", KeyTypes)
	}
	for i, name := range types.Keys {
		def, err := defFromTree(types.Values[i], name)
		if err != nil {
			return nil, err
		}
		def.Name = name
		if err := doc.AddType(def); err != nil {
			return nil, err
		}
	}
	return doc, nil
}

func defFromTree(v *udm.Value, path string) (*TypeDefinition, error) {
	if v.Kind != udm.ObjectKind {
		return nil, malformed(path, "type definition must be an object, got %s", v.Kind)
	}
	kindValue := v.Get(KeyKind)
	if kindValue == nil {
		return nil, malformed(path, "missing %s", KeyKind)
	}
	kindName, ok := kindValue.Str()
	if !ok || !Kind(kindName).Valid() {
		return nil, malformed(path, "%s must be one of structure, enum, union, array, map", KeyKind)
	}
	def := &TypeDefinition{Kind: Kind(kindName)}

	allowed := []string{KeyKind, KeyDocumentation, KeyXSDInline}
	switch def.Kind {
	case KindStructure:
		allowed = append(allowed, KeyFields)
	case KindEnum:
		allowed = append(allowed, KeyValues)
	case KindUnion:
		allowed = append(allowed, KeyMembers)
	case KindArray, KindMap:
		allowed = append(allowed, KeyItems)
	}
	if err := checkKeys(v, path, allowed...); err != nil {
		return nil, err
	}

	var err error
	if def.Documentation, err = optString(v, KeyDocumentation, path); err != nil {
		return nil, err
	}
	if def.InlineHint, err = optBool(v, KeyXSDInline, path); err != nil {
		return nil, err
	}

	switch def.Kind {
	case KindStructure:
		fields, err := optArray(v, KeyFields, path)
		if err != nil {
			return nil, err
		}
		for i, fv := range fields {
			f, err := fieldFromTree(fv, path, i)
			if err != nil {
				return nil, err
			}
			def.Fields = append(def.Fields, f)
		}
	case KindEnum:
		values, err := optArray(v, KeyValues, path)
		if err != nil {
			return nil, err
		}
		for i, ev := range values {
			ep := fmt.Sprintf("%s.%s[%d]", path, KeyValues, i)
			if ev.Kind != udm.ObjectKind {
				return nil, malformed(ep, "enum value must be an object")
			}
			if err := checkKeys(ev, ep, KeyName, KeyOrdinal, KeyDocumentation); err != nil {
				return nil, err
			}
			name, err := reqString(ev, KeyName, ep)
			if err != nil {
				return nil, err
			}
			ordinal, err := reqInt(ev, KeyOrdinal, ep)
			if err != nil {
				return nil, err
			}
			doc, err := optString(ev, KeyDocumentation, ep)
			if err != nil {
				return nil, err
			}
			def.Values = append(def.Values, EnumValue{Name: name, Ordinal: ordinal, Documentation: doc})
		}
	case KindUnion:
		members, err := optArray(v, KeyMembers, path)
		if err != nil {
			return nil, err
		}
		for i, mv := range members {
			mp := fmt.Sprintf("%s[%d]", path, i)
			m, err := memberFromTree(mv, mp)
			if err != nil {
				return nil, err
			}
			def.Members = append(def.Members, m)
		}
	case KindArray, KindMap:
		items := v.Get(KeyItems)
		if items == nil {
			return nil, malformed(path, "%s requires %s", def.Kind, KeyItems)
		}
		ref, err := refFromTree(items, path+"[]")
		if err != nil {
			return nil, err
		}
		def.Items = &ref
	}
	return def, nil
}

func memberFromTree(v *udm.Value, path string) (UnionMember, error) {
	if v.Kind == udm.ObjectKind && v.Has(KeyType) {
		if err := checkKeys(v, path, KeyType, KeyName, KeyFieldNumber, KeyXSDInline); err != nil {
			return UnionMember{}, err
		}
		ref, err := refFromTree(v.Get(KeyType), path)
		if err != nil {
			return UnionMember{}, err
		}
		name, err := optString(v, KeyName, path)
		if err != nil {
			return UnionMember{}, err
		}
		num, err := optFieldNumber(v, path)
		if err != nil {
			return UnionMember{}, err
		}
		hinted, err := optBool(v, KeyXSDInline, path)
		if err != nil {
			return UnionMember{}, err
		}
		return UnionMember{Type: ref, Name: name, FieldNumber: num, InlineHint: hinted}, nil
	}
	ref, err := refFromTree(v, path)
	if err != nil {
		return UnionMember{}, err
	}
	return UnionMember{Type: ref}, nil
}

func fieldFromTree(v *udm.Value, owner string, index int) (*Field, error) {
	path := fmt.Sprintf("%s.%s[%d]", owner, KeyFields, index)
	if v.Kind != udm.ObjectKind {
		return nil, malformed(path, "field must be an object")
	}
	if err := checkKeys(v, path, KeyName, KeyType, KeyOptional, KeyDefault, KeyFieldNumber,
		KeyDocumentation, KeyXSDInline, KeyXSDAttribute); err != nil {
		return nil, err
	}
	name, err := reqString(v, KeyName, path)
	if err != nil {
		return nil, err
	}
	fp := JoinPath(owner, name)
	typ := v.Get(KeyType)
	if typ == nil {
		return nil, malformed(fp, "missing %s", KeyType)
	}
	ref, err := refFromTree(typ, fp)
	if err != nil {
		return nil, err
	}
	f := &Field{Name: name, Type: ref}
	if f.Optional, err = optBool(v, KeyOptional, fp); err != nil {
		return nil, err
	}
	if d := v.Get(KeyDefault); d != nil {
		f.Default = d.Clone()
	}
	if f.FieldNumber, err = optFieldNumber(v, fp); err != nil {
		return nil, err
	}
	if f.Documentation, err = optString(v, KeyDocumentation, fp); err != nil {
		return nil, err
	}
	if f.InlineHint, err = optBool(v, KeyXSDInline, fp); err != nil {
		return nil, err
	}
	if f.Attribute, err = optBool(v, KeyXSDAttribute, fp); err != nil {
		return nil, err
	}
	return f, nil
}

func refFromTree(v *udm.Value, path string) (TypeRef, error) {
	switch v.Kind {
	case udm.StringKind:
		if v.String == "" {
			return TypeRef{}, malformed(path, "empty type reference")
		}
		if p := Primitive(v.String); p.Valid() {
			return PrimitiveRef(p), nil
		}
		return NamedRef(v.String), nil
	case udm.ObjectKind:
		if v.Has(KeyRef) {
			if err := checkKeys(v, path, KeyRef); err != nil {
				return TypeRef{}, err
			}
			name, err := reqString(v, KeyRef, path)
			if err != nil {
				return TypeRef{}, err
			}
			return NamedRef(name), nil
		}
		def, err := defFromTree(v, path)
		if err != nil {
			return TypeRef{}, err
		}
		return InlineRef(def), nil
	}
	return TypeRef{}, malformed(path, "type reference must be a string or an object, got %s", v.Kind)
}

func malformed(path, format string, args ...any) *Error {
	return Errorf(ErrMalformedInput, path, format, args...)
}

// checkKeys rejects unknown directive keys. Plain keys are never legal inside
// directive objects either.
func checkKeys(v *udm.Value, path string, allowed ...string) error {
	for _, k := range v.Keys {
		ok := false
		for _, a := range allowed {
			if k == a {
				ok = true
				break
			}
		}
		if !ok {
			return malformed(path, "unexpected key %q", k).
				WithHint("allowed keys here: " + strings.Join(allowed, ", "))
		}
	}
	return nil
}

func optString(v *udm.Value, key, path string) (string, error) {
	x := v.Get(key)
	if x == nil {
		return "", nil
	}
	s, ok := x.Str()
	if !ok {
		return "", malformed(path, "%s must be a string", key)
	}
	return s, nil
}

func reqString(v *udm.Value, key, path string) (string, error) {
	if !v.Has(key) {
		return "", malformed(path, "missing %s", key)
	}
	s, err := optString(v, key, path)
	if err != nil {
		return "", err
	}
	if s == "" {
		return "", malformed(path, "%s must not be empty", key)
	}
	return s, nil
}

func optBool(v *udm.Value, key, path string) (bool, error) {
	x := v.Get(key)
	if x == nil {
		return false, nil
	}
	b, ok := x.Boolean()
	if !ok {
		return false, malformed(path, "%s must be a boolean", key)
	}
	return b, nil
}

// optInt returns the integer under key and whether it was present.
func optInt(v *udm.Value, key, path string) (int, bool, error) {
	x := v.Get(key)
	if x == nil {
		return 0, false, nil
	}
	i, ok := x.Int64()
	if !ok {
		return 0, true, malformed(path, "%s must be an integer", key)
	}
	return int(i), true, nil
}

func reqInt(v *udm.Value, key, path string) (int, error) {
	n, ok, err := optInt(v, key, path)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, malformed(path, "missing %s", key)
	}
	return n, nil
}

// optFieldNumber reads %field_number. Zero means unset in the model, so an
// explicit zero or negative number is rejected here rather than dropped.
func optFieldNumber(v *udm.Value, path string) (int, error) {
	n, ok, err := optInt(v, KeyFieldNumber, path)
	if err != nil || !ok {
		return 0, err
	}
	if n < MinFieldNumber {
		return 0, CheckFieldNumber(path, n)
	}
	return n, nil
}

func optArray(v *udm.Value, key, path string) ([]*udm.Value, error) {
	x := v.Get(key)
	if x == nil {
		return nil, nil
	}
	if x.Kind != udm.ArrayKind {
		return nil, malformed(path, "%s must be an array", key)
	}
	return x.Items, nil
}
