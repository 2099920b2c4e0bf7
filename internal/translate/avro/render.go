// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Daco Labs

package avro

import (
	"fmt"

	"github.com/dacolabs/usdl/internal/udm"
	"github.com/dacolabs/usdl/internal/usdl"
)

// Decimal precision and scale emitted for canonical decimals, which carry
// neither.
const (
	DecimalPrecision = 38
	DecimalScale     = 9
)

// avroRecord represents an Avro record schema.
type avroRecord struct {
	Type      string      `json:"type"`
	Name      string      `json:"name"`
	Namespace string      `json:"namespace,omitempty"`
	Doc       string      `json:"doc,omitempty"`
	Fields    []avroField `json:"fields"`
}

// avroField represents a field within an Avro record.
type avroField struct {
	Name    string     `json:"name"`
	Type    any        `json:"type"`
	Doc     string     `json:"doc,omitempty"`
	Default *udm.Value `json:"default,omitempty"`
}

// avroEnum represents an Avro enum schema.
type avroEnum struct {
	Type      string   `json:"type"`
	Name      string   `json:"name"`
	Namespace string   `json:"namespace,omitempty"`
	Doc       string   `json:"doc,omitempty"`
	Symbols   []string `json:"symbols"`
}

// avroArray represents an Avro array type.
type avroArray struct {
	Type  string `json:"type"`
	Items any    `json:"items"`
}

// avroMap represents an Avro map type.
type avroMap struct {
	Type   string `json:"type"`
	Values any    `json:"values"`
}

// avroLogicalType represents an Avro logical type.
type avroLogicalType struct {
	Type        string `json:"type"`
	LogicalType string `json:"logicalType"`
}

// avroDecimal represents the decimal logical type.
type avroDecimal struct {
	Type        string `json:"type"`
	LogicalType string `json:"logicalType"`
	Precision   int    `json:"precision"`
	Scale       int    `json:"scale"`
}

// raiser renders named records and enums in full at their first use and by
// name afterwards.
type raiser struct {
	doc         *usdl.Document
	nullability usdl.NullabilityStrategy
	inlined     map[string]bool
	// named union/array/map types being expanded, to catch cycles that never
	// pass through a record
	expanding map[string]bool
}

// Render raises a canonical document into an Avro schema.
func (t *Translator) Render(doc *usdl.Document, opts usdl.RenderOptions) ([]byte, error) {
	if err := usdl.Validate(doc); err != nil {
		return nil, err
	}
	counts := doc.ReferenceCounts()
	for _, def := range doc.Types {
		switch def.Kind {
		case usdl.KindUnion, usdl.KindArray, usdl.KindMap:
			if counts[def.Name] == 0 {
				return nil, usdl.Errorf(usdl.ErrUnsupportedConstruct, def.Name, "top-level %s type is not referenced by any record", def.Kind).
					WithHint("Avro only names records, enums and fixed types; reference the type from a record field")
			}
		}
	}

	r := &raiser{
		doc:         doc,
		nullability: usdl.NullabilityEncoding(usdl.Avro),
		inlined:     make(map[string]bool),
		expanding:   make(map[string]bool),
	}

	var top []any
	emit := func(def *usdl.TypeDefinition) error {
		schema, err := r.buildNamed(def, doc.Namespace)
		if err != nil {
			return err
		}
		top = append(top, schema)
		return nil
	}
	for _, def := range doc.Types {
		if isNamedKind(def.Kind) && counts[def.Name] == 0 {
			if err := emit(def); err != nil {
				return nil, err
			}
		}
	}
	// Types only reachable from each other (cycles) have no root.
	for _, def := range doc.Types {
		if isNamedKind(def.Kind) && !r.inlined[def.Name] {
			if err := emit(def); err != nil {
				return nil, err
			}
		}
	}

	var out any = top
	if len(top) == 1 {
		out = top[0]
	}
	data, err := encodeJSON(out, opts.PrettyPrint)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal Avro schema: %w", err)
	}
	return data, nil
}

func isNamedKind(k usdl.Kind) bool {
	return k == usdl.KindStructure || k == usdl.KindEnum
}

// buildNamed emits the full definition of a record or enum.
func (r *raiser) buildNamed(def *usdl.TypeDefinition, namespace string) (any, error) {
	if !usdl.IsIdentifier(def.Name) {
		return nil, usdl.Errorf(usdl.ErrConstraintViolation, def.Name, "%q is not a valid Avro name", def.Name).
			WithHint("Avro names must start with a letter or underscore and contain only letters, digits and underscores")
	}
	r.inlined[def.Name] = true

	if def.Kind == usdl.KindEnum {
		enum := avroEnum{Type: "enum", Name: def.Name, Namespace: namespace, Doc: def.Documentation}
		for _, v := range def.Values {
			if !usdl.IsIdentifier(v.Name) {
				return nil, usdl.Errorf(usdl.ErrConstraintViolation, usdl.JoinPath(def.Name, v.Name), "%q is not a valid Avro enum symbol", v.Name).
					WithHint("enum symbols must match [A-Za-z_][A-Za-z0-9_]*")
			}
			enum.Symbols = append(enum.Symbols, v.Name)
		}
		return enum, nil
	}

	fields, err := r.buildFields(def)
	if err != nil {
		return nil, err
	}
	return avroRecord{
		Type:      "record",
		Name:      def.Name,
		Namespace: namespace,
		Doc:       def.Documentation,
		Fields:    fields,
	}, nil
}

// buildFields converts canonical fields to avroFields, inlining named types at
// first use.
func (r *raiser) buildFields(def *usdl.TypeDefinition) ([]avroField, error) {
	result := make([]avroField, 0, len(def.Fields))
	for _, f := range def.Fields {
		path := usdl.JoinPath(def.Name, f.Name)
		if !usdl.IsIdentifier(f.Name) {
			return nil, usdl.Errorf(usdl.ErrConstraintViolation, path, "%q is not a valid Avro field name", f.Name).
				WithHint("field names must match [A-Za-z_][A-Za-z0-9_]*")
		}
		avroType, err := r.buildFieldType(f, path)
		if err != nil {
			return nil, err
		}
		field := avroField{Name: f.Name, Type: avroType, Doc: f.Documentation}
		switch {
		case f.Optional && f.Default == nil:
			field.Default = udm.Null()
		case f.Default != nil:
			field.Default = f.Default
		}
		result = append(result, field)
	}
	return result, nil
}

// buildFieldType flattens optional and union types into one Avro union. An
// optional field without a default, or with a null one, puts "null" first so
// that null is a legal default. Otherwise the branch the default belongs to
// moves to the front and the remaining branches keep their order.
func (r *raiser) buildFieldType(f *usdl.Field, path string) (any, error) {
	var branches []any
	if u := r.doc.Resolve(f.Type); u != nil && u.Kind == usdl.KindUnion {
		members, err := r.buildUnion(u, path)
		if err != nil {
			return nil, err
		}
		branches = members
	} else {
		t, err := r.buildType(f.Type, path)
		if err != nil {
			return nil, err
		}
		if !f.Optional {
			return t, nil
		}
		branches = []any{t}
	}

	if f.Optional {
		if r.nullability != usdl.NullUnion {
			return nil, usdl.UnsupportedNullability(usdl.Avro, path)
		}
		switch {
		case f.Default == nil || f.Default.IsNull():
			return append([]any{"null"}, branches...), nil
		case len(branches) == 1:
			return append(branches, "null"), nil
		}
		branches = append(branches, "null")
	}
	if f.Default == nil {
		return branches, nil
	}
	for i, b := range branches {
		if r.defaultMatches(b, f.Default) {
			ordered := make([]any, 0, len(branches))
			ordered = append(ordered, b)
			ordered = append(ordered, branches[:i]...)
			return append(ordered, branches[i+1:]...), nil
		}
	}
	return nil, usdl.Errorf(usdl.ErrConstraintViolation, path, "default %s matches no branch of the union", f.Default.Kind).
		WithHint("Avro requires a union default to match one of its branches")
}

// defaultMatches reports whether v is a legal default for the union branch b.
func (r *raiser) defaultMatches(b any, v *udm.Value) bool {
	switch b := b.(type) {
	case string:
		return r.defaultMatchesName(b, v)
	case avroLogicalType, avroDecimal:
		// Logical values may be given in their base encoding or as text.
		return v.Kind == udm.NumberKind || v.Kind == udm.StringKind
	case avroArray:
		return v.Kind == udm.ArrayKind
	case avroMap, avroRecord:
		return v.Kind == udm.ObjectKind
	case avroEnum:
		return v.Kind == udm.StringKind
	}
	return false
}

func (r *raiser) defaultMatchesName(name string, v *udm.Value) bool {
	switch name {
	case "null":
		return v.Kind == udm.NullKind
	case "boolean":
		return v.Kind == udm.BoolKind
	case "int", "long", "float", "double":
		return v.Kind == udm.NumberKind
	case "string", "bytes", "fixed":
		return v.Kind == udm.StringKind
	}
	def := r.doc.Lookup(name)
	if def == nil {
		return false
	}
	switch def.Kind {
	case usdl.KindEnum:
		return v.Kind == udm.StringKind
	case usdl.KindStructure:
		return v.Kind == udm.ObjectKind
	}
	return false
}

func (r *raiser) buildUnion(def *usdl.TypeDefinition, path string) ([]any, error) {
	members := make([]any, 0, len(def.Members))
	for i, m := range def.Members {
		if u := r.doc.Resolve(m.Type); u != nil && u.Kind == usdl.KindUnion {
			return nil, usdl.Errorf(usdl.ErrUnsupportedConstruct, fmt.Sprintf("%s[%d]", path, i), "union nested directly in a union").
				WithHint("Avro unions may not contain other unions; flatten the members")
		}
		t, err := r.buildType(m.Type, fmt.Sprintf("%s[%d]", path, i))
		if err != nil {
			return nil, err
		}
		members = append(members, t)
	}
	return members, nil
}

// buildType converts a canonical reference to an Avro type value.
func (r *raiser) buildType(ref usdl.TypeRef, path string) (any, error) {
	switch ref.RefKind() {
	case usdl.RefPrimitive:
		return primitiveType(ref.Primitive), nil
	case usdl.RefInline:
		return r.buildAnonymous(ref.Inline, path)
	}

	def := r.doc.Lookup(ref.Name)
	if isNamedKind(def.Kind) {
		if r.inlined[def.Name] {
			return def.Name, nil
		}
		return r.buildNamed(def, "")
	}
	if r.expanding[def.Name] {
		return nil, usdl.Errorf(usdl.ErrUnsupportedConstruct, path, "type %q refers to itself without passing through a record", def.Name).
			WithHint("Avro can only express recursion through named records")
	}
	r.expanding[def.Name] = true
	defer delete(r.expanding, def.Name)
	return r.buildAnonymous(def, path)
}

func (r *raiser) buildAnonymous(def *usdl.TypeDefinition, path string) (any, error) {
	switch def.Kind {
	case usdl.KindUnion:
		return r.buildUnion(def, path)
	case usdl.KindArray:
		items, err := r.buildType(*def.Items, path+"[]")
		if err != nil {
			return nil, err
		}
		return avroArray{Type: "array", Items: items}, nil
	case usdl.KindMap:
		values, err := r.buildType(*def.Items, path+"[]")
		if err != nil {
			return nil, err
		}
		return avroMap{Type: "map", Values: values}, nil
	}
	return nil, usdl.Errorf(usdl.ErrConstraintViolation, path, "inline %s is not allowed", def.Kind)
}

func primitiveType(p usdl.Primitive) any {
	base, logical, _ := usdl.FormatPrimitive(usdl.Avro, p)
	switch {
	case p == usdl.Decimal:
		return avroDecimal{Type: base, LogicalType: logical, Precision: DecimalPrecision, Scale: DecimalScale}
	case logical != "":
		return avroLogicalType{Type: base, LogicalType: logical}
	}
	return base
}
