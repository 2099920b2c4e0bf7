// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Daco Labs

package usdl

import "fmt"

// Protobuf field-number limits.
const (
	MinFieldNumber         = 1
	MaxFieldNumber         = 536_870_911
	ReservedFieldNumberMin = 19_000
	ReservedFieldNumberMax = 19_999
)

// Validate checks the invariants every canonical document satisfies
// regardless of render target: unique type names, resolvable references,
// unique field names, field numbers in range and unique per structure, and
// unique enum names and ordinals.
func Validate(doc *Document) error {
	seen := make(map[string]bool, len(doc.Types))
	for _, t := range doc.Types {
		if t.Name == "" {
			return Errorf(ErrConstraintViolation, "", "top-level %s type has no name", t.Kind).
				WithHint("every entry of %types needs a name")
		}
		if seen[t.Name] {
			return Errorf(ErrUnresolvedTypeReference, t.Name, "type %q is defined more than once", t.Name).
				WithHint("rename one of the definitions so every type name is unique")
		}
		seen[t.Name] = true
	}
	for _, t := range doc.Types {
		if err := validateDef(doc, t, t.Name); err != nil {
			return err
		}
	}
	return nil
}

func validateDef(doc *Document, def *TypeDefinition, path string) error {
	switch def.Kind {
	case KindStructure:
		return validateStructure(doc, def, path)
	case KindEnum:
		if len(def.Values) == 0 {
			return Errorf(ErrConstraintViolation, path, "enum has no values").
				WithHint("declare at least one enum value")
		}
		names := make(map[string]bool, len(def.Values))
		ordinals := make(map[int]string, len(def.Values))
		for _, v := range def.Values {
			vp := JoinPath(path, v.Name)
			if v.Name == "" {
				return Errorf(ErrConstraintViolation, path, "enum value has no name")
			}
			if names[v.Name] {
				return Errorf(ErrConstraintViolation, vp, "enum value %q is declared twice", v.Name)
			}
			names[v.Name] = true
			if other, ok := ordinals[v.Ordinal]; ok {
				return Errorf(ErrConstraintViolation, vp, "ordinal %d is already used by %q", v.Ordinal, other).
					WithHint("give every enum value a distinct ordinal")
			}
			ordinals[v.Ordinal] = v.Name
		}
	case KindUnion:
		if len(def.Members) < 2 {
			return Errorf(ErrConstraintViolation, path, "union has %d member(s)", len(def.Members)).
				WithHint("a union needs at least two non-null members; use an optional field for T-or-null")
		}
		names := make(map[string]bool, len(def.Members))
		for i, m := range def.Members {
			mp := fmt.Sprintf("%s[%d]", path, i)
			if m.Name != "" {
				if names[m.Name] {
					return Errorf(ErrConstraintViolation, mp, "union member name %q is used twice", m.Name)
				}
				names[m.Name] = true
			}
			if m.FieldNumber != 0 {
				if err := CheckFieldNumber(mp, m.FieldNumber); err != nil {
					return err
				}
			}
			if err := validateRef(doc, m.Type, mp); err != nil {
				return err
			}
		}
	case KindArray, KindMap:
		if def.Items == nil {
			return Errorf(ErrConstraintViolation, path, "%s has no item type", def.Kind)
		}
		return validateRef(doc, *def.Items, path+"[]")
	default:
		return Errorf(ErrConstraintViolation, path, "unknown kind %q", def.Kind).
			WithHint("use one of structure, enum, union, array, map")
	}
	return nil
}

func validateStructure(doc *Document, def *TypeDefinition, path string) error {
	names := make(map[string]bool, len(def.Fields))
	numbers := make(map[int]string, len(def.Fields))

	claim := func(at string, n int) error {
		if err := CheckFieldNumber(at, n); err != nil {
			return err
		}
		if other, ok := numbers[n]; ok {
			return Errorf(ErrConstraintViolation, at, "field number %d is already used by %s", n, other).
				WithHint("field numbers must be unique within a message")
		}
		numbers[n] = at
		return nil
	}

	for _, f := range def.Fields {
		fp := JoinPath(path, f.Name)
		if f.Name == "" {
			return Errorf(ErrConstraintViolation, path, "field has no name")
		}
		if names[f.Name] {
			return Errorf(ErrConstraintViolation, fp, "field %q is declared twice", f.Name).
				WithHint("field names must be unique within a structure")
		}
		names[f.Name] = true

		if err := validateRef(doc, f.Type, fp); err != nil {
			return err
		}
		if f.FieldNumber != 0 {
			if err := claim(fp, f.FieldNumber); err != nil {
				return err
			}
		}
		if u := doc.Resolve(f.Type); u != nil && u.Kind == KindUnion {
			for i, m := range u.Members {
				if m.FieldNumber != 0 {
					if err := claim(fmt.Sprintf("%s[%d]", fp, i), m.FieldNumber); err != nil {
						return err
					}
				}
			}
		}
	}
	return nil
}

func validateRef(doc *Document, ref TypeRef, path string) error {
	switch ref.RefKind() {
	case RefPrimitive:
		if !ref.Primitive.Valid() {
			return Errorf(ErrConstraintViolation, path, "unknown primitive %q", ref.Primitive).
				WithHint("use one of string, bytes, boolean, int32, int64, float32, float64, decimal, date, datetime, time")
		}
	case RefNamed:
		if doc.Lookup(ref.Name) == nil {
			return Errorf(ErrUnresolvedTypeReference, path, "type %q is not defined", ref.Name).
				WithHint(fmt.Sprintf("add a type named %q or fix the reference", ref.Name))
		}
	case RefInline:
		switch ref.Inline.Kind {
		case KindStructure, KindEnum:
			return Errorf(ErrConstraintViolation, path, "inline %s is not allowed", ref.Inline.Kind).
				WithHint("declare structures and enums as named types and reference them by name")
		}
		return validateDef(doc, ref.Inline, path)
	}
	return nil
}

// CheckFieldNumber validates a single Protobuf field number.
func CheckFieldNumber(path string, n int) error {
	if n < MinFieldNumber || n > MaxFieldNumber {
		return Errorf(ErrConstraintViolation, path, "field number %d is outside %d-%d", n, MinFieldNumber, MaxFieldNumber).
			WithHint("choose a positive field number no greater than 536870911")
	}
	if n >= ReservedFieldNumberMin && n <= ReservedFieldNumberMax {
		return Errorf(ErrConstraintViolation, path, "field number %d is in the reserved range %d-%d", n, ReservedFieldNumberMin, ReservedFieldNumberMax).
			WithHint("pick a number outside 19000-19999, which protobuf reserves for its own use")
	}
	return nil
}

// ValidateForProtobuf runs Validate plus the checks proto3 adds: enums start
// at ordinal zero, their smallest ordinal, and every field (or oneof member)
// carries a field number.
func ValidateForProtobuf(doc *Document) error {
	if err := Validate(doc); err != nil {
		return err
	}
	for _, t := range doc.Types {
		switch t.Kind {
		case KindEnum:
			if first := t.Values[0]; first.Ordinal != 0 {
				return Errorf(ErrConstraintViolation, JoinPath(t.Name, first.Name),
					"first enum value has ordinal %d", first.Ordinal).
					WithHint("proto3 requires the first enum value to be 0; add an UNSPECIFIED = 0 value first")
			}
			for _, v := range t.Values[1:] {
				if v.Ordinal < 0 {
					return Errorf(ErrConstraintViolation, JoinPath(t.Name, v.Name),
						"enum value has ordinal %d, below the zero default", v.Ordinal).
						WithHint("proto3 requires 0 to be the smallest ordinal; renumber the negative values above 0")
				}
			}
		case KindStructure:
			for _, f := range t.Fields {
				fp := JoinPath(t.Name, f.Name)
				if u := doc.Resolve(f.Type); u != nil && u.Kind == KindUnion {
					for i, m := range u.Members {
						if m.Name == "" || m.FieldNumber == 0 {
							return Errorf(ErrMissingRequiredMetadata, fmt.Sprintf("%s[%d]", fp, i),
								"oneof member %s has no name or field number", m.Type).
								WithHint("give every union member a name and a field number; numbers are never auto-assigned")
						}
					}
					continue
				}
				if f.FieldNumber == 0 {
					return Errorf(ErrMissingRequiredMetadata, fp, "field has no field number").
						WithHint("set %field_number on every field; stable wire numbers are never auto-assigned")
				}
			}
		}
	}
	return nil
}
