// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Daco Labs

package protobuf

import (
	"bytes"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/dacolabs/usdl/internal/usdl"
)

var wktImports = map[usdl.Primitive]string{
	usdl.DateTime: "google/protobuf/timestamp.proto",
	usdl.Date:     "google/type/date.proto",
	usdl.Time:     "google/type/timeofday.proto",
	usdl.Decimal:  "google/type/decimal.proto",
}

type fileView struct {
	Doc     []string
	Package string
	Imports []string
	Types   []typeView
}

type typeView struct {
	Doc     []string
	Keyword string
	Name    string
	Lines   []string
}

type raiser struct {
	doc         *usdl.Document
	nullability usdl.NullabilityStrategy
	imports     map[string]bool
	// named unions, arrays and maps are written out at each referencing field
	used map[string]bool
}

// Render raises a canonical document into a proto3 file. Every field must
// already carry its field number; defaults have no proto3 equivalent and are
// dropped.
func (t *Translator) Render(doc *usdl.Document, _ usdl.RenderOptions) ([]byte, error) {
	if err := usdl.ValidateForProtobuf(doc); err != nil {
		return nil, err
	}
	r := &raiser{
		doc:         doc,
		nullability: usdl.NullabilityEncoding(usdl.Protobuf),
		imports:     make(map[string]bool),
		used:        make(map[string]bool),
	}

	view := fileView{Doc: commentLines(doc.Documentation, ""), Package: packageName(doc.Namespace)}
	for _, def := range doc.Types {
		if !usdl.IsIdentifier(def.Name) {
			return nil, usdl.Errorf(usdl.ErrConstraintViolation, def.Name, "type name %q is not a proto3 identifier", def.Name).
				WithHint("use letters, digits and underscores, starting with a letter")
		}
		var (
			tv  = typeView{Doc: commentLines(def.Documentation, ""), Name: def.Name}
			err error
		)
		switch def.Kind {
		case usdl.KindStructure:
			tv.Keyword = "message"
			tv.Lines, err = r.message(def)
		case usdl.KindEnum:
			tv.Keyword = "enum"
			tv.Lines, err = enumLines(def)
		default:
			continue
		}
		if err != nil {
			return nil, err
		}
		view.Types = append(view.Types, tv)
	}

	for _, def := range doc.Types {
		switch def.Kind {
		case usdl.KindUnion, usdl.KindArray, usdl.KindMap:
			if !r.used[def.Name] {
				return nil, usdl.Errorf(usdl.ErrUnsupportedConstruct, def.Name, "%s %s is not used by any field", def.Kind, def.Name).
					WithHint("proto3 has no standalone " + string(def.Kind) + " declaration; reference it from a message field")
			}
		}
	}
	view.Imports = slices.Sorted(maps.Keys(r.imports))

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "protobuf.proto.tmpl", view); err != nil {
		return nil, fmt.Errorf("failed to execute template: %w", err)
	}
	return buf.Bytes(), nil
}

func (r *raiser) message(def *usdl.TypeDefinition) ([]string, error) {
	var lines []string
	// fields and oneof members share the message namespace
	claimed := make(map[string]bool)
	claim := func(path, name string) error {
		if !usdl.IsIdentifier(name) {
			return usdl.Errorf(usdl.ErrConstraintViolation, path, "%q is not a proto3 identifier", name)
		}
		if claimed[name] {
			return usdl.Errorf(usdl.ErrConstraintViolation, path, "%q is already used in message %s", name, def.Name).
				WithHint("oneof members and fields of one message need distinct names")
		}
		claimed[name] = true
		return nil
	}

	for _, f := range def.Fields {
		path := usdl.JoinPath(def.Name, f.Name)
		if err := claim(path, f.Name); err != nil {
			return nil, err
		}
		lines = append(lines, commentLines(f.Documentation, "  ")...)

		target := r.doc.Resolve(f.Type)
		if target != nil && f.Type.RefKind() == usdl.RefNamed {
			r.used[target.Name] = true
		}
		switch {
		case target != nil && target.Kind == usdl.KindUnion:
			lines = append(lines, "  oneof "+f.Name+" {")
			for i, m := range target.Members {
				mp := fmt.Sprintf("%s[%d]", path, i)
				if err := claim(mp, m.Name); err != nil {
					return nil, err
				}
				typ, err := r.element(m.Type, mp)
				if err != nil {
					return nil, err
				}
				lines = append(lines, fmt.Sprintf("    %s %s = %d;", typ, m.Name, m.FieldNumber))
			}
			lines = append(lines, "  }")

		case target != nil && (target.Kind == usdl.KindArray || target.Kind == usdl.KindMap):
			if f.Optional {
				return nil, usdl.Errorf(usdl.ErrUnsupportedConstruct, path, "optional %s fields have no proto3 equivalent", target.Kind).
					WithHint("make the field required; an empty " + string(target.Kind) + " already reads as absent")
			}
			typ, err := r.element(*target.Items, path+"[]")
			if err != nil {
				return nil, err
			}
			if target.Kind == usdl.KindArray {
				lines = append(lines, fmt.Sprintf("  repeated %s %s = %d;", typ, f.Name, f.FieldNumber))
			} else {
				lines = append(lines, fmt.Sprintf("  map<string, %s> %s = %d;", typ, f.Name, f.FieldNumber))
			}

		default:
			typ, err := r.element(f.Type, path)
			if err != nil {
				return nil, err
			}
			label := ""
			if f.Optional {
				if r.nullability != usdl.OptionalModifier {
					return nil, usdl.UnsupportedNullability(usdl.Protobuf, path)
				}
				label = "optional "
			}
			lines = append(lines, fmt.Sprintf("  %s%s %s = %d;", label, typ, f.Name, f.FieldNumber))
		}
	}
	return lines, nil
}

// element spells a scalar, message or enum type. Containers and unions cannot
// nest in proto3.
func (r *raiser) element(ref usdl.TypeRef, path string) (string, error) {
	switch ref.RefKind() {
	case usdl.RefPrimitive:
		base, _, _ := usdl.FormatPrimitive(usdl.Protobuf, ref.Primitive)
		if imp, ok := wktImports[ref.Primitive]; ok {
			r.imports[imp] = true
		}
		return base, nil
	case usdl.RefNamed:
		if def := r.doc.Lookup(ref.Name); def.Kind == usdl.KindStructure || def.Kind == usdl.KindEnum {
			return ref.Name, nil
		}
	}
	return "", usdl.Errorf(usdl.ErrUnsupportedConstruct, path, "%s cannot be nested here", ref).
		WithHint("repeated items, map values and oneof members must be scalars, messages or enums; wrap the value in a message")
}

func enumLines(def *usdl.TypeDefinition) ([]string, error) {
	var lines []string
	for _, v := range def.Values {
		if !usdl.IsIdentifier(v.Name) {
			return nil, usdl.Errorf(usdl.ErrConstraintViolation, usdl.JoinPath(def.Name, v.Name), "%q is not a proto3 identifier", v.Name).
				WithHint("use letters, digits and underscores, starting with a letter")
		}
		lines = append(lines, commentLines(v.Documentation, "  ")...)
		lines = append(lines, fmt.Sprintf("  %s = %d;", v.Name, v.Ordinal))
	}
	return lines, nil
}

// packageName returns ns when it is a valid dotted proto package name.
func packageName(ns string) string {
	if ns == "" {
		return ""
	}
	for _, part := range strings.Split(ns, ".") {
		if !usdl.IsIdentifier(part) {
			return ""
		}
	}
	return ns
}

func commentLines(text, indent string) []string {
	if text == "" {
		return nil
	}
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if line == "" {
			lines[i] = indent + "//"
		} else {
			lines[i] = indent + "// " + line
		}
	}
	return lines
}
