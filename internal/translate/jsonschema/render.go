// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Daco Labs

package jsonschema

import (
	"github.com/dacolabs/usdl/internal/jschema"
	"github.com/dacolabs/usdl/internal/udm"
	"github.com/dacolabs/usdl/internal/usdl"
)

// raiser builds a draft 2020-12 document as an ordered tree, so that
// properties keep their canonical order in the output.
type raiser struct {
	doc *usdl.Document

	// structures and enums written in place at their only referencing field
	inlined map[string]bool
}

// Render raises a canonical document into a draft 2020-12 JSON Schema. A
// single root structure becomes the document itself; every other type is a
// $defs entry.
func (t *Translator) Render(doc *usdl.Document, opts usdl.RenderOptions) ([]byte, error) {
	if err := usdl.Validate(doc); err != nil {
		return nil, err
	}
	// Optional properties are left out of "required".
	if usdl.NullabilityEncoding(usdl.JSONSchema) != usdl.NotRequired {
		return nil, usdl.UnsupportedNullability(usdl.JSONSchema, "")
	}
	r := &raiser{doc: doc, inlined: inlineTargets(doc)}

	out := udm.NewObject()
	out.Set("$schema", udm.String(jschema.MetaSchema202012))
	if doc.Namespace != "" {
		out.Set("$id", udm.String(doc.Namespace))
	}
	if doc.Documentation != "" {
		out.Set("$comment", udm.String(doc.Documentation))
	}

	roots := doc.Roots()
	var top *usdl.TypeDefinition
	// The root is named after its title on the way back in, so only names
	// that survive that are promoted.
	if len(roots) == 1 && roots[0].Kind == usdl.KindStructure && usdl.ToPascalCase(roots[0].Name) == roots[0].Name {
		top = roots[0]
		out.Set("title", udm.String(top.Name))
		r.structure(out, top)
	} else if len(roots) == 1 {
		out.Set("$ref", udm.String(jschema.DefRef(roots[0].Name)))
	}

	defs := udm.NewObject()
	for _, def := range doc.Types {
		if def == top || r.inlined[def.Name] {
			continue
		}
		defs.Set(def.Name, r.defSchema(def))
	}
	if defs.Len() > 0 {
		out.Set("$defs", defs)
	}

	data, err := udm.ToJSON(out, opts.PrettyPrint)
	if err != nil {
		return nil, usdl.Errorf(usdl.ErrConstraintViolation, "", "cannot encode the schema").WithCause(err)
	}
	return data, nil
}

// inlineTargets picks the structures and enums that carry an inline hint at
// their only reference. A type whose chain of inlining owners loops back to
// itself stays in $defs.
func inlineTargets(doc *usdl.Document) map[string]bool {
	counts := doc.ReferenceCounts()
	owner := make(map[string]string)
	for _, def := range doc.Types {
		for _, f := range def.Fields {
			if !f.InlineHint || f.Type.RefKind() != usdl.RefNamed || counts[f.Type.Name] != 1 {
				continue
			}
			target := doc.Lookup(f.Type.Name)
			if target == nil || (target.Kind != usdl.KindStructure && target.Kind != usdl.KindEnum) {
				continue
			}
			owner[target.Name] = def.Name
		}
	}

	inlined := make(map[string]bool, len(owner))
	for name := range owner {
		seen := map[string]bool{name: true}
		cur, ok := owner[name], true
		for {
			if seen[cur] {
				ok = false
				break
			}
			next, has := owner[cur]
			if !has {
				break
			}
			seen[cur] = true
			cur = next
		}
		if ok {
			inlined[name] = true
		}
	}
	return inlined
}

func (r *raiser) defSchema(def *usdl.TypeDefinition) *udm.Value {
	return r.fillDef(udm.NewObject(), def)
}

func (r *raiser) fillDef(s *udm.Value, def *usdl.TypeDefinition) *udm.Value {
	switch def.Kind {
	case usdl.KindStructure:
		r.structure(s, def)
	case usdl.KindEnum:
		s.Set("type", udm.String("string"))
		describe(s, def.Documentation)
		values, ordinals := udm.NewArray(), udm.NewArray()
		positional := true
		for i, v := range def.Values {
			values.Append(udm.String(v.Name))
			ordinals.Append(udm.Int(int64(v.Ordinal)))
			positional = positional && v.Ordinal == i
		}
		s.Set("enum", values)
		if !positional {
			s.Set(keyEnumOrdinals, ordinals)
		}
	case usdl.KindUnion:
		describe(s, def.Documentation)
		branches := udm.NewArray()
		for _, m := range def.Members {
			b := r.refSchema(m.Type)
			if m.Name != "" {
				b.Set("title", udm.String(m.Name))
			}
			if m.FieldNumber != 0 {
				b.Set(keyFieldNumber, udm.Int(int64(m.FieldNumber)))
			}
			branches.Append(b)
		}
		s.Set("oneOf", branches)
	case usdl.KindArray:
		s.Set("type", udm.String("array"))
		describe(s, def.Documentation)
		s.Set("items", r.refSchema(*def.Items))
	case usdl.KindMap:
		s.Set("type", udm.String("object"))
		describe(s, def.Documentation)
		s.Set("additionalProperties", r.refSchema(*def.Items))
	}
	return s
}

func (r *raiser) structure(s *udm.Value, def *usdl.TypeDefinition) {
	s.Set("type", udm.String("object"))
	describe(s, def.Documentation)
	props, required := udm.NewObject(), udm.NewArray()
	for _, f := range def.Fields {
		props.Set(f.Name, r.fieldSchema(f))
		if !f.Optional {
			required.Append(udm.String(f.Name))
		}
	}
	s.Set("properties", props)
	if required.Len() > 0 {
		s.Set("required", required)
	}
}

func (r *raiser) fieldSchema(f *usdl.Field) *udm.Value {
	var s *udm.Value
	if f.Type.RefKind() == usdl.RefNamed && r.inlined[f.Type.Name] {
		s = udm.NewObject()
		// Inline types are named after their property unless titled.
		if f.Type.Name != usdl.ToPascalCase(f.Name) {
			s.Set("title", udm.String(f.Type.Name))
		}
		r.fillDef(s, r.doc.Lookup(f.Type.Name))
	} else {
		s = r.refSchema(f.Type)
	}
	describe(s, f.Documentation)
	if f.Default != nil {
		s.Set("default", f.Default.Clone())
	}
	if f.FieldNumber != 0 {
		s.Set(keyFieldNumber, udm.Int(int64(f.FieldNumber)))
	}
	return s
}

func (r *raiser) refSchema(ref usdl.TypeRef) *udm.Value {
	switch ref.RefKind() {
	case usdl.RefNamed:
		return udm.NewObject().Set("$ref", udm.String(jschema.DefRef(ref.Name)))
	case usdl.RefInline:
		return r.defSchema(ref.Inline)
	}
	return primitiveSchema(ref.Primitive)
}

func primitiveSchema(p usdl.Primitive) *udm.Value {
	base, qualifier, _ := usdl.FormatPrimitive(usdl.JSONSchema, p)
	s := udm.NewObject().Set("type", udm.String(base))
	switch {
	case qualifier == "base64":
		s.Set("contentEncoding", udm.String(qualifier))
	case qualifier != "":
		s.Set("format", udm.String(qualifier))
	}
	return s
}

func describe(s *udm.Value, doc string) {
	if doc != "" {
		s.Set("description", udm.String(doc))
	}
}
