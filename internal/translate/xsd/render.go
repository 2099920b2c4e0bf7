// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Daco Labs

package xsd

import (
	"fmt"
	"strings"

	"github.com/beevik/etree"

	"github.com/dacolabs/usdl/internal/udm"
	"github.com/dacolabs/usdl/internal/usdl"
)

type raiser struct {
	doc         *usdl.Document
	nullability usdl.NullabilityStrategy
	prefix      string
	counts      map[string]int
	// types written anonymously at their single use site
	inline map[string]bool
	// named arrays and unions that expand where they are used
	used map[string]bool
}

// Render raises a canonical document into an XML Schema. With
// opts.PreservePattern, types whose fields carry an inline hint are declared
// anonymously in place; otherwise every type is global.
func (t *Translator) Render(doc *usdl.Document, opts usdl.RenderOptions) ([]byte, error) {
	if err := usdl.Validate(doc); err != nil {
		return nil, err
	}
	r := &raiser{
		doc:         doc,
		nullability: usdl.NullabilityEncoding(usdl.XSD),
		counts:      doc.ReferenceCounts(),
		inline:      make(map[string]bool),
		used:        make(map[string]bool),
	}
	if err := r.checkNames(); err != nil {
		return nil, err
	}
	if opts.PreservePattern {
		if err := r.planInlining(); err != nil {
			return nil, err
		}
	}

	x := etree.NewDocument()
	x.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	schema := x.CreateElement("xs:schema")
	schema.CreateAttr("xmlns:xs", XMLSchemaNamespace)
	if doc.Namespace != "" {
		r.prefix = "tns:"
		schema.CreateAttr("xmlns:tns", doc.Namespace)
		schema.CreateAttr("targetNamespace", doc.Namespace)
		schema.CreateAttr("elementFormDefault", "qualified")
	}
	annotate(schema, doc.Documentation)

	for _, def := range doc.Types {
		if err := r.global(schema, def, opts.PreservePattern); err != nil {
			return nil, err
		}
	}
	for _, def := range doc.Types {
		if (def.Kind == usdl.KindArray || def.Kind == usdl.KindUnion) && !r.declaredGlobally(def) && !r.used[def.Name] {
			return nil, usdl.Errorf(usdl.ErrUnsupportedConstruct, def.Name, "%s %s is not used by any field", def.Kind, def.Name).
				WithHint("XML Schema cannot declare it on its own; reference it from a structure field")
		}
	}

	if opts.PrettyPrint {
		x.Indent(2)
	}
	out, err := x.WriteToBytes()
	if err != nil {
		return nil, fmt.Errorf("failed to write schema: %w", err)
	}
	if !opts.PrettyPrint {
		out = append(out, '\n')
	}
	return out, nil
}

func (r *raiser) checkNames() error {
	for _, def := range r.doc.Types {
		if !isNCName(def.Name) {
			return usdl.Errorf(usdl.ErrConstraintViolation, def.Name, "type name %q is not an XML name", def.Name).
				WithHint("use letters, digits, '-', '_' and '.', starting with a letter or '_'")
		}
		for _, f := range def.Fields {
			if !isNCName(f.Name) {
				return usdl.Errorf(usdl.ErrConstraintViolation, usdl.JoinPath(def.Name, f.Name), "field name %q is not an XML name", f.Name).
					WithHint("use letters, digits, '-', '_' and '.', starting with a letter or '_'")
			}
		}
	}
	return nil
}

// planInlining picks the types written anonymously. A hinted type goes inline
// when its single reference is the hinted field or choice element. Its name
// must be the one the parser would hoist it under again.
func (r *raiser) planInlining() error {
	owner := make(map[string]string)
	plan := func(owning, element, path string, ref usdl.TypeRef) error {
		name := hintedTarget(r.doc, ref)
		if name == "" {
			return nil
		}
		if r.counts[name] > 1 {
			return usdl.Errorf(usdl.ErrConstraintViolation, path, "type %s is declared in place here but referenced %d times", name, r.counts[name]).
				WithHint("clear the field's inline hint or render without preserving the pattern")
		}
		if hoisted := usdl.ToPascalCase(element); name != hoisted {
			return usdl.Errorf(usdl.ErrConstraintViolation, path, "type %s is declared in place here but would be read back as %s", name, hoisted).
				WithHint(fmt.Sprintf("rename the type to %s, clear the field's inline hint or render without preserving the pattern", hoisted))
		}
		owner[name] = owning
		return nil
	}
	for _, def := range r.doc.Types {
		for _, f := range def.Fields {
			fp := usdl.JoinPath(def.Name, f.Name)
			if f.InlineHint {
				if err := plan(def.Name, f.Name, fp, f.Type); err != nil {
					return err
				}
			}
			u := choiceOf(r.doc, f.Type)
			if u == nil {
				continue
			}
			for i, m := range u.Members {
				if !m.InlineHint {
					continue
				}
				element := m.Name
				if element == "" {
					element = memberName(m.Type)
				}
				if err := plan(def.Name, element, fmt.Sprintf("%s[%d]", fp, i), m.Type); err != nil {
					return err
				}
			}
		}
	}
	for name := range owner {
		cyclic := false
		for o, ok := owner[name]; ok; o, ok = owner[o] {
			if o == name {
				cyclic = true
				break
			}
		}
		if !cyclic {
			r.inline[name] = true
		}
	}
	return nil
}

// choiceOf returns the union a field's type resolves to, looking through one
// level of array.
func choiceOf(doc *usdl.Document, ref usdl.TypeRef) *usdl.TypeDefinition {
	if def := doc.Resolve(ref); def != nil && def.Kind == usdl.KindArray {
		ref = *def.Items
	}
	if def := doc.Resolve(ref); def != nil && def.Kind == usdl.KindUnion {
		return def
	}
	return nil
}

// hintedTarget returns the structure or enum a hinted field declares, looking
// through one level of array.
func hintedTarget(doc *usdl.Document, ref usdl.TypeRef) string {
	if ref.IsInlineKind(usdl.KindArray) {
		ref = *ref.Inline.Items
	}
	if ref.RefKind() != usdl.RefNamed {
		return ""
	}
	if def := doc.Lookup(ref.Name); def != nil && (def.Kind == usdl.KindStructure || def.Kind == usdl.KindEnum) {
		return ref.Name
	}
	return ""
}

func (r *raiser) global(schema *etree.Element, def *usdl.TypeDefinition, preserve bool) error {
	if r.inline[def.Name] {
		return nil
	}
	switch def.Kind {
	case usdl.KindStructure:
		if r.counts[def.Name] == 0 {
			el := schema.CreateElement("xs:element")
			el.CreateAttr("name", def.Name)
			if preserve && def.InlineHint {
				annotate(el, def.Documentation)
				return r.complexType(el.CreateElement("xs:complexType"), def)
			}
			el.CreateAttr("type", r.prefix+def.Name)
		}
		ct := schema.CreateElement("xs:complexType")
		ct.CreateAttr("name", def.Name)
		annotate(ct, def.Documentation)
		return r.complexType(ct, def)

	case usdl.KindEnum:
		st := schema.CreateElement("xs:simpleType")
		st.CreateAttr("name", def.Name)
		annotate(st, def.Documentation)
		enumRestriction(st, def)

	case usdl.KindArray:
		if r.declaredGlobally(def) {
			st := schema.CreateElement("xs:simpleType")
			st.CreateAttr("name", def.Name)
			annotate(st, def.Documentation)
			st.CreateElement("xs:list").CreateAttr("itemType", r.qname(*def.Items))
		}

	case usdl.KindUnion:
		if r.declaredGlobally(def) {
			st := schema.CreateElement("xs:simpleType")
			st.CreateAttr("name", def.Name)
			annotate(st, def.Documentation)
			r.simpleUnion(st, def)
		}

	case usdl.KindMap:
		return usdl.Errorf(usdl.ErrUnsupportedConstruct, def.Name, "XML Schema has no map type").
			WithHint("model the map as a repeated element of a key/value structure")
	}
	return nil
}

// declaredGlobally reports whether a named array or union becomes a global
// xs:simpleType rather than expanding at its use sites.
func (r *raiser) declaredGlobally(def *usdl.TypeDefinition) bool {
	switch def.Kind {
	case usdl.KindArray:
		return r.atomic(*def.Items)
	case usdl.KindUnion:
		return r.isSimpleUnion(def)
	}
	return false
}

// atomic reports whether ref is a primitive or a global enumeration.
func (r *raiser) atomic(ref usdl.TypeRef) bool {
	switch ref.RefKind() {
	case usdl.RefPrimitive:
		return true
	case usdl.RefNamed:
		def := r.doc.Lookup(ref.Name)
		return def != nil && def.Kind == usdl.KindEnum && !r.inline[def.Name]
	}
	return false
}

func (r *raiser) isSimpleUnion(def *usdl.TypeDefinition) bool {
	for _, m := range def.Members {
		if m.Name != "" || !r.atomic(m.Type) {
			return false
		}
	}
	return true
}

func (r *raiser) isSimple(ref usdl.TypeRef) bool {
	if r.atomic(ref) {
		return true
	}
	def := r.doc.Resolve(ref)
	if def == nil {
		return false
	}
	switch def.Kind {
	case usdl.KindEnum:
		return true
	case usdl.KindUnion:
		return r.isSimpleUnion(def)
	case usdl.KindArray:
		return r.atomic(*def.Items)
	}
	return false
}

func (r *raiser) qname(ref usdl.TypeRef) string {
	if ref.RefKind() == usdl.RefPrimitive {
		base, _, _ := usdl.FormatPrimitive(usdl.XSD, ref.Primitive)
		return "xs:" + base
	}
	return r.prefix + ref.Name
}

func enumRestriction(st *etree.Element, def *usdl.TypeDefinition) {
	res := st.CreateElement("xs:restriction")
	res.CreateAttr("base", "xs:string")
	for _, v := range def.Values {
		e := res.CreateElement("xs:enumeration")
		e.CreateAttr("value", v.Name)
		annotate(e, v.Documentation)
	}
}

func (r *raiser) simpleUnion(st *etree.Element, def *usdl.TypeDefinition) {
	names := make([]string, 0, len(def.Members))
	for _, m := range def.Members {
		names = append(names, r.qname(m.Type))
	}
	st.CreateElement("xs:union").CreateAttr("memberTypes", strings.Join(names, " "))
}

// simpleContentField returns the text field of a structure that renders as
// simple content: one required "value" of simple type beside attributes.
func (r *raiser) simpleContentField(def *usdl.TypeDefinition) *usdl.Field {
	var value *usdl.Field
	attrs := 0
	for _, f := range def.Fields {
		switch {
		case f.Attribute:
			attrs++
		case value != nil:
			return nil
		default:
			value = f
		}
	}
	if attrs == 0 || value == nil || value.Name != "value" || value.Optional || value.Default != nil ||
		value.Documentation != "" || value.InlineHint || value.Type.RefKind() == usdl.RefInline || !r.isSimple(value.Type) {
		return nil
	}
	return value
}

func (r *raiser) complexType(ct *etree.Element, def *usdl.TypeDefinition) error {
	if value := r.simpleContentField(def); value != nil {
		ext := ct.CreateElement("xs:simpleContent").CreateElement("xs:extension")
		ext.CreateAttr("base", r.qname(value.Type))
		return r.attributes(ext, def)
	}

	var seq *etree.Element
	for _, f := range def.Fields {
		if f.Attribute {
			continue
		}
		if seq == nil {
			seq = ct.CreateElement("xs:sequence")
		}
		if err := r.field(seq, f, usdl.JoinPath(def.Name, f.Name)); err != nil {
			return err
		}
	}
	return r.attributes(ct, def)
}

func (r *raiser) field(seq *etree.Element, f *usdl.Field, path string) error {
	ref, repeated := f.Type, false
	if def := r.doc.Resolve(ref); def != nil && def.Kind == usdl.KindArray && !(ref.RefKind() == usdl.RefNamed && r.declaredGlobally(def)) {
		if ref.RefKind() == usdl.RefNamed {
			r.used[ref.Name] = true
		}
		ref, repeated = *def.Items, true
	}

	if def := r.doc.Resolve(ref); def != nil {
		switch {
		case def.Kind == usdl.KindUnion && !r.isSimpleUnion(def):
			if ref.RefKind() == usdl.RefNamed {
				r.used[ref.Name] = true
			}
			return r.choice(seq, f, def, repeated, path)
		case def.Kind == usdl.KindArray && !(ref.RefKind() == usdl.RefNamed && r.declaredGlobally(def)):
			return usdl.Errorf(usdl.ErrUnsupportedConstruct, path, "nested arrays have no XML Schema equivalent").
				WithHint("wrap the inner array in a structure")
		case def.Kind == usdl.KindMap:
			return usdl.Errorf(usdl.ErrUnsupportedConstruct, path, "XML Schema has no map type").
				WithHint("model the map as a repeated element of a key/value structure")
		}
	}

	el := seq.CreateElement("xs:element")
	el.CreateAttr("name", f.Name)
	anon, err := r.typeOf(el, ref, path)
	if err != nil {
		return err
	}
	if f.Optional {
		if err := r.markOptional(el, path); err != nil {
			return err
		}
	}
	if repeated {
		el.CreateAttr("maxOccurs", "unbounded")
	}
	if err := defaultAttr(el, f.Default, path); err != nil {
		return err
	}
	annotate(el, f.Documentation)
	if anon != nil {
		el.AddChild(anon)
	}
	return nil
}

// typeOf sets the type attribute of el, or returns the anonymous type to
// append once the annotation is in place.
func (r *raiser) typeOf(el *etree.Element, ref usdl.TypeRef, path string) (*etree.Element, error) {
	def := r.doc.Resolve(ref)
	switch {
	case ref.RefKind() == usdl.RefNamed && r.inline[ref.Name]:
		if def.Kind == usdl.KindEnum {
			st := etree.NewElement("xs:simpleType")
			annotate(st, def.Documentation)
			enumRestriction(st, def)
			return st, nil
		}
		ct := etree.NewElement("xs:complexType")
		annotate(ct, def.Documentation)
		return ct, r.complexType(ct, def)

	case ref.RefKind() == usdl.RefInline:
		st := etree.NewElement("xs:simpleType")
		switch {
		case def.Kind == usdl.KindUnion && r.isSimpleUnion(def):
			r.simpleUnion(st, def)
		case def.Kind == usdl.KindArray && r.atomic(*def.Items):
			st.CreateElement("xs:list").CreateAttr("itemType", r.qname(*def.Items))
		default:
			return nil, usdl.Errorf(usdl.ErrUnsupportedConstruct, path, "%s cannot be declared here", ref).
				WithHint("give the type a name")
		}
		return st, nil
	}
	el.CreateAttr("type", r.qname(ref))
	return nil, nil
}

func (r *raiser) markOptional(el *etree.Element, path string) error {
	if r.nullability != usdl.MinOccursZero {
		return usdl.UnsupportedNullability(usdl.XSD, path)
	}
	el.CreateAttr("minOccurs", "0")
	return nil
}

// choice writes a union as an xs:choice whose id carries the field name.
func (r *raiser) choice(seq *etree.Element, f *usdl.Field, def *usdl.TypeDefinition, repeated bool, path string) error {
	ch := seq.CreateElement("xs:choice")
	ch.CreateAttr("id", f.Name)
	if f.Optional {
		if err := r.markOptional(ch, path); err != nil {
			return err
		}
	}
	if repeated {
		ch.CreateAttr("maxOccurs", "unbounded")
	}
	if f.Default != nil && !f.Default.IsNull() {
		return usdl.Errorf(usdl.ErrUnsupportedConstruct, path, "defaults on choices have no XML Schema equivalent")
	}
	annotate(ch, f.Documentation)

	seen := make(map[string]bool, len(def.Members))
	for i, m := range def.Members {
		mp := fmt.Sprintf("%s[%d]", path, i)
		name := m.Name
		if name == "" {
			name = memberName(m.Type)
		}
		if !isNCName(name) {
			return usdl.Errorf(usdl.ErrConstraintViolation, mp, "choice element name %q is not an XML name", name).
				WithHint("name the union member")
		}
		if seen[name] {
			return usdl.Errorf(usdl.ErrConstraintViolation, mp, "choice element %q appears twice", name).
				WithHint("name the union members so every alternative is distinct")
		}
		seen[name] = true
		if err := r.field(ch, &usdl.Field{Name: name, Type: m.Type, InlineHint: m.InlineHint}, mp); err != nil {
			return err
		}
	}
	return nil
}

func memberName(ref usdl.TypeRef) string {
	switch ref.RefKind() {
	case usdl.RefPrimitive:
		base, _, _ := usdl.FormatPrimitive(usdl.XSD, ref.Primitive)
		return base
	case usdl.RefNamed:
		return ref.Name
	}
	return string(ref.Inline.Kind)
}

func (r *raiser) attributes(parent *etree.Element, def *usdl.TypeDefinition) error {
	for _, f := range def.Fields {
		if !f.Attribute {
			continue
		}
		path := usdl.JoinPath(def.Name, f.Name)
		if !r.isSimple(f.Type) {
			return usdl.Errorf(usdl.ErrConstraintViolation, path, "attribute of type %s is not a simple type", f.Type).
				WithHint("turn the attribute into an element")
		}
		at := parent.CreateElement("xs:attribute")
		at.CreateAttr("name", f.Name)
		anon, err := r.typeOf(at, f.Type, path)
		if err != nil {
			return err
		}
		if !f.Optional {
			at.CreateAttr("use", "required")
		}
		if err := defaultAttr(at, f.Default, path); err != nil {
			return err
		}
		annotate(at, f.Documentation)
		if anon != nil {
			at.AddChild(anon)
		}
	}
	return nil
}

// defaultAttr writes a scalar default. Null defaults have no XML Schema form
// and are dropped.
func defaultAttr(el *etree.Element, v *udm.Value, path string) error {
	if v.IsNull() {
		return nil
	}
	switch v.Kind {
	case udm.BoolKind:
		el.CreateAttr("default", fmt.Sprint(v.Bool))
	case udm.NumberKind:
		el.CreateAttr("default", v.Number)
	case udm.StringKind:
		el.CreateAttr("default", v.String)
	default:
		return usdl.Errorf(usdl.ErrUnsupportedConstruct, path, "%s default has no XML Schema equivalent", v.Kind).
			WithHint("XML Schema defaults are single scalar values")
	}
	return nil
}
