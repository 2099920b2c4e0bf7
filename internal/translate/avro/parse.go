// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Daco Labs

package avro

import (
	"fmt"
	"strings"

	"github.com/dacolabs/usdl/internal/udm"
	"github.com/dacolabs/usdl/internal/usdl"
)

// lowerer hoists every named Avro type into a flat document. Named types are
// keyed by their simple name; full names are tracked so that a second,
// different definition with the same simple name is reported instead of
// silently merged.
type lowerer struct {
	doc *usdl.Document

	// full name -> simple (hoisted) name
	fullNames map[string]string
	// simple name -> full name that claimed it
	owners map[string]string
	// fixed types are not canonical types; their names alias a primitive
	fixed map[string]usdl.Primitive
}

// Parse lowers an Avro schema document into the canonical model.
func (t *Translator) Parse(src []byte) (*usdl.Document, error) {
	root, err := udm.ParseJSON(src)
	if err != nil {
		return nil, usdl.Errorf(usdl.ErrMalformedInput, "", "invalid Avro schema JSON").WithCause(err)
	}

	l := &lowerer{
		doc:       &usdl.Document{},
		fullNames: make(map[string]string),
		owners:    make(map[string]string),
		fixed:     make(map[string]usdl.Primitive),
	}

	switch root.Kind {
	case udm.ObjectKind, udm.StringKind:
		if err := l.lowerRoot(root, ""); err != nil {
			return nil, err
		}
	case udm.ArrayKind:
		for i, member := range root.Items {
			if err := l.lowerRoot(member, fmt.Sprintf("[%d]", i)); err != nil {
				return nil, err
			}
		}
	default:
		return nil, usdl.Errorf(usdl.ErrMalformedInput, "", "an Avro schema must be a JSON object, string or array, got %s", root.Kind)
	}

	if len(l.doc.Types) == 0 {
		return nil, usdl.Errorf(usdl.ErrUnsupportedConstruct, "", "schema declares no named record or enum").
			WithHint("wrap the schema in a named record")
	}
	if err := usdl.Validate(l.doc); err != nil {
		return nil, err
	}
	return l.doc, nil
}

func (l *lowerer) lowerRoot(v *udm.Value, path string) error {
	typ, _ := v.Get("type").Str()
	switch {
	case typ == "record", typ == "error", typ == "enum":
		if l.doc.Namespace == "" {
			name, _ := v.Get("name").Str()
			l.doc.Namespace = namespaceOf(v, name, "")
		}
	case typ == "fixed", v.Kind == udm.StringKind:
		// fixed declarations and by-name repeats of earlier types
	default:
		return usdl.Errorf(usdl.ErrUnsupportedConstruct, path, "top-level schema must be a named record or enum, or a union of them").
			WithHint("wrap anonymous top-level arrays, maps and primitives in a named record")
	}
	_, err := l.lowerType(v, "", path)
	return err
}

// lowerType lowers a type appearing anywhere except directly as a field's
// union, so a null branch is never legal here.
func (l *lowerer) lowerType(v *udm.Value, ns, path string) (usdl.TypeRef, error) {
	switch v.Kind {
	case udm.StringKind:
		return l.lowerName(v.String, ns, path)
	case udm.ArrayKind:
		members, hasNull, err := l.lowerUnion(v, ns, path)
		if err != nil {
			return usdl.TypeRef{}, err
		}
		if hasNull {
			return usdl.TypeRef{}, usdl.Errorf(usdl.ErrUnsupportedConstruct, path, "null branch outside a record field").
				WithHint("nullable array items and map values have no canonical form; make the enclosing field optional instead")
		}
		return unionRef(members, path)
	case udm.ObjectKind:
		return l.lowerObject(v, ns, path)
	}
	return usdl.TypeRef{}, usdl.Errorf(usdl.ErrMalformedInput, path, "a type must be a string, object or array, got %s", v.Kind)
}

func (l *lowerer) lowerName(name, ns, path string) (usdl.TypeRef, error) {
	switch name {
	case "null":
		return usdl.TypeRef{}, usdl.Errorf(usdl.ErrUnsupportedConstruct, path, "null type outside a union").
			WithHint("use a [\"null\", T] union on a record field to express optionality")
	case "boolean", "int", "long", "float", "double", "bytes", "string":
		p, _ := usdl.CanonicalPrimitive(usdl.Avro, name)
		return usdl.PrimitiveRef(p), nil
	}

	candidates := []string{name}
	if !strings.Contains(name, ".") && ns != "" {
		candidates = []string{ns + "." + name, name}
	}
	for _, full := range candidates {
		if p, ok := l.fixed[full]; ok {
			return usdl.PrimitiveRef(p), nil
		}
		if simple, ok := l.fullNames[full]; ok {
			return usdl.NamedRef(simple), nil
		}
	}
	return usdl.TypeRef{}, usdl.Errorf(usdl.ErrUnresolvedTypeReference, path, "type %q is not defined", name).
		WithHint("Avro requires a named type to be defined before it is referenced by name")
}

func (l *lowerer) lowerObject(v *udm.Value, ns, path string) (usdl.TypeRef, error) {
	typ := v.Get("type")
	if typ == nil {
		return usdl.TypeRef{}, usdl.Errorf(usdl.ErrMalformedInput, path, "schema object has no \"type\"")
	}
	if typ.Kind != udm.StringKind {
		return l.lowerType(typ, ns, path)
	}
	logical, _ := v.Get("logicalType").Str()

	switch typ.String {
	case "record", "error":
		return l.lowerRecord(v, ns, path)
	case "enum":
		return l.lowerEnum(v, ns, path)
	case "array":
		items := v.Get("items")
		if items == nil {
			return usdl.TypeRef{}, usdl.Errorf(usdl.ErrMalformedInput, path, "array has no \"items\"")
		}
		ref, err := l.lowerType(items, ns, path+"[]")
		if err != nil {
			return usdl.TypeRef{}, err
		}
		return usdl.ArrayOf(ref), nil
	case "map":
		values := v.Get("values")
		if values == nil {
			return usdl.TypeRef{}, usdl.Errorf(usdl.ErrMalformedInput, path, "map has no \"values\"")
		}
		ref, err := l.lowerType(values, ns, path+"[]")
		if err != nil {
			return usdl.TypeRef{}, err
		}
		return usdl.MapOf(ref), nil
	case "fixed":
		p, ok := usdl.CanonicalPrimitive(usdl.Avro, "fixed:"+logical)
		if !ok {
			p = usdl.Bytes
		}
		name, _ := v.Get("name").Str()
		if name == "" {
			return usdl.TypeRef{}, usdl.Errorf(usdl.ErrMalformedInput, path, "fixed type has no name")
		}
		l.fixed[fullName(name, namespaceOf(v, name, ns))] = p
		return usdl.PrimitiveRef(p), nil
	}

	if logical != "" {
		if p, ok := usdl.CanonicalPrimitive(usdl.Avro, typ.String+":"+logical); ok {
			return usdl.PrimitiveRef(p), nil
		}
	}
	return l.lowerName(typ.String, ns, path)
}

// claim registers a named type before its body is lowered so that recursive
// references resolve.
func (l *lowerer) claim(v *udm.Value, ns, path string) (simple, childNS string, err error) {
	name, _ := v.Get("name").Str()
	if name == "" {
		return "", "", usdl.Errorf(usdl.ErrMalformedInput, path, "named type has no \"name\"")
	}
	childNS = namespaceOf(v, name, ns)
	full := fullName(name, childNS)
	simple = usdl.SimpleName(name)

	if _, ok := l.fullNames[full]; ok {
		return "", "", usdl.Errorf(usdl.ErrUnresolvedTypeReference, simple, "type %q is defined twice", full).
			WithHint("define a named type once and reference it by name afterwards")
	}
	if owner, ok := l.owners[simple]; ok {
		return "", "", usdl.Errorf(usdl.ErrUnresolvedTypeReference, simple, "%q and %q both hoist to %q", owner, full, simple).
			WithHint("rename one of the types; names must be unique regardless of namespace")
	}
	l.fullNames[full] = simple
	l.owners[simple] = full
	return simple, childNS, nil
}

func (l *lowerer) lowerRecord(v *udm.Value, ns, path string) (usdl.TypeRef, error) {
	name, childNS, err := l.claim(v, ns, path)
	if err != nil {
		return usdl.TypeRef{}, err
	}
	doc, _ := v.Get("doc").Str()
	def := &usdl.TypeDefinition{Name: name, Kind: usdl.KindStructure, Documentation: doc}
	if err := l.doc.AddType(def); err != nil {
		return usdl.TypeRef{}, err
	}

	fields := v.Get("fields")
	if fields == nil || fields.Kind != udm.ArrayKind {
		return usdl.TypeRef{}, usdl.Errorf(usdl.ErrMalformedInput, name, "record has no \"fields\" array")
	}
	for i, fv := range fields.Items {
		f, err := l.lowerField(fv, childNS, name, i)
		if err != nil {
			return usdl.TypeRef{}, err
		}
		def.Fields = append(def.Fields, f)
	}
	return usdl.NamedRef(name), nil
}

func (l *lowerer) lowerField(v *udm.Value, ns, owner string, index int) (*usdl.Field, error) {
	if v.Kind != udm.ObjectKind {
		return nil, usdl.Errorf(usdl.ErrMalformedInput, fmt.Sprintf("%s[%d]", owner, index), "field must be an object")
	}
	name, _ := v.Get("name").Str()
	if name == "" {
		return nil, usdl.Errorf(usdl.ErrMalformedInput, fmt.Sprintf("%s[%d]", owner, index), "field has no name")
	}
	path := usdl.JoinPath(owner, name)
	typ := v.Get("type")
	if typ == nil {
		return nil, usdl.Errorf(usdl.ErrMalformedInput, path, "field has no \"type\"")
	}

	f := &usdl.Field{Name: name}
	f.Documentation, _ = v.Get("doc").Str()

	def := v.Get("default")
	if typ.Kind != udm.ArrayKind {
		ref, err := l.lowerType(typ, ns, path)
		if err != nil {
			return nil, err
		}
		f.Type = ref
		if def != nil {
			f.Default = def.Clone()
		}
		return f, nil
	}

	members, hasNull, err := l.lowerUnion(typ, ns, path)
	if err != nil {
		return nil, err
	}
	switch {
	case len(members) == 0:
		return nil, usdl.Errorf(usdl.ErrUnsupportedConstruct, path, "field union has no non-null branch")
	case len(members) == 1:
		f.Type = members[0]
	default:
		f.Type = usdl.UnionOf(members...)
	}
	f.Optional = hasNull
	if def != nil && !(hasNull && def.IsNull()) {
		f.Default = def.Clone()
	}
	return f, nil
}

// lowerUnion lowers union branches, reporting null separately.
func (l *lowerer) lowerUnion(v *udm.Value, ns, path string) ([]usdl.TypeRef, bool, error) {
	var members []usdl.TypeRef
	hasNull := false
	for i, branch := range v.Items {
		if s, ok := branch.Str(); ok && s == "null" {
			hasNull = true
			continue
		}
		if branch.Kind == udm.ArrayKind {
			return nil, false, usdl.Errorf(usdl.ErrMalformedInput, path, "unions may not immediately contain other unions")
		}
		ref, err := l.lowerType(branch, ns, fmt.Sprintf("%s[%d]", path, i))
		if err != nil {
			return nil, false, err
		}
		members = append(members, ref)
	}
	return members, hasNull, nil
}

func unionRef(members []usdl.TypeRef, path string) (usdl.TypeRef, error) {
	switch len(members) {
	case 0:
		return usdl.TypeRef{}, usdl.Errorf(usdl.ErrMalformedInput, path, "empty union")
	case 1:
		return members[0], nil
	}
	return usdl.UnionOf(members...), nil
}

func (l *lowerer) lowerEnum(v *udm.Value, ns, path string) (usdl.TypeRef, error) {
	name, _, err := l.claim(v, ns, path)
	if err != nil {
		return usdl.TypeRef{}, err
	}
	doc, _ := v.Get("doc").Str()
	def := &usdl.TypeDefinition{Name: name, Kind: usdl.KindEnum, Documentation: doc}

	symbols := v.Get("symbols")
	if symbols == nil || symbols.Kind != udm.ArrayKind {
		return usdl.TypeRef{}, usdl.Errorf(usdl.ErrMalformedInput, name, "enum has no \"symbols\" array")
	}
	for i, sym := range symbols.Items {
		s, ok := sym.Str()
		if !ok {
			return usdl.TypeRef{}, usdl.Errorf(usdl.ErrMalformedInput, fmt.Sprintf("%s[%d]", name, i), "enum symbol must be a string")
		}
		def.Values = append(def.Values, usdl.EnumValue{Name: s, Ordinal: i})
	}
	if err := l.doc.AddType(def); err != nil {
		return usdl.TypeRef{}, err
	}
	return usdl.NamedRef(name), nil
}

// namespaceOf returns the namespace a named type lives in: the one embedded in
// a dotted name, else its "namespace" attribute, else the enclosing one.
func namespaceOf(v *udm.Value, name, enclosing string) string {
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		return name[:i]
	}
	if ns, ok := v.Get("namespace").Str(); ok {
		return ns
	}
	return enclosing
}

func fullName(name, ns string) string {
	if strings.Contains(name, ".") || ns == "" {
		return name
	}
	return ns + "." + name
}
