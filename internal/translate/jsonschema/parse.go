// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Daco Labs

package jsonschema

import (
	"fmt"
	"maps"
	"slices"
	"strconv"

	"github.com/dacolabs/usdl/internal/jschema"
	"github.com/dacolabs/usdl/internal/udm"
	"github.com/dacolabs/usdl/internal/usdl"
)

// unsupportedKeywords have no canonical mapping and fail the whole parse.
var unsupportedKeywords = []string{
	"const", "not", "if", "then", "else",
	"patternProperties", "prefixItems", "dependentSchemas", "dependencies",
}

// node pairs the typed view of a subschema with its ordered tree. The typed
// view answers keyword questions; the tree keeps property order, defaults and
// extension keywords.
type node struct {
	s *jschema.Schema
	t *udm.Value
}

func newNode(s *jschema.Schema, t *udm.Value) node {
	if s == nil {
		s = &jschema.Schema{}
	}
	return node{s: s, t: t}
}

type entry struct {
	name string
	node node
}

// entries returns the members of a schema-map keyword in declaration order.
func (n node) entries(key string, typed map[string]*jschema.Schema) []entry {
	obj := n.t.Get(key)
	if obj == nil || obj.Kind != udm.ObjectKind {
		return nil
	}
	out := make([]entry, 0, len(obj.Keys))
	for i, k := range obj.Keys {
		out = append(out, entry{name: k, node: newNode(typed[k], obj.Values[i])})
	}
	return out
}

func (n node) list(key string, typed []*jschema.Schema) []node {
	arr := n.t.Get(key)
	out := make([]node, 0, len(typed))
	for i, s := range typed {
		var t *udm.Value
		if arr != nil && i < len(arr.Items) {
			t = arr.Items[i]
		}
		out = append(out, newNode(s, t))
	}
	return out
}

func (n node) child(key string, typed *jschema.Schema) node {
	return newNode(typed, n.t.Get(key))
}

func (n node) isObject() bool {
	return n.t != nil && n.t.Kind == udm.ObjectKind
}

// lowered is the result of lowering one subschema.
type lowered struct {
	ref      usdl.TypeRef
	nullable bool
	hoisted  bool // a structure or enum was declared in place
}

// alias is a definition that names a primitive or another definition. It
// does not become a canonical type; references to it resolve to its target.
type alias struct {
	node      node
	resolving bool
	done      bool
	result    lowered
}

type lowerer struct {
	doc      *usdl.Document
	root     node
	rootName string

	defs    map[string]node
	named   map[string]bool
	aliases map[string]*alias
}

// Parse lowers a JSON Schema document into the canonical model.
func (t *Translator) Parse(src []byte) (*usdl.Document, error) {
	tree, err := jschema.DecodeTree(src)
	if err != nil {
		return nil, usdl.Errorf(usdl.ErrMalformedInput, "", "invalid JSON Schema text").WithCause(err)
	}
	if tree.Kind != udm.ObjectKind {
		return nil, usdl.Errorf(usdl.ErrMalformedInput, "", "a JSON Schema document must be an object, got %s", tree.Kind)
	}
	// The typed view cannot hold array-valued items, so tuples are caught on
	// the raw tree.
	if path := findTupleItems(tree, "#"); path != "" {
		return nil, usdl.Errorf(usdl.ErrUnsupportedConstruct, path, "tuple-form \"items\" has no canonical mapping").
			WithHint("describe homogeneous arrays with a single \"items\" schema")
	}
	jdoc, err := jschema.Load(tree)
	if err != nil {
		return nil, usdl.Errorf(usdl.ErrMalformedInput, "", "invalid JSON Schema document").WithCause(err)
	}
	if !jdoc.Draft.Supported() {
		if jdoc.Draft == jschema.DraftUnknown {
			return nil, usdl.Errorf(usdl.ErrUnsupportedConstruct, "", "$schema %q names an unknown dialect", jdoc.Schema.Schema).
				WithHint("declare draft-07, 2019-09 or 2020-12 in $schema")
		}
		return nil, usdl.Errorf(usdl.ErrUnsupportedConstruct, "", "JSON Schema %s is not supported", jdoc.Draft).
			WithHint("migrate the schema to draft-07 or later")
	}
	if ref := jschema.FindExternalRef(jdoc.Schema); ref != "" {
		return nil, usdl.Errorf(usdl.ErrUnsupportedConstruct, "", "external $ref %q is not resolved", ref).
			WithHint("bundle the referenced schema into $defs and point at it with a local $ref")
	}

	if ref := jschema.FindDanglingRef(jdoc.Schema); ref != "" {
		return nil, usdl.Errorf(usdl.ErrUnresolvedTypeReference, "", "$ref %q has no matching definition", ref).
			WithHint(fmt.Sprintf("declare %q under $defs", jschema.RefDefName(ref)))
	}

	root := newNode(jdoc.Schema, tree)
	l := &lowerer{
		doc:     &usdl.Document{Namespace: root.s.ID, Documentation: root.s.Comment},
		root:    root,
		defs:    make(map[string]node),
		named:   make(map[string]bool),
		aliases: make(map[string]*alias),
	}
	if err := l.lower(); err != nil {
		return nil, err
	}
	if len(l.doc.Types) == 0 {
		return nil, usdl.Errorf(usdl.ErrUnsupportedConstruct, "", "schema declares no object, enum, union, array or map type").
			WithHint("add properties to the root schema or declare types under $defs")
	}
	if err := usdl.Validate(l.doc); err != nil {
		return nil, err
	}
	return l.doc, nil
}

func (l *lowerer) lower() error {
	root := l.root
	defs := append(root.entries("$defs", root.s.Defs), root.entries("definitions", root.s.Definitions)...)

	var types []entry
	for _, e := range defs {
		if _, dup := l.defs[e.name]; dup {
			return usdl.Errorf(usdl.ErrUnresolvedTypeReference, e.name, "definition %q appears in both $defs and definitions", e.name).
				WithHint("keep a single definition per name")
		}
		l.defs[e.name] = e.node
		if _, ok := defKind(e.node); ok {
			l.named[e.name] = true
			types = append(types, e)
		} else {
			l.aliases[e.name] = &alias{node: e.node}
		}
	}

	if declaresType(root) {
		kind, ok := defKind(root)
		switch {
		case ok:
			l.rootName = rootName(root.s.Title)
			if l.named[l.rootName] || l.aliases[l.rootName] != nil {
				return usdl.Errorf(usdl.ErrUnresolvedTypeReference, l.rootName, "root schema and a definition are both named %q", l.rootName).
					WithHint("give the root schema a different title")
			}
			l.named[l.rootName] = true
			if err := l.declare(l.rootName, kind, root); err != nil {
				return err
			}
		case root.s.Ref == "":
			return usdl.Errorf(usdl.ErrUnsupportedConstruct, "", "the root schema describes a primitive value").
				WithHint("wrap the value in an object with properties")
		}
	}

	for _, e := range types {
		kind, _ := defKind(e.node)
		if err := l.declare(e.name, kind, e.node); err != nil {
			return err
		}
	}
	// Unreferenced aliases are still checked so that unsupported content is
	// reported rather than dropped.
	for _, e := range defs {
		if _, ok := l.aliases[e.name]; ok {
			if _, err := l.resolveAlias(e.name); err != nil {
				return err
			}
		}
	}
	return nil
}

// declare adds a named type and lowers its body.
func (l *lowerer) declare(name string, kind usdl.Kind, n node) error {
	def := &usdl.TypeDefinition{Name: name, Kind: kind}
	if err := l.doc.AddType(def); err != nil {
		return err
	}
	nullable, err := l.lowerDef(def, n, name)
	if err != nil {
		return err
	}
	if nullable {
		return usdl.Errorf(usdl.ErrUnsupportedConstruct, name, "named type %q admits null", name).
			WithHint("drop null from the definition and make the properties that reference it nullable instead")
	}
	return nil
}

// lowerDef fills def from n and reports whether n also admits null.
func (l *lowerer) lowerDef(def *usdl.TypeDefinition, n node, path string) (bool, error) {
	if err := checkSupported(n, path); err != nil {
		return false, err
	}
	def.Documentation = n.s.Description
	_, nullable := typesOf(n.s)

	switch def.Kind {
	case usdl.KindStructure:
		return nullable, l.lowerStructure(def, n, path)
	case usdl.KindEnum:
		values, enumNull, err := enumValues(n, path)
		if err != nil {
			return false, err
		}
		def.Values = values
		return nullable || enumNull, nil
	case usdl.KindUnion:
		members, unionNull, err := l.unionMembers(n, def.Name, path)
		if err != nil {
			return false, err
		}
		if len(members) < 2 {
			return false, usdl.Errorf(usdl.ErrUnsupportedConstruct, path, "union %q needs at least two non-null branches", def.Name).
				WithHint("reference the single branch directly")
		}
		def.Members = members
		return nullable || unionNull, nil
	case usdl.KindArray:
		item, err := l.arrayItems(n, def.Name, path)
		if err != nil {
			return false, err
		}
		def.Items = &item
	case usdl.KindMap:
		value, err := l.mapValues(n, def.Name, path)
		if err != nil {
			return false, err
		}
		def.Items = &value
	}
	return nullable, nil
}

func (l *lowerer) lowerStructure(def *usdl.TypeDefinition, n node, path string) error {
	props, required, err := l.collect(n, path, nil)
	if err != nil {
		return err
	}
	for _, p := range props {
		f, err := l.lowerField(p, slices.Contains(required, p.name), path)
		if err != nil {
			return err
		}
		def.Fields = append(def.Fields, f)
	}
	for _, name := range required {
		if !slices.ContainsFunc(props, func(p entry) bool { return p.name == name }) {
			return usdl.Errorf(usdl.ErrMalformedInput, usdl.JoinPath(path, name), "required property %q is not declared", name).
				WithHint("declare it under properties or remove it from required")
		}
	}
	return nil
}

// collect gathers the properties of an object schema, flattening allOf
// members (in order) ahead of the schema's own properties.
func (l *lowerer) collect(n node, path string, visiting map[string]bool) ([]entry, []string, error) {
	var (
		props    []entry
		required []string
	)
	merge := func(more []entry, req []string) error {
		for _, e := range more {
			i := slices.IndexFunc(props, func(p entry) bool { return p.name == e.name })
			if i < 0 {
				props = append(props, e)
				continue
			}
			if !udm.Equal(props[i].node.t, e.node.t) {
				return usdl.Errorf(usdl.ErrUnsupportedConstruct, usdl.JoinPath(path, e.name), "allOf members declare property %q differently", e.name).
					WithHint("declare the property once, or give every declaration identical constraints")
			}
		}
		for _, r := range req {
			if !slices.Contains(required, r) {
				required = append(required, r)
			}
		}
		return nil
	}

	for i, m := range n.list("allOf", n.s.AllOf) {
		mpath := fmt.Sprintf("%s.allOf[%d]", path, i)
		if !m.isObject() {
			return nil, nil, usdl.Errorf(usdl.ErrUnsupportedConstruct, mpath, "boolean allOf member").
				WithHint("allOf can only merge object schemas")
		}
		if err := checkSupported(m, mpath); err != nil {
			return nil, nil, err
		}
		target, next := m, visiting
		if m.s.Ref != "" {
			name, t, err := l.composed(m.s.Ref, mpath)
			if err != nil {
				return nil, nil, err
			}
			if visiting[name] {
				return nil, nil, usdl.Errorf(usdl.ErrUnsupportedConstruct, mpath, "allOf composes %q into itself", name).
					WithHint("break the allOf cycle")
			}
			next = maps.Clone(visiting)
			if next == nil {
				next = make(map[string]bool)
			}
			next[name] = true
			target = t
			if err := checkSupported(target, name); err != nil {
				return nil, nil, err
			}
		}
		if !objectLike(target) {
			return nil, nil, usdl.Errorf(usdl.ErrUnsupportedConstruct, mpath, "allOf member is not an object schema").
				WithHint("allOf can only merge object schemas")
		}
		more, req, err := l.collect(target, mpath, next)
		if err != nil {
			return nil, nil, err
		}
		if err := merge(more, req); err != nil {
			return nil, nil, err
		}
	}
	if err := merge(n.entries("properties", n.s.Properties), n.s.Required); err != nil {
		return nil, nil, err
	}
	return props, required, nil
}

// composed resolves an allOf $ref to the schema it names.
func (l *lowerer) composed(ref, path string) (string, node, error) {
	switch jschema.ClassifyRef(ref) {
	case jschema.RefRoot:
		return "#", l.root, nil
	case jschema.RefDefinition:
		name := jschema.RefDefName(ref)
		if n, ok := l.defs[name]; ok {
			return name, n, nil
		}
		return "", node{}, usdl.Errorf(usdl.ErrUnresolvedTypeReference, path, "$ref %q has no matching definition", ref).
			WithHint(fmt.Sprintf("declare %q under $defs", name))
	}
	return "", node{}, usdl.Errorf(usdl.ErrUnsupportedConstruct, path, "$ref %q is not a $defs or definitions entry", ref).
		WithHint("move the target under $defs and reference it as #/$defs/<name>")
}

func (l *lowerer) lowerField(p entry, required bool, owner string) (*usdl.Field, error) {
	path := usdl.JoinPath(owner, p.name)
	hoist := usdl.ToPascalCase(p.name)
	if p.node.s.Title != "" {
		hoist = usdl.ToPascalCase(p.node.s.Title)
	}
	res, err := l.lowerRef(p.node, hoist, path)
	if err != nil {
		return nil, err
	}
	f := &usdl.Field{
		Name:          p.name,
		Type:          res.ref,
		Optional:      !required || res.nullable,
		Documentation: p.node.s.Description,
		InlineHint:    res.hoisted,
	}
	if d := p.node.t.Get("default"); d != nil {
		f.Default = d.Clone()
	}
	num, err := fieldNumber(p.node, path)
	if err != nil {
		return nil, err
	}
	f.FieldNumber = num
	return f, nil
}

// lowerRef lowers a subschema used as a type. Inline objects and enums are
// hoisted under hoist.
func (l *lowerer) lowerRef(n node, hoist, path string) (lowered, error) {
	if !n.isObject() {
		return lowered{}, usdl.Errorf(usdl.ErrUnsupportedConstruct, path, "boolean schema accepts any value").
			WithHint("describe the value with a type")
	}
	if err := checkSupported(n, path); err != nil {
		return lowered{}, err
	}
	s := n.s
	types, nullable := typesOf(s)

	if s.Ref != "" {
		res, err := l.pointer(s.Ref, path)
		res.nullable = res.nullable || nullable
		return res, err
	}

	kind, ok := defKind(n)
	if !ok {
		if len(s.AllOf) == 1 {
			res, err := l.lowerRef(n.list("allOf", s.AllOf)[0], hoist, path)
			res.nullable = res.nullable || nullable
			return res, err
		}
		if len(types) == 0 {
			if nullable {
				return lowered{}, usdl.Errorf(usdl.ErrUnsupportedConstruct, path, "a schema that only admits null has no canonical type").
					WithHint("make the property optional instead")
			}
			return lowered{}, usdl.Errorf(usdl.ErrUnsupportedConstruct, path, "schema does not constrain the value's type").
				WithHint("add a \"type\"")
		}
		p, err := primitive(s, types[0], path)
		if err != nil {
			return lowered{}, err
		}
		return lowered{ref: usdl.PrimitiveRef(p), nullable: nullable}, nil
	}

	switch kind {
	case usdl.KindStructure, usdl.KindEnum:
		def, err := l.hoist(hoist, kind, path)
		if err != nil {
			return lowered{}, err
		}
		defNull, err := l.lowerDef(def, n, path)
		if err != nil {
			return lowered{}, err
		}
		return lowered{ref: usdl.NamedRef(def.Name), nullable: defNull, hoisted: true}, nil

	case usdl.KindUnion:
		members, unionNull, err := l.unionMembers(n, hoist, path)
		if err != nil {
			return lowered{}, err
		}
		res := lowered{nullable: nullable || unionNull}
		switch len(members) {
		case 0:
			return lowered{}, usdl.Errorf(usdl.ErrUnsupportedConstruct, path, "union has no non-null branch").
				WithHint("make the property optional instead")
		case 1:
			res.ref = members[0].Type
		default:
			res.ref = usdl.InlineRef(&usdl.TypeDefinition{Kind: usdl.KindUnion, Members: members})
		}
		return res, nil

	case usdl.KindArray:
		item, err := l.arrayItems(n, hoist, path)
		if err != nil {
			return lowered{}, err
		}
		return lowered{ref: usdl.ArrayOf(item), nullable: nullable}, nil

	default:
		value, err := l.mapValues(n, hoist, path)
		if err != nil {
			return lowered{}, err
		}
		return lowered{ref: usdl.MapOf(value), nullable: nullable}, nil
	}
}

func (l *lowerer) pointer(ref, path string) (lowered, error) {
	switch jschema.ClassifyRef(ref) {
	case jschema.RefRoot:
		if l.rootName == "" {
			return lowered{}, usdl.Errorf(usdl.ErrUnresolvedTypeReference, path, "$ref \"#\" points at the root schema, which declares no type").
				WithHint("give the root schema properties or reference a $defs entry")
		}
		return lowered{ref: usdl.NamedRef(l.rootName)}, nil
	case jschema.RefDefinition:
		name := jschema.RefDefName(ref)
		if l.named[name] {
			return lowered{ref: usdl.NamedRef(name)}, nil
		}
		if _, ok := l.aliases[name]; ok {
			return l.resolveAlias(name)
		}
		return lowered{}, usdl.Errorf(usdl.ErrUnresolvedTypeReference, path, "$ref %q has no matching definition", ref).
			WithHint(fmt.Sprintf("declare %q under $defs", name))
	}
	return lowered{}, usdl.Errorf(usdl.ErrUnsupportedConstruct, path, "$ref %q is not a $defs or definitions entry", ref).
		WithHint("move the target under $defs and reference it as #/$defs/<name>")
}

func (l *lowerer) resolveAlias(name string) (lowered, error) {
	a := l.aliases[name]
	switch {
	case a.done:
		return a.result, nil
	case a.resolving:
		return lowered{}, usdl.Errorf(usdl.ErrUnsupportedConstruct, name, "definition %q refers to itself without declaring a type", name).
			WithHint("give one definition of the cycle an object, array or union type")
	}
	a.resolving = true
	res, err := l.lowerRef(a.node, name, name)
	a.resolving = false
	if err != nil {
		return lowered{}, err
	}
	res.hoisted = false
	a.result, a.done = res, true
	return res, nil
}

// hoist declares an inline structure or enum as a top-level type.
func (l *lowerer) hoist(name string, kind usdl.Kind, path string) (*usdl.TypeDefinition, error) {
	if name == "" {
		return nil, usdl.Errorf(usdl.ErrUnsupportedConstruct, path, "cannot derive a type name for an inline %s", kind).
			WithHint("add a title or move the schema to $defs")
	}
	if l.named[name] || l.aliases[name] != nil || l.doc.Lookup(name) != nil {
		return nil, usdl.Errorf(usdl.ErrUnresolvedTypeReference, path, "inline %s %q collides with another type of the same name", kind, name).
			WithHint("move one of the schemas to $defs under a distinct name")
	}
	def := &usdl.TypeDefinition{Name: name, Kind: kind}
	if err := l.doc.AddType(def); err != nil {
		return nil, err
	}
	return def, nil
}

// unionMembers lowers oneOf/anyOf branches, or the entries of a multi-valued
// "type", reporting null branches separately.
func (l *lowerer) unionMembers(n node, hoist, path string) ([]usdl.UnionMember, bool, error) {
	s := n.s
	_, nullable := typesOf(s)
	branches := n.list("oneOf", s.OneOf)
	if len(branches) == 0 {
		branches = n.list("anyOf", s.AnyOf)
	}

	var members []usdl.UnionMember
	if len(branches) == 0 {
		types, _ := typesOf(s)
		for _, typ := range types {
			p, err := primitive(s, typ, path)
			if err != nil {
				return nil, false, err
			}
			members = append(members, usdl.UnionMember{Type: usdl.PrimitiveRef(p)})
		}
		return members, nullable, nil
	}

	for i, b := range branches {
		bpath := fmt.Sprintf("%s[%d]", path, i)
		if isNullSchema(b) {
			nullable = true
			continue
		}
		name := hoist + "Option" + strconv.Itoa(i+1)
		if b.s.Title != "" {
			name = usdl.ToPascalCase(b.s.Title)
		}
		res, err := l.lowerRef(b, name, bpath)
		if err != nil {
			return nil, false, err
		}
		nullable = nullable || res.nullable
		num, err := fieldNumber(b, bpath)
		if err != nil {
			return nil, false, err
		}
		members = append(members, usdl.UnionMember{Type: res.ref, Name: b.s.Title, FieldNumber: num})
	}
	return members, nullable, nil
}

func (l *lowerer) arrayItems(n node, hoist, path string) (usdl.TypeRef, error) {
	if !n.t.Has("items") {
		return usdl.TypeRef{}, usdl.Errorf(usdl.ErrUnsupportedConstruct, path, "array has no \"items\" schema").
			WithHint("declare the element type with items")
	}
	res, err := l.lowerRef(n.child("items", n.s.Items), hoist+"Item", path+"[]")
	if err != nil {
		return usdl.TypeRef{}, err
	}
	if res.nullable {
		return usdl.TypeRef{}, usdl.Errorf(usdl.ErrUnsupportedConstruct, path+"[]", "nullable array items have no canonical form").
			WithHint("remove null from the item schema")
	}
	return res.ref, nil
}

func (l *lowerer) mapValues(n node, hoist, path string) (usdl.TypeRef, error) {
	res, err := l.lowerRef(n.child("additionalProperties", n.s.AdditionalProperties), hoist+"Value", path+"[]")
	if err != nil {
		return usdl.TypeRef{}, err
	}
	if res.nullable {
		return usdl.TypeRef{}, usdl.Errorf(usdl.ErrUnsupportedConstruct, path+"[]", "nullable map values have no canonical form").
			WithHint("remove null from the additionalProperties schema")
	}
	return res.ref, nil
}

func enumValues(n node, path string) ([]usdl.EnumValue, bool, error) {
	var (
		values   []usdl.EnumValue
		nullable bool
	)
	for _, it := range n.t.Get("enum").Items {
		switch it.Kind {
		case udm.NullKind:
			nullable = true
		case udm.StringKind:
			values = append(values, usdl.EnumValue{Name: it.String, Ordinal: len(values)})
		default:
			return nil, false, usdl.Errorf(usdl.ErrUnsupportedConstruct, path, "enum values must be strings, found a %s", it.Kind).
				WithHint("only string enumerations map to canonical enums")
		}
	}
	if len(values) == 0 {
		return nil, false, usdl.Errorf(usdl.ErrUnsupportedConstruct, path, "enum has no string values")
	}
	if ords := n.t.Get(keyEnumOrdinals); ords != nil {
		if ords.Kind != udm.ArrayKind || len(ords.Items) != len(values) {
			return nil, false, usdl.Errorf(usdl.ErrMalformedInput, path, "%s must list one integer per enum value", keyEnumOrdinals)
		}
		for i, o := range ords.Items {
			v, ok := o.Int64()
			if !ok {
				return nil, false, usdl.Errorf(usdl.ErrMalformedInput, path, "%s must list one integer per enum value", keyEnumOrdinals)
			}
			values[i].Ordinal = int(v)
		}
	}
	return values, nullable, nil
}

func primitive(s *jschema.Schema, typ, path string) (usdl.Primitive, error) {
	switch typ {
	case "string", "integer", "number", "boolean":
	case "object", "array":
		return "", usdl.Errorf(usdl.ErrUnsupportedConstruct, path, "type %q cannot be mixed with other types in one schema", typ).
			WithHint("use oneOf with one branch per type")
	default:
		return "", usdl.Errorf(usdl.ErrMalformedInput, path, "unknown type %q", typ)
	}
	qualifier := s.Format
	if qualifier == "" {
		qualifier = s.ContentEncoding
	}
	spelled := typ
	if qualifier != "" {
		spelled += ":" + qualifier
	}
	p, _ := usdl.CanonicalPrimitive(usdl.JSONSchema, spelled)
	return p, nil
}

func fieldNumber(n node, path string) (int, error) {
	v := n.t.Get(keyFieldNumber)
	if v == nil {
		return 0, nil
	}
	num, ok := v.Int64()
	if !ok {
		return 0, usdl.Errorf(usdl.ErrMalformedInput, path, "%s must be an integer", keyFieldNumber)
	}
	return int(num), nil
}

// defKind classifies a schema that declares a canonical type. It returns
// false for primitives and pure references.
func defKind(n node) (usdl.Kind, bool) {
	if !n.isObject() {
		return "", false
	}
	s := n.s
	switch {
	case s.Ref != "":
		return "", false
	case len(s.AllOf) == 1 && len(s.Properties) == 0 && s.AllOf[0].Ref != "":
		return "", false
	case len(s.AllOf) > 0:
		return usdl.KindStructure, true
	case len(s.OneOf) > 0 || len(s.AnyOf) > 0:
		return usdl.KindUnion, true
	case len(s.Enum) > 0:
		return usdl.KindEnum, true
	}

	types, _ := typesOf(s)
	if len(types) > 1 {
		return usdl.KindUnion, true
	}
	var typ string
	if len(types) == 1 {
		typ = types[0]
	}
	switch typ {
	case "object":
		if isMap(n) {
			return usdl.KindMap, true
		}
		return usdl.KindStructure, true
	case "array":
		return usdl.KindArray, true
	case "":
		if n.t.Has("properties") {
			return usdl.KindStructure, true
		}
		if isMap(n) {
			return usdl.KindMap, true
		}
	}
	return "", false
}

// isMap reports an object schema without properties whose additional
// properties share one schema.
func isMap(n node) bool {
	ap := n.t.Get("additionalProperties")
	return ap != nil && ap.Kind == udm.ObjectKind && !n.t.Has("properties")
}

func objectLike(n node) bool {
	if !n.isObject() {
		return false
	}
	types, _ := typesOf(n.s)
	if len(types) > 1 || (len(types) == 1 && types[0] != "object") {
		return false
	}
	return len(n.s.Enum) == 0 && len(n.s.OneOf) == 0 && len(n.s.AnyOf) == 0 && !isMap(n)
}

func isNullSchema(n node) bool {
	if !n.isObject() || n.s.Ref != "" {
		return false
	}
	types, nullable := typesOf(n.s)
	return nullable && len(types) == 0
}

// typesOf splits "type" into its non-null entries and whether null is allowed.
func typesOf(s *jschema.Schema) ([]string, bool) {
	all := s.Types
	if s.Type != "" {
		all = []string{s.Type}
	}
	var (
		types    []string
		nullable bool
	)
	for _, t := range all {
		if t == "null" {
			nullable = true
			continue
		}
		types = append(types, t)
	}
	return types, nullable
}

// declaresType reports whether the root schema is itself a type rather than
// a bare container of $defs.
func declaresType(n node) bool {
	for _, k := range []string{"type", "properties", "allOf", "anyOf", "oneOf", "enum", "items", "additionalProperties", "$ref"} {
		if n.t.Has(k) {
			return true
		}
	}
	return false
}

func rootName(title string) string {
	if name := usdl.ToPascalCase(title); name != "" {
		return name
	}
	return "Root"
}

func checkSupported(n node, path string) error {
	for _, k := range unsupportedKeywords {
		if n.t.Has(k) {
			return usdl.Errorf(usdl.ErrUnsupportedConstruct, path, "keyword %q has no canonical mapping", k).
				WithHint("remove it, or express the constraint with properties, enum or oneOf")
		}
	}
	if n.t.Has("oneOf") && n.t.Has("anyOf") {
		return usdl.Errorf(usdl.ErrUnsupportedConstruct, path, "oneOf and anyOf in one schema").
			WithHint("keep a single list of alternatives")
	}
	return nil
}

// findTupleItems returns the location of the first array-valued "items", or
// "". Literal values (defaults, examples, enums) are not searched.
func findTupleItems(v *udm.Value, path string) string {
	switch v.Kind {
	case udm.ObjectKind:
		for i, k := range v.Keys {
			child := v.Values[i]
			p := path + "/" + k
			switch k {
			case "items":
				if child.Kind == udm.ArrayKind {
					return p
				}
			case "default", "examples", "enum", "const":
				continue
			}
			if found := findTupleItems(child, p); found != "" {
				return found
			}
		}
	case udm.ArrayKind:
		for i, it := range v.Items {
			if found := findTupleItems(it, path+"/"+strconv.Itoa(i)); found != "" {
				return found
			}
		}
	}
	return ""
}
