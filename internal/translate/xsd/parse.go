// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Daco Labs

package xsd

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/beevik/etree"

	"github.com/dacolabs/usdl/internal/udm"
	"github.com/dacolabs/usdl/internal/usdl"
)

type simpleKind uint8

const (
	simpleAlias simpleKind = iota
	simpleEnum
	simpleList
	simpleUnion
)

const (
	pending = iota
	filling
	filled
)

type alias struct {
	resolving bool
	done      bool
	ref       usdl.TypeRef
}

// lowerer declares every global type before lowering any body, so that
// references resolve regardless of declaration order. Anonymous complex types
// and enumerations are hoisted as they are met, after the globals.
type lowerer struct {
	doc *usdl.Document
	tns string

	complexTypes map[string]*etree.Element
	simpleTypes  map[string]*etree.Element
	elements     map[string]*etree.Element
	globals      []*etree.Element

	simpleKinds map[string]simpleKind
	state       map[string]int
	// restriction-only simple types resolve to their base
	aliases map[string]*alias
	// global elements reached through ref=
	elementTypes map[string]usdl.TypeRef
}

// Parse lowers an XML Schema document into the canonical model.
func (t *Translator) Parse(src []byte) (*usdl.Document, error) {
	x := etree.NewDocument()
	if err := x.ReadFromBytes(src); err != nil {
		return nil, usdl.Errorf(usdl.ErrMalformedInput, "", "invalid XML").WithCause(err)
	}
	root := x.Root()
	if root == nil || root.Tag != "schema" || !isXSD(root) {
		return nil, usdl.Errorf(usdl.ErrMalformedInput, "", "document element is not xs:schema").
			WithHint(`the root element must be <xs:schema xmlns:xs="` + XMLSchemaNamespace + `">`)
	}

	l := &lowerer{
		doc:          &usdl.Document{Namespace: root.SelectAttrValue("targetNamespace", ""), Documentation: documentation(root)},
		complexTypes: make(map[string]*etree.Element),
		simpleTypes:  make(map[string]*etree.Element),
		elements:     make(map[string]*etree.Element),
		simpleKinds:  make(map[string]simpleKind),
		state:        make(map[string]int),
		aliases:      make(map[string]*alias),
		elementTypes: make(map[string]usdl.TypeRef),
	}
	l.tns = l.doc.Namespace

	if err := l.index(root); err != nil {
		return nil, err
	}
	if err := l.declare(); err != nil {
		return nil, err
	}
	if err := l.fill(); err != nil {
		return nil, err
	}

	if len(l.doc.Types) == 0 {
		return nil, usdl.Errorf(usdl.ErrUnsupportedConstruct, "", "schema declares no complex type, enumeration, list or union").
			WithHint("declare at least one complex type or an element with an anonymous complex type")
	}
	if err := usdl.Validate(l.doc); err != nil {
		return nil, err
	}
	return l.doc, nil
}

func (l *lowerer) index(root *etree.Element) error {
	for _, c := range children(root) {
		var table map[string]*etree.Element
		switch c.Tag {
		case "complexType":
			table = l.complexTypes
		case "simpleType":
			table = l.simpleTypes
		case "element":
			table = l.elements
		case "import", "include", "redefine", "override":
			return usdl.Errorf(usdl.ErrUnsupportedConstruct, "", "xs:%s pulls in another schema document", c.Tag).
				WithHint("inline the referenced definitions; external schemas are not resolved")
		case "annotation", "group", "attributeGroup", "attribute", "notation":
			// only reachable through references, which are rejected where they occur
			continue
		default:
			return usdl.Errorf(usdl.ErrMalformedInput, "", "unexpected xs:%s at schema level", c.Tag)
		}

		name := c.SelectAttrValue("name", "")
		if name == "" {
			return usdl.Errorf(usdl.ErrMalformedInput, "", "global xs:%s has no name", c.Tag)
		}
		_, dup := table[name]
		if c.Tag != "element" {
			dup = dup || l.complexTypes[name] != nil || l.simpleTypes[name] != nil
		}
		if dup {
			return usdl.Errorf(usdl.ErrUnresolvedTypeReference, name, "xs:%s %q is declared more than once", c.Tag, name)
		}
		table[name] = c
		l.globals = append(l.globals, c)
	}
	return nil
}

func (l *lowerer) declare() error {
	for _, c := range l.globals {
		name := c.SelectAttrValue("name", "")
		var kind usdl.Kind
		switch c.Tag {
		case "complexType":
			kind = usdl.KindStructure
		case "simpleType":
			sk, err := simpleKindOf(c, name)
			if err != nil {
				return err
			}
			l.simpleKinds[name] = sk
			switch sk {
			case simpleEnum:
				kind = usdl.KindEnum
			case simpleList:
				kind = usdl.KindArray
			case simpleUnion:
				kind = usdl.KindUnion
			default:
				continue
			}
		case "element":
			if !rootDoll(c) {
				continue
			}
			if err := l.doc.AddType(&usdl.TypeDefinition{Name: name, Kind: usdl.KindStructure, InlineHint: true}); err != nil {
				return err
			}
			continue
		}
		if err := l.doc.AddType(&usdl.TypeDefinition{Name: name, Kind: kind}); err != nil {
			return err
		}
	}
	return nil
}

// rootDoll reports a global element declaring its complex type anonymously.
func rootDoll(el *etree.Element) bool {
	return el.SelectAttrValue("type", "") == "" && child(el, "complexType") != nil
}

func (l *lowerer) fill() error {
	for _, c := range l.globals {
		name := c.SelectAttrValue("name", "")
		var err error
		switch c.Tag {
		case "complexType":
			err = l.fillComplex(name)
		case "simpleType":
			if l.simpleKinds[name] == simpleAlias {
				_, err = l.globalSimple(name, name)
			} else {
				err = l.fillSimple(l.doc.Lookup(name), c)
			}
		case "element":
			switch {
			case rootDoll(c):
				def := l.doc.Lookup(name)
				ct := child(c, "complexType")
				def.Documentation = documentation(ct)
				if def.Documentation == "" {
					def.Documentation = documentation(c)
				}
				err = l.content(ct, def, name)
			case c.SelectAttrValue("type", "") != "":
				_, err = l.qnameType(c, c.SelectAttrValue("type", ""), name)
			}
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (l *lowerer) fillComplex(name string) error {
	switch l.state[name] {
	case filled:
		return nil
	case filling:
		return usdl.Errorf(usdl.ErrUnsupportedConstruct, name, "complex type %s extends itself", name)
	}
	l.state[name] = filling
	def := l.doc.Lookup(name)
	ct := l.complexTypes[name]
	def.Documentation = documentation(ct)
	if err := l.content(ct, def, name); err != nil {
		return err
	}
	l.state[name] = filled
	return nil
}

// content lowers the children of a complex type or of a content extension
// into fields of def.
func (l *lowerer) content(el *etree.Element, def *usdl.TypeDefinition, path string) error {
	if el.SelectAttrValue("mixed", "") == "true" {
		return usdl.Errorf(usdl.ErrUnsupportedConstruct, path, "mixed content has no canonical equivalent").
			WithHint("move the text into an element or a simple content extension")
	}
	for _, c := range children(el) {
		var err error
		switch c.Tag {
		case "annotation":
		case "sequence", "all", "choice":
			err = l.particles(c, def, path)
		case "attribute":
			err = l.attribute(c, def, path)
		case "complexContent":
			err = l.complexContent(c, def, path)
		case "simpleContent":
			err = l.simpleContent(c, def, path)
		case "group", "attributeGroup":
			err = usdl.Errorf(usdl.ErrUnsupportedConstruct, path, "xs:%s references are not supported", c.Tag).
				WithHint("inline the group's declarations")
		case "anyAttribute":
			err = usdl.Errorf(usdl.ErrUnsupportedConstruct, path, "xs:anyAttribute wildcards have no canonical equivalent").
				WithHint("declare the allowed attributes explicitly")
		default:
			err = usdl.Errorf(usdl.ErrMalformedInput, path, "unexpected xs:%s in xs:%s", c.Tag, el.Tag)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (l *lowerer) complexContent(cc *etree.Element, def *usdl.TypeDefinition, path string) error {
	if cc.SelectAttrValue("mixed", "") == "true" {
		return usdl.Errorf(usdl.ErrUnsupportedConstruct, path, "mixed content has no canonical equivalent")
	}
	ext := child(cc, "extension")
	if ext == nil {
		return usdl.Errorf(usdl.ErrUnsupportedConstruct, path, "complex content restriction has no canonical equivalent").
			WithHint("declare the restricted fields in a new complex type")
	}
	ns, base := resolveQName(ext, ext.SelectAttrValue("base", ""))
	switch {
	case ns == XMLSchemaNamespace && base == "anyType":
	case ns == l.tns && l.complexTypes[base] != nil:
		if err := l.fillComplex(base); err != nil {
			return err
		}
		for _, f := range l.doc.Lookup(base).Fields {
			inherited := *f
			inherited.InlineHint = false
			def.Fields = append(def.Fields, &inherited)
		}
	default:
		return usdl.Errorf(usdl.ErrUnresolvedTypeReference, path, "extension base %s is not a complex type of this schema", base)
	}
	return l.content(ext, def, path)
}

func (l *lowerer) simpleContent(sc *etree.Element, def *usdl.TypeDefinition, path string) error {
	ext := child(sc, "extension")
	if ext == nil {
		return usdl.Errorf(usdl.ErrUnsupportedConstruct, path, "simple content restriction has no canonical equivalent").
			WithHint("extend the simple type instead")
	}
	ref, err := l.qnameType(ext, ext.SelectAttrValue("base", ""), path)
	if err != nil {
		return err
	}
	if t := l.doc.Resolve(ref); t != nil && t.Kind == usdl.KindStructure {
		return usdl.Errorf(usdl.ErrUnsupportedConstruct, path, "simple content extends complex type %s", t.Name)
	}
	def.Fields = append(def.Fields, &usdl.Field{Name: "value", Type: ref})
	return l.content(ext, def, path)
}

func (l *lowerer) particles(group *etree.Element, def *usdl.TypeDefinition, path string) error {
	if group.Tag == "choice" {
		f, err := l.choice(group, def, path)
		if err != nil {
			return err
		}
		def.Fields = append(def.Fields, f)
		return nil
	}

	lo, hi, err := occurs(group, path)
	if err != nil {
		return err
	}
	if lo != 1 || hi != 1 {
		return usdl.Errorf(usdl.ErrUnsupportedConstruct, path, "optional or repeated xs:%s groups have no canonical equivalent", group.Tag).
			WithHint("move minOccurs and maxOccurs onto the elements")
	}
	for _, c := range children(group) {
		switch c.Tag {
		case "annotation":
		case "element":
			f, err := l.element(c, path)
			if err != nil {
				return err
			}
			def.Fields = append(def.Fields, f)
		case "sequence", "choice":
			if err := l.particles(c, def, path); err != nil {
				return err
			}
		case "any":
			return usdl.Errorf(usdl.ErrUnsupportedConstruct, path, "xs:any wildcards have no canonical equivalent").
				WithHint("declare the allowed elements explicitly")
		case "group":
			return usdl.Errorf(usdl.ErrUnsupportedConstruct, path, "xs:group references are not supported").
				WithHint("inline the group's particles")
		default:
			return usdl.Errorf(usdl.ErrMalformedInput, path, "unexpected xs:%s in xs:%s", c.Tag, group.Tag)
		}
	}
	return nil
}

// choice lowers an xs:choice to a union field whose members are named after
// the alternative elements. The field takes the choice's id, or "choice".
func (l *lowerer) choice(ch *etree.Element, def *usdl.TypeDefinition, path string) (*usdl.Field, error) {
	name := ch.SelectAttrValue("id", "")
	if name == "" {
		name = "choice"
		for i := 2; def.Field(name) != nil; i++ {
			name = fmt.Sprintf("choice%d", i)
		}
	}
	fp := usdl.JoinPath(path, name)
	lo, hi, err := occurs(ch, fp)
	if err != nil {
		return nil, err
	}

	var branches []*usdl.Field
	for _, c := range children(ch) {
		switch c.Tag {
		case "annotation":
		case "element":
			f, err := l.element(c, fp)
			if err != nil {
				return nil, err
			}
			if f.Optional {
				return nil, usdl.Errorf(usdl.ErrUnsupportedConstruct, usdl.JoinPath(fp, f.Name), "optional choice branches have no canonical equivalent").
					WithHint("put minOccurs=\"0\" on the xs:choice instead")
			}
			branches = append(branches, f)
		default:
			return nil, usdl.Errorf(usdl.ErrUnsupportedConstruct, fp, "xs:%s inside xs:choice is not supported", c.Tag).
				WithHint("give every alternative its own element")
		}
	}

	var f *usdl.Field
	switch len(branches) {
	case 0:
		return nil, usdl.Errorf(usdl.ErrMalformedInput, fp, "xs:choice has no alternatives")
	case 1:
		f = branches[0]
	default:
		u := &usdl.TypeDefinition{Kind: usdl.KindUnion}
		for _, b := range branches {
			u.Members = append(u.Members, usdl.UnionMember{Type: b.Type, Name: b.Name, InlineHint: b.InlineHint})
		}
		f = &usdl.Field{Name: name, Type: usdl.InlineRef(u), InlineHint: true, Documentation: documentation(ch)}
	}
	f.Optional = f.Optional || lo == 0
	if hi == unbounded || hi > 1 {
		f.Type = usdl.ArrayOf(f.Type)
	}
	return f, nil
}

func (l *lowerer) element(el *etree.Element, path string) (*usdl.Field, error) {
	var (
		name   string
		ref    usdl.TypeRef
		hinted bool
		err    error
		doc    = documentation(el)
	)
	if r := el.SelectAttrValue("ref", ""); r != "" {
		ns, local := resolveQName(el, r)
		global := l.elements[local]
		if ns != l.tns || global == nil {
			return nil, usdl.Errorf(usdl.ErrUnresolvedTypeReference, path, "element %s is not declared in this schema", r).
				WithHint("declare the element globally in this schema")
		}
		name = local
		if ref, err = l.globalElementType(global); err != nil {
			return nil, err
		}
		if doc == "" {
			doc = documentation(global)
		}
	} else {
		if name = el.SelectAttrValue("name", ""); name == "" {
			return nil, usdl.Errorf(usdl.ErrMalformedInput, path, "xs:element has neither name nor ref")
		}
		if ref, hinted, err = l.declaredType(el, usdl.JoinPath(path, name), usdl.ToPascalCase(name)); err != nil {
			return nil, err
		}
	}

	fp := usdl.JoinPath(path, name)
	lo, hi, err := occurs(el, fp)
	if err != nil {
		return nil, err
	}
	if el.SelectAttr("fixed") != nil {
		return nil, usdl.Errorf(usdl.ErrUnsupportedConstruct, fp, "fixed values have no canonical equivalent").
			WithHint("use default instead of fixed")
	}
	f := &usdl.Field{
		Name:          name,
		Type:          ref,
		Optional:      lo == 0 || el.SelectAttrValue("nillable", "") == "true",
		Documentation: doc,
		InlineHint:    hinted,
	}
	if hi == unbounded || hi > 1 {
		f.Type = usdl.ArrayOf(ref)
	}
	if d := el.SelectAttr("default"); d != nil {
		if f.Type.IsInlineKind(usdl.KindArray) {
			return nil, usdl.Errorf(usdl.ErrUnsupportedConstruct, fp, "defaults on repeated elements have no canonical equivalent")
		}
		if f.Default, err = defaultValue(ref, d.Value, fp); err != nil {
			return nil, err
		}
	}
	return f, nil
}

func (l *lowerer) globalElementType(el *etree.Element) (usdl.TypeRef, error) {
	name := el.SelectAttrValue("name", "")
	if ref, ok := l.elementTypes[name]; ok {
		return ref, nil
	}
	var ref usdl.TypeRef
	if rootDoll(el) {
		ref = usdl.NamedRef(name)
	} else {
		var err error
		if ref, _, err = l.declaredType(el, name, usdl.ToPascalCase(name)); err != nil {
			return ref, err
		}
	}
	l.elementTypes[name] = ref
	return ref, nil
}

// declaredType resolves the type attribute or the anonymous type of an
// element. Anonymous complex types and enumerations hoist under hoist.
func (l *lowerer) declaredType(el *etree.Element, path, hoist string) (usdl.TypeRef, bool, error) {
	typ := el.SelectAttrValue("type", "")
	ct, st := child(el, "complexType"), child(el, "simpleType")
	switch {
	case typ != "" && (ct != nil || st != nil):
		return usdl.TypeRef{}, false, usdl.Errorf(usdl.ErrMalformedInput, path, "element has both a type attribute and an anonymous type")
	case typ != "":
		ref, err := l.qnameType(el, typ, path)
		return ref, false, err
	case ct != nil:
		def := &usdl.TypeDefinition{Name: hoist, Kind: usdl.KindStructure, Documentation: documentation(ct)}
		if err := l.hoist(def, path); err != nil {
			return usdl.TypeRef{}, false, err
		}
		if err := l.content(ct, def, hoist); err != nil {
			return usdl.TypeRef{}, false, err
		}
		return usdl.NamedRef(hoist), true, nil
	case st != nil:
		return l.anonymousSimple(st, path, hoist)
	}
	return usdl.TypeRef{}, false, usdl.Errorf(usdl.ErrUnsupportedConstruct, path, "element has no type").
		WithHint("declare a type; xs:anyType has no canonical equivalent")
}

func (l *lowerer) hoist(def *usdl.TypeDefinition, path string) error {
	if def.Name == "" {
		return usdl.Errorf(usdl.ErrUnsupportedConstruct, path, "cannot derive a type name for the anonymous type").
			WithHint("give the anonymous type a global name")
	}
	if l.doc.Lookup(def.Name) != nil || l.simpleTypes[def.Name] != nil {
		return usdl.Errorf(usdl.ErrUnresolvedTypeReference, path, "anonymous type hoists to %q, which is already defined", def.Name).
			WithHint("rename the element or declare its type globally under another name")
	}
	return l.doc.AddType(def)
}

func (l *lowerer) qnameType(el *etree.Element, qname, path string) (usdl.TypeRef, error) {
	ns, local := resolveQName(el, qname)
	if ns == XMLSchemaNamespace {
		p, ok := usdl.CanonicalPrimitive(usdl.XSD, local)
		if !ok {
			return usdl.TypeRef{}, usdl.Errorf(usdl.ErrUnsupportedConstruct, path, "built-in type xs:%s has no canonical equivalent", local)
		}
		return usdl.PrimitiveRef(p), nil
	}
	if ns != l.tns {
		return usdl.TypeRef{}, usdl.Errorf(usdl.ErrUnresolvedTypeReference, path, "type %s belongs to namespace %q, not the target namespace", qname, ns).
			WithHint("imported schemas are not resolved; declare the type in this schema")
	}
	switch {
	case l.complexTypes[local] != nil:
		return usdl.NamedRef(local), nil
	case l.simpleTypes[local] != nil:
		return l.globalSimple(local, path)
	}
	return usdl.TypeRef{}, usdl.Errorf(usdl.ErrUnresolvedTypeReference, path, "type %s is not declared", qname).
		WithHint(fmt.Sprintf("declare a complex or simple type named %q", local))
}

func (l *lowerer) globalSimple(name, path string) (usdl.TypeRef, error) {
	if l.simpleKinds[name] != simpleAlias {
		return usdl.NamedRef(name), nil
	}
	a := l.aliases[name]
	if a == nil {
		a = &alias{}
		l.aliases[name] = a
	}
	switch {
	case a.done:
		return a.ref, nil
	case a.resolving:
		return usdl.TypeRef{}, usdl.Errorf(usdl.ErrUnsupportedConstruct, path, "simple type %s restricts itself", name)
	}
	a.resolving = true
	ref, _, err := l.anonymousSimple(l.simpleTypes[name], path, name)
	if err != nil {
		return ref, err
	}
	a.done, a.ref = true, ref
	return ref, nil
}

func simpleKindOf(st *etree.Element, path string) (simpleKind, error) {
	switch {
	case child(st, "restriction") != nil:
		if child(child(st, "restriction"), "enumeration") != nil {
			return simpleEnum, nil
		}
		return simpleAlias, nil
	case child(st, "list") != nil:
		return simpleList, nil
	case child(st, "union") != nil:
		return simpleUnion, nil
	}
	return 0, usdl.Errorf(usdl.ErrMalformedInput, path, "xs:simpleType has no restriction, list or union")
}

// anonymousSimple lowers a simple type declared in place. Enumerations hoist
// under hoist and report true; restrictions resolve to their base.
func (l *lowerer) anonymousSimple(st *etree.Element, path, hoist string) (usdl.TypeRef, bool, error) {
	kind, err := simpleKindOf(st, path)
	if err != nil {
		return usdl.TypeRef{}, false, err
	}
	switch kind {
	case simpleEnum:
		def := &usdl.TypeDefinition{Name: hoist, Kind: usdl.KindEnum, Documentation: documentation(st)}
		if err := l.hoist(def, path); err != nil {
			return usdl.TypeRef{}, false, err
		}
		l.enumValues(def, child(st, "restriction"))
		return usdl.NamedRef(hoist), true, nil
	case simpleList:
		item, err := l.listItem(child(st, "list"), path, hoist)
		return usdl.ArrayOf(item), false, err
	case simpleUnion:
		members, err := l.unionMembers(child(st, "union"), path, hoist)
		if err != nil {
			return usdl.TypeRef{}, false, err
		}
		if len(members) == 1 {
			return members[0].Type, false, nil
		}
		return usdl.InlineRef(&usdl.TypeDefinition{Kind: usdl.KindUnion, Members: members}), false, nil
	}

	r := child(st, "restriction")
	if base := r.SelectAttrValue("base", ""); base != "" {
		ref, err := l.qnameType(r, base, path)
		return ref, false, err
	}
	if inner := child(r, "simpleType"); inner != nil {
		ref, _, err := l.anonymousSimple(inner, path, hoist)
		return ref, false, err
	}
	return usdl.TypeRef{}, false, usdl.Errorf(usdl.ErrMalformedInput, path, "xs:restriction has no base type")
}

func (l *lowerer) fillSimple(def *usdl.TypeDefinition, st *etree.Element) error {
	def.Documentation = documentation(st)
	switch def.Kind {
	case usdl.KindEnum:
		l.enumValues(def, child(st, "restriction"))
	case usdl.KindArray:
		item, err := l.listItem(child(st, "list"), def.Name, def.Name)
		if err != nil {
			return err
		}
		def.Items = &item
	case usdl.KindUnion:
		members, err := l.unionMembers(child(st, "union"), def.Name, def.Name)
		if err != nil {
			return err
		}
		if len(members) < 2 {
			return usdl.Errorf(usdl.ErrUnsupportedConstruct, def.Name, "union has a single member type").
				WithHint("restrict the member type directly instead of wrapping it in a union")
		}
		def.Members = members
	}
	return nil
}

// enumValues numbers enumerations by position.
func (l *lowerer) enumValues(def *usdl.TypeDefinition, r *etree.Element) {
	for _, e := range children(r) {
		if e.Tag != "enumeration" {
			continue
		}
		def.Values = append(def.Values, usdl.EnumValue{
			Name:          e.SelectAttrValue("value", ""),
			Ordinal:       len(def.Values),
			Documentation: documentation(e),
		})
	}
}

func (l *lowerer) listItem(list *etree.Element, path, hoist string) (usdl.TypeRef, error) {
	if it := list.SelectAttrValue("itemType", ""); it != "" {
		return l.qnameType(list, it, path)
	}
	if st := child(list, "simpleType"); st != nil {
		ref, _, err := l.anonymousSimple(st, path, hoist+"Item")
		return ref, err
	}
	return usdl.TypeRef{}, usdl.Errorf(usdl.ErrMalformedInput, path, "xs:list has no item type")
}

func (l *lowerer) unionMembers(u *etree.Element, path, hoist string) ([]usdl.UnionMember, error) {
	var members []usdl.UnionMember
	for _, q := range strings.Fields(u.SelectAttrValue("memberTypes", "")) {
		ref, err := l.qnameType(u, q, path)
		if err != nil {
			return nil, err
		}
		members = append(members, usdl.UnionMember{Type: ref})
	}
	for _, st := range children(u) {
		if st.Tag != "simpleType" {
			continue
		}
		ref, _, err := l.anonymousSimple(st, path, fmt.Sprintf("%sOption%d", hoist, len(members)+1))
		if err != nil {
			return nil, err
		}
		members = append(members, usdl.UnionMember{Type: ref})
	}
	if len(members) == 0 {
		return nil, usdl.Errorf(usdl.ErrMalformedInput, path, "xs:union has no member types")
	}
	return members, nil
}

func (l *lowerer) attribute(at *etree.Element, def *usdl.TypeDefinition, path string) error {
	if at.SelectAttrValue("ref", "") != "" {
		return usdl.Errorf(usdl.ErrUnsupportedConstruct, path, "attribute references are not supported").
			WithHint("declare the attribute locally")
	}
	name := at.SelectAttrValue("name", "")
	if name == "" {
		return usdl.Errorf(usdl.ErrMalformedInput, path, "xs:attribute has neither name nor ref")
	}
	fp := usdl.JoinPath(path, name)

	var (
		ref    usdl.TypeRef
		hinted bool
		err    error
	)
	typ, st := at.SelectAttrValue("type", ""), child(at, "simpleType")
	switch {
	case typ != "" && st != nil:
		return usdl.Errorf(usdl.ErrMalformedInput, fp, "attribute has both a type attribute and an anonymous type")
	case typ != "":
		if ref, err = l.qnameType(at, typ, fp); err != nil {
			return err
		}
		if t := l.doc.Resolve(ref); t != nil && t.Kind == usdl.KindStructure {
			return usdl.Errorf(usdl.ErrMalformedInput, fp, "attribute type %s is not a simple type", typ)
		}
	case st != nil:
		if ref, hinted, err = l.anonymousSimple(st, fp, usdl.ToPascalCase(name)); err != nil {
			return err
		}
	default:
		return usdl.Errorf(usdl.ErrUnsupportedConstruct, fp, "attribute has no type").
			WithHint("declare a simple type; xs:anySimpleType has no canonical equivalent")
	}

	f := &usdl.Field{Name: name, Type: ref, Documentation: documentation(at), InlineHint: hinted, Attribute: true}
	switch use := at.SelectAttrValue("use", "optional"); use {
	case "optional":
		f.Optional = true
	case "required":
	case "prohibited":
		return usdl.Errorf(usdl.ErrUnsupportedConstruct, fp, "prohibited attributes have no canonical equivalent").
			WithHint("remove the attribute declaration")
	default:
		return usdl.Errorf(usdl.ErrMalformedInput, fp, "invalid use %q", use)
	}
	if at.SelectAttr("fixed") != nil {
		return usdl.Errorf(usdl.ErrUnsupportedConstruct, fp, "fixed values have no canonical equivalent").
			WithHint("use default instead of fixed")
	}
	if d := at.SelectAttr("default"); d != nil {
		if f.Default, err = defaultValue(ref, d.Value, fp); err != nil {
			return err
		}
	}
	def.Fields = append(def.Fields, f)
	return nil
}

// defaultValue types a default attribute by the primitive it belongs to.
func defaultValue(ref usdl.TypeRef, text, path string) (*udm.Value, error) {
	if ref.RefKind() != usdl.RefPrimitive {
		return udm.String(text), nil
	}
	trimmed := strings.TrimSpace(text)
	switch ref.Primitive {
	case usdl.Boolean:
		switch trimmed {
		case "true", "1":
			return udm.Bool(true), nil
		case "false", "0":
			return udm.Bool(false), nil
		}
	case usdl.Int32, usdl.Int64:
		if n, err := strconv.ParseInt(trimmed, 10, 64); err == nil {
			return udm.Int(n), nil
		}
	case usdl.Float32, usdl.Float64:
		f, err := strconv.ParseFloat(trimmed, 64)
		if err == nil && (math.IsInf(f, 0) || math.IsNaN(f)) {
			return nil, usdl.Errorf(usdl.ErrUnsupportedConstruct, path, "default %q is not a finite number", text)
		}
		if err == nil {
			return udm.Float(f), nil
		}
	default:
		return udm.String(text), nil
	}
	return nil, usdl.Errorf(usdl.ErrMalformedInput, path, "default %q is not a valid %s", text, ref.Primitive)
}
