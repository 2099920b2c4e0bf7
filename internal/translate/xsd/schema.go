// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Daco Labs

package xsd

import (
	"strconv"
	"strings"

	"github.com/beevik/etree"

	"github.com/dacolabs/usdl/internal/usdl"
)

// unbounded is the maxOccurs value of an unbounded particle.
const unbounded = -1

func isXSD(el *etree.Element) bool {
	return el.NamespaceURI() == XMLSchemaNamespace
}

// children returns the XML Schema child elements of el, skipping foreign
// markup such as appinfo content.
func children(el *etree.Element) []*etree.Element {
	var out []*etree.Element
	for _, c := range el.ChildElements() {
		if isXSD(c) {
			out = append(out, c)
		}
	}
	return out
}

func child(el *etree.Element, tag string) *etree.Element {
	for _, c := range children(el) {
		if c.Tag == tag {
			return c
		}
	}
	return nil
}

// resolveQName splits a QName-valued attribute into its namespace and local
// name, using the prefix bindings in scope at el.
func resolveQName(el *etree.Element, qname string) (ns, local string) {
	prefix, local, ok := strings.Cut(qname, ":")
	if !ok {
		prefix, local = "", qname
	}
	return namespaceFor(el, prefix), local
}

func namespaceFor(el *etree.Element, prefix string) string {
	for e := el; e != nil; e = e.Parent() {
		for _, a := range e.Attr {
			switch {
			case prefix == "" && a.Space == "" && a.Key == "xmlns":
				return a.Value
			case prefix != "" && a.Space == "xmlns" && a.Key == prefix:
				return a.Value
			}
		}
	}
	return ""
}

// documentation joins the xs:documentation texts of el's annotation.
func documentation(el *etree.Element) string {
	ann := child(el, "annotation")
	if ann == nil {
		return ""
	}
	var parts []string
	for _, d := range children(ann) {
		if d.Tag != "documentation" {
			continue
		}
		if text := strings.TrimSpace(d.Text()); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, "\n")
}

func annotate(el *etree.Element, doc string) {
	if doc == "" {
		return
	}
	el.CreateElement("xs:annotation").CreateElement("xs:documentation").SetText(doc)
}

// occurs reads minOccurs and maxOccurs, which both default to 1.
func occurs(el *etree.Element, path string) (lo, hi int, err error) {
	lo, hi = 1, 1
	if v := el.SelectAttrValue("minOccurs", ""); v != "" {
		if lo, err = strconv.Atoi(v); err != nil || lo < 0 {
			return 0, 0, usdl.Errorf(usdl.ErrMalformedInput, path, "invalid minOccurs %q", v)
		}
	}
	switch v := el.SelectAttrValue("maxOccurs", ""); v {
	case "":
	case "unbounded":
		hi = unbounded
	default:
		if hi, err = strconv.Atoi(v); err != nil || hi < 0 {
			return 0, 0, usdl.Errorf(usdl.ErrMalformedInput, path, "invalid maxOccurs %q", v)
		}
		if hi == 0 {
			return 0, 0, usdl.Errorf(usdl.ErrUnsupportedConstruct, path, "maxOccurs=\"0\" prohibits the particle").
				WithHint("remove the prohibited particle")
		}
	}
	if hi != unbounded && lo > hi {
		return 0, 0, usdl.Errorf(usdl.ErrMalformedInput, path, "minOccurs %d exceeds maxOccurs %d", lo, hi)
	}
	return lo, hi, nil
}

// isNCName reports whether s is usable as an XML element, attribute or type
// name.
func isNCName(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && (r == '-' || r == '.' || r >= '0' && r <= '9'):
		default:
			return false
		}
	}
	return true
}
