// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Daco Labs

package protobuf

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/emicklei/proto"

	"github.com/dacolabs/usdl/internal/usdl"
)

var proto3Syntax = regexp.MustCompile(`(?m)^\s*syntax\s*=\s*["']proto3["']\s*;`)

// Wrapper messages lower to optional primitives.
var wrappers = map[string]usdl.Primitive{
	"google.protobuf.StringValue": usdl.String,
	"google.protobuf.BytesValue":  usdl.Bytes,
	"google.protobuf.BoolValue":   usdl.Boolean,
	"google.protobuf.Int32Value":  usdl.Int32,
	"google.protobuf.UInt32Value": usdl.Int64,
	"google.protobuf.Int64Value":  usdl.Int64,
	"google.protobuf.UInt64Value": usdl.Int64,
	"google.protobuf.FloatValue":  usdl.Float32,
	"google.protobuf.DoubleValue": usdl.Float64,
}

type decl struct {
	full string
	msg  *proto.Message
	enum *proto.Enum
	def  *usdl.TypeDefinition
}

// lowerer runs in two passes: declare hoists every message and enum in
// pre-order so that references resolve regardless of declaration order, then
// fill lowers their bodies.
type lowerer struct {
	doc   *usdl.Document
	res   *resolver
	decls []decl
}

// Parse lowers a proto3 file into the canonical model. Files that do not
// declare proto3 syntax are rejected before parsing.
func (t *Translator) Parse(src []byte) (*usdl.Document, error) {
	if !proto3Syntax.Match(src) {
		return nil, usdl.Errorf(usdl.ErrMalformedInput, "", `missing syntax = "proto3" declaration`).
			WithHint("only proto3 files are accepted; proto2 and editions files are rejected")
	}
	file, err := proto.NewParser(bytes.NewReader(src)).Parse()
	if err != nil {
		return nil, usdl.Errorf(usdl.ErrMalformedInput, "", "invalid proto3 definition").WithCause(err)
	}

	l := &lowerer{doc: &usdl.Document{}, res: newResolver()}
	if err := l.header(file); err != nil {
		return nil, err
	}
	for _, e := range file.Elements {
		if err := l.declare(l.doc.Namespace, e); err != nil {
			return nil, err
		}
	}
	for _, d := range l.decls {
		var err error
		if d.msg != nil {
			err = l.message(d)
		} else {
			err = l.enum(d)
		}
		if err != nil {
			return nil, err
		}
	}

	if len(l.doc.Types) == 0 {
		return nil, usdl.Errorf(usdl.ErrUnsupportedConstruct, "", "file declares no message or enum")
	}
	if err := usdl.Validate(l.doc); err != nil {
		return nil, err
	}
	return l.doc, nil
}

func (l *lowerer) header(file *proto.Proto) error {
	var pkg bool
	for _, e := range file.Elements {
		switch v := e.(type) {
		case *proto.Syntax:
			if v.Value != "proto3" {
				return usdl.Errorf(usdl.ErrMalformedInput, "", "syntax %q is not proto3", v.Value)
			}
			l.doc.Documentation = comment(v.Comment)
		case *proto.Edition:
			return usdl.Errorf(usdl.ErrMalformedInput, "", "editions files are not proto3")
		case *proto.Package:
			if pkg {
				return usdl.Errorf(usdl.ErrMalformedInput, "", "file declares more than one package")
			}
			pkg = true
			l.doc.Namespace = v.Name
		}
	}
	return nil
}

func (l *lowerer) declare(scope string, e proto.Visitee) error {
	switch v := e.(type) {
	case *proto.Message:
		if v.IsExtend {
			return extend(v)
		}
		full := qualify(scope, v.Name)
		def, err := l.add(full, usdl.KindStructure, v.Comment)
		if err != nil {
			return err
		}
		l.decls = append(l.decls, decl{full: full, msg: v, def: def})
		for _, child := range v.Elements {
			if err := l.declare(full, child); err != nil {
				return err
			}
		}
	case *proto.Enum:
		full := qualify(scope, v.Name)
		def, err := l.add(full, usdl.KindEnum, v.Comment)
		if err != nil {
			return err
		}
		l.decls = append(l.decls, decl{full: full, enum: v, def: def})
	}
	return nil
}

func (l *lowerer) add(full string, kind usdl.Kind, doc *proto.Comment) (*usdl.TypeDefinition, error) {
	name, err := l.res.declare(full)
	if err != nil {
		return nil, err
	}
	def := &usdl.TypeDefinition{Name: name, Kind: kind, Documentation: comment(doc)}
	if err := l.doc.AddType(def); err != nil {
		return nil, err
	}
	return def, nil
}

// extend accepts custom option declarations, which describe no schema type.
func extend(m *proto.Message) error {
	name := strings.TrimPrefix(m.Name, ".")
	if strings.HasPrefix(name, "google.protobuf.") && strings.HasSuffix(name, "Options") {
		return nil
	}
	return usdl.Errorf(usdl.ErrUnsupportedConstruct, name, "extend %s has no canonical equivalent", name).
		WithHint("only extensions of google.protobuf option messages are accepted")
}

func (l *lowerer) message(d decl) error {
	for _, e := range d.msg.Elements {
		var (
			f   *usdl.Field
			err error
		)
		switch v := e.(type) {
		case *proto.NormalField:
			f, err = l.normalField(d, v)
		case *proto.MapField:
			f, err = l.mapField(d, v)
		case *proto.Oneof:
			f, err = l.oneof(d, v)
		case *proto.Group:
			err = usdl.Errorf(usdl.ErrMalformedInput, usdl.JoinPath(d.def.Name, v.Name), "groups are not proto3")
		case *proto.Extensions:
			err = usdl.Errorf(usdl.ErrMalformedInput, d.def.Name, "extension ranges are not proto3")
		default:
			continue
		}
		if err != nil {
			return err
		}
		d.def.Fields = append(d.def.Fields, f)
	}
	return nil
}

func (l *lowerer) normalField(d decl, v *proto.NormalField) (*usdl.Field, error) {
	path := usdl.JoinPath(d.def.Name, v.Name)
	if v.Required {
		return nil, usdl.Errorf(usdl.ErrMalformedInput, path, "required fields are not proto3").
			WithHint("drop the required label")
	}
	ref, wrapped, err := l.typeRef(d.full, v.Type, path)
	if err != nil {
		return nil, err
	}
	f := &usdl.Field{
		Name:          v.Name,
		Type:          ref,
		Optional:      v.Optional || wrapped,
		FieldNumber:   v.Sequence,
		Documentation: comment(v.Comment, v.InlineComment),
	}
	if v.Repeated {
		if wrapped {
			return nil, usdl.Errorf(usdl.ErrUnsupportedConstruct, path, "repeated %s has nullable items", v.Type).
				WithHint("repeat the plain scalar instead of its wrapper")
		}
		f.Type = usdl.ArrayOf(ref)
	}
	return f, nil
}

func (l *lowerer) mapField(d decl, v *proto.MapField) (*usdl.Field, error) {
	path := usdl.JoinPath(d.def.Name, v.Name)
	if v.KeyType != "string" {
		return nil, usdl.Errorf(usdl.ErrUnsupportedConstruct, path, "map key type %s has no canonical equivalent", v.KeyType).
			WithHint("only map<string, V> can be converted")
	}
	ref, wrapped, err := l.typeRef(d.full, v.Type, path)
	if err != nil {
		return nil, err
	}
	if wrapped {
		return nil, usdl.Errorf(usdl.ErrUnsupportedConstruct, path, "map values of %s are nullable", v.Type).
			WithHint("use the plain scalar as the map value type")
	}
	return &usdl.Field{
		Name:          v.Name,
		Type:          usdl.MapOf(ref),
		FieldNumber:   v.Sequence,
		Documentation: comment(v.Comment, v.InlineComment),
	}, nil
}

// oneof lowers a group of two or more fields to an inline union named after
// the group. A single-field group only tracks presence.
func (l *lowerer) oneof(d decl, o *proto.Oneof) (*usdl.Field, error) {
	path := usdl.JoinPath(d.def.Name, o.Name)
	var fields []*proto.OneOfField
	for _, e := range o.Elements {
		if f, ok := e.(*proto.OneOfField); ok {
			fields = append(fields, f)
		}
	}

	switch len(fields) {
	case 0:
		return nil, usdl.Errorf(usdl.ErrMalformedInput, path, "oneof %s has no fields", o.Name)
	case 1:
		m := fields[0]
		ref, _, err := l.typeRef(d.full, m.Type, usdl.JoinPath(d.def.Name, m.Name))
		if err != nil {
			return nil, err
		}
		doc := comment(m.Comment, m.InlineComment)
		if doc == "" {
			doc = comment(o.Comment)
		}
		return &usdl.Field{Name: m.Name, Type: ref, Optional: true, FieldNumber: m.Sequence, Documentation: doc}, nil
	}

	u := &usdl.TypeDefinition{Kind: usdl.KindUnion}
	for _, m := range fields {
		ref, _, err := l.typeRef(d.full, m.Type, usdl.JoinPath(path, m.Name))
		if err != nil {
			return nil, err
		}
		u.Members = append(u.Members, usdl.UnionMember{Type: ref, Name: m.Name, FieldNumber: m.Sequence})
	}
	return &usdl.Field{
		Name:          o.Name,
		Type:          usdl.InlineRef(u),
		Optional:      true,
		Documentation: comment(o.Comment),
		InlineHint:    true,
	}, nil
}

func (l *lowerer) enum(d decl) error {
	for _, e := range d.enum.Elements {
		switch v := e.(type) {
		case *proto.Option:
			if v.Name == "allow_alias" && v.Constant.Source == "true" {
				return usdl.Errorf(usdl.ErrUnsupportedConstruct, d.def.Name, "enum aliases have no canonical equivalent").
					WithHint("give every enum value its own number")
			}
		case *proto.EnumField:
			d.def.Values = append(d.def.Values, usdl.EnumValue{
				Name:          v.Name,
				Ordinal:       v.Integer,
				Documentation: comment(v.Comment, v.InlineComment),
			})
		}
	}
	if len(d.def.Values) == 0 {
		return usdl.Errorf(usdl.ErrMalformedInput, d.def.Name, "enum has no values")
	}
	if first := d.def.Values[0]; first.Ordinal != 0 {
		return usdl.Errorf(usdl.ErrMalformedInput, usdl.JoinPath(d.def.Name, first.Name), "first enum value is %d, not 0", first.Ordinal).
			WithHint("proto3 enums start with a zero value")
	}
	return nil
}

// typeRef resolves a field type from scope. wrapped reports a wrapper
// message, which lowers to its primitive plus optionality.
func (l *lowerer) typeRef(scope, typ, path string) (ref usdl.TypeRef, wrapped bool, err error) {
	abs := strings.TrimPrefix(typ, ".")
	if p, ok := wrappers[abs]; ok {
		return usdl.PrimitiveRef(p), true, nil
	}
	if p, ok := usdl.CanonicalPrimitive(usdl.Protobuf, abs); ok {
		return usdl.PrimitiveRef(p), false, nil
	}
	if name, ok := l.res.lookup(scope, typ); ok {
		return usdl.NamedRef(name), false, nil
	}
	if strings.HasPrefix(abs, "google.protobuf.") || strings.HasPrefix(abs, "google.type.") {
		return ref, false, usdl.Errorf(usdl.ErrUnsupportedConstruct, path, "well-known type %s has no canonical equivalent", abs)
	}
	return ref, false, usdl.Errorf(usdl.ErrUnresolvedTypeReference, path, "type %s is not declared in this file", typ).
		WithHint("imported message types are not resolved; declare the type in the same file")
}

// comment returns the text of the first non-empty comment.
func comment(cs ...*proto.Comment) string {
	for _, c := range cs {
		if c == nil {
			continue
		}
		lines := make([]string, 0, len(c.Lines))
		for _, line := range c.Lines {
			if c.Cstyle {
				line = strings.TrimPrefix(strings.TrimSpace(line), "*")
			}
			lines = append(lines, strings.TrimRight(strings.TrimPrefix(line, " "), " \t"))
		}
		if text := strings.Trim(strings.Join(lines, "\n"), "\n"); text != "" {
			return text
		}
	}
	return ""
}
