// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Daco Labs

// Package schemafn exposes schema conversion as eight pure functions over
// canonical trees: a parser and a renderer per format. Errors are *usdl.Error
// values stamped with the name of the function that failed.
package schemafn

import (
	"github.com/dacolabs/usdl/internal/translate"
	"github.com/dacolabs/usdl/internal/udm"
	"github.com/dacolabs/usdl/internal/usdl"
)

// AvroOptions tune renderAvroSchema.
type AvroOptions struct {
	PrettyPrint bool
}

// XSDOptions tune renderXSDSchema.
type XSDOptions struct {
	PrettyPrint bool
	// PreservePattern keeps anonymous types where the source declared them.
	PreservePattern bool
}

// JSONSchemaOptions tune renderJSONSchema.
type JSONSchemaOptions struct {
	PrettyPrint bool
}

// ParseAvroSchema lowers Avro schema JSON into a canonical tree.
func ParseAvroSchema(src string) (*udm.Value, error) {
	return Parse(usdl.Avro, []byte(src))
}

// RenderAvroSchema raises a canonical tree into Avro schema JSON.
func RenderAvroSchema(tree *udm.Value, opts AvroOptions) (string, error) {
	out, err := Render(usdl.Avro, tree, usdl.RenderOptions{PrettyPrint: opts.PrettyPrint})
	return string(out), err
}

// ParseXSDSchema lowers an XML Schema into a canonical tree.
func ParseXSDSchema(src string) (*udm.Value, error) {
	return Parse(usdl.XSD, []byte(src))
}

// RenderXSDSchema raises a canonical tree into an XML Schema.
func RenderXSDSchema(tree *udm.Value, opts XSDOptions) (string, error) {
	out, err := Render(usdl.XSD, tree, usdl.RenderOptions{PrettyPrint: opts.PrettyPrint, PreservePattern: opts.PreservePattern})
	return string(out), err
}

// ParseJSONSchema lowers a JSON Schema (JSON or YAML text) into a canonical
// tree.
func ParseJSONSchema(src string) (*udm.Value, error) {
	return Parse(usdl.JSONSchema, []byte(src))
}

// RenderJSONSchema raises a canonical tree into a draft 2020-12 JSON Schema.
func RenderJSONSchema(tree *udm.Value, opts JSONSchemaOptions) (string, error) {
	out, err := Render(usdl.JSONSchema, tree, usdl.RenderOptions{PrettyPrint: opts.PrettyPrint})
	return string(out), err
}

// ParseProtobufSchema lowers a proto3 file into a canonical tree.
func ParseProtobufSchema(src string) (*udm.Value, error) {
	return Parse(usdl.Protobuf, []byte(src))
}

// RenderProtobufSchema raises a canonical tree into a proto3 file. Every field
// needs a field number.
func RenderProtobufSchema(tree *udm.Value) (string, error) {
	out, err := Render(usdl.Protobuf, tree, usdl.RenderOptions{})
	return string(out), err
}

// Parse runs the parser of format f.
func Parse(f usdl.Format, src []byte) (*udm.Value, error) {
	doc, err := translate.Parse(f, src)
	if err != nil {
		return nil, usdl.WithFunc(err, ParseFuncName(f))
	}
	return usdl.ToTree(doc), nil
}

// Render runs the renderer of format f. The tree is decoded and validated
// first; decoding failures are reported against the renderer.
func Render(f usdl.Format, tree *udm.Value, opts usdl.RenderOptions) ([]byte, error) {
	doc, err := usdl.FromTree(tree)
	if err != nil {
		return nil, usdl.WithFunc(err, RenderFuncName(f))
	}
	out, err := translate.Render(f, doc, opts)
	if err != nil {
		return nil, usdl.WithFunc(err, RenderFuncName(f))
	}
	return out, nil
}

// Convert parses src as from and renders the result as to, passing through
// the canonical tree.
func Convert(from, to usdl.Format, src []byte, opts usdl.RenderOptions) ([]byte, error) {
	tree, err := Parse(from, src)
	if err != nil {
		return nil, err
	}
	return Render(to, tree, opts)
}

// ParseFuncName returns the boundary function name of the parser of f, e.g.
// "parseAvroSchema".
func ParseFuncName(f usdl.Format) string {
	return "parse" + funcSuffix(f)
}

// RenderFuncName returns the boundary function name of the renderer of f.
func RenderFuncName(f usdl.Format) string {
	return "render" + funcSuffix(f)
}

func funcSuffix(f usdl.Format) string {
	switch f {
	case usdl.Avro:
		return "AvroSchema"
	case usdl.XSD:
		return "XSDSchema"
	case usdl.JSONSchema:
		return "JSONSchema"
	case usdl.Protobuf:
		return "ProtobufSchema"
	}
	return "Schema"
}
