// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Daco Labs

package usdl

import (
	"fmt"
	"strings"
)

// Format is the closed set of concrete schema formats.
type Format uint8

const (
	Avro Format = iota + 1
	XSD
	JSONSchema
	Protobuf
)

// Formats returns every format in a stable order.
func Formats() []Format {
	return []Format{Avro, XSD, JSONSchema, Protobuf}
}

func (f Format) String() string {
	switch f {
	case Avro:
		return "avro"
	case XSD:
		return "xsd"
	case JSONSchema:
		return "jsonschema"
	case Protobuf:
		return "protobuf"
	default:
		return fmt.Sprintf("format(%d)", uint8(f))
	}
}

// ParseFormat resolves a format name or one of its common aliases.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "avro", "avsc":
		return Avro, nil
	case "xsd", "xml-schema", "xmlschema":
		return XSD, nil
	case "jsonschema", "json-schema", "json":
		return JSONSchema, nil
	case "protobuf", "proto", "proto3":
		return Protobuf, nil
	}
	return 0, fmt.Errorf("unknown format %q (expected one of %s)", s, strings.Join(FormatNames(), ", "))
}

// FormatNames returns the primary name of every format.
func FormatNames() []string {
	names := make([]string, 0, 4)
	for _, f := range Formats() {
		names = append(names, f.String())
	}
	return names
}

// RenderOptions tune serializer output.
type RenderOptions struct {
	// PrettyPrint indents JSON and XML output. Protobuf output is always
	// formatted.
	PrettyPrint bool

	// PreservePattern makes the XSD serializer honour inline hints (Russian
	// Doll); when false every type is emitted globally (Venetian Blind).
	PreservePattern bool
}
