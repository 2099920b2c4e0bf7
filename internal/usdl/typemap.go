// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Daco Labs

package usdl

import "strings"

// Format primitives are spelled as "base" or "base:qualifier", where the
// qualifier is the Avro logicalType, the JSON Schema format/contentEncoding,
// or nothing for XSD and Protobuf scalars.

var toCanonical = map[Format]map[string]Primitive{
	Avro: {
		"string":                      String,
		"bytes":                       Bytes,
		"boolean":                     Boolean,
		"int":                         Int32,
		"long":                        Int64,
		"float":                       Float32,
		"double":                      Float64,
		"bytes:decimal":               Decimal,
		"fixed:decimal":               Decimal,
		"int:date":                    Date,
		"int:time-millis":             Time,
		"long:time-micros":            Time,
		"long:timestamp-millis":       DateTime,
		"long:timestamp-micros":       DateTime,
		"long:local-timestamp-millis": DateTime,
		"long:local-timestamp-micros": DateTime,
		"string:uuid":                 String,
		"fixed:uuid":                  String,
	},
	JSONSchema: {
		"string":           String,
		"string:base64":    Bytes,
		"string:byte":      Bytes,
		"boolean":          Boolean,
		"integer":          Int64,
		"integer:int32":    Int32,
		"integer:int64":    Int64,
		"number":           Float64,
		"number:float":     Float32,
		"number:double":    Float64,
		"string:decimal":   Decimal,
		"string:date":      Date,
		"string:date-time": DateTime,
		"string:time":      Time,
	},
	XSD: {
		"string":             String,
		"normalizedString":   String,
		"token":              String,
		"anyURI":             String,
		"language":           String,
		"Name":               String,
		"NCName":             String,
		"QName":              String,
		"ID":                 String,
		"IDREF":              String,
		"NMTOKEN":            String,
		"ENTITY":             String,
		"duration":           String,
		"gYear":              String,
		"gYearMonth":         String,
		"base64Binary":       Bytes,
		"hexBinary":          Bytes,
		"boolean":            Boolean,
		"int":                Int32,
		"short":              Int32,
		"byte":               Int32,
		"unsignedShort":      Int32,
		"unsignedByte":       Int32,
		"long":               Int64,
		"integer":            Int64,
		"unsignedInt":        Int64,
		"unsignedLong":       Int64,
		"nonNegativeInteger": Int64,
		"positiveInteger":    Int64,
		"nonPositiveInteger": Int64,
		"negativeInteger":    Int64,
		"float":              Float32,
		"double":             Float64,
		"decimal":            Decimal,
		"date":               Date,
		"dateTime":           DateTime,
		"dateTimeStamp":      DateTime,
		"time":               Time,
	},
	Protobuf: {
		"string":                    String,
		"bytes":                     Bytes,
		"bool":                      Boolean,
		"int32":                     Int32,
		"sint32":                    Int32,
		"sfixed32":                  Int32,
		"uint32":                    Int64,
		"fixed32":                   Int64,
		"int64":                     Int64,
		"sint64":                    Int64,
		"sfixed64":                  Int64,
		"uint64":                    Int64,
		"fixed64":                   Int64,
		"float":                     Float32,
		"double":                    Float64,
		"google.protobuf.Timestamp": DateTime,
		"google.type.Date":          Date,
		"google.type.TimeOfDay":     Time,
		"google.type.Decimal":       Decimal,
	},
}

var fromCanonical = map[Format]map[Primitive]string{
	Avro: {
		String:   "string",
		Bytes:    "bytes",
		Boolean:  "boolean",
		Int32:    "int",
		Int64:    "long",
		Float32:  "float",
		Float64:  "double",
		Decimal:  "bytes:decimal",
		Date:     "int:date",
		DateTime: "long:timestamp-millis",
		Time:     "int:time-millis",
	},
	JSONSchema: {
		String:   "string",
		Bytes:    "string:base64",
		Boolean:  "boolean",
		Int32:    "integer:int32",
		Int64:    "integer:int64",
		Float32:  "number:float",
		Float64:  "number:double",
		Decimal:  "string:decimal",
		Date:     "string:date",
		DateTime: "string:date-time",
		Time:     "string:time",
	},
	XSD: {
		String:   "string",
		Bytes:    "base64Binary",
		Boolean:  "boolean",
		Int32:    "int",
		Int64:    "long",
		Float32:  "float",
		Float64:  "double",
		Decimal:  "decimal",
		Date:     "date",
		DateTime: "dateTime",
		Time:     "time",
	},
	Protobuf: {
		String:   "string",
		Bytes:    "bytes",
		Boolean:  "bool",
		Int32:    "int32",
		Int64:    "int64",
		Float32:  "float",
		Float64:  "double",
		Decimal:  "google.type.Decimal",
		Date:     "google.type.Date",
		DateTime: "google.protobuf.Timestamp",
		Time:     "google.type.TimeOfDay",
	},
}

// CanonicalPrimitive maps a format primitive to its canonical equivalent. A
// qualified spelling whose qualifier is unknown falls back to its base, since
// every supported format treats unknown logical types/formats as annotations
// on the base type.
func CanonicalPrimitive(f Format, formatPrimitive string) (Primitive, bool) {
	table := toCanonical[f]
	if p, ok := table[formatPrimitive]; ok {
		return p, true
	}
	if base, _, ok := strings.Cut(formatPrimitive, ":"); ok {
		p, ok := table[base]
		return p, ok
	}
	return "", false
}

// FormatPrimitive maps a canonical primitive to the format spelling, split
// into its base and optional qualifier.
func FormatPrimitive(f Format, p Primitive) (base, qualifier string, ok bool) {
	s, ok := fromCanonical[f][p]
	if !ok {
		return "", "", false
	}
	base, qualifier, _ = strings.Cut(s, ":")
	return base, qualifier, true
}

// NullabilityStrategy names how a format encodes an optional field.
type NullabilityStrategy uint8

const (
	// NullUnion wraps the type in a two-branch union with "null" (Avro).
	NullUnion NullabilityStrategy = iota + 1
	// NotRequired omits the property from "required"; a "null" member of
	// "type" is accepted on input (JSON Schema).
	NotRequired
	// MinOccursZero sets minOccurs="0" (XSD).
	MinOccursZero
	// OptionalModifier uses the proto3 "optional" label; oneof groups carry
	// presence implicitly (Protobuf).
	OptionalModifier
)

var nullabilityEncoding = map[Format]NullabilityStrategy{
	Avro:       NullUnion,
	JSONSchema: NotRequired,
	XSD:        MinOccursZero,
	Protobuf:   OptionalModifier,
}

// NullabilityEncoding returns the strategy format f uses for optional fields.
// Renderers switch on it when they write an optional field.
func NullabilityEncoding(f Format) NullabilityStrategy {
	return nullabilityEncoding[f]
}

// UnsupportedNullability reports that the renderer for f has no spelling for
// the strategy the table assigns it.
func UnsupportedNullability(f Format, path string) *Error {
	return Errorf(ErrUnsupportedConstruct, path, "%s cannot write optional fields as %s", f, NullabilityEncoding(f))
}

func (s NullabilityStrategy) String() string {
	switch s {
	case NullUnion:
		return "null-union"
	case NotRequired:
		return "not-required"
	case MinOccursZero:
		return "min-occurs-zero"
	case OptionalModifier:
		return "optional-modifier"
	}
	return "unknown"
}
