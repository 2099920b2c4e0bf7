// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Daco Labs

package usdl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocument_RootsAndReferenceCounts(t *testing.T) {
	doc := orderDoc()
	doc.Types = append(doc.Types, &TypeDefinition{
		Name: "Audit",
		Kind: KindStructure,
		Fields: []*Field{
			{Name: "orders", Type: MapOf(NamedRef("Order"))},
			{Name: "state", Type: UnionOf(NamedRef("Status"), PrimitiveRef(String))},
		},
	})

	counts := doc.ReferenceCounts()
	assert.Equal(t, 1, counts["Order"])
	assert.Equal(t, 2, counts["Status"])
	assert.Zero(t, counts["Audit"])

	roots := doc.Roots()
	require.Len(t, roots, 1)
	assert.Equal(t, "Audit", roots[0].Name)
}

func TestDocument_AddTypeRejectsDuplicates(t *testing.T) {
	doc := &Document{}
	require.NoError(t, doc.AddType(&TypeDefinition{Name: "A", Kind: KindStructure}))

	err := doc.AddType(&TypeDefinition{Name: "A", Kind: KindEnum})
	assert.ErrorIs(t, err, ErrUnresolvedTypeReference)
}

func TestTypeRef_String(t *testing.T) {
	assert.Equal(t, "int32", PrimitiveRef(Int32).String())
	assert.Equal(t, "Order", NamedRef("Order").String())
	assert.Equal(t, "array<map<string>>", ArrayOf(MapOf(PrimitiveRef(String))).String())
	assert.Equal(t, "inline union", UnionOf(PrimitiveRef(String), PrimitiveRef(Int32)).String())
}

func TestCanonicalPrimitive(t *testing.T) {
	tests := []struct {
		format Format
		in     string
		want   Primitive
		ok     bool
	}{
		{Avro, "long:timestamp-micros", DateTime, true},
		{Avro, "int:date", Date, true},
		{Avro, "string:made-up", String, true},
		{Avro, "null", "", false},
		{JSONSchema, "integer", Int64, true},
		{JSONSchema, "string:email", String, true},
		{XSD, "nonNegativeInteger", Int64, true},
		{XSD, "anyType", "", false},
		{Protobuf, "sfixed32", Int32, true},
		{Protobuf, "google.protobuf.Timestamp", DateTime, true},
	}

	for _, tt := range tests {
		t.Run(tt.format.String()+"/"+tt.in, func(t *testing.T) {
			got, ok := CanonicalPrimitive(tt.format, tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormatPrimitive_CoversEveryPrimitive(t *testing.T) {
	for _, f := range Formats() {
		for _, p := range Primitives() {
			base, qualifier, ok := FormatPrimitive(f, p)
			require.True(t, ok, "%s has no spelling for %s", f, p)

			spelled := base
			if qualifier != "" {
				spelled += ":" + qualifier
			}
			back, ok := CanonicalPrimitive(f, spelled)
			require.True(t, ok)
			assert.Equal(t, p, back, "%s %s", f, spelled)
		}
	}
}

func TestNullabilityEncoding(t *testing.T) {
	assert.Equal(t, NullUnion, NullabilityEncoding(Avro))
	assert.Equal(t, NotRequired, NullabilityEncoding(JSONSchema))
	assert.Equal(t, MinOccursZero, NullabilityEncoding(XSD))
	assert.Equal(t, OptionalModifier, NullabilityEncoding(Protobuf))
	assert.Equal(t, "null-union", NullUnion.String())
}

func TestUnsupportedNullability(t *testing.T) {
	err := UnsupportedNullability(XSD, "Order.note")
	assert.ErrorIs(t, err, ErrUnsupportedConstruct)
	assert.Equal(t, "Order.note", err.Path)
	assert.Contains(t, err.Error(), "min-occurs-zero")
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{
		"avro": Avro, "AVSC": Avro, "xsd": XSD, "json-schema": JSONSchema, "proto3": Protobuf,
	} {
		got, err := ParseFormat(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}

	_, err := ParseFormat("thrift")
	assert.Error(t, err)
}

func TestNames(t *testing.T) {
	assert.Equal(t, "ShippingAddress", ToPascalCase("shipping_address"))
	assert.Equal(t, "ShippingAddress", ToPascalCase("shipping address"))
	assert.Equal(t, "OrderLine", ToPascalCase("orderLine"))
	assert.Equal(t, "T3dModel", ToPascalCase("3d-model"))

	assert.Equal(t, "Order", SimpleName("com.example.Order"))
	assert.Equal(t, "Order", SimpleName("Order"))

	assert.True(t, IsIdentifier("_order1"))
	assert.False(t, IsIdentifier("1order"))
	assert.False(t, IsIdentifier("order-line"))
}
