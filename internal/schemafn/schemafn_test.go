// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Daco Labs

package schemafn

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dacolabs/usdl/internal/udm"
	"github.com/dacolabs/usdl/internal/usdl"
)

const pointAvro = `{
  "type": "record",
  "name": "Point",
  "fields": [
    {"name": "x", "type": "int"},
    {"name": "label", "type": "string"},
    {"name": "ratio", "type": "double"},
    {"name": "active", "type": "boolean"}
  ]
}`

func tree(t *testing.T, src string) *udm.Value {
	t.Helper()
	v, err := udm.ParseJSON([]byte(src))
	require.NoError(t, err)
	return v
}

func TestParse_ProducesCanonicalTree(t *testing.T) {
	v, err := ParseAvroSchema(pointAvro)
	require.NoError(t, err)

	types := v.Get(usdl.KeyTypes)
	require.NotNil(t, types)
	assert.Equal(t, []string{"Point"}, types.Keys)
	kind, _ := types.Get("Point").Get(usdl.KeyKind).Str()
	assert.Equal(t, "structure", kind)
	assert.Equal(t, 4, types.Get("Point").Get(usdl.KeyFields).Len())
}

func TestCrossFormatPreservation(t *testing.T) {
	first, err := ParseAvroSchema(pointAvro)
	require.NoError(t, err)

	js, err := RenderJSONSchema(first, JSONSchemaOptions{PrettyPrint: true})
	require.NoError(t, err)
	viaJSON, err := ParseJSONSchema(js)
	require.NoError(t, err)

	avsc, err := RenderAvroSchema(viaJSON, AvroOptions{})
	require.NoError(t, err)
	last, err := ParseAvroSchema(avsc)
	require.NoError(t, err)

	want, err := usdl.FromTree(first)
	require.NoError(t, err)
	got, err := usdl.FromTree(last)
	require.NoError(t, err)
	if diff := cmp.Diff(want, got, cmpopts.EquateEmpty(), cmp.Comparer(udm.Equal)); diff != "" {
		t.Errorf("Avro -> JSON Schema -> Avro changed the document (-want +got):\n%s", diff)
	}
}

func TestRenderProtobuf_EnumOrdinals(t *testing.T) {
	tests := []struct {
		name     string
		ordinals []int
		err      error
	}{
		{"zero first", []int{0, 1}, nil},
		{"one first", []int{1, 2}, usdl.ErrConstraintViolation},
		{"negative after zero", []int{0, -3}, usdl.ErrConstraintViolation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values := udm.NewArray()
			for i, o := range tt.ordinals {
				values.Append(udm.NewObject().
					Set(usdl.KeyName, udm.String(string(rune('A'+i)))).
					Set(usdl.KeyOrdinal, udm.Int(int64(o))))
			}
			enum := udm.NewObject().Set(usdl.KeyKind, udm.String("enum")).Set(usdl.KeyValues, values)
			v := udm.NewObject().Set(usdl.KeyTypes, udm.NewObject().Set("Status", enum))

			_, err := RenderProtobufSchema(v)
			if tt.err == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestRenderProtobuf_FieldNumbers(t *testing.T) {
	tests := []struct {
		name    string
		numbers []int
		err     error
	}{
		{"one", []int{1}, nil},
		{"reserved", []int{19500}, usdl.ErrConstraintViolation},
		{"shared", []int{5, 5}, usdl.ErrConstraintViolation},
		{"missing", []int{0}, usdl.ErrMissingRequiredMetadata},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fields := udm.NewArray()
			for i, n := range tt.numbers {
				f := udm.NewObject().
					Set(usdl.KeyName, udm.String(string(rune('a'+i)))).
					Set(usdl.KeyType, udm.String("string"))
				if n != 0 {
					f.Set(usdl.KeyFieldNumber, udm.Int(int64(n)))
				}
				fields.Append(f)
			}
			v := udm.NewObject().Set(usdl.KeyTypes, udm.NewObject().Set("Order",
				udm.NewObject().Set(usdl.KeyKind, udm.String("structure")).Set(usdl.KeyFields, fields)))

			_, err := RenderProtobufSchema(v)
			if tt.err == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestRenderProtobuf_ExplicitFieldNumberOutOfRange(t *testing.T) {
	for _, n := range []string{"0", "-4"} {
		t.Run(n, func(t *testing.T) {
			v := tree(t, `{"%types": {"Order": {"%kind": "structure", "%fields": [
				{"%name": "id", "%type": "string", "%field_number": `+n+`}
			]}}}`)

			_, err := RenderProtobufSchema(v)
			require.Error(t, err)
			assert.ErrorIs(t, err, usdl.ErrConstraintViolation)
			assert.NotErrorIs(t, err, usdl.ErrMissingRequiredMetadata)
		})
	}
}

func TestErrors_CarryFunctionName(t *testing.T) {
	v := tree(t, `{"%types": {"Order": {"%kind": "structure", "%fields": [
		{"%name": "id", "%type": "string", "%field_number": 19500}
	]}}}`)

	_, err := RenderProtobufSchema(v)
	require.Error(t, err)

	var ue *usdl.Error
	require.True(t, errors.As(err, &ue))
	assert.Equal(t, "renderProtobufSchema", ue.Func)
	assert.Equal(t, "Order.id", ue.Path)
	assert.True(t, strings.HasPrefix(err.Error(),
		"renderProtobufSchema: constraint violation at Order.id: field number 19500 is in the reserved range 19000-19999 (hint: "))
}

func TestParseProtobuf_RejectsProto2(t *testing.T) {
	for _, src := range []string{
		`syntax = "proto2"; message A { optional string a = 1; }`,
		`message A { string a = 1; }`,
		``,
	} {
		_, err := ParseProtobufSchema(src)
		require.Error(t, err)
		assert.ErrorIs(t, err, usdl.ErrMalformedInput)
		assert.Contains(t, err.Error(), "parseProtobufSchema")
	}
}

func TestRender_MalformedTree(t *testing.T) {
	_, err := RenderXSDSchema(tree(t, `{"%types": {"A": {"%fields": []}}}`), XSDOptions{})
	require.Error(t, err)
	assert.ErrorIs(t, err, usdl.ErrMalformedInput)
	assert.Contains(t, err.Error(), "renderXSDSchema")
}

func TestRender_IsIdempotent(t *testing.T) {
	v, err := ParseAvroSchema(pointAvro)
	require.NoError(t, err)

	a, err := RenderXSDSchema(v, XSDOptions{PrettyPrint: true})
	require.NoError(t, err)
	b, err := RenderXSDSchema(v, XSDOptions{PrettyPrint: true})
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestFuncNames(t *testing.T) {
	var names []string
	for _, f := range usdl.Formats() {
		names = append(names, ParseFuncName(f), RenderFuncName(f))
	}
	assert.Equal(t, []string{
		"parseAvroSchema", "renderAvroSchema",
		"parseXSDSchema", "renderXSDSchema",
		"parseJSONSchema", "renderJSONSchema",
		"parseProtobufSchema", "renderProtobufSchema",
	}, names)
}

func TestConvert(t *testing.T) {
	out, err := Convert(usdl.Avro, usdl.Protobuf, []byte(pointAvro), usdl.RenderOptions{})
	require.Error(t, err, "avro carries no field numbers")
	assert.ErrorIs(t, err, usdl.ErrMissingRequiredMetadata)
	assert.Nil(t, out)

	out, err = Convert(usdl.Avro, usdl.XSD, []byte(pointAvro), usdl.RenderOptions{PrettyPrint: true})
	require.NoError(t, err)
	assert.Contains(t, string(out), `<xs:element name="x" type="xs:int"/>`)
}
