// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Daco Labs

package avro

import (
	"testing"

	"github.com/goccy/go-json"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dacolabs/usdl/internal/udm"
	"github.com/dacolabs/usdl/internal/usdl"
)

const orderSchema = `{
  "type": "record",
  "name": "Order",
  "namespace": "com.example.sales",
  "doc": "A customer order",
  "fields": [
    {"name": "id", "type": "long"},
    {"name": "customer", "type": {
      "type": "record",
      "name": "Customer",
      "fields": [
        {"name": "name", "type": "string"},
        {"name": "email", "type": ["null", "string"], "default": null}
      ]
    }},
    {"name": "billTo", "type": "Customer"},
    {"name": "status", "type": {"type": "enum", "name": "Status", "symbols": ["OPEN", "PAID"]}},
    {"name": "lines", "type": {"type": "array", "items": {
      "type": "record",
      "name": "Line",
      "fields": [
        {"name": "sku", "type": "string", "doc": "stock keeping unit"},
        {"name": "price", "type": {"type": "bytes", "logicalType": "decimal", "precision": 10, "scale": 2}}
      ]
    }}},
    {"name": "note", "type": ["string", "null"], "default": "none"},
    {"name": "attrs", "type": {"type": "map", "values": "string"}},
    {"name": "payment", "type": ["string", "long", "null"]},
    {"name": "createdAt", "type": {"type": "long", "logicalType": "timestamp-micros"}}
  ]
}`

func parse(t *testing.T, src string) *usdl.Document {
	t.Helper()
	doc, err := (&Translator{}).Parse([]byte(src))
	require.NoError(t, err)
	return doc
}

func TestParse_HoistsNamedTypes(t *testing.T) {
	doc := parse(t, orderSchema)

	assert.Equal(t, "com.example.sales", doc.Namespace)
	var names []string
	for _, def := range doc.Types {
		names = append(names, def.Name)
	}
	assert.Equal(t, []string{"Order", "Customer", "Status", "Line"}, names)

	order := doc.Lookup("Order")
	assert.Equal(t, "A customer order", order.Documentation)
	assert.Equal(t, usdl.NamedRef("Customer"), order.Field("customer").Type)
	assert.Equal(t, usdl.NamedRef("Customer"), order.Field("billTo").Type)
	assert.Equal(t, usdl.ArrayOf(usdl.NamedRef("Line")), order.Field("lines").Type)
	assert.Equal(t, usdl.MapOf(usdl.PrimitiveRef(usdl.String)), order.Field("attrs").Type)
	assert.Equal(t, usdl.PrimitiveRef(usdl.DateTime), order.Field("createdAt").Type)

	status := doc.Lookup("Status")
	assert.Equal(t, []usdl.EnumValue{{Name: "OPEN", Ordinal: 0}, {Name: "PAID", Ordinal: 1}}, status.Values)

	line := doc.Lookup("Line")
	assert.Equal(t, usdl.PrimitiveRef(usdl.Decimal), line.Field("price").Type)
	assert.Equal(t, "stock keeping unit", line.Field("sku").Documentation)
}

func TestParse_Nullability(t *testing.T) {
	doc := parse(t, orderSchema)

	email := doc.Lookup("Customer").Field("email")
	assert.True(t, email.Optional)
	assert.Nil(t, email.Default)
	assert.Equal(t, usdl.PrimitiveRef(usdl.String), email.Type)

	note := doc.Lookup("Order").Field("note")
	assert.True(t, note.Optional)
	require.NotNil(t, note.Default)
	assert.Equal(t, "none", note.Default.String)

	payment := doc.Lookup("Order").Field("payment")
	assert.True(t, payment.Optional)
	assert.Equal(t, usdl.UnionOf(usdl.PrimitiveRef(usdl.String), usdl.PrimitiveRef(usdl.Int64)), payment.Type)
}

func TestParse_LogicalTypes(t *testing.T) {
	tests := []struct {
		avro string
		want usdl.Primitive
	}{
		{avro: `{"type": "int", "logicalType": "date"}`, want: usdl.Date},
		{avro: `{"type": "int", "logicalType": "time-millis"}`, want: usdl.Time},
		{avro: `{"type": "long", "logicalType": "time-micros"}`, want: usdl.Time},
		{avro: `{"type": "long", "logicalType": "timestamp-millis"}`, want: usdl.DateTime},
		{avro: `{"type": "long", "logicalType": "local-timestamp-micros"}`, want: usdl.DateTime},
		{avro: `{"type": "string", "logicalType": "uuid"}`, want: usdl.String},
		{avro: `{"type": "fixed", "name": "Money", "size": 16, "logicalType": "decimal", "precision": 20}`, want: usdl.Decimal},
		{avro: `{"type": "fixed", "name": "Hash", "size": 32}`, want: usdl.Bytes},
		{avro: `{"type": "int", "logicalType": "unknown-thing"}`, want: usdl.Int32},
		{avro: `"float"`, want: usdl.Float32},
	}

	for _, tt := range tests {
		t.Run(tt.avro, func(t *testing.T) {
			doc := parse(t, `{"type": "record", "name": "R", "fields": [{"name": "f", "type": `+tt.avro+`}]}`)
			assert.Equal(t, usdl.PrimitiveRef(tt.want), doc.Lookup("R").Field("f").Type)
		})
	}
}

func TestParse_FixedNameAliasesBytes(t *testing.T) {
	doc := parse(t, `{"type": "record", "name": "R", "fields": [
		{"name": "a", "type": {"type": "fixed", "name": "Hash", "size": 32}},
		{"name": "b", "type": "Hash"}
	]}`)
	assert.Equal(t, usdl.PrimitiveRef(usdl.Bytes), doc.Lookup("R").Field("b").Type)
}

func TestParse_TopLevelUnion(t *testing.T) {
	doc := parse(t, `[
		{"type": "enum", "name": "Color", "namespace": "paint", "symbols": ["RED", "BLUE"]},
		{"type": "record", "name": "Car", "fields": [{"name": "color", "type": "paint.Color"}]}
	]`)
	require.Len(t, doc.Types, 2)
	assert.Equal(t, "paint", doc.Namespace)
	assert.Equal(t, usdl.NamedRef("Color"), doc.Lookup("Car").Field("color").Type)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name   string
		schema string
		kind   error
	}{
		{name: "not json", schema: `{"type": "record",`, kind: usdl.ErrMalformedInput},
		{name: "missing comma in object", schema: `{"type":"record" "name":"R" "fields":[{"name":"a" "type":"string"}]}`, kind: usdl.ErrMalformedInput},
		{name: "missing comma in array", schema: `{"type":"record","name":"R","fields":[{"name":"a","type":"string"} {"name":"b","type":"int"}]}`, kind: usdl.ErrMalformedInput},
		{name: "missing colon", schema: `{"type" "record","name":"R","fields":[]}`, kind: usdl.ErrMalformedInput},
		{name: "missing fields", schema: `{"type": "record", "name": "R"}`, kind: usdl.ErrMalformedInput},
		{name: "undefined reference", schema: `{"type": "record", "name": "R", "fields": [{"name": "a", "type": "Missing"}]}`, kind: usdl.ErrUnresolvedTypeReference},
		{
			name: "hoisting collision",
			schema: `{"type": "record", "name": "R", "fields": [
				{"name": "a", "type": {"type": "record", "name": "x.Item", "fields": []}},
				{"name": "b", "type": {"type": "record", "name": "y.Item", "fields": []}}
			]}`,
			kind: usdl.ErrUnresolvedTypeReference,
		},
		{name: "nullable array items", schema: `{"type": "record", "name": "R", "fields": [{"name": "a", "type": {"type": "array", "items": ["null", "string"]}}]}`, kind: usdl.ErrUnsupportedConstruct},
		{name: "primitive root", schema: `"string"`, kind: usdl.ErrUnsupportedConstruct},
		{name: "array root", schema: `{"type": "array", "items": "string"}`, kind: usdl.ErrUnsupportedConstruct},
		{name: "duplicate field", schema: `{"type": "record", "name": "R", "fields": [{"name": "a", "type": "int"}, {"name": "a", "type": "long"}]}`, kind: usdl.ErrConstraintViolation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := (&Translator{}).Parse([]byte(tt.schema))
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.kind)
		})
	}
}

func TestRender_InlinesAtFirstUse(t *testing.T) {
	doc := parse(t, orderSchema)

	output, err := (&Translator{}).Render(doc, usdl.RenderOptions{PrettyPrint: true})
	require.NoError(t, err)

	var result map[string]any
	require.NoError(t, json.Unmarshal(output, &result))

	assert.Equal(t, "record", result["type"])
	assert.Equal(t, "Order", result["name"])
	assert.Equal(t, "com.example.sales", result["namespace"])
	assert.Equal(t, "A customer order", result["doc"])

	fields := result["fields"].([]any)
	types := extractFieldTypes(fields)

	customer := types["customer"].(map[string]any)
	assert.Equal(t, "Customer", customer["name"])
	assert.Equal(t, "Customer", types["billTo"])

	lines := types["lines"].(map[string]any)
	assert.Equal(t, "array", lines["type"])
	line := lines["items"].(map[string]any)
	price := extractFieldTypes(line["fields"].([]any))["price"].(map[string]any)
	assert.Equal(t, map[string]any{"type": "bytes", "logicalType": "decimal", "precision": float64(38), "scale": float64(9)}, price)

	assert.Equal(t, []any{"string", "null"}, types["note"])
	assert.Equal(t, []any{"null", "string", "long"}, types["payment"])
	assert.Equal(t, map[string]any{"type": "long", "logicalType": "timestamp-millis"}, types["createdAt"])

	defaults := extractDefaults(fields)
	assert.Equal(t, "none", defaults["note"])
	assert.Contains(t, defaults, "payment")
	assert.Nil(t, defaults["payment"])
	assert.NotContains(t, defaults, "id")
}

func TestRender_MultipleRootsBecomeUnion(t *testing.T) {
	doc := &usdl.Document{Types: []*usdl.TypeDefinition{
		{Name: "A", Kind: usdl.KindStructure, Fields: []*usdl.Field{{Name: "x", Type: usdl.PrimitiveRef(usdl.Int32)}}},
		{Name: "B", Kind: usdl.KindEnum, Values: []usdl.EnumValue{{Name: "ONE"}, {Name: "TWO", Ordinal: 1}}},
	}}

	output, err := (&Translator{}).Render(doc, usdl.RenderOptions{})
	require.NoError(t, err)
	assert.Equal(t, `[{"type":"record","name":"A","fields":[{"name":"x","type":"int"}]},{"type":"enum","name":"B","symbols":["ONE","TWO"]}]`, string(output))
}

func TestRender_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  *usdl.Document
		kind error
	}{
		{
			name: "unreferenced named union",
			doc: &usdl.Document{Types: []*usdl.TypeDefinition{
				{Name: "U", Kind: usdl.KindUnion, Members: []usdl.UnionMember{{Type: usdl.PrimitiveRef(usdl.String)}, {Type: usdl.PrimitiveRef(usdl.Int32)}}},
			}},
			kind: usdl.ErrUnsupportedConstruct,
		},
		{
			name: "invalid field name",
			doc: &usdl.Document{Types: []*usdl.TypeDefinition{
				{Name: "A", Kind: usdl.KindStructure, Fields: []*usdl.Field{{Name: "first-name", Type: usdl.PrimitiveRef(usdl.String)}}},
			}},
			kind: usdl.ErrConstraintViolation,
		},
		{
			name: "dangling reference",
			doc: &usdl.Document{Types: []*usdl.TypeDefinition{
				{Name: "A", Kind: usdl.KindStructure, Fields: []*usdl.Field{{Name: "b", Type: usdl.NamedRef("B")}}},
			}},
			kind: usdl.ErrUnresolvedTypeReference,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := (&Translator{}).Render(tt.doc, usdl.RenderOptions{})
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.kind)
		})
	}
}

func TestRender_DefaultBranchComesFirst(t *testing.T) {
	payment := &usdl.TypeDefinition{Name: "Payment", Kind: usdl.KindUnion, Members: []usdl.UnionMember{
		{Type: usdl.PrimitiveRef(usdl.Int64)},
		{Type: usdl.PrimitiveRef(usdl.String)},
	}}
	tests := []struct {
		name     string
		field    *usdl.Field
		wantType []any
		wantDef  any
	}{
		{
			name:     "explicit null default",
			field:    &usdl.Field{Name: "f", Type: usdl.PrimitiveRef(usdl.String), Optional: true, Default: udm.Null()},
			wantType: []any{"null", "string"},
			wantDef:  nil,
		},
		{
			name:     "optional without default",
			field:    &usdl.Field{Name: "f", Type: usdl.PrimitiveRef(usdl.String), Optional: true},
			wantType: []any{"null", "string"},
			wantDef:  nil,
		},
		{
			name:     "optional with value default",
			field:    &usdl.Field{Name: "f", Type: usdl.PrimitiveRef(usdl.String), Optional: true, Default: udm.String("x")},
			wantType: []any{"string", "null"},
			wantDef:  "x",
		},
		{
			name:     "optional union with string default",
			field:    &usdl.Field{Name: "f", Type: usdl.NamedRef("Payment"), Optional: true, Default: udm.String("x")},
			wantType: []any{"string", "long", "null"},
			wantDef:  "x",
		},
		{
			name:     "optional union with null default",
			field:    &usdl.Field{Name: "f", Type: usdl.NamedRef("Payment"), Optional: true, Default: udm.Null()},
			wantType: []any{"null", "long", "string"},
			wantDef:  nil,
		},
		{
			name:     "required union with string default",
			field:    &usdl.Field{Name: "f", Type: usdl.NamedRef("Payment"), Default: udm.String("x")},
			wantType: []any{"string", "long"},
			wantDef:  "x",
		},
		{
			name:     "required union with number default",
			field:    &usdl.Field{Name: "f", Type: usdl.NamedRef("Payment"), Default: udm.Int(7)},
			wantType: []any{"long", "string"},
			wantDef:  float64(7),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := &usdl.Document{Types: []*usdl.TypeDefinition{
				{Name: "A", Kind: usdl.KindStructure, Fields: []*usdl.Field{tt.field}},
				payment,
			}}
			output, err := (&Translator{}).Render(doc, usdl.RenderOptions{})
			require.NoError(t, err)

			var result map[string]any
			require.NoError(t, json.Unmarshal(output, &result))
			fields := result["fields"].([]any)
			assert.Equal(t, tt.wantType, extractFieldTypes(fields)["f"])
			defaults := extractDefaults(fields)
			require.Contains(t, defaults, "f")
			assert.Equal(t, tt.wantDef, defaults["f"])
		})
	}
}

func TestRender_DefaultMatchesNoBranch(t *testing.T) {
	tests := []struct {
		name  string
		field *usdl.Field
	}{
		{name: "required union", field: &usdl.Field{Name: "f", Type: usdl.NamedRef("Payment"), Default: udm.Bool(true)}},
		{name: "null default on required union", field: &usdl.Field{Name: "f", Type: usdl.NamedRef("Payment"), Default: udm.Null()}},
		{name: "optional union", field: &usdl.Field{Name: "f", Type: usdl.NamedRef("Payment"), Optional: true, Default: udm.NewArray()}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := &usdl.Document{Types: []*usdl.TypeDefinition{
				{Name: "A", Kind: usdl.KindStructure, Fields: []*usdl.Field{tt.field}},
				{Name: "Payment", Kind: usdl.KindUnion, Members: []usdl.UnionMember{
					{Type: usdl.PrimitiveRef(usdl.Int64)},
					{Type: usdl.PrimitiveRef(usdl.String)},
				}},
			}}
			_, err := (&Translator{}).Render(doc, usdl.RenderOptions{})
			require.Error(t, err)
			assert.ErrorIs(t, err, usdl.ErrConstraintViolation)
		})
	}
}

func TestRender_NamedArrayExpandsAtUse(t *testing.T) {
	doc := &usdl.Document{Types: []*usdl.TypeDefinition{
		{Name: "A", Kind: usdl.KindStructure, Fields: []*usdl.Field{{Name: "tags", Type: usdl.NamedRef("Tags")}}},
		{Name: "Tags", Kind: usdl.KindArray, Items: &usdl.TypeRef{Primitive: usdl.String}},
	}}

	output, err := (&Translator{}).Render(doc, usdl.RenderOptions{})
	require.NoError(t, err)
	assert.Equal(t, `{"type":"record","name":"A","fields":[{"name":"tags","type":{"type":"array","items":"string"}}]}`, string(output))
}

func TestRoundTrip_IsStable(t *testing.T) {
	translator := &Translator{}
	first := parse(t, orderSchema)

	out, err := translator.Render(first, usdl.RenderOptions{PrettyPrint: true})
	require.NoError(t, err)
	second, err := translator.Parse(out)
	require.NoError(t, err)

	out2, err := translator.Render(second, usdl.RenderOptions{PrettyPrint: true})
	require.NoError(t, err)
	third, err := translator.Parse(out2)
	require.NoError(t, err)

	opts := []cmp.Option{cmpopts.EquateEmpty(), cmp.Comparer(udm.Equal)}
	if diff := cmp.Diff(second, third, opts...); diff != "" {
		t.Errorf("round trip not stable (-want +got):\n%s", diff)
	}
	assert.Equal(t, string(out), string(out2))
}

func TestRender_Idempotent(t *testing.T) {
	doc := parse(t, orderSchema)
	for _, pretty := range []bool{true, false} {
		a, err := (&Translator{}).Render(doc, usdl.RenderOptions{PrettyPrint: pretty})
		require.NoError(t, err)
		b, err := (&Translator{}).Render(doc, usdl.RenderOptions{PrettyPrint: pretty})
		require.NoError(t, err)
		assert.Equal(t, a, b)
	}
}

func extractFieldTypes(fields []any) map[string]any {
	types := make(map[string]any, len(fields))
	for _, f := range fields {
		field := f.(map[string]any)
		types[field["name"].(string)] = field["type"]
	}
	return types
}

func extractDefaults(fields []any) map[string]any {
	defaults := make(map[string]any)
	for _, f := range fields {
		field := f.(map[string]any)
		if d, ok := field["default"]; ok {
			defaults[field["name"].(string)] = d
		}
	}
	return defaults
}
