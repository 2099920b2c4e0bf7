// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Daco Labs

package udm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseJSON_KeepsKeyOrder(t *testing.T) {
	v, err := ParseJSON([]byte(`{"zeta": 1, "alpha": {"b": true, "a": null}, "mid": [1, "x"]}`))
	require.NoError(t, err)

	assert.Equal(t, []string{"zeta", "alpha", "mid"}, v.Keys)
	assert.Equal(t, []string{"b", "a"}, v.Get("alpha").Keys)
	assert.True(t, v.Get("alpha").Get("a").IsNull())

	i, ok := v.Get("zeta").Int64()
	require.True(t, ok)
	assert.Equal(t, int64(1), i)
	assert.Equal(t, 2, v.Get("mid").Len())
}

func TestParseJSON_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "empty", input: ""},
		{name: "duplicate key", input: `{"a": 1, "a": 2}`},
		{name: "trailing data", input: `{"a": 1} {"b": 2}`},
		{name: "unterminated", input: `{"a": [1, 2`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseJSON([]byte(tt.input))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrSyntax)
		})
	}
}

func TestToJSON_CompactAndPretty(t *testing.T) {
	v := NewObject().
		Set("name", String("a<b")).
		Set("n", Int(42)).
		Set("list", NewArray(Bool(true), Null()))

	compact, err := ToJSON(v, false)
	require.NoError(t, err)
	assert.Equal(t, `{"name":"a<b","n":42,"list":[true,null]}`, string(compact))

	pretty, err := ToJSON(v, true)
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"name\": \"a<b\",\n  \"n\": 42,\n  \"list\": [\n    true,\n    null\n  ]\n}\n", string(pretty))
}

func TestToJSON_RoundTrip(t *testing.T) {
	input := `{"b":[1,2.5,-3e2],"a":{"x":"y"},"c":false}`
	v, err := ParseJSON([]byte(input))
	require.NoError(t, err)

	out, err := ToJSON(v, false)
	require.NoError(t, err)
	assert.Equal(t, input, string(out))
}

func TestSet_ReplacesInPlace(t *testing.T) {
	v := NewObject().Set("a", Int(1)).Set("b", Int(2))
	v.Set("a", Int(3))

	assert.Equal(t, []string{"a", "b"}, v.Keys)
	i, _ := v.Get("a").Int64()
	assert.Equal(t, int64(3), i)
}

func TestEqual(t *testing.T) {
	a := NewObject().Set("x", Number("1.0")).Set("y", NewArray(String("s")))
	b := NewObject().Set("y", NewArray(String("s"))).Set("x", Int(1))

	assert.True(t, Equal(a, b))
	assert.False(t, Equal(a, NewObject().Set("x", Int(1))))
	assert.True(t, Equal(nil, Null()))
	assert.False(t, Equal(String("1"), Int(1)))
}

func TestClone_IsDeep(t *testing.T) {
	orig := NewObject().Set("inner", NewObject().Set("k", String("v")))
	cp := orig.Clone()
	cp.Get("inner").Set("k", String("changed"))

	s, _ := orig.Get("inner").Get("k").Str()
	assert.Equal(t, "v", s)
}

func TestParseYAML(t *testing.T) {
	input := `
type: object
properties:
  name:
    type: string
  age:
    type: integer
    minimum: 0
required: [name]
ratio: 0.5
enabled: yes
`
	v, err := ParseYAML([]byte(input))
	require.NoError(t, err)

	assert.Equal(t, []string{"type", "properties", "required", "ratio", "enabled"}, v.Keys)
	assert.Equal(t, []string{"name", "age"}, v.Get("properties").Keys)

	min, ok := v.Get("properties").Get("age").Get("minimum").Int64()
	require.True(t, ok)
	assert.Equal(t, int64(0), min)

	f, ok := v.Get("ratio").Float64()
	require.True(t, ok)
	assert.InDelta(t, 0.5, f, 1e-9)

	// yaml.v3 follows YAML 1.2 where "yes" is a plain string.
	s, ok := v.Get("enabled").Str()
	require.True(t, ok)
	assert.Equal(t, "yes", s)
}

func TestParseYAML_Errors(t *testing.T) {
	_, err := ParseYAML([]byte("{{invalid yaml"))
	assert.ErrorIs(t, err, ErrSyntax)

	_, err = ParseYAML([]byte("a: 1\na: 2\n"))
	assert.Error(t, err)
}
