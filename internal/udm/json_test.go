// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Daco Labs

package udm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseJSON_RejectsMissingSeparators(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "missing colon", input: `{"a" 1}`},
		{name: "missing comma in array", input: `[1 2]`},
		{name: "missing comma in object", input: `{"a":1 "b":2}`},
		{name: "nested missing comma", input: `{"fields":[{"name":"a" "type":"string"}]}`},
		{name: "trailing comma", input: `{"a":1,}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := ParseJSON([]byte(tt.input))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrSyntax)
			assert.Nil(t, v)
		})
	}
}

func TestParseJSON_AcceptsWellFormed(t *testing.T) {
	for _, input := range []string{`{"a": 1, "b": [1, 2]}`, `[]`, `"s"`, `null`, " {\n\"a\" : true }\n"} {
		_, err := ParseJSON([]byte(input))
		assert.NoError(t, err, input)
	}
}
