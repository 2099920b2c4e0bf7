// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Daco Labs

// Package jsonschema lowers JSON Schema documents (drafts 07, 2019-09 and
// 2020-12, JSON or YAML) into the canonical model and raises canonical
// documents as draft 2020-12.
package jsonschema

import "github.com/dacolabs/usdl/internal/usdl"

// Extension keywords carrying canonical metadata JSON Schema has no word for.
const (
	keyFieldNumber  = "x-field-number"
	keyEnumOrdinals = "x-enum-ordinals"
)

// Translator converts between JSON Schema and the canonical model.
type Translator struct{}

// Format returns usdl.JSONSchema.
func (t *Translator) Format() usdl.Format {
	return usdl.JSONSchema
}

// FileExtension returns the file extension for JSON Schema files.
func (t *Translator) FileExtension() string {
	return ".json"
}
