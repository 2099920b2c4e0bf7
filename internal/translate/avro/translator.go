// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Daco Labs

// Package avro lowers Apache Avro schemas into the canonical model and raises
// canonical documents back into Avro.
package avro

import (
	"bytes"

	"github.com/goccy/go-json"

	"github.com/dacolabs/usdl/internal/usdl"
)

// Translator converts between Apache Avro schema definitions and the
// canonical model.
type Translator struct{}

// Format returns usdl.Avro.
func (t *Translator) Format() usdl.Format {
	return usdl.Avro
}

// FileExtension returns the file extension for Avro schema files.
func (t *Translator) FileExtension() string {
	return ".avsc"
}

// encodeJSON marshals v without HTML escaping, indented with two spaces and
// newline terminated when pretty is set.
func encodeJSON(v any, pretty bool) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if pretty {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	if !pretty {
		return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
	}
	return buf.Bytes(), nil
}
