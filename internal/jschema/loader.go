// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Daco Labs

package jschema

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/google/jsonschema-go/jsonschema"

	"github.com/dacolabs/usdl/internal/udm"
)

// ErrDecode is returned when schema text is neither JSON nor YAML, or does
// not describe a schema object.
var ErrDecode = errors.New("invalid JSON Schema document")

// Document is a decoded schema: the typed view for keyword access and the
// ordered tree for property order, defaults and extension keywords.
type Document struct {
	Schema *Schema
	Tree   *udm.Value
	Draft  Draft
}

// Schema is the typed schema node.
type Schema = jsonschema.Schema

// Decode parses JSON or YAML schema text. JSON is tried first; text that does
// not start like JSON is read as YAML.
func Decode(data []byte) (*Document, error) {
	tree, err := DecodeTree(data)
	if err != nil {
		return nil, err
	}
	return Load(tree)
}

// Load builds a Document from an already decoded tree.
func Load(tree *udm.Value) (*Document, error) {
	if tree.Kind != udm.ObjectKind {
		return nil, fmt.Errorf("%w: the root must be an object, got %s", ErrDecode, tree.Kind)
	}
	schema, err := Typed(tree)
	if err != nil {
		return nil, err
	}
	return &Document{Schema: schema, Tree: tree, Draft: DetectDraft(tree)}, nil
}

// DecodeTree parses JSON or YAML schema text into an ordered tree without
// interpreting any keyword.
func DecodeTree(data []byte) (*udm.Value, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("%w: empty document", ErrDecode)
	}
	if trimmed[0] == '{' || trimmed[0] == '[' {
		tree, err := udm.ParseJSON(trimmed)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrDecode, err)
		}
		return tree, nil
	}
	tree, err := udm.ParseYAML(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	return tree, nil
}

// Typed converts an ordered tree into the typed schema view.
func Typed(tree *udm.Value) (*Schema, error) {
	raw, err := udm.ToJSON(tree, false)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	var schema Schema
	if err := json.Unmarshal(raw, &schema); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	return &schema, nil
}
