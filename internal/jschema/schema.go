// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Daco Labs

// Package jschema provides JSON Schema decoding, draft detection, $ref
// classification and traversal utilities.
package jschema

import (
	"strings"

	"github.com/dacolabs/usdl/internal/udm"
)

// Draft identifies a JSON Schema dialect.
type Draft uint8

const (
	DraftUnknown Draft = iota
	Draft04
	Draft06
	Draft07
	Draft201909
	Draft202012
)

// MetaSchema202012 is the $schema URI written on output.
const MetaSchema202012 = "https://json-schema.org/draft/2020-12/schema"

func (d Draft) String() string {
	switch d {
	case Draft04:
		return "draft-04"
	case Draft06:
		return "draft-06"
	case Draft07:
		return "draft-07"
	case Draft201909:
		return "2019-09"
	case Draft202012:
		return "2020-12"
	default:
		return "unknown"
	}
}

// Supported reports whether documents of draft d can be lowered.
func (d Draft) Supported() bool {
	return d == Draft07 || d == Draft201909 || d == Draft202012
}

// DraftFromURI maps a $schema URI to its draft.
func DraftFromURI(uri string) Draft {
	switch {
	case strings.Contains(uri, "draft-04"):
		return Draft04
	case strings.Contains(uri, "draft-06"):
		return Draft06
	case strings.Contains(uri, "draft-07"):
		return Draft07
	case strings.Contains(uri, "2019-09"):
		return Draft201909
	case strings.Contains(uri, "2020-12"):
		return Draft202012
	}
	return DraftUnknown
}

// DetectDraft returns the draft named by $schema, or guesses it from the
// keywords in use: $defs and prefixItems imply 2020-12, definitions and
// array-valued items imply draft-07. Documents with no hint are treated as
// 2020-12.
func DetectDraft(tree *udm.Value) Draft {
	if uri, ok := tree.Get("$schema").Str(); ok {
		return DraftFromURI(uri)
	}
	var (
		modern, legacy bool
		visit          func(v *udm.Value)
	)
	visit = func(v *udm.Value) {
		switch v.Kind {
		case udm.ObjectKind:
			for i, k := range v.Keys {
				switch k {
				case "$defs", "prefixItems", "dependentSchemas", "unevaluatedProperties":
					modern = true
				case "definitions", "dependencies", "additionalItems":
					legacy = true
				case "items":
					if v.Values[i].Kind == udm.ArrayKind {
						legacy = true
					}
				}
				visit(v.Values[i])
			}
		case udm.ArrayKind:
			for _, it := range v.Items {
				visit(it)
			}
		}
	}
	visit(tree)
	if legacy && !modern {
		return Draft07
	}
	return Draft202012
}

// RefKind classifies a $ref value.
type RefKind uint8

const (
	// RefNone is an empty $ref.
	RefNone RefKind = iota
	// RefDefinition points at a local $defs/definitions entry.
	RefDefinition
	// RefRoot is the self reference "#".
	RefRoot
	// RefLocalPointer is any other local JSON pointer.
	RefLocalPointer
	// RefExternal points into another document (file or URL).
	RefExternal
)

// ClassifyRef reports what kind of target ref points at.
func ClassifyRef(ref string) RefKind {
	switch {
	case ref == "":
		return RefNone
	case ref == "#":
		return RefRoot
	case IsFileRef(ref):
		return RefExternal
	case RefDefName(ref) != "":
		return RefDefinition
	}
	return RefLocalPointer
}

// IsFileRef returns true if ref points outside the current document.
// Local refs start with "#".
func IsFileRef(ref string) bool {
	return ref != "" && !strings.HasPrefix(ref, "#")
}

// RefDefName extracts the definition name from a $ref string.
// Supports $defs, definitions, and components/schemas (OpenAPI) formats.
// Returns empty string if the ref format is not recognized.
func RefDefName(ref string) string {
	path, ok := strings.CutPrefix(ref, "#/")
	if !ok {
		return ""
	}
	var name string
	switch {
	case strings.HasPrefix(path, "$defs/"):
		name = strings.TrimPrefix(path, "$defs/")
	case strings.HasPrefix(path, "definitions/"):
		name = strings.TrimPrefix(path, "definitions/")
	case strings.HasPrefix(path, "components/schemas/"):
		name = strings.TrimPrefix(path, "components/schemas/")
	default:
		return ""
	}
	if strings.Contains(name, "/") {
		return ""
	}
	return unescapePointer(name)
}

// DefRef returns the 2020-12 $ref to the named definition.
func DefRef(name string) string {
	return "#/$defs/" + escapePointer(name)
}

func unescapePointer(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(s, "~1", "/"), "~0", "~")
}

func escapePointer(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(s, "~", "~0"), "/", "~1")
}
