// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Daco Labs

// Package translate dispatches schema conversion to the per-format
// translators. Cross-format conversion always passes through the canonical
// model.
package translate

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/dacolabs/usdl/internal/translate/avro"
	"github.com/dacolabs/usdl/internal/translate/jsonschema"
	"github.com/dacolabs/usdl/internal/translate/protobuf"
	"github.com/dacolabs/usdl/internal/translate/xsd"
	"github.com/dacolabs/usdl/internal/usdl"
)

// Translator defines the interface all format translators implement.
type Translator interface {
	// Format returns the schema format the translator handles.
	Format() usdl.Format

	// FileExtension returns the conventional file extension (e.g. ".avsc").
	FileExtension() string

	// Parse lowers format source text into a validated canonical document.
	Parse(src []byte) (*usdl.Document, error)

	// Render raises a canonical document into format source text.
	Render(doc *usdl.Document, opts usdl.RenderOptions) ([]byte, error)
}

// For returns the translator of format f.
func For(f usdl.Format) (Translator, error) {
	switch f {
	case usdl.Avro:
		return &avro.Translator{}, nil
	case usdl.XSD:
		return &xsd.Translator{}, nil
	case usdl.JSONSchema:
		return &jsonschema.Translator{}, nil
	case usdl.Protobuf:
		return &protobuf.Translator{}, nil
	}
	return nil, fmt.Errorf("unknown format: %s", f)
}

// Parse lowers src written in format f.
func Parse(f usdl.Format, src []byte) (*usdl.Document, error) {
	t, err := For(f)
	if err != nil {
		return nil, err
	}
	return t.Parse(src)
}

// Render raises doc into format f.
func Render(f usdl.Format, doc *usdl.Document, opts usdl.RenderOptions) ([]byte, error) {
	t, err := For(f)
	if err != nil {
		return nil, err
	}
	return t.Render(doc, opts)
}

// Convert parses src as from and renders the canonical result as to.
func Convert(from, to usdl.Format, src []byte, opts usdl.RenderOptions) ([]byte, error) {
	doc, err := Parse(from, src)
	if err != nil {
		return nil, err
	}
	return Render(to, doc, opts)
}

// Canonical is the file suffix of canonical trees stored as JSON.
const Canonical = ".usdl.json"

// IsCanonicalPath reports whether path names a canonical tree file.
func IsCanonicalPath(path string) bool {
	return strings.HasSuffix(strings.ToLower(path), Canonical)
}

// FormatForPath detects the schema format from a file extension.
func FormatForPath(path string) (usdl.Format, error) {
	if IsCanonicalPath(path) {
		return 0, fmt.Errorf("%s holds a canonical tree, not a %s schema", path, strings.Join(usdl.FormatNames(), "/"))
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".avsc":
		return usdl.Avro, nil
	case ".xsd":
		return usdl.XSD, nil
	case ".json", ".yaml", ".yml":
		return usdl.JSONSchema, nil
	case ".proto":
		return usdl.Protobuf, nil
	}
	return 0, fmt.Errorf("cannot detect the schema format of %s; pass --format", path)
}

// FileExtension returns the conventional extension of format f.
func FileExtension(f usdl.Format) string {
	t, err := For(f)
	if err != nil {
		return ""
	}
	return t.FileExtension()
}
