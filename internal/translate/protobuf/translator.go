// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Daco Labs

// Package protobuf lowers proto3 definitions into the canonical model and
// raises canonical documents back into proto3.
package protobuf

import (
	"embed"
	"text/template"

	"github.com/dacolabs/usdl/internal/usdl"
)

//go:embed protobuf.proto.tmpl
var tmplFS embed.FS

var tmpl = template.Must(template.ParseFS(tmplFS, "protobuf.proto.tmpl"))

// Translator converts between Protocol Buffers (proto3) definitions and the
// canonical model.
type Translator struct{}

// Format returns usdl.Protobuf.
func (t *Translator) Format() usdl.Format {
	return usdl.Protobuf
}

// FileExtension returns the file extension for Protocol Buffers files.
func (t *Translator) FileExtension() string {
	return ".proto"
}
