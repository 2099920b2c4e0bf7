// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Daco Labs

// Package xsd lowers W3C XML Schema documents into the canonical model and
// raises canonical documents back into XML Schema, in either the Venetian
// Blind or the Russian Doll layout.
package xsd

import "github.com/dacolabs/usdl/internal/usdl"

// XMLSchemaNamespace is the namespace of XML Schema 1.0 constructs and
// built-in types.
const XMLSchemaNamespace = "http://www.w3.org/2001/XMLSchema"

// Translator converts between XML Schema definitions and the canonical model.
type Translator struct{}

// Format returns usdl.XSD.
func (t *Translator) Format() usdl.Format {
	return usdl.XSD
}

// FileExtension returns the file extension for XML Schema files.
func (t *Translator) FileExtension() string {
	return ".xsd"
}
