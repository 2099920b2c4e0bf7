// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Daco Labs

package usdl

import "strings"

func isWordRune(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}

// ToPascalCase converts a property, element or title string into a type name
// used for hoisted anonymous definitions, e.g. "shipping_address" and
// "shipping address" both become "ShippingAddress".
func ToPascalCase(s string) string {
	parts := strings.FieldsFunc(s, func(r rune) bool { return !isWordRune(r) })

	var sb strings.Builder
	for _, part := range parts {
		sb.WriteString(strings.ToUpper(part[:1]) + part[1:])
	}
	result := sb.String()
	if result != "" && result[0] >= '0' && result[0] <= '9' {
		result = "T" + result
	}
	return result
}

// SimpleName strips any namespace or package qualifier from a dotted name.
func SimpleName(name string) string {
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		return name[i+1:]
	}
	return name
}

// IsIdentifier reports whether s is a letter-or-underscore led run of ASCII
// letters, digits and underscores, the identifier syntax shared by Avro names
// and proto3 identifiers.
func IsIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}
