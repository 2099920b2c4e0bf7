// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Daco Labs

package prompts

import (
	"github.com/charmbracelet/huh"

	"github.com/dacolabs/usdl/internal/usdl"
)

// FormatSelect returns a select field listing every schema format.
func FormatSelect(title string, value *string) *huh.Select[string] {
	names := usdl.FormatNames()
	options := make([]huh.Option[string], len(names))
	for i, name := range names {
		options[i] = huh.NewOption(name, name)
	}
	return huh.NewSelect[string]().
		Title(title).
		Options(options...).
		Value(value)
}

// RunFormatSelect asks for a schema format and stores its name in value.
func RunFormatSelect(title string, value *string) error {
	return huh.NewForm(huh.NewGroup(FormatSelect(title, value))).
		WithTheme(Theme()).
		Run()
}
