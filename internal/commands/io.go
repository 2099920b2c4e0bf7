// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Daco Labs

package commands

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/dacolabs/usdl/internal/prompts"
	"github.com/dacolabs/usdl/internal/schemafn"
	"github.com/dacolabs/usdl/internal/session"
	"github.com/dacolabs/usdl/internal/translate"
	"github.com/dacolabs/usdl/internal/udm"
	"github.com/dacolabs/usdl/internal/usdl"
)

// stdio names standard input or output in file arguments.
const stdio = "-"

func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == stdio {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, fmt.Errorf("failed to read stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(path) //nolint:gosec // path is provided by the user
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}

func writeOutput(cmd *cobra.Command, path string, data []byte) error {
	if path == "" || path == stdio {
		_, err := cmd.OutOrStdout().Write(data)
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// sourceFormat resolves the format of a schema file from an explicit name or
// the file extension.
func sourceFormat(path, name string) (usdl.Format, error) {
	if name != "" {
		return usdl.ParseFormat(name)
	}
	if path == stdio {
		return 0, errors.New("reading from stdin needs an explicit format")
	}
	return translate.FormatForPath(path)
}

// targetFormat resolves the --to flag, asking for it when the flag is empty
// and the session is interactive.
func targetFormat(cmd *cobra.Command, name string) (usdl.Format, error) {
	if name == "" {
		if !prompts.Interactive(cmd.InOrStdin()) {
			return 0, errors.New("--to is required")
		}
		if err := prompts.RunFormatSelect("Target format", &name); err != nil {
			return 0, err
		}
	}
	return usdl.ParseFormat(name)
}

// loadTree reads a schema file in any supported format, or a canonical tree,
// and returns the validated canonical tree.
func loadTree(cmd *cobra.Command, path, formatName string) (*udm.Value, error) {
	src, err := readInput(cmd, path)
	if err != nil {
		return nil, err
	}
	if formatName == "" && translate.IsCanonicalPath(path) {
		return decodeCanonical(src)
	}
	f, err := sourceFormat(path, formatName)
	if err != nil {
		return nil, err
	}
	return schemafn.Parse(f, src)
}

// decodeCanonical parses canonical tree JSON and normalizes it through the
// document model.
func decodeCanonical(src []byte) (*udm.Value, error) {
	tree, err := udm.ParseJSON(src)
	if err != nil {
		return nil, fmt.Errorf("invalid canonical tree: %w", err)
	}
	doc, err := usdl.FromTree(tree)
	if err != nil {
		return nil, err
	}
	return usdl.ToTree(doc), nil
}

// renderOptions starts from the session defaults and applies the --pretty and
// --preserve-pattern flags the user set.
func renderOptions(cmd *cobra.Command, s *session.Context) usdl.RenderOptions {
	opts := s.RenderOptions()
	if cmd.Flags().Changed("pretty") {
		opts.PrettyPrint, _ = cmd.Flags().GetBool("pretty")
	}
	if cmd.Flags().Changed("preserve-pattern") {
		opts.PreservePattern, _ = cmd.Flags().GetBool("preserve-pattern")
	}
	return opts
}

func addRenderFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("pretty", false, "Indent JSON and XML output (defaults to render.prettyPrint)")
	cmd.Flags().Bool("preserve-pattern", false, "Keep anonymous XSD types where the source declared them (defaults to render.preservePattern)")
}
