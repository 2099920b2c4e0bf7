// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Daco Labs

package commands

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/sergi/go-diff/diffmatchpatch"
	"github.com/spf13/cobra"

	"github.com/dacolabs/usdl/internal/logging"
	"github.com/dacolabs/usdl/internal/udm"
)

// ErrSchemasDiffer is returned by diff when the canonical trees differ.
var ErrSchemasDiffer = errors.New("schemas differ")

type diffOptions struct {
	fromFormat string
	toFormat   string
}

func newDiffCmd() *cobra.Command {
	opts := &diffOptions{}

	cmd := &cobra.Command{
		Use:   "diff <a> <b>",
		Short: "Compare two schemas through their canonical trees",
		Long: `Compare two schemas, in the same or different formats, by parsing both into
the canonical tree and printing a line diff of the results.

The command fails when the trees differ, so it can gate round trips in CI.`,
		Example: `  # Did the round trip through proto3 lose anything?
  usdl diff order.avsc order.proto

  # Compare a canonical tree with a schema
  usdl diff order.usdl.json order.xsd`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDiff(cmd, args[0], args[1], opts)
		},
	}

	cmd.Flags().StringVar(&opts.fromFormat, "a-format", "", "Format of the first file (detected when empty)")
	cmd.Flags().StringVar(&opts.toFormat, "b-format", "", "Format of the second file (detected when empty)")

	return cmd
}

func runDiff(cmd *cobra.Command, a, b string, opts *diffOptions) error {
	left, err := canonicalText(cmd, a, opts.fromFormat)
	if err != nil {
		return err
	}
	right, err := canonicalText(cmd, b, opts.toFormat)
	if err != nil {
		return err
	}
	if left == right {
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no differences")
		return nil
	}
	writeLineDiff(cmd.OutOrStdout(), a, b, left, right)
	return ErrSchemasDiffer
}

func canonicalText(cmd *cobra.Command, path, format string) (string, error) {
	tree, err := loadTree(cmd, path, format)
	if err != nil {
		return "", err
	}
	out, err := udm.ToJSON(tree, true)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// writeLineDiff prints a unified-style line diff of two texts. Colour is
// used only when w is a terminal.
func writeLineDiff(w io.Writer, nameA, nameB, a, b string) {
	removed := color.New(color.FgRed)
	added := color.New(color.FgGreen)
	header := color.New(color.Bold)
	if !logging.IsTerminal(w) {
		removed.DisableColor()
		added.DisableColor()
		header.DisableColor()
	}

	dmp := diffmatchpatch.New()
	charsA, charsB, lines := dmp.DiffLinesToChars(a, b)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(charsA, charsB, false), lines)

	_, _ = header.Fprintf(w, "--- %s\n+++ %s\n", nameA, nameB)
	for _, d := range diffs {
		for _, line := range strings.SplitAfter(d.Text, "\n") {
			if line == "" {
				continue
			}
			if !strings.HasSuffix(line, "\n") {
				line += "\n"
			}
			switch d.Type {
			case diffmatchpatch.DiffDelete:
				_, _ = removed.Fprint(w, "-"+line)
			case diffmatchpatch.DiffInsert:
				_, _ = added.Fprint(w, "+"+line)
			case diffmatchpatch.DiffEqual:
				_, _ = fmt.Fprint(w, " "+line)
			}
		}
	}
}
