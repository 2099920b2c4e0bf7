// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Daco Labs

package commands

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/dacolabs/usdl/internal/prompts"
	"github.com/dacolabs/usdl/internal/schemafn"
	"github.com/dacolabs/usdl/internal/session"
	"github.com/dacolabs/usdl/internal/usdl"
)

type validateOptions struct {
	format string
	target string
}

func newValidateCmd() *cobra.Command {
	opts := &validateOptions{}

	cmd := &cobra.Command{
		Use:   "validate <file>",
		Short: "Check a schema against the canonical model",
		Long: `Check that a schema file or canonical tree satisfies the canonical model.

With --target the document is also rendered into that format and discarded,
which reports the constraints only that format imposes, such as proto3 field
numbers or XSD names.`,
		Example: `  # Validate a canonical tree
  usdl validate order.usdl.json

  # Check that an Avro schema can become proto3
  usdl validate order.avsc --target protobuf`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := session.RequireFromCommand(cmd)
			if err != nil {
				return err
			}
			return runValidate(cmd, s, args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.format, "format", "f", "", "Source format (detected from the extension when empty)")
	cmd.Flags().StringVar(&opts.target, "target", "", "Also check the constraints of this format")

	return cmd
}

func runValidate(cmd *cobra.Command, s *session.Context, path string, opts *validateOptions) error {
	tree, err := loadTree(cmd, path, opts.format)
	if err != nil {
		return err
	}
	doc, err := usdl.FromTree(tree)
	if err != nil {
		return err
	}

	fields := []prompts.ResultField{
		{Label: "Types", Value: strconv.Itoa(len(doc.Types))},
	}
	if opts.target != "" {
		target, err := usdl.ParseFormat(opts.target)
		if err != nil {
			return err
		}
		if _, err := schemafn.Render(target, tree, s.RenderOptions()); err != nil {
			return err
		}
		fields = append(fields, prompts.ResultField{Label: "Target", Value: target.String()})
	}

	prompts.PrintResult(cmd.OutOrStdout(), fields, path+" is valid")
	return nil
}
