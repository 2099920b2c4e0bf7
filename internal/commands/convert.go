// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Daco Labs

package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/dacolabs/usdl/internal/prompts"
	"github.com/dacolabs/usdl/internal/schemafn"
	"github.com/dacolabs/usdl/internal/session"
	"github.com/dacolabs/usdl/internal/usdl"
)

type convertOptions struct {
	from   string
	to     string
	output string
}

func newConvertCmd() *cobra.Command {
	opts := &convertOptions{}

	cmd := &cobra.Command{
		Use:   "convert <file>",
		Short: "Convert a schema to another format",
		Long: fmt.Sprintf(`Convert a schema file to another format through the canonical tree.

The source format is taken from --from or detected from the file extension.
When --to is missing and the terminal is interactive, the target format is
prompted for.

Available formats: %s`, strings.Join(usdl.FormatNames(), ", ")),
		Example: `  # Interactive mode
  usdl convert order.avsc

  # Avro to proto3
  usdl convert order.avsc --to protobuf -o order.proto

  # JSON Schema in YAML to XML Schema
  usdl convert order.schema.yaml --to xsd --pretty`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := session.RequireFromCommand(cmd)
			if err != nil {
				return err
			}
			return runConvert(cmd, s, args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.from, "from", "f", "", "Source format (detected from the extension when empty)")
	cmd.Flags().StringVarP(&opts.to, "to", "t", "", "Target format (prompted when empty)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "Output file (stdout when empty)")
	addRenderFlags(cmd)

	return cmd
}

func runConvert(cmd *cobra.Command, s *session.Context, path string, opts *convertOptions) error {
	from, err := sourceFormat(path, opts.from)
	if err != nil {
		return err
	}
	to, err := targetFormat(cmd, opts.to)
	if err != nil {
		return err
	}
	src, err := readInput(cmd, path)
	if err != nil {
		return err
	}

	start := time.Now()
	out, err := schemafn.Convert(from, to, src, renderOptions(cmd, s))
	if err != nil {
		return err
	}

	s.Logger.Debug().
		Str("file", path).
		Str("from", from.String()).
		Str("to", to.String()).
		Dur("duration", time.Since(start)).
		Msg("converted schema")

	if err := writeOutput(cmd, opts.output, out); err != nil {
		return err
	}
	if opts.output != "" && opts.output != stdio {
		prompts.PrintResult(cmd.OutOrStdout(), []prompts.ResultField{
			{Label: "From", Value: from.String()},
			{Label: "To", Value: to.String()},
			{Label: "Output", Value: opts.output},
		}, "")
	}
	return nil
}
