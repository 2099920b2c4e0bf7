// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Daco Labs

package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/dacolabs/usdl/internal/schemafn"
	"github.com/dacolabs/usdl/internal/session"
	"github.com/dacolabs/usdl/internal/udm"
	"github.com/dacolabs/usdl/internal/usdl"
)

type parseOptions struct {
	format string
	output string
}

func newParseCmd() *cobra.Command {
	opts := &parseOptions{}

	cmd := &cobra.Command{
		Use:   "parse <file>",
		Short: "Parse a schema into its canonical tree",
		Long: fmt.Sprintf(`Parse a schema file into the canonical tree and print it as JSON.

The format is taken from --format or detected from the file extension
(.avsc, .xsd, .json, .yaml, .yml, .proto). Use - to read from stdin.

Available formats: %s`, strings.Join(usdl.FormatNames(), ", ")),
		Example: `  # Print the canonical tree of an Avro schema
  usdl parse order.avsc

  # Save it next to the source
  usdl parse order.xsd -o order.usdl.json

  # Read a proto file from stdin
  cat order.proto | usdl parse - --format protobuf`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := session.RequireFromCommand(cmd)
			if err != nil {
				return err
			}
			return runParse(cmd, s, args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.format, "format", "f", "", "Source format (detected from the extension when empty)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "Output file (stdout when empty)")
	cmd.Flags().Bool("pretty", false, "Indent the canonical JSON (defaults to render.prettyPrint)")

	return cmd
}

func runParse(cmd *cobra.Command, s *session.Context, path string, opts *parseOptions) error {
	f, err := sourceFormat(path, opts.format)
	if err != nil {
		return err
	}
	src, err := readInput(cmd, path)
	if err != nil {
		return err
	}

	start := time.Now()
	tree, err := schemafn.Parse(f, src)
	if err != nil {
		return err
	}
	out, err := udm.ToJSON(tree, renderOptions(cmd, s).PrettyPrint)
	if err != nil {
		return err
	}

	s.Logger.Debug().
		Str("file", path).
		Str("format", f.String()).
		Int("types", tree.Get(usdl.KeyTypes).Len()).
		Dur("duration", time.Since(start)).
		Msg("parsed schema")

	return writeOutput(cmd, opts.output, out)
}
