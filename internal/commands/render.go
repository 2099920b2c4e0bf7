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

type renderCmdOptions struct {
	to     string
	output string
}

func newRenderCmd() *cobra.Command {
	opts := &renderCmdOptions{}

	cmd := &cobra.Command{
		Use:   "render <canonical.json>",
		Short: "Render a canonical tree into a schema format",
		Long: fmt.Sprintf(`Render a canonical tree (as printed by "usdl parse") into a schema format.

Available formats: %s`, strings.Join(usdl.FormatNames(), ", ")),
		Example: `  # Render a canonical tree as XML Schema
  usdl render order.usdl.json --to xsd --pretty

  # Keep the Russian Doll layout of the original XSD
  usdl render order.usdl.json --to xsd --preserve-pattern -o order.xsd`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := session.RequireFromCommand(cmd)
			if err != nil {
				return err
			}
			return runRender(cmd, s, args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.to, "to", "t", "", "Target format (prompted when empty)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "Output file (stdout when empty)")
	addRenderFlags(cmd)

	return cmd
}

func runRender(cmd *cobra.Command, s *session.Context, path string, opts *renderCmdOptions) error {
	to, err := targetFormat(cmd, opts.to)
	if err != nil {
		return err
	}
	src, err := readInput(cmd, path)
	if err != nil {
		return err
	}
	tree, err := udm.ParseJSON(src)
	if err != nil {
		return usdl.WithFunc(err, schemafn.RenderFuncName(to))
	}

	start := time.Now()
	out, err := schemafn.Render(to, tree, renderOptions(cmd, s))
	if err != nil {
		return err
	}

	s.Logger.Debug().
		Str("file", path).
		Str("format", to.String()).
		Dur("duration", time.Since(start)).
		Msg("rendered schema")

	return writeOutput(cmd, opts.output, out)
}
