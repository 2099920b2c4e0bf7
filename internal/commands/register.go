// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Daco Labs

// Package commands contains all CLI command definitions.
package commands

import (
	"github.com/spf13/cobra"

	"github.com/dacolabs/usdl/internal/session"
)

// NewRootCmd creates and returns the root command for the CLI. Environment
// lookups go through getenv.
func NewRootCmd(getenv func(string) string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "usdl",
		Short: "Convert schemas between Avro, XSD, JSON Schema and Protocol Buffers",
		Long: `Convert schemas between Avro, XML Schema, JSON Schema and proto3 through a
canonical intermediate form.

Each format is lowered into the canonical tree and raised back out of it, so
any pair of formats can be converted and the canonical tree can be inspected,
validated and diffed on its own.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: session.PreRunLoad(getenv),
	}

	rootCmd.AddCommand(
		newInitCmd(),
		newParseCmd(),
		newRenderCmd(),
		newConvertCmd(),
		newValidateCmd(),
		newDiffCmd(),
		newWatchCmd(),
		newServeCmd(),
		newVersionCmd(),
	)

	return rootCmd
}
