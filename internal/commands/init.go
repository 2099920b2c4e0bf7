// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Daco Labs

package commands

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/dacolabs/usdl/internal/config"
	"github.com/dacolabs/usdl/internal/prompts"
)

type initOptions struct {
	nonInteractive bool
}

func newInitCmd() *cobra.Command {
	opts := &initOptions{}

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a usdl.yaml in the current directory",
		Long: `Create a usdl.yaml configuration file in the current directory.

The file sets the default render options, logging and the address of the
HTTP service. Commands run without it use the built-in defaults.`,
		Example: `  # Interactive mode
  usdl init

  # Write the defaults
  usdl init --non-interactive`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(cmd, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.nonInteractive, "non-interactive", false, "Write the defaults without prompting")

	return cmd
}

func runInit(cmd *cobra.Command, opts *initOptions) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get current directory: %w", err)
	}

	cfgPath := filepath.Join(cwd, config.FileName)
	if _, err := os.Stat(cfgPath); err == nil {
		return errors.New(config.FileName + " already exists; project already initialized")
	}

	cfg := config.Default()
	if !opts.nonInteractive {
		if !prompts.Interactive(cmd.InOrStdin()) {
			return errors.New("no terminal to prompt on; use --non-interactive")
		}
		if err := prompts.RunInitForm(cfg); err != nil {
			return err
		}
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if err := cfg.Save(cfgPath); err != nil {
		return fmt.Errorf("config file couldn't be saved: %w", err)
	}

	prompts.PrintResult(cmd.OutOrStdout(), []prompts.ResultField{
		{Label: "Pretty print", Value: strconv.FormatBool(cfg.Render.PrettyPrint)},
		{Label: "Preserve pattern", Value: strconv.FormatBool(cfg.Render.PreservePattern)},
		{Label: "Log level", Value: cfg.Logging.Level},
		{Label: "Server", Value: cfg.Server.Addr},
	}, "Initialization completed")

	return nil
}
