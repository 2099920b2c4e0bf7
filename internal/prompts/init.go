// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Daco Labs

package prompts

import (
	"github.com/charmbracelet/huh"
	"github.com/rs/zerolog"

	"github.com/dacolabs/usdl/internal/config"
)

// RunInitForm runs the interactive form for the init command, filling cfg
// with the answers. Current values are the preselected defaults.
func RunInitForm(cfg *config.Config) error {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Pretty-print rendered schemas?").
				Value(&cfg.Render.PrettyPrint),
			huh.NewConfirm().
				Title("Keep anonymous XSD types where the source declared them?").
				Value(&cfg.Render.PreservePattern),
		),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Log level").
				Options(
					huh.NewOption("Debug", zerolog.LevelDebugValue),
					huh.NewOption("Info", zerolog.LevelInfoValue),
					huh.NewOption("Warn", zerolog.LevelWarnValue),
					huh.NewOption("Error", zerolog.LevelErrorValue),
				).
				Value(&cfg.Logging.Level),
			huh.NewSelect[string]().
				Title("Log format").
				Options(
					huh.NewOption("Auto (console on a terminal)", ""),
					huh.NewOption("Console", config.LogFormatConsole),
					huh.NewOption("JSON", config.LogFormatJSON),
				).
				Value(&cfg.Logging.Format),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Server listen address").
				Placeholder(":8080").
				Validate(requiredValidator("listen address")).
				Value(&cfg.Server.Addr),
		),
	).WithTheme(Theme()).Run()
}
