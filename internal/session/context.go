// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Daco Labs

// Package session provides project context loading for CLI commands.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/dacolabs/usdl/internal/config"
	"github.com/dacolabs/usdl/internal/logging"
	"github.com/dacolabs/usdl/internal/usdl"
)

// ErrInvalidConfig indicates the config file exists but is invalid.
var ErrInvalidConfig = errors.New("invalid configuration")

// contextKey is used to store Context in context.Context.
type contextKey struct{}

// Context holds the resolved configuration and the logger built from it.
type Context struct {
	// Config is the usdl.yaml configuration with environment overrides
	// applied, or the defaults when no file exists.
	Config *config.Config

	// ConfigPath is the file the configuration came from; empty for defaults.
	ConfigPath string

	Logger zerolog.Logger
}

// RenderOptions returns the configured default render options.
func (c *Context) RenderOptions() usdl.RenderOptions {
	return usdl.RenderOptions{
		PrettyPrint:     c.Config.Render.PrettyPrint,
		PreservePattern: c.Config.Render.PreservePattern,
	}
}

// Load resolves the configuration of the current working directory, builds
// the logger writing to logOut, and returns a new context.Context with the
// session stored in it.
func Load(ctx context.Context, getenv func(string) string, logOut io.Writer) (context.Context, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get current directory: %w", err)
	}

	cfg := config.Default()
	configPath := filepath.Join(cwd, config.FileName)
	if _, statErr := os.Stat(configPath); os.IsNotExist(statErr) {
		configPath = ""
	} else if cfg, err = config.Load(configPath); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	cfg.ApplyEnv(getenv)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	logger, err := logging.New(cfg.Logging, logOut)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	s := &Context{Config: cfg, ConfigPath: configPath, Logger: logger}
	return context.WithValue(ctx, contextKey{}, s), nil
}

// From extracts the session Context from a context.Context.
// Returns nil if no Context is stored.
func From(ctx context.Context) *Context {
	if s, ok := ctx.Value(contextKey{}).(*Context); ok {
		return s
	}
	return nil
}
