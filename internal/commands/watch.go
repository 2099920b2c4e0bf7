// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Daco Labs

package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/dacolabs/usdl/internal/schemafn"
	"github.com/dacolabs/usdl/internal/session"
	"github.com/dacolabs/usdl/internal/usdl"
)

type watchOptions struct {
	from   string
	to     string
	output string
}

func newWatchCmd() *cobra.Command {
	opts := &watchOptions{}

	cmd := &cobra.Command{
		Use:   "watch <file>",
		Short: "Re-convert a schema every time it changes",
		Long: `Convert a schema file once, then again every time it is written, until
interrupted. Failed conversions are logged and leave the previous output in
place.`,
		Example: `  # Keep order.proto in sync with order.avsc
  usdl watch order.avsc --to protobuf -o order.proto`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := session.RequireFromCommand(cmd)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runWatch(ctx, cmd, s, args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.from, "from", "f", "", "Source format (detected from the extension when empty)")
	cmd.Flags().StringVarP(&opts.to, "to", "t", "", "Target format (prompted when empty)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "Output file")
	addRenderFlags(cmd)
	_ = cmd.MarkFlagRequired("output")

	return cmd
}

func runWatch(ctx context.Context, cmd *cobra.Command, s *session.Context, path string, opts *watchOptions) error {
	if path == stdio {
		return errors.New("watch needs a file, not stdin")
	}
	if opts.output == "" || opts.output == stdio {
		return errors.New("--output is required")
	}
	src, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	dst, err := filepath.Abs(opts.output)
	if err != nil {
		return err
	}
	if src == dst {
		return errors.New("output must differ from the watched file")
	}

	from, err := sourceFormat(path, opts.from)
	if err != nil {
		return err
	}
	to, err := targetFormat(cmd, opts.to)
	if err != nil {
		return err
	}
	renderOpts := renderOptions(cmd, s)

	run := func() {
		start := time.Now()
		err := convertFile(src, dst, from, to, renderOpts)
		if err != nil {
			s.Logger.Error().Err(err).Str("file", path).Msg("conversion failed")
			return
		}
		s.Logger.Info().
			Str("file", path).
			Str("output", opts.output).
			Str("to", to.String()).
			Dur("duration", time.Since(start)).
			Msg("converted schema")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close() //nolint:errcheck

	// Editors that save atomically replace the file, so the directory is
	// watched instead.
	if err := watcher.Add(filepath.Dir(src)); err != nil {
		return fmt.Errorf("watch directory: %w", err)
	}

	run()
	s.Logger.Info().Str("path", path).Msg("watching schema for changes")

	filename := filepath.Base(src)
	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != filename {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				s.Logger.Debug().
					Str("event", event.Op.String()).
					Str("file", event.Name).
					Msg("schema changed")
				run()
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.Logger.Error().Err(err).Msg("file watcher error")

		case <-ctx.Done():
			return nil
		}
	}
}

func convertFile(src, dst string, from, to usdl.Format, opts usdl.RenderOptions) error {
	data, err := os.ReadFile(src) //nolint:gosec // path is provided by the user
	if err != nil {
		return err
	}
	out, err := schemafn.Convert(from, to, data, opts)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, out, 0o600)
}
