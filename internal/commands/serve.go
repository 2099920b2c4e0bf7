// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Daco Labs

package commands

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/dacolabs/usdl/internal/metrics"
	"github.com/dacolabs/usdl/internal/server"
	"github.com/dacolabs/usdl/internal/session"
)

type serveOptions struct {
	addr string
}

func newServeCmd() *cobra.Command {
	opts := &serveOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP conversion service",
		Long: `Serve the conversion functions over HTTP:

  POST /v1/parse/{format}     schema text in, canonical JSON out
  POST /v1/render/{format}    canonical JSON in, schema text out
  POST /v1/convert?from=&to=  schema text in, schema text out
  GET  /health
  GET  /metrics               Prometheus metrics

render and convert accept pretty and preservePattern query parameters.`,
		Example: `  # Listen on the configured address
  usdl serve

  # Override it
  usdl serve --addr 127.0.0.1:9000`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := session.RequireFromCommand(cmd)
			if err != nil {
				return err
			}
			return runServe(cmd, s, opts)
		},
	}

	cmd.Flags().StringVar(&opts.addr, "addr", "", "Listen address (defaults to server.addr)")

	return cmd
}

func newServer(s *session.Context) *server.Server {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return server.New(server.Options{
		Logger:       s.Logger,
		Metrics:      metrics.NewWithRegistry(reg),
		Gatherer:     reg,
		MaxBodyBytes: s.Config.Server.MaxBodyBytes,
		Render:       s.RenderOptions(),
	})
}

func runServe(cmd *cobra.Command, s *session.Context, opts *serveOptions) error {
	addr := opts.addr
	if addr == "" {
		addr = s.Config.Server.Addr
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return newServer(s).ListenAndServe(ctx, addr)
}
