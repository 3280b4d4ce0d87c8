package main

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/Wikid82/formguard/internal/logger"
	"github.com/Wikid82/formguard/internal/metrics"
	"github.com/Wikid82/formguard/internal/server"
	"github.com/Wikid82/formguard/internal/version"
)

func serveRun(ctx context.Context) error {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics.Register(registry)

	logger.Log().WithField("version", version.Full()).Infof("starting %s", version.Name)

	srv := server.New(env.db, env.cfg, registry)
	return srv.Run(ctx)
}

func serveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API (default)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serveRun(cmd.Context())
		},
	}
}
