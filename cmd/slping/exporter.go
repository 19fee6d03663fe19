package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/Versifine/slping/internal/exporter"
	"github.com/Versifine/slping/internal/logger"
	"github.com/Versifine/slping/internal/metrics"
	"github.com/Versifine/slping/internal/probe"
)

func exporterCmd(g *globalFlags) *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "exporter",
		Short: "Serve Prometheus metrics for the configured servers",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.loadConfig(cmd)
			if err != nil {
				return err
			}
			if listen == "" {
				listen = fmt.Sprintf("%s:%d", cfg.Exporter.Listen.Host, cfg.Exporter.Listen.Port)
			}

			reg := prometheus.NewRegistry()
			reg.MustRegister(
				collectors.NewGoCollector(),
				collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			)
			p := probe.New(
				probe.WithTimeout(cfg.Timeout),
				probe.WithConcurrency(cfg.Concurrency),
				probe.WithLogger(logger.L()),
				probe.WithMetrics(metrics.New(metrics.WithRegistry(reg))),
			)
			srv := exporter.NewServer(exporter.Options{
				Listen:         listen,
				Targets:        cfg.SLPConfigs(),
				Interval:       cfg.Exporter.Interval,
				Prober:         p,
				AllowAnyTarget: cfg.Exporter.AllowAnyTarget,
				Gatherer:       reg,
				Logger:         logger.L(),
			})

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return srv.Start(ctx)
		},
	}

	cmd.Flags().StringVarP(&listen, "listen", "l", "", "listen address (default from config exporter.listen)")
	return cmd
}
