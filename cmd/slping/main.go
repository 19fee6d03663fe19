package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Versifine/slping/internal/config"
	"github.com/Versifine/slping/internal/logger"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

type globalFlags struct {
	configPath string
	logLevel   string
	logFormat  string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}
	rootCmd := &cobra.Command{
		Use:   "slping",
		Short: "Query Minecraft servers via Server List Ping",
		Long: `slping asks Minecraft Java servers for their public status
(version, players, MOTD, mods) without logging in.

Query a single server with "slping status", a list of servers with
"slping probe", or run "slping exporter" to serve Prometheus metrics.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&g.configPath, "config", "c", "configs/config.yaml", "path to the YAML config file")
	rootCmd.PersistentFlags().StringVar(&g.logLevel, "log-level", "", "log level (debug, info, warn, error); overrides the config file")
	rootCmd.PersistentFlags().StringVar(&g.logFormat, "log-format", "", "log format (console, text, json); overrides the config file")

	rootCmd.AddCommand(
		statusCmd(g),
		probeCmd(g),
		exporterCmd(g),
		versionCmd(),
	)
	return rootCmd
}

// loadConfig reads the config file. A missing file is only an error when the
// path was set explicitly.
func (g *globalFlags) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(g.configPath)
	if err != nil {
		if os.IsNotExist(err) && !cmd.Flags().Changed("config") {
			cfg = config.Default()
		} else {
			return nil, err
		}
	}
	if g.logLevel != "" {
		cfg.Logging.Level = g.logLevel
	}
	if g.logFormat != "" {
		cfg.Logging.Format = g.logFormat
	}
	logger.Init(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	return cfg, nil
}
