package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/Versifine/slping/internal/logger"
	"github.com/Versifine/slping/internal/probe"
	"github.com/Versifine/slping/internal/slp"
)

func probeCmd(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "probe [host[:port]...]",
		Short: "Query every configured server concurrently",
		Long: `Query the targets from the config file plus any given on the command
line, each on its own connection, and print a summary table.
The command fails if any target could not be queried.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.loadConfig(cmd)
			if err != nil {
				return err
			}
			targets := cfg.SLPConfigs()
			for _, arg := range args {
				t, err := slp.ParseTarget(arg)
				if err != nil {
					return err
				}
				targets = append(targets, t)
			}
			if len(targets) == 0 {
				return fmt.Errorf("no targets: add them to %s or pass them as arguments", g.configPath)
			}

			p := probe.New(
				probe.WithTimeout(cfg.Timeout),
				probe.WithConcurrency(cfg.Concurrency),
				probe.WithLogger(logger.L()),
			)
			results := p.ProbeAll(cmd.Context(), targets)
			if err := printResults(cmd.OutOrStdout(), results); err != nil {
				return err
			}

			failed := 0
			for _, r := range results {
				if r.Err != nil {
					failed++
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d targets failed", failed, len(results))
			}
			return nil
		},
	}
	return cmd
}

func printResults(w io.Writer, results []probe.Result) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TARGET\tRESULT\tLATENCY\tVERSION\tPLAYERS\tMOTD")
	for _, r := range results {
		if r.Err != nil {
			fmt.Fprintf(tw, "%s\t%s\t%s\t-\t-\t%v\n", r.Target, r.Outcome(), r.Latency.Round(time.Millisecond), r.Err)
			continue
		}
		s := r.Status
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d/%d\t%s\n", r.Target, r.Outcome(), r.Latency.Round(time.Millisecond),
			s.Version.Name, s.Players.Online, s.Players.Max, firstLine(s.Description.PlainText()))
	}
	return tw.Flush()
}

func firstLine(s string) string {
	before, _, _ := strings.Cut(s, "\n")
	return before
}
