package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Versifine/slping/internal/logger"
	"github.com/Versifine/slping/internal/probe"
	"github.com/Versifine/slping/internal/slp"
)

func statusCmd(g *globalFlags) *cobra.Command {
	var (
		port        uint16
		protocol    uint32
		timeout     time.Duration
		raw         bool
		asJSON      bool
		faviconPath string
	)

	cmd := &cobra.Command{
		Use:   "status <host[:port]>",
		Short: "Query one server and print its status",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := g.loadConfig(cmd); err != nil {
				return err
			}
			target, err := slp.ParseTarget(args[0])
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("port") {
				target = target.WithPort(port)
			}
			if cmd.Flags().Changed("protocol") {
				target = target.WithProtocolVersion(protocol)
			}

			p := probe.New(probe.WithTimeout(timeout), probe.WithLogger(logger.L()))
			res := p.Probe(cmd.Context(), target)
			if res.Err != nil {
				if raw && res.Raw != "" {
					// the exchange worked, only the JSON mapping failed
					fmt.Fprintln(cmd.OutOrStdout(), res.Raw)
				}
				return res.Err
			}

			out := cmd.OutOrStdout()
			switch {
			case raw:
				fmt.Fprintln(out, res.Raw)
			case asJSON:
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				if err := enc.Encode(res.Status); err != nil {
					return err
				}
			default:
				printStatus(out, res)
			}

			if faviconPath != "" {
				png, err := res.Status.FaviconPNG()
				if err != nil {
					return err
				}
				if err := os.WriteFile(faviconPath, png, 0o644); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().Uint16VarP(&port, "port", "p", slp.DefaultPort, "server port")
	cmd.Flags().Uint32Var(&protocol, "protocol", slp.LatestProtocolVersion, "protocol version sent in the handshake")
	cmd.Flags().DurationVarP(&timeout, "timeout", "t", probe.DefaultTimeout, "timeout for connect and exchange")
	cmd.Flags().BoolVar(&raw, "raw", false, "print the response JSON exactly as received")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the decoded status as JSON")
	cmd.Flags().StringVar(&faviconPath, "favicon", "", "write the server favicon (PNG) to this file")
	cmd.MarkFlagsMutuallyExclusive("raw", "json")

	return cmd
}

func printStatus(w io.Writer, res probe.Result) {
	s := res.Status
	fmt.Fprintf(w, "%s  (%s)\n", res.Target, res.Latency.Round(time.Millisecond))
	fmt.Fprintf(w, "  Version:  %s (protocol %d)\n", s.Version.Name, s.Version.Protocol)
	fmt.Fprintf(w, "  Players:  %d/%d\n", s.Players.Online, s.Players.Max)
	if len(s.Players.Sample) > 0 {
		names := make([]string, 0, len(s.Players.Sample))
		for _, p := range s.Players.Sample {
			names = append(names, p.Name)
		}
		fmt.Fprintf(w, "            %s\n", strings.Join(names, ", "))
	}
	for i, line := range strings.Split(s.Description.PlainText(), "\n") {
		label := "  MOTD:     "
		if i > 0 {
			label = "            "
		}
		fmt.Fprintf(w, "%s%s\n", label, line)
	}
	if mods := s.Mods(); len(mods) > 0 {
		fmt.Fprintf(w, "  Mods:     %d\n", len(mods))
		for _, m := range mods {
			fmt.Fprintf(w, "            %s %s\n", m.ModID, m.Version)
		}
	}
	if s.Favicon != "" {
		fmt.Fprintln(w, "  Favicon:  yes")
	}
}
