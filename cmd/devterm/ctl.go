package main

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/loykin/devterm/pkg/client"
)

// CtlFlags select the devterm serve instance to talk to.
type CtlFlags struct {
	URL      string
	Token    string
	CACert   string
	Insecure bool
}

func createCtlCommand(c command) *cobra.Command {
	f := &CtlFlags{}
	ctl := &cobra.Command{
		Use:   "ctl",
		Short: "Drive a running `devterm serve` over HTTP",
		Long: `Drive a running devterm serve. Without --url the address, base path,
token and TLS setting come from the server section of devterm.yaml.

Examples:
  devterm ctl status
  devterm ctl restart Vite
  devterm ctl --url https://devbox:8787/api --token $TOKEN --ca-cert .devterm/certs/tls_ca.crt stop-all`,
	}
	ctl.PersistentFlags().StringVar(&f.URL, "url", "", "API base URL")
	ctl.PersistentFlags().StringVar(&f.Token, "token", "", "bearer token (default server.token)")
	ctl.PersistentFlags().StringVar(&f.CACert, "ca-cert", "", "CA certificate for https")
	ctl.PersistentFlags().BoolVar(&f.Insecure, "insecure", false, "skip TLS verification")

	named := func(use, short string, op func(*client.Client, context.Context, string) error) *cobra.Command {
		return &cobra.Command{
			Use:   use + " NAME",
			Short: short,
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				cl, err := c.client(f)
				if err != nil {
					return err
				}
				if err := op(cl, cmd.Context(), args[0]); err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "✅ %s %s\n", use, args[0])
				return nil
			},
		}
	}
	batch := func(use, short string, op func(*client.Client, context.Context) error) *cobra.Command {
		return &cobra.Command{
			Use:   use,
			Short: short,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				cl, err := c.client(f)
				if err != nil {
					return err
				}
				if err := op(cl, cmd.Context()); err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "✅ %s\n", use)
				return nil
			},
		}
	}

	status := &cobra.Command{
		Use:   "status",
		Short: "Show every command with its state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cl, err := c.client(f)
			if err != nil {
				return err
			}
			cmds, err := cl.Commands(cmd.Context())
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(cmds))
			for _, s := range cmds {
				state, id := "stopped", "-"
				if s.Running {
					state, id = "running", strconv.Itoa(s.ID)
				}
				rows = append(rows, []string{s.Name, state, id, s.Liveness, s.Command})
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), newTable("NAME", "STATE", "ID", "LIVENESS", "COMMAND").Rows(rows...).String())
			return nil
		},
	}
	refresh := &cobra.Command{
		Use:   "refresh",
		Short: "Re-evaluate dynamic commands on the server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cl, err := c.client(f)
			if err != nil {
				return err
			}
			names, err := cl.Refresh(cmd.Context())
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), strings.Join(names, "\n"))
			return nil
		},
	}

	ctl.AddCommand(
		status,
		refresh,
		named("start", "Start one command", (*client.Client).Start),
		named("stop", "Stop one command", (*client.Client).Stop),
		named("restart", "Restart one command", (*client.Client).Restart),
		batch("start-all", "Start every command", (*client.Client).StartAll),
		batch("stop-all", "Stop every running command", (*client.Client).StopAll),
		batch("restart-all", "Restart every command", (*client.Client).RestartAll),
	)
	return ctl
}

// client builds an API client from flags, falling back to the server
// section of the configuration.
func (c command) client(f *CtlFlags) (*client.Client, error) {
	cfg := client.DefaultConfig()
	cfg.BaseURL = f.URL
	cfg.Token = f.Token

	if cfg.BaseURL == "" || cfg.Token == "" {
		fc, err := c.load()
		if err != nil {
			return nil, err
		}
		if cfg.BaseURL == "" {
			scheme := "http"
			if fc.Server.TLS.Enabled {
				scheme = "https"
			}
			base := strings.Trim(fc.Server.BasePath, "/")
			if base != "" {
				base = "/" + base
			}
			cfg.BaseURL = scheme + "://" + dialAddr(fc.Server.Listen) + base
		}
		if cfg.Token == "" {
			cfg.Token = fc.Server.Token
		}
	}
	if f.CACert != "" || f.Insecure {
		cfg.TLS = &client.TLSClientConfig{CACert: f.CACert, SkipVerify: f.Insecure}
	}
	return client.New(cfg)
}

// dialAddr turns a listen address into one a client can dial.
func dialAddr(listen string) string {
	host, port, err := net.SplitHostPort(listen)
	if err != nil {
		return listen
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "127.0.0.1"
	}
	return net.JoinHostPort(host, port)
}
