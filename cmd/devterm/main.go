package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/loykin/devterm"
)

func main() {
	root := buildRoot(devterm.Options{})
	if err := root.Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// GlobalFlags holds the persistent flags shared by every command.
type GlobalFlags struct {
	ConfigPath string
	Platform   string
}

// buildRoot creates the command tree. opts is handed to devterm.Open so
// tests can swap the executor.
func buildRoot(opts devterm.Options) *cobra.Command {
	flags := &GlobalFlags{}
	c := command{flags: flags, opts: opts}

	root := &cobra.Command{
		Use:   "devterm",
		Short: "Launch development commands in separate terminal windows",
		Long: `devterm opens every command configured in devterm.yaml in its own
terminal window, then offers a menu to show, start, stop, restart and
refresh them. Leaving the menu stops everything it started.

Examples:
  devterm                       # start all commands and open the menu
  devterm init                  # write a sample devterm.yaml
  devterm list                  # show configured commands
  devterm check                 # validate commands and colors
  devterm serve                 # headless: HTTP API + /metrics
  devterm ctl restart Vite      # drive a running serve`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.Interactive(cmd)
		},
	}
	root.PersistentFlags().StringVar(&flags.ConfigPath, "config", "", "path to devterm.yaml (default: search the working directory)")
	root.PersistentFlags().StringVar(&flags.Platform, "platform", "", "override OS detection (windows, linux, macos)")

	root.AddCommand(
		createInitCommand(c),
		createListCommand(c),
		createCheckCommand(c),
		createHistoryCommand(c),
		createServeCommand(c),
		createCtlCommand(c),
	)
	return root
}

func createInitCommand(c command) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write a sample devterm.yaml",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "devterm.yaml"
			if len(args) > 0 {
				path = args[0]
			}
			return c.Init(cmd.OutOrStdout(), path, force)
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	return cmd
}

func createListCommand(c command) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List configured commands with their resolved definition",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.List(cmd)
		},
	}
}

func createCheckCommand(c command) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Validate every command definition for this OS",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.Check(cmd)
		},
	}
}

func createHistoryCommand(c command) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent lifecycle events from history.dsn",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.History(cmd, limit)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "number of events")
	return cmd
}

func createServeCommand(c command) *cobra.Command {
	var listen, base string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start all commands and expose the HTTP control API",
		Long: `Start every command, then serve the control API and Prometheus
metrics until interrupted. SIGINT or SIGTERM stops all commands.

Examples:
  devterm serve
  devterm serve --listen :8787 --base-path /api
  curl -X POST 'http://127.0.0.1:8787/api/restart?name=Vite'`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.Serve(cmd, listen, base)
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "", "listen address (default server.listen)")
	cmd.Flags().StringVar(&base, "base-path", "", "API base path (default server.base_path)")
	return cmd
}
