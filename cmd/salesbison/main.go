/*
main.go - salesbison entry point

PURPOSE:
  CLI front door for the sales bot. Subcommands cover the long-running
  gateway process and one-shot slash-command registration.

SUBCOMMANDS:
  serve      Connect to Discord and run the bot (plus the ops HTTP server)
  register   Push the slash-command set to Discord and exit

CONFIGURATION:
  Everything comes from environment variables, optionally layered over a
  YAML file (--config or CONFIG_FILE). See config/config.go for the full
  list; DISCORD_TOKEN, DISCORD_APP_ID, GOOGLE_SHEET_ID and
  GOOGLE_SERVICE_JSON are the required core.

EXAMPLES:
  # Run against the real sheet
  salesbison serve

  # Local wiring check without touching Google Sheets
  salesbison serve --dry-run

  # Register commands globally (propagation can take up to an hour)
  salesbison register --global

SEE ALSO:
  - serve.go: process wiring and graceful shutdown
  - register.go: one-shot command registration
  - config/config.go: settings and validation
*/
package main

import (
	"fmt"
	"log/slog"
	"os"

	// Sale timestamps are Eastern; resolve America/New_York even on
	// containers with no tzdata package installed.
	_ "time/tzdata"

	"github.com/spf13/cobra"

	"github.com/bisonhq/salesbison/config"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// rootOptions carries flags shared by every subcommand.
type rootOptions struct {
	configFile string
	verbose    bool
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "salesbison",
		Short: "Discord sales tracker backed by a Google Sheets ledger",
		Long: `salesbison runs the Sales Bison Discord bot: guided /sale and /bulksale
capture flows, leaderboards, and per-rep counts, all persisted as
append-only rows in a Google Sheet.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.configFile, "config", "", "YAML config file layered under environment variables")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "force debug logging regardless of LOG_LEVEL")

	cmd.AddCommand(newServeCommand(opts))
	cmd.AddCommand(newRegisterCommand(opts))

	return cmd
}

// newLogger builds the process logger and installs it as slog's default,
// so packages that take no explicit logger land in the same stream.
func newLogger(cfg *config.Config, opts *rootOptions) *slog.Logger {
	level := cfg.LogLevel
	if opts.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return logger
}
