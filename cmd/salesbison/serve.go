/*
serve.go - Long-running bot process

PURPOSE:
  Wires the whole stack together and runs it until a signal arrives:
  config, the Sheets-backed ledger, the roster cache, the capture
  engine and its session janitor, the Discord gateway, and the
  read-only ops HTTP server.

STARTUP SEQUENCE:
  1. Load config (env over optional YAML)
  2. Build the sheet client and ping the spreadsheet (fail fast)
  3. Warm the roster cache (failure is non-fatal; lookups retry)
  4. Start the session janitor
  5. Open the Discord gateway and register commands
  6. Start the ops HTTP server (unless OPS_ADDR is empty)

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Close the gateway (no new interactions)
  2. Stop the janitor
  3. Shut down the ops server (30s timeout)

SEE ALSO:
  - bot/bot.go: gateway session and handler registration
  - api/server.go: ops router
  - wizard/janitor.go: session sweep loop
*/
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/bisonhq/salesbison/api"
	"github.com/bisonhq/salesbison/bot"
	"github.com/bisonhq/salesbison/config"
	"github.com/bisonhq/salesbison/ledger"
	"github.com/bisonhq/salesbison/ledger/store"
	"github.com/bisonhq/salesbison/roster"
	"github.com/bisonhq/salesbison/store/sheets"
	"github.com/bisonhq/salesbison/wizard"
)

const (
	startupTimeout  = 30 * time.Second
	shutdownTimeout = 30 * time.Second
)

type serveOptions struct {
	root   *rootOptions
	dryRun bool
}

func newServeCommand(root *rootOptions) *cobra.Command {
	opts := &serveOptions{root: root}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Connect to Discord and run the bot",
		Long: `serve connects to the Discord gateway, registers the slash commands,
and serves the capture flows against the configured Google Sheet. It
also exposes the read-only ops HTTP endpoints unless OPS_ADDR is empty.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts)
		},
	}

	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "use in-memory stores instead of Google Sheets")

	return cmd
}

func runServe(opts *serveOptions) error {
	cfg, err := config.Load(opts.root.configFile)
	if err != nil {
		return err
	}
	logger := newLogger(cfg, opts.root)

	startCtx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()

	var (
		salesStore ledger.Store
		rosterSrc  roster.Source
		pinger     api.Pinger
	)
	if opts.dryRun {
		salesStore = store.NewMemory()
		rosterSrc = store.NewMemory()
		logger.Warn("dry run: in-memory stores, nothing touches Google Sheets and the roster starts empty")
	} else {
		client, err := sheets.New(startCtx, sheets.Config{
			SpreadsheetID:   cfg.SheetID,
			CredentialsJSON: cfg.ServiceJSON,
			SalesRange:      cfg.SalesRange,
			RosterRange:     cfg.RosterRange,
		})
		if err != nil {
			return fmt.Errorf("building sheets client: %w", err)
		}
		if err := client.Ping(startCtx); err != nil {
			return fmt.Errorf("reaching spreadsheet %s: %w", cfg.SheetID, err)
		}
		salesStore = client
		rosterSrc = client.RosterRange()
		pinger = client
	}

	ledg := ledger.New(salesStore)

	rosterCache := roster.NewCache(roster.CacheConfig{Source: rosterSrc, Logger: logger})
	if err := rosterCache.ForceRefresh(startCtx); err != nil {
		logger.Warn("initial roster load failed, lookups will retry on demand", "error", err)
	} else {
		logger.Info("roster loaded", "reps", rosterCache.Len())
	}

	engine := wizard.NewEngine(wizard.EngineConfig{
		Ledger: ledg,
		Roster: rosterCache,
		Logger: logger,
	})

	janitor := wizard.NewJanitor(engine.Sessions())
	janitor.Logger = logger
	janitor.Start()

	b, err := bot.New(bot.Options{
		Conf:   cfg,
		Engine: engine,
		Ledger: ledg,
		Roster: rosterCache,
		Logger: logger,
	})
	if err != nil {
		janitor.Stop()
		return err
	}
	if err := b.Start(); err != nil {
		janitor.Stop()
		return err
	}

	var ops *http.Server
	if cfg.OpsAddr != "" {
		handler := api.NewHandler(ledg, pinger, logger)
		ops = &http.Server{
			Addr:         cfg.OpsAddr,
			Handler:      api.NewRouter(handler),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		}
		go func() {
			logger.Info("ops server listening", "addr", cfg.OpsAddr)
			if err := ops.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("ops server failed", "error", err)
			}
		}()
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(quit)

	sig := <-quit
	logger.Info("shutting down", "signal", sig.String())

	if err := b.Stop(); err != nil {
		logger.Warn("closing gateway", "error", err)
	}
	janitor.Stop()
	if ops != nil {
		shutCtx, cancelShut := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancelShut()
		if err := ops.Shutdown(shutCtx); err != nil {
			logger.Warn("ops server shutdown", "error", err)
		}
	}

	logger.Info("stopped")
	return nil
}
