package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/amaumene/cinematch/internal/api"
	"github.com/amaumene/cinematch/internal/scheduler"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	root, c := newRootCommand()
	defer c.close()
	return root.Execute()
}

// cli holds the application shared by the subcommands of one invocation
type cli struct {
	app     *App
	cleanup func()
}

func newRootCommand() (*cobra.Command, *cli) {
	c := &cli{}

	root := &cobra.Command{
		Use:           "cinematch",
		Short:         "Browse movies and keep your watched list, favorites and watchlist",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.open(cmd)
		},
	}

	root.AddCommand(
		c.serveCommand(),
		c.moviesCommand(),
		c.movieCommand(),
		c.personCommand(),
		c.searchCommand(),
		c.authCommand(),
		c.profileCommand(),
		c.listCommand(),
		c.genresCommand(),
	)
	return root, c
}

func (c *cli) open(cmd *cobra.Command) error {
	app, cleanup, err := initializeApp()
	if err != nil {
		return err
	}
	c.app = app
	c.cleanup = cleanup

	// Keep stdout for command output
	if cmd.Name() != "serve" {
		app.Logger.SetOutput(cmd.ErrOrStderr())
	}

	if err := app.Start(cmd.Context()); err != nil {
		app.Logger.WithError(err).Warn("Continuing signed out")
	}
	return nil
}

func (c *cli) close() {
	if c.app != nil {
		c.app.Stop()
		c.app = nil
	}
	if c.cleanup != nil {
		c.cleanup()
		c.cleanup = nil
	}
}

func (c *cli) serveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the local HTTP API and the refresh scheduler",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.serve()
		},
	}
}

func (c *cli) serve() error {
	app := c.app
	cfg := app.Config
	logger := app.Logger
	logger.Info("Starting Cinematch")

	// 1. Initialize scheduler
	sched := scheduler.NewScheduler(app.Movies, app.Profiles, cfg.RefreshCron, 2*cfg.HTTPTimeout, logger)
	if err := sched.Start(); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	defer sched.Stop()

	// 2. Initialize HTTP server
	server := api.NewServer(cfg, app.Movies, app.People, app.Profiles, app.Session, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	serverErrChan := make(chan error, 1)
	go func() {
		if err := server.Start(ctx); err != nil {
			serverErrChan <- err
		}
	}()

	// 3. Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	logger.WithField("backend", cfg.Backend).Info("Cinematch is running")

	select {
	case err := <-serverErrChan:
		return fmt.Errorf("server error: %w", err)
	case sig := <-sigChan:
		logger.WithField("signal", sig).Info("Received shutdown signal")
		cancel()
		if err := server.Shutdown(context.Background()); err != nil {
			logger.WithError(err).Error("Error during server shutdown")
		}
	}

	logger.Info("Cinematch stopped")
	return nil
}
