package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/ruo0o0/music-album/internal/app"
	"github.com/ruo0o0/music-album/internal/docstore"
)

const shutdownTimeout = 5 * time.Second

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	Bind string
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the local document store over HTTP",
		Long: `Serve the badger or sqlite store from [docstore] over HTTP so other
album clients can use it with backend = "http".

Bearer tokens and the users they belong to come from [server] tokens.
Runs until interrupted.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Bind, "bind", "", "listen address (default from [server] bind)")

	return cmd
}

func runServe(ctx context.Context, cmd *cobra.Command, opts *ServeOptions) error {
	cfg, err := loadConfig(opts.RootOptions)
	if err != nil {
		return err
	}
	if len(cfg.Server.Tokens) == 0 {
		return NewExitError(ExitCommandError, "no [server] tokens configured; every request would be rejected")
	}
	bind := cfg.Server.Bind
	if opts.Bind != "" {
		bind = opts.Bind
	}

	logger, logCloser, err := app.OpenLogger(cfg.App.LogFile, cfg.App.LogLevel)
	if err != nil {
		return WrapExitError(ExitCommandError, "open log", err)
	}
	defer logCloser.Close()

	backend, err := app.OpenBackend(cfg.Docstore, logger)
	if err != nil {
		return WrapExitError(ExitCommandError, "open docstore", err)
	}
	defer backend.Close()

	ln, err := net.Listen("tcp", bind)
	if err != nil {
		return WrapExitError(ExitCommandError, "listen", err)
	}

	api := docstore.NewServer(backend, docstore.StaticTokens(cfg.Server.Tokens), logger.With("component", "docstore"))
	srv := &http.Server{
		Handler:           api.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	addr := ln.Addr().String()
	logger.Info("docstore listening", "addr", addr, "backend", cfg.Docstore.Backend)
	fmt.Fprintf(cmd.ErrOrStderr(), "album docstore listening on %s\n", addr)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return WrapExitError(ExitFailure, "serve", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return WrapExitError(ExitFailure, "shutdown", err)
	}
	logger.Info("docstore stopped")
	return nil
}
