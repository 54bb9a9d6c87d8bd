package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"juntas/internal/platform/httpserver"
	"juntas/internal/platform/otel"
)

func serveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE:  serveRun,
	}
}

func serveRun(cmd *cobra.Command, _ []string) error {
	cfg, log, err := commonRun()
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := otel.Setup(ctx, programName, cfg.OtelEndpoint)
	if err != nil {
		return fmt.Errorf("setup tracing: %w", err)
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			log.Warn("tracing shutdown failed", "error", err)
		}
	}()

	if cfg.UsesDevResetSecret() {
		log.Warn("JUNTAS_RESET_SECRET is not set; using the development key")
	}

	a, err := newApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.close()

	if err := a.seed(ctx); err != nil {
		return err
	}

	srv := httpserver.New(cfg.Addr, a.router())
	log.Info("starting server", "addr", cfg.Addr, "base_path", cfg.BasePath, "storage", cfg.Storage)
	return httpserver.Run(ctx, srv, cfg.ShutdownTimeout, log)
}
