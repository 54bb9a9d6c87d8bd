package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/automaxprocs/maxprocs"

	"juntas/internal/platform/config"
	"juntas/internal/platform/logger"
)

const programName = "juntas"

// commonRun loads configuration and installs the process logger. Every
// subcommand starts here.
func commonRun() (config.Server, *slog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Server{}, nil, err
	}
	log := logger.New(cfg.LogLevel, cfg.LogFormat).With("component", programName)
	slog.SetDefault(log)

	if _, err := maxprocs.Set(maxprocs.Logger(func(format string, v ...any) {
		log.Info(fmt.Sprintf(format, v...))
	})); err != nil {
		return config.Server{}, nil, fmt.Errorf("set GOMAXPROCS: %w", err)
	}
	return cfg, log, nil
}

func main() {
	rootCmd := &cobra.Command{
		Use:           programName,
		Short:         "API de las Juntas de Acción Comunal de Boyacá",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          serveRun,
	}
	rootCmd.AddCommand(
		serveCommand(),
		migrateCommand(),
		seedCommand(),
	)

	if err := rootCmd.Execute(); err != nil {
		slog.Error(err.Error())
		os.Exit(1)
	}
}
