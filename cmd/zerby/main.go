// Command zerby runs the marketplace API and its operational tasks.
package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/sebastianleon1-sys/Zerby2/internal/config"
	"github.com/sebastianleon1-sys/Zerby2/internal/logger"
)

const appName = "zerby"

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   appName,
		Short: "Services marketplace API",
		Long: `Zerby connects usuarios with nearby proveedores: requests, chat,
payment confirmation by PIN, ratings and portfolios.

Configuration is read from ZERBY_* environment variables (and .env).`,
		SilenceUsage: true,
	}

	cmd.AddCommand(
		serveCmd(),
		migrateCmd(),
		resetDBCmd(),
		seedCmd(),
		emailPreviewCmd(),
	)

	return cmd
}

// bootstrap loads the config and builds the logger every command shares.
// The caller must Shutdown the returned service.
func bootstrap() (*config.Config, *zerolog.Logger, *logger.LoggerService, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load config: %w", err)
	}

	loggerService := logger.NewLoggerService(cfg.Observability)
	log := logger.NewLoggerWithService(cfg.Observability, loggerService)

	return cfg, &log, loggerService, nil
}
