package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/sebastianleon1-sys/Zerby2/internal/database"
	"github.com/sebastianleon1-sys/Zerby2/internal/handler"
	"github.com/sebastianleon1-sys/Zerby2/internal/repository"
	"github.com/sebastianleon1-sys/Zerby2/internal/router"
	"github.com/sebastianleon1-sys/Zerby2/internal/server"
	"github.com/sebastianleon1-sys/Zerby2/internal/service"
)

// DefaultShutdownTimeout bounds graceful shutdown after a signal.
const DefaultShutdownTimeout = 30 * time.Second

func serveCmd() *cobra.Command {
	var (
		skipMigrate     bool
		shutdownTimeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Migrate the database and run the HTTP API and job workers",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(commandContext(cmd), skipMigrate, shutdownTimeout)
		},
	}

	cmd.Flags().BoolVar(&skipMigrate, "skip-migrate", false, "Do not run migrations before serving")
	cmd.Flags().DurationVar(&shutdownTimeout, "shutdown-timeout", DefaultShutdownTimeout, "Grace period for in-flight requests")

	return cmd
}

func serve(parent context.Context, skipMigrate bool, shutdownTimeout time.Duration) error {
	cfg, log, loggerService, err := bootstrap()
	if err != nil {
		return err
	}
	defer loggerService.Shutdown()

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if !skipMigrate {
		if err := database.Migrate(ctx, log, cfg); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}

	srv, err := server.New(cfg, log, loggerService)
	if err != nil {
		return fmt.Errorf("initialize server: %w", err)
	}

	repos := repository.NewRepositories(srv)

	srv.Job.InitHandlers(srv.Email, srv.Geocoder, repos)
	if err := srv.Job.Start(); err != nil {
		_ = srv.Shutdown(context.Background())
		return err
	}

	services, err := service.NewService(srv, repos)
	if err != nil {
		_ = srv.Shutdown(context.Background())
		return fmt.Errorf("initialize services: %w", err)
	}

	handlers := handler.NewHandlers(srv, services)
	srv.SetupHTTPServer(router.NewRouter(srv, handlers))

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		// Relays chat events published by other instances to local sockets.
		if err := srv.Emitter.Listen(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("realtime listener: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("server stopped with error")
		return err
	}

	log.Info().Msg("server exited properly")
	return nil
}
