// Package server defines the core Server struct that composes the app's main dependencies.
//
// It contains the initialization logic to spin up the HTTP server
// and handles graceful shutdowns
//
// It owns the lifecycle of:
//   - configuration
//   - logger + optional New Relic service wrapper
//   - database pool
//   - redis client (sessions, geocoding cache, chat fan-out, job queue)
//   - background job service (asynq)
//   - the realtime hub and its Redis emitter
//   - http.Server
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/newrelic/go-agent/v3/integrations/nrredis-v9"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/sebastianleon1-sys/Zerby2/internal/config"
	"github.com/sebastianleon1-sys/Zerby2/internal/database"
	"github.com/sebastianleon1-sys/Zerby2/internal/lib/email"
	"github.com/sebastianleon1-sys/Zerby2/internal/lib/geo"
	"github.com/sebastianleon1-sys/Zerby2/internal/lib/job"
	"github.com/sebastianleon1-sys/Zerby2/internal/lib/metrics"
	"github.com/sebastianleon1-sys/Zerby2/internal/lib/realtime"
	"github.com/sebastianleon1-sys/Zerby2/internal/lib/session"
	"github.com/sebastianleon1-sys/Zerby2/internal/lib/storage"
	loggerPkg "github.com/sebastianleon1-sys/Zerby2/internal/logger"
)

// RedisPingTimeout bounds the startup Redis check.
const RedisPingTimeout = 5 * time.Second

// hubBuffer is the per-client outbound queue of the realtime hub.
const hubBuffer = 32

// Server is the application container that holds shared resources.
//
// It is not the HTTP server itself. It holds:
//   - the config
//   - the logger(s)
//   - database and redis connections
//   - background job service
//   - the realtime hub, session store, geocoder, upload storage and mailer
//   - an internal *http.Server used to listen and serve requests
type Server struct {
	Config        *config.Config
	Logger        *zerolog.Logger
	LoggerService *loggerPkg.LoggerService

	DB    *database.Database
	Redis *redis.Client

	// Job runs background workers (Asynq server) and provides a client for
	// enqueueing. Its handlers are wired and started by the caller once the
	// repositories exist.
	Job *job.JobService

	Metrics  *metrics.Metrics
	Hub      *realtime.Hub
	Emitter  *realtime.RedisEmitter
	Sessions *session.Store
	Geocoder *geo.Geocoder
	Storage  *storage.Local
	Email    *email.Client

	httpServer *http.Server
}

// New constructs a Server and initializes core dependencies.
//
// It does NOT start the HTTP server or the job workers. That is done in
// SetupHTTPServer + Start and by the caller through Job.Start.
//
// Redis is required: sessions, chat fan-out and jobs all live there, so a
// failed ping aborts startup.
func New(cfg *config.Config, logger *zerolog.Logger, loggerService *loggerPkg.LoggerService) (*Server, error) {
	db, err := database.New(cfg, logger, loggerService)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr: cfg.Redis.Address,
	})

	if loggerService != nil && loggerService.GetApplication() != nil {
		redisClient.AddHook(nrredis.NewHook(redisClient.Options()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), RedisPingTimeout)
	defer cancel()

	if err := redisClient.Ping(ctx).Err(); err != nil {
		_ = redisClient.Close()
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	logger.Info().Str("address", cfg.Redis.Address).Msg("connected to redis")

	m := metrics.New()

	store := storage.NewLocal(cfg.Storage)
	if err := store.EnsureDir(); err != nil {
		_ = redisClient.Close()
		_ = db.Close()
		return nil, fmt.Errorf("failed to prepare upload dir: %w", err)
	}

	mailer, err := email.NewClient(cfg, logger)
	if err != nil {
		_ = redisClient.Close()
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize email client: %w", err)
	}
	if !mailer.Enabled() {
		logger.Warn().Msg("resend api key not set, emails will only be logged")
	}

	hub := realtime.NewHub(hubBuffer, m)

	server := &Server{
		Config:        cfg,
		Logger:        logger,
		LoggerService: loggerService,
		DB:            db,
		Redis:         redisClient,
		Job:           job.NewJobService(logger, cfg, m),
		Metrics:       m,
		Hub:           hub,
		Emitter:       realtime.NewRedisEmitter(redisClient, hub, logger),
		Sessions:      session.NewStore(redisClient, cfg.Auth),
		Geocoder:      geo.NewGeocoder(cfg.Geocoding, geo.NewRedisCache(redisClient, cfg.Geocoding.CacheTTL), m, logger),
		Storage:       store,
		Email:         mailer,
	}

	return server, nil
}

// SetupHTTPServer configures the internal net/http server.
//
// The actual router/mux is passed in as handler.
func (s *Server) SetupHTTPServer(handler http.Handler) {
	s.httpServer = &http.Server{
		Addr:    ":" + s.Config.Server.Port,
		Handler: handler,

		// Config stores int values, interpreted here as seconds.
		ReadTimeout:  time.Duration(s.Config.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(s.Config.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(s.Config.Server.IdleTimeout) * time.Second,
	}
}

// Start runs the HTTP server. It blocks until the server stops.
//
// It requires SetupHTTPServer to be called first.
func (s *Server) Start() error {
	if s.httpServer == nil {
		return errors.New("HTTP server not initialized")
	}

	s.Logger.Info().
		Str("port", s.Config.Server.Port).
		Str("env", s.Config.Primary.Env).
		Msg("starting server")

	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server and its dependencies.
//
// It attempts to:
//   - stop HTTP server (finish inflight requests until ctx deadline)
//   - stop job service (asynq)
//   - close DB pool and the redis client
func (s *Server) Shutdown(ctx context.Context) error {
	var errs []error

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to shutdown HTTP server: %w", err))
		}
	}

	if s.Job != nil {
		s.Job.Stop()
	}

	if err := s.DB.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close database connection: %w", err))
	}

	if err := s.Redis.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close redis client: %w", err))
	}

	return errors.Join(errs...)
}
