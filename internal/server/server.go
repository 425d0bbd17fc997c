package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/shreyescodes/erp-portal/internal/bootstrap"
	"github.com/shreyescodes/erp-portal/internal/config"
	"github.com/shreyescodes/erp-portal/internal/pkg/filestorage"
)

const shutdownTimeout = 10 * time.Second

// Server holds the state for the HTTP server.
type Server struct {
	config *config.Config
	router *gin.Engine
	dbPool *pgxpool.Pool
	deps   *bootstrap.Dependencies
	logger zerolog.Logger
	http   *http.Server

	stopHub context.CancelFunc
}

// NewServer creates and initializes a new server instance by calling bootstrap functions.
func NewServer() (*Server, error) {
	cfg, lgr, err := bootstrap.LoadConfigAndSetupLogger()
	if err != nil {
		return nil, fmt.Errorf("failed to load config or setup logger: %w", err)
	}

	dbPool, err := bootstrap.SetupDatabase(cfg, lgr)
	if err != nil {
		return nil, fmt.Errorf("failed to setup database: %w", err)
	}

	deps, err := bootstrap.BuildDependencies(context.Background(), cfg, dbPool, lgr)
	if err != nil {
		dbPool.Close()
		return nil, fmt.Errorf("failed to setup dependencies: %w", err)
	}

	router := bootstrap.SetupRouter(cfg, deps, lgr)
	setupStaticFileServing(router, deps.MediaStore, lgr)

	return &Server{
		config: cfg,
		router: router,
		dbPool: dbPool,
		deps:   deps,
		logger: lgr,
	}, nil
}

// setupStaticFileServing exposes locally stored uploads under /uploads.
// Remote backends serve their own objects.
func setupStaticFileServing(router *gin.Engine, store filestorage.MediaStore, lgr zerolog.Logger) {
	local, ok := store.(*filestorage.LocalStorage)
	if !ok {
		return
	}

	router.Static("/uploads", local.BasePath())
	lgr.Info().Str("path", local.BasePath()).Msg("Static file serving configured for uploads directory")
}

// Run starts the HTTP server and handles graceful shutdown.
func (s *Server) Run() error {
	hubCtx, stopHub := context.WithCancel(context.Background())
	s.stopHub = stopHub
	go s.deps.Hub.Run(hubCtx)

	s.http = &http.Server{
		Addr:              ":" + s.config.Server.Port,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		// Uploads of up to MaxUploadSizeMB need more than the usual budget
		ReadTimeout:  5 * time.Minute,
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", s.http.Addr).Str("mode", s.config.Server.Mode).Msg("HTTP server listening")
		serverErrors <- s.http.ListenAndServe()
	}()

	osSignals := make(chan os.Signal, 1)
	signal.Notify(osSignals, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			s.Shutdown(context.Background())
			return fmt.Errorf("error starting server: %w", err)
		}
	case sig := <-osSignals:
		s.logger.Info().Str("signal", sig.String()).Msg("Received OS signal, initiating shutdown...")
	}

	return s.Shutdown(context.Background())
}

// Shutdown gracefully stops the server and closes resources.
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	var errs []error

	if s.http != nil {
		s.logger.Info().Msg("Shutting down HTTP server...")
		if err := s.http.Shutdown(ctx); err != nil {
			s.logger.Error().Err(err).Msg("HTTP server shutdown error")
			errs = append(errs, err)
		} else {
			s.logger.Info().Msg("HTTP server gracefully stopped.")
		}
	}

	// Closes every websocket client
	if s.stopHub != nil {
		s.stopHub()
	}

	if s.deps != nil && s.deps.Limiter != nil {
		if err := s.deps.Limiter.Close(); err != nil {
			s.logger.Error().Err(err).Msg("Rate limiter close error")
			errs = append(errs, err)
		}
	}

	if s.dbPool != nil {
		s.logger.Info().Msg("Closing database connection pool...")
		s.dbPool.Close()
	}

	s.logger.Info().Msg("Server shutdown process complete.")
	if len(errs) > 0 {
		return fmt.Errorf("server shutdown completed with errors: %w", errors.Join(errs...))
	}
	return nil
}
