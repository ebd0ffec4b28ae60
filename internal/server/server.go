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

	"netxlate/internal/backend"
	"netxlate/internal/cache"
	"netxlate/internal/catalog"
	"netxlate/internal/config"
	"netxlate/internal/core"
	"netxlate/internal/metrics"
	"netxlate/internal/model"
	"netxlate/internal/prompt"
	"netxlate/internal/update"

	"github.com/gin-gonic/gin"
)

// Deps are the collaborators a Server needs besides its Config.
// Invoker and Updates are built from the Config when nil.
type Deps struct {
	Catalog  *catalog.Catalog
	Registry *model.Registry
	Storage  core.StorageInterface
	Logger   core.Logger
	Invoker  core.Invoker
	Updates  *update.Checker
}

// Server application server
type Server struct {
	cfg    config.Config
	logger core.Logger
	router *gin.Engine

	catalog  *catalog.Catalog
	registry *model.Registry
	sessions *sessionStore
	updates  *update.Checker

	cache          *cache.LRUCache
	metricsService *metrics.Service

	validClientKeys map[string]bool
	rateLimiter     *rateLimiter

	shutdownCtx    context.Context
	shutdownCancel context.CancelFunc
}

// NewServer creates a new server instance
func NewServer(cfg config.Config, deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Storage == nil {
		return nil, fmt.Errorf("storage is required")
	}
	if deps.Registry == nil {
		return nil, fmt.Errorf("model registry is required")
	}
	if deps.Catalog == nil {
		deps.Catalog = catalog.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	metricsService := metrics.New(metrics.Config{
		SaveInterval: core.MinSaveInterval,
		HistorySize:  core.HistoryBufferSize,
		Storage:      deps.Storage,
		Logger:       deps.Logger,
	})
	if err := metricsService.Load(); err != nil {
		deps.Logger.Warn("Failed to load historical stats: %v", err)
	}

	httpClient := cfg.HTTPClientSettings.NewClient()
	invoker := deps.Invoker
	if invoker == nil {
		invoker = backend.NewClient(backend.Config{
			Registry:   deps.Registry,
			HTTPClient: httpClient,
			Credential: cfg.Credential,
			Logger:     deps.Logger,
		})
	}

	cacheService := cache.New(core.CacheDefaultCapacity, core.CacheCleanupInterval)
	updates := deps.Updates
	if updates == nil {
		updates = update.NewChecker(update.Config{
			Repo:       cfg.UpdateRepo,
			HTTPClient: httpClient,
			Cache:      cacheService,
			Logger:     deps.Logger,
		})
	}

	validClientKeys := make(map[string]bool, len(cfg.ClientAPIKeys))
	for _, key := range cfg.ClientAPIKeys {
		validClientKeys[key] = true
	}

	deps.Logger.Info("Initializing server: %d models (default %s), %d vendors", deps.Registry.Len(), deps.Registry.Default(), len(deps.Catalog.Vendors()))
	if deps.Registry.Degraded() {
		deps.Logger.Warn("Model registry is running on the fallback model list")
	}

	shutdownCtx, shutdownCancel := context.WithCancel(context.Background())

	s := &Server{
		cfg:      cfg,
		logger:   deps.Logger,
		catalog:  deps.Catalog,
		registry: deps.Registry,
		sessions: newSessionStore(cfg.MaxSessions, sessionFactory{
			invoker:      invoker,
			builder:      prompt.NewBuilder(deps.Catalog),
			defaultModel: deps.Registry.Default(),
			metrics:      metricsService,
			logger:       deps.Logger,
		}),
		updates:         updates,
		cache:           cacheService,
		metricsService:  metricsService,
		validClientKeys: validClientKeys,
		rateLimiter:     newRateLimiter(cfg.RateLimit),
		shutdownCtx:     shutdownCtx,
		shutdownCancel:  shutdownCancel,
	}

	s.setupRoutes()

	return s, nil
}

// Handler exposes the router, mainly for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run runs the server until SIGINT/SIGTERM or Close.
func (s *Server) Run() error {
	s.setupGracefulShutdown()

	srv := &http.Server{
		Addr:              ":" + s.cfg.Port,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      core.HTTPRequestTimeout + 30*time.Second,
	}

	go func() {
		<-s.shutdownCtx.Done()
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			s.logger.Error("Server shutdown error: %v", err)
		}
	}()

	s.logger.Info("Server starting on port %s", s.cfg.Port)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

func (s *Server) setupGracefulShutdown() {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-quit:
			s.logger.Info("Shutdown signal received, shutting down gracefully...")
			s.shutdownCancel()
		case <-s.shutdownCtx.Done():
		}
		signal.Stop(quit)
	}()
}

// Close closes the server
func (s *Server) Close() error {
	if s.shutdownCancel != nil {
		s.shutdownCancel()
	}

	var closeErr error

	if s.rateLimiter != nil {
		s.rateLimiter.stop()
	}

	if s.metricsService != nil {
		if err := s.metricsService.Close(); err != nil {
			closeErr = errors.Join(closeErr, fmt.Errorf("close metrics service: %w", err))
		}
	}

	if s.cache != nil {
		s.cache.Stop()
	}

	return closeErr
}
