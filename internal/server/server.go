package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path"
	"path/filepath"
	"time"

	"bazar/internal/config"
	"bazar/internal/database"
	"bazar/internal/janitor"
	custommiddleware "bazar/internal/middleware"
	"bazar/internal/repository"
	"bazar/internal/service"
	"bazar/internal/transport"
	"bazar/internal/upload"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const janitorStopTimeout = 30 * time.Second

// Server owns the HTTP server together with every resource it was built
// from. Close releases them in reverse order of acquisition.
type Server struct {
	*http.Server
	config  *config.Config
	logger  *zap.Logger
	db      database.Service
	gateway *repository.Gateway
	janitor *janitor.Janitor
	redis   *redis.Client
}

func NewServer(ctx context.Context, cfg *config.Config, logger *zap.Logger, db database.Service) (*Server, error) {
	gateway, err := repository.NewGateway(ctx, db.DB(), db.Dialect())
	if err != nil {
		return nil, fmt.Errorf("failed to prepare statements: %w", err)
	}

	s := &Server{
		config:  cfg,
		logger:  logger,
		db:      db,
		gateway: gateway,
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := custommiddleware.NewMetrics(registry)

	// Create router
	router := chi.NewRouter()

	// Add basic middleware
	router.Use(custommiddleware.DefaultMiddlewareStack()...)
	router.Use(custommiddleware.LoggingMiddleware(logger))
	router.Use(custommiddleware.ErrorHandlingMiddleware(logger))
	router.Use(metrics.Middleware)
	router.Use(custommiddleware.CORSMiddleware(cfg.Server.AllowedOrigins, cfg.IsDevelopment()))

	if cfg.RateLimit.Enabled {
		s.redis = redis.NewClient(&redis.Options{
			Addr:     fmt.Sprintf("%s:%s", cfg.Redis.Host, cfg.Redis.Port),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := s.redis.Ping(ctx).Err(); err != nil {
			logger.Warn("Redis unreachable, rate limiting will fail open", zap.Error(err))
		}
		router.Use(custommiddleware.RateLimitMiddleware(s.redis, custommiddleware.RateLimitConfig{
			RequestsPerWindow: cfg.RateLimit.Requests,
			Window:            cfg.RateLimit.Window,
			KeyPrefix:         "bazar_rate_limit",
		}, logger))
	}

	// Health check endpoint
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		health := db.Health(r.Context())
		status := http.StatusOK
		if health["status"] != "up" {
			status = http.StatusServiceUnavailable
		}
		custommiddleware.RespondWithJSON(w, status, health)
	})

	router.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	store := upload.NewStore(cfg.Upload.Dir, cfg.Upload.MaxSize, logger)
	router.Get(upload.URLPrefix+"{name}", serveUpload(store.Dir()))

	// Initialize services
	productService := service.NewProductService(gateway.Products(), store, logger)
	saleService := service.NewSaleService(gateway.Sales(), gateway.Products(), logger)

	// Register routes
	transport.NewProductHandler(productService, store.MaxSize(), logger).RegisterRoutes(router)
	transport.NewSaleHandler(saleService, logger).RegisterRoutes(router)

	if cfg.Janitor.Enabled() {
		s.janitor = janitor.New(gateway.Products(), store, cfg.Janitor.Grace, logger)
		if err := s.janitor.Start(cfg.Janitor.Schedule); err != nil {
			// The caller still owns db when construction fails.
			if s.redis != nil {
				s.redis.Close()
			}
			return nil, errors.Join(err, gateway.Close())
		}
	}

	s.Server = &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      router,
		IdleTimeout:  time.Minute,
		ReadTimeout:  time.Minute,
		WriteTimeout: time.Minute,
	}

	return s, nil
}

// serveUpload serves a single stored photo. Directory listings are never
// exposed.
func serveUpload(dir string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "name")
		if name == "" || name != path.Base(name) || name == "." || name == ".." {
			http.NotFound(w, r)
			return
		}
		http.ServeFile(w, r, filepath.Join(dir, name))
	}
}

// Close stops background work, then releases the prepared statements and the
// database connection. Every failure is reported.
func (s *Server) Close() error {
	s.logger.Info("Closing server resources")

	var errs []error

	if s.janitor != nil {
		ctx, cancel := context.WithTimeout(context.Background(), janitorStopTimeout)
		select {
		case <-s.janitor.Stop().Done():
		case <-ctx.Done():
			errs = append(errs, errors.New("upload janitor did not stop in time"))
		}
		cancel()
	}

	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close redis client: %w", err))
		}
	}

	if err := s.gateway.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close prepared statements: %w", err))
	}

	if err := s.db.Close(); err != nil {
		errs = append(errs, err)
	}

	err := errors.Join(errs...)
	if err != nil {
		s.logger.Error("Failed to close server resources", zap.Error(err))
	}
	return err
}
