package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/xtding233/potential-simulator/internal/catalog"
	"github.com/xtding233/potential-simulator/internal/config"
	"github.com/xtding233/potential-simulator/internal/handlers"
	"github.com/xtding233/potential-simulator/internal/kv"
	customMiddleware "github.com/xtding233/potential-simulator/internal/middleware"
	"github.com/xtding233/potential-simulator/internal/potential"
	"github.com/xtding233/potential-simulator/internal/preset"
	"github.com/xtding233/potential-simulator/internal/readiness"
	"github.com/xtding233/potential-simulator/pkg/logger"
	"github.com/xtding233/potential-simulator/pkg/metrics"
)

func main() {
	// .env is optional
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(logger.Options{Level: cfg.Logging.Level, Format: cfg.Logging.Format}); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	// Catalog. A failed load keeps the app up but inert.
	loader := catalog.NewLoader(cfg.Catalog.Path)
	holder := catalog.NewHolder(loader, logger.Component("catalog"))
	holder.OnChange(func(cat catalog.Catalog) {
		metrics.CatalogCharacters.Set(float64(len(cat.Characters)))
	})
	reload := func() {
		if err := holder.Reload(); err != nil {
			metrics.CatalogReloadsTotal.WithLabelValues("error").Inc()
			return
		}
		metrics.CatalogReloadsTotal.WithLabelValues("ok").Inc()
	}
	reload()
	if !holder.Ready() {
		logger.Error("Catalog unavailable, every intent will be refused until it loads",
			zap.String("path", cfg.Catalog.Path))
	}

	// Storage
	storage, closer, err := kv.Open(cfg.Storage)
	if err != nil {
		logger.Fatal("Failed to open storage", zap.String("driver", cfg.Storage.Driver), zap.Error(err))
	}
	defer closer.Close()

	live := potential.NewStore(holder, storage, potential.WithLogger(logger.Component("state")))
	if err := live.Hydrate(); err != nil {
		logger.Warn("Starting from an empty loadout", zap.Error(err))
	}
	if missing := live.MissingCharacters(); holder.Ready() && len(missing) > 0 {
		logger.Warn("Stored loadout references characters missing from catalog", zap.Any("slots", missing))
	}
	presets := preset.NewStore(live, storage, holder, logger.Component("presets"))
	api := handlers.New(holder, live, presets, logger.Component("api"))

	// Hot reload. Live state survives a catalog swap.
	if cfg.Catalog.WatchInterval > 0 {
		watcher := catalog.NewWatcher(loader.Paths(), cfg.Catalog.WatchInterval, func(changed []string) {
			logger.Info("Catalog files changed", zap.Strings("paths", changed))
			reload()
		})
		watcher.Start(context.Background())
		defer watcher.Stop()
	}

	reporter := readiness.NewReporter(logger.Component("readiness"))
	reporter.Track(holder)
	var grpcServer interface{ GracefulStop() }
	if cfg.GRPC.HealthPort != "" {
		lis, err := net.Listen("tcp", fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.GRPC.HealthPort))
		if err != nil {
			logger.Fatal("Failed to listen for grpc health", zap.Error(err))
		}
		grpcServer = reporter.Serve(lis)
	}

	// Public router
	publicRouter := chi.NewRouter()
	publicRouter.Use(middleware.RequestID)
	publicRouter.Use(middleware.RealIP)
	publicRouter.Use(customMiddleware.Recovery())
	publicRouter.Use(customMiddleware.Logging())
	publicRouter.Use(customMiddleware.Metrics())
	publicRouter.Use(middleware.Timeout(cfg.Server.RequestTimeout))
	publicRouter.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))
	publicRouter.Mount("/api", api.Routes())

	// Internal router: health, metrics
	internalRouter := chi.NewRouter()
	internalRouter.Use(middleware.RequestID)
	internalRouter.Use(customMiddleware.Recovery())
	internalRouter.Get("/health", handlers.Health(holder))
	internalRouter.Handle("/metrics", promhttp.Handler())

	publicServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      publicRouter,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
	internalServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.InternalPort),
		Handler:      internalRouter,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	for name, srv := range map[string]*http.Server{"public": publicServer, "internal": internalServer} {
		go func(name string, srv *http.Server) {
			logger.Info("Starting potential simulator server", zap.String("server", name), zap.String("addr", srv.Addr))
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Fatal("Failed to start server", zap.String("server", name), zap.Error(err))
			}
		}(name, srv)
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	reporter.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.GracefulShutdown)
	defer cancel()

	shutdownErr := make(chan error, 2)
	for _, srv := range []*http.Server{publicServer, internalServer} {
		go func(srv *http.Server) {
			if err := srv.Shutdown(ctx); err != nil {
				shutdownErr <- fmt.Errorf("%s shutdown: %w", srv.Addr, err)
				return
			}
			shutdownErr <- nil
		}(srv)
	}
	for i := 0; i < 2; i++ {
		if err := <-shutdownErr; err != nil {
			logger.Error("Server forced to shutdown", zap.Error(err))
		}
	}
	if grpcServer != nil {
		grpcServer.GracefulStop()
	}

	logger.Info("Servers exited")
}
