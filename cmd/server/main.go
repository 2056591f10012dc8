// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/terang55/rainbow-rich-auth-server/internal/auth"
	"github.com/terang55/rainbow-rich-auth-server/internal/config"
	"github.com/terang55/rainbow-rich-auth-server/internal/metrics"
	"github.com/terang55/rainbow-rich-auth-server/internal/subscription"
	"github.com/terang55/rainbow-rich-auth-server/internal/subscription/repository"
	subscriptionservice "github.com/terang55/rainbow-rich-auth-server/internal/subscription/service"
	subscriptionhttp "github.com/terang55/rainbow-rich-auth-server/internal/subscription/transport/http"
	"github.com/terang55/rainbow-rich-auth-server/pkg/db"
	"github.com/terang55/rainbow-rich-auth-server/pkg/logger"
	"github.com/terang55/rainbow-rich-auth-server/pkg/middleware"
)

type closer func(ctx context.Context) error

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("configuration rejected", "error", err)
		os.Exit(1)
	}

	log := logger.New(cfg.LogLevel)
	slog.SetDefault(log)
	metrics.InitMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- STORAGE ---
	store, closers, err := openStore(ctx, cfg, log)
	if err != nil {
		log.Error("store initialization failed", "driver", cfg.StoreDriver, "error", err)
		os.Exit(1)
	}
	log.Info("store connected", "driver", cfg.StoreDriver)

	var guard auth.ReplayGuard = auth.NewMemoryReplayGuard()
	if cfg.RedisURL != "" {
		rdb, err := db.ConnectRedis(cfg.RedisURL)
		if err != nil {
			log.Error("redis connection failed", "error", err)
			os.Exit(1)
		}
		closers = append(closers, func(context.Context) error { return rdb.Close() })
		guard = auth.NewRedisReplayGuard(rdb)
		log.Info("replay guard backed by redis")
	}

	// --- LAYERS ---
	subService := subscriptionservice.NewService(
		repository.NewBreakerStore(store, "subscription-store", log),
		cfg.Location,
	)
	subscriptionservice.NewStatsReporter(subService, cfg.Products, cfg.StatsInterval, log).Start(ctx)

	subHandler := subscriptionhttp.NewSubscriptionHandler(subscriptionhttp.Options{
		Service:            subService,
		Authenticator:      auth.NewAuthenticator(auth.NewSigner(cfg.SigningSecret), guard),
		Localizer:          subscription.NewLocalizer(cfg.DefaultLanguage),
		Logger:             log,
		AdminSecretDigest:  cfg.AdminSecretDigest,
		LicenseTokenSecret: cfg.LicenseTokenSecret,
		Products:           cfg.Products,
	})

	limiter := middleware.NewRateLimiter(cfg.RateLimitMax, cfg.RateLimitWindow, log)
	go limiter.Run(ctx)

	// --- ROUTER ---
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(log))
	r.Use(chimw.Recoverer)
	r.Use(middleware.MetricsMiddleware)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{cfg.AllowedOrigin},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Accept-Language", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	if cfg.MetricsUser != "" {
		r.With(middleware.BasicAuth(cfg.MetricsUser, cfg.MetricsPassword)).Handle("/metrics", promhttp.Handler())
	} else {
		r.Handle("/metrics", promhttp.Handler())
	}

	r.Route("/api/v1", func(api chi.Router) {
		api.Use(limiter.Middleware)
		api.Use(middleware.ValidateRequest)
		subHandler.Routes(api)
	})

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	log.Info("server running", "addr", cfg.HTTPAddr, "products", cfg.Products)
	if err := serve(ctx, server, closers, log); err != nil {
		log.Error("server failed", "error", err)
		os.Exit(1)
	}
}

// serve runs server until ctx is done or the listener fails, then shuts it
// down and runs closers. It returns only after both have finished.
func serve(ctx context.Context, server *http.Server, closers []closer, log *slog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		err := server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		errCh <- err
	}()

	var err error
	select {
	case err = <-errCh:
	case <-ctx.Done():
		log.Info("shutdown signal received")
	}

	shutdownServer(server, closers, log)
	return err
}

func openStore(ctx context.Context, cfg *config.Config, log *slog.Logger) (repository.Store, []closer, error) {
	switch cfg.StoreDriver {
	case config.DriverMongo:
		client, err := db.ConnectMongo(ctx, cfg.MongoURI)
		if err != nil {
			return nil, nil, err
		}
		return repository.NewMongoStore(client.Database(cfg.MongoDatabase)),
			[]closer{client.Disconnect}, nil

	case config.DriverPostgres:
		conn, err := db.Connect(cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		store := repository.NewPostgresStore(conn)
		if err := store.EnsureSchema(ctx); err != nil {
			conn.Close()
			return nil, nil, err
		}
		return store, []closer{func(context.Context) error { return conn.Close() }}, nil

	case config.DriverSQLite:
		conn, err := db.ConnectSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		store := repository.NewSQLiteStore(conn)
		if err := store.EnsureSchema(ctx); err != nil {
			conn.Close()
			return nil, nil, err
		}
		return store, []closer{func(context.Context) error { return conn.Close() }}, nil

	case config.DriverMemory:
		log.Warn("memory store selected, subscriptions are lost on restart")
		return repository.NewMemoryStore(), nil, nil
	}
	return nil, nil, fmt.Errorf("%w: unknown store driver %q", config.ErrConfiguration, cfg.StoreDriver)
}

func shutdownServer(server *http.Server, closers []closer, log *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error("server shutdown failed", "error", err)
	}

	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i](ctx); err != nil {
			log.Error("failed to close connection", "error", err)
		}
	}

	log.Info("server stopped")
}
