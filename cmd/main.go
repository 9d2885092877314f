package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/fjod/go_cart/cart-session/internal/cart"
	h "github.com/fjod/go_cart/cart-session/internal/http"
	"github.com/fjod/go_cart/cart-session/internal/store"
	"github.com/fjod/go_cart/cart-session/pkg/circuitbreaker"
	"github.com/fjod/go_cart/cart-session/pkg/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

type Config struct {
	HTTPAddr        string
	StoreBackend    string
	FileDir         string
	RedisAddr       string
	RedisPassword   string
	MongoURI        string
	MongoDBName     string
	CartKey         string
	LogLevel        string
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
	BreakerFailures uint32
	BreakerTimeout  time.Duration
}

func loadConfig() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}

	cfg := &Config{
		HTTPAddr:      getEnv("HTTP_ADDR", "127.0.0.1:8090"),
		StoreBackend:  getEnv("CART_STORE", "file"),
		FileDir:       getEnv("CART_FILE_DIR", filepath.Join(home, ".cart-session")),
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		MongoURI:      getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDBName:   getEnv("MONGO_DB_NAME", "cartdb"),
		CartKey:       getEnv("CART_KEY", "@GoMarketplace:products"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
	}

	if cfg.RequestTimeout, err = time.ParseDuration(getEnv("REQUEST_TIMEOUT", "5s")); err != nil {
		return nil, fmt.Errorf("REQUEST_TIMEOUT: %w", err)
	}
	if cfg.ShutdownTimeout, err = time.ParseDuration(getEnv("SHUTDOWN_TIMEOUT", "10s")); err != nil {
		return nil, fmt.Errorf("SHUTDOWN_TIMEOUT: %w", err)
	}
	if cfg.BreakerTimeout, err = time.ParseDuration(getEnv("BREAKER_OPEN_TIMEOUT", "30s")); err != nil {
		return nil, fmt.Errorf("BREAKER_OPEN_TIMEOUT: %w", err)
	}
	failures, err := strconv.ParseUint(getEnv("BREAKER_MAX_FAILURES", "5"), 10, 32)
	if err != nil {
		return nil, fmt.Errorf("BREAKER_MAX_FAILURES: %w", err)
	}
	cfg.BreakerFailures = uint32(failures)

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New("cart-session", cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	ctx := context.Background()

	backend, closeBackend, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatal("failed to open store", zap.String("backend", cfg.StoreBackend), zap.Error(err))
	}
	defer closeBackend()
	log.Info("store ready", zap.String("backend", cfg.StoreBackend))

	st := store.NewBreakerStore(backend, circuitbreaker.Settings{
		Name:        "cart-store",
		MaxFailures: cfg.BreakerFailures,
		OpenTimeout: cfg.BreakerTimeout,
		OnStateChange: func(name, from, to string) {
			log.Warn("circuit breaker state change", zap.String("breaker", name), zap.String("from", from), zap.String("to", to))
		},
	})

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	loadCtx, cancelLoad := context.WithTimeout(ctx, cfg.RequestTimeout)
	manager, err := cart.Open(loadCtx, st,
		cart.WithKey(cfg.CartKey),
		cart.WithLogger(log),
		cart.WithMetrics(cart.NewMetrics(reg)),
	)
	cancelLoad()
	if err != nil {
		log.Fatal("failed to load cart", zap.Error(err))
	}

	cartHandler := h.NewCartHandler(manager, cfg.RequestTimeout, log)
	router := h.NewRouter(cartHandler, promhttp.HandlerFor(reg, promhttp.HandlerOpts{}), log, cfg.RequestTimeout)

	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      otelhttp.NewHandler(router, "cart-session"),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("cart session listening", zap.String("addr", cfg.HTTPAddr), zap.String("session_id", manager.SessionID()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server error", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down cart session")
	shutdownCtx, cancel := context.WithTimeout(ctx, cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}
	if manager.Dirty() {
		if err := manager.Flush(shutdownCtx); err != nil {
			log.Error("final snapshot not persisted", zap.Error(err))
		}
	}
	log.Info("cart session stopped")
}

func openStore(ctx context.Context, cfg *Config) (store.PersistentStore, func(), error) {
	switch cfg.StoreBackend {
	case "memory":
		return store.NewMemoryStore(), func() {}, nil

	case "file":
		st, err := store.NewFileStore(cfg.FileDir)
		if err != nil {
			return nil, nil, err
		}
		return st, func() {}, nil

	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       0,
		})
		st := store.NewRedisStore(client)
		if err := st.Ping(ctx); err != nil {
			client.Close()
			return nil, nil, err
		}
		return st, func() { client.Close() }, nil

	case "mongo":
		db, err := store.ConnectMongoDB(ctx, cfg.MongoURI, cfg.MongoDBName)
		if err != nil {
			return nil, nil, err
		}
		st := store.NewMongoStore(db)
		if err := st.CreateIndexes(ctx); err != nil {
			_ = db.Client().Disconnect(ctx)
			return nil, nil, err
		}
		return st, func() { _ = db.Client().Disconnect(context.Background()) }, nil
	}

	return nil, nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
}
