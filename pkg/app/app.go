package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"

	"github.com/ayeshabutt275/MAD-Fall-25/pkg/auth"
	"github.com/ayeshabutt275/MAD-Fall-25/pkg/catalog"
	"github.com/ayeshabutt275/MAD-Fall-25/pkg/httpapi"
	"github.com/ayeshabutt275/MAD-Fall-25/pkg/order"
	"github.com/ayeshabutt275/MAD-Fall-25/pkg/storage/memstore"
	"github.com/ayeshabutt275/MAD-Fall-25/pkg/storage/mongostore"
	"github.com/ayeshabutt275/MAD-Fall-25/pkg/version"
)

const shutdownTimeout = 10 * time.Second

// Backend is everything the services need from storage.
type Backend interface {
	catalog.Repository
	order.Repository
	auth.UserRepository
	httpapi.Pinger
}

// Run composes persistence, domain services and the HTTP server, and serves until ctx is done.
func Run(ctx context.Context, args []string, logger *logrus.Logger) error {
	cfg, err := LoadConfig(args, nil)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}
	if logger == nil {
		logger = NewLogger(cfg.LogLevel, cfg.LogFormat)
	} else {
		configureLogger(logger, cfg.LogLevel, cfg.LogFormat)
	}
	if cfg.ShowVersion {
		logger.Infof("food delivery version %s", version.Version())
		return nil
	}
	return serve(ctx, cfg, logger, nil)
}

// OpenBackend connects the configured storage. The returned func releases it.
func OpenBackend(ctx context.Context, cfg Config, logger *logrus.Logger) (Backend, func(), error) {
	switch cfg.DBType {
	case dbTypeMongo:
		store, err := mongostore.Open(ctx, cfg.mongoConfig(), logger)
		if err != nil {
			return nil, nil, fmt.Errorf("open mongo: %w", err)
		}
		return store, func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := store.Close(closeCtx); err != nil {
				logger.WithError(err).Warn("mongo disconnect failed")
			}
		}, nil
	default:
		store, err := memstore.Open(cfg.DBPath)
		if err != nil {
			return nil, nil, fmt.Errorf("open memory store: %w", err)
		}
		logger.WithField("snapshot", cfg.DBPath).Info("using in-memory storage")
		return store, func() {
			if err := store.Close(); err != nil {
				logger.WithError(err).Warn("memory store snapshot failed")
			}
		}, nil
	}
}

// newCache returns nil when no Redis URL is configured.
func newCache(ctx context.Context, cfg Config, logger *logrus.Logger) (*catalog.RedisCache, func(), error) {
	if cfg.RedisURL == "" {
		return nil, func() {}, nil
	}
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		logger.WithError(err).Warn("redis unreachable, catalog cache will miss until it recovers")
	}
	cache := catalog.NewRedisCache(client, catalog.WithCacheTTL(cfg.CatalogCacheTTL))
	return cache, func() {
		hits, misses := cache.Stats()
		logger.WithFields(logrus.Fields{"hits": hits, "misses": misses}).Info("catalog cache closed")
		_ = client.Close()
	}, nil
}

// serve runs until ctx is cancelled. ready, when set, receives the bound address.
func serve(ctx context.Context, cfg Config, logger *logrus.Logger, ready chan<- string) error {
	if cfg.JWTSecret == defaultJWTSecret {
		logger.Warn("JWT_SECRET is not set, tokens are signed with the public default secret")
	}

	backend, closeBackend, err := OpenBackend(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeBackend()

	cache, closeCache, err := newCache(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeCache()

	catalogOpts := []catalog.Option{
		catalog.WithLogger(logger),
		catalog.WithImageBaseURL(cfg.PublicURL),
	}
	if cache != nil {
		catalogOpts = append(catalogOpts, catalog.WithCache(cache))
	}
	catalogService := catalog.NewService(backend, catalogOpts...)
	if cfg.SeedOnEmpty {
		if err := seedIfEmpty(ctx, backend, catalogService, logger); err != nil {
			logger.WithError(err).Warn("catalog seeding skipped")
		}
	}

	orderService := order.NewService(backend, order.WithLogger(logger))
	authService := auth.NewService(
		backend,
		auth.BcryptHasher{Cost: auth.DefaultBcryptCost},
		auth.NewTokens(cfg.JWTSecret, cfg.TokenTTL),
		auth.WithLogger(logger),
	)

	imagesDir := cfg.ImagesDir
	if info, err := os.Stat(imagesDir); imagesDir != "" && (err != nil || !info.IsDir()) {
		logger.WithField("dir", imagesDir).Warn("images directory not found, /images is disabled")
		imagesDir = ""
	}
	trusted, err := httpapi.ParseTrustedProxies(cfg.TrustedProxies)
	if err != nil {
		return err
	}
	api := httpapi.New(catalogService, orderService, authService, backend, httpapi.Config{
		ImagesDir:      imagesDir,
		CORSOrigins:    cfg.CORSOrigins,
		AuthRateLimit:  cfg.AuthRateLimit,
		AuthRateBurst:  cfg.AuthRateBurst,
		TrustedProxies: trusted,
	}, logger)

	listener, err := net.Listen("tcp", cfg.address())
	if err != nil {
		return fmt.Errorf("listen on %s: %w", cfg.address(), err)
	}
	server := &http.Server{
		Handler:      api.Handler(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		errc <- server.Serve(listener)
	}()
	addr := listener.Addr().String()
	logger.WithFields(logrus.Fields{
		"addr":    addr,
		"backend": cfg.DBType,
		"version": version.Version(),
	}).Info("food delivery service is running")
	if ready != nil {
		ready <- addr
	}

	select {
	case err := <-errc:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server stopped unexpectedly: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// seedIfEmpty loads the bundled menu into an empty catalog.
func seedIfEmpty(ctx context.Context, repo catalog.Repository, svc *catalog.Service, logger *logrus.Logger) error {
	existing, err := repo.ListFoods(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}
	items, err := catalog.DefaultSeed()
	if err != nil {
		return err
	}
	stored, err := svc.Seed(ctx, items)
	if err != nil {
		return err
	}
	logger.WithField("items", len(stored)).Info("empty catalog seeded with the default menu")
	return nil
}
