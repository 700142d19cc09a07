package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/isaacronan/poorbox-service/api"
	"github.com/isaacronan/poorbox-service/dispatcher"
	"github.com/isaacronan/poorbox-service/endpoint"
	"github.com/isaacronan/poorbox-service/internal/config"
	"github.com/isaacronan/poorbox-service/internal/logger"
	"github.com/isaacronan/poorbox-service/middleware/ratelimit/application"
	"github.com/isaacronan/poorbox-service/middleware/ratelimit/domain"
	"github.com/isaacronan/poorbox-service/middleware/ratelimit/infra"
	"github.com/isaacronan/poorbox-service/schema"
	"github.com/isaacronan/poorbox-service/usage"
)

func main() {
	if err := run(); err != nil {
		slog.Error("poorbox stopped", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	level, err := logger.ParseLevel(cfg.LogLevel)
	log, _ := logger.New(level, os.Stdout)
	slog.SetDefault(log)
	if err != nil {
		log.Warn("invalid LOG_LEVEL", "error", err)
	}

	var rdb *redis.Client
	if cfg.UsesRedis() {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer func() { _ = rdb.Close() }()

		pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		_, err := rdb.Ping(pingCtx).Result()
		cancel()
		if err != nil {
			return fmt.Errorf("redis ping: %w", err)
		}
	}

	storeOpts := []endpoint.Option{
		endpoint.WithTTL(cfg.EndpointTTL()),
		endpoint.WithLogger(log),
	}
	var store endpoint.Store
	switch cfg.StoreBackend {
	case config.BackendRedis:
		store = endpoint.NewRedisStore(rdb, append(storeOpts, endpoint.WithPrefix(cfg.Redis.Prefix))...)
	default:
		store = endpoint.NewMemoryStore(storeOpts...)
	}
	defer func() { _ = store.Close() }()

	var recorder interface {
		usage.Recorder
		usage.Reader
	}
	switch cfg.StatsBackend {
	case config.BackendRedis:
		recorder = usage.NewRedisRecorder(rdb, usage.WithPrefix(cfg.StatsPrefix), usage.WithBucketTTL(cfg.StatsBucketTTL))
	case config.BackendNone:
		recorder = usage.Nop{}
	default:
		recorder = usage.NewMemoryRecorder()
	}

	limiter := infra.NewWindowStore(cfg.RateLimit, cfg.RateWindow,
		infra.WithOnReset(func(key domain.Key, count int) {
			log.Debug("rate window reset", "key", string(key), "count", count)
		}),
	)
	defer limiter.Close()

	var slots *application.ConcurrencyService
	if cfg.ConcurrencyMax > 0 {
		slots = &application.ConcurrencyService{
			Pool:           infra.NewSlotPool(cfg.ConcurrencyMax),
			AcquireTimeout: cfg.ConcurrencyTimeout,
		}
	}

	gen := dispatcher.New(cfg.GeneratorURL,
		dispatcher.WithTimeout(cfg.GeneratorTimeout),
		dispatcher.WithRateLimit(cfg.GeneratorRPS, cfg.GeneratorBurst),
		dispatcher.WithLogger(log),
	)

	srv := &http.Server{
		Addr: cfg.ListenAddr,
		Handler: api.NewServer(api.Options{
			Store:               store,
			Generator:           gen,
			Guard:               schema.Guard{Max: cfg.MaxPotential},
			Limiter:             limiter,
			RateKeyHeader:       cfg.RateKeyHeader,
			TrustXFF:            cfg.TrustXFF,
			AddRateLimitHeaders: cfg.AddRateLimitHeaders,
			Slots:               slots,
			Usage:               recorder,
			Totals:              recorder,
			BasePath:            cfg.BasePath,
			PublicURL:           cfg.PublicURL,
			Logger:              log,
		}),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      cfg.GeneratorTimeout + 30*time.Second,
		IdleTimeout:       90 * time.Second,
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	ln, err := net.Listen("tcp", cfg.ListenAddr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", cfg.ListenAddr, err)
	}

	log.Info("poorbox listening",
		"addr", cfg.ListenAddr,
		"base_path", cfg.BasePath,
		"generator", cfg.GeneratorURL,
		"store", cfg.StoreBackend,
		"stats", cfg.StatsBackend,
		"ttl", cfg.EndpointTTL(),
		"max_potential", cfg.MaxPotential,
		"rate_limit", cfg.RateLimit,
		"rate_window", cfg.RateWindow,
		"concurrency_max", cfg.ConcurrencyMax,
	)

	if err := serve(ctx, srv, ln, 10*time.Second); err != nil {
		return err
	}
	log.Info("poorbox shut down")
	return nil
}

// serve atende em ln até ctx encerrar e só retorna depois que Shutdown drenou
// as requisições em andamento (ou estourou grace). Os defers de run, que fecham
// store, limiter e Redis, rodam depois disso.
func serve(ctx context.Context, srv *http.Server, ln net.Listener, grace time.Duration) error {
	drained := make(chan error, 1)
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), grace)
		defer cancel()
		drained <- srv.Shutdown(shutdownCtx)
	}()

	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	if err := <-drained; err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
