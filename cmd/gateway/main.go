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

	"card-collection/collection"
	"card-collection/collection/application"
	"card-collection/collection/domain"
	"card-collection/collection/infra"
	"card-collection/web"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

func main() {
	// .env é opcional
	_ = godotenv.Load()

	cfg, err := readConfig()
	if err != nil {
		slog.Error("config error", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.slogLevel()}))
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("gateway stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg config, logger *slog.Logger) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	totals := infra.NewMemoryStatsStore()
	stats, closeStats, err := openStats(ctx, cfg, reg, totals)
	if err != nil {
		return err
	}
	defer closeStats()

	httpMetrics, err := collection.NewMetrics(reg)
	if err != nil {
		return fmt.Errorf("register http metrics: %w", err)
	}

	lookup := application.LookupService{
		Source: infra.NewScryfallClient(cfg.ScryfallURL,
			infra.WithUserAgent(cfg.ScryfallUserAgent),
			infra.WithTimeout(cfg.UpstreamTimeout),
		),
		Throttle: infra.NewIntervalThrottle(cfg.FetchInterval),
		Stats:    stats,
		Logger:   logger,
	}
	coll := application.CollectionService{Store: store, Lookup: lookup, Logger: logger}

	routerOpts := collection.RouterOptions{
		Lookup:     lookup,
		Collection: coll,
		Logger:     logger,
		Landing:    web.Index(),
		Metrics:    httpMetrics,
		Gatherer:   reg,
	}
	var limiters *infra.CallerLimiter
	if cfg.RateEnabled {
		limiters = infra.NewCallerLimiter(
			domain.Rate{RPS: cfg.RateRPS, Burst: cfg.RateBurst},
			infra.WithBearerRate(domain.Rate{RPS: cfg.RateTokenRPS, Burst: cfg.RateTokenBurst}),
		)
		routerOpts.RateLimit = collection.RateLimitOptions{
			Store:              limiters,
			TrustXForwardedFor: cfg.TrustXFF,
			RetryAfter:         cfg.RetryAfter,
			AddHeaders:         cfg.AddHeaders,
		}
	}
	if cfg.ConcurrencyMax > 0 {
		routerOpts.Concurrency = collection.ConcurrencyOptions{
			Pool:           infra.NewSlotPool(cfg.ConcurrencyMax),
			AcquireTimeout: cfg.ConcurrencyTimeout,
		}
	}

	srv := &http.Server{
		Addr:              cfg.addr(),
		Handler:           collection.NewRouter(routerOpts),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		// batch de N nomes espera N intervalos do throttle
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  90 * time.Second,
	}

	logger.Info("gateway listening",
		"addr", srv.Addr,
		"backend", string(cfg.backend()),
		"scryfall_url", cfg.ScryfallURL,
		"fetch_interval", cfg.FetchInterval,
	)
	logger.Info("inbound limits",
		"rate_enabled", cfg.RateEnabled,
		"rate_rps", cfg.RateRPS,
		"rate_burst", cfg.RateBurst,
		"rate_token_rps", cfg.RateTokenRPS,
		"rate_token_burst", cfg.RateTokenBurst,
		"trust_xff", cfg.TrustXFF,
		"concurrency_max", cfg.ConcurrencyMax,
		"concurrency_timeout", cfg.ConcurrencyTimeout,
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	if limiters != nil {
		g.Go(func() error { return limiters.Run(gctx) })
	}

	err = g.Wait()
	t := totals.Total()
	logger.Info("lookup totals", "found", t.Found, "not_found", t.NotFound, "errors", t.Errors)
	return err
}

// openStore abre o backend escolhido pela configuração.
func openStore(ctx context.Context, cfg config) (domain.Store, func(), error) {
	switch cfg.backend() {
	case backendPostgres:
		auth, err := infra.NewJWTAuthenticator(cfg.DatabaseJWTSecret, infra.WithAudience(cfg.AuthJWTAudience))
		if err != nil {
			return nil, nil, fmt.Errorf("database auth: %w", err)
		}
		pg, err := infra.OpenPostgres(ctx, cfg.DatabaseURL, auth)
		if err != nil {
			return nil, nil, err
		}
		return pg, pg.Close, nil

	case backendSQLite:
		var opts []infra.SQLiteOption
		if cfg.AuthJWTSecret != "" {
			auth, err := infra.NewJWTAuthenticator(cfg.AuthJWTSecret, infra.WithAudience(cfg.AuthJWTAudience))
			if err != nil {
				return nil, nil, fmt.Errorf("sqlite auth: %w", err)
			}
			opts = append(opts, infra.WithSQLiteAuthenticator(auth))
		}
		lite, err := infra.OpenSQLite(ctx, cfg.SQLitePath, opts...)
		if err != nil {
			return nil, nil, err
		}
		return lite, func() { _ = lite.Close() }, nil

	default:
		fs, err := infra.NewFileStore(cfg.CollectionFile)
		if err != nil {
			return nil, nil, err
		}
		return fs, func() {}, nil
	}
}

// openStats monta o fan-out de estatísticas: memória + Prometheus (+ Redis se configurado).
func openStats(ctx context.Context, cfg config, reg prometheus.Registerer, totals *infra.MemoryStatsStore) (domain.StatsStore, func(), error) {
	prom, err := infra.NewPromStats(reg)
	if err != nil {
		return nil, nil, fmt.Errorf("register lookup metrics: %w", err)
	}
	stats := infra.MultiStats{totals, prom}

	if cfg.StatsRedisAddr == "" {
		return stats, func() {}, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.StatsRedisAddr,
		Password: cfg.StatsRedisPassword,
		DB:       cfg.StatsRedisDB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	_, err = rdb.Ping(pingCtx).Result()
	cancel()
	if err != nil {
		_ = rdb.Close()
		return nil, nil, fmt.Errorf("redis stats ping: %w", err)
	}

	stats = append(stats, infra.NewRedisStatsStore(rdb,
		infra.WithStatsPrefix(cfg.StatsPrefix),
		infra.WithStatsTTL(cfg.StatsTTL),
		infra.WithStatsTrackMisses(cfg.StatsTrackMisses),
	))
	return stats, func() { _ = rdb.Close() }, nil
}
