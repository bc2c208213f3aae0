package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/TimurManjosov/flagship-eval/internal/api"
	"github.com/TimurManjosov/flagship-eval/internal/cache"
	"github.com/TimurManjosov/flagship-eval/internal/config"
	"github.com/TimurManjosov/flagship-eval/internal/engine"
	"github.com/TimurManjosov/flagship-eval/internal/evaluation"
	"github.com/TimurManjosov/flagship-eval/internal/logging"
	"github.com/TimurManjosov/flagship-eval/internal/resolver"
	"github.com/TimurManjosov/flagship-eval/internal/rollout"
	"github.com/TimurManjosov/flagship-eval/internal/store"
	"github.com/TimurManjosov/flagship-eval/internal/telemetry"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "flagship-eval: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	log, err := logging.New(cfg.LogLevel, cfg.LogFormat, os.Stderr)
	if err != nil {
		return err
	}
	log = log.With().Str("app_env", cfg.AppEnv).Logger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	telemetry.Init()
	shutdownTracing, err := telemetry.InitTracing(ctx, cfg.OTLPEndpoint, logging.ServiceName)
	if err != nil {
		return fmt.Errorf("tracing: %w", err)
	}
	defer func() {
		shutCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := shutdownTracing(shutCtx); err != nil {
			log.Warn().Err(err).Msg("tracer shutdown")
		}
	}()

	var storeOpts []store.FactoryOption
	if cfg.DatabaseMigrate {
		storeOpts = append(storeOpts, store.WithMigrations(log))
	}
	st, err := store.NewStore(ctx, cfg.StoreType, cfg.DatabaseDSN, storeOpts...)
	if err != nil {
		return fmt.Errorf("store: %w", err)
	}
	defer closeAndLog(log, "store", st.Close)

	c, err := cache.NewCache(ctx, cfg.CacheType, cfg.RedisConfig())
	if err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	defer closeAndLog(log, "cache", c.Close)

	hasher, err := rollout.HasherByName(cfg.BucketHash)
	if err != nil {
		return err
	}

	res := resolver.New(c, st,
		resolver.WithTTL(cfg.CacheTTL),
		resolver.WithLogger(log.With().Str("component", "resolver").Logger()),
	)
	svc := evaluation.NewService(res, engine.NewEvaluator(hasher), log.With().Str("component", "evaluation").Logger())
	srvAPI := api.NewServer(svc, api.Options{
		Logger:         log,
		RateLimitPerIP: cfg.RateLimitPerIP,
		Checks: map[string]api.Pinger{
			"store": st,
			"cache": c,
		},
	})

	apiSrv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           srvAPI.Router(),
		ReadHeaderTimeout: 3 * time.Second,
		ReadTimeout:       5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", telemetry.Handler())
	metricsSrv := &http.Server{
		Addr:              cfg.MetricsAddr,
		Handler:           metricsMux,
		ReadHeaderTimeout: 3 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return serve(log, "api", apiSrv) })
	g.Go(func() error { return serve(log, "metrics", metricsSrv) })
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down")
		shutCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return errors.Join(apiSrv.Shutdown(shutCtx), metricsSrv.Shutdown(shutCtx))
	})

	log.Info().
		Str("store", cfg.StoreType).
		Str("cache", cfg.CacheType).
		Dur("cache_ttl", res.TTL()).
		Str("bucket_hash", cfg.BucketHash).
		Msg("flag evaluation service started")

	if err := g.Wait(); err != nil {
		return err
	}
	log.Info().Msg("stopped")
	return nil
}

func serve(log zerolog.Logger, name string, srv *http.Server) error {
	log.Info().Str("server", name).Str("addr", srv.Addr).Msg("listening")
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("%s server: %w", name, err)
	}
	return nil
}

func closeAndLog(log zerolog.Logger, name string, closeFn func() error) {
	if err := closeFn(); err != nil {
		log.Warn().Err(err).Str("resource", name).Msg("close failed")
	}
}
