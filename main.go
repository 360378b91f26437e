package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/zeventbooks/eventgateway/config"
	"github.com/zeventbooks/eventgateway/handler"
	"github.com/zeventbooks/eventgateway/logger"
	"github.com/zeventbooks/eventgateway/observability"
	"github.com/zeventbooks/eventgateway/redisclient"
	"github.com/zeventbooks/eventgateway/router"
	"github.com/zeventbooks/eventgateway/sheetsauth"
	"github.com/zeventbooks/eventgateway/shortlink"
	"github.com/zeventbooks/eventgateway/store"
	"github.com/zeventbooks/eventgateway/writer"
)

func main() {
	cfg := config.Load()
	log := logger.New(cfg)

	log.Info().Str("env", cfg.Env).Msg("event gateway starting")

	// sheetsauth.RedisCache and handler.BundleCache are interfaces: only
	// assign them when a real client was built, so a typed-nil
	// *redisclient.Client never gets wrapped into a non-nil interface
	// value.
	var tokenCache sheetsauth.RedisCache
	var bundleCache handler.BundleCache
	if cfg.RedisURL != "" {
		rc, err := redisclient.New(cfg)
		if err == nil {
			err = rc.Ping()
		}
		if err != nil {
			log.Warn().Err(err).Msg("redis init failed — continuing with process-local caching only")
		} else {
			tokenCache = rc
			bundleCache = rc
			log.Info().Msg("redis connected")
		}
	}

	metrics := observability.NewMetrics()

	tokens := sheetsauth.New(cfg, log, tokenCache)
	storeClient := store.NewClient(cfg, log, tokens, "").WithMetrics(metrics)
	if !storeClient.IsConfigured() {
		log.Warn().Msg("store adapter is not configured — spreadsheet credentials are missing")
	}

	locks := writer.NewKeyedMutex().WithMetrics(metrics)
	creator := writer.NewCreator(storeClient, locks, cfg.LockWait, log)
	merger := writer.NewMerger(storeClient, locks, cfg.LockWait, log)
	// The analytics appender is a library collaborator exercised by its
	// own tests; no route in the API table triggers it directly.
	_ = writer.NewAppender(storeClient, log).WithMetrics(metrics)

	resolver := shortlink.New(storeClient, log, cfg.AnalyticsEnv()).WithMetrics(metrics)

	h := router.Handlers{
		Bundle:    handler.NewBundleHandlers(storeClient, log).WithCache(bundleCache),
		Writer:    handler.NewWriterHandlers(creator, merger),
		Status:    handler.NewStatusHandler(cfg, storeClient),
		Shortlink: handler.NewShortlinkHandler(resolver),
	}

	r := router.NewRouter(cfg, log, metrics, h)

	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: cfg.StoreTimeout + 30*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Info().Str("addr", cfg.Addr).Msg("gateway listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-done
	log.Info().Msg("shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.GracefulTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	} else {
		log.Info().Msg("gateway stopped gracefully")
	}
}
