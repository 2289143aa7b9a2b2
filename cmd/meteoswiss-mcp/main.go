package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alpweather/meteoswiss-mcp/pkg/cache"
	"github.com/alpweather/meteoswiss-mcp/pkg/client"
	"github.com/alpweather/meteoswiss-mcp/pkg/config"
	"github.com/alpweather/meteoswiss-mcp/pkg/logger"
	"github.com/alpweather/meteoswiss-mcp/pkg/meteoswiss"
	"github.com/alpweather/meteoswiss-mcp/pkg/server"
	"github.com/alpweather/meteoswiss-mcp/pkg/session"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	slogger := logger.New(os.Stderr, cfg.Log.Level, cfg.Log.Format)

	httpCache := cache.New(
		cache.WithCleanupInterval(cfg.Cache.CleanupInterval()),
		cache.WithLogger(slogger),
	)
	httpCache.StartCleanupDaemon()

	registry := session.NewRegistry(
		session.WithMaxSessions(cfg.Session.MaxSessions),
		session.WithIdleTimeout(cfg.Session.IdleTimeout()),
		session.WithSweepInterval(cfg.Session.SweepInterval()),
		session.WithLogger(slogger),
	)
	registry.StartSweep()

	httpClient := client.NewClient(
		client.WithTimeout(cfg.Fetch.ClientTimeout()),
		client.WithTransport(client.NewTransport(
			client.WithMaxIdleConns(cfg.Fetch.MaxIdleConns),
			client.WithMaxIdleConnsPerHost(cfg.Fetch.MaxIdleConnsPerHost),
			client.WithIdleConnTimeout(cfg.Fetch.IdleConnTimeout()),
		)),
	)

	fetcherOpts := []client.FetcherOption{
		client.WithHTTPClient(httpClient),
		client.WithRetries(cfg.Fetch.Retries),
		client.WithRetryDelay(cfg.Fetch.RetryDelay()),
		client.WithRequestTimeout(cfg.Fetch.Timeout()),
		client.WithUserAgent(cfg.Fetch.UserAgent),
		client.WithLogger(slogger),
	}
	if cfg.Cache.Enabled {
		fetcherOpts = append(fetcherOpts, client.WithCache(httpCache))
	}
	fetcher := client.NewFetcher(fetcherOpts...)

	meteo := meteoswiss.NewClient(fetcher, meteoswiss.WithLogger(slogger))

	srv := server.New(meteo, httpCache, registry,
		server.WithLogger(slogger),
		server.WithAllowedOrigins(cfg.AllowedOrigins),
	)

	httpServer := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: srv.Routes(),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		slogger.Info("meteoswiss mcp server listening", "addr", cfg.ListenAddr)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		slogger.Info("shutting down")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slogger.Error("server error", "err", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slogger.Warn("http shutdown", "err", err)
	}

	if err := registry.Stop(); err != nil {
		slogger.Warn("closing sessions", "err", err)
	}
	httpCache.StopCleanupDaemon()
	slogger.Info("bye")
}
