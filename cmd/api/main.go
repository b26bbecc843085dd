package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"space-trips/internal/catalog"
	"space-trips/internal/config"
	"space-trips/internal/database"
	"space-trips/internal/logger"
	"space-trips/internal/metrics"
	"space-trips/internal/server"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "space-trips: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log, err := logger.New(cfg.LogLevel, cfg.LogPretty)
	if err != nil {
		return err
	}
	defer log.Sync()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	rec := metrics.NewCollector(reg)

	if cfg.RunMigrations {
		if err := database.RunMigrations(cfg.DatabaseURL()); err != nil {
			return err
		}
		log.Info("migrations applied")
	}

	db, err := database.New(cfg.DatabaseURL(), log)
	if err != nil {
		return err
	}
	defer db.Close()

	cache, closeCache, err := newLaunchCache(cfg, log)
	if err != nil {
		return err
	}
	defer closeCache()

	launches := catalog.NewClient(cfg.SpaceXAPIURL, &http.Client{Timeout: cfg.CatalogTimeout}, cache, log, rec)

	srv := server.NewServer(cfg, server.Deps{
		DB:       db,
		Catalog:  launches,
		Logger:   log,
		Metrics:  rec,
		Gatherer: reg,
	})

	// Create a listener on the desired address
	listener, err := net.Listen("tcp", srv.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", srv.Addr, err)
	}

	// Channel to receive errors from the server
	errChan := make(chan error, 1)

	go func() {
		log.Info("server started", logger.String("addr", srv.Addr))
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	// Wait for an interrupt or server error
	select {
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	case sig := <-stop:
		log.Info("initiating graceful shutdown", logger.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("could not gracefully shut down the server: %w", err)
		}

		log.Info("server gracefully stopped")
	}
	return nil
}

// newLaunchCache picks Redis when REDIS_ADDR is set, otherwise an in-process cache.
func newLaunchCache(cfg *config.Config, log logger.Logger) (catalog.Cache, func(), error) {
	if cfg.RedisAddr == "" {
		return catalog.NewMemoryCache(cfg.CatalogCacheTTL), func() {}, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := catalog.ConnectRedis(ctx, catalog.RedisOptions{
		Addr:          cfg.RedisAddr,
		Password:      cfg.RedisPassword,
		DB:            cfg.RedisDB,
		Attempts:      5,
		RetryInterval: 500 * time.Millisecond,
	}, log)
	if err != nil {
		return nil, nil, err
	}
	return catalog.NewRedisCache(client, cfg.CatalogCacheTTL), func() { _ = client.Close() }, nil
}
