package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/geocoder89/fintrack/internal/config"
	"github.com/geocoder89/fintrack/internal/db"
	httpx "github.com/geocoder89/fintrack/internal/http"
	"github.com/geocoder89/fintrack/internal/observability"
	"github.com/geocoder89/fintrack/internal/redisclient"
	"github.com/geocoder89/fintrack/internal/repo/postgres"
	"github.com/geocoder89/fintrack/internal/revocation"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	cfg := config.Load()

	log := observability.NewLogger(cfg.Env)

	// tracing (no-op exporter target is fine in dev)
	shutdownTracer, err := observability.InitTracer(context.Background(), "fintrack", cfg.OTLPEndpoint)

	if err != nil {
		log.Warn("tracer init failed, continuing without traces", "err", err)
		shutdownTracer = func(context.Context) error { return nil }
	}

	// postgres
	pool, err := db.NewPool(cfg.DBURL)

	if err != nil {
		log.Error("could not connect to postgres", "err", err)
		os.Exit(1)
	}

	migrateCtx, cancelMigrate := config.WithTimeout(10 * time.Second)

	err = db.Migrate(migrateCtx, pool)

	cancelMigrate()

	if err != nil {
		log.Error("schema bootstrap failed", "err", err)
		os.Exit(1)
	}

	// redis fronts the revocation list; the API still works without it
	rdb := redisclient.New(redisclient.Config{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	pingCtx, cancelPing := config.WithTimeout(2 * time.Second)

	if err := rdb.Ping(pingCtx); err != nil {
		log.Warn("redis unavailable, denylist cache disabled", "err", err)
		_ = rdb.Close()
		rdb = nil
	}

	cancelPing()

	// metrics
	reg := prometheus.NewRegistry()
	prom := observability.NewProm(reg)

	// background purge of expired revocation rows
	sweepCtx, stopSweeper := context.WithCancel(context.Background())
	sweeper := revocation.NewSweeper(postgres.NewRevokedTokensRepo(pool, prom), cfg.SweepInterval, log)

	go sweeper.Run(sweepCtx)

	router := httpx.NewRouter(httpx.Deps{
		Cfg:   cfg,
		Log:   log,
		Pool:  pool,
		Redis: rdb,
		Prom:  prom,
		Reg:   reg,
	})

	// server set up
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("Server starting", "port", cfg.Port, "env", cfg.Env)
		err := srv.ListenAndServe()

		if err != nil && err != http.ErrServerClosed {
			log.Error("server failed", "err", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Info("server shutting down")

	stopSweeper()

	shutdownCh := make(chan struct{})

	go func() {
		defer close(shutdownCh)

		ctx, cancel := config.WithTimeout(10 * time.Second)

		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Error("graceful shutdown failed", "err", err)
		}

		if err := shutdownTracer(ctx); err != nil {
			log.Error("tracer shutdown failed", "err", err)
		}
	}()

	select {
	case <-shutdownCh:
		pool.Close()

		if rdb != nil {
			_ = rdb.Close()
		}

		log.Info("shutdown complete")

	case <-time.After(12 * time.Second):
		log.Error("shutdown timed out")
	}
}
