package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/peterbourgon/ff/v3"
	"golang.org/x/sync/errgroup"

	"grademap/packages/cache"
	"grademap/packages/config"
	"grademap/packages/db"
	"grademap/packages/logging"
	"grademap/packages/query"
	"grademap/packages/server"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, relying on system environment variables.")
	}

	fs := flag.NewFlagSet("grademap-api", flag.ExitOnError)
	listen := fs.String("listen", "", "listen address, overrides LISTEN_ADDR")
	if err := ff.Parse(fs, os.Args[1:], ff.WithEnvVarPrefix("GRADEMAP_API")); err != nil {
		slog.Error("Failed to parse flags", "error", err)
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	if *listen != "" {
		cfg.ListenAddr = *listen
	}
	logging.Setup("grademap-api", cfg.LogLevel, cfg.LogFile)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	storage, err := db.Open(ctx, cfg)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer storage.Close()

	var qc query.Cache = cache.Noop{}
	if cfg.RedisAddr != "" {
		rc := cache.NewRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.CacheTTL)
		if err := rc.Ping(ctx); err != nil {
			slog.Warn("Redis unreachable, serving without cache", "addr", cfg.RedisAddr, "error", err)
			_ = rc.Close()
		} else {
			defer rc.Close()
			qc = rc
		}
	}

	srv := server.New(query.NewService(storage, qc), storage, cfg.RequestTimeout)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.ListenAndServe(cfg.ListenAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("Shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		slog.Error("Server exited with error", "error", err)
		os.Exit(1)
	}
	slog.Info("Server stopped")
}
