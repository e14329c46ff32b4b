package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/peterbourgon/ff/v3"

	"grademap/packages/cache"
	"grademap/packages/config"
	"grademap/packages/country"
	"grademap/packages/crawler"
	"grademap/packages/db"
	"grademap/packages/logging"
	"grademap/packages/metrics"
	"grademap/packages/normalizer"
	"grademap/packages/worker"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, relying on system environment variables.")
	}

	fs := flag.NewFlagSet("grademap-build", flag.ExitOnError)
	var (
		countriesFlag = fs.String("countries", "", "comma-separated country identifiers, overrides COUNTRIES_FILE")
		dryRun        = fs.Bool("dry-run", false, "scrape and normalize without writing the table")
	)
	if err := ff.Parse(fs, os.Args[1:], ff.WithEnvVarPrefix("GRADEMAP_BUILD")); err != nil {
		slog.Error("Failed to parse flags", "error", err)
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	logging.Setup("grademap-build", cfg.LogLevel, cfg.LogFile)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	slog.Info("--- Starting grademap build ---")

	identifiers, err := config.LoadCountries(cfg.CountriesFile)
	if *countriesFlag != "" {
		identifiers, err = splitList(*countriesFlag), nil
	}
	if err != nil {
		slog.Error("Failed to load countries", "error", err)
		os.Exit(1)
	}

	mapping, err := config.LoadCountryMapping(cfg.CountryMappingFile)
	if err != nil {
		slog.Error("Failed to load country mapping", "error", err)
		os.Exit(1)
	}
	ausLookup, err := config.LoadLookup(cfg.AUSMappingFile)
	if err != nil {
		slog.Error("Failed to load AUS mapping", "error", err)
		os.Exit(1)
	}
	gbrLookup, err := config.LoadLookup(cfg.GBRMappingFile)
	if err != nil {
		slog.Error("Failed to load GBR mapping", "error", err)
		os.Exit(1)
	}

	var store worker.Store
	if !*dryRun {
		storage, err := db.Open(ctx, cfg)
		if err != nil {
			slog.Error("Failed to initialize database", "error", err)
			os.Exit(1)
		}
		defer storage.Close()
		store = storage
	}

	var invalidator worker.Invalidator
	if cfg.RedisAddr != "" && !*dryRun {
		rc := cache.NewRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.CacheTTL)
		defer rc.Close()
		invalidator = rc
	}

	w := worker.New(
		crawler.New(cfg.SourceBaseURL, cfg.FetchTimeout),
		normalizer.New(country.Resolve, ausLookup, gbrLookup),
		store,
		invalidator,
		mapping,
		worker.Options{FetchInterval: cfg.FetchInterval, DryRun: *dryRun},
	)

	report, err := w.Build(ctx, identifiers)
	if report != nil {
		metrics.PushBuildMetrics(cfg.PushgatewayURL, report.RunID.String())
	}
	if err != nil {
		slog.Error("Build failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Process complete", "run_id", report.RunID, "records", len(report.Records))
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
