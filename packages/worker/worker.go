// Package worker
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"grademap/packages/config"
	"grademap/packages/domain"
	"grademap/packages/metrics"
)

var ErrNoRecords = errors.New("no country produced any records")

type Fetcher interface {
	FetchTable(ctx context.Context, identifier string) (*domain.Table, error)
}

type Normalizer interface {
	Normalize(country string, rows [][]string) ([]domain.Record, error)
}

type Store interface {
	ReplaceEquivalencies(ctx context.Context, report *domain.BuildReport) error
}

type Invalidator interface {
	// Invalidate publishes runID as the current cache generation and drops
	// cached entries.
	Invalidate(ctx context.Context, runID string) (int, error)
}

type Options struct {
	// FetchInterval pauses between consecutive countries.
	FetchInterval time.Duration
	// DryRun scrapes and normalizes without touching the store or cache.
	DryRun bool
}

type Worker struct {
	fetcher    Fetcher
	normalizer Normalizer
	store      Store
	cache      Invalidator
	mapping    config.CountryMapping
	opts       Options
}

func New(fetcher Fetcher, normalizer Normalizer, store Store, cache Invalidator, mapping config.CountryMapping, opts Options) *Worker {
	return &Worker{
		fetcher:    fetcher,
		normalizer: normalizer,
		store:      store,
		cache:      cache,
		mapping:    mapping,
		opts:       opts,
	}
}

// Build scrapes every identifier in order, skipping countries that fail, and
// replaces the persisted table with the union of the rest.
func (w *Worker) Build(ctx context.Context, identifiers []string) (*domain.BuildReport, error) {
	report := &domain.BuildReport{RunID: uuid.New(), StartedAt: time.Now().UTC()}
	logger := slog.With("run_id", report.RunID.String())
	logger.Info("Starting equivalency build", "countries", len(identifiers), "dry_run", w.opts.DryRun)

	for i, identifier := range identifiers {
		if i > 0 && w.opts.FetchInterval > 0 {
			if err := sleep(ctx, w.opts.FetchInterval); err != nil {
				return report, err
			}
		}
		if err := ctx.Err(); err != nil {
			return report, err
		}

		outcome := w.processCountry(ctx, identifier)
		report.Outcomes = append(report.Outcomes, outcome)
		if !outcome.OK() {
			metrics.BuildCountries.WithLabelValues("failed").Inc()
			logger.Warn("Failed on country", "country", identifier, "slug", outcome.Slug, "error", outcome.Err)
			continue
		}
		metrics.BuildCountries.WithLabelValues("ok").Inc()
		report.Records = append(report.Records, outcome.Records...)
		logger.Info("Created country", "country", identifier, "records", len(outcome.Records))
	}
	report.FinishedAt = time.Now().UTC()

	ok, failed := report.Counts()
	metrics.BuildRecords.Set(float64(len(report.Records)))
	logger.Info("Scrape finished", "countries_ok", ok, "countries_failed", failed, "records", len(report.Records))

	if len(report.Records) == 0 {
		return report, ErrNoRecords
	}
	if w.opts.DryRun {
		logger.Info("Dry run, skipping persistence")
		return report, nil
	}

	if err := w.store.ReplaceEquivalencies(ctx, report); err != nil {
		return report, fmt.Errorf("persist equivalencies: %w", err)
	}
	logger.Info("Created equivalencies table")

	if w.cache != nil {
		n, err := w.cache.Invalidate(ctx, report.RunID.String())
		if err != nil {
			logger.Warn("Failed to invalidate query cache", "error", err)
		} else {
			logger.Info("Invalidated query cache", "keys", n)
		}
	}
	return report, nil
}

func (w *Worker) processCountry(ctx context.Context, identifier string) domain.CountryOutcome {
	target := w.mapping.Resolve(identifier)
	outcome := domain.CountryOutcome{Identifier: identifier, Slug: target.Slug}

	table, err := w.fetcher.FetchTable(ctx, target.Slug)
	if err != nil {
		outcome.Err = err
		return outcome
	}
	if table.Language != "" && table.Language != "eng" {
		slog.Warn("Country page is not in English", "country", identifier, "url", table.URL, "language", table.Language)
	}

	records, err := w.normalizer.Normalize(target.Country, table.Rows)
	if err != nil {
		outcome.Err = err
		return outcome
	}
	outcome.Records = records
	return outcome
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
