// Package db
package db

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"grademap/packages/config"
	"grademap/packages/domain"
	"grademap/packages/metrics"
)

const buildsTable = "equivalency_builds"

// Pool is the subset of *pgxpool.Pool that Storage uses.
type Pool interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Ping(ctx context.Context) error
	Close()
}

type Storage struct {
	DB    Pool
	table string
}

type Config struct {
	URL      string
	Password string // overrides the password in URL when set
	MaxConns int
	Table    string
}

func New(ctx context.Context, cfg Config) (*Storage, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("unable to parse database url: %w", err)
	}
	if cfg.Password != "" {
		poolCfg.ConnConfig.Password = cfg.Password
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = int32(cfg.MaxConns)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	return NewWithPool(pool, cfg.Table), nil
}

func NewWithPool(pool Pool, table string) *Storage {
	if table == "" {
		table = "equivalencies"
	}
	return &Storage{DB: pool, table: table}
}

func (s *Storage) Close() {
	s.DB.Close()
}

func (s *Storage) Ping(ctx context.Context) error {
	return s.DB.Ping(ctx)
}

func (s *Storage) WithTransaction(ctx context.Context, fn func(tx pgx.Tx) error) (err error) {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		} else if err != nil {
			_ = tx.Rollback(ctx)
		} else {
			err = tx.Commit(ctx)
		}
	}()

	return fn(tx)
}

func observe(queryName string, start time.Time) {
	metrics.DBQueryDuration.WithLabelValues(queryName).Observe(time.Since(start).Seconds())
}

func (s *Storage) tableIdent() string {
	return pgx.Identifier{s.table}.Sanitize()
}

// ReplaceEquivalencies swaps the whole table for report.Records in one
// transaction. TRUNCATE holds an exclusive lock until commit, so readers see
// either the previous build or this one.
func (s *Storage) ReplaceEquivalencies(ctx context.Context, report *domain.BuildReport) error {
	defer observe("replace_equivalencies", time.Now())

	table := s.tableIdent()
	rows := copyRows(report.Records)
	ok, failed := report.Counts()

	err := s.WithTransaction(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, createTableSQL(table)); err != nil {
			return fmt.Errorf("failed to create %s: %w", s.table, err)
		}
		if _, err := tx.Exec(ctx, createBuildsSQL); err != nil {
			return fmt.Errorf("failed to create %s: %w", buildsTable, err)
		}
		if _, err := tx.Exec(ctx, "TRUNCATE "+table); err != nil {
			return fmt.Errorf("failed to truncate %s: %w", s.table, err)
		}

		n, err := tx.CopyFrom(ctx, pgx.Identifier{s.table}, copyColumns, pgx.CopyFromRows(rows))
		if err != nil {
			return fmt.Errorf("failed to copy equivalencies: %w", err)
		}
		if int(n) != len(rows) {
			return fmt.Errorf("copied %d of %d equivalencies", n, len(rows))
		}

		_, err = tx.Exec(ctx,
			`INSERT INTO `+buildsTable+` (run_id, started_at, finished_at, countries_ok, countries_failed, records)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			report.RunID, report.StartedAt, report.FinishedAt, ok, failed, len(rows))
		if err != nil {
			return fmt.Errorf("failed to record build: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	slog.Info("Replaced equivalency table", "table", s.table, "records", len(rows), "run_id", report.RunID)
	return nil
}

// EquivalenciesBySource returns every record for an alpha-3 code in build order.
func (s *Storage) EquivalenciesBySource(ctx context.Context, code string) ([]domain.Record, error) {
	defer observe("equivalencies_by_source", time.Now())

	rows, err := s.DB.Query(ctx,
		`SELECT source_country_iso3_code, country_name, grade_type, nld_equivalent, aus_equivalent, gbr_equivalent
		 FROM `+s.tableIdent()+`
		 WHERE source_country_iso3_code = $1
		 ORDER BY position`, code)
	if err != nil {
		return nil, fmt.Errorf("failed to query equivalencies: %w", err)
	}

	records, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Record, error) {
		var r domain.Record
		err := row.Scan(&r.SourceCountryCode, &r.CountryName, &r.GradeType, &r.NLDEquivalent, &r.AUSEquivalent, &r.GBREquivalent)
		return r, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan equivalencies: %w", err)
	}
	return records, nil
}

var copyColumns = []string{
	"position",
	"source_country_iso3_code",
	"country_name",
	"grade_type",
	"nld_equivalent",
	"aus_equivalent",
	"gbr_equivalent",
}

// copyRows numbers records by build order; reads sort on position.
func copyRows(records []domain.Record) [][]any {
	rows := make([][]any, len(records))
	for i, r := range records {
		rows[i] = []any{i, r.SourceCountryCode, r.CountryName, r.GradeType, r.NLDEquivalent, r.AUSEquivalent, r.GBREquivalent}
	}
	return rows
}

func createTableSQL(table string) string {
	return `CREATE TABLE IF NOT EXISTS ` + table + ` (
		position                 integer NOT NULL,
		source_country_iso3_code text    NOT NULL,
		country_name             text    NOT NULL,
		grade_type               text    NOT NULL,
		nld_equivalent           text    NOT NULL,
		aus_equivalent           text    NOT NULL,
		gbr_equivalent           text    NOT NULL
	)`
}

const createBuildsSQL = `CREATE TABLE IF NOT EXISTS ` + buildsTable + ` (
	run_id           uuid PRIMARY KEY,
	started_at       timestamptz NOT NULL,
	finished_at      timestamptz NOT NULL,
	countries_ok     integer NOT NULL,
	countries_failed integer NOT NULL,
	records          integer NOT NULL
)`

// Open builds a Storage from application config, reading the password from
// the credentials file when one is configured.
func Open(ctx context.Context, cfg config.Config) (*Storage, error) {
	dbCfg := Config{URL: cfg.DatabaseURL, MaxConns: cfg.DBMaxConns, Table: cfg.TableName}
	if cfg.CredentialsFile != "" {
		token, err := config.LoadCredentialsToken(cfg.CredentialsFile)
		if err != nil {
			return nil, err
		}
		dbCfg.Password = token
	}
	return New(ctx, dbCfg)
}
