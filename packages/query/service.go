// Package query answers grade-equivalency lookups against the persisted table.
package query

import (
	"context"
	"errors"
	"strings"

	"grademap/packages/cache"
	"grademap/packages/domain"
	"grademap/packages/logging"
	"grademap/packages/metrics"
)

// ErrNoInformation means the filters matched nothing. It is distinct from a
// store or validation failure.
var ErrNoInformation = errors.New("No information found for the given parameters.")

type Reader interface {
	EquivalenciesBySource(ctx context.Context, code string) ([]domain.Record, error)
}

// Cache entries are scoped to a build generation. Generation must be read
// before the store so a write never outlives the build it came from.
type Cache interface {
	Generation(ctx context.Context) (string, error)
	Get(ctx context.Context, generation, sourceCode string) ([]domain.Record, error)
	Set(ctx context.Context, generation, sourceCode string, records []domain.Record) error
}

type Service struct {
	reader Reader
	cache  Cache
}

func NewService(reader Reader, c Cache) *Service {
	if c == nil {
		c = cache.Noop{}
	}
	return &Service{reader: reader, cache: c}
}

// ListGrades returns every grade recorded for sourceISO, with the equivalent
// for destination.
func (s *Service) ListGrades(ctx context.Context, sourceISO, destination string) ([]domain.GradeMatch, error) {
	matches, err := s.find(ctx, sourceISO, destination, nil)
	recordResult("list_grades", err)
	return matches, err
}

// GetGrade is ListGrades restricted to grade types containing grade,
// compared case-insensitively.
func (s *Service) GetGrade(ctx context.Context, sourceISO, grade, destination string) ([]domain.GradeMatch, error) {
	needle := strings.ToLower(grade)
	matches, err := s.find(ctx, sourceISO, destination, func(r domain.Record) bool {
		return strings.Contains(strings.ToLower(r.GradeType), needle)
	})
	recordResult("get_grade", err)
	return matches, err
}

func (s *Service) find(ctx context.Context, sourceISO, destination string, keep func(domain.Record) bool) ([]domain.GradeMatch, error) {
	dest, err := domain.ParseDestination(destination)
	if err != nil {
		return nil, err
	}

	records, err := s.records(ctx, strings.ToUpper(strings.TrimSpace(sourceISO)))
	if err != nil {
		return nil, err
	}

	var matches []domain.GradeMatch
	for _, r := range records {
		if keep != nil && !keep(r) {
			continue
		}
		eq, err := r.Equivalent(dest)
		if err != nil {
			return nil, err
		}
		matches = append(matches, domain.GradeMatch{
			SourceISOCountryCode: r.SourceCountryCode,
			CountryName:          r.CountryName,
			GradeType:            r.GradeType,
			EquivalentGrade:      eq,
		})
	}
	if len(matches) == 0 {
		return nil, ErrNoInformation
	}
	return matches, nil
}

func (s *Service) records(ctx context.Context, code string) ([]domain.Record, error) {
	logger := logging.FromContext(ctx)

	gen, err := s.cache.Generation(ctx)
	if err != nil {
		metrics.CacheLookups.WithLabelValues("error").Inc()
		logger.Warn("Query cache generation read failed", "source", code, "error", err)
		return s.reader.EquivalenciesBySource(ctx, code)
	}

	records, err := s.cache.Get(ctx, gen, code)
	switch {
	case err == nil:
		metrics.CacheLookups.WithLabelValues("hit").Inc()
		return records, nil
	case errors.Is(err, cache.ErrMiss):
		metrics.CacheLookups.WithLabelValues("miss").Inc()
	default:
		metrics.CacheLookups.WithLabelValues("error").Inc()
		logger.Warn("Query cache read failed", "source", code, "error", err)
	}

	records, err = s.reader.EquivalenciesBySource(ctx, code)
	if err != nil {
		return nil, err
	}
	if len(records) > 0 {
		if err := s.cache.Set(ctx, gen, code, records); err != nil {
			logger.Warn("Query cache write failed", "source", code, "error", err)
		}
	}
	return records, nil
}

func recordResult(operation string, err error) {
	result := "ok"
	switch {
	case err == nil:
	case errors.Is(err, ErrNoInformation):
		result = "no_information"
	case errors.Is(err, domain.ErrUnknownDestination):
		result = "bad_destination"
	default:
		result = "error"
	}
	metrics.QueryRequests.WithLabelValues(operation, result).Inc()
}
