// Package normalizer turns scraped Nuffic tables into equivalency records.
package normalizer

import (
	"fmt"

	"grademap/packages/config"
	"grademap/packages/domain"
)

const (
	headerDiploma      = "Diploma"
	headerComparableTo = "Comparable to"
	headerComparable   = "Comparable"
)

type NormalizationError struct {
	Country string
	Reason  string
}

func (e *NormalizationError) Error() string {
	return fmt.Sprintf("normalize %s: %s", e.Country, e.Reason)
}

// ResolveFunc maps a country name to its alpha-3 code and canonical name.
type ResolveFunc func(name string) (code, canonicalName string)

type Normalizer struct {
	resolve ResolveFunc
	aus     config.Lookup
	gbr     config.Lookup
}

func New(resolve ResolveFunc, aus, gbr config.Lookup) *Normalizer {
	return &Normalizer{resolve: resolve, aus: aus, gbr: gbr}
}

// Normalize treats rows[0] as the header. Every record gets the same country
// fields, resolved from country.
func (n *Normalizer) Normalize(country string, rows [][]string) ([]domain.Record, error) {
	if len(rows) == 0 {
		return nil, &NormalizationError{Country: country, Reason: "table has no rows"}
	}

	gradeCol, nldCol := -1, -1
	header := rows[0]
	for i, h := range header {
		switch h {
		case headerDiploma:
			if gradeCol < 0 {
				gradeCol = i
			}
		case headerComparableTo:
			if nldCol < 0 {
				nldCol = i
			}
		}
	}
	if nldCol < 0 {
		for i, h := range header {
			if h == headerComparable {
				nldCol = i
				break
			}
		}
	}
	if gradeCol < 0 {
		return nil, &NormalizationError{Country: country, Reason: fmt.Sprintf("missing %q column in header %q", headerDiploma, header)}
	}
	if nldCol < 0 {
		return nil, &NormalizationError{Country: country, Reason: fmt.Sprintf("missing %q column in header %q", headerComparableTo, header)}
	}

	code, name := n.resolve(country)

	records := make([]domain.Record, 0, len(rows)-1)
	for i, row := range rows[1:] {
		if len(row) > len(header) {
			return nil, &NormalizationError{
				Country: country,
				Reason:  fmt.Sprintf("row %d has %d cells, header has %d", i+1, len(row), len(header)),
			}
		}
		nld := cell(row, nldCol)
		records = append(records, domain.Record{
			SourceCountryCode: code,
			CountryName:       name,
			GradeType:         cell(row, gradeCol),
			NLDEquivalent:     nld,
			AUSEquivalent:     lookup(n.aus, nld),
			GBREquivalent:     lookup(n.gbr, nld),
		})
	}
	return records, nil
}

func cell(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}

func lookup(l config.Lookup, key string) string {
	if v, ok := l[key]; ok {
		return v
	}
	return domain.NoEquivalency
}
