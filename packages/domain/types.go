// Package domain
package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	UnknownCountryCode = "UNK"
	UnknownCountryName = "Unknown"
	NoEquivalency      = "No equivalency"
)

var ErrUnknownDestination = errors.New("unknown destination country")

type Destination string

const (
	NLD Destination = "NLD"
	GBR Destination = "GBR"
	AUS Destination = "AUS"
)

func ParseDestination(s string) (Destination, error) {
	switch d := Destination(strings.ToUpper(strings.TrimSpace(s))); d {
	case NLD, GBR, AUS:
		return d, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownDestination, s)
}

// Record is one row of the persisted equivalency table.
type Record struct {
	SourceCountryCode string `json:"source_country_iso3_code"`
	CountryName       string `json:"country_name"`
	GradeType         string `json:"grade_type"`
	NLDEquivalent     string `json:"NLD_equivalent"`
	AUSEquivalent     string `json:"AUS_equivalent"`
	GBREquivalent     string `json:"GBR_equivalent"`
}

func (r Record) Equivalent(d Destination) (string, error) {
	switch d {
	case NLD:
		return r.NLDEquivalent, nil
	case GBR:
		return r.GBREquivalent, nil
	case AUS:
		return r.AUSEquivalent, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownDestination, string(d))
}

// GradeMatch is the response shape of both read endpoints.
type GradeMatch struct {
	SourceISOCountryCode string `json:"source_iso_country_code"`
	CountryName          string `json:"country_name"`
	GradeType            string `json:"grade_type"`
	EquivalentGrade      string `json:"equivalent_grade"`
}

type Table struct {
	URL      string
	Rows     [][]string
	Language string // ISO 639-3, empty when undetected
}

type CountryOutcome struct {
	Identifier string
	Slug       string
	Records    []Record
	Err        error
}

func (o CountryOutcome) OK() bool { return o.Err == nil }

type BuildReport struct {
	RunID      uuid.UUID
	StartedAt  time.Time
	FinishedAt time.Time
	Outcomes   []CountryOutcome
	Records    []Record
}

func (b *BuildReport) Counts() (ok, failed int) {
	for _, o := range b.Outcomes {
		if o.OK() {
			ok++
		} else {
			failed++
		}
	}
	return ok, failed
}
