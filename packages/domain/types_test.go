package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDestination(t *testing.T) {
	tests := []struct {
		in   string
		want Destination
	}{
		{"nld", NLD},
		{"GBR", GBR},
		{" Aus ", AUS},
	}
	for _, tt := range tests {
		got, err := ParseDestination(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}

	_, err := ParseDestination("USA")
	assert.True(t, errors.Is(err, ErrUnknownDestination))
}

func TestRecordEquivalent(t *testing.T) {
	r := Record{NLDEquivalent: "HAVO diploma", GBREquivalent: "GCSE", AUSEquivalent: "Year 11"}

	for d, want := range map[Destination]string{NLD: "HAVO diploma", GBR: "GCSE", AUS: "Year 11"} {
		got, err := r.Equivalent(d)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := r.Equivalent(Destination("FRA"))
	assert.ErrorIs(t, err, ErrUnknownDestination)
}

func TestBuildReportCounts(t *testing.T) {
	b := &BuildReport{Outcomes: []CountryOutcome{
		{Identifier: "france"},
		{Identifier: "narnia", Err: errors.New("boom")},
		{Identifier: "germany"},
	}}
	ok, failed := b.Counts()
	assert.Equal(t, 2, ok)
	assert.Equal(t, 1, failed)
}
