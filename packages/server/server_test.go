package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grademap/packages/domain"
	"grademap/packages/query"
)

type fakeReader struct {
	records []domain.Record
	err     error
}

func (f *fakeReader) EquivalenciesBySource(ctx context.Context, code string) ([]domain.Record, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []domain.Record
	for _, r := range f.records {
		if r.SourceCountryCode == code {
			out = append(out, r)
		}
	}
	return out, nil
}

type fakePinger struct{ err error }

func (p fakePinger) Ping(context.Context) error { return p.err }

var records = []domain.Record{
	{SourceCountryCode: "FRA", CountryName: "France", GradeType: "Baccalaureat general", NLDEquivalent: "VWO diploma", GBREquivalent: "GCE A Level", AUSEquivalent: "Year 12"},
	{SourceCountryCode: "FRA", CountryName: "France", GradeType: "Licence", NLDEquivalent: "bachelor's degree (WO)", GBREquivalent: "Bachelor's Degree (Honours)", AUSEquivalent: domain.NoEquivalency},
}

func newTestServer(reader query.Reader, ping error) *Server {
	return New(query.NewService(reader, nil), fakePinger{err: ping}, 0)
}

func get(t *testing.T, s *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestRoot(t *testing.T) {
	rec := get(t, newTestServer(&fakeReader{}, nil), "/")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"Hello World"}`, rec.Body.String())
}

func TestGetGrade(t *testing.T) {
	rec := get(t, newTestServer(&fakeReader{records: records}, nil), "/grades/fra/gbr?grade=BACCALAUREAT")
	require.Equal(t, http.StatusOK, rec.Code)

	var got []domain.GradeMatch
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, []domain.GradeMatch{{
		SourceISOCountryCode: "FRA",
		CountryName:          "France",
		GradeType:            "Baccalaureat general",
		EquivalentGrade:      "GCE A Level",
	}}, got)
}

func TestGetGrade_MissingGradeParam(t *testing.T) {
	rec := get(t, newTestServer(&fakeReader{records: records}, nil), "/grades/FRA/GBR")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListGrades(t *testing.T) {
	rec := get(t, newTestServer(&fakeReader{records: records}, nil), "/list-grades/FRA/aus")
	require.Equal(t, http.StatusOK, rec.Code)

	var got []domain.GradeMatch
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 2)
	assert.Equal(t, "Year 12", got[0].EquivalentGrade)
	assert.Equal(t, domain.NoEquivalency, got[1].EquivalentGrade)
}

func TestNoInformationIsJSONString(t *testing.T) {
	rec := get(t, newTestServer(&fakeReader{records: records}, nil), "/list-grades/ZZZ/NLD")
	require.Equal(t, http.StatusOK, rec.Code)

	var msg string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &msg))
	assert.Equal(t, "No information found for the given parameters.", msg)
}

func TestUnknownDestinationIsBadRequest(t *testing.T) {
	rec := get(t, newTestServer(&fakeReader{records: records}, nil), "/list-grades/FRA/USA")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "unknown destination")
}

func TestStoreFailureIsServerError(t *testing.T) {
	rec := get(t, newTestServer(&fakeReader{err: errors.New("db down")}, nil), "/list-grades/FRA/NLD")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "db down")
}

func TestHealth(t *testing.T) {
	assert.Equal(t, http.StatusOK, get(t, newTestServer(&fakeReader{}, nil), "/healthz").Code)
	assert.Equal(t, http.StatusServiceUnavailable, get(t, newTestServer(&fakeReader{}, errors.New("down")), "/healthz").Code)
}

func TestMetricsEndpoint(t *testing.T) {
	rec := get(t, newTestServer(&fakeReader{}, nil), "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
}
