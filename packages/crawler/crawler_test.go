package crawler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const diplomaTable = `<html><body>
<p>Some introduction about the education system of France and how diplomas compare.</p>
<table>
  <thead><tr><th>Diploma</th><th> Comparable
      to </th></tr></thead>
  <tbody>
    <tr><td>Baccalauréat général</td><td>VWO diploma</td></tr>
    <tr></tr>
    <tr><th>Licence</th><td>bachelor's degree (WO)</td></tr>
  </tbody>
</table>
<table><tr><td>second table</td></tr></table>
</body></html>`

func newSite(t *testing.T, pages map[string]string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := pages[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestURLs(t *testing.T) {
	c := New("https://www.nuffic.nl/en/education-systems/", time.Second)
	primary, fallback := c.URLs("France")
	assert.Equal(t, "https://www.nuffic.nl/en/education-systems/france/level-of-diplomas", primary)
	assert.Equal(t, "https://www.nuffic.nl/en/education-systems/france", fallback)
}

func TestFetchTable_DiplomaPage(t *testing.T) {
	srv := newSite(t, map[string]string{"/france/level-of-diplomas": diplomaTable})
	c := New(srv.URL, 5*time.Second)

	table, err := c.FetchTable(context.Background(), "France")
	require.NoError(t, err)

	assert.Equal(t, srv.URL+"/france/level-of-diplomas", table.URL)
	assert.Equal(t, [][]string{
		{"Diploma", "Comparable to"},
		{"Baccalauréat général", "VWO diploma"},
		{"Licence", "bachelor's degree (WO)"},
	}, table.Rows)
}

func TestFetchTable_FallsBackWhenNoTable(t *testing.T) {
	srv := newSite(t, map[string]string{
		"/germany/level-of-diplomas": `<html><body><p>No table here</p></body></html>`,
		"/germany":                   `<table><tr><th>Diploma</th><th>Comparable</th></tr><tr><td>Abitur</td><td>VWO diploma</td></tr></table>`,
	})
	c := New(srv.URL, 5*time.Second)

	table, err := c.FetchTable(context.Background(), "germany")
	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/germany", table.URL)
	assert.Equal(t, []string{"Abitur", "VWO diploma"}, table.Rows[1])
}

func TestFetchTable_FallsBackOnNotFound(t *testing.T) {
	srv := newSite(t, map[string]string{
		"/aruba": `<table><tr><th>Diploma</th><th>Comparable to</th></tr></table>`,
	})
	c := New(srv.URL, 5*time.Second)

	table, err := c.FetchTable(context.Background(), "aruba")
	require.NoError(t, err)
	assert.Len(t, table.Rows, 1)
}

func TestFetchTable_NoTableAnywhere(t *testing.T) {
	srv := newSite(t, map[string]string{
		"/narnia/level-of-diplomas": `<p>nothing</p>`,
		"/narnia":                   `<p>still nothing</p>`,
	})
	c := New(srv.URL, 5*time.Second)

	_, err := c.FetchTable(context.Background(), "narnia")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoTable))

	var fe *FetchError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "narnia", fe.Identifier)
	assert.Equal(t, srv.URL+"/narnia", fe.URL)
}

func TestFetchTable_FallbackNotFound(t *testing.T) {
	srv := newSite(t, map[string]string{})
	c := New(srv.URL, 5*time.Second)

	_, err := c.FetchTable(context.Background(), "atlantis")
	var fe *FetchError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, http.StatusNotFound, fe.StatusCode)
}

func TestFetchTable_TransportErrorDoesNotFallBack(t *testing.T) {
	srv := newSite(t, nil)
	url := srv.URL
	srv.Close()

	c := New(url, time.Second)
	_, err := c.FetchTable(context.Background(), "france")
	var fe *FetchError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, url+"/france/level-of-diplomas", fe.URL)
}

func TestExtractFirstTable(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(`<div><table><tr><td>  a  </td><th>b</th></tr><tr></tr></table></div>`))
	require.NoError(t, err)

	rows, ok := ExtractFirstTable(doc)
	require.True(t, ok)
	assert.Equal(t, [][]string{{"a", "b"}}, rows)

	doc, err = goquery.NewDocumentFromReader(strings.NewReader(`<p>none</p>`))
	require.NoError(t, err)
	_, ok = ExtractFirstTable(doc)
	assert.False(t, ok)
}

func TestDetectLanguage(t *testing.T) {
	assert.Equal(t, "", detectLanguage(nil))
	rows := [][]string{
		{"Diploma", "Comparable to"},
		{"The general secondary school leaving certificate is comparable to the level of a Dutch pre-university education diploma", "VWO diploma"},
		{"Students who complete the final year of upper secondary school receive this certificate and may then apply to study at a university in the country", "VWO diploma"},
	}
	assert.Equal(t, "eng", detectLanguage(rows))
}
