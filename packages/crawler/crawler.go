package crawler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/abadojack/whatlanggo"

	"grademap/packages/domain"
	"grademap/packages/metrics"
)

const diplomaPageSuffix = "level-of-diplomas"

var ErrNoTable = errors.New("no table found")

// FetchError reports why a country page could not produce a table.
type FetchError struct {
	Identifier string
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s (%s): status %d: %v", e.Identifier, e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch %s (%s): %v", e.Identifier, e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

var errBadStatus = errors.New("bad status code")

type Crawler struct {
	client  *http.Client
	baseURL string
}

func New(baseURL string, timeout time.Duration) *Crawler {
	return &Crawler{
		client:  &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// URLs returns the diploma-level page and the plain country page for identifier.
func (c *Crawler) URLs(identifier string) (primary, fallback string) {
	slug := strings.ToLower(strings.TrimSpace(identifier))
	fallback = c.baseURL + "/" + slug
	return fallback + "/" + diplomaPageSuffix, fallback
}

// FetchTable returns the rows of the first table on the country's diploma
// page, falling back once to the country overview page.
func (c *Crawler) FetchTable(ctx context.Context, identifier string) (*domain.Table, error) {
	primary, fallback := c.URLs(identifier)

	table, status, err := c.fetchFirstTable(ctx, "diplomas", primary)
	switch {
	case err == nil:
		return table, nil
	case errors.Is(err, ErrNoTable), errors.Is(err, errBadStatus):
		slog.Debug("No table on diploma page, trying country page", "country", identifier, "url", primary, "status_code", status)
	default:
		return nil, &FetchError{Identifier: identifier, URL: primary, StatusCode: status, Err: err}
	}

	table, status, err = c.fetchFirstTable(ctx, "country", fallback)
	if err != nil {
		return nil, &FetchError{Identifier: identifier, URL: fallback, StatusCode: status, Err: err}
	}
	return table, nil
}

func (c *Crawler) fetchFirstTable(ctx context.Context, variant, rawURL string) (table *domain.Table, status int, err error) {
	start := time.Now()
	defer func() {
		outcome := "ok"
		if err != nil {
			outcome = "error"
		}
		metrics.FetchDuration.WithLabelValues(variant, outcome).Observe(time.Since(start).Seconds())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, resp.StatusCode, errBadStatus
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("parse html: %w", err)
	}

	rows, ok := ExtractFirstTable(doc)
	if !ok {
		return nil, resp.StatusCode, ErrNoTable
	}

	return &domain.Table{
		URL:      resp.Request.URL.String(),
		Rows:     rows,
		Language: detectLanguage(rows),
	}, resp.StatusCode, nil
}

// ExtractFirstTable reads every row of the first table in document order.
// Header and data cells are both kept; rows without cells are dropped.
func ExtractFirstTable(doc *goquery.Document) ([][]string, bool) {
	table := doc.Find("table").First()
	if table.Length() == 0 {
		return nil, false
	}

	var rows [][]string
	table.Find("tr").Each(func(i int, tr *goquery.Selection) {
		var row []string
		tr.Find("td, th").Each(func(j int, cell *goquery.Selection) {
			row = append(row, cleanText(cell.Text()))
		})
		if len(row) > 0 {
			rows = append(rows, row)
		}
	})
	return rows, true
}

func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func detectLanguage(rows [][]string) string {
	var b strings.Builder
	for _, row := range rows {
		for _, cell := range row {
			b.WriteString(cell)
			b.WriteByte(' ')
		}
	}
	text := strings.TrimSpace(b.String())
	if text == "" {
		return ""
	}
	info := whatlanggo.Detect(text)
	if !info.IsReliable() {
		return ""
	}
	return info.Lang.Iso6393()
}
