package config

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/tidwall/gjson"
)

// Lookup maps an NLD comparison string to a foreign equivalent.
type Lookup map[string]string

// CountryTarget is where an internal country identifier points on the source
// site (Slug) and in the country registry (Country).
type CountryTarget struct {
	Slug    string
	Country string
}

type CountryMapping map[string]CountryTarget

// Resolve returns the fetch slug and registry name for identifier. Unmapped
// identifiers map to themselves.
func (m CountryMapping) Resolve(identifier string) CountryTarget {
	t, ok := m[identifier]
	if !ok {
		return CountryTarget{Slug: identifier, Country: identifier}
	}
	if t.Slug == "" {
		t.Slug = identifier
	}
	if t.Country == "" {
		t.Country = identifier
	}
	return t
}

func LoadLookup(path string) (Lookup, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read lookup %s: %w", path, err)
	}
	var l Lookup
	if err := json.Unmarshal(data, &l); err != nil {
		return nil, fmt.Errorf("parse lookup %s: %w", path, err)
	}
	return l, nil
}

// LoadCountryMapping reads the identifier translation file. A string value
// replaces the identifier everywhere; an object may set "slug" and "country"
// separately.
func LoadCountryMapping(path string) (CountryMapping, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read country mapping %s: %w", path, err)
	}
	return ParseCountryMapping(data)
}

func ParseCountryMapping(data []byte) (CountryMapping, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("country mapping is not valid JSON")
	}
	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return nil, fmt.Errorf("country mapping must be a JSON object")
	}

	m := make(CountryMapping)
	var parseErr error
	root.ForEach(func(key, value gjson.Result) bool {
		switch {
		case value.Type == gjson.String:
			m[key.String()] = CountryTarget{Slug: value.String(), Country: value.String()}
		case value.IsObject():
			m[key.String()] = CountryTarget{
				Slug:    value.Get("slug").String(),
				Country: value.Get("country").String(),
			}
		default:
			parseErr = fmt.Errorf("country mapping %q: want string or object, got %s", key.String(), value.Type)
			return false
		}
		return true
	})
	if parseErr != nil {
		return nil, parseErr
	}
	return m, nil
}

// LoadCountries reads one identifier per line, skipping blanks and # comments.
// An empty path yields DefaultCountries.
func LoadCountries(path string) ([]string, error) {
	if path == "" {
		return append([]string(nil), DefaultCountries...), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open countries file: %w", err)
	}
	defer f.Close()

	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read countries file: %w", err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("countries file %s is empty", path)
	}
	return out, nil
}

// LoadCredentialsToken returns the "token" field of a JSON credentials file.
func LoadCredentialsToken(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read credentials: %w", err)
	}
	tok := gjson.GetBytes(data, "token")
	if !tok.Exists() || tok.String() == "" {
		return "", fmt.Errorf("credentials file %s has no token", path)
	}
	return tok.String(), nil
}
