// Package country resolves display names to ISO 3166 alpha-3 codes.
package country

import (
	"log/slog"
	"strings"
	"sync"

	"github.com/biter777/countries"

	"grademap/packages/domain"
)

// byDisplayName indexes the registry by lowercased English display name.
// Codes, alpha-2 values and informal aliases are deliberately absent.
var byDisplayName = sync.OnceValue(func() map[string]countries.CountryCode {
	index := make(map[string]countries.CountryCode)
	for _, c := range countries.All() {
		if c == countries.Unknown || !c.IsValid() {
			continue
		}
		key := strings.ToLower(c.String())
		if _, dup := index[key]; !dup {
			index[key] = c
		}
	}
	return index
})

// Resolve matches name against registry display names, ignoring case.
// Anything else yields ("UNK", "Unknown").
func Resolve(name string) (code, canonicalName string) {
	c, ok := byDisplayName()[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		slog.Warn("Failed to find country", "country", name)
		return domain.UnknownCountryCode, domain.UnknownCountryName
	}
	return c.Alpha3(), c.String()
}
