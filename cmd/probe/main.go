// Command probe fetches one country page and prints what the build would see.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/peterbourgon/ff/v3"

	"grademap/packages/config"
	"grademap/packages/country"
	"grademap/packages/crawler"
	"grademap/packages/normalizer"
)

func main() {
	fs := flag.NewFlagSet("grademap-probe", flag.ExitOnError)
	var (
		identifier  = fs.String("country", "france", "country identifier as used in the source URL")
		baseURL     = fs.String("base-url", "https://www.nuffic.nl/en/education-systems", "source base URL")
		mappingFile = fs.String("mapping", "config/nuffic_mapping.json", "country mapping file")
		ausFile     = fs.String("aus", "config/australia_mapping.json", "AUS lookup file")
		gbrFile     = fs.String("gbr", "config/united_kingdom_mapping.json", "GBR lookup file")
		normalize   = fs.Bool("normalize", false, "also normalize the table into records")
	)
	if err := ff.Parse(fs, os.Args[1:], ff.WithEnvVarPrefix("GRADEMAP_PROBE")); err != nil {
		log.Fatalf("FATAL: %v", err)
	}

	mapping, err := config.LoadCountryMapping(*mappingFile)
	if err != nil {
		log.Fatalf("FATAL: %v", err)
	}
	target := mapping.Resolve(*identifier)

	c := crawler.New(*baseURL, 20*time.Second)
	primary, fallback := c.URLs(target.Slug)
	fmt.Printf("--- Probing %s (%s) ---\n", target.Slug, target.Country)
	fmt.Printf("Primary URL:   %s\nFallback URL:  %s\n\n", primary, fallback)

	table, err := c.FetchTable(context.Background(), target.Slug)
	if err != nil {
		log.Fatalf("FATAL: %v", err)
	}
	fmt.Printf("Fetched:       %s\n", table.URL)
	fmt.Printf("Rows:          %d\n", len(table.Rows))
	lang := table.Language
	if lang == "" {
		lang = "(not reliable)"
	}
	fmt.Printf("Language:      %s\n\n", lang)
	for i, row := range table.Rows {
		fmt.Printf("%3d  %q\n", i, row)
	}

	if !*normalize {
		return
	}

	aus, err := config.LoadLookup(*ausFile)
	if err != nil {
		log.Fatalf("FATAL: %v", err)
	}
	gbr, err := config.LoadLookup(*gbrFile)
	if err != nil {
		log.Fatalf("FATAL: %v", err)
	}
	records, err := normalizer.New(country.Resolve, aus, gbr).Normalize(target.Country, table.Rows)
	if err != nil {
		log.Fatalf("FATAL: %v", err)
	}
	fmt.Println("\n--- Records ---")
	for _, r := range records {
		fmt.Printf("%s | %s | %s | NLD=%s | GBR=%s | AUS=%s\n",
			r.SourceCountryCode, r.CountryName, r.GradeType, r.NLDEquivalent, r.GBREquivalent, r.AUSEquivalent)
	}
}
