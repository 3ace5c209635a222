// ABOUTME: Classification CLI command
// ABOUTME: Enriches stored deals and rebuilds the enrichment cache
package cli

import (
	"database/sql"
	"flag"
	"fmt"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"

	"github.com/cbaraj14/hubspot-reporting/cache"
	"github.com/cbaraj14/hubspot-reporting/classify"
	"github.com/cbaraj14/hubspot-reporting/db"
	"github.com/cbaraj14/hubspot-reporting/fiscal"
	"github.com/cbaraj14/hubspot-reporting/models"
)

// DefaultCacheDir is where the enrichment cache lives unless overridden.
func DefaultCacheDir() string {
	return filepath.Join(xdg.DataHome, "hubrep", "cache")
}

// ClassifyCommand runs the full enrichment pass over stored deals and
// replaces the cache with the result.
func ClassifyCommand(database *sql.DB, args []string) error {
	fs := flag.NewFlagSet("classify", flag.ExitOnError)
	dateFlag := fs.String("date", "", "Report date (default: report_date setting)")
	cacheDir := fs.String("cache-dir", DefaultCacheDir(), "Enrichment cache directory")
	_ = fs.Parse(args)

	reportDate, err := resolveReportDate(database, *dateFlag)
	if err != nil {
		return err
	}

	enriched, err := enrichFromStore(database, reportDate)
	if err != nil {
		return err
	}

	store, err := cache.Open(*cacheDir)
	if err != nil {
		return fmt.Errorf("opening enrichment cache: %w", err)
	}
	defer store.Close()

	if err := store.Replace(enriched); err != nil {
		return fmt.Errorf("rebuilding enrichment cache: %w", err)
	}

	fmt.Printf("Classified %d records as of %s\n", len(enriched), reportDate.Format("2006-01-02"))
	return nil
}

// enrichFromStore loads deals and rosters from SQLite and runs the
// dedup, identity, and classification pipeline.
func enrichFromStore(database *sql.DB, reportDate time.Time) ([]models.EnrichedRecord, error) {
	bySource, err := db.ListRecordsBySource(database)
	if err != nil {
		return nil, fmt.Errorf("loading deal records: %w", err)
	}

	sales, err := db.ListTeamMembers(database, db.TeamSales)
	if err != nil {
		return nil, fmt.Errorf("loading sales roster: %w", err)
	}
	cs, err := db.ListTeamMembers(database, db.TeamCS)
	if err != nil {
		return nil, fmt.Errorf("loading cs roster: %w", err)
	}

	engine := classify.NewEngine(sales, cs, classify.DefaultKeywords, fiscal.DefaultStartMonth)
	return classify.Enrich(bySource, engine, reportDate), nil
}

// resolveReportDate takes the flag when given, the stored setting
// otherwise. A missing date is fatal rather than silently "today".
func resolveReportDate(database *sql.DB, flagValue string) (time.Time, error) {
	if flagValue != "" {
		t, ok := fiscal.ParseDate(flagValue)
		if !ok {
			return time.Time{}, fmt.Errorf("unparsable -date %q", flagValue)
		}
		return t, nil
	}

	settings, err := db.GetSettings(database)
	if err != nil {
		return time.Time{}, fmt.Errorf("loading settings: %w", err)
	}
	t, ok := fiscal.ParseDate(settings["report_date"])
	if !ok {
		return time.Time{}, fmt.Errorf("no report date: pass -date or set report_date")
	}
	return t, nil
}
