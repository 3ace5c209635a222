// ABOUTME: Report CLI command: build, render, and export report tables
// ABOUTME: Settings come from the store, flags override per run
package cli

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"strconv"

	"github.com/cbaraj14/hubspot-reporting/cache"
	"github.com/cbaraj14/hubspot-reporting/db"
	"github.com/cbaraj14/hubspot-reporting/models"
	"github.com/cbaraj14/hubspot-reporting/report"
	"github.com/cbaraj14/hubspot-reporting/sheets"
)

// ReportCommand builds the pivot/forecast table and renders it to the
// terminal, or exports it to a Google Sheet when -sheet is given.
func ReportCommand(database *sql.DB, args []string) error {
	fs := flag.NewFlagSet("report", flag.ExitOnError)
	dateFlag := fs.String("date", "", "Report date override")
	pipeline := fs.String("pipeline", "", "Pipeline override")
	granularity := fs.String("granularity", "", "month or quarter")
	sortDesc := fs.Bool("sort-desc", false, "Sort newest fiscal year first")
	newOnly := fs.Bool("new-only", false, "Only clients whose first revenue is in the report FY")
	minPayments := fs.Int("min-payments", -1, "Minimum payment count filter")
	growth := fs.Bool("growth", false, "Drop rows whose latest bucket shrank")
	fromCache := fs.Bool("from-cache", false, "Use the enrichment cache instead of re-classifying")
	cacheDir := fs.String("cache-dir", DefaultCacheDir(), "Enrichment cache directory")
	sheetID := fs.String("sheet", "", "Spreadsheet ID to export to")
	sheetName := fs.String("sheet-name", "Report", "Sheet tab name for export")
	credentials := fs.String("credentials", "credentials.json", "Google OAuth credentials file")
	tokenPath := fs.String("token", DefaultSheetsTokenPath(), "Cached Google token path")
	_ = fs.Parse(args)

	settings, err := db.GetSettings(database)
	if err != nil {
		return fmt.Errorf("loading settings: %w", err)
	}
	applyOverride(settings, report.KeyReportDate, *dateFlag)
	applyOverride(settings, report.KeyPipeline, *pipeline)
	applyOverride(settings, report.KeyGranularity, *granularity)
	if *sortDesc {
		settings[report.KeySortDescending] = "true"
	}
	if *newOnly {
		settings[report.KeyNewClientsOnly] = "true"
	}
	if *growth {
		settings[report.KeyGrowthCheck] = "true"
	}
	if *minPayments >= 0 {
		settings[report.KeyMinPayments] = strconv.Itoa(*minPayments)
	}

	cfg, err := report.FromSettings(settings)
	if err != nil {
		return err
	}

	sales, err := db.ListTeamMembers(database, db.TeamSales)
	if err != nil {
		return fmt.Errorf("loading sales roster: %w", err)
	}
	cs, err := db.ListTeamMembers(database, db.TeamCS)
	if err != nil {
		return fmt.Errorf("loading cs roster: %w", err)
	}
	if err := report.Validate(cfg, sales, cs); err != nil {
		return err
	}

	exclusions, err := db.ListExclusions(database)
	if err != nil {
		return fmt.Errorf("loading exclusions: %w", err)
	}
	for _, name := range exclusions {
		cfg.Exclusions[name] = true
	}

	records, err := loadEnriched(database, cfg, *fromCache, *cacheDir)
	if err != nil {
		return err
	}

	table := report.Run(records, cfg)

	if *sheetID != "" {
		return exportTable(table, *sheetID, *sheetName, *credentials, *tokenPath)
	}

	fmt.Println(RenderTable(table))
	return nil
}

func loadEnriched(database *sql.DB, cfg report.Config, fromCache bool, cacheDir string) ([]models.EnrichedRecord, error) {
	if fromCache {
		store, err := cache.Open(cacheDir)
		if err != nil {
			return nil, fmt.Errorf("opening enrichment cache: %w", err)
		}
		defer store.Close()

		records, err := store.List()
		if err != nil {
			return nil, fmt.Errorf("reading enrichment cache: %w", err)
		}
		if len(records) == 0 {
			return nil, fmt.Errorf("enrichment cache is empty, run 'hubrep classify' first")
		}
		return records, nil
	}
	return enrichFromStore(database, cfg.ReportDate)
}

func exportTable(table *report.Table, sheetID, sheetName, credentials, tokenPath string) error {
	ctx := context.Background()

	config, err := sheets.LoadConfig(credentials)
	if err != nil {
		return err
	}
	client, err := sheets.ClientFromSavedToken(ctx, config, tokenPath)
	if err != nil {
		return err
	}
	exporter, err := sheets.NewExporter(ctx, client, sheetID)
	if err != nil {
		return err
	}
	if err := exporter.Export(ctx, sheetName, table); err != nil {
		return err
	}
	fmt.Printf("Exported %d rows to sheet %s\n", len(table.Rows), sheetName)
	return nil
}

func applyOverride(settings map[string]string, key, value string) {
	if value != "" {
		settings[key] = value
	}
}
