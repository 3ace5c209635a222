// ABOUTME: Migration utility for backfilling deal records from CSV exports.
// ABOUTME: Provides dry-run and backup capabilities for safe data import.

package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cbaraj14/hubspot-reporting/db"
	"github.com/cbaraj14/hubspot-reporting/fiscal"
	"github.com/cbaraj14/hubspot-reporting/models"
)

func main() {
	dbPath := flag.String("db", "", "Path to database file (required)")
	source := flag.String("source", models.PipelinePayment, "Source label for imported rows")
	dryRun := flag.Bool("dry-run", false, "Show what would happen without making changes")
	backup := flag.Bool("backup", true, "Create backup before import")
	flag.Parse()

	if *dbPath == "" {
		log.Fatal("Error: -db flag is required")
	}
	files := flag.Args()
	if len(files) == 0 {
		log.Fatal("Error: at least one CSV file is required")
	}

	if err := migrate(*dbPath, *source, files, *dryRun, *backup); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	log.Println("Migration completed successfully")
}

func migrate(dbPath, source string, files []string, dryRun, createBackup bool) error {
	var records []models.DealRecord
	for _, file := range files {
		fileRecords, err := readCSV(file, source)
		if err != nil {
			return fmt.Errorf("reading %s: %w", file, err)
		}
		log.Printf("%s: %d rows", file, len(fileRecords))
		records = append(records, fileRecords...)
	}

	if dryRun {
		log.Printf("Dry run: would import %d records into source %q", len(records), source)
		return nil
	}

	if createBackup {
		if _, err := os.Stat(dbPath); err == nil {
			backupPath := fmt.Sprintf("%s.backup.%s", dbPath, time.Now().Format("20060102-150405"))
			log.Printf("Creating backup: %s", backupPath)

			input, err := os.ReadFile(dbPath)
			if err != nil {
				return fmt.Errorf("failed to read database: %w", err)
			}
			if err := os.WriteFile(backupPath, input, 0644); err != nil {
				return fmt.Errorf("failed to create backup: %w", err)
			}
		}
	}

	database, err := db.OpenDatabase(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() { _ = database.Close() }()

	if err := db.UpsertSourceRecords(database, source, records); err != nil {
		return fmt.Errorf("importing records: %w", err)
	}

	log.Printf("Imported %d records into source %q", len(records), source)
	return nil
}

// readCSV parses one export file. The header row names the columns;
// unknown columns are ignored so exports with extra fields still load.
func readCSV(path, source string) ([]models.DealRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}

	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.ToLower(strings.TrimSpace(name))] = i
	}
	if _, ok := col["deal_id"]; !ok {
		return nil, fmt.Errorf("missing required column deal_id")
	}

	field := func(row []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var records []models.DealRecord
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		rec := models.DealRecord{
			DealID:       field(row, "deal_id"),
			EntityID:     field(row, "entity_id"),
			EntityName:   field(row, "entity_name"),
			ContactEmail: field(row, "contact_email"),
			Pipeline:     field(row, "pipeline"),
			OwnerID:      field(row, "owner_id"),
			DealName:     field(row, "deal_name"),
			SourceLabel:  source,
		}
		if rec.DealID == "" {
			continue
		}
		if rec.Pipeline == "" {
			rec.Pipeline = source
		}
		if amount, err := strconv.ParseFloat(field(row, "amount"), 64); err == nil {
			rec.Amount = amount
		}
		if t, ok := fiscal.ParseDate(field(row, "close_date")); ok {
			rec.CloseDate = t
			rec.CloseKnown = true
		}
		if t, ok := fiscal.ParseDate(field(row, "last_modified")); ok {
			rec.LastModified = t
		}
		records = append(records, rec)
	}
	return records, nil
}
