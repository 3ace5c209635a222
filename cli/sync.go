// ABOUTME: HubSpot sync CLI commands
// ABOUTME: Runs imports and shows per-source sync state
package cli

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/cbaraj14/hubspot-reporting/db"
	"github.com/cbaraj14/hubspot-reporting/hubspot"
	"github.com/cbaraj14/hubspot-reporting/models"
)

// defaultPipelines are the three sources every report draws from.
var defaultPipelines = []string{
	models.PipelinePayment,
	models.PipelineSales,
	models.PipelineCS,
}

// SyncCommand imports deals from HubSpot into the local store.
func SyncCommand(database *sql.DB, args []string) error {
	fs := flag.NewFlagSet("sync", flag.ExitOnError)
	full := fs.Bool("full", false, "Full refetch (replaces stored records wholesale)")
	pipelines := fs.String("pipelines", "", "Comma-separated pipelines (default: all three)")
	_ = fs.Parse(args)

	token := os.Getenv("HUBSPOT_TOKEN")
	if token == "" {
		return fmt.Errorf("HUBSPOT_TOKEN is not set")
	}

	targets := defaultPipelines
	if *pipelines != "" {
		targets = nil
		for _, p := range strings.Split(*pipelines, ",") {
			if p = strings.TrimSpace(p); p != "" {
				targets = append(targets, p)
			}
		}
	}

	ctx := context.Background()
	client := hubspot.NewClient(ctx, token)
	importer := hubspot.NewImporter(database, client)

	res, err := importer.Run(ctx, targets, *full)
	if err != nil {
		return err
	}

	fmt.Printf("Batch %s complete:\n", res.BatchID)
	for _, pipeline := range targets {
		fmt.Printf("  %-12s %d records\n", pipeline, res.Imported[pipeline])
	}
	return nil
}

// SyncStatusCommand prints the stored sync state for every source.
func SyncStatusCommand(database *sql.DB, args []string) error {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	_ = fs.Parse(args)

	states, err := db.GetAllSyncStates(database)
	if err != nil {
		return err
	}
	if len(states) == 0 {
		fmt.Println("No syncs recorded yet. Run 'hubrep sync' first.")
		return nil
	}

	for _, state := range states {
		last := "never"
		if state.LastSyncTime != nil {
			last = state.LastSyncTime.Format("2006-01-02 15:04")
		}
		line := fmt.Sprintf("%-24s %-8s last sync: %s", state.Service, state.Status, last)
		if state.ErrorMessage != nil {
			line += "  error: " + *state.ErrorMessage
		}
		fmt.Println(line)
	}
	return nil
}
