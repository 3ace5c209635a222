// ABOUTME: Entry point for the HubSpot reporting CLI and dashboard
// ABOUTME: Routes subcommands and owns database setup
package main

import (
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"

	"github.com/cbaraj14/hubspot-reporting/cli"
	"github.com/cbaraj14/hubspot-reporting/db"
	"github.com/cbaraj14/hubspot-reporting/web"
)

const version = "0.2.0"

func main() {
	// A missing .env is fine; the environment may be set elsewhere.
	_ = godotenv.Load()

	showVersion := flag.Bool("version", false, "Show version and exit")
	dbPath := flag.String("db-path", "", "Database path (default: ~/.local/share/hubrep/hubrep.db)")
	initOnly := flag.Bool("init", false, "Initialize database and exit")

	_ = flag.CommandLine.Parse(os.Args[1:])

	if *showVersion {
		fmt.Printf("hubrep version %s\n", version)
		os.Exit(0)
	}

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(0)
	}

	command := args[0]
	commandArgs := args[1:]

	// Auth needs no database.
	if command == "auth" {
		if err := cli.SheetsAuthCommand(commandArgs); err != nil {
			log.Fatalf("Error: %v", err)
		}
		return
	}

	finalDBPath := getDatabasePath(*dbPath)
	database, err := db.OpenDatabase(finalDBPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer database.Close()

	if *initOnly {
		log.Printf("Database initialized at %s", finalDBPath)
		os.Exit(0)
	}

	switch command {
	case "sync":
		if len(commandArgs) > 0 && commandArgs[0] == "status" {
			err = cli.SyncStatusCommand(database, commandArgs[1:])
		} else {
			err = cli.SyncCommand(database, commandArgs)
		}

	case "classify":
		err = cli.ClassifyCommand(database, commandArgs)

	case "report":
		err = cli.ReportCommand(database, commandArgs)

	case "set-team":
		err = cli.SetTeamCommand(database, commandArgs)
	case "list-teams":
		err = cli.ListTeamsCommand(database, commandArgs)
	case "set-exclusions":
		err = cli.SetExclusionsCommand(database, commandArgs)
	case "settings":
		err = cli.SettingsCommand(database, commandArgs)

	case "web":
		fs := flag.NewFlagSet("web", flag.ExitOnError)
		port := fs.Int("port", 8080, "Dashboard port")
		_ = fs.Parse(commandArgs)

		logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
		server, serverErr := web.NewServer(database, logger)
		if serverErr != nil {
			log.Fatalf("Failed to create web server: %v", serverErr)
		}
		err = server.Start(*port)

	default:
		fmt.Printf("Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		log.Fatalf("Error: %v", err)
	}
}

func getDatabasePath(override string) string {
	if override != "" {
		return override
	}
	return filepath.Join(xdg.DataHome, "hubrep", "hubrep.db")
}

func printUsage() {
	fmt.Println(`hubrep - HubSpot deal reporting pipeline

Usage:
  hubrep [flags] <command> [args]

Commands:
  sync              Import deals from HubSpot (flags: -full, -pipelines)
  sync status       Show per-source sync state
  classify          Rebuild the enrichment cache (flags: -date, -cache-dir)
  report            Build and render the revenue report (flags: -date,
                    -granularity, -sort-desc, -new-only, -min-payments,
                    -growth, -from-cache, -sheet, -sheet-name)
  set-team          Replace a team roster (-team sales|cs -owners id,id)
  list-teams        Show both team rosters
  set-exclusions    Replace the report exclusion list (-names a,b)
  settings          Show settings, or set one: settings <key> <value>
  auth              Authorize Google Sheets export
  web               Start the dashboard (flags: -port)

Flags:
  -version          Show version and exit
  -db-path          Database path (default: ~/.local/share/hubrep/hubrep.db)
  -init             Initialize database and exit`)
}
