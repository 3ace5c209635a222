// ABOUTME: Team roster, exclusion, and settings CLI commands
// ABOUTME: Maintains the lookup tables classification and reporting read
package cli

import (
	"database/sql"
	"flag"
	"fmt"
	"sort"
	"strings"

	"github.com/cbaraj14/hubspot-reporting/db"
)

// SetTeamCommand replaces one team's owner roster.
func SetTeamCommand(database *sql.DB, args []string) error {
	fs := flag.NewFlagSet("set-team", flag.ExitOnError)
	team := fs.String("team", "", "Team: sales or cs")
	owners := fs.String("owners", "", "Comma-separated HubSpot owner IDs")
	_ = fs.Parse(args)

	if *team != db.TeamSales && *team != db.TeamCS {
		return fmt.Errorf("team must be %q or %q", db.TeamSales, db.TeamCS)
	}

	ids := splitList(*owners)
	if len(ids) == 0 {
		return fmt.Errorf("at least one owner ID is required")
	}

	if err := db.ReplaceTeamMembers(database, *team, ids); err != nil {
		return err
	}
	fmt.Printf("Team %s set to %d members\n", *team, len(ids))
	return nil
}

// ListTeamsCommand prints both rosters.
func ListTeamsCommand(database *sql.DB, args []string) error {
	fs := flag.NewFlagSet("list-teams", flag.ExitOnError)
	_ = fs.Parse(args)

	for _, team := range []string{db.TeamSales, db.TeamCS} {
		ids, err := db.ListTeamMembers(database, team)
		if err != nil {
			return err
		}
		fmt.Printf("%s (%d):\n", team, len(ids))
		for _, id := range ids {
			fmt.Printf("  %s\n", id)
		}
	}
	return nil
}

// SetExclusionsCommand replaces the report exclusion list.
func SetExclusionsCommand(database *sql.DB, args []string) error {
	fs := flag.NewFlagSet("set-exclusions", flag.ExitOnError)
	names := fs.String("names", "", "Comma-separated entity names to exclude from reports")
	_ = fs.Parse(args)

	list := splitList(*names)
	if err := db.ReplaceExclusions(database, list); err != nil {
		return err
	}
	fmt.Printf("Exclusion list set to %d entities\n", len(list))
	return nil
}

// SettingsCommand reads or writes report settings. With no arguments it
// prints the current settings; with key and value it stores one.
func SettingsCommand(database *sql.DB, args []string) error {
	fs := flag.NewFlagSet("settings", flag.ExitOnError)
	_ = fs.Parse(args)
	rest := fs.Args()

	switch len(rest) {
	case 0:
		settings, err := db.GetSettings(database)
		if err != nil {
			return err
		}
		keys := make([]string, 0, len(settings))
		for k := range settings {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Printf("%s = %s\n", k, settings[k])
		}
		return nil
	case 2:
		if err := db.SetSetting(database, rest[0], rest[1]); err != nil {
			return err
		}
		fmt.Printf("%s = %s\n", rest[0], rest[1])
		return nil
	default:
		return fmt.Errorf("usage: settings [<key> <value>]")
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
