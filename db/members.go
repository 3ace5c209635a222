// ABOUTME: Membership tables, exclusion list, and report settings storage
// ABOUTME: Small collaborator tables read wholesale at the start of each run
package db

import (
	"database/sql"
	"fmt"
	"time"
)

// ReplaceTeamMembers replaces the member list for one team.
func ReplaceTeamMembers(db *sql.DB, team string, ownerIDs []string) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin member replace: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM team_members WHERE team = ?`, team); err != nil {
		return fmt.Errorf("failed to clear team %s: %w", team, err)
	}

	now := time.Now().UTC()
	for _, id := range ownerIDs {
		if id == "" {
			continue
		}
		if _, err := tx.Exec(`
			INSERT OR IGNORE INTO team_members (owner_id, team, added_at) VALUES (?, ?, ?)
		`, id, team, now); err != nil {
			return fmt.Errorf("failed to insert member %s: %w", id, err)
		}
	}

	return tx.Commit()
}

// ListTeamMembers returns the owner IDs for one team, sorted.
func ListTeamMembers(db *sql.DB, team string) ([]string, error) {
	rows, err := db.Query(`SELECT owner_id FROM team_members WHERE team = ? ORDER BY owner_id`, team)
	if err != nil {
		return nil, fmt.Errorf("failed to list team %s: %w", team, err)
	}
	defer rows.Close()

	var members []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		members = append(members, id)
	}
	return members, rows.Err()
}

// ReplaceExclusions replaces the entity-name exclusion list.
func ReplaceExclusions(db *sql.DB, names []string) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin exclusion replace: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM report_exclusions`); err != nil {
		return fmt.Errorf("failed to clear exclusions: %w", err)
	}

	now := time.Now().UTC()
	for _, name := range names {
		if name == "" {
			continue
		}
		if _, err := tx.Exec(`
			INSERT OR IGNORE INTO report_exclusions (entity_name, added_at) VALUES (?, ?)
		`, name, now); err != nil {
			return fmt.Errorf("failed to insert exclusion %s: %w", name, err)
		}
	}

	return tx.Commit()
}

// ListExclusions returns the excluded entity names, sorted.
func ListExclusions(db *sql.DB) ([]string, error) {
	rows, err := db.Query(`SELECT entity_name FROM report_exclusions ORDER BY entity_name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list exclusions: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan exclusion: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// SetSetting stores one report setting.
func SetSetting(db *sql.DB, key, value string) error {
	_, err := db.Exec(`
		INSERT INTO report_settings (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, value, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to set setting %s: %w", key, err)
	}
	return nil
}

// GetSettings reads the whole settings table into a flat map.
func GetSettings(db *sql.DB) (map[string]string, error) {
	rows, err := db.Query(`SELECT key, value FROM report_settings`)
	if err != nil {
		return nil, fmt.Errorf("failed to read settings: %w", err)
	}
	defer rows.Close()

	settings := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, fmt.Errorf("failed to scan setting: %w", err)
		}
		settings[k] = v
	}
	return settings, rows.Err()
}
