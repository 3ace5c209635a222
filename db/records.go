// ABOUTME: Deal record storage per pipeline source
// ABOUTME: Sync replaces a source wholesale; reports read sources back grouped
package db

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/cbaraj14/hubspot-reporting/models"
)

// ReplaceSourceRecords swaps out every stored record for one pipeline
// source in a single transaction. The classification pipeline always
// reprocesses full snapshots, so partial updates are never wanted.
func ReplaceSourceRecords(db *sql.DB, sourceLabel string, records []models.DealRecord) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin replace: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM deal_records WHERE source_label = ?`, sourceLabel); err != nil {
		return fmt.Errorf("failed to clear source %s: %w", sourceLabel, err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO deal_records (source_label, deal_id, entity_id, entity_name, contact_email,
			amount, pipeline, close_date, last_modified, owner_id, deal_name, imported_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for i := range records {
		rec := &records[i]
		if rec.DealID == "" {
			continue
		}
		var closeDate *time.Time
		if rec.CloseKnown {
			closeDate = &rec.CloseDate
		}
		if _, err := stmt.Exec(sourceLabel, rec.DealID, rec.EntityID, rec.EntityName, rec.ContactEmail,
			rec.Amount, rec.Pipeline, closeDate, rec.LastModified, rec.OwnerID, rec.DealName, now); err != nil {
			return fmt.Errorf("failed to insert deal %s: %w", rec.DealID, err)
		}
	}

	return tx.Commit()
}

// UpsertSourceRecords merges an incremental batch into one source,
// replacing any stored copy of the same deal. Used by modified-since
// sync passes that only fetch what changed.
func UpsertSourceRecords(db *sql.DB, sourceLabel string, records []models.DealRecord) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin upsert: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO deal_records (source_label, deal_id, entity_id, entity_name, contact_email,
			amount, pipeline, close_date, last_modified, owner_id, deal_name, imported_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(source_label, deal_id) DO UPDATE SET
			entity_id = excluded.entity_id,
			entity_name = excluded.entity_name,
			contact_email = excluded.contact_email,
			amount = excluded.amount,
			pipeline = excluded.pipeline,
			close_date = excluded.close_date,
			last_modified = excluded.last_modified,
			owner_id = excluded.owner_id,
			deal_name = excluded.deal_name,
			imported_at = excluded.imported_at
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare upsert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for i := range records {
		rec := &records[i]
		if rec.DealID == "" {
			continue
		}
		var closeDate *time.Time
		if rec.CloseKnown {
			closeDate = &rec.CloseDate
		}
		if _, err := stmt.Exec(sourceLabel, rec.DealID, rec.EntityID, rec.EntityName, rec.ContactEmail,
			rec.Amount, rec.Pipeline, closeDate, rec.LastModified, rec.OwnerID, rec.DealName, now); err != nil {
			return fmt.Errorf("failed to upsert deal %s: %w", rec.DealID, err)
		}
	}

	return tx.Commit()
}

// ListRecordsBySource reads every stored deal record back, grouped by
// pipeline source, ordered by deal ID within each group.
func ListRecordsBySource(db *sql.DB) (map[string][]models.DealRecord, error) {
	rows, err := db.Query(`
		SELECT source_label, deal_id, entity_id, entity_name, contact_email,
			amount, pipeline, close_date, last_modified, owner_id, deal_name
		FROM deal_records
		ORDER BY source_label, deal_id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list deal records: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]models.DealRecord)
	for rows.Next() {
		var rec models.DealRecord
		var entityID, entityName, contactEmail, ownerID, dealName sql.NullString
		var closeDate sql.NullTime

		if err := rows.Scan(&rec.SourceLabel, &rec.DealID, &entityID, &entityName, &contactEmail,
			&rec.Amount, &rec.Pipeline, &closeDate, &rec.LastModified, &ownerID, &dealName); err != nil {
			return nil, fmt.Errorf("failed to scan deal record: %w", err)
		}

		rec.EntityID = entityID.String
		rec.EntityName = entityName.String
		rec.ContactEmail = contactEmail.String
		rec.OwnerID = ownerID.String
		rec.DealName = dealName.String
		if closeDate.Valid {
			rec.CloseDate = closeDate.Time.UTC()
			rec.CloseKnown = true
		}
		rec.LastModified = rec.LastModified.UTC()

		out[rec.SourceLabel] = append(out[rec.SourceLabel], rec)
	}

	return out, rows.Err()
}

// CountRecords returns the number of stored deal records for a source,
// or across all sources when sourceLabel is empty.
func CountRecords(db *sql.DB, sourceLabel string) (int, error) {
	var count int
	var err error
	if sourceLabel == "" {
		err = db.QueryRow(`SELECT COUNT(*) FROM deal_records`).Scan(&count)
	} else {
		err = db.QueryRow(`SELECT COUNT(*) FROM deal_records WHERE source_label = ?`, sourceLabel).Scan(&count)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to count deal records: %w", err)
	}
	return count, nil
}
