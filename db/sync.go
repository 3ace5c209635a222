// ABOUTME: Database operations for sync_state and sync_log tables
// ABOUTME: Tracks modified-since cursors and import batches per pipeline source
package db

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SyncState represents the sync state for a service.
type SyncState struct {
	Service       string
	LastSyncTime  *time.Time
	LastSyncToken *string
	Status        string
	ErrorMessage  *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Sync status values.
const (
	SyncStatusIdle    = "idle"
	SyncStatusSyncing = "syncing"
	SyncStatusError   = "error"
)

// GetSyncState retrieves the sync state for a service. Nil when the
// service has never synced.
func GetSyncState(db *sql.DB, service string) (*SyncState, error) {
	var state SyncState
	var lastSyncTime sql.NullTime
	var lastSyncToken sql.NullString
	var errorMessage sql.NullString

	err := db.QueryRow(`
		SELECT service, last_sync_time, last_sync_token, status, error_message, created_at, updated_at
		FROM sync_state
		WHERE service = ?
	`, service).Scan(
		&state.Service,
		&lastSyncTime,
		&lastSyncToken,
		&state.Status,
		&errorMessage,
		&state.CreatedAt,
		&state.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get sync state: %w", err)
	}

	if lastSyncTime.Valid {
		t := lastSyncTime.Time.UTC()
		state.LastSyncTime = &t
	}
	if lastSyncToken.Valid {
		state.LastSyncToken = &lastSyncToken.String
	}
	if errorMessage.Valid {
		state.ErrorMessage = &errorMessage.String
	}

	return &state, nil
}

// UpdateSyncStatus updates the sync status for a service.
func UpdateSyncStatus(db *sql.DB, service, status string, errorMsg *string) error {
	var errorMsgVal sql.NullString
	if errorMsg != nil {
		errorMsgVal = sql.NullString{String: *errorMsg, Valid: true}
	}

	_, err := db.Exec(`
		INSERT INTO sync_state (service, status, error_message, created_at, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		ON CONFLICT(service) DO UPDATE SET
			status = excluded.status,
			error_message = excluded.error_message,
			updated_at = CURRENT_TIMESTAMP
	`, service, status, errorMsgVal)

	if err != nil {
		return fmt.Errorf("failed to update sync status: %w", err)
	}

	return nil
}

// UpdateSyncCursor records a completed sync pass: the modified-since
// watermark the next incremental fetch starts from.
func UpdateSyncCursor(db *sql.DB, service string, watermark time.Time) error {
	_, err := db.Exec(`
		INSERT INTO sync_state (service, last_sync_time, last_sync_token, status, created_at, updated_at)
		VALUES (?, ?, ?, 'idle', CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		ON CONFLICT(service) DO UPDATE SET
			last_sync_time = excluded.last_sync_time,
			last_sync_token = excluded.last_sync_token,
			status = 'idle',
			error_message = NULL,
			updated_at = CURRENT_TIMESTAMP
	`, service, watermark.UTC(), watermark.UTC().Format(time.RFC3339))

	if err != nil {
		return fmt.Errorf("failed to update sync cursor: %w", err)
	}

	return nil
}

// CreateSyncLog records one import batch for a pipeline source.
func CreateSyncLog(db *sql.DB, batchID, sourceService, sourceLabel string, recordsImported int, metadata string) error {
	_, err := db.Exec(`
		INSERT INTO sync_log (id, batch_id, source_service, source_label, records_imported, imported_at, metadata)
		VALUES (?, ?, ?, ?, ?, CURRENT_TIMESTAMP, ?)
	`, uuid.New().String(), batchID, sourceService, sourceLabel, recordsImported, metadata)

	if err != nil {
		return fmt.Errorf("failed to create sync log: %w", err)
	}

	return nil
}

// GetAllSyncStates retrieves the sync state for all services.
func GetAllSyncStates(db *sql.DB) ([]SyncState, error) {
	rows, err := db.Query(`
		SELECT service, last_sync_time, last_sync_token, status, error_message, created_at, updated_at
		FROM sync_state
		ORDER BY service
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list sync states: %w", err)
	}
	defer rows.Close()

	var states []SyncState
	for rows.Next() {
		var state SyncState
		var lastSyncTime sql.NullTime
		var lastSyncToken sql.NullString
		var errorMessage sql.NullString

		if err := rows.Scan(&state.Service, &lastSyncTime, &lastSyncToken, &state.Status,
			&errorMessage, &state.CreatedAt, &state.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan sync state: %w", err)
		}

		if lastSyncTime.Valid {
			t := lastSyncTime.Time.UTC()
			state.LastSyncTime = &t
		}
		if lastSyncToken.Valid {
			state.LastSyncToken = &lastSyncToken.String
		}
		if errorMessage.Valid {
			state.ErrorMessage = &errorMessage.String
		}

		states = append(states, state)
	}

	return states, rows.Err()
}
