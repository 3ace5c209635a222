// ABOUTME: Tests for the SQLite store: records, members, settings, sync state
// ABOUTME: Runs against a temp database file per test
package db

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cbaraj14/hubspot-reporting/models"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	database, err := OpenDatabase(filepath.Join(t.TempDir(), "report.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })
	return database
}

func sampleRecords() []models.DealRecord {
	closed := time.Date(2024, 7, 5, 0, 0, 0, 0, time.UTC)
	return []models.DealRecord{
		{DealID: "d1", EntityID: "1", EntityName: "Acme", Amount: 1000,
			Pipeline: models.PipelinePayment, CloseDate: closed, CloseKnown: true,
			LastModified: closed, OwnerID: "sales-1", DealName: "Gold Monthly Plan"},
		{DealID: "d2", EntityName: "Beta", Amount: 250,
			Pipeline: models.PipelinePayment, LastModified: closed},
	}
}

func TestReplaceAndListRecords(t *testing.T) {
	database := setupTestDB(t)

	require.NoError(t, ReplaceSourceRecords(database, "Payment", sampleRecords()))

	bySource, err := ListRecordsBySource(database)
	require.NoError(t, err)
	require.Len(t, bySource["Payment"], 2)

	d1 := bySource["Payment"][0]
	assert.Equal(t, "d1", d1.DealID)
	assert.Equal(t, "Acme", d1.EntityName)
	assert.True(t, d1.CloseKnown)
	assert.Equal(t, "2024-07-05", d1.CloseDate.Format("2006-01-02"))
	assert.Equal(t, "Payment", d1.SourceLabel)

	// d2 has no close date: unknown survives the round trip.
	d2 := bySource["Payment"][1]
	assert.False(t, d2.CloseKnown)
	assert.True(t, d2.CloseDate.IsZero())
}

func TestReplaceIsWholesale(t *testing.T) {
	database := setupTestDB(t)

	require.NoError(t, ReplaceSourceRecords(database, "Payment", sampleRecords()))
	require.NoError(t, ReplaceSourceRecords(database, "Payment", sampleRecords()[:1]))

	count, err := CountRecords(database, "Payment")
	require.NoError(t, err)
	assert.Equal(t, 1, count, "second replace must fully supersede the first")
}

func TestReplaceKeepsOtherSources(t *testing.T) {
	database := setupTestDB(t)

	require.NoError(t, ReplaceSourceRecords(database, "Payment", sampleRecords()))
	require.NoError(t, ReplaceSourceRecords(database, "Sales", sampleRecords()[:1]))
	require.NoError(t, ReplaceSourceRecords(database, "Payment", nil))

	count, err := CountRecords(database, "Sales")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestUpsertMergesByDealID(t *testing.T) {
	database := setupTestDB(t)

	require.NoError(t, ReplaceSourceRecords(database, "Payment", sampleRecords()))

	updated := sampleRecords()[0]
	updated.Amount = 9999
	require.NoError(t, UpsertSourceRecords(database, "Payment", []models.DealRecord{updated}))

	bySource, err := ListRecordsBySource(database)
	require.NoError(t, err)
	require.Len(t, bySource["Payment"], 2)
	assert.Equal(t, 9999.0, bySource["Payment"][0].Amount)
}

func TestRecordsWithoutDealIDSkipped(t *testing.T) {
	database := setupTestDB(t)

	require.NoError(t, ReplaceSourceRecords(database, "Payment", []models.DealRecord{
		{EntityName: "NoID", LastModified: time.Now()},
	}))
	count, err := CountRecords(database, "")
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestTeamMembers(t *testing.T) {
	database := setupTestDB(t)

	require.NoError(t, ReplaceTeamMembers(database, TeamSales, []string{"s2", "s1", ""}))
	require.NoError(t, ReplaceTeamMembers(database, TeamCS, []string{"c1"}))

	sales, err := ListTeamMembers(database, TeamSales)
	require.NoError(t, err)
	assert.Equal(t, []string{"s1", "s2"}, sales)

	require.NoError(t, ReplaceTeamMembers(database, TeamSales, []string{"s3"}))
	sales, err = ListTeamMembers(database, TeamSales)
	require.NoError(t, err)
	assert.Equal(t, []string{"s3"}, sales)

	cs, err := ListTeamMembers(database, TeamCS)
	require.NoError(t, err)
	assert.Equal(t, []string{"c1"}, cs, "replacing one team must not touch the other")
}

func TestExclusions(t *testing.T) {
	database := setupTestDB(t)

	require.NoError(t, ReplaceExclusions(database, []string{"Zeta", "Acme"}))
	names, err := ListExclusions(database)
	require.NoError(t, err)
	assert.Equal(t, []string{"Acme", "Zeta"}, names)
}

func TestSettings(t *testing.T) {
	database := setupTestDB(t)

	require.NoError(t, SetSetting(database, "report_date", "2024-09-01"))
	require.NoError(t, SetSetting(database, "report_date", "2024-10-01"))
	require.NoError(t, SetSetting(database, "min_payments", "3"))

	settings, err := GetSettings(database)
	require.NoError(t, err)
	assert.Equal(t, "2024-10-01", settings["report_date"])
	assert.Equal(t, "3", settings["min_payments"])
}

func TestSyncState(t *testing.T) {
	database := setupTestDB(t)

	state, err := GetSyncState(database, "hubspot:Payment")
	require.NoError(t, err)
	assert.Nil(t, state, "unknown service has no state")

	require.NoError(t, UpdateSyncStatus(database, "hubspot:Payment", SyncStatusSyncing, nil))
	watermark := time.Date(2024, 9, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, UpdateSyncCursor(database, "hubspot:Payment", watermark))

	state, err = GetSyncState(database, "hubspot:Payment")
	require.NoError(t, err)
	require.NotNil(t, state)
	assert.Equal(t, SyncStatusIdle, state.Status)
	require.NotNil(t, state.LastSyncTime)
	assert.True(t, state.LastSyncTime.Equal(watermark))

	msg := "rate limited"
	require.NoError(t, UpdateSyncStatus(database, "hubspot:Payment", SyncStatusError, &msg))
	state, err = GetSyncState(database, "hubspot:Payment")
	require.NoError(t, err)
	require.NotNil(t, state.ErrorMessage)
	assert.Equal(t, "rate limited", *state.ErrorMessage)

	states, err := GetAllSyncStates(database)
	require.NoError(t, err)
	assert.Len(t, states, 1)
}

func TestSyncLog(t *testing.T) {
	database := setupTestDB(t)

	require.NoError(t, CreateSyncLog(database, "batch-1", "hubspot", "Payment", 42, ""))
	require.NoError(t, CreateSyncLog(database, "batch-1", "hubspot", "Sales", 7, ""))

	var total int
	require.NoError(t, database.QueryRow(
		`SELECT COALESCE(SUM(records_imported), 0) FROM sync_log WHERE batch_id = ?`, "batch-1",
	).Scan(&total))
	assert.Equal(t, 49, total)
}
