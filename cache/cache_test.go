// ABOUTME: Tests for the badger enrichment cache
// ABOUTME: Round trips, wholesale replace, and order preservation
package cache

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cbaraj14/hubspot-reporting/models"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func enrichedFixture(n int) []models.EnrichedRecord {
	out := make([]models.EnrichedRecord, n)
	for i := range out {
		out[i] = models.EnrichedRecord{
			DealRecord: models.DealRecord{
				DealID:     fmt.Sprintf("d%03d", i),
				Amount:     float64(i) * 10,
				Pipeline:   models.PipelinePayment,
				CloseDate:  time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i),
				CloseKnown: true,
			},
			Classification: models.Classification{
				RevenueType: models.RevenueRecurring,
				ClientAge:   models.AgeNew,
			},
			CanonicalID: "ent:1",
			DisplayName: "Acme",
			MonthKey:    "2024-Jul",
		}
	}
	return out
}

func TestReplaceAndList(t *testing.T) {
	store := openTestStore(t)

	require.NoError(t, store.Replace(enrichedFixture(5)))

	records, err := store.List()
	require.NoError(t, err)
	require.Len(t, records, 5)

	assert.Equal(t, "d000", records[0].DealID)
	assert.Equal(t, "d004", records[4].DealID)
	assert.Equal(t, models.RevenueRecurring, records[0].RevenueType)
	assert.True(t, records[0].CloseKnown)
}

func TestReplaceIsWholesale(t *testing.T) {
	store := openTestStore(t)

	require.NoError(t, store.Replace(enrichedFixture(10)))
	require.NoError(t, store.Replace(enrichedFixture(3)))

	count, err := store.Count()
	require.NoError(t, err)
	assert.Equal(t, 3, count, "old records must not survive a rebuild")
}

func TestEmptyCache(t *testing.T) {
	store := openTestStore(t)

	records, err := store.List()
	require.NoError(t, err)
	assert.Empty(t, records)

	built, err := store.BuiltAt()
	require.NoError(t, err)
	assert.True(t, built.IsZero())
}

func TestBuiltAtStamp(t *testing.T) {
	store := openTestStore(t)

	before := time.Now().UTC().Add(-time.Second)
	require.NoError(t, store.Replace(enrichedFixture(1)))

	built, err := store.BuiltAt()
	require.NoError(t, err)
	assert.False(t, built.IsZero())
	assert.True(t, built.After(before))
}

func TestReplaceEmptySetClears(t *testing.T) {
	store := openTestStore(t)

	require.NoError(t, store.Replace(enrichedFixture(4)))
	require.NoError(t, store.Replace(nil))

	count, err := store.Count()
	require.NoError(t, err)
	assert.Zero(t, count)
}
