// ABOUTME: Deal deduplication by deal ID and last-modified time
// ABOUTME: Applied per pipeline source before records merge downstream
package dedup

import (
	"sort"

	"github.com/cbaraj14/hubspot-reporting/models"
)

// Records collapses a batch to one record per deal ID, keeping the copy
// with the latest LastModified. The comparison is strict (>), so when
// two copies tie the earliest-encountered one wins. Records without a
// deal ID are dropped: they cannot be deduplicated or referenced
// downstream. Output order follows first appearance of each deal ID,
// so the pass is stable and idempotent.
func Records(records []models.DealRecord) []models.DealRecord {
	byID := make(map[string]int)

	kept := make([]models.DealRecord, 0, len(records))
	for i := range records {
		rec := records[i]
		if rec.DealID == "" {
			continue
		}
		idx, seen := byID[rec.DealID]
		if !seen {
			byID[rec.DealID] = len(kept)
			kept = append(kept, rec)
			continue
		}
		if rec.LastModified.After(kept[idx].LastModified) {
			kept[idx] = rec
		}
	}

	return kept
}

// BySource deduplicates each pipeline-source group independently and
// returns the merged result, source groups in sorted label order. A
// deal ID is expected to live in exactly one pipeline; per-source dedup
// keeps a stray cross-source duplicate from silently shadowing another
// pipeline's record.
func BySource(bySource map[string][]models.DealRecord) []models.DealRecord {
	labels := make([]string, 0, len(bySource))
	for label := range bySource {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	var merged []models.DealRecord
	for _, label := range labels {
		merged = append(merged, Records(bySource[label])...)
	}
	return merged
}
