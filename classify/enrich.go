// ABOUTME: Enrichment builder joining classification output onto deal records
// ABOUTME: Produces the denormalized dataset every downstream report consumes
package classify

import (
	"time"

	"github.com/cbaraj14/hubspot-reporting/dedup"
	"github.com/cbaraj14/hubspot-reporting/fiscal"
	"github.com/cbaraj14/hubspot-reporting/identity"
	"github.com/cbaraj14/hubspot-reporting/models"
)

// entityScan carries the first-pass facts for one entity: every
// revenue-pipeline deal name (keyword scanning) and the entity-wide
// ownership and activity flags.
type entityScan struct {
	stats        *models.EntityStats
	revenueNames []string
	flags        models.EntityFlags
	revenueType  string
}

// Enrich deduplicates each source group, resolves identities, runs the
// classification engine, and emits one EnrichedRecord per surviving
// deal. The output is rebuilt wholesale per run; callers replace any
// previous dataset rather than merging into it.
func Enrich(bySource map[string][]models.DealRecord, engine *Engine, reportDate time.Time) []models.EnrichedRecord {
	deduped := dedup.BySource(bySource)
	resolver := identity.NewResolver(deduped, engine.StartMonth)
	currentFY := fiscal.YearOf(reportDate, engine.StartMonth)

	// First pass: entity-wide flags and revenue deal names over all
	// sources, not just the revenue pipeline.
	stats := make([]*models.EntityStats, len(deduped))
	scans := make(map[string]*entityScan)
	for i := range deduped {
		rec := &deduped[i]
		st := resolver.Lookup(rec)
		stats[i] = st

		scan, ok := scans[st.CanonicalID]
		if !ok {
			scan = &entityScan{stats: st}
			scans[st.CanonicalID] = scan
		}

		isSales, isCS := engine.Ownership(rec.OwnerID)
		if isSales {
			scan.flags.HasSalesOwner = true
		}
		if isCS {
			scan.flags.HasCSOwner = true
		}

		dealFY := ""
		if rec.CloseKnown {
			dealFY = fiscal.YearOf(rec.CloseDate, engine.StartMonth).Label
		}
		if dealFY == currentFY.Label {
			scan.flags.HasAnyDealThisFY = true
			if rec.Pipeline == models.PipelinePayment {
				scan.flags.HasRevenueThisFY = true
			}
		}
		if rec.Pipeline == models.PipelinePayment && rec.DealName != "" {
			scan.revenueNames = append(scan.revenueNames, rec.DealName)
		}
	}

	for _, scan := range scans {
		scan.revenueType = engine.RevenueType(scan.stats, scan.revenueNames)
	}

	// Second pass: broadcast entity-level labels onto every record.
	out := make([]models.EnrichedRecord, 0, len(deduped))
	for i := range deduped {
		rec := deduped[i]
		st := stats[i]
		scan := scans[st.CanonicalID]

		isSales, isCS := engine.Ownership(rec.OwnerID)
		enriched := models.EnrichedRecord{
			DealRecord: rec,
			Classification: models.Classification{
				RevenueType:  scan.revenueType,
				ClientAge:    engine.ClientAge(st, reportDate),
				IsSalesOwned: isSales,
				IsCSOwned:    isCS,
			},
			EntityFlags:     scan.flags,
			CanonicalID:     st.CanonicalID,
			DisplayName:     st.DisplayName(),
			FirstFiscalYear: st.FirstFiscalYear,
			FirstPayment:    st.FirstPayment,
			FirstKnown:      st.FirstKnown,
		}
		if rec.CloseKnown {
			enriched.DealFiscalYear = fiscal.YearOf(rec.CloseDate, engine.StartMonth).Label
			enriched.MonthKey = fiscal.MonthKey(rec.CloseDate)
		}
		out = append(out, enriched)
	}
	return out
}
