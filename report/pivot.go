// ABOUTME: Pivot engine grouping enriched deals into per-entity revenue rows
// ABOUTME: POC team tagging runs as an ordered chain of tier predicates
package report

import (
	"fmt"
	"sort"

	"github.com/cbaraj14/hubspot-reporting/fiscal"
	"github.com/cbaraj14/hubspot-reporting/models"
)

// entityAgg accumulates one entity's tallies while records stream
// through BuildPivot. Ownership is counted three ways because the POC
// tiers consult three different populations: in-window revenue deals,
// all-time all-pipeline history, and current-FY revenue deals.
type entityAgg struct {
	row   *models.PivotRow
	flags models.EntityFlags

	inWindow      int
	inWindowSales int
	inWindowCS    int

	fyRevenue      int
	fyRevenueSales int
	fyRevenueCS    int
}

// BuildPivot produces one PivotRow per entity with at least one deal
// matching the configured pipeline inside the report window. Rows are
// filtered by the configured toggles and sorted by first-revenue
// fiscal year, then entity name.
func BuildPivot(records []models.EnrichedRecord, cfg Config) []*models.PivotRow {
	currentFY := fiscal.YearOf(cfg.ReportDate, cfg.StartMonth)

	aggs := make(map[string]*entityAgg)
	var order []string
	for i := range records {
		rec := &records[i]
		agg, ok := aggs[rec.CanonicalID]
		if !ok {
			agg = &entityAgg{row: &models.PivotRow{
				CanonicalID:     rec.CanonicalID,
				EntityName:      rec.DisplayName,
				RevenueType:     rec.RevenueType,
				ClientAge:       rec.ClientAge,
				FirstFiscalYear: rec.FirstFiscalYear,
				FirstPayment:    rec.FirstPayment,
				FirstKnown:      rec.FirstKnown,
				Months:          make(map[string]float64),
				Forecast:        make(map[string]float64),
			}}
			aggs[rec.CanonicalID] = agg
			order = append(order, rec.CanonicalID)
		}
		agg.flags = rec.EntityFlags

		// Current-FY revenue ownership feeds tier 3 regardless of the
		// report window.
		if rec.Pipeline == models.PipelinePayment && rec.DealFiscalYear == currentFY.Label {
			agg.fyRevenue++
			if rec.IsSalesOwned {
				agg.fyRevenueSales++
			}
			if rec.IsCSOwned {
				agg.fyRevenueCS++
			}
		}

		if !qualifies(rec, cfg) {
			continue
		}
		agg.inWindow++
		if rec.IsSalesOwned {
			agg.inWindowSales++
		}
		if rec.IsCSOwned {
			agg.inWindowCS++
		}

		key := bucketKey(rec, cfg)
		agg.row.Months[key] += rec.Amount
		agg.row.TotalRevenue += rec.Amount
		agg.row.PaymentCount++
		if rec.DealFiscalYear == currentFY.Label {
			agg.row.RealizedThisFY += rec.Amount
		}
	}

	var rows []*models.PivotRow
	for _, id := range order {
		agg := aggs[id]
		if agg.inWindow == 0 {
			continue
		}
		agg.row.POCTeam = pocTeam(agg)
		if !keepRow(agg, cfg) {
			continue
		}
		rows = append(rows, agg.row)
	}

	sortRows(rows, cfg.SortDescending)
	return rows
}

func qualifies(rec *models.EnrichedRecord, cfg Config) bool {
	if rec.Pipeline != cfg.Pipeline || !rec.CloseKnown {
		return false
	}
	return !rec.CloseDate.Before(cfg.WindowStart) && !rec.CloseDate.After(cfg.WindowEnd)
}

func bucketKey(rec *models.EnrichedRecord, cfg Config) string {
	if cfg.Granularity == GranularityQuarter {
		fy := fiscal.YearOf(rec.CloseDate, cfg.StartMonth)
		return fmt.Sprintf("%s Q%d", fy.Label, fy.Quarter)
	}
	return rec.MonthKey
}

// pocTier decides a tag for one entity, or declines. The chain below
// is evaluated top-down, first match wins; the order encodes the rule
// that current-activity ownership overrides stale history.
type pocTier func(*entityAgg) (string, bool)

var pocTiers = []pocTier{
	tierInWindowExclusive,
	tierAllTimeExclusive,
	tierCurrentFYRevenue,
	tierHistoryFallback,
}

func pocTeam(agg *entityAgg) string {
	for _, tier := range pocTiers {
		if tag, ok := tier(agg); ok {
			return tag
		}
	}
	return models.POCCSuite
}

// Tier 1: every in-window revenue deal owned by one team, none by the
// other.
func tierInWindowExclusive(agg *entityAgg) (string, bool) {
	if agg.inWindow == 0 {
		return "", false
	}
	if agg.inWindowSales == agg.inWindow && agg.inWindowCS == 0 {
		return models.POCSales, true
	}
	if agg.inWindowCS == agg.inWindow && agg.inWindowSales == 0 {
		return models.POCCS, true
	}
	return "", false
}

// Tier 2: all-time, all-pipeline history is exclusively one team.
func tierAllTimeExclusive(agg *entityAgg) (string, bool) {
	if agg.flags.HasSalesOwner && !agg.flags.HasCSOwner {
		return models.POCSales, true
	}
	if agg.flags.HasCSOwner && !agg.flags.HasSalesOwner {
		return models.POCCS, true
	}
	return "", false
}

// Tier 3: entity has current-FY revenue; exclusive ownership of those
// deals decides, otherwise the account transferred teams this FY.
func tierCurrentFYRevenue(agg *entityAgg) (string, bool) {
	if !agg.flags.HasRevenueThisFY {
		return "", false
	}
	if agg.fyRevenue > 0 && agg.fyRevenueSales == agg.fyRevenue && agg.fyRevenueCS == 0 {
		return models.POCSales, true
	}
	if agg.fyRevenue > 0 && agg.fyRevenueCS == agg.fyRevenue && agg.fyRevenueSales == 0 {
		return models.POCCS, true
	}
	return models.POCTransferred, true
}

// Tier 4: no current-FY revenue; mixed history or no team at all.
func tierHistoryFallback(agg *entityAgg) (string, bool) {
	if agg.flags.HasSalesOwner && agg.flags.HasCSOwner {
		return models.POCMixed, true
	}
	return models.POCCSuite, true
}

func keepRow(agg *entityAgg, cfg Config) bool {
	row := agg.row
	if cfg.Exclusions[row.EntityName] {
		return false
	}
	if cfg.NewClientsOnly && row.ClientAge != models.AgeNew {
		return false
	}
	if cfg.MinPayments > 0 && row.PaymentCount < cfg.MinPayments {
		return false
	}
	if cfg.GrowthCheck && !grewLastBucket(row, cfg) {
		return false
	}
	return true
}

// grewLastBucket reports whether the entity's most recent nonzero
// bucket held at least the value of the one before it. Rows with fewer
// than two nonzero buckets pass.
func grewLastBucket(row *models.PivotRow, cfg Config) bool {
	keys := chronologicalKeys(row.Months, cfg.Granularity)
	var nonzero []float64
	for _, k := range keys {
		if v := row.Months[k]; v != 0 {
			nonzero = append(nonzero, v)
		}
	}
	if len(nonzero) < 2 {
		return true
	}
	return nonzero[len(nonzero)-1] >= nonzero[len(nonzero)-2]
}

// chronologicalKeys orders bucket keys in time. Month keys parse back
// to dates; quarter keys ("FY 24/25 Q1") sort lexicographically.
func chronologicalKeys(buckets map[string]float64, granularity string) []string {
	keys := make([]string, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	if granularity == GranularityQuarter {
		sort.Strings(keys)
		return keys
	}
	sort.Slice(keys, func(i, j int) bool {
		a, _ := fiscal.ParseMonthKey(keys[i])
		b, _ := fiscal.ParseMonthKey(keys[j])
		return a.Before(b)
	})
	return keys
}

// sortRows orders by first-revenue fiscal year then entity name.
// Entities without a first fiscal year sort last.
func sortRows(rows []*models.PivotRow, descending bool) {
	sort.SliceStable(rows, func(i, j int) bool {
		yi, oki := fyStartYear(rows[i].FirstFiscalYear)
		yj, okj := fyStartYear(rows[j].FirstFiscalYear)
		if oki != okj {
			return oki
		}
		if yi != yj {
			if descending {
				return yi > yj
			}
			return yi < yj
		}
		return rows[i].EntityName < rows[j].EntityName
	})
}

func fyStartYear(label string) (int, bool) {
	var a, b int
	if _, err := fmt.Sscanf(label, "FY %d/%d", &a, &b); err != nil {
		return 0, false
	}
	return a, true
}
