// ABOUTME: Tests for the pivot engine and POC tier chain
// ABOUTME: Each tier is exercised in isolation plus full scenarios end-to-end
package report

import (
	"testing"
	"time"

	"github.com/cbaraj14/hubspot-reporting/fiscal"
	"github.com/cbaraj14/hubspot-reporting/models"
)

func testConfig() Config {
	return Config{
		ReportDate:    time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC),
		WindowStart:   time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC),
		WindowEnd:     time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC),
		Pipeline:      models.PipelinePayment,
		StartMonth:    fiscal.DefaultStartMonth,
		Granularity:   GranularityMonth,
		ForecastTypes: []string{models.RevenueRecurring},
		Exclusions:    map[string]bool{},
	}
}

type enrOpt func(*models.EnrichedRecord)

func owned(sales, cs bool) enrOpt {
	return func(r *models.EnrichedRecord) {
		r.IsSalesOwned = sales
		r.IsCSOwned = cs
	}
}

func withFlags(f models.EntityFlags) enrOpt {
	return func(r *models.EnrichedRecord) { r.EntityFlags = f }
}

func withAge(age string) enrOpt {
	return func(r *models.EnrichedRecord) { r.ClientAge = age }
}

func withType(rt string) enrOpt {
	return func(r *models.EnrichedRecord) { r.RevenueType = rt }
}

func withFirstFY(label string, first time.Time) enrOpt {
	return func(r *models.EnrichedRecord) {
		r.FirstFiscalYear = label
		r.FirstPayment = first
		r.FirstKnown = true
	}
}

func enr(dealID, canonical, name, pipeline string, close time.Time, amount float64, opts ...enrOpt) models.EnrichedRecord {
	rec := models.EnrichedRecord{
		DealRecord: models.DealRecord{
			DealID:     dealID,
			Amount:     amount,
			Pipeline:   pipeline,
			CloseDate:  close,
			CloseKnown: true,
		},
		CanonicalID:    canonical,
		DisplayName:    name,
		DealFiscalYear: fiscal.YearOf(close, fiscal.DefaultStartMonth).Label,
		MonthKey:       fiscal.MonthKey(close),
	}
	for _, opt := range opts {
		opt(&rec)
	}
	return rec
}

var (
	jul24 = time.Date(2024, 7, 5, 0, 0, 0, 0, time.UTC)
	aug24 = time.Date(2024, 8, 5, 0, 0, 0, 0, time.UTC)
)

func TestPivotAcmeScenario(t *testing.T) {
	flags := models.EntityFlags{HasSalesOwner: true, HasRevenueThisFY: true, HasAnyDealThisFY: true}
	records := []models.EnrichedRecord{
		enr("p1", "ent:1", "Acme", models.PipelinePayment, jul24, 1000,
			owned(true, false), withFlags(flags), withAge(models.AgeNew),
			withType(models.RevenueRecurring), withFirstFY("FY 24/25", jul24)),
		enr("p2", "ent:1", "Acme", models.PipelinePayment, aug24, 1000,
			owned(true, false), withFlags(flags), withAge(models.AgeNew),
			withType(models.RevenueRecurring), withFirstFY("FY 24/25", jul24)),
	}

	rows := BuildPivot(records, testConfig())
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	row := rows[0]
	if row.Months["2024-Jul"] != 1000 || row.Months["2024-Aug"] != 1000 {
		t.Errorf("months = %v", row.Months)
	}
	if row.RealizedThisFY != 2000 {
		t.Errorf("RealizedThisFY = %v, want 2000", row.RealizedThisFY)
	}
	if row.POCTeam != models.POCSales {
		t.Errorf("POCTeam = %q, want %q", row.POCTeam, models.POCSales)
	}
	if row.FirstFiscalYear != "FY 24/25" || row.ClientAge != models.AgeNew {
		t.Errorf("labels: %q %q", row.FirstFiscalYear, row.ClientAge)
	}
}

// Pivot total invariant: TotalRevenue equals the sum of month buckets.
func TestPivotTotalInvariant(t *testing.T) {
	records := []models.EnrichedRecord{
		enr("a", "ent:1", "A", models.PipelinePayment, jul24, 120.5),
		enr("b", "ent:1", "A", models.PipelinePayment, aug24, 79.5),
		enr("c", "ent:1", "A", models.PipelinePayment, aug24, 300),
	}
	rows := BuildPivot(records, testConfig())
	row := rows[0]

	var sum float64
	for _, v := range row.Months {
		sum += v
	}
	if sum != row.TotalRevenue {
		t.Errorf("bucket sum %v != TotalRevenue %v", sum, row.TotalRevenue)
	}
	if row.PaymentCount != 3 {
		t.Errorf("PaymentCount = %d, want 3", row.PaymentCount)
	}
}

func TestPivotWindowAndPipelineFilter(t *testing.T) {
	outside := time.Date(2023, 5, 1, 0, 0, 0, 0, time.UTC)
	records := []models.EnrichedRecord{
		enr("in", "ent:1", "A", models.PipelinePayment, jul24, 100),
		enr("early", "ent:1", "A", models.PipelinePayment, outside, 999),
		enr("cs", "ent:1", "A", models.PipelineCS, jul24, 999),
	}
	rows := BuildPivot(records, testConfig())
	if rows[0].TotalRevenue != 100 {
		t.Errorf("only the in-window payment deal should count, got %v", rows[0].TotalRevenue)
	}
}

func TestPivotUnknownCloseDateExcluded(t *testing.T) {
	rec := enr("u", "ent:1", "A", models.PipelinePayment, jul24, 50)
	rec.CloseKnown = false
	rows := BuildPivot([]models.EnrichedRecord{rec}, testConfig())
	if len(rows) != 0 {
		t.Errorf("unknown-date deal should not qualify, got %d rows", len(rows))
	}
}

func TestPOCTier1InWindowExclusive(t *testing.T) {
	// Mixed all-time flags, but every in-window deal is CS-owned.
	flags := models.EntityFlags{HasSalesOwner: true, HasCSOwner: true, HasRevenueThisFY: true}
	records := []models.EnrichedRecord{
		enr("a", "ent:1", "A", models.PipelinePayment, jul24, 10, owned(false, true), withFlags(flags)),
		enr("b", "ent:1", "A", models.PipelinePayment, aug24, 10, owned(false, true), withFlags(flags)),
	}
	rows := BuildPivot(records, testConfig())
	if rows[0].POCTeam != models.POCCS {
		t.Errorf("POCTeam = %q, want %q", rows[0].POCTeam, models.POCCS)
	}
}

func TestPOCTier2AllTimeExclusive(t *testing.T) {
	// In-window ownership is mixed, so tier 1 declines; history is
	// exclusively sales.
	flags := models.EntityFlags{HasSalesOwner: true, HasRevenueThisFY: true}
	records := []models.EnrichedRecord{
		enr("a", "ent:1", "A", models.PipelinePayment, jul24, 10, owned(true, false), withFlags(flags)),
		enr("b", "ent:1", "A", models.PipelinePayment, aug24, 10, owned(false, false), withFlags(flags)),
	}
	rows := BuildPivot(records, testConfig())
	if rows[0].POCTeam != models.POCSales {
		t.Errorf("POCTeam = %q, want %q", rows[0].POCTeam, models.POCSales)
	}
}

func TestPOCTier3Transferred(t *testing.T) {
	// Mixed history and mixed current-FY revenue ownership.
	flags := models.EntityFlags{HasSalesOwner: true, HasCSOwner: true, HasRevenueThisFY: true}
	records := []models.EnrichedRecord{
		enr("a", "ent:1", "A", models.PipelinePayment, jul24, 10, owned(true, false), withFlags(flags)),
		enr("b", "ent:1", "A", models.PipelinePayment, aug24, 10, owned(false, true), withFlags(flags)),
	}
	rows := BuildPivot(records, testConfig())
	if rows[0].POCTeam != models.POCTransferred {
		t.Errorf("POCTeam = %q, want %q", rows[0].POCTeam, models.POCTransferred)
	}
}

func TestPOCTier4MixedHistoryNoFYRevenue(t *testing.T) {
	// Scenario: one CS-pipeline deal CS-owned, one Sales-pipeline
	// deal sales-owned, no current-FY revenue. The report still needs a
	// qualifying in-window revenue deal for the row to exist, but with
	// mixed ownership so tier 1 declines; its FY predates the report.
	cfg := testConfig()
	cfg.WindowStart = time.Date(2023, 7, 1, 0, 0, 0, 0, time.UTC)
	prior := time.Date(2023, 8, 1, 0, 0, 0, 0, time.UTC)

	flags := models.EntityFlags{HasSalesOwner: true, HasCSOwner: true}
	records := []models.EnrichedRecord{
		enr("p", "ent:1", "A", models.PipelinePayment, prior, 10, owned(true, true), withFlags(flags)),
	}
	rows := BuildPivot(records, cfg)
	if rows[0].POCTeam != models.POCMixed {
		t.Errorf("POCTeam = %q, want %q", rows[0].POCTeam, models.POCMixed)
	}
}

func TestPOCTierCSuiteFallback(t *testing.T) {
	prior := time.Date(2023, 8, 1, 0, 0, 0, 0, time.UTC)
	cfg := testConfig()
	cfg.WindowStart = time.Date(2023, 7, 1, 0, 0, 0, 0, time.UTC)

	// No team ownership anywhere, no current-FY revenue. Tiers 1 and 2
	// decline (no exclusive owner), tier 3 declines (no FY revenue),
	// tier 4 has no mixed history.
	records := []models.EnrichedRecord{
		enr("p", "ent:1", "A", models.PipelinePayment, prior, 10),
	}
	rows := BuildPivot(records, cfg)
	if rows[0].POCTeam != models.POCCSuite {
		t.Errorf("POCTeam = %q, want %q", rows[0].POCTeam, models.POCCSuite)
	}
}

func TestPOCTierOrderCurrentOverridesHistory(t *testing.T) {
	// All in-window deals sales-owned while history shows CS too:
	// tier 1 must win before the history tiers get a say.
	flags := models.EntityFlags{HasSalesOwner: true, HasCSOwner: true, HasRevenueThisFY: true}
	records := []models.EnrichedRecord{
		enr("a", "ent:1", "A", models.PipelinePayment, jul24, 10, owned(true, false), withFlags(flags)),
	}
	rows := BuildPivot(records, testConfig())
	if rows[0].POCTeam != models.POCSales {
		t.Errorf("POCTeam = %q, want %q", rows[0].POCTeam, models.POCSales)
	}
}

func TestRowFilters(t *testing.T) {
	flags := models.EntityFlags{HasSalesOwner: true, HasRevenueThisFY: true}
	mk := func(name, canonical, age string) models.EnrichedRecord {
		return enr("d-"+canonical, canonical, name, models.PipelinePayment, jul24, 100,
			owned(true, false), withFlags(flags), withAge(age))
	}

	records := []models.EnrichedRecord{
		mk("Keep Co", "ent:1", models.AgeNew),
		mk("Excluded Co", "ent:2", models.AgeNew),
		mk("Old Co", "ent:3", models.AgeOld),
	}

	cfg := testConfig()
	cfg.Exclusions = map[string]bool{"Excluded Co": true}
	cfg.NewClientsOnly = true

	rows := BuildPivot(records, cfg)
	if len(rows) != 1 || rows[0].EntityName != "Keep Co" {
		t.Fatalf("expected only Keep Co, got %d rows", len(rows))
	}
}

func TestMinPaymentsFilter(t *testing.T) {
	records := []models.EnrichedRecord{
		enr("a", "ent:1", "One", models.PipelinePayment, jul24, 100),
		enr("b", "ent:2", "Two", models.PipelinePayment, jul24, 100),
		enr("c", "ent:2", "Two", models.PipelinePayment, aug24, 100),
	}
	cfg := testConfig()
	cfg.MinPayments = 2
	rows := BuildPivot(records, cfg)
	if len(rows) != 1 || rows[0].EntityName != "Two" {
		t.Fatalf("min-payments filter failed: %d rows", len(rows))
	}
}

func TestGrowthCheckFilter(t *testing.T) {
	cfg := testConfig()
	cfg.GrowthCheck = true

	records := []models.EnrichedRecord{
		enr("a", "ent:1", "Shrinking", models.PipelinePayment, jul24, 500),
		enr("b", "ent:1", "Shrinking", models.PipelinePayment, aug24, 100),
		enr("c", "ent:2", "Growing", models.PipelinePayment, jul24, 100),
		enr("d", "ent:2", "Growing", models.PipelinePayment, aug24, 500),
	}
	rows := BuildPivot(records, cfg)
	if len(rows) != 1 || rows[0].EntityName != "Growing" {
		t.Fatalf("growth check should drop the shrinking entity, got %d rows", len(rows))
	}
}

func TestSortByFirstFYThenName(t *testing.T) {
	old := time.Date(2023, 8, 1, 0, 0, 0, 0, time.UTC)
	cfg := testConfig()
	cfg.WindowStart = time.Date(2023, 7, 1, 0, 0, 0, 0, time.UTC)

	records := []models.EnrichedRecord{
		enr("a", "ent:1", "Zeta", models.PipelinePayment, jul24, 1, withFirstFY("FY 24/25", jul24)),
		enr("b", "ent:2", "Alpha", models.PipelinePayment, jul24, 1, withFirstFY("FY 24/25", jul24)),
		enr("c", "ent:3", "Beta", models.PipelinePayment, old, 1, withFirstFY("FY 23/24", old)),
	}

	rows := BuildPivot(records, cfg)
	got := []string{rows[0].EntityName, rows[1].EntityName, rows[2].EntityName}
	want := []string{"Beta", "Alpha", "Zeta"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("ascending sort = %v, want %v", got, want)
		}
	}

	cfg.SortDescending = true
	rows = BuildPivot(records, cfg)
	if rows[0].EntityName != "Alpha" || rows[2].EntityName != "Beta" {
		t.Errorf("descending sort = %s, %s, %s", rows[0].EntityName, rows[1].EntityName, rows[2].EntityName)
	}
}

func TestQuarterlyGranularity(t *testing.T) {
	cfg := testConfig()
	cfg.Granularity = GranularityQuarter

	records := []models.EnrichedRecord{
		enr("a", "ent:1", "A", models.PipelinePayment, jul24, 100),
		enr("b", "ent:1", "A", models.PipelinePayment, aug24, 200),
		enr("c", "ent:1", "A", models.PipelinePayment, time.Date(2024, 11, 1, 0, 0, 0, 0, time.UTC), 300),
	}
	rows := BuildPivot(records, cfg)
	if rows[0].Months["FY 24/25 Q1"] != 300 {
		t.Errorf("Q1 bucket = %v, want 300", rows[0].Months["FY 24/25 Q1"])
	}
	if rows[0].Months["FY 24/25 Q2"] != 300 {
		t.Errorf("Q2 bucket = %v, want 300", rows[0].Months["FY 24/25 Q2"])
	}
}
