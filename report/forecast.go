// ABOUTME: Carry-forward forecast engine extending pivot rows into future months
// ABOUTME: Single constant baseline per entity, bounded by horizon and eligibility
package report

import (
	"time"

	"github.com/cbaraj14/hubspot-reporting/fiscal"
	"github.com/cbaraj14/hubspot-reporting/models"
)

// Forecast fills zero-valued future months on each row with a constant
// carried-forward baseline. The baseline is the actual at the report
// month, or failing that the month immediately prior; an entity with
// neither is never forecast. No interpolation or trend fitting — the
// last known value is repeated as-is.
//
// Forecast writes only into row.Forecast, never into row.Months, so a
// nonzero actual can never be overwritten. Every row also gets its
// ForecastedThisFY and TotalForPeriod totals filled, forecast or not.
// Quarterly-granularity reports carry actuals only.
func Forecast(rows []*models.PivotRow, cfg Config) {
	currentFY := fiscal.YearOf(cfg.ReportDate, cfg.StartMonth)
	horizon := fiscal.End(currentFY.StartYear, cfg.StartMonth).Add(-time.Nanosecond)
	if cfg.WindowEnd.Before(horizon) {
		horizon = cfg.WindowEnd
	}

	for _, row := range rows {
		if cfg.Granularity == GranularityMonth && eligibleType(row, cfg) {
			forecastRow(row, cfg, currentFY.Label, horizon)
		}
		finalizeTotals(row, currentFY.Label, cfg)
	}
}

func eligibleType(row *models.PivotRow, cfg Config) bool {
	for _, t := range cfg.ForecastTypes {
		if row.RevenueType == t {
			return true
		}
	}
	return false
}

func forecastRow(row *models.PivotRow, cfg Config, currentLabel string, horizon time.Time) {
	reportMonth := fiscal.MonthStart(cfg.ReportDate)
	baseline, ok := baselineFor(row, reportMonth)
	if !ok {
		return
	}

	// The report month itself is included: when it has no actual it is
	// the first month the prior-month baseline carries into.
	for _, m := range fiscal.MonthsBetween(reportMonth, horizon) {
		key := fiscal.MonthKey(m)
		if row.Months[key] != 0 {
			continue
		}
		if !withinEligibility(row, cfg, m) {
			continue
		}
		row.Forecast[key] = baseline
	}
}

// baselineFor picks the carried value: report month if positive, else
// the month immediately prior if positive.
func baselineFor(row *models.PivotRow, reportMonth time.Time) (float64, bool) {
	if v := row.Months[fiscal.MonthKey(reportMonth)]; v > 0 {
		return v, true
	}
	if v := row.Months[fiscal.MonthKey(reportMonth.AddDate(0, -1, 0))]; v > 0 {
		return v, true
	}
	return 0, false
}

// withinEligibility applies the month-count caps measured from first
// revenue: the hard cap of the sales report variant, and the
// transferred-account window for rows the POC chain tagged as
// transferred this FY.
func withinEligibility(row *models.PivotRow, cfg Config, month time.Time) bool {
	if cfg.MaxForecastMonths > 0 {
		if !row.FirstKnown {
			return false
		}
		if fiscal.MonthsApart(fiscal.MonthStart(row.FirstPayment), month) >= cfg.MaxForecastMonths {
			return false
		}
	}
	if cfg.TransferredWindowMonths > 0 && row.POCTeam == models.POCTransferred {
		if !row.FirstKnown {
			return false
		}
		if fiscal.MonthsApart(fiscal.MonthStart(row.FirstPayment), month) >= cfg.TransferredWindowMonths {
			return false
		}
	}
	return true
}

func finalizeTotals(row *models.PivotRow, currentLabel string, cfg Config) {
	row.ForecastedThisFY = row.RealizedThisFY
	row.TotalForPeriod = row.TotalRevenue
	for key, v := range row.Forecast {
		row.TotalForPeriod += v
		if m, ok := fiscal.ParseMonthKey(key); ok {
			if fiscal.YearOf(m, cfg.StartMonth).Label == currentLabel {
				row.ForecastedThisFY += v
			}
		}
	}
}
