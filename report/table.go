// ABOUTME: Finalized report table assembly: header, data rows, totals row
// ABOUTME: Cells stay plain strings and float64s so any sink can render them
package report

import (
	"fmt"
	"time"

	"github.com/cbaraj14/hubspot-reporting/fiscal"
	"github.com/cbaraj14/hubspot-reporting/metrics"
	"github.com/cbaraj14/hubspot-reporting/models"
)

// Table is the finished output handed to a rendering collaborator.
// Numeric cells are float64 and text cells string; the trailing totals
// row sums every numeric column. Formatting is the sink's problem.
type Table struct {
	Header []string
	Rows   [][]any
	Totals []any
}

// leadColumns precede the bucket columns in every report.
var leadColumns = []string{"Company", "POC Team", "Client Age", "Revenue Type", "First FY"}

// trailColumns follow the bucket columns.
var trailColumns = []string{"Realized This FY", "Forecasted This FY", "Total Revenue", "Total For Period"}

// Run executes the full report pass over an enriched dataset: pivot,
// forecast, table. The input dataset is not mutated.
func Run(records []models.EnrichedRecord, cfg Config) *Table {
	start := time.Now()
	rows := BuildPivot(records, cfg)
	Forecast(rows, cfg)
	t := BuildTable(rows, cfg)
	metrics.ReportBuilds.Inc()
	metrics.ReportDuration.Observe(time.Since(start).Seconds())
	return t
}

// BuildTable lays the pivot rows into a renderable grid. Bucket
// columns span the report window in chronological order, present for
// every row whether or not that row has a value in them.
func BuildTable(rows []*models.PivotRow, cfg Config) *Table {
	buckets := bucketColumns(cfg)

	header := make([]string, 0, len(leadColumns)+len(buckets)+len(trailColumns))
	header = append(header, leadColumns...)
	header = append(header, buckets...)
	header = append(header, trailColumns...)

	t := &Table{Header: header}
	totals := make([]float64, len(buckets)+len(trailColumns))

	for _, row := range rows {
		cells := make([]any, 0, len(header))
		cells = append(cells, row.EntityName, row.POCTeam, row.ClientAge, row.RevenueType, row.FirstFiscalYear)
		for i, key := range buckets {
			v := row.MonthTotal(key)
			cells = append(cells, v)
			totals[i] += v
		}
		trail := []float64{row.RealizedThisFY, row.ForecastedThisFY, row.TotalRevenue, row.TotalForPeriod}
		for i, v := range trail {
			cells = append(cells, v)
			totals[len(buckets)+i] += v
		}
		t.Rows = append(t.Rows, cells)
	}

	t.Totals = make([]any, 0, len(header))
	t.Totals = append(t.Totals, "Total", "", "", "", "")
	for _, v := range totals {
		t.Totals = append(t.Totals, v)
	}
	return t
}

// bucketColumns lists the bucket keys covering the report window.
func bucketColumns(cfg Config) []string {
	months := fiscal.MonthsBetween(cfg.WindowStart, cfg.WindowEnd)
	if cfg.Granularity != GranularityQuarter {
		keys := make([]string, len(months))
		for i, m := range months {
			keys[i] = fiscal.MonthKey(m)
		}
		return keys
	}

	var keys []string
	seen := make(map[string]bool)
	for _, m := range months {
		fy := fiscal.YearOf(m, cfg.StartMonth)
		key := fmt.Sprintf("%s Q%d", fy.Label, fy.Quarter)
		if !seen[key] {
			seen[key] = true
			keys = append(keys, key)
		}
	}
	return keys
}
