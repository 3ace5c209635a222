// ABOUTME: Report configuration parsed from flat key/value settings
// ABOUTME: Missing dates are fatal; everything else degrades to defaults
package report

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/cbaraj14/hubspot-reporting/fiscal"
	"github.com/cbaraj14/hubspot-reporting/models"
)

// ConfigError marks a configuration problem that must abort a run
// before any output is written.
type ConfigError struct {
	Param  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("report config %s: %s", e.Param, e.Reason)
}

// Granularity values for pivot buckets.
const (
	GranularityMonth   = "month"
	GranularityQuarter = "quarter"
)

// Config carries every parameter a report run needs. It is immutable
// once built and passed explicitly into each engine; nothing reads
// process-wide state.
type Config struct {
	ReportDate  time.Time
	WindowStart time.Time
	WindowEnd   time.Time
	Pipeline    string
	StartMonth  time.Month
	Granularity string

	SortDescending bool
	NewClientsOnly bool
	MinPayments    int
	GrowthCheck    bool

	// TransferredWindowMonths caps forecasting of CS-transferred
	// accounts at this many months past first revenue. Zero disables
	// the cap.
	TransferredWindowMonths int
	// MaxForecastMonths is the hard total-month cap from first revenue
	// used by the sales report variant. Zero disables the cap.
	MaxForecastMonths int
	// ForecastTypes lists the revenue types eligible for carry-forward.
	ForecastTypes []string

	// Exclusions hard-excludes entities by display name.
	Exclusions map[string]bool
}

// Settings keys understood by FromSettings.
const (
	KeyReportDate        = "report_date"
	KeyWindowStart       = "window_start"
	KeyWindowEnd         = "window_end"
	KeyPipeline          = "pipeline"
	KeyGranularity       = "granularity"
	KeySortDescending    = "sort_descending"
	KeyNewClientsOnly    = "new_clients_only"
	KeyMinPayments       = "min_payments"
	KeyGrowthCheck       = "growth_check"
	KeyTransferredWindow = "transferred_window_months"
	KeyMaxForecast       = "max_forecast_months"
	KeyForecastTypes     = "forecast_types"
)

// FromSettings builds a Config from a flat key→value map. The report
// date is required; window start and end default to the report date's
// fiscal year; every other value degrades to its documented default on
// a missing or malformed entry.
func FromSettings(settings map[string]string) (Config, error) {
	cfg := Config{
		Pipeline:      models.PipelinePayment,
		StartMonth:    fiscal.DefaultStartMonth,
		Granularity:   GranularityMonth,
		ForecastTypes: []string{models.RevenueRecurring},
		Exclusions:    make(map[string]bool),
	}

	reportDate, ok := fiscal.ParseDate(settings[KeyReportDate])
	if !ok {
		return cfg, &ConfigError{Param: KeyReportDate, Reason: "missing or unparsable date"}
	}
	cfg.ReportDate = reportDate

	fy := fiscal.YearOf(reportDate, cfg.StartMonth)
	cfg.WindowStart = fiscal.Start(fy.StartYear, cfg.StartMonth)
	cfg.WindowEnd = fiscal.End(fy.StartYear, cfg.StartMonth).Add(-time.Nanosecond)
	if t, ok := fiscal.ParseDate(settings[KeyWindowStart]); ok {
		cfg.WindowStart = t
	}
	if t, ok := fiscal.ParseDate(settings[KeyWindowEnd]); ok {
		cfg.WindowEnd = t
	}
	if cfg.WindowEnd.Before(cfg.WindowStart) {
		return cfg, &ConfigError{Param: KeyWindowEnd, Reason: "window end precedes window start"}
	}

	if p := strings.TrimSpace(settings[KeyPipeline]); p != "" {
		cfg.Pipeline = p
	}
	if g := strings.TrimSpace(settings[KeyGranularity]); g == GranularityQuarter {
		cfg.Granularity = GranularityQuarter
	}

	cfg.SortDescending = boolSetting(settings, KeySortDescending, false)
	cfg.NewClientsOnly = boolSetting(settings, KeyNewClientsOnly, false)
	cfg.GrowthCheck = boolSetting(settings, KeyGrowthCheck, false)
	cfg.MinPayments = intSetting(settings, KeyMinPayments, 0)
	cfg.TransferredWindowMonths = intSetting(settings, KeyTransferredWindow, 0)
	cfg.MaxForecastMonths = intSetting(settings, KeyMaxForecast, 0)

	if raw := strings.TrimSpace(settings[KeyForecastTypes]); raw != "" {
		var types []string
		for _, part := range strings.Split(raw, ",") {
			if part = strings.TrimSpace(part); part != "" {
				types = append(types, part)
			}
		}
		if types != nil {
			cfg.ForecastTypes = types
		}
	}

	return cfg, nil
}

// Validate checks the collaborator tables a run cannot proceed without.
// Empty member lists are a configuration fault, not a data defect.
func Validate(cfg Config, salesMembers, csMembers []string) error {
	if cfg.ReportDate.IsZero() {
		return &ConfigError{Param: KeyReportDate, Reason: "unset"}
	}
	if len(salesMembers) == 0 {
		return &ConfigError{Param: "sales_members", Reason: "membership table empty"}
	}
	if len(csMembers) == 0 {
		return &ConfigError{Param: "cs_members", Reason: "membership table empty"}
	}
	return nil
}

func boolSetting(settings map[string]string, key string, def bool) bool {
	v, err := strconv.ParseBool(strings.TrimSpace(settings[key]))
	if err != nil {
		return def
	}
	return v
}

func intSetting(settings map[string]string, key string, def int) int {
	v, err := strconv.Atoi(strings.TrimSpace(settings[key]))
	if err != nil || v < 0 {
		return def
	}
	return v
}
