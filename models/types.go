// ABOUTME: Data models for the HubSpot revenue reporting pipeline
// ABOUTME: Defines DealRecord, EntityStats, Classification, and EnrichedRecord
package models

import (
	"time"
)

// DealRecord is the immutable input unit pulled from the CRM.
// A zero CloseDate means the upstream value could not be parsed;
// CloseKnown distinguishes that from a genuine epoch date.
type DealRecord struct {
	DealID       string    `json:"deal_id"`
	EntityID     string    `json:"entity_id,omitempty"`
	EntityName   string    `json:"entity_name,omitempty"`
	ContactEmail string    `json:"contact_email,omitempty"`
	Amount       float64   `json:"amount"`
	Pipeline     string    `json:"pipeline"`
	CloseDate    time.Time `json:"close_date"`
	CloseKnown   bool      `json:"close_known"`
	LastModified time.Time `json:"last_modified"`
	OwnerID      string    `json:"owner_id,omitempty"`
	DealName     string    `json:"deal_name,omitempty"`
	SourceLabel  string    `json:"source_label"`
}

// HasIdentity reports whether the record carries at least one
// entity-grouping identifier.
func (d *DealRecord) HasIdentity() bool {
	return d.EntityID != "" || d.EntityName != "" || d.ContactEmail != ""
}

// Pipeline labels. Payment is the revenue pipeline; Sales and CS exist
// for relationship and ownership tracking only.
const (
	PipelinePayment = "Payment"
	PipelineSales   = "Sales"
	PipelineCS      = "CS"
)

// Revenue type labels, entity-level.
const (
	RevenueRecurring       = "Recurring"
	RevenueRepeatedOneTime = "Repeated One-Time"
	RevenueOneTime         = "One-Time"
)

// Client age labels, entity-level relative to a report date.
const (
	AgeNew      = "New"
	AgeOld      = "Old"
	AgeFuture   = "Future"
	AgeProspect = "Prospect"
	AgeOther    = "Other"
)

// POC team tags produced by the pivot engine's tier chain.
const (
	POCSales       = "Sales Team"
	POCCS          = "CS Team"
	POCTransferred = "CS and Sales (Transferred this FY)"
	POCMixed       = "CS & Sales"
	POCCSuite      = "C-Suite"
)

// EntityStats is the derived, per-run record shared by every alias of
// one resolved entity. PaidMonths holds distinct "2006-Jan" month keys
// of revenue-pipeline payments; PaidMonthsByFY buckets the same keys by
// fiscal-year label.
type EntityStats struct {
	CanonicalID     string              `json:"canonical_id"`
	EntityIDs       []string            `json:"entity_ids,omitempty"`
	Names           []string            `json:"names,omitempty"`
	Emails          []string            `json:"emails,omitempty"`
	FirstPayment    time.Time           `json:"first_payment"`
	FirstKnown      bool                `json:"first_known"`
	FirstFiscalYear string              `json:"first_fiscal_year,omitempty"`
	PaidMonths      map[string]bool     `json:"paid_months,omitempty"`
	PaidMonthsByFY  map[string][]string `json:"paid_months_by_fy,omitempty"`
}

// DisplayName picks the name to show in report rows: first seen company
// name, falling back to email, then entity ID.
func (s *EntityStats) DisplayName() string {
	if len(s.Names) > 0 {
		return s.Names[0]
	}
	if len(s.Emails) > 0 {
		return s.Emails[0]
	}
	if len(s.EntityIDs) > 0 {
		return s.EntityIDs[0]
	}
	return s.CanonicalID
}

// Classification is the per-deal output of the classification engine.
// RevenueType and ClientAge are entity-level labels broadcast onto each
// deal; the ownership flags are per-deal.
type Classification struct {
	RevenueType  string `json:"revenue_type"`
	ClientAge    string `json:"client_age"`
	IsSalesOwned bool   `json:"is_sales_owned"`
	IsCSOwned    bool   `json:"is_cs_owned"`
}

// EntityFlags are entity-wide booleans computed over every pipeline
// source in the enrichment pass and broadcast onto each record.
type EntityFlags struct {
	HasSalesOwner    bool `json:"has_sales_owner"`
	HasCSOwner       bool `json:"has_cs_owner"`
	HasRevenueThisFY bool `json:"has_revenue_this_fy"`
	HasAnyDealThisFY bool `json:"has_any_deal_this_fy"`
}

// EnrichedRecord joins a deduplicated deal with its classification and
// an entity stats snapshot. It is derived state, rebuilt wholesale on
// every classification run and never edited in place.
type EnrichedRecord struct {
	DealRecord
	Classification
	EntityFlags
	CanonicalID     string    `json:"canonical_id"`
	DisplayName     string    `json:"display_name"`
	FirstFiscalYear string    `json:"first_fiscal_year,omitempty"`
	FirstPayment    time.Time `json:"first_payment,omitempty"`
	FirstKnown      bool      `json:"first_known"`
	DealFiscalYear  string    `json:"deal_fiscal_year,omitempty"`
	MonthKey        string    `json:"month_key,omitempty"`
}

// PivotRow is one entity's monthly revenue row for one report.
type PivotRow struct {
	CanonicalID      string
	EntityName       string
	POCTeam          string
	RevenueType      string
	ClientAge        string
	FirstFiscalYear  string
	FirstPayment     time.Time
	FirstKnown       bool
	Months           map[string]float64
	Forecast         map[string]float64
	RealizedThisFY   float64
	ForecastedThisFY float64
	TotalRevenue     float64
	TotalForPeriod   float64
	PaymentCount     int
}

// MonthTotal returns actual plus forecast for one month key. Forecast
// is only ever set where the actual is zero.
func (r *PivotRow) MonthTotal(key string) float64 {
	if v := r.Months[key]; v != 0 {
		return v
	}
	return r.Forecast[key]
}
