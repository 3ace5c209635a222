// ABOUTME: Classification engine for revenue type, client age, and ownership
// ABOUTME: Entity-level labels computed from stats plus deal-name keyword scans
package classify

import (
	"strings"
	"time"

	"github.com/cbaraj14/hubspot-reporting/fiscal"
	"github.com/cbaraj14/hubspot-reporting/models"
)

// DefaultKeywords mark a deal name as recurring revenue when matched
// case-insensitively anywhere in the name.
var DefaultKeywords = []string{"subscription", "monthly plan", "retainer"}

const (
	// recurringMonthsPerFY: an entity paying in at least this many
	// distinct months of a single fiscal year is Recurring even
	// without a keyword match.
	recurringMonthsPerFY = 8
	// repeatedMonthsFloor: strictly more than this many distinct paid
	// months across all history makes an entity Repeated One-Time.
	repeatedMonthsFloor = 5
)

// Engine holds the membership tables and keyword list a classification
// run needs. Construct once per run; the engine itself is stateless
// across calls.
type Engine struct {
	SalesMembers map[string]bool
	CSMembers    map[string]bool
	Keywords     []string
	StartMonth   time.Month
}

// NewEngine builds an engine from the external membership tables. A nil
// keyword slice falls back to DefaultKeywords.
func NewEngine(salesMembers, csMembers []string, keywords []string, startMonth time.Month) *Engine {
	if keywords == nil {
		keywords = DefaultKeywords
	}
	if startMonth == 0 {
		startMonth = fiscal.DefaultStartMonth
	}
	e := &Engine{
		SalesMembers: make(map[string]bool, len(salesMembers)),
		CSMembers:    make(map[string]bool, len(csMembers)),
		Keywords:     keywords,
		StartMonth:   startMonth,
	}
	for _, m := range salesMembers {
		e.SalesMembers[m] = true
	}
	for _, m := range csMembers {
		e.CSMembers[m] = true
	}
	return e
}

// RevenueType labels an entity from its revenue-pipeline deal names and
// paid-month history. Recurring on a keyword hit or eight distinct paid
// months inside one fiscal year; Repeated One-Time past five distinct
// paid months all-time; One-Time otherwise. Every deal of the entity
// carries the same label during enrichment.
func (e *Engine) RevenueType(st *models.EntityStats, dealNames []string) string {
	for _, name := range dealNames {
		lower := strings.ToLower(name)
		for _, kw := range e.Keywords {
			if strings.Contains(lower, kw) {
				return models.RevenueRecurring
			}
		}
	}
	for _, months := range st.PaidMonthsByFY {
		if len(months) >= recurringMonthsPerFY {
			return models.RevenueRecurring
		}
	}
	if len(st.PaidMonths) > repeatedMonthsFloor {
		return models.RevenueRepeatedOneTime
	}
	return models.RevenueOneTime
}

// ClientAge labels an entity relative to the report date. The tier
// order is deliberate and load-bearing:
//
//	Prospect — no resolvable first-payment fiscal year
//	Future   — first payment after the report date
//	Old      — first FY start-year numeral before the current one
//	New      — first FY label equal to the current label
//	Other    — explicit fallback
//
// Old compares numerals while New compares label strings; the Other
// branch fires when the two disagree, which the tests pin down rather
// than fold into New.
func (e *Engine) ClientAge(st *models.EntityStats, reportDate time.Time) string {
	if !st.FirstKnown || st.FirstFiscalYear == "" {
		return models.AgeProspect
	}
	if st.FirstPayment.After(reportDate) {
		return models.AgeFuture
	}
	current := fiscal.YearOf(reportDate, e.StartMonth)
	first := fiscal.YearOf(st.FirstPayment, e.StartMonth)
	if first.StartYear < current.StartYear {
		return models.AgeOld
	}
	if st.FirstFiscalYear == current.Label {
		return models.AgeNew
	}
	return models.AgeOther
}

// Ownership reports team membership for a deal owner. Exact string
// match against the configured member lists.
func (e *Engine) Ownership(ownerID string) (isSales, isCS bool) {
	return e.SalesMembers[ownerID], e.CSMembers[ownerID]
}
