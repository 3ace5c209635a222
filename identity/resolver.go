// ABOUTME: Entity identity resolution across deal records
// ABOUTME: Unions id/name/email aliases so every alias maps to one stats record
package identity

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/cbaraj14/hubspot-reporting/fiscal"
	"github.com/cbaraj14/hubspot-reporting/models"
)

// Alias keys are namespaced so an entity ID can never collide with a
// company name or email that happens to share its spelling.
const (
	kindID    = "id:"
	kindName  = "name:"
	kindEmail = "email:"
)

// Resolver groups deal records into entities. Aliases are connected
// with a disjoint-set structure: any two aliases that ever appear on
// the same record share an entity, and the relation is transitive
// across records within the batch.
type Resolver struct {
	parent     map[string]string
	stats      map[string]*models.EntityStats
	startMonth time.Month
}

// NewResolver builds the alias graph for a batch of records and
// computes the shared EntityStats per connected component. Revenue
// stats (first payment, paid months) come from revenue-pipeline deals
// only; identity links come from every record.
func NewResolver(records []models.DealRecord, startMonth time.Month) *Resolver {
	r := &Resolver{
		parent:     make(map[string]string),
		stats:      make(map[string]*models.EntityStats),
		startMonth: startMonth,
	}

	for i := range records {
		keys := aliasKeys(&records[i])
		for j := 1; j < len(keys); j++ {
			r.union(keys[0], keys[j])
		}
	}

	// Collect alias members per root, in sorted order so canonical IDs
	// and name lists are stable across runs.
	members := make(map[string][]string)
	for alias := range r.parent {
		root := r.find(alias)
		members[root] = append(members[root], alias)
	}
	for root, aliases := range members {
		sort.Strings(aliases)
		st := &models.EntityStats{
			CanonicalID:    canonicalID(aliases),
			PaidMonths:     make(map[string]bool),
			PaidMonthsByFY: make(map[string][]string),
		}
		for _, alias := range aliases {
			switch {
			case strings.HasPrefix(alias, kindID):
				st.EntityIDs = append(st.EntityIDs, strings.TrimPrefix(alias, kindID))
			case strings.HasPrefix(alias, kindName):
				st.Names = append(st.Names, strings.TrimPrefix(alias, kindName))
			case strings.HasPrefix(alias, kindEmail):
				st.Emails = append(st.Emails, strings.TrimPrefix(alias, kindEmail))
			}
		}
		r.stats[root] = st
	}

	for i := range records {
		r.accumulate(&records[i])
	}
	return r
}

// Lookup returns the shared stats record for a deal, or a standalone
// fallback when the deal carries no identifier at all. The fallback
// treats the deal's own close date as the first payment, so the record
// still classifies downstream.
func (r *Resolver) Lookup(rec *models.DealRecord) *models.EntityStats {
	keys := aliasKeys(rec)
	if len(keys) == 0 {
		return r.fallback(rec)
	}
	return r.stats[r.find(keys[0])]
}

// LookupAlias resolves a single alias string of the given kind
// ("id", "name", or "email"). Nil when the alias was never seen.
func (r *Resolver) LookupAlias(kind, value string) *models.EntityStats {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	key := kind + ":" + value
	if _, seen := r.parent[key]; !seen {
		return nil
	}
	return r.stats[r.find(key)]
}

// Entities lists every resolved stats record, sorted by canonical ID
// for deterministic iteration.
func (r *Resolver) Entities() []*models.EntityStats {
	out := make([]*models.EntityStats, 0, len(r.stats))
	for _, st := range r.stats {
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CanonicalID < out[j].CanonicalID })
	return out
}

func (r *Resolver) fallback(rec *models.DealRecord) *models.EntityStats {
	st := &models.EntityStats{
		CanonicalID:    "deal:" + rec.DealID,
		PaidMonths:     make(map[string]bool),
		PaidMonthsByFY: make(map[string][]string),
	}
	if rec.Pipeline == models.PipelinePayment && rec.CloseKnown {
		st.FirstPayment = rec.CloseDate
		st.FirstKnown = true
		fy := fiscal.YearOf(rec.CloseDate, r.startMonth)
		st.FirstFiscalYear = fy.Label
		key := fiscal.MonthKey(rec.CloseDate)
		st.PaidMonths[key] = true
		st.PaidMonthsByFY[fy.Label] = []string{key}
	}
	return st
}

// accumulate folds one record's revenue facts into its entity stats.
func (r *Resolver) accumulate(rec *models.DealRecord) {
	keys := aliasKeys(rec)
	if len(keys) == 0 {
		return
	}
	st := r.stats[r.find(keys[0])]
	if rec.Pipeline != models.PipelinePayment || !rec.CloseKnown {
		return
	}
	if !st.FirstKnown || rec.CloseDate.Before(st.FirstPayment) {
		st.FirstPayment = rec.CloseDate
		st.FirstKnown = true
		st.FirstFiscalYear = fiscal.YearOf(rec.CloseDate, r.startMonth).Label
	}
	key := fiscal.MonthKey(rec.CloseDate)
	if !st.PaidMonths[key] {
		st.PaidMonths[key] = true
		label := fiscal.YearOf(rec.CloseDate, r.startMonth).Label
		st.PaidMonthsByFY[label] = append(st.PaidMonthsByFY[label], key)
	}
}

func (r *Resolver) find(key string) string {
	p, ok := r.parent[key]
	if !ok {
		r.parent[key] = key
		return key
	}
	if p == key {
		return key
	}
	root := r.find(p)
	r.parent[key] = root
	return root
}

func (r *Resolver) union(a, b string) {
	ra, rb := r.find(a), r.find(b)
	if ra != rb {
		r.parent[rb] = ra
	}
}

// aliasKeys lists a record's namespaced alias keys in primary-key
// order: entity ID first, then name, then email. IDs compare verbatim;
// names and emails are trimmed but case-preserved.
func aliasKeys(rec *models.DealRecord) []string {
	var keys []string
	if id := strings.TrimSpace(rec.EntityID); id != "" {
		keys = append(keys, kindID+id)
	}
	if name := strings.TrimSpace(rec.EntityName); name != "" {
		keys = append(keys, kindName+name)
	}
	if email := strings.TrimSpace(rec.ContactEmail); email != "" {
		keys = append(keys, kindEmail+email)
	}
	return keys
}

// canonicalID derives a stable entity identifier from the sorted alias
// set: the first entity ID if one exists, otherwise the first alias.
func canonicalID(sorted []string) string {
	for _, alias := range sorted {
		if strings.HasPrefix(alias, kindID) {
			return fmt.Sprintf("ent:%s", strings.TrimPrefix(alias, kindID))
		}
	}
	return "ent:" + sorted[0]
}
