package changeset

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"github.com/planlens/PlanLens-Compare/pkg/types/change"
)

// Filter narrows a change snapshot.  Fields combine conjunctively (a record
// must satisfy every populated field) while the values inside one field
// combine disjunctively (any listed status matches).  The zero Filter keeps
// everything.
type Filter struct {
	Statuses    []change.Status `json:"statuses,omitempty"`
	Trades      []string        `json:"trades,omitempty"`
	Disciplines []string        `json:"disciplines,omitempty"`

	// CostMin / CostMax bound the parsed cost value.  A record whose cost
	// string yields no number is excluded only while the corresponding bound
	// is set; clearing the bound brings it back.
	CostMin *float64 `json:"cost_min,omitempty"`
	CostMax *float64 `json:"cost_max,omitempty"`
}

// IsZero reports whether the filter keeps every record.
func (f Filter) IsZero() bool {
	return len(f.Statuses) == 0 && len(f.Trades) == 0 && len(f.Disciplines) == 0 &&
		f.CostMin == nil && f.CostMax == nil
}

// Apply returns the records passing the filter, in their original order.
func (f Filter) Apply(recs []change.Record) []change.Record {
	if f.IsZero() {
		return recs
	}
	out := make([]change.Record, 0, len(recs))
	for _, r := range recs {
		if f.matches(r) {
			out = append(out, r)
		}
	}
	return out
}

func (f Filter) matches(r change.Record) bool {
	if len(f.Statuses) > 0 && !containsStatus(f.Statuses, r.Status) {
		return false
	}
	if len(f.Trades) > 0 && !containsFold(f.Trades, r.Trade) {
		return false
	}
	if len(f.Disciplines) > 0 && !containsFold(f.Disciplines, r.Discipline) {
		return false
	}
	if f.CostMin != nil || f.CostMax != nil {
		cost, ok := ParseCost(r.CostEstimate)
		if !ok {
			return false
		}
		if f.CostMin != nil && cost < *f.CostMin {
			return false
		}
		if f.CostMax != nil && cost > *f.CostMax {
			return false
		}
	}
	return true
}

func containsStatus(set []change.Status, s change.Status) bool {
	for _, v := range set {
		if v == s {
			return true
		}
	}
	return false
}

func containsFold(set []string, s string) bool {
	for _, v := range set {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}

// Hash returns a stable cache-key fragment for the filter.  Value order
// inside a field does not matter; [open,closed] and [closed,open] hash the
// same.
func (f Filter) Hash() string {
	var b strings.Builder
	writeSorted := func(prefix string, vals []string) {
		sorted := make([]string, len(vals))
		for i, v := range vals {
			sorted[i] = strings.ToLower(v)
		}
		sort.Strings(sorted)
		b.WriteString(prefix)
		b.WriteString(strings.Join(sorted, ","))
		b.WriteByte(';')
	}

	statuses := make([]string, len(f.Statuses))
	for i, s := range f.Statuses {
		statuses[i] = string(s)
	}
	writeSorted("s=", statuses)
	writeSorted("t=", f.Trades)
	writeSorted("d=", f.Disciplines)
	if f.CostMin != nil {
		fmt.Fprintf(&b, "min=%g;", *f.CostMin)
	}
	if f.CostMax != nil {
		fmt.Fprintf(&b, "max=%g;", *f.CostMax)
	}

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:8])
}
