// Package views computes the derived views of the budget document: filtered
// lists, grouped sums and the monthly time series. Every function is pure
// and deterministic over its inputs; callers re-run them after each
// mutation of the record set.
package views

import (
	"sort"
	"strings"

	"labbudget/internal/core"
)

// Query holds the optional filter criteria. Empty fields match everything.
type Query struct {
	Text     string
	Owner    string
	Status   core.Status
	Envelope core.Envelope
	Type     string
}

// KeyTotal is an amount grouped under a free-text key.
type KeyTotal struct {
	Key   string      `json:"key"`
	Total core.Amount `json:"total"`
}

// MonthTotal is an amount bucketed under a YYYY-MM month.
type MonthTotal struct {
	Month string      `json:"month"`
	Total core.Amount `json:"total"`
}

// Filter returns the records matching q, sorted ascending by date string.
// Empty dates sort first. The free-text query is a case-insensitive
// substring match over label, project, owner, supplier and the quote, PO
// and invoice numbers.
func Filter(records []core.Expense, q Query) []core.Expense {
	text := strings.ToLower(strings.TrimSpace(q.Text))

	out := make([]core.Expense, 0, len(records))
	for _, e := range records {
		if text != "" && !strings.Contains(e.SearchText(), text) {
			continue
		}
		if q.Owner != "" && e.Owner != q.Owner {
			continue
		}
		if q.Status != "" && e.Status != q.Status {
			continue
		}
		if q.Envelope != "" && e.Envelope != q.Envelope {
			continue
		}
		if q.Type != "" && e.Type != q.Type {
			continue
		}
		out = append(out, e)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date < out[j].Date
	})
	return out
}

// Total sums every record unconditionally.
func Total(records []core.Expense) core.Amount {
	var sum core.Amount
	for _, e := range records {
		sum = sum.Add(e.Amount)
	}
	return sum
}

// TotalsByStatus sums amounts per workflow stage. All three buckets are
// present even when zero.
func TotalsByStatus(records []core.Expense) map[core.Status]core.Amount {
	totals := make(map[core.Status]core.Amount, len(core.Statuses))
	for _, s := range core.Statuses {
		totals[s] = core.Amount{}
	}
	for _, e := range records {
		totals[e.Status] = totals[e.Status].Add(e.Amount)
	}
	return totals
}

// TotalsByEnvelope sums amounts per envelope. Both buckets are present
// even when zero.
func TotalsByEnvelope(records []core.Expense) map[core.Envelope]core.Amount {
	totals := make(map[core.Envelope]core.Amount, len(core.Envelopes))
	for _, env := range core.Envelopes {
		totals[env] = core.Amount{}
	}
	for _, e := range records {
		totals[e.Envelope] = totals[e.Envelope].Add(e.Amount)
	}
	return totals
}

// Remaining returns budget minus spent, independently per envelope.
// Negative remainders are reported as-is.
func Remaining(budgets core.Budgets, records []core.Expense) map[core.Envelope]core.Amount {
	spent := TotalsByEnvelope(records)
	out := make(map[core.Envelope]core.Amount, len(core.Envelopes))
	for _, env := range core.Envelopes {
		out[env] = budgets.ForEnvelope(env).Sub(spent[env])
	}
	return out
}

// TotalsByProject groups by trimmed project name, descending by sum.
// Records with a blank project are excluded.
func TotalsByProject(records []core.Expense) []KeyTotal {
	return totalsByKey(records, func(e core.Expense) string { return e.Project })
}

// TotalsByOwner groups by trimmed owner name, descending by sum.
// Records with a blank owner are excluded.
func TotalsByOwner(records []core.Expense) []KeyTotal {
	return totalsByKey(records, func(e core.Expense) string { return e.Owner })
}

// TotalsByType groups by category, descending by sum. Records without a
// type count under the default category.
func TotalsByType(records []core.Expense) []KeyTotal {
	return totalsByKey(records, func(e core.Expense) string {
		if e.Type == "" {
			return core.DefaultType
		}
		return e.Type
	})
}

func totalsByKey(records []core.Expense, key func(core.Expense) string) []KeyTotal {
	sums := make(map[string]core.Amount)
	for _, e := range records {
		k := strings.TrimSpace(key(e))
		if k == "" {
			continue
		}
		sums[k] = sums[k].Add(e.Amount)
	}
	out := make([]KeyTotal, 0, len(sums))
	for k, v := range sums {
		out = append(out, KeyTotal{Key: k, Total: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].Total.Cmp(out[j].Total); c != 0 {
			return c > 0
		}
		return out[i].Key < out[j].Key
	})
	return out
}

// MonthlySeries buckets "Service fait" records by the year-month prefix of
// their date, ascending. Records with an empty date are excluded.
func MonthlySeries(records []core.Expense) []MonthTotal {
	sums := make(map[string]core.Amount)
	for _, e := range records {
		if e.Status != core.StatusServiceFait {
			continue
		}
		if e.Date == "" {
			continue
		}
		ym := e.Date
		if len(ym) > 7 {
			ym = ym[:7]
		}
		sums[ym] = sums[ym].Add(e.Amount)
	}
	out := make([]MonthTotal, 0, len(sums))
	for ym, v := range sums {
		out = append(out, MonthTotal{Month: ym, Total: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month < out[j].Month })
	return out
}
