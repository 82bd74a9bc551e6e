// Package reminders flags budget lines whose procurement workflow has
// stalled: a quote without a purchase order, a purchase order without
// service done, a delivery without an invoice, an invoice without a date.
package reminders

import (
	"math"
	"sort"
	"time"

	"labbudget/internal/core"
)

// Flag labels, as shown to the user.
const (
	FlagQuoteWithoutPO     = "Devis sans BC"
	FlagPOWithoutService   = "BC sans service fait"
	FlagServiceWithoutInv  = "Service fait sans facture"
	FlagInvoiceWithoutDate = "Facture sans date"
)

// Day thresholds before a workflow stage is considered stalled.
const (
	quoteAgeDays   = 10
	poAgeDays      = 30
	serviceAgeDays = 15
)

// maxReminders caps the list to the most urgent entries.
const maxReminders = 12

// Reminder is a flagged record. AgeDays is nil when no usable date was
// available (only the invoice-without-date rule produces such entries).
type Reminder struct {
	ExpenseID string `json:"expenseId"`
	Label     string `json:"label"`
	Flag      string `json:"flag"`
	AgeDays   *int   `json:"ageDays"`
}

// Scan walks all records and returns the stalled ones, sorted by
// descending age with ageless entries last, truncated to the 12 most
// urgent. It keeps no state; callers re-run it after every mutation.
func Scan(now time.Time, records []core.Expense) []Reminder {
	var out []Reminder
	for _, e := range records {
		if e.QuoteNumber != "" && e.PONumber == "" {
			if age, ok := ageDays(now, e.QuoteDate, e.Date); ok && age >= quoteAgeDays {
				out = append(out, Reminder{ExpenseID: e.ID, Label: e.Label, Flag: FlagQuoteWithoutPO, AgeDays: &age})
			}
		}
		if e.PONumber != "" && e.Status != core.StatusServiceFait {
			if age, ok := ageDays(now, e.PODate, e.Date); ok && age >= poAgeDays {
				out = append(out, Reminder{ExpenseID: e.ID, Label: e.Label, Flag: FlagPOWithoutService, AgeDays: &age})
			}
		}
		if e.Status == core.StatusServiceFait && e.InvoiceNumber == "" {
			if age, ok := ageDays(now, e.Date); ok && age >= serviceAgeDays {
				out = append(out, Reminder{ExpenseID: e.ID, Label: e.Label, Flag: FlagServiceWithoutInv, AgeDays: &age})
			}
		}
		if e.InvoiceNumber != "" && e.InvoiceDate == "" {
			out = append(out, Reminder{ExpenseID: e.ID, Label: e.Label, Flag: FlagInvoiceWithoutDate})
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].AgeDays, out[j].AgeDays
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return *a > *b
		}
	})
	if len(out) > maxReminders {
		out = out[:maxReminders]
	}
	return out
}

// ageDays returns the day-granularity age of the first non-empty date
// among the candidates, floor of the elapsed time over 24h. A missing or
// unparseable date yields no age rather than an error.
func ageDays(now time.Time, dates ...string) (int, bool) {
	for _, d := range dates {
		if d == "" {
			continue
		}
		parsed, err := time.Parse("2006-01-02", d)
		if err != nil {
			return 0, false
		}
		return int(math.Floor(now.Sub(parsed).Hours() / 24)), true
	}
	return 0, false
}
