// Package csvio exports the expense table to CSV and imports it back.
// The column layout matches the spreadsheet downloads the lab already
// exchanges; JSON import/export is the document verbatim and lives with
// the document model.
package csvio

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"labbudget/internal/core"
)

// Header is the full export column set, in order.
var Header = []string{
	"id", "date", "label",
	"owner", "supplier",
	"quoteNumber", "quoteDate",
	"poNumber", "poDate",
	"invoiceNumber", "invoiceDate",
	"type", "envelope", "project", "status", "amount",
}

// requiredColumns is the minimum set an import must carry.
var requiredColumns = []string{"date", "label", "type", "envelope", "status", "amount"}

// ErrMissingColumn wraps the name of a required column absent from a CSV
// header row.
type ErrMissingColumn struct{ Column string }

func (e ErrMissingColumn) Error() string {
	return fmt.Sprintf("csv import: missing required column %q", e.Column)
}

// Row renders one record in Header column order. Shared by the CSV
// export and the spreadsheet mirror.
func Row(e core.Expense) []string {
	return []string{
		e.ID, e.Date, e.Label,
		e.Owner, e.Supplier,
		e.QuoteNumber, e.QuoteDate,
		e.PONumber, e.PODate,
		e.InvoiceNumber, e.InvoiceDate,
		e.Type, string(e.Envelope), e.Project, string(e.Status),
		e.Amount.String(),
	}
}

// Export writes all records as CSV, full header included.
func Export(w io.Writer, records []core.Expense) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, e := range records {
		if err := cw.Write(Row(e)); err != nil {
			return fmt.Errorf("write record %s: %w", e.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Import reads a CSV expense table. The header row must contain at least
// date, label, type, envelope, status and amount; anything less rejects
// the whole file. Rows without an id get a fresh one, blank enum cells
// fall back to their defaults, and rows carrying neither a label nor an
// amount are dropped.
func Import(r io.Reader) ([]core.Expense, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1 // tolerate ragged rows, missing cells read as empty

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if len(rows) == 0 {
		return []core.Expense{}, nil
	}

	idx := make(map[string]int, len(rows[0]))
	for i, name := range rows[0] {
		idx[strings.TrimSpace(name)] = i
	}
	for _, col := range requiredColumns {
		if _, ok := idx[col]; !ok {
			return nil, ErrMissingColumn{Column: col}
		}
	}

	cell := func(row []string, name string) string {
		i, ok := idx[name]
		if !ok || i >= len(row) {
			return ""
		}
		return row[i]
	}

	records := make([]core.Expense, 0, len(rows)-1)
	for _, row := range rows[1:] {
		amount, err := core.ParseAmount(cell(row, "amount"))
		if err != nil {
			amount = core.Amount{}
		}
		e := core.Expense{
			ID:       cell(row, "id"),
			Date:     cell(row, "date"),
			Label:    cell(row, "label"),
			Type:     cell(row, "type"),
			Envelope: core.Envelope(cell(row, "envelope")),
			Project:  cell(row, "project"),
			Status:   core.Status(cell(row, "status")),
			Amount:   amount,
			Owner:    cell(row, "owner"),
			Supplier: cell(row, "supplier"),

			QuoteNumber:   cell(row, "quoteNumber"),
			QuoteDate:     cell(row, "quoteDate"),
			PONumber:      cell(row, "poNumber"),
			PODate:        cell(row, "poDate"),
			InvoiceNumber: cell(row, "invoiceNumber"),
			InvoiceDate:   cell(row, "invoiceDate"),
		}
		if e.ID == "" {
			e.ID = core.NewID()
		}
		if e.Type == "" {
			e.Type = core.DefaultType
		}
		if e.Envelope == "" {
			e.Envelope = core.EnvelopeFonctionnement
		}
		if e.Status == "" {
			e.Status = core.StatusVotee
		}
		if e.Label == "" && e.Amount.IsZero() {
			continue
		}
		records = append(records, e)
	}
	return records, nil
}
