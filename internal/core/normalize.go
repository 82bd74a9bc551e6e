package core

import (
	"bytes"
	"encoding/json"
)

// rawDocument is the loose shape used at the document boundary. Older
// documents may miss fields entirely or carry an expenses value that is
// not a list; decoding must not fail on them.
type rawDocument struct {
	Budgets  *Budgets        `json:"budgets"`
	Expenses json.RawMessage `json:"expenses"`
}

// DecodeDocument parses stored JSON into a fully normalized Document.
// It is the single normalization step applied at every boundary: missing
// budgets default to zero, a missing or non-list expenses field becomes an
// empty list, and each record is back-filled by Normalize.
func DecodeDocument(data []byte) (Document, error) {
	var raw rawDocument
	if err := json.Unmarshal(data, &raw); err != nil {
		return Document{}, err
	}

	doc := EmptyDocument()
	if raw.Budgets != nil {
		doc.Budgets = *raw.Budgets
	}
	if isJSONArray(raw.Expenses) {
		var expenses []Expense
		if err := json.Unmarshal(raw.Expenses, &expenses); err == nil {
			doc.Expenses = expenses
		}
	}
	Normalize(&doc)
	return doc, nil
}

// Normalize back-fills a document in place so records loaded from older
// snapshots remain structurally compatible: blank identifiers are
// regenerated, the type defaults to Autre, and the optional workflow
// fields are guaranteed present (empty strings survive JSON round-trips
// unchanged, so nothing further is needed for them).
func Normalize(doc *Document) {
	if doc.Expenses == nil {
		doc.Expenses = []Expense{}
	}
	for i := range doc.Expenses {
		e := &doc.Expenses[i]
		if e.ID == "" {
			e.ID = NewID()
		}
		if e.Type == "" {
			e.Type = DefaultType
		}
	}
}

// HasExpenseList reports whether the payload is a JSON object whose
// expenses field is a list. Writes with any other shape are rejected
// before persistence.
func HasExpenseList(body []byte) bool {
	var raw rawDocument
	if err := json.Unmarshal(body, &raw); err != nil {
		return false
	}
	return isJSONArray(raw.Expenses)
}

func isJSONArray(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '['
}
