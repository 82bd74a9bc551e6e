package http

import (
	"log/slog"
	"net/http"
	"time"

	"labbudget/internal/core"
	"labbudget/internal/reminders"
	"labbudget/internal/views"
)

type summaryResponse struct {
	Budgets          core.Budgets                  `json:"budgets"`
	Total            core.Amount                   `json:"total"`
	TotalsByStatus   map[core.Status]core.Amount   `json:"totalsByStatus"`
	TotalsByEnvelope map[core.Envelope]core.Amount `json:"totalsByEnvelope"`
	Remaining        map[core.Envelope]core.Amount `json:"remaining"`
	TopProjects      []views.KeyTotal              `json:"topProjects"`
	TopOwners        []views.KeyTotal              `json:"topOwners"`
	TotalsByType     []views.KeyTotal              `json:"totalsByType"`
	Monthly          []views.MonthTotal            `json:"monthly"`
	Reminders        []reminders.Reminder          `json:"reminders"`
}

// handleSummary returns the derived views over the current dataset in a
// single response, so dashboards need one round trip.
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.authenticate(w, r); !ok {
		return
	}
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w, r.Method)
		return
	}

	doc, err := s.docs.Load(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to load document", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to load data")
		return
	}

	records := views.Filter(doc.Expenses, views.Query{
		Text:     r.URL.Query().Get("q"),
		Owner:    r.URL.Query().Get("owner"),
		Status:   core.Status(r.URL.Query().Get("status")),
		Envelope: core.Envelope(r.URL.Query().Get("envelope")),
		Type:     r.URL.Query().Get("type"),
	})

	writeJSON(w, http.StatusOK, summaryResponse{
		Budgets:          doc.Budgets,
		Total:            views.Total(records),
		TotalsByStatus:   views.TotalsByStatus(records),
		TotalsByEnvelope: views.TotalsByEnvelope(records),
		Remaining:        views.Remaining(doc.Budgets, records),
		TopProjects:      views.TotalsByProject(records),
		TopOwners:        views.TotalsByOwner(records),
		TotalsByType:     views.TotalsByType(records),
		Monthly:          views.MonthlySeries(records),
		Reminders:        reminders.Scan(time.Now(), records),
	})
}
