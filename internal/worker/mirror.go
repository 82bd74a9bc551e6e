// Package worker mirrors saved budget documents to an external
// spreadsheet and logs the current reminder digest.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"labbudget/internal/amqp"
	"labbudget/internal/core"
	"labbudget/internal/csvio"
	"labbudget/internal/reminders"
	"labbudget/internal/sheets"
	"labbudget/internal/storage"
)

// MirrorWorker reacts to document-saved events. The document is one
// blob, so every event triggers a wholesale re-export; replaying events
// is harmless.
type MirrorWorker struct {
	docs     *storage.DocumentStore
	exporter sheets.TableExporter
	clock    func() time.Time
}

func NewMirrorWorker(docs *storage.DocumentStore, exporter sheets.TableExporter) *MirrorWorker {
	return &MirrorWorker{
		docs:     docs,
		exporter: exporter,
		clock:    time.Now,
	}
}

// HandleDocumentSaved re-exports the current document and logs the
// reminder digest.
func (w *MirrorWorker) HandleDocumentSaved(ctx context.Context, msg *amqp.DocumentSavedMessage) error {
	slog.InfoContext(ctx, "Processing document saved event",
		"key", msg.Key,
		"saved_by", msg.SavedBy)

	doc, err := w.docs.Load(ctx)
	if err != nil {
		return fmt.Errorf("load document: %w", err)
	}

	if w.exporter != nil {
		rows := make([][]string, 0, len(doc.Expenses))
		for _, e := range doc.Expenses {
			rows = append(rows, csvio.Row(e))
		}
		if err := w.exporter.ExportTable(ctx, csvio.Header, rows); err != nil {
			return fmt.Errorf("export table: %w", err)
		}
	}

	w.logReminderDigest(ctx, doc)
	return nil
}

func (w *MirrorWorker) logReminderDigest(ctx context.Context, doc core.Document) {
	flagged := reminders.Scan(w.clock(), doc.Expenses)
	if len(flagged) == 0 {
		slog.InfoContext(ctx, "No stalled workflow entries")
		return
	}
	for _, r := range flagged {
		args := []any{"expense_id", r.ExpenseID, "label", r.Label, "flag", r.Flag}
		if r.AgeDays != nil {
			args = append(args, "age_days", *r.AgeDays)
		}
		slog.WarnContext(ctx, "Stalled workflow entry", args...)
	}
}
