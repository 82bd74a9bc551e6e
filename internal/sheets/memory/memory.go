// Package memory is an in-process TableExporter used by tests and by the
// worker when no spreadsheet is configured.
package memory

import (
	"context"
	"sync"

	"labbudget/internal/sheets"
)

type Exporter struct {
	mu     sync.Mutex
	header []string
	rows   [][]string
	count  int
}

var _ sheets.TableExporter = (*Exporter)(nil)

func New() *Exporter {
	return &Exporter{}
}

func (e *Exporter) ExportTable(ctx context.Context, header []string, rows [][]string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.header = append([]string(nil), header...)
	e.rows = make([][]string, len(rows))
	for i, row := range rows {
		e.rows[i] = append([]string(nil), row...)
	}
	e.count++
	return nil
}

// Snapshot returns the last exported table and how many exports happened.
func (e *Exporter) Snapshot() (header []string, rows [][]string, exports int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.header, e.rows, e.count
}
