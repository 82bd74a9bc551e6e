package sheets

import "context"

// TableExporter mirrors the expense table to an external spreadsheet.
// The document is a single blob, so exports are wholesale: the previous
// table content is replaced entirely on every call.
type TableExporter interface {
	ExportTable(ctx context.Context, header []string, rows [][]string) error
}
