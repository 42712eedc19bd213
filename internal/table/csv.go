package table

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
)

// ErrNoSelection rejects an export with nothing selected; the handler turns
// it into a user-facing notice instead of an empty file.
var ErrNoSelection = errors.New("no rows selected")

// ExportCSV writes the selected rows as RFC 4180 CSV: a header of column
// titles, then one record per selected row in the current filtered and
// sorted order. Only the displayed columns are exported; hidden keys stay
// out of the file regardless of what the rows contain. Nil cells become
// empty fields.
func (e *Engine[T]) ExportCSV(w io.Writer, displayed []string) error {
	columns := e.displayedColumns(displayed)
	if len(columns) == 0 {
		return errors.New("no exportable columns")
	}

	e.mu.Lock()
	rows := e.sortedLocked(e.filteredLocked())
	selected := make(map[string]struct{}, len(e.selected))
	for id := range e.selected {
		selected[id] = struct{}{}
	}
	e.mu.Unlock()

	if len(selected) == 0 {
		return ErrNoSelection
	}

	cw := csv.NewWriter(w)

	header := make([]string, len(columns))
	for i, col := range columns {
		header[i] = col.Header
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	record := make([]string, len(columns))
	for _, row := range rows {
		if _, ok := selected[e.id(row)]; !ok {
			continue
		}
		for i, col := range columns {
			record[i] = Stringify(col.value(row))
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write csv record: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// displayedColumns keeps the engine's declaration order but drops columns
// the view is not currently displaying. A nil list means all columns.
func (e *Engine[T]) displayedColumns(displayed []string) []Column[T] {
	if displayed == nil {
		return e.columns
	}
	show := make(map[string]struct{}, len(displayed))
	for _, key := range displayed {
		show[key] = struct{}{}
	}
	out := make([]Column[T], 0, len(e.columns))
	for _, col := range e.columns {
		if _, ok := show[col.Key]; ok {
			out = append(out, col)
		}
	}
	return out
}
