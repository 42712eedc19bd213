package table

import (
	"reflect"
	"testing"
)

type orderRow struct {
	ID      string  `json:"id"`
	Partner string  `json:"partner"`
	Status  string  `json:"status"`
	Total   float64 `json:"total"`
}

func orderColumns() []Column[orderRow] {
	return []Column[orderRow]{
		{Key: "partner", Header: "Partner", Sortable: true},
		{Key: "status", Header: "Status"},
		{Key: "total", Header: "Total", Sortable: true},
	}
}

func orderFilters() []DropdownFilter[orderRow] {
	return []DropdownFilter[orderRow]{
		{Key: "status", Placeholder: "Status", Options: []Option{
			{Value: "DRAFT", Label: "Draft"},
			{Value: "FINALIZED", Label: "Finalized"},
			{Value: "CANCELLED", Label: "Cancelled"},
		}},
	}
}

func orderEngine(pageSize int) *Engine[orderRow] {
	return NewEngine(orderColumns(), orderFilters(), func(r orderRow) string { return r.ID }, pageSize)
}

func sampleOrders() []orderRow {
	return []orderRow{
		{ID: "1", Partner: "Beachcomber", Status: "DRAFT", Total: 150},
		{ID: "2", Partner: "Sunways", Status: "FINALIZED", Total: 90},
		{ID: "3", Partner: "Beachcomber", Status: "FINALIZED", Total: 420},
		{ID: "4", Partner: "Attitude", Status: "CANCELLED", Total: 10},
		{ID: "5", Partner: "Sunways", Status: "DRAFT", Total: 300},
	}
}

func ids(rows []orderRow) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.ID
	}
	return out
}

func TestTextQueryMatchesAnyColumn(t *testing.T) {
	e := orderEngine(10)
	e.SetData(sampleOrders())

	e.SetQuery("beach")
	if got := ids(e.Rows()); !reflect.DeepEqual(got, []string{"1", "3"}) {
		t.Errorf("Expected rows 1,3 got %v", got)
	}

	// Matches the status column too, case-insensitively
	e.SetQuery("CANCEL")
	if got := ids(e.Rows()); !reflect.DeepEqual(got, []string{"4"}) {
		t.Errorf("Expected row 4, got %v", got)
	}
}

func TestTextAndDropdownCompose(t *testing.T) {
	e := orderEngine(10)
	e.SetData(sampleOrders())

	e.SetFilter("status", []string{"FINALIZED"})
	e.SetQuery("beachcomber")

	if got := ids(e.Rows()); !reflect.DeepEqual(got, []string{"3"}) {
		t.Errorf("Expected the finalized Beachcomber order only, got %v", got)
	}
}

func TestDropdownMultipleValuesOr(t *testing.T) {
	e := orderEngine(10)
	e.SetData(sampleOrders())

	e.SetFilter("status", []string{"DRAFT", "CANCELLED"})
	if got := ids(e.Rows()); !reflect.DeepEqual(got, []string{"1", "4", "5"}) {
		t.Errorf("Expected 1,4,5 got %v", got)
	}

	// Clearing removes the constraint
	e.SetFilter("status", nil)
	if got := len(e.Rows()); got != 5 {
		t.Errorf("Expected all 5 rows after clear, got %d", got)
	}
}

func TestSortCycle(t *testing.T) {
	e := orderEngine(10)
	e.SetData(sampleOrders())

	e.ToggleSort("total")
	if got := ids(e.Rows()); !reflect.DeepEqual(got, []string{"4", "2", "1", "5", "3"}) {
		t.Errorf("Ascending: got %v", got)
	}

	e.ToggleSort("total")
	if got := ids(e.Rows()); !reflect.DeepEqual(got, []string{"3", "5", "1", "2", "4"}) {
		t.Errorf("Descending: got %v", got)
	}

	// Third click restores the natural order
	e.ToggleSort("total")
	if got := ids(e.Rows()); !reflect.DeepEqual(got, []string{"1", "2", "3", "4", "5"}) {
		t.Errorf("Cleared: got %v", got)
	}
}

func TestSortSwitchingColumnStartsAscending(t *testing.T) {
	e := orderEngine(10)
	e.SetData(sampleOrders())

	e.ToggleSort("total")
	e.ToggleSort("partner")

	state := e.Page()
	if state.SortKey != "partner" || state.SortDir != SortAsc {
		t.Errorf("Expected partner asc, got %s %v", state.SortKey, state.SortDir)
	}
	if got := ids(e.Rows())[0]; got != "4" {
		t.Errorf("Expected Attitude first, got row %s", got)
	}
}

func TestNonSortableColumnIgnored(t *testing.T) {
	e := orderEngine(10)
	e.SetData(sampleOrders())

	e.ToggleSort("status")
	if state := e.Page(); state.SortKey != "" || state.SortDir != SortNone {
		t.Errorf("Expected no sort, got %s %v", state.SortKey, state.SortDir)
	}
}

func TestFilterChangeResetsPageSortDoesNot(t *testing.T) {
	e := orderEngine(2)
	e.SetData(sampleOrders())

	e.SetPage(2)
	if e.Page().Page != 2 {
		t.Fatalf("Expected page 2, got %d", e.Page().Page)
	}

	// Sorting keeps the page
	e.ToggleSort("total")
	if e.Page().Page != 2 {
		t.Errorf("Sort moved the page to %d", e.Page().Page)
	}

	// A narrowing query snaps back to the first page
	e.SetQuery("sunways")
	if e.Page().Page != 0 {
		t.Errorf("Query did not reset the page, got %d", e.Page().Page)
	}

	e.SetQuery("")
	e.SetPage(1)
	e.SetFilter("status", []string{"DRAFT"})
	if e.Page().Page != 0 {
		t.Errorf("Filter did not reset the page, got %d", e.Page().Page)
	}
}

func TestUnchangedFilterKeepsPage(t *testing.T) {
	e := orderEngine(2)
	e.SetData(sampleOrders())

	e.SetPage(1)
	e.SetQuery("") // same filtered set
	if e.Page().Page != 1 {
		t.Errorf("No-op query reset the page to %d", e.Page().Page)
	}
}

func TestPageClamping(t *testing.T) {
	e := orderEngine(2)
	e.SetData(sampleOrders())

	e.SetPage(99)
	state := e.Page()
	if state.Page != 2 || state.PageCount != 3 {
		t.Errorf("Expected clamp to last page 2 of 3, got %d of %d", state.Page, state.PageCount)
	}

	e.SetPage(-5)
	if e.Page().Page != 0 {
		t.Errorf("Expected clamp to 0, got %d", e.Page().Page)
	}
}

func TestSelectionRetainedAcrossSnapshots(t *testing.T) {
	e := orderEngine(10)
	e.SetData(sampleOrders())

	e.ToggleSelect("2")
	e.ToggleSelect("4")

	// Row 4 disappears in the next snapshot; row 2 survives
	e.SetData(sampleOrders()[:3])

	selected := e.SelectedIDs()
	if len(selected) != 1 || selected[0] != "2" {
		t.Errorf("Expected selection {2}, got %v", selected)
	}
}

func TestToggleSelectUnknownIDIgnored(t *testing.T) {
	e := orderEngine(10)
	e.SetData(sampleOrders())

	e.ToggleSelect("ghost")
	if got := e.SelectedIDs(); len(got) != 0 {
		t.Errorf("Expected empty selection, got %v", got)
	}
}

func TestSelectAllScopedToFilteredSet(t *testing.T) {
	e := orderEngine(10)
	e.SetData(sampleOrders())

	e.SetFilter("status", []string{"FINALIZED"})
	e.SelectAllFiltered()

	selected := e.SelectedIDs()
	if len(selected) != 2 {
		t.Fatalf("Expected 2 selected, got %v", selected)
	}
	if !e.AllSelected() {
		t.Error("Expected AllSelected for the filtered set")
	}

	// Widening the filter makes the selection partial again
	e.SetFilter("status", nil)
	if e.AllSelected() {
		t.Error("AllSelected should be false against the full set")
	}

	// Re-applying against an already fully selected set deselects
	e.SetFilter("status", []string{"FINALIZED"})
	e.SelectAllFiltered()
	if got := e.SelectedIDs(); len(got) != 0 {
		t.Errorf("Expected toggle-off to clear, got %v", got)
	}
}

func TestAllSelectedEmptySetFalse(t *testing.T) {
	e := orderEngine(10)
	e.SetData(nil)
	if e.AllSelected() {
		t.Error("AllSelected must be false with no rows")
	}
}

func TestPageStateCounts(t *testing.T) {
	e := orderEngine(2)
	e.SetData(sampleOrders())
	e.ToggleSelect("1")

	state := e.Page()
	if state.Total != 5 || state.PageCount != 3 || state.Selected != 1 {
		t.Errorf("Unexpected state: total=%d pages=%d selected=%d", state.Total, state.PageCount, state.Selected)
	}
	if len(state.Rows) != 2 {
		t.Errorf("Expected 2 rows on the page, got %d", len(state.Rows))
	}
}
