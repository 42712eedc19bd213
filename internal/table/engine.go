package table

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

// SortDirection cycles asc -> desc -> none on repeated header clicks.
type SortDirection int

const (
	SortNone SortDirection = iota
	SortAsc
	SortDesc
)

func (d SortDirection) String() string {
	switch d {
	case SortAsc:
		return "asc"
	case SortDesc:
		return "desc"
	default:
		return "none"
	}
}

// DefaultPageSize applies when a view is created without an explicit size.
const DefaultPageSize = 25

// Engine holds the full view state for one table: the latest data snapshot,
// the text query, dropdown selections, sort, page and selection. All methods
// are safe for concurrent use; commands and data snapshots arrive from
// different goroutines.
type Engine[T any] struct {
	mu       sync.Mutex
	columns  []Column[T]
	filters  []DropdownFilter[T]
	id       func(row T) string
	pageSize int

	data     []T
	query    string
	selected map[string]struct{}
	chosen   map[string][]string
	options  map[string][]Option
	sortKey  string
	sortDir  SortDirection
	page     int

	// signature of the last filtered id set, to detect when paging must
	// snap back to the first page
	filteredSig string
}

// PageState is one rendered page plus the view metadata the client needs.
type PageState[T any] struct {
	Rows        []T           `json:"rows"`
	Page        int           `json:"page"`
	PageCount   int           `json:"pageCount"`
	PageSize    int           `json:"pageSize"`
	Total       int           `json:"total"`
	Query       string        `json:"query"`
	SortKey     string        `json:"sortKey"`
	SortDir     SortDirection `json:"sortDir"`
	Selected    int           `json:"selected"`
	AllSelected bool          `json:"allSelected"`
}

// NewEngine builds an engine over the given column and filter declarations.
// id extracts the stable row identity selection is keyed by.
func NewEngine[T any](columns []Column[T], filters []DropdownFilter[T], id func(row T) string, pageSize int) *Engine[T] {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Engine[T]{
		columns:  columns,
		filters:  filters,
		id:       id,
		pageSize: pageSize,
		selected: make(map[string]struct{}),
		chosen:   make(map[string][]string),
		options:  make(map[string][]Option),
	}
}

// Columns returns the column declarations in display order.
func (e *Engine[T]) Columns() []Column[T] {
	return e.columns
}

// Filters returns the dropdown declarations.
func (e *Engine[T]) Filters() []DropdownFilter[T] {
	return e.filters
}

// SetData replaces the data snapshot. Selection is retained by id, dropped
// for rows that no longer exist. Paging snaps to the first page only when
// the filtered set actually changed.
func (e *Engine[T]) SetData(rows []T) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.data = rows

	present := make(map[string]struct{}, len(rows))
	for _, row := range rows {
		present[e.id(row)] = struct{}{}
	}
	for id := range e.selected {
		if _, ok := present[id]; !ok {
			delete(e.selected, id)
		}
	}

	e.refreshPaging()
}

// SetQuery replaces the free-text query and snaps to the first page when
// the filtered set changes.
func (e *Engine[T]) SetQuery(query string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.query = strings.TrimSpace(query)
	e.refreshPaging()
}

// SetFilter replaces the chosen values of one dropdown. An empty list
// clears the constraint.
func (e *Engine[T]) SetFilter(key string, values []string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(values) == 0 {
		delete(e.chosen, key)
	} else {
		e.chosen[key] = values
	}
	e.refreshPaging()
}

// ToggleSort advances the sort cycle for a column: a new column starts
// ascending, a repeated click flips to descending, a third clears the sort.
// Non-sortable columns are ignored. Sorting never moves the page.
func (e *Engine[T]) ToggleSort(key string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	var col *Column[T]
	for i := range e.columns {
		if e.columns[i].Key == key {
			col = &e.columns[i]
			break
		}
	}
	if col == nil || !col.Sortable {
		return
	}

	if e.sortKey != key {
		e.sortKey = key
		e.sortDir = SortAsc
		return
	}
	switch e.sortDir {
	case SortAsc:
		e.sortDir = SortDesc
	case SortDesc:
		e.sortKey = ""
		e.sortDir = SortNone
	default:
		e.sortDir = SortAsc
	}
}

// SetPage moves to the requested page, clamped to the available range.
func (e *Engine[T]) SetPage(page int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.page = clampPage(page, len(e.filteredLocked()), e.pageSize)
}

// ToggleSelect flips the selection state of one row id. Unknown ids are
// ignored so a stale click cannot select a vanished row.
func (e *Engine[T]) ToggleSelect(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	known := false
	for _, row := range e.data {
		if e.id(row) == id {
			known = true
			break
		}
	}
	if !known {
		return
	}

	if _, ok := e.selected[id]; ok {
		delete(e.selected, id)
	} else {
		e.selected[id] = struct{}{}
	}
}

// SelectAllFiltered selects every row matching the current filters. When
// all of them are already selected it deselects them instead, giving the
// header checkbox its usual toggle behavior. Rows outside the filtered set
// keep their selection state either way.
func (e *Engine[T]) SelectAllFiltered() {
	e.mu.Lock()
	defer e.mu.Unlock()

	filtered := e.filteredLocked()
	if e.allSelectedLocked(filtered) {
		for _, row := range filtered {
			delete(e.selected, e.id(row))
		}
		return
	}
	for _, row := range filtered {
		e.selected[e.id(row)] = struct{}{}
	}
}

// ClearSelection drops every selected id.
func (e *Engine[T]) ClearSelection() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.selected = make(map[string]struct{})
}

// SelectedIDs returns the selected ids in no particular order.
func (e *Engine[T]) SelectedIDs() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]string, 0, len(e.selected))
	for id := range e.selected {
		out = append(out, id)
	}
	return out
}

// AllSelected reports whether every row in the (non-empty) filtered set is
// selected.
func (e *Engine[T]) AllSelected() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.allSelectedLocked(e.filteredLocked())
}

// Rows returns the complete filtered and sorted set.
func (e *Engine[T]) Rows() []T {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sortedLocked(e.filteredLocked())
}

// Page returns the current page and the view metadata around it.
func (e *Engine[T]) Page() PageState[T] {
	e.mu.Lock()
	defer e.mu.Unlock()

	filtered := e.sortedLocked(e.filteredLocked())
	total := len(filtered)
	pageCount := (total + e.pageSize - 1) / e.pageSize
	if pageCount == 0 {
		pageCount = 1
	}
	page := clampPage(e.page, total, e.pageSize)

	start := page * e.pageSize
	end := start + e.pageSize
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}

	return PageState[T]{
		Rows:        filtered[start:end],
		Page:        page,
		PageCount:   pageCount,
		PageSize:    e.pageSize,
		Total:       total,
		Query:       e.query,
		SortKey:     e.sortKey,
		SortDir:     e.sortDir,
		Selected:    len(e.selected),
		AllSelected: e.allSelectedLocked(filtered),
	}
}

// Options returns the current choices of one dropdown: the live set when an
// OptionsSource has delivered, the static declaration otherwise.
func (e *Engine[T]) Options(key string) []Option {
	e.mu.Lock()
	defer e.mu.Unlock()
	if opts, ok := e.options[key]; ok {
		return opts
	}
	for _, f := range e.filters {
		if f.Key == key {
			return f.Options
		}
	}
	return nil
}

// WatchOptions starts one goroutine per live-sourced dropdown, replacing
// its options as the source emits. Watchers stop when ctx is cancelled.
func (e *Engine[T]) WatchOptions(ctx context.Context) {
	for _, f := range e.filters {
		if f.OptionsSource == nil {
			continue
		}
		key := f.Key
		updates := f.OptionsSource(ctx)
		go func() {
			for opts := range updates {
				e.mu.Lock()
				e.options[key] = opts
				e.mu.Unlock()
			}
		}()
	}
}

// filteredLocked applies the text query and every dropdown constraint,
// ANDed together. Callers hold e.mu.
func (e *Engine[T]) filteredLocked() []T {
	query := strings.ToLower(e.query)

	out := make([]T, 0, len(e.data))
rows:
	for _, row := range e.data {
		for key, values := range e.chosen {
			cell := Stringify(ResolvePath(row, key))
			matched := false
			for _, v := range values {
				if cell == v {
					matched = true
					break
				}
			}
			if !matched {
				continue rows
			}
		}

		if query != "" && !e.matchesQueryLocked(row, query) {
			continue
		}

		out = append(out, row)
	}
	return out
}

// matchesQueryLocked matches the text query against every column's displayed
// value, case-insensitively.
func (e *Engine[T]) matchesQueryLocked(row T, query string) bool {
	for _, col := range e.columns {
		cell := strings.ToLower(Stringify(col.value(row)))
		if strings.Contains(cell, query) {
			return true
		}
	}
	return false
}

func (e *Engine[T]) sortedLocked(rows []T) []T {
	if e.sortDir == SortNone || e.sortKey == "" {
		return rows
	}

	var col *Column[T]
	for i := range e.columns {
		if e.columns[i].Key == e.sortKey {
			col = &e.columns[i]
			break
		}
	}
	if col == nil {
		return rows
	}

	out := make([]T, len(rows))
	copy(out, rows)
	asc := e.sortDir == SortAsc
	sort.SliceStable(out, func(i, j int) bool {
		less := compareValues(col.sortValue(out[i]), col.sortValue(out[j])) < 0
		if asc {
			return less
		}
		return compareValues(col.sortValue(out[j]), col.sortValue(out[i])) < 0
	})
	return out
}

// refreshPaging recomputes the filtered-set signature and snaps to the
// first page when it changed. Callers hold e.mu.
func (e *Engine[T]) refreshPaging() {
	filtered := e.filteredLocked()

	var sig strings.Builder
	for _, row := range filtered {
		sig.WriteString(e.id(row))
		sig.WriteByte('\x1f')
	}

	if s := sig.String(); s != e.filteredSig {
		e.filteredSig = s
		e.page = 0
	}
}

func (e *Engine[T]) allSelectedLocked(filtered []T) bool {
	if len(filtered) == 0 {
		return false
	}
	for _, row := range filtered {
		if _, ok := e.selected[e.id(row)]; !ok {
			return false
		}
	}
	return true
}

func clampPage(page, total, pageSize int) int {
	if page < 0 {
		return 0
	}
	last := 0
	if total > 0 {
		last = (total - 1) / pageSize
	}
	if page > last {
		return last
	}
	return page
}

// compareValues orders two resolved cell values: numerically when both
// sides are numbers (or numeric strings), chronologically for times,
// case-insensitive lexicographically otherwise. Nil sorts first.
func compareValues(a, b any) int {
	if a == nil && b == nil {
		return 0
	}
	if a == nil {
		return -1
	}
	if b == nil {
		return 1
	}

	if at, aok := asTime(a); aok {
		if bt, bok := asTime(b); bok {
			switch {
			case at.Before(bt):
				return -1
			case at.After(bt):
				return 1
			default:
				return 0
			}
		}
	}

	if af, aok := asFloat(a); aok {
		if bf, bok := asFloat(b); bok {
			switch {
			case af < bf:
				return -1
			case af > bf:
				return 1
			default:
				return 0
			}
		}
	}

	return strings.Compare(strings.ToLower(Stringify(a)), strings.ToLower(Stringify(b)))
}

func asTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case *time.Time:
		if t == nil {
			return time.Time{}, false
		}
		return *t, true
	default:
		return time.Time{}, false
	}
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	default:
		return 0, false
	}
}
