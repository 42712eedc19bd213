package table

import "context"

// Column declares one displayed column. Key doubles as the dot path used
// for filtering and sorting when Cell is nil; a non-nil Cell overrides how
// the value is produced but the Key path still drives sorting.
type Column[T any] struct {
	Key      string
	Header   string
	Cell     func(row T) any
	Sortable bool
}

// Option is one dropdown choice.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// DropdownFilter declares one structured filter over a dot path. Options
// may be fixed or fed live by an OptionsSource (company pickers re-populate
// as companies change). Multiple selects OR the chosen values together.
type DropdownFilter[T any] struct {
	Key           string
	Placeholder   string
	Options       []Option
	OptionsSource func(ctx context.Context) <-chan []Option
	Multiple      bool
	Searchable    bool
}

func (c Column[T]) value(row T) any {
	if c.Cell != nil {
		return c.Cell(row)
	}
	return ResolvePath(row, c.Key)
}

// sortValue always resolves the Key path, so a formatted Cell does not
// change sort order.
func (c Column[T]) sortValue(row T) any {
	return ResolvePath(row, c.Key)
}
