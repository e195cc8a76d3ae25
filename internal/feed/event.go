package feed

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Kind identifies the type of row-level change carried by an event.
type Kind string

// Change kinds delivered by the feed.
const (
	KindInsert Kind = "INSERT"
	KindUpdate Kind = "UPDATE"
	KindDelete Kind = "DELETE"
)

// Row is a generic snapshot of a table row keyed by column name.
type Row map[string]any

// String returns the row value for key coerced to a string.
// Missing keys and nils yield the empty string.
func (r Row) String(key string) string {
	if r == nil {
		return ""
	}
	value, ok := r[key]
	if !ok || value == nil {
		return ""
	}
	if s, ok := value.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", value)
}

// ID returns the row's identifier column.
func (r Row) ID() string {
	return r.String("id")
}

// AsRow converts a model struct into a Row using its JSON field names,
// which match the column naming used across the schema.
func AsRow(v any) Row {
	data, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	var row Row
	if err := json.Unmarshal(data, &row); err != nil {
		return nil
	}
	return row
}

// Event is a transient, at-least-once delivered notice of a row change.
// New carries the current snapshot for inserts and updates; Old carries the
// previous snapshot for updates and deletes. Events exist only for the
// duration of callback dispatch and are never persisted.
type Event struct {
	Kind  Kind
	Table string
	New   Row
	Old   Row
}

// rowFor returns the snapshot used for filter matching and owner routing.
func (e Event) rowFor() Row {
	if e.New != nil {
		return e.New
	}
	return e.Old
}

// Filter is an equality restriction on a single column, typically the owner
// reference. The zero Filter matches every row.
type Filter struct {
	Column string
	Value  string
}

// IsZero reports whether the filter is unset.
func (f Filter) IsZero() bool {
	return strings.TrimSpace(f.Column) == ""
}

// Matches reports whether the row satisfies the filter.
func (f Filter) Matches(row Row) bool {
	if f.IsZero() {
		return true
	}
	return row.String(f.Column) == f.Value
}

// String renders the filter in "column=eq.value" form, the syntax accepted by
// the subscription API. Zero filters render as the empty string.
func (f Filter) String() string {
	if f.IsZero() {
		return ""
	}
	return fmt.Sprintf("%s=eq.%s", f.Column, f.Value)
}

// ParseFilter parses a "column=eq.value" expression.
func ParseFilter(expr string) (Filter, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return Filter{}, nil
	}

	column, rest, found := strings.Cut(expr, "=")
	if !found || !strings.HasPrefix(rest, "eq.") {
		return Filter{}, fmt.Errorf("feed: invalid filter expression %q", expr)
	}

	column = strings.TrimSpace(column)
	value := strings.TrimPrefix(rest, "eq.")
	if column == "" {
		return Filter{}, fmt.Errorf("feed: invalid filter expression %q", expr)
	}

	return Filter{Column: column, Value: value}, nil
}
