package feed

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// NewTableFetcher returns a FetchFunc performing the authoritative read for
// the table, optionally restricted by scope and ordered by creation time
// descending. Reading the table again on every event keeps local state
// aligned with server-side computed fields at the cost of one extra round
// trip per event.
func NewTableFetcher(db *gorm.DB, table string, scope Filter) FetchFunc {
	return func(ctx context.Context) ([]Row, error) {
		var records []map[string]any
		query := db.WithContext(ctx).Table(table).Order("created_at DESC")
		if !scope.IsZero() {
			query = query.Where(fmt.Sprintf("%s = ?", scope.Column), scope.Value)
		}
		if err := query.Find(&records).Error; err != nil {
			return nil, err
		}

		rows := make([]Row, len(records))
		for i, record := range records {
			rows[i] = Row(record)
		}
		return rows, nil
	}
}
