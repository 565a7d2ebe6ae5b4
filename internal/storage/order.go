// Package storage holds helpers shared by the SQL store implementations.
package storage

import (
	"strings"

	"room_booking/internal/domain"
)

// OrderBy renders an ORDER BY clause for o. columns maps orderable field names
// to column names; fields missing from it are skipped. The clause always ends
// with "id ASC" so results are deterministic.
func OrderBy(o domain.Ordering, columns map[string]string) string {
	parts := make([]string, 0, len(o)+1)
	for _, k := range o {
		col, ok := columns[k.Field]
		if !ok {
			continue
		}
		dir := " ASC"
		if k.Desc {
			dir = " DESC"
		}
		parts = append(parts, col+dir)
	}
	parts = append(parts, "id ASC")
	return " ORDER BY " + strings.Join(parts, ", ")
}
