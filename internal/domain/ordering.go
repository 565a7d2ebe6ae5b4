package domain

import "strings"

// Orderable fields.
const (
	OrderPrice     = "price"
	OrderCreatedAt = "created_at"
	OrderBeginDate = "begin_date"
)

// OrderKey is one term of a list ordering.
type OrderKey struct {
	Field string
	Desc  bool
}

func (k OrderKey) String() string {
	if k.Desc {
		return "-" + k.Field
	}
	return k.Field
}

// Ordering is an ordered list of keys; earlier keys take precedence. Ties
// left after the last key are broken by id ascending.
type Ordering []OrderKey

// String renders the ordering in its query-parameter form, e.g. "-price,created_at".
func (o Ordering) String() string {
	parts := make([]string, len(o))
	for i, k := range o {
		parts[i] = k.String()
	}
	return strings.Join(parts, ",")
}
