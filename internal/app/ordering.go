package app

import (
	"slices"
	"strings"

	"room_booking/internal/domain"
)

// ParseOrdering reads a comma-separated ordering parameter such as
// "-price,created_at". Terms naming a field outside allowed are ignored, as
// are repeats of a field already seen.
func ParseOrdering(raw string, allowed ...string) domain.Ordering {
	var out domain.Ordering
	seen := map[string]bool{}
	for _, term := range strings.Split(raw, ",") {
		term = strings.TrimSpace(term)
		desc := strings.HasPrefix(term, "-")
		field := strings.TrimPrefix(term, "-")
		if field == "" || !slices.Contains(allowed, field) || seen[field] {
			continue
		}
		seen[field] = true
		out = append(out, domain.OrderKey{Field: field, Desc: desc})
	}
	return out
}
