package storage_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"room_booking/internal/domain"
	"room_booking/internal/storage"
)

func TestOrderBy(t *testing.T) {
	cols := map[string]string{domain.OrderPrice: "price_cents", domain.OrderCreatedAt: "created_at"}

	assert.Equal(t, " ORDER BY id ASC", storage.OrderBy(nil, cols))
	assert.Equal(t, " ORDER BY price_cents DESC, created_at ASC, id ASC", storage.OrderBy(domain.Ordering{
		{Field: domain.OrderPrice, Desc: true},
		{Field: domain.OrderCreatedAt},
	}, cols))
	assert.Equal(t, " ORDER BY id ASC", storage.OrderBy(domain.Ordering{{Field: "id; DROP TABLE rooms"}}, cols))
}
