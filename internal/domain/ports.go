package domain

import "context"

type BookingRepository interface {
	// Write paths
	CreateRoom(ctx context.Context, r *Room) error
	DeleteRoom(ctx context.Context, id int64) error
	// CreateBooking runs the overlap check and the insert as one atomic unit.
	CreateBooking(ctx context.Context, b *Booking) error
	DeleteBooking(ctx context.Context, id int64) error

	// Read paths
	ListRooms(ctx context.Context, order Ordering) ([]Room, error)
	RoomExists(ctx context.Context, id int64) (bool, error)
	ListBookings(ctx context.Context, q BookingsQuery) ([]Booking, error)

	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
	DelPrefix(ctx context.Context, prefix string) error
}

// BookingsQuery filters and orders a booking listing. A nil RoomID lists all rooms.
type BookingsQuery struct {
	RoomID *int64
	Order  Ordering
}

// Read models

type RoomView struct {
	ID          int64  `json:"id"`
	Description string `json:"description"`
	Price       string `json:"price"`
	CreatedAt   string `json:"created_at"`
}

type BookingView struct {
	ID        int64  `json:"id"`
	BeginDate string `json:"begin_date"`
	EndDate   string `json:"end_date"`
	RoomID    int64  `json:"room_id"`
}
