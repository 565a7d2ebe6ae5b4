package app

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"room_booking/internal/domain"
)

type QueryService struct {
	repo     domain.BookingRepository
	cache    *ListCache
	cacheTTL time.Duration
	group    singleflight.Group
}

func NewQueryService(r domain.BookingRepository, c *ListCache, ttl time.Duration) *QueryService {
	return &QueryService{repo: r, cache: c, cacheTTL: ttl}
}

// BookingListInput carries the raw list-bookings query parameters.
type BookingListInput struct {
	Room     string
	Ordering string
}

// ListRooms returns all rooms. ordering accepts price and created_at terms.
func (s *QueryService) ListRooms(ctx context.Context, ordering string) ([]domain.RoomView, error) {
	order := ParseOrdering(ordering, domain.OrderPrice, domain.OrderCreatedAt)
	key := roomsPrefix + "order=" + order.String()

	return readThrough(ctx, s, roomsPrefix, key, func(ctx context.Context) ([]domain.RoomView, error) {
		rooms, err := s.repo.ListRooms(ctx, order)
		if err != nil {
			return nil, err
		}
		return roomViews(rooms), nil
	})
}

// ListBookings returns bookings, optionally only those of one room. A room
// filter naming a room that does not exist is a *domain.ReferenceError.
func (s *QueryService) ListBookings(ctx context.Context, in BookingListInput) ([]domain.BookingView, error) {
	q := domain.BookingsQuery{Order: ParseOrdering(in.Ordering, domain.OrderBeginDate)}
	room := "all"

	if raw := strings.TrimSpace(in.Room); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			return nil, &domain.ReferenceError{Field: "room", Value: in.Room}
		}
		ok, err := s.repo.RoomExists(ctx, id)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, &domain.ReferenceError{Field: "room", Value: in.Room}
		}
		q.RoomID = &id
		room = strconv.FormatInt(id, 10)
	}

	key := fmt.Sprintf("%sroom=%s:order=%s", bookingsPrefix, room, q.Order.String())
	return readThrough(ctx, s, bookingsPrefix, key, func(ctx context.Context) ([]domain.BookingView, error) {
		bs, err := s.repo.ListBookings(ctx, q)
		if err != nil {
			return nil, err
		}
		return bookingViews(bs), nil
	})
}

// readThrough serves key from the cache, loading and storing it on a miss.
// Concurrent misses for the same key share one load, but only within one
// generation of prefix: a request arriving after a write starts its own.
func readThrough[T any](ctx context.Context, s *QueryService, prefix, key string, load func(context.Context) ([]T, error)) ([]T, error) {
	var cached []T
	if s.cache.get(ctx, key, &cached) && cached != nil {
		return cached, nil
	}

	gen := s.cache.generation(prefix)
	v, err, _ := s.group.Do(key+"@"+strconv.FormatUint(gen, 10), func() (any, error) {
		out, err := load(ctx)
		if err != nil {
			return nil, err
		}
		s.cache.fill(ctx, prefix, gen, key, out, s.cacheTTL)
		return out, nil
	})
	if err != nil {
		return nil, err
	}

	// callers sharing a flight must not share a backing array
	shared := v.([]T)
	out := make([]T, len(shared))
	copy(out, shared)
	return out, nil
}
