package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"room_booking/internal/adapters/observability"
	"room_booking/internal/domain"
)

// Cache key prefixes. Every listing key starts with one of them so a write
// can drop all orderings and filters at once.
const (
	roomsPrefix    = "rooms:"
	bookingsPrefix = "bookings:"
)

type CommandService struct {
	repo  domain.BookingRepository
	cache *ListCache
	now   func() time.Time
}

// NewCommandService builds the write side. cache may be nil; when set it must
// be the same ListCache the QueryService reads through.
func NewCommandService(r domain.BookingRepository, cache *ListCache) *CommandService {
	return &CommandService{repo: r, cache: cache, now: func() time.Time { return time.Now().UTC() }}
}

// WithClock replaces the clock used to stamp room creation dates.
func (s *CommandService) WithClock(now func() time.Time) *CommandService {
	s.now = now
	return s
}

func (s *CommandService) CreateRoom(ctx context.Context, in RoomInput) (domain.RoomView, error) {
	room, err := ValidateRoom(in)
	if err != nil {
		return domain.RoomView{}, err
	}
	room.CreatedAt = domain.DateOf(s.now())

	if err := s.repo.CreateRoom(ctx, &room); err != nil {
		return domain.RoomView{}, fmt.Errorf("create room: %w", err)
	}
	s.cache.invalidate(ctx, roomsPrefix)

	log.Info().Int64("room_id", room.ID).Str("price", room.Price.StringFixed(domain.PriceDecimals)).Msg("room created")
	return roomView(room), nil
}

// DeleteRoom removes a room together with all of its bookings.
func (s *CommandService) DeleteRoom(ctx context.Context, id int64) error {
	if err := s.repo.DeleteRoom(ctx, id); err != nil {
		return fmt.Errorf("delete room %d: %w", id, err)
	}
	s.cache.invalidate(ctx, roomsPrefix, bookingsPrefix)
	log.Info().Int64("room_id", id).Msg("room deleted")
	return nil
}

// CreateBooking validates in and stores the booking unless it overlaps an
// existing booking of the same room.
func (s *CommandService) CreateBooking(ctx context.Context, in BookingInput) (domain.BookingView, error) {
	b, err := ValidateBooking(in)
	if err != nil {
		observability.ObserveBooking(observability.OutcomeInvalid)
		return domain.BookingView{}, err
	}

	if err := s.repo.CreateBooking(ctx, &b); err != nil {
		var overlap *domain.OverlapError
		switch {
		case errors.As(err, &overlap):
			observability.ObserveBooking(observability.OutcomeOverlap)
			log.Info().
				Int64("room_id", overlap.RoomID).
				Int64("conflict_id", overlap.ConflictID).
				Str("range", b.Range().String()).
				Msg("booking rejected: overlapping dates")
			return domain.BookingView{}, err
		case errors.Is(err, domain.ErrRoomNotFound):
			observability.ObserveBooking(observability.OutcomeReference)
			return domain.BookingView{}, &domain.ReferenceError{Field: "room_id", Value: in.RoomID}
		default:
			observability.ObserveBooking(observability.OutcomeError)
			return domain.BookingView{}, fmt.Errorf("create booking: %w", err)
		}
	}
	s.cache.invalidate(ctx, bookingsPrefix)

	observability.ObserveBooking(observability.OutcomeCreated)
	log.Info().Int64("booking_id", b.ID).Int64("room_id", b.RoomID).Str("range", b.Range().String()).Msg("booking created")
	return bookingView(b), nil
}

func (s *CommandService) DeleteBooking(ctx context.Context, id int64) error {
	if err := s.repo.DeleteBooking(ctx, id); err != nil {
		return fmt.Errorf("delete booking %d: %w", id, err)
	}
	s.cache.invalidate(ctx, bookingsPrefix)
	log.Info().Int64("booking_id", id).Msg("booking deleted")
	return nil
}
