package app

import "room_booking/internal/domain"

func roomView(r domain.Room) domain.RoomView {
	return domain.RoomView{
		ID:          r.ID,
		Description: r.Description,
		Price:       r.Price.StringFixed(domain.PriceDecimals),
		CreatedAt:   r.CreatedAt.String(),
	}
}

func bookingView(b domain.Booking) domain.BookingView {
	return domain.BookingView{
		ID:        b.ID,
		BeginDate: b.BeginDate.String(),
		EndDate:   b.EndDate.String(),
		RoomID:    b.RoomID,
	}
}

// roomViews maps rooms to their wire form. The result is never nil.
func roomViews(in []domain.Room) []domain.RoomView {
	out := make([]domain.RoomView, 0, len(in))
	for _, r := range in {
		out = append(out, roomView(r))
	}
	return out
}

// bookingViews maps bookings to their wire form. The result is never nil.
func bookingViews(in []domain.Booking) []domain.BookingView {
	out := make([]domain.BookingView, 0, len(in))
	for _, b := range in {
		out = append(out, bookingView(b))
	}
	return out
}
