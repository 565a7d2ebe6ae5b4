package domain

// Booking reserves a room for the closed date range [BeginDate, EndDate].
type Booking struct {
	ID        int64
	BeginDate Date
	EndDate   Date
	RoomID    int64
}

func (b Booking) Range() DateRange { return DateRange{Begin: b.BeginDate, End: b.EndDate} }

// FindConflict returns the first booking in existing whose range overlaps
// candidate. Only bookings of candidate's room are considered.
func FindConflict(candidate Booking, existing []Booking) (Booking, bool) {
	want := candidate.Range()
	for _, b := range existing {
		if b.RoomID != candidate.RoomID {
			continue
		}
		if want.Overlaps(b.Range()) {
			return b, true
		}
	}
	return Booking{}, false
}
