package sqlite

// Prices are kept as integer cents so ordering and comparisons are exact.
var schema = []string{
	`
CREATE TABLE IF NOT EXISTS rooms (
  id          INTEGER PRIMARY KEY AUTOINCREMENT,
  description TEXT    NOT NULL CHECK (length(description) BETWEEN 5 AND 200),
  price_cents INTEGER NOT NULL CHECK (price_cents BETWEEN 100 AND 999999999),
  created_at  DATE    NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS idx_rooms_price ON rooms (price_cents)`,
	`CREATE INDEX IF NOT EXISTS idx_rooms_created_at ON rooms (created_at)`,
	`
CREATE TABLE IF NOT EXISTS bookings (
  id         INTEGER PRIMARY KEY AUTOINCREMENT,
  room_id    INTEGER NOT NULL REFERENCES rooms (id) ON DELETE CASCADE,
  begin_date DATE    NOT NULL,
  end_date   DATE    NOT NULL,
  CHECK (begin_date <= end_date)
)`,
	`CREATE INDEX IF NOT EXISTS idx_bookings_room_dates ON bookings (room_id, begin_date, end_date)`,
	`CREATE INDEX IF NOT EXISTS idx_bookings_begin_date ON bookings (begin_date)`,
}

const insertRoomSQL = `INSERT INTO rooms (description, price_cents, created_at) VALUES (?, ?, ?)`

const deleteRoomBookingsSQL = `DELETE FROM bookings WHERE room_id = ?`

const deleteRoomSQL = `DELETE FROM rooms WHERE id = ?`

const roomExistsSQL = `SELECT EXISTS(SELECT 1 FROM rooms WHERE id = ?)`

// args: room_id, end, begin
const overlappingBookingsSQL = `
SELECT id, room_id, begin_date, end_date
FROM bookings
WHERE room_id = ? AND begin_date <= ? AND end_date >= ?
ORDER BY begin_date, id`

const insertBookingSQL = `INSERT INTO bookings (room_id, begin_date, end_date) VALUES (?, ?, ?)`

const deleteBookingSQL = `DELETE FROM bookings WHERE id = ?`

const listRoomsSQL = `SELECT id, description, price_cents, created_at FROM rooms`

const listBookingsSQL = `SELECT id, room_id, begin_date, end_date FROM bookings`
