package mysql

// Schema statements run in order by Migrate. Each is idempotent.
var schema = []string{
	`
CREATE TABLE IF NOT EXISTS rooms (
  id          BIGINT       NOT NULL AUTO_INCREMENT,
  description VARCHAR(200) NOT NULL,
  price       DECIMAL(9,2) NOT NULL,
  created_at  DATE         NOT NULL,
  PRIMARY KEY (id),
  KEY idx_rooms_price (price),
  KEY idx_rooms_created_at (created_at),
  CONSTRAINT chk_rooms_price CHECK (price >= 1.00)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4
`,
	`
CREATE TABLE IF NOT EXISTS bookings (
  id         BIGINT NOT NULL AUTO_INCREMENT,
  room_id    BIGINT NOT NULL,
  begin_date DATE   NOT NULL,
  end_date   DATE   NOT NULL,
  PRIMARY KEY (id),
  KEY idx_bookings_room_dates (room_id, begin_date, end_date),
  KEY idx_bookings_begin_date (begin_date),
  CONSTRAINT chk_bookings_range CHECK (begin_date <= end_date),
  CONSTRAINT fk_bookings_room FOREIGN KEY (room_id) REFERENCES rooms (id) ON DELETE CASCADE
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4
`,
}

// -----------------------------------------------------------------------------
// WRITE QUERIES
// -----------------------------------------------------------------------------

const insertRoomSQL = `INSERT INTO rooms (description, price, created_at) VALUES (?, ?, ?)`

// Bookings go away with the room through fk_bookings_room.
const deleteRoomSQL = `DELETE FROM rooms WHERE id = ?`

// Serializes booking writes per room for the rest of the transaction.
const lockRoomSQL = `SELECT id FROM rooms WHERE id = ? FOR UPDATE`

// Candidates that can intersect [begin, end]: args are room_id, end, begin.
const overlappingBookingsSQL = `
SELECT id, room_id, begin_date, end_date
FROM bookings
WHERE room_id = ? AND begin_date <= ? AND end_date >= ?
ORDER BY begin_date, id
`

const insertBookingSQL = `INSERT INTO bookings (room_id, begin_date, end_date) VALUES (?, ?, ?)`

const deleteBookingSQL = `DELETE FROM bookings WHERE id = ?`

// -----------------------------------------------------------------------------
// READ QUERIES
// -----------------------------------------------------------------------------

const listRoomsSQL = `SELECT id, description, price, created_at FROM rooms`

const roomExistsSQL = `SELECT EXISTS(SELECT 1 FROM rooms WHERE id = ?)`

const listBookingsSQL = `SELECT id, room_id, begin_date, end_date FROM bookings`
