// Package sqlite is a single-file store for development and tests. Writers
// are serialized through one connection and IMMEDIATE transactions.
package sqlite

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"room_booking/internal/domain"
	"room_booking/internal/storage"
)

var orderColumns = map[string]string{
	domain.OrderPrice:     "price_cents",
	domain.OrderCreatedAt: "created_at",
	domain.OrderBeginDate: "begin_date",
}

type roomRow struct {
	ID          int64       `db:"id"`
	Description string      `db:"description"`
	PriceCents  int64       `db:"price_cents"`
	CreatedAt   domain.Date `db:"created_at"`
}

func (r roomRow) toDomain() domain.Room {
	return domain.Room{
		ID:          r.ID,
		Description: r.Description,
		Price:       decimal.New(r.PriceCents, -domain.PriceDecimals),
		CreatedAt:   r.CreatedAt,
	}
}

type bookingRow struct {
	ID        int64       `db:"id"`
	RoomID    int64       `db:"room_id"`
	BeginDate domain.Date `db:"begin_date"`
	EndDate   domain.Date `db:"end_date"`
}

func (b bookingRow) toDomain() domain.Booking {
	return domain.Booking{ID: b.ID, RoomID: b.RoomID, BeginDate: b.BeginDate, EndDate: b.EndDate}
}

func toBookings(rows []bookingRow) []domain.Booking {
	out := make([]domain.Booking, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out
}

// Open opens the database at path (":memory:" works) with foreign keys on and
// write transactions taking the lock up front.
func Open(path string) (*sqlx.DB, error) {
	dsn := fmt.Sprintf("file:%s?_txlock=immediate&_foreign_keys=1&_busy_timeout=5000", path)
	db, err := sqlx.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	return db, nil
}

type Repo struct{ db *sqlx.DB }

func New(db *sqlx.DB) *Repo { return &Repo{db: db} }

func (r *Repo) Migrate(ctx context.Context) error {
	for i, stmt := range schema {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate step %d: %w", i+1, err)
		}
	}
	return nil
}

func (r *Repo) Ping(ctx context.Context) error { return r.db.PingContext(ctx) }

func (r *Repo) CreateRoom(ctx context.Context, room *domain.Room) error {
	cents := room.Price.Shift(domain.PriceDecimals).IntPart()
	res, err := r.db.ExecContext(ctx, insertRoomSQL, room.Description, cents, room.CreatedAt)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	room.ID = id
	return nil
}

// DeleteRoom removes the room's bookings and then the room in one transaction.
func (r *Repo) DeleteRoom(ctx context.Context, id int64) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, deleteRoomBookingsSQL, id); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, deleteRoomSQL, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return domain.ErrNotFound
	}
	return tx.Commit()
}

func (r *Repo) DeleteBooking(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, deleteBookingSQL, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// CreateBooking checks and inserts inside one IMMEDIATE transaction, so no
// other writer can slip a booking in between.
func (r *Repo) CreateBooking(ctx context.Context, b *domain.Booking) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var exists bool
	if err := tx.GetContext(ctx, &exists, roomExistsSQL, b.RoomID); err != nil {
		return err
	}
	if !exists {
		return domain.ErrRoomNotFound
	}

	var rows []bookingRow
	if err := tx.SelectContext(ctx, &rows, overlappingBookingsSQL, b.RoomID, b.EndDate, b.BeginDate); err != nil {
		return err
	}
	if c, ok := domain.FindConflict(*b, toBookings(rows)); ok {
		return &domain.OverlapError{RoomID: b.RoomID, ConflictID: c.ID}
	}

	res, err := tx.ExecContext(ctx, insertBookingSQL, b.RoomID, b.BeginDate, b.EndDate)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	b.ID = id
	return nil
}

func (r *Repo) ListRooms(ctx context.Context, order domain.Ordering) ([]domain.Room, error) {
	var rows []roomRow
	if err := r.db.SelectContext(ctx, &rows, listRoomsSQL+storage.OrderBy(order, orderColumns)); err != nil {
		return nil, err
	}
	out := make([]domain.Room, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (r *Repo) RoomExists(ctx context.Context, id int64) (bool, error) {
	var ok bool
	err := r.db.GetContext(ctx, &ok, roomExistsSQL, id)
	return ok, err
}

func (r *Repo) ListBookings(ctx context.Context, q domain.BookingsQuery) ([]domain.Booking, error) {
	query, args := listBookingsSQL, []any{}
	if q.RoomID != nil {
		query += " WHERE room_id = ?"
		args = append(args, *q.RoomID)
	}
	query += storage.OrderBy(q.Order, orderColumns)

	var rows []bookingRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}
	return toBookings(rows), nil
}
