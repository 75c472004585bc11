package repository

import (
    "context"
    "database/sql"
    "errors"
    "time"

    "github.com/go-sql-driver/mysql"

    "github.com/skywings/booking-service/internal/model"
)

// mysqlDupEntry is the server error number raised on unique key violations.
const mysqlDupEntry = 1062

// BookingRepo provides persistence for bookings.  It is the only
// component that touches durable storage; bookings are mutated
// exclusively through its methods.  All timestamps are stored in UTC.
type BookingRepo struct {
    db *sql.DB
}

// NewBookingRepo returns a new BookingRepo bound to the given database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

const bookingColumns = `id, user_id, flight_id, email, seat_type, seat_number, status, total_price, created_at, updated_at`

// CreateBatch inserts a batch of pending bookings inside a single
// transaction.  Each seat is re-checked against existing non-cancelled
// bookings before its insert; a taken seat aborts the whole batch with
// ErrSeatTaken and nothing is persisted.  The check is advisory: the
// unique index on (flight_id, active_seat) is the authority, and a
// duplicate-key violation from a concurrent insert maps to the same
// ErrSeatTaken.
func (r *BookingRepo) CreateBatch(ctx context.Context, bookings []*model.Booking) error {
    if len(bookings) == 0 {
        return nil
    }
    tx, err := r.db.BeginTx(ctx, nil)
    if err != nil {
        return err
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()
    for _, b := range bookings {
        taken, err := r.seatTakenTx(ctx, tx, b.FlightID, b.SeatNumber)
        if err != nil {
            return err
        }
        if taken {
            return ErrSeatTaken
        }
        if err := r.createTx(ctx, tx, b); err != nil {
            return err
        }
    }
    if err := tx.Commit(); err != nil {
        return err
    }
    committed = true
    return nil
}

func (r *BookingRepo) createTx(ctx context.Context, tx *sql.Tx, b *model.Booking) error {
    const q = `INSERT INTO booking (id, user_id, flight_id, email, seat_type, seat_number, status, total_price, created_at, updated_at)
               VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
    _, err := tx.ExecContext(ctx, q,
        b.ID, b.UserID, b.FlightID, b.Email, string(b.SeatType), b.SeatNumber,
        string(b.Status), b.TotalPrice, b.CreatedAt, b.UpdatedAt,
    )
    var me *mysql.MySQLError
    if errors.As(err, &me) && me.Number == mysqlDupEntry {
        return ErrSeatTaken
    }
    return err
}

func (r *BookingRepo) seatTakenTx(ctx context.Context, tx *sql.Tx, flightID, seatNumber string) (bool, error) {
    const q = `SELECT EXISTS(SELECT 1 FROM booking WHERE flight_id = ? AND seat_number = ? AND status <> 'cancelled')`
    var taken bool
    if err := tx.QueryRowContext(ctx, q, flightID, seatNumber).Scan(&taken); err != nil {
        return false, err
    }
    return taken, nil
}

// CountActiveSeats returns how many non-cancelled bookings the user
// already holds on the flight.  Used to enforce the per-user seat cap.
func (r *BookingRepo) CountActiveSeats(ctx context.Context, flightID, userID string) (int, error) {
    const q = `SELECT COUNT(*) FROM booking WHERE flight_id = ? AND user_id = ? AND status <> 'cancelled'`
    var n int
    if err := r.db.QueryRowContext(ctx, q, flightID, userID).Scan(&n); err != nil {
        return 0, err
    }
    return n, nil
}

// GetByID returns a single booking or ErrBookingNotFound.
func (r *BookingRepo) GetByID(ctx context.Context, id string) (*model.Booking, error) {
    const q = `SELECT ` + bookingColumns + ` FROM booking WHERE id = ?`
    b, err := scanBooking(r.db.QueryRowContext(ctx, q, id))
    if errors.Is(err, sql.ErrNoRows) {
        return nil, ErrBookingNotFound
    }
    return b, err
}

// ListAll returns bookings ordered newest first, paginated with the
// given limit and offset.
func (r *BookingRepo) ListAll(ctx context.Context, limit, offset int) ([]model.Booking, error) {
    const q = `SELECT ` + bookingColumns + ` FROM booking ORDER BY created_at DESC, id LIMIT ? OFFSET ?`
    return r.queryBookings(ctx, q, limit, offset)
}

// ListByUser returns every booking made by the user, newest first.
func (r *BookingRepo) ListByUser(ctx context.Context, userID string) ([]model.Booking, error) {
    const q = `SELECT ` + bookingColumns + ` FROM booking WHERE user_id = ? ORDER BY created_at DESC, id`
    return r.queryBookings(ctx, q, userID)
}

// ListByFlight returns every booking on the flight, newest first.
func (r *BookingRepo) ListByFlight(ctx context.Context, flightID string) ([]model.Booking, error) {
    const q = `SELECT ` + bookingColumns + ` FROM booking WHERE flight_id = ? ORDER BY created_at DESC, id`
    return r.queryBookings(ctx, q, flightID)
}

// UpdateStatus moves a booking to the given status.  Transitions are
// forward-only: the current row is locked and inspected inside a
// transaction, and a move out of a terminal state returns
// ErrInvalidTransition without modifying the row.
func (r *BookingRepo) UpdateStatus(ctx context.Context, id string, status model.BookingStatus) (*model.Booking, error) {
    tx, err := r.db.BeginTx(ctx, nil)
    if err != nil {
        return nil, err
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()
    const sel = `SELECT status FROM booking WHERE id = ? FOR UPDATE`
    var current model.BookingStatus
    if err := tx.QueryRowContext(ctx, sel, id).Scan(&current); err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return nil, ErrBookingNotFound
        }
        return nil, err
    }
    if !current.CanTransitionTo(status) {
        return nil, ErrInvalidTransition
    }
    const upd = `UPDATE booking SET status = ?, updated_at = ? WHERE id = ?`
    if _, err := tx.ExecContext(ctx, upd, string(status), time.Now().UTC(), id); err != nil {
        return nil, err
    }
    const q = `SELECT ` + bookingColumns + ` FROM booking WHERE id = ?`
    b, err := scanBooking(tx.QueryRowContext(ctx, q, id))
    if err != nil {
        return nil, err
    }
    if err := tx.Commit(); err != nil {
        return nil, err
    }
    committed = true
    return b, nil
}

// ConfirmPending flips a pending booking to confirmed and reports
// whether the transition actually happened.  The conditional update is
// the consumer's idempotency gate: a redelivered message finds the row
// already confirmed, gets false back and skips its side effects.
// Returns ErrBookingNotFound when no row exists for the id.
func (r *BookingRepo) ConfirmPending(ctx context.Context, id string) (bool, error) {
    const q = `UPDATE booking SET status = 'confirmed', updated_at = ? WHERE id = ? AND status = 'pending'`
    res, err := r.db.ExecContext(ctx, q, time.Now().UTC(), id)
    if err != nil {
        return false, err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return false, err
    }
    if n > 0 {
        return true, nil
    }
    // No transition: either the booking is already terminal or it does
    // not exist at all. Distinguish the two for the caller.
    const exists = `SELECT EXISTS(SELECT 1 FROM booking WHERE id = ?)`
    var ok bool
    if err := r.db.QueryRowContext(ctx, exists, id).Scan(&ok); err != nil {
        return false, err
    }
    if !ok {
        return false, ErrBookingNotFound
    }
    return false, nil
}

type rowScanner interface {
    Scan(dest ...any) error
}

func scanBooking(row rowScanner) (*model.Booking, error) {
    var b model.Booking
    var seatType, status string
    if err := row.Scan(
        &b.ID, &b.UserID, &b.FlightID, &b.Email, &seatType, &b.SeatNumber,
        &status, &b.TotalPrice, &b.CreatedAt, &b.UpdatedAt,
    ); err != nil {
        return nil, err
    }
    b.SeatType = model.SeatType(seatType)
    b.Status = model.BookingStatus(status)
    return &b, nil
}

func (r *BookingRepo) queryBookings(ctx context.Context, q string, args ...any) ([]model.Booking, error) {
    rows, err := r.db.QueryContext(ctx, q, args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    bookings := make([]model.Booking, 0)
    for rows.Next() {
        b, err := scanBooking(rows)
        if err != nil {
            return nil, err
        }
        bookings = append(bookings, *b)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return bookings, nil
}
