package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/zvrva/skybooker/internal/domain"
	"github.com/zvrva/skybooker/internal/errs"
)

type BookingRepository interface {
	Create(ctx context.Context, booking *domain.Booking) error
	GetByCode(ctx context.Context, code string) (*domain.Booking, error)
	ListByUser(ctx context.Context, userID int64) ([]domain.Booking, error)
	UpdateStatus(ctx context.Context, code string, status domain.BookingStatus) (*domain.Booking, error)
	// MarkCancelled claims the CONFIRMED/CHECKED_IN -> CANCELLED transition
	// atomically; a booking in any other status is left untouched and
	// reported as ErrInvalidState. Exactly one of any set of concurrent
	// cancels wins the claim.
	MarkCancelled(ctx context.Context, code string) (*domain.Booking, error)
	SetCheckedIn(ctx context.Context, code string, at time.Time) (*domain.Booking, error)
	ListStuckCompensating(ctx context.Context, olderThan time.Time) ([]domain.Booking, error)
}

type PGBookingRepository struct {
	db *pgxpool.Pool
}

func NewBookingRepository(db *pgxpool.Pool) BookingRepository {
	return &PGBookingRepository{db: db}
}

const bookingColumns = `id, code, flight_id, user_id, passenger_name, passenger_document, seat_number, amount_cents, status, checked_in_at, created_at, updated_at`

func scanBooking(row pgx.Row, b *domain.Booking) error {
	return row.Scan(&b.ID, &b.Code, &b.FlightID, &b.UserID, &b.PassengerName, &b.PassengerDocument, &b.SeatNumber, &b.AmountCents, &b.Status, &b.CheckedInAt, &b.CreatedAt, &b.UpdatedAt)
}

func (r *PGBookingRepository) Create(ctx context.Context, booking *domain.Booking) error {
	err := r.db.QueryRow(ctx, `INSERT INTO bookings (code, flight_id, user_id, passenger_name, passenger_document, seat_number, amount_cents, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at`,
		booking.Code, booking.FlightID, booking.UserID, booking.PassengerName, booking.PassengerDocument, booking.SeatNumber, booking.AmountCents, booking.Status).
		Scan(&booking.ID, &booking.CreatedAt, &booking.UpdatedAt)
	if err != nil {
		if IsUniqueViolation(err) {
			return errs.Mark(err, ErrDuplicateKey)
		}
		return err
	}
	return nil
}

func (r *PGBookingRepository) GetByCode(ctx context.Context, code string) (*domain.Booking, error) {
	row := r.db.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE code=$1`, code)
	var b domain.Booking
	if err := scanBooking(row, &b); err != nil {
		if err == pgx.ErrNoRows {
			return nil, errs.Mark(err, domain.ErrNotFound)
		}
		return nil, err
	}
	return &b, nil
}

func (r *PGBookingRepository) ListByUser(ctx context.Context, userID int64) ([]domain.Booking, error) {
	rows, err := r.db.Query(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE user_id=$1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectBookings(rows)
}

func (r *PGBookingRepository) UpdateStatus(ctx context.Context, code string, status domain.BookingStatus) (*domain.Booking, error) {
	row := r.db.QueryRow(ctx, `UPDATE bookings SET status=$1, updated_at=now() WHERE code=$2 RETURNING `+bookingColumns, status, code)
	var b domain.Booking
	if err := scanBooking(row, &b); err != nil {
		if err == pgx.ErrNoRows {
			return nil, errs.Mark(err, domain.ErrNotFound)
		}
		return nil, err
	}
	return &b, nil
}

func (r *PGBookingRepository) MarkCancelled(ctx context.Context, code string) (*domain.Booking, error) {
	row := r.db.QueryRow(ctx, `UPDATE bookings SET status=$1, updated_at=now() WHERE code=$2 AND status IN ($3, $4) RETURNING `+bookingColumns,
		domain.BookingStatusCancelled, code, domain.BookingStatusConfirmed, domain.BookingStatusCheckedIn)
	var b domain.Booking
	if err := scanBooking(row, &b); err != nil {
		if err == pgx.ErrNoRows {
			// Either no such booking or it was not cancellable.
			current, getErr := r.GetByCode(ctx, code)
			if getErr != nil {
				return nil, getErr
			}
			return nil, errs.Mark(errs.Newf("booking %s is %s and cannot be cancelled", code, current.Status), domain.ErrInvalidState)
		}
		return nil, err
	}
	return &b, nil
}

func (r *PGBookingRepository) SetCheckedIn(ctx context.Context, code string, at time.Time) (*domain.Booking, error) {
	row := r.db.QueryRow(ctx, `UPDATE bookings SET status=$1, checked_in_at=$2, updated_at=now() WHERE code=$3 RETURNING `+bookingColumns,
		domain.BookingStatusCheckedIn, at, code)
	var b domain.Booking
	if err := scanBooking(row, &b); err != nil {
		if err == pgx.ErrNoRows {
			return nil, errs.Mark(err, domain.ErrNotFound)
		}
		return nil, err
	}
	return &b, nil
}

// ListStuckCompensating feeds the reconciliation sweep: bookings left in
// COMPENSATING mean a rollback broke halfway and someone has to look.
func (r *PGBookingRepository) ListStuckCompensating(ctx context.Context, olderThan time.Time) ([]domain.Booking, error) {
	rows, err := r.db.Query(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE status=$1 AND updated_at <= $2 ORDER BY updated_at`,
		domain.BookingStatusCompensating, olderThan)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectBookings(rows)
}

func collectBookings(rows pgx.Rows) ([]domain.Booking, error) {
	bookings := make([]domain.Booking, 0)
	for rows.Next() {
		var b domain.Booking
		if err := scanBooking(rows, &b); err != nil {
			return nil, err
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

var _ BookingRepository = (*PGBookingRepository)(nil)
