package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/zvrva/skybooker/internal/domain"
	"github.com/zvrva/skybooker/internal/errs"
	"github.com/zvrva/skybooker/internal/inventory"
)

type FlightRepository interface {
	inventory.Ledger
	Create(ctx context.Context, flight *domain.Flight) error
	List(ctx context.Context) ([]domain.Flight, error)
	Search(ctx context.Context, filter domain.FlightFilter) ([]domain.Flight, error)
	GetByID(ctx context.Context, id int64) (*domain.Flight, error)
	// UpdateSeats changes a flight's capacity, shifting available_seats by
	// the same delta so booked seats stay booked. A reduction below the
	// currently booked count is rejected.
	UpdateSeats(ctx context.Context, id int64, totalSeats int) (*domain.Flight, error)
	Delete(ctx context.Context, id int64) error
}

type PGFlightRepository struct {
	db *pgxpool.Pool
}

func NewFlightRepository(db *pgxpool.Pool) FlightRepository {
	return &PGFlightRepository{db: db}
}

const flightColumns = `id, flight_number, origin, destination, departure_time, arrival_time, total_seats, available_seats, price_cents, airline_id, created_at, updated_at`

func scanFlight(row pgx.Row, f *domain.Flight) error {
	return row.Scan(&f.ID, &f.FlightNumber, &f.Origin, &f.Destination, &f.DepartureTime, &f.ArrivalTime, &f.TotalSeats, &f.AvailableSeats, &f.PriceCents, &f.AirlineID, &f.CreatedAt, &f.UpdatedAt)
}

func (r *PGFlightRepository) Create(ctx context.Context, flight *domain.Flight) error {
	err := r.db.QueryRow(ctx, `INSERT INTO flights (flight_number, origin, destination, departure_time, arrival_time, total_seats, available_seats, price_cents, airline_id)
		VALUES ($1, $2, $3, $4, $5, $6, $6, $7, $8)
		RETURNING id, created_at, updated_at`,
		flight.FlightNumber, flight.Origin, flight.Destination, flight.DepartureTime, flight.ArrivalTime, flight.TotalSeats, flight.PriceCents, flight.AirlineID).
		Scan(&flight.ID, &flight.CreatedAt, &flight.UpdatedAt)
	if err != nil {
		if IsUniqueViolation(err) {
			return errs.Mark(err, ErrDuplicateKey)
		}
		return err
	}
	flight.AvailableSeats = flight.TotalSeats
	return nil
}

func (r *PGFlightRepository) List(ctx context.Context) ([]domain.Flight, error) {
	rows, err := r.db.Query(ctx, `SELECT `+flightColumns+` FROM flights ORDER BY departure_time`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectFlights(rows)
}

func (r *PGFlightRepository) Search(ctx context.Context, filter domain.FlightFilter) ([]domain.Flight, error) {
	query := `SELECT ` + flightColumns + ` FROM flights WHERE available_seats > 0`
	args := []any{}
	if filter.Origin != "" {
		args = append(args, filter.Origin)
		query += ` AND origin = $` + itoa(len(args))
	}
	if filter.Destination != "" {
		args = append(args, filter.Destination)
		query += ` AND destination = $` + itoa(len(args))
	}
	if !filter.Date.IsZero() {
		day := filter.Date.Truncate(24 * time.Hour)
		args = append(args, day)
		query += ` AND departure_time >= $` + itoa(len(args))
		args = append(args, day.Add(24*time.Hour))
		query += ` AND departure_time < $` + itoa(len(args))
	}
	query += ` ORDER BY departure_time`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectFlights(rows)
}

func (r *PGFlightRepository) GetByID(ctx context.Context, id int64) (*domain.Flight, error) {
	row := r.db.QueryRow(ctx, `SELECT `+flightColumns+` FROM flights WHERE id=$1`, id)
	var f domain.Flight
	if err := scanFlight(row, &f); err != nil {
		if err == pgx.ErrNoRows {
			return nil, errs.Mark(err, domain.ErrNotFound)
		}
		return nil, err
	}
	return &f, nil
}

// UpdateSeats applies the capacity change and the matching available_seats
// shift in one statement; the WHERE clause refuses any change that would
// take availability below zero, i.e. below the seats already booked.
func (r *PGFlightRepository) UpdateSeats(ctx context.Context, id int64, totalSeats int) (*domain.Flight, error) {
	row := r.db.QueryRow(ctx, `UPDATE flights
		SET available_seats = available_seats + ($2 - total_seats), total_seats = $2, updated_at = now()
		WHERE id=$1 AND available_seats + ($2 - total_seats) >= 0
		RETURNING `+flightColumns, id, totalSeats)
	var f domain.Flight
	if err := scanFlight(row, &f); err != nil {
		if err == pgx.ErrNoRows {
			// Either no such flight or the reduction cuts into booked seats.
			if _, getErr := r.GetByID(ctx, id); getErr != nil {
				return nil, getErr
			}
			return nil, errs.Mark(errs.Newf("flight %d: %d seats is below the booked count", id, totalSeats), domain.ErrNoCapacity)
		}
		return nil, err
	}
	return &f, nil
}

func (r *PGFlightRepository) Delete(ctx context.Context, id int64) error {
	cmd, err := r.db.Exec(ctx, `DELETE FROM flights WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return errs.Mark(errs.Newf("flight %d", id), domain.ErrNotFound)
	}
	return nil
}

// Reserve is the atomic check-then-decrement: the WHERE clause makes the
// conditional part of the same statement, so concurrent callers are
// serialized by the row lock and available_seats can never go negative.
func (r *PGFlightRepository) Reserve(ctx context.Context, flightID int64, count int) (int, error) {
	var available int
	err := r.db.QueryRow(ctx, `UPDATE flights SET available_seats = available_seats - $2, updated_at = now()
		WHERE id=$1 AND available_seats >= $2
		RETURNING available_seats`, flightID, count).Scan(&available)
	if err != nil {
		if err == pgx.ErrNoRows {
			return 0, errs.Mark(errs.Newf("flight %d: reserve %d", flightID, count), domain.ErrNoCapacity)
		}
		return 0, err
	}
	return available, nil
}

// Release restores seats with a ceiling at total_seats; hitting the
// ceiling means a double release and is reported, not absorbed.
func (r *PGFlightRepository) Release(ctx context.Context, flightID int64, count int) (int, error) {
	var available int
	err := r.db.QueryRow(ctx, `UPDATE flights SET available_seats = available_seats + $2, updated_at = now()
		WHERE id=$1 AND available_seats + $2 <= total_seats
		RETURNING available_seats`, flightID, count).Scan(&available)
	if err != nil {
		if err == pgx.ErrNoRows {
			return 0, errs.Mark(errs.Newf("flight %d: release %d", flightID, count), inventory.ErrOverRelease)
		}
		return 0, err
	}
	return available, nil
}

func collectFlights(rows pgx.Rows) ([]domain.Flight, error) {
	flights := make([]domain.Flight, 0)
	for rows.Next() {
		var f domain.Flight
		if err := scanFlight(rows, &f); err != nil {
			return nil, err
		}
		flights = append(flights, f)
	}
	return flights, rows.Err()
}

var _ FlightRepository = (*PGFlightRepository)(nil)
