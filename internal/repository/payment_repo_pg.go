package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/zvrva/skybooker/internal/domain"
	"github.com/zvrva/skybooker/internal/errs"
)

type PaymentRepository interface {
	Create(ctx context.Context, payment *domain.Payment) error
	GetByID(ctx context.Context, id int64) (*domain.Payment, error)
	ListByUser(ctx context.Context, userID int64) ([]domain.Payment, error)
	// MarkRefunded transitions COMPLETED -> REFUNDED; any other starting
	// status leaves the row untouched and returns ErrInvalidState.
	MarkRefunded(ctx context.Context, id int64) (*domain.Payment, error)
}

type PGPaymentRepository struct {
	db *pgxpool.Pool
}

func NewPaymentRepository(db *pgxpool.Pool) PaymentRepository {
	return &PGPaymentRepository{db: db}
}

const paymentColumns = `id, booking_code, user_id, amount_cents, method, transaction_id, status, created_at`

func scanPayment(row pgx.Row, p *domain.Payment) error {
	return row.Scan(&p.ID, &p.BookingCode, &p.UserID, &p.AmountCents, &p.Method, &p.TransactionID, &p.Status, &p.CreatedAt)
}

func (r *PGPaymentRepository) Create(ctx context.Context, payment *domain.Payment) error {
	return r.db.QueryRow(ctx, `INSERT INTO payments (booking_code, user_id, amount_cents, method, transaction_id, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`,
		payment.BookingCode, payment.UserID, payment.AmountCents, payment.Method, payment.TransactionID, payment.Status).
		Scan(&payment.ID, &payment.CreatedAt)
}

func (r *PGPaymentRepository) GetByID(ctx context.Context, id int64) (*domain.Payment, error) {
	row := r.db.QueryRow(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id=$1`, id)
	var p domain.Payment
	if err := scanPayment(row, &p); err != nil {
		if err == pgx.ErrNoRows {
			return nil, errs.Mark(err, domain.ErrNotFound)
		}
		return nil, err
	}
	return &p, nil
}

func (r *PGPaymentRepository) ListByUser(ctx context.Context, userID int64) ([]domain.Payment, error) {
	rows, err := r.db.Query(ctx, `SELECT `+paymentColumns+` FROM payments WHERE user_id=$1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	payments := make([]domain.Payment, 0)
	for rows.Next() {
		var p domain.Payment
		if err := scanPayment(rows, &p); err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

func (r *PGPaymentRepository) MarkRefunded(ctx context.Context, id int64) (*domain.Payment, error) {
	row := r.db.QueryRow(ctx, `UPDATE payments SET status=$1 WHERE id=$2 AND status=$3 RETURNING `+paymentColumns,
		domain.PaymentStatusRefunded, id, domain.PaymentStatusCompleted)
	var p domain.Payment
	if err := scanPayment(row, &p); err != nil {
		if err == pgx.ErrNoRows {
			// Either no such payment or it was not COMPLETED.
			if _, getErr := r.GetByID(ctx, id); getErr != nil {
				return nil, getErr
			}
			return nil, errs.Mark(errs.Newf("payment %d is not refundable", id), domain.ErrInvalidState)
		}
		return nil, err
	}
	return &p, nil
}

var _ PaymentRepository = (*PGPaymentRepository)(nil)
