package payments

import (
	"context"
	"log/slog"
	"time"

	"github.com/zvrva/skybooker/internal/auth"
	"github.com/zvrva/skybooker/internal/domain"
	"github.com/zvrva/skybooker/internal/errs"
	"github.com/zvrva/skybooker/internal/kafka"
	"github.com/zvrva/skybooker/internal/repository"
)

type PaymentUseCase interface {
	GetByID(ctx context.Context, subject domain.Subject, id int64) (*domain.Payment, error)
	ListByUser(ctx context.Context, subject domain.Subject, userID int64) ([]domain.Payment, error)
	Refund(ctx context.Context, subject domain.Subject, id int64) (*domain.Payment, error)
	Invoice(ctx context.Context, subject domain.Subject, id int64) (*domain.Invoice, error)
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

type PaymentService struct {
	payments repository.PaymentRepository
	policy   auth.Policy
	producer Producer
	topic    string
}

func NewPaymentService(payments repository.PaymentRepository, policy auth.Policy, producer Producer, topic string) *PaymentService {
	return &PaymentService{payments: payments, policy: policy, producer: producer, topic: topic}
}

func (s *PaymentService) GetByID(ctx context.Context, subject domain.Subject, id int64) (*domain.Payment, error) {
	payment, err := s.payments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.policy.Allow(subject, payment.UserID, auth.ActionViewPayment) {
		return nil, domain.ErrForbidden
	}
	return payment, nil
}

func (s *PaymentService) ListByUser(ctx context.Context, subject domain.Subject, userID int64) ([]domain.Payment, error) {
	if !s.policy.Allow(subject, userID, auth.ActionViewPayment) {
		return nil, domain.ErrForbidden
	}
	return s.payments.ListByUser(ctx, userID)
}

func (s *PaymentService) Refund(ctx context.Context, subject domain.Subject, id int64) (*domain.Payment, error) {
	payment, err := s.payments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.policy.Allow(subject, payment.UserID, auth.ActionRefundPayment) {
		return nil, domain.ErrForbidden
	}

	refunded, err := s.payments.MarkRefunded(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.producer != nil && s.topic != "" {
		event := kafka.BookingEvent{
			Type:        "payment_refunded",
			BookingCode: refunded.BookingCode,
			UserID:      refunded.UserID,
			Status:      string(domain.PaymentStatusRefunded),
			AmountCents: refunded.AmountCents,
			OccurredAt:  time.Now(),
		}
		if err := s.producer.Publish(ctx, s.topic, refunded.TransactionID, event); err != nil {
			slog.Warn("failed to publish payment_refunded event", "transaction_id", refunded.TransactionID, "error", err)
		}
	}
	return refunded, nil
}

func (s *PaymentService) Invoice(ctx context.Context, subject domain.Subject, id int64) (*domain.Invoice, error) {
	payment, err := s.payments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.policy.Allow(subject, payment.UserID, auth.ActionViewPayment) {
		return nil, domain.ErrForbidden
	}
	if payment.Status != domain.PaymentStatusCompleted {
		return nil, errs.Mark(errs.Newf("payment %d is %s, invoices require %s", id, payment.Status, domain.PaymentStatusCompleted), domain.ErrInvalidState)
	}

	return &domain.Invoice{
		InvoiceNumber: payment.InvoiceNumber(),
		PaymentID:     payment.ID,
		BookingCode:   payment.BookingCode,
		AmountCents:   payment.AmountCents,
		Method:        payment.Method,
		TransactionID: payment.TransactionID,
		IssuedAt:      time.Now(),
	}, nil
}

var _ PaymentUseCase = (*PaymentService)(nil)
