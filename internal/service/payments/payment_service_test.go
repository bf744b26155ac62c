package payments

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/zvrva/skybooker/internal/auth"
	"github.com/zvrva/skybooker/internal/domain"
	"github.com/zvrva/skybooker/internal/errs"
	"github.com/zvrva/skybooker/internal/kafka"
)

type MockPaymentRepository struct {
	mock.Mock
}

func (m *MockPaymentRepository) Create(ctx context.Context, payment *domain.Payment) error {
	args := m.Called(ctx, payment)
	return args.Error(0)
}

func (m *MockPaymentRepository) GetByID(ctx context.Context, id int64) (*domain.Payment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Payment), args.Error(1)
}

func (m *MockPaymentRepository) ListByUser(ctx context.Context, userID int64) ([]domain.Payment, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]domain.Payment), args.Error(1)
}

func (m *MockPaymentRepository) MarkRefunded(ctx context.Context, id int64) (*domain.Payment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Payment), args.Error(1)
}

type MockProducer struct {
	mock.Mock
}

func (m *MockProducer) Publish(ctx context.Context, topic, key string, value interface{}) error {
	args := m.Called(ctx, topic, key, value)
	return args.Error(0)
}

var owner = domain.Subject{UserID: 9, Role: domain.RoleCustomer}

func completedPayment() *domain.Payment {
	return &domain.Payment{
		ID:            42,
		BookingCode:   "QX7K2P",
		UserID:        9,
		AmountCents:   15000,
		Method:        domain.PaymentMethodCreditCard,
		TransactionID: "TXN-AB12CD34EF56",
		Status:        domain.PaymentStatusCompleted,
	}
}

func TestPaymentService_GetByID(t *testing.T) {
	repo := &MockPaymentRepository{}
	service := NewPaymentService(repo, auth.NewPolicy(), nil, "")
	ctx := context.Background()

	repo.On("GetByID", ctx, int64(42)).Return(completedPayment(), nil).Twice()

	payment, err := service.GetByID(ctx, owner, 42)
	assert.NoError(t, err)
	assert.Equal(t, "TXN-AB12CD34EF56", payment.TransactionID)

	// Someone else's payment stays hidden.
	_, err = service.GetByID(ctx, domain.Subject{UserID: 77, Role: domain.RoleCustomer}, 42)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestPaymentService_Refund(t *testing.T) {
	repo := &MockPaymentRepository{}
	producer := &MockProducer{}
	service := NewPaymentService(repo, auth.NewPolicy(), producer, "payment-events")
	ctx := context.Background()

	refunded := completedPayment()
	refunded.Status = domain.PaymentStatusRefunded

	repo.On("GetByID", ctx, int64(42)).Return(completedPayment(), nil).Once()
	repo.On("MarkRefunded", ctx, int64(42)).Return(refunded, nil).Once()
	producer.On("Publish", ctx, "payment-events", "TXN-AB12CD34EF56", mock.AnythingOfType("kafka.BookingEvent")).Return(nil).Once()

	got, err := service.Refund(ctx, owner, 42)
	assert.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusRefunded, got.Status)

	// The event the worker will decode, not an ad-hoc payload.
	event := producer.Calls[0].Arguments.Get(3).(kafka.BookingEvent)
	assert.Equal(t, "payment_refunded", event.Type)
	assert.Equal(t, "QX7K2P", event.BookingCode)
	assert.Equal(t, string(domain.PaymentStatusRefunded), event.Status)
	assert.Equal(t, int64(15000), event.AmountCents)

	repo.AssertExpectations(t)
	producer.AssertExpectations(t)
}

func TestPaymentService_Refund_AlreadyRefunded(t *testing.T) {
	repo := &MockPaymentRepository{}
	service := NewPaymentService(repo, auth.NewPolicy(), nil, "")
	ctx := context.Background()

	already := completedPayment()
	already.Status = domain.PaymentStatusRefunded

	repo.On("GetByID", ctx, int64(42)).Return(already, nil).Once()
	repo.On("MarkRefunded", ctx, int64(42)).
		Return(nil, errs.Mark(errs.Newf("payment 42 is %s", already.Status), domain.ErrInvalidState)).Once()

	_, err := service.Refund(ctx, owner, 42)
	assert.ErrorIs(t, err, domain.ErrInvalidState)
}

func TestPaymentService_Refund_Forbidden(t *testing.T) {
	repo := &MockPaymentRepository{}
	service := NewPaymentService(repo, auth.NewPolicy(), nil, "")
	ctx := context.Background()

	repo.On("GetByID", ctx, int64(42)).Return(completedPayment(), nil).Once()

	_, err := service.Refund(ctx, domain.Subject{UserID: 77, Role: domain.RoleCustomer}, 42)
	assert.ErrorIs(t, err, domain.ErrForbidden)
	repo.AssertNotCalled(t, "MarkRefunded", mock.Anything, mock.Anything)
}

func TestPaymentService_Invoice(t *testing.T) {
	repo := &MockPaymentRepository{}
	service := NewPaymentService(repo, auth.NewPolicy(), nil, "")
	ctx := context.Background()

	repo.On("GetByID", ctx, int64(42)).Return(completedPayment(), nil).Once()

	invoice, err := service.Invoice(ctx, owner, 42)
	assert.NoError(t, err)
	assert.Equal(t, "INV-000042", invoice.InvoiceNumber)
	assert.Equal(t, "QX7K2P", invoice.BookingCode)
	assert.Equal(t, int64(15000), invoice.AmountCents)
	assert.False(t, invoice.IssuedAt.IsZero())
}

func TestPaymentService_Invoice_RequiresCompleted(t *testing.T) {
	repo := &MockPaymentRepository{}
	service := NewPaymentService(repo, auth.NewPolicy(), nil, "")
	ctx := context.Background()

	failed := completedPayment()
	failed.Status = domain.PaymentStatusFailed

	repo.On("GetByID", ctx, int64(42)).Return(failed, nil).Once()

	_, err := service.Invoice(ctx, owner, 42)
	assert.ErrorIs(t, err, domain.ErrInvalidState)
}
