package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type PaymentStatus string

const (
	PaymentStatusCompleted PaymentStatus = "COMPLETED"
	PaymentStatusFailed    PaymentStatus = "FAILED"
	PaymentStatusRefunded  PaymentStatus = "REFUNDED"
)

type PaymentMethod string

const (
	PaymentMethodCreditCard   PaymentMethod = "credit_card"
	PaymentMethodDebitCard    PaymentMethod = "debit_card"
	PaymentMethodPaypal       PaymentMethod = "paypal"
	PaymentMethodBankTransfer PaymentMethod = "bank_transfer"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentMethodCreditCard, PaymentMethodDebitCard, PaymentMethodPaypal, PaymentMethodBankTransfer:
		return true
	}
	return false
}

// Payment is one attempt against the gateway. Records are append-only:
// the only mutation after creation is the COMPLETED -> REFUNDED transition.
type Payment struct {
	ID            int64
	BookingCode   string
	UserID        int64
	AmountCents   int64
	Method        PaymentMethod
	TransactionID string
	Status        PaymentStatus
	CreatedAt     time.Time
}

func (p *Payment) InvoiceNumber() string {
	return fmt.Sprintf("INV-%06d", p.ID)
}

// Invoice is a rendering of a completed payment, never stored.
type Invoice struct {
	InvoiceNumber string
	PaymentID     int64
	BookingCode   string
	AmountCents   int64
	Method        PaymentMethod
	TransactionID string
	IssuedAt      time.Time
}

func NewTransactionID() string {
	hex := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "TXN-" + strings.ToUpper(hex[:12])
}
