package payments

import (
	"context"
	"strings"

	"github.com/zvrva/skybooker/internal/domain"
)

type ChargeRequest struct {
	BookingCode string
	AmountCents int64
	Method      domain.PaymentMethod
	CardNumber  string
}

type ChargeResult struct {
	TransactionID string
	Completed     bool
}

// Charger is the external payment capability. One call, one attempt: a
// decline comes back as Completed=false, a transport fault as an error.
// Retrying transport faults is the orchestrator's decision, not ours.
type Charger interface {
	Charge(ctx context.Context, req ChargeRequest) (ChargeResult, error)
}

// StubGateway stands in for the real processor. Cards whose number ends
// in '0' are declined so decline paths stay testable end to end.
type StubGateway struct{}

func NewStubGateway() StubGateway {
	return StubGateway{}
}

func (StubGateway) Charge(ctx context.Context, req ChargeRequest) (ChargeResult, error) {
	if err := ctx.Err(); err != nil {
		return ChargeResult{}, err
	}

	result := ChargeResult{TransactionID: domain.NewTransactionID()}
	result.Completed = !strings.HasSuffix(req.CardNumber, "0")
	return result, nil
}

var _ Charger = StubGateway{}
