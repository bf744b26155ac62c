package domain

import (
	"fmt"

	"github.com/zvrva/skybooker/internal/errs"
)

// Booking orchestration error taxonomy. SeatConflict and NoCapacity mean
// nothing was committed; PaymentFailed and PaymentUnavailable mean
// compensation ran; CompensationFailed means the rollback itself broke and
// an operator has to reconcile by hand.
var (
	ErrSeatConflict       = errs.New("seat is already claimed")
	ErrNoCapacity         = errs.New("no seats available on flight")
	ErrPaymentFailed      = errs.New("payment declined")
	ErrPaymentUnavailable = errs.New("payment service unavailable")
	ErrCompensationFailed = errs.New("compensation failed, manual reconciliation required")
	ErrInvalidState       = errs.New("booking is not in the required status")

	// Distinct check-in rejections, both of the ErrInvalidState kind.
	ErrBookingCancelled = errs.Mark(errs.New("booking is cancelled"), ErrInvalidState)
	ErrAlreadyCheckedIn = errs.Mark(errs.New("booking is already checked in"), ErrInvalidState)

	ErrNotFound  = errs.New("not found")
	ErrForbidden = errs.New("operation not permitted")
)

// Step names the orchestration stage where a booking attempt failed.
type Step string

const (
	StepSeatLock     Step = "seat_lock"
	StepInventory    Step = "inventory"
	StepPersist      Step = "persist"
	StepPayment      Step = "payment"
	StepCompensation Step = "compensation"
)

// OrchestrationError reports which stage of createBooking failed and
// whether the compensation sequence completed. Compensated=false together
// with StepCompensation is the operator-attention case.
type OrchestrationError struct {
	Step        Step
	Compensated bool
	Err         error
}

func (e *OrchestrationError) Error() string {
	return fmt.Sprintf("booking orchestration failed at %s (compensated=%t): %v", e.Step, e.Compensated, e.Err)
}

func (e *OrchestrationError) Unwrap() error {
	return e.Err
}
