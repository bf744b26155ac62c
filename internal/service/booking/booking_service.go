// Package booking drives a booking through its lifecycle across the seat
// lock table, the inventory ledger and the payment capability, and owns
// the compensation protocol when a downstream step fails. There is no
// shared transaction between those services: the commit order is seat
// lock, then inventory, then payment, and rollback runs in reverse.
package booking

import (
	"context"
	"log/slog"
	"time"

	"github.com/zvrva/skybooker/internal/auth"
	"github.com/zvrva/skybooker/internal/domain"
	"github.com/zvrva/skybooker/internal/errs"
	"github.com/zvrva/skybooker/internal/inventory"
	"github.com/zvrva/skybooker/internal/kafka"
	"github.com/zvrva/skybooker/internal/repository"
	"github.com/zvrva/skybooker/internal/seatlock"
	"github.com/zvrva/skybooker/internal/service/payments"
)

type BookingUseCase interface {
	CreateBooking(ctx context.Context, subject domain.Subject, input CreateBookingInput) (*domain.Booking, error)
	GetByCode(ctx context.Context, subject domain.Subject, code string) (*domain.Booking, error)
	ListByUser(ctx context.Context, subject domain.Subject, userID int64) ([]domain.Booking, error)
	CancelBooking(ctx context.Context, subject domain.Subject, code string) (*domain.Booking, error)
	CheckIn(ctx context.Context, subject domain.Subject, code string) (*domain.Booking, error)
	Ticket(ctx context.Context, subject domain.Subject, code string) (*domain.Ticket, error)
	StuckCompensating(ctx context.Context, olderThan time.Time) ([]domain.Booking, error)
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

type CreateBookingInput struct {
	FlightID          int64                `json:"flight_id"`
	SeatNumber        string               `json:"seat_number"`
	PassengerName     string               `json:"passenger_name"`
	PassengerDocument string               `json:"passenger_document"`
	Method            domain.PaymentMethod `json:"payment_method"`
	CardNumber        string               `json:"card_number"`
}

// codeRetries bounds booking-code regeneration on unique-constraint
// collisions before the attempt is failed outright.
const codeRetries = 3

type BookingService struct {
	bookings       repository.BookingRepository
	flights        repository.FlightRepository
	payments       repository.PaymentRepository
	ledger         inventory.Ledger
	locks          seatlock.Table
	charger        payments.Charger
	policy         auth.Policy
	producer       Producer
	eventsTopic    string
	holdTTL        time.Duration
	paymentTimeout time.Duration
	paymentRetries int
}

type BookingServiceOption func(*BookingService)

func WithPaymentRetries(n int) BookingServiceOption {
	return func(s *BookingService) {
		s.paymentRetries = n
	}
}

func NewBookingService(
	bookings repository.BookingRepository,
	flights repository.FlightRepository,
	paymentRepo repository.PaymentRepository,
	ledger inventory.Ledger,
	locks seatlock.Table,
	charger payments.Charger,
	policy auth.Policy,
	producer Producer,
	eventsTopic string,
	holdTTL, paymentTimeout time.Duration,
	opts ...BookingServiceOption,
) *BookingService {
	service := &BookingService{
		bookings:       bookings,
		flights:        flights,
		payments:       paymentRepo,
		ledger:         ledger,
		locks:          locks,
		charger:        charger,
		policy:         policy,
		producer:       producer,
		eventsTopic:    eventsTopic,
		holdTTL:        holdTTL,
		paymentTimeout: paymentTimeout,
		paymentRetries: 2,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

// CreateBooking runs the full orchestration: seat lock, inventory
// decrement, booking record, payment, confirmation. On success exactly one
// seat claim, one inventory decrement, one CONFIRMED booking and one
// COMPLETED payment attempt exist. On any failure past the lock the net
// effect on inventory and the lock table is rolled back to zero.
func (s *BookingService) CreateBooking(ctx context.Context, subject domain.Subject, input CreateBookingInput) (*domain.Booking, error) {
	if input.SeatNumber == "" {
		return nil, errs.New("seat number is required")
	}
	if input.PassengerName == "" {
		return nil, errs.New("passenger name is required")
	}
	if !input.Method.Valid() {
		return nil, errs.Newf("invalid payment method %q", input.Method)
	}
	if !s.policy.Allow(subject, subject.UserID, auth.ActionCreateBooking) {
		return nil, domain.ErrForbidden
	}

	flight, err := s.flights.GetByID(ctx, input.FlightID)
	if err != nil {
		return nil, err
	}

	booking := &domain.Booking{
		Code:              domain.NewBookingCode(),
		FlightID:          flight.ID,
		UserID:            subject.UserID,
		PassengerName:     input.PassengerName,
		PassengerDocument: input.PassengerDocument,
		SeatNumber:        input.SeatNumber,
		AmountCents:       flight.PriceCents,
		Status:            domain.BookingStatusInitiated,
	}

	granted, err := s.locks.Acquire(ctx, flight.ID, input.SeatNumber, booking.Code, s.holdTTL)
	if err != nil {
		return nil, &domain.OrchestrationError{Step: domain.StepSeatLock, Compensated: true, Err: err}
	}
	if !granted {
		return nil, &domain.OrchestrationError{
			Step:        domain.StepSeatLock,
			Compensated: true,
			Err:         errs.Mark(errs.Newf("flight %d seat %s", flight.ID, input.SeatNumber), domain.ErrSeatConflict),
		}
	}
	if err := booking.Transition(domain.BookingStatusSeatHeld); err != nil {
		return nil, s.compensate(ctx, booking, domain.StepSeatLock, err, false, false)
	}

	if _, err := s.ledger.Reserve(ctx, flight.ID, 1); err != nil {
		// Nothing committed beyond the claim; the floor-at-zero check
		// already failed atomically, so only the lock needs undoing.
		if relErr := s.locks.Release(ctx, flight.ID, input.SeatNumber); relErr != nil {
			return nil, &domain.OrchestrationError{
				Step:        domain.StepCompensation,
				Compensated: false,
				Err:         errs.Combine(errs.Mark(relErr, domain.ErrCompensationFailed), err),
			}
		}
		return nil, &domain.OrchestrationError{Step: domain.StepInventory, Compensated: true, Err: err}
	}
	if err := booking.Transition(domain.BookingStatusInventoryCommitted); err != nil {
		return nil, s.compensate(ctx, booking, domain.StepInventory, err, true, false)
	}

	for attempt := 0; ; attempt++ {
		err := s.bookings.Create(ctx, booking)
		if err == nil {
			break
		}
		if errs.Is(err, repository.ErrDuplicateKey) && attempt < codeRetries {
			booking.Code = domain.NewBookingCode()
			continue
		}
		return nil, s.compensate(ctx, booking, domain.StepPersist, err, true, false)
	}

	if err := booking.Transition(domain.BookingStatusPaymentPending); err != nil {
		return nil, s.compensate(ctx, booking, domain.StepPersist, err, true, true)
	}
	if _, err := s.bookings.UpdateStatus(ctx, booking.Code, domain.BookingStatusPaymentPending); err != nil {
		return nil, s.compensate(ctx, booking, domain.StepPersist, err, true, true)
	}

	result, err := s.charge(ctx, booking, input)
	if err != nil {
		return nil, s.compensate(ctx, booking, domain.StepPayment, err, true, true)
	}
	if !result.Completed {
		// The decline is evidence worth keeping even though the booking
		// unwinds: a FAILED attempt record outlives its booking.
		s.recordAttempt(ctx, booking, input.Method, result.TransactionID, domain.PaymentStatusFailed)
		cause := errs.Mark(errs.Newf("transaction %s declined", result.TransactionID), domain.ErrPaymentFailed)
		return nil, s.compensate(ctx, booking, domain.StepPayment, cause, true, true)
	}

	payment := &domain.Payment{
		BookingCode:   booking.Code,
		UserID:        subject.UserID,
		AmountCents:   booking.AmountCents,
		Method:        input.Method,
		TransactionID: result.TransactionID,
		Status:        domain.PaymentStatusCompleted,
	}
	if err := s.payments.Create(ctx, payment); err != nil {
		// The charge went through but its record did not. The booking is
		// unwound rather than confirmed without evidence; the refund is
		// left to reconciliation since capture is at-most-once here.
		slog.Error("completed charge could not be recorded", "booking", booking.Code, "transaction_id", result.TransactionID, "error", err)
		return nil, s.compensate(ctx, booking, domain.StepPersist, err, true, true)
	}

	// The claim must outlive the hold TTL before the booking is visible as
	// CONFIRMED: a confirmed booking whose claim quietly expired would let
	// a second customer take the same physical seat. If the claim cannot
	// be persisted the booking unwinds; the refund of the captured charge
	// is left to reconciliation.
	if err := s.locks.Persist(ctx, flight.ID, input.SeatNumber); err != nil {
		slog.Error("completed charge is being unwound", "booking", booking.Code, "transaction_id", result.TransactionID, "error", err)
		return nil, s.compensate(ctx, booking, domain.StepPersist, errs.Wrap(err, "persist seat claim"), true, true)
	}

	if err := booking.Transition(domain.BookingStatusConfirmed); err != nil {
		return nil, s.compensate(ctx, booking, domain.StepPayment, err, true, true)
	}
	confirmed, err := s.bookings.UpdateStatus(ctx, booking.Code, domain.BookingStatusConfirmed)
	if err != nil {
		return nil, s.compensate(ctx, booking, domain.StepPersist, err, true, true)
	}

	s.publish(ctx, "booking_confirmed", confirmed)
	return confirmed, nil
}

// charge calls the payment capability with a bounded timeout per attempt.
// Transport faults are retried a bounded number of times and then
// classified as PaymentUnavailable; a decline is never retried.
func (s *BookingService) charge(ctx context.Context, booking *domain.Booking, input CreateBookingInput) (payments.ChargeResult, error) {
	req := payments.ChargeRequest{
		BookingCode: booking.Code,
		AmountCents: booking.AmountCents,
		Method:      input.Method,
		CardNumber:  input.CardNumber,
	}

	var lastErr error
	for attempt := 0; attempt <= s.paymentRetries; attempt++ {
		// A caller that has gone away gets no further attempts.
		if err := ctx.Err(); err != nil {
			return payments.ChargeResult{}, errs.Mark(errs.Wrap(err, "payment abandoned"), domain.ErrPaymentUnavailable)
		}
		chargeCtx, cancel := context.WithTimeout(ctx, s.paymentTimeout)
		result, err := s.charger.Charge(chargeCtx, req)
		cancel()
		if err == nil {
			return result, nil
		}
		lastErr = err
		slog.Warn("payment attempt failed", "booking", booking.Code, "attempt", attempt+1, "error", err)
	}
	return payments.ChargeResult{}, errs.Mark(errs.Wrap(lastErr, "payment capability unreachable"), domain.ErrPaymentUnavailable)
}

// compensate unwinds partial work in reverse commit order: inventory
// before the seat lock. A held claim with restored inventory is a safe
// intermediate (the seat is briefly unreservable); the reverse order
// could let a second booking claim the seat before its inventory is back.
// A failure inside compensation is surfaced as CompensationFailed with
// the original cause attached, never masked by it.
func (s *BookingService) compensate(ctx context.Context, booking *domain.Booking, step domain.Step, cause error, releaseInventory, persisted bool) error {
	_ = booking.Transition(domain.BookingStatusCompensating)
	if persisted {
		// Mark the row first so the reconciliation sweep finds it if the
		// process dies or a release below fails.
		if _, err := s.bookings.UpdateStatus(ctx, booking.Code, domain.BookingStatusCompensating); err != nil {
			return s.compensationFailed(cause, err)
		}
	}

	if releaseInventory {
		if _, err := s.ledger.Release(ctx, booking.FlightID, 1); err != nil {
			return s.compensationFailed(cause, err)
		}
	}
	if err := s.locks.Release(ctx, booking.FlightID, booking.SeatNumber); err != nil {
		return s.compensationFailed(cause, err)
	}

	_ = booking.Transition(domain.BookingStatusCancelled)
	if persisted {
		cancelled, err := s.bookings.UpdateStatus(ctx, booking.Code, domain.BookingStatusCancelled)
		if err != nil {
			return s.compensationFailed(cause, err)
		}
		s.publish(ctx, "booking_cancelled", cancelled)
	}

	return &domain.OrchestrationError{Step: step, Compensated: true, Err: cause}
}

func (s *BookingService) compensationFailed(cause, compErr error) error {
	return &domain.OrchestrationError{
		Step:        domain.StepCompensation,
		Compensated: false,
		Err:         errs.Combine(errs.Mark(compErr, domain.ErrCompensationFailed), cause),
	}
}

func (s *BookingService) recordAttempt(ctx context.Context, booking *domain.Booking, method domain.PaymentMethod, transactionID string, status domain.PaymentStatus) {
	payment := &domain.Payment{
		BookingCode:   booking.Code,
		UserID:        booking.UserID,
		AmountCents:   booking.AmountCents,
		Method:        method,
		TransactionID: transactionID,
		Status:        status,
	}
	if err := s.payments.Create(ctx, payment); err != nil {
		slog.Warn("failed to record payment attempt", "booking", booking.Code, "transaction_id", transactionID, "error", err)
	}
}

func (s *BookingService) GetByCode(ctx context.Context, subject domain.Subject, code string) (*domain.Booking, error) {
	booking, err := s.bookings.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if !s.policy.Allow(subject, booking.UserID, auth.ActionViewBooking) {
		return nil, domain.ErrForbidden
	}
	return booking, nil
}

func (s *BookingService) ListByUser(ctx context.Context, subject domain.Subject, userID int64) ([]domain.Booking, error) {
	if !s.policy.Allow(subject, userID, auth.ActionViewBooking) {
		return nil, domain.ErrForbidden
	}
	return s.bookings.ListByUser(ctx, userID)
}

// CancelBooking undoes a confirmed (or checked-in) booking. The status
// flip is claimed atomically first, so of any set of concurrent cancels
// exactly one proceeds to the releases below; the losers get an
// InvalidState, not a silent no-op, because tolerating them would mean a
// double release. A second cancel is rejected the same way.
func (s *BookingService) CancelBooking(ctx context.Context, subject domain.Subject, code string) (*domain.Booking, error) {
	current, err := s.bookings.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if !s.policy.Allow(subject, current.UserID, auth.ActionCancelBooking) {
		return nil, domain.ErrForbidden
	}

	cancelled, err := s.bookings.MarkCancelled(ctx, code)
	if err != nil {
		return nil, err
	}

	if _, err := s.ledger.Release(ctx, cancelled.FlightID, 1); err != nil {
		return nil, errs.Mark(errs.Wrap(err, "restore inventory"), domain.ErrCompensationFailed)
	}
	if err := s.locks.Release(ctx, cancelled.FlightID, cancelled.SeatNumber); err != nil {
		return nil, errs.Mark(errs.Wrap(err, "release seat claim"), domain.ErrCompensationFailed)
	}

	s.publish(ctx, "booking_cancelled", cancelled)
	return cancelled, nil
}

// CheckIn requires the booking to be exactly CONFIRMED. Cancelled and
// already checked-in bookings are rejected with distinct errors so the
// caller can tell the passenger why.
func (s *BookingService) CheckIn(ctx context.Context, subject domain.Subject, code string) (*domain.Booking, error) {
	current, err := s.bookings.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if !s.policy.Allow(subject, current.UserID, auth.ActionCheckIn) {
		return nil, domain.ErrForbidden
	}

	switch current.Status {
	case domain.BookingStatusCancelled:
		return nil, domain.ErrBookingCancelled
	case domain.BookingStatusCheckedIn:
		return nil, domain.ErrAlreadyCheckedIn
	case domain.BookingStatusConfirmed:
	default:
		return nil, errs.Mark(errs.Newf("booking %s is %s", code, current.Status), domain.ErrInvalidState)
	}

	return s.bookings.SetCheckedIn(ctx, code, time.Now())
}

func (s *BookingService) Ticket(ctx context.Context, subject domain.Subject, code string) (*domain.Ticket, error) {
	booking, err := s.GetByCode(ctx, subject, code)
	if err != nil {
		return nil, err
	}
	flight, err := s.flights.GetByID(ctx, booking.FlightID)
	if err != nil {
		return nil, err
	}

	return &domain.Ticket{
		BookingCode:   booking.Code,
		PassengerName: booking.PassengerName,
		FlightNumber:  flight.FlightNumber,
		Origin:        flight.Origin,
		Destination:   flight.Destination,
		DepartureTime: flight.DepartureTime,
		SeatNumber:    booking.SeatNumber,
		Status:        booking.Status,
	}, nil
}

// StuckCompensating lists bookings whose rollback never finished; the
// worker reports them for manual reconciliation since retrying
// compensation is not guaranteed to converge.
func (s *BookingService) StuckCompensating(ctx context.Context, olderThan time.Time) ([]domain.Booking, error) {
	return s.bookings.ListStuckCompensating(ctx, olderThan)
}

func (s *BookingService) publish(ctx context.Context, eventType string, booking *domain.Booking) {
	if s.producer == nil || s.eventsTopic == "" {
		return
	}
	event := kafka.BookingEvent{
		Type:        eventType,
		BookingCode: booking.Code,
		FlightID:    booking.FlightID,
		SeatNumber:  booking.SeatNumber,
		UserID:      booking.UserID,
		Passenger:   booking.PassengerName,
		Status:      string(booking.Status),
		AmountCents: booking.AmountCents,
		OccurredAt:  time.Now(),
	}
	if err := s.producer.Publish(ctx, s.eventsTopic, booking.Code, event); err != nil {
		slog.Warn("failed to publish booking event", "type", eventType, "booking", booking.Code, "error", err)
	}
}

var _ BookingUseCase = (*BookingService)(nil)
