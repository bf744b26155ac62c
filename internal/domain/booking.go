package domain

import (
	"math/rand/v2"
	"time"

	"github.com/zvrva/skybooker/internal/errs"
)

type BookingStatus string

const (
	BookingStatusInitiated          BookingStatus = "INITIATED"
	BookingStatusSeatHeld           BookingStatus = "SEAT_HELD"
	BookingStatusInventoryCommitted BookingStatus = "INVENTORY_COMMITTED"
	BookingStatusPaymentPending     BookingStatus = "PAYMENT_PENDING"
	BookingStatusConfirmed          BookingStatus = "CONFIRMED"
	BookingStatusCheckedIn          BookingStatus = "CHECKED_IN"
	BookingStatusCompensating       BookingStatus = "COMPENSATING"
	BookingStatusCancelled          BookingStatus = "CANCELLED"
)

type Booking struct {
	ID                int64
	Code              string
	FlightID          int64
	UserID            int64
	PassengerName     string
	PassengerDocument string
	SeatNumber        string
	AmountCents       int64
	Status            BookingStatus
	CheckedInAt       *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// bookingTransitions is the full lifecycle graph. Failure exits go through
// COMPENSATING so a half-committed booking is never left in a forward state.
var bookingTransitions = map[BookingStatus][]BookingStatus{
	BookingStatusInitiated:          {BookingStatusSeatHeld, BookingStatusCompensating},
	BookingStatusSeatHeld:           {BookingStatusInventoryCommitted, BookingStatusCompensating},
	BookingStatusInventoryCommitted: {BookingStatusPaymentPending, BookingStatusCompensating},
	BookingStatusPaymentPending:     {BookingStatusConfirmed, BookingStatusCompensating},
	BookingStatusConfirmed:          {BookingStatusCheckedIn, BookingStatusCancelled},
	BookingStatusCheckedIn:          {BookingStatusCancelled},
	BookingStatusCompensating:       {BookingStatusCancelled},
	BookingStatusCancelled:          {},
}

// Transition moves the booking to next if the lifecycle graph allows it.
// Any disallowed move is an ErrInvalidState.
func (b *Booking) Transition(next BookingStatus) error {
	for _, allowed := range bookingTransitions[b.Status] {
		if allowed == next {
			b.Status = next
			return nil
		}
	}
	return errs.Mark(errs.Newf("booking %s: cannot move %s -> %s", b.Code, b.Status, next), ErrInvalidState)
}

func (b *Booking) Terminal() bool {
	return b.Status == BookingStatusCancelled
}

// Ticket joins a booking with its flight metadata for presentation.
type Ticket struct {
	BookingCode   string
	PassengerName string
	FlightNumber  string
	Origin        string
	Destination   string
	DepartureTime time.Time
	SeatNumber    string
	Status        BookingStatus
}

const bookingCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// NewBookingCode returns a 6-character uppercase alphanumeric code.
// It is user-presentable and guessing-resistant, not unique by itself:
// the bookings table's unique constraint is the authority, callers
// regenerate on collision.
func NewBookingCode() string {
	buf := make([]byte, 6)
	for i := range buf {
		buf[i] = bookingCodeAlphabet[rand.IntN(len(bookingCodeAlphabet))]
	}
	return string(buf)
}
