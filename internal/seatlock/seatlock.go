// Package seatlock prevents two bookings from claiming the same physical
// seat on the same flight at once. A claim is exclusive occupancy intent
// for one (flight, seat) pair; acquisition never blocks, a held pair is
// reported immediately so the caller can fail the attempt with "seat taken".
package seatlock

import (
	"context"
	"time"
)

// Table grants and releases seat claims. Acquire returns false when
// another live claim holds the pair. A claim taken with a ttl expires on
// its own unless Persist is called once the booking is confirmed: a
// confirmed booking keeps its claim until explicit cancellation.
type Table interface {
	Acquire(ctx context.Context, flightID int64, seat string, bookingCode string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, flightID int64, seat string) error
	Persist(ctx context.Context, flightID int64, seat string) error
}
