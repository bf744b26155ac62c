// Package inventory owns per-flight seat counts. All mutation goes through
// an atomic reserve/release pair with a floor at zero and a ceiling at the
// flight's total, serialized per flight id so the canonical race (two
// customers both reading "1 seat left" and both succeeding) cannot happen.
package inventory

import (
	"context"

	"github.com/zvrva/skybooker/internal/errs"
)

var (
	ErrUnknownFlight = errs.New("flight is not registered in the ledger")
	// ErrOverRelease means a caller tried to put back more seats than were
	// ever taken. The state machine is supposed to make this impossible, so
	// it surfaces loudly instead of being clamped.
	ErrOverRelease = errs.New("release would exceed total seats")
)

// Ledger is the seat inventory contract. Reserve fails atomically when
// fewer than count seats remain; there is no partial decrement. Both calls
// return the new available count.
type Ledger interface {
	Reserve(ctx context.Context, flightID int64, count int) (int, error)
	Release(ctx context.Context, flightID int64, count int) (int, error)
}
