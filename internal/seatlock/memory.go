package seatlock

import (
	"context"
	"fmt"
	"sync"
	"time"
)

type claim struct {
	bookingCode string
	expiresAt   time.Time // zero means no expiry
}

// MemoryTable is an in-process Table, used when redis is not configured
// and in tests. One mutex guards the map; claims for independent seats
// never conflict because the key is the (flight, seat) pair.
type MemoryTable struct {
	mu     sync.Mutex
	claims map[string]claim
	now    func() time.Time
}

func NewMemoryTable() *MemoryTable {
	return &MemoryTable{claims: make(map[string]claim), now: time.Now}
}

func (t *MemoryTable) Acquire(ctx context.Context, flightID int64, seat string, bookingCode string, ttl time.Duration) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	key := pairKey(flightID, seat)
	if c, ok := t.claims[key]; ok {
		if c.expiresAt.IsZero() || c.expiresAt.After(t.now()) {
			return false, nil
		}
	}

	c := claim{bookingCode: bookingCode}
	if ttl > 0 {
		c.expiresAt = t.now().Add(ttl)
	}
	t.claims[key] = c
	return true, nil
}

func (t *MemoryTable) Release(ctx context.Context, flightID int64, seat string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.claims, pairKey(flightID, seat))
	return nil
}

func (t *MemoryTable) Persist(ctx context.Context, flightID int64, seat string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	key := pairKey(flightID, seat)
	if c, ok := t.claims[key]; ok {
		c.expiresAt = time.Time{}
		t.claims[key] = c
	}
	return nil
}

// Holder reports the booking code owning a live claim, if any.
func (t *MemoryTable) Holder(flightID int64, seat string) (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	c, ok := t.claims[pairKey(flightID, seat)]
	if !ok {
		return "", false
	}
	if !c.expiresAt.IsZero() && !c.expiresAt.After(t.now()) {
		return "", false
	}
	return c.bookingCode, true
}

func pairKey(flightID int64, seat string) string {
	return fmt.Sprintf("%d:%s", flightID, seat)
}

var _ Table = (*MemoryTable)(nil)
