package inventory

import (
	"context"
	"sync"

	"github.com/zvrva/skybooker/internal/domain"
	"github.com/zvrva/skybooker/internal/errs"
)

type counter struct {
	mu        sync.Mutex
	available int
	total     int
}

// Memory is an in-process Ledger keyed by flight id. Each flight has its
// own mutex, so reservations on different flights never contend; the map
// itself is guarded separately and only for lookup/registration.
type Memory struct {
	mu      sync.RWMutex
	flights map[int64]*counter
}

func NewMemory() *Memory {
	return &Memory{flights: make(map[int64]*counter)}
}

// Register seeds the ledger with a flight's capacity. Registering an
// existing flight id resets its counters.
func (m *Memory) Register(flightID int64, totalSeats int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.flights[flightID] = &counter{available: totalSeats, total: totalSeats}
}

func (m *Memory) lookup(flightID int64) (*counter, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.flights[flightID]
	if !ok {
		return nil, errs.Mark(errs.Newf("flight %d is not registered", flightID), ErrUnknownFlight)
	}
	return c, nil
}

func (m *Memory) Reserve(ctx context.Context, flightID int64, count int) (int, error) {
	c, err := m.lookup(flightID)
	if err != nil {
		return 0, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.available < count {
		return c.available, errs.Mark(errs.Newf("flight %d: %d of %d seats requested", flightID, count, c.available), domain.ErrNoCapacity)
	}
	c.available -= count
	return c.available, nil
}

func (m *Memory) Release(ctx context.Context, flightID int64, count int) (int, error) {
	c, err := m.lookup(flightID)
	if err != nil {
		return 0, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.available+count > c.total {
		return c.available, errs.Mark(errs.Newf("flight %d: release of %d with %d/%d available", flightID, count, c.available, c.total), ErrOverRelease)
	}
	c.available += count
	return c.available, nil
}

// Available reports the current count without mutating it.
func (m *Memory) Available(flightID int64) int {
	c, err := m.lookup(flightID)
	if err != nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.available
}

var _ Ledger = (*Memory)(nil)
