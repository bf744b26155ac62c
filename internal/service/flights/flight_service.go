package flights

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/zvrva/skybooker/internal/auth"
	"github.com/zvrva/skybooker/internal/domain"
	"github.com/zvrva/skybooker/internal/errs"
	"github.com/zvrva/skybooker/internal/repository"
)

type FlightUseCase interface {
	Create(ctx context.Context, subject domain.Subject, input CreateFlightInput) (*domain.Flight, error)
	List(ctx context.Context) ([]domain.Flight, error)
	Search(ctx context.Context, filter domain.FlightFilter) ([]domain.Flight, error)
	GetByID(ctx context.Context, id int64) (*domain.Flight, error)
	UpdateSeats(ctx context.Context, subject domain.Subject, id int64, totalSeats int) (*domain.Flight, error)
	Delete(ctx context.Context, subject domain.Subject, id int64) error
}

type Cache interface {
	GetFlights(ctx context.Context) ([]domain.Flight, error)
	SetFlights(ctx context.Context, flights []domain.Flight) error
	InvalidateFlights(ctx context.Context) error
}

type CreateFlightInput struct {
	Origin        string    `json:"origin"`
	Destination   string    `json:"destination"`
	DepartureTime time.Time `json:"departure_time"`
	ArrivalTime   time.Time `json:"arrival_time"`
	PriceCents    int64     `json:"price_cents"`
	TotalSeats    int       `json:"total_seats"`
	AirlineID     int64     `json:"airline_id"`
}

type FlightService struct {
	repo   repository.FlightRepository
	cache  Cache
	policy auth.Policy
}

func NewFlightService(repo repository.FlightRepository, cache Cache, policy auth.Policy) *FlightService {
	return &FlightService{repo: repo, cache: cache, policy: policy}
}

func (s *FlightService) Create(ctx context.Context, subject domain.Subject, input CreateFlightInput) (*domain.Flight, error) {
	if !s.policy.Allow(subject, 0, auth.ActionCreateFlight) {
		return nil, domain.ErrForbidden
	}
	if !input.DepartureTime.Before(input.ArrivalTime) {
		return nil, errs.New("arrival must be after departure")
	}
	if input.TotalSeats <= 0 {
		return nil, errs.New("total seats must be positive")
	}

	flight := &domain.Flight{
		FlightNumber:  fmt.Sprintf("FL-%04d", rand.IntN(9000)+1000),
		Origin:        strings.ToUpper(input.Origin),
		Destination:   strings.ToUpper(input.Destination),
		DepartureTime: input.DepartureTime,
		ArrivalTime:   input.ArrivalTime,
		TotalSeats:    input.TotalSeats,
		PriceCents:    input.PriceCents,
		AirlineID:     input.AirlineID,
	}
	if err := s.repo.Create(ctx, flight); err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return flight, nil
}

func (s *FlightService) List(ctx context.Context) ([]domain.Flight, error) {
	if s.cache != nil {
		if cached, err := s.cache.GetFlights(ctx); err == nil && cached != nil {
			return cached, nil
		}
	}

	flights, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		_ = s.cache.SetFlights(ctx, flights)
	}
	return flights, nil
}

// Search bypasses the cache: filters vary per request and only flights
// with seats left are returned.
func (s *FlightService) Search(ctx context.Context, filter domain.FlightFilter) ([]domain.Flight, error) {
	filter.Origin = strings.ToUpper(filter.Origin)
	filter.Destination = strings.ToUpper(filter.Destination)
	return s.repo.Search(ctx, filter)
}

func (s *FlightService) GetByID(ctx context.Context, id int64) (*domain.Flight, error) {
	return s.repo.GetByID(ctx, id)
}

// UpdateSeats resizes a flight's capacity. Existing bookings keep their
// seats: a reduction only eats into the unbooked remainder and is
// rejected once it would cut below the booked count.
func (s *FlightService) UpdateSeats(ctx context.Context, subject domain.Subject, id int64, totalSeats int) (*domain.Flight, error) {
	if !s.policy.Allow(subject, 0, auth.ActionUpdateFlight) {
		return nil, domain.ErrForbidden
	}
	if totalSeats <= 0 {
		return nil, errs.New("total seats must be positive")
	}

	flight, err := s.repo.UpdateSeats(ctx, id, totalSeats)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return flight, nil
}

// Delete removes a flight. Whether confirmed bookings against a deleted
// flight stay valid is an unresolved policy decision; the delete itself
// does not cascade into bookings.
func (s *FlightService) Delete(ctx context.Context, subject domain.Subject, id int64) error {
	if !s.policy.Allow(subject, 0, auth.ActionDeleteFlight) {
		return domain.ErrForbidden
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

func (s *FlightService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateFlights(ctx); err != nil {
		slog.Warn("failed to invalidate flights cache", "error", err)
	}
}

var _ FlightUseCase = (*FlightService)(nil)
