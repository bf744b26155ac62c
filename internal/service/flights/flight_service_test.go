package flights

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/zvrva/skybooker/internal/auth"
	"github.com/zvrva/skybooker/internal/domain"
	"github.com/zvrva/skybooker/internal/errs"
)

type MockFlightRepository struct {
	mock.Mock
}

func (m *MockFlightRepository) Create(ctx context.Context, flight *domain.Flight) error {
	args := m.Called(ctx, flight)
	return args.Error(0)
}

func (m *MockFlightRepository) List(ctx context.Context) ([]domain.Flight, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Flight), args.Error(1)
}

func (m *MockFlightRepository) Search(ctx context.Context, filter domain.FlightFilter) ([]domain.Flight, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]domain.Flight), args.Error(1)
}

func (m *MockFlightRepository) GetByID(ctx context.Context, id int64) (*domain.Flight, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Flight), args.Error(1)
}

func (m *MockFlightRepository) UpdateSeats(ctx context.Context, id int64, totalSeats int) (*domain.Flight, error) {
	args := m.Called(ctx, id, totalSeats)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Flight), args.Error(1)
}

func (m *MockFlightRepository) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockFlightRepository) Reserve(ctx context.Context, flightID int64, count int) (int, error) {
	args := m.Called(ctx, flightID, count)
	return args.Int(0), args.Error(1)
}

func (m *MockFlightRepository) Release(ctx context.Context, flightID int64, count int) (int, error) {
	args := m.Called(ctx, flightID, count)
	return args.Int(0), args.Error(1)
}

type MockCache struct {
	mock.Mock
}

func (m *MockCache) GetFlights(ctx context.Context) ([]domain.Flight, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Flight), args.Error(1)
}

func (m *MockCache) SetFlights(ctx context.Context, flights []domain.Flight) error {
	args := m.Called(ctx, flights)
	return args.Error(0)
}

func (m *MockCache) InvalidateFlights(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

var (
	airline = domain.Subject{UserID: 3, Role: domain.RoleAirline}
	admin   = domain.Subject{UserID: 1, Role: domain.RoleAdmin}
)

func validInput() CreateFlightInput {
	departure := time.Date(2026, 10, 2, 9, 30, 0, 0, time.UTC)
	return CreateFlightInput{
		Origin:        "lis",
		Destination:   "ams",
		DepartureTime: departure,
		ArrivalTime:   departure.Add(3 * time.Hour),
		PriceCents:    15000,
		TotalSeats:    180,
		AirlineID:     3,
	}
}

func TestFlightService_Create(t *testing.T) {
	repo := &MockFlightRepository{}
	cache := &MockCache{}
	service := NewFlightService(repo, cache, auth.NewPolicy())
	ctx := context.Background()

	repo.On("Create", ctx, mock.AnythingOfType("*domain.Flight")).Return(nil).Once()
	cache.On("InvalidateFlights", ctx).Return(nil).Once()

	flight, err := service.Create(ctx, airline, validInput())

	assert.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^FL-\d{4}$`), flight.FlightNumber)
	assert.Equal(t, "LIS", flight.Origin)
	assert.Equal(t, "AMS", flight.Destination)
	assert.Equal(t, 180, flight.TotalSeats)

	repo.AssertExpectations(t)
	cache.AssertExpectations(t)
}

func TestFlightService_Create_Forbidden(t *testing.T) {
	repo := &MockFlightRepository{}
	service := NewFlightService(repo, nil, auth.NewPolicy())
	ctx := context.Background()

	_, err := service.Create(ctx, domain.Subject{UserID: 9, Role: domain.RoleCustomer}, validInput())
	assert.ErrorIs(t, err, domain.ErrForbidden)

	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestFlightService_Create_Validation(t *testing.T) {
	repo := &MockFlightRepository{}
	service := NewFlightService(repo, nil, auth.NewPolicy())
	ctx := context.Background()

	backwards := validInput()
	backwards.ArrivalTime = backwards.DepartureTime.Add(-time.Hour)
	_, err := service.Create(ctx, airline, backwards)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "arrival must be after departure")

	empty := validInput()
	empty.TotalSeats = 0
	_, err = service.Create(ctx, airline, empty)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "total seats must be positive")

	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestFlightService_List_CacheMiss(t *testing.T) {
	repo := &MockFlightRepository{}
	cache := &MockCache{}
	service := NewFlightService(repo, cache, auth.NewPolicy())
	ctx := context.Background()

	stored := []domain.Flight{{ID: 1, FlightNumber: "FL-1040"}}
	cache.On("GetFlights", ctx).Return(nil, errors.New("cache miss")).Once()
	repo.On("List", ctx).Return(stored, nil).Once()
	cache.On("SetFlights", ctx, stored).Return(nil).Once()

	flights, err := service.List(ctx)
	assert.NoError(t, err)
	assert.Equal(t, stored, flights)

	cache.AssertExpectations(t)
	repo.AssertExpectations(t)
}

func TestFlightService_List_CacheHit(t *testing.T) {
	repo := &MockFlightRepository{}
	cache := &MockCache{}
	service := NewFlightService(repo, cache, auth.NewPolicy())
	ctx := context.Background()

	cached := []domain.Flight{{ID: 1, FlightNumber: "FL-1040"}}
	cache.On("GetFlights", ctx).Return(cached, nil).Once()

	flights, err := service.List(ctx)
	assert.NoError(t, err)
	assert.Equal(t, cached, flights)

	repo.AssertNotCalled(t, "List", mock.Anything)
}

func TestFlightService_List_NoCache(t *testing.T) {
	repo := &MockFlightRepository{}
	service := NewFlightService(repo, nil, auth.NewPolicy())
	ctx := context.Background()

	repo.On("List", ctx).Return([]domain.Flight{}, nil).Once()

	_, err := service.List(ctx)
	assert.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestFlightService_Search_UppercasesFilter(t *testing.T) {
	repo := &MockFlightRepository{}
	service := NewFlightService(repo, nil, auth.NewPolicy())
	ctx := context.Background()

	want := domain.FlightFilter{Origin: "LIS", Destination: "AMS"}
	repo.On("Search", ctx, want).Return([]domain.Flight{}, nil).Once()

	_, err := service.Search(ctx, domain.FlightFilter{Origin: "lis", Destination: "ams"})
	assert.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestFlightService_UpdateSeats(t *testing.T) {
	repo := &MockFlightRepository{}
	cache := &MockCache{}
	service := NewFlightService(repo, cache, auth.NewPolicy())
	ctx := context.Background()

	resized := &domain.Flight{ID: 7, TotalSeats: 200, AvailableSeats: 23}
	repo.On("UpdateSeats", ctx, int64(7), 200).Return(resized, nil).Once()
	cache.On("InvalidateFlights", ctx).Return(nil).Once()

	flight, err := service.UpdateSeats(ctx, airline, 7, 200)
	assert.NoError(t, err)
	assert.Equal(t, resized, flight)

	repo.AssertExpectations(t)
	cache.AssertExpectations(t)
}

func TestFlightService_UpdateSeats_Forbidden(t *testing.T) {
	repo := &MockFlightRepository{}
	service := NewFlightService(repo, nil, auth.NewPolicy())
	ctx := context.Background()

	_, err := service.UpdateSeats(ctx, domain.Subject{UserID: 9, Role: domain.RoleCustomer}, 7, 200)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	repo.AssertNotCalled(t, "UpdateSeats", mock.Anything, mock.Anything, mock.Anything)
}

func TestFlightService_UpdateSeats_Validation(t *testing.T) {
	repo := &MockFlightRepository{}
	service := NewFlightService(repo, nil, auth.NewPolicy())
	ctx := context.Background()

	_, err := service.UpdateSeats(ctx, airline, 7, 0)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "total seats must be positive")

	repo.AssertNotCalled(t, "UpdateSeats", mock.Anything, mock.Anything, mock.Anything)
}

func TestFlightService_UpdateSeats_BelowBookedCount(t *testing.T) {
	repo := &MockFlightRepository{}
	cache := &MockCache{}
	service := NewFlightService(repo, cache, auth.NewPolicy())
	ctx := context.Background()

	cause := errs.Mark(errs.New("5 seats is below the booked count"), domain.ErrNoCapacity)
	repo.On("UpdateSeats", ctx, int64(7), 5).Return(nil, cause).Once()

	_, err := service.UpdateSeats(ctx, admin, 7, 5)
	assert.ErrorIs(t, err, domain.ErrNoCapacity)

	cache.AssertNotCalled(t, "InvalidateFlights", mock.Anything)
}

func TestFlightService_Delete(t *testing.T) {
	repo := &MockFlightRepository{}
	cache := &MockCache{}
	service := NewFlightService(repo, cache, auth.NewPolicy())
	ctx := context.Background()

	repo.On("Delete", ctx, int64(7)).Return(nil).Once()
	cache.On("InvalidateFlights", ctx).Return(nil).Once()

	assert.NoError(t, service.Delete(ctx, admin, 7))

	err := service.Delete(ctx, domain.Subject{UserID: 9, Role: domain.RoleCustomer}, 7)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	repo.AssertNumberOfCalls(t, "Delete", 1)
	cache.AssertExpectations(t)
}
