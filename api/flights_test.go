package api

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/zvrva/skybooker/internal/domain"
	"github.com/zvrva/skybooker/internal/service/flights"
)

type MockFlightUseCase struct {
	mock.Mock
}

func (m *MockFlightUseCase) Create(ctx context.Context, subject domain.Subject, input flights.CreateFlightInput) (*domain.Flight, error) {
	args := m.Called(ctx, subject, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Flight), args.Error(1)
}

func (m *MockFlightUseCase) List(ctx context.Context) ([]domain.Flight, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Flight), args.Error(1)
}

func (m *MockFlightUseCase) Search(ctx context.Context, filter domain.FlightFilter) ([]domain.Flight, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]domain.Flight), args.Error(1)
}

func (m *MockFlightUseCase) GetByID(ctx context.Context, id int64) (*domain.Flight, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Flight), args.Error(1)
}

func (m *MockFlightUseCase) UpdateSeats(ctx context.Context, subject domain.Subject, id int64, totalSeats int) (*domain.Flight, error) {
	args := m.Called(ctx, subject, id, totalSeats)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Flight), args.Error(1)
}

func (m *MockFlightUseCase) Delete(ctx context.Context, subject domain.Subject, id int64) error {
	args := m.Called(ctx, subject, id)
	return args.Error(0)
}

func flightRouter(service flights.FlightUseCase, subject domain.Subject) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	authMW := NewAuthMiddleware(stubVerifier{subject: subject})
	NewFlightHandler(service).Register(router.Group("/flights"), authMW)
	return router
}

func TestFlightHandler_List_Public(t *testing.T) {
	service := &MockFlightUseCase{}
	router := flightRouter(service, domain.Subject{})

	service.On("List", mock.Anything).Return([]domain.Flight{{ID: 1, FlightNumber: "FL-1040"}}, nil).Once()

	// No token: listing is public.
	w := doRequest(router, http.MethodGet, "/flights/", "", "")
	assert.Equal(t, http.StatusOK, w.Code)

	var resp []domain.Flight
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp, 1)
}

func TestFlightHandler_Search(t *testing.T) {
	service := &MockFlightUseCase{}
	router := flightRouter(service, domain.Subject{})

	service.On("Search", mock.Anything, mock.AnythingOfType("domain.FlightFilter")).
		Return([]domain.Flight{}, nil).Once()

	w := doRequest(router, http.MethodGet, "/flights/search?origin=LIS&destination=AMS&date=2026-10-02", "", "")
	assert.Equal(t, http.StatusOK, w.Code)

	filter := service.Calls[0].Arguments.Get(1).(domain.FlightFilter)
	assert.Equal(t, "LIS", filter.Origin)
	assert.Equal(t, "AMS", filter.Destination)
	assert.Equal(t, 2026, filter.Date.Year())

	w = doRequest(router, http.MethodGet, "/flights/search?date=tomorrow", "", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestFlightHandler_Get(t *testing.T) {
	service := &MockFlightUseCase{}
	router := flightRouter(service, domain.Subject{})

	service.On("GetByID", mock.Anything, int64(7)).Return(&domain.Flight{ID: 7}, nil).Once()

	w := doRequest(router, http.MethodGet, "/flights/7", "", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = doRequest(router, http.MethodGet, "/flights/abc", "", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	service.On("GetByID", mock.Anything, int64(404)).Return(nil, domain.ErrNotFound).Once()
	w = doRequest(router, http.MethodGet, "/flights/404", "", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestFlightHandler_Create(t *testing.T) {
	airline := domain.Subject{UserID: 3, Role: domain.RoleAirline}
	service := &MockFlightUseCase{}
	router := flightRouter(service, airline)

	created := &domain.Flight{ID: 12, FlightNumber: "FL-1040", Origin: "LIS", Destination: "AMS"}
	service.On("Create", mock.Anything, airline, mock.AnythingOfType("flights.CreateFlightInput")).
		Return(created, nil).Once()

	body := `{"origin":"LIS","destination":"AMS","departure_time":"2026-10-02T09:30:00Z","arrival_time":"2026-10-02T12:30:00Z","price_cents":15000,"total_seats":180,"airline_id":3}`
	w := doRequest(router, http.MethodPost, "/flights/", body, "valid-token")
	assert.Equal(t, http.StatusCreated, w.Code)

	// Creation requires a token.
	w = doRequest(router, http.MethodPost, "/flights/", body, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	service.AssertNumberOfCalls(t, "Create", 1)
}

func TestFlightHandler_Create_Forbidden(t *testing.T) {
	customer := domain.Subject{UserID: 9, Role: domain.RoleCustomer}
	service := &MockFlightUseCase{}
	router := flightRouter(service, customer)

	service.On("Create", mock.Anything, customer, mock.AnythingOfType("flights.CreateFlightInput")).
		Return(nil, domain.ErrForbidden).Once()

	body := `{"origin":"LIS","destination":"AMS","departure_time":"2026-10-02T09:30:00Z","arrival_time":"2026-10-02T12:30:00Z","total_seats":180}`
	w := doRequest(router, http.MethodPost, "/flights/", body, "valid-token")
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestFlightHandler_UpdateSeats(t *testing.T) {
	airline := domain.Subject{UserID: 3, Role: domain.RoleAirline}
	service := &MockFlightUseCase{}
	router := flightRouter(service, airline)

	resized := &domain.Flight{ID: 7, FlightNumber: "FL-1040", TotalSeats: 200, AvailableSeats: 23}
	service.On("UpdateSeats", mock.Anything, airline, int64(7), 200).Return(resized, nil).Once()

	w := doRequest(router, http.MethodPut, "/flights/7/seats", `{"total_seats":200}`, "valid-token")
	assert.Equal(t, http.StatusOK, w.Code)

	var resp domain.Flight
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 200, resp.TotalSeats)

	w = doRequest(router, http.MethodPut, "/flights/7/seats", `{"total_seats":200}`, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doRequest(router, http.MethodPut, "/flights/abc/seats", `{"total_seats":200}`, "valid-token")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	service.AssertNumberOfCalls(t, "UpdateSeats", 1)
}

func TestFlightHandler_UpdateSeats_BelowBookedCount(t *testing.T) {
	airline := domain.Subject{UserID: 3, Role: domain.RoleAirline}
	service := &MockFlightUseCase{}
	router := flightRouter(service, airline)

	service.On("UpdateSeats", mock.Anything, airline, int64(7), 5).Return(nil, domain.ErrNoCapacity).Once()

	w := doRequest(router, http.MethodPut, "/flights/7/seats", `{"total_seats":5}`, "valid-token")
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestFlightHandler_Delete(t *testing.T) {
	admin := domain.Subject{UserID: 1, Role: domain.RoleAdmin}
	service := &MockFlightUseCase{}
	router := flightRouter(service, admin)

	service.On("Delete", mock.Anything, admin, int64(7)).Return(nil).Once()

	w := doRequest(router, http.MethodDelete, "/flights/7", "", "valid-token")
	assert.Equal(t, http.StatusOK, w.Code)

	w = doRequest(router, http.MethodDelete, "/flights/7", "", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	service.AssertNumberOfCalls(t, "Delete", 1)
}
