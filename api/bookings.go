package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/zvrva/skybooker/internal/domain"
	"github.com/zvrva/skybooker/internal/service/booking"
)

type BookingHandler struct {
	service booking.BookingUseCase
}

type createBookingRequest struct {
	FlightID          int64  `json:"flight_id"`
	SeatNumber        string `json:"seat_number"`
	PassengerName     string `json:"passenger_name"`
	PassengerDocument string `json:"passenger_document"`
	PaymentMethod     string `json:"payment_method"`
	CardNumber        string `json:"card_number"`
}

type bookingResponse struct {
	Code          string `json:"booking_code"`
	FlightID      int64  `json:"flight_id"`
	SeatNumber    string `json:"seat_number"`
	PassengerName string `json:"passenger_name"`
	AmountCents   int64  `json:"amount_cents"`
	Status        string `json:"status"`
	CheckedInAt   string `json:"checked_in_at,omitempty"`
	CreatedAt     string `json:"created_at"`
}

func toBookingResponse(b *domain.Booking) bookingResponse {
	resp := bookingResponse{
		Code:          b.Code,
		FlightID:      b.FlightID,
		SeatNumber:    b.SeatNumber,
		PassengerName: b.PassengerName,
		AmountCents:   b.AmountCents,
		Status:        string(b.Status),
		CreatedAt:     b.CreatedAt.Format(time.RFC3339),
	}
	if b.CheckedInAt != nil {
		resp.CheckedInAt = b.CheckedInAt.Format(time.RFC3339)
	}
	return resp
}

func NewBookingHandler(service booking.BookingUseCase) *BookingHandler {
	return &BookingHandler{service: service}
}

func (h *BookingHandler) Register(router *gin.RouterGroup, authMW *AuthMiddleware) {
	router.Use(authMW.RequireAuth())
	router.POST("/", h.create)
	router.GET("/:code", h.get)
	router.GET("/user/:id", h.listByUser)
	router.GET("/:code/ticket", h.ticket)
	router.POST("/:code/checkin", h.checkin)
	router.DELETE("/:code", h.cancel)
}

func (h *BookingHandler) create(c *gin.Context) {
	subject, ok := Subject(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "access token required"})
		return
	}

	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	created, err := h.service.CreateBooking(c.Request.Context(), subject, booking.CreateBookingInput{
		FlightID:          req.FlightID,
		SeatNumber:        req.SeatNumber,
		PassengerName:     req.PassengerName,
		PassengerDocument: req.PassengerDocument,
		Method:            domain.PaymentMethod(req.PaymentMethod),
		CardNumber:        req.CardNumber,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toBookingResponse(created))
}

func (h *BookingHandler) get(c *gin.Context) {
	subject, ok := Subject(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "access token required"})
		return
	}

	found, err := h.service.GetByCode(c.Request.Context(), subject, c.Param("code"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toBookingResponse(found))
}

func (h *BookingHandler) listByUser(c *gin.Context) {
	subject, ok := Subject(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "access token required"})
		return
	}

	userID, err := parseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	bookings, err := h.service.ListByUser(c.Request.Context(), subject, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := make([]bookingResponse, 0, len(bookings))
	for i := range bookings {
		resp = append(resp, toBookingResponse(&bookings[i]))
	}
	c.JSON(http.StatusOK, resp)
}

func (h *BookingHandler) ticket(c *gin.Context) {
	subject, ok := Subject(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "access token required"})
		return
	}

	ticket, err := h.service.Ticket(c.Request.Context(), subject, c.Param("code"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"booking_code":   ticket.BookingCode,
		"passenger_name": ticket.PassengerName,
		"flight_number":  ticket.FlightNumber,
		"origin":         ticket.Origin,
		"destination":    ticket.Destination,
		"departure_time": ticket.DepartureTime.Format(time.RFC3339),
		"seat_number":    ticket.SeatNumber,
		"status":         string(ticket.Status),
	})
}

func (h *BookingHandler) checkin(c *gin.Context) {
	subject, ok := Subject(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "access token required"})
		return
	}

	checked, err := h.service.CheckIn(c.Request.Context(), subject, c.Param("code"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toBookingResponse(checked))
}

func (h *BookingHandler) cancel(c *gin.Context) {
	subject, ok := Subject(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "access token required"})
		return
	}

	cancelled, err := h.service.CancelBooking(c.Request.Context(), subject, c.Param("code"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toBookingResponse(cancelled))
}
