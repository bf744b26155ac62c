package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/zvrva/skybooker/internal/domain"
	"github.com/zvrva/skybooker/internal/service/payments"
)

type PaymentHandler struct {
	service payments.PaymentUseCase
}

type paymentResponse struct {
	ID            int64  `json:"id"`
	BookingCode   string `json:"booking_code"`
	UserID        int64  `json:"user_id"`
	AmountCents   int64  `json:"amount_cents"`
	Method        string `json:"payment_method"`
	TransactionID string `json:"transaction_id"`
	Status        string `json:"status"`
	CreatedAt     string `json:"created_at"`
}

func toPaymentResponse(p *domain.Payment) paymentResponse {
	return paymentResponse{
		ID:            p.ID,
		BookingCode:   p.BookingCode,
		UserID:        p.UserID,
		AmountCents:   p.AmountCents,
		Method:        string(p.Method),
		TransactionID: p.TransactionID,
		Status:        string(p.Status),
		CreatedAt:     p.CreatedAt.Format(time.RFC3339),
	}
}

func NewPaymentHandler(service payments.PaymentUseCase) *PaymentHandler {
	return &PaymentHandler{service: service}
}

func (h *PaymentHandler) Register(router *gin.RouterGroup, authMW *AuthMiddleware) {
	router.Use(authMW.RequireAuth())
	router.GET("/:id", h.get)
	router.GET("/user/:id", h.listByUser)
	router.GET("/:id/invoice", h.invoice)
	router.POST("/:id/refund", h.refund)
}

func (h *PaymentHandler) get(c *gin.Context) {
	subject, ok := Subject(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "access token required"})
		return
	}

	id, err := parseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	payment, err := h.service.GetByID(c.Request.Context(), subject, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toPaymentResponse(payment))
}

func (h *PaymentHandler) listByUser(c *gin.Context) {
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

	list, err := h.service.ListByUser(c.Request.Context(), subject, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := make([]paymentResponse, 0, len(list))
	for i := range list {
		resp = append(resp, toPaymentResponse(&list[i]))
	}
	c.JSON(http.StatusOK, resp)
}

func (h *PaymentHandler) invoice(c *gin.Context) {
	subject, ok := Subject(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "access token required"})
		return
	}

	id, err := parseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	invoice, err := h.service.Invoice(c.Request.Context(), subject, id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"invoice_number": invoice.InvoiceNumber,
		"payment_id":     invoice.PaymentID,
		"booking_code":   invoice.BookingCode,
		"amount_cents":   invoice.AmountCents,
		"payment_method": string(invoice.Method),
		"transaction_id": invoice.TransactionID,
		"issued_at":      invoice.IssuedAt.Format(time.RFC3339),
	})
}

func (h *PaymentHandler) refund(c *gin.Context) {
	subject, ok := Subject(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "access token required"})
		return
	}

	id, err := parseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	refunded, err := h.service.Refund(c.Request.Context(), subject, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toPaymentResponse(refunded))
}
