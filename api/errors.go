package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/zvrva/skybooker/internal/domain"
	"github.com/zvrva/skybooker/internal/errs"
)

// respondError maps the orchestration error taxonomy onto HTTP statuses.
// CompensationFailed is flagged separately: the caller's money and seat
// may be in an inconsistent state and an operator has to look.
func respondError(c *gin.Context, err error) {
	switch {
	case errs.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errs.Is(err, domain.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errs.Is(err, domain.ErrSeatConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "seat is already taken"})
	case errs.Is(err, domain.ErrNoCapacity):
		c.JSON(http.StatusConflict, gin.H{"error": "no seats available on this flight"})
	case errs.Is(err, domain.ErrPaymentFailed):
		c.JSON(http.StatusPaymentRequired, gin.H{"error": "payment declined, verify your payment details"})
	case errs.Is(err, domain.ErrPaymentUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "payment service unavailable, booking was not completed"})
	case errs.Is(err, domain.ErrCompensationFailed):
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":                 "booking failed and could not be fully rolled back",
			"reconciliation_needed": true,
		})
	case errs.Is(err, domain.ErrInvalidState):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	}
}
