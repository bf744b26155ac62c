package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/zvrva/skybooker/api"
	"github.com/zvrva/skybooker/config"
	"github.com/zvrva/skybooker/internal/auth"
	"github.com/zvrva/skybooker/internal/service/booking"
	"github.com/zvrva/skybooker/internal/service/flights"
	"github.com/zvrva/skybooker/internal/service/payments"
)

// Run starts the HTTP server and blocks until the context is canceled or
// the server fails.
func Run(ctx context.Context, cfg *config.Config, verifier auth.Verifier, flightSvc flights.FlightUseCase, bookingSvc booking.BookingUseCase, paymentSvc payments.PaymentUseCase) error {
	router := gin.Default()

	authMW := api.NewAuthMiddleware(verifier)
	api.NewFlightHandler(flightSvc).Register(router.Group("/flights"), authMW)
	api.NewBookingHandler(bookingSvc).Register(router.Group("/bookings"), authMW)
	api.NewPaymentHandler(paymentSvc).Register(router.Group("/payments"), authMW)

	httpSrv := &http.Server{
		Addr:    cfg.HTTP.Address,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- httpSrv.ListenAndServe() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	}
}
