package email

import (
	"context"
	"log/slog"

	"github.com/zvrva/skybooker/internal/kafka"
)

type Sender struct{}

func NewSender() *Sender {
	return &Sender{}
}

func (s *Sender) Send(ctx context.Context, event kafka.BookingEvent) error {
	slog.Info("sending booking notification",
		"type", event.Type,
		"booking", event.BookingCode,
		"passenger", event.Passenger,
		"flight_id", event.FlightID,
		"seat", event.SeatNumber,
	)
	return nil
}
