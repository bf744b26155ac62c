package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/zvrva/skybooker/config"
	"github.com/zvrva/skybooker/internal/email"
	"github.com/zvrva/skybooker/internal/kafka"
	"github.com/zvrva/skybooker/internal/repository"
)

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	bookingRepo := repository.NewBookingRepository(pool)

	emailSender := email.NewSender()

	consume := func(consumer *kafka.Consumer) {
		if err := consumer.Consume(ctx, emailSender.Send); err != nil {
			slog.Error("consumer stopped", "error", err)
		}
	}

	// Booking lifecycle events and payment notifications land on separate
	// topics; both feed the same sender.
	events := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.BookingEventsTopic)
	defer events.Close()
	go consume(events)

	if cfg.Kafka.NotificationsTopic != "" {
		notifications := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.NotificationsTopic)
		defer notifications.Close()
		go consume(notifications)
	}

	sweep := time.Duration(cfg.Worker.ReconcileSweepMinutes) * time.Minute
	if sweep == 0 {
		sweep = 5 * time.Minute
	}
	ticker := time.NewTicker(sweep)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			// A booking stuck in COMPENSATING means a rollback never
			// finished. Automatic retry is not guaranteed to converge,
			// so they are reported for manual reconciliation.
			stuck, err := bookingRepo.ListStuckCompensating(ctx, time.Now().Add(-sweep))
			if err != nil {
				slog.Error("reconciliation sweep failed", "error", err)
				continue
			}
			for _, b := range stuck {
				slog.Warn("booking requires manual reconciliation",
					"booking", b.Code,
					"flight_id", b.FlightID,
					"seat", b.SeatNumber,
					"stuck_since", b.UpdatedAt,
				)
			}
		case <-ctx.Done():
			slog.Info("worker shutting down")
			return
		}
	}
}
