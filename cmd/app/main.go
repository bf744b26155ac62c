package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/zvrva/skybooker/config"
	"github.com/zvrva/skybooker/internal/auth"
	"github.com/zvrva/skybooker/internal/bootstrap"
	"github.com/zvrva/skybooker/internal/cache"
	"github.com/zvrva/skybooker/internal/kafka"
	"github.com/zvrva/skybooker/internal/repository"
	"github.com/zvrva/skybooker/internal/seatlock"
	"github.com/zvrva/skybooker/internal/service/booking"
	"github.com/zvrva/skybooker/internal/service/flights"
	"github.com/zvrva/skybooker/internal/service/payments"
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

	producer := kafka.NewProducer(cfg.Kafka.Brokers)
	defer producer.Close()

	flightRepo := repository.NewFlightRepository(pool)
	bookingRepo := repository.NewBookingRepository(pool)
	paymentRepo := repository.NewPaymentRepository(pool)

	var flightsCache flights.Cache
	var locks seatlock.Table = seatlock.NewMemoryTable()
	if cfg.Redis.Addr != "" {
		redisCache := cache.NewRedisCache(cfg.Redis, time.Duration(cfg.Booking.FlightsCacheTTL)*time.Second)
		flightsCache = redisCache
		locks = seatlock.NewRedisTable(redisCache.Client())
	}

	policy := auth.NewPolicy()
	verifier := auth.NewJWTVerifier(cfg.Auth.JWTSecret, time.Duration(cfg.Auth.TokenTTLMinutes)*time.Minute)

	flightService := flights.NewFlightService(flightRepo, flightsCache, policy)
	paymentService := payments.NewPaymentService(paymentRepo, policy, producer, cfg.Kafka.NotificationsTopic)
	bookingService := booking.NewBookingService(
		bookingRepo,
		flightRepo,
		paymentRepo,
		flightRepo,
		locks,
		payments.NewStubGateway(),
		policy,
		producer,
		cfg.Kafka.BookingEventsTopic,
		time.Duration(cfg.Booking.HoldTTLMinutes)*time.Minute,
		time.Duration(cfg.Payment.TimeoutSeconds)*time.Second,
		booking.WithPaymentRetries(cfg.Payment.MaxRetries),
	)

	if err := bootstrap.Run(ctx, cfg, verifier, flightService, bookingService, paymentService); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
