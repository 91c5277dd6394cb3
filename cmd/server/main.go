package main // Entry point package

import (
	"context"
	"log"

	"github.com/joho/godotenv"   // optional .env loading for local development
	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/rpedro/seatlock/internal/config"
	"github.com/rpedro/seatlock/internal/database"
	"github.com/rpedro/seatlock/internal/events"
	"github.com/rpedro/seatlock/internal/handler"
	"github.com/rpedro/seatlock/internal/idempotency"
	"github.com/rpedro/seatlock/internal/lock"
	"github.com/rpedro/seatlock/internal/reaper"
	"github.com/rpedro/seatlock/internal/repository"
	"github.com/rpedro/seatlock/internal/reservation"
	"github.com/rpedro/seatlock/internal/router"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file found, using system environment variables")
	}

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}

	rdb := config.NewRedisClient(cfg)
	if rdb == nil {
		log.Fatalf("redis: could not connect to %s:%s", cfg.RedisHost, cfg.RedisPort)
	}

	amqpConn, err := config.NewAMQPConnection(cfg)
	if err != nil {
		log.Fatalf("rabbitmq: %v", err)
	}
	defer func() { _ = amqpConn.Close() }()

	publisher, err := events.NewPublisher(amqpConn, events.RetryConfig{
		BaseDelay:  cfg.RetryBaseDelay,
		MaxDelay:   cfg.RetryMaxDelay,
		MaxRetries: cfg.RetryMaxRetries,
	})
	if err != nil {
		log.Fatalf("events: %v", err)
	}
	defer func() { _ = publisher.Close() }()

	locks := lock.New(rdb)
	idem := idempotency.New(rdb)

	seatRepo := repository.NewSeatRepo(db)
	reservationRepo := repository.NewReservationRepo(db)
	saleRepo := repository.NewSaleRepo(db)

	reserver := &reservation.Reserver{
		Locks:                locks,
		Idempotency:          idem,
		Seats:                seatRepo,
		Reservations:         reservationRepo,
		Events:               publisher,
		SeatLockTTL:          cfg.SeatLockTTL,
		ReservationHoldTTL:   cfg.ReservationHoldTTL,
		IdempotencyTTL:       cfg.IdempotencyTTL,
		IdempotencyPollMax:   cfg.IdempotencyPollMax,
		IdempotencyPollEvery: cfg.IdempotencyPollEvery,
	}
	confirmer := &reservation.Confirmer{
		Locks:        locks,
		Seats:        seatRepo,
		Reservations: reservationRepo,
		Sales:        saleRepo,
		Events:       publisher,
	}

	r := &reaper.Reaper{
		Locks:        locks,
		Reservations: reservationRepo,
		Events:       publisher,
		Period:       cfg.ReaperPeriod,
		LeaderTTL:    cfg.ReaperLeaderTTL,
	}
	ctx := context.Background()
	if err := r.Start(ctx); err != nil {
		log.Fatalf("reaper: %v", err)
	}
	defer func() { _ = r.Stop() }()

	e := echo.New()
	router.RegisterRoutes(e)
	router.RegisterReservations(e, handler.NewReservationHandler(reserver, confirmer))

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)

	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
