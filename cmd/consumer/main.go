package main // Entry point for the confirmation pipeline worker

import (
    "context"
    "errors"
    "log"
    "os/signal"
    "syscall"
    "time"

    "github.com/joho/godotenv"

    "github.com/skywings/booking-service/internal/client"
    "github.com/skywings/booking-service/internal/config"
    "github.com/skywings/booking-service/internal/database"
    "github.com/skywings/booking-service/internal/queue"
    "github.com/skywings/booking-service/internal/repository"
    "github.com/skywings/booking-service/internal/service"
)

func main() {
    _ = godotenv.Load()
    cfg := config.Load()

    db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
    if err != nil {
        log.Fatalf("database: %v", err)
    }
    defer db.Close()

    broker, err := queue.Dial(cfg.AMQPURL)
    if err != nil {
        log.Fatalf("broker: %v", err)
    }
    defer broker.Close()

    var retries queue.RetryTracker = queue.NoopRetryTracker{}
    if rdb := config.NewRedisClient(); rdb != nil {
        retries = queue.NewRedisRetryTracker(rdb, time.Hour)
    } else {
        log.Printf("redis unavailable; consumer retry ceiling disabled")
    }

    consumer := &queue.Consumer{
        Client:        broker,
        Store:         repository.NewBookingRepo(db),
        Flights:       client.NewFlightClient(cfg.FlightServiceURL, cfg.ClientTimeout),
        Pub:           broker,
        Retries:       retries,
        Compose:       service.BuildReminder,
        MaxRetries:    cfg.ConsumerRetries,
        HandleTimeout: 30 * time.Second,
    }

    ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
    defer stop()

    log.Printf("consuming %s (env=%s)", queue.BookingCreatedQueue, cfg.Env)
    if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
        log.Fatalf("consumer: %v", err)
    }
}
