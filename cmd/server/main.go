package main // Entry point for the HTTP API process

import (
    "context"
    "log"
    "net/http"
    "os"
    "os/signal"
    "syscall"
    "time"

    "github.com/joho/godotenv"
    "github.com/labstack/echo/v4"

    "github.com/skywings/booking-service/internal/client"
    "github.com/skywings/booking-service/internal/config"
    "github.com/skywings/booking-service/internal/database"
    "github.com/skywings/booking-service/internal/handler"
    "github.com/skywings/booking-service/internal/queue"
    "github.com/skywings/booking-service/internal/repository"
    "github.com/skywings/booking-service/internal/router"
    "github.com/skywings/booking-service/internal/service"
)

func main() {
    _ = godotenv.Load() // optional .env for local development
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

    svc := service.NewBookingService(
        repository.NewBookingRepo(db),
        client.NewFlightClient(cfg.FlightServiceURL, cfg.ClientTimeout),
        client.NewUserClient(cfg.UserServiceURL, cfg.ClientTimeout),
        broker,
    )

    e := echo.New()
    router.RegisterRoutes(e)
    router.RegisterBooking(e, handler.NewBookingHandler(svc), cfg.JWTSecret)

    addr := ":" + cfg.Port
    log.Printf("listening on %s (env=%s)", addr, cfg.Env)

    go func() {
        if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
            log.Fatalf("server: %v", err)
        }
    }()

    quit := make(chan os.Signal, 1)
    signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
    <-quit

    ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
    defer cancel()
    if err := e.Shutdown(ctx); err != nil {
        log.Printf("shutdown: %v", err)
    }
}
