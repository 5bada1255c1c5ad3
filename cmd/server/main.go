package main

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
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/forkline/table-reservation/internal/config"
	"github.com/forkline/table-reservation/internal/database"
	"github.com/forkline/table-reservation/internal/handler"
	"github.com/forkline/table-reservation/internal/queue"
	"github.com/forkline/table-reservation/internal/repository"
	"github.com/forkline/table-reservation/internal/router"
	"github.com/forkline/table-reservation/internal/service"
)

func main() {
	_ = godotenv.Load() // .env is optional; real deployments set the environment directly
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unreachable; response cache and rate limiting disabled")
	} else {
		defer rdb.Close()
	}

	// Repositories
	tables := repository.NewTableRepo(db)
	bookings := repository.NewBookingRepo(db)
	waitlist := repository.NewWaitlistRepo(db)
	stats := repository.NewStatsRepo(db)

	// Events are optional: without a broker URL the services skip publishing.
	var events service.EventPublisher
	if cfg.AMQPURL != "" {
		events = service.NewAMQPPublisher(cfg.AMQPURL)
	}

	// Services. The booking and waitlist services reference each other
	// one way: cancellations trigger a promotion pass.
	waitlistSvc := service.NewWaitlistService(waitlist, bookings, tables, events)
	bookingSvc := service.NewBookingService(bookings, waitlistSvc, events)
	statsSvc := service.NewStatsService(stats)

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.Logger())

	router.Register(e, router.Handlers{
		Health:   handler.NewHealthHandler(db, rdb),
		Tables:   handler.NewTableHandler(tables),
		Bookings: handler.NewBookingHandler(bookingSvc),
		Waitlist: handler.NewWaitlistHandler(waitlistSvc),
		Stats:    handler.NewStatsHandler(statsSvc),
	}, cfg.JWTSecret, rdb)

	// Booking event consumer; reconnects on its own until the process exits.
	if cfg.AMQPURL != "" {
		go func() {
			if err := queue.StartBookingConsumer(); err != nil {
				log.Printf("booking consumer stopped: %v", err)
			}
		}()
	}

	addr := ":" + cfg.Port
	go func() {
		log.Printf("listening on %s (env=%s)", addr, cfg.Env)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		log.Fatalf("shutdown: %v", err)
	}
}
