package main

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/abhishekbishtt/booking-app/internal/booking"
	"github.com/abhishekbishtt/booking-app/internal/config"
	"github.com/abhishekbishtt/booking-app/internal/database"
	"github.com/abhishekbishtt/booking-app/internal/handler"
	"github.com/abhishekbishtt/booking-app/internal/middleware"
	"github.com/abhishekbishtt/booking-app/internal/notification"
	"github.com/abhishekbishtt/booking-app/internal/payment"
	"github.com/abhishekbishtt/booking-app/internal/repository"
	"github.com/abhishekbishtt/booking-app/internal/router"
	"github.com/abhishekbishtt/booking-app/internal/scheduler"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Printf("redis unavailable; rate limiting and token revocation disabled")
	}

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	blacklist := repository.NewBlacklistRepo(rdb)
	movies := repository.NewMovieRepo(db)
	theaters := repository.NewTheaterRepo(db)
	halls := repository.NewHallRepo(db)
	showtimes := repository.NewShowtimeRepo(db)
	reservations := repository.NewReservationRepo(db)

	notifier := notification.NewPublisher(cfg.RabbitURL)
	svc := booking.NewService(reservations, showtimes, notifier, cfg.CancelWindow)

	var gateway payment.Service
	if rz := payment.NewRazorpay(cfg.RazorpayKeyID, cfg.RazorpaySecret); rz != nil {
		gateway = rz
	} else {
		log.Printf("payment gateway not configured; payment routes disabled")
	}

	if cfg.RabbitURL != "" {
		go func() {
			if err := notification.StartConsumer(cfg.RabbitURL); err != nil {
				log.Printf("notification consumer: %v", err)
			}
		}()
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()
	go scheduler.New(reservations, notifier, cfg.ReminderLead, cfg.ReminderInterval).Run(ctx)

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.Logger())

	router.Register(e, router.Deps{
		JWTSecret: cfg.JWTSecret,
		Blacklist: blacklist,
		RateLimit: middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb),
		Auth:      handler.NewAuthHandler(cfg, users, tokens, blacklist),
		Public:    handler.NewPublicHandler(movies, theaters, showtimes, reservations),
		Booking:   handler.NewBookingHandler(svc, reservations, showtimes, gateway),
		Payment:   handler.NewPaymentHandler(svc, gateway),
		Admin:     handler.NewAdminHandler(movies, theaters, halls, showtimes, reservations, svc),
	})

	e.Server.ReadTimeout = 15 * time.Second
	e.Server.WriteTimeout = 30 * time.Second

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
