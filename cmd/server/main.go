package main

import (
	"context"
	"encoding/base64"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/Feighth-arts/glam-sub000/internal/config"
	"github.com/Feighth-arts/glam-sub000/internal/db"
	"github.com/Feighth-arts/glam-sub000/internal/events"
	"github.com/Feighth-arts/glam-sub000/internal/handler"
	"github.com/Feighth-arts/glam-sub000/internal/repository"
	"github.com/Feighth-arts/glam-sub000/internal/server"
	"github.com/Feighth-arts/glam-sub000/internal/service"
	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pg, err := db.New(ctx, cfg)
	if err != nil {
		logger.Error("failed to connect database", "err", err)
		os.Exit(1)
	}
	defer pg.Close()

	if err := pg.Migrate(ctx); err != nil {
		logger.Error("failed to migrate database", "err", err)
		os.Exit(1)
	}

	// Firebase Auth (optional)
	var firebaseAuth *auth.Client
	if cfg.FirebaseProjectID != "" {
		app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.FirebaseProjectID}, firebaseOptions(cfg)...)
		if err != nil {
			logger.Error("failed to init firebase app", "err", err)
			os.Exit(1)
		}
		client, err := app.Auth(ctx)
		if err != nil {
			logger.Error("failed to init firebase auth", "err", err)
			os.Exit(1)
		}
		firebaseAuth = client
	}

	// Event bus (optional): without AMQP_URL events are dropped.
	var publisher events.Publisher = events.NopPublisher{}
	if cfg.AMQPURL != "" {
		amqpPub, err := events.NewAMQPPublisher(cfg.AMQPURL, cfg.EventsExchange)
		if err != nil {
			logger.Error("failed to connect message broker", "err", err)
			os.Exit(1)
		}
		defer amqpPub.Close()
		publisher = amqpPub
	}

	// repositories
	userRepo := repository.UserRepository{DB: pg}
	catalogRepo := repository.CatalogRepository{DB: pg}
	bookingRepo := repository.BookingRepository{DB: pg}
	paymentRepo := repository.PaymentRepository{DB: pg}
	pointsRepo := repository.PointsRepository{DB: pg}
	reviewRepo := repository.ReviewRepository{DB: pg}
	notificationRepo := repository.NotificationRepository{DB: pg}

	if cfg.SeedCatalog {
		if err := catalogRepo.SeedDefaults(ctx); err != nil {
			logger.Error("failed to seed catalog", "err", err)
			os.Exit(1)
		}
	}

	// services
	authSvc := service.AuthService{Config: cfg, Users: userRepo, Logger: logger, FirebaseAuth: firebaseAuth}
	bookingSvc := service.BookingService{
		Bookings:      bookingRepo,
		Catalog:       catalogRepo,
		Ledger:        pointsRepo,
		Notifications: notificationRepo,
		Events:        publisher,
		Logger:        logger,
	}
	paymentSvc := service.PaymentService{
		Payments:      paymentRepo,
		Bookings:      bookingRepo,
		Ledger:        pointsRepo,
		Notifications: notificationRepo,
		Events:        publisher,
		Logger:        logger,
	}
	reviewSvc := service.ReviewService{
		Reviews:     reviewRepo,
		Bookings:    bookingRepo,
		Ledger:      pointsRepo,
		BonusPoints: cfg.ReviewBonusPoints,
		Events:      publisher,
		Logger:      logger,
	}

	// handlers
	healthHandler := handler.HealthHandler{DB: pg}
	homeHandler := handler.HomeHandler{}
	authHandler := handler.AuthHandler{Service: &authSvc}
	catalogHandler := handler.CatalogHandler{Repo: catalogRepo, Currency: cfg.DefaultCurrency}
	catalogAdminHandler := handler.CatalogAdminHandler{Repo: catalogRepo, Currency: cfg.DefaultCurrency}
	offeringHandler := handler.OfferingHandler{Repo: catalogRepo, Currency: cfg.DefaultCurrency}
	bookingHandler := handler.BookingHandler{Service: &bookingSvc, Currency: cfg.DefaultCurrency}
	paymentHandler := handler.PaymentHandler{Service: &paymentSvc, Currency: cfg.DefaultCurrency}
	pointsHandler := handler.PointsHandler{Repo: pointsRepo}
	reviewHandler := handler.ReviewHandler{Service: &reviewSvc}
	notificationHandler := handler.NotificationHandler{Repo: notificationRepo}
	earningsHandler := handler.EarningsHandler{Repo: bookingRepo, Currency: cfg.DefaultCurrency}
	userAdminHandler := handler.UserAdminHandler{Repo: userRepo}

	router := server.NewRouter(cfg, logger,
		healthHandler, homeHandler, authHandler,
		catalogHandler, catalogAdminHandler, offeringHandler,
		bookingHandler, paymentHandler, pointsHandler,
		reviewHandler, notificationHandler, earningsHandler,
		userAdminHandler)

	if err := server.Start(ctx, cfg, router, logger); err != nil {
		logger.Error("server error", "err", err)
		os.Exit(1)
	}
}

func firebaseOptions(cfg config.Config) []option.ClientOption {
	if cfg.FirebaseCredFile == "" {
		return nil
	}

	cred := cfg.FirebaseCredFile
	// Allow inline JSON or base64-encoded JSON in env to avoid writing a file.
	if strings.HasPrefix(strings.TrimSpace(cred), "{") {
		return []option.ClientOption{option.WithCredentialsJSON([]byte(cred))}
	}
	if decoded, err := base64.StdEncoding.DecodeString(cred); err == nil && strings.HasPrefix(strings.TrimSpace(string(decoded)), "{") {
		return []option.ClientOption{option.WithCredentialsJSON(decoded)}
	}

	return []option.ClientOption{option.WithCredentialsFile(cred)}
}
