package server

import (
	"net/http"
	"time"

	"github.com/Feighth-arts/glam-sub000/internal/config"
	"github.com/Feighth-arts/glam-sub000/internal/domain"
	"github.com/Feighth-arts/glam-sub000/internal/handler"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"log/slog"
)

// NewRouter wires HTTP routes and middleware.
func NewRouter(cfg config.Config,
	logger *slog.Logger,
	health handler.HealthHandler,
	home handler.HomeHandler,
	auth handler.AuthHandler,
	catalog handler.CatalogHandler,
	catalogAdmin handler.CatalogAdminHandler,
	offerings handler.OfferingHandler,
	bookings handler.BookingHandler,
	payments handler.PaymentHandler,
	points handler.PointsHandler,
	reviews handler.ReviewHandler,
	notifications handler.NotificationHandler,
	earnings handler.EarningsHandler,
	usersAdmin handler.UserAdminHandler,
) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(NewLoggerMiddleware(logger))
	r.Use(NewMetricsMiddleware())
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(httprate.LimitByIP(200, 1*time.Minute))

	health.RegisterRoutes(r)
	home.RegisterRoutes(r)
	auth.RegisterRoutes(r)
	catalog.RegisterRoutes(r)
	reviews.RegisterPublicRoutes(r)
	payments.RegisterWebhookRoutes(r)
	r.Method("GET", "/metrics", promhttp.Handler())

	r.Group(func(pr chi.Router) {
		pr.Use(AuthMiddleware(cfg.JWTSecret))

		// any authenticated user; per-operation ownership checks happen in services
		bookings.RegisterRoutes(pr)
		payments.RegisterRoutes(pr)
		points.RegisterRoutes(pr)
		reviews.RegisterRoutes(pr)
		notifications.RegisterRoutes(pr)

		pr.Group(func(sr chi.Router) {
			sr.Use(RequireRole(domain.RoleProvider, domain.RoleAdmin))
			offerings.RegisterRoutes(sr)
			earnings.RegisterRoutes(sr)
		})

		pr.Group(func(ar chi.Router) {
			ar.Use(RequireRole(domain.RoleAdmin))
			catalogAdmin.RegisterRoutes(ar)
			usersAdmin.RegisterRoutes(ar)
		})
	})

	return r
}
