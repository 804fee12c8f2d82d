// Package signalplatform предоставляет маршруты для основного приложения.
package signalplatform

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
	"golang.org/x/time/rate"

	"github.com/shadowhowl/signal-platform/internal/http/handlers/admin/listusers"
	adminrole "github.com/shadowhowl/signal-platform/internal/http/handlers/admin/role"
	adminsub "github.com/shadowhowl/signal-platform/internal/http/handlers/admin/subscription"
	"github.com/shadowhowl/signal-platform/internal/http/handlers/auth/forgot"
	"github.com/shadowhowl/signal-platform/internal/http/handlers/auth/login"
	"github.com/shadowhowl/signal-platform/internal/http/handlers/auth/register"
	"github.com/shadowhowl/signal-platform/internal/http/handlers/auth/resend"
	"github.com/shadowhowl/signal-platform/internal/http/handlers/auth/reset"
	"github.com/shadowhowl/signal-platform/internal/http/handlers/auth/verify"
	"github.com/shadowhowl/signal-platform/internal/http/handlers/chat/ask"
	"github.com/shadowhowl/signal-platform/internal/http/handlers/health"
	"github.com/shadowhowl/signal-platform/internal/http/handlers/signal/approve"
	"github.com/shadowhowl/signal-platform/internal/http/handlers/signal/create"
	"github.com/shadowhowl/signal-platform/internal/http/handlers/signal/list"
	"github.com/shadowhowl/signal-platform/internal/http/handlers/signal/remove"
	"github.com/shadowhowl/signal-platform/internal/http/handlers/signal/update"
	"github.com/shadowhowl/signal-platform/internal/http/handlers/user/profile"
	"github.com/shadowhowl/signal-platform/internal/http/middlewarectx"
	"github.com/shadowhowl/signal-platform/internal/models"
	authservice "github.com/shadowhowl/signal-platform/internal/services/auth"
	chatservice "github.com/shadowhowl/signal-platform/internal/services/chat"
	signalservice "github.com/shadowhowl/signal-platform/internal/services/signal"
	subservice "github.com/shadowhowl/signal-platform/internal/services/subscription"
	userservice "github.com/shadowhowl/signal-platform/internal/services/user"
	"github.com/shadowhowl/signal-platform/internal/storage/repository"
)

// Services собирает бизнес-сервисы, необходимые маршрутам приложения.
type Services struct {
	Auth         *authservice.AuthService
	Subscription *subservice.SubscriptionService
	Signal       *signalservice.SignalService
	User         *userservice.UserService
	Chat         *chatservice.ChatService
	Storage      *repository.Storage
}

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, s *Services) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
	)

	limiter := rate.NewLimiter(10, 20)

	r.Route("/api/v1", func(r chi.Router) {
		// Открытые конечные точки
		r.Post("/auth/register", register.New(logger, s.Auth).ServeHTTP)
		r.Post("/auth/verify", verify.New(logger, s.Auth).ServeHTTP)
		r.Post("/auth/login", login.New(logger, s.Auth, s.Subscription).ServeHTTP)
		r.Post("/auth/resend", resend.New(logger, s.Auth).ServeHTTP)
		r.Post("/auth/forgot-password", forgot.New(logger, s.Auth).ServeHTTP)
		r.Post("/auth/reset-password", reset.New(logger, s.Auth).ServeHTTP)

		// Группа с JWT аутентификацией
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(s.Auth, logger))
			r.Use(middlewarectx.RateLimitMiddleware(limiter, logger))
			r.Get("/signals", list.New(logger, s.Signal).ServeHTTP)
			r.Get("/users/me", profile.New(logger, s.User).ServeHTTP)
			r.Post("/chat/ask", ask.New(logger, s.Chat).ServeHTTP)
		})

		// Группа администратора
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(s.Auth, logger))
			r.Use(middlewarectx.RequireRole(models.RoleAdmin, logger))
			r.Post("/signals", create.New(logger, s.Signal).ServeHTTP)
			r.Put("/signals/{id}", update.New(logger, s.Signal).ServeHTTP)
			r.Delete("/signals/{id}", remove.New(logger, s.Signal).ServeHTTP)
			r.Patch("/signals/{id}/approve", approve.New(logger, s.Signal).ServeHTTP)
			r.Get("/admin/users", listusers.New(logger, s.User).ServeHTTP)
			r.Put("/admin/users/{uid}/subscription", adminsub.New(logger, s.Subscription).ServeHTTP)
			r.Put("/admin/users/{uid}/role", adminrole.New(logger, s.User).ServeHTTP)
		})
	})

	r.Get("/health", health.New(logger, s.Storage).ServeHTTP)
	r.Handle("/metrics", promhttp.Handler())
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
