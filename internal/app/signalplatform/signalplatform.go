// Package signalplatform собирает HTTP-приложение платформы торговых сигналов:
// хранилище, кэш, очередь уведомлений, бизнес-сервисы и маршруты.
package signalplatform

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/streadway/amqp"

	"github.com/shadowhowl/signal-platform/internal/cache"
	"github.com/shadowhowl/signal-platform/internal/config"
	"github.com/shadowhowl/signal-platform/internal/lib/jwt"
	"github.com/shadowhowl/signal-platform/internal/lib/otp"
	"github.com/shadowhowl/signal-platform/internal/lib/smtp"
	"github.com/shadowhowl/signal-platform/internal/llm"
	"github.com/shadowhowl/signal-platform/internal/migrations"
	"github.com/shadowhowl/signal-platform/internal/rabbitmq"
	accessservice "github.com/shadowhowl/signal-platform/internal/services/access"
	authservice "github.com/shadowhowl/signal-platform/internal/services/auth"
	chatservice "github.com/shadowhowl/signal-platform/internal/services/chat"
	notifierservice "github.com/shadowhowl/signal-platform/internal/services/notifier"
	senderservice "github.com/shadowhowl/signal-platform/internal/services/sender"
	signalservice "github.com/shadowhowl/signal-platform/internal/services/signal"
	subservice "github.com/shadowhowl/signal-platform/internal/services/subscription"
	userservice "github.com/shadowhowl/signal-platform/internal/services/user"
	"github.com/shadowhowl/signal-platform/internal/storage/repository"
)

type App struct {
	server   *http.Server
	logger   *slog.Logger
	db       *repository.Storage
	rabbitMQ *amqp.Connection
}

func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}
	if err = migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		return nil, err
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		return nil, err
	}

	rabbitConn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		return nil, err
	}
	rabbitCh, err := rabbitmq.SetupChannel(rabbitConn)
	if err != nil {
		return nil, err
	}
	publisher := rabbitmq.NewPublisher(rabbitCh)

	transport := smtp.NewTransport(&cfg.SMTPConnection, logger)
	senderService := senderservice.NewSenderService(transport, logger)

	jwtMaker := jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL)
	otpManager := otp.NewManager(otp.NewMemoryStore())
	llmClient := llm.NewClient(cfg.APIURL, cfg.APIKey, cfg.Model, cfg.TimeoutLLM)

	authService := authservice.NewAuthService(db, otpManager, senderService, jwtMaker, logger)
	subscriptionService := subservice.NewSubscriptionService(db, logger)
	accessService := accessservice.NewAccessService(db, logger)
	notifierService := notifierservice.NewNotifierService(db, publisher, logger)
	signalService := signalservice.NewSignalService(db, accessService, notifierService, cacheRedis, logger)
	userService := userservice.NewUserService(db, db, logger)
	chatService := chatservice.NewChatService(llmClient, logger)

	router := chi.NewRouter()
	RegisterRoutes(router, logger, &Services{
		Auth:         authService,
		Subscription: subscriptionService,
		Signal:       signalService,
		User:         userService,
		Chat:         chatService,
		Storage:      db,
	})

	srv := &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &App{
		server:   srv,
		logger:   logger,
		db:       db,
		rabbitMQ: rabbitConn,
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		_ = a.rabbitMQ.Close()
		_ = a.db.DB.Close()
		return err
	}
}
