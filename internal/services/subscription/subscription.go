// Package services содержит бизнес-логику управления подписками пользователей.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shadowhowl/signal-platform/internal/models"
	"github.com/shadowhowl/signal-platform/internal/storage/repository"
)

// ErrInvalidDuration — попытка выдать активную подписку без положительной длительности.
var ErrInvalidDuration = errors.New("duration must be positive")

// SubscriptionRepository определяет методы для работы с подписками в хранилище.
type SubscriptionRepository interface {
	// GetSubscription возвращает подписку пользователя.
	GetSubscription(ctx context.Context, userUID string) (*models.Subscription, error)
	// UpsertSubscription атомарно создаёт или обновляет подписку.
	UpsertSubscription(ctx context.Context, userUID, status string, endDate time.Time) error
}

// SubscriptionService реализует админские операции над подписками.
// Единственный источник истины — нормализованная таблица subscriptions;
// любые производные представления статуса только вычисляются из неё.
type SubscriptionService struct {
	repo SubscriptionRepository
	log  *slog.Logger
	now  func() time.Time
}

// NewSubscriptionService создает новый экземпляр SubscriptionService.
func NewSubscriptionService(repo SubscriptionRepository, log *slog.Logger) *SubscriptionService {
	return &SubscriptionService{
		repo: repo,
		log:  log,
		now:  time.Now,
	}
}

// Grant выдаёт пользователю подписку на durationDays дней от текущего
// момента. Повторный grant перезаписывает дату окончания: действует
// последняя запись, дубликатов не возникает.
func (s *SubscriptionService) Grant(ctx context.Context, userUID string, durationDays int) (*models.Subscription, error) {
	const op = "services.subscription.Grant"
	if durationDays <= 0 {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidDuration)
	}

	endDate := s.now().AddDate(0, 0, durationDays)
	if err := s.repo.UpsertSubscription(ctx, userUID, models.SubscriptionActive, endDate); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("subscription granted",
		slog.String("user_uid", userUID),
		slog.Int("duration_days", durationDays))

	return &models.Subscription{
		UserUID: userUID,
		Status:  models.SubscriptionActive,
		EndDate: endDate,
	}, nil
}

// Revoke немедленно прекращает подписку пользователя.
func (s *SubscriptionService) Revoke(ctx context.Context, userUID string) (*models.Subscription, error) {
	const op = "services.subscription.Revoke"

	endDate := s.now()
	if err := s.repo.UpsertSubscription(ctx, userUID, models.SubscriptionExpired, endDate); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("subscription revoked", slog.String("user_uid", userUID))

	return &models.Subscription{
		UserUID: userUID,
		Status:  models.SubscriptionExpired,
		EndDate: endDate,
	}, nil
}

// Set применяет присланный админом статус. Исторические значения
// inactive и disabled нормализуются к expired ещё до записи,
// чтобы в хранилище жили только канонические статусы.
func (s *SubscriptionService) Set(ctx context.Context, userUID, status string, durationDays int) (*models.Subscription, error) {
	if models.NormalizeStatus(status) == models.SubscriptionActive {
		return s.Grant(ctx, userUID, durationDays)
	}
	return s.Revoke(ctx, userUID)
}

// Status возвращает нормализованную проекцию подписки пользователя.
// Отсутствие записи трактуется как expired с нулевой датой.
func (s *SubscriptionService) Status(ctx context.Context, userUID string) (*models.Subscription, error) {
	const op = "services.subscription.Status"

	sub, err := s.repo.GetSubscription(ctx, userUID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return &models.Subscription{
				UserUID: userUID,
				Status:  models.SubscriptionExpired,
			}, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	sub.Status = models.NormalizeStatus(sub.Status)
	return sub, nil
}
