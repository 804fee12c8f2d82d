// Package services содержит логику работы с аккаунтами: выдачу профиля
// и административное управление пользователями.
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

// ErrUnknownRole — попытка назначить роль, которой нет в системе.
var ErrUnknownRole = errors.New("unknown role")

// Предельные значения пагинации списка пользователей.
const (
	defaultListSize = 100
	maxListSize     = 1000
)

// UserRepository описывает контракт хранилища для операций с аккаунтами.
type UserRepository interface {
	GetUser(ctx context.Context, userUID string) (*models.User, error)
	ListProfiles(ctx context.Context, limit, offset int) ([]*models.Profile, error)
	UpdateUserRole(ctx context.Context, userUID, role string) (int, error)
}

// SubscriptionProvider возвращает запись подписки пользователя.
type SubscriptionProvider interface {
	GetSubscription(ctx context.Context, userUID string) (*models.Subscription, error)
}

// UserService реализует выдачу профиля и административные операции над аккаунтами.
type UserService struct {
	repo UserRepository
	subs SubscriptionProvider
	log  *slog.Logger
	now  func() time.Time
}

// NewUserService создает новый экземпляр UserService.
func NewUserService(repo UserRepository, subs SubscriptionProvider, log *slog.Logger) *UserService {
	return &UserService{
		repo: repo,
		subs: subs,
		log:  log,
		now:  time.Now,
	}
}

// Profile возвращает проекцию пользователя без хэша пароля.
// Статус подписки приводится к действующему на момент запроса:
// активная запись с истёкшей датой окончания отдаётся как expired.
func (s *UserService) Profile(ctx context.Context, userUID string) (*models.Profile, error) {
	const op = "services.user.Profile"

	user, err := s.repo.GetUser(ctx, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	profile := &models.Profile{
		UID:                user.UID,
		Username:           user.Username,
		Email:              user.Email,
		Role:               user.Role,
		SubscriptionStatus: models.SubscriptionExpired,
	}

	sub, err := s.subs.GetSubscription(ctx, userUID)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return profile, nil
	case err != nil:
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	profile.SubscriptionEnd = &sub.EndDate
	if sub.GrantsAccess(s.now()) {
		profile.SubscriptionStatus = models.SubscriptionActive
	}
	return profile, nil
}

// List возвращает страницу профилей пользователей для административной панели.
func (s *UserService) List(ctx context.Context, limit, offset int) ([]*models.Profile, error) {
	const op = "services.user.List"

	if limit <= 0 {
		limit = defaultListSize
	}
	if limit > maxListSize {
		limit = maxListSize
	}
	if offset < 0 {
		offset = 0
	}

	profiles, err := s.repo.ListProfiles(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	now := s.now()
	for _, p := range profiles {
		if p.SubscriptionStatus == models.SubscriptionActive &&
			(p.SubscriptionEnd == nil || !p.SubscriptionEnd.After(now)) {
			p.SubscriptionStatus = models.SubscriptionExpired
		}
	}
	return profiles, nil
}

// UpdateRole назначает пользователю новую роль.
func (s *UserService) UpdateRole(ctx context.Context, userUID, role string) error {
	const op = "services.user.UpdateRole"

	if role != models.RoleUser && role != models.RoleAdmin {
		return fmt.Errorf("%s: %w", op, ErrUnknownRole)
	}
	rows, err := s.repo.UpdateUserRole(ctx, userUID, role)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if rows == 0 {
		return fmt.Errorf("%s: %w", op, repository.ErrNotFound)
	}
	s.log.Info("user role updated",
		slog.String("user_uid", userUID),
		slog.String("role", role))
	return nil
}
