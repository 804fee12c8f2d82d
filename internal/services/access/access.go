// Package services содержит ядро контроля доступа: решение о том,
// какие сигналы видит вызывающий и может ли он выполнять админские операции.
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

// Области видимости сигналов.
const (
	// VisibleAll — видны все сигналы, включая черновики.
	VisibleAll = "all"
	// VisibleApprovedOnly — видны только одобренные сигналы.
	VisibleApprovedOnly = "approvedOnly"
)

// SubscriptionProvider отдаёт запись подписки пользователя из хранилища.
type SubscriptionProvider interface {
	GetSubscription(ctx context.Context, userUID string) (*models.Subscription, error)
}

// DenyReason — структурированный отказ для аутентифицированного, но не
// подписанного пользователя. Это не ошибка аутентификации: вызывающий
// опознан, ему не хватает только действующей подписки, и ответ должен
// это различать.
type DenyReason struct {
	Status      string `json:"status"`      // Текущий статус подписки: none, expired
	Instruction string `json:"instruction"` // Что делать, чтобы получить доступ
}

// Decision — результат проверки права читать сигналы.
type Decision struct {
	Allowed    bool
	VisibleSet string // VisibleAll или VisibleApprovedOnly, если Allowed
	Reason     *DenyReason
}

// AccessService вычисляет права доступа по роли и состоянию подписки.
// Подписка всегда перечитывается из хранилища на момент запроса:
// токен сведений о ней не несёт.
type AccessService struct {
	subs SubscriptionProvider
	log  *slog.Logger
	now  func() time.Time
}

// NewAccessService создает новый экземпляр AccessService.
func NewAccessService(subs SubscriptionProvider, log *slog.Logger) *AccessService {
	return &AccessService{
		subs: subs,
		log:  log,
		now:  time.Now,
	}
}

// CanManage сообщает, может ли роль выполнять операции управления:
// создание, правку, одобрение и удаление сигналов, администрирование
// пользователей и подписок.
func (s *AccessService) CanManage(role string) bool {
	return role == models.RoleAdmin
}

// CanReadSignals решает, какие сигналы видит пользователь.
//
// Администратор видит всё независимо от подписки — это осознанный
// инвариант, а не упущение. Остальным доступ даёт только подписка,
// действующая прямо сейчас; отсутствие записи равносильно её
// отсутствию доступа, а причина отказа возвращается структурированно.
func (s *AccessService) CanReadSignals(ctx context.Context, userUID, role string) (Decision, error) {
	const op = "services.access.CanReadSignals"

	if s.CanManage(role) {
		return Decision{Allowed: true, VisibleSet: VisibleAll}, nil
	}

	sub, err := s.subs.GetSubscription(ctx, userUID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.log.Info("no subscription record, access denied", slog.String("user_uid", userUID))
			return deny("none"), nil
		}
		return Decision{}, fmt.Errorf("%s: %w", op, err)
	}

	if !sub.GrantsAccess(s.now()) {
		return deny(models.NormalizeStatus(sub.Status)), nil
	}

	return Decision{Allowed: true, VisibleSet: VisibleApprovedOnly}, nil
}

func deny(status string) Decision {
	return Decision{
		Allowed: false,
		Reason: &DenyReason{
			Status:      status,
			Instruction: "an active subscription is required to view signals, contact an administrator to upgrade",
		},
	}
}
