// Package services содержит бизнес-логику работы с торговыми сигналами:
// создание, правку, удаление, выдачу по правам доступа и одобрение
// с рассылкой уведомлений подписчикам.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/shadowhowl/signal-platform/internal/models"
	access "github.com/shadowhowl/signal-platform/internal/services/access"
	"github.com/shadowhowl/signal-platform/internal/storage/repository"
)

// ErrInvalidSignal — входные данные сигнала не прошли проверку.
var ErrInvalidSignal = errors.New("invalid signal")

// DefaultDisclaimer подставляется в notes, если админ не указал свои.
const DefaultDisclaimer = "This is not financial advice. Trade at your own risk."

// maxListSize ограничивает размер выдачи списка сигналов.
// Это граница пагинации, а не смысловой фильтр.
const maxListSize = 1000

const (
	cacheKeyApproved = "signals:approved"
	cacheKeyAll      = "signals:all"
	cacheTTL         = time.Minute
)

// SignalRepository определяет методы для работы с сигналами в хранилище.
type SignalRepository interface {
	// CreateSignal добавляет новый сигнал и возвращает его ID.
	CreateSignal(ctx context.Context, sig models.Signal) (int, error)
	// ReadSignal возвращает сигнал по ID.
	ReadSignal(ctx context.Context, id int) (*models.Signal, error)
	// UpdateSignal обновляет данные сигнала по ID.
	UpdateSignal(ctx context.Context, sig models.Signal, id int) (int, error)
	// RemoveSignal удаляет сигнал по ID и возвращает количество удалённых записей.
	RemoveSignal(ctx context.Context, id int) (int, error)
	// ListSignals возвращает список сигналов от новых к старым.
	ListSignals(ctx context.Context, approvedOnly bool, limit int) ([]*models.Signal, error)
	// SetSignalApproval переводит флаг одобрения, ноль строк — перехода не было.
	SetSignalApproval(ctx context.Context, id int, approved bool) (int, error)
}

// AccessChecker решает, какие сигналы видит вызывающий.
type AccessChecker interface {
	CanReadSignals(ctx context.Context, userUID, role string) (access.Decision, error)
}

// Notifier запускает рассылку уведомления об одобренном сигнале.
// Вызов не блокирует одобрение и не возвращает ошибок.
type Notifier interface {
	SignalApproved(sig *models.Signal)
}

// Cache описывает методы для кэширования данных.
type Cache interface {
	// Get пытается получить значение из кеша по ключу.
	Get(key string, result any) (bool, error)
	// Set сохраняет значение в кеш с временем жизни.
	Set(key string, value any, expiration time.Duration) error
	// Invalidate удаляет значение из кеша по ключу.
	Invalidate(key string) error
}

// SignalService реализует бизнес-логику работы с сигналами, включая кеширование.
type SignalService struct {
	repo     SignalRepository
	acl      AccessChecker
	notifier Notifier
	cache    Cache
	log      *slog.Logger
}

// NewSignalService создает новый экземпляр SignalService.
func NewSignalService(repo SignalRepository, acl AccessChecker, notifier Notifier, cache Cache, log *slog.Logger) *SignalService {
	return &SignalService{
		repo:     repo,
		acl:      acl,
		notifier: notifier,
		cache:    cache,
		log:      log,
	}
}

// validate проверяет поля запроса до любого обращения к хранилищу
// и возвращает готовую доменную модель.
func validate(req models.DummySignal) (models.Signal, error) {
	if len(req.Pair) > 10 {
		return models.Signal{}, fmt.Errorf("%w: pair name is too long (e.g., BTC/USD)", ErrInvalidSignal)
	}
	direction := strings.ToUpper(req.Direction)
	if direction != models.DirectionBuy && direction != models.DirectionSell {
		return models.Signal{}, fmt.Errorf("%w: direction must be BUY or SELL", ErrInvalidSignal)
	}
	for _, price := range []float64{req.EntryPrice, req.StopLoss, req.TakeProfit} {
		if math.IsNaN(price) || math.IsInf(price, 0) {
			return models.Signal{}, fmt.Errorf("%w: prices must be valid numbers", ErrInvalidSignal)
		}
	}
	notes := req.Notes
	if notes == "" {
		notes = DefaultDisclaimer
	}
	return models.Signal{
		Pair:       req.Pair,
		Direction:  direction,
		EntryPrice: req.EntryPrice,
		StopLoss:   req.StopLoss,
		TakeProfit: req.TakeProfit,
		Notes:      notes,
	}, nil
}

// Create создает новый сигнал в статусе черновика и возвращает его ID.
func (s *SignalService) Create(ctx context.Context, req models.DummySignal) (int, error) {
	const op = "services.signal.Create"

	sig, err := validate(req)
	if err != nil {
		return 0, err
	}

	id, err := s.repo.CreateSignal(ctx, sig)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("created new signal", slog.Int("id", id), slog.String("pair", sig.Pair))

	s.invalidateLists()
	return id, nil
}

// Update обновляет поля сигнала, не трогая флаг одобрения.
func (s *SignalService) Update(ctx context.Context, id int, req models.DummySignal) error {
	const op = "services.signal.Update"

	sig, err := validate(req)
	if err != nil {
		return err
	}

	rows, err := s.repo.UpdateSignal(ctx, sig, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if rows == 0 {
		return fmt.Errorf("%s: %w", op, repository.ErrNotFound)
	}
	s.log.Info("updated signal", slog.Int("id", id))

	s.invalidateLists()
	return nil
}

// Remove удаляет сигнал. Отсутствие записи ошибкой не считается.
func (s *SignalService) Remove(ctx context.Context, id int) error {
	const op = "services.signal.Remove"

	if _, err := s.repo.RemoveSignal(ctx, id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("removed signal", slog.Int("id", id))

	s.invalidateLists()
	return nil
}

// List возвращает сигналы, видимые вызывающему. Отказ в доступе — не
// ошибка: возвращается структурированная причина, которую обработчик
// отдаёт с кодом 403.
func (s *SignalService) List(ctx context.Context, userUID, role string) ([]*models.Signal, *access.DenyReason, error) {
	const op = "services.signal.List"

	decision, err := s.acl.CanReadSignals(ctx, userUID, role)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}
	if !decision.Allowed {
		return nil, decision.Reason, nil
	}

	approvedOnly := decision.VisibleSet == access.VisibleApprovedOnly
	cacheKey := cacheKeyAll
	if approvedOnly {
		cacheKey = cacheKeyApproved
	}

	var cached []*models.Signal
	found, err := s.cache.Get(cacheKey, &cached)
	if err != nil {
		s.log.Warn("failed to read signals from cache", slog.String("key", cacheKey), slog.Any("err", err))
	}
	if found {
		return cached, nil, nil
	}

	signals, err := s.repo.ListSignals(ctx, approvedOnly, maxListSize)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := s.cache.Set(cacheKey, signals, cacheTTL); err != nil {
		s.log.Warn("failed to cache signals", slog.String("key", cacheKey), slog.Any("err", err))
	}
	return signals, nil, nil
}

// SetApproval переводит флаг одобрения сигнала. Рассылка уведомлений
// запускается ровно один раз на фактический переход в одобренное
// состояние: повторное одобрение уже одобренного сигнала — пустая
// операция без повторной рассылки, снятие одобрения не уведомляет никого.
func (s *SignalService) SetApproval(ctx context.Context, id int, approved bool) (*models.Signal, error) {
	const op = "services.signal.SetApproval"

	sig, err := s.repo.ReadSignal(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	rows, err := s.repo.SetSignalApproval(ctx, id, approved)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	sig.IsApproved = approved
	if rows == 0 {
		// сигнал уже был в требуемом состоянии
		return sig, nil
	}
	s.log.Info("signal approval changed", slog.Int("id", id), slog.Bool("approved", approved))

	s.invalidateLists()
	if approved {
		s.notifier.SignalApproved(sig)
	}
	return sig, nil
}

func (s *SignalService) invalidateLists() {
	for _, key := range []string{cacheKeyApproved, cacheKeyAll} {
		if err := s.cache.Invalidate(key); err != nil {
			s.log.Warn("failed to invalidate cache", slog.String("key", key), slog.Any("err", err))
		}
	}
}
