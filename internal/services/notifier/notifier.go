// Package services реализует рассылку уведомлений об одобренных сигналах.
//
// Рассылка устроена по принципу fire-and-forget: одобрение сигнала
// фиксируется и отвечает админу независимо от судьбы отдельных
// уведомлений. Ошибки доставки логируются и считаются в метриках,
// но никогда не поднимаются к вызывающему и не повторяются здесь.
package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/shadowhowl/signal-platform/internal/lib/sl"
	"github.com/shadowhowl/signal-platform/internal/models"
	"github.com/shadowhowl/signal-platform/internal/rabbitmq"
)

var (
	alertsPublished = promauto.NewCounter(prometheus.CounterOpts{
		Name: "signal_alerts_published_total",
		Help: "Alerts successfully published to the notification queue.",
	})
	alertsFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "signal_alerts_failed_total",
		Help: "Alerts that could not be published to the notification queue.",
	})
)

// SubscriberRepository отдаёт получателей рассылки.
type SubscriberRepository interface {
	// ListEntitledUsers возвращает пользователей с действующей подпиской на момент now.
	ListEntitledUsers(ctx context.Context, now time.Time) ([]*models.User, error)
}

// Publisher публикует сообщение в очередь уведомлений.
type Publisher interface {
	Publish(exchange, routingKey string, message any) error
}

// NotifierService рассылает уведомления об одобрении сигнала всем
// пользователям с действующей подпиской.
type NotifierService struct {
	repo SubscriberRepository
	pub  Publisher
	log  *slog.Logger
	now  func() time.Time
}

// NewNotifierService создает новый экземпляр NotifierService.
func NewNotifierService(repo SubscriberRepository, pub Publisher, log *slog.Logger) *NotifierService {
	return &NotifierService{
		repo: repo,
		pub:  pub,
		log:  log,
		now:  time.Now,
	}
}

// SignalApproved запускает рассылку в фоне и сразу возвращает управление:
// ответ на одобрение не ждёт ни выборки получателей, ни публикаций.
func (s *NotifierService) SignalApproved(sig *models.Signal) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		s.Dispatch(ctx, sig)
	}()
}

// Dispatch выбирает получателей с действующей подпиской на момент
// рассылки (не на момент одобрения) и публикует по одному сообщению
// на получателя. Ошибка публикации одного получателя не прерывает
// рассылку остальным. Ноль получателей — не ошибка.
func (s *NotifierService) Dispatch(ctx context.Context, sig *models.Signal) (sent, failed int) {
	log := s.log.With(slog.Int("signal_id", sig.ID), slog.String("pair", sig.Pair))

	recipients, err := s.repo.ListEntitledUsers(ctx, s.now())
	if err != nil {
		log.Error("failed to list entitled subscribers", sl.Err(err))
		return 0, 0
	}
	if len(recipients) == 0 {
		log.Info("no entitled subscribers, nothing to send")
		return 0, 0
	}

	for _, recipient := range recipients {
		alert := models.SignalAlert{
			Email:      recipient.Email,
			Username:   recipient.Username,
			Pair:       sig.Pair,
			Direction:  sig.Direction,
			EntryPrice: sig.EntryPrice,
			StopLoss:   sig.StopLoss,
			TakeProfit: sig.TakeProfit,
		}
		if err := s.pub.Publish(rabbitmq.SignalsExchange, rabbitmq.ApprovedRoutingKey, alert); err != nil {
			log.Error("failed to publish alert",
				slog.String("email", recipient.Email), sl.Err(err))
			alertsFailed.Inc()
			failed++
			continue
		}
		alertsPublished.Inc()
		sent++
	}

	log.Info("signal alert fan-out finished", slog.Int("sent", sent), slog.Int("failed", failed))
	return sent, failed
}
