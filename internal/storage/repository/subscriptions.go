package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shadowhowl/signal-platform/internal/models"
)

// GetSubscription возвращает запись подписки пользователя.
// Отсутствие записи — ErrNotFound, вызывающая сторона трактует это
// как отсутствие доступа.
func (s *Storage) GetSubscription(ctx context.Context, userUID string) (*models.Subscription, error) {
	const op = "storage.GetSubscription"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT user_uid, status, end_date
			  FROM subscriptions
			  WHERE user_uid = $1`
	var sub models.Subscription
	row := s.DB.QueryRowContext(ctx, query, userUID)
	if err := row.Scan(&sub.UserUID, &sub.Status, &sub.EndDate); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &sub, nil
}

// UpsertSubscription атомарно создаёт или обновляет подписку пользователя.
// ON CONFLICT закрывает гонку между двумя конкурентными админскими
// grant/revoke по одному пользователю: побеждает последняя запись,
// дубликатов строк не возникает.
func (s *Storage) UpsertSubscription(ctx context.Context, userUID, status string, endDate time.Time) error {
	const op = "storage.UpsertSubscription"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO subscriptions (user_uid, status, end_date)
			  VALUES ($1, $2, $3)
			  ON CONFLICT (user_uid)
			  DO UPDATE SET status = EXCLUDED.status, end_date = EXCLUDED.end_date`
	if _, err := s.DB.ExecContext(ctx, query, userUID, status, endDate); err != nil {
		if isForeignKeyViolation(err) {
			// Пользователя с таким uid не существует.
			return fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// ListEntitledUsers возвращает пользователей, чья подписка даёт доступ
// на момент now: статус active и дата окончания строго в будущем.
// Используется рассылкой уведомлений об одобренных сигналах.
func (s *Storage) ListEntitledUsers(ctx context.Context, now time.Time) ([]*models.User, error) {
	const op = "storage.ListEntitledUsers"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT u.uid, u.username, u.email, u.password_hash, u.role, u.created_at
			  FROM users u
			  JOIN subscriptions sub ON sub.user_uid = u.uid
			  WHERE sub.status = $1 AND sub.end_date > $2`
	rows, err := s.DB.QueryContext(ctx, query, models.SubscriptionActive, now)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var result []*models.User
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.UID, &u.Username, &u.Email, &u.PasswordHash,
			&u.Role, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = rows.Close(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
