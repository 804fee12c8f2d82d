package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shadowhowl/signal-platform/internal/models"
)

// CreateSignal вставляет новый сигнал и возвращает его ID.
// Сигнал всегда создаётся неодобренным, created_at проставляет база.
func (s *Storage) CreateSignal(ctx context.Context, sig models.Signal) (int, error) {
	const op = "storage.CreateSignal"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO signals (pair, direction, entry_price, stop_loss, take_profit, notes, is_approved)
			  VALUES ($1, $2, $3, $4, $5, $6, FALSE)
			  RETURNING id`
	var newID int
	err := s.DB.QueryRowContext(ctx, query,
		sig.Pair, sig.Direction, sig.EntryPrice, sig.StopLoss, sig.TakeProfit, sig.Notes).Scan(&newID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// ReadSignal возвращает сигнал по его ID.
func (s *Storage) ReadSignal(ctx context.Context, id int) (*models.Signal, error) {
	const op = "storage.ReadSignal"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, pair, direction, entry_price, stop_loss, take_profit, notes, is_approved, created_at
			  FROM signals WHERE id = $1`
	row := s.DB.QueryRowContext(ctx, query, id)

	var result models.Signal
	if err := row.Scan(&result.ID, &result.Pair, &result.Direction, &result.EntryPrice,
		&result.StopLoss, &result.TakeProfit, &result.Notes, &result.IsApproved, &result.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &result, nil
}

// UpdateSignal обновляет поля сигнала, кроме id, created_at и is_approved,
// и возвращает количество изменённых строк. Ноль строк означает,
// что сигнала с таким ID нет.
func (s *Storage) UpdateSignal(ctx context.Context, sig models.Signal, id int) (int, error) {
	const op = "storage.UpdateSignal"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE signals
			  SET pair = $1, direction = $2, entry_price = $3, stop_loss = $4,
			      take_profit = $5, notes = $6
			  WHERE id = $7`
	result, err := s.DB.ExecContext(ctx, query,
		sig.Pair, sig.Direction, sig.EntryPrice, sig.StopLoss, sig.TakeProfit, sig.Notes, id)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(rowsAffected), nil
}

// RemoveSignal удаляет сигнал по ID и возвращает количество удалённых строк.
// Отсутствие строки ошибкой не считается.
func (s *Storage) RemoveSignal(ctx context.Context, id int) (int, error) {
	const op = "storage.RemoveSignal"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `DELETE FROM signals WHERE id = $1`
	result, err := s.DB.ExecContext(ctx, query, id)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(rowsAffected), nil
}

// ListSignals возвращает сигналы от новых к старым, ограничивая размер выдачи.
// approvedOnly=true отбирает только одобренные.
func (s *Storage) ListSignals(ctx context.Context, approvedOnly bool, limit int) ([]*models.Signal, error) {
	const op = "storage.ListSignals"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, pair, direction, entry_price, stop_loss, take_profit, notes, is_approved, created_at
			  FROM signals
			  WHERE ($1 = FALSE OR is_approved = TRUE)
			  ORDER BY created_at DESC
			  LIMIT $2`
	rows, err := s.DB.QueryContext(ctx, query, approvedOnly, limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var result []*models.Signal
	for rows.Next() {
		var item models.Signal
		if err := rows.Scan(&item.ID, &item.Pair, &item.Direction, &item.EntryPrice,
			&item.StopLoss, &item.TakeProfit, &item.Notes, &item.IsApproved, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = rows.Close(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// SetSignalApproval переводит флаг одобрения и возвращает количество
// изменённых строк. Условие "is_approved <> $1" делает перевод
// идемпотентным: повторное одобрение уже одобренного сигнала меняет
// ноль строк, и именно по этому признаку рассылка уведомлений
// срабатывает только на фактическом переходе.
func (s *Storage) SetSignalApproval(ctx context.Context, id int, approved bool) (int, error) {
	const op = "storage.SetSignalApproval"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE signals SET is_approved = $1 WHERE id = $2 AND is_approved <> $1`
	result, err := s.DB.ExecContext(ctx, query, approved, id)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(rowsAffected), nil
}
