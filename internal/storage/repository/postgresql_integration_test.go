package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shadowhowl/signal-platform/internal/models"
)

func TestStorage_CreateSignal(t *testing.T) {
	type args struct {
		ctx context.Context
		sig models.Signal
	}

	tests := []struct {
		name   string
		args   args
		wantID int
	}{
		{
			name: "successful create signal",
			args: args{
				ctx: context.Background(),
				sig: GetTestSignalData(),
			},
			wantID: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			storage, cleanup := setupTestDatabase(t)
			defer cleanup()

			gotID, err := storage.CreateSignal(tt.args.ctx, tt.args.sig)
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, gotID)

			verification := NewTestVerification(storage)
			verification.VerifySignalExists(t, gotID)
			// Независимо от входных данных сигнал создается неодобренным
			verification.VerifySignalApproval(t, gotID, false)
		})
	}
}

func TestStorage_ReadSignal(t *testing.T) {
	type args struct {
		ctx context.Context
		id  int
	}

	createdAt := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		args    args
		want    *models.Signal
		wantErr bool
		setup   func(t *testing.T, factory *TestDataFactory) int
	}{
		{
			name: "successful read existing signal",
			args: args{
				ctx: context.Background(),
				id:  0, // будет установлен в setup
			},
			want: &models.Signal{
				Pair:       "BTC/USD",
				Direction:  models.DirectionBuy,
				EntryPrice: 64000,
				StopLoss:   62000,
				TakeProfit: 70000,
				Notes:      "breakout setup",
				IsApproved: true,
			},
			wantErr: false,
			setup: func(t *testing.T, factory *TestDataFactory) int {
				return factory.CreateSignal(t, "BTC/USD", models.DirectionBuy,
					64000, 62000, 70000, "breakout setup", true, createdAt)
			},
		},
		{
			name: "read non-existing signal",
			args: args{
				ctx: context.Background(),
				id:  999,
			},
			want:    nil,
			wantErr: true,
			setup:   func(_ *testing.T, _ *TestDataFactory) int { return 999 },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			storage, cleanup := setupTestDatabase(t)
			defer cleanup()

			factory := NewTestDataFactory(storage)
			signalID := tt.setup(t, factory)
			tt.args.id = signalID

			got, err := storage.ReadSignal(tt.args.ctx, tt.args.id)

			if tt.wantErr {
				require.ErrorIs(t, err, ErrNotFound)
				assert.Nil(t, got)
				return
			}

			require.NoError(t, err)
			require.NotNil(t, got)
			assert.Equal(t, signalID, got.ID)
			assert.Equal(t, tt.want.Pair, got.Pair)
			assert.Equal(t, tt.want.Direction, got.Direction)
			assert.Equal(t, tt.want.EntryPrice, got.EntryPrice)
			assert.Equal(t, tt.want.StopLoss, got.StopLoss)
			assert.Equal(t, tt.want.TakeProfit, got.TakeProfit)
			assert.Equal(t, tt.want.Notes, got.Notes)
			assert.Equal(t, tt.want.IsApproved, got.IsApproved)
			assert.True(t, createdAt.Equal(got.CreatedAt))
		})
	}
}

func TestStorage_UpdateSignal(t *testing.T) {
	createdAt := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name             string
		sig              models.Signal
		wantRowsAffected int
		setup            func(t *testing.T, factory *TestDataFactory) int
		verify           func(t *testing.T, s *Storage, id int)
	}{
		{
			name: "successful update signal",
			sig: models.Signal{
				Pair:       "ETH/USD",
				Direction:  models.DirectionSell,
				EntryPrice: 3200,
				StopLoss:   3400,
				TakeProfit: 2800,
				Notes:      "updated notes",
			},
			wantRowsAffected: 1,
			setup: func(t *testing.T, factory *TestDataFactory) int {
				return factory.CreateSignal(t, "BTC/USD", models.DirectionBuy,
					64000, 62000, 70000, "original", true, createdAt)
			},
			verify: func(t *testing.T, s *Storage, id int) {
				var pair, direction, notes string
				var approved bool
				err := s.DB.QueryRow("SELECT pair, direction, notes, is_approved FROM signals WHERE id = $1", id).
					Scan(&pair, &direction, &notes, &approved)
				require.NoError(t, err)
				assert.Equal(t, "ETH/USD", pair)
				assert.Equal(t, models.DirectionSell, direction)
				assert.Equal(t, "updated notes", notes)
				// Обновление полей не трогает флаг одобрения
				assert.True(t, approved)
			},
		},
		{
			name: "update non-existing signal",
			sig: models.Signal{
				Pair:       "ETH/USD",
				Direction:  models.DirectionSell,
				EntryPrice: 3200,
				StopLoss:   3400,
				TakeProfit: 2800,
			},
			wantRowsAffected: 0,
			setup:            func(_ *testing.T, _ *TestDataFactory) int { return 999 },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			storage, cleanup := setupTestDatabase(t)
			defer cleanup()

			factory := NewTestDataFactory(storage)
			signalID := tt.setup(t, factory)

			gotRowsAffected, err := storage.UpdateSignal(context.Background(), tt.sig, signalID)

			require.NoError(t, err)
			assert.Equal(t, tt.wantRowsAffected, gotRowsAffected)
			if tt.verify != nil {
				tt.verify(t, storage, signalID)
			}
		})
	}
}

func TestStorage_RemoveSignal(t *testing.T) {
	createdAt := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name             string
		wantRowsAffected int
		setup            func(t *testing.T, factory *TestDataFactory) int
	}{
		{
			name:             "successful delete signal",
			wantRowsAffected: 1,
			setup: func(t *testing.T, factory *TestDataFactory) int {
				return factory.CreateSignal(t, "BTC/USD", models.DirectionBuy,
					64000, 62000, 70000, "", false, createdAt)
			},
		},
		{
			name:             "delete non-existing signal",
			wantRowsAffected: 0,
			setup:            func(_ *testing.T, _ *TestDataFactory) int { return 999 },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			storage, cleanup := setupTestDatabase(t)
			defer cleanup()

			factory := NewTestDataFactory(storage)
			signalID := tt.setup(t, factory)

			gotRowsAffected, err := storage.RemoveSignal(context.Background(), signalID)

			require.NoError(t, err)
			assert.Equal(t, tt.wantRowsAffected, gotRowsAffected)

			if tt.wantRowsAffected > 0 {
				verification := NewTestVerification(storage)
				verification.VerifySignalDeleted(t, signalID)
			}
		})
	}
}

func TestStorage_ListSignals(t *testing.T) {
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	seed := func(t *testing.T, factory *TestDataFactory) {
		factory.CreateSignal(t, "BTC/USD", models.DirectionBuy, 64000, 62000, 70000, "", true, base)
		factory.CreateSignal(t, "ETH/USD", models.DirectionSell, 3200, 3400, 2800, "", false, base.Add(time.Hour))
		factory.CreateSignal(t, "SOL/USD", models.DirectionBuy, 150, 140, 180, "", true, base.Add(2*time.Hour))
	}

	tests := []struct {
		name         string
		approvedOnly bool
		limit        int
		wantPairs    []string
	}{
		{
			name:         "approved only returns approved newest first",
			approvedOnly: true,
			limit:        1000,
			wantPairs:    []string{"SOL/USD", "BTC/USD"},
		},
		{
			name:         "all signals newest first",
			approvedOnly: false,
			limit:        1000,
			wantPairs:    []string{"SOL/USD", "ETH/USD", "BTC/USD"},
		},
		{
			name:         "limit caps the result",
			approvedOnly: false,
			limit:        2,
			wantPairs:    []string{"SOL/USD", "ETH/USD"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			storage, cleanup := setupTestDatabase(t)
			defer cleanup()

			factory := NewTestDataFactory(storage)
			seed(t, factory)

			got, err := storage.ListSignals(context.Background(), tt.approvedOnly, tt.limit)

			require.NoError(t, err)
			require.Len(t, got, len(tt.wantPairs))
			for i, pair := range tt.wantPairs {
				assert.Equal(t, pair, got[i].Pair)
			}
		})
	}
}

func TestStorage_SetSignalApproval(t *testing.T) {
	createdAt := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name             string
		approved         bool
		wantRowsAffected int
		wantApproved     bool
		setup            func(t *testing.T, factory *TestDataFactory) int
	}{
		{
			name:             "approve pending signal",
			approved:         true,
			wantRowsAffected: 1,
			wantApproved:     true,
			setup: func(t *testing.T, factory *TestDataFactory) int {
				return factory.CreateSignal(t, "BTC/USD", models.DirectionBuy,
					64000, 62000, 70000, "", false, createdAt)
			},
		},
		{
			name:             "approve already approved signal changes nothing",
			approved:         true,
			wantRowsAffected: 0,
			wantApproved:     true,
			setup: func(t *testing.T, factory *TestDataFactory) int {
				return factory.CreateSignal(t, "BTC/USD", models.DirectionBuy,
					64000, 62000, 70000, "", true, createdAt)
			},
		},
		{
			name:             "revoke approval",
			approved:         false,
			wantRowsAffected: 1,
			wantApproved:     false,
			setup: func(t *testing.T, factory *TestDataFactory) int {
				return factory.CreateSignal(t, "BTC/USD", models.DirectionBuy,
					64000, 62000, 70000, "", true, createdAt)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			storage, cleanup := setupTestDatabase(t)
			defer cleanup()

			factory := NewTestDataFactory(storage)
			signalID := tt.setup(t, factory)

			gotRowsAffected, err := storage.SetSignalApproval(context.Background(), signalID, tt.approved)

			require.NoError(t, err)
			assert.Equal(t, tt.wantRowsAffected, gotRowsAffected)

			verification := NewTestVerification(storage)
			verification.VerifySignalApproval(t, signalID, tt.wantApproved)
		})
	}
}

func TestStorage_ListEntitledUsers(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name          string
		wantUsernames []string
		setup         func(t *testing.T, factory *TestDataFactory)
	}{
		{
			name:          "only active subscriptions with future end date",
			wantUsernames: []string{"alice"},
			setup: func(t *testing.T, factory *TestDataFactory) {
				// Действующая подписка
				factory.CreateUserWithSubscription(t, uuid.New().String(), "alice", "alice@example.com", "hash1", "user",
					models.SubscriptionActive, now.AddDate(0, 1, 0))
				// Статус active, но дата окончания в прошлом
				factory.CreateUserWithSubscription(t, uuid.New().String(), "bob", "bob@example.com", "hash2", "user",
					models.SubscriptionActive, now.AddDate(0, -1, 0))
				// Истекшая подписка с датой в будущем
				factory.CreateUserWithSubscription(t, uuid.New().String(), "carol", "carol@example.com", "hash3", "user",
					models.SubscriptionExpired, now.AddDate(0, 1, 0))
				// Пользователь вовсе без записи подписки
				factory.CreateUser(t, uuid.New().String(), "dave", "dave@example.com", "hash4", "user")
			},
		},
		{
			name:          "no entitled users",
			wantUsernames: nil,
			setup: func(t *testing.T, factory *TestDataFactory) {
				factory.CreateUserWithSubscription(t, uuid.New().String(), "bob", "bob@example.com", "hash2", "user",
					models.SubscriptionExpired, now.AddDate(0, -1, 0))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			storage, cleanup := setupTestDatabase(t)
			defer cleanup()

			factory := NewTestDataFactory(storage)
			tt.setup(t, factory)

			got, err := storage.ListEntitledUsers(context.Background(), now)

			require.NoError(t, err)
			require.Len(t, got, len(tt.wantUsernames))
			for i, username := range tt.wantUsernames {
				assert.Equal(t, username, got[i].Username)
			}
		})
	}
}

func TestCheckDatabaseReady(t *testing.T) {
	tests := []struct {
		name         string
		setup        func(t *testing.T, storage *Storage)
		wantError    bool
		errorContain string
	}{
		{
			name: "table exists",
			setup: func(_ *testing.T, _ *Storage) {
				// Таблицы уже создаются в setupTestDatabase
			},
			wantError: false,
		},
		{
			name: "table missing",
			setup: func(t *testing.T, storage *Storage) {
				_, err := storage.DB.Exec(`DROP TABLE IF EXISTS signals CASCADE`)
				require.NoError(t, err)
			},
			wantError:    true,
			errorContain: "missing",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			storage, cleanup := setupTestDatabase(t)
			defer cleanup()
			tt.setup(t, storage)

			err := storage.CheckDatabaseReady(context.Background())
			if tt.wantError {
				require.Error(t, err)
				if tt.errorContain != "" {
					assert.Contains(t, err.Error(), tt.errorContain)
				}
			} else {
				require.NoError(t, err)
			}
		})
	}
}
