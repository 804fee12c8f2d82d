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

func TestStorage_CreateUser(t *testing.T) {
	type args struct {
		ctx  context.Context
		user models.User
	}

	tests := []struct {
		name    string
		args    args
		wantErr error
		setup   func(t *testing.T, factory *TestDataFactory)
	}{
		{
			name: "successful create user",
			args: args{
				ctx: context.Background(),
				user: models.User{
					Username:     "testuser",
					Email:        "test@example.com",
					PasswordHash: "hashedpassword",
					Role:         "user",
				},
			},
			wantErr: nil,
			setup:   func(_ *testing.T, _ *TestDataFactory) {},
		},
		{
			name: "create user with duplicate username",
			args: args{
				ctx: context.Background(),
				user: models.User{
					Username:     "testuser",
					Email:        "other@example.com",
					PasswordHash: "hashedpassword2",
					Role:         "user",
				},
			},
			wantErr: ErrAlreadyExists,
			setup: func(t *testing.T, factory *TestDataFactory) {
				factory.CreateUser(t, uuid.New().String(), "testuser", "test@example.com", "hashedpassword", "user")
			},
		},
		{
			name: "create user with duplicate email",
			args: args{
				ctx: context.Background(),
				user: models.User{
					Username:     "otheruser",
					Email:        "test@example.com",
					PasswordHash: "hashedpassword2",
					Role:         "user",
				},
			},
			wantErr: ErrAlreadyExists,
			setup: func(t *testing.T, factory *TestDataFactory) {
				factory.CreateUser(t, uuid.New().String(), "testuser", "test@example.com", "hashedpassword", "user")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			storage, cleanup := setupTestDatabase(t)
			defer cleanup()

			factory := NewTestDataFactory(storage)
			tt.setup(t, factory)

			gotUID, err := storage.CreateUser(tt.args.ctx, tt.args.user)

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Empty(t, gotUID)
				return
			}

			require.NoError(t, err)
			require.NotEmpty(t, gotUID)

			// Проверяем, что пользователь создан вместе с записью подписки
			verification := NewTestVerification(storage)
			verification.VerifyUserExists(t, gotUID)
			verification.VerifySubscriptionStatus(t, gotUID, models.SubscriptionExpired)
		})
	}
}

func TestStorage_GetUserByEmail(t *testing.T) {
	type args struct {
		ctx   context.Context
		email string
	}

	tests := []struct {
		name    string
		args    args
		want    *models.User
		wantErr bool
		setup   func(t *testing.T, factory *TestDataFactory) string
	}{
		{
			name: "successful get user by email",
			args: args{
				ctx:   context.Background(),
				email: "test@example.com",
			},
			want: &models.User{
				Username:     "testuser",
				Email:        "test@example.com",
				PasswordHash: "hashedpassword",
				Role:         "user",
			},
			wantErr: false,
			setup: func(t *testing.T, factory *TestDataFactory) string {
				userUID := uuid.New().String()
				factory.CreateUser(t, userUID, "testuser", "test@example.com", "hashedpassword", "user")
				return userUID
			},
		},
		{
			name: "get non-existing user",
			args: args{
				ctx:   context.Background(),
				email: "nobody@example.com",
			},
			want:    nil,
			wantErr: true,
			setup:   func(_ *testing.T, _ *TestDataFactory) string { return "" },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			storage, cleanup := setupTestDatabase(t)
			defer cleanup()

			factory := NewTestDataFactory(storage)
			userUID := tt.setup(t, factory)
			if tt.want != nil {
				tt.want.UID = userUID
			}

			got, err := storage.GetUserByEmail(tt.args.ctx, tt.args.email)

			if tt.wantErr {
				require.ErrorIs(t, err, ErrNotFound)
				assert.Nil(t, got)
				return
			}

			require.NoError(t, err)
			require.NotNil(t, got)
			assert.Equal(t, tt.want.UID, got.UID)
			assert.Equal(t, tt.want.Username, got.Username)
			assert.Equal(t, tt.want.Email, got.Email)
			assert.Equal(t, tt.want.PasswordHash, got.PasswordHash)
			assert.Equal(t, tt.want.Role, got.Role)
			assert.False(t, got.CreatedAt.IsZero())
		})
	}
}

func TestStorage_UserExists(t *testing.T) {
	type args struct {
		ctx      context.Context
		username string
		email    string
	}

	tests := []struct {
		name  string
		args  args
		want  bool
		setup func(t *testing.T, factory *TestDataFactory)
	}{
		{
			name: "username taken",
			args: args{
				ctx:      context.Background(),
				username: "testuser",
				email:    "free@example.com",
			},
			want: true,
			setup: func(t *testing.T, factory *TestDataFactory) {
				factory.CreateUser(t, uuid.New().String(), "testuser", "test@example.com", "hashedpassword", "user")
			},
		},
		{
			name: "email taken",
			args: args{
				ctx:      context.Background(),
				username: "freeuser",
				email:    "test@example.com",
			},
			want: true,
			setup: func(t *testing.T, factory *TestDataFactory) {
				factory.CreateUser(t, uuid.New().String(), "testuser", "test@example.com", "hashedpassword", "user")
			},
		},
		{
			name: "both free",
			args: args{
				ctx:      context.Background(),
				username: "freeuser",
				email:    "free@example.com",
			},
			want:  false,
			setup: func(_ *testing.T, _ *TestDataFactory) {},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			storage, cleanup := setupTestDatabase(t)
			defer cleanup()

			factory := NewTestDataFactory(storage)
			tt.setup(t, factory)

			got, err := storage.UserExists(tt.args.ctx, tt.args.username, tt.args.email)

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStorage_UpdateUserRole(t *testing.T) {
	type args struct {
		ctx     context.Context
		userUID string
		role    string
	}

	tests := []struct {
		name             string
		args             args
		wantRowsAffected int
		setup            func(t *testing.T, factory *TestDataFactory) string
	}{
		{
			name: "successful promote user to admin",
			args: args{
				ctx:     context.Background(),
				userUID: "", // будет установлен в setup
				role:    "admin",
			},
			wantRowsAffected: 1,
			setup: func(t *testing.T, factory *TestDataFactory) string {
				userUID := uuid.New().String()
				factory.CreateUser(t, userUID, "testuser", "test@example.com", "hashedpassword", "user")
				return userUID
			},
		},
		{
			name: "update role for non-existing user",
			args: args{
				ctx:     context.Background(),
				userUID: "",
				role:    "admin",
			},
			wantRowsAffected: 0,
			setup:            func(_ *testing.T, _ *TestDataFactory) string { return uuid.New().String() },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			storage, cleanup := setupTestDatabase(t)
			defer cleanup()

			factory := NewTestDataFactory(storage)
			userUID := tt.setup(t, factory)
			tt.args.userUID = userUID

			gotRowsAffected, err := storage.UpdateUserRole(tt.args.ctx, tt.args.userUID, tt.args.role)

			require.NoError(t, err)
			assert.Equal(t, tt.wantRowsAffected, gotRowsAffected)

			if tt.wantRowsAffected > 0 {
				var role string
				err = storage.DB.QueryRow("SELECT role FROM users WHERE uid = $1", userUID).Scan(&role)
				require.NoError(t, err)
				assert.Equal(t, tt.args.role, role)
			}
		})
	}
}

func TestStorage_UpdatePassword(t *testing.T) {
	type args struct {
		ctx          context.Context
		email        string
		passwordHash string
	}

	tests := []struct {
		name             string
		args             args
		wantRowsAffected int
		setup            func(t *testing.T, factory *TestDataFactory)
	}{
		{
			name: "successful update password",
			args: args{
				ctx:          context.Background(),
				email:        "test@example.com",
				passwordHash: "newhash",
			},
			wantRowsAffected: 1,
			setup: func(t *testing.T, factory *TestDataFactory) {
				factory.CreateUser(t, uuid.New().String(), "testuser", "test@example.com", "oldhash", "user")
			},
		},
		{
			name: "update password for non-existing email",
			args: args{
				ctx:          context.Background(),
				email:        "nobody@example.com",
				passwordHash: "newhash",
			},
			wantRowsAffected: 0,
			setup:            func(_ *testing.T, _ *TestDataFactory) {},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			storage, cleanup := setupTestDatabase(t)
			defer cleanup()

			factory := NewTestDataFactory(storage)
			tt.setup(t, factory)

			gotRowsAffected, err := storage.UpdatePassword(tt.args.ctx, tt.args.email, tt.args.passwordHash)

			require.NoError(t, err)
			assert.Equal(t, tt.wantRowsAffected, gotRowsAffected)

			if tt.wantRowsAffected > 0 {
				var hash string
				err = storage.DB.QueryRow("SELECT password_hash FROM users WHERE email = $1", tt.args.email).Scan(&hash)
				require.NoError(t, err)
				assert.Equal(t, tt.args.passwordHash, hash)
			}
		})
	}
}

func TestStorage_GetSubscription(t *testing.T) {
	type args struct {
		ctx     context.Context
		userUID string
	}

	endDate := time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		args       args
		wantStatus string
		wantErr    bool
		setup      func(t *testing.T, factory *TestDataFactory) string
	}{
		{
			name: "successful get subscription",
			args: args{
				ctx:     context.Background(),
				userUID: "", // будет установлен в setup
			},
			wantStatus: models.SubscriptionActive,
			wantErr:    false,
			setup: func(t *testing.T, factory *TestDataFactory) string {
				userUID := uuid.New().String()
				factory.CreateUserWithSubscription(t, userUID, "testuser", "test@example.com", "hashedpassword", "user",
					models.SubscriptionActive, endDate)
				return userUID
			},
		},
		{
			name: "get subscription for user without record",
			args: args{
				ctx:     context.Background(),
				userUID: "",
			},
			wantErr: true,
			setup: func(t *testing.T, factory *TestDataFactory) string {
				userUID := uuid.New().String()
				factory.CreateUser(t, userUID, "testuser", "test@example.com", "hashedpassword", "user")
				return userUID
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			storage, cleanup := setupTestDatabase(t)
			defer cleanup()

			factory := NewTestDataFactory(storage)
			userUID := tt.setup(t, factory)
			tt.args.userUID = userUID

			got, err := storage.GetSubscription(tt.args.ctx, tt.args.userUID)

			if tt.wantErr {
				require.ErrorIs(t, err, ErrNotFound)
				assert.Nil(t, got)
				return
			}

			require.NoError(t, err)
			require.NotNil(t, got)
			assert.Equal(t, userUID, got.UserUID)
			assert.Equal(t, tt.wantStatus, got.Status)
			assert.True(t, endDate.Equal(got.EndDate))
		})
	}
}

func TestStorage_UpsertSubscription(t *testing.T) {
	endDate := time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		status     string
		endDate    time.Time
		wantStatus string
		setup      func(t *testing.T, factory *TestDataFactory) string
	}{
		{
			name:       "insert new subscription record",
			status:     models.SubscriptionActive,
			endDate:    endDate,
			wantStatus: models.SubscriptionActive,
			setup: func(t *testing.T, factory *TestDataFactory) string {
				userUID := uuid.New().String()
				factory.CreateUser(t, userUID, "testuser", "test@example.com", "hashedpassword", "user")
				return userUID
			},
		},
		{
			name:       "update existing subscription record",
			status:     models.SubscriptionExpired,
			endDate:    endDate,
			wantStatus: models.SubscriptionExpired,
			setup: func(t *testing.T, factory *TestDataFactory) string {
				userUID := uuid.New().String()
				factory.CreateUserWithSubscription(t, userUID, "testuser", "test@example.com", "hashedpassword", "user",
					models.SubscriptionActive, endDate.AddDate(1, 0, 0))
				return userUID
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			storage, cleanup := setupTestDatabase(t)
			defer cleanup()

			factory := NewTestDataFactory(storage)
			userUID := tt.setup(t, factory)

			err := storage.UpsertSubscription(context.Background(), userUID, tt.status, tt.endDate)
			require.NoError(t, err)

			// На пользователя всегда остается ровно одна запись
			var count int
			err = storage.DB.QueryRow("SELECT COUNT(*) FROM subscriptions WHERE user_uid = $1", userUID).Scan(&count)
			require.NoError(t, err)
			assert.Equal(t, 1, count)

			verification := NewTestVerification(storage)
			verification.VerifySubscriptionStatus(t, userUID, tt.wantStatus)
		})
	}

	t.Run("unknown user uid is not found", func(t *testing.T) {
		storage, cleanup := setupTestDatabase(t)
		defer cleanup()

		err := storage.UpsertSubscription(context.Background(),
			uuid.New().String(), models.SubscriptionActive, endDate)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestStorage_ListProfiles(t *testing.T) {
	endDate := time.Now().AddDate(0, 1, 0)

	tests := []struct {
		name      string
		limit     int
		offset    int
		wantCount int
		setup     func(t *testing.T, factory *TestDataFactory)
		verify    func(t *testing.T, got []*models.Profile)
	}{
		{
			name:      "list users with and without subscription records",
			limit:     10,
			offset:    0,
			wantCount: 2,
			setup: func(t *testing.T, factory *TestDataFactory) {
				factory.CreateUserWithSubscription(t, uuid.New().String(), "alice", "alice@example.com", "hash1", "user",
					models.SubscriptionActive, endDate)
				factory.CreateUser(t, uuid.New().String(), "bob", "bob@example.com", "hash2", "user")
			},
			verify: func(t *testing.T, got []*models.Profile) {
				byName := map[string]*models.Profile{}
				for _, p := range got {
					byName[p.Username] = p
				}
				require.Contains(t, byName, "alice")
				require.Contains(t, byName, "bob")
				assert.Equal(t, models.SubscriptionActive, byName["alice"].SubscriptionStatus)
				require.NotNil(t, byName["alice"].SubscriptionEnd)
				// Пользователь без записи подписки отдается как expired
				assert.Equal(t, models.SubscriptionExpired, byName["bob"].SubscriptionStatus)
				assert.Nil(t, byName["bob"].SubscriptionEnd)
			},
		},
		{
			name:      "pagination limits the result",
			limit:     1,
			offset:    0,
			wantCount: 1,
			setup: func(t *testing.T, factory *TestDataFactory) {
				factory.CreateUser(t, uuid.New().String(), "alice", "alice@example.com", "hash1", "user")
				factory.CreateUser(t, uuid.New().String(), "bob", "bob@example.com", "hash2", "user")
			},
			verify: func(_ *testing.T, _ []*models.Profile) {},
		},
		{
			name:      "empty database",
			limit:     10,
			offset:    0,
			wantCount: 0,
			setup:     func(_ *testing.T, _ *TestDataFactory) {},
			verify:    func(_ *testing.T, _ []*models.Profile) {},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			storage, cleanup := setupTestDatabase(t)
			defer cleanup()

			factory := NewTestDataFactory(storage)
			tt.setup(t, factory)

			got, err := storage.ListProfiles(context.Background(), tt.limit, tt.offset)

			require.NoError(t, err)
			assert.Len(t, got, tt.wantCount)
			tt.verify(t, got)
		})
	}
}
