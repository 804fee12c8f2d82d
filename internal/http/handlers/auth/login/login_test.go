package login

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/go-chi/chi/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/shadowhowl/signal-platform/internal/models"
	services "github.com/shadowhowl/signal-platform/internal/services/auth"
)

// MockService реализует интерфейс login.Service
type MockService struct {
	mock.Mock
}

func (m *MockService) Login(ctx context.Context, email, password string) (string, *models.User, error) {
	args := m.Called(ctx, email, password)
	var user *models.User
	if args.Get(1) != nil {
		user = args.Get(1).(*models.User)
	}
	return args.String(0), user, args.Error(2)
}

// MockSubscriptions реализует интерфейс login.Subscriptions
type MockSubscriptions struct {
	mock.Mock
}

func (m *MockSubscriptions) Status(ctx context.Context, userUID string) (*models.Subscription, error) {
	args := m.Called(ctx, userUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Subscription), args.Error(1)
}

func TestLoginHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	user := &models.User{
		UID:      "uid-1",
		Username: "trader1",
		Email:    "t@example.com",
		Role:     models.RoleUser,
	}

	tests := []struct {
		name           string
		requestBody    interface{}
		setupMock      func(*MockService, *MockSubscriptions)
		expectedStatus int
		expectedBody   string
	}{
		{
			name:        "успешная авторизация",
			requestBody: Request{Email: "t@example.com", Password: "secret123"},
			setupMock: func(m *MockService, subs *MockSubscriptions) {
				m.On("Login", mock.Anything, "t@example.com", "secret123").
					Return("token-abc", user, nil)
				subs.On("Status", mock.Anything, "uid-1").
					Return(&models.Subscription{UserUID: "uid-1", Status: models.SubscriptionActive}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"token":"token-abc"`,
		},
		{
			name:        "в ответе активный статус подписки",
			requestBody: Request{Email: "t@example.com", Password: "secret123"},
			setupMock: func(m *MockService, subs *MockSubscriptions) {
				m.On("Login", mock.Anything, "t@example.com", "secret123").
					Return("token-abc", user, nil)
				subs.On("Status", mock.Anything, "uid-1").
					Return(&models.Subscription{UserUID: "uid-1", Status: models.SubscriptionActive}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"subscription_status":"active"`,
		},
		{
			name:        "без записи подписки статус expired",
			requestBody: Request{Email: "t@example.com", Password: "secret123"},
			setupMock: func(m *MockService, subs *MockSubscriptions) {
				m.On("Login", mock.Anything, "t@example.com", "secret123").
					Return("token-abc", user, nil)
				subs.On("Status", mock.Anything, "uid-1").
					Return(&models.Subscription{UserUID: "uid-1", Status: models.SubscriptionExpired}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"subscription_status":"expired"`,
		},
		{
			name:        "ошибка чтения подписки",
			requestBody: Request{Email: "t@example.com", Password: "secret123"},
			setupMock: func(m *MockService, subs *MockSubscriptions) {
				m.On("Login", mock.Anything, "t@example.com", "secret123").
					Return("token-abc", user, nil)
				subs.On("Status", mock.Anything, "uid-1").
					Return(nil, errors.New("db error"))
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `"error":"could not login"`,
		},
		{
			name:        "неверные учетные данные",
			requestBody: Request{Email: "t@example.com", Password: "wrongpass"},
			setupMock: func(m *MockService, _ *MockSubscriptions) {
				m.On("Login", mock.Anything, "t@example.com", "wrongpass").
					Return("", nil, services.ErrInvalidCredentials)
			},
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   `"error":"invalid credentials"`,
		},
		{
			name:           "некорректный JSON",
			requestBody:    "not a json",
			setupMock:      func(_ *MockService, _ *MockSubscriptions) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `"error":"invalid request body"`,
		},
		{
			name:           "невалидный email",
			requestBody:    Request{Email: "not-an-email", Password: "secret123"},
			setupMock:      func(_ *MockService, _ *MockSubscriptions) {},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedBody:   `field Email must be a valid email address`,
		},
		{
			name:        "ошибка сервиса",
			requestBody: Request{Email: "t@example.com", Password: "secret123"},
			setupMock: func(m *MockService, _ *MockSubscriptions) {
				m.On("Login", mock.Anything, "t@example.com", "secret123").
					Return("", nil, errors.New("db error"))
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `"error":"could not login"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockService)
			mockSubs := new(MockSubscriptions)
			tt.setupMock(mockService, mockSubs)

			handler := New(logger, mockService, mockSubs)

			var body []byte
			var err error
			if str, ok := tt.requestBody.(string); ok {
				body = []byte(str)
			} else {
				body, err = json.Marshal(tt.requestBody)
				assert.NoError(t, err)
			}

			req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
			req = req.WithContext(context.WithValue(req.Context(), middleware.RequestIDKey, "req-id"))

			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.expectedBody)

			mockService.AssertExpectations(t)
			mockSubs.AssertExpectations(t)
		})
	}
}
