package create

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
	services "github.com/shadowhowl/signal-platform/internal/services/signal"
)

// MockService реализует интерфейс create.Service
type MockService struct {
	mock.Mock
}

func (m *MockService) Create(ctx context.Context, req models.DummySignal) (int, error) {
	args := m.Called(ctx, req)
	return args.Int(0), args.Error(1)
}

func TestCreateHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	validBody := models.DummySignal{
		Pair:       "BTC/USD",
		Direction:  "BUY",
		EntryPrice: 64000,
		StopLoss:   62000,
		TakeProfit: 70000,
	}

	tests := []struct {
		name           string
		requestBody    interface{}
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name:        "успешное создание сигнала",
			requestBody: validBody,
			setupMock: func(m *MockService) {
				m.On("Create", mock.Anything, mock.AnythingOfType("models.DummySignal")).
					Return(42, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"last_added_id":42`,
		},
		{
			name:           "некорректный JSON",
			requestBody:    "not a json",
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `"error":"invalid request body"`,
		},
		{
			name: "ошибка валидации пустых полей",
			requestBody: models.DummySignal{
				Pair: "BTC/USD",
			},
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedBody:   `field Direction is a required field`,
		},
		{
			name: "нулевая цена входа допустима",
			requestBody: models.DummySignal{
				Pair:       "BTC/USD",
				Direction:  "SELL",
				EntryPrice: 0,
				StopLoss:   61000,
				TakeProfit: 58000,
			},
			setupMock: func(m *MockService) {
				m.On("Create", mock.Anything, mock.AnythingOfType("models.DummySignal")).
					Return(43, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"last_added_id":43`,
		},
		{
			name: "слишком длинная пара",
			requestBody: models.DummySignal{
				Pair:       "VERYLONGPAIRNAME",
				Direction:  "BUY",
				EntryPrice: 1,
				StopLoss:   1,
				TakeProfit: 1,
			},
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedBody:   `field Pair is too long`,
		},
		{
			name:        "неверное направление отклоняется сервисом",
			requestBody: models.DummySignal{Pair: "BTC/USD", Direction: "HOLD", EntryPrice: 1, StopLoss: 1, TakeProfit: 1},
			setupMock: func(m *MockService) {
				m.On("Create", mock.Anything, mock.AnythingOfType("models.DummySignal")).
					Return(0, services.ErrInvalidSignal)
			},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedBody:   `invalid signal`,
		},
		{
			name:        "ошибка сервиса",
			requestBody: validBody,
			setupMock: func(m *MockService) {
				m.On("Create", mock.Anything, mock.AnythingOfType("models.DummySignal")).
					Return(0, errors.New("db error"))
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `"error":"could not create signal"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockService)
			tt.setupMock(mockService)

			handler := New(logger, mockService)

			var body []byte
			var err error
			if str, ok := tt.requestBody.(string); ok {
				body = []byte(str)
			} else {
				body, err = json.Marshal(tt.requestBody)
				assert.NoError(t, err)
			}

			req := httptest.NewRequest(http.MethodPost, "/signals", bytes.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
			req = req.WithContext(context.WithValue(req.Context(), middleware.RequestIDKey, "req-id"))

			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.expectedBody)

			mockService.AssertExpectations(t)
		})
	}
}
