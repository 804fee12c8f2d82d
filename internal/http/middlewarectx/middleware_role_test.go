package middlewarectx

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/shadowhowl/signal-platform/internal/models"
)

func TestRequireRole(t *testing.T) {
	okHandler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mw := RequireRole(models.RoleAdmin, newNoopLogger())(okHandler)

	tests := []struct {
		name           string
		role           any
		expectedStatus int
		expectedBody   string
	}{
		{
			name:           "администратор проходит",
			role:           models.RoleAdmin,
			expectedStatus: http.StatusOK,
		},
		{
			name:           "обычному пользователю отказано",
			role:           models.RoleUser,
			expectedStatus: http.StatusForbidden,
			expectedBody:   "Access Denied: admin role required.",
		},
		{
			name:           "без роли в контексте запрос не авторизован",
			role:           nil,
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   "unauthorized",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/signals", http.NoBody)
			if tt.role != nil {
				req = req.WithContext(context.WithValue(req.Context(), Role, tt.role))
			}
			w := httptest.NewRecorder()
			mw.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedBody != "" {
				assert.Contains(t, w.Body.String(), tt.expectedBody)
			}
		})
	}
}
