package middlewarectx

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"github.com/shadowhowl/signal-platform/internal/http/response"
)

// RequireRole возвращает middleware, пропускающий только пользователей с указанной ролью.
// Роль берётся из контекста, заполненного JWTMiddleware.
func RequireRole(role string, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userRole, ok := r.Context().Value(Role).(string)
			if !ok || userRole == "" {
				log.Error("role not found in context")
				w.WriteHeader(http.StatusUnauthorized)
				render.JSON(w, r, response.Error("unauthorized"))
				return
			}
			if userRole != role {
				log.Warn("access denied",
					slog.String("required", role),
					slog.String("actual", userRole))
				w.WriteHeader(http.StatusForbidden)
				render.JSON(w, r, response.Error(fmt.Sprintf("Access Denied: %s role required.", role)))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
