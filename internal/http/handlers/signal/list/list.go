// Package list реализует HTTP-обработчик выдачи торговых сигналов.
//
// Состав выдачи зависит от прав пользователя: администратор видит все сигналы,
// активный подписчик — только подтверждённые, остальным возвращается 403
// с причиной отказа и инструкцией по продлению подписки.
package list

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/shadowhowl/signal-platform/internal/http/middlewarectx"
	"github.com/shadowhowl/signal-platform/internal/http/response"
	"github.com/shadowhowl/signal-platform/internal/lib/sl"
	"github.com/shadowhowl/signal-platform/internal/models"
	access "github.com/shadowhowl/signal-platform/internal/services/access"
)

// Handler управляет HTTP-запросами на получение списка сигналов.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики выдачи сигналов.
type Service interface {
	List(ctx context.Context, userUID, role string) ([]*models.Signal, *access.DenyReason, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Получить список сигналов
// @Description Возвращает сигналы, доступные пользователю: администратору — все, активному подписчику — подтверждённые.
// @Tags Signals
// @Security BearerAuth
// @Produce  json
// @Success 200 {object} map[string]any "Список сигналов"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 403 {object} response.Response "Нет активной подписки"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /signals [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.signal.list"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	userUID, ok := r.Context().Value(middlewarectx.UserUID).(string)
	if !ok || userUID == "" {
		log.Error("user uid not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}
	role, _ := r.Context().Value(middlewarectx.Role).(string)

	signals, denial, err := h.service.List(r.Context(), userUID, role)
	if err != nil {
		log.Error("failed to list signals", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not list signals"))
		return
	}
	if denial != nil {
		log.Warn("signal access denied",
			slog.String("user_uid", userUID),
			slog.String("subscription_status", denial.Status))
		w.WriteHeader(http.StatusForbidden)
		render.JSON(w, r, response.ErrorWithData("subscription required", denial))
		return
	}

	log.Info("signals listed", slog.Int("count", len(signals)))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"signals": signals,
		"count":   len(signals),
	}))
}
