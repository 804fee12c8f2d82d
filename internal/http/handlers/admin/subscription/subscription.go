// Package subscription реализует HTTP-обработчик административного управления подпиской.
//
// Администратор назначает статус подписки пользователя: active с длительностью
// в днях или expired. Запись подписки создаётся или обновляется атомарно.
package subscription

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/shadowhowl/signal-platform/internal/http/response"
	"github.com/shadowhowl/signal-platform/internal/lib/sl"
	"github.com/shadowhowl/signal-platform/internal/models"
	services "github.com/shadowhowl/signal-platform/internal/services/subscription"
	"github.com/shadowhowl/signal-platform/internal/storage/repository"
)

// Request — структура входных данных управления подпиской.
// DurationDays учитывается только при назначении активного статуса.
type Request struct {
	Status       string `json:"status" validate:"required,oneof=active expired"`
	DurationDays int    `json:"duration_days" validate:"omitempty,min=1,max=3650"`
}

// Handler управляет HTTP-запросами на изменение подписки пользователя.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает интерфейс бизнес-логики управления подпиской.
type Service interface {
	Set(ctx context.Context, userUID, status string, durationDays int) (*models.Subscription, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Изменить подписку пользователя
// @Description Назначает пользователю статус подписки. Для active требуется длительность в днях.
// @Tags Admin
// @Security BearerAuth
// @Accept  json
// @Produce  json
// @Param uid path string true "UID пользователя"
// @Param request body Request true "Новый статус подписки"
// @Success 200 {object} map[string]any "Подписка обновлена"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 403 {object} response.ErrorResponse "Требуется роль администратора"
// @Failure 404 {object} response.ErrorResponse "Пользователь не найден"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /admin/users/{uid}/subscription [put]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.subscription"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	userUID := chi.URLParam(r, "uid")
	if userUID == "" {
		log.Error("missing user uid")
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("missing user uid"))
		return
	}

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}
	log.Info("all fields are validated")

	sub, err := h.service.Set(r.Context(), userUID, req.Status, req.DurationDays)
	if err != nil {
		if errors.Is(err, services.ErrInvalidDuration) {
			log.Error("invalid duration", slog.Int("duration_days", req.DurationDays))
			w.WriteHeader(http.StatusUnprocessableEntity)
			render.JSON(w, r, response.Error("duration_days must be positive for an active subscription"))
			return
		}
		if errors.Is(err, repository.ErrNotFound) {
			log.Warn("user not found", slog.String("user_uid", userUID))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("user not found"))
			return
		}
		log.Error("failed to update subscription", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not update subscription"))
		return
	}

	log.Info("subscription updated",
		slog.String("user_uid", userUID),
		slog.String("status", sub.Status))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"subscription": sub,
	}))
}
