// Package approve реализует HTTP-обработчик смены статуса подтверждения сигнала.
//
// При переходе сигнала в подтверждённое состояние запускается рассылка
// уведомлений активным подписчикам. Повторное подтверждение уже
// подтверждённого сигнала рассылку не вызывает.
package approve

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/shadowhowl/signal-platform/internal/http/response"
	"github.com/shadowhowl/signal-platform/internal/lib/sl"
	"github.com/shadowhowl/signal-platform/internal/models"
	"github.com/shadowhowl/signal-platform/internal/storage/repository"
)

// Request — структура входных данных смены статуса подтверждения.
type Request struct {
	IsApproved *bool `json:"is_approved" validate:"required"`
}

// Handler управляет HTTP-запросами на подтверждение сигналов.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает интерфейс бизнес-логики подтверждения сигнала.
type Service interface {
	SetApproval(ctx context.Context, id int, approved bool) (*models.Signal, error)
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
// @Summary Изменить статус подтверждения сигнала
// @Description Подтверждает или снимает подтверждение сигнала. Переход в подтверждённое состояние запускает рассылку подписчикам.
// @Tags Signals
// @Security BearerAuth
// @Accept  json
// @Produce  json
// @Param id path int true "ID сигнала"
// @Param request body Request true "Новый статус подтверждения"
// @Success 200 {object} map[string]any "Статус обновлён"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON или ID"
// @Failure 404 {object} response.ErrorResponse "Сигнал не найден"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /signals/{id}/approve [patch]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.signal.approve"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		log.Error("invalid signal id", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid signal id"))
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

	sig, err := h.service.SetApproval(r.Context(), id, *req.IsApproved)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			log.Warn("signal not found", slog.Int("id", id))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("signal not found"))
			return
		}
		log.Error("failed to set approval", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not update approval status"))
		return
	}

	log.Info("approval status updated",
		slog.Int("id", id),
		slog.Bool("is_approved", sig.IsApproved))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"signal": sig,
	}))
}
