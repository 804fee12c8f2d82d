// Package ask реализует HTTP-обработчик вопросов к AI-ассистенту платформы.
// Доступен любому аутентифицированному пользователю независимо от подписки.
package ask

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/shadowhowl/signal-platform/internal/http/response"
	"github.com/shadowhowl/signal-platform/internal/lib/sl"
)

// Request — структура входных данных вопроса ассистенту.
type Request struct {
	Question string `json:"question" validate:"required,max=2000"`
}

// Handler управляет HTTP-запросами к ассистенту.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает интерфейс бизнес-логики ассистента.
type Service interface {
	Ask(ctx context.Context, question string) (string, error)
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
// @Summary Задать вопрос AI-ассистенту
// @Description Проксирует вопрос языковой модели и возвращает ответ ассистента.
// @Tags Chat
// @Security BearerAuth
// @Accept  json
// @Produce  json
// @Param request body Request true "Вопрос пользователя"
// @Success 200 {object} map[string]any "Ответ ассистента"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 502 {object} response.ErrorResponse "Языковая модель недоступна"
// @Router /chat/ask [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.chat.ask"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

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

	answer, err := h.service.Ask(r.Context(), req.Question)
	if err != nil {
		log.Error("assistant request failed", sl.Err(err))
		w.WriteHeader(http.StatusBadGateway)
		render.JSON(w, r, response.Error("assistant is unavailable, try again later"))
		return
	}

	log.Info("assistant answered")
	render.JSON(w, r, response.OKWithData(map[string]any{
		"answer": answer,
	}))
}
