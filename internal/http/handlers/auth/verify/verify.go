// Package verify реализует HTTP-обработчик завершения регистрации по коду подтверждения.
//
// Handler принимает данные пользователя вместе с шестизначным кодом, проверяет код
// и создаёт аккаунт. Код одноразовый: после трёх неверных попыток или истечения
// срока действия регистрацию нужно начинать заново.
package verify

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/shadowhowl/signal-platform/internal/http/response"
	"github.com/shadowhowl/signal-platform/internal/lib/otp"
	"github.com/shadowhowl/signal-platform/internal/lib/sl"
	"github.com/shadowhowl/signal-platform/internal/storage/repository"
)

// Request — структура входных данных для завершения регистрации.
type Request struct {
	Username string `json:"username" validate:"required,min=3,max=50"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Code     string `json:"code" validate:"required,len=6"`
}

// Handler обрабатывает HTTP-запросы завершения регистрации.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает интерфейс бизнес-логики завершения регистрации.
type Service interface {
	CompleteRegistration(ctx context.Context, username, email, password, code string) (string, error)
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
// @Summary Завершить регистрацию
// @Description Проверяет код подтверждения и создаёт аккаунт пользователя.
// @Tags Auth
// @Accept  json
// @Produce  json
// @Param request body Request true "Данные пользователя и код подтверждения"
// @Success 200 {object} response.Response "Аккаунт создан"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON или неверный код"
// @Failure 409 {object} response.ErrorResponse "Имя или email уже заняты"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /auth/verify [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.verify"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
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

	uid, err := h.service.CompleteRegistration(r.Context(), req.Username, req.Email, req.Password, req.Code)
	if err != nil {
		var invalidCode *otp.InvalidCodeError
		switch {
		case errors.As(err, &invalidCode):
			log.Warn("invalid verification code", slog.Int("remaining", invalidCode.Remaining))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(invalidCode.Error()))
		case errors.Is(err, otp.ErrNoCode), errors.Is(err, otp.ErrExpired), errors.Is(err, otp.ErrTooManyAttempts):
			log.Warn("verification code rejected", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error("verification code expired or invalid, request a new one"))
		case errors.Is(err, repository.ErrAlreadyExists):
			log.Warn("registration conflict", slog.String("username", req.Username))
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.Error("username or email already exists"))
		default:
			log.Error("failed to complete registration", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("could not complete registration"))
		}
		return
	}

	log.Info("user registered", slog.String("uid", uid))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"uid": uid,
	}))
}
