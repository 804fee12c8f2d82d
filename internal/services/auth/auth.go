// Package services содержит логику регистрации, аутентификации и сброса пароля.
//
// Регистрация и сброс пароля защищены одноразовым кодом: привилегированная
// мутация (создание аккаунта, смена пароля) возможна только сразу после
// успешной проверки кода. Код при этом уже израсходован, поэтому если
// мутация после проверки не удалась, клиент начинает заново с выдачи
// нового кода, а не с повторной проверки.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shadowhowl/signal-platform/internal/lib/jwt"
	"github.com/shadowhowl/signal-platform/internal/lib/otp"
	"github.com/shadowhowl/signal-platform/internal/lib/password"
	"github.com/shadowhowl/signal-platform/internal/lib/sl"
	"github.com/shadowhowl/signal-platform/internal/models"
	"github.com/shadowhowl/signal-platform/internal/storage/repository"
)

// Ошибки уровня бизнес-логики аутентификации.
var (
	// ErrInvalidCredentials — неверная пара email/пароль.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUserExists — username или email уже заняты.
	ErrUserExists = errors.New("username or email already exists")
	// ErrUsernameHasSpaces — username содержит пробелы.
	ErrUsernameHasSpaces = errors.New("username cannot contain spaces")
	// ErrCodeDelivery — не удалось отправить письмо с кодом.
	ErrCodeDelivery = errors.New("failed to deliver verification code")
)

// UserRepository описывает контракт для работы с пользователями в базе данных.
type UserRepository interface {
	// CreateUser сохраняет нового пользователя и возвращает его UID.
	CreateUser(ctx context.Context, user models.User) (string, error)
	// GetUserByEmail возвращает пользователя по email или ошибку, если не найден.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	// UserExists сообщает, занят ли username или email.
	UserExists(ctx context.Context, username, email string) (bool, error)
	// UpdatePassword меняет хэш пароля по email.
	UpdatePassword(ctx context.Context, email, passwordHash string) (int, error)
}

// CodeSender отправляет код подтверждения на email.
type CodeSender interface {
	SendOneTimeCode(email, code string) error
}

// AuthService отвечает за регистрацию, авторизацию и коды подтверждения.
type AuthService struct {
	users    UserRepository
	codes    *otp.Manager
	sender   CodeSender
	jwtMaker jwt.Maker
	log      *slog.Logger
}

// NewAuthService создает новый экземпляр AuthService.
func NewAuthService(users UserRepository, codes *otp.Manager, sender CodeSender, jwtMaker jwt.Maker, log *slog.Logger) *AuthService {
	return &AuthService{
		users:    users,
		codes:    codes,
		sender:   sender,
		jwtMaker: jwtMaker,
		log:      log,
	}
}

// StartRegistration проверяет доступность имени и почты и высылает на
// email код подтверждения. Аккаунт на этом шаге не создаётся.
func (s *AuthService) StartRegistration(ctx context.Context, username, email string) error {
	const op = "services.auth.StartRegistration"

	if strings.ContainsAny(username, " \t") {
		return fmt.Errorf("%s: %w", op, ErrUsernameHasSpaces)
	}
	exists, err := s.users.UserExists(ctx, username, email)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if exists {
		return fmt.Errorf("%s: %w", op, ErrUserExists)
	}

	return s.issueCode(op, email)
}

// CompleteRegistration проверяет код и создаёт аккаунт с ролью user
// и пустой (expired) подпиской. Ошибка создания после успешной проверки
// кода возвращается как есть: код уже израсходован.
func (s *AuthService) CompleteRegistration(ctx context.Context, username, email, rawPassword, code string) (string, error) {
	const op = "services.auth.CompleteRegistration"

	if err := s.codes.Verify(email, code); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	hashed, err := password.GetHash(rawPassword)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	uid, err := s.users.CreateUser(ctx, models.User{
		Username:     username,
		Email:        email,
		PasswordHash: hashed,
		Role:         models.RoleUser,
	})
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("user registered", slog.String("username", username))
	return uid, nil
}

// Login проверяет пароль пользователя и выпускает JWT.
func (s *AuthService) Login(ctx context.Context, email, rawPassword string) (string, *models.User, error) {
	const op = "services.auth.Login"

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		return "", nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}
	if err := password.CompareHash(user.PasswordHash, rawPassword); err != nil {
		return "", nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}
	token, err := s.jwtMaker.GenerateToken(user.UID, user.Role)
	if err != nil {
		return "", nil, fmt.Errorf("%s: %w", op, err)
	}
	return token, user, nil
}

// ResendCode повторно высылает код подтверждения, перезаписывая прежний.
func (s *AuthService) ResendCode(_ context.Context, email string) error {
	const op = "services.auth.ResendCode"
	return s.issueCode(op, email)
}

// StartPasswordReset высылает код сброса пароля существующему пользователю.
func (s *AuthService) StartPasswordReset(ctx context.Context, email string) error {
	const op = "services.auth.StartPasswordReset"

	if _, err := s.users.GetUserByEmail(ctx, email); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return s.issueCode(op, email)
}

// ResetPassword проверяет код и устанавливает новый пароль.
func (s *AuthService) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	const op = "services.auth.ResetPassword"

	if err := s.codes.Verify(email, code); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	hashed, err := password.GetHash(newPassword)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	rows, err := s.users.UpdatePassword(ctx, email, hashed)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if rows == 0 {
		// Аккаунт удалён между выдачей кода и сменой пароля.
		return fmt.Errorf("%s: %w", op, repository.ErrNotFound)
	}
	s.log.Info("password reset", slog.String("email", email))
	return nil
}

// ValidateToken проверяет JWT и возвращает claims.
func (s *AuthService) ValidateToken(token string) (*jwt.CustomClaims, error) {
	return s.jwtMaker.ParseToken(token)
}

// issueCode генерирует код, отправляет его и только после подтверждённой
// отправки сохраняет: непригодные к использованию коды не выдаются.
func (s *AuthService) issueCode(op, email string) error {
	code, err := otp.GenerateCode()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := s.sender.SendOneTimeCode(email, code); err != nil {
		s.log.Error("failed to send verification code", sl.Err(err))
		return fmt.Errorf("%s: %w", op, ErrCodeDelivery)
	}
	s.codes.Save(email, code)
	return nil
}
