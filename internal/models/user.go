// Package models содержит доменные структуры платформы торговых сигналов:
// пользователей, подписки и сигналы, а также вспомогательные типы для приёма
// данных из JSON-запросов до их валидации.
package models

import "time"

// Роли пользователей.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User представляет зарегистрированного пользователя системы.
type User struct {
	UID          string    // Уникальный идентификатор пользователя
	Username     string    // Имя пользователя (уникальное, без пробелов)
	Email        string    // Электронная почта (уникальная)
	PasswordHash string    // Хэш пароля пользователя
	Role         string    // Роль пользователя, admin или user
	CreatedAt    time.Time // Дата регистрации
}

// Profile — проекция пользователя для выдачи наружу, без хэша пароля.
// Статус подписки вычисляется из нормализованной записи подписки
// на момент запроса, а не хранится второй копией на пользователе.
type Profile struct {
	UID                string     `json:"uid"`
	Username           string     `json:"username"`
	Email              string     `json:"email"`
	Role               string     `json:"role"`
	SubscriptionStatus string     `json:"subscription_status"`
	SubscriptionEnd    *time.Time `json:"subscription_end,omitempty"`
}
