package models

import "time"

// Статусы подписки. Исторические значения "inactive" и "disabled"
// встречаются в старых данных и приводятся к "expired".
const (
	SubscriptionActive  = "active"
	SubscriptionExpired = "expired"
)

// Subscription представляет запись о подписке пользователя.
// На одного пользователя приходится ровно одна запись (upsert по user_uid).
type Subscription struct {
	UserUID string    `json:"user_uid"` // Идентификатор пользователя-владельца
	Status  string    `json:"status"`   // active или expired (после нормализации)
	EndDate time.Time `json:"end_date"` // Дата окончания действия подписки
}

// NormalizeStatus приводит статус подписки к одному из двух канонических
// значений. Всё, что не active, считается expired.
func NormalizeStatus(status string) string {
	if status == SubscriptionActive {
		return SubscriptionActive
	}
	return SubscriptionExpired
}

// GrantsAccess сообщает, даёт ли подписка доступ к сигналам прямо сейчас.
// Подписка действует только если статус active И дата окончания в будущем:
// истечение проверяется строго, даже если статус не был вовремя обновлён.
func (s *Subscription) GrantsAccess(now time.Time) bool {
	if s == nil {
		return false
	}
	return NormalizeStatus(s.Status) == SubscriptionActive && s.EndDate.After(now)
}
