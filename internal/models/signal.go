package models

import "time"

// Направления сигнала.
const (
	DirectionBuy  = "BUY"
	DirectionSell = "SELL"
)

// Signal представляет собой торговый сигнал,
// используемый в бизнес-логике и хранилище.
// Сигнал создаётся администратором в статусе черновика (IsApproved=false)
// и становится видимым подписчикам только после одобрения.
type Signal struct {
	ID         int       `json:"id"`
	Pair       string    `json:"pair"`        // Торговая пара, например BTC/USD
	Direction  string    `json:"direction"`   // BUY или SELL
	EntryPrice float64   `json:"entry_price"` // Цена входа
	StopLoss   float64   `json:"stop_loss"`   // Стоп-лосс
	TakeProfit float64   `json:"take_profit"` // Тейк-профит
	Notes      string    `json:"notes"`       // Комментарий, по умолчанию дисклеймер
	IsApproved bool      `json:"is_approved"` // Одобрен ли сигнал
	CreatedAt  time.Time `json:"created_at"`  // Серверное время создания, неизменяемое
}

// DummySignal используется для приёма данных сигнала из JSON-запроса,
// прежде чем конвертировать их в Signal после валидации.
type DummySignal struct {
	Pair       string  `json:"pair" validate:"required,max=10"` // Торговая пара (до 10 символов)
	Direction  string  `json:"direction" validate:"required"`   // BUY или SELL, регистр не важен
	EntryPrice float64 `json:"entry_price"`                     // Цена входа, ноль допустим
	StopLoss   float64 `json:"stop_loss"`                       // Стоп-лосс
	TakeProfit float64 `json:"take_profit"`                     // Тейк-профит
	Notes      string  `json:"notes,omitempty" validate:"omitempty"`
}

// SignalAlert — сообщение для очереди уведомлений об одобренном сигнале.
// Одно сообщение на одного получателя.
type SignalAlert struct {
	Email      string  `json:"email"`
	Username   string  `json:"username"`
	Pair       string  `json:"pair"`
	Direction  string  `json:"direction"`
	EntryPrice float64 `json:"entry_price"`
	StopLoss   float64 `json:"stop_loss"`
	TakeProfit float64 `json:"take_profit"`
}
