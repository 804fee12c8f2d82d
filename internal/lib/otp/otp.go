// Package otp реализует одноразовые коды подтверждения, привязанные к email.
//
// Код живёт 10 минут, допускает не более 3 неверных попыток и существует
// в единственном экземпляре на адрес: повторная выдача перезаписывает
// предыдущий код. Хранилище — процессная память за интерфейсом Store;
// коды намеренно не переживают рестарт процесса.
package otp

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"
)

// Ошибки проверки кода.
var (
	// ErrNoCode — для этого email нет действующего кода.
	ErrNoCode = errors.New("no code found for this email")
	// ErrExpired — срок действия кода истёк, код удалён.
	ErrExpired = errors.New("code has expired, request a new one")
	// ErrTooManyAttempts — исчерпан лимит попыток, код удалён.
	ErrTooManyAttempts = errors.New("maximum attempts exceeded, request a new one")
)

// InvalidCodeError — введён неверный код, счётчик попыток увеличен.
type InvalidCodeError struct {
	Remaining int // Сколько попыток осталось
}

func (e *InvalidCodeError) Error() string {
	return fmt.Sprintf("invalid code, %d attempts remaining", e.Remaining)
}

const (
	codeTTL     = 10 * time.Minute
	maxAttempts = 3
)

// Entry — запись о выданном коде.
type Entry struct {
	Code      string
	ExpiresAt time.Time
	Attempts  int
}

// Store описывает хранилище кодов, ключ — email.
type Store interface {
	Put(email string, e Entry)
	Get(email string) (Entry, bool)
	Delete(email string)
}

// MemoryStore — процессное хранилище кодов на map с мьютексом.
type MemoryStore struct {
	mu    sync.Mutex
	codes map[string]Entry
}

// NewMemoryStore создает пустое хранилище кодов.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{codes: make(map[string]Entry)}
}

// Put сохраняет код, перезаписывая предыдущий для этого email.
func (s *MemoryStore) Put(email string, e Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.codes[email] = e
}

// Get возвращает запись кода, если она есть.
func (s *MemoryStore) Get(email string) (Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.codes[email]
	return e, ok
}

// Delete удаляет запись кода.
func (s *MemoryStore) Delete(email string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.codes, email)
}

// GenerateCode возвращает случайный 6-значный код.
func GenerateCode() (string, error) {
	const op = "otp.GenerateCode"
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}

// Manager управляет жизненным циклом кодов поверх Store.
type Manager struct {
	store Store
	now   func() time.Time
}

// NewManager создает Manager с часами по умолчанию.
func NewManager(store Store) *Manager {
	return &Manager{store: store, now: time.Now}
}

// Save сохраняет код для email. Вызывается только после того, как письмо
// с кодом подтверждённо отправлено, чтобы не выдавать непригодные коды.
func (m *Manager) Save(email, code string) {
	m.store.Put(email, Entry{
		Code:      code,
		ExpiresAt: m.now().Add(codeTTL),
		Attempts:  0,
	})
}

// Verify проверяет присланный код. Порядок проверок фиксирован: наличие
// кода, срок действия, лимит попыток и только затем совпадение. После
// исчерпания попыток даже верный код уже не принимается. Успешная
// проверка удаляет код — он одноразовый.
func (m *Manager) Verify(email, submitted string) error {
	const op = "otp.Verify"

	e, ok := m.store.Get(email)
	if !ok {
		return fmt.Errorf("%s: %w", op, ErrNoCode)
	}
	if m.now().After(e.ExpiresAt) {
		m.store.Delete(email)
		return fmt.Errorf("%s: %w", op, ErrExpired)
	}
	if e.Attempts >= maxAttempts {
		m.store.Delete(email)
		return fmt.Errorf("%s: %w", op, ErrTooManyAttempts)
	}
	if e.Code != submitted {
		e.Attempts++
		m.store.Put(email, e)
		return fmt.Errorf("%s: %w", op, &InvalidCodeError{Remaining: maxAttempts - e.Attempts})
	}
	m.store.Delete(email)
	return nil
}

// Clear удаляет код для email, если он есть.
func (m *Manager) Clear(email string) {
	m.store.Delete(email)
}
