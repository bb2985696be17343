package state

import (
	"sync"
	"time"
)

// CooldownTracker хранит метку времени последней принятой команды
// для каждого отправителя.
type CooldownTracker struct {
	mu     sync.Mutex
	window time.Duration
	last   map[string]time.Time
}

// NewCooldownTracker создаёт трекер с заданным окном между командами.
func NewCooldownTracker(window time.Duration) *CooldownTracker {
	return &CooldownTracker{
		window: window,
		last:   make(map[string]time.Time),
	}
}

// Try проверяет, может ли отправитель выполнить команду сейчас.
// Если окно ещё не истекло — возвращает остаток и false, НЕ записывая
// новую метку. Иначе записывает now как последнюю принятую команду.
func (c *CooldownTracker) Try(senderID string, now time.Time) (time.Duration, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if last, ok := c.last[senderID]; ok {
		elapsed := now.Sub(last)
		if elapsed < c.window {
			return c.window - elapsed, false
		}
	}
	c.last[senderID] = now
	return 0, true
}

// Sweep удаляет устаревшие записи (старше окна). Возвращает число удалённых.
func (c *CooldownTracker) Sweep(now time.Time) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for sender, last := range c.last {
		if now.Sub(last) >= c.window {
			delete(c.last, sender)
			removed++
		}
	}
	return removed
}
