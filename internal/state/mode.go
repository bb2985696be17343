package state

import "sync"

// Mode — глобальный режим бота.
type Mode string

const (
	ModePublic Mode = "public" // commands open to everyone
	ModeSelf   Mode = "self"   // commands restricted to the owner
)

// ParseMode возвращает валидный режим, public по умолчанию.
func ParseMode(s string) Mode {
	if s == string(ModeSelf) {
		return ModeSelf
	}
	return ModePublic
}

// ModeStore — процесс-wide хранилище режима. Мутируется только явной
// командой владельца; персистентность обеспечивает вызывающая сторона
// (диспетчер пишет в репозиторий настроек при переключении).
type ModeStore struct {
	mu   sync.RWMutex
	mode Mode
}

// NewModeStore создаёт хранилище с начальным режимом.
func NewModeStore(initial Mode) *ModeStore {
	return &ModeStore{mode: initial}
}

// Get возвращает текущий режим.
func (m *ModeStore) Get() Mode {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.mode
}

// Set переключает режим.
func (m *ModeStore) Set(mode Mode) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mode = mode
}
