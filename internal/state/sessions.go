package state

import (
	"sync"
	"time"
)

// Session — ожидание, что следующее сообщение в разговоре отвечает на
// ранее выданный запрос (например, выбор номера из списка).
type Session struct {
	Command   string // command to resume with the reply as argument
	CreatedAt time.Time
}

// SessionStore — карта разговор -> ожидаемый ответ. Записи создаются
// хендлерами команд и удаляются потребившим хендлером; подвисшие записи
// вычищаются по idle-таймауту фоновым sweep'ом.
type SessionStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]Session
}

// NewSessionStore создаёт хранилище сессий с заданным idle-таймаутом.
func NewSessionStore(ttl time.Duration) *SessionStore {
	return &SessionStore{
		ttl:     ttl,
		entries: make(map[string]Session),
	}
}

// Create регистрирует ожидание ответа для разговора (перезаписывает прежнее).
func (s *SessionStore) Create(conversationID, command string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[conversationID] = Session{Command: command, CreatedAt: time.Now()}
}

// Get возвращает ожидание для разговора, если оно есть.
func (s *SessionStore) Get(conversationID string) (Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.entries[conversationID]
	return sess, ok
}

// Has сообщает, есть ли активная сессия для разговора.
func (s *SessionStore) Has(conversationID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.entries[conversationID]
	return ok
}

// Delete удаляет ожидание. Вызывается потребившим хендлером.
func (s *SessionStore) Delete(conversationID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, conversationID)
}

// Len возвращает число активных сессий.
func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Sweep удаляет сессии, простоявшие дольше idle-таймаута.
func (s *SessionStore) Sweep(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for conv, sess := range s.entries {
		if now.Sub(sess.CreatedAt) >= s.ttl {
			delete(s.entries, conv)
			removed++
		}
	}
	return removed
}
