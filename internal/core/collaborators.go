package core

import (
	"context"
	"time"
)

// Русский комментарий: Коллабораторы диспетчера. Каждый фильтр модерации —
// отдельная машина состояний со своим хранилищем; диспетчер знает только
// интерфейсы, поэтому в тестах их легко подменять фейками.

// TagFilter — монитор tag-спама (массовые упоминания в группах).
// Никогда не прерывает дальнейшую обработку события.
type TagFilter interface {
	OnMessage(ctx context.Context, t Transport, ev *Event) error
}

// LinkFilter проверяет текст на запрещённые ссылки. handled=true означает,
// что сообщение обработано фильтром (удалено, возможно с кик
// отправителя) и обработка события должна остановиться.
type LinkFilter interface {
	Check(ctx context.Context, t Transport, ev *Event, body, senderJID string) (handled bool, err error)
}

// FloodFilter — счётчик скользящего окна для личных сообщений.
// blocked=true означает, что отправитель заблокирован и обработка
// события должна остановиться.
type FloodFilter interface {
	Check(ctx context.Context, t Transport, ev *Event, now time.Time) (blocked bool, err error)
}

// CallFilter обрабатывает пачку одновременно доставленных звонков.
type CallFilter interface {
	HandleCalls(ctx context.Context, t Transport, calls []CallOffer) error
}

// Archive — внешний накопитель сообщений для anti-delete.
// Store вызывается для каждого события и не блокирует обработку;
// HandleRevocation вызывается для control-сообщений об отзыве.
type Archive interface {
	Store(ctx context.Context, ev *Event)
	HandleRevocation(ctx context.Context, t Transport, ev *Event) error
}

// Chatbot — разговорный fallback для текста без командного префикса.
type Chatbot interface {
	HandleText(ctx context.Context, t Transport, ev *Event, body string) error
}

// Greeter реагирует на изменения состава группы (welcome/goodbye).
type Greeter interface {
	HandleParticipants(ctx context.Context, t Transport, up ParticipantUpdate) error
}

// AuditEntry — одна запись журнала действий модерации и диспетчеризации.
type AuditEntry struct {
	Module       string    `json:"module"`
	Action       string    `json:"action"`
	Conversation string    `json:"conversation"`
	Sender       string    `json:"sender"`
	Detail       string    `json:"detail,omitempty"`
	At           time.Time `json:"at"`
}

// AuditLog принимает записи журнала. Ошибка записи логируется
// вызывающим, но никогда не останавливает обработку события.
type AuditLog interface {
	Record(ctx context.Context, entry AuditEntry) error
}
