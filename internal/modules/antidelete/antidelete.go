package antidelete

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/flybasist/eclipse/internal/core"
)

// cacheLimit — размер in-memory кеша недавних сообщений. Как и у
// processedMessages в старших версиях — при переполнении кеш просто
// очищается, диск остаётся источником истины.
const cacheLimit = 1000

// Store — персистентный архив сообщений. Реализуется Postgres-репозиторием.
type Store interface {
	Save(ctx context.Context, conversationID, senderJID, pushName, messageID, kind, body string, at time.Time) error
	Find(ctx context.Context, conversationID, messageID string) (senderJID, pushName, body string, found bool, err error)
}

// Publisher — побочный канал для восстановленных сообщений
// (очередь внешнего архиватора). Может быть nil.
type Publisher interface {
	Publish(raw []byte) error
}

type cached struct {
	Sender   string
	PushName string
	Body     string
}

// Module накапливает входящие сообщения и воспроизводит отозванные.
type Module struct {
	store     Store
	publisher Publisher
	logger    *zap.Logger

	mu    sync.Mutex
	cache map[string]cached // conversation+"/"+messageID
}

// New создаёт модуль anti-delete. publisher может быть nil.
func New(store Store, publisher Publisher, logger *zap.Logger) *Module {
	return &Module{
		store:     store,
		publisher: publisher,
		logger:    logger,
		cache:     make(map[string]cached),
	}
}

// Store сохраняет событие в архив. Ошибки только логируются:
// архивация не должна блокировать последующие стадии обработки.
func (m *Module) Store(ctx context.Context, ev *core.Event) {
	body := ev.Body()
	if body == "" || ev.Kind == core.KindProtocol {
		return
	}

	key := cacheKey(ev.Key.RemoteJID, ev.Key.ID)
	m.mu.Lock()
	if len(m.cache) >= cacheLimit {
		m.cache = make(map[string]cached)
	}
	m.cache[key] = cached{Sender: ev.SenderJID(), PushName: ev.PushName, Body: body}
	m.mu.Unlock()

	if err := m.store.Save(ctx, ev.Key.RemoteJID, ev.SenderJID(), ev.PushName, ev.Key.ID, string(ev.Kind), body, ev.Timestamp); err != nil {
		m.logger.Error("failed to archive message",
			zap.String("conversation", ev.Key.RemoteJID),
			zap.String("message_id", ev.Key.ID),
			zap.Error(err))
	}
}

// HandleRevocation восстанавливает отозванное сообщение: шлёт владельцу
// в личный чат и публикует запись во внешнюю очередь.
func (m *Module) HandleRevocation(ctx context.Context, t core.Transport, ev *core.Event) error {
	if ev.Revoked == nil {
		return nil
	}
	conversation := ev.Key.RemoteJID
	revokedID := ev.Revoked.ID

	sender, pushName, body, found := m.lookup(ctx, conversation, revokedID)
	if !found {
		m.logger.Debug("revoked message not in archive",
			zap.String("conversation", conversation),
			zap.String("message_id", revokedID))
		return nil
	}

	who := pushName
	if who == "" {
		who = core.BareID(sender)
	}
	notice := fmt.Sprintf("🗑️ Anti-delete: %s deleted a message in %s:\n\n%s", who, core.BareID(conversation), body)
	if err := t.SendMessage(ctx, t.SelfJID(), notice, nil); err != nil {
		return fmt.Errorf("send anti-delete notice: %w", err)
	}

	if m.publisher != nil {
		raw, err := json.Marshal(map[string]string{
			"conversation": conversation,
			"sender":       sender,
			"message_id":   revokedID,
			"body":         body,
		})
		if err == nil {
			if err := m.publisher.Publish(raw); err != nil {
				m.logger.Warn("failed to publish revoked message", zap.Error(err))
			}
		}
	}
	return nil
}

func (m *Module) lookup(ctx context.Context, conversationID, messageID string) (sender, pushName, body string, found bool) {
	m.mu.Lock()
	hit, ok := m.cache[cacheKey(conversationID, messageID)]
	m.mu.Unlock()
	if ok {
		return hit.Sender, hit.PushName, hit.Body, true
	}

	sender, pushName, body, found, err := m.store.Find(ctx, conversationID, messageID)
	if err != nil {
		m.logger.Error("archive lookup failed",
			zap.String("conversation", conversationID),
			zap.String("message_id", messageID),
			zap.Error(err))
		return "", "", "", false
	}
	return sender, pushName, body, found
}

func cacheKey(conversationID, messageID string) string {
	return conversationID + "/" + messageID
}
