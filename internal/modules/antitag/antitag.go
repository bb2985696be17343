package antitag

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/flybasist/eclipse/internal/core"
)

// DefaultThreshold — сколько упоминаний в одном сообщении считается
// tag-спамом.
const DefaultThreshold = 15

// Engine удаляет групповые сообщения с массовыми упоминаниями.
// Результат никогда не останавливает дальнейшую обработку события —
// диспетчер лишь логирует ошибку.
type Engine struct {
	threshold int
	audit     core.AuditLog
	logger    *zap.Logger
}

// New создаёт монитор tag-спама. threshold<=0 берёт дефолт.
func New(threshold int, audit core.AuditLog, logger *zap.Logger) *Engine {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Engine{threshold: threshold, audit: audit, logger: logger}
}

// OnMessage проверяет событие и удаляет сообщение при превышении порога.
func (e *Engine) OnMessage(ctx context.Context, t core.Transport, ev *core.Event) error {
	if len(ev.Mentions) < e.threshold {
		return nil
	}

	conversation := ev.Key.RemoteJID
	if err := t.DeleteMessage(ctx, conversation, ev.Key); err != nil {
		return fmt.Errorf("delete tag-spam message: %w", err)
	}

	e.logger.Info("tag-spam message deleted",
		zap.String("conversation", conversation),
		zap.String("sender", ev.SenderJID()),
		zap.Int("mentions", len(ev.Mentions)))
	if e.audit != nil {
		e.audit.Record(ctx, core.AuditEntry{
			Module:       "antitag",
			Action:       "delete",
			Conversation: conversation,
			Sender:       ev.SenderJID(),
			Detail:       fmt.Sprintf("%d mentions", len(ev.Mentions)),
			At:           time.Now(),
		})
	}
	return nil
}
