package antilink

import (
	"context"
	"fmt"
	"regexp"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/flybasist/eclipse/internal/core"
)

// Kinds of filtered links.
const (
	KindChannel  = "channel"  // WhatsApp channel invites
	KindTelegram = "telegram" // Telegram links
)

// Actions a rule can take after the offending message is deleted.
const (
	ActionDelete = "delete"
	ActionWarn   = "warn"
	ActionKick   = "kick"
)

// DefaultWarnThreshold — число предупреждений до удаления из группы.
const DefaultWarnThreshold = 3

// Rule — конфигурация фильтра для одного вида ссылок в одном разговоре.
type Rule struct {
	Enabled       bool
	Action        string
	WarnThreshold int
}

// RuleFunc отдаёт правило для (разговор, вид ссылки). Реализуется
// репозиторием; в тестах — замыканием.
type RuleFunc func(conversationID, kind string) (Rule, error)

// Матчинг регистронезависимый и ловит как голый домен, так и форму со схемой.
var linkKinds = []struct {
	Kind    string
	Pattern *regexp.Regexp
}{
	{KindChannel, regexp.MustCompile(`(?i)(https?://)?(www\.)?whatsapp\.com/channel/`)},
	{KindTelegram, regexp.MustCompile(`(?i)(https?://)?(www\.)?(t\.me|telegram\.me)/`)},
}

type warnKey struct {
	conversation string
	sender       string
}

// Engine — машина состояний фильтра ссылок. Счётчики предупреждений
// живут в памяти; пара (разговор, отправитель) без нарушений записи
// не имеет — нулевые остатки вычищает периодический sweep.
type Engine struct {
	rules  RuleFunc
	audit  core.AuditLog
	logger *zap.Logger

	mu       sync.Mutex
	warnings map[warnKey]int
}

// New создаёт фильтр ссылок. audit может быть nil.
func New(rules RuleFunc, audit core.AuditLog, logger *zap.Logger) *Engine {
	return &Engine{
		rules:    rules,
		audit:    audit,
		logger:   logger,
		warnings: make(map[warnKey]int),
	}
}

// Check прогоняет текст через все настроенные виды ссылок.
// На совпадение: сообщение удаляется всегда, дальше действие по правилу.
func (e *Engine) Check(ctx context.Context, t core.Transport, ev *core.Event, body, senderJID string) (bool, error) {
	if body == "" {
		return false, nil
	}
	conversation := ev.Key.RemoteJID

	for _, lk := range linkKinds {
		if !lk.Pattern.MatchString(body) {
			continue
		}
		rule, err := e.rules(conversation, lk.Kind)
		if err != nil {
			e.logger.Error("failed to load link rule",
				zap.String("conversation", conversation),
				zap.String("kind", lk.Kind),
				zap.Error(err))
			continue
		}
		if !rule.Enabled {
			continue
		}
		return true, e.enforce(ctx, t, ev, rule, lk.Kind, senderJID)
	}
	return false, nil
}

func (e *Engine) enforce(ctx context.Context, t core.Transport, ev *core.Event, rule Rule, kind, senderJID string) error {
	conversation := ev.Key.RemoteJID

	if err := t.DeleteMessage(ctx, conversation, ev.Key); err != nil {
		// Транспортный сбой: логируем и прекращаем обработку этого события.
		e.logger.Error("failed to delete link message", zap.String("conversation", conversation), zap.Error(err))
		return fmt.Errorf("delete message: %w", err)
	}
	e.record(ctx, "delete", conversation, senderJID, kind)

	switch rule.Action {
	case ActionKick:
		if err := t.RemoveParticipant(ctx, conversation, []string{senderJID}); err != nil {
			return fmt.Errorf("remove participant: %w", err)
		}
		e.record(ctx, "kick", conversation, senderJID, kind)
		return nil

	case ActionWarn:
		threshold := rule.WarnThreshold
		if threshold <= 0 {
			threshold = DefaultWarnThreshold
		}

		key := warnKey{conversation, senderJID}
		e.mu.Lock()
		e.warnings[key]++
		count := e.warnings[key]
		if count >= threshold {
			delete(e.warnings, key)
		}
		e.mu.Unlock()

		mention := "@" + core.BareID(senderJID)
		opts := &core.SendOptions{Mentions: []string{senderJID}}

		if count >= threshold {
			text := fmt.Sprintf("🚫 %s reached %d/%d warnings and has been removed.", mention, count, threshold)
			if err := t.SendMessage(ctx, conversation, text, opts); err != nil {
				return fmt.Errorf("send removal notice: %w", err)
			}
			if err := t.RemoveParticipant(ctx, conversation, []string{senderJID}); err != nil {
				return fmt.Errorf("remove participant: %w", err)
			}
			e.record(ctx, "warn_kick", conversation, senderJID, kind)
			return nil
		}

		text := fmt.Sprintf("⚠️ %s links are not allowed here. Warning %d/%d.", mention, count, threshold)
		if err := t.SendMessage(ctx, conversation, text, opts); err != nil {
			return fmt.Errorf("send warning notice: %w", err)
		}
		e.record(ctx, "warn", conversation, senderJID, kind)
		return nil
	}

	// Действие по умолчанию: только удаление.
	return nil
}

// WarningCount возвращает текущий счётчик предупреждений.
func (e *Engine) WarningCount(conversationID, senderJID string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.warnings[warnKey{conversationID, senderJID}]
}

// Sweep вычищает обнулившиеся счётчики. Возвращает число удалённых записей.
func (e *Engine) Sweep(now time.Time) int {
	e.mu.Lock()
	defer e.mu.Unlock()

	removed := 0
	for key, count := range e.warnings {
		if count <= 0 {
			delete(e.warnings, key)
			removed++
		}
	}
	return removed
}

func (e *Engine) record(ctx context.Context, action, conversation, sender, kind string) {
	if e.audit == nil {
		return
	}
	e.audit.Record(ctx, core.AuditEntry{
		Module:       "antilink",
		Action:       action,
		Conversation: conversation,
		Sender:       sender,
		Detail:       kind,
		At:           time.Now(),
	})
}
