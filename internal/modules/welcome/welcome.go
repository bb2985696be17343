package welcome

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/flybasist/eclipse/internal/core"
)

// Config — настройки приветствий одного группового разговора.
type Config struct {
	Welcome     bool
	Goodbye     bool
	WelcomeText string // "@user" is substituted with a mention
	GoodbyeText string
}

// ConfigFunc отдаёт конфигурацию для разговора. Реализуется репозиторием.
type ConfigFunc func(conversationID string) (Config, error)

const (
	defaultWelcome = "Welcome @user to %s!"
	defaultGoodbye = "Goodbye @user from the group."
)

// Module реагирует на изменения состава группы.
type Module struct {
	config ConfigFunc
	logger *zap.Logger
}

// New создаёт модуль приветствий.
func New(config ConfigFunc, logger *zap.Logger) *Module {
	return &Module{config: config, logger: logger}
}

// HandleParticipants шлёт welcome/goodbye для каждого затронутого участника.
func (m *Module) HandleParticipants(ctx context.Context, t core.Transport, up core.ParticipantUpdate) error {
	cfg, err := m.config(up.ConversationID)
	if err != nil {
		return fmt.Errorf("load welcome config: %w", err)
	}

	for _, jid := range up.Participants {
		var text string
		switch {
		case up.Action == core.ParticipantAdd && cfg.Welcome:
			text = cfg.WelcomeText
			if text == "" {
				subject := up.ConversationID
				if meta, err := t.GroupMetadata(ctx, up.ConversationID); err == nil {
					subject = meta.Subject
				}
				text = fmt.Sprintf(defaultWelcome, subject)
			}
		case up.Action == core.ParticipantRemove && cfg.Goodbye:
			text = cfg.GoodbyeText
			if text == "" {
				text = defaultGoodbye
			}
		default:
			continue
		}

		text = strings.ReplaceAll(text, "@user", "@"+core.BareID(jid))
		if err := t.SendMessage(ctx, up.ConversationID, text, &core.SendOptions{Mentions: []string{jid}}); err != nil {
			m.logger.Error("failed to send greeting",
				zap.String("conversation", up.ConversationID),
				zap.String("participant", jid),
				zap.Error(err))
		}
	}
	return nil
}
