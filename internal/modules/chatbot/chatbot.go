package chatbot

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/flybasist/eclipse/internal/core"
)

// Русский комментарий: Разговорный fallback для личных сообщений,
// не являющихся командами. Таблица ключевых слов с готовыми ответами;
// незнакомый текст остаётся без ответа, чтобы не заваливать людей.

type reply struct {
	keywords []string
	text     string
}

var replies = []reply{
	{[]string{"hello", "hi", "hey", "привет"}, "👋 Hello! Type .menu to see what I can do."},
	{[]string{"thanks", "thank you", "спасибо"}, "🙂 You are welcome!"},
	{[]string{"bye", "пока"}, "👋 Bye! Ping me anytime."},
	{[]string{"who are you", "кто ты"}, "🤖 I am a moderation bot. Try .menu"},
}

type Module struct {
	logger *zap.Logger
}

func New(logger *zap.Logger) *Module {
	return &Module{logger: logger}
}

// HandleText отвечает на непрефиксный текст. Работает только в личных
// чатах: в группах молчаливый бот лучше разговорчивого.
func (m *Module) HandleText(ctx context.Context, t core.Transport, ev *core.Event, body string) error {
	if ev.IsGroup() {
		return nil
	}
	lower := strings.ToLower(body)
	for _, r := range replies {
		for _, kw := range r.keywords {
			if strings.Contains(lower, kw) {
				m.logger.Debug("chatbot reply",
					zap.String("conversation", ev.Key.RemoteJID),
					zap.String("keyword", kw))
				return t.SendMessage(ctx, ev.Key.RemoteJID, r.text, nil)
			}
		}
	}
	return nil
}
