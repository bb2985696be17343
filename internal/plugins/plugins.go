package plugins

import (
	"go.uber.org/zap"

	"github.com/flybasist/eclipse/internal/modules/antilink"
	"github.com/flybasist/eclipse/internal/modules/welcome"
	"github.com/flybasist/eclipse/internal/settings"
)

// Русский комментарий: Пакет с описаниями команд. Каждая функция-источник
// (Public, Self) возвращает пачку описаний, которые main загружает в свой
// реестр. Хендлеры получают зависимости через замыкание на Deps.

// SettingsStore — ручки глобальных настроек, нужные админским командам.
type SettingsStore interface {
	SetAntiSpam(enabled bool) error
	SetAntibug(enabled bool) error
	SetAnticallVoice(enabled bool) error
	SetAnticallVideo(enabled bool) error
	SetAnticallMode(mode string) error
}

// LinkRuleStore — правила фильтра ссылок по беседам.
type LinkRuleStore interface {
	Rule(conversationID, kind string) (antilink.Rule, error)
	SetRule(conversationID, kind string, rule antilink.Rule) error
}

// WelcomeStore — настройки приветствий по беседам.
type WelcomeStore interface {
	Config(conversationID string) (welcome.Config, error)
	SetConfig(conversationID string, cfg welcome.Config) error
}

// Deps — всё, что нужно хендлерам команд.
type Deps struct {
	Logger    *zap.Logger
	Settings  SettingsStore
	LinkRules LinkRuleStore
	Welcome   WelcomeStore
	Identity  *settings.Identity

	// Stop инициирует graceful shutdown процесса. Используется
	// командами набора владельца (shutdown, restart, logout).
	Stop func(reason string)
}
