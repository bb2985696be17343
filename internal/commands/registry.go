package commands

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/flybasist/eclipse/internal/core"
	"github.com/flybasist/eclipse/internal/state"
)

// Options передаются хендлеру при вызове.
type Options struct {
	Transport core.Transport
	Args      []string
	IsOwner   bool
	Mode      string
	Prefix    string
	Sessions  *state.SessionStore
}

// HandlerFunc — исполняемое тело команды. Ошибка ловится на границе
// диспетчеризации и логируется, она никогда не роняет диспетчер.
type HandlerFunc func(ctx context.Context, ev *core.Event, opts Options) error

// Definition — каноничное описание команды.
type Definition struct {
	Name        string
	Aliases     []string
	Category    string
	Description string
	Execute     HandlerFunc
}

// LegacyDefinition — старая форма описания команды (поля в духе
// nomCom/categorie, хендлер получает адрес назначения отдельным
// аргументом). Приводится к Definition один раз при регистрации,
// а не на каждый вызов.
type LegacyDefinition struct {
	NomCom    string
	Categorie string
	Aliases   []string
	Execute   func(ctx context.Context, dest string, t core.Transport, ev *core.Event, args []string) error
}

// Adapt переводит legacy-описание в каноничную форму.
func (l LegacyDefinition) Adapt() Definition {
	legacy := l.Execute
	return Definition{
		Name:        l.NomCom,
		Aliases:     l.Aliases,
		Category:    l.Categorie,
		Description: l.NomCom + " command",
		Execute: func(ctx context.Context, ev *core.Event, opts Options) error {
			if legacy == nil {
				return nil
			}
			return legacy(ctx, ev.Key.RemoteJID, opts.Transport, ev, opts.Args)
		},
	}
}

// Registry — таблица имя/алиас -> команда. Заполняется один раз на старте
// из источников регистрации; после загрузки не мутируется, поэтому
// конкурентный Resolve безопасен без блокировок.
type Registry struct {
	table  map[string]Definition
	logger *zap.Logger
}

// NewRegistry создаёт пустой реестр.
func NewRegistry(logger *zap.Logger) *Registry {
	return &Registry{
		table:  make(map[string]Definition),
		logger: logger,
	}
}

// Register вставляет каноничное имя и все алиасы в таблицу.
// Коллизия имени — не ошибка: побеждает последняя регистрация.
// Описания без имени или без хендлера молча пропускаются
// (толерантность к битым плагинам, загрузка продолжается).
func (r *Registry) Register(def Definition) bool {
	name := strings.ToLower(strings.TrimSpace(def.Name))
	if name == "" || def.Execute == nil {
		r.logger.Warn("skipping malformed command definition",
			zap.String("name", def.Name),
			zap.Bool("has_handler", def.Execute != nil))
		return false
	}
	def.Name = name

	if _, exists := r.table[name]; exists {
		r.logger.Warn("command already registered, overwriting", zap.String("command", name))
	}
	r.table[name] = def
	for _, alias := range def.Aliases {
		alias = strings.ToLower(strings.TrimSpace(alias))
		if alias == "" {
			continue
		}
		r.table[alias] = def
	}
	return true
}

// Load регистрирует пачку описаний из одного источника.
// Возвращает число успешно загруженных.
func (r *Registry) Load(defs ...Definition) int {
	loaded := 0
	for _, def := range defs {
		if r.Register(def) {
			loaded++
		}
	}
	r.logger.Info("commands loaded", zap.Int("count", loaded), zap.Int("skipped", len(defs)-loaded))
	return loaded
}

// Resolve находит команду по имени или алиасу.
func (r *Registry) Resolve(name string) (Definition, bool) {
	def, ok := r.table[strings.ToLower(name)]
	return def, ok
}

// Names возвращает множество каноничных имён (без алиасов).
func (r *Registry) Names() []string {
	seen := make(map[string]bool)
	names := make([]string, 0, len(r.table))
	for _, def := range r.table {
		if !seen[def.Name] {
			seen[def.Name] = true
			names = append(names, def.Name)
		}
	}
	return names
}
