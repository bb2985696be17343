package dispatcher

import (
	"context"
	"fmt"
	"math"
	"runtime/debug"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/flybasist/eclipse/internal/commands"
	"github.com/flybasist/eclipse/internal/core"
	"github.com/flybasist/eclipse/internal/state"
)

// Команды, которые исполняет только владелец, даже в public режиме.
var restrictedCommands = map[string]bool{
	"restart":  true,
	"shutdown": true,
	"stop":     true,
	"logout":   true,
}

// sessionFallbackCommand возобновляется для цифрового ответа на
// процитированное сообщение, когда явной сессии нет.
const sessionFallbackCommand = "video"

// SettingsSource — снапшот персистентных настроек, читаемый на каждый
// dispatch, и персист переключения режима.
type SettingsSource interface {
	AntiSpamEnabled() (bool, error)
	SetMode(mode string) error
}

// Params — зависимости диспетчера. Движки-коллабораторы опциональны
// (nil отключает соответствующую стадию), реестры и стейт обязательны.
type Params struct {
	Transport   core.Transport
	Public      *commands.Registry
	Self        *commands.Registry
	Mode        *state.ModeStore
	Cooldowns   *state.CooldownTracker
	Sessions    *state.SessionStore
	Settings    SettingsSource
	Links       core.LinkFilter
	Tags        core.TagFilter
	Flood       core.FloodFilter
	Calls       core.CallFilter
	Archive     core.Archive
	Chatbot     core.Chatbot
	Greeter     core.Greeter
	Audit       core.AuditLog
	Logger      *zap.Logger
	Prefix      string
	OwnerNumber string // digits only
	QueueSize   int
}

// Dispatcher — машина состояний обработки одного входящего события.
// Каждая стадия выполняется до конца (включая все транспортные вызовы)
// прежде, чем начнётся следующая; любая стадия может завершить обработку.
type Dispatcher struct {
	mu        sync.RWMutex
	transport core.Transport

	public    *commands.Registry
	self      *commands.Registry
	mode      *state.ModeStore
	cooldowns *state.CooldownTracker
	sessions  *state.SessionStore
	settings  SettingsSource

	links   core.LinkFilter
	tags    core.TagFilter
	flood   core.FloodFilter
	calls   core.CallFilter
	archive core.Archive
	chatbot core.Chatbot
	greeter core.Greeter
	audit   core.AuditLog

	logger      *zap.Logger
	prefix      string
	ownerNumber string

	active    atomic.Bool
	queue     chan inbound
	done      chan struct{}
	closeOnce sync.Once
}

// New создаёт диспетчер. Транспорт можно подключить позже через Attach.
func New(p Params) *Dispatcher {
	if p.Logger == nil {
		p.Logger = zap.NewNop()
	}
	if p.Public == nil {
		p.Public = commands.NewRegistry(p.Logger)
	}
	if p.Self == nil {
		p.Self = commands.NewRegistry(p.Logger)
	}
	if p.Mode == nil {
		p.Mode = state.NewModeStore(state.ModePublic)
	}
	if p.Cooldowns == nil {
		p.Cooldowns = state.NewCooldownTracker(5 * time.Second)
	}
	if p.Sessions == nil {
		p.Sessions = state.NewSessionStore(5 * time.Minute)
	}
	if p.Prefix == "" {
		p.Prefix = "."
	}
	if p.QueueSize <= 0 {
		p.QueueSize = DefaultQueueSize
	}

	d := &Dispatcher{
		transport:   p.Transport,
		public:      p.Public,
		self:        p.Self,
		mode:        p.Mode,
		cooldowns:   p.Cooldowns,
		sessions:    p.Sessions,
		settings:    p.Settings,
		links:       p.Links,
		tags:        p.Tags,
		flood:       p.Flood,
		calls:       p.Calls,
		archive:     p.Archive,
		chatbot:     p.Chatbot,
		greeter:     p.Greeter,
		audit:       p.Audit,
		logger:      p.Logger,
		prefix:      p.Prefix,
		ownerNumber: p.OwnerNumber,
		queue:       make(chan inbound, p.QueueSize),
		done:        make(chan struct{}),
	}
	d.active.Store(true)
	return d
}

// Attach подключает диспетчер к (новому) инстансу транспорта.
// Состояние модерации и сессий при этом сохраняется — reconnect
// остаётся заботой транспорта.
func (d *Dispatcher) Attach(t core.Transport) {
	d.mu.Lock()
	d.transport = t
	d.mu.Unlock()
	d.logger.Info("transport attached")
}

// Transport возвращает текущий транспорт.
func (d *Dispatcher) Transport() core.Transport {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.transport
}

// SetActive глобально включает/выключает обработку входящих событий.
func (d *Dispatcher) SetActive(active bool) {
	d.active.Store(active)
	d.logger.Info("dispatcher active flag changed", zap.Bool("active", active))
}

// handleMessage прогоняет одно сообщение через все стадии по порядку.
func (d *Dispatcher) handleMessage(ctx context.Context, ev *core.Event) {
	t := d.Transport()
	if t == nil || ev.Kind == "" || !d.active.Load() {
		return
	}

	// Стадия 1: нормализация. Alias-идентификаторы переписываются в
	// каноничные; исходное событие не мутируется.
	if core.IsAliasJID(ev.Key.RemoteJID) {
		norm := *ev
		norm.Key.RemoteJID = core.BareID(ev.Key.RemoteJID) + "@s.whatsapp.net"
		ev = &norm
	}
	conversation := ev.Key.RemoteJID
	isGroup := ev.IsGroup()
	fromSelf := ev.Key.FromMe
	senderJID := ev.SenderJID()
	groupID := ""
	if isGroup {
		groupID = conversation
	}
	senderNumber := d.normalizeSender(ctx, t, senderJID, groupID)
	isOwner := fromSelf || (d.ownerNumber != "" && senderNumber == d.ownerNumber)

	// Стадия 2: antitag. Только группы, не от себя; не блокирует.
	if isGroup && !fromSelf && d.tags != nil {
		if err := d.tags.OnMessage(ctx, t, ev); err != nil {
			d.logger.Error("antitag pass failed", zap.String("conversation", conversation), zap.Error(err))
		}
	}

	// Стадия 3: фильтр ссылок. Может завершить обработку.
	if isGroup && !fromSelf && d.links != nil {
		handled, err := d.links.Check(ctx, t, ev, ev.Body(), senderJID)
		if err != nil {
			d.logger.Error("link filter failed", zap.String("conversation", conversation), zap.Error(err))
		}
		if handled {
			return
		}
	}

	// Стадия 4: antibug. Только личные сообщения; может завершить обработку.
	if !isGroup && !fromSelf && d.flood != nil {
		blocked, err := d.flood.Check(ctx, t, ev, time.Now())
		if err != nil {
			d.logger.Error("flood filter failed", zap.String("sender", senderJID), zap.Error(err))
		}
		if blocked {
			return
		}
	}

	// Стадия 5: архивация для anti-delete. Не блокирует.
	if d.archive != nil {
		d.archive.Store(ctx, ev)
		if ev.Revoked != nil {
			if err := d.archive.HandleRevocation(ctx, t, ev); err != nil {
				d.logger.Error("revocation handling failed", zap.String("conversation", conversation), zap.Error(err))
			}
		}
	}

	// Стадия 6: извлечение текста.
	body := ev.Body()
	if body == "" {
		return
	}
	trimmed := strings.TrimSpace(body)

	hasPrefix := strings.HasPrefix(body, d.prefix)
	var name string
	var args []string
	if hasPrefix {
		fields := strings.Fields(body[len(d.prefix):])
		if len(fields) > 0 {
			name = strings.ToLower(fields[0])
			args = fields[1:]
		}
	}

	// Стадия 7: охраняемые команды. Не владелец — вежливый отказ.
	if hasPrefix && !isOwner && restrictedCommands[name] {
		d.send(ctx, t, conversation, "🚫 This command is restricted to the bot owner.", &core.SendOptions{Quoted: &ev.Key})
		return
	}

	// Стадия 8: переключение режима. Мимо cooldown и реестра.
	if hasPrefix && isOwner && (name == string(state.ModeSelf) || name == string(state.ModePublic)) {
		d.switchMode(ctx, t, conversation, senderJID, state.ParseMode(name))
		return
	}

	// Стадия 9: гейт режима. В self не-владелец подавляется молча.
	if d.mode.Get() == state.ModeSelf && !isOwner {
		return
	}

	// Вход в командную ветку: префикс либо голая цифра-ответ на сессию.
	isSessionReply := !hasPrefix && isSessionDigit(trimmed) &&
		(d.sessions.Has(conversation) || ev.Quoted != nil)
	if !hasPrefix && !isSessionReply {
		// Стадия 13: разговорный fallback.
		if d.chatbot != nil && !fromSelf {
			if err := d.chatbot.HandleText(ctx, t, ev, body); err != nil {
				d.logger.Error("chatbot fallback failed", zap.String("conversation", conversation), zap.Error(err))
			}
		}
		return
	}

	// Стадия 10: cooldown. Владелец освобождён; неуспех не записывает
	// новую метку времени.
	if d.settings != nil && !isOwner {
		antiSpam, err := d.settings.AntiSpamEnabled()
		if err != nil {
			d.logger.Error("failed to read antispam flag", zap.Error(err))
		}
		if antiSpam {
			if remaining, ok := d.cooldowns.Try(senderJID, time.Now()); !ok {
				secs := int(math.Ceil(remaining.Seconds()))
				d.send(ctx, t, conversation,
					fmt.Sprintf("⏳ Please wait %ds before using another command.", secs),
					&core.SendOptions{Quoted: &ev.Key})
				return
			}
		}
	}

	if isSessionReply {
		if sess, ok := d.sessions.Get(conversation); ok {
			name = sess.Command
		} else {
			name = sessionFallbackCommand
		}
		args = []string{trimmed}
	}

	// Стадия 11: резолюция. self режим и владелец видят оба реестра,
	// публичный реестр проверяется первым.
	var def commands.Definition
	var found bool
	if d.mode.Get() == state.ModeSelf || isOwner {
		if def, found = d.public.Resolve(name); !found {
			def, found = d.self.Resolve(name)
		}
	} else {
		def, found = d.public.Resolve(name)
	}

	if !found {
		// В группе незнакомые команды игнорируются молча.
		if !isGroup && hasPrefix {
			d.send(ctx, t, conversation,
				fmt.Sprintf("❓ Unknown command: %s. Try %smenu", name, d.prefix),
				&core.SendOptions{Quoted: &ev.Key})
		}
		return
	}

	// Стадия 12: вызов хендлера. Ошибки и паники не покидают диспетчер.
	opts := commands.Options{
		Transport: t,
		Args:      args,
		IsOwner:   isOwner,
		Mode:      string(d.mode.Get()),
		Prefix:    d.prefix,
		Sessions:  d.sessions,
	}
	if err := d.execute(ctx, def, ev, opts); err != nil {
		d.logger.Error("command handler failed",
			zap.String("command", def.Name),
			zap.String("conversation", conversation),
			zap.Error(err))
		return
	}
	if d.audit != nil {
		d.audit.Record(ctx, core.AuditEntry{
			Module:       "dispatcher",
			Action:       "command",
			Conversation: conversation,
			Sender:       senderJID,
			Detail:       def.Name,
			At:           time.Now(),
		})
	}
}

// execute изолирует панику одного хендлера.
func (d *Dispatcher) execute(ctx context.Context, def commands.Definition, ev *core.Event, opts commands.Options) (err error) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("panic recovered in command handler",
				zap.String("command", def.Name),
				zap.Any("panic", r),
				zap.String("stack", string(debug.Stack())))
			err = fmt.Errorf("panic in command %s: %v", def.Name, r)
		}
	}()
	return def.Execute(ctx, ev, opts)
}

func (d *Dispatcher) switchMode(ctx context.Context, t core.Transport, conversation, senderJID string, mode state.Mode) {
	d.mode.Set(mode)
	if d.settings != nil {
		if err := d.settings.SetMode(string(mode)); err != nil {
			d.logger.Error("failed to persist bot mode", zap.Error(err))
		}
	}

	notice := "🤖 Switched to SELF mode."
	if mode == state.ModePublic {
		notice = "🌍 Switched to PUBLIC mode."
	}
	d.send(ctx, t, conversation, notice, nil)
	if myJID := t.SelfJID(); myJID != "" && myJID != conversation {
		d.send(ctx, t, myJID, notice, nil)
	}

	d.logger.Info("bot mode switched", zap.String("mode", string(mode)))
	if d.audit != nil {
		d.audit.Record(ctx, core.AuditEntry{
			Module:       "dispatcher",
			Action:       "mode_switch",
			Conversation: conversation,
			Sender:       senderJID,
			Detail:       string(mode),
			At:           time.Now(),
		})
	}
}

func (d *Dispatcher) handleCalls(ctx context.Context, calls []core.CallOffer) {
	t := d.Transport()
	if t == nil || d.calls == nil || !d.active.Load() {
		return
	}
	if err := d.calls.HandleCalls(ctx, t, calls); err != nil {
		d.logger.Error("call filter failed", zap.Error(err))
	}
}

func (d *Dispatcher) handleParticipants(ctx context.Context, up core.ParticipantUpdate) {
	t := d.Transport()
	if t == nil || d.greeter == nil || !d.active.Load() {
		return
	}
	if err := d.greeter.HandleParticipants(ctx, t, up); err != nil {
		d.logger.Error("participant handling failed",
			zap.String("conversation", up.ConversationID),
			zap.Error(err))
	}
}

// normalizeSender переписывает alias-идентификатор отправителя в
// каноничный номер; для групп пытается найти участника в метаданных.
func (d *Dispatcher) normalizeSender(ctx context.Context, t core.Transport, senderJID, groupID string) string {
	if !core.IsAliasJID(senderJID) {
		return core.BareID(senderJID)
	}
	if groupID != "" {
		meta, err := t.GroupMetadata(ctx, groupID)
		if err == nil {
			for _, p := range meta.Participants {
				if p.JID == senderJID {
					return core.BareID(p.JID)
				}
			}
		}
	}
	return core.BareID(senderJID)
}

func (d *Dispatcher) send(ctx context.Context, t core.Transport, conversation, text string, opts *core.SendOptions) {
	if err := t.SendMessage(ctx, conversation, text, opts); err != nil {
		d.logger.Error("failed to send message", zap.String("conversation", conversation), zap.Error(err))
	}
}

func isSessionDigit(s string) bool {
	return s == "1" || s == "2"
}
