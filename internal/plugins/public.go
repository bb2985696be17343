package plugins

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/flybasist/eclipse/internal/commands"
	"github.com/flybasist/eclipse/internal/core"
	"github.com/flybasist/eclipse/internal/modules/antilink"
)

// Public возвращает набор команд, доступных всем в публичном режиме.
func Public(d Deps) []commands.Definition {
	defs := []commands.Definition{
		pingCommand(),
		menuCommand(d),
		videoCommand(d),
		antilinkCommand(d),
		welcomeCommand(d, "welcome"),
		welcomeCommand(d, "goodbye"),
	}
	// Старый плагин в legacy-форме, приводится адаптером при регистрации.
	defs = append(defs, ownerLegacy(d).Adapt())
	return defs
}

func pingCommand() commands.Definition {
	return commands.Definition{
		Name:        "ping",
		Category:    "general",
		Description: "check that the bot is alive",
		Execute: func(ctx context.Context, ev *core.Event, opts commands.Options) error {
			return opts.Transport.SendMessage(ctx, ev.Key.RemoteJID, "🏓 Pong!",
				&core.SendOptions{Quoted: &ev.Key})
		},
	}
}

func menuCommand(d Deps) commands.Definition {
	return commands.Definition{
		Name:        "menu",
		Aliases:     []string{"help"},
		Category:    "general",
		Description: "list available commands",
		Execute: func(ctx context.Context, ev *core.Event, opts commands.Options) error {
			var b strings.Builder
			fmt.Fprintf(&b, "🤖 *%s* (mode: %s)\n\n", d.Identity.Bot.Name, opts.Mode)
			b.WriteString("*General*\n")
			fmt.Fprintf(&b, "%sping — check that the bot is alive\n", opts.Prefix)
			fmt.Fprintf(&b, "%smenu — this list\n", opts.Prefix)
			fmt.Fprintf(&b, "%sowner — contact the owner\n", opts.Prefix)
			fmt.Fprintf(&b, "%svideo — pick a video quality\n\n", opts.Prefix)
			b.WriteString("*Moderation (group admins)*\n")
			fmt.Fprintf(&b, "%santilink <channel|telegram> <off|delete|warn|kick>\n", opts.Prefix)
			fmt.Fprintf(&b, "%swelcome <on|off> [text]\n", opts.Prefix)
			fmt.Fprintf(&b, "%sgoodbye <on|off> [text]\n", opts.Prefix)
			if opts.IsOwner {
				b.WriteString("\n*Owner*\n")
				fmt.Fprintf(&b, "%sself / %spublic — switch mode\n", opts.Prefix, opts.Prefix)
				fmt.Fprintf(&b, "%santicall, %santibug, %santispam, %sshutdown, %srestart, %slogout\n",
					opts.Prefix, opts.Prefix, opts.Prefix, opts.Prefix, opts.Prefix, opts.Prefix)
			}
			return opts.Transport.SendMessage(ctx, ev.Key.RemoteJID, b.String(), nil)
		},
	}
}

// videoCommand — диалоговая команда с сессией: без аргумента предлагает
// выбор, цифра в ответе (или следующим сообщением) завершает диалог.
func videoCommand(d Deps) commands.Definition {
	return commands.Definition{
		Name:        "video",
		Category:    "media",
		Description: "pick a video quality",
		Execute: func(ctx context.Context, ev *core.Event, opts commands.Options) error {
			conv := ev.Key.RemoteJID
			if len(opts.Args) == 0 {
				opts.Sessions.Create(conv, "video")
				text := "🎬 Choose a quality, reply with the number:\n1) 720p\n2) 480p"
				return opts.Transport.SendMessage(ctx, conv, text, &core.SendOptions{Quoted: &ev.Key})
			}
			choice := strings.TrimSpace(opts.Args[0])
			quality, ok := map[string]string{"1": "720p", "2": "480p"}[choice]
			if !ok {
				return opts.Transport.SendMessage(ctx, conv,
					"❌ Unknown choice. Reply with 1 or 2.", &core.SendOptions{Quoted: &ev.Key})
			}
			opts.Sessions.Delete(conv)
			d.Logger.Info("video quality selected",
				zap.String("conversation", conv), zap.String("quality", quality))
			return opts.Transport.SendMessage(ctx, conv,
				fmt.Sprintf("✅ Sending the video in %s.", quality), &core.SendOptions{Quoted: &ev.Key})
		},
	}
}

func antilinkCommand(d Deps) commands.Definition {
	usage := "Usage: antilink <channel|telegram> <off|delete|warn|kick> [warn threshold]"
	return commands.Definition{
		Name:        "antilink",
		Category:    "moderation",
		Description: "configure the link filter for this group",
		Execute: func(ctx context.Context, ev *core.Event, opts commands.Options) error {
			conv := ev.Key.RemoteJID
			if !ev.IsGroup() {
				return opts.Transport.SendMessage(ctx, conv, "This command only works in groups.", nil)
			}
			allowed := opts.IsOwner
			if !allowed {
				var err error
				allowed, err = isGroupAdmin(ctx, opts.Transport, conv, ev.SenderJID())
				if err != nil {
					return err
				}
			}
			if !allowed {
				return opts.Transport.SendMessage(ctx, conv, "Only group admins can change the link filter.", nil)
			}
			if len(opts.Args) < 2 {
				return opts.Transport.SendMessage(ctx, conv, usage, nil)
			}

			kind := strings.ToLower(opts.Args[0])
			if kind != antilink.KindChannel && kind != antilink.KindTelegram {
				return opts.Transport.SendMessage(ctx, conv, usage, nil)
			}

			rule := antilink.Rule{Enabled: true, WarnThreshold: antilink.DefaultWarnThreshold}
			switch action := strings.ToLower(opts.Args[1]); action {
			case "off":
				rule.Enabled = false
				rule.Action = antilink.ActionDelete
			case antilink.ActionDelete, antilink.ActionWarn, antilink.ActionKick:
				rule.Action = action
			default:
				return opts.Transport.SendMessage(ctx, conv, usage, nil)
			}
			if len(opts.Args) >= 3 {
				if n, err := strconv.Atoi(opts.Args[2]); err == nil && n > 0 {
					rule.WarnThreshold = n
				}
			}

			if err := d.LinkRules.SetRule(conv, kind, rule); err != nil {
				return err
			}
			status := "disabled"
			if rule.Enabled {
				status = "enabled, action: " + rule.Action
			}
			return opts.Transport.SendMessage(ctx, conv,
				fmt.Sprintf("🔗 Link filter for %s links is now %s.", kind, status), nil)
		},
	}
}

// welcomeCommand обслуживает и welcome, и goodbye: они отличаются только
// тем, какую половину конфигурации трогают.
func welcomeCommand(d Deps, name string) commands.Definition {
	return commands.Definition{
		Name:        name,
		Category:    "moderation",
		Description: "configure the " + name + " message for this group",
		Execute: func(ctx context.Context, ev *core.Event, opts commands.Options) error {
			conv := ev.Key.RemoteJID
			if !ev.IsGroup() {
				return opts.Transport.SendMessage(ctx, conv, "This command only works in groups.", nil)
			}
			allowed := opts.IsOwner
			if !allowed {
				var err error
				allowed, err = isGroupAdmin(ctx, opts.Transport, conv, ev.SenderJID())
				if err != nil {
					return err
				}
			}
			if !allowed {
				return opts.Transport.SendMessage(ctx, conv, "Only group admins can change this setting.", nil)
			}
			if len(opts.Args) == 0 {
				return opts.Transport.SendMessage(ctx, conv,
					fmt.Sprintf("Usage: %s <on|off> [text with @user]", name), nil)
			}

			cfg, err := d.Welcome.Config(conv)
			if err != nil {
				return err
			}
			enabled := strings.ToLower(opts.Args[0]) == "on"
			text := strings.Join(opts.Args[1:], " ")
			if name == "welcome" {
				cfg.Welcome = enabled
				if text != "" {
					cfg.WelcomeText = text
				}
			} else {
				cfg.Goodbye = enabled
				if text != "" {
					cfg.GoodbyeText = text
				}
			}
			if err := d.Welcome.SetConfig(conv, cfg); err != nil {
				return err
			}
			state := "disabled"
			if enabled {
				state = "enabled"
			}
			return opts.Transport.SendMessage(ctx, conv,
				fmt.Sprintf("👋 %s message is now %s.", strings.ToUpper(name[:1])+name[1:], state), nil)
		},
	}
}

// ownerLegacy сохранён в старой форме описания как живой пример
// для внешних плагинов, которые ещё не перешли на Definition.
func ownerLegacy(d Deps) commands.LegacyDefinition {
	return commands.LegacyDefinition{
		NomCom:    "owner",
		Categorie: "general",
		Aliases:   []string{"contact"},
		Execute: func(ctx context.Context, dest string, t core.Transport, ev *core.Event, args []string) error {
			text := fmt.Sprintf("👤 Owner of %s: %s", d.Identity.Bot.Name, d.Identity.Bot.Owner)
			return t.SendMessage(ctx, dest, text, nil)
		},
	}
}

func isGroupAdmin(ctx context.Context, t core.Transport, conversationID, senderJID string) (bool, error) {
	meta, err := t.GroupMetadata(ctx, conversationID)
	if err != nil {
		return false, fmt.Errorf("group metadata: %w", err)
	}
	sender := core.BareID(senderJID)
	for _, p := range meta.Participants {
		if p.IsAdmin && core.BareID(p.JID) == sender {
			return true, nil
		}
	}
	return false, nil
}
