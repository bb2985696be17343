package plugins

import (
	"context"
	"fmt"
	"strings"

	"github.com/flybasist/eclipse/internal/commands"
	"github.com/flybasist/eclipse/internal/core"
	"github.com/flybasist/eclipse/internal/modules/anticall"
)

// Self возвращает набор команд владельца. Диспетчер резолвит их только
// когда отправитель — владелец (или аккаунт сам себе).
func Self(d Deps) []commands.Definition {
	return []commands.Definition{
		anticallCommand(d),
		toggleCommand(d, "antibug", "DM flood protection", d.Settings.SetAntibug),
		toggleCommand(d, "antispam", "command cooldown", d.Settings.SetAntiSpam),
		stopCommand(d, "shutdown", []string{"stop"}, "shut the bot down"),
		stopCommand(d, "restart", nil, "restart the bot"),
		stopCommand(d, "logout", nil, "log the bot out"),
	}
}

func anticallCommand(d Deps) commands.Definition {
	usage := "Usage: anticall <voice|video> <on|off> | anticall mode <reply|block>"
	return commands.Definition{
		Name:        "anticall",
		Category:    "owner",
		Description: "configure the call filter",
		Execute: func(ctx context.Context, ev *core.Event, opts commands.Options) error {
			conv := ev.Key.RemoteJID
			if len(opts.Args) < 2 {
				return opts.Transport.SendMessage(ctx, conv, usage, nil)
			}
			target := strings.ToLower(opts.Args[0])
			value := strings.ToLower(opts.Args[1])

			switch target {
			case "voice":
				if err := d.Settings.SetAnticallVoice(value == "on"); err != nil {
					return err
				}
			case "video":
				if err := d.Settings.SetAnticallVideo(value == "on"); err != nil {
					return err
				}
			case "mode":
				if value != anticall.ModeReply && value != anticall.ModeBlock {
					return opts.Transport.SendMessage(ctx, conv, usage, nil)
				}
				if err := d.Settings.SetAnticallMode(value); err != nil {
					return err
				}
			default:
				return opts.Transport.SendMessage(ctx, conv, usage, nil)
			}
			return opts.Transport.SendMessage(ctx, conv,
				fmt.Sprintf("📵 Anticall %s set to %s.", target, value), nil)
		},
	}
}

func toggleCommand(d Deps, name, what string, apply func(bool) error) commands.Definition {
	return commands.Definition{
		Name:        name,
		Category:    "owner",
		Description: "toggle " + what,
		Execute: func(ctx context.Context, ev *core.Event, opts commands.Options) error {
			conv := ev.Key.RemoteJID
			if len(opts.Args) == 0 {
				return opts.Transport.SendMessage(ctx, conv,
					fmt.Sprintf("Usage: %s <on|off>", name), nil)
			}
			enabled := strings.ToLower(opts.Args[0]) == "on"
			if err := apply(enabled); err != nil {
				return err
			}
			state := "disabled"
			if enabled {
				state = "enabled"
			}
			return opts.Transport.SendMessage(ctx, conv,
				fmt.Sprintf("⚙️ %s is now %s.", what, state), nil)
		},
	}
}

// stopCommand — семейство команд остановки процесса. Все три сводятся к
// одному сигналу: что именно произойдёт после выхода (рестарт, логаут)
// решает supervisor снаружи.
func stopCommand(d Deps, name string, aliases []string, what string) commands.Definition {
	return commands.Definition{
		Name:        name,
		Aliases:     aliases,
		Category:    "owner",
		Description: what,
		Execute: func(ctx context.Context, ev *core.Event, opts commands.Options) error {
			conv := ev.Key.RemoteJID
			if err := opts.Transport.SendMessage(ctx, conv, "🛑 Shutting down, see you soon.", nil); err != nil {
				d.Logger.Warn("failed to confirm shutdown command")
			}
			if d.Stop != nil {
				d.Stop(name)
			}
			return nil
		},
	}
}
