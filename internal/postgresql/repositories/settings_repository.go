package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/flybasist/eclipse/internal/modules/anticall"
)

// Русский комментарий: Репозиторий глобальных настроек поверх таблицы
// bot_settings (ключ-значение). Каждый модуль читает только свои ключи,
// типизация значений живёт здесь, а не в движках.

type SettingsRepository struct {
	db *sql.DB
}

func NewSettingsRepository(db *sql.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

func (r *SettingsRepository) get(key string) (string, error) {
	var value string
	err := r.db.QueryRowContext(context.Background(),
		`SELECT value FROM bot_settings WHERE key = $1`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("settings get %s: %w", key, err)
	}
	return value, nil
}

func (r *SettingsRepository) set(key, value string) error {
	_, err := r.db.ExecContext(context.Background(),
		`INSERT INTO bot_settings (key, value, updated_at) VALUES ($1, $2, now())
		 ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`,
		key, value)
	if err != nil {
		return fmt.Errorf("settings set %s: %w", key, err)
	}
	return nil
}

func (r *SettingsRepository) boolKey(key string, def bool) (bool, error) {
	value, err := r.get(key)
	if err != nil {
		return def, err
	}
	if value == "" {
		return def, nil
	}
	return value == "true", nil
}

func boolString(v bool) string {
	if v {
		return "true"
	}
	return "false"
}

// BotMode возвращает сохранённый режим работы ("public" или "self").
func (r *SettingsRepository) BotMode() (string, error) {
	value, err := r.get("mode")
	if err != nil {
		return "public", err
	}
	if value == "" {
		return "public", nil
	}
	return value, nil
}

// SetMode сохраняет режим работы. Вызывается диспетчером при переключении.
func (r *SettingsRepository) SetMode(mode string) error {
	return r.set("mode", mode)
}

// AntiSpamEnabled — глобальный флаг командного кулдауна.
func (r *SettingsRepository) AntiSpamEnabled() (bool, error) {
	return r.boolKey("antispam", true)
}

func (r *SettingsRepository) SetAntiSpam(enabled bool) error {
	return r.set("antispam", boolString(enabled))
}

// AntibugEnabled — флаг защиты от флуда в личных сообщениях.
// Без сохранённого значения фильтр выключен.
func (r *SettingsRepository) AntibugEnabled() (bool, error) {
	return r.boolKey("antibug", false)
}

func (r *SettingsRepository) SetAntibug(enabled bool) error {
	return r.set("antibug", boolString(enabled))
}

// AnticallState собирает три ключа фильтра звонков в одну структуру.
func (r *SettingsRepository) AnticallState() (anticall.State, error) {
	voice, err := r.boolKey("anticall_voice", true)
	if err != nil {
		return anticall.State{}, err
	}
	video, err := r.boolKey("anticall_video", true)
	if err != nil {
		return anticall.State{}, err
	}
	mode, err := r.get("anticall_mode")
	if err != nil {
		return anticall.State{}, err
	}
	if mode == "" {
		mode = anticall.ModeReply
	}
	return anticall.State{Voice: voice, Video: video, Mode: mode}, nil
}

func (r *SettingsRepository) SetAnticallVoice(enabled bool) error {
	return r.set("anticall_voice", boolString(enabled))
}

func (r *SettingsRepository) SetAnticallVideo(enabled bool) error {
	return r.set("anticall_video", boolString(enabled))
}

func (r *SettingsRepository) SetAnticallMode(mode string) error {
	if mode != anticall.ModeReply && mode != anticall.ModeBlock {
		return fmt.Errorf("unknown anticall mode %q", mode)
	}
	return r.set("anticall_mode", mode)
}
