package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/flybasist/eclipse/internal/modules/welcome"
)

// Русский комментарий: Настройки приветствий и прощаний по беседам.
// Отсутствующая строка означает, что оба режима выключены.

type WelcomeRepository struct {
	db *sql.DB
}

func NewWelcomeRepository(db *sql.DB) *WelcomeRepository {
	return &WelcomeRepository{db: db}
}

// Config возвращает настройки беседы. Сигнатура совпадает с welcome.ConfigFunc.
func (r *WelcomeRepository) Config(conversationID string) (welcome.Config, error) {
	var cfg welcome.Config
	err := r.db.QueryRowContext(context.Background(),
		`SELECT welcome_enabled, goodbye_enabled, welcome_text, goodbye_text
		 FROM welcome_config WHERE conversation_id = $1`,
		conversationID).Scan(&cfg.Welcome, &cfg.Goodbye, &cfg.WelcomeText, &cfg.GoodbyeText)
	if errors.Is(err, sql.ErrNoRows) {
		return welcome.Config{}, nil
	}
	if err != nil {
		return welcome.Config{}, fmt.Errorf("welcome config %s: %w", conversationID, err)
	}
	return cfg, nil
}

// SetConfig сохраняет настройки беседы целиком.
func (r *WelcomeRepository) SetConfig(conversationID string, cfg welcome.Config) error {
	_, err := r.db.ExecContext(context.Background(),
		`INSERT INTO welcome_config (conversation_id, welcome_enabled, goodbye_enabled, welcome_text, goodbye_text, updated_at)
		 VALUES ($1, $2, $3, $4, $5, now())
		 ON CONFLICT (conversation_id) DO UPDATE
		 SET welcome_enabled = EXCLUDED.welcome_enabled,
		     goodbye_enabled = EXCLUDED.goodbye_enabled,
		     welcome_text = EXCLUDED.welcome_text,
		     goodbye_text = EXCLUDED.goodbye_text,
		     updated_at = now()`,
		conversationID, cfg.Welcome, cfg.Goodbye, cfg.WelcomeText, cfg.GoodbyeText)
	if err != nil {
		return fmt.Errorf("set welcome config %s: %w", conversationID, err)
	}
	return nil
}
