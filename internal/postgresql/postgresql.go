package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

// Русский комментарий: этот пакет инкапсулирует работу с PostgreSQL.
// Схема создаётся при старте через CREATE TABLE IF NOT EXISTS — сервис
// небольшой, отдельный инструмент миграций здесь избыточен.

// ConnectToBase — подключение к базе по DSN.
func ConnectToBase(ctx context.Context, dsn string) (*sql.DB, error) {
	if dsn == "" {
		return nil, errors.New("empty postgres dsn")
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	// Проверяем соединение с учётом контекста.
	pingCh := make(chan error, 1)
	go func() { pingCh <- db.Ping() }()
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case err := <-pingCh:
		if err != nil {
			return nil, fmt.Errorf("ping: %w", err)
		}
	}
	return db, nil
}

// PingWithRetry пингует базу с ретраями.
// Русский комментарий: Используется при старте, чтобы пережить момент,
// когда Postgres в соседнем контейнере ещё поднимается.
func PingWithRetry(db *sql.DB, maxRetries int, delay time.Duration, logger *zap.Logger) error {
	for i := 0; i < maxRetries; i++ {
		err := db.Ping()
		if err == nil {
			logger.Info("postgres connection established")
			return nil
		}
		logger.Warn("failed to ping postgres, retrying...",
			zap.Int("attempt", i+1),
			zap.Int("max_retries", maxRetries),
			zap.Error(err))
		if i < maxRetries-1 {
			time.Sleep(delay)
		}
	}
	return fmt.Errorf("failed to ping postgres after %d retries", maxRetries)
}

// CreateTables создаёт схему, если её ещё нет, и заполняет настройки по умолчанию.
func CreateTables(ctx context.Context, db *sql.DB) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS bot_settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS link_rules (
			conversation_id TEXT NOT NULL,
			kind TEXT NOT NULL,
			enabled BOOLEAN NOT NULL DEFAULT FALSE,
			action TEXT NOT NULL DEFAULT 'delete',
			warn_threshold INT NOT NULL DEFAULT 3,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			PRIMARY KEY (conversation_id, kind)
		)`,
		`CREATE TABLE IF NOT EXISTS archived_messages (
			id BIGSERIAL PRIMARY KEY,
			conversation_id TEXT NOT NULL,
			sender_jid TEXT NOT NULL,
			push_name TEXT NOT NULL DEFAULT '',
			message_id TEXT NOT NULL,
			kind TEXT NOT NULL,
			body TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_archived_messages_lookup
			ON archived_messages (conversation_id, message_id)`,
		`CREATE TABLE IF NOT EXISTS event_log (
			id BIGSERIAL PRIMARY KEY,
			module TEXT NOT NULL,
			action TEXT NOT NULL,
			conversation_id TEXT NOT NULL DEFAULT '',
			sender_jid TEXT NOT NULL DEFAULT '',
			detail TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS welcome_config (
			conversation_id TEXT PRIMARY KEY,
			welcome_enabled BOOLEAN NOT NULL DEFAULT FALSE,
			goodbye_enabled BOOLEAN NOT NULL DEFAULT FALSE,
			welcome_text TEXT NOT NULL DEFAULT '',
			goodbye_text TEXT NOT NULL DEFAULT '',
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
	}
	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create tables: %w", err)
		}
	}

	// Значения по умолчанию: вставляем только отсутствующие ключи.
	// Фильтр флуда в личных сообщениях выключен, пока владелец явно
	// не включит его командой.
	defaults := map[string]string{
		"mode":           "public",
		"antispam":       "true",
		"antibug":        "false",
		"anticall_voice": "true",
		"anticall_video": "true",
		"anticall_mode":  "reply",
	}
	for key, value := range defaults {
		_, err := db.ExecContext(ctx,
			`INSERT INTO bot_settings (key, value) VALUES ($1, $2) ON CONFLICT (key) DO NOTHING`,
			key, value)
		if err != nil {
			return fmt.Errorf("seed settings: %w", err)
		}
	}
	return nil
}
