package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Русский комментарий: Архив входящих сообщений для антиудаления.
// Save/Find реализуют интерфейс хранилища модуля antidelete,
// DeleteOlderThan дёргается из планировщика обслуживания.

type MessageRepository struct {
	db *sql.DB
}

func NewMessageRepository(db *sql.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

func (r *MessageRepository) Save(ctx context.Context, conversationID, senderJID, pushName, messageID, kind, body string, at time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO archived_messages (conversation_id, sender_jid, push_name, message_id, kind, body, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		conversationID, senderJID, pushName, messageID, kind, body, at)
	if err != nil {
		return fmt.Errorf("archive save: %w", err)
	}
	return nil
}

// Find ищет последнюю сохранённую версию сообщения по паре беседа+id.
func (r *MessageRepository) Find(ctx context.Context, conversationID, messageID string) (senderJID, pushName, body string, found bool, err error) {
	err = r.db.QueryRowContext(ctx,
		`SELECT sender_jid, push_name, body FROM archived_messages
		 WHERE conversation_id = $1 AND message_id = $2
		 ORDER BY id DESC LIMIT 1`,
		conversationID, messageID).Scan(&senderJID, &pushName, &body)
	if errors.Is(err, sql.ErrNoRows) {
		return "", "", "", false, nil
	}
	if err != nil {
		return "", "", "", false, fmt.Errorf("archive find: %w", err)
	}
	return senderJID, pushName, body, true, nil
}

// DeleteOlderThan удаляет записи старше порога и возвращает их число.
func (r *MessageRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM archived_messages WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("archive retention: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, nil
	}
	return n, nil
}
