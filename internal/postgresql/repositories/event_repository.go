package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/flybasist/eclipse/internal/core"
)

// Русский комментарий: Журнал модерационных действий в Postgres.
// Реализует core.AuditLog и используется параллельно с Kafka-журналом.

type EventRepository struct {
	db *sql.DB
}

func NewEventRepository(db *sql.DB) *EventRepository {
	return &EventRepository{db: db}
}

func (r *EventRepository) Record(ctx context.Context, entry core.AuditEntry) error {
	at := entry.At
	if at.IsZero() {
		at = time.Now()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO event_log (module, action, conversation_id, sender_jid, detail, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		entry.Module, entry.Action, entry.Conversation, entry.Sender, entry.Detail, at)
	if err != nil {
		return fmt.Errorf("event log insert: %w", err)
	}
	return nil
}
