package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/flybasist/eclipse/internal/modules/antilink"
)

// Русский комментарий: Правила фильтра ссылок хранятся по паре
// (беседа, вид ссылки). Отсутствующая строка означает выключенный фильтр.

type LinkRulesRepository struct {
	db *sql.DB
}

func NewLinkRulesRepository(db *sql.DB) *LinkRulesRepository {
	return &LinkRulesRepository{db: db}
}

// Rule возвращает правило для беседы и вида ссылки.
// Сигнатура совпадает с antilink.RuleFunc.
func (r *LinkRulesRepository) Rule(conversationID, kind string) (antilink.Rule, error) {
	var rule antilink.Rule
	err := r.db.QueryRowContext(context.Background(),
		`SELECT enabled, action, warn_threshold FROM link_rules
		 WHERE conversation_id = $1 AND kind = $2`,
		conversationID, kind).Scan(&rule.Enabled, &rule.Action, &rule.WarnThreshold)
	if errors.Is(err, sql.ErrNoRows) {
		return antilink.Rule{}, nil
	}
	if err != nil {
		return antilink.Rule{}, fmt.Errorf("link rule %s/%s: %w", conversationID, kind, err)
	}
	return rule, nil
}

// SetRule сохраняет правило целиком (upsert).
func (r *LinkRulesRepository) SetRule(conversationID, kind string, rule antilink.Rule) error {
	if rule.WarnThreshold <= 0 {
		rule.WarnThreshold = antilink.DefaultWarnThreshold
	}
	_, err := r.db.ExecContext(context.Background(),
		`INSERT INTO link_rules (conversation_id, kind, enabled, action, warn_threshold, updated_at)
		 VALUES ($1, $2, $3, $4, $5, now())
		 ON CONFLICT (conversation_id, kind) DO UPDATE
		 SET enabled = EXCLUDED.enabled, action = EXCLUDED.action,
		     warn_threshold = EXCLUDED.warn_threshold, updated_at = now()`,
		conversationID, kind, rule.Enabled, rule.Action, rule.WarnThreshold)
	if err != nil {
		return fmt.Errorf("set link rule %s/%s: %w", conversationID, kind, err)
	}
	return nil
}
