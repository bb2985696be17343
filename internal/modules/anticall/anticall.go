package anticall

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/flybasist/eclipse/internal/core"
)

// Modes of reaction after a call is rejected.
const (
	ModeReply = "reply" // send a busy notice
	ModeBlock = "block" // block the caller and notify once
)

// State — персистентная трёхзначная конфигурация фильтра звонков.
type State struct {
	Voice bool   // reject voice calls
	Video bool   // reject video calls
	Mode  string // reply|block
}

// StateFunc отдаёт актуальное состояние фильтра. Реализуется репозиторием.
type StateFunc func() (State, error)

// Engine — фильтр входящих звонков.
type Engine struct {
	state  StateFunc
	audit  core.AuditLog
	logger *zap.Logger
}

// New создаёт фильтр звонков. audit может быть nil.
func New(state StateFunc, audit core.AuditLog, logger *zap.Logger) *Engine {
	return &Engine{state: state, audit: audit, logger: logger}
}

// HandleCalls обрабатывает пачку одновременно доставленных звонков.
// Рассматривается только первый звонок пачки — это осознанное упрощение,
// а не баг: кому нужны мульти-звонковые пачки, тот ресегментирует их
// до вызова.
func (e *Engine) HandleCalls(ctx context.Context, t core.Transport, calls []core.CallOffer) error {
	if len(calls) == 0 {
		return nil
	}
	call := calls[0]

	st, err := e.state()
	if err != nil {
		return fmt.Errorf("load anticall state: %w", err)
	}

	shouldReject := (call.IsVideo && st.Video) || (!call.IsVideo && st.Voice)
	if !shouldReject {
		return nil
	}

	if err := t.RejectCall(ctx, call.ID, call.From); err != nil {
		return fmt.Errorf("reject call: %w", err)
	}

	if st.Mode == ModeBlock {
		notice := "⚠️ You have been blocked for calling the bot. Please contact the owner for unblocking."
		if err := t.SendMessage(ctx, call.From, notice, nil); err != nil {
			return fmt.Errorf("send block notice: %w", err)
		}
		if err := t.BlockSender(ctx, call.From); err != nil {
			return fmt.Errorf("block caller: %w", err)
		}
		e.record(ctx, "reject_block", call)
		return nil
	}

	if err := t.SendMessage(ctx, call.From, "📵 I am busy right now, please leave a message.", nil); err != nil {
		return fmt.Errorf("send busy notice: %w", err)
	}
	e.record(ctx, "reject_reply", call)
	return nil
}

func (e *Engine) record(ctx context.Context, action string, call core.CallOffer) {
	if e.audit == nil {
		return
	}
	kind := "voice"
	if call.IsVideo {
		kind = "video"
	}
	e.audit.Record(ctx, core.AuditEntry{
		Module: "anticall",
		Action: action,
		Sender: call.From,
		Detail: kind,
		At:     time.Now(),
	})
}
