package antiflood

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/flybasist/eclipse/internal/core"
)

const (
	// DefaultWindow/DefaultLimit: больше двух личных сообщений в секунду —
	// отправитель блокируется на транспорте.
	DefaultWindow = time.Second
	DefaultLimit  = 2

	// historyRetention — сколько держим метки в памяти до sweep'а.
	historyRetention = 10 * time.Minute
)

// FlagFunc отдаёт персистентный флаг включения фильтра (по умолчанию выключен).
type FlagFunc func() (bool, error)

// Engine — счётчик скользящего окна для личных сообщений.
type Engine struct {
	enabled FlagFunc
	audit   core.AuditLog
	logger  *zap.Logger
	window  time.Duration
	limit   int

	mu      sync.Mutex
	history map[string][]time.Time
}

// New создаёт фильтр флуда с дефолтным окном 1s/2 сообщения.
func New(enabled FlagFunc, audit core.AuditLog, logger *zap.Logger) *Engine {
	return &Engine{
		enabled: enabled,
		audit:   audit,
		logger:  logger,
		window:  DefaultWindow,
		limit:   DefaultLimit,
		history: make(map[string][]time.Time),
	}
}

// Check добавляет метку времени отправителя, вытесняет устаревшие и,
// если порог превышен, блокирует отправителя. blocked=true останавливает
// дальнейшую обработку события.
func (e *Engine) Check(ctx context.Context, t core.Transport, ev *core.Event, now time.Time) (bool, error) {
	on, err := e.enabled()
	if err != nil {
		return false, fmt.Errorf("load antibug flag: %w", err)
	}
	if !on {
		return false, nil
	}

	sender := ev.SenderJID()

	e.mu.Lock()
	times := e.history[sender]
	kept := times[:0]
	for _, ts := range times {
		if now.Sub(ts) < e.window {
			kept = append(kept, ts)
		}
	}
	kept = append(kept, now)
	e.history[sender] = kept
	count := len(kept)
	e.mu.Unlock()

	if count <= e.limit {
		return false, nil
	}

	if err := t.BlockSender(ctx, sender); err != nil {
		return true, fmt.Errorf("block sender: %w", err)
	}
	e.logger.Info("flood sender blocked",
		zap.String("sender", sender),
		zap.Int("count", count),
		zap.Duration("window", e.window))
	if e.audit != nil {
		e.audit.Record(ctx, core.AuditEntry{
			Module: "antibug",
			Action: "block",
			Sender: sender,
			At:     now,
		})
	}
	return true, nil
}

// Sweep вытесняет давно молчащих отправителей. Возвращает число удалённых.
func (e *Engine) Sweep(now time.Time) int {
	e.mu.Lock()
	defer e.mu.Unlock()

	removed := 0
	for sender, times := range e.history {
		kept := times[:0]
		for _, ts := range times {
			if now.Sub(ts) < historyRetention {
				kept = append(kept, ts)
			}
		}
		if len(kept) == 0 {
			delete(e.history, sender)
			removed++
			continue
		}
		e.history[sender] = kept
	}
	return removed
}
