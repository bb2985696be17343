package maintenance

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Module обслуживает фоновую уборку состояния.
// Русский комментарий: Каждые три минуты чистит истёкшие записи
// in-memory хранилищ (кулдауны, сессии, счётчики предупреждений),
// раз в сутки удаляет архив сообщений старше срока хранения.

// Sweeper — любое хранилище, умеющее выкинуть истёкшие записи.
type Sweeper interface {
	Sweep(now time.Time) int
}

// ArchiveCleaner реализуется репозиторием архива сообщений.
type ArchiveCleaner interface {
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

type namedSweeper struct {
	name    string
	sweeper Sweeper
}

type Module struct {
	logger        *zap.Logger
	cron          *cron.Cron
	sweepers      []namedSweeper
	archive       ArchiveCleaner
	retentionDays int
}

func New(logger *zap.Logger, archive ArchiveCleaner, retentionDays int) *Module {
	return &Module{
		logger:        logger,
		cron:          cron.New(),
		archive:       archive,
		retentionDays: retentionDays,
	}
}

// AddSweeper регистрирует хранилище до вызова Start.
func (m *Module) AddSweeper(name string, s Sweeper) {
	m.sweepers = append(m.sweepers, namedSweeper{name: name, sweeper: s})
}

// Start запускает фоновые задачи обслуживания.
func (m *Module) Start() error {
	_, err := m.cron.AddFunc("@every 3m", m.sweepAll)
	if err != nil {
		return fmt.Errorf("failed to schedule memory sweep: %w", err)
	}

	if m.archive != nil && m.retentionDays > 0 {
		_, err = m.cron.AddFunc("0 4 * * *", m.cleanupArchive)
		if err != nil {
			return fmt.Errorf("failed to schedule archive cleanup: %w", err)
		}
	}

	m.cron.Start()
	m.logger.Info("maintenance scheduler started",
		zap.Int("sweepers", len(m.sweepers)),
		zap.Int("retention_days", m.retentionDays))
	return nil
}

// Shutdown дожидается завершения запущенных задач.
func (m *Module) Shutdown() error {
	m.logger.Info("shutting down maintenance module")
	ctx := m.cron.Stop()
	<-ctx.Done()
	m.logger.Info("maintenance scheduler stopped")
	return nil
}

func (m *Module) sweepAll() {
	now := time.Now()
	for _, entry := range m.sweepers {
		removed := entry.sweeper.Sweep(now)
		if removed > 0 {
			m.logger.Debug("memory sweep completed",
				zap.String("store", entry.name),
				zap.Int("removed", removed))
		}
	}
}

func (m *Module) cleanupArchive() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	cutoff := time.Now().AddDate(0, 0, -m.retentionDays)
	removed, err := m.archive.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		m.logger.Error("archive cleanup failed", zap.Error(err))
		return
	}
	m.logger.Info("archive cleanup completed",
		zap.Int64("removed", removed),
		zap.Time("cutoff", cutoff))
}
