package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/flybasist/eclipse/internal/commands"
	"github.com/flybasist/eclipse/internal/config"
	"github.com/flybasist/eclipse/internal/core"
	"github.com/flybasist/eclipse/internal/dispatcher"
	"github.com/flybasist/eclipse/internal/kafkabot"
	"github.com/flybasist/eclipse/internal/logx"
	"github.com/flybasist/eclipse/internal/maintenance"
	"github.com/flybasist/eclipse/internal/mbrabbit"
	"github.com/flybasist/eclipse/internal/modules/anticall"
	"github.com/flybasist/eclipse/internal/modules/antidelete"
	"github.com/flybasist/eclipse/internal/modules/antiflood"
	"github.com/flybasist/eclipse/internal/modules/antilink"
	"github.com/flybasist/eclipse/internal/modules/antitag"
	"github.com/flybasist/eclipse/internal/modules/chatbot"
	"github.com/flybasist/eclipse/internal/modules/welcome"
	"github.com/flybasist/eclipse/internal/plugins"
	"github.com/flybasist/eclipse/internal/postgresql"
	"github.com/flybasist/eclipse/internal/postgresql/repositories"
	"github.com/flybasist/eclipse/internal/settings"
	"github.com/flybasist/eclipse/internal/state"
	"github.com/flybasist/eclipse/internal/transport/console"
)

func main() {
	// Русский комментарий: Главная точка входа бота.
	// 1. Загружаем конфиг из окружения и идентичность из settings.yaml
	// 2. Инициализируем логгер
	// 3. Подключаемся к PostgreSQL, создаём схему
	// 4. Собираем репозитории и журнал событий (Postgres + Kafka)
	// 5. Собираем движки модерации и реестры команд
	// 6. Запускаем диспетчер, транспорт и планировщик обслуживания
	// 7. Ждём SIGINT/SIGTERM или команду остановки для graceful shutdown

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	identity, err := settings.LoadIdentity()
	if err != nil {
		return fmt.Errorf("failed to load identity: %w", err)
	}

	logger, err := logx.NewLogger(cfg.LogLevel, cfg.LogPretty, logx.DefaultRotation())
	if err != nil {
		return fmt.Errorf("failed to init logger: %w", err)
	}
	defer logger.Sync()

	logger.Info("starting eclipse bot",
		zap.String("bot_name", identity.Bot.Name),
		zap.String("log_level", cfg.LogLevel),
		zap.Duration("shutdown_timeout", cfg.ShutdownTimeout),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Подключаемся к PostgreSQL и готовим схему.
	db, err := postgresql.ConnectToBase(ctx, cfg.PostgresDSN)
	if err != nil {
		return fmt.Errorf("failed to connect to postgres: %w", err)
	}
	defer db.Close()

	if err := postgresql.PingWithRetry(db, 10, 2*time.Second, logger); err != nil {
		return fmt.Errorf("failed to ping postgres: %w", err)
	}
	if err := postgresql.CreateTables(ctx, db); err != nil {
		return fmt.Errorf("failed to prepare schema: %w", err)
	}
	logger.Info("database schema ready")

	// Репозитории.
	settingsRepo := repositories.NewSettingsRepository(db)
	linkRepo := repositories.NewLinkRulesRepository(db)
	messageRepo := repositories.NewMessageRepository(db)
	eventRepo := repositories.NewEventRepository(db)
	welcomeRepo := repositories.NewWelcomeRepository(db)

	// Журнал модерации: всегда в Postgres, при наличии брокеров ещё и в Kafka.
	var auditSinks []core.AuditLog
	auditSinks = append(auditSinks, eventRepo)
	var auditWriter *kafkabot.AuditWriter
	if len(cfg.KafkaBrokers) > 0 {
		auditWriter = kafkabot.NewAuditWriter(cfg.KafkaBrokers, cfg.AuditTopic)
		auditSinks = append(auditSinks, auditWriter)
		defer auditWriter.Close()
		logger.Info("kafka audit writer enabled",
			zap.Strings("brokers", cfg.KafkaBrokers), zap.String("topic", cfg.AuditTopic))
	}
	audit := fanoutAudit(auditSinks)

	// Побочный канал для восстановленных сообщений.
	var revokedPublisher antidelete.Publisher
	if cfg.RabbitURL != "" {
		revokedPublisher = mbrabbit.NewPublisher(cfg.RabbitURL)
		logger.Info("rabbitmq publisher enabled")
	}

	// Движки модерации.
	tagEngine := antitag.New(antitag.DefaultThreshold, audit, logger)
	linkEngine := antilink.New(linkRepo.Rule, audit, logger)
	floodEngine := antiflood.New(settingsRepo.AntibugEnabled, audit, logger)
	callEngine := anticall.New(settingsRepo.AnticallState, audit, logger)
	archive := antidelete.New(messageRepo, revokedPublisher, logger)
	greeter := welcome.New(welcomeRepo.Config, logger)
	talker := chatbot.New(logger)

	// Стейт: режим восстанавливается из базы, остальное стартует пустым.
	savedMode, err := settingsRepo.BotMode()
	if err != nil {
		logger.Warn("failed to load saved mode, falling back to public", zap.Error(err))
	}
	modeStore := state.NewModeStore(state.ParseMode(savedMode))
	cooldowns := state.NewCooldownTracker(cfg.CooldownWindow)
	sessions := state.NewSessionStore(5 * time.Minute)

	// Канал остановки: сигнал ОС либо команда владельца.
	stopCh := make(chan string, 1)
	stop := func(reason string) {
		select {
		case stopCh <- reason:
		default:
		}
	}

	// Реестры команд.
	pluginDeps := plugins.Deps{
		Logger:    logger,
		Settings:  settingsRepo,
		LinkRules: linkRepo,
		Welcome:   welcomeRepo,
		Identity:  identity,
		Stop:      stop,
	}
	publicRegistry := commands.NewRegistry(logger)
	publicRegistry.Load(plugins.Public(pluginDeps)...)
	selfRegistry := commands.NewRegistry(logger)
	selfRegistry.Load(plugins.Self(pluginDeps)...)

	// Диспетчер.
	disp := dispatcher.New(dispatcher.Params{
		Public:      publicRegistry,
		Self:        selfRegistry,
		Mode:        modeStore,
		Cooldowns:   cooldowns,
		Sessions:    sessions,
		Settings:    settingsRepo,
		Links:       linkEngine,
		Tags:        tagEngine,
		Flood:       floodEngine,
		Calls:       callEngine,
		Archive:     archive,
		Chatbot:     talker,
		Greeter:     greeter,
		Audit:       audit,
		Logger:      logger,
		Prefix:      cfg.Prefix,
		OwnerNumber: cfg.OwnerNumber,
		QueueSize:   cfg.QueueSize,
	})
	go disp.Run(ctx)

	// Транспорт. Консольный транспорт читает команды владельца со stdin;
	// боевой клиент подключается через disp.Attach тем же интерфейсом.
	ownerJID := cfg.OwnerNumber + "@s.whatsapp.net"
	tr := console.New(logger, ownerJID)
	disp.Attach(tr)
	go tr.RunInput(ctx, ownerJID, disp.PublishMessage)

	// Планировщик обслуживания.
	mnt := maintenance.New(logger, messageRepo, cfg.RetentionDays)
	mnt.AddSweeper("cooldowns", cooldowns)
	mnt.AddSweeper("sessions", sessions)
	mnt.AddSweeper("flood_history", floodEngine)
	mnt.AddSweeper("link_warnings", linkEngine)
	if err := mnt.Start(); err != nil {
		return fmt.Errorf("failed to start maintenance: %w", err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	logger.Info("bot started, waiting for events")
	select {
	case sig := <-sigChan:
		logger.Info("received shutdown signal", zap.String("signal", sig.String()))
	case reason := <-stopCh:
		logger.Info("shutdown requested by command", zap.String("reason", reason))
	}

	// Graceful shutdown.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	disp.Close()
	cancel()

	if err := mnt.Shutdown(); err != nil {
		logger.Error("failed to shutdown maintenance", zap.Error(err))
	}

	select {
	case <-shutdownCtx.Done():
		logger.Warn("shutdown timeout exceeded")
		return errors.New("shutdown timeout exceeded")
	default:
		logger.Info("bot shutdown complete")
		return nil
	}
}

// fanoutAudit отправляет запись во все приёмники, собирая ошибки.
func fanoutAudit(sinks []core.AuditLog) core.AuditLog {
	if len(sinks) == 1 {
		return sinks[0]
	}
	return auditFan(sinks)
}

type auditFan []core.AuditLog

func (f auditFan) Record(ctx context.Context, entry core.AuditEntry) error {
	var errs []error
	for _, sink := range f {
		if err := sink.Record(ctx, entry); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
