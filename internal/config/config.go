package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config — централизованная структура настроек сервиса.
// Русский комментарий: Все переменные окружения собираются один раз при
// старте. Дальше код работает только с этой структурой — это упрощает
// тестирование. Логирование всегда на английском.

type Config struct {
	OwnerNumber     string        // Номер владельца (только цифры)
	Prefix          string        // Командный префикс
	PostgresDSN     string        // Строка подключения к PostgreSQL
	KafkaBrokers    []string      // Адреса Kafka брокеров (опционально)
	RabbitURL       string        // RabbitMQ URL (опционально)
	AuditTopic      string        // Топик журнала событий
	LogLevel        string        // Уровень логирования
	LogPretty       bool          // Человекочитаемый вывод
	ShutdownTimeout time.Duration // Таймаут graceful shutdown
	CooldownWindow  time.Duration // Окно между командами одного отправителя
	RetentionDays   int           // Сколько дней хранить архив сообщений
	QueueSize       int           // Ёмкость очереди входящих событий
}

// Load загружает и валидирует конфигурацию из окружения.
func Load() (*Config, error) {
	cfg := &Config{}

	cfg.OwnerNumber = digitsOnly(os.Getenv("OWNER_NUMBER"))
	cfg.PostgresDSN = strings.TrimSpace(os.Getenv("POSTGRES_DSN"))
	cfg.Prefix = firstNonEmpty(os.Getenv("BOT_PREFIX"), ".")
	cfg.RabbitURL = strings.TrimSpace(os.Getenv("RABBIT_URL"))
	cfg.AuditTopic = firstNonEmpty(os.Getenv("AUDIT_TOPIC"), "eclipse-events")
	cfg.LogLevel = firstNonEmpty(os.Getenv("LOG_LEVEL"), "info")
	cfg.LogPretty = strings.ToLower(os.Getenv("LOGGER_PRETTY")) == "true"

	brokersRaw := strings.TrimSpace(os.Getenv("KAFKA_BROKERS"))
	if brokersRaw != "" {
		// Разрешаем перечисление через запятую или пробелы.
		cfg.KafkaBrokers = strings.FieldsFunc(brokersRaw, func(r rune) bool { return r == ',' || r == ' ' })
	}

	var err error
	if cfg.ShutdownTimeout, err = durationEnv("SHUTDOWN_TIMEOUT", 15*time.Second); err != nil {
		return nil, err
	}
	if cfg.CooldownWindow, err = durationEnv("COOLDOWN_WINDOW", 5*time.Second); err != nil {
		return nil, err
	}
	cfg.RetentionDays = intEnv("ARCHIVE_RETENTION_DAYS", 30)
	cfg.QueueSize = intEnv("EVENT_QUEUE_SIZE", 100)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	var missing []string
	if c.OwnerNumber == "" {
		missing = append(missing, "OWNER_NUMBER")
	}
	if c.PostgresDSN == "" {
		missing = append(missing, "POSTGRES_DSN")
	}
	if len(missing) > 0 {
		return errors.New("missing required env vars: " + strings.Join(missing, ", "))
	}
	return nil
}

func durationEnv(name string, def time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return def, nil
	}
	dur, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", name, err)
	}
	return dur, nil
}

func intEnv(name string, def int) int {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return def
	}
	return v
}

// Helper: возвращает первое непустое значение.
func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// digitsOnly оставляет в номере владельца только цифры,
// чтобы сравнение с нормализованным отправителем было устойчивым.
func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
