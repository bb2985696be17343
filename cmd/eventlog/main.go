package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/flybasist/eclipse/internal/logger"
)

// Русский комментарий: Отдельный бинарник-консьюмер. Читает журнал
// модерации из Kafka и складывает его в ежедневные файлы. Запускается
// рядом с ботом, когда нужен локальный архив событий.
func main() {
	brokersRaw := os.Getenv("KAFKA_BROKERS")
	if strings.TrimSpace(brokersRaw) == "" {
		fmt.Fprintln(os.Stderr, "KAFKA_BROKERS is required")
		os.Exit(1)
	}
	brokers := strings.FieldsFunc(brokersRaw, func(r rune) bool { return r == ',' || r == ' ' })

	topic := os.Getenv("AUDIT_TOPIC")
	if topic == "" {
		topic = "eclipse-events"
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	logger.RunAuditConsumer(ctx, brokers, topic)
}
