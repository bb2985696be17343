package kafkabot

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/flybasist/eclipse/internal/core"
)

// Русский комментарий: Фабрики Kafka writer/reader с одинаковыми
// настройками для всего сервиса, плюс реализация журнала событий
// поверх writer. Балансировка по hash ключа держит события одной
// беседы в одной партиции.

// NewWriter создаёт продьюсер для указанного топика.
func NewWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 50 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
	}
}

// NewReader создаёт консьюмер с групповым смещением.
func NewReader(brokers []string, topic, groupID string) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 1,
		MaxBytes: 10e6,
	})
}

// AuditWriter пишет записи журнала в Kafka. Реализует core.AuditLog.
type AuditWriter struct {
	writer *kafka.Writer
}

func NewAuditWriter(brokers []string, topic string) *AuditWriter {
	return &AuditWriter{writer: NewWriter(brokers, topic)}
}

func (w *AuditWriter) Record(ctx context.Context, entry core.AuditEntry) error {
	if entry.At.IsZero() {
		entry.At = time.Now()
	}
	raw, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal audit entry: %w", err)
	}
	err = w.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(entry.Conversation),
		Value: raw,
	})
	if err != nil {
		return fmt.Errorf("write audit entry: %w", err)
	}
	return nil
}

func (w *AuditWriter) Close() error {
	return w.writer.Close()
}
