// Package console — транспорт для локальной отладки без настоящего
// мессенджера. Исходящие действия печатаются в лог, входящие сообщения
// читаются построчно со stdin от имени владельца.
package console

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/flybasist/eclipse/internal/core"
)

type Transport struct {
	logger  *zap.Logger
	selfJID string
}

func New(logger *zap.Logger, selfJID string) *Transport {
	return &Transport{logger: logger, selfJID: selfJID}
}

func (t *Transport) SendMessage(ctx context.Context, conversationID, text string, opts *core.SendOptions) error {
	fmt.Printf(">> [%s] %s\n", conversationID, text)
	return nil
}

func (t *Transport) DeleteMessage(ctx context.Context, conversationID string, key core.MessageKey) error {
	t.logger.Info("console: delete message",
		zap.String("conversation", conversationID), zap.String("message_id", key.ID))
	return nil
}

func (t *Transport) RemoveParticipant(ctx context.Context, conversationID string, participantJIDs []string) error {
	t.logger.Info("console: remove participants",
		zap.String("conversation", conversationID), zap.Strings("participants", participantJIDs))
	return nil
}

func (t *Transport) BlockSender(ctx context.Context, senderJID string) error {
	t.logger.Info("console: block sender", zap.String("sender", senderJID))
	return nil
}

func (t *Transport) RejectCall(ctx context.Context, callID, callerJID string) error {
	t.logger.Info("console: reject call",
		zap.String("call_id", callID), zap.String("caller", callerJID))
	return nil
}

func (t *Transport) GroupMetadata(ctx context.Context, conversationID string) (*core.GroupMetadata, error) {
	return &core.GroupMetadata{JID: conversationID, Subject: "console"}, nil
}

func (t *Transport) SelfJID() string {
	return t.selfJID
}

// RunInput читает строки со stdin и отдаёт их как входящие сообщения
// от владельца. Блокируется до EOF или отмены контекста.
func (t *Transport) RunInput(ctx context.Context, ownerJID string, publish func(context.Context, *core.Event) bool) {
	scanner := bufio.NewScanner(os.Stdin)
	seq := 0
	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		seq++
		ev := &core.Event{
			Key: core.MessageKey{
				RemoteJID: ownerJID,
				ID:        fmt.Sprintf("console-%d", seq),
			},
			Kind:      core.KindText,
			Text:      line,
			PushName:  "console",
			Timestamp: time.Now(),
		}
		if !publish(ctx, ev) {
			t.logger.Warn("console: event dropped, queue full or closed")
		}
	}
}
