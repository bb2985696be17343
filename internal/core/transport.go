package core

import "context"

// SendOptions — опции отправки сообщения.
type SendOptions struct {
	Quoted   *MessageKey // reply to this message
	Mentions []string    // participant JIDs to mention
}

// GroupParticipant — участник группового разговора.
type GroupParticipant struct {
	JID     string
	IsAdmin bool
}

// GroupMetadata — метаданные группового разговора.
type GroupMetadata struct {
	JID          string
	Subject      string
	Participants []GroupParticipant
}

// CallOffer — входящий звонок, о котором сообщил транспорт.
type CallOffer struct {
	ID      string
	From    string // caller JID
	IsVideo bool
}

// ParticipantAction — вид изменения состава группы.
type ParticipantAction string

const (
	ParticipantAdd    ParticipantAction = "add"
	ParticipantRemove ParticipantAction = "remove"
)

// ParticipantUpdate — изменение состава участников группы.
type ParticipantUpdate struct {
	ConversationID string
	Participants   []string
	Action         ParticipantAction
}

// Transport — граница с внешним транспортным клиентом.
// Русский комментарий: Подключение, reconnect и wire-протокол — забота
// реализации. Диспетчер умеет переподключаться к новому инстансу транспорта
// без потери своего состояния модерации и сессий.
type Transport interface {
	SendMessage(ctx context.Context, conversationID, text string, opts *SendOptions) error
	DeleteMessage(ctx context.Context, conversationID string, key MessageKey) error
	RemoveParticipant(ctx context.Context, conversationID string, participantJIDs []string) error
	BlockSender(ctx context.Context, senderJID string) error
	RejectCall(ctx context.Context, callID, callerJID string) error
	GroupMetadata(ctx context.Context, conversationID string) (*GroupMetadata, error)
	SelfJID() string
}
