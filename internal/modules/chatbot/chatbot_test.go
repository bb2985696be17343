package chatbot

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/flybasist/eclipse/internal/core"
)

type fakeTransport struct {
	sent []string
}

func (f *fakeTransport) SendMessage(ctx context.Context, conversationID, text string, opts *core.SendOptions) error {
	f.sent = append(f.sent, text)
	return nil
}
func (f *fakeTransport) DeleteMessage(ctx context.Context, conversationID string, key core.MessageKey) error {
	return nil
}
func (f *fakeTransport) RemoveParticipant(ctx context.Context, conversationID string, participantJIDs []string) error {
	return nil
}
func (f *fakeTransport) BlockSender(ctx context.Context, senderJID string) error { return nil }
func (f *fakeTransport) RejectCall(ctx context.Context, callID, callerJID string) error {
	return nil
}
func (f *fakeTransport) GroupMetadata(ctx context.Context, conversationID string) (*core.GroupMetadata, error) {
	return nil, nil
}
func (f *fakeTransport) SelfJID() string { return "bot@s.whatsapp.net" }

func TestHandleText(t *testing.T) {
	tests := []struct {
		name    string
		conv    string
		body    string
		replies int
	}{
		{"greeting in DM", "111@s.whatsapp.net", "Hello bot", 1},
		{"russian greeting", "111@s.whatsapp.net", "привет", 1},
		{"unknown text stays silent", "111@s.whatsapp.net", "quantum flux", 0},
		{"groups stay silent", "g@g.us", "hello", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := &fakeTransport{}
			m := New(zap.NewNop())
			ev := &core.Event{Key: core.MessageKey{RemoteJID: tt.conv}, Kind: core.KindText, Text: tt.body}
			if err := m.HandleText(context.Background(), tr, ev, tt.body); err != nil {
				t.Fatal(err)
			}
			if len(tr.sent) != tt.replies {
				t.Errorf("sent = %v, want %d replies", tr.sent, tt.replies)
			}
		})
	}
}
