package welcome

import (
	"context"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/flybasist/eclipse/internal/core"
)

type fakeTransport struct {
	sent     []string
	mentions [][]string
}

func (f *fakeTransport) SendMessage(ctx context.Context, conversationID, text string, opts *core.SendOptions) error {
	f.sent = append(f.sent, text)
	if opts != nil {
		f.mentions = append(f.mentions, opts.Mentions)
	}
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
	return &core.GroupMetadata{JID: conversationID, Subject: "Club"}, nil
}
func (f *fakeTransport) SelfJID() string { return "bot@s.whatsapp.net" }

func static(cfg Config) ConfigFunc {
	return func(conversationID string) (Config, error) { return cfg, nil }
}

func TestWelcomeDefaultText(t *testing.T) {
	tr := &fakeTransport{}
	m := New(static(Config{Welcome: true}), zap.NewNop())

	up := core.ParticipantUpdate{
		ConversationID: "g@g.us",
		Participants:   []string{"111@s.whatsapp.net"},
		Action:         core.ParticipantAdd,
	}
	if err := m.HandleParticipants(context.Background(), tr, up); err != nil {
		t.Fatal(err)
	}
	if len(tr.sent) != 1 {
		t.Fatalf("sent = %v", tr.sent)
	}
	if !strings.Contains(tr.sent[0], "@111") || !strings.Contains(tr.sent[0], "Club") {
		t.Errorf("greeting = %q", tr.sent[0])
	}
	if len(tr.mentions[0]) != 1 || tr.mentions[0][0] != "111@s.whatsapp.net" {
		t.Errorf("mentions = %v", tr.mentions)
	}
}

func TestCustomGoodbyeText(t *testing.T) {
	tr := &fakeTransport{}
	m := New(static(Config{Goodbye: true, GoodbyeText: "So long, @user."}), zap.NewNop())

	up := core.ParticipantUpdate{
		ConversationID: "g@g.us",
		Participants:   []string{"222@s.whatsapp.net"},
		Action:         core.ParticipantRemove,
	}
	if err := m.HandleParticipants(context.Background(), tr, up); err != nil {
		t.Fatal(err)
	}
	if len(tr.sent) != 1 || tr.sent[0] != "So long, @222." {
		t.Errorf("sent = %v", tr.sent)
	}
}

func TestDisabledDirections(t *testing.T) {
	tr := &fakeTransport{}
	m := New(static(Config{Welcome: false, Goodbye: false}), zap.NewNop())

	for _, action := range []core.ParticipantAction{core.ParticipantAdd, core.ParticipantRemove} {
		up := core.ParticipantUpdate{
			ConversationID: "g@g.us",
			Participants:   []string{"111@s.whatsapp.net"},
			Action:         action,
		}
		if err := m.HandleParticipants(context.Background(), tr, up); err != nil {
			t.Fatal(err)
		}
	}
	if len(tr.sent) != 0 {
		t.Errorf("sent = %v, want silence", tr.sent)
	}
}

func TestEveryParticipantGreeted(t *testing.T) {
	tr := &fakeTransport{}
	m := New(static(Config{Welcome: true, WelcomeText: "hi @user"}), zap.NewNop())

	up := core.ParticipantUpdate{
		ConversationID: "g@g.us",
		Participants:   []string{"1@s.whatsapp.net", "2@s.whatsapp.net", "3@s.whatsapp.net"},
		Action:         core.ParticipantAdd,
	}
	if err := m.HandleParticipants(context.Background(), tr, up); err != nil {
		t.Fatal(err)
	}
	if len(tr.sent) != 3 {
		t.Errorf("sent %d greetings, want 3", len(tr.sent))
	}
}
