package antiflood

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/flybasist/eclipse/internal/core"
)

type fakeTransport struct {
	blocked []string
}

func (f *fakeTransport) SendMessage(ctx context.Context, conversationID, text string, opts *core.SendOptions) error {
	return nil
}
func (f *fakeTransport) DeleteMessage(ctx context.Context, conversationID string, key core.MessageKey) error {
	return nil
}
func (f *fakeTransport) RemoveParticipant(ctx context.Context, conversationID string, participantJIDs []string) error {
	return nil
}
func (f *fakeTransport) BlockSender(ctx context.Context, senderJID string) error {
	f.blocked = append(f.blocked, senderJID)
	return nil
}
func (f *fakeTransport) RejectCall(ctx context.Context, callID, callerJID string) error {
	return nil
}
func (f *fakeTransport) GroupMetadata(ctx context.Context, conversationID string) (*core.GroupMetadata, error) {
	return nil, nil
}
func (f *fakeTransport) SelfJID() string { return "bot@s.whatsapp.net" }

func enabled() (bool, error)  { return true, nil }
func disabled() (bool, error) { return false, nil }

func dmEvent() *core.Event {
	return &core.Event{
		Key:  core.MessageKey{RemoteJID: "111@s.whatsapp.net", ID: "m1"},
		Kind: core.KindText,
	}
}

// Три сообщения за 900ms при окне 1s/лимите 2 — блокировка на третьем.
func TestCheckBlocksBurst(t *testing.T) {
	tr := &fakeTransport{}
	e := New(enabled, nil, zap.NewNop())
	ctx := context.Background()
	base := time.Now()

	for i, offset := range []time.Duration{0, 450 * time.Millisecond} {
		blocked, err := e.Check(ctx, tr, dmEvent(), base.Add(offset))
		if err != nil || blocked {
			t.Fatalf("message %d: blocked=%v err=%v", i+1, blocked, err)
		}
	}
	blocked, err := e.Check(ctx, tr, dmEvent(), base.Add(900*time.Millisecond))
	if err != nil {
		t.Fatal(err)
	}
	if !blocked {
		t.Fatal("third message inside the window should block")
	}
	if len(tr.blocked) != 1 || tr.blocked[0] != "111@s.whatsapp.net" {
		t.Errorf("blocked = %v", tr.blocked)
	}
}

// Сообщения раз в 1100ms никогда не превышают лимит.
func TestCheckSpacedMessagesPass(t *testing.T) {
	tr := &fakeTransport{}
	e := New(enabled, nil, zap.NewNop())
	ctx := context.Background()
	base := time.Now()

	for i := 0; i < 5; i++ {
		blocked, err := e.Check(ctx, tr, dmEvent(), base.Add(time.Duration(i)*1100*time.Millisecond))
		if err != nil || blocked {
			t.Fatalf("message %d: blocked=%v err=%v", i+1, blocked, err)
		}
	}
	if len(tr.blocked) != 0 {
		t.Errorf("blocked = %v", tr.blocked)
	}
}

func TestCheckDisabledFlag(t *testing.T) {
	tr := &fakeTransport{}
	e := New(disabled, nil, zap.NewNop())
	base := time.Now()

	for i := 0; i < 10; i++ {
		blocked, _ := e.Check(context.Background(), tr, dmEvent(), base)
		if blocked {
			t.Fatal("disabled filter must never block")
		}
	}
}

func TestSweepDropsIdleSenders(t *testing.T) {
	e := New(enabled, nil, zap.NewNop())
	tr := &fakeTransport{}
	base := time.Now()
	e.Check(context.Background(), tr, dmEvent(), base)

	if removed := e.Sweep(base.Add(11 * time.Minute)); removed != 1 {
		t.Errorf("Sweep removed %d, want 1", removed)
	}
}
