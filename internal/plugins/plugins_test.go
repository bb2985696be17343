package plugins

import (
	"context"
	"strings"
	"testing"
	"time"
	"unicode"

	"go.uber.org/zap"

	"github.com/flybasist/eclipse/internal/commands"
	"github.com/flybasist/eclipse/internal/core"
	"github.com/flybasist/eclipse/internal/modules/antilink"
	"github.com/flybasist/eclipse/internal/modules/welcome"
	"github.com/flybasist/eclipse/internal/settings"
	"github.com/flybasist/eclipse/internal/state"
)

type fakeTransport struct {
	sent   []string
	admins []string
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
	meta := &core.GroupMetadata{JID: conversationID, Subject: "test"}
	for _, jid := range f.admins {
		meta.Participants = append(meta.Participants, core.GroupParticipant{JID: jid, IsAdmin: true})
	}
	return meta, nil
}
func (f *fakeTransport) SelfJID() string { return "bot@s.whatsapp.net" }

type fakeSettingsStore struct {
	antiSpam *bool
	antibug  *bool
	voice    *bool
	video    *bool
	mode     string
}

func (s *fakeSettingsStore) SetAntiSpam(v bool) error      { s.antiSpam = &v; return nil }
func (s *fakeSettingsStore) SetAntibug(v bool) error       { s.antibug = &v; return nil }
func (s *fakeSettingsStore) SetAnticallVoice(v bool) error { s.voice = &v; return nil }
func (s *fakeSettingsStore) SetAnticallVideo(v bool) error { s.video = &v; return nil }
func (s *fakeSettingsStore) SetAnticallMode(m string) error {
	s.mode = m
	return nil
}

type fakeLinkRuleStore struct {
	rules map[string]antilink.Rule
}

func (s *fakeLinkRuleStore) Rule(conversationID, kind string) (antilink.Rule, error) {
	return s.rules[conversationID+"/"+kind], nil
}
func (s *fakeLinkRuleStore) SetRule(conversationID, kind string, rule antilink.Rule) error {
	if s.rules == nil {
		s.rules = make(map[string]antilink.Rule)
	}
	s.rules[conversationID+"/"+kind] = rule
	return nil
}

type fakeWelcomeStore struct {
	configs map[string]welcome.Config
}

func (s *fakeWelcomeStore) Config(conversationID string) (welcome.Config, error) {
	return s.configs[conversationID], nil
}
func (s *fakeWelcomeStore) SetConfig(conversationID string, cfg welcome.Config) error {
	if s.configs == nil {
		s.configs = make(map[string]welcome.Config)
	}
	s.configs[conversationID] = cfg
	return nil
}

func testDeps() (Deps, *fakeSettingsStore, *fakeLinkRuleStore, *fakeWelcomeStore, *[]string) {
	st := &fakeSettingsStore{}
	lr := &fakeLinkRuleStore{}
	wl := &fakeWelcomeStore{}
	id := &settings.Identity{}
	id.Bot.Name = "Eclipse"
	id.Bot.Owner = "owner"
	stops := &[]string{}
	d := Deps{
		Logger:    zap.NewNop(),
		Settings:  st,
		LinkRules: lr,
		Welcome:   wl,
		Identity:  id,
		Stop:      func(reason string) { *stops = append(*stops, reason) },
	}
	return d, st, lr, wl, stops
}

func resolve(t *testing.T, defs []commands.Definition, name string) commands.Definition {
	t.Helper()
	r := commands.NewRegistry(zap.NewNop())
	r.Load(defs...)
	def, ok := r.Resolve(name)
	if !ok {
		t.Fatalf("command %q not registered", name)
	}
	return def
}

func dmEvent(conv string) *core.Event {
	return &core.Event{Key: core.MessageKey{RemoteJID: conv, ID: "m1"}, Kind: core.KindText}
}

func groupEvent(sender string) *core.Event {
	return &core.Event{
		Key:  core.MessageKey{RemoteJID: "g@g.us", ID: "m1", Participant: sender},
		Kind: core.KindText,
	}
}

func TestMenuIsEnglishOnly(t *testing.T) {
	d, _, _, _, _ := testDeps()
	def := resolve(t, Public(d), "menu")
	tr := &fakeTransport{}

	opts := commands.Options{Transport: tr, Prefix: ".", Mode: "public", IsOwner: true}
	if err := def.Execute(context.Background(), dmEvent("111@s.whatsapp.net"), opts); err != nil {
		t.Fatal(err)
	}
	if len(tr.sent) != 1 {
		t.Fatalf("sent = %v", tr.sent)
	}
	menu := tr.sent[0]
	if !strings.Contains(menu, ".menu — this list") {
		t.Errorf("menu self-description missing:\n%s", menu)
	}
	// Текст меню целиком на английском.
	for _, r := range menu {
		if unicode.Is(unicode.Cyrillic, r) {
			t.Fatalf("cyrillic %q in menu:\n%s", r, menu)
		}
	}
}

func TestVideoSessionFlow(t *testing.T) {
	d, _, _, _, _ := testDeps()
	def := resolve(t, Public(d), "video")
	tr := &fakeTransport{}
	sessions := state.NewSessionStore(5 * time.Minute)
	ctx := context.Background()
	ev := dmEvent("111@s.whatsapp.net")

	// Без аргумента: предлагается выбор и создаётся сессия.
	if err := def.Execute(ctx, ev, commands.Options{Transport: tr, Sessions: sessions}); err != nil {
		t.Fatal(err)
	}
	if !sessions.Has("111@s.whatsapp.net") {
		t.Fatal("session not created")
	}
	if len(tr.sent) != 1 || !strings.Contains(tr.sent[0], "720p") {
		t.Errorf("prompt = %v", tr.sent)
	}

	// Цифра-ответ: подтверждение и удаление сессии.
	opts := commands.Options{Transport: tr, Sessions: sessions, Args: []string{"1"}}
	if err := def.Execute(ctx, ev, opts); err != nil {
		t.Fatal(err)
	}
	if sessions.Has("111@s.whatsapp.net") {
		t.Error("session should be consumed")
	}
	if !strings.Contains(tr.sent[1], "720p") {
		t.Errorf("confirmation = %q", tr.sent[1])
	}
}

func TestVideoUnknownChoice(t *testing.T) {
	d, _, _, _, _ := testDeps()
	def := resolve(t, Public(d), "video")
	tr := &fakeTransport{}
	sessions := state.NewSessionStore(5 * time.Minute)

	opts := commands.Options{Transport: tr, Sessions: sessions, Args: []string{"7"}}
	if err := def.Execute(context.Background(), dmEvent("111@s.whatsapp.net"), opts); err != nil {
		t.Fatal(err)
	}
	if len(tr.sent) != 1 || !strings.Contains(tr.sent[0], "Unknown choice") {
		t.Errorf("sent = %v", tr.sent)
	}
}

func TestAntilinkRequiresGroup(t *testing.T) {
	d, _, _, _, _ := testDeps()
	def := resolve(t, Public(d), "antilink")
	tr := &fakeTransport{}

	opts := commands.Options{Transport: tr, Args: []string{"telegram", "warn"}}
	if err := def.Execute(context.Background(), dmEvent("111@s.whatsapp.net"), opts); err != nil {
		t.Fatal(err)
	}
	if len(tr.sent) != 1 || !strings.Contains(tr.sent[0], "only works in groups") {
		t.Errorf("sent = %v", tr.sent)
	}
}

func TestAntilinkAdminSetsRule(t *testing.T) {
	d, _, lr, _, _ := testDeps()
	def := resolve(t, Public(d), "antilink")
	tr := &fakeTransport{admins: []string{"111@s.whatsapp.net"}}

	opts := commands.Options{Transport: tr, Args: []string{"telegram", "warn", "5"}}
	if err := def.Execute(context.Background(), groupEvent("111@s.whatsapp.net"), opts); err != nil {
		t.Fatal(err)
	}
	rule := lr.rules["g@g.us/telegram"]
	if !rule.Enabled || rule.Action != antilink.ActionWarn || rule.WarnThreshold != 5 {
		t.Errorf("rule = %+v", rule)
	}
}

func TestAntilinkNonAdminDenied(t *testing.T) {
	d, _, lr, _, _ := testDeps()
	def := resolve(t, Public(d), "antilink")
	tr := &fakeTransport{admins: []string{"999@s.whatsapp.net"}}

	opts := commands.Options{Transport: tr, Args: []string{"telegram", "kick"}}
	if err := def.Execute(context.Background(), groupEvent("111@s.whatsapp.net"), opts); err != nil {
		t.Fatal(err)
	}
	if len(lr.rules) != 0 {
		t.Errorf("rules = %v, non-admin changed the filter", lr.rules)
	}
	if len(tr.sent) != 1 || !strings.Contains(tr.sent[0], "group admins") {
		t.Errorf("sent = %v", tr.sent)
	}
}

func TestWelcomeTogglePersists(t *testing.T) {
	d, _, _, wl, _ := testDeps()
	def := resolve(t, Public(d), "welcome")
	tr := &fakeTransport{}

	opts := commands.Options{Transport: tr, IsOwner: true, Args: []string{"on", "hi", "@user"}}
	if err := def.Execute(context.Background(), groupEvent("111@s.whatsapp.net"), opts); err != nil {
		t.Fatal(err)
	}
	cfg := wl.configs["g@g.us"]
	if !cfg.Welcome || cfg.WelcomeText != "hi @user" {
		t.Errorf("config = %+v", cfg)
	}
}

func TestAnticallModeSetting(t *testing.T) {
	d, st, _, _, _ := testDeps()
	def := resolve(t, Self(d), "anticall")
	tr := &fakeTransport{}

	opts := commands.Options{Transport: tr, IsOwner: true, Args: []string{"mode", "block"}}
	if err := def.Execute(context.Background(), dmEvent("4999@s.whatsapp.net"), opts); err != nil {
		t.Fatal(err)
	}
	if st.mode != "block" {
		t.Errorf("mode = %q", st.mode)
	}
}

func TestToggleCommands(t *testing.T) {
	d, st, _, _, _ := testDeps()
	defs := Self(d)
	tr := &fakeTransport{}
	ctx := context.Background()

	antispam := resolve(t, defs, "antispam")
	antispam.Execute(ctx, dmEvent("x@s.whatsapp.net"), commands.Options{Transport: tr, Args: []string{"off"}})
	if st.antiSpam == nil || *st.antiSpam {
		t.Error("antispam off not persisted")
	}

	antibug := resolve(t, defs, "antibug")
	antibug.Execute(ctx, dmEvent("x@s.whatsapp.net"), commands.Options{Transport: tr, Args: []string{"on"}})
	if st.antibug == nil || !*st.antibug {
		t.Error("antibug on not persisted")
	}
}

func TestShutdownFamilyCallsStop(t *testing.T) {
	d, _, _, _, stops := testDeps()
	defs := Self(d)
	tr := &fakeTransport{}
	ctx := context.Background()

	for _, name := range []string{"shutdown", "stop", "restart", "logout"} {
		def := resolve(t, defs, name)
		if err := def.Execute(ctx, dmEvent("x@s.whatsapp.net"), commands.Options{Transport: tr}); err != nil {
			t.Fatal(err)
		}
	}
	// stop — алиас shutdown, так что причин четыре: shutdown дважды.
	if len(*stops) != 4 {
		t.Errorf("stop calls = %v", *stops)
	}
}

func TestOwnerLegacyCommand(t *testing.T) {
	d, _, _, _, _ := testDeps()
	def := resolve(t, Public(d), "contact")
	tr := &fakeTransport{}

	if err := def.Execute(context.Background(), dmEvent("111@s.whatsapp.net"), commands.Options{Transport: tr}); err != nil {
		t.Fatal(err)
	}
	if len(tr.sent) != 1 || !strings.Contains(tr.sent[0], "owner") {
		t.Errorf("sent = %v", tr.sent)
	}
}
