package commands

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/flybasist/eclipse/internal/core"
)

func noop(ctx context.Context, ev *core.Event, opts Options) error { return nil }

func TestRegisterAndResolve(t *testing.T) {
	r := NewRegistry(zap.NewNop())

	if !r.Register(Definition{Name: "Ping", Aliases: []string{"P", ""}, Execute: noop}) {
		t.Fatal("valid definition rejected")
	}

	// Имя и алиасы резолвятся без учёта регистра.
	for _, name := range []string{"ping", "PING", "p"} {
		if _, ok := r.Resolve(name); !ok {
			t.Errorf("Resolve(%q) failed", name)
		}
	}
	if _, ok := r.Resolve("pong"); ok {
		t.Error("unknown command resolved")
	}
}

func TestRegisterMalformed(t *testing.T) {
	r := NewRegistry(zap.NewNop())

	if r.Register(Definition{Name: "", Execute: noop}) {
		t.Error("nameless definition accepted")
	}
	if r.Register(Definition{Name: "broken"}) {
		t.Error("handlerless definition accepted")
	}
	if len(r.Names()) != 0 {
		t.Errorf("registry not empty: %v", r.Names())
	}
}

func TestRegisterLastWins(t *testing.T) {
	r := NewRegistry(zap.NewNop())

	first := false
	second := false
	r.Register(Definition{Name: "menu", Execute: func(ctx context.Context, ev *core.Event, opts Options) error {
		first = true
		return nil
	}})
	r.Register(Definition{Name: "menu", Execute: func(ctx context.Context, ev *core.Event, opts Options) error {
		second = true
		return nil
	}})

	def, ok := r.Resolve("menu")
	if !ok {
		t.Fatal("menu not resolved")
	}
	def.Execute(context.Background(), &core.Event{}, Options{})
	if first || !second {
		t.Error("collision should be won by the last registration")
	}
}

func TestLoadCountsSkipped(t *testing.T) {
	r := NewRegistry(zap.NewNop())
	loaded := r.Load(
		Definition{Name: "a", Execute: noop},
		Definition{Name: "", Execute: noop},
		Definition{Name: "b", Execute: noop},
	)
	if loaded != 2 {
		t.Errorf("Load() = %d, want 2", loaded)
	}
}

func TestLegacyAdapt(t *testing.T) {
	var gotDest string
	var gotArgs []string
	legacy := LegacyDefinition{
		NomCom:    "Owner",
		Categorie: "general",
		Aliases:   []string{"contact"},
		Execute: func(ctx context.Context, dest string, tr core.Transport, ev *core.Event, args []string) error {
			gotDest = dest
			gotArgs = args
			return nil
		},
	}

	def := legacy.Adapt()
	if def.Name != "Owner" || def.Category != "general" {
		t.Errorf("adapted definition = %+v", def)
	}

	ev := &core.Event{Key: core.MessageKey{RemoteJID: "123@s.whatsapp.net"}}
	err := def.Execute(context.Background(), ev, Options{Args: []string{"x"}})
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if gotDest != "123@s.whatsapp.net" {
		t.Errorf("dest = %q", gotDest)
	}
	if len(gotArgs) != 1 || gotArgs[0] != "x" {
		t.Errorf("args = %v", gotArgs)
	}

	r := NewRegistry(zap.NewNop())
	r.Register(def)
	if _, ok := r.Resolve("contact"); !ok {
		t.Error("legacy alias not registered")
	}
}
