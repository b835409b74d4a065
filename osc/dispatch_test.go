package osc

import (
	"strings"
	"testing"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/zokrezyl/yetty/card"
	"github.com/zokrezyl/yetty/cardmgr"
)

type fakeRenderer struct{ disposed bool }

func (fakeRenderer) DeclareBufferNeeds(*card.Card)    {}
func (fakeRenderer) AllocateBuffers(*card.Card) error { return nil }
func (fakeRenderer) AllocateTextures(*card.Card) error { return nil }
func (fakeRenderer) Render(*card.Card, float64) error { return nil }
func (r *fakeRenderer) Dispose(*card.Card) error      { r.disposed = true; return nil }

func newTestDispatcher(t *testing.T) (*Dispatcher, *cardmgr.Manager) {
	t.Helper()
	dev := &fakeDevice{}
	uniform, _ := dev.CreateBuffer(&hal.BufferDescriptor{Size: 256, Usage: gputypes.BufferUsageUniform})
	mgr, err := cardmgr.New(dev, uniform, 256, cardmgr.Config{InitialMetadataCapacity: 256, InitialStorageCapacity: 1024})
	if err != nil {
		t.Fatalf("cardmgr.New: %v", err)
	}
	t.Cleanup(func() { mgr.Close() })

	factory := NewFactoryRegistry()
	factory.Register("plot", func(x, y int32, w, h uint32, args string, payload []byte) (*card.Card, error) {
		return &card.Card{Kind: card.KindPlot, X: x, Y: y, Width: w, Height: h, Renderer: &fakeRenderer{}}, nil
	})
	factory.RegisterHelp("plot", "plot: renders a line chart")

	return NewDispatcher(mgr, factory), mgr
}

func TestDispatcherRunCreatesCard(t *testing.T) {
	d, mgr := newTestDispatcher(t)
	reply := d.Handle("666666;run -c plot -x 1 -y 2 -w 40 -h 8 --name wave")
	if strings.HasPrefix(reply, "error:") {
		t.Fatalf("run failed: %q", reply)
	}
	id := strings.TrimSpace(reply)
	if len(id) != idLength {
		t.Fatalf("reply %q doesn't look like a generated id", reply)
	}
	if len(mgr.Cards()) != 1 {
		t.Fatalf("card count = %d, want 1", len(mgr.Cards()))
	}
	slot, ok := mgr.GetSlotIndexByName("wave")
	if !ok {
		t.Fatalf("named card 'wave' not registered")
	}
	c, _ := mgr.Card(slot)
	if c.ID != id {
		t.Fatalf("registered card id = %q, want %q", c.ID, id)
	}
}

func TestDispatcherRunWithoutNameGetsAutoGeneratedName(t *testing.T) {
	d, mgr := newTestDispatcher(t)
	reply := d.Handle("666666;run -c plot -x 1 -y 2 -w 40 -h 8")
	if strings.HasPrefix(reply, "error:") {
		t.Fatalf("run failed: %q", reply)
	}
	if len(mgr.Cards()) != 1 {
		t.Fatalf("card count = %d, want 1", len(mgr.Cards()))
	}
	c := mgr.Cards()[0]
	if c.Name == "" {
		t.Fatalf("card without --name should still get an auto-generated name")
	}
	slot, ok := mgr.GetSlotIndexByName(c.Name)
	if !ok || slot != c.SlotIndex {
		t.Fatalf("auto-generated name %q not registered against the card's slot", c.Name)
	}
}

func TestDispatcherRunUnknownCardType(t *testing.T) {
	d, _ := newTestDispatcher(t)
	reply := d.Handle("666666;run -c nonsense")
	if !strings.HasPrefix(reply, "error:") {
		t.Fatalf("expected error reply, got %q", reply)
	}
}

func TestDispatcherListShowsRunningOnly(t *testing.T) {
	d, mgr := newTestDispatcher(t)
	d.Handle("666666;run -c plot")
	slot := mgr.Cards()[0].SlotIndex
	c, _ := mgr.Card(slot)
	c.Running = false

	reply := d.Handle("666666;ls")
	if !strings.Contains(reply, "no cards") {
		t.Fatalf("ls without --all should hide stopped cards: %q", reply)
	}
	reply = d.Handle("666666;ls --all")
	if strings.Contains(reply, "no cards") {
		t.Fatalf("ls --all should include stopped cards: %q", reply)
	}
}

func TestDispatcherCardsListsRegisteredTypes(t *testing.T) {
	d, _ := newTestDispatcher(t)
	reply := d.Handle("666666;cards")
	if !strings.Contains(reply, "plot") {
		t.Fatalf("cards reply = %q, want to contain plot", reply)
	}
}

func TestDispatcherKillByName(t *testing.T) {
	d, mgr := newTestDispatcher(t)
	d.Handle("666666;run -c plot --name wave")
	reply := d.Handle("666666;kill --name wave")
	if strings.HasPrefix(reply, "error:") {
		t.Fatalf("kill failed: %q", reply)
	}
	if len(mgr.Cards()) != 0 {
		t.Fatalf("card still present after kill")
	}
}

func TestDispatcherStopStart(t *testing.T) {
	d, mgr := newTestDispatcher(t)
	d.Handle("666666;run -c plot --name wave")
	slot, _ := mgr.GetSlotIndexByName("wave")

	d.Handle("666666;stop --name wave")
	c, _ := mgr.Card(slot)
	if c.Running {
		t.Fatalf("card still running after stop")
	}

	d.Handle("666666;start --name wave")
	c, _ = mgr.Card(slot)
	if !c.Running {
		t.Fatalf("card not running after start")
	}
}

func TestDispatcherHelpReturnsRegisteredText(t *testing.T) {
	d, _ := newTestDispatcher(t)
	reply := d.Handle("666666;help --card plot")
	if !strings.Contains(reply, "line chart") {
		t.Fatalf("help reply = %q", reply)
	}
}

func TestDispatcherHelpUnknownCardType(t *testing.T) {
	d, _ := newTestDispatcher(t)
	reply := d.Handle("666666;help --card nonsense")
	if !strings.HasPrefix(reply, "error:") {
		t.Fatalf("expected error reply, got %q", reply)
	}
}

func TestDispatcherMalformedSequenceRepliesWithError(t *testing.T) {
	d, _ := newTestDispatcher(t)
	reply := d.Handle("666666;")
	if !strings.HasPrefix(reply, "error:") {
		t.Fatalf("expected error reply, got %q", reply)
	}
}
