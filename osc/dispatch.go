package osc

import (
	"fmt"

	"github.com/zokrezyl/yetty/card"
	"github.com/zokrezyl/yetty/cardmgr"
)

// Updatable is an optional capability a card's Renderer may implement
// to accept the OSC "update" command's new args/payload. Renderers that
// don't implement it simply can't be retargeted live.
type Updatable interface {
	Update(c *card.Card, args string, payload []byte) error
}

// Dispatcher ties a Parser, a FactoryRegistry, and a cardmgr.Manager
// together: it turns one OSC sequence into card-system side effects and
// a TTY-bound reply string. Ported from the dispatch half of
// GPUScreen's OSC handling (card-factory.h's consumer) generalized from
// the original's direct GPUScreen method calls to an explicit,
// independently testable type.
type Dispatcher struct {
	parser  *Parser
	mgr     *cardmgr.Manager
	factory *FactoryRegistry
}

// NewDispatcher returns a Dispatcher. The parser's id-collision source
// should normally be d.liveIDs (wired automatically here).
func NewDispatcher(mgr *cardmgr.Manager, factory *FactoryRegistry) *Dispatcher {
	d := &Dispatcher{mgr: mgr, factory: factory}
	d.parser = NewParser(d.liveIDs)
	return d
}

func (d *Dispatcher) liveIDs() map[string]bool {
	out := make(map[string]bool)
	for _, c := range d.mgr.Cards() {
		out[c.ID] = true
	}
	return out
}

func (d *Dispatcher) liveNames() map[string]bool {
	out := make(map[string]bool)
	for _, c := range d.mgr.Cards() {
		if c.Name != "" {
			out[c.Name] = true
		}
	}
	return out
}

// Handle parses sequence and executes it, returning the text to write
// back to the TTY (never wrapped in OSC, per spec.md §4.3).
func (d *Dispatcher) Handle(sequence string) string {
	cmd := d.parser.Parse(sequence)
	if cmd.Err != nil {
		return Error(cmd.Err)
	}

	switch cmd.Type {
	case CommandRun:
		return d.handleRun(cmd.Run, cmd.CardArgs, cmd.Payload)
	case CommandList:
		return d.handleList(cmd.List)
	case CommandCards:
		return d.handleCards()
	case CommandKill:
		return d.handleKill(cmd.Target)
	case CommandStop:
		return d.handleSetRunning(cmd.Target, false)
	case CommandStart:
		return d.handleSetRunning(cmd.Target, true)
	case CommandUpdate:
		return d.handleUpdate(cmd.Target, cmd.CardArgs, cmd.Payload)
	case CommandHelp:
		return d.handleHelp(cmd.Help)
	default:
		return Error(fmt.Errorf("%w: %d", ErrUnknownCommand, cmd.Type))
	}
}

func (d *Dispatcher) handleRun(args RunArgs, cardArgs string, payload []byte) string {
	if !d.factory.Has(args.Card) {
		return Error(fmt.Errorf("%w: %s", ErrUnknownCardType, args.Card))
	}
	c, err := d.factory.Create(args.Card, args.X, args.Y, uint32(args.Width), uint32(args.Height), cardArgs, payload)
	if err != nil {
		return Error(err)
	}
	c.ID = d.parser.GenerateID()
	c.Name = args.Name
	if c.Name == "" {
		c.Name = generateName(d.liveNames())
	}
	c.Running = true

	slot, err := d.mgr.AddCard(c)
	if err != nil {
		return Error(err)
	}
	d.mgr.RegisterNamedCard(c.Name, slot)
	slogger().Info("card created", "id", c.ID, "type", args.Card, "slot", slot, "name", c.Name)
	return Success(c.ID)
}

func (d *Dispatcher) handleList(args ListArgs) string {
	cards := d.mgr.Cards()
	summaries := make([]CardSummary, 0, len(cards))
	for _, c := range cards {
		if !args.All && !c.Running {
			continue
		}
		summaries = append(summaries, CardSummary{
			ID: c.ID, Card: c.TypeName(),
			X: c.X, Y: c.Y, W: int32(c.Width), H: int32(c.Height),
			Running: c.Running,
		})
	}
	return CardList(summaries)
}

func (d *Dispatcher) handleCards() string {
	names := make([]string, 0, len(card.AllKinds()))
	for _, k := range card.AllKinds() {
		if d.factory.Has(k.String()) {
			names = append(names, k.String())
		}
	}
	return CardTypeList(names)
}

// matchTargets resolves kill/stop/start/update's shared targeting rule:
// a specific card by OSC id or registered name, or every live card of a
// given type.
func (d *Dispatcher) matchTargets(t TargetArgs) ([]*card.Card, error) {
	if t.ID != "" {
		for _, c := range d.mgr.Cards() {
			if c.ID == t.ID || (c.Name != "" && c.Name == t.ID) {
				return []*card.Card{c}, nil
			}
		}
		return nil, fmt.Errorf("no card with id or name %q", t.ID)
	}
	kind, ok := card.ParseKind(t.Card)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCardType, t.Card)
	}
	var out []*card.Card
	for _, c := range d.mgr.Cards() {
		if c.Kind == kind {
			out = append(out, c)
		}
	}
	return out, nil
}

func (d *Dispatcher) handleKill(t TargetArgs) string {
	targets, err := d.matchTargets(t)
	if err != nil {
		return Error(err)
	}
	for _, c := range targets {
		if c.Renderer != nil {
			c.Renderer.Dispose(c)
		}
		if err := d.mgr.RemoveCard(c.SlotIndex); err != nil {
			return Error(err)
		}
	}
	return Success("")
}

func (d *Dispatcher) handleSetRunning(t TargetArgs, running bool) string {
	targets, err := d.matchTargets(t)
	if err != nil {
		return Error(err)
	}
	for _, c := range targets {
		c.Running = running
	}
	return Success("")
}

func (d *Dispatcher) handleUpdate(t TargetArgs, cardArgs string, payload []byte) string {
	targets, err := d.matchTargets(t)
	if err != nil {
		return Error(err)
	}
	for _, c := range targets {
		u, ok := c.Renderer.(Updatable)
		if !ok {
			return Error(fmt.Errorf("card type %s does not support update", c.TypeName()))
		}
		if err := u.Update(c, cardArgs, payload); err != nil {
			return Error(err)
		}
	}
	return Success("")
}

func (d *Dispatcher) handleHelp(args HelpArgs) string {
	if !d.factory.Has(args.Card) {
		return Error(fmt.Errorf("%w: %s", ErrUnknownCardType, args.Card))
	}
	text, ok := d.factory.Help(args.Card)
	if !ok {
		text = fmt.Sprintf("no help available for card type %q", args.Card)
	}
	return Success(text)
}
